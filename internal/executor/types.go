// Package executor is the runtime embodiment of one agent: it owns an LLM
// client and an MCP server exposing a single `task` tool, and drives a
// prompt-to-response loop with session continuation.
package executor

import (
	"context"
	"time"
)

// Options has no fields. The per-call provider option bundle (model,
// session token, tool filtering, manifest/settings paths) is built
// directly as CLI arguments by buildNativeArgs and buildForeignArgs.
type Options struct{}

// CallOptions is reserved for future per-call overrides; execute's second
// argument in the spec is an options bundle that is empty in the current
// feature set.
type CallOptions struct{}

// Result is the terminal outcome of one execute call.
type Result struct {
	Type       string         `json:"type"`
	Text       string         `json:"text"`
	DurationMs int64          `json:"duration_ms"`
	SessionID  string         `json:"session_id"`
	Cost       *float64       `json:"cost,omitempty"`
	Usage      map[string]int `json:"usage,omitempty"`
}

// Executor is the capability set every provider variant satisfies:
// execute a prompt, reset accumulated session state, and report whether a
// session is active.
type Executor interface {
	Execute(ctx context.Context, prompt string, opts CallOptions) (*Result, error)
	ResetSession()
	HasSession() bool
}

// Config bundles construction inputs shared by every executor variant.
type Config struct {
	WorkingDir   string
	AgentName    string
	AgentID      string
	CallerName   string
	CallerID     string
	Model        string
	Allowed      []string
	Disallowed   []string
	Connections  []string
	ManifestPath string
	SettingsPath string
	Permissive   bool

	Provider        string
	BaseURL         string
	Temperature     *float64
	ReasoningEffort string

	ResumeSessionID string
}

// EffectiveAllowedTools returns the declared allow-list unioned with
// `mcp__<connection>` entries for every connected agent, unless the
// executor runs in permissive mode, in which case tool filtering is
// bypassed entirely and this returns nil.
func (c Config) EffectiveAllowedTools() []string {
	if c.Permissive {
		return nil
	}
	out := make([]string, 0, len(c.Allowed)+len(c.Connections))
	out = append(out, c.Allowed...)
	for _, conn := range c.Connections {
		out = append(out, "mcp__"+conn)
	}
	return out
}

// LogSink receives request/result/assistant/tool_call/system events for
// the structured session log. In the real binary, mcp-serve supplies
// cmd/swarm's sessionLogSink; *session.Store also satisfies it; tests use a
// recording fake.
type LogSink interface {
	RecordEvent(event map[string]interface{}) error
}

// nowFunc is overridable in tests.
var nowFunc = time.Now
