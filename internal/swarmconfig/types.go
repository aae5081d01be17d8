// Package swarmconfig parses and validates a swarm configuration document:
// the declarative description of a team of agents, their working
// directories, tool permissions, and connection graph.
package swarmconfig

import "gopkg.in/yaml.v3"

// Provider identifies which LLM provider family an agent talks to.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// ReasoningEffort is the OpenAI-only reasoning budget knob.
type ReasoningEffort string

const (
	ReasoningLow    ReasoningEffort = "low"
	ReasoningMedium ReasoningEffort = "medium"
	ReasoningHigh   ReasoningEffort = "high"
)

// reasoningModels is the fixed allow-list of models that accept a
// reasoning-effort setting. Only o-series models qualify.
var reasoningModels = map[string]bool{
	"o1":      true,
	"o1-mini": true,
	"o1-pro":  true,
	"o3":      true,
	"o3-mini": true,
	"o4-mini": true,
}

// IsReasoningModel reports whether model accepts --reasoning-effort.
func IsReasoningModel(model string) bool {
	return reasoningModels[model]
}

// MCPServerType is the kind of external MCP server an agent declares.
type MCPServerType string

const (
	MCPServerStdio MCPServerType = "stdio"
	MCPServerSSE   MCPServerType = "sse"
)

// ExternalMCPServer is a verbatim external MCP server declaration carried
// in an AgentSpec.
type ExternalMCPServer struct {
	Name    string            `yaml:"name" json:"name"`
	Type    MCPServerType     `yaml:"type" json:"type"`
	Command string            `yaml:"command,omitempty" json:"command,omitempty"`
	Args    []string          `yaml:"args,omitempty" json:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	URL     string            `yaml:"url,omitempty" json:"url,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
}

// WorktreeDirective is the per-agent or swarm-level worktree setting:
// disabled, shared-name, or a specific branch name.
type WorktreeDirective struct {
	// Enabled is true when a worktree should be used at all.
	Enabled bool
	// UseShared is true when this agent should reuse the swarm-wide
	// shared worktree name rather than its own branch.
	UseShared bool
	// BranchName, if non-empty, names the branch to check out for this
	// agent specifically, overriding the shared name.
	BranchName string
}

// AgentSpec describes one agent participating in the swarm.
type AgentSpec struct {
	Name        string `yaml:"-" json:"-"`
	Description string `yaml:"description" json:"description"`

	// Directories is one or more working directories; a single string in
	// the source document is normalized to a one-element slice.
	Directories []string `yaml:"directory" json:"directory"`

	Model           string          `yaml:"model,omitempty" json:"model,omitempty"`
	Provider        Provider        `yaml:"provider,omitempty" json:"provider,omitempty"`
	Temperature     *float64        `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	ReasoningEffort ReasoningEffort `yaml:"reasoning_effort,omitempty" json:"reasoning_effort,omitempty"`

	Prompt string `yaml:"prompt,omitempty" json:"prompt,omitempty"`

	AllowedTools    []string `yaml:"allowed_tools,omitempty" json:"allowed_tools,omitempty"`
	DisallowedTools []string `yaml:"disallowed_tools,omitempty" json:"disallowed_tools,omitempty"`

	Connections []string `yaml:"connections,omitempty" json:"connections,omitempty"`

	MCPServers []ExternalMCPServer `yaml:"mcps,omitempty" json:"mcps,omitempty"`

	Worktree *WorktreeDirective `yaml:"worktree,omitempty" json:"worktree,omitempty"`

	Hooks map[string][]string `yaml:"hooks,omitempty" json:"hooks,omitempty"`

	// SourcePath records where this spec was loaded from when it came
	// from an external markdown file, for error messages.
	SourcePath string `yaml:"-" json:"-"`
}

// Config is the fully parsed, pre-validation swarm configuration document.
type Config struct {
	Version int                  `yaml:"version" json:"version"`
	Name    string               `yaml:"-" json:"name"`
	Main    string               `yaml:"-" json:"main"`
	Before  []string             `yaml:"-" json:"before,omitempty"`
	After   []string             `yaml:"-" json:"after,omitempty"`
	Agents  map[string]AgentSpec `yaml:"-" json:"agents"`

	// BaseDir is the directory relative paths are resolved against. It is
	// the config file's own directory unless an explicit base directory
	// was supplied (session restoration).
	BaseDir string `yaml:"-" json:"-"`

	// SourcePath is the absolute path to the config document that was
	// loaded, for diagnostics.
	SourcePath string `yaml:"-" json:"-"`
}

// rawDocument mirrors the on-disk shape before the swarm/instances keys are
// flattened into Config/AgentSpec.
type rawDocument struct {
	Version int      `yaml:"version"`
	Swarm   rawSwarm `yaml:"swarm"`
}

type rawSwarm struct {
	Name      string                `yaml:"name"`
	Main      string                `yaml:"main"`
	Before    []string              `yaml:"before"`
	After     []string              `yaml:"after"`
	Instances map[string]yaml.Node `yaml:"instances"`
}

type rawAgentSpec struct {
	Description     string              `yaml:"description"`
	Directory       interface{}         `yaml:"directory"`
	Model           string              `yaml:"model"`
	Provider        string              `yaml:"provider"`
	Temperature     *float64            `yaml:"temperature"`
	ReasoningEffort string              `yaml:"reasoning_effort"`
	Prompt          string              `yaml:"prompt"`
	AllowedTools    interface{}         `yaml:"allowed_tools"`
	DisallowedTools interface{}         `yaml:"disallowed_tools"`
	Connections     []string            `yaml:"connections"`
	MCPs            []ExternalMCPServer `yaml:"mcps"`
	Worktree        interface{}         `yaml:"worktree"`
	Hooks           map[string][]string `yaml:"hooks"`
}
