// Package swarmproto holds the wire-level shapes written to disk: the
// structured session log record and the MCP topology manifest.
// internal/mcptopology aliases the manifest types. LogRecord documents the
// log line shape; the executor builds log records as plain maps with the
// same keys, and internal/session writes them without using this type.
package swarmproto

// EventType enumerates the kinds of structured log events a session log
// line can carry, in the order they are required to appear for one call:
// request, then zero or more intermediate events, then result.
type EventType string

const (
	EventRequest    EventType = "request"
	EventAssistant  EventType = "assistant"
	EventToolCall   EventType = "tool_call"
	EventToolResult EventType = "tool_result"
	EventSystem     EventType = "system"
	EventResult     EventType = "result"
)

// LogRecord is one line of session.log.json.
type LogRecord struct {
	Timestamp         string                 `json:"ts"`
	Instance          string                 `json:"instance"`
	InstanceID        string                 `json:"instance_id"`
	CallingInstance   *string                `json:"calling_instance"`
	CallingInstanceID *string                `json:"calling_instance_id"`
	Event             map[string]interface{} `json:"event"`
}

// MCPServerEntry is one entry in a manifest's mcpServers map: either a
// stdio re-invocation of the swarm binary or a verbatim external
// declaration.
type MCPServerEntry struct {
	Type    string            `json:"type"`
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	URL     string            `json:"url,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// MCPManifest is the top-level shape of an `<agent>.mcp.json` file.
type MCPManifest struct {
	MCPServers map[string]MCPServerEntry `json:"mcpServers"`
}
