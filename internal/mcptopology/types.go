// Package mcptopology generates, for each agent, the MCP manifest listing
// every peer it may delegate to and every external MCP server it owns.
package mcptopology

import "github.com/kandev/swarm/pkg/swarmproto"

// ServerEntry is one entry in a manifest's mcpServers map, aliased from
// the shared wire type in pkg/swarmproto so the manifest schema is
// defined in one place.
type ServerEntry = swarmproto.MCPServerEntry

// Manifest is the top-level shape of an `<agent>.mcp.json` file.
type Manifest = swarmproto.MCPManifest

// LLMConnectionsManifest is the sibling `<agent>_llm_mcp_connections.json`
// emitted only for non-native providers.
type LLMConnectionsManifest struct {
	MCPServers map[string]ServerEntry `json:"mcpServers"`
}
