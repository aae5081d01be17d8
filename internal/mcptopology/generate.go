package mcptopology

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/kandev/swarm/internal/common/apperr"
	"github.com/kandev/swarm/internal/swarmconfig"
)

// builtinToolboxServerName is the entry name for the platform's built-in
// tool MCP server, wired into the sibling manifest for foreign-provider
// agents that cannot use the native tool protocol directly.
const builtinToolboxServerName = "anthropic-native-tools"

// Generate writes `<agent>.mcp.json` for every agent in cfg, plus
// `<agent>_llm_mcp_connections.json` for agents on a non-default
// provider. instanceIDs supplies the stable per-run identity tagged onto
// each delegation entry so the callee's executor can log cross-agent
// requests. Returns the in-memory manifests for callers (tests, the
// orchestrator) that want them without re-reading from disk.
func Generate(cfg *swarmconfig.Config, instanceIDs map[string]string, swarmBinary, outputDir string, permissive bool) (map[string]Manifest, error) {
	manifests := make(map[string]Manifest, len(cfg.Agents))
	scrubbedEnv := ScrubbedEnv()

	for name, spec := range cfg.Agents {
		servers := make(map[string]ServerEntry)

		for _, ext := range spec.MCPServers {
			servers[ext.Name] = ServerEntry{
				Type:    string(ext.Type),
				Command: ext.Command,
				Args:    ext.Args,
				Env:     ext.Env,
				URL:     ext.URL,
				Headers: ext.Headers,
			}
		}

		for _, connName := range spec.Connections {
			callee, ok := cfg.Agents[connName]
			if !ok {
				return nil, apperr.ConfigError("agent "+name+" connects to unknown agent "+connName, nil)
			}
			servers[connName] = childServerEntry(swarmBinary, callee, connName, instanceIDs[connName], name, instanceIDs[name], scrubbedEnv, permissive)
		}

		manifest := Manifest{MCPServers: servers}
		manifests[name] = manifest

		if err := writeJSON(filepath.Join(outputDir, name+".mcp.json"), manifest); err != nil {
			return nil, err
		}

		if spec.Provider != "" && spec.Provider != swarmconfig.ProviderAnthropic {
			llmManifest := LLMConnectionsManifest{
				MCPServers: map[string]ServerEntry{
					builtinToolboxServerName: {
						Type:    "stdio",
						Command: swarmBinary,
						Args:    []string{"mcp-serve", "--builtin-toolbox"},
						Env:     scrubbedEnv,
					},
				},
			}
			if err := writeJSON(filepath.Join(outputDir, name+"_llm_mcp_connections.json"), llmManifest); err != nil {
				return nil, err
			}
		}
	}

	return manifests, nil
}

// childServerEntry builds the stdio MCP server entry representing a
// re-invocation of the swarm binary in mcp-serve mode for callee, as seen
// by caller.
func childServerEntry(swarmBinary string, callee swarmconfig.AgentSpec, calleeName, calleeID, callerName, callerID string, env map[string]string, permissive bool) ServerEntry {
	specJSON, _ := json.Marshal(callee)
	encoded := base64.StdEncoding.EncodeToString(specJSON)

	args := []string{
		"mcp-serve",
		"--agent", calleeName,
		"--agent-id", calleeID,
		"--agent-spec-b64", encoded,
		"--caller", callerName,
		"--caller-id", callerID,
	}
	if permissive {
		args = append(args, "--vibe")
	}

	return ServerEntry{
		Type:    "stdio",
		Command: swarmBinary,
		Args:    args,
		Env:     env,
	}
}

// writeJSON marshals v with sorted object keys (Go's encoding/json
// already sorts map[string]T keys, which is what makes generation
// idempotent byte-for-byte across runs) and writes it via write-then-
// rename so a crash never leaves a half-written manifest.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperr.ConfigError("failed to marshal manifest "+path, err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperr.ConfigError("failed to write manifest "+path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return apperr.ConfigError("failed to finalize manifest "+path, err)
	}
	return nil
}
