package swarmconfig

import (
	"fmt"
	"os"

	"github.com/kandev/swarm/internal/common/apperr"
	"github.com/kandev/swarm/internal/depgraph"
)

// ValidateOptions controls which invariants are checked immediately
// versus deferred (directory existence is deferred when pre-commands will
// run first).
type ValidateOptions struct {
	// DeferDirectoryChecks skips invariant 5 (working directories must
	// exist) because pre-commands have not run yet.
	DeferDirectoryChecks bool
}

// Validate enforces the eight invariants from the config document's
// definition. It returns a *apperr.AppError with CodeConfigError on any
// failure.
func Validate(cfg *Config, opts ValidateOptions) error {
	if cfg.Version != 1 {
		return apperr.ConfigError(fmt.Sprintf("unsupported config version %d, only version 1 is accepted", cfg.Version), nil)
	}

	if _, ok := cfg.Agents[cfg.Main]; !ok {
		return apperr.ConfigError(fmt.Sprintf("main agent %q is not defined in instances", cfg.Main), nil)
	}

	for name, spec := range cfg.Agents {
		for _, conn := range spec.Connections {
			if _, ok := cfg.Agents[conn]; !ok {
				return apperr.ConfigError(fmt.Sprintf("agent %q connects to unknown agent %q", name, conn), nil)
			}
		}
	}

	edges := make(map[string][]string, len(cfg.Agents))
	for name, spec := range cfg.Agents {
		edges[name] = spec.Connections
	}
	if err := depgraph.CheckAcyclic(edges, cfg.Main); err != nil {
		return err
	}

	if !opts.DeferDirectoryChecks {
		if err := validateDirectories(cfg); err != nil {
			return err
		}
	}

	for name, spec := range cfg.Agents {
		if err := validateAgentModelKnobs(name, spec); err != nil {
			return err
		}
		if err := validateExternalServers(name, spec); err != nil {
			return err
		}
	}

	return nil
}

// validateDirectories enforces invariant 5: every working directory,
// already expanded against cfg.BaseDir by Load, must exist.
func validateDirectories(cfg *Config) error {
	for name, spec := range cfg.Agents {
		for _, dir := range spec.Directories {
			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() {
				return apperr.ConfigError(fmt.Sprintf("agent %q working directory does not exist: %s", name, dir), err)
			}
		}
	}
	return nil
}

// validateAgentModelKnobs enforces the temperature and reasoning-effort
// parts of invariant 8. Worktree values are checked earlier, when
// normalizeWorktreeDirective parses the spec.
func validateAgentModelKnobs(name string, spec AgentSpec) error {
	if spec.Temperature != nil {
		if spec.Provider == "" {
			return apperr.ConfigError(fmt.Sprintf("agent %q sets temperature without a provider", name), nil)
		}
		if IsReasoningModel(spec.Model) {
			return apperr.ConfigError(fmt.Sprintf("agent %q sets temperature on reasoning-only model %q", name, spec.Model), nil)
		}
	}

	if spec.ReasoningEffort != "" {
		if spec.Provider != ProviderOpenAI {
			return apperr.ConfigError(fmt.Sprintf("agent %q sets reasoning_effort but provider is not openai", name), nil)
		}
		if !IsReasoningModel(spec.Model) {
			return apperr.ConfigError(fmt.Sprintf("reasoning_effort is only supported for o-series models. Current model: %s", spec.Model), nil)
		}
		switch spec.ReasoningEffort {
		case ReasoningLow, ReasoningMedium, ReasoningHigh:
		default:
			return apperr.ConfigError(fmt.Sprintf("agent %q has invalid reasoning_effort %q", name, spec.ReasoningEffort), nil)
		}
	}

	return nil
}

// validateExternalServers enforces invariant 7: external MCP declarations
// carry the fields required by their declared type.
func validateExternalServers(agentName string, spec AgentSpec) error {
	for _, srv := range spec.MCPServers {
		if srv.Name == "" {
			return apperr.ConfigError(fmt.Sprintf("agent %q has an external MCP server without a name", agentName), nil)
		}
		switch srv.Type {
		case MCPServerStdio:
			if srv.Command == "" {
				return apperr.ConfigError(fmt.Sprintf("agent %q stdio MCP server %q is missing command", agentName, srv.Name), nil)
			}
		case MCPServerSSE:
			if srv.URL == "" {
				return apperr.ConfigError(fmt.Sprintf("agent %q sse MCP server %q is missing url", agentName, srv.Name), nil)
			}
		default:
			return apperr.ConfigError(fmt.Sprintf("agent %q external MCP server %q has unknown type %q", agentName, srv.Name, srv.Type), nil)
		}
	}
	return nil
}
