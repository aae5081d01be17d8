package orchestrator

import (
	"os"
	"strings"

	"github.com/kandev/swarm/internal/executor"
	"github.com/kandev/swarm/internal/session"
	"github.com/kandev/swarm/internal/swarmconfig"
)

// modelOverrideEnvVar, when set in the orchestrator's own environment,
// suppresses the generated --model flag for the main agent so an
// operator can force a model across an entire run without editing the
// config document.
const modelOverrideEnvVar = "SWARM_MODEL_OVERRIDE"

const defaultModel = "claude-sonnet-4"

// buildEffectiveAllowedTools mirrors executor.Config.EffectiveAllowedTools
// for the main agent, which is launched directly rather than through an
// executor.Config bundle.
func buildEffectiveAllowedTools(spec swarmconfig.AgentSpec, permissive bool) []string {
	if permissive {
		return nil
	}
	out := make([]string, 0, len(spec.AllowedTools)+len(spec.Connections))
	out = append(out, spec.AllowedTools...)
	for _, conn := range spec.Connections {
		out = append(out, "mcp__"+conn)
	}
	return out
}

// BuildMainCommand implements step 7 of the orchestrator's Start flow:
// the command line for the main agent's subprocess, built from the same
// provider-specific conventions the executor package uses for delegated
// calls, applied here to the top-level launch instead of an MCP call.
func BuildMainCommand(spec swarmconfig.AgentSpec, paths session.Paths, permissive bool, prompt string) (binary string, args []string) {
	binary = executor.DefaultNativeBinary
	if spec.Provider == swarmconfig.ProviderOpenAI {
		binary = executor.DefaultForeignBinary
	}

	if _, overridden := os.LookupEnv(modelOverrideEnvVar); !overridden {
		model := spec.Model
		if model == "" {
			model = defaultModel
		}
		args = append(args, "--model", model)
	}

	if allowed := buildEffectiveAllowedTools(spec, permissive); len(allowed) > 0 {
		args = append(args, "--allowedTools", strings.Join(allowed, ","))
	} else if permissive {
		args = append(args, "--dangerously-skip-permissions")
	}

	if spec.Prompt != "" {
		args = append(args, "--append-system-prompt", spec.Prompt)
	}

	args = append(args, "--mcp-config", paths.ManifestFile(spec.Name))
	args = append(args, "--settings", paths.SettingsFile(spec.Name))

	if prompt != "" {
		args = append(args, "-p", prompt, "--no-banner")
	}

	return binary, args
}
