package executor

import (
	"context"
	"fmt"

	"github.com/kandev/swarm/internal/common/logger"
	"github.com/kandev/swarm/internal/swarmconfig"
)

// foreignBinary is the foreign-provider CLI front-end; overridable in
// tests. buildForeignArgs passes it only the agent's own manifest
// (--mcp-config); the sibling `_llm_mcp_connections.json` manifest that
// internal/mcptopology writes for the built-in toolbox is not passed.
var foreignBinary = "swarm-foreign-bridge"

// ForeignExecutor is the non-anthropic-provider executor variant (e.g.
// openai). It satisfies the same capability set as NativeExecutor but
// speaks the foreign CLI's own flag surface.
type ForeignExecutor struct {
	*base
}

// NewForeignExecutor constructs the foreign-provider variant.
func NewForeignExecutor(cfg Config, sink LogSink, log *logger.Logger) *ForeignExecutor {
	return &ForeignExecutor{base: newBase(cfg, sink, log, buildForeignArgs)}
}

func (e *ForeignExecutor) Execute(ctx context.Context, prompt string, _ CallOptions) (*Result, error) {
	return e.execute(ctx, prompt)
}

func buildForeignArgs(cfg Config, prompt, sessionID string) (string, []string) {
	args := []string{
		"--provider", cfg.Provider,
		"--model", cfg.Model,
		"--output-format", "stream-json",
	}

	if cfg.BaseURL != "" {
		args = append(args, "--base-url", cfg.BaseURL)
	}

	if cfg.Temperature != nil {
		args = append(args, "--temperature", fmt.Sprintf("%g", *cfg.Temperature))
	}

	if cfg.ReasoningEffort != "" {
		args = append(args, "--reasoning-effort", cfg.ReasoningEffort)
	}

	if allowed := cfg.EffectiveAllowedTools(); len(allowed) > 0 {
		args = append(args, "--allowed-tools", joinCSV(allowed))
	} else if cfg.Permissive {
		args = append(args, "--bypass-permissions")
	}

	if cfg.ManifestPath != "" {
		args = append(args, "--mcp-config", cfg.ManifestPath)
	}

	if sessionID != "" {
		args = append(args, "--resume", sessionID)
	}

	args = append(args, "-p", prompt)

	return foreignBinary, args
}

// ValidateReasoningKnobs enforces the `mcp-serve` pre-flight check: a
// reasoning effort is only accepted for the fixed allow-list of o-series
// models, and only for provider openai.
func ValidateReasoningKnobs(provider, model, reasoningEffort string) error {
	if reasoningEffort == "" {
		return nil
	}
	if swarmconfig.Provider(provider) != swarmconfig.ProviderOpenAI {
		return fmt.Errorf("reasoning_effort is only supported for provider openai. Current provider: %s", provider)
	}
	if !swarmconfig.IsReasoningModel(model) {
		return fmt.Errorf("reasoning_effort is only supported for o-series models. Current model: %s", model)
	}
	return nil
}
