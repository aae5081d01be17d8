package executor

import (
	"context"

	"github.com/kandev/swarm/internal/common/logger"
)

// nativeBinary is the anthropic-native front-end; overridable in tests.
var nativeBinary = "claude"

// NativeExecutor is the anthropic-native executor variant: it shells out
// to the native CLI front-end with the native tool-permission protocol.
type NativeExecutor struct {
	*base
}

// NewNativeExecutor constructs the anthropic-native variant.
func NewNativeExecutor(cfg Config, sink LogSink, log *logger.Logger) *NativeExecutor {
	return &NativeExecutor{base: newBase(cfg, sink, log, buildNativeArgs)}
}

func (e *NativeExecutor) Execute(ctx context.Context, prompt string, _ CallOptions) (*Result, error) {
	return e.execute(ctx, prompt)
}

// buildNativeArgs mirrors the main-agent command-line rules from the
// orchestrator (§4.7 step 7), applied here to a delegated sub-call:
// --model, --allowedTools or the permission-bypass flag, --disallowedTools,
// --mcp-config, --settings (only when the file exists), stream-json
// output so the executor can parse line-delimited events, and -p with the
// prompt for a non-interactive single turn. It does not pass
// --append-system-prompt: Config carries no system prompt, so a delegated
// agent's prompt is not forwarded.
func buildNativeArgs(cfg Config, prompt, sessionID string) (string, []string) {
	args := []string{
		"--model", cfg.Model,
		"--output-format", "stream-json",
		"--verbose",
	}

	if allowed := cfg.EffectiveAllowedTools(); len(allowed) > 0 {
		args = append(args, "--allowedTools", joinCSV(allowed))
	} else if cfg.Permissive {
		args = append(args, "--dangerously-skip-permissions")
	}

	for _, d := range cfg.Disallowed {
		args = append(args, "--disallowedTools", d)
	}

	if cfg.ManifestPath != "" {
		args = append(args, "--mcp-config", cfg.ManifestPath)
	}
	if fileExists(cfg.SettingsPath) {
		args = append(args, "--settings", cfg.SettingsPath)
	}

	if sessionID != "" {
		args = append(args, "--resume", sessionID)
	}

	args = append(args, "-p", prompt)

	return nativeBinary, args
}
