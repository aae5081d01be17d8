package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kandev/swarm/internal/common/apperr"
	"github.com/kandev/swarm/internal/common/logger"
	"github.com/kandev/swarm/internal/executor"
	"github.com/kandev/swarm/internal/session"
	"github.com/kandev/swarm/internal/swarmconfig"
)

// sessionLogSink appends structured events to the session's shared
// session.log.json, the same file the orchestrator's own session.Store
// writes to, so a delegated agent's events interleave with the main
// agent's in one append-only record.
type sessionLogSink struct {
	mu   sync.Mutex
	file *os.File
}

func newSessionLogSink(sessionPath string) (*sessionLogSink, error) {
	if sessionPath == "" {
		return nil, nil
	}
	path := session.Paths{Root: sessionPath}.LogJSONFile()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, apperr.ExecutionError("failed to open session log for append", err)
	}
	return &sessionLogSink{file: f}, nil
}

func (s *sessionLogSink) RecordEvent(event map[string]interface{}) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(event)
	if err != nil {
		return apperr.ExecutionError("failed to marshal log event", err)
	}
	data = append(data, '\n')
	if _, err := s.file.Write(data); err != nil {
		return apperr.ExecutionError("failed to append log event", err)
	}
	return s.file.Sync()
}

func newMCPServeCommand() *cobra.Command {
	var (
		agentName     string
		agentID       string
		agentSpecB64  string
		callerName    string
		callerID      string
		vibe          bool
		builtinToolbx bool
		provider      string
		model         string
		reasoning     string
		temperature   float64
		hasTemp       bool
		workingDir    string
		manifestPath  string
		settingsPath  string
		resumeID      string
	)

	cmd := &cobra.Command{
		Use:    "mcp-serve",
		Short:  "Serve one agent's task tool (or the built-in toolbox) over stdio MCP",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if builtinToolbx {
				return serveBuiltinToolbox(cmd.Context())
			}

			cfg, err := buildExecutorConfig(mcpServeInput{
				agentName:    agentName,
				agentID:      agentID,
				agentSpecB64: agentSpecB64,
				callerName:   callerName,
				callerID:     callerID,
				vibe:         vibe,
				provider:     provider,
				model:        model,
				reasoning:    reasoning,
				temperature:  temperature,
				hasTemp:      hasTemp,
				workingDir:   workingDir,
				manifestPath: manifestPath,
				settingsPath: settingsPath,
				resumeID:     resumeID,
			})
			if err != nil {
				return err
			}

			if err := executor.ValidateReasoningKnobs(cfg.Provider, cfg.Model, cfg.ReasoningEffort); err != nil {
				return err
			}

			return serveAgent(cmd.Context(), agentName, cfg)
		},
	}

	cmd.Flags().StringVar(&agentName, "agent", "", "name of the agent to serve")
	cmd.Flags().StringVar(&agentID, "agent-id", "", "stable per-run instance id for this agent")
	cmd.Flags().StringVar(&agentSpecB64, "agent-spec-b64", "", "base64-encoded JSON agent spec (set by generated manifests)")
	cmd.Flags().StringVar(&callerName, "caller", "", "name of the delegating agent, if any")
	cmd.Flags().StringVar(&callerID, "caller-id", "", "instance id of the delegating agent, if any")
	cmd.Flags().BoolVar(&vibe, "vibe", false, "bypass tool permission prompts")
	cmd.Flags().BoolVar(&builtinToolbx, "builtin-toolbox", false, "serve the platform's built-in read/write/bash toolbox instead of an agent")
	cmd.Flags().StringVar(&provider, "provider", "", "provider (anthropic|openai); used when --agent-spec-b64 is not given")
	cmd.Flags().StringVar(&model, "model", "", "model name; used when --agent-spec-b64 is not given")
	cmd.Flags().StringVar(&reasoning, "reasoning-effort", "", "reasoning effort for o-series models")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "sampling temperature")
	cmd.Flags().StringVar(&workingDir, "working-dir", "", "working directory to run the agent's subprocess in")
	cmd.Flags().StringVar(&manifestPath, "mcp-config", "", "path to this agent's MCP manifest")
	cmd.Flags().StringVar(&settingsPath, "settings", "", "path to this agent's settings file")
	cmd.Flags().StringVar(&resumeID, "resume", "", "provider session id to resume")

	cmd.PreRun = func(cmd *cobra.Command, _ []string) {
		hasTemp = cmd.Flags().Changed("temperature")
	}

	return cmd
}

type mcpServeInput struct {
	agentName, agentID, agentSpecB64, callerName, callerID string
	vibe                                                   bool
	provider, model, reasoning                             string
	temperature                                            float64
	hasTemp                                                bool
	workingDir, manifestPath, settingsPath, resumeID       string
}

// buildExecutorConfig resolves an executor.Config either from a decoded
// agent spec (the normal delegation path, carried as --agent-spec-b64 by
// generated manifests) or directly from flags (the ad-hoc path used to
// validate a model/provider/reasoning-effort combination in isolation).
func buildExecutorConfig(in mcpServeInput) (executor.Config, error) {
	cfg := executor.Config{
		AgentName:    in.agentName,
		AgentID:      in.agentID,
		CallerName:   in.callerName,
		CallerID:     in.callerID,
		Permissive:   in.vibe,
		WorkingDir:   in.workingDir,
		ManifestPath: in.manifestPath,
		SettingsPath: in.settingsPath,
		ResumeSessionID: in.resumeID,
		Provider:     in.provider,
		Model:        in.model,
		ReasoningEffort: in.reasoning,
	}
	if in.hasTemp {
		t := in.temperature
		cfg.Temperature = &t
	}

	if in.agentSpecB64 == "" {
		return cfg, nil
	}

	raw, err := base64.StdEncoding.DecodeString(in.agentSpecB64)
	if err != nil {
		return cfg, apperr.ConfigError("failed to decode --agent-spec-b64", err)
	}
	var spec swarmconfig.AgentSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return cfg, apperr.ConfigError("failed to parse decoded agent spec", err)
	}

	cfg.AgentName = in.agentName
	cfg.Model = spec.Model
	cfg.Provider = string(spec.Provider)
	cfg.Temperature = spec.Temperature
	cfg.ReasoningEffort = string(spec.ReasoningEffort)
	cfg.Allowed = spec.AllowedTools
	cfg.Disallowed = spec.DisallowedTools
	cfg.Connections = spec.Connections
	if len(spec.Directories) > 0 {
		cfg.WorkingDir = spec.Directories[0]
	}
	return cfg, nil
}

func serveAgent(ctx context.Context, agentName string, cfg executor.Config) error {
	sessionPath := os.Getenv("CLAUDE_SWARM_SESSION_PATH")
	sink, err := newSessionLogSink(sessionPath)
	if err != nil {
		return err
	}

	log := logger.Default()
	var logSink executor.LogSink
	if sink != nil {
		logSink = sink
	}

	exec, err := executor.New(cfg, logSink, log)
	if err != nil {
		return err
	}

	server := executor.NewMCPServer(agentName, exec)
	return runUntilInterrupted(ctx, func(runCtx context.Context) error {
		return executor.ServeStdio(runCtx, server)
	})
}

func serveBuiltinToolbox(ctx context.Context) error {
	server := executor.NewBuiltinToolboxServer()
	return runUntilInterrupted(ctx, func(runCtx context.Context) error {
		return executor.ServeStdio(runCtx, server)
	})
}

// runUntilInterrupted cancels fn's context on SIGINT/SIGTERM so a
// delegated mcp-serve child shuts down cooperatively alongside the main
// agent's own process group rather than being force-killed.
func runUntilInterrupted(ctx context.Context, fn func(context.Context) error) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() { errCh <- fn(runCtx) }()

	select {
	case <-sigCh:
		cancel()
		return <-errCh
	case err := <-errCh:
		return err
	}
}
