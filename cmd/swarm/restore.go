package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kandev/swarm/internal/common/logger"
	"github.com/kandev/swarm/internal/common/runtimeconfig"
	"github.com/kandev/swarm/internal/orchestrator"
	"github.com/kandev/swarm/internal/session"
	"github.com/kandev/swarm/internal/swarmconfig"
)

func newRestoreCommand() *cobra.Command {
	var (
		prompt string
		debug  bool
	)

	cmd := &cobra.Command{
		Use:   "restore <session-path>",
		Short: "Replay a recorded session, skipping pre- and post-commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runRestore(cmd, args[0], prompt, debug)
			return nil
		},
	}

	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "prompt to pass to the main agent for a single non-interactive turn")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")

	return cmd
}

func runRestore(cmd *cobra.Command, sessionPath, prompt string, debug bool) {
	rt, err := runtimeconfig.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load runtime configuration:", err)
		os.Exit(1)
	}

	level := rt.LogLevel
	if debug {
		level = "debug"
	}
	log, err := logger.New(logger.Config{Level: level, Format: rt.LogFormat, OutputPath: "stderr"})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	restored, err := session.Restore(sessionPath)
	if err != nil {
		log.Error("failed to read session for restore", zap.Error(err))
		os.Exit(1)
	}

	cfg, err := swarmconfig.Load(restored.Paths.ConfigFile(), restored.RootDir)
	if err != nil {
		log.Error("failed to load the session's recorded config", zap.Error(err))
		os.Exit(1)
	}
	cfg.Name = restored.Metadata.SwarmName

	if err := swarmconfig.Validate(cfg, swarmconfig.ValidateOptions{}); err != nil {
		log.Error("restored config failed validation", zap.Error(err))
		os.Exit(1)
	}

	swarmBinary, err := os.Executable()
	if err != nil {
		log.Error("failed to resolve swarm binary path", zap.Error(err))
		os.Exit(1)
	}

	ctx := cmd.Context()
	orch := orchestrator.New(rt, log, swarmBinary, toolVersion)
	outcome, runErr := orch.Start(ctx, cfg, orchestrator.Options{
		Prompt:             prompt,
		Debug:              debug,
		RestoreSessionPath: sessionPath,
	})

	for _, w := range outcome.Warnings {
		log.Warn(w.Message, zap.String("source", w.Source))
	}
	if runErr != nil {
		log.Error("restored run failed", zap.Error(runErr))
	}

	os.Exit(outcome.ExitCode)
}
