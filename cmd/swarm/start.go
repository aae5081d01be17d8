package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kandev/swarm/internal/common/logger"
	"github.com/kandev/swarm/internal/common/runtimeconfig"
	"github.com/kandev/swarm/internal/orchestrator"
	"github.com/kandev/swarm/internal/swarmconfig"
)

func newStartCommand() *cobra.Command {
	var (
		prompt       string
		vibe         bool
		debug        bool
		verbose      bool
		sessionID    string
		worktreeFlag string
	)

	cmd := &cobra.Command{
		Use:   "start <config-file>",
		Short: "Validate a config and run its main agent under supervision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runStart(cmd, args[0], orchestrator.Options{
				Prompt:          prompt,
				Vibe:            vibe,
				Debug:           debug,
				Verbose:         verbose,
				SessionID:       sessionID,
				WorktreeEnabled: cmd.Flags().Changed("worktree"),
				WorktreeName:    resolveWorktreeName(worktreeFlag),
			})
			return nil
		},
	}

	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "prompt to pass to the main agent for a single non-interactive turn")
	cmd.Flags().BoolVar(&vibe, "vibe", false, "bypass tool permission prompts for every agent in this run")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	cmd.Flags().StringVar(&sessionID, "session-id", "", "reuse a specific session id instead of generating one")
	cmd.Flags().StringVar(&worktreeFlag, "worktree", "", "check out a git worktree for every agent, optionally naming the shared worktree")
	cmd.Flags().Lookup("worktree").NoOptDefVal = "true"

	return cmd
}

// resolveWorktreeName treats the NoOptDefVal sentinel the same as an
// empty value: both mean "enabled, name auto-generated".
func resolveWorktreeName(flagValue string) string {
	if flagValue == "true" {
		return ""
	}
	return flagValue
}

func runStart(cmd *cobra.Command, configPath string, opts orchestrator.Options) {
	rt, err := runtimeconfig.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load runtime configuration:", err)
		os.Exit(1)
	}

	level := rt.LogLevel
	if opts.Debug {
		level = "debug"
	}
	log, err := logger.New(logger.Config{Level: level, Format: rt.LogFormat, OutputPath: "stderr"})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := swarmconfig.Load(configPath, "")
	if err != nil {
		log.Error("failed to load config", zap.Error(err))
		os.Exit(1)
	}

	if err := swarmconfig.Validate(cfg, swarmconfig.ValidateOptions{DeferDirectoryChecks: true}); err != nil {
		log.Error("config validation failed", zap.Error(err))
		os.Exit(1)
	}

	swarmBinary, err := os.Executable()
	if err != nil {
		log.Error("failed to resolve swarm binary path", zap.Error(err))
		os.Exit(1)
	}

	orch := orchestrator.New(rt, log, swarmBinary, toolVersion)
	outcome, runErr := orch.Start(cmd.Context(), cfg, opts)

	for _, w := range outcome.Warnings {
		log.Warn(w.Message, zap.String("source", w.Source))
	}
	if runErr != nil {
		log.Error("run failed", zap.Error(runErr))
	}
	if outcome.SessionID != "" {
		fmt.Fprintln(os.Stdout, outcome.SessionID)
	}

	os.Exit(outcome.ExitCode)
}
