package orchestrator

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/kandev/swarm/internal/common/apperr"
	"github.com/kandev/swarm/internal/common/logger"
	"github.com/kandev/swarm/internal/common/runtimeconfig"
	"github.com/kandev/swarm/internal/mcptopology"
	"github.com/kandev/swarm/internal/session"
	"github.com/kandev/swarm/internal/supervisor"
	"github.com/kandev/swarm/internal/swarmconfig"
	"github.com/kandev/swarm/internal/worktree"
)

var tracer = otel.Tracer("github.com/kandev/swarm/internal/orchestrator")

// sessionPathEnvVar and sessionRootEnvVar name the two pieces of process-wide
// state the engine injects into the main agent's environment, consumed
// by executors and by restore respectively.
const (
	sessionPathEnvVar = "CLAUDE_SWARM_SESSION_PATH"
	sessionRootEnvVar = "CLAUDE_SWARM_ROOT_DIR"
)

// Orchestrator is the top-level controller for one run.
type Orchestrator struct {
	runtime     *runtimeconfig.Config
	log         *logger.Logger
	swarmBinary string
	toolVersion string
}

// New constructs an Orchestrator. swarmBinary is the absolute path to the
// swarm binary itself, re-invoked in mcp-serve mode by generated
// manifests and by the main agent's delegated MCP calls.
func New(rt *runtimeconfig.Config, log *logger.Logger, swarmBinary, toolVersion string) *Orchestrator {
	if log == nil {
		log = logger.Default()
	}
	return &Orchestrator{
		runtime:     rt,
		log:         log.WithFields(zap.String("component", "orchestrator")),
		swarmBinary: swarmBinary,
		toolVersion: toolVersion,
	}
}

// Start runs the full lifecycle described in the component design: it
// blocks until the main agent has exited and cleanup is complete,
// returning the process exit code the CLI layer should use.
func (o *Orchestrator) Start(ctx context.Context, cfg *swarmconfig.Config, opts Options) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "orchestrator.Start")
	defer span.End()

	state := StateInit
	var warnings []Warning

	// Step 1: choose a session id and begin the session.
	sessionID := opts.SessionID
	store, err := session.Begin(o.runtime.Home, cfg.Name, sessionID, o.toolVersion)
	if err != nil {
		return Outcome{ExitCode: 1}, err
	}
	sessionID = store.SessionID()
	paths := store.Paths()

	if err := store.WriteRootDirectory(cfg.BaseDir); err != nil {
		o.log.Warn("failed to record root directory", zap.Error(err))
	}

	instanceIDs := make(map[string]string, len(cfg.Agents))
	for name := range cfg.Agents {
		instanceIDs[name] = uuid.NewString()
	}
	if err := store.UpdateInstanceIDs(instanceIDs); err != nil {
		o.log.Warn("failed to record instance ids", zap.Error(err))
	}

	// Guaranteed cleanup: step 10, runs on every exit path including a
	// panic recovery (signals are handled by the installed handler below,
	// which cancels ctx and lets this deferred block run as usual).
	var wtManager *worktree.Manager
	defer func() {
		state = StateCleanup
		if wtManager != nil {
			for _, w := range wtManager.Teardown(context.Background()) {
				warnings = append(warnings, Warning{Source: "worktree", Message: w.Message})
			}
		}
		if err := store.End(); err != nil {
			o.log.Warn("failed to remove running symlink", zap.Error(err))
		}
		state = StateDone
		o.log.Debug("run reached final state", zap.String("state", string(state)))
	}()

	agentDirs := make(map[string][]string, len(cfg.Agents))
	for name, spec := range cfg.Agents {
		agentDirs[name] = append([]string{}, spec.Directories...)
	}

	// Step 2: restore or allocate worktrees.
	if opts.RestoreSessionPath != "" {
		restored, err := session.Restore(opts.RestoreSessionPath)
		if err != nil {
			return Outcome{ExitCode: 1}, err
		}
		if restored.Metadata.Worktree != nil {
			wtManager, err = worktree.Restore(o.runtime.WorktreesDir(), *restored.Metadata.Worktree, o.log)
			if err != nil {
				return Outcome{ExitCode: 1}, err
			}
			agentDirs = remapFromRecord(agentDirs, *restored.Metadata.Worktree)
		}
	} else if worktreeNeeded(cfg, opts) {
		name := worktree.ResolveSharedName(opts.WorktreeName, sessionID)
		wtManager = worktree.NewManager(o.runtime.WorktreesDir(), sessionID, o.log)
		overrides := worktreeOverrides(cfg)
		remapped, err := wtManager.Allocate(ctx, agentDirs, name, overrides)
		if err != nil {
			return Outcome{ExitCode: 1}, err
		}
		agentDirs = remapped
		rec := wtManager.Record()
		if err := store.UpdateWorktree(&rec); err != nil {
			o.log.Warn("failed to persist worktree record", zap.Error(err))
		}
	}

	for name, spec := range cfg.Agents {
		spec.Directories = agentDirs[name]
		cfg.Agents[name] = spec
	}

	state = StateRunning

	mainSpec := cfg.Agents[cfg.Main]
	mainDir := "."
	if len(mainSpec.Directories) > 0 {
		mainDir = mainSpec.Directories[0]
	}

	// Step 3: pre-commands, skipped on restore. These run against
	// cfg.BaseDir, not mainDir: a pre-command's job can be to create
	// mainDir in the first place (e.g. `mkdir -p ./project_workspace`),
	// and os/exec chdir's into Dir before the shell itself starts, so
	// chdir'ing into a not-yet-existing mainDir would fail immediately.
	if opts.RestoreSessionPath == "" {
		if err := o.runCommandSequence(ctx, cfg.Before, cfg.BaseDir); err != nil {
			return Outcome{ExitCode: 1}, err
		}
	}

	// Step 4: re-validate directory existence now that pre-commands may
	// have created some.
	if err := swarmconfig.Validate(cfg, swarmconfig.ValidateOptions{}); err != nil {
		return Outcome{ExitCode: 1}, err
	}

	// Step 5: generate the MCP topology.
	if _, err := mcptopology.Generate(cfg, instanceIDs, o.swarmBinary, paths.Root, opts.Vibe); err != nil {
		return Outcome{ExitCode: 1}, err
	}

	// Step 6: copy the effective config into the session directory.
	if raw, err := swarmconfig.Marshal(cfg); err == nil {
		if err := store.WriteConfig(raw); err != nil {
			o.log.Warn("failed to copy config into session directory", zap.Error(err))
		}
	}

	// Step 7: build the main agent's command line.
	binary, args := BuildMainCommand(mainSpec, paths, opts.Vibe, opts.Prompt)

	// Step 8: launch under the supervisor, with signal forwarding.
	childCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	env := buildChildEnv(paths.Root, cfg.BaseDir)

	var mainPID int
	exitCode := 0
	runErrCh := make(chan error, 1)
	go func() {
		status, err := supervisor.SystemWithPID(childCtx, binary, supervisor.RunOptions{
			Args: args,
			Dir:  mainDir,
			Env:  env,
			OnStart: func(pid int) {
				mainPID = pid
			},
		})
		if err != nil {
			if ae, ok := err.(*apperr.AppError); ok && ae.Code == apperr.CodeCommandFailed {
				exitCode = status.Code
			} else {
				exitCode = 1
			}
			runErrCh <- err
			return
		}
		if status.CooperativeTimeout {
			warnings = append(warnings, Warning{Source: "main-agent", Message: "main agent reported a cooperative timeout"})
		}
		runErrCh <- nil
	}()

	var runErr error
	select {
	case sig := <-sigCh:
		state = StateInterrupted
		if mainPID != 0 {
			if unixSig, ok := sig.(syscall.Signal); ok {
				_ = supervisor.SignalGroup(mainPID, int(unixSig))
			}
		}
		cancel()
		runErr = <-runErrCh
		if sig == syscall.SIGINT {
			exitCode = 130
		} else {
			exitCode = 143
		}
	case runErr = <-runErrCh:
	}

	// Step 9: post-commands, skipped on restore; failures are warnings.
	if opts.RestoreSessionPath == "" {
		state = StatePost
		if err := o.runCommandSequence(ctx, cfg.After, mainDir); err != nil {
			warnings = append(warnings, Warning{Source: "post-command", Message: err.Error()})
		}
	}

	if runErr != nil && exitCode == 0 {
		exitCode = 1
	}

	return Outcome{ExitCode: exitCode, SessionID: sessionID, Warnings: warnings}, runErr
}

func worktreeNeeded(cfg *swarmconfig.Config, opts Options) bool {
	if opts.WorktreeEnabled {
		return true
	}
	for _, spec := range cfg.Agents {
		if spec.Worktree != nil && spec.Worktree.Enabled {
			return true
		}
	}
	return false
}

func worktreeOverrides(cfg *swarmconfig.Config) map[string]worktree.Override {
	overrides := make(map[string]worktree.Override)
	for name, spec := range cfg.Agents {
		if spec.Worktree == nil {
			continue
		}
		if !spec.Worktree.Enabled {
			overrides[name] = worktree.Override{Skip: true}
		} else if spec.Worktree.BranchName != "" {
			overrides[name] = worktree.Override{BranchName: spec.Worktree.BranchName}
		}
	}
	return overrides
}

// remapFromRecord maps each agent's directories through a restored
// worktree record's CreatedPaths table, leaving unmatched repositories
// untouched.
func remapFromRecord(agentDirs map[string][]string, rec worktree.Record) map[string][]string {
	remapped := make(map[string][]string, len(agentDirs))
	for agent, dirs := range agentDirs {
		newDirs := make([]string, len(dirs))
		for i, dir := range dirs {
			repoRoot, isRepo := worktree.RepoRootFor(dir)
			if !isRepo {
				newDirs[i] = dir
				continue
			}
			if extPath, ok := rec.CreatedPaths[repoRoot+":"+rec.SharedName]; ok {
				rel, err := filepath.Rel(repoRoot, dir)
				if err != nil || rel == "." {
					newDirs[i] = extPath
				} else {
					newDirs[i] = filepath.Join(extPath, rel)
				}
				continue
			}
			newDirs[i] = dir
		}
		remapped[agent] = newDirs
	}
	return remapped
}

// runCommandSequence runs each command in order in dir via a shell,
// stopping at the first non-zero exit.
func (o *Orchestrator) runCommandSequence(ctx context.Context, commands []string, dir string) error {
	for _, c := range commands {
		cmd := exec.CommandContext(ctx, "sh", "-c", c)
		cmd.Dir = dir
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return apperr.CommandFailed(fmt.Sprintf("command failed: %s", c), err)
		}
	}
	return nil
}

// buildChildEnv scrubs the process environment and injects the two
// process-wide variables the engine reads: the session path (consumed by
// executors) and the root directory (consumed on restore).
func buildChildEnv(sessionPath, rootDir string) []string {
	scrubbed := mcptopology.ScrubbedEnv()
	scrubbed[sessionPathEnvVar] = sessionPath
	scrubbed[sessionRootEnvVar] = rootDir

	env := make([]string, 0, len(scrubbed))
	for k, v := range scrubbed {
		env = append(env, k+"="+v)
	}
	return env
}
