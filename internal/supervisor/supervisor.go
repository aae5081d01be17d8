// Package supervisor is a thin OS wrapper around subprocess launch: it
// captures the child's pid, forwards stdin/stdout/stderr unchanged, and
// interprets the exit status into success, cooperative timeout, or
// failure.
package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/kandev/swarm/internal/common/apperr"
)

// cooperativeTimeoutExitCode is 128 + SIGTERM, the exit status a
// well-behaved child reports when it caught SIGTERM and shut down
// cleanly rather than being killed outright.
const cooperativeTimeoutExitCode = 143

// ExitStatus is the interpreted outcome of a supervised run.
type ExitStatus struct {
	Code                int
	CooperativeTimeout  bool
}

// PIDCallback receives the child's pid as soon as it has been started, so
// the caller can persist it (main_pid) and register it for signal
// forwarding before the child produces any output.
type PIDCallback func(pid int)

// RunOptions configures one supervised invocation.
type RunOptions struct {
	Args    []string
	Dir     string
	Env     []string
	OnStart PIDCallback
}

// SystemWithPID spawns command with the given options, inheriting stdin,
// stdout, and stderr unchanged, and waits for it to exit. CommandFailed
// errors include the rendered full command string.
func SystemWithPID(ctx context.Context, command string, opts RunOptions) (ExitStatus, error) {
	cmd := exec.CommandContext(ctx, command, opts.Args...)
	cmd.Dir = opts.Dir
	if opts.Env != nil {
		cmd.Env = opts.Env
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	configureProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return ExitStatus{}, apperr.CommandFailed(fmt.Sprintf("failed to start command: %s", renderCommand(command, opts.Args)), err)
	}

	if opts.OnStart != nil {
		opts.OnStart(cmd.Process.Pid)
	}

	err := cmd.Wait()
	if err == nil {
		return ExitStatus{Code: 0}, nil
	}

	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return ExitStatus{}, apperr.CommandFailed(fmt.Sprintf("failed to run command: %s", renderCommand(command, opts.Args)), err)
	}

	code := exitErr.ExitCode()
	if code == cooperativeTimeoutExitCode {
		return ExitStatus{Code: code, CooperativeTimeout: true}, nil
	}

	return ExitStatus{Code: code}, apperr.CommandFailed(
		fmt.Sprintf("command exited with status %d: %s", code, renderCommand(command, opts.Args)), err)
}

func renderCommand(command string, args []string) string {
	rendered := command
	for _, a := range args {
		rendered += " " + a
	}
	return rendered
}
