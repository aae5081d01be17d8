// Package orchestrator is the top-level controller: it validates
// configuration, optionally sets up worktrees, generates MCP manifests,
// runs pre/post commands, launches the main agent subprocess under the
// supervisor, installs signal handlers, and guarantees cleanup on every
// exit path.
package orchestrator

// State is one stage of a run's lifecycle.
type State string

const (
	StateInit        State = "INIT"
	StateRunning     State = "RUNNING"
	StatePost        State = "POST"
	StateInterrupted State = "INTERRUPTED"
	StateCleanup     State = "CLEANUP"
	StateDone        State = "DONE"
)

// Options bundles the per-run flags the CLI layer collects from the
// user, independent of the config document itself.
type Options struct {
	Prompt              string
	Vibe                bool
	Debug               bool
	Verbose             bool
	SessionID           string
	WorktreeEnabled     bool
	WorktreeName        string
	RestoreSessionPath  string
}

// Warning is a non-fatal condition surfaced during a run (worktree
// teardown skipped, post-command failed) that does not change the run's
// exit status.
type Warning struct {
	Source  string
	Message string
}

// Outcome is what Start returns once a run has fully completed cleanup.
type Outcome struct {
	ExitCode  int
	SessionID string
	Warnings  []Warning
}
