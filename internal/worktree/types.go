// Package worktree allocates, tracks, and safely removes per-repository
// Git worktrees keyed by session and shared name.
package worktree

import "time"

// Override is a per-agent worktree directive that composes with the
// swarm-wide shared name: skip entirely, or use a specific branch name.
type Override struct {
	Skip       bool
	BranchName string
}

// Entry is one allocated worktree: a single repository checked out at a
// deterministic external path on a named branch.
type Entry struct {
	RepoRoot          string    `json:"repo_root"`
	Path              string    `json:"path"`
	Branch            string    `json:"branch"`
	AutoCreatedBranch bool      `json:"auto_created_branch"`
	CreatedAt         time.Time `json:"created_at"`
}

// Record is the full worktree state for one session, persisted into the
// session's metadata document and rehydrated on restore.
type Record struct {
	SessionID    string            `json:"session_id"`
	SharedName   string            `json:"shared_name"`
	CreatedPaths map[string]string `json:"created_paths"` // "repoRoot:name" -> external path
	Entries      []Entry           `json:"entries"`
}

// Warning describes a non-fatal condition surfaced during teardown, such
// as a worktree skipped because it has uncommitted changes.
type Warning struct {
	Path    string
	Message string
}

func (w Warning) String() string {
	return w.Message
}
