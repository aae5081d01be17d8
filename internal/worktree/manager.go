package worktree

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kandev/swarm/internal/common/apperr"
	"github.com/kandev/swarm/internal/common/logger"
)

// Manager allocates, tracks, and tears down git worktrees for one
// session. One Manager instance is scoped to a single run.
type Manager struct {
	root       string
	sessionID  string
	log        *logger.Logger
	mu         sync.Mutex
	repoLocks  map[string]*sync.Mutex
	repoLockMu sync.Mutex
	record     Record
}

// NewManager creates a Manager rooted at root (typically
// $SWARM_HOME/worktrees) for the given session.
func NewManager(root, sessionID string, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Default()
	}
	return &Manager{
		root:      root,
		sessionID: sessionID,
		log:       log.WithFields(zap.String("component", "worktree-manager")),
		repoLocks: make(map[string]*sync.Mutex),
		record: Record{
			SessionID:    sessionID,
			CreatedPaths: make(map[string]string),
		},
	}
}

func (m *Manager) getRepoLock(repoRoot string) *sync.Mutex {
	m.repoLockMu.Lock()
	defer m.repoLockMu.Unlock()
	if lock, ok := m.repoLocks[repoRoot]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	m.repoLocks[repoRoot] = lock
	return lock
}

// Record returns a snapshot of the worktree state accumulated so far, for
// persistence into session metadata.
func (m *Manager) Record() Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record
}

// RepoRootFor walks up from dir until it finds a Git marker (.git file or
// directory). It returns ("", false) when dir is not inside a repository.
func RepoRootFor(dir string) (string, bool) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	cur := abs
	for {
		marker := filepath.Join(cur, ".git")
		if info, err := os.Stat(marker); err == nil && (info.IsDir() || info.Mode().IsRegular()) {
			return cur, true
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", false
		}
		cur = parent
	}
}

// Allocate creates (or reuses) one worktree per distinct repository
// referenced by agentDirs, honoring per-agent overrides, and returns the
// remapped directory list for every agent. Directories outside a git
// repository pass through unchanged.
func (m *Manager) Allocate(ctx context.Context, agentDirs map[string][]string, sharedName string, overrides map[string]Override) (map[string][]string, error) {
	m.mu.Lock()
	m.record.SharedName = sharedName
	m.mu.Unlock()

	remapped := make(map[string][]string, len(agentDirs))
	pathCache := make(map[string]string) // "repoRoot:name" -> external path, within this call

	for agent, dirs := range agentDirs {
		override, hasOverride := overrides[agent]
		if hasOverride && override.Skip {
			remapped[agent] = dirs
			continue
		}

		name := sharedName
		if hasOverride && override.BranchName != "" {
			name = override.BranchName
		}

		newDirs := make([]string, len(dirs))
		for i, dir := range dirs {
			repoRoot, isRepo := RepoRootFor(dir)
			if !isRepo {
				newDirs[i] = dir
				continue
			}

			key := repoRoot + ":" + name
			extPath, ok := pathCache[key]
			if !ok {
				var err error
				extPath, err = m.allocateOne(ctx, repoRoot, name)
				if err != nil {
					return nil, err
				}
				pathCache[key] = extPath
			}

			rel, err := filepath.Rel(repoRoot, dir)
			if err != nil || rel == "." {
				newDirs[i] = extPath
			} else {
				newDirs[i] = filepath.Join(extPath, rel)
			}
		}
		remapped[agent] = newDirs
	}

	return remapped, nil
}

// allocateOne creates or reuses the worktree for (repoRoot, name),
// recording it into m.record exactly once.
func (m *Manager) allocateOne(ctx context.Context, repoRoot, name string) (string, error) {
	key := repoRoot + ":" + name

	m.mu.Lock()
	if existing, ok := m.record.CreatedPaths[key]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.mu.Unlock()

	lock := m.getRepoLock(repoRoot)
	lock.Lock()
	defer lock.Unlock()

	extPath := ExternalPath(m.root, m.sessionID, repoRoot, name)

	if m.isValidWorktree(extPath) {
		m.commitEntry(key, Entry{RepoRoot: repoRoot, Path: extPath, Branch: name, CreatedAt: time.Now()})
		return extPath, nil
	}

	if err := os.MkdirAll(filepath.Dir(extPath), 0o755); err != nil {
		return "", apperr.WorktreeError("failed to create worktree parent directory", err)
	}

	autoCreated := false
	if m.branchExists(ctx, repoRoot, name) {
		if err := m.gitWorktreeAdd(ctx, repoRoot, extPath, name, false); err != nil {
			return "", err
		}
	} else {
		if err := m.gitWorktreeAdd(ctx, repoRoot, extPath, name, true); err != nil {
			return "", err
		}
		autoCreated = true
	}

	m.log.Info("created worktree",
		zap.String("repo_root", repoRoot),
		zap.String("path", extPath),
		zap.String("branch", name))

	m.commitEntry(key, Entry{RepoRoot: repoRoot, Path: extPath, Branch: name, AutoCreatedBranch: autoCreated, CreatedAt: time.Now()})
	return extPath, nil
}

func (m *Manager) commitEntry(key string, e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record.CreatedPaths[key] = e.Path
	m.record.Entries = append(m.record.Entries, e)
}

// gitWorktreeAdd runs `git worktree add` under repoRoot. When newBranch is
// true it creates the branch off HEAD (`-b name`); otherwise it checks out
// the existing branch. The worktree always ends up on a named branch,
// never detached.
func (m *Manager) gitWorktreeAdd(ctx context.Context, repoRoot, extPath, branch string, newBranch bool) error {
	var cmd *exec.Cmd
	if newBranch {
		cmd = exec.CommandContext(ctx, "git", "worktree", "add", "-b", branch, extPath, "HEAD")
	} else {
		cmd = exec.CommandContext(ctx, "git", "worktree", "add", extPath, branch)
	}
	cmd.Dir = repoRoot

	output, err := cmd.CombinedOutput()
	if err != nil {
		return apperr.WorktreeError(fmt.Sprintf("git worktree add failed: %s", strings.TrimSpace(string(output))), err)
	}
	return nil
}

func (m *Manager) branchExists(ctx context.Context, repoRoot, branch string) bool {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--verify", "refs/heads/"+branch)
	cmd.Dir = repoRoot
	return cmd.Run() == nil
}

// isValidWorktree reports whether path is an existing, properly linked
// git worktree.
func (m *Manager) isValidWorktree(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	content, err := os.ReadFile(filepath.Join(path, ".git"))
	if err != nil {
		return false
	}
	return strings.HasPrefix(string(content), "gitdir:")
}

// hasUncommittedChanges reports whether the worktree's index or working
// tree differs from HEAD.
func (m *Manager) hasUncommittedChanges(ctx context.Context, path string) bool {
	cmd := exec.CommandContext(ctx, "git", "status", "--porcelain")
	cmd.Dir = path
	out, err := cmd.Output()
	if err != nil {
		// If we can't tell, err on the side of caution and treat it as dirty.
		return true
	}
	return len(strings.TrimSpace(string(out))) > 0
}

// hasUnpushedCommits reports whether the worktree's branch has commits
// not reachable from any remote-tracking ref.
func (m *Manager) hasUnpushedCommits(ctx context.Context, path, branch string) bool {
	cmd := exec.CommandContext(ctx, "git", "log", branch, "--not", "--remotes", "--oneline")
	cmd.Dir = path
	out, err := cmd.Output()
	if err != nil {
		return true
	}
	return len(strings.TrimSpace(string(out))) > 0
}

// Teardown removes every allocated worktree that is safe to remove:
// clean (no uncommitted changes), and fully pushed (no commits absent
// from every remote). Worktrees that fail either check are left in place
// and reported as warnings. Auto-created branches are deleted alongside
// their worktree; empty parent directories are pruned afterward.
func (m *Manager) Teardown(ctx context.Context) []Warning {
	m.mu.Lock()
	entries := append([]Entry{}, m.record.Entries...)
	m.mu.Unlock()

	var warnings []Warning
	reposTouched := make(map[string]bool)

	for _, e := range entries {
		if _, err := os.Stat(e.Path); err != nil {
			continue // already gone
		}

		if m.hasUncommittedChanges(ctx, e.Path) {
			w := Warning{Path: e.Path, Message: fmt.Sprintf("worktree %s has uncommitted changes, skipping cleanup", e.Path)}
			m.log.Warn(w.Message, zap.String("path", e.Path))
			warnings = append(warnings, w)
			continue
		}

		if m.hasUnpushedCommits(ctx, e.Path, e.Branch) {
			w := Warning{Path: e.Path, Message: fmt.Sprintf("worktree %s has unpushed commits, skipping cleanup", e.Path)}
			m.log.Warn(w.Message, zap.String("path", e.Path))
			warnings = append(warnings, w)
			continue
		}

		lock := m.getRepoLock(e.RepoRoot)
		lock.Lock()
		if err := m.removeWorktree(ctx, e); err != nil {
			m.log.Warn("failed to remove worktree", zap.String("path", e.Path), zap.Error(err))
			warnings = append(warnings, Warning{Path: e.Path, Message: err.Error()})
		}
		lock.Unlock()

		reposTouched[e.RepoRoot] = true
	}

	m.pruneEmptyDirs()

	return warnings
}

// removeWorktree removes the git metadata for e.Path (never a plain
// directory delete as the primary path) and deletes its branch if it was
// auto-created.
func (m *Manager) removeWorktree(ctx context.Context, e Entry) error {
	cmd := exec.CommandContext(ctx, "git", "worktree", "remove", "--force", e.Path)
	cmd.Dir = e.RepoRoot
	if output, err := cmd.CombinedOutput(); err != nil {
		return apperr.WorktreeError(fmt.Sprintf("git worktree remove failed: %s", strings.TrimSpace(string(output))), err)
	}

	if e.AutoCreatedBranch {
		cmd := exec.CommandContext(ctx, "git", "branch", "-D", e.Branch)
		cmd.Dir = e.RepoRoot
		if output, err := cmd.CombinedOutput(); err != nil {
			m.log.Warn("failed to delete auto-created branch",
				zap.String("branch", e.Branch), zap.String("output", string(output)))
		}
	}

	return nil
}

// pruneEmptyDirs removes now-empty per-session and per-repo parent
// directories under m.root.
func (m *Manager) pruneEmptyDirs() {
	sessionDir := filepath.Join(m.root, m.sessionID)
	entries, err := os.ReadDir(sessionDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		repoDir := filepath.Join(sessionDir, entry.Name())
		if isEmptyDir(repoDir) {
			_ = os.Remove(repoDir)
		}
	}
	if isEmptyDir(sessionDir) {
		_ = os.Remove(sessionDir)
	}
}

func isEmptyDir(path string) bool {
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) == 0
}

// Restore rehydrates the manager's table from a previously recorded
// Record, refusing to proceed if any recorded path is now missing.
func Restore(root string, rec Record, log *logger.Logger) (*Manager, error) {
	m := NewManager(root, rec.SessionID, log)
	for _, e := range rec.Entries {
		if _, err := os.Stat(e.Path); err != nil {
			return nil, apperr.RestoreError(fmt.Sprintf("recorded worktree path is missing: %s", e.Path), err)
		}
	}
	m.record = rec
	return m, nil
}
