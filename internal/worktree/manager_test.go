package worktree

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// initTestRepo creates a temporary git repository with one commit on its
// default branch, returning the repo's root directory.
func initTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	cmds := [][]string{
		{"git", "init"},
		{"git", "config", "user.email", "test@example.com"},
		{"git", "config", "user.name", "Test"},
	}
	for _, args := range cmds {
		cmd := exec.Command(args[0], args[1:]...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("%v: %s: %v", args, string(out), err)
		}
	}

	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# test\n"), 0o644); err != nil {
		t.Fatalf("write README: %v", err)
	}
	cmd := exec.Command("git", "add", ".")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git add: %s: %v", string(out), err)
	}
	cmd = exec.Command("git", "commit", "-m", "initial")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git commit: %s: %v", string(out), err)
	}

	return dir
}

func TestManagerAllocateCreatesWorktreePerRepo(t *testing.T) {
	repo := initTestRepo(t)
	root := t.TempDir()

	m := NewManager(root, "sess-1", nil)
	remapped, err := m.Allocate(context.Background(), map[string][]string{
		"lead": {repo},
	}, "feature-x", nil)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	extPath := remapped["lead"][0]
	if extPath == repo {
		t.Fatalf("expected lead's directory to be remapped to an external worktree, got %s", extPath)
	}
	if info, err := os.Stat(extPath); err != nil || !info.IsDir() {
		t.Fatalf("expected worktree directory to exist at %s: %v", extPath, err)
	}

	rec := m.Record()
	if rec.SharedName != "feature-x" {
		t.Errorf("expected Record.SharedName=%q, got %q", "feature-x", rec.SharedName)
	}
	key := repo + ":feature-x"
	if rec.CreatedPaths[key] != extPath {
		t.Errorf("expected CreatedPaths[%q]=%s, got %s", key, extPath, rec.CreatedPaths[key])
	}
}

func TestManagerAllocateIsIdempotentWithinSession(t *testing.T) {
	repo := initTestRepo(t)
	root := t.TempDir()

	m := NewManager(root, "sess-2", nil)
	first, err := m.Allocate(context.Background(), map[string][]string{"a": {repo}}, "shared", nil)
	if err != nil {
		t.Fatalf("first Allocate: %v", err)
	}
	second, err := m.Allocate(context.Background(), map[string][]string{"b": {repo}}, "shared", nil)
	if err != nil {
		t.Fatalf("second Allocate: %v", err)
	}
	if first["a"][0] != second["b"][0] {
		t.Errorf("expected both agents to share one worktree, got %s vs %s", first["a"][0], second["b"][0])
	}
	if len(m.Record().Entries) != 1 {
		t.Errorf("expected exactly one worktree entry, got %d", len(m.Record().Entries))
	}
}

func TestManagerAllocateSkipOverrideLeavesDirectoryUntouched(t *testing.T) {
	repo := initTestRepo(t)
	root := t.TempDir()

	m := NewManager(root, "sess-3", nil)
	remapped, err := m.Allocate(context.Background(), map[string][]string{
		"solo": {repo},
	}, "shared", map[string]Override{"solo": {Skip: true}})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if remapped["solo"][0] != repo {
		t.Errorf("expected skipped agent's directory to be left alone, got %s", remapped["solo"][0])
	}
}

func TestManagerAllocateNonRepoDirectoryPassesThrough(t *testing.T) {
	plain := t.TempDir()
	root := t.TempDir()

	m := NewManager(root, "sess-4", nil)
	remapped, err := m.Allocate(context.Background(), map[string][]string{"a": {plain}}, "shared", nil)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if remapped["a"][0] != plain {
		t.Errorf("expected non-repo directory to pass through unchanged, got %s", remapped["a"][0])
	}
}

// TestManagerTeardownRemovesCleanWorktree exercises spec.md §8 scenario: a
// clean, fully pushed worktree is removed on teardown.
func TestManagerTeardownRemovesCleanWorktree(t *testing.T) {
	repo := initTestRepo(t)
	root := t.TempDir()

	// Mark HEAD as pushed by pointing a remote-tracking ref at it.
	cmd := exec.Command("git", "update-ref", "refs/remotes/origin/main", "HEAD")
	cmd.Dir = repo
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git update-ref: %s: %v", string(out), err)
	}

	m := NewManager(root, "sess-5", nil)
	remapped, err := m.Allocate(context.Background(), map[string][]string{"a": {repo}}, "clean-branch", nil)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	extPath := remapped["a"][0]

	warnings := m.Teardown(context.Background())
	if len(warnings) != 0 {
		t.Errorf("expected no teardown warnings for a clean worktree, got %v", warnings)
	}
	if _, err := os.Stat(extPath); !os.IsNotExist(err) {
		t.Errorf("expected worktree directory to be removed, stat err=%v", err)
	}
}

// TestManagerTeardownRetainsDirtyWorktree exercises spec.md §8 scenario 4:
// a worktree with uncommitted changes is left in place and reported as a
// warning rather than silently discarded.
func TestManagerTeardownRetainsDirtyWorktree(t *testing.T) {
	repo := initTestRepo(t)
	root := t.TempDir()

	m := NewManager(root, "sess-6", nil)
	remapped, err := m.Allocate(context.Background(), map[string][]string{"a": {repo}}, "dirty-branch", nil)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	extPath := remapped["a"][0]

	if err := os.WriteFile(filepath.Join(extPath, "scratch.txt"), []byte("uncommitted work\n"), 0o644); err != nil {
		t.Fatalf("write scratch file: %v", err)
	}

	warnings := m.Teardown(context.Background())
	if len(warnings) != 1 {
		t.Fatalf("expected exactly one teardown warning for a dirty worktree, got %v", warnings)
	}
	if _, err := os.Stat(extPath); err != nil {
		t.Errorf("expected dirty worktree to be retained, but it is gone: %v", err)
	}
}

// TestManagerRestoreReusesExistingWorktree exercises spec.md §8 scenario 5:
// restoring from a previously recorded Record reuses the existing external
// worktree path and never creates a new one.
func TestManagerRestoreReusesExistingWorktree(t *testing.T) {
	repo := initTestRepo(t)
	root := t.TempDir()

	original := NewManager(root, "sess-7", nil)
	remapped, err := original.Allocate(context.Background(), map[string][]string{"a": {repo}}, "restore-branch", nil)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	extPath := remapped["a"][0]
	rec := original.Record()

	restored, err := Restore(root, rec, nil)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.Record().SharedName != "restore-branch" {
		t.Errorf("expected restored SharedName=%q, got %q", "restore-branch", restored.Record().SharedName)
	}

	key := repo + ":restore-branch"
	if restored.Record().CreatedPaths[key] != extPath {
		t.Errorf("expected restored CreatedPaths[%q]=%s, got %s", key, extPath, restored.Record().CreatedPaths[key])
	}

	// Allocating again under the restored manager must reuse the worktree
	// rather than creating a second one.
	remapped2, err := restored.Allocate(context.Background(), map[string][]string{"a": {repo}}, "restore-branch", nil)
	if err != nil {
		t.Fatalf("Allocate after restore: %v", err)
	}
	if remapped2["a"][0] != extPath {
		t.Errorf("expected restored Allocate to reuse %s, got %s", extPath, remapped2["a"][0])
	}
	if len(restored.Record().Entries) != 1 {
		t.Errorf("expected exactly one entry after restore and reuse, got %d", len(restored.Record().Entries))
	}
}

func TestManagerRestoreFailsOnMissingPath(t *testing.T) {
	root := t.TempDir()
	rec := Record{
		SessionID:    "sess-8",
		SharedName:   "gone",
		CreatedPaths: map[string]string{"repo:gone": filepath.Join(root, "nonexistent")},
		Entries: []Entry{
			{RepoRoot: "repo", Path: filepath.Join(root, "nonexistent"), Branch: "gone"},
		},
	}
	if _, err := Restore(root, rec, nil); err == nil {
		t.Fatal("expected Restore to fail when a recorded worktree path is missing")
	}
}
