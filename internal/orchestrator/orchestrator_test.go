package orchestrator

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/kandev/swarm/internal/common/runtimeconfig"
	"github.com/kandev/swarm/internal/executor"
	"github.com/kandev/swarm/internal/session"
	"github.com/kandev/swarm/internal/swarmconfig"
	"github.com/kandev/swarm/internal/worktree"
)

// initTestRepo creates a temporary git repository with one commit,
// returning its root directory.
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

// writeFakeMain writes an executable shell script standing in for the
// main agent's CLI front-end: it exits 0 immediately without touching
// stdin, so a run completes without a real provider installed.
func writeFakeMain(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake provider scripts are POSIX shell only")
	}
	path := filepath.Join(t.TempDir(), "fake-claude")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write fake main: %v", err)
	}
	return path
}

func minimalConfig(t *testing.T, dir string) *swarmconfig.Config {
	t.Helper()
	return &swarmconfig.Config{
		Version: 1,
		Name:    "demo-swarm",
		Main:    "lead",
		BaseDir: dir,
		Agents: map[string]swarmconfig.AgentSpec{
			"lead": {
				Name:        "lead",
				Description: "the main agent",
				Directories: []string{dir},
			},
		},
	}
}

func TestStartMinimalRunSucceeds(t *testing.T) {
	fake := writeFakeMain(t, "exit 0\n")
	prevNative := executor.DefaultNativeBinary
	executor.DefaultNativeBinary = fake
	defer func() { executor.DefaultNativeBinary = prevNative }()

	workDir := t.TempDir()
	rt := &runtimeconfig.Config{Home: t.TempDir()}
	cfg := minimalConfig(t, workDir)

	o := New(rt, nil, "/usr/local/bin/swarm", "test-version")
	outcome, err := o.Start(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if outcome.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", outcome.ExitCode)
	}
	if outcome.SessionID == "" {
		t.Fatal("expected a generated session id")
	}

	sessionDir := filepath.Join(rt.SessionsDir(), "demo-swarm", outcome.SessionID)
	if _, err := os.Stat(filepath.Join(sessionDir, "lead.mcp.json")); err != nil {
		t.Errorf("expected manifest file for main agent: %v", err)
	}
	if _, err := os.Stat(filepath.Join(sessionDir, "session_metadata.json")); err != nil {
		t.Errorf("expected session metadata: %v", err)
	}
	if _, err := os.Stat(filepath.Join(sessionDir, "config.yml")); err != nil {
		t.Errorf("expected copied config document: %v", err)
	}

	// End() removes the running symlink as part of guaranteed cleanup.
	runningLink := filepath.Join(rt.Home, "run", outcome.SessionID)
	if _, err := os.Lstat(runningLink); !os.IsNotExist(err) {
		t.Errorf("expected running symlink to be removed after Start returns, got err=%v", err)
	}
}

func TestStartCooperativeTimeoutIsWarningNotFailure(t *testing.T) {
	fake := writeFakeMain(t, "exit 143\n")
	prevNative := executor.DefaultNativeBinary
	executor.DefaultNativeBinary = fake
	defer func() { executor.DefaultNativeBinary = prevNative }()

	workDir := t.TempDir()
	rt := &runtimeconfig.Config{Home: t.TempDir()}
	cfg := minimalConfig(t, workDir)

	o := New(rt, nil, "/usr/local/bin/swarm", "test-version")
	outcome, err := o.Start(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatalf("Start returned error for cooperative timeout: %v", err)
	}
	if outcome.ExitCode != 0 {
		t.Fatalf("expected exit code 0 for a cooperative timeout, got %d", outcome.ExitCode)
	}
	found := false
	for _, w := range outcome.Warnings {
		if w.Source == "main-agent" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a main-agent warning for the cooperative timeout, got %+v", outcome.Warnings)
	}
}

func TestStartNonzeroExitFails(t *testing.T) {
	fake := writeFakeMain(t, "exit 7\n")
	prevNative := executor.DefaultNativeBinary
	executor.DefaultNativeBinary = fake
	defer func() { executor.DefaultNativeBinary = prevNative }()

	workDir := t.TempDir()
	rt := &runtimeconfig.Config{Home: t.TempDir()}
	cfg := minimalConfig(t, workDir)

	o := New(rt, nil, "/usr/local/bin/swarm", "test-version")
	outcome, err := o.Start(context.Background(), cfg, Options{})
	if err == nil {
		t.Fatal("expected an error for a non-cooperative nonzero exit")
	}
	if outcome.ExitCode != 7 {
		t.Fatalf("expected exit code 7, got %d", outcome.ExitCode)
	}
}

// TestStartPreCommandCreatesMainAgentDirectory exercises spec.md §8
// scenario 3: the main agent's own working directory does not exist
// yet, and a pre-command is responsible for creating it. Pre-commands
// must run against cfg.BaseDir, not the not-yet-existing main agent
// directory, or the very first pre-command's chdir fails.
func TestStartPreCommandCreatesMainAgentDirectory(t *testing.T) {
	fake := writeFakeMain(t, "exit 0\n")
	prevNative := executor.DefaultNativeBinary
	executor.DefaultNativeBinary = fake
	defer func() { executor.DefaultNativeBinary = prevNative }()

	baseDir := t.TempDir()
	mainDir := filepath.Join(baseDir, "project_workspace")
	rt := &runtimeconfig.Config{Home: t.TempDir()}
	cfg := &swarmconfig.Config{
		Version: 1,
		Name:    "scenario3-swarm",
		Main:    "lead",
		BaseDir: baseDir,
		Before: []string{
			"mkdir -p ./project_workspace/evidence",
			"mkdir -p ./project_workspace/reports",
		},
		Agents: map[string]swarmconfig.AgentSpec{
			"lead": {
				Name:        "lead",
				Description: "the main agent",
				Directories: []string{mainDir},
			},
		},
	}

	o := New(rt, nil, "/usr/local/bin/swarm", "test-version")
	outcome, err := o.Start(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if outcome.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", outcome.ExitCode)
	}
	for _, sub := range []string{"evidence", "reports"} {
		info, err := os.Stat(filepath.Join(mainDir, sub))
		if err != nil || !info.IsDir() {
			t.Errorf("expected pre-command to have created %s: %v", sub, err)
		}
	}
}

// TestStartRestoreReusesExistingWorktree exercises spec.md §8 scenario 5:
// restoring a prior session whose metadata records an already-allocated
// worktree must launch the main agent in that external path directly,
// without allocating a new worktree.
func TestStartRestoreReusesExistingWorktree(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "pwd.txt")
	fake := writeFakeMain(t, "pwd > "+marker+"\nexit 0\n")
	prevNative := executor.DefaultNativeBinary
	executor.DefaultNativeBinary = fake
	defer func() { executor.DefaultNativeBinary = prevNative }()

	repo := initTestRepo(t)
	rt := &runtimeconfig.Config{Home: t.TempDir()}

	wtManager := worktree.NewManager(rt.WorktreesDir(), "prior-session", nil)
	remapped, err := wtManager.Allocate(context.Background(), map[string][]string{"lead": {repo}}, "restore-branch", nil)
	if err != nil {
		t.Fatalf("seed Allocate: %v", err)
	}
	extPath := remapped["lead"][0]
	rec := wtManager.Record()

	priorStore, err := session.Begin(rt.Home, "demo-swarm", "prior-session", "test-version")
	if err != nil {
		t.Fatalf("seed session.Begin: %v", err)
	}
	if err := priorStore.WriteRootDirectory(repo); err != nil {
		t.Fatalf("seed WriteRootDirectory: %v", err)
	}
	if err := priorStore.UpdateWorktree(&rec); err != nil {
		t.Fatalf("seed UpdateWorktree: %v", err)
	}
	if err := priorStore.End(); err != nil {
		t.Fatalf("seed End: %v", err)
	}
	sessionPath := priorStore.Paths().Root

	cfg := &swarmconfig.Config{
		Version: 1,
		Name:    "demo-swarm",
		Main:    "lead",
		BaseDir: repo,
		Agents: map[string]swarmconfig.AgentSpec{
			"lead": {
				Name:        "lead",
				Description: "the main agent",
				Directories: []string{repo},
			},
		},
	}

	o := New(rt, nil, "/usr/local/bin/swarm", "test-version")
	outcome, err := o.Start(context.Background(), cfg, Options{RestoreSessionPath: sessionPath})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if outcome.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", outcome.ExitCode)
	}

	got, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("read pwd marker: %v", err)
	}
	if strings.TrimSpace(string(got)) != extPath {
		t.Errorf("expected main agent to launch in restored worktree %s, got %s", extPath, strings.TrimSpace(string(got)))
	}

	// The restored worktree must still be in place after the run.
	if _, err := os.Stat(extPath); err != nil {
		t.Errorf("expected restored worktree to still exist: %v", err)
	}
}

func TestValidateRejectsCyclicConnectionsBeforeStart(t *testing.T) {
	workDir := t.TempDir()
	rt := &runtimeconfig.Config{Home: t.TempDir()}
	cfg := &swarmconfig.Config{
		Version: 1,
		Name:    "cyclic-swarm",
		Main:    "a",
		BaseDir: workDir,
		Agents: map[string]swarmconfig.AgentSpec{
			"a": {Name: "a", Directories: []string{workDir}, Connections: []string{"b"}},
			"b": {Name: "b", Directories: []string{workDir}, Connections: []string{"a"}},
		},
	}
	if err := swarmconfig.Validate(cfg, swarmconfig.ValidateOptions{}); err == nil {
		t.Fatal("expected Validate to reject a connection cycle before a session directory is ever created")
	}

	entries, err := os.ReadDir(rt.Home)
	if err != nil {
		t.Fatalf("read runtime home: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no session state to be written before validation runs, found %v", entries)
	}
}

func TestStartRunsPreAndPostCommands(t *testing.T) {
	fake := writeFakeMain(t, "exit 0\n")
	prevNative := executor.DefaultNativeBinary
	executor.DefaultNativeBinary = fake
	defer func() { executor.DefaultNativeBinary = prevNative }()

	workDir := t.TempDir()
	rt := &runtimeconfig.Config{Home: t.TempDir()}
	cfg := minimalConfig(t, workDir)
	marker := filepath.Join(workDir, "marker")
	cfg.Before = []string{"touch " + marker + ".before"}
	cfg.After = []string{"touch " + marker + ".after"}

	o := New(rt, nil, "/usr/local/bin/swarm", "test-version")
	outcome, err := o.Start(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if outcome.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", outcome.ExitCode)
	}
	if _, err := os.Stat(marker + ".before"); err != nil {
		t.Errorf("expected before-command to have run: %v", err)
	}
	if _, err := os.Stat(marker + ".after"); err != nil {
		t.Errorf("expected after-command to have run: %v", err)
	}
}
