package worktree

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveSharedNameGeneratesForEmptyOrSentinel(t *testing.T) {
	got := ResolveSharedName("", "sess-123")
	if got != "worktree-sess-123" {
		t.Fatalf("expected worktree-sess-123, got %s", got)
	}

	got = ResolveSharedName(cliSentinelDefault, "sess-123")
	if got != "worktree-sess-123" {
		t.Fatalf("sentinel default should behave like unset, got %s", got)
	}

	got = ResolveSharedName("", "")
	if !strings.HasPrefix(got, "worktree-") || len(got) != len("worktree-")+5 {
		t.Fatalf("expected random 5-char suffix, got %s", got)
	}
}

func TestResolveSharedNamePassesThroughExplicit(t *testing.T) {
	got := ResolveSharedName("my-branch", "sess-123")
	if got != "my-branch" {
		t.Fatalf("expected my-branch, got %s", got)
	}
}

func TestExternalPathIsDeterministicAndDisambiguatesBasenames(t *testing.T) {
	p1 := ExternalPath("/root", "sess", "/home/user/project-a", "shared")
	p2 := ExternalPath("/root", "sess", "/home/other/project-a", "shared")

	if p1 == p2 {
		t.Fatalf("paths for repos with the same basename must differ: %s == %s", p1, p2)
	}
	if filepath.Base(p1) != "shared" || filepath.Base(p2) != "shared" {
		t.Fatalf("expected trailing name segment to be the worktree name")
	}

	again := ExternalPath("/root", "sess", "/home/user/project-a", "shared")
	if p1 != again {
		t.Fatalf("ExternalPath must be deterministic, got %s then %s", p1, again)
	}
}
