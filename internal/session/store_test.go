package session

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBeginCreatesLayoutAndSymlink(t *testing.T) {
	home := t.TempDir()

	s, err := Begin(home, "My Swarm", "", "test-version")
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer s.End()

	if _, err := os.Stat(s.Paths().MetadataFile()); err != nil {
		t.Fatalf("expected metadata file: %v", err)
	}
	if _, err := os.Stat(s.Paths().MainPIDFile()); err != nil {
		t.Fatalf("expected main_pid file: %v", err)
	}

	link := filepath.Join(home, runningIndexDirName, s.SessionID())
	info, err := os.Lstat(link)
	if err != nil {
		t.Fatalf("expected running symlink: %v", err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Fatal("expected a symlink")
	}
}

func TestEndRemovesSymlinkNotDirectory(t *testing.T) {
	home := t.TempDir()
	s, err := Begin(home, "swarm", "sess-fixed", "v1")
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	if err := s.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}

	link := filepath.Join(home, runningIndexDirName, "sess-fixed")
	if _, err := os.Lstat(link); !os.IsNotExist(err) {
		t.Fatalf("expected symlink removed, got err=%v", err)
	}
	if _, err := os.Stat(s.Paths().Root); err != nil {
		t.Fatalf("session directory must survive End: %v", err)
	}
}

func TestEndToleratesMissingSymlink(t *testing.T) {
	home := t.TempDir()
	s, err := Begin(home, "swarm", "sess-x", "v1")
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	_ = os.Remove(filepath.Join(home, runningIndexDirName, "sess-x"))

	if err := s.End(); err != nil {
		t.Fatalf("End should tolerate a missing symlink, got %v", err)
	}
}

func TestRecordEventAppendsLineDelimitedJSON(t *testing.T) {
	home := t.TempDir()
	s, err := Begin(home, "swarm", "sess-log", "v1")
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer s.End()

	if err := s.RecordEvent(map[string]interface{}{"type": "request"}); err != nil {
		t.Fatalf("RecordEvent failed: %v", err)
	}
	if err := s.RecordEvent(map[string]interface{}{"type": "result"}); err != nil {
		t.Fatalf("RecordEvent failed: %v", err)
	}

	data, err := os.ReadFile(s.Paths().LogJSONFile())
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	lines := splitNonEmptyLines(string(data))
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}
}

func splitNonEmptyLines(s string) []string {
	var out []string
	start := 0
	for i, c := range s {
		if c == '\n' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}

func TestRestoreReadsMetadataAndRootDir(t *testing.T) {
	home := t.TempDir()
	s, err := Begin(home, "swarm", "sess-restore", "v1")
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := s.WriteRootDirectory("/abs/root"); err != nil {
		t.Fatalf("WriteRootDirectory failed: %v", err)
	}

	restored, err := Restore(s.Paths().Root)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if restored.RootDir != "/abs/root" {
		t.Fatalf("expected root dir /abs/root, got %s", restored.RootDir)
	}
	if restored.ToolVersion != "v1" {
		t.Fatalf("expected tool version v1, got %s", restored.ToolVersion)
	}
}
