package supervisor

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell scripts only")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "script.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

func TestSystemWithPIDSuccess(t *testing.T) {
	script := writeScript(t, "exit 0")
	var gotPID int
	status, err := SystemWithPID(context.Background(), script, RunOptions{
		OnStart: func(pid int) { gotPID = pid },
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if status.Code != 0 {
		t.Fatalf("expected exit code 0, got %d", status.Code)
	}
	if gotPID == 0 {
		t.Fatal("expected OnStart to receive a nonzero pid")
	}
}

func TestSystemWithPIDCooperativeTimeout(t *testing.T) {
	script := writeScript(t, "exit 143")
	status, err := SystemWithPID(context.Background(), script, RunOptions{})
	if err != nil {
		t.Fatalf("exit 143 must not be treated as a failure, got %v", err)
	}
	if !status.CooperativeTimeout {
		t.Fatal("expected CooperativeTimeout to be true")
	}
}

func TestSystemWithPIDOtherNonzeroFails(t *testing.T) {
	script := writeScript(t, "exit 7")
	status, err := SystemWithPID(context.Background(), script, RunOptions{})
	if err == nil {
		t.Fatal("expected an error for a non-143 nonzero exit")
	}
	if status.Code != 7 {
		t.Fatalf("expected exit code 7, got %d", status.Code)
	}
}
