package session

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WaitForSettingsFile blocks until path exists, ctx is cancelled, or
// timeout elapses. The main agent's settings file is generated lazily by
// the provider CLI on first launch (it carries the auto-injected
// session-start hook), so the orchestrator's command-line builder can
// reference a path that does not exist yet at the moment the command is
// built; this lets anything that depends on its presence (tests,
// diagnostics) wait for it deterministically instead of polling.
func WaitForSettingsFile(ctx context.Context, path string, timeout time.Duration) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	deadline := time.After(timeout)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return context.DeadlineExceeded
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name == path && (event.Op&(fsnotify.Create|fsnotify.Write) != 0) {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
