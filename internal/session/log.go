package session

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// TextLog writes a human-readable mirror of the structured JSON log,
// session.log, for operators tailing a run in a terminal.
type TextLog struct {
	mu   sync.Mutex
	file *os.File
}

// OpenTextLog opens (creating/appending) the session's text log file.
func OpenTextLog(paths Paths) (*TextLog, error) {
	f, err := os.OpenFile(paths.LogTextFile(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &TextLog{file: f}, nil
}

// Line appends one formatted line, timestamped in the same RFC3339
// resolution as the JSON log so the two can be correlated by eye.
func (t *TextLog) Line(instance, kind, message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	line := fmt.Sprintf("%s [%s] %s: %s\n", time.Now().UTC().Format(time.RFC3339Nano), instance, kind, message)
	_, err := t.file.WriteString(line)
	return err
}

// Close closes the underlying file.
func (t *TextLog) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.file.Close()
}
