package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kandev/swarm/internal/common/apperr"
	"github.com/kandev/swarm/internal/worktree"
)

// slugify turns a swarm name into a filesystem-safe path segment.
func slugify(name string) string {
	if name == "" {
		return "swarm"
	}
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// Store owns the on-disk layout for one run.
type Store struct {
	home      string // $SWARM_HOME
	swarmSlug string
	sessionID string
	paths     Paths

	mu      sync.Mutex
	logFile *os.File
}

// Begin creates the session directory layout, writes initial metadata,
// records the orchestrator's own pid into main_pid, and installs the
// running-symlink. sessionID may be supplied by the caller; an empty
// string generates a fresh UUID.
func Begin(home, swarmName, sessionID string, toolVersion string) (*Store, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	slug := slugify(swarmName)
	root := filepath.Join(home, sessionsRootDirName, slug, sessionID)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, apperr.ConfigError("failed to create session directory", err)
	}

	s := &Store{
		home:      home,
		swarmSlug: slug,
		sessionID: sessionID,
		paths:     Paths{Root: root},
	}

	meta := Metadata{
		SwarmName:   swarmName,
		Timestamp:   time.Now().UTC(),
		ToolVersion: toolVersion,
		InstanceIDs: map[string]string{},
	}
	if err := s.writeMetadata(meta); err != nil {
		return nil, err
	}

	if err := os.WriteFile(s.paths.MainPIDFile(), []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return nil, apperr.ConfigError("failed to write main_pid", err)
	}

	logFile, err := os.OpenFile(s.paths.LogJSONFile(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, apperr.ConfigError("failed to open session log", err)
	}
	s.logFile = logFile

	if err := s.installRunningSymlink(); err != nil {
		return nil, err
	}

	return s, nil
}

// SessionID returns the id this store was opened or created with.
func (s *Store) SessionID() string { return s.sessionID }

// Paths returns the resolved on-disk paths for this session.
func (s *Store) Paths() Paths { return s.paths }

// WriteRootDirectory records the absolute root directory this run resolves
// relative paths against, for later restoration.
func (s *Store) WriteRootDirectory(absRoot string) error {
	if err := os.WriteFile(s.paths.RootDirFile(), []byte(absRoot), 0o644); err != nil {
		return apperr.ConfigError("failed to write root_directory", err)
	}
	return nil
}

// WriteConfig copies the effective config document into the session
// directory.
func (s *Store) WriteConfig(raw []byte) error {
	if err := os.WriteFile(s.paths.ConfigFile(), raw, 0o644); err != nil {
		return apperr.ConfigError("failed to copy config into session directory", err)
	}
	return nil
}

// UpdateWorktree merges worktree state into the metadata document using
// write-then-rename.
func (s *Store) UpdateWorktree(rec *worktree.Record) error {
	meta, err := s.readMetadata()
	if err != nil {
		return err
	}
	meta.Worktree = rec
	return s.writeMetadata(meta)
}

// UpdateInstanceIDs merges agent-name -> instance-id mappings into the
// metadata document.
func (s *Store) UpdateInstanceIDs(ids map[string]string) error {
	meta, err := s.readMetadata()
	if err != nil {
		return err
	}
	if meta.InstanceIDs == nil {
		meta.InstanceIDs = map[string]string{}
	}
	for k, v := range ids {
		meta.InstanceIDs[k] = v
	}
	return s.writeMetadata(meta)
}

func (s *Store) readMetadata() (Metadata, error) {
	var meta Metadata
	raw, err := os.ReadFile(s.paths.MetadataFile())
	if err != nil {
		return meta, apperr.ConfigError("failed to read session metadata", err)
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return meta, apperr.ConfigError("failed to parse session metadata", err)
	}
	return meta, nil
}

// writeMetadata uses write-then-rename so a crash never leaves a
// partially written metadata document.
func (s *Store) writeMetadata(meta Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return apperr.ConfigError("failed to marshal session metadata", err)
	}
	tmp := s.paths.MetadataFile() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperr.ConfigError("failed to write session metadata", err)
	}
	if err := os.Rename(tmp, s.paths.MetadataFile()); err != nil {
		return apperr.ConfigError("failed to finalize session metadata", err)
	}
	return nil
}

// RecordEvent appends one JSON object per line to session.log.json,
// flushing after each append so a crash leaves a valid prefix.
func (s *Store) RecordEvent(event map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.logFile == nil {
		return apperr.ExecutionError("session log is not open", nil)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return apperr.ExecutionError("failed to marshal log event", err)
	}
	data = append(data, '\n')

	if _, err := s.logFile.Write(data); err != nil {
		return apperr.ExecutionError("failed to append log event", err)
	}
	return s.logFile.Sync()
}

func (s *Store) installRunningSymlink() error {
	runDir := filepath.Join(s.home, runningIndexDirName)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return apperr.ConfigError("failed to create running index directory", err)
	}

	link := filepath.Join(runDir, s.sessionID)
	_ = os.Remove(link) // replace an existing symlink of the same id

	if err := os.Symlink(s.paths.Root, link); err != nil {
		return apperr.ConfigError("failed to create running symlink", err)
	}
	return nil
}

// End removes the running-symlink. It never removes the session directory
// itself, and tolerates a missing symlink.
func (s *Store) End() error {
	s.mu.Lock()
	if s.logFile != nil {
		_ = s.logFile.Close()
		s.logFile = nil
	}
	s.mu.Unlock()

	link := filepath.Join(s.home, runningIndexDirName, s.sessionID)
	if err := os.Remove(link); err != nil && !os.IsNotExist(err) {
		return apperr.ConfigError("failed to remove running symlink", err)
	}
	return nil
}

// Restore reads metadata from an existing session directory, exposing the
// recorded root directory, worktree sub-record, and prior tool version.
func Restore(sessionPath string) (*RestoredSession, error) {
	paths := Paths{Root: sessionPath}

	raw, err := os.ReadFile(paths.MetadataFile())
	if err != nil {
		return nil, apperr.RestoreError("failed to read session metadata", err)
	}
	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, apperr.RestoreError("failed to parse session metadata", err)
	}

	rootRaw, err := os.ReadFile(paths.RootDirFile())
	if err != nil {
		return nil, apperr.RestoreError("failed to read root_directory", err)
	}

	return &RestoredSession{
		Paths:       paths,
		Metadata:    meta,
		RootDir:     strings.TrimSpace(string(rootRaw)),
		ToolVersion: meta.ToolVersion,
	}, nil
}

// RemoveRunningSymlink removes the running-symlink for sessionID under
// home, tolerating a missing link. It exists so the orchestrator can clean
// up on a restore path without holding an open *Store.
func RemoveRunningSymlink(home, sessionID string) error {
	link := filepath.Join(home, runningIndexDirName, sessionID)
	if err := os.Remove(link); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove running symlink: %w", err)
	}
	return nil
}
