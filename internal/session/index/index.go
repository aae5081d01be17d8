// Package index maintains a best-effort SQLite index of sessions under
// $SWARM_HOME, so operators can query past runs without walking the
// sessions/ tree by hand. It is optional: any failure to open or write the
// index is logged by the caller and never fails a run.
package index

import (
	"context"
	"database/sql"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id   TEXT PRIMARY KEY,
	swarm_name   TEXT NOT NULL,
	root_dir     TEXT NOT NULL,
	started_at   TIMESTAMP NOT NULL,
	ended_at     TIMESTAMP,
	tool_version TEXT NOT NULL
);
`

// Index wraps a SQLite database recording one row per session.
type Index struct {
	db *sql.DB
}

// Open opens (creating if necessary) the index database under home.
func Open(home string) (*Index, error) {
	path := filepath.Join(home, "sessions.index.sqlite")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

// RecordStart inserts or replaces a row for a session that just began.
func (idx *Index) RecordStart(ctx context.Context, sessionID, swarmName, rootDir, toolVersion string) error {
	_, err := idx.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (session_id, swarm_name, root_dir, started_at, tool_version)
		 VALUES (?, ?, ?, ?, ?)`,
		sessionID, swarmName, rootDir, time.Now().UTC(), toolVersion)
	return err
}

// RecordEnd stamps the end time for a session.
func (idx *Index) RecordEnd(ctx context.Context, sessionID string) error {
	_, err := idx.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ? WHERE session_id = ?`,
		time.Now().UTC(), sessionID)
	return err
}

// Close closes the underlying database handle.
func (idx *Index) Close() error {
	return idx.db.Close()
}
