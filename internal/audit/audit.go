// Package audit records dispatched tool calls in a local SQLite database so
// operators can review what a client did after the fact. The trail is
// best-effort: a failed write is logged by the caller and never fails the
// tool call itself.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS tool_calls (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	tool        TEXT    NOT NULL,
	ok          INTEGER NOT NULL,
	error_kind  TEXT    NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL,
	called_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_tool_calls_tool ON tool_calls(tool);
CREATE INDEX IF NOT EXISTS idx_tool_calls_called_at ON tool_calls(called_at);
`

// Logger writes the audit trail. Safe for concurrent use; database/sql
// serializes access to the underlying SQLite handle.
type Logger struct {
	db *sql.DB
}

// Record is one row of the trail.
type Record struct {
	ID        int64     `json:"id"`
	Tool      string    `json:"tool"`
	OK        bool      `json:"ok"`
	ErrorKind string    `json:"error_kind,omitempty"`
	Duration  int64     `json:"duration_ms"`
	CalledAt  time.Time `json:"called_at"`
}

// Open creates or opens the audit database at path. Use ":memory:" for an
// ephemeral trail.
func Open(path string) (*Logger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: create schema: %w", err)
	}
	return &Logger{db: db}, nil
}

// RecordCall appends one tool call to the trail.
func (l *Logger) RecordCall(ctx context.Context, tool string, ok bool, errorKind string, duration time.Duration) error {
	okInt := 0
	if ok {
		okInt = 1
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO tool_calls (tool, ok, error_kind, duration_ms) VALUES (?, ?, ?, ?)`,
		tool, okInt, errorKind, duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (l *Logger) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, tool, ok, error_kind, duration_ms, called_at
		 FROM tool_calls ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: query: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var okInt int
		if err := rows.Scan(&r.ID, &r.Tool, &okInt, &r.ErrorKind, &r.Duration, &r.CalledAt); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}
		r.OK = okInt == 1
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (l *Logger) Close() error {
	return l.db.Close()
}
