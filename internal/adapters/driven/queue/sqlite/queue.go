// Package sqlite provides a JobQueue adapter backed by a local SQLite
// database. It exists for development and single-node deployments
// where running Redis is not worth the trouble; the wire contract is
// identical to the Redis queue.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/maanavnair/synapse/internal/core/ports/driven"
)

// Ensure Queue implements the interface.
var _ driven.JobQueue = (*Queue)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	payload BLOB NOT NULL,
	created INTEGER NOT NULL DEFAULT (unixepoch())
);
`

// Queue is a SQLite-backed durable job queue.
type Queue struct {
	db *sql.DB
}

// New opens (or creates) the queue database at path. ":memory:" gives
// an ephemeral queue for tests.
func New(path string) (*Queue, error) {
	if path == "" {
		return nil, errors.New("sqlite: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// A single writer keeps pop's read-then-delete atomic without
	// busy-retry handling.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}
	return &Queue{db: db}, nil
}

// Push appends a job payload to the queue.
func (q *Queue) Push(ctx context.Context, payload []byte) error {
	_, err := q.db.ExecContext(ctx, `INSERT INTO jobs (payload) VALUES (?)`, payload)
	if err != nil {
		return fmt.Errorf("sqlite: push: %w", err)
	}
	return nil
}

// Pop removes and returns the oldest job payload. An empty queue is
// not an error.
func (q *Queue) Pop(ctx context.Context) ([]byte, bool, error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("sqlite: pop: begin: %w", err)
	}
	defer tx.Rollback()

	var id int64
	var payload []byte
	row := tx.QueryRowContext(ctx, `SELECT id, payload FROM jobs ORDER BY id LIMIT 1`)
	if err := row.Scan(&id, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("sqlite: pop: scan: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id); err != nil {
		return nil, false, fmt.Errorf("sqlite: pop: delete: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("sqlite: pop: commit: %w", err)
	}
	return payload, true, nil
}

// Len returns the number of pending jobs.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: len: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (q *Queue) Close() error {
	return q.db.Close()
}
