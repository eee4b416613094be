// SQLite run journal.
//
// Information Hiding:
// - SQLite connection management hidden behind interface
// - Schema and migration details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SqliteJournal implements RunJournal using SQLite.
type SqliteJournal struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite journal at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteJournal, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	return newSqliteJournal(db)
}

// NewSqliteInMemory creates an in-memory journal (useful for testing).
func NewSqliteInMemory() (*SqliteJournal, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)
	return newSqliteJournal(db)
}

func newSqliteJournal(db *sql.DB) (*SqliteJournal, error) {
	journal := &SqliteJournal{db: db}
	if err := journal.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return journal, nil
}

// Close closes the database connection.
func (s *SqliteJournal) Close() error {
	return s.db.Close()
}

func (s *SqliteJournal) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			topic TEXT NOT NULL,
			outcome TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			duration_ms INTEGER NOT NULL,
			turns INTEGER NOT NULL,
			tool_calls INTEGER NOT NULL,
			prompt_tokens INTEGER NOT NULL,
			completion_tokens INTEGER NOT NULL,
			total_tokens INTEGER NOT NULL,
			content_hash TEXT NOT NULL DEFAULT '',
			content_bytes INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_runs_created
		ON runs(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Record inserts a run record.
func (s *SqliteJournal) Record(ctx context.Context, r RunRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, topic, outcome, detail, duration_ms, turns, tool_calls,
			prompt_tokens, completion_tokens, total_tokens,
			content_hash, content_bytes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Topic, r.Outcome, r.Detail, int64(r.DurationMs), r.Turns, r.ToolCalls,
		r.PromptTokens, r.CompletionTokens, r.TotalTokens,
		r.ContentHash, r.ContentBytes, r.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *SqliteJournal) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	n := clampLimit(limit)
	if n == 0 {
		return []RunRecord{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, topic, outcome, detail, duration_ms, turns, tool_calls,
			prompt_tokens, completion_tokens, total_tokens,
			content_hash, content_bytes, created_at
		FROM runs
		ORDER BY created_at DESC, seq DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	records := []RunRecord{}
	for rows.Next() {
		record, err := scanRunRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return records, nil
}

func scanRunRow(rows *sql.Rows) (RunRecord, error) {
	var r RunRecord
	var durationMs, createdAt int64
	err := rows.Scan(
		&r.ID, &r.Topic, &r.Outcome, &r.Detail, &durationMs, &r.Turns, &r.ToolCalls,
		&r.PromptTokens, &r.CompletionTokens, &r.TotalTokens,
		&r.ContentHash, &r.ContentBytes, &createdAt,
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("failed to scan run: %w", err)
	}
	r.DurationMs = uint64(durationMs)
	r.CreatedAt = time.Unix(0, createdAt).UTC()
	return r, nil
}

// Verify SqliteJournal implements RunJournal
var _ RunJournal = (*SqliteJournal)(nil)
