package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// register sqlite driver
	_ "modernc.org/sqlite"

	"github.com/tokligence/tokligence-datastream/internal/ledger"
)

// Store implements ledger.Store backed by SQLite.
type Store struct {
	db *sql.DB
}

var _ ledger.Store = (*Store)(nil)

// New opens (or creates) a SQLite store at the given path.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS encode_entries (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL DEFAULT '',
	mode TEXT NOT NULL,
	prompt_tokens INTEGER,
	completion_tokens INTEGER,
	total_tokens INTEGER,
	records INTEGER NOT NULL DEFAULT 0,
	bytes INTEGER NOT NULL DEFAULT 0,
	fallbacks INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_encode_entries_created ON encode_entries(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_encode_entries_model ON encode_entries(model, created_at DESC);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases underlying database resources.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts a new entry.
func (s *Store) Record(ctx context.Context, entry ledger.Entry) error {
	if entry.ID == "" {
		return errors.New("ledger record requires id")
	}
	if entry.Mode == "" {
		return errors.New("ledger record requires mode")
	}
	created := entry.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO encode_entries(id, source, model, mode, prompt_tokens, completion_tokens, total_tokens, records, bytes, fallbacks, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Source,
		entry.Model,
		entry.Mode,
		nullable(entry.PromptTokens),
		nullable(entry.CompletionTokens),
		nullable(entry.TotalTokens),
		entry.Records,
		entry.Bytes,
		entry.Fallbacks,
		created,
	)
	return err
}

// Summary aggregates entries, optionally restricted to one model.
func (s *Store) Summary(ctx context.Context, model string) (ledger.Summary, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT
	COUNT(*),
	COALESCE(SUM(prompt_tokens), 0),
	COALESCE(SUM(completion_tokens), 0),
	COALESCE(SUM(total_tokens), 0),
	COALESCE(SUM(records), 0),
	COALESCE(SUM(bytes), 0)
FROM encode_entries
WHERE ? = '' OR model = ?`, model, model)

	var sum ledger.Summary
	if err := row.Scan(&sum.Entries, &sum.PromptTokens, &sum.CompletionTokens, &sum.TotalTokens, &sum.Records, &sum.Bytes); err != nil {
		return ledger.Summary{}, err
	}
	return sum, nil
}

// ListRecent returns the latest entries, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]ledger.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, source, model, mode, prompt_tokens, completion_tokens, total_tokens, records, bytes, fallbacks, created_at
FROM encode_entries
ORDER BY created_at DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var (
			e                          ledger.Entry
			prompt, completion, total sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.Source, &e.Model, &e.Mode, &prompt, &completion, &total, &e.Records, &e.Bytes, &e.Fallbacks, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.PromptTokens = fromNull(prompt)
		e.CompletionTokens = fromNull(completion)
		e.TotalTokens = fromNull(total)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullable(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func fromNull(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
