package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tokligence/tokligence-datastream/internal/ledger"
)

// Store implements ledger.Store backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ ledger.Store = (*Store)(nil)

// Options tunes the connection pool. Zero values keep database/sql defaults.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// New opens a PostgreSQL-backed ledger store using the pgx driver.
func New(ctx context.Context, dsn string, opts Options) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("postgres ledger requires a dsn")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS encode_entries (
	id UUID PRIMARY KEY,
	source TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL DEFAULT '',
	mode TEXT NOT NULL,
	prompt_tokens BIGINT,
	completion_tokens BIGINT,
	total_tokens BIGINT,
	records INTEGER NOT NULL DEFAULT 0,
	bytes BIGINT NOT NULL DEFAULT 0,
	fallbacks INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_encode_entries_created ON encode_entries(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_encode_entries_model ON encode_entries(model, created_at DESC);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
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
VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		entry.ID,
		entry.Source,
		entry.Model,
		entry.Mode,
		entry.PromptTokens,
		entry.CompletionTokens,
		entry.TotalTokens,
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
WHERE $1 = '' OR model = $1`, model)

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
SELECT id::text, source, model, mode, prompt_tokens, completion_tokens, total_tokens, records, bytes, fallbacks, created_at
FROM encode_entries
ORDER BY created_at DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		if err := rows.Scan(&e.ID, &e.Source, &e.Model, &e.Mode, &e.PromptTokens, &e.CompletionTokens, &e.TotalTokens, &e.Records, &e.Bytes, &e.Fallbacks, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
