// Package store archives generated programs in Postgres.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS generated_programs (
	id          UUID PRIMARY KEY,
	session_id  UUID NOT NULL,
	task        TEXT NOT NULL,
	language    TEXT NOT NULL,
	filename    TEXT NOT NULL,
	path        TEXT NOT NULL,
	source      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS generated_programs_created_at_idx ON generated_programs (created_at DESC);
`

// Migrate creates the archive table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *Store) Close() {
	s.pool.Close()
}
