package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/kai/internal/codegen"
)

// ErrProgramNotFound is returned by GetProgram for an unknown ID.
var ErrProgramNotFound = errors.New("program not found")

// RecordProgram inserts a generated program. A nil ID is replaced with a fresh one.
func (s *Store) RecordProgram(ctx context.Context, p codegen.Program) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO generated_programs (id, session_id, task, language, filename, path, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.SessionID, p.Task, p.Language, p.Filename, p.Path, p.Source, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert program: %w", err)
	}
	return nil
}

// RecentPrograms returns up to limit programs, newest first.
func (s *Store) RecentPrograms(ctx context.Context, limit int) ([]codegen.Program, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, task, language, filename, path, source, created_at
		FROM generated_programs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query programs: %w", err)
	}

	progs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (codegen.Program, error) {
		var p codegen.Program
		err := row.Scan(&p.ID, &p.SessionID, &p.Task, &p.Language, &p.Filename, &p.Path, &p.Source, &p.CreatedAt)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan programs: %w", err)
	}
	return progs, nil
}

// GetProgram fetches a program by ID.
func (s *Store) GetProgram(ctx context.Context, id uuid.UUID) (*codegen.Program, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, session_id, task, language, filename, path, source, created_at
		FROM generated_programs WHERE id = $1`, id)

	var p codegen.Program
	err := row.Scan(&p.ID, &p.SessionID, &p.Task, &p.Language, &p.Filename, &p.Path, &p.Source, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProgramNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get program: %w", err)
	}
	return &p, nil
}
