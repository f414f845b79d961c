package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Get returns the whole document or ErrNotFound.
func (s *Store) Get(ctx context.Context, collection, key string) ([]byte, error) {
	var doc []byte
	err := s.Pool.QueryRow(ctx,
		`SELECT doc FROM documents WHERE collection = $1 AND key = $2`,
		collection, key).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return doc, err
}

// Set writes the whole document, creating or replacing it.
func (s *Store) Set(ctx context.Context, collection, key string, doc []byte) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO documents (collection, key, doc) VALUES ($1, $2, $3)
		 ON CONFLICT (collection, key)
		 DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		collection, key, doc)
	return err
}

// Update merges top-level fields into an existing document.
func (s *Store) Update(ctx context.Context, collection, key string, fields map[string]any) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal patch: %w", err)
	}
	tag, err := s.Pool.Exec(ctx,
		`UPDATE documents SET doc = doc || $3::jsonb, updated_at = now()
		 WHERE collection = $1 AND key = $2`,
		collection, key, patch)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, key string) error {
	tag, err := s.Pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND key = $2`,
		collection, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, collection, key string) (bool, error) {
	var exists bool
	err := s.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM documents WHERE collection = $1 AND key = $2)`,
		collection, key).Scan(&exists)
	return exists, err
}

// Query returns every document in the collection whose top-level field
// equals value.
func (s *Store) Query(ctx context.Context, collection, field, value string) ([][]byte, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT doc FROM documents WHERE collection = $1 AND doc ->> $2 = $3
		 ORDER BY created_at`,
		collection, field, value)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDocs(rows)
}

// StreamAll returns every document in the collection in creation order.
func (s *Store) StreamAll(ctx context.Context, collection string) ([][]byte, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT doc FROM documents WHERE collection = $1 ORDER BY created_at`,
		collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDocs(rows)
}

// Mutate runs fn over the current document inside a transaction that holds
// the row lock, then writes the result back. Concurrent Mutate calls for
// the same (collection, key) serialize on that lock, which is what makes
// read-modify-write flows such as guess handling safe.
func (s *Store) Mutate(ctx context.Context, collection, key string, fn func(doc []byte) ([]byte, error)) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var doc []byte
	err = tx.QueryRow(ctx,
		`SELECT doc FROM documents WHERE collection = $1 AND key = $2 FOR UPDATE`,
		collection, key).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	next, err := fn(doc)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE documents SET doc = $3, updated_at = now()
		 WHERE collection = $1 AND key = $2`,
		collection, key, next); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func collectDocs(rows pgx.Rows) ([][]byte, error) {
	var out [][]byte
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}
