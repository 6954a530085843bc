// Package postgres implements the DocumentStore port on a single JSONB
// documents table, so every collection shares one schema:
//
//	CREATE TABLE IF NOT EXISTS documents (
//	    collection TEXT NOT NULL,
//	    id         TEXT NOT NULL,
//	    fields     JSONB NOT NULL,
//	    PRIMARY KEY (collection, id)
//	);
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"classroom/internal/classroom"
	"classroom/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    id         TEXT NOT NULL,
    fields     JSONB NOT NULL,
    PRIMARY KEY (collection, id)
)`

// Store is a Postgres-backed document store.
type Store struct {
	db *sql.DB
}

// NewStore opens the store over db, creating the documents table if needed.
func NewStore(ctx context.Context, db *sql.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("creating documents table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := uuid.NewString()
	if err := s.Set(ctx, collection, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshaling document: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, fields) VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET fields = EXCLUDED.fields`,
		collection, id, body)
	if err != nil {
		return fmt.Errorf("storing document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (map[string]any, bool, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT fields FROM documents WHERE collection = $1 AND id = $2`,
		collection, id).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading document %s/%s: %w", collection, id, err)
	}
	fields, err := decodeFields(body)
	if err != nil {
		return nil, false, err
	}
	return fields, true, nil
}

func (s *Store) GetAll(ctx context.Context, collection string) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, fields FROM documents WHERE collection = $1 ORDER BY id`,
		collection)
	if err != nil {
		return nil, fmt.Errorf("listing collection %s: %w", collection, err)
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func (s *Store) FindByField(ctx context.Context, collection, field string, value any, limit int) ([]domain.Document, error) {
	// Containment against {field: value} uses the collection's JSONB index
	// and matches exact values only, same as the in-memory store.
	probe, err := json.Marshal(map[string]any{field: value})
	if err != nil {
		return nil, fmt.Errorf("marshaling field probe: %w", err)
	}

	query := `SELECT id, fields FROM documents WHERE collection = $1 AND fields @> $2 ORDER BY id`
	args := []any{collection, probe}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying collection %s by %s: %w", collection, field, err)
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshaling document: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET fields = fields || $3
		WHERE collection = $1 AND id = $2`,
		collection, id, body)
	if err != nil {
		return fmt.Errorf("updating document %s/%s: %w", collection, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating document %s/%s: %w", collection, id, err)
	}
	if n == 0 {
		return fmt.Errorf("no document %s/%s", collection, id)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id)
	if err != nil {
		return fmt.Errorf("deleting document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) RunTransaction(ctx context.Context, fn func(classroom.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(&sqlTx{ctx: ctx, tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rolling back after %w: %v", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// sqlTx adapts a sql.Tx to the Tx port. The context is captured at
// transaction start since the port's methods take none.
type sqlTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *sqlTx) Get(collection, id string) (map[string]any, bool, error) {
	var body []byte
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT fields FROM documents WHERE collection = $1 AND id = $2`,
		collection, id).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading document %s/%s: %w", collection, id, err)
	}
	fields, err := decodeFields(body)
	if err != nil {
		return nil, false, err
	}
	return fields, true, nil
}

func (t *sqlTx) Set(collection, id string, fields map[string]any) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshaling document: %w", err)
	}
	_, err = t.tx.ExecContext(t.ctx, `
		INSERT INTO documents (collection, id, fields) VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET fields = EXCLUDED.fields`,
		collection, id, body)
	if err != nil {
		return fmt.Errorf("storing document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (t *sqlTx) Update(collection, id string, fields map[string]any) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshaling document: %w", err)
	}
	res, err := t.tx.ExecContext(t.ctx, `
		UPDATE documents SET fields = fields || $3
		WHERE collection = $1 AND id = $2`,
		collection, id, body)
	if err != nil {
		return fmt.Errorf("updating document %s/%s: %w", collection, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating document %s/%s: %w", collection, id, err)
	}
	if n == 0 {
		return fmt.Errorf("no document %s/%s", collection, id)
	}
	return nil
}

func (t *sqlTx) Delete(collection, id string) error {
	_, err := t.tx.ExecContext(t.ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id)
	if err != nil {
		return fmt.Errorf("deleting document %s/%s: %w", collection, id, err)
	}
	return nil
}

func decodeFields(body []byte) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("decoding document fields: %w", err)
	}
	return fields, nil
}

func collectDocuments(rows *sql.Rows) ([]domain.Document, error) {
	var docs []domain.Document
	for rows.Next() {
		var (
			id   string
			body []byte
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		fields, err := decodeFields(body)
		if err != nil {
			return nil, err
		}
		docs = append(docs, domain.Document{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document rows: %w", err)
	}
	return docs, nil
}
