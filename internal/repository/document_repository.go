package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DocumentRepo is a small document store over the `documents` table:
// (collection, id) -> JSON body. Set replaces the whole document.
type DocumentRepo struct{ DB *sql.DB }

func NewDocumentRepo(db *sql.DB) *DocumentRepo { return &DocumentRepo{DB: db} }

// Document is a stored body with its bookkeeping timestamps.
type Document struct {
	Collection string
	ID         string
	Fields     map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Set upserts fields as the document collection/id.
func (r *DocumentRepo) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	if collection == "" || id == "" {
		return fmt.Errorf("document path %q/%q: collection and id are required", collection, id)
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", collection, id, err)
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO documents (collection, id, body) VALUES (?,?,?) ON DUPLICATE KEY UPDATE body=VALUES(body)",
		collection, id, body)
	if err != nil {
		return fmt.Errorf("set document %s/%s: %w", collection, id, err)
	}
	return nil
}

// Get loads one document.
func (r *DocumentRepo) Get(ctx context.Context, collection, id string) (Document, error) {
	var (
		d    = Document{Collection: collection, ID: id}
		body []byte
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT body, created_at, updated_at FROM documents WHERE collection=? AND id=? LIMIT 1",
		collection, id).Scan(&body, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	if err := json.Unmarshal(body, &d.Fields); err != nil {
		return Document{}, fmt.Errorf("decode document %s/%s: %w", collection, id, err)
	}
	return d, nil
}
