package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Collections read by the profile screen
const (
	CollectionUsers    = "users"
	CollectionTasks    = "tasks"
	CollectionActivity = "activity"
)

// OwnerField is the data field linking a record to an identity
const OwnerField = "userId"

// Document is a schemaless record inside a collection
type Document struct {
	Collection string
	ID         string
	OwnerID    string
	Data       map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// String returns the field value for key, or "" if it is missing or not a string
func (d *Document) String(key string) string {
	if d == nil || d.Data == nil {
		return ""
	}
	s, _ := d.Data[key].(string)
	return s
}

// GetRecord returns a single document, or ErrNotFound
func (db *DB) GetRecord(ctx context.Context, collection, id string) (*Document, error) {
	row := db.QueryRowContext(ctx, `
		SELECT collection, id, owner_id, data, created_at, updated_at
		FROM documents WHERE collection = ? AND id = ?
	`, collection, id)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

// QueryByOwner returns every document in collection owned by ownerID, in
// insertion order
func (db *DB) QueryByOwner(ctx context.Context, collection, ownerID string) ([]Document, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT collection, id, owner_id, data, created_at, updated_at
		FROM documents
		WHERE collection = ? AND owner_id = ?
		ORDER BY seq
	`, collection, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query %s by owner: %w", collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s by owner: %w", collection, err)
	}
	return docs, nil
}

// PutRecord inserts or replaces a document. The owner column is taken from
// data["userId"].
func (db *DB) PutRecord(ctx context.Context, collection, id string, data map[string]any) (*Document, error) {
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}

	var owner *string
	if s, ok := data[OwnerField].(string); ok && s != "" {
		owner = &s
	}

	now := time.Now()
	_, err = db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, owner_id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET
			owner_id = excluded.owner_id,
			data = excluded.data,
			updated_at = excluded.updated_at
	`, collection, id, owner, string(raw), now, now)
	if err != nil {
		return nil, fmt.Errorf("put %s/%s: %w", collection, id, err)
	}

	doc := &Document{
		Collection: collection,
		ID:         id,
		Data:       data,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if owner != nil {
		doc.OwnerID = *owner
	}
	return doc, nil
}

// DeleteRecord removes a document. Deleting a missing document is not an error.
func (db *DB) DeleteRecord(ctx context.Context, collection, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(s scanner) (*Document, error) {
	var d Document
	var owner *string
	var raw string

	if err := s.Scan(&d.Collection, &d.ID, &owner, &raw, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if owner != nil {
		d.OwnerID = *owner
	}
	if err := json.Unmarshal([]byte(raw), &d.Data); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", d.Collection, d.ID, err)
	}
	return &d, nil
}
