package sqlite

import (
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"strings"
	"time"

	apperrors "github.com/seslikitap/seslikitap-server/internal/errors"
)

// ListBookRecords returns the raw records, newest first. Ties on creation
// time break on id so the order is stable.
func (s *Store) ListBookRecords(ctx context.Context) ([]jsontext.Value, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM books ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeRemoteRead, "list book records")
	}
	defer rows.Close()

	var records []jsontext.Value
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeRemoteRead, "scan book record")
		}
		records = append(records, jsontext.Value(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeRemoteRead, "iterate book records")
	}
	return records, nil
}

// PutBookRecord upserts one raw record. The record must carry a non-empty
// id; createdAt is taken from the record when present, otherwise stamped at
// insert and preserved on later updates.
func (s *Store) PutBookRecord(ctx context.Context, record jsontext.Value) error {
	var header struct {
		ID        string    `json:"id"`
		CreatedAt time.Time `json:"createdAt"`
	}
	if err := json.Unmarshal(record, &header); err != nil {
		return apperrors.Wrap(err, apperrors.CodeValidation, "malformed book record")
	}
	if strings.TrimSpace(header.ID) == "" {
		return apperrors.Validation("book record has no id")
	}

	createdAt := header.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO books (id, record, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET record = excluded.record`,
		header.ID, string(record), formatTime(createdAt))
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeRemoteWrite, "put book record")
	}

	s.notifyBooks()
	return nil
}

// DeleteBookRecord removes a record by id. Absence is not an error.
func (s *Store) DeleteBookRecord(ctx context.Context, bookID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, bookID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeRemoteWrite, "delete book record")
	}
	s.notifyBooks()
	return nil
}
