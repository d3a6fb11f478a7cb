package sqlite

import (
	"context"
	"database/sql"
	"encoding/json/v2"
	"time"

	"github.com/seslikitap/seslikitap-server/internal/domain"
	apperrors "github.com/seslikitap/seslikitap-server/internal/errors"
)

// GetUserDocument assembles the full user document from the users and
// user_progress tables.
func (s *Store) GetUserDocument(ctx context.Context, userID string) (*domain.UserDocument, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT username, playback_speed, favorites, created_at FROM users WHERE id = ?`, userID)

	var (
		doc          domain.UserDocument
		favoritesRaw string
		createdAtRaw string
	)
	err := row.Scan(&doc.Username, &doc.PlaybackSpeed, &favoritesRaw, &createdAtRaw)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFoundf("user %s has no document", userID)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeRemoteRead, "read user document")
	}

	if err := json.Unmarshal([]byte(favoritesRaw), &doc.Favorites); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeRemoteRead, "decode favorites")
	}
	if doc.CreatedAt, err = parseTime(createdAtRaw); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeRemoteRead, "parse user created_at")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT book_id, topic_index, percent FROM user_progress WHERE user_id = ?`, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeRemoteRead, "read user progress")
	}
	defer rows.Close()

	doc.Progress = make(map[string]domain.ProgressRecord)
	for rows.Next() {
		var (
			bookID string
			rec    domain.ProgressRecord
		)
		if err := rows.Scan(&bookID, &rec.TopicIndex, &rec.Percent); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeRemoteRead, "scan progress row")
		}
		doc.Progress[bookID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeRemoteRead, "iterate progress rows")
	}

	doc.Normalize()
	return &doc, nil
}

// EnsureUserDocument returns the existing document or creates a fresh one.
func (s *Store) EnsureUserDocument(ctx context.Context, userID, username string) (*domain.UserDocument, error) {
	doc, err := s.GetUserDocument(ctx, userID)
	if err == nil {
		return doc, nil
	}
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	fresh := domain.NewUserDocument(username)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, playback_speed, favorites, created_at)
		 VALUES (?, ?, ?, '[]', ?)
		 ON CONFLICT(id) DO NOTHING`,
		userID, fresh.Username, fresh.PlaybackSpeed, formatTime(fresh.CreatedAt))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeRemoteWrite, "create user document")
	}

	s.notifyUser(userID)
	return s.GetUserDocument(ctx, userID)
}

// UpdateProgress upserts one progress record.
func (s *Store) UpdateProgress(ctx context.Context, userID, bookID string, rec domain.ProgressRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_progress (user_id, book_id, topic_index, percent, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, book_id) DO UPDATE SET
		   topic_index = excluded.topic_index,
		   percent = excluded.percent,
		   updated_at = excluded.updated_at`,
		userID, bookID, rec.TopicIndex, rec.Percent, formatTime(time.Now()))
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeRemoteWrite, "update progress")
	}
	s.notifyUser(userID)
	return nil
}

// DeleteProgress removes the record for one book. Absence is not an error.
func (s *Store) DeleteProgress(ctx context.Context, userID, bookID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM user_progress WHERE user_id = ? AND book_id = ?`, userID, bookID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeRemoteWrite, "delete progress")
	}
	s.notifyUser(userID)
	return nil
}

// UpdatePlaybackSpeed sets the stored speed preference.
func (s *Store) UpdatePlaybackSpeed(ctx context.Context, userID string, speed float64) error {
	return s.updateUserField(ctx, userID, "playback_speed", speed)
}

// UpdateUsername sets the stored display name.
func (s *Store) UpdateUsername(ctx context.Context, userID, username string) error {
	return s.updateUserField(ctx, userID, "username", username)
}

// UpdateFavorites replaces the stored favorites list.
func (s *Store) UpdateFavorites(ctx context.Context, userID string, favorites []string) error {
	if favorites == nil {
		favorites = []string{}
	}
	raw, err := json.Marshal(favorites)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeRemoteWrite, "encode favorites")
	}
	return s.updateUserField(ctx, userID, "favorites", string(raw))
}

func (s *Store) updateUserField(ctx context.Context, userID, column string, value any) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET `+column+` = ? WHERE id = ?`, value, userID)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.CodeRemoteWrite, "update %s", column)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.Wrapf(err, apperrors.CodeRemoteWrite, "update %s", column)
	}
	if n == 0 {
		return apperrors.NotFoundf("user %s has no document", userID)
	}
	s.notifyUser(userID)
	return nil
}
