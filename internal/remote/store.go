// Package remote defines the boundary to the remote document store that is
// the source of truth for user documents and the book collection. The engine
// only sees this interface; the wire format and transport belong to the
// implementation.
package remote

import (
	"context"
	"encoding/json/jsontext"

	"github.com/seslikitap/seslikitap-server/internal/domain"
)

// Store is the remote document store contract.
//
// Progress, speed, favorites and username updates are partial-field writes:
// they touch only the named field of the user document, last writer wins.
// Subscription callbacks run synchronously after the triggering write and
// must not call back into the store.
type Store interface {
	// GetUserDocument returns the user document, or a NOT_FOUND error when
	// the user has no document yet.
	GetUserDocument(ctx context.Context, userID string) (*domain.UserDocument, error)

	// EnsureUserDocument returns the existing document or creates a fresh
	// one for a first-time user.
	EnsureUserDocument(ctx context.Context, userID, username string) (*domain.UserDocument, error)

	// UpdateProgress upserts the progress record for one book.
	UpdateProgress(ctx context.Context, userID, bookID string, rec domain.ProgressRecord) error

	// DeleteProgress removes the progress field for one book. Deleting an
	// absent record is not an error.
	DeleteProgress(ctx context.Context, userID, bookID string) error

	// UpdatePlaybackSpeed sets the user's playback speed preference.
	UpdatePlaybackSpeed(ctx context.Context, userID string, speed float64) error

	// UpdateFavorites replaces the user's favorites list.
	UpdateFavorites(ctx context.Context, userID string, favorites []string) error

	// UpdateUsername sets the user's display name.
	UpdateUsername(ctx context.Context, userID, username string) error

	// SubscribeUser registers a callback invoked with the full document
	// after every change to it. Returns an unsubscribe func.
	SubscribeUser(userID string, fn func(*domain.UserDocument)) (unsubscribe func())

	// ListBookRecords returns the raw book records ordered by creation
	// time, newest first. Records are raw because validation is the
	// catalog reconciler's job.
	ListBookRecords(ctx context.Context) ([]jsontext.Value, error)

	// PutBookRecord upserts one raw book record. The record must carry an
	// "id" field.
	PutBookRecord(ctx context.Context, record jsontext.Value) error

	// DeleteBookRecord removes a book record by id.
	DeleteBookRecord(ctx context.Context, bookID string) error

	// SubscribeBooks registers a callback invoked with the full ordered
	// record list after every collection change. Returns an unsubscribe
	// func.
	SubscribeBooks(fn func([]jsontext.Value)) (unsubscribe func())

	// Close releases the underlying storage.
	Close() error
}
