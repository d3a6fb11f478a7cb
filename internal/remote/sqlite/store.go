// Package sqlite is the embedded implementation of the remote document
// store, used for self-hosted deployments and tests. Change subscriptions
// are in-process: every mutation renotifies the affected subscribers with a
// fresh read, which stands in for the hosted store's push feed.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json/jsontext"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/seslikitap/seslikitap-server/internal/domain"
	"github.com/seslikitap/seslikitap-server/internal/remote"
)

//go:embed schema.sql
var schemaSQL string

// Store is a SQLite-backed remote.Store.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	mu        sync.Mutex
	nextSubID int
	userSubs  map[string]map[int]func(*domain.UserDocument)
	bookSubs  map[int]func([]jsontext.Value)
}

var _ remote.Store = (*Store)(nil)

// Open creates the store at path, configuring WAL mode and running the
// schema migration.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	return &Store{
		db:       db,
		logger:   logger,
		userSubs: make(map[string]map[int]func(*domain.UserDocument)),
		bookSubs: make(map[int]func([]jsontext.Value)),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SubscribeUser registers a callback for changes to one user's document.
func (s *Store) SubscribeUser(userID string, fn func(*domain.UserDocument)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	if s.userSubs[userID] == nil {
		s.userSubs[userID] = make(map[int]func(*domain.UserDocument))
	}
	s.userSubs[userID][id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.userSubs[userID], id)
	}
}

// SubscribeBooks registers a callback for changes to the book collection.
func (s *Store) SubscribeBooks(fn func([]jsontext.Value)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	s.bookSubs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.bookSubs, id)
	}
}

// notifyUser re-reads the user document and fans it out to that user's
// subscribers. Notifications are best effort; a failed read is logged.
func (s *Store) notifyUser(userID string) {
	s.mu.Lock()
	fns := make([]func(*domain.UserDocument), 0, len(s.userSubs[userID]))
	for _, fn := range s.userSubs[userID] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	if len(fns) == 0 {
		return
	}

	doc, err := s.GetUserDocument(context.Background(), userID)
	if err != nil {
		s.logger.Warn("user change notification skipped",
			"user_id", userID, "error", err.Error())
		return
	}
	for _, fn := range fns {
		fn(doc)
	}
}

// notifyBooks fans the current ordered record list out to collection
// subscribers.
func (s *Store) notifyBooks() {
	s.mu.Lock()
	fns := make([]func([]jsontext.Value), 0, len(s.bookSubs))
	for _, fn := range s.bookSubs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	if len(fns) == 0 {
		return
	}

	records, err := s.ListBookRecords(context.Background())
	if err != nil {
		s.logger.Warn("book change notification skipped", "error", err.Error())
		return
	}
	for _, fn := range fns {
		fn(records)
	}
}

// formatTime renders a timestamp for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime reads a stored timestamp.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
