// Package progress keeps the bound user's listening state for the session
// and syncs it to the remote store. Playback ticks land here every few
// hundred milliseconds; the session cache absorbs all of them while remote
// writes are throttled to whole-second multiples of the configured interval.
package progress

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/seslikitap/seslikitap-server/internal/domain"
	"github.com/seslikitap/seslikitap-server/internal/remote"
)

// Store is the per-session progress cache over the remote store.
type Store struct {
	remote          remote.Store
	throttleSeconds int
	defaultRate     float64
	logger          *slog.Logger

	mu          sync.Mutex
	userID      string
	username    string
	records     map[string]domain.ProgressRecord
	favorites   []string
	rate        float64
	lastWritten map[string]int
}

// NewStore creates a progress store. The throttle interval must be a whole
// number of seconds (config validates this).
func NewStore(rs remote.Store, throttle time.Duration, defaultRate float64, logger *slog.Logger) *Store {
	s := &Store{
		remote:          rs,
		throttleSeconds: int(throttle / time.Second),
		defaultRate:     defaultRate,
		logger:          logger,
	}
	s.resetLocked()
	return s
}

func (s *Store) resetLocked() {
	s.userID = ""
	s.username = ""
	s.records = make(map[string]domain.ProgressRecord)
	s.favorites = []string{}
	s.rate = s.defaultRate
	s.lastWritten = make(map[string]int)
}

// Bind attaches a user to the session and seeds the cache from their remote
// document.
func (s *Store) Bind(userID string, doc *domain.UserDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.lastWritten = make(map[string]int)
	s.applyLocked(doc)
}

// ApplyDocument refreshes the session cache from a remote document snapshot.
// The remote store is the source of truth, so the snapshot replaces the
// cache wholesale.
func (s *Store) ApplyDocument(doc *domain.UserDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID == "" {
		return
	}
	s.applyLocked(doc)
}

func (s *Store) applyLocked(doc *domain.UserDocument) {
	if doc == nil {
		return
	}
	s.username = doc.Username
	s.records = make(map[string]domain.ProgressRecord, len(doc.Progress))
	for id, rec := range doc.Progress {
		s.records[id] = rec
	}
	s.favorites = slices.Clone(doc.Favorites)
	if s.favorites == nil {
		s.favorites = []string{}
	}
	s.rate = doc.PlaybackSpeed
	if s.rate <= 0 {
		s.rate = s.defaultRate
	}
}

// Reset clears all session state on logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// Bound reports whether a user is attached.
func (s *Store) Bound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID != ""
}

// UserID returns the bound user id, empty when logged out.
func (s *Store) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Username returns the bound user's display name.
func (s *Store) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// RecordTick absorbs one playback tick. The session cache always updates;
// the remote store is written only when the position lands on a whole-second
// multiple of the throttle interval, and at most once per such second. A
// remote failure is logged and the tick still counts locally.
func (s *Store) RecordTick(ctx context.Context, bookID string, topicIndex int, percent, positionSeconds float64) {
	rec := domain.ProgressRecord{TopicIndex: topicIndex, Percent: percent}

	s.mu.Lock()
	s.records[bookID] = rec
	userID := s.userID
	write := false
	sec := int(positionSeconds)
	if userID != "" && sec > 0 && sec%s.throttleSeconds == 0 && s.lastWritten[bookID] != sec {
		s.lastWritten[bookID] = sec
		write = true
	}
	s.mu.Unlock()

	if !write {
		return
	}
	if err := s.remote.UpdateProgress(ctx, userID, bookID, rec); err != nil {
		s.logger.Warn("remote progress write failed",
			"book_id", bookID, "error", err.Error())
	}
}

// Get returns the cached record for a book.
func (s *Store) Get(bookID string) (domain.ProgressRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[bookID]
	return rec, ok
}

// All returns a copy of every cached record.
func (s *Store) All() map[string]domain.ProgressRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.ProgressRecord, len(s.records))
	for id, rec := range s.records {
		out[id] = rec
	}
	return out
}

// Clear removes the record for a book from the cache and the remote store.
// Clearing an absent record is a no-op. The throttle memory for the book is
// dropped too, so a later tick at the same position persists again instead
// of being suppressed.
func (s *Store) Clear(ctx context.Context, bookID string) error {
	s.mu.Lock()
	_, had := s.records[bookID]
	delete(s.records, bookID)
	delete(s.lastWritten, bookID)
	userID := s.userID
	s.mu.Unlock()

	if !had || userID == "" {
		return nil
	}
	if err := s.remote.DeleteProgress(ctx, userID, bookID); err != nil {
		s.logger.Warn("remote progress delete failed",
			"book_id", bookID, "error", err.Error())
		return err
	}
	return nil
}

// PlaybackRate returns the session playback rate.
func (s *Store) PlaybackRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

// SetPlaybackRate updates the rate and writes it through immediately. Rate
// changes are rare and user-initiated, so they skip the tick throttle.
func (s *Store) SetPlaybackRate(ctx context.Context, rate float64) error {
	if rate <= 0 {
		rate = s.defaultRate
	}

	s.mu.Lock()
	s.rate = rate
	userID := s.userID
	s.mu.Unlock()

	if userID == "" {
		return nil
	}
	if err := s.remote.UpdatePlaybackSpeed(ctx, userID, rate); err != nil {
		s.logger.Warn("remote playback speed write failed", "error", err.Error())
		return err
	}
	return nil
}

// Favorites returns a copy of the favorites list.
func (s *Store) Favorites() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.favorites)
}

// IsFavorite reports whether a book is in the favorites list.
func (s *Store) IsFavorite(bookID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.favorites, bookID)
}

// ToggleFavorite flips a book's favorite status and writes the list through
// immediately. Returns the new status.
func (s *Store) ToggleFavorite(ctx context.Context, bookID string) (bool, error) {
	s.mu.Lock()
	i := slices.Index(s.favorites, bookID)
	nowFavorite := i < 0
	if nowFavorite {
		s.favorites = append(s.favorites, bookID)
	} else {
		s.favorites = slices.Delete(s.favorites, i, i+1)
	}
	favorites := slices.Clone(s.favorites)
	userID := s.userID
	s.mu.Unlock()

	if userID == "" {
		return nowFavorite, nil
	}
	if err := s.remote.UpdateFavorites(ctx, userID, favorites); err != nil {
		s.logger.Warn("remote favorites write failed", "error", err.Error())
		return nowFavorite, err
	}
	return nowFavorite, nil
}

// SetUsername updates the display name and writes it through immediately.
func (s *Store) SetUsername(ctx context.Context, username string) error {
	s.mu.Lock()
	s.username = username
	userID := s.userID
	s.mu.Unlock()

	if userID == "" {
		return nil
	}
	if err := s.remote.UpdateUsername(ctx, userID, username); err != nil {
		s.logger.Warn("remote username write failed", "error", err.Error())
		return err
	}
	return nil
}
