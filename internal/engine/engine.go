// Package engine wires the catalog reconciler, progress store, transport
// and resume resolver into one playback engine with a login lifecycle.
package engine

import (
	"context"
	"encoding/json/jsontext"
	"log/slog"
	"sync"

	"github.com/seslikitap/seslikitap-server/internal/catalog"
	"github.com/seslikitap/seslikitap-server/internal/domain"
	apperrors "github.com/seslikitap/seslikitap-server/internal/errors"
	"github.com/seslikitap/seslikitap-server/internal/progress"
	"github.com/seslikitap/seslikitap-server/internal/remote"
	"github.com/seslikitap/seslikitap-server/internal/resume"
	"github.com/seslikitap/seslikitap-server/internal/sse"
	"github.com/seslikitap/seslikitap-server/internal/transport"
)

// Engine is the playback and synchronization engine for one session.
type Engine struct {
	reconciler *catalog.Reconciler
	progress   *progress.Store
	transport  *transport.Transport
	resolver   *resume.Resolver
	remote     remote.Store
	events     *sse.Manager
	logger     *slog.Logger

	mu         sync.Mutex
	userID     string
	admin      bool
	unsubUser  func()
	unsubBooks func()
}

// New assembles an engine. The transport listener is installed here so
// every tick reaches the progress store and the event stream.
func New(
	reconciler *catalog.Reconciler,
	progressStore *progress.Store,
	tr *transport.Transport,
	remoteStore remote.Store,
	events *sse.Manager,
	logger *slog.Logger,
) *Engine {
	e := &Engine{
		reconciler: reconciler,
		progress:   progressStore,
		transport:  tr,
		resolver:   resume.NewResolver(progressStore),
		remote:     remoteStore,
		events:     events,
		logger:     logger,
	}

	tr.SetListener(transport.Listener{
		OnTick:  e.handleTick,
		OnEnded: e.handleEnded,
		OnState: e.handleState,
	})
	return e
}

// Start brings the catalog up: cached layer first so books render
// immediately, then the current remote collection, then the live feed.
func (e *Engine) Start(ctx context.Context) error {
	e.reconciler.LoadCached()

	records, err := e.remote.ListBookRecords(ctx)
	if err != nil {
		// Stale catalog beats no catalog; the subscription below will
		// repair things once the remote store recovers.
		e.logger.Warn("initial remote catalog fetch failed, serving cached books",
			"error", err.Error())
	} else {
		e.publishCatalog(e.reconciler.ApplyRemote(records))
	}

	e.mu.Lock()
	e.unsubBooks = e.remote.SubscribeBooks(func(records []jsontext.Value) {
		e.publishCatalog(e.reconciler.ApplyRemote(records))
	})
	e.mu.Unlock()
	return nil
}

// SetBaseline installs a new seed layer, typically from a seed file reload.
func (e *Engine) SetBaseline(books []domain.Book) {
	e.publishCatalog(e.reconciler.SetBaseline(books))
}

func (e *Engine) publishCatalog(snap *catalog.Snapshot) {
	e.events.Emit(sse.NewCatalogUpdatedEvent(snap.Version(), snap.Len()))
}

// Catalog returns the current catalog snapshot.
func (e *Engine) Catalog() *catalog.Snapshot {
	return e.reconciler.Snapshot()
}

// Login binds a user to the session, seeding the progress store from their
// remote document and following later document changes.
func (e *Engine) Login(ctx context.Context, userID, username string, admin bool) (*domain.UserDocument, error) {
	doc, err := e.remote.EnsureUserDocument(ctx, userID, username)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if e.unsubUser != nil {
		e.unsubUser()
	}
	e.userID = userID
	e.admin = admin
	e.unsubUser = e.remote.SubscribeUser(userID, e.progress.ApplyDocument)
	e.mu.Unlock()

	e.progress.Bind(userID, doc)
	e.logger.Info("user logged in", "user_id", userID)
	return doc, nil
}

// Logout clears the session: progress state goes, the transport stops, and
// the user feed is dropped.
func (e *Engine) Logout() {
	e.mu.Lock()
	if e.unsubUser != nil {
		e.unsubUser()
		e.unsubUser = nil
	}
	userID := e.userID
	e.userID = ""
	e.admin = false
	e.mu.Unlock()

	e.progress.Reset()
	if err := e.transport.Stop(); err != nil {
		e.logger.Warn("transport stop on logout failed", "error", err.Error())
	}
	if userID != "" {
		e.logger.Info("user logged out", "user_id", userID)
	}
}

// PlayBook opens a book on the transport. With an explicit topic the book
// starts there from the beginning; otherwise stored progress decides.
func (e *Engine) PlayBook(bookID string, explicitTopic *int) error {
	book, ok := e.reconciler.Snapshot().Get(bookID)
	if !ok {
		return apperrors.NotFoundf("book %s not found", bookID)
	}

	topicIndex, percent := e.resolver.Resolve(bookID, explicitTopic)
	return e.transport.Load(book, topicIndex, percent, true)
}

// TogglePlay flips play/pause on the transport.
func (e *Engine) TogglePlay() error { return e.transport.TogglePlay() }

// Seek jumps within the current topic.
func (e *Engine) Seek(percent float64) error { return e.transport.Seek(percent) }

// Next advances to the following topic.
func (e *Engine) Next() error { return e.transport.Next() }

// Prev moves back one topic. At the first topic it does nothing.
func (e *Engine) Prev() error { return e.transport.Prev() }

// SelectTopic jumps to a specific topic of the loaded book.
func (e *Engine) SelectTopic(index int) error { return e.transport.SelectTopic(index) }

// StopPlayback tears the transport session down.
func (e *Engine) StopPlayback() error { return e.transport.Stop() }

// SetRate changes the playback rate and persists the preference.
func (e *Engine) SetRate(ctx context.Context, rate float64) error {
	if err := e.transport.SetRate(rate); err != nil {
		return err
	}
	return e.progress.SetPlaybackRate(ctx, rate)
}

// TransportSnapshot returns the render-ready transport view.
func (e *Engine) TransportSnapshot() transport.Snapshot {
	return e.transport.Snapshot()
}

// Progress returns the stored record for one book.
func (e *Engine) Progress(bookID string) (domain.ProgressRecord, bool) {
	return e.progress.Get(bookID)
}

// AllProgress returns every stored record.
func (e *Engine) AllProgress() map[string]domain.ProgressRecord {
	return e.progress.All()
}

// ClearProgress removes the stored record for one book.
func (e *Engine) ClearProgress(ctx context.Context, bookID string) error {
	return e.progress.Clear(ctx, bookID)
}

// ToggleFavorite flips a book's favorite status.
func (e *Engine) ToggleFavorite(ctx context.Context, bookID string) (bool, error) {
	return e.progress.ToggleFavorite(ctx, bookID)
}

// Favorites returns the favorites list.
func (e *Engine) Favorites() []string { return e.progress.Favorites() }

// SetUsername updates the display name.
func (e *Engine) SetUsername(ctx context.Context, username string) error {
	return e.progress.SetUsername(ctx, username)
}

// Session describes the bound user.
func (e *Engine) Session() (userID, username string, bound bool) {
	e.mu.Lock()
	userID = e.userID
	e.mu.Unlock()
	return userID, e.progress.Username(), userID != ""
}

// Admin reports whether the bound session unlocked the admin surface.
func (e *Engine) Admin() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.admin
}

// PlaybackRate returns the session playback rate.
func (e *Engine) PlaybackRate() float64 { return e.progress.PlaybackRate() }

// Close drops the feeds.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.unsubBooks != nil {
		e.unsubBooks()
		e.unsubBooks = nil
	}
	if e.unsubUser != nil {
		e.unsubUser()
		e.unsubUser = nil
	}
	e.mu.Unlock()
}

func (e *Engine) currentUser() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.userID
}

// handleTick feeds the throttled progress writer and the live event stream.
func (e *Engine) handleTick(tick transport.TickEvent) {
	e.progress.RecordTick(context.Background(), tick.BookID, tick.TopicIndex, tick.Percent, tick.Position)
	e.events.Emit(sse.NewTickEvent(e.currentUser(), tick))
}

func (e *Engine) handleEnded(ended transport.EndedEvent) {
	e.events.Emit(sse.NewEndedEvent(e.currentUser(), ended))
}

func (e *Engine) handleState(snap transport.Snapshot) {
	e.events.Emit(sse.NewStateEvent(e.currentUser(), snap))
}
