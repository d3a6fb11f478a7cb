// Package catalog merges the three catalog sources (seed baseline, local
// cache, remote feed) into one immutable snapshot for consumers.
package catalog

import (
	"encoding/json/jsontext"
	"log/slog"
	"sync"

	"github.com/seslikitap/seslikitap-server/internal/domain"
)

// BookCache is the durable local mirror of the last validated catalog.
// Implemented by cache.Cache.
type BookCache interface {
	LoadCatalog() ([]domain.Book, error)
	StoreCatalog(books []domain.Book) error
}

// Reconcile performs the three-way upsert merge. Precedence per book id is
// incoming > cached > baseline. Order is merge order: baseline first, then
// cached books not already present, then incoming books not already present.
// Pure and deterministic; applying the same layers twice yields the same
// result.
func Reconcile(baseline, cached, incoming []domain.Book) []domain.Book {
	merged := make([]domain.Book, 0, len(baseline)+len(cached)+len(incoming))
	index := make(map[string]int)

	upsert := func(books []domain.Book) {
		for _, b := range books {
			if i, ok := index[b.ID]; ok {
				merged[i] = b
				continue
			}
			index[b.ID] = len(merged)
			merged = append(merged, b)
		}
	}
	upsert(baseline)
	upsert(cached)
	upsert(incoming)
	return merged
}

// Reconciler owns the catalog snapshot and the layers it is merged from.
type Reconciler struct {
	mu       sync.RWMutex
	baseline []domain.Book
	cached   []domain.Book
	remote   []domain.Book
	snapshot *Snapshot

	cache  BookCache
	logger *slog.Logger
}

// NewReconciler creates a reconciler over the given cache. The cache may be
// nil, in which case no mirroring happens.
func NewReconciler(cache BookCache, logger *slog.Logger) *Reconciler {
	r := &Reconciler{cache: cache, logger: logger}
	r.snapshot = newSnapshot(0, nil)
	return r
}

// Snapshot returns the current catalog snapshot.
func (r *Reconciler) Snapshot() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// SetBaseline replaces the seed layer and remerges. Used at startup and on
// seed file reloads.
func (r *Reconciler) SetBaseline(books []domain.Book) *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.baseline = books
	return r.remerge()
}

// LoadCached pulls the cache layer in. A cache failure is logged and treated
// as an empty layer; it never blocks startup.
func (r *Reconciler) LoadCached() *Snapshot {
	var books []domain.Book
	if r.cache != nil {
		var err error
		books, err = r.cache.LoadCatalog()
		if err != nil {
			r.logger.Warn("loading cached catalog failed, starting from seed only",
				"error", err.Error())
			books = nil
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cached = books
	return r.remerge()
}

// ApplyRemote validates a full remote feed snapshot and merges it in.
// Invalid records are dropped with a log line and never enter the snapshot.
// The validated set is mirrored to the cache; a mirror failure is logged and
// swallowed.
func (r *Reconciler) ApplyRemote(records []jsontext.Value) *Snapshot {
	books := make([]domain.Book, 0, len(records))
	for _, raw := range records {
		book, err := DecodeRecord(raw)
		if err != nil {
			r.logger.Warn("dropping invalid remote book record", "error", err.Error())
			continue
		}
		books = append(books, book)
	}

	r.mu.Lock()
	r.remote = books
	snap := r.remerge()
	r.mu.Unlock()

	if r.cache != nil {
		if err := r.cache.StoreCatalog(books); err != nil {
			r.logger.Warn("mirroring catalog to cache failed", "error", err.Error())
		}
	}
	return snap
}

// remerge rebuilds the snapshot from the three layers. Callers hold r.mu.
func (r *Reconciler) remerge() *Snapshot {
	merged := Reconcile(r.baseline, r.cached, r.remote)
	r.snapshot = newSnapshot(r.snapshot.version+1, merged)
	return r.snapshot
}
