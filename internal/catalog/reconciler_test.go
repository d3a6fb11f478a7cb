package catalog

import (
	"encoding/json/jsontext"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seslikitap/seslikitap-server/internal/domain"
)

func book(id, title string) domain.Book {
	return domain.Book{ID: id, Title: title, Topics: []domain.Topic{}}
}

func TestReconcile_Precedence(t *testing.T) {
	baseline := []domain.Book{book("bk-1", "seed one"), book("bk-2", "seed two")}
	cached := []domain.Book{book("bk-2", "cached two"), book("bk-3", "cached three")}
	incoming := []domain.Book{book("bk-3", "remote three"), book("bk-4", "remote four")}

	got := Reconcile(baseline, cached, incoming)
	require.Len(t, got, 4)

	byID := map[string]string{}
	for _, b := range got {
		byID[b.ID] = b.Title
	}
	assert.Equal(t, "seed one", byID["bk-1"])
	assert.Equal(t, "cached two", byID["bk-2"])
	assert.Equal(t, "remote three", byID["bk-3"])
	assert.Equal(t, "remote four", byID["bk-4"])
}

func TestReconcile_Idempotent(t *testing.T) {
	baseline := []domain.Book{book("bk-1", "seed")}
	cached := []domain.Book{book("bk-2", "cached")}
	incoming := []domain.Book{book("bk-1", "remote"), book("bk-3", "new")}

	first := Reconcile(baseline, cached, incoming)
	second := Reconcile(baseline, cached, incoming)
	assert.Equal(t, first, second)

	// Merging the merged result with the same incoming layer changes nothing.
	third := Reconcile(first, nil, incoming)
	assert.Equal(t, first, third)
}

func TestReconcile_EmptyLayers(t *testing.T) {
	assert.Empty(t, Reconcile(nil, nil, nil))

	only := []domain.Book{book("bk-1", "seed")}
	assert.Equal(t, only, Reconcile(only, nil, nil))
	assert.Equal(t, only, Reconcile(nil, nil, only))
}

// fakeCache records mirror writes and can fail on demand.
type fakeCache struct {
	stored   [][]domain.Book
	loadErr  error
	storeErr error
	books    []domain.Book
}

func (f *fakeCache) LoadCatalog() ([]domain.Book, error) {
	return f.books, f.loadErr
}

func (f *fakeCache) StoreCatalog(books []domain.Book) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	f.stored = append(f.stored, books)
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestReconciler_VersionMonotonic(t *testing.T) {
	r := NewReconciler(nil, discard())

	v0 := r.Snapshot().Version()
	s1 := r.SetBaseline([]domain.Book{book("bk-1", "seed")})
	s2 := r.ApplyRemote(nil)

	assert.Greater(t, s1.Version(), v0)
	assert.Greater(t, s2.Version(), s1.Version())
}

func TestReconciler_ApplyRemoteDropsInvalidRecords(t *testing.T) {
	r := NewReconciler(nil, discard())

	snap := r.ApplyRemote([]jsontext.Value{
		jsontext.Value(`{"id": "bk-1", "title": "Good"}`),
		jsontext.Value(`{"title": "no id"}`),
		jsontext.Value(`{"id": "bk-2", "title": "Bad topics", "topics": 7}`),
		jsontext.Value(`{"id": "bk-3", "title": "Also good", "topics": []}`),
	})

	require.Equal(t, 2, snap.Len())
	_, ok := snap.Get("bk-1")
	assert.True(t, ok)
	_, ok = snap.Get("bk-3")
	assert.True(t, ok)
	_, ok = snap.Get("bk-2")
	assert.False(t, ok)
}

func TestReconciler_ApplyRemoteMirrorsToCache(t *testing.T) {
	fc := &fakeCache{}
	r := NewReconciler(fc, discard())

	r.ApplyRemote([]jsontext.Value{
		jsontext.Value(`{"id": "bk-1", "title": "Good"}`),
		jsontext.Value(`{"broken`),
	})

	require.Len(t, fc.stored, 1)
	require.Len(t, fc.stored[0], 1)
	assert.Equal(t, "bk-1", fc.stored[0][0].ID)
}

func TestReconciler_CacheFailuresAreSwallowed(t *testing.T) {
	fc := &fakeCache{loadErr: fmt.Errorf("disk gone"), storeErr: fmt.Errorf("disk gone")}
	r := NewReconciler(fc, discard())
	r.SetBaseline([]domain.Book{book("bk-1", "seed")})

	snap := r.LoadCached()
	assert.Equal(t, 1, snap.Len())

	snap = r.ApplyRemote([]jsontext.Value{jsontext.Value(`{"id": "bk-2", "title": "Remote"}`)})
	assert.Equal(t, 2, snap.Len())
}

func TestReconciler_LayersSurviveRemerge(t *testing.T) {
	fc := &fakeCache{books: []domain.Book{book("bk-2", "cached")}}
	r := NewReconciler(fc, discard())

	r.SetBaseline([]domain.Book{book("bk-1", "seed")})
	r.LoadCached()
	snap := r.ApplyRemote([]jsontext.Value{jsontext.Value(`{"id": "bk-1", "title": "Remote"}`)})

	require.Equal(t, 2, snap.Len())
	got, ok := snap.Get("bk-1")
	require.True(t, ok)
	assert.Equal(t, "Remote", got.Title)
	_, ok = snap.Get("bk-2")
	assert.True(t, ok)

	// A later seed reload keeps the remote overlay winning.
	snap = r.SetBaseline([]domain.Book{book("bk-1", "seed v2")})
	got, _ = snap.Get("bk-1")
	assert.Equal(t, "Remote", got.Title)
}

func TestSnapshot_BooksIsACopy(t *testing.T) {
	r := NewReconciler(nil, discard())
	snap := r.SetBaseline([]domain.Book{book("bk-1", "seed")})

	books := snap.Books()
	books[0].Title = "mutated"

	got, _ := snap.Get("bk-1")
	assert.Equal(t, "seed", got.Title)
}
