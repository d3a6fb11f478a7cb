package cache

import (
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seslikitap/seslikitap-server/internal/domain"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(t.TempDir(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestLoadCatalog_EmptyCacheIsAMiss(t *testing.T) {
	c := newTestCache(t)

	books, err := c.LoadCatalog()
	require.NoError(t, err)
	assert.Nil(t, books)
}

func TestStoreAndLoadCatalog(t *testing.T) {
	c := newTestCache(t)

	in := []domain.Book{
		{ID: "bk-1", Title: "Nutuk", Author: "M. Kemal", Topics: []domain.Topic{
			{ID: "tp-1", Title: "Bölüm 1", Audio: "nutuk/01.mp3"},
		}},
		{ID: "bk-2", Title: "Safahat", Author: "M. Akif", Topics: []domain.Topic{}},
	}
	require.NoError(t, c.StoreCatalog(in))

	got, err := c.LoadCatalog()
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestStoreCatalog_Overwrites(t *testing.T) {
	c := newTestCache(t)

	require.NoError(t, c.StoreCatalog([]domain.Book{{ID: "bk-1", Title: "First"}}))
	require.NoError(t, c.StoreCatalog([]domain.Book{{ID: "bk-2", Title: "Second"}}))

	got, err := c.LoadCatalog()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "bk-2", got[0].ID)
}

func TestLoadCatalog_CorruptBlobIsAMiss(t *testing.T) {
	c := newTestCache(t)

	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(catalogKey), []byte("{not json"))
	})
	require.NoError(t, err)

	books, err := c.LoadCatalog()
	require.NoError(t, err)
	assert.Nil(t, books)
}
