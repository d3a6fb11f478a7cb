// Package cache is the local durable catalog cache. It keeps the last
// validated catalog on disk so the engine can present books before the first
// remote snapshot arrives, and so a remote outage degrades to stale data
// instead of an empty shelf.
package cache

import (
	"encoding/json/v2"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/seslikitap/seslikitap-server/internal/domain"
	apperrors "github.com/seslikitap/seslikitap-server/internal/errors"
)

// catalogKey is versioned so a shape change invalidates old blobs instead of
// failing to decode them.
const catalogKey = "catalog:v1"

// Cache wraps a Badger database holding the serialized catalog.
type Cache struct {
	db     *badger.DB
	logger *slog.Logger
}

// New opens the cache database at path.
func New(path string, logger *slog.Logger) (*Cache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Badger's own logging is too chatty
	opts.SyncWrites = true
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCache, "open cache database")
	}

	logger.Info("catalog cache opened", "path", path)
	return &Cache{db: db, logger: logger}, nil
}

// LoadCatalog returns the cached catalog, or (nil, nil) when nothing has been
// cached yet. A corrupt blob is treated as a miss so one bad write never
// wedges startup.
func (c *Cache) LoadCatalog() ([]domain.Book, error) {
	var raw []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(catalogKey))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if apperrors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, apperrors.CodeCache, "read cached catalog")
	}

	var books []domain.Book
	if err := json.Unmarshal(raw, &books); err != nil {
		c.logger.Warn("cached catalog blob is corrupt, treating as empty",
			"error", err.Error())
		return nil, nil
	}
	return books, nil
}

// StoreCatalog overwrites the cached catalog with the given books.
func (c *Cache) StoreCatalog(books []domain.Book) error {
	raw, err := json.Marshal(books)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeCache, "encode catalog")
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(catalogKey), raw)
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeCache, "write cached catalog")
	}
	return nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
