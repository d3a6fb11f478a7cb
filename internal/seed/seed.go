// Package seed loads the baseline catalog from a JSON file and optionally
// watches it for edits. The seed is the lowest-precedence catalog layer;
// cached and remote books override it per id.
package seed

import (
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/seslikitap/seslikitap-server/internal/catalog"
	"github.com/seslikitap/seslikitap-server/internal/domain"
	apperrors "github.com/seslikitap/seslikitap-server/internal/errors"
)

// debounce coalesces the burst of events an editor save produces.
const debounce = 200 * time.Millisecond

// Load reads the seed file and decodes its records. Invalid records are
// dropped with a log line, same as remote ones; a seed file that is not a
// JSON array fails outright.
func Load(path string, logger *slog.Logger) ([]domain.Book, error) {
	raw, err := os.ReadFile(path) //#nosec G304 -- seed path comes from the operator
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeValidation, "read seed catalog")
	}

	var records []jsontext.Value
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeValidation, "seed catalog is not a JSON array")
	}

	books := make([]domain.Book, 0, len(records))
	for _, rec := range records {
		book, err := catalog.DecodeRecord(rec)
		if err != nil {
			logger.Warn("dropping invalid seed record", "error", err.Error())
			continue
		}
		books = append(books, book)
	}
	return books, nil
}

// Watcher re-loads the seed file when it changes on disk.
type Watcher struct {
	path   string
	logger *slog.Logger
}

// NewWatcher creates a watcher for the given seed file.
func NewWatcher(path string, logger *slog.Logger) *Watcher {
	return &Watcher{path: path, logger: logger}
}

// Run watches until the context is canceled, invoking fn with the freshly
// loaded baseline after each change. A change that fails to load keeps the
// previous baseline; editors mid-save produce transiently broken files.
func (w *Watcher) Run(ctx context.Context, fn func([]domain.Book)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "create seed watcher")
	}
	defer watcher.Close()

	// Watch the directory; editors replace files rather than writing in
	// place, which drops a watch on the file itself.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "watch seed directory")
	}

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}

		case <-timerC:
			books, err := Load(w.path, w.logger)
			if err != nil {
				w.logger.Warn("seed reload failed, keeping previous baseline",
					"error", err.Error())
				continue
			}
			w.logger.Info("seed catalog reloaded", "books", len(books))
			fn(books)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("seed watcher error", "error", err.Error())
		}
	}
}
