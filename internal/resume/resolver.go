// Package resume decides where playback starts when a book is opened.
package resume

import "github.com/seslikitap/seslikitap-server/internal/domain"

// ProgressReader is the slice of the progress store the resolver needs.
type ProgressReader interface {
	Get(bookID string) (domain.ProgressRecord, bool)
}

// Resolver picks the starting topic and percent for a book.
type Resolver struct {
	progress ProgressReader
}

// NewResolver creates a resolver over the given progress reader.
func NewResolver(progress ProgressReader) *Resolver {
	return &Resolver{progress: progress}
}

// Resolve returns the topic index and start percent for a book.
//
// An explicit topic choice always wins and starts that topic from the
// beginning, even when stored progress exists. Without an explicit choice
// the stored record is used, and with neither the book starts at topic 0.
func (r *Resolver) Resolve(bookID string, explicit *int) (topicIndex int, percent float64) {
	if explicit != nil {
		return *explicit, 0
	}
	if rec, ok := r.progress.Get(bookID); ok {
		return rec.TopicIndex, rec.Percent
	}
	return 0, 0
}
