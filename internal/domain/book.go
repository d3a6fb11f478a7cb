// Package domain contains the core entities for the SesliKitap audiobook catalog.
package domain

import (
	"strings"
	"time"
)

// Category classifies a book within the catalog.
type Category string

// Known catalog categories.
const (
	CategorySciFi     Category = "sci-fi"
	CategoryFantasy   Category = "fantasy"
	CategoryHistory   Category = "history"
	CategorySelfHelp  Category = "self-help"
	CategoryClassic   Category = "classic"
	CategoryDystopian Category = "dystopian"
	CategoryReligion  Category = "religion"

	// CategoryUnknown is substituted when a remote record carries no category.
	CategoryUnknown Category = "unknown"
)

// Topic is a single chapter of a book. Its position in Book.Topics is the
// playback order.
type Topic struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Audio string `json:"audio"`
}

// ResolveAudio returns the playable source for the topic. Absolute URLs are
// used as-is, anything else is resolved against the configured base.
func (t Topic) ResolveAudio(base string) string {
	if strings.HasPrefix(t.Audio, "http://") || strings.HasPrefix(t.Audio, "https://") {
		return t.Audio
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(t.Audio, "/")
}

// Book is a catalog entry. IDs are externally assigned and unique across the
// catalog. The JSON shape matches the remote book document.
type Book struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	Narrator     string    `json:"narrator,omitempty"`
	Category     Category  `json:"category"`
	Description  string    `json:"description"`
	CoverURL     string    `json:"coverUrl"`
	Duration     string    `json:"duration"`
	Rating       float64   `json:"rating"`
	ReviewsCount int       `json:"reviewsCount"`
	Topics       []Topic   `json:"topics"`
	BuyURL       string    `json:"buyUrl,omitempty"`
	PDFURL       string    `json:"pdfUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt,omitzero"`
}

// TopicCount returns the number of topics in playback order.
func (b *Book) TopicCount() int {
	return len(b.Topics)
}

// TopicAt returns the topic at the given index, reporting whether the index
// is inside the sequence.
func (b *Book) TopicAt(index int) (Topic, bool) {
	if index < 0 || index >= len(b.Topics) {
		return Topic{}, false
	}
	return b.Topics[index], true
}

// ClampTopicIndex forces an index into the valid range for this book.
// A book with no topics always clamps to 0.
func (b *Book) ClampTopicIndex(index int) int {
	if index < 0 || len(b.Topics) == 0 {
		return 0
	}
	if index >= len(b.Topics) {
		return len(b.Topics) - 1
	}
	return index
}
