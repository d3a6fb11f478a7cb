package catalog

import (
	"encoding/json/jsontext"
	"encoding/json/v2"
	"strings"
	"time"

	"github.com/seslikitap/seslikitap-server/internal/domain"
	apperrors "github.com/seslikitap/seslikitap-server/internal/errors"
)

// Defaults substituted for optional fields missing from a remote record.
const (
	DefaultAuthor   = "Unknown Author"
	DefaultCoverURL = "https://via.placeholder.com/300x450"
)

// rawRecord defers topics decoding so a malformed topics payload can be
// inspected before it poisons the whole record.
type rawRecord struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Author       string          `json:"author"`
	Narrator     string          `json:"narrator"`
	Category     string          `json:"category"`
	Description  string          `json:"description"`
	CoverURL     string          `json:"coverUrl"`
	Duration     string          `json:"duration"`
	Rating       float64         `json:"rating"`
	ReviewsCount int             `json:"reviewsCount"`
	Topics       jsontext.Value `json:"topics"`
	BuyURL       string          `json:"buyUrl"`
	PDFURL       string          `json:"pdfUrl"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// DecodeRecord turns one remote book record into a domain.Book.
//
// A record with a missing or empty id or title is rejected, as is one whose
// topics field is present but not a JSON array. Optional fields get defaults
// so a half-filled record still renders. Topics that are an array but whose
// elements do not decode collapse to an empty sequence rather than failing
// the record.
func DecodeRecord(raw jsontext.Value) (domain.Book, error) {
	var rec rawRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.Book{}, apperrors.Wrap(err, apperrors.CodeValidation, "malformed book record")
	}

	if strings.TrimSpace(rec.ID) == "" {
		return domain.Book{}, apperrors.Validation("book record has no id")
	}
	if strings.TrimSpace(rec.Title) == "" {
		return domain.Book{}, apperrors.Validationf("book record %s has no title", rec.ID)
	}

	topics, err := decodeTopics(rec.Topics)
	if err != nil {
		return domain.Book{}, apperrors.Validationf("book record %s: %v", rec.ID, err)
	}

	book := domain.Book{
		ID:           rec.ID,
		Title:        rec.Title,
		Author:       rec.Author,
		Narrator:     rec.Narrator,
		Category:     domain.Category(rec.Category),
		Description:  rec.Description,
		CoverURL:     rec.CoverURL,
		Duration:     rec.Duration,
		Rating:       rec.Rating,
		ReviewsCount: rec.ReviewsCount,
		Topics:       topics,
		BuyURL:       rec.BuyURL,
		PDFURL:       rec.PDFURL,
		CreatedAt:    rec.CreatedAt,
	}

	if book.Author == "" {
		book.Author = DefaultAuthor
	}
	if book.Category == "" {
		book.Category = domain.CategoryUnknown
	}
	if book.CoverURL == "" {
		book.CoverURL = DefaultCoverURL
	}
	if book.Rating < 0 {
		book.Rating = 0
	}
	if book.ReviewsCount < 0 {
		book.ReviewsCount = 0
	}
	return book, nil
}

// decodeTopics enforces the array shape. Absent or null topics become an
// empty sequence; a present non-array value rejects the record.
func decodeTopics(raw jsontext.Value) ([]domain.Topic, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return []domain.Topic{}, nil
	}
	if !strings.HasPrefix(trimmed, "[") {
		return nil, apperrors.Validation("topics is not an array")
	}
	var topics []domain.Topic
	if err := json.Unmarshal(raw, &topics); err != nil {
		// Array shape is right but the elements are not; keep the book
		// with no playable topics rather than dropping it.
		return []domain.Topic{}, nil
	}
	if topics == nil {
		topics = []domain.Topic{}
	}
	return topics, nil
}
