package domain

import "time"

// ProgressRecord is the resume state for one (user, book) pair: which topic
// the user was on and how far into it they were. Percent is 0-100 within the
// topic, not across the whole book.
type ProgressRecord struct {
	TopicIndex int     `json:"topicIndex"`
	Percent    float64 `json:"percent"`
}

// UserDocument mirrors the per-user remote document. The remote store is the
// source of truth across sessions; the engine only caches it while a user is
// bound.
type UserDocument struct {
	Username      string                    `json:"username"`
	Favorites     []string                  `json:"favorites"`
	Progress      map[string]ProgressRecord `json:"progress"`
	PlaybackSpeed float64                   `json:"playbackSpeed"`
	CreatedAt     time.Time                 `json:"createdAt,omitzero"`
}

// NewUserDocument creates an empty document for a fresh user.
func NewUserDocument(username string) *UserDocument {
	return &UserDocument{
		Username:      username,
		Favorites:     []string{},
		Progress:      map[string]ProgressRecord{},
		PlaybackSpeed: 1,
		CreatedAt:     time.Now(),
	}
}

// Normalize repairs fields a partially-written remote document may be missing
// so callers never see nil maps or a zero playback speed.
func (d *UserDocument) Normalize() {
	if d.Favorites == nil {
		d.Favorites = []string{}
	}
	if d.Progress == nil {
		d.Progress = map[string]ProgressRecord{}
	}
	if d.PlaybackSpeed <= 0 {
		d.PlaybackSpeed = 1
	}
}
