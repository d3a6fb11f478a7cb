package resume

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seslikitap/seslikitap-server/internal/domain"
)

type mapReader map[string]domain.ProgressRecord

func (m mapReader) Get(bookID string) (domain.ProgressRecord, bool) {
	rec, ok := m[bookID]
	return rec, ok
}

func TestResolve_ExplicitIndexWinsOverStoredProgress(t *testing.T) {
	r := NewResolver(mapReader{
		"bk-1": {TopicIndex: 5, Percent: 62},
	})

	explicit := 2
	idx, pct := r.Resolve("bk-1", &explicit)
	assert.Equal(t, 2, idx)
	assert.Zero(t, pct)
}

func TestResolve_StoredProgress(t *testing.T) {
	r := NewResolver(mapReader{
		"bk-1": {TopicIndex: 3, Percent: 41.5},
	})

	idx, pct := r.Resolve("bk-1", nil)
	assert.Equal(t, 3, idx)
	assert.Equal(t, 41.5, pct)
}

func TestResolve_NoProgressStartsAtZero(t *testing.T) {
	r := NewResolver(mapReader{})

	idx, pct := r.Resolve("bk-unknown", nil)
	assert.Zero(t, idx)
	assert.Zero(t, pct)
}

func TestResolve_ExplicitZeroRestartsBook(t *testing.T) {
	r := NewResolver(mapReader{
		"bk-1": {TopicIndex: 7, Percent: 90},
	})

	explicit := 0
	idx, pct := r.Resolve("bk-1", &explicit)
	assert.Zero(t, idx)
	assert.Zero(t, pct)
}
