package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	got, err := Generate(PrefixEvent)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "evt-"))
	assert.Len(t, got, len(PrefixEvent)+1+12)
}

func TestGenerateUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := MustGenerate(PrefixBook)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
