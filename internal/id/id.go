// Package id generates prefixed NanoID identifiers.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	size     = 12
)

// Prefixes for the entity kinds that need generated ids.
const (
	PrefixBook   = "bk"
	PrefixTopic  = "tp"
	PrefixEvent  = "evt"
	PrefixClient = "cli"
)

// Generate returns a new id of the form "<prefix>-<nanoid>".
func Generate(prefix string) (string, error) {
	raw, err := gonanoid.Generate(alphabet, size)
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return prefix + "-" + raw, nil
}

// MustGenerate is Generate for contexts where id generation cannot
// reasonably fail (entropy exhaustion panics).
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(err)
	}
	return id
}
