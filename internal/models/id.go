package models

import (
	"math/rand"
	"regexp"
)

const (
	idPrefix   = "shop_"
	idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	idLength   = 10
)

var idPattern = regexp.MustCompile(`^shop_[a-z0-9]{10}$`)

// IDGenerator produces opaque shop identifiers.
type IDGenerator func() string

// NewIDGenerator returns a generator backed by the given source, so tests
// can seed it for deterministic output.
func NewIDGenerator(src rand.Source) IDGenerator {
	r := rand.New(src)

	return func() string {
		b := make([]byte, idLength)
		for i := range b {
			b[i] = idAlphabet[r.Intn(len(idAlphabet))]
		}

		return idPrefix + string(b)
	}
}

// ValidID reports whether id matches the auto-generated format.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}
