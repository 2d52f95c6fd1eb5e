// Package utils provides common string helpers used across the pipeline.
package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeWhitespace trims the string and collapses runs of whitespace
// into single spaces.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Slugify converts a string into a URL-safe identifier: ASCII-folded,
// lowercase, with non-alphanumeric runs collapsed into single hyphens.
// Identical inputs always yield identical slugs.
func Slugify(s string) string {
	folded := asciiFold(s)

	var b strings.Builder

	pendingHyphen := false

	for _, r := range strings.ToLower(folded) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingHyphen = b.Len() > 0

			continue
		}

		if pendingHyphen {
			b.WriteByte('-')

			pendingHyphen = false
		}

		b.WriteRune(r)
	}

	return b.String()
}

// asciiFold strips combining marks so accented characters reduce to their
// base ASCII form (e.g. "é" -> "e").
func asciiFold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}

	return folded
}
