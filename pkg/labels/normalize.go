// Package labels provides canonicalization for free-text category labels.
//
// Category names arrive from four language-specific catalogs with
// inconsistent spacing, width, and invisible characters. Every matching
// step in the engine compares labels through Normalize; display always
// uses the raw label.
package labels

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes a label for comparison: Unicode NFC composition,
// removal of format/invisible characters and all whitespace, then
// lowercasing. Idempotent, so normalized values may themselves be used as
// cache and index keys.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	composed := norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(composed))
	for _, r := range composed {
		if unicode.IsSpace(r) || isInvisible(r) {
			continue
		}
		b.WriteRune(r)
	}

	return strings.ToLower(b.String())
}

// isInvisible reports whether r carries no glyph and must never affect
// label identity. Covers the zero-width family, BOM, soft hyphen, and the
// rest of Unicode's format category.
func isInvisible(r rune) bool {
	switch r {
	case '\u00ad', '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff':
		return true
	}
	return unicode.Is(unicode.Cf, r)
}
