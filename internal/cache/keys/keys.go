// Package keys builds cache keys for geocoding results.
package keys

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

const geocodeVersion = "v1"

// Geocode returns the cache key for address looked up within countries.
// Addresses differing only in case, punctuation spacing or whitespace share a key.
func Geocode(countries, address string) string {
	norm := NormalizeAddress(address)
	scope := sanitizeForKey(strings.ToLower(strings.ReplaceAll(countries, " ", "")))

	safe := sanitizeForKey(norm)
	const maxAddrTextLen = 96
	if len(safe) > maxAddrTextLen {
		safe = safe[:maxAddrTextLen]
	}

	sum := xxhash.Sum64String(scope + "|" + norm)
	return fmt.Sprintf("geocode:%s:%s:%s:h=%016x", geocodeVersion, scope, safe, sum)
}

// NormalizeAddress lowercases, trims and collapses whitespace, and drops
// spaces before commas.
func NormalizeAddress(s string) string {
	s = collapseWhitespace(strings.ToLower(strings.TrimSpace(s)))
	return strings.ReplaceAll(s, " ,", ",")
}

func sanitizeForKey(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		var out rune
		switch {
		case unicode.IsSpace(r):
			out = '_'
		case isAlphaNum(r) || r == '_' || r == '-' || r == ',':
			out = r
		default:
			// any other rune (including non-ASCII) becomes '-'
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

// converts any run of whitespace to a single space.
func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	wasWS := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !wasWS {
				b.WriteByte(' ')
				wasWS = true
			}
			continue
		}
		b.WriteRune(r)
		wasWS = false
	}
	return strings.TrimSpace(b.String())
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
