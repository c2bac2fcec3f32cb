// Package normalize strips diacritics from structured-menu text. The
// structuring model is asked to de-accent its output itself; this runs over
// the parsed document anyway so "México" can never reach the database.
package normalize

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripper = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// StripDiacritics decomposes a string to base characters plus combining marks
// and drops the marks, preserving the base letters ("México" -> "Mexico").
func StripDiacritics(s string) string {
	out, _, err := transform.String(stripper, s)
	if err != nil {
		return s
	}
	return out
}

// Deep applies StripDiacritics to every string leaf of a decoded JSON value.
// Maps keep their key sets, slices keep order and length, and non-string
// leaves (numbers, booleans, nil) are returned unchanged.
func Deep(v any) any {
	switch t := v.(type) {
	case string:
		return StripDiacritics(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Deep(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Deep(val)
		}
		return out
	default:
		return v
	}
}
