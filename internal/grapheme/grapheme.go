// Package grapheme locates grapheme cluster boundaries in rune coordinates.
package grapheme

import (
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Count returns the number of grapheme clusters in text.
func Count(text string) int {
	return uniseg.GraphemeClusterCount(text)
}

// Boundaries returns the rune offsets at which grapheme clusters start,
// followed by the total rune count.
func Boundaries(text string) []int {
	out := []int{0}
	if text == "" {
		return out
	}
	g := uniseg.NewGraphemes(text)
	pos := 0
	for g.Next() {
		pos += len(g.Runes())
		out = append(out, pos)
	}
	return out
}

// Prev returns the rune offset of the cluster boundary before offset.
// It returns 0 at the start of text.
func Prev(text string, offset int) int {
	if offset <= 0 {
		return 0
	}
	prev := 0
	for _, b := range Boundaries(text) {
		if b >= offset {
			break
		}
		prev = b
	}
	return prev
}

// Next returns the rune offset of the cluster boundary after offset.
// It returns the rune count at the end of text.
func Next(text string, offset int) int {
	bounds := Boundaries(text)
	for _, b := range bounds {
		if b > offset {
			return b
		}
	}
	return bounds[len(bounds)-1]
}

// IsSingle reports whether text is exactly one grapheme cluster.
func IsSingle(text string) bool {
	if text == "" {
		return false
	}
	if utf8.RuneCountInString(text) == 1 {
		return true
	}
	return Count(text) == 1
}
