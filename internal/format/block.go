// Package format classifies Markdown lines and inline spans.
//
// Every function in this package is pure and deterministic. The detector is
// deliberately small: it recognizes the block kinds and inline spans the live
// preview decorates and nothing else. Headings deeper than level 3 fall
// through to paragraphs so the outline stays two levels deep.
package format

import "strings"

// BlockKind is the line-level classification of a block.
type BlockKind uint8

const (
	// Paragraph is any line that matches no other kind.
	Paragraph BlockKind = iota

	// Heading1 is a "# " line.
	Heading1

	// Heading2 is a "## " line.
	Heading2

	// Heading3 is a "### " line.
	Heading3

	// ListItem is a bullet ("- ", "* ", "+ ") or ordered ("1. ", "1) ") item.
	ListItem

	// Quote is a "> " line.
	Quote

	// CodeBlock is a fence line or any line inside a fence.
	CodeBlock
)

var blockKindNames = [...]string{
	Paragraph: "paragraph",
	Heading1:  "heading-1",
	Heading2:  "heading-2",
	Heading3:  "heading-3",
	ListItem:  "list-item",
	Quote:     "quote",
	CodeBlock: "code-block",
}

// String returns the kind's tag, e.g. "heading-2".
func (k BlockKind) String() string {
	if int(k) < len(blockKindNames) {
		return blockKindNames[k]
	}
	return "unknown"
}

// IsHeading returns true for heading kinds.
func (k BlockKind) IsHeading() bool {
	return k == Heading1 || k == Heading2 || k == Heading3
}

// HeadingLevel returns 1-3 for headings and 0 otherwise.
func (k BlockKind) HeadingLevel() int {
	switch k {
	case Heading1:
		return 1
	case Heading2:
		return 2
	case Heading3:
		return 3
	}
	return 0
}

// ParseBlockKind parses a tag produced by String.
func ParseBlockKind(s string) (BlockKind, bool) {
	for i, name := range blockKindNames {
		if name == s {
			return BlockKind(i), true
		}
	}
	return Paragraph, false
}

// FenceMarker opens and closes a code block.
const FenceMarker = "```"

// headingPrefixes is ordered longest first so "## x" is never read as level 1.
var headingPrefixes = []struct {
	prefix string
	kind   BlockKind
}{
	{"###", Heading3},
	{"##", Heading2},
	{"#", Heading1},
}

// IsFence reports whether the line opens or closes a code fence.
func IsFence(text string) bool {
	return strings.HasPrefix(strings.TrimLeft(text, " "), FenceMarker)
}

// DetectLineType classifies a single line without fence context.
// Use Annotate to classify lines that may sit inside a fence.
func DetectLineType(text string) BlockKind {
	if IsFence(text) {
		return CodeBlock
	}
	if k, _ := heading(text); k != Paragraph {
		return k
	}
	if listMarkerLen(text) > 0 {
		return ListItem
	}
	if quoteMarkerLen(text) > 0 {
		return Quote
	}
	return Paragraph
}

// BlockMarkerLen returns the rune length of the leading syntax token of a
// line of the given kind, e.g. 3 for "## Title". Code blocks report the fence
// marker only on fence lines.
func BlockMarkerLen(text string, kind BlockKind) int {
	switch kind {
	case Heading1, Heading2, Heading3:
		_, n := heading(text)
		return n
	case ListItem:
		return listMarkerLen(text)
	case Quote:
		return quoteMarkerLen(text)
	case CodeBlock:
		if IsFence(text) {
			return len(text) - len(strings.TrimLeft(text, " ")) + len(FenceMarker)
		}
	}
	return 0
}

// heading returns the heading kind and the length of "#.. " including the
// separating space. Up to three leading spaces are allowed.
func heading(text string) (BlockKind, int) {
	indent := leadingSpaces(text)
	if indent > 3 {
		return Paragraph, 0
	}
	rest := text[indent:]
	for _, h := range headingPrefixes {
		if !strings.HasPrefix(rest, h.prefix) {
			continue
		}
		after := rest[len(h.prefix):]
		switch {
		case after == "":
			return h.kind, indent + len(h.prefix)
		case after[0] == ' ' || after[0] == '\t':
			return h.kind, indent + len(h.prefix) + 1
		}
		// "####" or "#word": not a level 1-3 heading.
		return Paragraph, 0
	}
	return Paragraph, 0
}

// listMarkerLen returns the length of an indented list marker and its
// trailing space, or 0.
func listMarkerLen(text string) int {
	indent := leadingSpaces(text)
	rest := text[indent:]
	if len(rest) >= 2 && strings.ContainsRune("-*+", rune(rest[0])) && rest[1] == ' ' {
		return indent + 2
	}
	digits := 0
	for digits < len(rest) && digits < 9 && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}
	if digits == 0 || digits+1 >= len(rest) {
		return 0
	}
	if (rest[digits] == '.' || rest[digits] == ')') && rest[digits+1] == ' ' {
		return indent + digits + 2
	}
	return 0
}

// quoteMarkerLen returns the length of "> " (or a bare ">"), or 0.
func quoteMarkerLen(text string) int {
	indent := leadingSpaces(text)
	if indent > 3 || indent >= len(text) || text[indent] != '>' {
		return 0
	}
	if indent+1 < len(text) && text[indent+1] == ' ' {
		return indent + 2
	}
	return indent + 1
}

func leadingSpaces(text string) int {
	n := 0
	for n < len(text) && text[n] == ' ' {
		n++
	}
	return n
}
