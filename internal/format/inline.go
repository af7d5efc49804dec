package format

// SpanKind is the classification of an inline span.
type SpanKind uint8

const (
	// Bold is "**text**".
	Bold SpanKind = iota

	// Italic is "*text*".
	Italic

	// Code is "`text`".
	Code

	// Link is "[text](url)".
	Link
)

var spanKindNames = [...]string{
	Bold:   "bold",
	Italic: "italic",
	Code:   "code",
	Link:   "link",
}

// String returns the kind's tag, e.g. "bold".
func (k SpanKind) String() string {
	if int(k) < len(spanKindNames) {
		return spanKindNames[k]
	}
	return "unknown"
}

// Marker returns the opening marker used to author a span of this kind.
func (k SpanKind) Marker() string {
	switch k {
	case Bold:
		return "**"
	case Italic:
		return "*"
	case Code:
		return "`"
	}
	return ""
}

// Range is a half-open rune range within a line.
type Range struct {
	Start int
	End   int
}

// Len returns the number of runes in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Contains reports whether offset lies within [Start, End].
func (r Range) Contains(offset int) bool {
	return r.Start <= offset && offset <= r.End
}

// InlineSpan is a formatted span in line coordinates.
type InlineSpan struct {
	Kind  SpanKind
	Start int // first rune of the opening marker
	End   int // one past the last rune of the closing marker

	// Markers are the syntax ranges inside [Start, End), in order.
	Markers []Range
}

// Inner returns the range between the first and last marker.
func (s InlineSpan) Inner() Range {
	if len(s.Markers) < 2 {
		return Range{Start: s.Start, End: s.End}
	}
	return Range{Start: s.Markers[0].End, End: s.Markers[len(s.Markers)-1].Start}
}

// IsMarker reports whether the rune at offset belongs to a marker.
func (s InlineSpan) IsMarker(offset int) bool {
	for _, m := range s.Markers {
		if m.Start <= offset && offset < m.End {
			return true
		}
	}
	return false
}

// MarkInlineFormats finds bold, italic, code and link spans in a line.
// Matches are leftmost and non-overlapping. An opening marker without a
// closing partner is plain text.
func MarkInlineFormats(line string) []InlineSpan {
	r := []rune(line)
	var spans []InlineSpan

	for i := 0; i < len(r); {
		var (
			span InlineSpan
			ok   bool
			skip = 1
		)
		switch r[i] {
		case '`':
			span, ok = matchCode(r, i)
		case '*':
			if i+1 < len(r) && r[i+1] == '*' {
				span, ok = matchBold(r, i)
				skip = 2 // an unterminated "**" never opens an italic
			} else {
				span, ok = matchItalic(r, i)
			}
		case '[':
			span, ok = matchLink(r, i)
		}
		if ok {
			spans = append(spans, span)
			i = span.End
			continue
		}
		i += skip
	}
	return spans
}

// SpanAt returns the span of line containing offset (boundaries included).
func SpanAt(line string, offset int) (InlineSpan, bool) {
	for _, s := range MarkInlineFormats(line) {
		if s.Start <= offset && offset <= s.End {
			return s, true
		}
	}
	return InlineSpan{}, false
}

func matchCode(r []rune, i int) (InlineSpan, bool) {
	for j := i + 2; j < len(r); j++ {
		if r[j] == '`' {
			return InlineSpan{
				Kind:    Code,
				Start:   i,
				End:     j + 1,
				Markers: []Range{{i, i + 1}, {j, j + 1}},
			}, true
		}
	}
	return InlineSpan{}, false
}

func matchBold(r []rune, i int) (InlineSpan, bool) {
	open := i + 2
	if open >= len(r) || r[open] == ' ' {
		return InlineSpan{}, false
	}
	for j := open + 1; j+1 < len(r); j++ {
		if r[j] == '*' && r[j+1] == '*' && r[j-1] != ' ' {
			return InlineSpan{
				Kind:    Bold,
				Start:   i,
				End:     j + 2,
				Markers: []Range{{i, open}, {j, j + 2}},
			}, true
		}
	}
	return InlineSpan{}, false
}

func matchItalic(r []rune, i int) (InlineSpan, bool) {
	open := i + 1
	if open >= len(r) || r[open] == ' ' {
		return InlineSpan{}, false
	}
	for j := open + 1; j < len(r); j++ {
		if r[j] != '*' {
			continue
		}
		if j+1 < len(r) && r[j+1] == '*' {
			// Part of a "**" pair; step over it.
			j++
			continue
		}
		if r[j-1] == ' ' {
			continue
		}
		return InlineSpan{
			Kind:    Italic,
			Start:   i,
			End:     j + 1,
			Markers: []Range{{i, open}, {j, j + 1}},
		}, true
	}
	return InlineSpan{}, false
}

func matchLink(r []rune, i int) (InlineSpan, bool) {
	mid := -1
	for j := i + 1; j+1 < len(r); j++ {
		if r[j] == ']' {
			if r[j+1] == '(' {
				mid = j
			}
			break
		}
	}
	if mid < 0 {
		return InlineSpan{}, false
	}
	for k := mid + 2; k < len(r); k++ {
		if r[k] == ')' {
			return InlineSpan{
				Kind:    Link,
				Start:   i,
				End:     k + 1,
				Markers: []Range{{i, i + 1}, {mid, mid + 2}, {k, k + 1}},
			}, true
		}
	}
	return InlineSpan{}, false
}
