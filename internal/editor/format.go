package editor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/livemark/internal/engine/history"
	"github.com/dshills/livemark/internal/format"
)

// FormatAction is a formatting command applied to the selection.
type FormatAction uint8

const (
	FormatBold FormatAction = iota
	FormatItalic
	FormatCode
	FormatLink
	FormatHeading1
	FormatHeading2
	FormatHeading3
	FormatQuote
	FormatBulletList
	FormatNumberedList
	FormatCodeBlock
)

var formatActionNames = [...]string{
	FormatBold:         "bold",
	FormatItalic:       "italic",
	FormatCode:         "code",
	FormatLink:         "link",
	FormatHeading1:     "heading-1",
	FormatHeading2:     "heading-2",
	FormatHeading3:     "heading-3",
	FormatQuote:        "quote",
	FormatBulletList:   "bullet-list",
	FormatNumberedList: "numbered-list",
	FormatCodeBlock:    "code-block",
}

var formatActionLabels = [...]string{
	FormatBold:         "Bold",
	FormatItalic:       "Italic",
	FormatCode:         "Inline Code",
	FormatLink:         "Link",
	FormatHeading1:     "Heading 1",
	FormatHeading2:     "Heading 2",
	FormatHeading3:     "Heading 3",
	FormatQuote:        "Quote",
	FormatBulletList:   "Bullet List",
	FormatNumberedList: "Numbered List",
	FormatCodeBlock:    "Code Block",
}

func (a FormatAction) String() string {
	if int(a) < len(formatActionNames) {
		return formatActionNames[a]
	}
	return "unknown"
}

// Label returns the history label for the action.
func (a FormatAction) Label() string {
	if int(a) < len(formatActionLabels) {
		return formatActionLabels[a]
	}
	return "Format"
}

// ParseFormatAction parses a name produced by String.
func ParseFormatAction(s string) (FormatAction, bool) {
	for i, name := range formatActionNames {
		if name == s {
			return FormatAction(i), true
		}
	}
	return 0, false
}

// ErrUnknownAction is returned for an action outside the defined set.
var ErrUnknownAction = errors.New("unknown action")

// Placeholders inserted for empty links and images.
const (
	placeholderURL   = "https://"
	placeholderLink  = "link text"
	placeholderImage = "alt text"
)

// FormatSelection toggles a format over the selection. Inline formats wrap
// the selection or unwrap the span around it; block formats rewrite the
// markers of every selected line. The document renders immediately.
func (e *Editor) FormatSelection(action FormatAction) error {
	return e.update(func() error {
		var err error
		switch action {
		case FormatBold:
			err = e.toggleInlineLocked(action, format.Bold)
		case FormatItalic:
			err = e.toggleInlineLocked(action, format.Italic)
		case FormatCode:
			err = e.toggleInlineLocked(action, format.Code)
		case FormatLink:
			err = e.toggleInlineLocked(action, format.Link)
		case FormatHeading1, FormatHeading2, FormatHeading3,
			FormatQuote, FormatBulletList, FormatNumberedList:
			err = e.toggleBlockLocked(action)
		case FormatCodeBlock:
			err = e.toggleCodeBlockLocked()
		default:
			return fmt.Errorf("format %d: %w", action, ErrUnknownAction)
		}
		if err != nil {
			return err
		}
		return e.discreteEditDoneLocked()
	})
}

// discreteEditDoneLocked finishes a non-typing edit: the history entry is
// closed and the preview catches up at once.
func (e *Editor) discreteEditDoneLocked() error {
	e.history.Seal()
	e.debounce.Cancel()
	return e.renderLocked()
}

func (e *Editor) toggleInlineLocked(action FormatAction, kind format.SpanKind) error {
	sel := e.mapper.SelectionInfo()
	line := e.mapper.LineAt(sel.Start)
	colStart, colEnd := sel.Start-line.Start, sel.End-line.Start

	if colEnd <= line.End-line.Start {
		if span, ok := enclosingSpan(line.Text, kind, colStart, colEnd); ok {
			return e.unwrapSpanLocked(action, line.Start, line.Text, span, sel.Start, sel.IsEmpty())
		}
	}

	if kind == format.Link {
		return e.wrapLinkLocked(action, sel.Start, sel.Text)
	}

	m := kind.Marker()
	a := history.NewFormat(sel.Start, sel.Text, m+sel.Text+m)
	if err := e.editLocked(action.Label(), a); err != nil {
		return err
	}
	inner := sel.Start + runeLen(m)
	e.mapper.SelectRange(inner, inner+runeLen(sel.Text))
	return nil
}

// enclosingSpan finds the span of kind covering columns [start, end].
func enclosingSpan(line string, kind format.SpanKind, start, end int) (format.InlineSpan, bool) {
	anns, _ := format.Annotate([]string{line})
	if len(anns) == 0 {
		return format.InlineSpan{}, false
	}
	for _, s := range anns[0].Spans {
		if s.Kind == kind && s.Start <= start && end <= s.End {
			return s, true
		}
	}
	return format.InlineSpan{}, false
}

func (e *Editor) unwrapSpanLocked(action FormatAction, lineStart int, line string, span format.InlineSpan, cursor int, collapsed bool) error {
	inner := format.Range{Start: span.Markers[0].End, End: span.Markers[1].Start}
	whole := sliceRunes(line, span.Start, span.End)
	text := sliceRunes(line, inner.Start, inner.End)

	start := lineStart + span.Start
	if err := e.editLocked(action.Label(), history.NewFormat(start, whole, text)); err != nil {
		return err
	}
	if collapsed {
		pos := cursor - (span.Markers[0].End - span.Start)
		e.mapper.SetCursor(max(start, min(pos, start+runeLen(text))))
		return nil
	}
	e.mapper.SelectRange(start, start+runeLen(text))
	return nil
}

func (e *Editor) wrapLinkLocked(action FormatAction, pos int, text string) error {
	if text == "" {
		return e.insertLinkLocked(action.Label(), pos, "[", placeholderLink)
	}
	link := "[" + text + "](" + placeholderURL + ")"
	if err := e.editLocked(action.Label(), history.NewFormat(pos, text, link)); err != nil {
		return err
	}
	url := pos + runeLen(text) + 3
	e.mapper.SelectRange(url, url+runeLen(placeholderURL))
	return nil
}

// insertLinkLocked inserts a link or image with placeholder text and
// selects the placeholder.
func (e *Editor) insertLinkLocked(label string, pos int, open, placeholder string) error {
	text := open + placeholder + "](" + placeholderURL + ")"
	if err := e.editLocked(label, history.NewInsert(pos, text)); err != nil {
		return err
	}
	start := pos + runeLen(open)
	e.mapper.SelectRange(start, start+runeLen(placeholder))
	return nil
}

// lineRange returns the indexes of the lines touched by the selection.
func (e *Editor) lineRange() (first, last int) {
	sel := e.mapper.SelectionInfo()
	first = e.mapper.LineAt(sel.Start).Index
	last = e.mapper.LineAt(sel.End).Index
	if last > first && sel.End == e.mapper.LineAt(sel.End).Start {
		// A selection ending at a line start does not include that line.
		last--
	}
	return first, last
}

// blockMarker returns the existing heading, list or quote marker of text.
func blockMarker(text string) (format.BlockKind, string) {
	kind := format.DetectLineType(text)
	switch kind {
	case format.Heading1, format.Heading2, format.Heading3, format.ListItem, format.Quote:
		return kind, string([]rune(text)[:format.BlockMarkerLen(text, kind)])
	}
	return kind, ""
}

func isOrdered(marker string) bool {
	m := strings.TrimLeft(marker, " ")
	return m != "" && m[0] >= '0' && m[0] <= '9'
}

// hasBlockFormat reports whether a line already carries the action's marker.
func hasBlockFormat(action FormatAction, text string) bool {
	kind, marker := blockMarker(text)
	switch action {
	case FormatHeading1:
		return kind == format.Heading1
	case FormatHeading2:
		return kind == format.Heading2
	case FormatHeading3:
		return kind == format.Heading3
	case FormatQuote:
		return kind == format.Quote
	case FormatBulletList:
		return kind == format.ListItem && !isOrdered(marker)
	case FormatNumberedList:
		return kind == format.ListItem && isOrdered(marker)
	}
	return false
}

// newBlockMarker returns the marker the action puts on the n-th line.
func newBlockMarker(action FormatAction, n int) string {
	switch action {
	case FormatHeading1:
		return "# "
	case FormatHeading2:
		return "## "
	case FormatHeading3:
		return "### "
	case FormatQuote:
		return "> "
	case FormatBulletList:
		return "- "
	case FormatNumberedList:
		return fmt.Sprintf("%d. ", n+1)
	}
	return ""
}

func (e *Editor) toggleBlockLocked(action FormatAction) error {
	sel := e.mapper.SelectionInfo()
	first, last := e.lineRange()
	lines := e.mapper.Lines()
	if len(lines) == 0 {
		lines = []string{""}
	}
	region := lines[first : last+1]

	remove := true
	for _, l := range region {
		if !hasBlockFormat(action, l) {
			remove = false
			break
		}
	}

	rewritten := make([]string, len(region))
	for i, l := range region {
		_, marker := blockMarker(l)
		body := string([]rune(l)[runeLen(marker):])
		if remove {
			rewritten[i] = body
			continue
		}
		rewritten[i] = newBlockMarker(action, i) + body
	}

	start := e.mapper.LineAt(sel.Start).Start
	before := strings.Join(region, "\n")
	after := strings.Join(rewritten, "\n")
	if err := e.editLocked(action.Label(), history.NewFormat(start, before, after)); err != nil {
		return err
	}

	if first == last {
		delta := runeLen(after) - runeLen(before)
		lineEnd := start + runeLen(after)
		clamp := func(p int) int { return max(start, min(p+delta, lineEnd)) }
		e.mapper.SelectRange(clamp(sel.Start), clamp(sel.End))
		return nil
	}
	e.mapper.SelectRange(start, start+runeLen(after))
	return nil
}

// enclosingFence returns the fence lines around line idx. close is -1 for a
// fence that is never closed; ok is false outside any fence.
func enclosingFence(lines []string, idx int) (open, close int, ok bool) {
	open = -1
	for i, l := range lines {
		if !format.IsFence(l) {
			continue
		}
		if open < 0 {
			open = i
			continue
		}
		if open <= idx && idx <= i {
			return open, i, true
		}
		open = -1
	}
	if open >= 0 && open <= idx {
		return open, -1, true
	}
	return -1, -1, false
}

func (e *Editor) toggleCodeBlockLocked() error {
	const label = "Code Block"
	sel := e.mapper.SelectionInfo()
	lines := e.mapper.Lines()
	first, last := e.lineRange()

	if open, close, ok := enclosingFence(lines, first); ok {
		end := close
		if end < 0 {
			end = open
		}
		region := lines[open : end+1]
		var inner []string
		if close >= 0 {
			inner = lines[open+1 : close]
		} else {
			inner = lines[open+1 : open+1]
		}
		start := e.lineStart(open)
		before := strings.Join(region, "\n")
		after := strings.Join(inner, "\n")
		if close < 0 {
			// Only the opening fence goes, together with its separator.
			if open+1 < len(lines) {
				before += "\n"
			}
			after = ""
		}
		if err := e.editLocked(label, history.NewFormat(start, before, after)); err != nil {
			return err
		}
		shift := runeLen(lines[open]) + 1
		limit := start + runeLen(after)
		clamp := func(p int) int { return max(start, min(p-shift, limit)) }
		if close < 0 {
			limit = e.mapper.Len()
		}
		e.mapper.SelectRange(clamp(sel.Start), clamp(sel.End))
		return nil
	}

	region := strings.Join(lines[first:last+1], "\n")
	start := e.lineStart(first)
	fenced := format.FenceMarker + "\n" + region + "\n" + format.FenceMarker
	if err := e.editLocked(label, history.NewFormat(start, region, fenced)); err != nil {
		return err
	}
	inner := start + runeLen(format.FenceMarker) + 1
	if first == last {
		off := inner - start
		e.mapper.SelectRange(sel.Start+off, sel.End+off)
		return nil
	}
	e.mapper.SelectRange(inner, inner+runeLen(region))
	return nil
}

// lineStart returns the content offset of line idx.
func (e *Editor) lineStart(idx int) int {
	off := 0
	for i, l := range e.mapper.Lines() {
		if i == idx {
			return off
		}
		off += runeLen(l) + 1
	}
	return off
}

// InsertAction is a content block inserted at a position.
type InsertAction uint8

const (
	InsertHorizontalRule InsertAction = iota
	InsertLink
	InsertImage
	InsertCodeFence
)

var insertActionNames = [...]string{
	InsertHorizontalRule: "horizontal-rule",
	InsertLink:           "link",
	InsertImage:          "image",
	InsertCodeFence:      "code-fence",
}

func (a InsertAction) String() string {
	if int(a) < len(insertActionNames) {
		return insertActionNames[a]
	}
	return "unknown"
}

// ParseInsertAction parses a name produced by String.
func ParseInsertAction(s string) (InsertAction, bool) {
	for i, name := range insertActionNames {
		if name == s {
			return InsertAction(i), true
		}
	}
	return 0, false
}

// InsertContent inserts content at the cursor, replacing any selection.
func (e *Editor) InsertContent(action InsertAction) error {
	return e.update(func() error {
		sel := e.mapper.SelectionInfo()
		_, err := e.history.Group(labelEdit, func() error {
			if !sel.IsEmpty() {
				if err := e.editLocked(labelEdit, history.NewDelete(sel.Start, sel.Text)); err != nil {
					return err
				}
			}
			return e.insertContentLocked(action, sel.Start)
		})
		if err != nil {
			return err
		}
		return e.discreteEditDoneLocked()
	})
}

// InsertContentAt inserts content at pos.
func (e *Editor) InsertContentAt(action InsertAction, pos int) error {
	return e.update(func() error {
		pos = max(0, min(pos, e.mapper.Len()))
		if err := e.insertContentLocked(action, pos); err != nil {
			return err
		}
		return e.discreteEditDoneLocked()
	})
}

func (e *Editor) insertContentLocked(action InsertAction, pos int) error {
	line := e.mapper.LineAt(pos)
	prefix := ""
	if pos > line.Start {
		prefix = "\n"
	}

	switch action {
	case InsertHorizontalRule:
		text := prefix + "---\n"
		return e.editLocked("Horizontal Rule", history.NewInsert(pos, text))
	case InsertLink:
		return e.insertLinkLocked("Link", pos, "[", placeholderLink)
	case InsertImage:
		return e.insertLinkLocked("Image", pos, "![", placeholderImage)
	case InsertCodeFence:
		text := prefix + format.FenceMarker + "\n\n" + format.FenceMarker
		if err := e.editLocked("Code Block", history.NewInsert(pos, text)); err != nil {
			return err
		}
		e.mapper.SetCursor(pos + runeLen(prefix+format.FenceMarker) + 1)
		return nil
	}
	return fmt.Errorf("insert %d: %w", action, ErrUnknownAction)
}
