// Package mapper translates between content offsets and positions in the
// live tree.
//
// The Mapper is the only component that reasons about where text sits in the
// tree. The renderer, the history and the editor all speak in content
// offsets (runes, with one separator rune between blocks) and route every
// translation through it.
//
// Failure policy: mapping never returns an error. Offsets are clamped to the
// document and stale tree positions resolve to the nearest valid boundary.
package mapper

import (
	"strings"
	"unicode/utf8"

	"github.com/dshills/livemark/internal/engine/tree"
)

// Surface is a tree surface the mapper can both read and rewrite.
type Surface interface {
	tree.Surface
	tree.Mutator
}

// SelectionInfo is a selection expressed in content offsets.
type SelectionInfo struct {
	Start    int
	End      int
	Text     string
	Backward bool // focus precedes anchor
}

// IsEmpty returns true if the selection is a collapsed cursor.
func (s SelectionInfo) IsEmpty() bool {
	return s.Start == s.End
}

// Len returns the selection length in runes.
func (s SelectionInfo) Len() int {
	return s.End - s.Start
}

// LineInfo describes a single line of content.
type LineInfo struct {
	Index int
	Start int
	End   int
	Text  string
}

// ReplaceOptions configures ReplaceRange.
type ReplaceOptions struct {
	// MoveCursorToEnd collapses the selection after the inserted text.
	// Otherwise the inserted text is left selected.
	MoveCursorToEnd bool
}

// Mapper converts between content offsets and tree points.
type Mapper struct {
	surface Surface
}

// New creates a mapper over the given surface.
func New(surface Surface) *Mapper {
	return &Mapper{surface: surface}
}

// Surface returns the underlying surface.
func (m *Mapper) Surface() Surface {
	return m.surface
}

// Text returns the content represented by the tree.
func (m *Mapper) Text() string {
	return m.surface.Root().TextContent()
}

// Len returns the content length in runes.
func (m *Mapper) Len() int {
	return buildLayout(m.surface.Root()).total
}

// Offset converts a tree point to a content offset.
func (m *Mapper) Offset(p tree.Point) int {
	return buildLayout(m.surface.Root()).offset(p)
}

// Locate converts a content offset to a tree point.
// The result is never inside a symbol decoration.
func (m *Mapper) Locate(offset int) tree.Point {
	return buildLayout(m.surface.Root()).locate(offset)
}

// Selection reads the native selection. ok is false when the surface has none.
func (m *Mapper) Selection() (SelectionInfo, bool) {
	anchor, focus, ok := m.surface.Selection()
	if !ok {
		return SelectionInfo{}, false
	}
	l := buildLayout(m.surface.Root())
	a, f := l.offset(anchor), l.offset(focus)

	info := SelectionInfo{Start: a, End: f}
	if f < a {
		info = SelectionInfo{Start: f, End: a, Backward: true}
	}
	if !info.IsEmpty() {
		info.Text = sliceRunes(m.Text(), info.Start, info.End)
	}
	return info, true
}

// SelectionInfo returns the native selection in content offsets.
// Without a native selection the cursor is reported at offset 0.
func (m *Mapper) SelectionInfo() SelectionInfo {
	info, _ := m.Selection()
	return info
}

// SetCursor collapses the native selection at offset.
func (m *Mapper) SetCursor(offset int) {
	p := m.Locate(offset)
	m.surface.SetSelection(p, p)
}

// SelectRange sets the native selection to [start, end).
// A start greater than end produces a backward selection.
func (m *Mapper) SelectRange(start, end int) {
	l := buildLayout(m.surface.Root())
	m.surface.SetSelection(l.locate(start), l.locate(end))
}

// CurrentLineInfo returns the line holding the selection start.
func (m *Mapper) CurrentLineInfo() LineInfo {
	sel := m.SelectionInfo()
	return m.LineAt(sel.Start)
}

// LineAt returns the line containing offset.
func (m *Mapper) LineAt(offset int) LineInfo {
	l := buildLayout(m.surface.Root())
	if len(l.blocks) == 0 {
		return LineInfo{}
	}
	i := l.blockAt(clampInt(offset, 0, l.total))
	b := l.blocks[i]
	s := l.spans[b]
	return LineInfo{Index: i, Start: s.start, End: s.end, Text: b.TextContent()}
}

// Lines returns the text of each block.
func (m *Mapper) Lines() []string {
	blocks := m.surface.Root().Children()
	lines := make([]string, len(blocks))
	for i, b := range blocks {
		lines[i] = b.TextContent()
	}
	return lines
}

// ReplaceRange replaces content [start, end) with text.
//
// An edit that stays inside one editable text leaf rewrites that leaf in place
// so live references to it stay valid. An insertion between decorations adds
// a text leaf beside them. Any other edit rebuilds only the affected blocks
// as plain paragraphs for the renderer to re-annotate.
func (m *Mapper) ReplaceRange(start, end int, text string, opts ReplaceOptions) {
	l := buildLayout(m.surface.Root())
	start = clampInt(start, 0, l.total)
	end = clampInt(end, 0, l.total)
	if end < start {
		start, end = end, start
	}

	if !m.replaceInLeaf(l, start, end, text) && !m.insertAtBoundary(l, start, end, text) {
		m.replaceBlocks(l, start, end, text)
	}

	cursorEnd := start + utf8.RuneCountInString(text)
	if opts.MoveCursorToEnd {
		m.SetCursor(cursorEnd)
		return
	}
	m.SelectRange(start, cursorEnd)
}

// WrapSelection surrounds the selection with before and after and keeps the
// original text selected.
func (m *Mapper) WrapSelection(before, after string) {
	sel := m.SelectionInfo()
	m.ReplaceRange(sel.Start, sel.End, before+sel.Text+after, ReplaceOptions{})
	shift := utf8.RuneCountInString(before)
	m.SelectRange(sel.Start+shift, sel.End+shift)
}

// InsertText replaces the selection with text and collapses the cursor after it.
func (m *Mapper) InsertText(text string) {
	sel := m.SelectionInfo()
	m.ReplaceRange(sel.Start, sel.End, text, ReplaceOptions{MoveCursorToEnd: true})
}

func (m *Mapper) replaceInLeaf(l *layout, start, end int, text string) bool {
	if strings.Contains(text, "\n") {
		return false
	}
	if len(l.blocks) == 0 {
		return false
	}
	for _, leaf := range l.blocks[l.blockAt(start)].Leaves() {
		s := l.spans[leaf]
		if leaf.Type != tree.NodeText || start < s.start || end > s.end {
			continue
		}
		old := []rune(leaf.Text)
		next := string(old[:start-s.start]) + text + string(old[end-s.start:])
		if next == "" {
			// Keep the tree free of empty leaves.
			return false
		}
		m.surface.SetText(leaf, next)
		return true
	}
	return false
}

// insertAtBoundary handles an insertion where only decorations touch the
// offset, e.g. typing after a closing "**". A new text leaf is placed between
// the block's children and every existing node is kept.
func (m *Mapper) insertAtBoundary(l *layout, start, end int, text string) bool {
	if start != end || text == "" || strings.Contains(text, "\n") || len(l.blocks) == 0 {
		return false
	}
	block := l.blocks[l.blockAt(start)]
	children := block.Children()
	idx := -1
	switch {
	case len(children) == 0:
		idx = 0
	case l.spans[block].end == start:
		idx = len(children)
	default:
		for i, c := range children {
			if l.spans[c].start == start {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return false
	}
	next := make([]*tree.Node, 0, len(children)+1)
	next = append(next, children[:idx]...)
	next = append(next, tree.NewText(text))
	next = append(next, children[idx:]...)
	m.surface.SetChildren(block, next)
	return true
}

func (m *Mapper) replaceBlocks(l *layout, start, end int, text string) {
	if len(l.blocks) == 0 {
		m.surface.ReplaceBlocks(0, 0, tree.BlocksFromText(text))
		return
	}
	first, last := l.blockAt(start), l.blockAt(end)
	content := []rune(l.root.TextContent())
	regionStart := l.spans[l.blocks[first]].start
	regionEnd := l.spans[l.blocks[last]].end

	region := string(content[regionStart:start]) + text + string(content[end:regionEnd])
	m.surface.ReplaceBlocks(first, last+1, tree.BlocksFromText(region))
}

func sliceRunes(s string, start, end int) string {
	r := []rune(s)
	start = clampInt(start, 0, len(r))
	end = clampInt(end, start, len(r))
	return string(r[start:end])
}
