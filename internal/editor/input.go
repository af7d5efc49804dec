package editor

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/dshills/livemark/internal/engine/history"
	"github.com/dshills/livemark/internal/format"
	"github.com/dshills/livemark/internal/grapheme"
)

// InputKind identifies an input event.
type InputKind uint8

const (
	// InsertText replaces the selection with Text.
	InsertText InputKind = iota

	// DeleteBackward removes the selection or the grapheme before the cursor.
	DeleteBackward

	// DeleteForward removes the selection or the grapheme after the cursor.
	DeleteForward

	// InsertParagraph splits the line, continuing list and quote markers.
	InsertParagraph

	// Native reports that the host already changed the surface. The editor
	// records the difference instead of applying anything.
	Native
)

var inputKindNames = [...]string{
	InsertText:      "insert-text",
	DeleteBackward:  "delete-backward",
	DeleteForward:   "delete-forward",
	InsertParagraph: "insert-paragraph",
	Native:          "native",
}

func (k InputKind) String() string {
	if int(k) < len(inputKindNames) {
		return inputKindNames[k]
	}
	return "unknown"
}

// InputEvent is a single input from the host.
type InputEvent struct {
	Kind InputKind
	Text string
}

// History labels.
const (
	labelTyping    = "Typing"
	labelDelete    = "Delete"
	labelParagraph = "New Line"
	labelCompose   = "Compose"
	labelEdit      = "Edit"
)

// HandleInput applies an input event. Typing schedules a debounced render.
func (e *Editor) HandleInput(ev InputEvent) error {
	return e.update(func() error {
		var err error
		switch ev.Kind {
		case InsertText:
			err = e.insertTextLocked(ev.Text)
		case DeleteBackward:
			err = e.deleteLocked(true)
		case DeleteForward:
			err = e.deleteLocked(false)
		case InsertParagraph:
			err = e.insertParagraphLocked()
		case Native:
			err = e.syncNativeLocked()
		default:
			e.logger.Warn("ignoring input of kind %v", ev.Kind)
			return nil
		}
		if err != nil {
			return err
		}
		if !e.composing {
			e.debounce.Schedule()
		}
		return nil
	})
}

// TypeText is shorthand for an InsertText event.
func (e *Editor) TypeText(text string) error {
	return e.HandleInput(InputEvent{Kind: InsertText, Text: text})
}

func (e *Editor) insertTextLocked(text string) error {
	text = norm.NFC.String(text)
	if text == "" {
		return nil
	}
	sel := e.mapper.SelectionInfo()
	if sel.IsEmpty() {
		return e.editLocked(labelTyping, history.NewInsert(sel.Start, text))
	}
	return e.editLocked(labelTyping, history.NewReplace(sel.Start, sel.Text, text))
}

func (e *Editor) deleteLocked(backward bool) error {
	sel := e.mapper.SelectionInfo()
	if !sel.IsEmpty() {
		return e.editLocked(labelDelete, history.NewDelete(sel.Start, sel.Text))
	}

	line := e.mapper.LineAt(sel.Start)
	col := sel.Start - line.Start
	var start, end int
	switch {
	case backward && col == 0:
		if line.Start == 0 {
			return nil
		}
		start, end = sel.Start-1, sel.Start // the line separator
	case backward:
		start, end = line.Start+grapheme.Prev(line.Text, col), sel.Start
	case sel.Start >= line.End:
		if line.End >= e.mapper.Len() {
			return nil
		}
		start, end = sel.Start, sel.Start+1
	default:
		start, end = sel.Start, line.Start+grapheme.Next(line.Text, col)
	}

	removed := sliceRunes(e.content, start, end)
	return e.editLocked(labelDelete, history.NewDelete(start, removed))
}

func (e *Editor) insertParagraphLocked() error {
	sel := e.mapper.SelectionInfo()
	line := e.mapper.LineAt(sel.Start)

	marker := continuationMarker(line.Text)
	if marker != "" && strings.TrimSpace(line.Text) == strings.TrimSpace(leadingMarker(line.Text)) && sel.IsEmpty() {
		// An empty item ends the list.
		return e.editLocked(labelParagraph, history.NewDelete(line.Start, line.Text))
	}

	text := "\n" + marker
	if sel.IsEmpty() {
		return e.editLocked(labelParagraph, history.NewInsert(sel.Start, text))
	}
	return e.editLocked(labelParagraph, history.NewReplace(sel.Start, sel.Text, text))
}

// leadingMarker returns the list or quote syntax at the start of text.
func leadingMarker(text string) string {
	kind := format.DetectLineType(text)
	if kind != format.ListItem && kind != format.Quote {
		return ""
	}
	return string([]rune(text)[:format.BlockMarkerLen(text, kind)])
}

// continuationMarker returns the marker for the line after text.
// Ordered markers are incremented.
func continuationMarker(text string) string {
	m := leadingMarker(text)
	if m == "" {
		return ""
	}
	indent := len(m) - len(strings.TrimLeft(m, " "))
	body := m[indent:]
	digits := 0
	for digits < len(body) && body[digits] >= '0' && body[digits] <= '9' {
		digits++
	}
	if digits == 0 {
		return m
	}
	n, err := strconv.Atoi(body[:digits])
	if err != nil {
		return m
	}
	return m[:indent] + strconv.Itoa(n+1) + body[digits:]
}

// syncNativeLocked records a change the host made to the surface directly.
func (e *Editor) syncNativeLocked() error {
	current := e.mapper.Text()
	a, ok := history.Diff(e.content, current)
	if !ok {
		return nil
	}
	if !e.composing {
		e.history.Record(labelEdit, a)
	}
	e.changedLocked(a)
	return nil
}

// CompositionStart begins an IME composition. Rendering and history
// recording are suspended until CompositionEnd.
func (e *Editor) CompositionStart() {
	_ = e.update(func() error {
		if e.composing {
			return nil
		}
		e.composing = true
		e.compositionBase = e.content
		e.debounce.Cancel()
		e.history.Seal()
		return nil
	})
}

// CompositionEnd inserts the committed text, records the whole composition
// as one transaction and renders.
func (e *Editor) CompositionEnd(text string) error {
	return e.update(func() error {
		if !e.composing {
			if text == "" {
				return nil
			}
			if err := e.insertTextLocked(text); err != nil {
				return err
			}
			e.debounce.Schedule()
			return nil
		}
		if err := e.finishCompositionLocked(text); err != nil {
			return err
		}
		return e.renderLocked()
	})
}

func (e *Editor) finishCompositionLocked(text string) error {
	if text != "" {
		if err := e.insertTextLocked(text); err != nil {
			e.composing = false
			return err
		}
	}
	e.composing = false

	current := e.mapper.Text()
	if a, ok := history.Diff(e.compositionBase, current); ok {
		e.history.Add(history.NewTransaction(labelCompose, a))
	}
	e.compositionBase = ""
	return nil
}

// sliceRunes returns runes [start, end) of s, clamped.
func sliceRunes(s string, start, end int) string {
	r := []rune(s)
	start = max(0, min(start, len(r)))
	end = max(start, min(end, len(r)))
	return string(r[start:end])
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
