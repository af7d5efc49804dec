package history

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrMismatch is returned when a document does not hold the text an action
// expects to replace.
var ErrMismatch = errors.New("document text does not match action")

// Document is the text an action is applied to. Offsets are in runes.
type Document interface {
	Text() string
	Replace(start, end int, text string) error
}

// ActionType identifies the kind of edit.
type ActionType uint8

const (
	// ActionInsert adds text.
	ActionInsert ActionType = iota
	// ActionDelete removes text.
	ActionDelete
	// ActionReplace swaps one text for another.
	ActionReplace
	// ActionFormat adds or removes Markdown syntax around text.
	ActionFormat
)

func (t ActionType) String() string {
	switch t {
	case ActionInsert:
		return "insert"
	case ActionDelete:
		return "delete"
	case ActionReplace:
		return "replace"
	case ActionFormat:
		return "format"
	default:
		return "unknown"
	}
}

// Action is a single reversible text edit.
type Action struct {
	Type     ActionType
	Position int    // rune offset of the edit
	Before   string // text removed at Position
	After    string // text inserted at Position
}

// NewInsert creates an action inserting text at pos.
func NewInsert(pos int, text string) Action {
	return Action{Type: ActionInsert, Position: pos, After: text}
}

// NewDelete creates an action removing text found at pos.
func NewDelete(pos int, text string) Action {
	return Action{Type: ActionDelete, Position: pos, Before: text}
}

// NewReplace creates an action replacing before with after at pos.
func NewReplace(pos int, before, after string) Action {
	return Action{Type: ActionReplace, Position: pos, Before: before, After: after}
}

// NewFormat creates a formatting action replacing before with after at pos.
func NewFormat(pos int, before, after string) Action {
	return Action{Type: ActionFormat, Position: pos, Before: before, After: after}
}

// Diff builds the action turning before into after by trimming their
// common prefix and suffix. ok is false when the texts are equal.
func Diff(before, after string) (a Action, ok bool) {
	if before == after {
		return Action{}, false
	}
	o, n := []rune(before), []rune(after)

	prefix := 0
	for prefix < len(o) && prefix < len(n) && o[prefix] == n[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(o)-prefix && suffix < len(n)-prefix && o[len(o)-1-suffix] == n[len(n)-1-suffix] {
		suffix++
	}

	removed := string(o[prefix : len(o)-suffix])
	added := string(n[prefix : len(n)-suffix])
	switch {
	case removed == "":
		return NewInsert(prefix, added), true
	case added == "":
		return NewDelete(prefix, removed), true
	default:
		return NewReplace(prefix, removed, added), true
	}
}

// IsNoop returns true if the action changes nothing.
func (a Action) IsNoop() bool {
	return a.Before == a.After
}

// End returns the offset one past the text the action replaces.
func (a Action) End() int {
	return a.Position + utf8.RuneCountInString(a.Before)
}

// Delta returns the change in document length, in runes.
func (a Action) Delta() int {
	return utf8.RuneCountInString(a.After) - utf8.RuneCountInString(a.Before)
}

// Invert returns the action that undoes a.
func (a Action) Invert() Action {
	inv := Action{Type: a.Type, Position: a.Position, Before: a.After, After: a.Before}
	switch a.Type {
	case ActionInsert:
		inv.Type = ActionDelete
	case ActionDelete:
		inv.Type = ActionInsert
	}
	return inv
}

// Apply performs the action on doc after checking that doc holds the
// expected text at the action's position.
func (a Action) Apply(doc Document) error {
	text := []rune(doc.Text())
	end := a.End()
	if a.Position < 0 || end > len(text) || string(text[a.Position:end]) != a.Before {
		return fmt.Errorf("%s at %d: %w", a.Type, a.Position, ErrMismatch)
	}
	if err := doc.Replace(a.Position, end, a.After); err != nil {
		return fmt.Errorf("%s at %d: %w", a.Type, a.Position, err)
	}
	return nil
}
