package history

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// textDoc is a minimal Document over a string.
type textDoc struct {
	s string
}

func (d *textDoc) Text() string { return d.s }

func (d *textDoc) Replace(start, end int, text string) error {
	r := []rune(d.s)
	if start < 0 || end > len(r) || start > end {
		return fmt.Errorf("range [%d,%d) out of bounds", start, end)
	}
	d.s = string(r[:start]) + text + string(r[end:])
	return nil
}

// fakeClock advances only when told to.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// apply performs a and records it the way the editor does.
func apply(t *testing.T, h *History, doc *textDoc, label string, a Action) {
	t.Helper()
	if err := a.Apply(doc); err != nil {
		t.Fatalf("Apply(%+v) error = %v", a, err)
	}
	h.Record(label, a)
}

func TestActionInvert(t *testing.T) {
	tests := []struct {
		name string
		a    Action
		want ActionType
	}{
		{"insert", NewInsert(2, "x"), ActionDelete},
		{"delete", NewDelete(2, "x"), ActionInsert},
		{"replace", NewReplace(2, "x", "y"), ActionReplace},
		{"format", NewFormat(0, "a", "**a**"), ActionFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := tt.a.Invert()
			if inv.Type != tt.want {
				t.Errorf("Invert().Type = %v, want %v", inv.Type, tt.want)
			}
			if inv.Before != tt.a.After || inv.After != tt.a.Before {
				t.Errorf("Invert() = %+v", inv)
			}
			if inv.Invert() != tt.a {
				t.Error("double inversion is not identity")
			}
		})
	}
}

func TestActionApplyMismatch(t *testing.T) {
	doc := &textDoc{s: "hello"}
	err := NewDelete(1, "x").Apply(doc)
	if !errors.Is(err, ErrMismatch) {
		t.Errorf("Apply() error = %v, want ErrMismatch", err)
	}
	if doc.s != "hello" {
		t.Errorf("document changed to %q", doc.s)
	}
}

func TestDiff(t *testing.T) {
	tests := []struct {
		before, after string
		want          Action
	}{
		{"helo", "hello", NewInsert(3, "l")},
		{"hello", "helo", NewDelete(3, "l")},
		{"cat", "cut", NewReplace(1, "a", "u")},
		{"", "abc", NewInsert(0, "abc")},
		{"héllo", "hé llo", NewInsert(2, " ")},
	}
	for _, tt := range tests {
		got, ok := Diff(tt.before, tt.after)
		if !ok || got != tt.want {
			t.Errorf("Diff(%q, %q) = %+v, %v; want %+v", tt.before, tt.after, got, ok, tt.want)
		}
	}
	if _, ok := Diff("same", "same"); ok {
		t.Error("Diff of equal texts reported a change")
	}
}

func TestUndoRedoInverseLaw(t *testing.T) {
	doc := &textDoc{}
	h := New(10, WithCoalesceWindow(0))

	edits := []Action{
		NewInsert(0, "Hello"),
		NewInsert(5, " world"),
		NewReplace(0, "Hello", "Goodbye"),
		NewFormat(8, "world", "**world**"),
		NewDelete(0, "Goodbye "),
	}
	for i, a := range edits {
		apply(t, h, doc, fmt.Sprintf("edit %d", i), a)
	}

	for depth := 1; depth <= len(edits); depth++ {
		before := doc.Text()
		if _, err := h.Undo(doc); err != nil {
			t.Fatalf("Undo() at depth %d error = %v", depth, err)
		}
		if _, err := h.Redo(doc); err != nil {
			t.Fatalf("Redo() at depth %d error = %v", depth, err)
		}
		if doc.Text() != before {
			t.Errorf("undo+redo at depth %d = %q, want %q", depth, doc.Text(), before)
		}
		if _, err := h.Undo(doc); err != nil {
			t.Fatal(err)
		}
	}
	if doc.Text() != "" {
		t.Errorf("fully undone text = %q, want empty", doc.Text())
	}
}

func TestUndoRedoOutOfBoundsIsNoop(t *testing.T) {
	doc := &textDoc{s: "x"}
	h := New(5)

	tx, err := h.Undo(doc)
	if tx != nil || err != nil {
		t.Errorf("Undo() on empty history = %v, %v", tx, err)
	}
	tx, err = h.Redo(doc)
	if tx != nil || err != nil {
		t.Errorf("Redo() on empty history = %v, %v", tx, err)
	}
	if h.Current() != -1 {
		t.Errorf("Current() = %d, want -1", h.Current())
	}
}

func TestAddTruncatesRedoBranch(t *testing.T) {
	doc := &textDoc{}
	h := New(10, WithCoalesceWindow(0))
	apply(t, h, doc, "a", NewInsert(0, "a"))
	apply(t, h, doc, "b", NewInsert(1, "b"))
	apply(t, h, doc, "c", NewInsert(2, "c"))

	h.Undo(doc)
	h.Undo(doc)
	if !h.CanRedo() {
		t.Fatal("CanRedo() = false after undo")
	}

	apply(t, h, doc, "z", NewInsert(1, "z"))
	if h.CanRedo() {
		t.Error("CanRedo() = true after a new transaction")
	}
	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.Len())
	}
	if doc.Text() != "az" {
		t.Errorf("Text() = %q, want %q", doc.Text(), "az")
	}
}

func TestRingEvictsOldest(t *testing.T) {
	doc := &textDoc{}
	h := New(3, WithCoalesceWindow(0))
	for i := 0; i < 5; i++ {
		apply(t, h, doc, fmt.Sprint(i), NewInsert(i, fmt.Sprint(i)))
	}

	if h.Len() != 3 {
		t.Errorf("Len() = %d, want 3", h.Len())
	}
	undone := 0
	for h.CanUndo() {
		if _, err := h.Undo(doc); err != nil {
			t.Fatal(err)
		}
		undone++
	}
	if undone != 3 {
		t.Errorf("undid %d transactions, want 3", undone)
	}
	if doc.Text() != "01" {
		t.Errorf("Text() = %q, want %q", doc.Text(), "01")
	}
}

func TestRingEvictionAfterUndo(t *testing.T) {
	doc := &textDoc{}
	h := New(2, WithCoalesceWindow(0))
	apply(t, h, doc, "a", NewInsert(0, "a"))
	apply(t, h, doc, "b", NewInsert(1, "b"))
	h.Undo(doc)
	apply(t, h, doc, "c", NewInsert(1, "c"))
	apply(t, h, doc, "d", NewInsert(2, "d"))

	txs := h.Transactions()
	if len(txs) != 2 || txs[0].Label != "c" || txs[1].Label != "d" {
		t.Errorf("Transactions() labels = %v", labels(txs))
	}
}

func labels(txs []*Transaction) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.Label
	}
	return out
}

func TestRecordCoalescesKeystrokes(t *testing.T) {
	clock := newClock()
	doc := &textDoc{}
	h := New(10, WithClock(clock.Now))

	for i, c := range []string{"a", "b", "c"} {
		apply(t, h, doc, "Typing", NewInsert(i, c))
		clock.Advance(50 * time.Millisecond)
	}

	if h.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", h.Len())
	}
	if _, err := h.Undo(doc); err != nil {
		t.Fatal(err)
	}
	if doc.Text() != "" {
		t.Errorf("Text() after one undo = %q, want empty", doc.Text())
	}
}

func TestRecordCoalesceWindowEdge(t *testing.T) {
	tests := []struct {
		name  string
		pause time.Duration
		want  int
	}{
		{"at window", DefaultCoalesceWindow, 1},
		{"past window", DefaultCoalesceWindow + time.Millisecond, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newClock()
			doc := &textDoc{}
			h := New(10, WithClock(clock.Now))
			apply(t, h, doc, "Typing", NewInsert(0, "a"))
			clock.Advance(tt.pause)
			apply(t, h, doc, "Typing", NewInsert(1, "b"))
			if h.Len() != tt.want {
				t.Errorf("Len() = %d, want %d", h.Len(), tt.want)
			}
		})
	}
}

func TestRecordDoesNotCoalesceAcrossJumps(t *testing.T) {
	clock := newClock()
	doc := &textDoc{s: "xxxx"}
	h := New(10, WithClock(clock.Now))

	apply(t, h, doc, "Typing", NewInsert(0, "a"))
	apply(t, h, doc, "Typing", NewInsert(3, "b"))
	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.Len())
	}

	apply(t, h, doc, "Delete", NewDelete(3, "b"))
	if h.Len() != 3 {
		t.Errorf("Len() after delete = %d, want 3", h.Len())
	}
}

func TestRecordCoalescesBackspaces(t *testing.T) {
	clock := newClock()
	doc := &textDoc{s: "abcd"}
	h := New(10, WithClock(clock.Now))

	apply(t, h, doc, "Delete", NewDelete(3, "d"))
	apply(t, h, doc, "Delete", NewDelete(2, "c"))
	apply(t, h, doc, "Delete", NewDelete(1, "b"))

	if h.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", h.Len())
	}
	tx, _ := h.Peek()
	if a, _ := tx.Last(); a != NewDelete(1, "bcd") {
		t.Errorf("merged action = %+v", a)
	}
	h.Undo(doc)
	if doc.Text() != "abcd" {
		t.Errorf("Text() = %q, want %q", doc.Text(), "abcd")
	}
}

func TestRecordNeverCoalescesIntoRedoBranch(t *testing.T) {
	clock := newClock()
	doc := &textDoc{}
	h := New(10, WithClock(clock.Now))

	apply(t, h, doc, "Typing", NewInsert(0, "a"))
	apply(t, h, doc, "Typing", NewInsert(1, "b"))
	h.Undo(doc)
	h.Redo(doc)
	apply(t, h, doc, "Typing", NewInsert(2, "c"))

	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.Len())
	}
}

func TestTransactionsAreImmutable(t *testing.T) {
	clock := newClock()
	doc := &textDoc{}
	h := New(10, WithClock(clock.Now))

	first := h.Record("Typing", NewInsert(0, "a"))
	_ = doc.Replace(0, 0, "a")
	merged := h.Record("Typing", NewInsert(1, "b"))

	if first == merged {
		t.Fatal("coalescing mutated the original transaction")
	}
	if a, _ := first.Last(); a.After != "a" {
		t.Errorf("original action = %+v", a)
	}
	if first.ID != merged.ID {
		t.Error("merged transaction should keep the original ID")
	}
}

func TestGroup(t *testing.T) {
	doc := &textDoc{s: "word"}
	h := New(10)

	h.BeginGroup("Toggle bold")
	apply(t, h, doc, "", NewFormat(4, "", "**"))
	apply(t, h, doc, "", NewFormat(0, "", "**"))
	tx := h.EndGroup()

	if tx == nil || tx.Len() != 2 || tx.Label != "Toggle bold" {
		t.Fatalf("EndGroup() = %+v", tx)
	}
	if doc.Text() != "**word**" {
		t.Fatalf("Text() = %q", doc.Text())
	}
	h.Undo(doc)
	if doc.Text() != "word" {
		t.Errorf("Text() after undo = %q, want %q", doc.Text(), "word")
	}
}

func TestGroupCancelledOnError(t *testing.T) {
	h := New(10)
	boom := errors.New("boom")
	_, err := h.Group("x", func() error {
		h.Record("x", NewInsert(0, "a"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Group() error = %v", err)
	}
	if h.Len() != 0 || h.IsGrouping() {
		t.Error("cancelled group left state behind")
	}
}

func TestTransactionApplyRollsBack(t *testing.T) {
	doc := &textDoc{s: "abc"}
	tx := NewTransaction("bad", NewInsert(0, "x"), NewDelete(0, "nope"))
	if err := tx.Apply(doc); !errors.Is(err, ErrMismatch) {
		t.Fatalf("Apply() error = %v, want ErrMismatch", err)
	}
	if doc.Text() != "abc" {
		t.Errorf("Text() = %q, want %q", doc.Text(), "abc")
	}
}

func TestUndoFailureKeepsPointer(t *testing.T) {
	doc := &textDoc{}
	h := New(10)
	apply(t, h, doc, "a", NewInsert(0, "abc"))
	doc.s = "zzz"

	if _, err := h.Undo(doc); !errors.Is(err, ErrMismatch) {
		t.Fatalf("Undo() error = %v, want ErrMismatch", err)
	}
	if !h.CanUndo() {
		t.Error("failed undo moved the pointer")
	}
}

func TestResize(t *testing.T) {
	doc := &textDoc{}
	h := New(5, WithCoalesceWindow(0))
	for i := 0; i < 5; i++ {
		apply(t, h, doc, fmt.Sprint(i), NewInsert(i, "x"))
	}
	h.Resize(2)
	if h.Len() != 2 || h.Capacity() != 2 || h.Current() != 1 {
		t.Errorf("after Resize: Len=%d Capacity=%d Current=%d", h.Len(), h.Capacity(), h.Current())
	}
	apply(t, h, doc, "5", NewInsert(5, "y"))
	if got := labels(h.Transactions()); got[0] != "4" || got[1] != "5" {
		t.Errorf("labels = %v", got)
	}
}
