package history

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/livemark/internal/grapheme"
)

const (
	// DefaultMaxDepth is the ring capacity used when none is given.
	DefaultMaxDepth = 500

	// DefaultCoalesceWindow is the longest pause between keystrokes that
	// still merges them into one transaction.
	DefaultCoalesceWindow = 150 * time.Millisecond
)

// Option configures a History.
type Option func(*History)

// WithClock sets the time source used for timestamps and coalescing.
func WithClock(now func() time.Time) Option {
	return func(h *History) {
		h.now = now
	}
}

// WithCoalesceWindow sets the coalescing window. A window of zero or less
// disables coalescing.
func WithCoalesceWindow(d time.Duration) Option {
	return func(h *History) {
		h.window = d
	}
}

// History is a bounded undo/redo ring of transactions.
//
// The ring holds count transactions starting at head. The first current of
// them are applied; the rest form the redo branch.
type History struct {
	mu sync.Mutex

	ring    []*Transaction
	head    int
	count   int
	current int

	window time.Duration
	now    func() time.Time

	// open is the transaction Record may still extend.
	open     *Transaction
	lastEdit time.Time

	grouping     bool
	groupLabel   string
	groupActions []Action
}

// New creates a history holding at most maxDepth transactions.
func New(maxDepth int, opts ...Option) *History {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	h := &History{
		ring:   make([]*Transaction, maxDepth),
		window: DefaultCoalesceWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *History) at(i int) *Transaction {
	return h.ring[(h.head+i)%len(h.ring)]
}

// Add pushes tx, discarding every transaction ahead of the pointer.
// The oldest transaction is evicted when the ring is full.
func (h *History) Add(tx *Transaction) {
	if tx == nil || tx.IsEmpty() {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.grouping {
		h.groupActions = append(h.groupActions, tx.actions...)
		return
	}
	h.open = nil
	h.pushLocked(tx)
}

func (h *History) pushLocked(tx *Transaction) {
	for i := h.current; i < h.count; i++ {
		h.ring[(h.head+i)%len(h.ring)] = nil
	}
	h.count = h.current

	if h.count == len(h.ring) {
		h.ring[h.head] = nil
		h.head = (h.head + 1) % len(h.ring)
		h.count--
		h.current--
	}
	h.ring[(h.head+h.count)%len(h.ring)] = tx
	h.count++
	h.current = h.count
}

// Record adds one edit as a transaction, merging it into the transaction
// on top of the ring when it continues a burst of typing or deleting.
// It returns the transaction now on top.
func (h *History) Record(label string, a Action) *Transaction {
	if a.IsNoop() {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	if h.grouping {
		h.groupActions = append(h.groupActions, a)
		return nil
	}

	if merged, ok := h.coalesceLocked(label, a, now); ok {
		h.ring[(h.head+h.current-1)%len(h.ring)] = merged
		h.open = merged
		h.lastEdit = now
		return merged
	}

	tx := newTransaction(uuid.NewString(), label, now, []Action{a})
	h.pushLocked(tx)
	h.open = tx
	h.lastEdit = now
	return tx
}

func (h *History) coalesceLocked(label string, a Action, now time.Time) (*Transaction, bool) {
	if h.window <= 0 || h.open == nil || h.current == 0 || h.current != h.count {
		return nil, false
	}
	top := h.at(h.current - 1)
	if top != h.open || top.Label != label || top.Len() != 1 {
		return nil, false
	}
	if now.Sub(h.lastEdit) > h.window || now.Before(h.lastEdit) {
		return nil, false
	}

	prev := top.actions[0]
	if prev.Type != a.Type {
		return nil, false
	}

	var merged Action
	switch a.Type {
	case ActionInsert:
		if !grapheme.IsSingle(a.After) || a.Position != prev.Position+len([]rune(prev.After)) {
			return nil, false
		}
		merged = NewInsert(prev.Position, prev.After+a.After)
	case ActionDelete:
		if !grapheme.IsSingle(a.Before) {
			return nil, false
		}
		switch {
		case a.End() == prev.Position:
			merged = NewDelete(a.Position, a.Before+prev.Before)
		case a.Position == prev.Position:
			merged = NewDelete(prev.Position, prev.Before+a.Before)
		default:
			return nil, false
		}
	default:
		return nil, false
	}
	return newTransaction(top.ID, top.Label, top.Timestamp, []Action{merged}), true
}

// Seal stops the transaction on top from absorbing further keystrokes.
func (h *History) Seal() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.open = nil
}

// Undo reverts the transaction at the pointer and moves the pointer back.
// It returns nil and does nothing when there is nothing to undo.
func (h *History) Undo(doc Document) (*Transaction, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current == 0 {
		return nil, nil
	}
	tx := h.at(h.current - 1)
	if err := tx.Invert().Apply(doc); err != nil {
		return nil, err
	}
	h.current--
	h.open = nil
	return tx, nil
}

// Redo re-applies the transaction after the pointer and advances it.
// It returns nil and does nothing when there is nothing to redo.
func (h *History) Redo(doc Document) (*Transaction, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current == h.count {
		return nil, nil
	}
	tx := h.at(h.current)
	if err := tx.Apply(doc); err != nil {
		return nil, err
	}
	h.current++
	h.open = nil
	return tx, nil
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current > 0
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current < h.count
}

// Len returns the number of stored transactions, including the redo branch.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Current returns the index of the last applied transaction, or -1.
func (h *History) Current() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current - 1
}

// Capacity returns the maximum number of stored transactions.
func (h *History) Capacity() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.ring)
}

// Peek returns the transaction the next Undo would revert.
func (h *History) Peek() (*Transaction, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current == 0 {
		return nil, false
	}
	return h.at(h.current - 1), true
}

// Transactions returns the stored transactions, oldest first.
func (h *History) Transactions() []*Transaction {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Transaction, h.count)
	for i := range out {
		out[i] = h.at(i)
	}
	return out
}

// Clear removes all history.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.ring {
		h.ring[i] = nil
	}
	h.head, h.count, h.current = 0, 0, 0
	h.open = nil
	h.grouping = false
	h.groupActions = nil
}

// SetCoalesceWindow changes the coalescing window.
func (h *History) SetCoalesceWindow(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.window = d
}

// Resize changes the ring capacity, evicting the oldest transactions
// that no longer fit.
func (h *History) Resize(maxDepth int) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if maxDepth == len(h.ring) {
		return
	}
	drop := 0
	if h.count > maxDepth {
		drop = h.count - maxDepth
	}
	ring := make([]*Transaction, maxDepth)
	for i := drop; i < h.count; i++ {
		ring[i-drop] = h.at(i)
	}
	h.ring = ring
	h.head = 0
	h.count -= drop
	h.current -= drop
	if h.current < 0 {
		h.current = 0
	}
}
