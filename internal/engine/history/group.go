package history

import "github.com/google/uuid"

// BeginGroup starts collecting actions into a single transaction.
// Nested calls are ignored.
func (h *History) BeginGroup(label string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.grouping {
		return
	}
	h.grouping = true
	h.groupLabel = label
	h.groupActions = nil
}

// EndGroup pushes the collected actions as one transaction and returns it.
// An empty group pushes nothing and returns nil.
func (h *History) EndGroup() *Transaction {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.grouping {
		return nil
	}
	h.grouping = false
	actions := h.groupActions
	h.groupActions = nil

	tx := newTransaction(uuid.NewString(), h.groupLabel, h.now(), actions)
	if tx.IsEmpty() {
		return nil
	}
	h.open = nil
	h.pushLocked(tx)
	return tx
}

// CancelGroup drops the collected actions without recording them.
// Edits already made to the document are not reverted.
func (h *History) CancelGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.grouping = false
	h.groupActions = nil
}

// IsGrouping returns true while a group is open.
func (h *History) IsGrouping() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.grouping
}

// Group runs fn inside a group. If fn fails the group is cancelled.
func (h *History) Group(label string, fn func() error) (*Transaction, error) {
	h.BeginGroup(label)
	if err := fn(); err != nil {
		h.CancelGroup()
		return nil, err
	}
	return h.EndGroup(), nil
}
