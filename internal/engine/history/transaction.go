package history

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is an immutable unit of undo history.
type Transaction struct {
	ID        string
	Label     string
	Timestamp time.Time

	actions []Action
}

// NewTransaction creates a transaction from actions. No-op actions are dropped.
func NewTransaction(label string, actions ...Action) *Transaction {
	return newTransaction(uuid.NewString(), label, time.Now(), actions)
}

func newTransaction(id, label string, ts time.Time, actions []Action) *Transaction {
	kept := make([]Action, 0, len(actions))
	for _, a := range actions {
		if !a.IsNoop() {
			kept = append(kept, a)
		}
	}
	return &Transaction{ID: id, Label: label, Timestamp: ts, actions: kept}
}

// Actions returns a copy of the transaction's actions.
func (tx *Transaction) Actions() []Action {
	out := make([]Action, len(tx.actions))
	copy(out, tx.actions)
	return out
}

// Len returns the number of actions.
func (tx *Transaction) Len() int {
	return len(tx.actions)
}

// IsEmpty returns true if the transaction changes nothing.
func (tx *Transaction) IsEmpty() bool {
	return len(tx.actions) == 0
}

// Last returns the final action. ok is false for an empty transaction.
func (tx *Transaction) Last() (Action, bool) {
	if len(tx.actions) == 0 {
		return Action{}, false
	}
	return tx.actions[len(tx.actions)-1], true
}

// Invert returns the transaction that undoes tx.
func (tx *Transaction) Invert() *Transaction {
	inv := make([]Action, len(tx.actions))
	for i, a := range tx.actions {
		inv[len(tx.actions)-1-i] = a.Invert()
	}
	return &Transaction{ID: tx.ID, Label: tx.Label, Timestamp: tx.Timestamp, actions: inv}
}

// Apply performs every action in order. If an action fails, the ones
// already applied are reverted so doc is left as it was.
func (tx *Transaction) Apply(doc Document) error {
	for i, a := range tx.actions {
		if err := a.Apply(doc); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = tx.actions[j].Invert().Apply(doc)
			}
			return err
		}
	}
	return nil
}

// CursorAfter returns the content offset just past the last action's text.
func (tx *Transaction) CursorAfter() int {
	a, ok := tx.Last()
	if !ok {
		return 0
	}
	return a.Position + len([]rune(a.After))
}
