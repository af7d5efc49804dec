// Package history provides transactional undo/redo over document text.
//
// History knows nothing about the live tree. It records edits as text
// actions in content offsets and replays them against any Document.
//
// # Actions and Transactions
//
// An Action is one atomic text change with its before and after text:
//   - insert: Before is empty
//   - delete: After is empty
//   - replace, format: both are set
//
// A Transaction is an immutable, ordered list of actions that undo and
// redo as a unit. Its inverse is the reversed list of inverted actions.
//
// # The Ring
//
// Transactions live in a fixed-capacity ring:
//
//	h := history.New(100) // keep at most 100 transactions
//
//	h.Add(tx)      // discards anything ahead of the pointer
//	h.Undo(doc)    // no-op at the bottom
//	h.Redo(doc)    // no-op at the top
//
// When the ring is full the oldest transaction is evicted.
//
// # Coalescing
//
// Record groups consecutive single-character inserts (or deletes) that
// arrive within the coalescing window into the transaction on top of the
// ring, so one undo removes a typed word rather than a keystroke.
//
// # Grouping
//
// Multiple edits can be grouped as one transaction:
//
//	h.BeginGroup("Toggle bold")
//	// ... several Record or Add calls ...
//	h.EndGroup()
package history
