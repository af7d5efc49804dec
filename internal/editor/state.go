package editor

import (
	"fmt"
	"time"

	"github.com/dshills/livemark/internal/format"
)

// Error codes reported in State.Error.
const (
	CodeRenderFailed    = "render_failed"
	CodeLocalSaveFailed = "local_save_failed"
	CodeDraftLoadFailed = "draft_load_failed"
	CodeHistoryFailed   = "history_failed"
)

// StateError is a non-fatal error surfaced to the host UI.
type StateError struct {
	Code        string
	Message     string
	Recoverable bool
	Err         error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

func newStateError(code string, err error) *StateError {
	return &StateError{Code: code, Message: err.Error(), Recoverable: true, Err: err}
}

// Selection is a selection in content offsets.
type Selection struct {
	Start   int
	End     int
	Text    string
	IsEmpty bool
}

// State is a snapshot of the editor state.
type State struct {
	Title     string
	Content   string
	Selection Selection

	IsDirty   bool
	IsSaving  bool
	LastSaved time.Time // zero until the first save

	CanUndo bool
	CanRedo bool

	Composing bool

	// Recovered is set when Mount restored a saved draft.
	Recovered bool

	Error    *StateError
	Warnings []format.Warning
	Outline  []format.Heading

	// Revision increases with every change to the title or content.
	Revision uint64
}
