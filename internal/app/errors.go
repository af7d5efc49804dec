package app

import (
	"errors"
	"fmt"
)

var (
	// ErrQuit is returned by the host when the user asks to exit.
	ErrQuit = errors.New("quit requested")

	// ErrAlreadyRunning is returned by a second Start.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrNotRunning is returned by Start after Shutdown.
	ErrNotRunning = errors.New("application not running")
)

// OperationError describes a failed application operation such as
// "mount", "save" or "reload". Target is usually a draft ID or a path.
type OperationError struct {
	Op      string
	Target  string
	Context string
	Err     error
}

// NewOperationError returns an OperationError for op on target.
func NewOperationError(op, target string, err error) *OperationError {
	return &OperationError{Op: op, Target: target, Err: err}
}

// WithContext sets a short qualifier shown in parentheses. It returns e and
// is a no-op on a nil receiver.
func (e *OperationError) WithContext(ctx string) *OperationError {
	if e != nil {
		e.Context = ctx
	}
	return e
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Op
	if e.Target != "" {
		msg += " " + e.Target
	}
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the same *OperationError or anything the wrapped error matches.
func (e *OperationError) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*OperationError); ok {
		return e == t
	}
	return errors.Is(e.Err, target)
}

// RecoveredPanicError carries a panic recovered while handling an event.
type RecoveredPanicError struct {
	Value any
	Stack string
}

// NewRecoveredPanicError wraps a recovered value and an optional stack.
func NewRecoveredPanicError(value any, stack string) *RecoveredPanicError {
	return &RecoveredPanicError{Value: value, Stack: stack}
}

func (e *RecoveredPanicError) Error() string {
	if e == nil {
		return ""
	}
	if e.Stack == "" {
		return fmt.Sprintf("panic: %v", e.Value)
	}
	return fmt.Sprintf("panic: %v\n%s", e.Value, e.Stack)
}

// ErrorList gathers the failures of a multi-step teardown so that every
// step runs. It is not safe for concurrent use.
type ErrorList struct {
	errs []error
}

// NewErrorList returns an empty list.
func NewErrorList() *ErrorList {
	return &ErrorList{}
}

// Add appends err unless it is nil.
func (l *ErrorList) Add(err error) {
	if err != nil {
		l.errs = append(l.errs, err)
	}
}

func (l *ErrorList) HasErrors() bool { return l != nil && len(l.errs) > 0 }

func (l *ErrorList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.errs)
}

// Errors returns a copy of the collected errors.
func (l *ErrorList) Errors() []error {
	if !l.HasErrors() {
		return nil
	}
	return append([]error(nil), l.errs...)
}

// First returns the earliest error, or nil.
func (l *ErrorList) First() error {
	if !l.HasErrors() {
		return nil
	}
	return l.errs[0]
}

func (l *ErrorList) Error() string {
	switch l.Len() {
	case 0:
		return ""
	case 1:
		return l.errs[0].Error()
	}
	return fmt.Sprintf("%d errors: first: %v", len(l.errs), l.errs[0])
}

// AsError returns l as an error, or nil when it is empty.
func (l *ErrorList) AsError() error {
	if !l.HasErrors() {
		return nil
	}
	return l
}

// Unwrap exposes every collected error to errors.Is and errors.As.
func (l *ErrorList) Unwrap() []error {
	return l.Errors()
}

// WrapError prefixes err with a formatted message, or returns nil for a nil
// err. The format must not contain %w.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
