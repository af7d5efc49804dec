package editor

import (
	"time"

	"github.com/dshills/livemark/internal/engine/history"
	"github.com/dshills/livemark/internal/engine/mapper"
	"github.com/dshills/livemark/internal/persist"
	"github.com/dshills/livemark/internal/renderer/preview"
)

// Options holds the tunable settings of an editor.
type Options struct {
	// DraftID identifies the draft in the local and remote stores.
	// A random ID is generated when empty.
	DraftID string

	// Title and Content are the initial document when no draft is recovered.
	Title   string
	Content string

	// RecoverDraft restores a locally saved draft on Mount.
	RecoverDraft bool

	// Zero values of DebounceDelay, CoalesceWindow and MaxHistory take
	// the defaults. A negative CoalesceWindow disables undo merging.
	DebounceDelay  time.Duration
	CoalesceWindow time.Duration
	MaxHistory     int

	LocalInterval  time.Duration
	RemoteInterval time.Duration
	Retry          persist.RetryPolicy
}

// DefaultOptions returns the default editor options.
func DefaultOptions() Options {
	return Options{
		RecoverDraft:   true,
		DebounceDelay:  preview.DefaultDelay,
		CoalesceWindow: history.DefaultCoalesceWindow,
		MaxHistory:     history.DefaultMaxDepth,
		LocalInterval:  persist.DefaultLocalInterval,
		RemoteInterval: persist.DefaultRemoteInterval,
		Retry:          persist.DefaultRetryPolicy(),
	}
}

// Option configures an Editor's collaborators.
type Option func(*Editor)

// WithSurface hosts the editor on an existing surface. Its current text
// becomes the initial content.
func WithSurface(s mapper.Surface) Option {
	return func(e *Editor) {
		e.surface = s
	}
}

// WithLogger sets the editor's logger.
func WithLogger(l Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithLocalStore sets the local draft store. The default keeps drafts in memory.
func WithLocalStore(s persist.LocalStore) Option {
	return func(e *Editor) {
		e.local = s
	}
}

// WithRemote sets the remote draft store.
func WithRemote(r persist.Remote) Option {
	return func(e *Editor) {
		e.remote = r
	}
}

// WithTimerFunc replaces the debounce timer, for tests.
func WithTimerFunc(fn preview.TimerFunc) Option {
	return func(e *Editor) {
		e.timerFunc = fn
	}
}

// WithClock sets the time source used by history and persistence.
func WithClock(now func() time.Time) Option {
	return func(e *Editor) {
		e.now = now
	}
}

// WithPersistOptions passes extra options to the persistence coordinator.
func WithPersistOptions(opts ...persist.Option) Option {
	return func(e *Editor) {
		e.persistOpts = append(e.persistOpts, opts...)
	}
}
