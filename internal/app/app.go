// Package app wires the livemark components together and manages the
// application lifecycle: configuration, logging, draft storage, the remote
// draft store, the editor and configuration hot reload.
package app

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/livemark/internal/config"
	"github.com/dshills/livemark/internal/config/watcher"
	"github.com/dshills/livemark/internal/editor"
	"github.com/dshills/livemark/internal/logging"
	"github.com/dshills/livemark/internal/persist"
)

// Application is the central coordinator for all livemark components.
type Application struct {
	mu sync.RWMutex

	// Core infrastructure
	config  *config.Config
	logger  *logging.Logger
	logFile io.Closer
	metrics *Metrics

	// Persistence
	store  persist.LocalStore
	remote persist.Remote

	editor  *editor.Editor
	watcher *watcher.Watcher

	// State
	running  atomic.Bool
	stopped  atomic.Bool
	done     chan struct{}
	stopOnce sync.Once

	opts Options
}

// Options configures the application.
type Options struct {
	// ConfigPath is the configuration file, TOML or YAML.
	ConfigPath string

	// DraftID selects the draft to edit. Empty starts a new draft.
	DraftID string

	// File is a Markdown file used as the initial content.
	File string

	// Title is the initial document title.
	Title string

	// LogLevel overrides logging.level from the configuration.
	LogLevel string

	// Watch reloads the configuration file when it changes.
	Watch bool

	// Env replaces the process environment when non-nil.
	Env []string

	// LogOutput overrides logging.file, for tests.
	LogOutput io.Writer

	// Remote overrides the configured remote draft store.
	Remote persist.Remote

	// EditorOptions are passed to the editor after the configured ones.
	EditorOptions []editor.Option
}

// New creates an Application with the given options. On failure every
// component created so far is released.
func New(opts Options) (*Application, error) {
	app := &Application{
		opts:    opts,
		done:    make(chan struct{}),
		metrics: NewMetrics(),
	}

	if err := newBootstrapper(app, opts).bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// Start mounts the editor and starts autosave.
func (app *Application) Start(ctx context.Context) error {
	if app.stopped.Load() {
		return ErrNotRunning
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	if err := app.editor.Mount(ctx); err != nil {
		app.running.Store(false)
		return NewOperationError("mount", app.editor.DraftID(), err)
	}
	app.logger.Info("started (draft %s)", app.editor.DraftID())
	return nil
}

// Run starts the application and blocks until ctx is cancelled or
// Shutdown is called. It is the entry point for headless use.
func (app *Application) Run(ctx context.Context) error {
	if err := app.Start(ctx); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case <-app.done:
	}
	return app.Shutdown()
}

// Save writes the draft locally and remotely.
func (app *Application) Save(ctx context.Context) error {
	start := time.Now()
	err := app.editor.Save(ctx)
	st := app.editor.State()
	app.metrics.RecordSave(time.Since(start), err == nil && !st.IsDirty)
	if err != nil {
		app.logger.Error("save failed: %v", err)
		return NewOperationError("save", app.editor.DraftID(), err)
	}
	return nil
}

// Shutdown unmounts the editor, which writes a final local save, and
// releases all resources. It is safe to call more than once.
func (app *Application) Shutdown() error {
	var result error
	app.stopOnce.Do(func() {
		app.stopped.Store(true)
		close(app.done)
		result = app.shutdown()
	})
	return result
}

// shutdown releases components in reverse initialization order.
func (app *Application) shutdown() error {
	errs := NewErrorList()

	if app.watcher != nil {
		errs.Add(WrapError(app.watcher.Close(), "close config watcher"))
	}
	if app.running.Load() {
		errs.Add(WrapError(app.editor.Unmount(), "unmount editor"))
		app.running.Store(false)
	}
	if c, ok := app.remote.(io.Closer); ok && app.opts.Remote == nil {
		errs.Add(WrapError(c.Close(), "close remote"))
	}

	app.logger.Info("shutdown complete: %s", app.metrics.Snapshot())
	if app.logFile != nil {
		errs.Add(app.logFile.Close())
	}
	return errs.AsError()
}

// Done is closed when Shutdown begins.
func (app *Application) Done() <-chan struct{} {
	return app.done
}

// IsRunning reports whether the editor is mounted.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Editor returns the editor.
func (app *Application) Editor() *editor.Editor {
	return app.editor
}

// Config returns the active configuration.
func (app *Application) Config() *config.Config {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.config
}

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger {
	return app.logger
}

// Metrics returns the application metrics.
func (app *Application) Metrics() *Metrics {
	return app.metrics
}

// Remote returns the remote draft store.
func (app *Application) Remote() persist.Remote {
	return app.remote
}
