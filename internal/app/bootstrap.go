package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/livemark/internal/config"
	"github.com/dshills/livemark/internal/config/watcher"
	"github.com/dshills/livemark/internal/editor"
	"github.com/dshills/livemark/internal/logging"
	"github.com/dshills/livemark/internal/persist"
)

// bootstrapper handles component initialization with proper cleanup on failure.
type bootstrapper struct {
	app       *Application
	opts      Options
	initOrder []string
}

func newBootstrapper(app *Application, opts Options) *bootstrapper {
	return &bootstrapper{
		app:       app,
		opts:      opts,
		initOrder: make([]string, 0, 6),
	}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap() error {
	steps := []func() error{
		b.initConfig,
		b.initLogging,
		b.initStorage,
		b.initRemote,
		b.initEditor,
		b.initWatcher,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			b.cleanup()
			return err
		}
	}
	return nil
}

// initConfig loads the configuration. Unlike the optional components, a
// broken config file is fatal so that typos are not silently ignored.
func (b *bootstrapper) initConfig() error {
	cfg, err := config.Load(config.Options{
		Path: b.opts.ConfigPath,
		Env:  b.opts.Env,
	})
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	if b.opts.LogLevel != "" {
		cfg.Logging.Level = b.opts.LogLevel
	}
	b.app.config = cfg
	b.initOrder = append(b.initOrder, "config")
	return nil
}

// initLogging creates the logger. The terminal UI owns stdout and stderr,
// so without a log file output is discarded.
func (b *bootstrapper) initLogging() error {
	cfg := b.app.config.Logging

	out := b.opts.LogOutput
	if out == nil && cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return &InitError{Component: "logging", Err: err}
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return &InitError{Component: "logging", Err: err}
		}
		b.app.logFile = f
		out = f
	}
	if out == nil {
		out = io.Discard
	}

	b.app.logger = logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Level),
		Output: out,
		Prefix: "livemark",
	})
	b.initOrder = append(b.initOrder, "logging")
	return nil
}

// initStorage opens the local draft directory.
func (b *bootstrapper) initStorage() error {
	dir, err := b.app.config.DraftDir()
	if err != nil {
		return &InitError{Component: "storage", Err: err}
	}
	store, err := persist.NewFileStore(dir)
	if err != nil {
		return &InitError{Component: "storage", Err: err}
	}
	b.app.store = store
	b.app.logger.Debug("drafts stored in %s", dir)
	b.initOrder = append(b.initOrder, "storage")
	return nil
}

// initRemote connects the remote draft store.
// An unreachable Redis server is non-fatal: editing continues with local
// saves only.
func (b *bootstrapper) initRemote() error {
	if b.opts.Remote != nil {
		b.app.remote = b.opts.Remote
		b.initOrder = append(b.initOrder, "remote")
		return nil
	}

	cfg := b.app.config.Remote
	log := b.app.logger.WithComponent("remote")
	switch cfg.Kind {
	case config.RemoteHTTP:
		var opts []persist.HTTPOption
		if cfg.Token != "" {
			opts = append(opts, persist.WithAuthToken(cfg.Token))
		}
		r, err := persist.NewHTTPRemote(cfg.URL, opts...)
		if err != nil {
			return &InitError{Component: "remote", Err: err}
		}
		b.app.remote = r
	case config.RemoteRedis:
		r, err := persist.NewRedisRemote(cfg.URL)
		if err != nil {
			log.Warn("redis unavailable, saving locally only: %v", err)
			return nil
		}
		r.SetTTL(cfg.TTL.Std())
		b.app.remote = r
	default:
		return nil
	}
	log.Info("using %s remote at %s", cfg.Kind, cfg.URL)
	b.initOrder = append(b.initOrder, "remote")
	return nil
}

// initEditor creates the editor from the configuration and the initial file.
func (b *bootstrapper) initEditor() error {
	cfg := b.app.config
	opts := editorOptions(cfg)
	opts.DraftID = b.opts.DraftID
	opts.Title = b.opts.Title

	if b.opts.File != "" {
		data, err := os.ReadFile(b.opts.File)
		if err != nil && !os.IsNotExist(err) {
			return &InitError{Component: "editor", Err: NewOperationError("open", b.opts.File, err)}
		}
		opts.Content = string(data)
		if opts.DraftID == "" {
			opts.DraftID = FileDraftID(b.opts.File)
		}
		if opts.Title == "" {
			opts.Title = strings.TrimSuffix(filepath.Base(b.opts.File), filepath.Ext(b.opts.File))
		}
	}

	extra := []editor.Option{
		editor.WithLogger(b.app.logger.WithComponent("editor")),
		editor.WithLocalStore(b.app.store),
	}
	if b.app.remote != nil {
		extra = append(extra, editor.WithRemote(b.app.remote))
	}
	extra = append(extra, b.opts.EditorOptions...)

	b.app.editor = editor.New(opts, extra...)
	b.initOrder = append(b.initOrder, "editor")
	return nil
}

// initWatcher starts watching the config file for changes.
// Watch failures are non-fatal.
func (b *bootstrapper) initWatcher() error {
	if !b.opts.Watch || b.opts.ConfigPath == "" {
		return nil
	}
	log := b.app.logger.WithComponent("config")

	w, err := watcher.New(watcher.WithErrorHandler(func(err error) {
		log.Warn("watch error: %v", err)
	}))
	if err != nil {
		log.Warn("config hot reload disabled: %v", err)
		return nil
	}
	if err := w.Watch(b.opts.ConfigPath); err != nil {
		log.Warn("config hot reload disabled: %v", err)
		_ = w.Close()
		return nil
	}
	w.OnChange(b.app.handleConfigChange)

	b.app.watcher = w
	b.initOrder = append(b.initOrder, "watcher")
	return nil
}

// cleanup releases components in reverse initialization order.
func (b *bootstrapper) cleanup() {
	for i := len(b.initOrder) - 1; i >= 0; i-- {
		b.cleanupComponent(b.initOrder[i])
	}
}

func (b *bootstrapper) cleanupComponent(component string) {
	switch component {
	case "watcher":
		if b.app.watcher != nil {
			_ = b.app.watcher.Close()
			b.app.watcher = nil
		}
	case "editor":
		b.app.editor = nil
	case "remote":
		if c, ok := b.app.remote.(io.Closer); ok && b.opts.Remote == nil {
			_ = c.Close()
		}
		b.app.remote = nil
	case "storage":
		b.app.store = nil
	case "logging":
		if b.app.logFile != nil {
			_ = b.app.logFile.Close()
			b.app.logFile = nil
		}
	case "config":
		b.app.config = nil
	}
}

// editorOptions maps the configuration onto editor options.
func editorOptions(cfg *config.Config) editor.Options {
	return editor.Options{
		RecoverDraft:   cfg.Editor.RecoverDraft,
		DebounceDelay:  cfg.Editor.DebounceDelay.Std(),
		CoalesceWindow: coalesceWindow(cfg.Editor.CoalesceWindow.Std()),
		MaxHistory:     cfg.Editor.MaxHistory,
		LocalInterval:  cfg.Autosave.LocalInterval.Std(),
		RemoteInterval: cfg.Autosave.RemoteInterval.Std(),
		Retry:          cfg.RetryPolicy(),
	}
}

// coalesceWindow maps a configured window of zero, meaning no merging, to
// the editor's negative disable value.
func coalesceWindow(d time.Duration) time.Duration {
	if d == 0 {
		return -1
	}
	return d
}

// FileDraftID returns a stable draft ID for a file path, so that reopening
// a file recovers its draft.
func FileDraftID(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(path))).String()
}

// InitError represents an initialization error.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("init %s: %v", e.Component, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}
