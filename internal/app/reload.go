package app

import (
	"github.com/dshills/livemark/internal/config"
	"github.com/dshills/livemark/internal/config/watcher"
	"github.com/dshills/livemark/internal/logging"
)

// handleConfigChange reloads the configuration file after it changes.
func (app *Application) handleConfigChange(ev watcher.Event) {
	log := app.logger.WithComponent("config")
	if ev.Op == watcher.OpRemove || ev.Op == watcher.OpRename {
		log.Warn("config file %s %sd, keeping current settings", ev.Path, ev.Op)
		return
	}
	if err := app.Reload(); err != nil {
		log.Error("reload failed, keeping current settings: %v", err)
	}
}

// Reload re-reads the configuration and applies the settings that can
// change at run time: editor timing, history depth and the log level.
// Storage, remote and autosave settings apply on the next start.
func (app *Application) Reload() error {
	cfg, err := config.Load(config.Options{
		Path: app.opts.ConfigPath,
		Env:  app.opts.Env,
	})
	if err != nil {
		return NewOperationError("reload", app.opts.ConfigPath, err)
	}
	if app.opts.LogLevel != "" {
		cfg.Logging.Level = app.opts.LogLevel
	}

	app.mu.Lock()
	app.config = cfg
	app.mu.Unlock()

	app.logger.SetLevel(logging.ParseLevel(cfg.Logging.Level))
	app.editor.Reconfigure(editorOptions(cfg))
	app.metrics.RecordReload()
	app.logger.Info("configuration reloaded from %s", app.opts.ConfigPath)
	return nil
}
