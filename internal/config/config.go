package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/livemark/internal/config/loader"
	"github.com/dshills/livemark/internal/engine/history"
	"github.com/dshills/livemark/internal/persist"
	"github.com/dshills/livemark/internal/renderer/preview"
)

// Remote kinds.
const (
	RemoteNone  = "none"
	RemoteHTTP  = "http"
	RemoteRedis = "redis"
)

// Duration is a time.Duration written as a string such as "200ms".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// Config is the complete livemark configuration.
type Config struct {
	Editor   EditorConfig   `toml:"editor"`
	Autosave AutosaveConfig `toml:"autosave"`
	Remote   RemoteConfig   `toml:"remote"`
	Storage  StorageConfig  `toml:"storage"`
	Logging  LoggingConfig  `toml:"logging"`
	UI       UIConfig       `toml:"ui"`
}

// EditorConfig holds rendering and history settings.
type EditorConfig struct {
	// DebounceDelay is the pause in typing before the preview re-renders.
	DebounceDelay Duration `toml:"debounceDelay"`

	// CoalesceWindow merges keystrokes closer together than this into one
	// undo step. Zero disables merging.
	CoalesceWindow Duration `toml:"coalesceWindow"`

	// MaxHistory is the number of undo steps kept.
	MaxHistory int `toml:"maxHistory"`

	// RecoverDraft restores the last locally saved draft on start.
	RecoverDraft bool `toml:"recoverDraft"`
}

// AutosaveConfig holds the save cadences and the remote retry policy.
type AutosaveConfig struct {
	LocalInterval     Duration `toml:"localInterval"`
	RemoteInterval    Duration `toml:"remoteInterval"`
	RetryAttempts     int      `toml:"retryAttempts"`
	RetryInitialDelay Duration `toml:"retryInitialDelay"`
	RetryMaxDelay     Duration `toml:"retryMaxDelay"`
	RetryMultiplier   float64  `toml:"retryMultiplier"`
}

// RemoteConfig selects the remote draft store.
type RemoteConfig struct {
	// Kind is "none", "http" or "redis".
	Kind string `toml:"kind"`

	// URL is the API base URL for http and the server URL for redis.
	URL string `toml:"url"`

	// Token is sent as a bearer token to the http remote.
	Token string `toml:"token"`

	// TTL expires drafts kept in redis. Zero keeps them forever.
	TTL Duration `toml:"ttl"`
}

// StorageConfig locates local drafts.
type StorageConfig struct {
	// Dir holds one file per draft. Empty means the user cache directory.
	Dir string `toml:"dir"`
}

// LoggingConfig configures the log output.
type LoggingConfig struct {
	Level string `toml:"level"`

	// File receives log lines. Empty discards them while the terminal UI runs.
	File string `toml:"file"`
}

// UIConfig configures the terminal host.
type UIConfig struct {
	// FadeSymbols dims Markdown syntax characters.
	FadeSymbols bool `toml:"fadeSymbols"`

	// StatusLine shows the save state and warnings.
	StatusLine bool `toml:"statusLine"`
}

// Default returns the built-in configuration.
func Default() *Config {
	retry := persist.DefaultRetryPolicy()
	return &Config{
		Editor: EditorConfig{
			DebounceDelay:  Duration(preview.DefaultDelay),
			CoalesceWindow: Duration(history.DefaultCoalesceWindow),
			MaxHistory:     history.DefaultMaxDepth,
			RecoverDraft:   true,
		},
		Autosave: AutosaveConfig{
			LocalInterval:     Duration(persist.DefaultLocalInterval),
			RemoteInterval:    Duration(persist.DefaultRemoteInterval),
			RetryAttempts:     retry.MaxAttempts,
			RetryInitialDelay: Duration(retry.InitialDelay),
			RetryMaxDelay:     Duration(retry.MaxDelay),
			RetryMultiplier:   retry.Multiplier,
		},
		Remote:  RemoteConfig{Kind: RemoteNone},
		Logging: LoggingConfig{Level: "info"},
		UI:      UIConfig{FadeSymbols: true, StatusLine: true},
	}
}

// RetryPolicy returns the autosave retry settings as a persist.RetryPolicy.
func (c *Config) RetryPolicy() persist.RetryPolicy {
	return persist.RetryPolicy{
		MaxAttempts:  c.Autosave.RetryAttempts,
		InitialDelay: c.Autosave.RetryInitialDelay.Std(),
		MaxDelay:     c.Autosave.RetryMaxDelay.Std(),
		Multiplier:   c.Autosave.RetryMultiplier,
	}
}

// DraftDir returns the configured draft directory, falling back to
// <user cache dir>/livemark/drafts.
func (c *Config) DraftDir() (string, error) {
	if c.Storage.Dir != "" {
		return c.Storage.Dir, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locating cache directory: %w", err)
	}
	return filepath.Join(dir, "livemark", "drafts"), nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// Options controls Load.
type Options struct {
	// Path is the config file. Empty loads defaults and environment only.
	Path string

	// FS reads the config file. Defaults to the OS file system.
	FS loader.FileSystem

	// Env replaces the process environment ("KEY=value" pairs) when non-nil.
	Env []string

	// EnvPrefix defaults to loader.DefaultEnvPrefix.
	EnvPrefix string
}

// Load builds a configuration from defaults, then the config file, then
// the environment, and validates the result. A missing file is not an error.
func Load(opts Options) (*Config, error) {
	if opts.FS == nil {
		opts.FS = loader.DefaultFS()
	}
	if opts.EnvPrefix == "" {
		opts.EnvPrefix = loader.DefaultEnvPrefix
	}

	merged := make(map[string]any)
	if opts.Path != "" {
		l, err := loader.ForPath(opts.FS, opts.Path)
		if err != nil {
			return nil, err
		}
		file, err := l.Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, file)
	}

	env := loader.NewEnvLoader(opts.EnvPrefix)
	if opts.Env != nil {
		env = loader.NewEnvLoaderFrom(opts.EnvPrefix, opts.Env)
	}
	vars, err := env.Load()
	if err != nil {
		return nil, err
	}
	merged = loader.DeepMerge(merged, vars)

	cfg := Default()
	if err := decode(merged, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode overlays values from a loaded map onto cfg. Unknown settings are
// rejected.
func decode(values map[string]any, cfg *Config) error {
	if len(values) == 0 {
		return nil
	}
	data, err := toml.Marshal(values)
	if err != nil {
		return fmt.Errorf("encoding merged config: %w", err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("%w: %s", ErrUnknownSetting, strict.String())
		}
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return nil
}
