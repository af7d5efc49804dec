package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Errors returned by configuration operations.
var (
	// ErrUnknownSetting indicates a setting path that doesn't exist.
	ErrUnknownSetting = errors.New("unknown setting")

	// ErrInvalidValue indicates a value of the wrong type or format.
	ErrInvalidValue = errors.New("invalid value")

	// ErrValidationFailed indicates a value outside its allowed range.
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError describes a validation failure for a setting.
type ValidationError struct {
	// Path is the setting path, e.g. "editor.maxHistory".
	Path    string
	Message string
	Value   any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Path, e.Message, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

var logLevels = []string{"debug", "info", "warn", "warning", "error"}

// Validate checks every setting and returns all failures joined.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, path, msg string, value any) {
		if !ok {
			errs = append(errs, &ValidationError{Path: path, Message: msg, Value: value})
		}
	}

	e := c.Editor
	check(e.DebounceDelay > 0, "editor.debounceDelay", "must be positive", e.DebounceDelay)
	check(e.CoalesceWindow >= 0, "editor.coalesceWindow", "must not be negative", e.CoalesceWindow)
	check(e.MaxHistory >= 1, "editor.maxHistory", "must be at least 1", e.MaxHistory)

	a := c.Autosave
	check(a.LocalInterval > 0, "autosave.localInterval", "must be positive", a.LocalInterval)
	check(a.RemoteInterval > 0, "autosave.remoteInterval", "must be positive", a.RemoteInterval)
	check(a.RetryAttempts >= 1, "autosave.retryAttempts", "must be at least 1", a.RetryAttempts)
	check(a.RetryInitialDelay > 0, "autosave.retryInitialDelay", "must be positive", a.RetryInitialDelay)
	check(a.RetryMaxDelay >= a.RetryInitialDelay, "autosave.retryMaxDelay", "must not be below retryInitialDelay", a.RetryMaxDelay)
	check(a.RetryMultiplier >= 1, "autosave.retryMultiplier", "must be at least 1", a.RetryMultiplier)

	r := c.Remote
	switch r.Kind {
	case RemoteNone:
	case RemoteHTTP, RemoteRedis:
		u, err := url.Parse(r.URL)
		check(err == nil && u.Scheme != "" && u.Host != "", "remote.url", "must be an absolute URL", r.URL)
		if err == nil && r.Kind == RemoteHTTP {
			check(u.Scheme == "http" || u.Scheme == "https", "remote.url", "must use http or https", r.URL)
		}
	default:
		check(false, "remote.kind", "must be none, http or redis", r.Kind)
	}
	check(r.TTL >= 0, "remote.ttl", "must not be negative", r.TTL)

	level := strings.ToLower(c.Logging.Level)
	known := false
	for _, l := range logLevels {
		known = known || l == level
	}
	check(known, "logging.level", "must be debug, info, warn or error", c.Logging.Level)

	return errors.Join(errs...)
}
