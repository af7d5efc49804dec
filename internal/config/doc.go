// Package config loads the livemark configuration.
//
// Settings are resolved in three layers, later layers overriding earlier:
//
//  1. Built-in defaults (Default)
//  2. A config file, TOML or YAML by extension
//  3. Environment variables prefixed with LIVEMARK_
//
// Environment variables map onto setting paths by section and camel-cased
// name: LIVEMARK_EDITOR_DEBOUNCE_DELAY sets editor.debounceDelay. A few
// string settings have shorter names, such as LIVEMARK_LOG_LEVEL and
// LIVEMARK_DRAFT_DIR.
//
// # Example
//
//	[editor]
//	debounceDelay = "250ms"
//	coalesceWindow = "150ms"
//	maxHistory = 500
//
//	[autosave]
//	localInterval = "2s"
//	remoteInterval = "30s"
//
//	[remote]
//	kind = "http"
//	url = "https://drafts.example.com/api"
//
// Durations are strings accepted by time.ParseDuration. Unknown settings
// are rejected so typos surface at start-up.
//
// # Sub-packages
//
//   - loader: reads files and the environment into nested maps
//   - watcher: reports changes to the config file for live reload
package config
