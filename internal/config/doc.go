// Package config loads the mlconsole TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/mlconsole/config.toml (default)
//  3. If the config file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing/empty, use defaults
//
// # TOML Format
//
//	master_url = "http://127.0.0.1:8080"
//	poll_interval = "10s"
//	settings_poll_interval = "60s"
//	request_timeout = "10s"
//	metrics_addr = ":9102"
//	sentry_dsn = ""
//
//	[log]
//	level = "info"
//	format = "json"
//	file = "~/.local/state/mlconsole/mlconsole.log"
//
//	[log.loki]
//	enabled = false
//	url = "http://localhost:3100/loki/api/v1/push"
//	labels = { app = "mlconsole" }
//
// Durations use time.ParseDuration syntax and must be positive. Tilde
// expansion is performed on the config path and log.file.
//
// # Error Handling
//
// Load returns errors prefixed "open config", "read config" or
// "parse config". A missing file is not an error.
package config
