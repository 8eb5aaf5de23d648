// Package config loads runtime configuration for the DIPCP client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d string   path of the SQLite database file
//	-s string   directory for settings blobs
//	-i int      sync interval (seconds)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "5m" or integer nanoseconds:
//
//	{
//	  "database_path": "/home/alice/.config/dipcp/dipcp.db",
//	  "settings_dir": "/home/alice/.config/dipcp/settings",
//	  "check_concurrency": 20,
//	  "download_concurrency": 10,
//	  "sync_interval": "5m",
//	  "poll_attempts": 10,
//	  "poll_interval": "15s"
//	}
//
// Primary API
//
//   - type Config                     — all runtime knobs of the client
//   - func LoadConfig() *Config       — builds Config by applying defaults, JSON, then flags
//   - func (*Config) LoadDefaults()   — sets sensible defaults
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
