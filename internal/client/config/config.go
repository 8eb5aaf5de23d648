package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the DIPCP client.
//
// Fields:
//   - DatabasePath: location of the SQLite file backing the key-value store.
//   - SettingsDir: directory holding the per-key settings blobs.
//   - CheckConcurrency / DownloadConcurrency: batch sizes of the sync engine.
//   - SyncInterval: how often a background sync pass is due.
//   - PollAttempts / PollInterval: workflow-run polling budget.
type Config struct {
	DatabasePath        string
	SettingsDir         string
	CheckConcurrency    int
	DownloadConcurrency int
	SyncInterval        time.Duration
	PollAttempts        int
	PollInterval        time.Duration
}

// LoadDefaults populates c with sensible defaults. Data lives under the
// platform user config dir when resolvable, the working directory otherwise.
func (c *Config) LoadDefaults() {
	base := "."
	if dir, err := os.UserConfigDir(); err == nil {
		base = filepath.Join(dir, "dipcp")
	}
	c.DatabasePath = filepath.Join(base, "dipcp.db")
	c.SettingsDir = filepath.Join(base, "settings")
	c.CheckConcurrency = 20
	c.DownloadConcurrency = 10
	c.SyncInterval = 5 * time.Minute
	c.PollAttempts = 10
	c.PollInterval = 15 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
