package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dipcp/dipcp/internal/flagx"
	"github.com/dipcp/dipcp/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "5m"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config (which uses time.Duration).
type JsonConfig struct {
	DatabasePath        string         `json:"database_path"`
	SettingsDir         string         `json:"settings_dir"`
	CheckConcurrency    int            `json:"check_concurrency"`
	DownloadConcurrency int            `json:"download_concurrency"`
	SyncInterval        timex.Duration `json:"sync_interval"`
	PollAttempts        int            `json:"poll_attempts"`
	PollInterval        timex.Duration `json:"poll_interval"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c/-config flags via flagx.JsonConfigFlags; when no
// path is given nothing is loaded. Zero-valued JSON fields leave the
// existing Config values alone, so a partial file only overrides what it
// names. Panics on read or unmarshal errors (caller should recover if
// desired).
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.SettingsDir != "" {
		cfg.SettingsDir = jc.SettingsDir
	}
	if jc.CheckConcurrency > 0 {
		cfg.CheckConcurrency = jc.CheckConcurrency
	}
	if jc.DownloadConcurrency > 0 {
		cfg.DownloadConcurrency = jc.DownloadConcurrency
	}
	if jc.SyncInterval.Duration > 0 {
		cfg.SyncInterval = time.Duration(jc.SyncInterval.Duration)
	}
	if jc.PollAttempts > 0 {
		cfg.PollAttempts = jc.PollAttempts
	}
	if jc.PollInterval.Duration > 0 {
		cfg.PollInterval = time.Duration(jc.PollInterval.Duration)
	}
}
