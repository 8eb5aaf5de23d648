package models

import "time"

// SyncInfo summarizes one completed sync pass. It is written once, as the
// final step of the pass, and overwritten whole on the next pass.
type SyncInfo struct {
	LastSync        time.Time `json:"last_sync"`
	Repo            string    `json:"repo"`
	FileCount       int       `json:"file_count"`
	DownloadedCount int       `json:"downloaded_count"`
	DeletedCount    int       `json:"deleted_count"`

	// FailedDirs counts subtrees that could not be enumerated during the
	// tree walk. Non-zero means the pass may be incomplete and a re-sync
	// is advisable.
	FailedDirs int `json:"failed_dirs"`
}

// RateLimitState is the persisted form of the rate-limit guard's Blocked
// state. A single global instance exists at most; last writer wins.
type RateLimitState struct {
	BlockedUntil time.Time `json:"blocked_until"`
	RecordedAt   time.Time `json:"recorded_at"`
}
