package models

import (
	"fmt"
	"time"
)

// DeletionOrigin records where a deletion was initiated.
type DeletionOrigin string

const (
	DeletedLocally  DeletionOrigin = "local"
	DeletedRemotely DeletionOrigin = "remote"
)

// DeletionRecord is a tombstone for a locally deleted file that still exists
// upstream. It survives sync passes so the deletion is not silently undone,
// and is cleared only once the deletion is confirmed committed.
type DeletionRecord struct {
	Path        string         `json:"path"`
	DeletedFrom DeletionOrigin `json:"deleted_from"`
	DeletedAt   time.Time      `json:"deleted_at"`
}

// SubmissionStatus tracks whether a file has been submitted for review.
type SubmissionStatus struct {
	FileKey      string    `json:"file_key"`
	HasSubmitted bool      `json:"has_submitted"`
	Timestamp    time.Time `json:"timestamp"`
}

// FileKey builds the submission-status key for a file in a repository.
func FileKey(owner, repo, path string) string {
	return fmt.Sprintf("%s/%s:%s", owner, repo, path)
}
