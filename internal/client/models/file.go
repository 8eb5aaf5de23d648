package models

import (
	"crypto/sha1"
	"fmt"
	"time"
)

// EntryType distinguishes files from directories in cache entries.
type EntryType string

const (
	EntryTypeFile EntryType = "file"
	EntryTypeDir  EntryType = "dir"
)

// CachedFile is one entry in the file cache or the local workspace. SHA is
// the git blob hash of Content; the two must never diverge, so every write
// path either copies the hash reported by the remote or recomputes it with
// BlobSHA.
type CachedFile struct {
	Path       string    `json:"path"`
	Content    string    `json:"content"`
	SHA        string    `json:"sha"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
	IsLocal    bool      `json:"is_local"`
	Size       int64     `json:"size"`
	Type       EntryType `json:"type"`
}

// BlobSHA returns the git blob object hash for content, matching the SHA
// GitHub reports for the same bytes ("blob <len>\x00" header + SHA-1).
func BlobSHA(content string) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write([]byte(content))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// NewLocalFile builds a workspace entry for locally edited content.
func NewLocalFile(path, content string, now time.Time) *CachedFile {
	return &CachedFile{
		Path:       path,
		Content:    content,
		SHA:        BlobSHA(content),
		CreatedAt:  now,
		ModifiedAt: now,
		IsLocal:    true,
		Size:       int64(len(content)),
		Type:       EntryTypeFile,
	}
}
