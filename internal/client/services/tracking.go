package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dipcp/dipcp/internal/client/kvstore"
	"github.com/dipcp/dipcp/internal/client/models"
	"github.com/dipcp/dipcp/internal/common"
	"github.com/dipcp/dipcp/internal/logging"
)

// Tracking records local file deletions as tombstones and tracks per-file
// submission flags.
type Tracking struct {
	store kvstore.Store
	log   logging.Logger
	now   func() time.Time
}

func NewTracking(store kvstore.Store, log logging.Logger) *Tracking {
	return &Tracking{store: store, log: log, now: time.Now}
}

// RecordDeletion writes a tombstone for path so the next sync pass does not
// resurrect the file. A tombstone is only warranted for files the remote
// still has a cached copy of; deleting a purely local file needs none, and
// the call is a no-op then.
func (t *Tracking) RecordDeletion(ctx context.Context, path string, origin models.DeletionOrigin) error {
	_, err := t.store.Get(ctx, kvstore.PartitionFileCache, path)
	if errors.Is(err, common.ErrNotFound) {
		t.log.Debug(ctx, "no cached remote copy, skipping tombstone", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking cached copy of %s: %w", path, err)
	}

	rec := models.DeletionRecord{
		Path:        path,
		DeletedFrom: origin,
		DeletedAt:   t.now(),
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding deletion record: %w", err)
	}
	err = t.store.Put(ctx, kvstore.PartitionLocalWorkspace, &kvstore.Entry{
		Key:   common.DeletionPrefix + path,
		Value: raw,
	})
	if err != nil {
		return fmt.Errorf("recording deletion of %s: %w", path, err)
	}
	return nil
}

// DeletionRecords returns every live tombstone, ordered by path.
func (t *Tracking) DeletionRecords(ctx context.Context) ([]models.DeletionRecord, error) {
	entries, err := t.store.GetAll(ctx, kvstore.PartitionLocalWorkspace)
	if err != nil {
		return nil, err
	}
	var recs []models.DeletionRecord
	for _, e := range entries {
		if !strings.HasPrefix(e.Key, common.DeletionPrefix) {
			continue
		}
		var rec models.DeletionRecord
		if err := json.Unmarshal(e.Value, &rec); err != nil {
			t.log.Warn(ctx, "skipping malformed deletion record", "key", e.Key, "error", err.Error())
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Path < recs[j].Path })
	return recs, nil
}

// ClearDeletionRecords removes the tombstones for paths, best effort: a
// path that fails to clear is logged and the rest still clear. Returns how
// many were removed.
func (t *Tracking) ClearDeletionRecords(ctx context.Context, paths []string) int {
	cleared := 0
	for _, p := range paths {
		if err := t.store.Delete(ctx, kvstore.PartitionLocalWorkspace, common.DeletionPrefix+p); err != nil {
			t.log.Warn(ctx, "failed to clear deletion record", "path", p, "error", err.Error())
			continue
		}
		cleared++
	}
	return cleared
}

// HasSubmitted reports whether the file was marked submitted. Absence of a
// flag means not submitted.
func (t *Tracking) HasSubmitted(ctx context.Context, owner, repo, path string) (bool, error) {
	entry, err := t.store.Get(ctx, kvstore.PartitionSubmissionStatus, models.FileKey(owner, repo, path))
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	var status models.SubmissionStatus
	if err := json.Unmarshal(entry.Value, &status); err != nil {
		return false, fmt.Errorf("decoding submission status: %w", err)
	}
	return status.HasSubmitted, nil
}

// SetSubmitted marks the file submitted (or explicitly not).
func (t *Tracking) SetSubmitted(ctx context.Context, owner, repo, path string, submitted bool) error {
	key := models.FileKey(owner, repo, path)
	status := models.SubmissionStatus{
		FileKey:      key,
		HasSubmitted: submitted,
		Timestamp:    t.now(),
	}
	raw, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encoding submission status: %w", err)
	}
	return t.store.Put(ctx, kvstore.PartitionSubmissionStatus, &kvstore.Entry{Key: key, Value: raw})
}

// ClearSubmission drops the submission flag for the file.
func (t *Tracking) ClearSubmission(ctx context.Context, owner, repo, path string) error {
	return t.store.Delete(ctx, kvstore.PartitionSubmissionStatus, models.FileKey(owner, repo, path))
}
