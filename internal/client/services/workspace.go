package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dipcp/dipcp/internal/client/kvstore"
	"github.com/dipcp/dipcp/internal/client/models"
	"github.com/dipcp/dipcp/internal/client/settings"
	"github.com/dipcp/dipcp/internal/common"
	"github.com/dipcp/dipcp/internal/logging"
)

// Workspace manages locally edited files and read-through access to cached
// content.
type Workspace struct {
	store    kvstore.Store
	settings *settings.Store
	log      logging.Logger
	now      func() time.Time
}

func NewWorkspace(store kvstore.Store, st *settings.Store, log logging.Logger) *Workspace {
	return &Workspace{store: store, settings: st, log: log, now: time.Now}
}

// SaveLocalFile stores locally edited content under path. The entry carries
// the git blob hash of the content, so a later sync pass can compare it
// against the remote hash directly.
func (w *Workspace) SaveLocalFile(ctx context.Context, path, content string) (*models.CachedFile, error) {
	if strings.HasPrefix(path, common.DeletionPrefix) {
		return nil, fmt.Errorf("path %q is in the reserved deletion namespace", path)
	}
	file := models.NewLocalFile(path, content, w.now())
	raw, err := json.Marshal(file)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", path, err)
	}
	err = w.store.Put(ctx, kvstore.PartitionLocalWorkspace, &kvstore.Entry{Key: path, Value: raw})
	if err != nil {
		return nil, fmt.Errorf("saving %s: %w", path, err)
	}
	return file, nil
}

// LocalFile returns the locally edited file at path, or common.ErrNotFound.
func (w *Workspace) LocalFile(ctx context.Context, path string) (*models.CachedFile, error) {
	entry, err := w.store.Get(ctx, kvstore.PartitionLocalWorkspace, path)
	if err != nil {
		return nil, err
	}
	var file models.CachedFile
	if err := json.Unmarshal(entry.Value, &file); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &file, nil
}

// DeleteLocalFile removes the locally edited file at path. Idempotent.
func (w *Workspace) DeleteLocalFile(ctx context.Context, path string) error {
	return w.store.Delete(ctx, kvstore.PartitionLocalWorkspace, path)
}

// DeleteCachedFile removes the synced copy of path from the file cache.
// Idempotent.
func (w *Workspace) DeleteCachedFile(ctx context.Context, path string) error {
	return w.store.Delete(ctx, kvstore.PartitionFileCache, path)
}

// LocalFiles lists every locally edited file, in path order. Deletion
// tombstones share the partition but are not files and are skipped.
func (w *Workspace) LocalFiles(ctx context.Context) ([]models.CachedFile, error) {
	entries, err := w.store.GetAll(ctx, kvstore.PartitionLocalWorkspace)
	if err != nil {
		return nil, err
	}
	var files []models.CachedFile
	for _, e := range entries {
		if strings.HasPrefix(e.Key, common.DeletionPrefix) {
			continue
		}
		var file models.CachedFile
		if err := json.Unmarshal(e.Value, &file); err != nil {
			w.log.Warn(ctx, "skipping malformed workspace entry", "key", e.Key, "error", err.Error())
			continue
		}
		files = append(files, file)
	}
	return files, nil
}

// FileContent reads through the caches: the synced remote copy first, then
// the local workspace. common.ErrNotFound when neither has the path.
func (w *Workspace) FileContent(ctx context.Context, path string) (*models.CachedFile, error) {
	entry, err := w.store.Get(ctx, kvstore.PartitionFileCache, path)
	if errors.Is(err, common.ErrNotFound) {
		return w.LocalFile(ctx, path)
	}
	if err != nil {
		return nil, err
	}
	var file models.CachedFile
	if err := json.Unmarshal(entry.Value, &file); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &file, nil
}

// ClearCache drops the synced copies and the derived caches. Local edits
// and tombstones survive; the next sync pass rebuilds the rest.
func (w *Workspace) ClearCache(ctx context.Context) error {
	err := w.store.ClearMany(ctx,
		kvstore.PartitionFileCache,
		kvstore.PartitionProjects,
		kvstore.PartitionMembersCache,
	)
	if err != nil {
		return fmt.Errorf("clearing caches: %w", err)
	}
	return nil
}

// ClearUserData wipes everything: all store partitions and every settings
// key under the application prefix. Used on logout-and-forget.
func (w *Workspace) ClearUserData(ctx context.Context) error {
	err := w.store.ClearMany(ctx,
		kvstore.PartitionProjects,
		kvstore.PartitionLocalWorkspace,
		kvstore.PartitionFileCache,
		kvstore.PartitionMembersCache,
		kvstore.PartitionSubmissionStatus,
	)
	if err != nil {
		return fmt.Errorf("clearing store: %w", err)
	}
	n, err := w.settings.DeletePrefix(common.SettingsPrefix)
	if err != nil {
		return fmt.Errorf("clearing settings: %w", err)
	}
	w.log.Info(ctx, "user data cleared", "settings_removed", n)
	return nil
}
