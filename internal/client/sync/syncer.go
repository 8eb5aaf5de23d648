package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dipcp/dipcp/internal/client/github"
	"github.com/dipcp/dipcp/internal/client/kvstore"
	"github.com/dipcp/dipcp/internal/client/models"
	"github.com/dipcp/dipcp/internal/client/settings"
	"github.com/dipcp/dipcp/internal/common"
	"github.com/dipcp/dipcp/internal/logging"
)

const (
	// DefaultCheckConcurrency bounds the batch size for cache lookups and
	// directory listings, which are cheap local or metadata operations.
	DefaultCheckConcurrency = 20
	// DefaultDownloadConcurrency bounds the batch size for content
	// downloads, which are full API requests.
	DefaultDownloadConcurrency = 10
)

// Remote is the subset of the API gateway the engine needs. It is
// satisfied by *github.Gateway.
type Remote interface {
	ListDirectory(ctx context.Context, owner, repo, path string) ([]models.RemoteEntry, error)
	FileContent(ctx context.Context, owner, repo, path string) (content string, sha string, err error)
}

// ProgressFunc receives coarse progress updates during a pass. Phase names
// are "walk", "check", "download" and "reconcile"; done and total count
// items within the current phase. Callbacks fire at batch boundaries, not
// per item.
type ProgressFunc func(phase string, done, total int)

// Options tunes a Syncer. Zero values select the defaults above.
type Options struct {
	CheckConcurrency    int
	DownloadConcurrency int
	Progress            ProgressFunc
}

// Syncer runs differential sync passes against a single store.
type Syncer struct {
	remote   Remote
	store    kvstore.Store
	settings *settings.Store
	log      logging.Logger

	checkN    int
	downloadN int
	progress  ProgressFunc
	now       func() time.Time
}

// New builds a Syncer over the given remote and local stores.
func New(remote Remote, store kvstore.Store, st *settings.Store, log logging.Logger, opts Options) *Syncer {
	s := &Syncer{
		remote:    remote,
		store:     store,
		settings:  st,
		log:       log,
		checkN:    opts.CheckConcurrency,
		downloadN: opts.DownloadConcurrency,
		progress:  opts.Progress,
		now:       time.Now,
	}
	if s.checkN <= 0 {
		s.checkN = DefaultCheckConcurrency
	}
	if s.downloadN <= 0 {
		s.downloadN = DefaultDownloadConcurrency
	}
	if s.progress == nil {
		s.progress = func(string, int, int) {}
	}
	return s
}

// SyncInfoKey returns the settings key under which the summary of the last
// completed pass for owner/repo is stored.
func SyncInfoKey(owner, repo string) string {
	return fmt.Sprintf("%ssync/%s/%s", common.SettingsPrefix, owner, repo)
}

// LastSyncInfo loads the summary of the last completed pass, or
// common.ErrNotFound if the repository has never been synced.
func (s *Syncer) LastSyncInfo(owner, repo string) (*models.SyncInfo, error) {
	var info models.SyncInfo
	if err := s.settings.Get(SyncInfoKey(owner, repo), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SyncRepository runs one full pass and returns its summary. Per-file and
// per-subtree failures are counted, not fatal; the pass aborts with an
// error only when the remote trips the rate limit, when the current pass
// can no longer make progress, or when ctx is cancelled.
func (s *Syncer) SyncRepository(ctx context.Context, owner, repo string) (*models.SyncInfo, error) {
	started := s.now()
	s.log.Info(ctx, "sync started", "owner", owner, "repo", repo)

	entries, failedDirs, err := s.walk(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("enumerating %s/%s: %w", owner, repo, err)
	}

	tombstoned, err := s.tombstonedPaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading deletion records: %w", err)
	}

	toDownload, err := s.check(ctx, entries, tombstoned)
	if err != nil {
		return nil, err
	}

	downloaded, err := s.download(ctx, owner, repo, toDownload)
	if err != nil {
		return nil, err
	}

	deleted, err := s.reconcile(ctx, entries, tombstoned)
	if err != nil {
		return nil, err
	}

	info := &models.SyncInfo{
		LastSync:        started,
		Repo:            owner + "/" + repo,
		FileCount:       len(entries),
		DownloadedCount: downloaded,
		DeletedCount:    deleted,
		FailedDirs:      failedDirs,
	}
	if err := s.settings.Set(SyncInfoKey(owner, repo), info); err != nil {
		return nil, fmt.Errorf("saving sync info: %w", err)
	}

	s.log.Info(ctx, "sync finished",
		"repo", info.Repo,
		"files", info.FileCount,
		"downloaded", info.DownloadedCount,
		"deleted", info.DeletedCount,
		"failed_dirs", info.FailedDirs,
		"took", s.now().Sub(started).String(),
	)
	return info, nil
}

// walk enumerates the remote tree breadth-first and returns every file
// entry. Directories at the same depth are listed in bounded concurrent
// batches. A subtree whose listing fails is logged and counted; its
// descendants are skipped.
func (s *Syncer) walk(ctx context.Context, owner, repo string) ([]models.RemoteEntry, int, error) {
	var (
		mu      sync.Mutex
		files   []models.RemoteEntry
		failed  int
		level   = []string{""}
		visited int
	)

	for len(level) > 0 {
		var next []string

		// A plain group so one failed listing does not cancel the level's
		// in-flight siblings; Wait still surfaces the first error.
		var g errgroup.Group
		g.SetLimit(s.checkN)
		for _, dir := range level {
			dir := dir
			g.Go(func() error {
				entries, err := s.remote.ListDirectory(ctx, owner, repo, dir)
				if err != nil {
					if github.IsRateLimited(err) || ctx.Err() != nil {
						return err
					}
					s.log.Warn(ctx, "skipping unreadable directory", "path", dir, "error", err.Error())
					mu.Lock()
					failed++
					mu.Unlock()
					return nil
				}
				mu.Lock()
				for _, e := range entries {
					switch e.Type {
					case models.EntryTypeDir:
						next = append(next, e.Path)
					case models.EntryTypeFile:
						files = append(files, e)
					}
				}
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, 0, err
		}

		visited += len(level)
		s.progress("walk", visited, visited+len(next))
		level = next
	}

	return files, failed, nil
}

// tombstonedPaths returns the set of repository paths covered by a live
// deletion record. Files in this set are never re-downloaded.
func (s *Syncer) tombstonedPaths(ctx context.Context) (map[string]bool, error) {
	entries, err := s.store.GetAll(ctx, kvstore.PartitionLocalWorkspace)
	if err != nil {
		return nil, err
	}
	paths := make(map[string]bool)
	for _, e := range entries {
		if !strings.HasPrefix(e.Key, common.DeletionPrefix) {
			continue
		}
		var rec models.DeletionRecord
		if err := json.Unmarshal(e.Value, &rec); err != nil {
			s.log.Warn(ctx, "skipping malformed deletion record", "key", e.Key, "error", err.Error())
			continue
		}
		paths[rec.Path] = true
	}
	return paths, nil
}

// check diffs remote entries against the cache and returns the subset that
// needs downloading: entries missing locally or whose git blob hash
// differs. Tombstoned paths are excluded outright.
func (s *Syncer) check(ctx context.Context, entries []models.RemoteEntry, tombstoned map[string]bool) ([]models.RemoteEntry, error) {
	var (
		mu   sync.Mutex
		need []models.RemoteEntry
		done int
	)

	for _, batch := range chunk(entries, s.checkN) {
		var g errgroup.Group
		for _, e := range batch {
			e := e
			g.Go(func() error {
				if tombstoned[e.Path] {
					return nil
				}
				entry, err := s.store.Get(ctx, kvstore.PartitionFileCache, e.Path)
				if err != nil {
					if !errors.Is(err, common.ErrNotFound) {
						s.log.Warn(ctx, "cache check failed, forcing download", "path", e.Path, "error", err.Error())
					}
					mu.Lock()
					need = append(need, e)
					mu.Unlock()
					return nil
				}
				var cached models.CachedFile
				if err := json.Unmarshal(entry.Value, &cached); err != nil || cached.SHA != e.SHA {
					mu.Lock()
					need = append(need, e)
					mu.Unlock()
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		done += len(batch)
		s.progress("check", done, len(entries))
	}

	return need, nil
}

// download fetches each entry's content and writes it to the cache with
// the remote hash. A failed download is logged and skipped; a rate-limit
// trip aborts the pass.
func (s *Syncer) download(ctx context.Context, owner, repo string, entries []models.RemoteEntry) (int, error) {
	var (
		mu         sync.Mutex
		downloaded int
		done       int
	)

	for _, batch := range chunk(entries, s.downloadN) {
		// One tripped download must not cancel its in-flight batch
		// siblings; the batch drains, then Wait aborts the pass.
		var g errgroup.Group
		for _, e := range batch {
			e := e
			g.Go(func() error {
				content, sha, err := s.remote.FileContent(ctx, owner, repo, e.Path)
				if err != nil {
					if github.IsRateLimited(err) || ctx.Err() != nil {
						return err
					}
					s.log.Warn(ctx, "download failed, skipping file", "path", e.Path, "error", err.Error())
					return nil
				}
				now := s.now()
				file := models.CachedFile{
					Path:       e.Path,
					Content:    content,
					SHA:        sha,
					CreatedAt:  now,
					ModifiedAt: now,
					Size:       int64(len(content)),
					Type:       models.EntryTypeFile,
				}
				raw, err := json.Marshal(file)
				if err != nil {
					return fmt.Errorf("encoding %s: %w", e.Path, err)
				}
				if err := s.store.Put(ctx, kvstore.PartitionFileCache, &kvstore.Entry{Key: e.Path, Value: raw}); err != nil {
					return fmt.Errorf("caching %s: %w", e.Path, err)
				}
				mu.Lock()
				downloaded++
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return 0, err
		}
		done += len(batch)
		s.progress("download", done, len(entries))
	}

	return downloaded, nil
}

// reconcile removes cached files that no longer exist remotely. Deletion
// records and tombstoned paths are never touched, so a locally deleted
// file does not look like a remote deletion and local tombstones survive
// every pass.
func (s *Syncer) reconcile(ctx context.Context, entries []models.RemoteEntry, tombstoned map[string]bool) (int, error) {
	remote := make(map[string]bool, len(entries))
	for _, e := range entries {
		remote[e.Path] = true
	}

	cached, err := s.store.GetAll(ctx, kvstore.PartitionFileCache)
	if err != nil {
		return 0, err
	}

	var stale []string
	for _, e := range cached {
		if strings.HasPrefix(e.Key, common.DeletionPrefix) {
			continue
		}
		if remote[e.Key] || tombstoned[e.Key] {
			continue
		}
		stale = append(stale, e.Key)
	}

	var (
		mu      sync.Mutex
		deleted int
		done    int
	)
	for _, batch := range chunk(stale, s.checkN) {
		var g errgroup.Group
		for _, key := range batch {
			key := key
			g.Go(func() error {
				if err := s.store.Delete(ctx, kvstore.PartitionFileCache, key); err != nil {
					s.log.Warn(ctx, "failed to drop stale cache entry", "path", key, "error", err.Error())
					return nil
				}
				mu.Lock()
				deleted++
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return 0, err
		}
		done += len(batch)
		s.progress("reconcile", done, len(stale))
	}

	return deleted, nil
}

// chunk splits items into consecutive batches of at most n.
func chunk[T any](items []T, n int) [][]T {
	if n <= 0 {
		n = 1
	}
	var out [][]T
	for len(items) > 0 {
		m := n
		if len(items) < m {
			m = len(items)
		}
		out = append(out, items[:m])
		items = items[m:]
	}
	return out
}
