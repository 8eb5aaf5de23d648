package sync

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dipcp/dipcp/internal/client/github"
	"github.com/dipcp/dipcp/internal/client/kvstore"
	"github.com/dipcp/dipcp/internal/client/models"
	"github.com/dipcp/dipcp/internal/client/settings"
	"github.com/dipcp/dipcp/internal/common"
	"github.com/dipcp/dipcp/internal/logging"
)

// fakeRemote serves an in-memory repository tree. Directory listings are
// derived from the registered file paths, so tests only declare files.
type fakeRemote struct {
	mu        stdsync.Mutex
	files     map[string]string
	failDirs  map[string]error
	failFiles map[string]error
	fetched   []string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		files:     make(map[string]string),
		failDirs:  make(map[string]error),
		failFiles: make(map[string]error),
	}
}

func (f *fakeRemote) put(path, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = content
}

func (f *fakeRemote) remove(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, path)
}

func (f *fakeRemote) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetched)
}

func (f *fakeRemote) ListDirectory(_ context.Context, _, _, dir string) ([]models.RemoteEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failDirs[dir]; err != nil {
		return nil, err
	}

	prefix := ""
	if dir != "" {
		prefix = dir + "/"
	}
	seen := make(map[string]bool)
	var out []models.RemoteEntry
	for path, content := range f.files {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		rest := path[len(prefix):]
		if i := strings.Index(rest, "/"); i >= 0 {
			sub := prefix + rest[:i]
			if !seen[sub] {
				seen[sub] = true
				out = append(out, models.RemoteEntry{Path: sub, Type: models.EntryTypeDir})
			}
			continue
		}
		out = append(out, models.RemoteEntry{
			Path: path,
			SHA:  models.BlobSHA(content),
			Type: models.EntryTypeFile,
			Size: int64(len(content)),
		})
	}
	return out, nil
}

func (f *fakeRemote) FileContent(_ context.Context, _, _, path string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fetched = append(f.fetched, path)
	if err := f.failFiles[path]; err != nil {
		return "", "", err
	}
	content, ok := f.files[path]
	if !ok {
		return "", "", common.ErrNotFound
	}
	return content, models.BlobSHA(content), nil
}

func newSyncer(t *testing.T, remote Remote, opts Options) (*Syncer, *kvstore.SQLiteStore) {
	t.Helper()
	store, err := kvstore.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	st, err := settings.NewStore(t.TempDir())
	require.NoError(t, err)
	return New(remote, store, st, logging.NewDefault(), opts), store
}

func cachedFile(t *testing.T, store kvstore.Store, path string) *models.CachedFile {
	t.Helper()
	entry, err := store.Get(context.Background(), kvstore.PartitionFileCache, path)
	require.NoError(t, err)
	var f models.CachedFile
	require.NoError(t, json.Unmarshal(entry.Value, &f))
	return &f
}

func putTombstone(t *testing.T, store kvstore.Store, path string) {
	t.Helper()
	rec := models.DeletionRecord{
		Path:        path,
		DeletedFrom: models.DeletedLocally,
		DeletedAt:   time.Now(),
	}
	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), kvstore.PartitionLocalWorkspace, &kvstore.Entry{
		Key:   common.DeletionPrefix + path,
		Value: raw,
	}))
}

func TestSyncRepository_InitialDownload(t *testing.T) {
	remote := newFakeRemote()
	remote.put("README.md", "# hello\n")
	remote.put("docs/guide.md", "guide\n")
	s, store := newSyncer(t, remote, Options{})

	info, err := s.SyncRepository(context.Background(), "acme", "proj")
	require.NoError(t, err)

	assert.Equal(t, "acme/proj", info.Repo)
	assert.Equal(t, 2, info.FileCount)
	assert.Equal(t, 2, info.DownloadedCount)
	assert.Zero(t, info.DeletedCount)
	assert.Zero(t, info.FailedDirs)

	f := cachedFile(t, store, "docs/guide.md")
	assert.Equal(t, "guide\n", f.Content)
	assert.Equal(t, models.BlobSHA("guide\n"), f.SHA)
	assert.False(t, f.IsLocal)

	got, err := s.LastSyncInfo("acme", "proj")
	require.NoError(t, err)
	assert.Equal(t, info.FileCount, got.FileCount)
}

func TestSyncRepository_SecondPassIsIdempotent(t *testing.T) {
	remote := newFakeRemote()
	remote.put("a.md", "a")
	remote.put("b.md", "b")
	s, _ := newSyncer(t, remote, Options{})

	_, err := s.SyncRepository(context.Background(), "acme", "proj")
	require.NoError(t, err)
	before := remote.fetchCount()

	info, err := s.SyncRepository(context.Background(), "acme", "proj")
	require.NoError(t, err)

	assert.Equal(t, 2, info.FileCount)
	assert.Zero(t, info.DownloadedCount, "unchanged files must not be re-downloaded")
	assert.Zero(t, info.DeletedCount)
	assert.Equal(t, before, remote.fetchCount())
}

func TestSyncRepository_DownloadsOnlyNewFiles(t *testing.T) {
	remote := newFakeRemote()
	remote.put("a.md", "a")
	s, _ := newSyncer(t, remote, Options{})

	_, err := s.SyncRepository(context.Background(), "acme", "proj")
	require.NoError(t, err)

	remote.put("b.md", "b")
	info, err := s.SyncRepository(context.Background(), "acme", "proj")
	require.NoError(t, err)

	assert.Equal(t, 2, info.FileCount)
	assert.Equal(t, 1, info.DownloadedCount)
	assert.Zero(t, info.DeletedCount)
}

func TestSyncRepository_RedownloadsOnHashChange(t *testing.T) {
	remote := newFakeRemote()
	remote.put("a.md", "v1")
	s, store := newSyncer(t, remote, Options{})

	_, err := s.SyncRepository(context.Background(), "acme", "proj")
	require.NoError(t, err)

	remote.put("a.md", "v2")
	info, err := s.SyncRepository(context.Background(), "acme", "proj")
	require.NoError(t, err)

	assert.Equal(t, 1, info.DownloadedCount)
	assert.Equal(t, "v2", cachedFile(t, store, "a.md").Content)
}

func TestSyncRepository_ReconcilesRemoteDeletions(t *testing.T) {
	remote := newFakeRemote()
	remote.put("a.md", "a")
	remote.put("b.md", "b")
	s, store := newSyncer(t, remote, Options{})

	_, err := s.SyncRepository(context.Background(), "acme", "proj")
	require.NoError(t, err)

	remote.remove("b.md")
	info, err := s.SyncRepository(context.Background(), "acme", "proj")
	require.NoError(t, err)

	assert.Equal(t, 1, info.FileCount)
	assert.Equal(t, 1, info.DeletedCount)
	_, err = store.Get(context.Background(), kvstore.PartitionFileCache, "b.md")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = store.Get(context.Background(), kvstore.PartitionFileCache, "a.md")
	assert.NoError(t, err)
}

func TestSyncRepository_TombstoneBlocksRedownload(t *testing.T) {
	remote := newFakeRemote()
	remote.put("a.md", "a")
	remote.put("b.md", "b")
	s, store := newSyncer(t, remote, Options{})
	putTombstone(t, store, "a.md")

	info, err := s.SyncRepository(context.Background(), "acme", "proj")
	require.NoError(t, err)

	assert.Equal(t, 2, info.FileCount)
	assert.Equal(t, 1, info.DownloadedCount, "only the untombstoned file downloads")
	_, err = store.Get(context.Background(), kvstore.PartitionFileCache, "a.md")
	assert.ErrorIs(t, err, common.ErrNotFound, "the deleted file must not resurrect")

	// The tombstone itself must survive the pass.
	_, err = store.Get(context.Background(), kvstore.PartitionLocalWorkspace, common.DeletionPrefix+"a.md")
	assert.NoError(t, err)
}

func TestSyncRepository_NeverReconcilesDeletionRecords(t *testing.T) {
	remote := newFakeRemote()
	s, store := newSyncer(t, remote, Options{})
	require.NoError(t, store.Put(context.Background(), kvstore.PartitionFileCache, &kvstore.Entry{
		Key:   common.DeletionPrefix + "orphan.md",
		Value: []byte(`{}`),
	}))

	info, err := s.SyncRepository(context.Background(), "acme", "proj")
	require.NoError(t, err)

	assert.Zero(t, info.DeletedCount)
	_, err = store.Get(context.Background(), kvstore.PartitionFileCache, common.DeletionPrefix+"orphan.md")
	assert.NoError(t, err)
}

func TestSyncRepository_CountsFailedSubtrees(t *testing.T) {
	remote := newFakeRemote()
	remote.put("a.md", "a")
	remote.put("docs/b.md", "b")
	remote.failDirs["docs"] = errors.New("boom")
	s, store := newSyncer(t, remote, Options{})

	info, err := s.SyncRepository(context.Background(), "acme", "proj")
	require.NoError(t, err, "a failed subtree must not abort the pass")

	assert.Equal(t, 1, info.FailedDirs)
	assert.Equal(t, 1, info.FileCount)
	_, err = store.Get(context.Background(), kvstore.PartitionFileCache, "a.md")
	assert.NoError(t, err)
}

func TestSyncRepository_SkipsFailedDownloads(t *testing.T) {
	remote := newFakeRemote()
	remote.put("a.md", "a")
	remote.put("b.md", "b")
	remote.failFiles["a.md"] = errors.New("boom")
	s, store := newSyncer(t, remote, Options{})

	info, err := s.SyncRepository(context.Background(), "acme", "proj")
	require.NoError(t, err, "a failed download must not abort the pass")

	assert.Equal(t, 1, info.DownloadedCount)
	_, err = store.Get(context.Background(), kvstore.PartitionFileCache, "a.md")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSyncRepository_AbortsOnRateLimit(t *testing.T) {
	remote := newFakeRemote()
	remote.put("a.md", "a")
	remote.failFiles["a.md"] = &github.RateLimitedError{Remaining: time.Hour}
	s, _ := newSyncer(t, remote, Options{})

	_, err := s.SyncRepository(context.Background(), "acme", "proj")
	require.Error(t, err)
	assert.True(t, github.IsRateLimited(err))

	// An aborted pass leaves no summary behind.
	_, err = s.LastSyncInfo("acme", "proj")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

// drainingRemote holds every download of a batch at a barrier, trips the
// rate limit on one path, and makes the siblings sensitive to context
// cancellation before they deliver content.
type drainingRemote struct {
	*fakeRemote
	ready *stdsync.WaitGroup
	trip  string
}

func (r *drainingRemote) FileContent(ctx context.Context, owner, repo, path string) (string, string, error) {
	r.ready.Done()
	r.ready.Wait()
	if path == r.trip {
		return "", "", &github.RateLimitedError{Remaining: time.Hour}
	}
	select {
	case <-ctx.Done():
		return "", "", ctx.Err()
	case <-time.After(50 * time.Millisecond):
	}
	return r.fakeRemote.FileContent(ctx, owner, repo, path)
}

func TestSyncRepository_RateLimitDrainsInFlightBatch(t *testing.T) {
	inner := newFakeRemote()
	inner.put("a.md", "a")
	inner.put("b.md", "b")
	inner.put("c.md", "c")

	var ready stdsync.WaitGroup
	ready.Add(3)
	remote := &drainingRemote{fakeRemote: inner, ready: &ready, trip: "a.md"}
	s, store := newSyncer(t, remote, Options{DownloadConcurrency: 3})

	_, err := s.SyncRepository(context.Background(), "acme", "proj")
	require.Error(t, err)
	assert.True(t, github.IsRateLimited(err))

	// The siblings that were already in flight when a.md tripped the
	// limit still run to completion and land in the cache.
	assert.Equal(t, "b", cachedFile(t, store, "b.md").Content)
	assert.Equal(t, "c", cachedFile(t, store, "c.md").Content)
}

func TestSyncRepository_ReportsProgress(t *testing.T) {
	remote := newFakeRemote()
	remote.put("a.md", "a")
	remote.put("docs/b.md", "b")

	var mu stdsync.Mutex
	phases := make(map[string]bool)
	s, _ := newSyncer(t, remote, Options{
		Progress: func(phase string, done, total int) {
			mu.Lock()
			defer mu.Unlock()
			phases[phase] = true
			assert.LessOrEqual(t, done, total)
		},
	})

	_, err := s.SyncRepository(context.Background(), "acme", "proj")
	require.NoError(t, err)

	for _, phase := range []string{"walk", "check", "download"} {
		assert.True(t, phases[phase], "missing %s progress", phase)
	}
}
