package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dipcp/dipcp/internal/client/kvstore"
	"github.com/dipcp/dipcp/internal/client/models"
	"github.com/dipcp/dipcp/internal/client/settings"
)

func openStore(t *testing.T) *kvstore.SQLiteStore {
	t.Helper()
	s, err := kvstore.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func openSettings(t *testing.T) *settings.Store {
	t.Helper()
	st, err := settings.NewStore(t.TempDir())
	require.NoError(t, err)
	return st
}

func putCachedFile(t *testing.T, store kvstore.Store, path, content string) {
	t.Helper()
	file := models.CachedFile{
		Path:    path,
		Content: content,
		SHA:     models.BlobSHA(content),
		Size:    int64(len(content)),
		Type:    models.EntryTypeFile,
	}
	raw, err := json.Marshal(file)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), kvstore.PartitionFileCache, &kvstore.Entry{
		Key:   path,
		Value: raw,
	}))
}
