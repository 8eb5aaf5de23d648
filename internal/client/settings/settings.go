// Package settings stores small flat key → JSON blob values outside the
// structured store: last-sync metadata, the rate-limit block window, saved
// credentials, sync interval and theme/language preferences. Each key is one
// file on disk, so writes to different keys never contend.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dipcp/dipcp/internal/common"
)

// Store reads and writes per-key JSON blobs under a directory.
type Store struct {
	dir string
}

// NewStore creates the settings directory if needed and returns a store
// rooted there.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create settings dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// keys may contain "/" (e.g. "dipcp-sync/owner/repo"); escape them so every
// key maps to a single flat file name.
func (s *Store) pathFor(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}

// Get unmarshals the blob under key into v. Returns common.ErrNotFound when
// the key has never been set.
func (s *Store) Get(key string, v any) error {
	data, err := os.ReadFile(s.pathFor(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return common.ErrNotFound
		}
		return fmt.Errorf("failed to read setting %q: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode setting %q: %w", key, err)
	}
	return nil
}

// Set marshals v and overwrites the blob under key (last write wins). The
// write goes through a temp file and rename so a crash never leaves a
// half-written blob.
func (s *Store) Set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode setting %q: %w", key, err)
	}

	path := s.pathFor(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write setting %q: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit setting %q: %w", key, err)
	}
	return nil
}

// Delete removes the blob under key; absent keys are a no-op.
func (s *Store) Delete(key string) error {
	err := os.Remove(s.pathFor(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete setting %q: %w", key, err)
	}
	return nil
}

// Keys lists every stored key, unescaped.
func (s *Store) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// DeletePrefix removes every key starting with prefix and reports how many
// were deleted. Used by clear-user-data to drop all app-owned settings.
func (s *Store) DeletePrefix(prefix string) (int, error) {
	keys, err := s.Keys()
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if err := s.Delete(key); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}
