package kvstore

import (
	"context"
	"time"
)

// Partition names one logical table of the store.
type Partition string

const (
	// PartitionProjects holds opaque project data keyed by project id.
	PartitionProjects Partition = "projects"
	// PartitionLocalWorkspace holds locally edited files keyed by path,
	// plus deletion tombstones under the reserved __deletions__/ prefix.
	PartitionLocalWorkspace Partition = "local_workspace"
	// PartitionFileCache holds the synced remote file copies keyed by path.
	PartitionFileCache Partition = "file_cache"
	// PartitionMembersCache holds member lists keyed by project id.
	PartitionMembersCache Partition = "members_cache"
	// PartitionSubmissionStatus holds per-file submission flags keyed by
	// "{owner}/{repo}:{path}".
	PartitionSubmissionStatus Partition = "file_submission_status"
)

// Entry is one stored record: a JSON-encoded value under a string key.
type Entry struct {
	Key       string
	Value     []byte
	UpdatedAt time.Time
}

// Store describes the partitioned key-value operations used by every other
// component. All operations are individually atomic per key; none span keys.
type Store interface {
	// Get returns the entry under key, or common.ErrNotFound.
	Get(ctx context.Context, p Partition, key string) (*Entry, error)

	// Put inserts or overwrites the entry under e.Key (last write wins).
	Put(ctx context.Context, p Partition, e *Entry) error

	// Delete removes the entry under key. Deleting an absent key is not an
	// error (idempotent).
	Delete(ctx context.Context, p Partition, key string) error

	// GetAll returns every entry in the partition, in key order.
	GetAll(ctx context.Context, p Partition) ([]Entry, error)

	// Clear removes every entry in the partition.
	Clear(ctx context.Context, p Partition) error

	// ClearMany removes every entry in each listed partition, atomically
	// when the backend supports it.
	ClearMany(ctx context.Context, ps ...Partition) error

	// Close releases the underlying database handle.
	Close() error
}
