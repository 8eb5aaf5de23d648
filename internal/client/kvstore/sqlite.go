package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dipcp/dipcp/internal/client/migrations"
	"github.com/dipcp/dipcp/internal/common"
	"github.com/dipcp/dipcp/internal/dbx"
)

// partitionTables maps each Partition to its table name. Table names come
// only from this map, never from caller input, so queries can interpolate
// them safely.
var partitionTables = map[Partition]string{
	PartitionProjects:         "projects",
	PartitionLocalWorkspace:   "local_workspace",
	PartitionFileCache:        "file_cache",
	PartitionMembersCache:     "members_cache",
	PartitionSubmissionStatus: "file_submission_status",
}

// SQLiteStore implements Store over a DBTX.
type SQLiteStore struct {
	db     dbx.DBTX
	closer func() error
}

// NewSQLiteStore returns a store bound to the given DBTX. Use Open to also
// create the database file and apply migrations.
func NewSQLiteStore(db dbx.DBTX) *SQLiteStore {
	return &SQLiteStore{db: db, closer: func() error { return nil }}
}

// Open opens (or creates) the store database at dsn and applies any pending
// schema migrations. Migrations are additive, so reopening an existing
// database at a newer schema version only creates missing partitions.
func Open(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open store database: %w", err)
	}

	// The modernc driver hands each new pooled connection to a ":memory:"
	// DSN its own empty database, and concurrent writers on a file DSN
	// return SQLITE_BUSY. One connection serializes all access.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate store database: %w", err)
	}

	return &SQLiteStore{db: db, closer: db.Close}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}

func tableFor(p Partition) (string, error) {
	table, ok := partitionTables[p]
	if !ok {
		return "", fmt.Errorf("%w: %q", common.ErrUnknownPartition, p)
	}
	return table, nil
}

// Get returns the entry under key, or common.ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, p Partition, key string) (*Entry, error) {
	table, err := tableFor(p)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT key, value, updated_at FROM %s WHERE key = ?`, table)
	row := s.db.QueryRowContext(ctx, query, key)

	var e Entry
	var updatedAt int64
	if err := row.Scan(&e.Key, &e.Value, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", table, key, err)
	}
	e.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &e, nil
}

// Put upserts the entry by key. On conflict the value and timestamp are
// replaced, which gives last-write-wins semantics per key.
func (s *SQLiteStore) Put(ctx context.Context, p Partition, e *Entry) error {
	table, err := tableFor(p)
	if err != nil {
		return err
	}

	updatedAt := e.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	query := fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, table)
	if _, err := s.db.ExecContext(ctx, query, e.Key, e.Value, updatedAt.UnixMilli()); err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", table, e.Key, err)
	}
	return nil
}

// Delete removes the entry under key; absent keys are a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, p Partition, key string) error {
	table, err := tableFor(p)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, table)
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", table, key, err)
	}
	return nil
}

// GetAll returns every entry in the partition ordered by key.
func (s *SQLiteStore) GetAll(ctx context.Context, p Partition) ([]Entry, error) {
	table, err := tableFor(p)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT key, value, updated_at FROM %s ORDER BY key`, table)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		var e Entry
		var updatedAt int64
		if err := rows.Scan(&e.Key, &e.Value, &updatedAt); err != nil {
			return nil, err
		}
		e.UpdatedAt = time.UnixMilli(updatedAt).UTC()
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Clear removes every entry in the partition.
func (s *SQLiteStore) Clear(ctx context.Context, p Partition) error {
	table, err := tableFor(p)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s`, table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	return nil
}

// ClearMany clears the listed partitions in one transaction, so wiping a
// profile cannot stop halfway. A store already bound to a transaction
// clears sequentially within it.
func (s *SQLiteStore) ClearMany(ctx context.Context, ps ...Partition) error {
	db, ok := s.db.(*sql.DB)
	if !ok {
		for _, p := range ps {
			if err := s.Clear(ctx, p); err != nil {
				return err
			}
		}
		return nil
	}

	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		txStore := NewSQLiteStore(tx)
		for _, p := range ps {
			if err := txStore.Clear(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the underlying database when the store owns it.
func (s *SQLiteStore) Close() error {
	return s.closer()
}
