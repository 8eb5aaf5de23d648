// Package kvstore is the partitioned key-value store backing the offline
// cache. Each partition is one SQLite table holding JSON-encoded records
// keyed by string; the partition set is fixed at compile time and grown only
// through additive schema migrations.
//
// Operations are individually atomic per key. There are no cross-key
// transactions: a crash between two puts leaves the first one durable, and
// concurrent writers to the same key resolve last-write-wins. Callers that
// can tolerate a degraded read are expected to catch ErrNotFound (and log
// store failures) rather than retry.
package kvstore
