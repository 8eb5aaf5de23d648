// Package sync implements differential synchronization of a remote GitHub
// repository into the local file cache.
//
// A sync pass runs five strictly sequential phases: enumerate the remote
// tree, diff content hashes against the cache, download changed files,
// reconcile remote deletions, and write one SyncInfo summary. Within a
// phase, work proceeds in bounded concurrent batches; a batch fully
// completes before the next one starts.
//
// The engine is resilient by design: a single file's download failure or a
// single subtree's enumeration failure is logged, counted and skipped
// rather than aborting the pass. The one hard abort is the rate-limit
// guard tripping mid-pass, because continuing would only pile up more
// violations. There is no cross-phase atomicity; a crash mid-pass leaves a
// partially updated cache that the next pass self-heals by re-diffing.
package sync
