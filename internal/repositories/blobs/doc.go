// Package blobs provides the persisted key-value layer the journal keeps its
// state in: one key holds the JSON array of records, another the settings.
//
// # Overview
//
// Repository is a deliberately small contract (Get/Set/Delete/Revision).
// Every successful Set yields a new revision string, which is what lets a
// store notice that some other process or handle wrote the same key.
//
// Implementations
//
//   - SQLiteRepository  — modernc.org/sqlite, goose migrations; safe to share
//     between processes
//   - BoltRepository    — go.etcd.io/bbolt; one process, many handles
//   - FileRepository    — one file per key in a directory, atomic renames;
//     pairs with the fsnotify-based watcher
//   - MemoryRepository  — process-local map, for tests and embedding
//
// Typical Usage
//
//	repo, _ := blobs.Open(ctx, blobs.BackendSQLite, dataDir)
//	defer repo.Close()
//	rev, _ := repo.Set(ctx, "pwb:pages:v1", []byte("[]"))
//	b, _ := repo.Get(ctx, "pwb:pages:v1") // b.Revision == rev
package blobs
