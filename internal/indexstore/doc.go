// Package indexstore persists sequence caches in SQLite so directory walks and
// probed metadata survive between runs.
//
// The database lives at [index] store_path. An advisory lock file next to it
// keeps two processes from writing the same snapshot, and bucket file lists
// are stored zstd-compressed.
package indexstore
