package catalogdb

import "fmt"

// SchemaVersion is the schema version this package writes for newly
// created catalogs (§3.2, §6.2). Catalogs tagged 1.0 (no "schema" row at
// all) are read-compatible: link-count is treated as 1 and group id as 0.
const SchemaVersion = "2.0"

// DefaultBusyTimeoutMillis: a catalog file may be read by a concurrent
// session while the writer holds it open, so SQLITE_BUSY must back off
// rather than fail fast.
const DefaultBusyTimeoutMillis = 30000

// BuildDSN builds the SQLite DSN for a catalog file: WAL journaling,
// NORMAL synchronous, and a busy_timeout tuned for lock contention
// between a writer session and a read-only consumer of the same file.
func BuildDSN(path string, busyTimeoutMillis int) string {
	if busyTimeoutMillis <= 0 {
		busyTimeoutMillis = DefaultBusyTimeoutMillis
	}
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=%d", path, busyTimeoutMillis)
}

// schemaSQL creates the three logical relations of §3.2 plus the
// optional digest side table of SPEC_FULL.md §4.6. Executed once per
// statement since the libsql driver does not support multi-statement
// Exec.
var schemaSQL = []string{
	`CREATE TABLE IF NOT EXISTS catalog (
		md5path_hi   INTEGER NOT NULL,
		md5path_lo   INTEGER NOT NULL,
		parent_hi    INTEGER NOT NULL,
		parent_lo    INTEGER NOT NULL,
		path         TEXT NOT NULL,
		inode        INTEGER NOT NULL,
		content_hash BLOB NOT NULL,
		size         INTEGER NOT NULL,
		mode         INTEGER NOT NULL,
		mtime        INTEGER NOT NULL,
		flags        INTEGER NOT NULL,
		hardlinks    INTEGER NOT NULL DEFAULT 0,
		uid          INTEGER NOT NULL DEFAULT 0,
		gid          INTEGER NOT NULL DEFAULT 0,
		name         TEXT NOT NULL,
		symlink      TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (md5path_hi, md5path_lo)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_catalog_parent ON catalog (parent_hi, parent_lo)`,
	`CREATE INDEX IF NOT EXISTS idx_catalog_hardlinks ON catalog (hardlinks) WHERE hardlinks != 0`,
	`CREATE INDEX IF NOT EXISTS idx_catalog_path ON catalog (path)`,
	`CREATE TABLE IF NOT EXISTS nested_catalogs (
		mountpoint TEXT NOT NULL,
		hash       TEXT NOT NULL,
		PRIMARY KEY (mountpoint)
	)`,
	`CREATE TABLE IF NOT EXISTS properties (
		key   TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (key)
	)`,
	`CREATE TABLE IF NOT EXISTS catalog_digests (
		md5path_hi INTEGER NOT NULL,
		md5path_lo INTEGER NOT NULL,
		algorithm  TEXT NOT NULL,
		digest     TEXT NOT NULL,
		PRIMARY KEY (md5path_hi, md5path_lo, algorithm)
	)`,
}
