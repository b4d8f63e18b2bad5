// Package catalogdb implements the persistent, per-catalog SQLite store
// described in §3.2 and §4.1: one file per catalog,
// one row per directory entry keyed by path-MD5, a nested_catalogs index
// of mountpoints, and a small properties table carrying schema metadata.
package catalogdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "github.com/tursodatabase/go-libsql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"catalogfs/internal/catalogerr"
	"catalogfs/internal/chash"
	"catalogfs/internal/dirent"
	"catalogfs/internal/pathutil"
	"catalogfs/internal/util"
)

// DB wraps one open catalog file: its bun handle plus the path it was
// opened from, for error messages and for the writable manager's mount
// bookkeeping.
type DB struct {
	path string
	sql  *sql.DB
	bun  *bun.DB

	// envLookup resolves $(VAR) references in a stored symlink target
	// (§3.1). nil falls back to os.LookupEnv (see expandSymlink); the
	// writable manager sets this to its injected collab.Environment via
	// SetEnvLookup right after mounting.
	envLookup func(string) (string, bool)
}

// SetEnvLookup wires the collaborator that resolves $(VAR) references in
// stored symlink targets (§6.1's Environment interface). Called by the
// manager immediately after Create/Open/mount; a DB with no envLookup
// set falls back to the real process environment.
func (db *DB) SetEnvLookup(lookup func(string) (string, bool)) {
	db.envLookup = lookup
}

// Options configures how a catalog file's SQLite connection is tuned.
// The zero value uses DefaultBusyTimeoutMillis.
type Options struct {
	BusyTimeoutMillis int
}

// execPragma runs a PRAGMA via Query rather than Exec because libsql
// returns a result set for PRAGMA statements; the rows are drained and
// discarded.
func execPragma(db *sql.DB, pragma string) error {
	rows, err := db.Query(pragma)
	if err != nil {
		return err
	}
	return rows.Close()
}

// applyPragmas sets the PRAGMAs a catalog file needs on every connection.
// libsql ignores DSN-embedded _pragma parameters, so each must be issued
// as an explicit statement after the connection opens; busy_timeout goes
// first so the WAL conversion below can wait out a concurrent writer
// instead of failing immediately with "database is locked".
func applyPragmas(db *sql.DB, opt Options) error {
	timeout := opt.BusyTimeoutMillis
	if timeout <= 0 {
		timeout = DefaultBusyTimeoutMillis
	}
	if err := execPragma(db, fmt.Sprintf("PRAGMA busy_timeout = %d", timeout)); err != nil {
		return fmt.Errorf("catalogdb: busy_timeout: %w", err)
	}
	if err := execPragma(db, "PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("catalogdb: journal_mode: %w", err)
	}
	if err := execPragma(db, "PRAGMA synchronous=NORMAL"); err != nil {
		return fmt.Errorf("catalogdb: synchronous: %w", err)
	}
	return nil
}

func openConn(path string, opt Options) (*sql.DB, *bun.DB, error) {
	sqlDB, err := sql.Open("libsql", BuildDSN(path, opt.BusyTimeoutMillis))
	if err != nil {
		return nil, nil, fmt.Errorf("catalogdb: open %q: %w", path, err)
	}
	if err := applyPragmas(sqlDB, opt); err != nil {
		sqlDB.Close()
		return nil, nil, err
	}
	bunDB := bun.NewDB(sqlDB, sqlitedialect.New())
	return sqlDB, bunDB, nil
}

// Create initializes a new catalog file at path, creating its schema and
// inserting rootEntry as the single row at the catalog's own root (§4.1:
// "Create(path, root_entry, root_prefix) creates the schema, inserts one
// row ..., sets schema=2.0 and revision=0"). rootPrefix is recorded as a
// property and is "" for the repository's own root catalog. It fails if
// path already exists.
func Create(ctx context.Context, path string, opt Options, rootEntry dirent.Entry, rootPrefix string) (*DB, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, catalogerr.Wrap(catalogerr.ErrAlreadyExists, "create", path, nil)
	}
	sqlDB, bunDB, err := openConn(path, opt)
	if err != nil {
		return nil, err
	}
	for _, stmt := range schemaSQL {
		if _, err := sqlDB.ExecContext(ctx, stmt); err != nil {
			sqlDB.Close()
			os.Remove(path)
			return nil, catalogerr.Wrap(catalogerr.ErrIoFailure, "create-schema", path, err)
		}
	}
	db := &DB{path: path, sql: sqlDB, bun: bunDB}
	fail := func(err error) (*DB, error) {
		sqlDB.Close()
		os.Remove(path)
		return nil, err
	}
	if err := db.setProperty(ctx, "schema", SchemaVersion); err != nil {
		return fail(err)
	}
	if err := db.setProperty(ctx, "revision", "0"); err != nil {
		return fail(err)
	}
	if rootPrefix != "" {
		if err := db.setProperty(ctx, "root_prefix", rootPrefix); err != nil {
			return fail(err)
		}
	}
	if rootEntry.Inode == 0 {
		rootEntry.Inode = 1
	}
	if err := db.setProperty(ctx, "next_inode", fmt.Sprintf("%d", rootEntry.Inode+1)); err != nil {
		return fail(err)
	}
	rootPath := rootPrefix
	if err := db.insertRoot(ctx, rootPath, rootEntry); err != nil {
		return fail(err)
	}
	return db, nil
}

// Open opens an existing catalog file and validates its schema version.
func Open(ctx context.Context, path string, opt Options) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, catalogerr.Wrap(catalogerr.ErrNotFound, "open", path, err)
	}
	sqlDB, bunDB, err := openConn(path, opt)
	if err != nil {
		return nil, err
	}
	db := &DB{path: path, sql: sqlDB, bun: bunDB}
	version, err := db.Property(ctx, "schema")
	if errors.Is(err, catalogerr.ErrNotFound) {
		// No schema row at all: a 1.0 catalog (see SchemaVersion).
		version, err = "1.0", nil
	}
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	if version != SchemaVersion && version != "1.0" {
		sqlDB.Close()
		return nil, catalogerr.Wrap(catalogerr.ErrSchemaMismatch, "open", path,
			fmt.Errorf("have %q, want %q", version, SchemaVersion))
	}
	return db, nil
}

// Close releases the underlying SQLite connection.
func (db *DB) Close() error { return db.sql.Close() }

// Finalize flushes the catalog's WAL back into the main database file so
// the on-disk bytes the upload spooler reads are self-contained (§4.3
// snapshot step "b: ask the database to finalize the file"). It is a
// checkpoint, not a schema change, and is safe to call on a clean catalog.
func (db *DB) Finalize(ctx context.Context) error {
	if err := execPragma(db.sql, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return catalogerr.Wrap(catalogerr.ErrIoFailure, "finalize", db.path, err)
	}
	return nil
}

// Path returns the catalog file's on-disk path.
func (db *DB) Path() string { return db.path }

// Property reads a value from the properties table.
func (db *DB) Property(ctx context.Context, key string) (string, error) {
	var row propertyRow
	err := db.bun.NewSelect().Model(&row).Where("key = ?", key).Scan(ctx)
	if err == sql.ErrNoRows {
		return "", catalogerr.Wrap(catalogerr.ErrNotFound, "property", key, nil)
	}
	if err != nil {
		return "", catalogerr.Wrap(catalogerr.ErrIoFailure, "property", key, err)
	}
	return row.Value, nil
}

func (db *DB) setProperty(ctx context.Context, key, value string) error {
	_, err := db.bun.NewInsert().
		Model(&propertyRow{Key: key, Value: value}).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Exec(ctx)
	if err != nil {
		return catalogerr.Wrap(catalogerr.ErrIoFailure, "set-property", key, err)
	}
	return nil
}

// SetProperty is the exported form of setProperty, used by the manager to
// move a catalog's next_inode counter past the rows a nested-catalog split
// or join has copied into it.
func (db *DB) SetProperty(ctx context.Context, key, value string) error {
	return db.setProperty(ctx, key, value)
}

// Revision returns the catalog's monotonically increasing write counter
// (SPEC_FULL.md's substitute for the "write epoch" the original exposes;
// see the Glossary entry for the rejected term).
func (db *DB) Revision(ctx context.Context) (int64, error) {
	s, err := db.Property(ctx, "revision")
	if err != nil {
		return 0, err
	}
	var rev int64
	if _, err := fmt.Sscanf(s, "%d", &rev); err != nil {
		return 0, catalogerr.Wrap(catalogerr.ErrIoFailure, "revision", db.path, err)
	}
	return rev, nil
}

// BumpRevision increments and persists the revision counter, returning the
// new value. Callers hold the manager's write mutex while calling this.
func (db *DB) BumpRevision(ctx context.Context) (int64, error) {
	rev, err := db.Revision(ctx)
	if err != nil {
		return 0, err
	}
	rev++
	if err := db.setProperty(ctx, "revision", fmt.Sprintf("%d", rev)); err != nil {
		return 0, err
	}
	return rev, nil
}

func withRetry[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	return util.RetryWithResult(ctx, fn, util.DatabaseRetryOptions(ctx)...)
}

// LookupPathHash returns the entry stored at the given path-MD5 key, with
// any $(VAR) references in a symlink target already expanded. It fails
// with ErrNotFound if no row occupies that key.
func (db *DB) LookupPathHash(ctx context.Context, key chash.Md5) (dirent.Entry, error) {
	return withRetry(ctx, func() (dirent.Entry, error) {
		var row catalogRow
		err := db.bun.NewSelect().Model(&row).
			Where("md5path_hi = ? AND md5path_lo = ?", key.Hi, key.Lo).
			Scan(ctx)
		if err == sql.ErrNoRows {
			return dirent.Entry{}, catalogerr.Wrap(catalogerr.ErrNotFound, "lookup", key.String(), nil)
		}
		if err != nil {
			return dirent.Entry{}, catalogerr.Wrap(catalogerr.ErrIoFailure, "lookup", key.String(), err)
		}
		e := toEntry(&row)
		if e.IsLink() {
			e.Symlink = expandSymlink(e.Symlink, db.envLookup)
		}
		return e, nil
	})
}

// ListChildren returns every entry whose parent key matches parentKey, in
// no particular order; the caller sorts if a deterministic listing order
// matters (§4.1 "directory listing").
func (db *DB) ListChildren(ctx context.Context, parentKey chash.Md5) ([]dirent.Entry, error) {
	return withRetry(ctx, func() ([]dirent.Entry, error) {
		var rows []catalogRow
		err := db.bun.NewSelect().Model(&rows).
			Where("parent_hi = ? AND parent_lo = ?", parentKey.Hi, parentKey.Lo).
			Scan(ctx)
		if err != nil {
			return nil, catalogerr.Wrap(catalogerr.ErrIoFailure, "list", parentKey.String(), err)
		}
		out := make([]dirent.Entry, len(rows))
		for i := range rows {
			out[i] = toEntry(&rows[i])
			if out[i].IsLink() {
				out[i].Symlink = expandSymlink(out[i].Symlink, db.envLookup)
			}
		}
		return out, nil
	})
}

// Insert adds a new row for path, failing with ErrAlreadyExists if a row
// already occupies that path-MD5 key (§3.3 invariant: path-MD5 values are
// unique within a catalog). Its parent key is the hash of pathutil.Parent
// (path), meaning path must already be rooted within this catalog; use
// insertRoot for the one row per catalog that has no in-catalog parent.
func (db *DB) Insert(ctx context.Context, path string, e dirent.Entry) error {
	return db.insertWithParentPath(ctx, path, pathutil.Parent(path), e)
}

// insertRoot inserts the single row that has no parent within this
// catalog: the repository root, or a nested catalog's own root entry
// (§3.3: "the root entry has a parent key of MD5(\"\") i.e. all zeros",
// true uniformly whether or not the catalog itself is nested).
func (db *DB) insertRoot(ctx context.Context, path string, e dirent.Entry) error {
	return db.insertWithParentPath(ctx, path, "", e)
}

func (db *DB) insertWithParentPath(ctx context.Context, path, parentPath string, e dirent.Entry) error {
	pathHash := chash.SumPath(path)
	parentHash := chash.SumPath(parentPath)
	_, err := withRetry(ctx, func() (struct{}, error) {
		if e.Inode == 0 {
			localInode, err := db.nextLocalInode(ctx)
			if err != nil {
				return struct{}{}, err
			}
			e.Inode = localInode
		}
		row := toRow(path, pathHash, parentHash, e)
		_, err := db.bun.NewInsert().Model(row).Exec(ctx)
		return struct{}{}, err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return catalogerr.Wrap(catalogerr.ErrAlreadyExists, "insert", path, err)
		}
		return catalogerr.Wrap(catalogerr.ErrIoFailure, "insert", path, err)
	}
	return nil
}

// nextLocalInode increments and returns this catalog's local inode
// counter. The root row created by Create occupies inode 1.
func (db *DB) nextLocalInode(ctx context.Context) (uint64, error) {
	s, err := db.Property(ctx, "next_inode")
	var next uint64 = 2
	if err == nil {
		fmt.Sscanf(s, "%d", &next)
	} else if !errors.Is(err, catalogerr.ErrNotFound) {
		return 0, err
	}
	if err := db.setProperty(ctx, "next_inode", fmt.Sprintf("%d", next+1)); err != nil {
		return 0, err
	}
	return next, nil
}

// Update overwrites the row at path with e's fields, failing with
// ErrNotFound if no row occupies that path-MD5 key.
func (db *DB) Update(ctx context.Context, path string, e dirent.Entry) error {
	pathHash := chash.SumPath(path)
	res, err := withRetry(ctx, func() (sql.Result, error) {
		row := toRow(path, pathHash, chash.SumPath(parentOf(path)), e)
		return db.bun.NewUpdate().Model(row).
			Where("md5path_hi = ? AND md5path_lo = ?", pathHash.Hi, pathHash.Lo).
			Exec(ctx)
	})
	if err != nil {
		return catalogerr.Wrap(catalogerr.ErrIoFailure, "update", path, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return catalogerr.Wrap(catalogerr.ErrNotFound, "update", path, nil)
	}
	return nil
}

// Remove deletes the row at path, failing with ErrNotFound if no row
// occupies that path-MD5 key.
func (db *DB) Remove(ctx context.Context, path string) error {
	pathHash := chash.SumPath(path)
	res, err := withRetry(ctx, func() (sql.Result, error) {
		return db.bun.NewDelete().Model((*catalogRow)(nil)).
			Where("md5path_hi = ? AND md5path_lo = ?", pathHash.Hi, pathHash.Lo).
			Exec(ctx)
	})
	if err != nil {
		return catalogerr.Wrap(catalogerr.ErrIoFailure, "remove", path, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return catalogerr.Wrap(catalogerr.ErrNotFound, "remove", path, nil)
	}
	return nil
}

// Touch updates an entry's mtime without disturbing any other field.
func (db *DB) Touch(ctx context.Context, path string, mtime int64) error {
	pathHash := chash.SumPath(path)
	res, err := withRetry(ctx, func() (sql.Result, error) {
		return db.bun.NewUpdate().Model((*catalogRow)(nil)).
			Set("mtime = ?", mtime).
			Where("md5path_hi = ? AND md5path_lo = ?", pathHash.Hi, pathHash.Lo).
			Exec(ctx)
	})
	if err != nil {
		return catalogerr.Wrap(catalogerr.ErrIoFailure, "touch", path, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return catalogerr.Wrap(catalogerr.ErrNotFound, "touch", path, nil)
	}
	return nil
}

// SetHardlinks rewrites the packed hardlink field for the entry at path.
// The writable manager uses this both to grow a group (AddHardlinkGroup)
// and to shrink it back down to an ordinary file (ShrinkHardlinkGroup).
func (db *DB) SetHardlinks(ctx context.Context, path string, h dirent.Hardlinks) error {
	pathHash := chash.SumPath(path)
	res, err := withRetry(ctx, func() (sql.Result, error) {
		return db.bun.NewUpdate().Model((*catalogRow)(nil)).
			Set("hardlinks = ?", uint64(h)).
			Where("md5path_hi = ? AND md5path_lo = ?", pathHash.Hi, pathHash.Lo).
			Exec(ctx)
	})
	if err != nil {
		return catalogerr.Wrap(catalogerr.ErrIoFailure, "set-hardlinks", path, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return catalogerr.Wrap(catalogerr.ErrNotFound, "set-hardlinks", path, nil)
	}
	return nil
}

// MaxGroupID returns the highest hardlink-group id currently in use in
// this catalog, 0 if none. AddHardlinkGroup uses this to allocate a fresh,
// catalog-unique group id (§3.3).
func (db *DB) MaxGroupID(ctx context.Context) (uint32, error) {
	return withRetry(ctx, func() (uint32, error) {
		var max sql.NullInt64
		err := db.bun.NewSelect().Model((*catalogRow)(nil)).
			ColumnExpr("MAX(hardlinks >> 32)").
			Where("hardlinks != 0").
			Scan(ctx, &max)
		if err != nil {
			return 0, catalogerr.Wrap(catalogerr.ErrIoFailure, "max-group-id", db.path, err)
		}
		if !max.Valid {
			return 0, nil
		}
		return uint32(max.Int64), nil
	})
}

// CountChildren returns the number of rows parented at parentKey, used by
// RemoveDirectory to enforce the "directory must be empty" invariant.
func (db *DB) CountChildren(ctx context.Context, parentKey chash.Md5) (int, error) {
	return withRetry(ctx, func() (int, error) {
		n, err := db.bun.NewSelect().Model((*catalogRow)(nil)).
			Where("parent_hi = ? AND parent_lo = ?", parentKey.Hi, parentKey.Lo).
			Count(ctx)
		if err != nil {
			return 0, catalogerr.Wrap(catalogerr.ErrIoFailure, "count-children", parentKey.String(), err)
		}
		return n, nil
	})
}

// NestedCatalogs returns every mountpoint registered in this catalog's
// nested_catalogs table (§3.2), used by the manager to find and lazily
// mount the child catalog that owns a path (nextMount, RemoveNestedCatalog).
func (db *DB) NestedCatalogs(ctx context.Context) (map[string]string, error) {
	return withRetry(ctx, func() (map[string]string, error) {
		var rows []nestedCatalogRow
		if err := db.bun.NewSelect().Model(&rows).Scan(ctx); err != nil {
			return nil, catalogerr.Wrap(catalogerr.ErrIoFailure, "nested-catalogs", db.path, err)
		}
		out := make(map[string]string, len(rows))
		for _, r := range rows {
			out[r.Mountpoint] = r.Hash
		}
		return out, nil
	})
}

// SetNestedCatalog upserts a mountpoint's recorded child-catalog hash.
func (db *DB) SetNestedCatalog(ctx context.Context, mountpoint, hash string) error {
	_, err := withRetry(ctx, func() (struct{}, error) {
		_, err := db.bun.NewInsert().
			Model(&nestedCatalogRow{Mountpoint: mountpoint, Hash: hash}).
			On("CONFLICT (mountpoint) DO UPDATE").
			Set("hash = EXCLUDED.hash").
			Exec(ctx)
		return struct{}{}, err
	})
	if err != nil {
		return catalogerr.Wrap(catalogerr.ErrIoFailure, "set-nested-catalog", mountpoint, err)
	}
	return nil
}

// RemoveNestedCatalog drops a mountpoint's entry from nested_catalogs.
func (db *DB) RemoveNestedCatalog(ctx context.Context, mountpoint string) error {
	_, err := withRetry(ctx, func() (struct{}, error) {
		_, err := db.bun.NewDelete().Model((*nestedCatalogRow)(nil)).
			Where("mountpoint = ?", mountpoint).
			Exec(ctx)
		return struct{}{}, err
	})
	if err != nil {
		return catalogerr.Wrap(catalogerr.ErrIoFailure, "remove-nested-catalog", mountpoint, err)
	}
	return nil
}

// SetDigest records a secondary content digest for path in the optional
// catalog_digests side table (SPEC_FULL.md §4.6).
func (db *DB) SetDigest(ctx context.Context, path string, algo chash.Algorithm, digest chash.Any) error {
	pathHash := chash.SumPath(path)
	_, err := withRetry(ctx, func() (struct{}, error) {
		_, err := db.bun.NewInsert().
			Model(&digestRow{
				Md5PathHi: pathHash.Hi,
				Md5PathLo: pathHash.Lo,
				Algorithm: fmt.Sprintf("%d", algo),
				Digest:    digest.Hex(),
			}).
			On("CONFLICT (md5path_hi, md5path_lo, algorithm) DO UPDATE").
			Set("digest = EXCLUDED.digest").
			Exec(ctx)
		return struct{}{}, err
	})
	if err != nil {
		return catalogerr.Wrap(catalogerr.ErrIoFailure, "set-digest", path, err)
	}
	return nil
}

// rowWithPath pairs a decoded entry with the repository-absolute path its
// row was stored under, for callers (CreateNestedCatalog, RemoveNestedCatalog,
// ShrinkHardlinkGroup) that must move or inspect rows in bulk rather than
// by a single known path.
type rowWithPath struct {
	Path  string
	Entry dirent.Entry
}

// Row is the exported counterpart of rowWithPath, returned by AllRows for
// callers outside the package (catalogfs-debug) that need to inspect a
// catalog file's full contents without going through path-hash lookups.
type Row struct {
	Path  string
	Entry dirent.Entry
}

// AllRows returns every row stored in the catalog, ordered by path, for
// offline inspection. Production code paths never need this: the manager
// always addresses rows by path or by prefix.
func (db *DB) AllRows(ctx context.Context) ([]Row, error) {
	return withRetry(ctx, func() ([]Row, error) {
		var rows []catalogRow
		err := db.bun.NewSelect().Model(&rows).OrderExpr("path ASC").Scan(ctx)
		if err != nil {
			return nil, catalogerr.Wrap(catalogerr.ErrIoFailure, "all-rows", db.path, err)
		}
		out := make([]Row, len(rows))
		for i := range rows {
			out[i] = Row{Path: rows[i].Path, Entry: toEntry(&rows[i])}
		}
		return out, nil
	})
}

// escapeLikePrefix backslash-escapes the LIKE metacharacters "%" and "_"
// (plus a literal backslash) in a path so it can be used as a LIKE pattern
// prefix with ESCAPE '\' — both characters are legal in a path component
// and must not be treated as wildcards when matching rows below it.
func escapeLikePrefix(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// RowsBelow returns every row whose path is strictly below prefix
// (component-wise, not a bare string prefix), used by CreateNestedCatalog
// to find the rows a split must move into the new child catalog.
func (db *DB) RowsBelow(ctx context.Context, prefix string) ([]rowWithPath, error) {
	return withRetry(ctx, func() ([]rowWithPath, error) {
		var rows []catalogRow
		err := db.bun.NewSelect().Model(&rows).
			Where("path LIKE ? ESCAPE '\\'", escapeLikePrefix(prefix)+"/%").
			Scan(ctx)
		if err != nil {
			return nil, catalogerr.Wrap(catalogerr.ErrIoFailure, "rows-below", prefix, err)
		}
		out := make([]rowWithPath, len(rows))
		for i := range rows {
			out[i] = rowWithPath{Path: rows[i].Path, Entry: toEntry(&rows[i])}
		}
		return out, nil
	})
}

// DeleteBelow removes every row strictly below prefix, the counterpart to
// RowsBelow used once those rows have been copied into their new catalog.
func (db *DB) DeleteBelow(ctx context.Context, prefix string) error {
	_, err := withRetry(ctx, func() (struct{}, error) {
		_, err := db.bun.NewDelete().Model((*catalogRow)(nil)).
			Where("path LIKE ? ESCAPE '\\'", escapeLikePrefix(prefix)+"/%").
			Exec(ctx)
		return struct{}{}, err
	})
	if err != nil {
		return catalogerr.Wrap(catalogerr.ErrIoFailure, "delete-below", prefix, err)
	}
	return nil
}

// MembersOfGroup returns every row sharing the given hardlink-group id,
// used by ShrinkHardlinkGroup to renumber or clear the group when a member
// is removed.
func (db *DB) MembersOfGroup(ctx context.Context, groupID uint32) ([]rowWithPath, error) {
	return withRetry(ctx, func() ([]rowWithPath, error) {
		var rows []catalogRow
		err := db.bun.NewSelect().Model(&rows).
			Where("hardlinks >> 32 = ?", groupID).
			Scan(ctx)
		if err != nil {
			return nil, catalogerr.Wrap(catalogerr.ErrIoFailure, "members-of-group", fmt.Sprintf("%d", groupID), err)
		}
		out := make([]rowWithPath, len(rows))
		for i := range rows {
			out[i] = rowWithPath{Path: rows[i].Path, Entry: toEntry(&rows[i])}
		}
		return out, nil
	})
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}

// parentOf is named locally for call-site clarity alongside chash.SumPath.
func parentOf(path string) string { return pathutil.Parent(path) }
