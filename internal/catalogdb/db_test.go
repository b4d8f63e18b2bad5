package catalogdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"catalogfs/internal/catalogerr"
	"catalogfs/internal/chash"
	"catalogfs/internal/dirent"
)

// testRootEntry is a plausible root directory row for Create in tests that
// don't care about the root's own fields.
var testRootEntry = dirent.Entry{Name: "", Mode: 0040755}

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := Create(context.Background(), filepath.Join(dir, "catalog.db"), Options{}, testRootEntry, "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateRejectsExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.db")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := Create(context.Background(), path, Options{}, testRootEntry, "")
	require.ErrorIs(t, err, catalogerr.ErrAlreadyExists)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing.db"), Options{})
	require.ErrorIs(t, err, catalogerr.ErrNotFound)
}

func TestCreateThenOpenRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.db")
	ctx := context.Background()

	db, err := Create(ctx, path, Options{}, testRootEntry, "")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	reopened, err := Open(ctx, path, Options{})
	require.NoError(t, err)
	defer reopened.Close()

	version, err := reopened.Property(ctx, "schema")
	require.NoError(t, err)
	require.Equal(t, SchemaVersion, version)
}

func TestInsertLookupRemove(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	e := dirent.Entry{Name: "a.txt", Mode: 0100644, Size: 3}
	require.NoError(t, db.Insert(ctx, "/a.txt", e))

	err := db.Insert(ctx, "/a.txt", e)
	require.ErrorIs(t, err, catalogerr.ErrAlreadyExists)

	got, err := db.LookupPathHash(ctx, chash.SumPath("/a.txt"))
	require.NoError(t, err)
	require.Equal(t, "a.txt", got.Name)
	require.Equal(t, int64(3), got.Size)

	require.NoError(t, db.Remove(ctx, "/a.txt"))
	_, err = db.LookupPathHash(ctx, chash.SumPath("/a.txt"))
	require.ErrorIs(t, err, catalogerr.ErrNotFound)

	err = db.Remove(ctx, "/a.txt")
	require.ErrorIs(t, err, catalogerr.ErrNotFound)
}

func TestListChildren(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Insert(ctx, "/dir", dirent.Entry{Name: "dir", Mode: 0040755}))
	require.NoError(t, db.Insert(ctx, "/dir/a", dirent.Entry{Name: "a", Mode: 0100644}))
	require.NoError(t, db.Insert(ctx, "/dir/b", dirent.Entry{Name: "b", Mode: 0100644}))

	children, err := db.ListChildren(ctx, chash.SumPath("/dir"))
	require.NoError(t, err)
	require.Len(t, children, 2)
}

func TestSetHardlinksAndMaxGroupID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Insert(ctx, "/a", dirent.Entry{Name: "a", Mode: 0100644}))
	require.NoError(t, db.Insert(ctx, "/b", dirent.Entry{Name: "b", Mode: 0100644}))

	max, err := db.MaxGroupID(ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(0), max)

	require.NoError(t, db.SetHardlinks(ctx, "/a", dirent.NewHardlinks(5, 2)))
	require.NoError(t, db.SetHardlinks(ctx, "/b", dirent.NewHardlinks(5, 2)))

	max, err = db.MaxGroupID(ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(5), max)

	got, err := db.LookupPathHash(ctx, chash.SumPath("/a"))
	require.NoError(t, err)
	require.Equal(t, uint32(2), got.Hardlinks.LinkCount())
}

func TestNestedCatalogLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SetNestedCatalog(ctx, "/sub", "deadbeef"))
	nested, err := db.NestedCatalogs(ctx)
	require.NoError(t, err)
	require.Equal(t, "deadbeef", nested["/sub"])

	require.NoError(t, db.RemoveNestedCatalog(ctx, "/sub"))
	nested, err = db.NestedCatalogs(ctx)
	require.NoError(t, err)
	require.Empty(t, nested)
}

func TestRevisionBumps(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rev, err := db.Revision(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0), rev)

	rev, err = db.BumpRevision(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), rev)
}

func TestCountChildrenEnforcesEmptyDirectory(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Insert(ctx, "/dir", dirent.Entry{Name: "dir", Mode: 0040755}))
	n, err := db.CountChildren(ctx, chash.SumPath("/dir"))
	require.NoError(t, err)
	require.Zero(t, n)

	require.NoError(t, db.Insert(ctx, "/dir/child", dirent.Entry{Name: "child", Mode: 0100644}))
	n, err = db.CountChildren(ctx, chash.SumPath("/dir"))
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestExpandSymlinkKnownAndUnknownVar(t *testing.T) {
	env := map[string]string{"FOO": "bar"}
	lookup := func(name string) (string, bool) { v, ok := env[name]; return v, ok }

	require.Equal(t, "bar/x", expandSymlink("$(FOO)/x", lookup))
	require.Equal(t, "/x", expandSymlink("$(MISSING)/x", lookup))
	require.Equal(t, "$(unterminated", expandSymlink("$(unterminated", lookup))
	require.Equal(t, "plain", expandSymlink("plain", lookup))
}

