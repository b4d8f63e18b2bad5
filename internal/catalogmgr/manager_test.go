package catalogmgr

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"catalogfs/internal/chash"
	"catalogfs/internal/collab"
	"catalogfs/internal/config"
	"catalogfs/internal/dirent"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()
	store := collab.NewMemoryCatalogStore(filepath.Join(dir, "store"))
	opts := config.ManagerOptions{WorkDir: filepath.Join(dir, "work")}
	m, err := CreateRepository(context.Background(), filepath.Join(dir, "root.db"), opts, store, store, nil)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

// Scenario 1: empty repo.
func TestEmptyRepoCommit(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	lookup, err := m.LookupPath(ctx, "/")
	require.NoError(t, err)
	require.False(t, lookup.IsNegative())
	entry := lookup.Entry()
	require.True(t, entry.IsDirectory())

	manifest, err := m.Commit(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, manifest.RootHash)
	require.Equal(t, int64(1), manifest.Revision)
}

// Scenario 2: add and list.
func TestAddAndList(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.AddDirectory(ctx, dirent.Entry{Name: "a", Mode: 0040755}, ""))
	h := chash.SumSHA1([]byte("xyz"))
	require.NoError(t, m.AddFile(ctx, dirent.Entry{Name: "f", Size: 3, ContentHash: h, Mode: 0100644}, "/a"))

	children, err := m.ListDirectory(ctx, "/a")
	require.NoError(t, err)
	require.Len(t, children, 1)
	require.Equal(t, "f", children[0].Name)
	require.Equal(t, int64(3), children[0].Size)
}

// Scenario 3: hardlink group creation then shrink.
func TestHardlinkGroupLifecycle(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.AddDirectory(ctx, dirent.Entry{Name: "a", Mode: 0040755}, ""))
	require.NoError(t, m.AddHardlinkGroup(ctx, []dirent.Entry{
		{Name: "x", Mode: 0100644},
		{Name: "y", Mode: 0100644},
	}, "/a"))

	x, err := m.LookupPath(ctx, "/a/x")
	require.NoError(t, err)
	require.Equal(t, uint32(2), x.Entry().Hardlinks.LinkCount())
	y, err := m.LookupPath(ctx, "/a/y")
	require.NoError(t, err)
	require.Equal(t, x.Entry().Hardlinks.GroupID(), y.Entry().Hardlinks.GroupID())
	require.NotZero(t, x.Entry().Hardlinks.GroupID())

	require.NoError(t, m.ShrinkHardlinkGroup(ctx, "/a/x"))

	y, err = m.LookupPath(ctx, "/a/y")
	require.NoError(t, err)
	require.Equal(t, uint32(1), y.Entry().Hardlinks.LinkCount())
	require.Zero(t, y.Entry().Hardlinks.GroupID())

	x, err = m.LookupPath(ctx, "/a/x")
	require.NoError(t, err)
	require.True(t, x.IsNegative())
}

// The injected Environment collaborator resolves $(VAR) references in a
// stored symlink target at read time (§6.1, §3.1).
func TestSymlinkExpansionUsesInjectedEnvironment(t *testing.T) {
	dir := t.TempDir()
	store := collab.NewMemoryCatalogStore(filepath.Join(dir, "store"))
	opts := config.ManagerOptions{WorkDir: filepath.Join(dir, "work")}
	env := collab.MapEnvironment{"TARGET": "/opt/tool"}
	m, err := CreateRepository(context.Background(), filepath.Join(dir, "root.db"), opts, store, store, env)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	ctx := context.Background()

	require.NoError(t, m.AddFile(ctx, dirent.Entry{Name: "link", Mode: 0120000, Symlink: "$(TARGET)/bin"}, ""))

	lookup, err := m.LookupPath(ctx, "/link")
	require.NoError(t, err)
	require.Equal(t, "/opt/tool/bin", lookup.Entry().Symlink)
}

// Scenarios 4 and 5: nested split then join.
func TestNestedCatalogSplitAndJoin(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.AddDirectory(ctx, dirent.Entry{Name: "a", Mode: 0040755}, ""))
	require.NoError(t, m.AddDirectory(ctx, dirent.Entry{Name: "b", Mode: 0040755}, "/a"))
	require.NoError(t, m.AddFile(ctx, dirent.Entry{Name: "c", Mode: 0100644, Size: 1}, "/a/b"))

	require.NoError(t, m.CreateNestedCatalog(ctx, "/a"))

	mountRow, err := m.LookupPath(ctx, "/a")
	require.NoError(t, err)
	require.True(t, mountRow.Entry().NestedMountpoint)

	children, err := m.ListDirectory(ctx, "/a/b")
	require.NoError(t, err)
	require.Len(t, children, 1)
	require.Equal(t, "c", children[0].Name)

	manifest, err := m.Commit(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, manifest.RootHash)

	require.NoError(t, m.RemoveNestedCatalog(ctx, "/a"))

	mountRow, err = m.LookupPath(ctx, "/a")
	require.NoError(t, err)
	require.False(t, mountRow.Entry().NestedMountpoint)

	children, err = m.ListDirectory(ctx, "/a/b")
	require.NoError(t, err)
	require.Len(t, children, 1)
	require.Equal(t, "c", children[0].Name)

	manifest, err = m.Commit(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, manifest.RootHash)
}
