package catalogmgr

import (
	"context"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"

	"catalogfs/internal/collab"
	"catalogfs/internal/config"
	"catalogfs/internal/dirent"
)

// TestRepositoryLifecycle exercises a fuller end-to-end path than the
// table-style tests alongside it: crawl a small tree, split a nested
// catalog out of it, commit, close, and reopen against the same root
// file to confirm the write lock is released and the mounted state
// survives a restart.
func TestRepositoryLifecycle(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	dir := t.TempDir()
	rootPath := filepath.Join(dir, "root.db")
	store := collab.NewMemoryCatalogStore(filepath.Join(dir, "store"))
	opts := config.ManagerOptions{WorkDir: filepath.Join(dir, "work")}

	m, err := CreateRepository(ctx, rootPath, opts, store, store, nil)
	g.Expect(err).NotTo(HaveOccurred())

	_, err = CreateRepository(ctx, rootPath, opts, store, store, nil)
	g.Expect(err).To(HaveOccurred(), "a second writer against the same root must be refused")

	g.Expect(m.AddDirectory(ctx, dirent.Entry{Name: "pkgs", Mode: 0040755}, "")).To(Succeed())
	g.Expect(m.AddDirectory(ctx, dirent.Entry{Name: "bin", Mode: 0040755}, "/pkgs")).To(Succeed())
	g.Expect(m.AddFile(ctx, dirent.Entry{Name: "tool", Mode: 0100755, Size: 42}, "/pkgs/bin")).To(Succeed())
	g.Expect(m.CreateNestedCatalog(ctx, "/pkgs")).To(Succeed())

	manifest, err := m.Commit(ctx)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(manifest.RootHash).NotTo(BeEmpty())
	g.Expect(manifest.Revision).To(Equal(int64(1)))

	g.Expect(m.Close()).To(Succeed())

	reopened, err := OpenRepository(ctx, rootPath, opts, store, store, nil)
	g.Expect(err).NotTo(HaveOccurred())
	defer reopened.Close()

	lookup, err := reopened.LookupPath(ctx, "/pkgs")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(lookup.IsNegative()).To(BeFalse())
	g.Expect(lookup.Entry().NestedMountpoint).To(BeTrue())
}
