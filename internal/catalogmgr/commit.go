package catalogmgr

import (
	"context"
	"fmt"
	"time"

	"catalogfs/internal/catalogdb"
	"catalogfs/internal/collab"
	"catalogfs/internal/pathutil"
)

// postOrder returns every dirty catalog reachable from root, children
// before parents (§4.3 "Visit the dirty set in post-order"). Clean
// catalogs with no dirty descendant are omitted entirely.
func postOrder(mc *mountedCatalog) []*mountedCatalog {
	var out []*mountedCatalog
	var walk func(*mountedCatalog)
	walk = func(n *mountedCatalog) {
		for _, child := range n.children {
			walk(child)
		}
		if n.isDirty() {
			out = append(out, n)
		}
	}
	walk(mc)
	return out
}

// Commit snapshots every dirty catalog bottom-up and returns a manifest
// describing the new root state (§4.3 "Snapshot algorithm"). A failure
// partway through is fatal to the commit: no manifest is produced, and any
// catalogs already snapshotted remain as unreferenced but harmless
// content-addressed artifacts in the spooler's storage.
func (m *Manager) Commit(ctx context.Context) (collab.Manifest, error) {
	var manifest collab.Manifest
	err := m.withLock(func() error {
		dirty := postOrder(m.root)
		var rootHash string
		var rootRevision int64
		for _, mc := range dirty {
			mc.state = stateSnapshotting
			rev, err := mc.db.BumpRevision(ctx)
			if err != nil {
				return fmt.Errorf("catalogmgr: commit %q: %w", mc.mountpoint, err)
			}
			if err := mc.db.Finalize(ctx); err != nil {
				return fmt.Errorf("catalogmgr: commit %q: %w", mc.mountpoint, err)
			}
			hash, err := m.spooler.Upload(ctx, mc.db.Path())
			if err != nil {
				return fmt.Errorf("catalogmgr: commit %q: upload: %w", mc.mountpoint, err)
			}
			if mc.parent != nil {
				if err := mc.parent.db.SetNestedCatalog(ctx, mc.mountpoint, hash); err != nil {
					return fmt.Errorf("catalogmgr: commit %q: update parent: %w", mc.mountpoint, err)
				}
			}
			mc.state = stateMountedClean
			if mc == m.root {
				rootHash, rootRevision = hash, rev
			}
		}
		manifest = collab.Manifest{
			RootHash:  rootHash,
			Revision:  rootRevision,
			Timestamp: time.Now().Unix(),
			Schema:    catalogdb.SchemaVersion,
		}
		return nil
	})
	if err != nil {
		return collab.Manifest{}, err
	}
	return manifest, nil
}

// PrecalculateListings eagerly reads and caches every mounted directory's
// children ahead of a snapshot (§4.3: "advisory... must be idempotent").
// Running it twice in a row simply re-reads and re-caches the same rows.
func (m *Manager) PrecalculateListings(ctx context.Context) error {
	return m.withLock(func() error {
		return m.warmListings(ctx, "")
	})
}

func (m *Manager) warmListings(ctx context.Context, path string) error {
	entries, err := m.ListDirectory(ctx, path)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDirectory() {
			continue
		}
		if err := m.warmListings(ctx, pathutil.Join(path, e.Name)); err != nil {
			return err
		}
	}
	return nil
}
