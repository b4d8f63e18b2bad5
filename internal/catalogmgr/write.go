package catalogmgr

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"catalogfs/internal/catalogdb"
	"catalogfs/internal/catalogerr"
	"catalogfs/internal/chash"
	"catalogfs/internal/dirent"
	"catalogfs/internal/pathutil"
)

// checkMutable rejects a mutation against a catalog that is mid-snapshot
// (§4.3 "State machine": "A Snapshotting catalog rejects mutations").
func checkMutable(mc *mountedCatalog) error {
	if mc.state == stateSnapshotting {
		return fmt.Errorf("catalogmgr: catalog %q is snapshotting", mc.mountpoint)
	}
	return nil
}

// AddFile inserts entry as a child of parentDir, routed to parentDir's
// owning catalog.
func (m *Manager) AddFile(ctx context.Context, entry dirent.Entry, parentDir string) error {
	return m.withLock(func() error { return m.insertChild(ctx, entry, parentDir) })
}

// AddDirectory is AddFile's counterpart for directory entries; the two are
// identical at the storage layer; the distinction exists at the call site
// so a crawler's intent reads clearly (§4.3).
func (m *Manager) AddDirectory(ctx context.Context, entry dirent.Entry, parentDir string) error {
	return m.withLock(func() error { return m.insertChild(ctx, entry, parentDir) })
}

func (m *Manager) insertChild(ctx context.Context, entry dirent.Entry, parentDir string) error {
	if err := pathutil.ValidateName(entry.Name); err != nil {
		return err
	}
	parentDir = normalize(parentDir)
	mc, err := m.findCatalog(ctx, parentDir)
	if err != nil {
		return err
	}
	if err := checkMutable(mc); err != nil {
		return err
	}
	path := pathutil.Join(parentDir, entry.Name)
	if err := mc.db.Insert(ctx, path, entry); err != nil {
		return err
	}
	mc.markDirty()
	return nil
}

// RemoveFile deletes the row at path.
func (m *Manager) RemoveFile(ctx context.Context, path string) error {
	return m.withLock(func() error { return m.removeEntry(ctx, path, false) })
}

// RemoveDirectory deletes the row at path, failing with ErrNotEmpty unless
// the directory has no children (§4.3).
func (m *Manager) RemoveDirectory(ctx context.Context, path string) error {
	return m.withLock(func() error { return m.removeEntry(ctx, path, true) })
}

func (m *Manager) removeEntry(ctx context.Context, path string, isDir bool) error {
	path = normalize(path)
	mc, err := m.findCatalog(ctx, pathutil.Parent(path))
	if err != nil {
		return err
	}
	if err := checkMutable(mc); err != nil {
		return err
	}
	if isDir {
		n, err := mc.db.CountChildren(ctx, chash.SumPath(path))
		if err != nil {
			return err
		}
		if n > 0 {
			return catalogerr.Wrap(catalogerr.ErrNotEmpty, "remove-directory", path, nil)
		}
	}
	if err := mc.db.Remove(ctx, path); err != nil {
		return err
	}
	mc.markDirty()
	return nil
}

// TouchEntry updates path's mtime to entry.MTime, leaving every other
// field untouched (§4.3).
func (m *Manager) TouchEntry(ctx context.Context, entry dirent.Entry, path string) error {
	return m.withLock(func() error {
		path = normalize(path)
		mc, err := m.findCatalog(ctx, pathutil.Parent(path))
		if err != nil {
			return err
		}
		if err := checkMutable(mc); err != nil {
			return err
		}
		if err := mc.db.Touch(ctx, path, entry.MTime); err != nil {
			return err
		}
		mc.markDirty()
		return nil
	})
}

// AddHardlinkGroup allocates a fresh group id in parentDir's owning
// catalog and inserts every entry with that group id and a shared
// link-count (§4.3).
func (m *Manager) AddHardlinkGroup(ctx context.Context, entries []dirent.Entry, parentDir string) error {
	return m.withLock(func() error {
		parentDir = normalize(parentDir)
		mc, err := m.findCatalog(ctx, parentDir)
		if err != nil {
			return err
		}
		if err := checkMutable(mc); err != nil {
			return err
		}
		storedMax, err := mc.db.MaxGroupID(ctx)
		if err != nil {
			return err
		}
		groupID := m.groupIDs.Next(uint64(mc.catalogIndex), storedMax)
		linkCount := uint32(len(entries))
		for _, e := range entries {
			if err := pathutil.ValidateName(e.Name); err != nil {
				return err
			}
			e.Hardlinks = dirent.NewHardlinks(groupID, linkCount)
			path := pathutil.Join(parentDir, e.Name)
			if err := mc.db.Insert(ctx, path, e); err != nil {
				return err
			}
		}
		mc.markDirty()
		return nil
	})
}

// ShrinkHardlinkGroup removes path's row and, if the row belongs to a
// hardlink group, decrements the group's link-count on its remaining
// members, clearing the group id entirely when only one member survives
// (§4.3).
func (m *Manager) ShrinkHardlinkGroup(ctx context.Context, path string) error {
	return m.withLock(func() error {
		path = normalize(path)
		mc, err := m.findCatalog(ctx, pathutil.Parent(path))
		if err != nil {
			return err
		}
		if err := checkMutable(mc); err != nil {
			return err
		}
		entry, err := mc.db.LookupPathHash(ctx, chash.SumPath(path))
		if err != nil {
			return err
		}
		group := entry.Hardlinks.GroupID()
		if group == 0 {
			if err := mc.db.Remove(ctx, path); err != nil {
				return err
			}
			mc.markDirty()
			return nil
		}
		members, err := mc.db.MembersOfGroup(ctx, group)
		if err != nil {
			return err
		}
		if err := mc.db.Remove(ctx, path); err != nil {
			return err
		}
		remaining := members[:0:0]
		for _, rp := range members {
			if rp.Path != path {
				remaining = append(remaining, rp)
			}
		}
		newCount := uint32(len(remaining))
		switch {
		case newCount == 1:
			if err := mc.db.SetHardlinks(ctx, remaining[0].Path, 0); err != nil {
				return err
			}
			m.groupIDs.Invalidate(uint64(mc.catalogIndex))
		case newCount > 1:
			h := dirent.NewHardlinks(group, newCount)
			for _, rp := range remaining {
				if err := mc.db.SetHardlinks(ctx, rp.Path, h); err != nil {
					return err
				}
			}
		}
		mc.markDirty()
		return nil
	})
}

// CreateNestedCatalog splits mountpoint out of its owning catalog into a
// freshly created child catalog: every row strictly below mountpoint moves
// to the child, the mountpoint row is flagged a mountpoint in the parent,
// and a nested_catalogs entry is registered with a placeholder hash that
// Commit will later replace with the child's real content hash (§4.3).
func (m *Manager) CreateNestedCatalog(ctx context.Context, mountpoint string) error {
	return m.withLock(func() error {
		mountpoint = normalize(mountpoint)
		if mountpoint == "" {
			return fmt.Errorf("catalogmgr: cannot split the repository root")
		}
		parent, err := m.findCatalog(ctx, pathutil.Parent(mountpoint))
		if err != nil {
			return err
		}
		if err := checkMutable(parent); err != nil {
			return err
		}
		row, err := parent.db.LookupPathHash(ctx, chash.SumPath(mountpoint))
		if err != nil {
			return err
		}
		if !row.IsDirectory() {
			return fmt.Errorf("catalogmgr: %q is not a directory", mountpoint)
		}
		if row.NestedMountpoint {
			return fmt.Errorf("catalogmgr: %q is already a mountpoint", mountpoint)
		}

		workDir, err := m.workDir()
		if err != nil {
			return err
		}
		// A uuid, not the sequential catalogSeq, names the file on disk:
		// catalogSeq restarts at 1 for every Manager, so a file named
		// after it could collide with one an earlier session left in the
		// same work directory.
		childPath := fmt.Sprintf("%s/catalog-%s.db", workDir, uuid.New().String())

		rootEntry := row
		rootEntry.NestedRoot = true
		rootEntry.NestedMountpoint = false
		childDB, err := catalogdb.Create(ctx, childPath, catalogdb.Options{BusyTimeoutMillis: m.opts.BusyTimeoutMillis}, rootEntry, mountpoint)
		if err != nil {
			return err
		}
		childDB.SetEnvLookup(m.envLookupFunc())

		moved, err := parent.db.RowsBelow(ctx, mountpoint)
		if err != nil {
			return err
		}
		maxInode := rootEntry.Inode
		for _, rp := range moved {
			if rp.Entry.Inode > maxInode {
				maxInode = rp.Entry.Inode
			}
			if err := childDB.Insert(ctx, rp.Path, rp.Entry); err != nil {
				return err
			}
		}
		if err := childDB.SetProperty(ctx, "next_inode", fmt.Sprintf("%d", maxInode+1)); err != nil {
			return err
		}
		if err := parent.db.DeleteBelow(ctx, mountpoint); err != nil {
			return err
		}

		row.NestedMountpoint = true
		row.NestedRoot = false
		if err := parent.db.Update(ctx, mountpoint, row); err != nil {
			return err
		}
		if err := parent.db.SetNestedCatalog(ctx, mountpoint, ""); err != nil {
			return err
		}

		m.catalogSeq++
		child := newMountedCatalog(childDB, mountpoint, mountpoint, parent, m.catalogSeq)
		child.markDirty()
		parent.children[mountpoint] = child
		m.byIndex[child.catalogIndex] = child
		parent.markDirty()
		m.cache.Drop()
		return nil
	})
}

// RemoveNestedCatalog joins mountpoint's child catalog back into its
// parent: every row in the child (including its own root, demoted back to
// an ordinary directory row) moves into the parent, the nested_catalogs
// entry is dropped, and the child's database handle is released (§4.3).
func (m *Manager) RemoveNestedCatalog(ctx context.Context, mountpoint string) error {
	return m.withLock(func() error {
		mountpoint = normalize(mountpoint)
		parent, err := m.findCatalog(ctx, pathutil.Parent(mountpoint))
		if err != nil {
			return err
		}
		if err := checkMutable(parent); err != nil {
			return err
		}
		row, err := parent.db.LookupPathHash(ctx, chash.SumPath(mountpoint))
		if err != nil {
			return err
		}
		if !row.NestedMountpoint {
			return fmt.Errorf("catalogmgr: %q is not a mountpoint", mountpoint)
		}

		child, mounted := parent.children[mountpoint]
		if !mounted {
			nested, err := parent.db.NestedCatalogs(ctx)
			if err != nil {
				return err
			}
			child, err = m.mountChild(ctx, parent, mountpoint, nested[mountpoint])
			if err != nil {
				return err
			}
		}

		childRoot, err := child.db.LookupPathHash(ctx, chash.SumPath(mountpoint))
		if err != nil {
			return err
		}
		childRoot.NestedRoot = false
		childRoot.NestedMountpoint = false
		if err := parent.db.Update(ctx, mountpoint, childRoot); err != nil {
			return err
		}

		rows, err := child.db.RowsBelow(ctx, mountpoint)
		if err != nil {
			return err
		}
		maxInode := childRoot.Inode
		for _, rp := range rows {
			if rp.Entry.Inode > maxInode {
				maxInode = rp.Entry.Inode
			}
			if err := parent.db.Insert(ctx, rp.Path, rp.Entry); err != nil {
				return err
			}
		}
		parentNextInode, err := parent.db.Property(ctx, "next_inode")
		if err == nil {
			var current uint64
			fmt.Sscanf(parentNextInode, "%d", &current)
			if maxInode+1 > current {
				if err := parent.db.SetProperty(ctx, "next_inode", fmt.Sprintf("%d", maxInode+1)); err != nil {
					return err
				}
			}
		}

		if err := parent.db.RemoveNestedCatalog(ctx, mountpoint); err != nil {
			return err
		}

		delete(parent.children, mountpoint)
		delete(m.byIndex, child.catalogIndex)
		child.db.Close()
		parent.markDirty()
		m.cache.Drop()
		return nil
	})
}
