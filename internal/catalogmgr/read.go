package catalogmgr

import (
	"context"
	"errors"
	"sort"

	"catalogfs/internal/catalogerr"
	"catalogfs/internal/chash"
	"catalogfs/internal/dirent"
	"catalogfs/internal/pathutil"
)

// resolve routes to the catalog owning path's own row and reads it,
// returning ErrNotFound (wrapped, matching catalogdb's own sentinel) if
// nothing occupies that key. Routing is by path's *parent*, not path
// itself: a mountpoint row lives in the catalog that owns its parent
// directory, while the nested root row the child catalog also stores at
// the same path is a separate, shadowed copy (§4.2 "the child's root
// entry supersedes the parent's mountpoint entry for lookups rooted
// deeper than the mount" — deeper, not at the mount itself).
func (m *Manager) resolve(ctx context.Context, path string) (dirent.Entry, *mountedCatalog, error) {
	mc, err := m.findCatalog(ctx, pathutil.Parent(path))
	if err != nil {
		return dirent.Entry{}, nil, err
	}
	e, err := mc.db.LookupPathHash(ctx, chash.SumPath(path))
	if err != nil {
		return dirent.Entry{}, nil, err
	}
	return e, mc, nil
}

// inodeAt resolves path's global inode, or 0 if path is the repository
// root (which has no parent) or cannot be found — the latter should not
// happen for a well-formed tree, but a missing parent is not fatal here
// since it only degrades a cosmetic ParentInode field.
func (m *Manager) inodeAt(ctx context.Context, path string) uint64 {
	if path == "" {
		return 0
	}
	e, mc, err := m.resolve(ctx, path)
	if err != nil {
		return 0
	}
	return globalInode(e, mc.catalogIndex)
}

// decorate stamps a row read from a catalog with the session-local
// identifiers the abstract manager promises callers (§4.2): a global
// inode synthesized from the owning catalog's runtime index, the parent's
// global inode, and an opaque reference back to the owning catalog.
func (m *Manager) decorate(ctx context.Context, e dirent.Entry, mc *mountedCatalog, path string) dirent.Entry {
	e.Inode = globalInode(e, mc.catalogIndex)
	e.ParentInode = m.inodeAt(ctx, pathutil.Parent(path))
	e.Catalog = catalogRefOf(mc.catalogIndex)
	return e
}

// LookupPath resolves path to its entry, routing through the mounted
// catalog tree and caching the result by its synthesized inode.
func (m *Manager) LookupPath(ctx context.Context, path string) (dirent.Lookup, error) {
	path = normalize(path)
	e, mc, err := m.resolve(ctx, path)
	if err != nil {
		if errors.Is(err, catalogerr.ErrNotFound) {
			return dirent.Negative(), nil
		}
		return dirent.Lookup{}, err
	}
	entry := m.decorate(ctx, e, mc, path)
	m.cache.Insert(entry.Inode, dirent.Present(entry))
	return dirent.Present(entry), nil
}

// LookupInode resolves a previously seen global inode back to its entry.
// The cache is the only index from inode to entry the manager keeps (§4.4);
// an inode that was never surfaced by a prior LookupPath or ListDirectory
// call in this session resolves as Negative, consistent with §4.2's "inode
// stability is a per-session guarantee only."
func (m *Manager) LookupInode(inode uint64) (dirent.Lookup, error) {
	if v, ok := m.cache.Lookup(inode); ok {
		return v, nil
	}
	return dirent.Negative(), nil
}

// ListDirectory returns path's children in name order, caching each one by
// its synthesized inode as a side effect.
func (m *Manager) ListDirectory(ctx context.Context, path string) ([]dirent.Entry, error) {
	path = normalize(path)
	mc, err := m.findCatalog(ctx, path)
	if err != nil {
		return nil, err
	}
	rows, err := mc.db.ListChildren(ctx, chash.SumPath(path))
	if err != nil {
		return nil, err
	}
	out := make([]dirent.Entry, 0, len(rows))
	for i := range rows {
		childPath := pathutil.Join(path, rows[i].Name)
		if childPath == path {
			// The repository root row carries the same all-zero parent key
			// as its children; it is not its own child.
			continue
		}
		e := m.decorate(ctx, rows[i], mc, childPath)
		m.cache.Insert(e.Inode, dirent.Present(e))
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
