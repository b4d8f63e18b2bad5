package catalogmgr

import "catalogfs/internal/dirent"

// globalInode synthesizes the session-local inode described in §4.2: the
// in-catalog inode (dirent.Entry.Inode, a value local to and persisted
// within its own catalog file) combined with the mounted catalog's
// runtime-assigned index. Members of a hardlink group all resolve to the
// same value so POSIX readers see one inode across multiple names, which
// is why the group id — not the row's own local inode — occupies the high
// bits whenever the entry belongs to a group (SPEC_FULL.md §9 Design
// Notes: this mapping is a per-session convenience, never persisted and
// never stable across a remount).
func globalInode(e dirent.Entry, catalogIndex uint32) uint64 {
	if group := e.Hardlinks.GroupID(); group != 0 {
		return uint64(group)<<32 | uint64(catalogIndex)
	}
	return uint64(catalogIndex)<<32 | uint64(e.Inode)
}

// catalogRefOf wraps a mounted catalog's runtime index as the opaque
// dirent.CatalogRef callers receive on every entry (SPEC_FULL.md §9,
// Design Notes).
func catalogRefOf(catalogIndex uint32) dirent.CatalogRef {
	return dirent.CatalogRef(catalogIndex)
}
