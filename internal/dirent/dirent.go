// Package dirent implements the in-memory directory entry record (§3.1),
// its hardlink-group encoding, and a tagged Entry variant that replaces
// the sentinel-pointer "negative entry" trick of the original C++ source
// (see SPEC_FULL.md §9, Design Notes).
package dirent

import (
	"catalogfs/internal/chash"
)

// POSIX file-type bits, as stored in Entry.Mode. Defined locally rather
// than pulled from a platform package since a catalog entry is a portable
// on-disk record, not a live kernel stat result.
const (
	modeTypeMask = 0170000
	modeDir      = 0040000
	modeRegular  = 0100000
	modeSymlink  = 0120000
)

// Flags is the on-disk stable bitset of §6.3.
type Flags uint32

const (
	FlagDir                 Flags = 1 << 0
	FlagFile                Flags = 1 << 1
	FlagLink                Flags = 1 << 2
	FlagDirNestedRoot       Flags = 1 << 3
	FlagDirNestedMountpoint Flags = 1 << 4
)

// CatalogRef is an opaque, non-owning reference to the catalog that owns
// an entry, modeled as an index into a manager-owned table rather than a
// raw pointer (SPEC_FULL.md §9 / Design Notes).
type CatalogRef int32

// NoCatalog is the zero value of CatalogRef, meaning "not yet attached to
// any mounted catalog" (e.g. an entry freshly built by a crawler, not yet
// looked up).
const NoCatalog CatalogRef = 0

// Hardlinks packs a hardlink-group id (high 32 bits) and a link-count
// (low 32 bits) into the single 64-bit on-disk field described in §3.1.
// A raw value of 0 means "ordinary file, link-count 1, no group".
type Hardlinks uint64

// NewHardlinks builds the packed field from a group id and link count.
func NewHardlinks(groupID, linkCount uint32) Hardlinks {
	return Hardlinks(uint64(groupID)<<32 | uint64(linkCount))
}

// GroupID returns the hardlink-group id, 0 if the entry is not grouped.
func (h Hardlinks) GroupID() uint32 { return uint32(h >> 32) }

// LinkCount returns the link count; the packed value 0 means link count 1.
func (h Hardlinks) LinkCount() uint32 {
	if h == 0 {
		return 1
	}
	return uint32(h)
}

// Entry is one directory entry as kept in memory: a filesystem object's
// metadata plus the bookkeeping §3.1 asks for.
type Entry struct {
	Name         string
	Symlink      string
	Mode         uint32 // POSIX mode, including the type bits (S_IFDIR &c.)
	UID          uint32
	GID          uint32
	Size         int64
	MTime        int64 // seconds since epoch
	ContentHash  chash.Any
	Inode            uint64
	ParentInode      uint64
	Hardlinks        Hardlinks
	NestedRoot       bool
	NestedMountpoint bool
	Catalog          CatalogRef
}

// IsDirectory reports whether the entry is a directory.
func (e *Entry) IsDirectory() bool { return e.Mode&modeTypeMask == modeDir }

// IsRegular reports whether the entry is a regular file.
func (e *Entry) IsRegular() bool { return e.Mode&modeTypeMask == modeRegular }

// IsLink reports whether the entry is a symbolic link.
func (e *Entry) IsLink() bool { return e.Mode&modeTypeMask == modeSymlink }

// EffectiveSize returns the reported size: for symlinks this is the
// target length, matching the C++ source's DirectoryEntry::size().
func (e *Entry) EffectiveSize() int64 {
	if e.IsLink() {
		return int64(len(e.Symlink))
	}
	return e.Size
}

// DatabaseFlags derives the on-disk flags byte from the entry's type and
// nested-catalog markers, mirroring SqlDirent::CreateDatabaseFlags.
func (e *Entry) DatabaseFlags() Flags {
	var f Flags
	switch {
	case e.NestedRoot:
		f |= FlagDirNestedRoot
	case e.NestedMountpoint:
		f |= FlagDirNestedMountpoint
	}
	switch {
	case e.IsDirectory():
		f |= FlagDir
	case e.IsLink():
		f |= FlagFile | FlagLink
	default:
		f |= FlagFile
	}
	return f
}

// ApplyDatabaseFlags sets the nested-root/mountpoint markers from a flags
// byte read back from storage. It does not touch Mode, which is derived
// independently from the mode column.
func (e *Entry) ApplyDatabaseFlags(f Flags) {
	e.NestedRoot = f&FlagDirNestedRoot != 0
	e.NestedMountpoint = f&FlagDirNestedMountpoint != 0
}

// Stat is the POSIX-stat projection of an entry (§4.1 "POSIX-stat
// projection"), independent of any particular stat(2) struct layout so
// that callers outside this module (e.g. a FUSE/NFS adapter, out of
// core scope) can build their own struct from it.
type Stat struct {
	Ino    uint64
	Mode   uint32
	Nlink  uint32
	UID    uint32
	GID    uint32
	Size   int64
	Mtime  int64
	Blocks int64
}

// ToStat projects the entry onto the common POSIX-stat fields.
func (e *Entry) ToStat() Stat {
	size := e.EffectiveSize()
	return Stat{
		Ino:    e.Inode,
		Mode:   e.Mode,
		Nlink:  e.Hardlinks.LinkCount(),
		UID:    e.UID,
		GID:    e.GID,
		Size:   size,
		Mtime:  e.MTime,
		Blocks: 1 + size/512,
	}
}

// Lookup is the tagged result of a path or inode lookup: either a present
// entry, or a negative marker caching the fact that nothing exists there.
// This replaces the original source's sentinel-pointer "negative
// DirectoryEntry" (SPEC_FULL.md §9).
type Lookup struct {
	entry    Entry
	negative bool
}

// Present wraps a found entry.
func Present(e Entry) Lookup { return Lookup{entry: e} }

// Negative returns a lookup result that caches absence.
func Negative() Lookup { return Lookup{negative: true} }

// IsNegative reports whether this result represents a cached absence.
func (l Lookup) IsNegative() bool { return l.negative }

// Entry returns the wrapped entry. Calling it on a negative result
// returns the zero Entry; callers must check IsNegative first.
func (l Lookup) Entry() Entry { return l.entry }
