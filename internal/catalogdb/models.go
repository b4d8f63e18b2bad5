package catalogdb

import (
	"github.com/uptrace/bun"

	"catalogfs/internal/chash"
	"catalogfs/internal/dirent"
)

// catalogRow is the bun model for the catalog table of §3.2: one row per
// directory entry, keyed by the MD5 of its full repository path.
type catalogRow struct {
	bun.BaseModel `bun:"table:catalog"`

	Md5PathHi   uint64 `bun:"md5path_hi,pk"`
	Md5PathLo   uint64 `bun:"md5path_lo,pk"`
	ParentHi    uint64 `bun:"parent_hi"`
	ParentLo    uint64 `bun:"parent_lo"`
	Path        string `bun:"path"`
	Inode       uint64 `bun:"inode"`
	ContentHash []byte `bun:"content_hash"`
	Size        int64  `bun:"size"`
	Mode        uint32 `bun:"mode"`
	MTime       int64  `bun:"mtime"`
	Flags       uint32 `bun:"flags"`
	Hardlinks   uint64 `bun:"hardlinks"`
	UID         uint32 `bun:"uid"`
	GID         uint32 `bun:"gid"`
	Name       string `bun:"name"`
	Symlink    string `bun:"symlink"`
}

// nestedCatalogRow is the bun model for the nested_catalogs table of §3.2:
// one row per mounted child catalog, keyed by its repository-relative
// mountpoint path.
type nestedCatalogRow struct {
	bun.BaseModel `bun:"table:nested_catalogs"`

	Mountpoint string `bun:"mountpoint,pk"`
	Hash       string `bun:"hash"`
}

// propertyRow is the bun model for the key/value properties table that
// carries the schema version and other per-catalog metadata (§3.2, §6.2).
type propertyRow struct {
	bun.BaseModel `bun:"table:properties"`

	Key   string `bun:"key,pk"`
	Value string `bun:"value"`
}

// digestRow is the bun model for the optional secondary-digest side table
// wired in from SPEC_FULL.md §4.6.
type digestRow struct {
	bun.BaseModel `bun:"table:catalog_digests"`

	Md5PathHi uint64 `bun:"md5path_hi,pk"`
	Md5PathLo uint64 `bun:"md5path_lo,pk"`
	Algorithm string `bun:"algorithm,pk"`
	Digest    string `bun:"digest"`
}

// toRow projects a dirent.Entry plus its path keys onto a catalogRow.
func toRow(path string, pathHash, parentHash chash.Md5, e dirent.Entry) *catalogRow {
	return &catalogRow{
		Md5PathHi:   pathHash.Hi,
		Md5PathLo:   pathHash.Lo,
		ParentHi:    parentHash.Hi,
		ParentLo:    parentHash.Lo,
		Path:        path,
		Inode:       e.Inode,
		ContentHash: e.ContentHash.Bytes(),
		Size:        e.Size,
		Mode:        e.Mode,
		MTime:       e.MTime,
		Flags:       uint32(e.DatabaseFlags()),
		Hardlinks:   uint64(e.Hardlinks),
		UID:         e.UID,
		GID:         e.GID,
		Name:        e.Name,
		Symlink:     e.Symlink,
	}
}

// toEntry converts a stored row back into a dirent.Entry. The content hash
// algorithm defaults to SHA1 (§3.1); a row can only have been written by
// this package using SumSHA1 or an explicitly chosen algorithm recorded in
// the digest side table, so plain rows are assumed SHA1.
func toEntry(r *catalogRow) dirent.Entry {
	var ch chash.Any
	if len(r.ContentHash) > 0 {
		ch, _ = chash.FromBytes(chash.SHA1, r.ContentHash)
	}
	e := dirent.Entry{
		Name:        r.Name,
		Symlink:     r.Symlink,
		Mode:        r.Mode,
		UID:         r.UID,
		GID:         r.GID,
		Size:        r.Size,
		MTime:       r.MTime,
		ContentHash: ch,
		Inode:       r.Inode,
		Hardlinks:   dirent.Hardlinks(r.Hardlinks),
	}
	e.ApplyDatabaseFlags(dirent.Flags(r.Flags))
	return e
}
