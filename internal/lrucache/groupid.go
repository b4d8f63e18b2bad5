package lrucache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// GroupIDAllocator caches the highest hardlink-group id observed per
// catalog (keyed by the mounted catalog's runtime index, which callers pass
// as mountInode), so repeated AddHardlinkGroup
// calls against the same catalog don't each re-scan the table for
// catalogdb.DB.MaxGroupID before handing out the next id. This is a
// separate, much smaller cache from the entry LRU above: a generic
// recency cache off the shelf is the right tool here since there is no
// intrusive-list or reserved-key requirement to satisfy, unlike §4.4's
// entry cache.
type GroupIDAllocator struct {
	cache *lru.Cache[uint64, uint32]
}

// NewGroupIDAllocator creates an allocator caching up to size catalogs'
// worth of max-group-id values.
func NewGroupIDAllocator(size int) *GroupIDAllocator {
	c, err := lru.New[uint64, uint32](size)
	if err != nil {
		panic(err) // only returns an error for size <= 0
	}
	return &GroupIDAllocator{cache: c}
}

// Next returns the next hardlink-group id to hand out for the catalog
// identified by mountInode, given the true max group id as read from
// storage when the cache has nothing for this catalog yet. Callers must
// pass the freshly-read max on every cache miss so the allocator can never
// hand out an id that collides with one already committed to disk.
func (a *GroupIDAllocator) Next(mountInode uint64, storedMax uint32) uint32 {
	if cached, ok := a.cache.Get(mountInode); ok && cached >= storedMax {
		next := cached + 1
		a.cache.Add(mountInode, next)
		return next
	}
	next := storedMax + 1
	a.cache.Add(mountInode, next)
	return next
}

// Invalidate drops the cached max for a catalog, used when a catalog is
// unmounted or its hardlink groups are rewritten out of band (e.g. by
// ShrinkHardlinkGroup collapsing the last two members of a group).
func (a *GroupIDAllocator) Invalidate(mountInode uint64) {
	a.cache.Remove(mountInode)
}
