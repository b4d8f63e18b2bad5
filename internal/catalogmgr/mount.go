package catalogmgr

import (
	"context"
	"fmt"

	"catalogfs/internal/catalogdb"
	"catalogfs/internal/catalogerr"
	"catalogfs/internal/chash"
	"catalogfs/internal/pathutil"
)

// state is the per-catalog lifecycle of §4.3 "State machine": a catalog
// moves Unmounted → Mounted(clean) → Mounted(dirty) → Snapshotting →
// Mounted(clean), with Unmounted as the terminal state on shutdown.
type state int

const (
	stateUnmounted state = iota
	stateMountedClean
	stateMountedDirty
	stateSnapshotting
)

func (s state) String() string {
	switch s {
	case stateUnmounted:
		return "unmounted"
	case stateMountedClean:
		return "mounted(clean)"
	case stateMountedDirty:
		return "mounted(dirty)"
	case stateSnapshotting:
		return "snapshotting"
	default:
		return "unknown"
	}
}

// mountedCatalog is one node of the in-memory catalog tree (§4.2): a
// loaded database handle plus the bookkeeping the manager needs to route
// mutations and walk the tree bottom-up on commit.
type mountedCatalog struct {
	db         *catalogdb.DB
	rootPrefix string // "" for the repository root catalog
	mountpoint string // path in the parent catalog this node is mounted at; "" for root
	parent     *mountedCatalog
	children   map[string]*mountedCatalog // keyed by mountpoint path, relative to repo root

	state state

	// catalogIndex is a manager-assigned sequence number, stable for the
	// lifetime of this mount, used as the high bits of a synthesized
	// session-local inode (see inode.go). It is never persisted.
	catalogIndex uint32
}

func newMountedCatalog(db *catalogdb.DB, rootPrefix, mountpoint string, parent *mountedCatalog, catalogIndex uint32) *mountedCatalog {
	return &mountedCatalog{
		db:           db,
		rootPrefix:   rootPrefix,
		mountpoint:   mountpoint,
		parent:       parent,
		children:     make(map[string]*mountedCatalog),
		state:        stateMountedClean,
		catalogIndex: catalogIndex,
	}
}

func (mc *mountedCatalog) markDirty() {
	if mc.state == stateMountedClean {
		mc.state = stateMountedDirty
	}
}

// isDirty reports whether this catalog or any mounted descendant has
// pending mutations (§4.3 "Compute dirty set").
func (mc *mountedCatalog) isDirty() bool {
	if mc.state == stateMountedDirty {
		return true
	}
	for _, child := range mc.children {
		if child.isDirty() {
			return true
		}
	}
	return false
}

// findCatalog walks the mounted tree choosing the deepest catalog whose
// root_prefix is a prefix of path, mounting nested catalogs lazily as the
// walk crosses a mountpoint row (§4.3 "Routing"), and returns the chosen
// catalog. Row keys stay hashed from the repository-absolute path (§3.2),
// so callers use path unchanged within the returned catalog.
func (m *Manager) findCatalog(ctx context.Context, path string) (*mountedCatalog, error) {
	cur := m.root
	for {
		mounted, _, err := m.nextMount(ctx, cur, path)
		if err != nil {
			return nil, err
		}
		if mounted == nil {
			return cur, nil
		}
		cur = mounted
	}
}

// nextMount looks for a nested-catalog mountpoint row in cur strictly
// above path (or equal to it) and, if the corresponding child isn't
// mounted yet, mounts it via LoadCatalog.
func (m *Manager) nextMount(ctx context.Context, cur *mountedCatalog, path string) (*mountedCatalog, string, error) {
	for mountpoint, child := range cur.children {
		if pathIsOrBelow(mountpoint, path) {
			return child, mountpoint, nil
		}
	}

	nested, err := cur.db.NestedCatalogs(ctx)
	if err != nil {
		return nil, "", err
	}
	for mountpoint, hash := range nested {
		if !pathIsOrBelow(mountpoint, path) {
			continue
		}
		child, err := m.mountChild(ctx, cur, mountpoint, hash)
		if err != nil {
			return nil, "", err
		}
		return child, mountpoint, nil
	}
	return nil, "", nil
}

// mountChild fetches and opens the child catalog at mountpoint, recording
// it under cur so subsequent lookups reuse the handle.
func (m *Manager) mountChild(ctx context.Context, cur *mountedCatalog, mountpoint, expectedHash string) (*mountedCatalog, error) {
	localPath, err := m.loader.Load(ctx, mountpoint, expectedHash)
	if err != nil {
		return nil, fmt.Errorf("catalogmgr: mount %q: %w", mountpoint, err)
	}
	db, err := catalogdb.Open(ctx, localPath, catalogdb.Options{BusyTimeoutMillis: m.opts.BusyTimeoutMillis})
	if err != nil {
		return nil, err
	}
	db.SetEnvLookup(m.envLookupFunc())
	// §3.3: "on mount the referenced child catalog contains a directory
	// entry at the same path with kFlagDirNestedRoot". A mount whose
	// child lacks that row means the nested_catalogs index and the
	// artifact it points to have drifted apart; no caller can recover a
	// correct manifest from that state, so this is fatal rather than a
	// returned error.
	childRoot, err := db.LookupPathHash(ctx, chash.SumPath(mountpoint))
	if err != nil || !childRoot.NestedRoot {
		catalogerr.Invariant("mount %q: child catalog missing its nested-root row", mountpoint)
	}
	m.catalogSeq++
	child := newMountedCatalog(db, mountpoint, mountpoint, cur, m.catalogSeq)
	cur.children[mountpoint] = child
	m.byIndex[child.catalogIndex] = child
	return child, nil
}

// pathIsOrBelow reports whether target is mountpoint itself or strictly
// below it, using component-prefix semantics (pathutil.IsPrefix).
func pathIsOrBelow(mountpoint, target string) bool {
	return pathutil.IsPrefix(mountpoint, target)
}

// withLock runs fn while holding the manager's single coarse mutex, which
// serializes all mutating operations and the catalog mounts they trigger
// (§5). Mounts triggered by LookupPath or ListDirectory called outside a
// mutation run without it.
func (m *Manager) withLock(fn func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn()
}
