// Package catalogmgr implements the abstract and writable catalog manager
// of §4.2-§4.4: the in-memory tree of mounted catalogs, path-to-catalog
// routing, the entry LRU cache, and the mutation operations that keep a
// catalog's on-disk rows consistent with the tree's invariants.
package catalogmgr

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/gofrs/flock"
	log "github.com/sirupsen/logrus"

	"catalogfs/internal/catalogdb"
	"catalogfs/internal/collab"
	"catalogfs/internal/config"
	"catalogfs/internal/dirent"
	"catalogfs/internal/lrucache"
	"catalogfs/internal/pathutil"
)

// Manager owns the in-memory mount tree for one repository, routes reads
// and writes to the correct catalog file, and serializes every mutation
// and the mounts a mutation triggers behind a single coarse lock (§5).
// Read-only lookups (LookupPath, LookupInode, ListDirectory) do not take
// it, including when they mount a child catalog on first traversal.
type Manager struct {
	mu sync.Mutex

	root    *mountedCatalog
	byIndex map[uint32]*mountedCatalog

	catalogSeq uint32

	opts    config.ManagerOptions
	loader  collab.LoadCatalog
	spooler collab.UploadSpooler
	env     collab.Environment

	cache    *lrucache.Cache[uint64, dirent.Lookup]
	groupIDs *lrucache.GroupIDAllocator

	// lock is the advisory single-writer guard described in §5: one
	// process may hold a repository open for writing at a time. nil when
	// New was handed a root catalog directly rather than going through
	// CreateRepository/OpenRepository (e.g. in-memory test setups that
	// never touch a real lock file).
	lock *flock.Flock
}

// reservedInodeZero and reservedInodeMax are the two sentinel cache keys
// no real synthesized inode can ever equal: 0 is never handed out by
// globalInode (catalogIndex starts at 1), and ^uint64(0) would require a
// hardlink group id of all-ones bits, which MaxGroupID+1 allocation never
// reaches in practice but which New still refuses to accept as a real key.
const (
	reservedInodeZero = uint64(0)
	reservedInodeMax  = ^uint64(0)
)

// New builds a Manager around an already-mounted root catalog. Callers
// normally reach this through OpenRepository or CreateRepository rather
// than calling it directly.
func New(root *catalogdb.DB, opts config.ManagerOptions, loader collab.LoadCatalog, spooler collab.UploadSpooler, env collab.Environment) *Manager {
	opts.ApplyDefaults()
	applyLogLevel(opts.LogLevel)
	m := &Manager{
		byIndex:  make(map[uint32]*mountedCatalog),
		opts:     opts,
		loader:   loader,
		spooler:  spooler,
		env:      env,
		cache:    lrucache.New[uint64, dirent.Lookup](opts.EntryCacheCapacity, reservedInodeZero, reservedInodeMax),
		groupIDs: lrucache.NewGroupIDAllocator(opts.GroupIDCacheSize),
	}
	root.SetEnvLookup(m.envLookupFunc())
	m.catalogSeq = 1
	m.root = newMountedCatalog(root, "", "", nil, m.catalogSeq)
	m.byIndex[m.root.catalogIndex] = m.root
	return m
}

// applyLogLevel sets logrus's global level from config.ManagerOptions.LogLevel,
// leaving the existing level alone on an empty or unrecognized name (Load and
// ApplyDefaults already normalize empty to "info", so this only guards direct
// New callers that build ManagerOptions by hand).
func applyLogLevel(name string) {
	if name == "" {
		return
	}
	lvl, err := log.ParseLevel(name)
	if err != nil {
		return
	}
	log.SetLevel(lvl)
}

// envLookupFunc adapts the manager's injected collab.Environment (§6.1)
// to the plain function catalogdb expects, or nil if no Environment was
// supplied — catalogdb then falls back to the real process environment.
func (m *Manager) envLookupFunc() func(string) (string, bool) {
	if m.env == nil {
		return nil
	}
	return m.env.Lookup
}

// acquireWriteLock takes an exclusive, non-blocking advisory lock on
// rootPath+".lock", the concrete stand-in for the "surrounding repository
// lock, external to the core" that §5 otherwise leaves as prose — the
// same TryLock-or-fail pattern a daemon uses to refuse a second instance
// against the same store.
func acquireWriteLock(rootPath string) (*flock.Flock, error) {
	lock := flock.New(rootPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("catalogmgr: acquire write lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("catalogmgr: repository %q is already open for writing", rootPath)
	}
	return lock, nil
}

// CreateRepository initializes a brand-new repository: an empty root
// catalog at rootPath plus a Manager mounting it. The root directory
// entry is synthesized with a plain 0755 directory mode and no owner.
func CreateRepository(ctx context.Context, rootPath string, opts config.ManagerOptions, loader collab.LoadCatalog, spooler collab.UploadSpooler, env collab.Environment) (*Manager, error) {
	lock, err := acquireWriteLock(rootPath)
	if err != nil {
		return nil, err
	}
	rootEntry := dirent.Entry{
		Name: "",
		Mode: 0040755,
	}
	db, err := catalogdb.Create(ctx, rootPath, catalogdb.Options{BusyTimeoutMillis: opts.BusyTimeoutMillis}, rootEntry, "")
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("catalogmgr: create repository: %w", err)
	}
	m := New(db, opts, loader, spooler, env)
	m.lock = lock
	// A freshly created catalog has never been snapshotted: its on-disk
	// revision is 0 and no manifest references it yet, so it counts as
	// dirty even though nothing has mutated it (§8 scenario 1: Commit
	// right after CreateRepository must still produce a manifest).
	m.root.markDirty()
	return m, nil
}

// OpenRepository opens an existing root catalog file and mounts it for
// writing.
func OpenRepository(ctx context.Context, rootPath string, opts config.ManagerOptions, loader collab.LoadCatalog, spooler collab.UploadSpooler, env collab.Environment) (*Manager, error) {
	lock, err := acquireWriteLock(rootPath)
	if err != nil {
		return nil, err
	}
	db, err := catalogdb.Open(ctx, rootPath, catalogdb.Options{BusyTimeoutMillis: opts.BusyTimeoutMillis})
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("catalogmgr: open repository: %w", err)
	}
	m := New(db, opts, loader, spooler, env)
	m.lock = lock
	return m, nil
}

// Close releases every mounted catalog's database handle and, if held,
// the repository write lock.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var firstErr error
	for _, mc := range m.byIndex {
		if err := mc.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if m.lock != nil {
		if err := m.lock.Unlock(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// workDir returns the directory mutation and commit helpers should stage
// temporary files in, creating the configured directory if it does not
// exist yet, or a process-lifetime temp directory on first use if the
// caller never configured one.
func (m *Manager) workDir() (string, error) {
	if m.opts.WorkDir != "" {
		if err := os.MkdirAll(m.opts.WorkDir, 0o755); err != nil {
			return "", err
		}
		return m.opts.WorkDir, nil
	}
	dir, err := os.MkdirTemp("", "catalogfs-")
	if err != nil {
		return "", err
	}
	m.opts.WorkDir = dir
	return dir, nil
}

// normalize is the single place that canonicalizes a caller-supplied path
// before it is hashed, routed, or inserted, so every public entry point
// agrees on the same key for the same logical path.
func normalize(p string) string { return pathutil.Normalize(p) }
