package collab

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"catalogfs/internal/chash"
)

// MemoryCatalogStore is an in-process test double for both LoadCatalog and
// UploadSpooler: uploaded artifacts are zstd-compressed and kept in memory
// keyed by content hash, and fetched back by decompressing into a fresh
// temp file. This stands in for a real object-store-backed spooler
// without requiring any network access from a test.
type MemoryCatalogStore struct {
	mu      sync.Mutex
	objects map[string][]byte // content hash -> zstd-compressed artifact
	dir     string            // scratch directory for fetched files
}

// NewMemoryCatalogStore creates a store that stages fetched files under
// dir (typically t.TempDir() in a test).
func NewMemoryCatalogStore(dir string) *MemoryCatalogStore {
	return &MemoryCatalogStore{objects: make(map[string][]byte), dir: dir}
}

// Upload implements UploadSpooler: it reads localPath, computes its SHA1
// content hash, compresses the bytes with zstd, and stores them keyed by
// that hash — standing in for "compress, sign, and transport" (§6.1).
func (s *MemoryCatalogStore) Upload(ctx context.Context, localPath string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("collab: upload %q: %w", localPath, err)
	}
	hash := chash.SumSHA1(data).Hex()

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return "", err
	}
	defer enc.Close()
	compressed := enc.EncodeAll(data, nil)

	s.mu.Lock()
	s.objects[hash] = compressed
	s.mu.Unlock()
	return hash, nil
}

// Load implements LoadCatalog: it decompresses the object stored under
// expectedHash into a fresh file under the store's scratch directory.
func (s *MemoryCatalogStore) Load(ctx context.Context, mountpoint, expectedHash string) (string, error) {
	s.mu.Lock()
	compressed, ok := s.objects[expectedHash]
	s.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("collab: no artifact for hash %q", expectedHash)
	}

	dec, err := zstd.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return "", err
	}
	defer dec.Close()
	data, err := io.ReadAll(dec)
	if err != nil {
		return "", err
	}

	out := filepath.Join(s.dir, expectedHash+".catalog")
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", err
	}
	return out, nil
}

// MapEnvironment is a fixed-map Environment test double, used so symlink
// expansion tests don't depend on the test process's real environment.
type MapEnvironment map[string]string

func (m MapEnvironment) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}
