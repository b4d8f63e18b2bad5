// Package collab defines the external collaborator interfaces the catalog
// core consumes but never implements in production (§6 of the
// specification): fetching a mounted catalog's file, uploading a
// finalized snapshot artifact, and reading process environment for
// symlink expansion. Only in-process test doubles live here; a real
// remote-storage or network-fetch implementation is out of core scope.
package collab

import "context"

// LoadCatalog fetches (and, for a real implementation, decompresses) the
// catalog artifact for mountpoint whose content hash is expectedHash, and
// returns a local filesystem path the manager can open directly.
type LoadCatalog interface {
	Load(ctx context.Context, mountpoint, expectedHash string) (localPath string, err error)
}

// UploadSpooler transports a finalized catalog artifact to remote storage
// and returns its content hash, named "Upload" in the text of the
// specification's §6.1.
type UploadSpooler interface {
	Upload(ctx context.Context, localPath string) (contentHash string, err error)
}

// Environment resolves an environment variable by name for symlink
// expansion (§3.1's `$(VAR)` substitution). A production manager wires
// this to the real process environment; tests wire it to a fixed map.
type Environment interface {
	Lookup(name string) (value string, ok bool)
}

// Manifest is the small record a successful Commit produces (§6.2): the
// root catalog's content hash, the write-revision it was taken at, and
// the wall-clock time of the snapshot. Schema is the schema version
// string, included when the manager wants a manifest reader to be able
// to tell which catalog schema it targets without opening the catalog.
type Manifest struct {
	RootHash  string `cbor:"root_hash" yaml:"root_hash"`
	Revision  int64  `cbor:"revision" yaml:"revision"`
	Timestamp int64  `cbor:"timestamp" yaml:"timestamp"`
	Schema    string `cbor:"schema,omitempty" yaml:"schema,omitempty"`
}
