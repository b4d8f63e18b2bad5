package collab

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryCatalogStoreUploadThenLoadRoundTrips(t *testing.T) {
	ctx := context.Background()
	src := filepath.Join(t.TempDir(), "catalog.db")
	require.NoError(t, os.WriteFile(src, []byte("pretend catalog bytes"), 0o644))

	store := NewMemoryCatalogStore(t.TempDir())
	hash, err := store.Upload(ctx, src)
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	fetched, err := store.Load(ctx, "/sub", hash)
	require.NoError(t, err)

	data, err := os.ReadFile(fetched)
	require.NoError(t, err)
	require.Equal(t, "pretend catalog bytes", string(data))
}

func TestMemoryCatalogStoreLoadUnknownHash(t *testing.T) {
	store := NewMemoryCatalogStore(t.TempDir())
	_, err := store.Load(context.Background(), "/sub", "deadbeef")
	require.Error(t, err)
}

func TestMapEnvironmentLookup(t *testing.T) {
	env := MapEnvironment{"FOO": "bar"}
	v, ok := env.Lookup("FOO")
	require.True(t, ok)
	require.Equal(t, "bar", v)

	_, ok = env.Lookup("MISSING")
	require.False(t, ok)
}

func TestManifestEncodeDecodeRoundTrips(t *testing.T) {
	m := Manifest{RootHash: "deadbeef", Revision: 3, Timestamp: 1000, Schema: "2.0"}
	data, err := EncodeManifest(m)
	require.NoError(t, err)

	got, err := DecodeManifest(data)
	require.NoError(t, err)
	require.Equal(t, m, got)
}
