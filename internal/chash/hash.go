// Package chash implements the fixed-width content digests used as
// catalog row keys and as a directory entry's content hash.
package chash

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Algorithm identifies a digest algorithm.
type Algorithm int

const (
	// SHA1 is the mandatory content-hash algorithm (schema 2.0 row field).
	SHA1 Algorithm = iota
	// MD5 is used only for path hashing (§3.2), never for content.
	MD5
	// BLAKE3 is an optional side-digest recorded when the crawler supplies
	// one (see SPEC_FULL.md §4.6); schema 2.0 itself never requires it.
	BLAKE3
)

func (a Algorithm) size() int {
	switch a {
	case SHA1:
		return sha1.Size
	case MD5:
		return md5.Size
	case BLAKE3:
		return 32
	default:
		return 0
	}
}

// Any holds a raw digest of a known algorithm. The zero value is the
// all-zero SHA1 digest, which §3.1 defines as "no content hash" for
// directories and symlinks.
type Any struct {
	algo Algorithm
	raw  [32]byte // largest supported digest; only algo.size() bytes are valid
}

// SumSHA1 returns the SHA-1 digest of data.
func SumSHA1(data []byte) Any {
	sum := sha1.Sum(data)
	var a Any
	a.algo = SHA1
	copy(a.raw[:], sum[:])
	return a
}

// SumBLAKE3 returns the BLAKE3-256 digest of data.
func SumBLAKE3(data []byte) Any {
	sum := blake3.Sum256(data)
	var a Any
	a.algo = BLAKE3
	copy(a.raw[:], sum[:])
	return a
}

// FromHex parses a hex-encoded digest of the given algorithm.
func FromHex(algo Algorithm, s string) (Any, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Any{}, fmt.Errorf("chash: invalid hex digest: %w", err)
	}
	if len(raw) != algo.size() {
		return Any{}, fmt.Errorf("chash: digest %q has %d bytes, want %d", s, len(raw), algo.size())
	}
	var a Any
	a.algo = algo
	copy(a.raw[:], raw)
	return a, nil
}

// FromBytes wraps a raw digest of the given algorithm already in memory,
// e.g. one just read back from a BLOB column.
func FromBytes(algo Algorithm, raw []byte) (Any, error) {
	if len(raw) != algo.size() {
		return Any{}, fmt.Errorf("chash: digest has %d bytes, want %d", len(raw), algo.size())
	}
	var a Any
	a.algo = algo
	copy(a.raw[:], raw)
	return a, nil
}

// IsZero reports whether this is the all-zero digest (no content hash).
func (a Any) IsZero() bool {
	for _, b := range a.raw[:a.algo.size()] {
		if b != 0 {
			return false
		}
	}
	return true
}

// Algorithm returns the digest's algorithm.
func (a Any) Algorithm() Algorithm { return a.algo }

// Bytes returns the raw digest bytes (length depends on algorithm).
func (a Any) Bytes() []byte {
	out := make([]byte, a.algo.size())
	copy(out, a.raw[:a.algo.size()])
	return out
}

// Hex returns the lowercase hex encoding of the digest.
func (a Any) Hex() string {
	return hex.EncodeToString(a.raw[:a.algo.size()])
}

func (a Any) String() string { return a.Hex() }

// Md5 is the 128-bit MD5 digest used as a catalog row's path key,
// represented as two 64-bit halves matching the on-disk
// (md5path_hi, md5path_lo) column pair.
type Md5 struct {
	Hi uint64
	Lo uint64
}

// SumPath computes the path-MD5 key for a normalized path string. The root
// path "" is special-cased to the all-zero key rather than MD5(""): the
// root has no parent, and the all-zero key doubles as both the root's own
// identity and "no parent" for callers walking up the tree.
func SumPath(path string) Md5 {
	if path == "" {
		return Md5{}
	}
	sum := md5.Sum([]byte(path))
	return Md5{
		Hi: binary.BigEndian.Uint64(sum[0:8]),
		Lo: binary.BigEndian.Uint64(sum[8:16]),
	}
}

// IsZero reports whether this is the all-zero key that SumPath assigns to
// the root path "" (and so also the root's parent key).
func (m Md5) IsZero() bool { return m.Hi == 0 && m.Lo == 0 }

func (m Md5) String() string {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[0:8], m.Hi)
	binary.BigEndian.PutUint64(buf[8:16], m.Lo)
	return hex.EncodeToString(buf[:])
}
