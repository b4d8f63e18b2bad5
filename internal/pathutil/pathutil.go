// Package pathutil normalizes repository paths and bounds the short
// strings (names, symlink targets) that make up a directory entry.
package pathutil

import (
	"fmt"
	"path"
	"strings"
)

// MaxNameLen is the maximum length, in bytes, of a directory entry name.
const MaxNameLen = 255

// MaxSymlinkLen is the maximum length, in bytes, of a symlink target.
const MaxSymlinkLen = 4095

// Normalize turns p into the canonical absolute, slash-separated form
// used as a catalog row key: no trailing slash, no "." or "..", and the
// repository root is the empty string (not "/").
func Normalize(p string) string {
	if p == "" || p == "/" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	clean := path.Clean(p)
	if clean == "/" {
		return ""
	}
	return clean
}

// Split breaks a normalized path into its slash-separated components.
// Split("") returns nil (the root has no components).
func Split(p string) []string {
	p = Normalize(p)
	if p == "" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(p, "/"), "/")
}

// Join re-assembles path components into a normalized path.
func Join(parts ...string) string {
	if len(parts) == 0 {
		return ""
	}
	return Normalize(strings.Join(parts, "/"))
}

// Parent returns the normalized parent of p, or "" if p is the root.
func Parent(p string) string {
	p = Normalize(p)
	if p == "" {
		return ""
	}
	dir := path.Dir(p)
	if dir == "/" {
		return ""
	}
	return dir
}

// Name returns the final path component of p.
func Name(p string) string {
	p = Normalize(p)
	if p == "" {
		return ""
	}
	return path.Base(p)
}

// ValidateName checks that name is a legal directory entry name: non-empty,
// no slash, and within MaxNameLen bytes.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("pathutil: empty name")
	}
	if strings.Contains(name, "/") {
		return fmt.Errorf("pathutil: name %q contains a slash", name)
	}
	if len(name) > MaxNameLen {
		return fmt.Errorf("pathutil: name %q exceeds %d bytes", name, MaxNameLen)
	}
	return nil
}

// ValidateSymlink checks that target is within the allowed symlink target
// length. Empty targets are allowed (non-symlink entries carry one).
func ValidateSymlink(target string) error {
	if len(target) > MaxSymlinkLen {
		return fmt.Errorf("pathutil: symlink target exceeds %d bytes", MaxSymlinkLen)
	}
	return nil
}

// IsPrefix reports whether ancestor is p itself or a path-component prefix
// of p (never a bare string prefix — "/ab" is not a prefix of "/abc").
func IsPrefix(ancestor, p string) bool {
	if ancestor == p {
		return true
	}
	if ancestor == "" {
		return p != ""
	}
	return strings.HasPrefix(p, ancestor+"/")
}
