// Package config loads the manager-wide options described in SPEC_FULL.md
// §4.5: where mounted catalog files are staged, how big the entry LRU
// cache is, and the knobs that tune catalogdb's SQLite connections.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ManagerOptions configures a catalog manager instance. Zero-value fields
// are filled in by ApplyDefaults.
type ManagerOptions struct {
	// WorkDir is where the catalog files created by a nested-catalog split
	// are written; it is created on first use if missing. Defaults to an
	// os.MkdirTemp-created directory if empty.
	WorkDir string `yaml:"work_dir"`

	// EntryCacheCapacity bounds the §4.4 LRU cache. Defaults to 65536.
	EntryCacheCapacity int `yaml:"entry_cache_capacity"`

	// GroupIDCacheSize bounds the hardlink-group-id allocator cache.
	// Defaults to 256.
	GroupIDCacheSize int `yaml:"group_id_cache_size"`

	// BusyTimeoutMillis is passed through to every catalogdb.Open/Create
	// call. Defaults to catalogdb.DefaultBusyTimeoutMillis (0 here, so the
	// zero value lets catalogdb apply its own default).
	BusyTimeoutMillis int `yaml:"busy_timeout_millis"`

	// PrecalculateListings is loaded and saved with the other options but
	// is not read by the manager: ListDirectory sorts on every call, and
	// Manager.PrecalculateListings runs only when a caller invokes it.
	PrecalculateListings bool `yaml:"precalculate_listings"`

	// LogLevel is the logrus level name ("debug", "info", "warn", "error");
	// empty defaults to "info".
	LogLevel string `yaml:"log_level"`
}

const (
	defaultEntryCacheCapacity = 65536
	defaultGroupIDCacheSize   = 256
)

// ApplyDefaults fills zero-value fields with their defaults.
func (o *ManagerOptions) ApplyDefaults() {
	if o.EntryCacheCapacity <= 0 {
		o.EntryCacheCapacity = defaultEntryCacheCapacity
	}
	if o.GroupIDCacheSize <= 0 {
		o.GroupIDCacheSize = defaultGroupIDCacheSize
	}
	if o.LogLevel == "" {
		o.LogLevel = "info"
	}
}

// Load reads ManagerOptions from a YAML file, applying defaults for any
// field the file leaves unset. A missing file yields the all-defaults
// configuration rather than an error.
func Load(path string) (*ManagerOptions, error) {
	opts := &ManagerOptions{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			opts.ApplyDefaults()
			return opts, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, err
	}
	opts.ApplyDefaults()
	return opts, nil
}

// Save writes opts to path as YAML.
func Save(path string, opts *ManagerOptions) error {
	data, err := yaml.Marshal(opts)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
