package backupmanager

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gravitational/trace"
	"github.com/samber/lo"
)

// EntryType distinguishes files from directories in a storage listing.
type EntryType string

const (
	EntryFile EntryType = "file"
	EntryDir  EntryType = "dir"
)

// FileEntry is a single item returned by a storage listing.
type FileEntry struct {
	Type      EntryType
	Path      string
	Basename  string
	Extension string
	Size      int64
	Timestamp time.Time
}

// IsDir reports whether the entry is a directory.
func (e FileEntry) IsDir() bool {
	return e.Type == EntryDir
}

// newFileEntry builds a file entry from a storage-relative path.
func newFileEntry(p string, size int64, ts time.Time) FileEntry {
	base := path.Base(p)
	return FileEntry{
		Type:      EntryFile,
		Path:      p,
		Basename:  base,
		Extension: strings.TrimPrefix(path.Ext(base), "."),
		Size:      size,
		Timestamp: ts,
	}
}

// newDirEntry builds a directory entry from a storage-relative path.
func newDirEntry(p string, ts time.Time) FileEntry {
	p = strings.TrimSuffix(p, "/")
	return FileEntry{
		Type:      EntryDir,
		Path:      p,
		Basename:  path.Base(p),
		Timestamp: ts,
	}
}

// Storage is a backup destination. Paths are relative to the storage root.
type Storage interface {
	Upload(ctx context.Context, sourcePath string, destinationPath string) error
	Download(ctx context.Context, sourcePath string, destinationPath string) error
	List(ctx context.Context, dir string) ([]FileEntry, error)
	Delete(ctx context.Context, p string) error
	Type() string
}

// StorageFactory builds a Storage from its configuration.
type StorageFactory func(ctx context.Context, cfg StorageConfig) (Storage, error)

// StorageProvider resolves configured storage names to Storage instances.
type StorageProvider struct {
	configs   map[string]StorageConfig
	factories map[string]StorageFactory
	logger    *log.Logger

	mu        sync.Mutex
	instances map[string]Storage
}

// NewStorageProvider creates a provider for the given named storage configurations.
func NewStorageProvider(configs map[string]StorageConfig, logger *log.Logger) *StorageProvider {
	if logger == nil {
		logger = nullLogger
	}

	return &StorageProvider{
		configs:   configs,
		factories: make(map[string]StorageFactory),
		logger:    logger,
		instances: make(map[string]Storage),
	}
}

// Add registers a factory for a storage type.
func (p *StorageProvider) Add(storageType string, factory StorageFactory) {
	p.factories[storageType] = factory
}

// Get returns the storage configured under name, building it on first use.
func (p *StorageProvider) Get(ctx context.Context, name string) (Storage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.instances[name]; ok {
		return s, nil
	}

	cfg, ok := p.configs[name]
	if !ok {
		return nil, trace.NotFound("storage %q is not configured", name)
	}

	factory, ok := p.factories[cfg.Type]
	if !ok {
		return nil, trace.BadParameter("storage %q has unsupported type %q", name, cfg.Type)
	}

	s, err := factory(ctx, cfg)
	if err != nil {
		return nil, trace.Wrap(err, "failed to initialize storage %q", name)
	}
	p.logger.Debug("Storage initialized", "name", name, "type", s.Type())

	p.instances[name] = s
	return s, nil
}

// AvailableProviders returns the configured storage names, sorted.
func (p *StorageProvider) AvailableProviders() []string {
	names := lo.Keys(p.configs)
	sort.Strings(names)
	return names
}

// ConfigValue returns a single configuration value of a named storage.
// Unknown names and keys yield an empty string.
func (p *StorageProvider) ConfigValue(name, key string) string {
	cfg, ok := p.configs[name]
	if !ok {
		return ""
	}
	return cfg.Value(key)
}

// List returns the contents of dir on the named storage.
func (p *StorageProvider) List(ctx context.Context, name, dir string) ([]FileEntry, error) {
	s, err := p.Get(ctx, name)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	entries, err := s.List(ctx, dir)
	return entries, trace.Wrap(err, "failed to list %q on storage %q", dir, name)
}

// joinKey joins an object key prefix and a storage-relative path. An empty path
// yields the prefix itself, with a trailing slash.
func joinKey(root, p string) string {
	root = strings.Trim(root, "/")
	p = strings.Trim(p, "/")
	switch {
	case root == "":
		return p
	case p == "":
		return root + "/"
	}
	return root + "/" + p
}
