package backupmanager

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gravitational/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileEntry(t *testing.T) {
	ts := time.Unix(1700000000, 0)

	tests := []struct {
		desc     string
		path     string
		expected FileEntry
	}{
		{
			desc:     "file with extension",
			path:     "daily/dump.sql",
			expected: FileEntry{Type: EntryFile, Path: "daily/dump.sql", Basename: "dump.sql", Extension: "sql", Size: 10, Timestamp: ts},
		},
		{
			desc:     "only the last extension is kept",
			path:     "dump.sql.gz",
			expected: FileEntry{Type: EntryFile, Path: "dump.sql.gz", Basename: "dump.sql.gz", Extension: "gz", Size: 10, Timestamp: ts},
		},
		{
			desc:     "file without extension",
			path:     "README",
			expected: FileEntry{Type: EntryFile, Path: "README", Basename: "README", Size: 10, Timestamp: ts},
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			assert.Equal(t, tt.expected, newFileEntry(tt.path, 10, ts))
		})
	}
}

func TestNewDirEntry(t *testing.T) {
	entry := newDirEntry("backups/daily/", time.Time{})

	assert.True(t, entry.IsDir())
	assert.Equal(t, "backups/daily", entry.Path)
	assert.Equal(t, "daily", entry.Basename)
	assert.Empty(t, entry.Extension)
}

func TestJoinKey(t *testing.T) {
	tests := []struct {
		root     string
		path     string
		expected string
	}{
		{root: "", path: "a/b.sql", expected: "a/b.sql"},
		{root: "backups", path: "a/b.sql", expected: "backups/a/b.sql"},
		{root: "/backups/", path: "/a/b.sql", expected: "backups/a/b.sql"},
		{root: "backups", path: "", expected: "backups/"},
		{root: "", path: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.root+"+"+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, joinKey(tt.root, tt.path))
		})
	}
}

func TestStorageProvider(t *testing.T) {
	root := t.TempDir()
	configs := map[string]StorageConfig{
		"local":  {Type: "local", Root: root},
		"remote": {Type: "ftp", Root: "/"},
		"broken": {Type: "local"},
	}

	builds := 0
	provider := NewStorageProvider(configs, nil)
	provider.Add("local", func(ctx context.Context, cfg StorageConfig) (Storage, error) {
		builds++
		return newLocalStorageFromConfig(ctx, cfg)
	})

	assert.Equal(t, []string{"broken", "local", "remote"}, provider.AvailableProviders())
	assert.Equal(t, root, provider.ConfigValue("local", "root"))
	assert.Equal(t, "local", provider.ConfigValue("local", "type"))
	assert.Empty(t, provider.ConfigValue("local", "unknown"))
	assert.Empty(t, provider.ConfigValue("missing", "root"))

	s, err := provider.Get(context.Background(), "local")
	require.NoError(t, err)
	assert.Equal(t, "local", s.Type())

	// Instances are cached
	again, err := provider.Get(context.Background(), "local")
	require.NoError(t, err)
	assert.Same(t, s, again)
	assert.Equal(t, 1, builds)

	_, err = provider.Get(context.Background(), "missing")
	assert.True(t, trace.IsNotFound(err))

	_, err = provider.Get(context.Background(), "remote")
	assert.True(t, trace.IsBadParameter(err))

	_, err = provider.Get(context.Background(), "broken")
	assert.Error(t, err)
}

func TestStorageProviderList(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "daily"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "dump.sql"), make([]byte, 2048), 0644))

	provider := NewStorageProvider(map[string]StorageConfig{"local": {Type: "local", Root: root}}, nil)
	provider.Add("local", newLocalStorageFromConfig)

	entries, err := provider.List(context.Background(), "local", "/")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "daily", entries[0].Basename)
	assert.True(t, entries[0].IsDir())
	assert.Equal(t, "dump.sql", entries[1].Basename)
	assert.Equal(t, int64(2048), entries[1].Size)

	_, err = provider.List(context.Background(), "local", "missing")
	assert.True(t, trace.IsNotFound(err))

	_, err = provider.List(context.Background(), "other", "/")
	assert.True(t, trace.IsNotFound(err))
}
