package backupmanager

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gravitational/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeDriver = "fake"

// fakeDatabase writes a fixed dump and records what it restores.
type fakeDatabase struct {
	dump     string
	dumpErr  error
	restored []string
}

func (d *fakeDatabase) Type() string {
	return fakeDriver
}

func (d *fakeDatabase) Dump(_ context.Context, outputPath string) error {
	if d.dumpErr != nil {
		return d.dumpErr
	}
	return os.WriteFile(outputPath, []byte(d.dump), 0600)
}

func (d *fakeDatabase) Restore(_ context.Context, inputPath string) error {
	content, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}
	d.restored = append(d.restored, string(content))
	return nil
}

type procedureEnv struct {
	root        string
	workDir     string
	db          *fakeDatabase
	storages    *StorageProvider
	databases   *DatabaseProvider
	compressors *CompressorProvider
}

func newProcedureEnv(t *testing.T) *procedureEnv {
	env := &procedureEnv{
		root:    t.TempDir(),
		workDir: t.TempDir(),
		db:      &fakeDatabase{dump: "CREATE TABLE users (id int);"},
	}

	env.storages = NewStorageProvider(map[string]StorageConfig{"local": {Type: "local", Root: env.root}}, nil)
	env.storages.Add("local", newLocalStorageFromConfig)

	env.databases = NewDatabaseProvider(map[string]DatabaseConfig{"main": {Type: fakeDriver}}, nil)
	env.databases.Add(fakeDriver, func(DatabaseConfig, *ShellProcessor) Database { return env.db })

	env.compressors = NewCompressorProvider()
	env.compressors.Add(NullCompressor{})
	env.compressors.Add(GzipCompressor{})

	return env
}

func (env *procedureEnv) backup() *BackupProcedure {
	bp := NewBackupProcedure(env.storages, env.databases, env.compressors, nil)
	bp.workDir = env.workDir
	return bp
}

func (env *procedureEnv) restore() *RestoreProcedure {
	rp := NewRestoreProcedure(env.storages, env.databases, env.compressors, nil)
	rp.workDir = env.workDir
	return rp
}

func TestBackupAndRestore(t *testing.T) {
	tests := []struct {
		compression  string
		expectedPath string
	}{
		{compression: "null", expectedPath: "daily/today.sql"},
		{compression: "gzip", expectedPath: "daily/today.sql.gz"},
	}

	for _, tt := range tests {
		t.Run(tt.compression, func(t *testing.T) {
			ctx := context.Background()
			env := newProcedureEnv(t)

			require.NoError(t, env.backup().Run(ctx, "main", "local", "daily/today.sql", tt.compression))
			assert.FileExists(t, filepath.Join(env.root, filepath.FromSlash(tt.expectedPath)))

			require.NoError(t, env.restore().Run(ctx, "local", tt.expectedPath, "main", tt.compression))
			assert.Equal(t, []string{env.db.dump}, env.db.restored)

			// Working files are cleaned up
			leftovers, err := os.ReadDir(env.workDir)
			require.NoError(t, err)
			assert.Empty(t, leftovers)
		})
	}
}

func TestBackupErrors(t *testing.T) {
	tests := []struct {
		desc        string
		database    string
		destination string
		path        string
		compression string
		dumpErr     error
		check       func(error) bool
	}{
		{
			desc:        "empty path",
			database:    "main",
			destination: "local",
			compression: "null",
			check:       trace.IsBadParameter,
		},
		{
			desc:        "unknown database",
			database:    "other",
			destination: "local",
			path:        "a.sql",
			compression: "null",
			check:       trace.IsNotFound,
		},
		{
			desc:        "unknown storage",
			database:    "main",
			destination: "s3",
			path:        "a.sql",
			compression: "null",
			check:       trace.IsNotFound,
		},
		{
			desc:        "unknown compression",
			database:    "main",
			destination: "local",
			path:        "a.sql",
			compression: "zstd",
			check:       trace.IsNotFound,
		},
		{
			desc:        "dump failure",
			database:    "main",
			destination: "local",
			path:        "a.sql",
			compression: "gzip",
			dumpErr:     trace.ConnectionProblem(errors.New("refused"), "database unreachable"),
			check:       trace.IsConnectionProblem,
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			env := newProcedureEnv(t)
			env.db.dumpErr = tt.dumpErr

			err := env.backup().Run(context.Background(), tt.database, tt.destination, tt.path, tt.compression)
			require.Error(t, err)
			assert.True(t, tt.check(err))

			stored, err := os.ReadDir(env.root)
			require.NoError(t, err)
			assert.Empty(t, stored)
		})
	}
}

func TestRestoreErrors(t *testing.T) {
	ctx := context.Background()
	env := newProcedureEnv(t)

	err := env.restore().Run(ctx, "local", "", "main", "null")
	assert.True(t, trace.IsBadParameter(err))

	err = env.restore().Run(ctx, "local", "missing.sql", "main", "null")
	assert.True(t, trace.IsNotFound(err))

	// A plain dump cannot be decompressed as gzip
	require.NoError(t, env.backup().Run(ctx, "main", "local", "plain.sql", "null"))
	err = env.restore().Run(ctx, "local", "plain.sql", "main", "gzip")
	assert.True(t, trace.IsBadParameter(err))
	assert.Empty(t, env.db.restored)
}

func TestManagerRegistersProviders(t *testing.T) {
	_, err := New(nil)
	assert.True(t, trace.IsBadParameter(err))

	m, err := New(&Config{
		Storage: map[string]StorageConfig{"local": {Type: "local", Root: t.TempDir()}},
		Database: DatabaseSection{Connections: map[string]ConnectionConfig{
			"main":   {Driver: DriverMysql, Host: "db", Database: "app"},
			"events": {Driver: DriverPostgres, Host: "pg", Database: "events"},
		}},
	}, WithWorkDir(t.TempDir()))
	require.NoError(t, err)

	assert.Equal(t, []string{"local"}, m.Storages.AvailableProviders())
	assert.Equal(t, []string{"events", "main"}, m.Databases.AvailableProviders())
	assert.Equal(t, []string{"null", "gzip"}, m.Compressors.AvailableProviders())
	assert.NotEmpty(t, m.Backup.workDir)
	assert.Equal(t, m.Backup.workDir, m.Restore.workDir)

	db, err := m.Databases.Get("events")
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, db.Type())
}
