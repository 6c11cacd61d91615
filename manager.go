package backupmanager

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/gravitational/trace"
)

// Used when no logger is given. Everything below fatal is discarded.
var nullLogger = log.NewWithOptions(io.Discard, log.Options{
	Level: log.FatalLevel,
})

// Manager wires the configured storages, databases and compressors into the
// backup and restore procedures.
type Manager struct {
	Storages    *StorageProvider
	Databases   *DatabaseProvider
	Compressors *CompressorProvider
	Shell       *ShellProcessor
	Backup      *BackupProcedure
	Restore     *RestoreProcedure
	Scheduler   *Scheduler
}

// Option configures a Manager.
type Option func(*managerOptions)

type managerOptions struct {
	logger  *log.Logger
	workDir string
}

// WithLogger sets the logger used by every component.
func WithLogger(logger *log.Logger) Option {
	return func(o *managerOptions) {
		o.logger = logger
	}
}

// WithWorkDir sets the directory temporary dump files are written to.
// The system temp directory is used by default.
func WithWorkDir(dir string) Option {
	return func(o *managerOptions) {
		o.workDir = dir
	}
}

// New registers every supported storage type, database driver and compressor.
func New(cfg *Config, opts ...Option) (*Manager, error) {
	if cfg == nil {
		return nil, trace.BadParameter("configuration is required")
	}

	o := &managerOptions{logger: nullLogger}
	for _, opt := range opts {
		opt(o)
	}

	storages := NewStorageProvider(cfg.Storage, o.logger)
	storages.Add("local", newLocalStorageFromConfig)
	storages.Add("awss3", newS3StorageFromConfig)
	storages.Add("gcs", newGCSStorageFromConfig)

	shell := NewShellProcessor(o.logger)

	databases := NewDatabaseProvider(cfg.Databases(), shell)
	databases.Add(DriverMysql, NewMysqlDatabase)
	databases.Add(DriverPostgres, NewPostgresqlDatabase)

	// Registration order is the order offered to users
	compressors := NewCompressorProvider()
	compressors.Add(NullCompressor{})
	compressors.Add(GzipCompressor{})

	backup := NewBackupProcedure(storages, databases, compressors, o.logger)
	backup.workDir = o.workDir
	restore := NewRestoreProcedure(storages, databases, compressors, o.logger)
	restore.workDir = o.workDir

	return &Manager{
		Storages:    storages,
		Databases:   databases,
		Compressors: compressors,
		Shell:       shell,
		Backup:      backup,
		Restore:     restore,
		Scheduler:   NewScheduler(backup, storages, o.logger),
	}, nil
}
