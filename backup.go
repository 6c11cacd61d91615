package backupmanager

import (
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/gravitational/trace"
)

// BackupProcedure dumps a database, compresses the dump and uploads it to a storage.
type BackupProcedure struct {
	storages    *StorageProvider
	databases   *DatabaseProvider
	compressors *CompressorProvider
	logger      *log.Logger
	workDir     string
}

// NewBackupProcedure creates a new backup procedure instance
func NewBackupProcedure(storages *StorageProvider, databases *DatabaseProvider, compressors *CompressorProvider, logger *log.Logger) *BackupProcedure {
	if logger == nil {
		logger = nullLogger
	}

	return &BackupProcedure{
		storages:    storages,
		databases:   databases,
		compressors: compressors,
		logger:      logger,
	}
}

// Run backs up the database connection to destinationPath on the destination storage.
// The compressor extension is appended to destinationPath.
func (bp *BackupProcedure) Run(ctx context.Context, database, destination, destinationPath, compression string) error {
	logger := bp.logger.With("database", database, "destination", destination)
	logger.Info("Starting backup", "path", destinationPath, "compression", compression)

	if destinationPath == "" {
		return trace.BadParameter("no backup path to store to")
	}

	db, err := bp.databases.Get(database)
	if err != nil {
		return trace.Wrap(err)
	}

	storage, err := bp.storages.Get(ctx, destination)
	if err != nil {
		return trace.Wrap(err)
	}

	compressor, err := bp.compressors.Get(compression)
	if err != nil {
		return trace.Wrap(err)
	}

	workDir, err := os.MkdirTemp(bp.workDir, "backup-manager-")
	if err != nil {
		return trace.Wrap(err, "failed to create working directory")
	}
	defer removeWorkDir(logger, workDir)

	dumpPath := filepath.Join(workDir, "dump.sql")
	logger.Debug("Dumping database", "file", dumpPath)
	if err := db.Dump(ctx, dumpPath); err != nil {
		return trace.Wrap(err)
	}

	compressedPath, err := compressor.Compress(dumpPath)
	if err != nil {
		return trace.Wrap(err)
	}

	remotePath := compressor.CompressedPath(destinationPath)
	logger.Debug("Uploading backup", "file", compressedPath, "path", remotePath)
	if err := storage.Upload(ctx, compressedPath, remotePath); err != nil {
		return trace.Wrap(err, "failed to upload backup to %q", destination)
	}

	logger.Info("Backup complete", "path", remotePath)
	return nil
}

func removeWorkDir(logger *log.Logger, dir string) {
	if err := os.RemoveAll(dir); err != nil {
		logger.Warn("Failed to remove working directory", "dir", dir, "error", err)
	}
}
