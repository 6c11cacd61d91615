package backupmanager

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/gravitational/trace"
)

// RestoreProcedure downloads a backup, decompresses it and imports it into a database.
type RestoreProcedure struct {
	storages    *StorageProvider
	databases   *DatabaseProvider
	compressors *CompressorProvider
	logger      *log.Logger
	workDir     string
}

// NewRestoreProcedure creates a new restore procedure instance
func NewRestoreProcedure(storages *StorageProvider, databases *DatabaseProvider, compressors *CompressorProvider, logger *log.Logger) *RestoreProcedure {
	if logger == nil {
		logger = nullLogger
	}

	return &RestoreProcedure{
		storages:    storages,
		databases:   databases,
		compressors: compressors,
		logger:      logger,
	}
}

// Run restores the backup at sourcePath on the source storage into the database connection.
func (rp *RestoreProcedure) Run(ctx context.Context, source, sourcePath, database, compression string) error {
	logger := rp.logger.With("source", source, "database", database)
	logger.Info("Starting restore", "path", sourcePath, "compression", compression)

	if sourcePath == "" {
		return trace.BadParameter("no backup path to restore from")
	}

	storage, err := rp.storages.Get(ctx, source)
	if err != nil {
		return trace.Wrap(err)
	}

	db, err := rp.databases.Get(database)
	if err != nil {
		return trace.Wrap(err)
	}

	compressor, err := rp.compressors.Get(compression)
	if err != nil {
		return trace.Wrap(err)
	}

	workDir, err := os.MkdirTemp(rp.workDir, "backup-manager-")
	if err != nil {
		return trace.Wrap(err, "failed to create working directory")
	}
	defer removeWorkDir(logger, workDir)

	localPath := filepath.Join(workDir, path.Base(sourcePath))
	logger.Debug("Downloading backup", "path", sourcePath, "file", localPath)
	if err := storage.Download(ctx, sourcePath, localPath); err != nil {
		return trace.Wrap(err, "failed to download backup from %q", source)
	}

	dumpPath, err := compressor.Decompress(localPath)
	if err != nil {
		return trace.Wrap(err)
	}

	logger.Debug("Importing dump", "file", dumpPath)
	if err := db.Restore(ctx, dumpPath); err != nil {
		return trace.Wrap(err)
	}

	logger.Info("Restore complete", "path", sourcePath)
	return nil
}
