package commands

import (
	"context"

	"github.com/ermos/backupmanager"
	"github.com/ermos/backupmanager/internal/wizard"
)

// DatabaseRegistry lists the configured database connections.
type DatabaseRegistry interface {
	AvailableProviders() []string
}

// StorageRegistry lists and reads the configured storage destinations.
type StorageRegistry interface {
	AvailableProviders() []string
	ConfigValue(name, key string) string
	List(ctx context.Context, name, path string) ([]backupmanager.FileEntry, error)
}

// CompressorRegistry lists the supported compression types.
type CompressorRegistry interface {
	AvailableProviders() []string
}

type BackupRunner interface {
	Run(ctx context.Context, database, destination, destinationPath, compression string) error
}

type RestoreRunner interface {
	Run(ctx context.Context, source, sourcePath, database, compression string) error
}

type ScheduleRunner interface {
	Run(ctx context.Context, job backupmanager.ScheduledBackup) error
}

// Services are the collaborators the commands delegate to.
type Services struct {
	Databases   DatabaseRegistry
	Storages    StorageRegistry
	Compressors CompressorRegistry
	Backup      BackupRunner
	Restore     RestoreRunner
	Scheduler   ScheduleRunner
}

// storageRoot returns the configured root of the storage named in params[storageParam].
func (s *Services) storageRoot(storageParam string) func(wizard.Parameters) string {
	return func(params wizard.Parameters) string {
		return s.Storages.ConfigValue(params[storageParam], "root")
	}
}
