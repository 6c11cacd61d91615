package backupmanager

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gravitational/trace"
	"github.com/robfig/cron/v3"
)

// ScheduledBackup describes a recurring backup. Each run writes a new file into Directory.
type ScheduledBackup struct {
	Database    string
	Destination string
	Directory   string
	Compression string
	// Standard 5-field cron expression: minute hour dom month dow
	Cron           string
	RetentionCount int
	Timeout        time.Duration
	RunOnStart     bool
}

type backupRunner interface {
	Run(ctx context.Context, database, destination, destinationPath, compression string) error
}

type storageGetter interface {
	Get(ctx context.Context, name string) (Storage, error)
}

// Scheduler runs backups on a cron schedule.
type Scheduler struct {
	backup   backupRunner
	storages storageGetter
	logger   *log.Logger
	now      func() time.Time
}

// NewScheduler creates a scheduler running backups on cron schedules.
func NewScheduler(backup backupRunner, storages storageGetter, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = nullLogger
	}

	return &Scheduler{
		backup:   backup,
		storages: storages,
		logger:   logger,
		now:      time.Now,
	}
}

// BackupName returns the storage path of a backup started at t.
func (job ScheduledBackup) BackupName(t time.Time) string {
	return path.Join(job.Directory, fmt.Sprintf("%s-%s.sql", job.Database, t.Format("20060102-150405")))
}

// Run blocks until ctx is done, running the job on its schedule.
func (s *Scheduler) Run(ctx context.Context, job ScheduledBackup) error {
	s.logger.Info("Starting backup scheduler",
		"database", job.Database,
		"destination", job.Destination,
		"schedule", job.Cron,
		"retention", job.RetentionCount,
	)

	if _, err := cron.ParseStandard(job.Cron); err != nil {
		return trace.BadParameter("invalid cron schedule %q: %v", job.Cron, err)
	}

	// Run backup on start if configured
	if job.RunOnStart {
		s.logger.Info("Running initial backup on startup...")
		if err := s.RunOnce(ctx, job); err != nil {
			s.logger.Error("Initial backup failed", "error", err)
		}
	}

	c := cron.New()
	entryID, err := c.AddFunc(job.Cron, func() {
		s.logger.Info("Cron triggered backup job")
		if err := s.RunOnce(ctx, job); err != nil {
			s.logger.Error("Backup failed", "error", err)
		}
	})
	if err != nil {
		return trace.Wrap(err, "failed to add cron job")
	}
	s.logger.Debug("Cron job registered", "id", entryID)

	c.Start()
	if entries := c.Entries(); len(entries) > 0 {
		s.logger.Info("Next backup scheduled", "at", entries[0].Next.Format("2006-01-02 15:04:05"))
	}

	<-ctx.Done()
	s.logger.Info("Shutting down scheduler...")

	// Wait for a running job to finish
	<-c.Stop().Done()

	s.logger.Info("Shutdown complete")
	return nil
}

// RunOnce performs a single backup of the job, then applies its retention policy.
func (s *Scheduler) RunOnce(ctx context.Context, job ScheduledBackup) error {
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	name := job.BackupName(s.now())
	if err := s.backup.Run(ctx, job.Database, job.Destination, name, job.Compression); err != nil {
		return trace.Wrap(err)
	}

	if job.RetentionCount <= 0 {
		return nil
	}

	storage, err := s.storages.Get(ctx, job.Destination)
	if err != nil {
		return trace.Wrap(err)
	}

	_, err = ApplyRetentionPolicy(ctx, storage, job.Directory, job.RetentionCount, s.logger)
	return trace.Wrap(err)
}
