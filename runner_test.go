package backupmanager

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gravitational/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBackupRunner struct{ mock.Mock }

func (m *mockBackupRunner) Run(ctx context.Context, database, destination, destinationPath, compression string) error {
	return m.Called(ctx, database, destination, destinationPath, compression).Error(0)
}

type staticStorages map[string]Storage

func (s staticStorages) Get(_ context.Context, name string) (Storage, error) {
	storage, ok := s[name]
	if !ok {
		return nil, trace.NotFound("storage %q is not configured", name)
	}
	return storage, nil
}

var scheduledAt = time.Date(2024, time.February, 3, 4, 5, 6, 0, time.UTC)

func testJob() ScheduledBackup {
	return ScheduledBackup{
		Database:    "main",
		Destination: "local",
		Directory:   "nightly",
		Compression: "gzip",
		Cron:        "0 3 * * *",
	}
}

func TestBackupName(t *testing.T) {
	assert.Equal(t, "nightly/main-20240203-040506.sql", testJob().BackupName(scheduledAt))

	job := testJob()
	job.Directory = ""
	assert.Equal(t, "main-20240203-040506.sql", job.BackupName(scheduledAt))
}

func TestSchedulerRunOnce(t *testing.T) {
	root := t.TempDir()
	writeBackups(t, filepath.Join(root, "nightly"), "main-1.sql.gz", "main-2.sql.gz", "main-3.sql.gz")
	local, err := NewLocalStorage(root)
	require.NoError(t, err)

	backup := &mockBackupRunner{}
	backup.On("Run", mock.Anything, "main", "local", "nightly/main-20240203-040506.sql", "gzip").Return(nil).Once()

	s := NewScheduler(backup, staticStorages{"local": local}, nil)
	s.now = func() time.Time { return scheduledAt }

	job := testJob()
	job.RetentionCount = 2
	require.NoError(t, s.RunOnce(context.Background(), job))
	backup.AssertExpectations(t)

	assert.NoFileExists(t, filepath.Join(root, "nightly", "main-1.sql.gz"))
	assert.FileExists(t, filepath.Join(root, "nightly", "main-2.sql.gz"))
	assert.FileExists(t, filepath.Join(root, "nightly", "main-3.sql.gz"))
}

func TestSchedulerRunOnceFailure(t *testing.T) {
	backup := &mockBackupRunner{}
	backup.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(trace.ConnectionProblem(nil, "unreachable"))

	// Retention is skipped after a failed backup, so the missing storage is never looked up
	s := NewScheduler(backup, staticStorages{}, nil)

	job := testJob()
	job.RetentionCount = 1
	err := s.RunOnce(context.Background(), job)
	assert.True(t, trace.IsConnectionProblem(err))
}

func TestSchedulerRunOnceTimeout(t *testing.T) {
	backup := &mockBackupRunner{}
	backup.On("Run", mock.MatchedBy(func(ctx context.Context) bool {
		_, hasDeadline := ctx.Deadline()
		return hasDeadline
	}), mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	s := NewScheduler(backup, staticStorages{}, nil)

	job := testJob()
	job.Timeout = time.Minute
	require.NoError(t, s.RunOnce(context.Background(), job))
	backup.AssertExpectations(t)
}

func TestSchedulerRun(t *testing.T) {
	t.Run("invalid cron", func(t *testing.T) {
		backup := &mockBackupRunner{}
		s := NewScheduler(backup, staticStorages{}, nil)

		job := testJob()
		job.Cron = "every day"
		job.RunOnStart = true
		err := s.Run(context.Background(), job)
		assert.True(t, trace.IsBadParameter(err))
		backup.AssertNumberOfCalls(t, "Run", 0)
	})

	t.Run("runs on start and stops with the context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		backup := &mockBackupRunner{}
		backup.On("Run", mock.Anything, "main", "local", mock.Anything, "gzip").
			Run(func(mock.Arguments) { cancel() }).
			Return(nil).Once()

		s := NewScheduler(backup, staticStorages{}, nil)

		job := testJob()
		job.RunOnStart = true
		require.NoError(t, s.Run(ctx, job))
		backup.AssertExpectations(t)
	})

	t.Run("start failure does not stop the scheduler", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		backup := &mockBackupRunner{}
		backup.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { cancel() }).
			Return(os.ErrPermission).Once()

		s := NewScheduler(backup, staticStorages{}, nil)

		job := testJob()
		job.RunOnStart = true
		assert.NoError(t, s.Run(ctx, job))
	})
}
