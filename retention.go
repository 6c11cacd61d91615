package backupmanager

import (
	"context"
	"path"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/gravitational/trace"
	"github.com/samber/lo"
)

// ApplyRetentionPolicy keeps the newest retentionCount files directly under dir and
// deletes the rest. Directories are never touched. It returns the deleted paths.
func ApplyRetentionPolicy(ctx context.Context, s Storage, dir string, retentionCount int, logger *log.Logger) ([]string, error) {
	if logger == nil {
		logger = nullLogger
	}
	if retentionCount <= 0 {
		return nil, nil
	}

	logger.Info("Applying retention policy", "dir", dir, "keep", retentionCount)

	entries, err := s.List(ctx, dir)
	if err != nil {
		return nil, trace.Wrap(err, "failed to list backups")
	}

	backups := lo.Filter(entries, func(e FileEntry, _ int) bool { return !e.IsDir() })
	if len(backups) <= retentionCount {
		logger.Debug("Backup count within retention limit", "count", len(backups))
		return nil, nil
	}

	// Oldest first; names carry a timestamp, so they break ties
	sort.Slice(backups, func(i, j int) bool {
		if !backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return backups[i].Timestamp.Before(backups[j].Timestamp)
		}
		return backups[i].Basename < backups[j].Basename
	})

	toDelete := backups[:len(backups)-retentionCount]
	deleted := make([]string, 0, len(toDelete))
	for _, backup := range toDelete {
		p := path.Join(dir, backup.Basename)
		logger.Info("Deleting old backup", "path", p)
		if err := s.Delete(ctx, p); err != nil {
			logger.Warn("Failed to delete old backup", "path", p, "error", err)
			continue
		}
		deleted = append(deleted, p)
	}

	logger.Info("Retention policy applied", "deleted", len(deleted))
	return deleted, nil
}
