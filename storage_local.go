package backupmanager

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gravitational/trace"
)

// LocalStorage implements Storage for the local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local storage instance rooted at basePath
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if basePath == "" {
		return nil, trace.BadParameter("local storage root is required")
	}

	// Create backup directory if it doesn't exist
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, trace.Wrap(err, "failed to create backup directory")
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

func newLocalStorageFromConfig(_ context.Context, cfg StorageConfig) (Storage, error) {
	return NewLocalStorage(cfg.Root)
}

// Upload copies a local file into the storage
func (s *LocalStorage) Upload(ctx context.Context, sourcePath string, destinationPath string) error {
	destPath := s.fullPath(destinationPath)
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return trace.Wrap(err, "failed to create destination directory")
	}

	return trace.Wrap(copyFile(ctx, sourcePath, destPath))
}

// Download copies a stored file to a local path
func (s *LocalStorage) Download(ctx context.Context, sourcePath string, destinationPath string) error {
	return trace.Wrap(copyFile(ctx, s.fullPath(sourcePath), destinationPath))
}

// List returns the files and directories directly under dir
func (s *LocalStorage) List(ctx context.Context, dir string) ([]FileEntry, error) {
	entries, err := os.ReadDir(s.fullPath(dir))
	if err != nil {
		return nil, trace.Wrap(trace.ConvertSystemError(err), "failed to read backup directory")
	}

	contents := make([]FileEntry, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			return nil, trace.Wrap(err, "failed to stat %q", entry.Name())
		}

		relPath := path.Join(strings.Trim(dir, "/"), entry.Name())
		if entry.IsDir() {
			contents = append(contents, newDirEntry(relPath, info.ModTime()))
			continue
		}
		contents = append(contents, newFileEntry(relPath, info.Size(), info.ModTime()))
	}

	return contents, nil
}

// Delete removes a stored file
func (s *LocalStorage) Delete(ctx context.Context, p string) error {
	if err := os.Remove(s.fullPath(p)); err != nil {
		return trace.Wrap(err, "failed to delete backup")
	}
	return nil
}

// Type returns the storage type name
func (s *LocalStorage) Type() string {
	return "local"
}

func (s *LocalStorage) fullPath(p string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(path.Clean("/"+p)))
}

// copyFile copies src to dst, giving up when ctx is cancelled.
func copyFile(ctx context.Context, src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return trace.Wrap(trace.ConvertSystemError(err), "failed to open source file")
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return trace.Wrap(err, "failed to create destination file")
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = trace.Wrap(closeErr, "failed to close destination file")
		}
	}()

	// Copy with context cancellation support
	done := make(chan error, 1)
	go func() {
		_, copyErr := io.Copy(out, in)
		done <- copyErr
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err = <-done:
		if err != nil {
			return trace.Wrap(err, "failed to copy file")
		}
	}

	return nil
}
