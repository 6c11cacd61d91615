package backupmanager

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/gravitational/trace"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSStorage implements Storage for Google Cloud Storage buckets
type GCSStorage struct {
	client *storage.Client
	bucket *storage.BucketHandle
	root   string
}

// NewGCSStorage creates a new GCS storage instance. Application default credentials
// are used when credentialsFile is empty. Extra client options are applied last.
func NewGCSStorage(ctx context.Context, bucket, credentialsFile, root string, extra ...option.ClientOption) (*GCSStorage, error) {
	if bucket == "" {
		return nil, trace.BadParameter("GCS bucket name is required")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	opts = append(opts, extra...)

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, trace.Wrap(err, "failed to create GCS client")
	}

	return &GCSStorage{
		client: client,
		bucket: client.Bucket(bucket),
		root:   root,
	}, nil
}

func newGCSStorageFromConfig(ctx context.Context, cfg StorageConfig) (Storage, error) {
	return NewGCSStorage(ctx, cfg.Bucket, cfg.CredentialsFile, cfg.Root)
}

// Upload streams a local file into an object
func (s *GCSStorage) Upload(ctx context.Context, sourcePath string, destinationPath string) error {
	file, err := os.Open(sourcePath)
	if err != nil {
		return trace.Wrap(err, "failed to open source file")
	}
	defer file.Close()

	writer := s.bucket.Object(joinKey(s.root, destinationPath)).NewWriter(ctx)
	if _, err := io.Copy(writer, file); err != nil {
		_ = writer.Close()
		return trace.Wrap(err, "failed to upload to GCS")
	}

	// The object is only committed once the writer is closed
	if err := writer.Close(); err != nil {
		return trace.Wrap(err, "failed to finalize GCS upload")
	}

	return nil
}

// Download streams an object into a local file
func (s *GCSStorage) Download(ctx context.Context, sourcePath string, destinationPath string) (err error) {
	reader, err := s.bucket.Object(joinKey(s.root, sourcePath)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return trace.NotFound("backup %q does not exist", sourcePath)
		}
		return trace.Wrap(err, "failed to open GCS object")
	}
	defer reader.Close()

	file, err := os.Create(destinationPath)
	if err != nil {
		return trace.Wrap(err, "failed to create destination file")
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = trace.Wrap(closeErr, "failed to close destination file")
		}
	}()

	if _, err = io.Copy(file, reader); err != nil {
		return trace.Wrap(err, "failed to download from GCS")
	}

	return nil
}

// List returns the objects and prefixes directly under dir
func (s *GCSStorage) List(ctx context.Context, dir string) ([]FileEntry, error) {
	prefix := joinKey(s.root, dir)
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	rootPrefix := joinKey(s.root, "")

	var contents []FileEntry
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: prefix, Delimiter: "/"})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, trace.Wrap(err, "failed to list GCS objects")
		}

		// With a delimiter set, "directories" only carry a prefix
		if attrs.Prefix != "" {
			contents = append(contents, newDirEntry(strings.TrimPrefix(attrs.Prefix, rootPrefix), attrs.Created))
			continue
		}
		if attrs.Name == prefix {
			continue
		}

		contents = append(contents, newFileEntry(strings.TrimPrefix(attrs.Name, rootPrefix), attrs.Size, attrs.Created))
	}

	return contents, nil
}

// Delete removes an object
func (s *GCSStorage) Delete(ctx context.Context, p string) error {
	if err := s.bucket.Object(joinKey(s.root, p)).Delete(ctx); err != nil {
		return trace.Wrap(err, "failed to delete GCS object")
	}
	return nil
}

// Type returns the storage type name
func (s *GCSStorage) Type() string {
	return "gcs"
}
