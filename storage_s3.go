package backupmanager

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gravitational/trace"
)

// S3Storage implements Storage for S3-compatible object storage
type S3Storage struct {
	client     *s3.Client
	uploader   *manager.Uploader
	downloader *manager.Downloader
	bucket     string
	root       string
}

// NewS3Storage creates a new S3 storage instance
// Compatible with AWS S3, MinIO, R2 and other S3-compatible services
func NewS3Storage(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, pathStyle bool, root string) (*S3Storage, error) {
	if bucket == "" {
		return nil, trace.BadParameter("S3 bucket name is required")
	}

	// Build config options
	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(region))

	// Set credentials if provided
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, trace.Wrap(err, "failed to load AWS config")
	}

	var s3Opts []func(*s3.Options)

	// Set custom endpoint for MinIO, R2, etc.
	if endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	if pathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(cfg, s3Opts...)

	return &S3Storage{
		client:     client,
		uploader:   manager.NewUploader(client),
		downloader: manager.NewDownloader(client),
		bucket:     bucket,
		root:       root,
	}, nil
}

func newS3StorageFromConfig(ctx context.Context, cfg StorageConfig) (Storage, error) {
	return NewS3Storage(ctx, cfg.Endpoint, cfg.Region, cfg.Bucket, cfg.Key, cfg.Secret, cfg.UsePathStyle, cfg.Root)
}

// Upload uploads a local file to S3
func (s *S3Storage) Upload(ctx context.Context, sourcePath string, destinationPath string) error {
	file, err := os.Open(sourcePath)
	if err != nil {
		return trace.Wrap(err, "failed to open source file")
	}
	defer file.Close()

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getKey(destinationPath)),
		Body:   file,
	})
	if err != nil {
		return trace.Wrap(err, "failed to upload to S3")
	}

	return nil
}

// Download fetches an object from S3 into a local file
func (s *S3Storage) Download(ctx context.Context, sourcePath string, destinationPath string) (err error) {
	file, err := os.Create(destinationPath)
	if err != nil {
		return trace.Wrap(err, "failed to create destination file")
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = trace.Wrap(closeErr, "failed to close destination file")
		}
	}()

	_, err = s.downloader.Download(ctx, file, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getKey(sourcePath)),
	})
	if err != nil {
		return trace.Wrap(err, "failed to download from S3")
	}

	return nil
}

// List returns the objects and common prefixes directly under dir
func (s *S3Storage) List(ctx context.Context, dir string) ([]FileEntry, error) {
	prefix := s.getKey(dir)
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var contents []FileEntry
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, trace.Wrap(err, "failed to list S3 objects")
		}

		for _, p := range page.CommonPrefixes {
			if p.Prefix != nil {
				contents = append(contents, newDirEntry(s.relativePath(*p.Prefix), time.Time{}))
			}
		}

		for _, obj := range page.Contents {
			if obj.Key == nil || *obj.Key == prefix {
				continue
			}
			contents = append(contents, newFileEntry(
				s.relativePath(*obj.Key),
				aws.ToInt64(obj.Size),
				aws.ToTime(obj.LastModified),
			))
		}
	}

	return contents, nil
}

// Delete removes an object from S3
func (s *S3Storage) Delete(ctx context.Context, p string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getKey(p)),
	})
	if err != nil {
		return trace.Wrap(err, "failed to delete S3 object")
	}

	return nil
}

// Type returns the storage type name
func (s *S3Storage) Type() string {
	return "awss3"
}

// getKey returns the full S3 key for a storage-relative path
func (s *S3Storage) getKey(p string) string {
	return joinKey(s.root, p)
}

func (s *S3Storage) relativePath(key string) string {
	return strings.TrimPrefix(key, joinKey(s.root, ""))
}
