package objectstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore implements services.ObjectStore with the MinIO client.
type MinioStore struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewMinioStore connects to MinIO and creates the bucket if it doesn't exist.
func NewMinioStore(ctx context.Context, opts Options, logger *slog.Logger) (*MinioStore, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint cannot be empty")
	}
	if opts.Bucket == "" {
		return nil, fmt.Errorf("bucket name cannot be empty")
	}

	client, err := minio.New(minioHost(opts.Endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info("created bucket", "bucket", opts.Bucket)
	}

	return &MinioStore{client: client, bucket: opts.Bucket, logger: logger}, nil
}

// minioHost strips a URL scheme; minio.New wants host[:port].
func minioHost(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	return strings.TrimSuffix(endpoint, "/")
}

// Relocate copies every object under oldPrefix to newPrefix, then removes
// the originals.
func (m *MinioStore) Relocate(ctx context.Context, oldPrefix, newPrefix string) error {
	if oldPrefix == newPrefix {
		return nil
	}
	keys, err := m.copyPrefix(ctx, oldPrefix, newPrefix)
	if err != nil {
		return err
	}
	if err := m.removeKeys(ctx, keys); err != nil {
		return err
	}
	m.logger.Debug("minio prefix relocated", "from", oldPrefix, "to", newPrefix, "objects", len(keys))
	return nil
}

// Copy duplicates every object under srcPrefix to dstPrefix.
func (m *MinioStore) Copy(ctx context.Context, srcPrefix, dstPrefix string) error {
	if srcPrefix == dstPrefix {
		return nil
	}
	keys, err := m.copyPrefix(ctx, srcPrefix, dstPrefix)
	if err != nil {
		return err
	}
	m.logger.Debug("minio prefix copied", "from", srcPrefix, "to", dstPrefix, "objects", len(keys))
	return nil
}

// DeleteAll removes every object under prefix.
func (m *MinioStore) DeleteAll(ctx context.Context, prefix string) error {
	if prefix == "" {
		return fmt.Errorf("refusing to delete an empty prefix")
	}
	keys, err := m.list(ctx, prefix)
	if err != nil {
		return err
	}
	if err := m.removeKeys(ctx, keys); err != nil {
		return err
	}
	m.logger.Debug("minio prefix deleted", "prefix", prefix, "objects", len(keys))
	return nil
}

func (m *MinioStore) list(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects under %q: %w", prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (m *MinioStore) copyPrefix(ctx context.Context, src, dst string) ([]string, error) {
	keys, err := m.list(ctx, src)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		target := dst + strings.TrimPrefix(key, src)
		_, err := m.client.CopyObject(ctx,
			minio.CopyDestOptions{Bucket: m.bucket, Object: target},
			minio.CopySrcOptions{Bucket: m.bucket, Object: key},
		)
		if err != nil {
			return nil, fmt.Errorf("copy %q to %q: %w", key, target, err)
		}
	}
	return keys, nil
}

func (m *MinioStore) removeKeys(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	objectsCh := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		objectsCh <- minio.ObjectInfo{Key: k}
	}
	close(objectsCh)

	var (
		failed int
		first  error
	)
	for rerr := range m.client.RemoveObjects(ctx, m.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		failed++
		if first == nil {
			first = fmt.Errorf("remove %q: %w", rerr.ObjectName, rerr.Err)
		}
	}
	if first != nil {
		return fmt.Errorf("remove objects: %d failed: %w", failed, first)
	}
	return nil
}
