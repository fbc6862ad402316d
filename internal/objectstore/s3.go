// Package objectstore keeps blob storage aligned with folder paths. Every
// store works on key prefixes: a file's objects live under one prefix, so
// moving, copying or purging a file is a prefix operation.
package objectstore

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// maxDeleteBatch is the DeleteObjects per-request key limit.
const maxDeleteBatch = 1000

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// Options configures a remote object store connection.
type Options struct {
	Bucket    string
	Region    string
	Endpoint  string // empty uses the AWS default endpoint
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// s3API is the subset of *s3.Client the store calls.
type s3API interface {
	s3.ListObjectsV2APIClient
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// S3Store implements services.ObjectStore on S3 or any S3-compatible API.
type S3Store struct {
	client s3API
	bucket string
	logger *slog.Logger
}

// NewS3Store builds an S3 client from opts. Static credentials are used
// when an access key is given; otherwise the default AWS chain applies.
func NewS3Store(ctx context.Context, opts Options, logger *slog.Logger) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("bucket name cannot be empty")
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := loadDefaultAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Store(client, opts.Bucket, logger), nil
}

func newS3Store(client s3API, bucket string, logger *slog.Logger) *S3Store {
	return &S3Store{client: client, bucket: bucket, logger: logger}
}

// Relocate copies every object under oldPrefix to newPrefix, then deletes
// the originals.
func (s *S3Store) Relocate(ctx context.Context, oldPrefix, newPrefix string) error {
	if oldPrefix == newPrefix {
		return nil
	}
	keys, err := s.copyPrefix(ctx, oldPrefix, newPrefix)
	if err != nil {
		return err
	}
	if err := s.deleteKeys(ctx, keys); err != nil {
		return err
	}
	s.logger.Debug("s3 prefix relocated", "from", oldPrefix, "to", newPrefix, "objects", len(keys))
	return nil
}

// Copy duplicates every object under srcPrefix to dstPrefix.
func (s *S3Store) Copy(ctx context.Context, srcPrefix, dstPrefix string) error {
	if srcPrefix == dstPrefix {
		return nil
	}
	keys, err := s.copyPrefix(ctx, srcPrefix, dstPrefix)
	if err != nil {
		return err
	}
	s.logger.Debug("s3 prefix copied", "from", srcPrefix, "to", dstPrefix, "objects", len(keys))
	return nil
}

// DeleteAll removes every object under prefix.
func (s *S3Store) DeleteAll(ctx context.Context, prefix string) error {
	if prefix == "" {
		return fmt.Errorf("refusing to delete an empty prefix")
	}
	keys, err := s.list(ctx, prefix)
	if err != nil {
		return err
	}
	if err := s.deleteKeys(ctx, keys); err != nil {
		return err
	}
	s.logger.Debug("s3 prefix deleted", "prefix", prefix, "objects", len(keys))
	return nil
}

func (s *S3Store) list(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects under %q: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// copyPrefix copies each object under src to the same relative key under
// dst and returns the source keys.
func (s *S3Store) copyPrefix(ctx context.Context, src, dst string) ([]string, error) {
	keys, err := s.list(ctx, src)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		target := dst + strings.TrimPrefix(key, src)
		_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
			Bucket:     aws.String(s.bucket),
			Key:        aws.String(target),
			CopySource: aws.String(copySource(s.bucket, key)),
		})
		if err != nil {
			return nil, fmt.Errorf("copy %q to %q: %w", key, target, err)
		}
	}
	return keys, nil
}

func (s *S3Store) deleteKeys(ctx context.Context, keys []string) error {
	for start := 0; start < len(keys); start += maxDeleteBatch {
		end := min(start+maxDeleteBatch, len(keys))
		ids := make([]types.ObjectIdentifier, 0, end-start)
		for _, k := range keys[start:end] {
			ids = append(ids, types.ObjectIdentifier{Key: aws.String(k)})
		}
		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("delete objects: %w", err)
		}
		if len(out.Errors) > 0 {
			first := out.Errors[0]
			return fmt.Errorf("delete objects: %d failed, first %q: %s",
				len(out.Errors), aws.ToString(first.Key), aws.ToString(first.Message))
		}
	}
	return nil
}

// copySource is the URL-encoded "bucket/key" CopyObject expects.
func copySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return bucket + "/" + strings.Join(segments, "/")
}
