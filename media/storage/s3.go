package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dfryer1193/mediasweep/media/domain"
)

var _ domain.FileStore = (*S3)(nil)

// S3Config holds configuration for uploads offloaded to an S3 bucket.
type S3Config struct {
	Bucket string

	// Region is the AWS region (optional, uses SDK default if empty).
	Region string

	// Endpoint is the S3 endpoint URL (optional, for S3-compatible services).
	Endpoint string

	// KeyPrefix is prepended to every upload path, e.g. "wp-content/uploads/".
	KeyPrefix string

	// ForcePathStyle forces path-style addressing (required for MinIO).
	ForcePathStyle bool
}

// objectDeleter is the part of the S3 client used here
type objectDeleter interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3 removes upload files stored as objects in a bucket
type S3 struct {
	client    objectDeleter
	bucket    string
	keyPrefix string
}

// NewS3 creates a store from an existing client
func NewS3(client objectDeleter, config S3Config) *S3 {
	prefix := config.KeyPrefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return &S3{
		client:    client,
		bucket:    config.Bucket,
		keyPrefix: prefix,
	}
}

// NewS3FromConfig loads the default AWS configuration and creates a client for config
func NewS3FromConfig(ctx context.Context, config S3Config) (*S3, error) {
	if config.Bucket == "" {
		return nil, fmt.Errorf("S3 storage requires bucket to be set")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if config.Region != "" {
		opts = append(opts, awsconfig.WithRegion(config.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if config.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
		})
	}
	if config.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return NewS3(s3.NewFromConfig(awsCfg, s3Opts...), config), nil
}

func (s *S3) key(relPath string) (string, error) {
	clean := strings.TrimLeft(relPath, "/")
	if clean == "" {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, relPath)
	}
	for _, part := range strings.Split(clean, "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %q", ErrUnsafePath, relPath)
		}
	}
	return s.keyPrefix + clean, nil
}

// Remove deletes the object for relPath. S3 reports success for missing keys.
func (s *S3) Remove(ctx context.Context, relPath string) error {
	key, err := s.key(relPath)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete object %s: %w", key, err)
	}

	return nil
}
