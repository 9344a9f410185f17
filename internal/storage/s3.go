package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vidtube/backend/internal/config"
)

const (
	uploadPartSize    = 8 * 1024 * 1024
	uploadConcurrency = 3

	// Media objects are written under unique keys and never rewritten.
	immutableCacheControl = "public, max-age=31536000, immutable"
)

// ErrInvalidKey is returned for object names that cannot be stored safely.
var ErrInvalidKey = errors.New("storage: invalid object key")

type objectPutter interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type objectDeleter interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Storage hosts media in an S3-compatible bucket and serves it from a public base URL.
type S3Storage struct {
	putter  objectPutter
	deleter objectDeleter
	bucket  string
	baseURL string
}

// NewS3Storage builds a client for the bucket described by cfg. A custom
// endpoint switches the client to path-style addressing for MinIO and similar hosts.
func NewS3Storage(ctx context.Context, cfg config.ObjectStoreConfig) (*S3Storage, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 storage: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{
		putter: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = uploadPartSize
			u.Concurrency = uploadConcurrency
		}),
		deleter: client,
		bucket:  bucket,
		baseURL: publicBase(cfg, bucket),
	}, nil
}

func publicBase(cfg config.ObjectStoreConfig, bucket string) string {
	if base := strings.TrimSpace(cfg.PublicBaseURL); base != "" {
		return strings.TrimSuffix(base, "/")
	}
	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		return strings.TrimSuffix(endpoint, "/") + "/" + bucket
	}
	return ""
}

// objectKey cleans name into a bucket key, rejecting anything that escapes the bucket root.
func objectKey(name string) (string, error) {
	trimmed := strings.TrimLeft(strings.TrimSpace(name), "/")
	if trimmed == "" {
		return "", ErrInvalidKey
	}
	for _, segment := range strings.Split(trimmed, "/") {
		if segment == ".." {
			return "", ErrInvalidKey
		}
	}
	return path.Clean(trimmed), nil
}

// Save streams r into the bucket under name and returns its public URL.
func (s *S3Storage) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	key, err := objectKey(name)
	if err != nil {
		return "", err
	}

	input := &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         r,
		ACL:          s3types.ObjectCannedACLPublicRead,
		CacheControl: aws.String(immutableCacheControl),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.putter.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("s3 storage upload %s: %w", key, err)
	}
	return s.URL(key), nil
}

// Delete removes the object stored under name. Missing objects are not an error.
func (s *S3Storage) Delete(ctx context.Context, name string) error {
	key, err := objectKey(name)
	if err != nil {
		return err
	}

	_, err = s.deleter.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	var missing *s3types.NoSuchKey
	if err != nil && !errors.As(err, &missing) {
		return fmt.Errorf("s3 storage delete %s: %w", key, err)
	}
	return nil
}

// URL returns the public location of key, or the bare key without a base URL.
func (s *S3Storage) URL(key string) string {
	if s.baseURL == "" {
		return key
	}
	return s.baseURL + "/" + key
}
