package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ppiankov/casewatch/internal/model"
)

// ErrNoEndpoint is returned when publishing without an object store endpoint
var ErrNoEndpoint = errors.New("object store endpoint is not configured")

// ObjectStore publishes the case file to an S3-compatible bucket
type ObjectStore struct {
	client *minio.Client
	bucket string
	region string
}

// NewObjectStore connects to the endpoint and creates the bucket if needed
func NewObjectStore(ctx context.Context, cfg model.ObjectStoreConfig) (*ObjectStore, error) {
	if cfg.Endpoint == "" {
		return nil, ErrNoEndpoint
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &ObjectStore{client: cli, bucket: cfg.Bucket, region: cfg.Region}, nil
}

// Publish uploads localPath under key and returns the object URL
func (s *ObjectStore) Publish(ctx context.Context, localPath, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("object key is empty")
	}

	_, err := s.client.FPutObject(ctx, s.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: contentType(localPath),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", localPath, err)
	}

	return ObjectURL(s.client.EndpointURL().Scheme, s.client.EndpointURL().Host, s.bucket, key), nil
}

// ObjectURL builds the path-style URL of an object
func ObjectURL(scheme, host, bucket, key string) string {
	if scheme == "" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, host, bucket, key)
}

func contentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
