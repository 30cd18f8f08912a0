package objectstore

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/shiftmate/mediaflow-service/internal/config"
)

// Backend stores media bytes in an S3-compatible bucket via MinIO.
type Backend struct {
	client     *minio.Client
	bucketName string
}

// NewBackend creates a new object-store backend instance
func NewBackend(cfg *config.Config) (*Backend, error) {
	// Initialize MinIO client
	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKeyID, cfg.MinIO.SecretAccessKey, ""),
		Secure: cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	backend := &Backend{
		client:     client,
		bucketName: cfg.MinIO.BucketName,
	}

	// Ensure bucket exists
	if err := backend.ensureBucket(); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return backend, nil
}

// ensureBucket creates the bucket if it doesn't exist
func (b *Backend) ensureBucket() error {
	ctx := context.Background()

	exists, err := b.client.BucketExists(ctx, b.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		err = b.client.MakeBucket(ctx, b.bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// Put uploads body under the given key, overwriting any existing object.
func (b *Backend) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := b.client.PutObject(ctx, b.bucketName, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}

	return nil
}

// Stat returns information about an object
func (b *Backend) Stat(ctx context.Context, key string) (minio.ObjectInfo, error) {
	return b.client.StatObject(ctx, b.bucketName, key, minio.StatObjectOptions{})
}

// Remove deletes an object from the bucket
func (b *Backend) Remove(ctx context.Context, key string) error {
	return b.client.RemoveObject(ctx, b.bucketName, key, minio.RemoveObjectOptions{})
}

// List returns all objects under the given prefix
func (b *Backend) List(ctx context.Context, prefix string) ([]minio.ObjectInfo, error) {
	var objects []minio.ObjectInfo
	objectsCh := b.client.ListObjects(ctx, b.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for object := range objectsCh {
		if object.Err != nil {
			return nil, object.Err
		}
		objects = append(objects, object)
	}

	return objects, nil
}
