package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/MuthuAjay/contracts-v3/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStorage keeps the original uploaded documents in MinIO. The analysis
// pipeline only ever sees extracted fields; the originals are retained so a
// document can be re-analyzed or audited later.
type ObjectStorage struct {
	client *minio.Client
	bucket string
	config *config.MinioConfig
}

func NewObjectStorage(cfg *config.MinioConfig) (*ObjectStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &ObjectStorage{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *ObjectStorage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// ObjectName builds the storage path for a user's uploaded document.
// Re-uploads of the same file name overwrite the previous original,
// matching the registry's last-write-wins identity.
func (s *ObjectStorage) ObjectName(user, fileName string) string {
	return fmt.Sprintf("%s/%s", user, fileName)
}

// StoreOriginal uploads the raw document bytes
func (s *ObjectStorage) StoreOriginal(ctx context.Context, objectName string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to store original: %w", err)
	}

	return nil
}

// OriginalURL generates a presigned download URL for the stored original
func (s *ObjectStorage) OriginalURL(ctx context.Context, objectName string) (string, error) {
	expiry := time.Duration(s.config.ExpireDays) * 24 * time.Hour
	url, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.String(), nil
}

// RemoveOriginal deletes the stored original, called when a document is
// removed from the registry
func (s *ObjectStorage) RemoveOriginal(ctx context.Context, objectName string) error {
	err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to remove original: %w", err)
	}

	return nil
}
