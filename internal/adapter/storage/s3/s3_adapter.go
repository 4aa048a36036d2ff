package s3

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/kehillahub/gemach-directory/internal/platform/logger"
)

const resolveExpiry = time.Hour

// S3Storage is the object-store collaborator backed by MinIO. Upload
// returns the object key as the opaque storage path; URLs are minted on
// demand by ResolvePublicURL.
type S3Storage struct {
	client *minio.Client
	bucket string
	logger *logger.Logger
}

func NewS3Storage(endpoint, accessKey, secretKey, bucketName string, useSSL bool, log *logger.Logger) (*S3Storage, error) {
	log.Info("Initializing MinIO storage", "endpoint", endpoint, "bucket", bucketName, "use_ssl", useSSL)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		log.Error("S3Storage: failed to create MinIO client", "endpoint", endpoint, "error", err)
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", endpoint, err)
	}

	err = client.MakeBucket(context.Background(), bucketName, minio.MakeBucketOptions{})
	if err != nil {
		exists, errBucketExists := client.BucketExists(context.Background(), bucketName)
		if errBucketExists != nil || !exists {
			log.Error("S3Storage: failed to make or verify bucket", "bucket", bucketName,
				"make_bucket_error", err, "check_exists_error", errBucketExists)
			return nil, fmt.Errorf("failed to make/verify bucket %s: (make: %v / exists_check: %v)", bucketName, err, errBucketExists)
		}
	}

	return &S3Storage{
		client: client,
		bucket: bucketName,
		logger: log,
	}, nil
}

func (s *S3Storage) Upload(ctx context.Context, originalFileName string, data []byte) (string, error) {
	ext := filepath.Ext(originalFileName)
	objectKey := fmt.Sprintf("images/%s%s", uuid.New().String(), ext)

	s.logger.Info("S3Storage.Upload: uploading object",
		"bucket", s.bucket,
		"object_key", objectKey,
		"original_filename", originalFileName,
		"size_bytes", len(data))

	_, err := s.client.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		s.logger.Error("S3Storage.Upload: PutObject failed", "bucket", s.bucket, "key", objectKey, "error", err)
		return "", fmt.Errorf("failed to upload object %s to bucket %s: %w", objectKey, s.bucket, err)
	}

	return objectKey, nil
}

func (s *S3Storage) Remove(ctx context.Context, storagePath string) error {
	err := s.client.RemoveObject(ctx, s.bucket, storagePath, minio.RemoveObjectOptions{})
	if err != nil {
		s.logger.Error("S3Storage.Remove: RemoveObject failed", "bucket", s.bucket, "key", storagePath, "error", err)
		return fmt.Errorf("failed to remove object %s from bucket %s: %w", storagePath, s.bucket, err)
	}
	return nil
}

// ResolvePublicURL mints a time-limited display URL for the stored
// object. Callers treat a failure as an absent image, not a hard error.
func (s *S3Storage) ResolvePublicURL(ctx context.Context, storagePath string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, storagePath, resolveExpiry, nil)
	if err != nil {
		s.logger.Warn("S3Storage.ResolvePublicURL: presign failed", "bucket", s.bucket, "key", storagePath, "error", err)
		return "", fmt.Errorf("failed to presign object %s: %w", storagePath, err)
	}
	return u.String(), nil
}
