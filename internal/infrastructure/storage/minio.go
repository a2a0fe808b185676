package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/alchemorsel/fusionchef/internal/infrastructure/config"
	"github.com/alchemorsel/fusionchef/internal/ports/outbound"
)

// MinioStore uploads images to any S3-compatible endpoint through minio-go
type MinioStore struct {
	client   *minio.Client
	cfg      config.StorageConfig
	initOnce sync.Once
	initErr  error
	logger   *zap.Logger
}

// NewMinioStore creates the store; the bucket is created lazily on first upload
func NewMinioStore(cfg config.StorageConfig, logger *zap.Logger) (*MinioStore, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("storage endpoint is required for minio")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("storage access key and secret key are required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	return &MinioStore{client: client, cfg: cfg, logger: logger.Named("minio-store")}, nil
}

func (s *MinioStore) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region})
	})
	return s.initErr
}

// Put uploads the image and returns its public URL
func (s *MinioStore) Put(ctx context.Context, img outbound.GeneratedImage) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}

	key := objectKey(s.cfg.KeyPrefix, img.MIMEType, time.Now())
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, key, bytes.NewReader(img.Data), int64(len(img.Data)), minio.PutObjectOptions{
		ContentType:  img.MIMEType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}

	s.logger.Debug("Image uploaded", zap.String("key", key), zap.Int("bytes", len(img.Data)))
	return publicURL(s.cfg, key), nil
}

// HealthCheck verifies the bucket is reachable
func (s *MinioStore) HealthCheck(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	return err
}
