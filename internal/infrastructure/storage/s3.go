package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"go.uber.org/zap"

	"github.com/alchemorsel/fusionchef/internal/infrastructure/config"
	"github.com/alchemorsel/fusionchef/internal/ports/outbound"
)

// S3Store uploads images to AWS S3
type S3Store struct {
	client *s3.S3
	cfg    config.StorageConfig
	logger *zap.Logger
}

// NewS3Store creates the store. Static keys are used when configured, otherwise the
// default AWS credential chain applies.
func NewS3Store(cfg config.StorageConfig, logger *zap.Logger) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required for s3")
	}

	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
		awsCfg.DisableSSL = aws.Bool(!cfg.UseSSL)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Store{client: s3.New(sess), cfg: cfg, logger: logger.Named("s3-store")}, nil
}

// Put uploads the image and returns its public URL
func (s *S3Store) Put(ctx context.Context, img outbound.GeneratedImage) (string, error) {
	key := objectKey(s.cfg.KeyPrefix, img.MIMEType, time.Now())

	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.cfg.Bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(img.Data),
		ContentType:  aws.String(img.MIMEType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}

	s.logger.Debug("Image uploaded", zap.String("key", key), zap.Int("bytes", len(img.Data)))
	return publicURL(s.cfg, key), nil
}

// HealthCheck verifies the bucket is reachable
func (s *S3Store) HealthCheck(ctx context.Context) error {
	_, err := s.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.cfg.Bucket)})
	return err
}
