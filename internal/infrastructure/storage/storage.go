// Package storage uploads generated dish images and hands back the URL stored with the recipe
package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alchemorsel/fusionchef/internal/infrastructure/config"
	"github.com/alchemorsel/fusionchef/internal/ports/outbound"
)

// NewImageStore picks the store named by storage.provider
func NewImageStore(cfg config.StorageConfig, logger *zap.Logger) (outbound.ImageStore, error) {
	switch cfg.Provider {
	case "minio":
		return NewMinioStore(cfg, logger)
	case "s3":
		return NewS3Store(cfg, logger)
	default:
		return DataURIStore{}, nil
	}
}

// DataURIStore inlines the image into a data URI. Used when no object storage is configured.
type DataURIStore struct{}

// Put encodes the image
func (DataURIStore) Put(ctx context.Context, img outbound.GeneratedImage) (string, error) {
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(img.Data)), nil
}

// objectKey builds prefix/YYYY/MM/<uuid><ext>
func objectKey(prefix, mimeType string, now time.Time) string {
	ext := ".png"
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	return path.Join(strings.Trim(prefix, "/"), now.Format("2006/01"), uuid.NewString()+ext)
}

// publicURL joins the configured public base with the key, or falls back to the
// path-style endpoint URL
func publicURL(cfg config.StorageConfig, key string) string {
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/") + "/" + key
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	if cfg.Endpoint == "" {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", cfg.Bucket, cfg.Region, key)
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, cfg.Endpoint, cfg.Bucket, key)
}
