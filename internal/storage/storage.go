// Package storage puts uploaded media (listening audio, map images) behind a
// single blob interface with local-disk and MinIO implementations.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/ieltsprep/ielts-backend/internal/config"
)

// BlobStore writes named objects and returns the URL they are served from.
type BlobStore interface {
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, name string) error
	URL(name string) string
}

// New picks the store named by cfg.StorageDriver.
func New(ctx context.Context, cfg *config.Config) (BlobStore, error) {
	switch cfg.StorageDriver {
	case "", "local":
		return NewLocalStore(cfg.UploadDir), nil
	case "minio":
		return NewMinioStore(ctx, MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
