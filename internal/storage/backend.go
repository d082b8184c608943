package storage

import (
	"context"
	"fmt"

	"github.com/notekeeper/apiserver/config"
)

// NewBackend selects the ObjectStorage implementation named by cfg.Driver.
func NewBackend(ctx context.Context, cfg config.StorageConfig) (ObjectStorage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalClient(cfg.Local)
	case "minio":
		return NewMinioClient(cfg.Minio)
	case "gcs":
		return NewGCSClient(ctx, cfg.GCS)
	case "s3":
		return NewS3Client(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
