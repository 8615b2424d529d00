package blobstore

import (
	"context"
	"fmt"
)

// Config picks and configures a backend.
type Config struct {
	Driver string // local (default) or s3
	Dir    string
	Bucket string
	Region string
	Prefix string
}

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", "local":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("%w: local blob dir required", ErrMissingConfig)
		}
		return NewLocal(cfg.Dir), nil
	case "s3":
		return NewS3(ctx, S3Config{Region: cfg.Region, Bucket: cfg.Bucket, Prefix: cfg.Prefix})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
