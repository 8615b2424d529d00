package store

import (
	"context"
	"fmt"
)

// Config selects the key-value backend.
type Config struct {
	Driver      string // file (default) or postgres
	Dir         string
	DatabaseURL string
	Table       string
	Quota       int64
}

// Backend is an opened KV with its release function.
type Backend struct {
	KV    KV
	Close func()
}

// Open returns the backend selected by cfg.Driver. Postgres tables are
// created on first use.
func Open(ctx context.Context, cfg Config) (*Backend, error) {
	switch cfg.Driver {
	case "", "file":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("%w: file store needs a directory", ErrInvalidKey)
		}
		return &Backend{KV: NewFileKV(cfg.Dir, cfg.Quota), Close: func() {}}, nil
	case "postgres":
		pool, err := NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		kv, err := NewPostgresKV(pool, cfg.Table, cfg.Quota)
		if err != nil {
			pool.Close()
			return nil, err
		}
		if err := kv.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return &Backend{KV: kv, Close: pool.Close}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
