// Package blobstore keeps product images out of the persisted catalog. It
// stores binaries by key on the local filesystem or in S3, and mints
// temporary file URLs a browser page can load.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrNotFound      = errors.New("blob not found")
	ErrInvalidKey    = errors.New("invalid blob key")
	ErrUnknownDriver = errors.New("unknown blob driver")
	ErrMissingConfig = errors.New("blob store configuration incomplete")
	ErrInvalidData   = errors.New("invalid data URI")
	ErrReleased      = errors.New("minter already closed")
)

// Blob is stored binary content.
type Blob struct {
	Data        []byte
	ContentType string
}

// Store is a key to binary store.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	// Get returns ErrNotFound when key is absent.
	Get(ctx context.Context, key string) (Blob, error)
	Delete(ctx context.Context, key string) error
}

// ProductKey is the blob key of a product's migrated image.
func ProductKey(productID string) string {
	return "img-" + productID
}

// ValidateKey rejects keys that could escape a directory or bucket prefix.
func ValidateKey(key string) error {
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
