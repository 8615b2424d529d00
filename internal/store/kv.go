// Package store persists the catalog: the store profile and the product
// list as two JSON entries in a key-value backend, with inline image
// payloads migrated into a blob store.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

var (
	ErrNotFound      = errors.New("key not found")
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrInvalidKey    = errors.New("invalid storage key")
	ErrUnknownDriver = errors.New("unknown store driver")
)

// KV is a string key-value backend. Set returns ErrQuotaExceeded when the
// value does not fit.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

var validKey = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,128}$`)

func checkKey(key string) error {
	if !validKey.MatchString(key) || key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
