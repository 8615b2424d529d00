package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
)

const (
	dirPerm  = 0o750
	filePerm = 0o600
)

// Local stores blobs as files in BaseDir.
type Local struct {
	BaseDir string
}

// NewLocal returns a filesystem store rooted at baseDir.
func NewLocal(baseDir string) *Local {
	return &Local{BaseDir: baseDir}
}

func (l *Local) path(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(l.BaseDir, key), nil
}

// Put writes r to the key's file, replacing any previous content.
func (l *Local) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(l.BaseDir, dirPerm); err != nil {
		return fmt.Errorf("creating blob dir: %w", err)
	}

	tmp, err := os.CreateTemp(l.BaseDir, ".put-*")
	if err != nil {
		return fmt.Errorf("writing blob %q: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("writing blob %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing blob %q: %w", key, err)
	}
	if err := os.Chmod(tmp.Name(), filePerm); err != nil {
		return fmt.Errorf("writing blob %q: %w", key, err)
	}
	return os.Rename(tmp.Name(), p)
}

// Get reads the key's file. The content type is sniffed from the data.
func (l *Local) Get(ctx context.Context, key string) (Blob, error) {
	p, err := l.path(key)
	if err != nil {
		return Blob{}, err
	}
	if err := ctx.Err(); err != nil {
		return Blob{}, err
	}
	data, err := os.ReadFile(p) // #nosec G304 -- key validated above
	if errors.Is(err, fs.ErrNotExist) {
		return Blob{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if err != nil {
		return Blob{}, fmt.Errorf("reading blob %q: %w", key, err)
	}
	return Blob{Data: data, ContentType: http.DetectContentType(data)}, nil
}

// Delete removes the key's file. Deleting a missing key is not an error.
func (l *Local) Delete(ctx context.Context, key string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting blob %q: %w", key, err)
	}
	return nil
}

func (l *Local) String() string { return fmt.Sprintf("local(%s)", l.BaseDir) }

var _ Store = (*Local)(nil)
