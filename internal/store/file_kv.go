package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultQuota mirrors the budget a browser gives local storage.
const DefaultQuota = 5 << 20

const (
	dirPerm  = 0o750
	filePerm = 0o600
	kvExt    = ".json"
)

// FileKV keeps one file per key in Dir. The combined size of all values
// may not exceed Quota bytes; zero means DefaultQuota, negative means no
// limit.
type FileKV struct {
	Dir   string
	Quota int64

	mu sync.Mutex
}

// NewFileKV returns a file backend rooted at dir.
func NewFileKV(dir string, quota int64) *FileKV {
	return &FileKV{Dir: dir, Quota: quota}
}

func (f *FileKV) path(key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	return filepath.Join(f.Dir, key+kvExt), nil
}

func (f *FileKV) Get(ctx context.Context, key string) (string, error) {
	p, err := f.path(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(p) // #nosec G304 -- key validated by checkKey
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("reading %q: %w", key, err)
	}
	return string(data), nil
}

func (f *FileKV) Set(ctx context.Context, key, value string) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if limit := f.limit(); limit > 0 {
		used, err := f.usedExcept(key)
		if err != nil {
			return err
		}
		if used+int64(len(value)) > limit {
			return fmt.Errorf("%w: %q needs %d bytes, %d of %d in use", ErrQuotaExceeded, key, len(value), used, limit)
		}
	}

	if err := os.MkdirAll(f.Dir, dirPerm); err != nil {
		return fmt.Errorf("creating store dir: %w", err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), filePerm); err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing %q: %w", key, err)
	}
	return nil
}

func (f *FileKV) Delete(ctx context.Context, key string) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting %q: %w", key, err)
	}
	return nil
}

func (f *FileKV) limit() int64 {
	if f.Quota == 0 {
		return DefaultQuota
	}
	return f.Quota
}

// usedExcept sums the sizes of every stored value but key's.
func (f *FileKV) usedExcept(key string) (int64, error) {
	entries, err := os.ReadDir(f.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading store dir: %w", err)
	}
	var total int64
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, kvExt) || name == key+kvExt {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total, nil
}

func (f *FileKV) String() string { return fmt.Sprintf("file(%s)", f.Dir) }

var _ KV = (*FileKV)(nil)
