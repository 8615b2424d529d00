package blobstore

import (
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Minter hands out file:// URLs for binary content and tracks them until
// they are released. A page loaded from a file:// URL can display them.
type Minter struct {
	mu     sync.Mutex
	dir    string
	owned  bool
	closed bool
	seq    int
	minted map[string]string // url -> path
}

// NewMinter writes into dir, or into a fresh temporary directory removed
// by Close when dir is empty.
func NewMinter(dir string) (*Minter, error) {
	m := &Minter{dir: dir, minted: make(map[string]string)}
	if dir == "" {
		tmp, err := os.MkdirTemp("", "catalog2pdf-run-*")
		if err != nil {
			return nil, fmt.Errorf("creating minter dir: %w", err)
		}
		m.dir = tmp
		m.owned = true
	} else if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("creating minter dir: %w", err)
	}
	return m, nil
}

// Dir returns the directory minted files live in.
func (m *Minter) Dir() string { return m.dir }

// Mint stores b as a file and returns its URL.
func (m *Minter) Mint(b Blob) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", ErrReleased
	}

	m.seq++
	name := fmt.Sprintf("blob-%d%s", m.seq, extensionFor(b.ContentType))
	p := filepath.Join(m.dir, name)
	if err := os.WriteFile(p, b.Data, filePerm); err != nil {
		return "", fmt.Errorf("minting url: %w", err)
	}
	u := (&url.URL{Scheme: "file", Path: filepath.ToSlash(p)}).String()
	m.minted[u] = p
	return u, nil
}

// Owns reports whether u was minted here and not yet released.
func (m *Minter) Owns(u string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.minted[u]
	return ok
}

// Release deletes the file behind u. Unknown URLs are ignored.
func (m *Minter) Release(u string) error {
	m.mu.Lock()
	p, ok := m.minted[u]
	delete(m.minted, u)
	m.mu.Unlock()
	if !ok {
		return nil
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("releasing url: %w", err)
	}
	return nil
}

// Outstanding returns the number of minted URLs not yet released.
func (m *Minter) Outstanding() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.minted)
}

// Close releases every outstanding URL and, for a temporary directory,
// removes the directory. Mint fails afterwards.
func (m *Minter) Close() error {
	m.mu.Lock()
	urls := make([]string, 0, len(m.minted))
	for u := range m.minted {
		urls = append(urls, u)
	}
	m.closed = true
	m.mu.Unlock()

	var errs []error
	for _, u := range urls {
		errs = append(errs, m.Release(u))
	}
	if m.owned {
		errs = append(errs, os.RemoveAll(m.dir))
	}
	return errors.Join(errs...)
}

// Detach forgets every minted URL without deleting its file, so the files
// outlive the minter.
func (m *Minter) Detach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.minted = make(map[string]string)
}

func extensionFor(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ".bin"
	}
	switch mt {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	}
	if strings.HasPrefix(mt, "image/") {
		return "." + strings.TrimPrefix(mt, "image/")
	}
	return ".bin"
}
