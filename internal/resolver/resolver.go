// Package resolver turns product image references into URLs a page can
// display: inline payloads pass through, blob keys are minted into
// temporary URLs, and remote images that failed to load can be fetched
// once and re-minted.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/alnah/go-catalog2pdf/internal/blobstore"
	"github.com/alnah/go-catalog2pdf/internal/catalog"
)

var (
	ErrNotRemote   = errors.New("source is not a remote URL")
	ErrFetchStatus = errors.New("unexpected fetch status")
	ErrTooLarge    = errors.New("image exceeds size limit")
	ErrNoMinter    = errors.New("resolver has no minter")
)

// DefaultMaxFetchBytes caps a single fallback download.
const DefaultMaxFetchBytes = 20 << 20

// Ref is the image reference carried by a product.
type Ref struct {
	Image   string
	ImageID string
}

// RefOf extracts p's image reference.
func RefOf(p catalog.Product) Ref {
	return Ref{Image: strings.TrimSpace(p.Image), ImageID: strings.TrimSpace(p.ImageID)}
}

// Resolver resolves references for one display lifetime. URLs it mints
// belong to Minter and are freed by Release or by closing the minter.
type Resolver struct {
	Blobs         blobstore.Store
	Minter        *blobstore.Minter
	HTTP          *http.Client
	MaxFetchBytes int64
}

// Resolve returns the display URL for ref: the inline image when set,
// otherwise a minted URL for the blob key. A missing blob resolves to "".
func (r *Resolver) Resolve(ctx context.Context, ref Ref) (string, error) {
	if ref.Image != "" {
		return ref.Image, nil
	}
	if ref.ImageID == "" || r.Blobs == nil {
		return "", nil
	}
	return r.ResolveKey(ctx, ref.ImageID)
}

// ResolveKey mints a URL for the blob stored under key, or returns "" when
// the key is absent.
func (r *Resolver) ResolveKey(ctx context.Context, key string) (string, error) {
	if r.Minter == nil {
		return "", ErrNoMinter
	}
	blob, err := r.Blobs.Get(ctx, key)
	if errors.Is(err, blobstore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return r.Minter.Mint(blob)
}

// Release frees a URL previously returned by Resolve. Inline and remote
// URLs are ignored.
func (r *Resolver) Release(url string) error {
	if r.Minter == nil || url == "" {
		return nil
	}
	return r.Minter.Release(url)
}

// IsRemote reports whether src is an http(s) URL, as opposed to an inline
// payload or a minted URL.
func (r *Resolver) IsRemote(src string) bool {
	s := strings.ToLower(strings.TrimSpace(src))
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return false
	}
	return r.Minter == nil || !r.Minter.Owns(src)
}

// Refetch downloads a remote image and mints a local URL for it.
func (r *Resolver) Refetch(ctx context.Context, src string) (string, error) {
	if !r.IsRemote(src) {
		return "", fmt.Errorf("%w: %q", ErrNotRemote, src)
	}
	if r.Minter == nil {
		return "", ErrNoMinter
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	client := r.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s returned %d", ErrFetchStatus, src, resp.StatusCode)
	}

	limit := r.MaxFetchBytes
	if limit <= 0 {
		limit = DefaultMaxFetchBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", src, err)
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("%w: %s", ErrTooLarge, src)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return r.Minter.Mint(blobstore.Blob{Data: data, ContentType: contentType})
}
