package catalog2pdf

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-catalog2pdf/internal/resolver"
)

// maxImageFetches bounds concurrent blob reads and fallback downloads.
const maxImageFetches = 8

// imageSettleTimeout caps the wait for any single image.
const imageSettleTimeout = 15 * time.Second

// imageState tracks one image element through resolution.
//
//	unresolved -> loading -> loaded
//	                      -> failed -> loading (one remote refetch) -> loaded | blank
//	                                -> blank
type imageState int

const (
	imageUnresolved imageState = iota
	imageLoading
	imageLoaded
	imageFailed
	imageBlank
)

func (s imageState) String() string {
	switch s {
	case imageUnresolved:
		return "unresolved"
	case imageLoading:
		return "loading"
	case imageLoaded:
		return "loaded"
	case imageFailed:
		return "failed"
	case imageBlank:
		return "blank"
	}
	return fmt.Sprintf("imageState(%d)", int(s))
}

type trackedImage struct {
	index     int
	src       string
	key       string
	state     imageState
	assigned  bool // src must be pushed to the page
	refetched bool
}

// imageResolution settles every image of a prepared clone. Failures of
// single images are logged and leave the image blank; only page errors
// abort the run.
type imageResolution struct {
	page     capturePage
	resolver *resolver.Resolver
	log      zerolog.Logger
	timeout  time.Duration
	images   []*trackedImage
}

func newImageResolution(page capturePage, res *resolver.Resolver, log zerolog.Logger) *imageResolution {
	return &imageResolution{page: page, resolver: res, log: log, timeout: imageSettleTimeout}
}

// run returns the number of images left blank.
func (r *imageResolution) run(ctx context.Context) (int, error) {
	slots, err := r.page.Images(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: listing images: %v", ErrCapture, err)
	}
	r.images = make([]*trackedImage, len(slots))
	for i, s := range slots {
		r.images[i] = &trackedImage{index: s.Index, src: s.Src, key: s.ImageID}
	}

	r.resolveKeys(ctx)
	if err := r.load(ctx); err != nil {
		return 0, err
	}

	if r.refetchRemote(ctx) > 0 {
		if err := r.load(ctx); err != nil {
			return 0, err
		}
	}

	blank := 0
	for _, img := range r.images {
		if img.state == imageFailed {
			img.state = imageBlank
		}
		if img.state == imageBlank {
			blank++
		}
	}

	if err := r.page.FitImages(ctx); err != nil {
		return 0, fmt.Errorf("%w: fitting images: %v", ErrCapture, err)
	}
	return blank, nil
}

// resolveKeys moves every image out of the unresolved state: images with a
// source are already loading, images with a blob key get a minted URL.
func (r *imageResolution) resolveKeys(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxImageFetches)

	for _, img := range r.images {
		if img.src != "" {
			img.state = imageLoading
			continue
		}
		if img.key == "" || r.resolver.Blobs == nil {
			img.state = imageBlank
			continue
		}
		g.Go(func() error {
			url, err := r.resolver.ResolveKey(gctx, img.key)
			switch {
			case err != nil:
				r.log.Warn().Err(err).Str("key", img.key).Msg("image blob unavailable")
				img.state = imageBlank
			case url == "":
				r.log.Debug().Str("key", img.key).Msg("image blob missing")
				img.state = imageBlank
			default:
				img.src = url
				img.assigned = true
				img.state = imageLoading
			}
			return nil
		})
	}
	_ = g.Wait()
}

// refetchRemote gives each failed remote image its single download
// attempt. It returns how many images are loading again.
func (r *imageResolution) refetchRemote(ctx context.Context) int {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxImageFetches)

	for _, img := range r.images {
		if img.state != imageFailed {
			continue
		}
		if img.refetched || !r.resolver.IsRemote(img.src) {
			img.state = imageBlank
			continue
		}
		img.refetched = true
		g.Go(func() error {
			url, err := r.resolver.Refetch(gctx, img.src)
			if err != nil {
				r.log.Warn().Err(err).Str("src", img.src).Msg("image fallback fetch failed")
				img.state = imageBlank
				return nil
			}
			r.log.Debug().Str("src", img.src).Msg("image fallback fetched")
			img.src = url
			img.assigned = true
			img.state = imageLoading
			return nil
		})
	}
	_ = g.Wait()

	n := 0
	for _, img := range r.images {
		if img.state == imageLoading {
			n++
		}
	}
	return n
}

// load pushes pending sources to the page and waits for every loading
// image to settle.
func (r *imageResolution) load(ctx context.Context) error {
	var sources []imageSource
	for _, img := range r.images {
		if img.assigned {
			sources = append(sources, imageSource{Index: img.index, Src: img.src})
			img.assigned = false
		}
	}
	if len(sources) > 0 {
		if err := r.page.SetImageSources(ctx, sources); err != nil {
			return fmt.Errorf("%w: assigning images: %v", ErrCapture, err)
		}
	}

	statuses, err := r.page.AwaitImages(ctx, r.timeout)
	if err != nil {
		return fmt.Errorf("%w: awaiting images: %v", ErrCapture, err)
	}
	loaded := make(map[int]bool, len(statuses))
	for _, s := range statuses {
		loaded[s.Index] = s.Loaded
	}
	for _, img := range r.images {
		if img.state != imageLoading {
			continue
		}
		if loaded[img.index] {
			img.state = imageLoaded
		} else {
			img.state = imageFailed
		}
	}
	return nil
}
