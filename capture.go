package catalog2pdf

import (
	"context"
	"image"
	"time"

	"github.com/alnah/go-catalog2pdf/internal/layout"
)

// captureBrowser opens catalog documents as live pages.
type captureBrowser interface {
	NewPage(ctx context.Context, html string) (capturePage, error)
	Close() error
}

// capturePage is one loaded catalog document. Its methods drive the
// off-screen clone of the capture root and must be called in pipeline
// order: Prepare first, Cleanup and Close last.
type capturePage interface {
	// Prepare clones the capture root off-screen and normalizes it for
	// capture. It returns the number of cards left in the clone.
	Prepare(ctx context.Context, opts prepareOptions) (int, error)
	// Images lists the clone's image elements.
	Images(ctx context.Context) ([]imageSlot, error)
	// SetImageSources assigns sources by image index.
	SetImageSources(ctx context.Context, sources []imageSource) error
	// AwaitImages waits until every image has loaded or failed, each for at
	// most timeout, and reports which ones decoded.
	AwaitImages(ctx context.Context, timeout time.Duration) ([]imageStatus, error)
	// FitImages scales images into their boxes without distortion.
	FitImages(ctx context.Context) error
	// Measure reads the clone's size and marker boxes.
	Measure(ctx context.Context) (layout.Snapshot, error)
	AwaitFonts(ctx context.Context) error
	// Rasterize renders the clone at width CSS pixels times scale.
	Rasterize(ctx context.Context, width int, scale float64) (image.Image, error)
	// Cleanup removes the clone.
	Cleanup(ctx context.Context) error
	Close() error
}

type prepareOptions struct {
	Width           int    `json:"width"`
	Category        string `json:"category"`
	DefaultCategory string `json:"defaultCategory"`
}

type imageSlot struct {
	Index   int    `json:"index"`
	Src     string `json:"src"`
	ImageID string `json:"imageId"`
}

type imageSource struct {
	Index int    `json:"index"`
	Src   string `json:"src"`
}

type imageStatus struct {
	Index  int    `json:"index"`
	Src    string `json:"src"`
	Loaded bool   `json:"loaded"`
}
