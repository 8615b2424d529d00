package catalog2pdf

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-catalog2pdf/internal/blobstore"
	"github.com/alnah/go-catalog2pdf/internal/catalog"
	"github.com/alnah/go-catalog2pdf/internal/paginate"
)

// Catalog data types.
type (
	Product    = catalog.Product
	StoreInfo  = catalog.StoreInfo
	TemplateID = catalog.TemplateID
)

// Page size constants.
const (
	PageSizeA4     = "a4"
	PageSizeLetter = "letter"
	PageSizeLegal  = "legal"
)

// Margin bounds in millimeters.
const (
	MinMargin     = 0.0
	MaxMargin     = 50.0
	DefaultMargin = 10.0
)

// Capture defaults.
const (
	// DefaultWidth is the reference capture width in CSS pixels, A4 at 96 dpi.
	DefaultWidth = 794
	// DefaultScale is the supersampling factor of the bitmap.
	DefaultScale = 2.0
)

// pageDimensions are portrait sizes in millimeters.
var pageDimensions = map[string][2]float64{
	PageSizeA4:     {210, 297},
	PageSizeLetter: {215.9, 279.4},
	PageSizeLegal:  {215.9, 355.6},
}

// PageSettings configures the physical PDF page. Pages are always portrait.
type PageSettings struct {
	Size   string  // "a4", "letter", "legal"
	Margin float64 // millimeters, applied to all sides
}

// DefaultPageSettings returns A4 with 10mm margins.
func DefaultPageSettings() *PageSettings {
	return &PageSettings{Size: PageSizeA4, Margin: DefaultMargin}
}

// Validate checks that page settings are valid.
// Returns nil if p is nil (nil means use defaults).
func (p *PageSettings) Validate() error {
	if p == nil {
		return nil
	}
	if _, ok := pageDimensions[strings.ToLower(p.Size)]; !ok {
		return fmt.Errorf("%w: %q (must be a4, letter, or legal)", ErrInvalidPageSize, p.Size)
	}
	if p.Margin < MinMargin || p.Margin > MaxMargin {
		return fmt.Errorf("%w: %.2f (must be between %.0f and %.0f mm)", ErrInvalidMargin, p.Margin, MinMargin, MaxMargin)
	}
	return nil
}

// geometry converts the settings, nil meaning defaults.
func (p *PageSettings) geometry() paginate.Geometry {
	if p == nil {
		p = DefaultPageSettings()
	}
	dims, ok := pageDimensions[strings.ToLower(p.Size)]
	if !ok {
		dims = pageDimensions[PageSizeA4]
	}
	return paginate.Geometry{PageWidth: dims[0], PageHeight: dims[1], Margin: p.Margin}
}

// Input contains export parameters.
type Input struct {
	Info     StoreInfo
	Products []Product
	// Category limits the export to one normalized category label.
	Category string
	// BaseName seeds the file name. Defaults to Info.Name.
	BaseName string
	Page     *PageSettings // nil = A4, 10mm
}

// ExportResult is a finished document.
type ExportResult struct {
	PDF      []byte
	FileName string
	Pages    int
	Links    int
	// BlankImages counts images that never loaded and render blank.
	BlankImages int
}

// State is a step of the export pipeline.
type State int

const (
	StateIdle State = iota
	StatePreparing
	StateImagesResolving
	StateCapturingBitmap
	StatePaginating
	StateLinkProjecting
	StateFinalizing
	StateFailed
)

var stateNames = [...]string{
	StateIdle:            "idle",
	StatePreparing:       "preparing",
	StateImagesResolving: "images-resolving",
	StateCapturingBitmap: "capturing-bitmap",
	StatePaginating:      "paginating",
	StateLinkProjecting:  "link-projecting",
	StateFinalizing:      "finalizing",
	StateFailed:          "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Option configures an Exporter.
type Option func(*Exporter)

// exporterConfig holds internal configuration for Exporter.
type exporterConfig struct {
	timeout   time.Duration
	width     int
	scale     float64
	assetPath string
}

// defaultTimeout is used when no timeout is specified.
const defaultTimeout = 90 * time.Second

// WithTimeout sets the export timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("catalog2pdf: WithTimeout duration must be positive")
	}
	return func(e *Exporter) {
		e.cfg.timeout = d
	}
}

// WithWidth sets the reference capture width in CSS pixels.
// Panics if px <= 0.
func WithWidth(px int) Option {
	if px <= 0 {
		panic("catalog2pdf: WithWidth must be positive")
	}
	return func(e *Exporter) {
		e.cfg.width = px
	}
}

// WithScale sets the bitmap supersampling factor.
// Panics if s < 1.
func WithScale(s float64) Option {
	if s < 1 {
		panic("catalog2pdf: WithScale must be at least 1")
	}
	return func(e *Exporter) {
		e.cfg.scale = s
	}
}

// WithLogger sets the diagnostic logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Exporter) {
		e.log = l
	}
}

// WithBlobStore lets exports resolve images stored under blob keys.
// Without one, such images render blank.
func WithBlobStore(s blobstore.Store) Option {
	return func(e *Exporter) {
		e.blobs = s
	}
}

// WithAssetPath overrides embedded templates, styles and scripts with the
// files found under dir.
func WithAssetPath(dir string) Option {
	return func(e *Exporter) {
		e.cfg.assetPath = dir
	}
}

// WithObserver reports every state transition to fn.
func WithObserver(fn func(State)) Option {
	return func(e *Exporter) {
		e.observer = fn
	}
}

// WithHTTPClient sets the client used for fallback image downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Exporter) {
		e.httpClient = c
	}
}

// WithClock sets the time source for the footer year and PDF metadata.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		e.now = now
	}
}
