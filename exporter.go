package catalog2pdf

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-catalog2pdf/internal/assets"
	"github.com/alnah/go-catalog2pdf/internal/blobstore"
	"github.com/alnah/go-catalog2pdf/internal/catalog"
	"github.com/alnah/go-catalog2pdf/internal/fileutil"
	"github.com/alnah/go-catalog2pdf/internal/layout"
	"github.com/alnah/go-catalog2pdf/internal/paginate"
	"github.com/alnah/go-catalog2pdf/internal/pdfdoc"
	"github.com/alnah/go-catalog2pdf/internal/render"
	"github.com/alnah/go-catalog2pdf/internal/resolver"
)

// cleanupTimeout bounds the teardown of a run whose context is done.
const cleanupTimeout = 5 * time.Second

// pdfCreator is written into the document info dictionary.
const pdfCreator = "catalog2pdf"

// Exporter turns catalogs into paginated PDFs through a headless browser.
// Create with NewExporter, use Export, and Close when done. An Exporter
// runs one export at a time; use ExporterPool for parallel exports.
type Exporter struct {
	cfg         exporterConfig
	assetLoader assets.AssetLoader
	renderer    *render.Renderer
	browser     captureBrowser
	blobs       blobstore.Store
	httpClient  *http.Client
	log         zerolog.Logger
	observer    func(State)
	now         func() time.Time
}

// NewExporter creates an Exporter with default configuration.
// Returns error if asset loading or template parsing fails.
func NewExporter(opts ...Option) (*Exporter, error) {
	e := &Exporter{
		cfg: exporterConfig{
			timeout: defaultTimeout,
			width:   DefaultWidth,
			scale:   DefaultScale,
		},
		assetLoader: assets.NewEmbeddedLoader(),
		log:         zerolog.Nop(),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.cfg.assetPath != "" {
		loader, err := assets.NewAssetResolver(e.cfg.assetPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
		}
		e.assetLoader = loader
	}

	renderer, err := render.New(e.assetLoader)
	if err != nil {
		return nil, fmt.Errorf("initializing renderer: %w", err)
	}
	e.renderer = renderer

	// Create browser if not injected (e.g., by tests)
	if e.browser == nil {
		script, err := e.assetLoader.LoadScript(assets.CaptureScript)
		if err != nil {
			return nil, fmt.Errorf("loading capture script: %w", err)
		}
		e.browser = newRodBrowser(e.cfg.timeout, script)
	}

	return e, nil
}

// Close releases browser resources.
func (e *Exporter) Close() error {
	if e.browser != nil {
		return e.browser.Close()
	}
	return nil
}

// Preview renders the live catalog page. Images stored under blob keys are
// written into dir so the page displays them when opened from disk.
func (e *Exporter) Preview(ctx context.Context, info StoreInfo, products []Product, dir string) (string, error) {
	opts := render.Options{Now: e.now}
	if e.blobs != nil {
		minter, err := blobstore.NewMinter(dir)
		if err != nil {
			return "", err
		}
		// minted files belong to the preview, not to this call
		defer minter.Detach()
		res := &resolver.Resolver{Blobs: e.blobs, Minter: minter}
		opts.ImageSrc = func(p catalog.Product) (string, error) {
			return res.Resolve(ctx, resolver.RefOf(p))
		}
	}
	return e.renderer.RenderString(info, products, opts)
}

// Export runs the full pipeline and returns the finished document.
// Every temporary resource of the run is released before Export returns.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (e *Exporter) Export(ctx context.Context, input Input) (result *ExportResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrExportPanic, r)
		}
		if err != nil {
			e.enter(StateFailed)
			e.log.Debug().Err(err).Msg("export failed")
		}
		e.enter(StateIdle)
	}()

	if err := input.Page.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.timeout)
	defer cancel()

	run, err := e.newRun(input)
	if err != nil {
		return nil, err
	}
	defer run.teardown(ctx)

	return run.export(ctx)
}

// enter reports a state transition.
func (e *Exporter) enter(s State) {
	e.log.Debug().Stringer("state", s).Msg("export state")
	if e.observer != nil {
		e.observer(s)
	}
}

// exportRun owns everything one export allocates: the page with its
// off-screen clone and the minter behind temporary image URLs.
type exportRun struct {
	e        *Exporter
	input    Input
	minter   *blobstore.Minter
	resolver *resolver.Resolver
	page     capturePage
}

func (e *Exporter) newRun(input Input) (*exportRun, error) {
	minter, err := blobstore.NewMinter("")
	if err != nil {
		return nil, err
	}
	return &exportRun{
		e:      e,
		input:  input,
		minter: minter,
		resolver: &resolver.Resolver{
			Blobs:  e.blobs,
			Minter: minter,
			HTTP:   e.httpClient,
		},
	}, nil
}

// teardown removes the clone, closes the page and releases every minted
// URL. It runs on every exit path, with a fresh deadline when ctx is done.
func (r *exportRun) teardown(ctx context.Context) {
	log := r.e.log
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if r.page != nil {
		if err := r.page.Cleanup(ctx); err != nil {
			log.Warn().Err(err).Msg("removing capture clone")
		}
		if err := r.page.Close(); err != nil {
			log.Warn().Err(err).Msg("closing capture page")
		}
		r.page = nil
	}
	if err := r.minter.Close(); err != nil {
		log.Warn().Err(err).Msg("releasing temporary image URLs")
	}
}

func (r *exportRun) export(ctx context.Context) (*ExportResult, error) {
	e := r.e

	// Preparing
	e.enter(StatePreparing)
	html, err := e.renderer.RenderString(r.input.Info, r.input.Products, render.Options{Now: e.now})
	if err != nil {
		return nil, err
	}
	r.page, err = e.browser.NewPage(ctx, html)
	if err != nil {
		return nil, err
	}
	cards, err := r.page.Prepare(ctx, prepareOptions{
		Width:           e.cfg.width,
		Category:        strings.TrimSpace(r.input.Category),
		DefaultCategory: catalog.DefaultCategory,
	})
	if err != nil {
		return nil, err
	}
	if r.input.Category != "" && cards == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyCategory, r.input.Category)
	}

	// ImagesResolving
	e.enter(StateImagesResolving)
	blank, err := newImageResolution(r.page, r.resolver, e.log).run(ctx)
	if err != nil {
		return nil, err
	}

	// CapturingBitmap: link boxes are read while the clone still has layout
	e.enter(StateCapturingBitmap)
	snap, err := r.page.Measure(ctx)
	if err != nil {
		return nil, err
	}
	links := layout.Links(snap.Markers, r.input.Info.WhatsApp)
	if err := r.page.AwaitFonts(ctx); err != nil {
		e.log.Debug().Err(err).Msg("font readiness unavailable")
	}
	bitmap, err := r.page.Rasterize(ctx, e.cfg.width, e.cfg.scale)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Paginating
	e.enter(StatePaginating)
	geometry := r.input.Page.geometry()
	bounds := bitmap.Bounds()
	scale, err := paginate.ScaleFor(bounds.Dx(), bounds.Dy(), snap.Width, snap.Height)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaginate, err)
	}
	plan, err := paginate.NewPlan(geometry, bounds.Dx(), bounds.Dy(), scale.Y, snap.Cards())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaginate, err)
	}
	pages := make([]pdfdoc.Page, len(plan.Slices))
	for i, s := range plan.Slices {
		data, err := pdfdoc.EncodeJPEG(paginate.Crop(bitmap, s), pdfdoc.SliceQuality)
		if err != nil {
			return nil, err
		}
		pages[i] = pdfdoc.Page{JPEG: data, HeightMM: plan.SliceHeightMM(s)}
	}

	// LinkProjecting
	e.enter(StateLinkProjecting)
	regions := paginate.ProjectLinks(links, scale, plan)
	placed := 0
	for i := range pages {
		pages[i].Links = regions[i]
		placed += len(regions[i])
	}

	// Finalizing
	e.enter(StateFinalizing)
	base := r.input.BaseName
	if strings.TrimSpace(base) == "" {
		base = r.input.Info.Name
	}
	suffix := ""
	if r.input.Category != "" {
		suffix = catalog.Slug(r.input.Category)
	}
	pdf, err := pdfdoc.Compose(pages, geometry, pdfdoc.Metadata{
		Title:     catalogTitle(r.input.Info),
		Author:    strings.TrimSpace(r.input.Info.Name),
		Creator:   pdfCreator,
		CreatedAt: e.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	e.log.Debug().
		Int("pages", len(pages)).
		Int("links", placed).
		Int("blank_images", blank).
		Msg("export finished")

	return &ExportResult{
		PDF:         pdf,
		FileName:    fileutil.SuffixedFileName(base, suffix),
		Pages:       len(pages),
		Links:       placed,
		BlankImages: blank,
	}, nil
}

func catalogTitle(info StoreInfo) string {
	if name := strings.TrimSpace(info.Name); name != "" {
		return name
	}
	return render.DefaultName
}
