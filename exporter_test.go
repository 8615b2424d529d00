package catalog2pdf

// Notes:
// - Export is driven through mockBrowser/mockPage, which stand in for the
//   injected capture script. The DOM work of that script (cloning, category
//   filtering, marker measurement) is covered by the integration tests.
// - mockPage tracks the image sources the pipeline assigns, so cleanup of
//   minted temporary files can be checked from the outside.

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-catalog2pdf/internal/blobstore"
	"github.com/alnah/go-catalog2pdf/internal/catalog"
	"github.com/alnah/go-catalog2pdf/internal/layout"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockBrowser struct {
	mu      sync.Mutex
	page    *mockPage
	html    string
	err     error
	pages   int
	closed  bool
	closeFn func() error
}

func (b *mockBrowser) NewPage(ctx context.Context, html string) (capturePage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.html = html
	b.pages++
	if b.err != nil {
		return nil, b.err
	}
	return b.page, nil
}

func (b *mockBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.closeFn != nil {
		return b.closeFn()
	}
	return nil
}

type mockPage struct {
	mu sync.Mutex

	cards int
	slots []imageSlot
	// loads decides whether an image source decodes. Nil loads everything.
	loads func(src string) bool
	snap  layout.Snapshot

	failOn  string
	panicOn string

	prepared prepareOptions
	assigned []imageSource
	calls    []string
	cleaned  bool
	closed   bool
}

func newMockPage() *mockPage {
	return &mockPage{
		cards: 2,
		snap: layout.Snapshot{
			Width:  794,
			Height: 1600,
			Markers: []layout.Marker{
				{Kind: layout.MarkerSocial, Href: "https://instagram.com/tienda", Rect: layout.Rect{X: 20, Y: 80, W: 120, H: 20}},
				{Kind: layout.MarkerProduct, Name: "Zapato", Price: "25000", Category: "Zapatos", Rect: layout.Rect{X: 20, Y: 200, W: 360, H: 500}},
				{Kind: layout.MarkerProduct, Name: "Bolso", Price: "40000", Category: "Bolsos", Rect: layout.Rect{X: 20, Y: 720, W: 360, H: 500}},
			},
		},
	}
}

func (p *mockPage) step(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, name)
	if p.panicOn == name {
		panic("mock page exploded in " + name)
	}
	if p.failOn == name {
		return errors.New("mock " + name + " failed")
	}
	return nil
}

func (p *mockPage) Prepare(ctx context.Context, opts prepareOptions) (int, error) {
	if err := p.step("prepare"); err != nil {
		return 0, err
	}
	p.prepared = opts
	return p.cards, nil
}

func (p *mockPage) Images(ctx context.Context) ([]imageSlot, error) {
	if err := p.step("images"); err != nil {
		return nil, err
	}
	return slices.Clone(p.slots), nil
}

func (p *mockPage) SetImageSources(ctx context.Context, sources []imageSource) error {
	if err := p.step("assign"); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.assigned = append(p.assigned, sources...)
	for _, s := range sources {
		for i := range p.slots {
			if p.slots[i].Index == s.Index {
				p.slots[i].Src = s.Src
			}
		}
	}
	return nil
}

func (p *mockPage) AwaitImages(ctx context.Context, timeout time.Duration) ([]imageStatus, error) {
	if err := p.step("settle"); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	statuses := make([]imageStatus, len(p.slots))
	for i, s := range p.slots {
		loaded := s.Src != "" && (p.loads == nil || p.loads(s.Src))
		statuses[i] = imageStatus{Index: s.Index, Src: s.Src, Loaded: loaded}
	}
	return statuses, nil
}

func (p *mockPage) FitImages(ctx context.Context) error { return p.step("fit") }

func (p *mockPage) Measure(ctx context.Context) (layout.Snapshot, error) {
	if err := p.step("measure"); err != nil {
		return layout.Snapshot{}, err
	}
	return p.snap, nil
}

func (p *mockPage) AwaitFonts(ctx context.Context) error { return p.step("fonts") }

func (p *mockPage) Rasterize(ctx context.Context, width int, scale float64) (image.Image, error) {
	if err := p.step("rasterize"); err != nil {
		return nil, err
	}
	w := int(float64(width) * scale)
	h := int(p.snap.Height * scale)
	return image.NewRGBA(image.Rect(0, 0, w, h)), nil
}

func (p *mockPage) Cleanup(ctx context.Context) error {
	p.mu.Lock()
	p.cleaned = true
	p.mu.Unlock()
	return p.step("cleanup")
}

func (p *mockPage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// memBlobs is an in-memory blob store.
type memBlobs struct {
	mu    sync.Mutex
	blobs map[string]blobstore.Blob
}

func newMemBlobs() *memBlobs {
	return &memBlobs{blobs: make(map[string]blobstore.Blob)}
}

func (m *memBlobs) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = blobstore.Blob{Data: buf.Bytes(), ContentType: contentType}
	return nil
}

func (m *memBlobs) Get(ctx context.Context, key string) (blobstore.Blob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[key]
	if !ok {
		return blobstore.Blob{}, blobstore.ErrNotFound
	}
	return b, nil
}

func (m *memBlobs) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

func withBrowser(b captureBrowser) Option {
	return func(e *Exporter) {
		e.browser = b
	}
}

func newTestExporter(t *testing.T, page *mockPage, opts ...Option) (*Exporter, *mockBrowser) {
	t.Helper()
	browser := &mockBrowser{page: page}
	clock := func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }
	opts = append([]Option{withBrowser(browser), WithClock(clock)}, opts...)
	exp, err := NewExporter(opts...)
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}
	t.Cleanup(func() { _ = exp.Close() })
	return exp, browser
}

func testInput() Input {
	return Input{
		Info: StoreInfo{Name: "Mi Tienda! #1", WhatsApp: "+57 300 123 4567", Instagram: "@tienda"},
		Products: []Product{
			{ID: "1", Name: "Zapato", Price: 25000, Category: "Zapatos", Order: catalog.IntPtr(0)},
			{ID: "2", Name: "Bolso", Price: 40000, Category: "Bolsos", Order: catalog.IntPtr(1)},
		},
	}
}

// fileOf maps a minted file:// URL back to its path.
func fileOf(t *testing.T, u string) string {
	t.Helper()
	parsed, err := url.Parse(u)
	if err != nil || parsed.Scheme != "file" {
		t.Fatalf("not a minted URL: %q", u)
	}
	return parsed.Path
}

// ---------------------------------------------------------------------------
// TestExport - Pipeline runs
// ---------------------------------------------------------------------------

func TestExport_Success(t *testing.T) {
	t.Parallel()

	page := newMockPage()
	var states []State
	exp, browser := newTestExporter(t, page, WithObserver(func(s State) { states = append(states, s) }))

	result, err := exp.Export(context.Background(), testInput())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if !bytes.HasPrefix(result.PDF, []byte("%PDF-")) {
		t.Errorf("PDF does not start with %%PDF-: %q", result.PDF[:min(len(result.PDF), 8)])
	}
	if result.FileName != "mi-tienda-1.pdf" {
		t.Errorf("FileName = %q, want mi-tienda-1.pdf", result.FileName)
	}
	if result.Pages < 1 {
		t.Errorf("Pages = %d, want at least 1", result.Pages)
	}
	// one social link and two product chat links
	if result.Links < 3 {
		t.Errorf("Links = %d, want at least 3", result.Links)
	}

	want := []State{
		StatePreparing, StateImagesResolving, StateCapturingBitmap,
		StatePaginating, StateLinkProjecting, StateFinalizing, StateIdle,
	}
	if !slices.Equal(states, want) {
		t.Errorf("states = %v, want %v", states, want)
	}

	if !strings.Contains(browser.html, `data-capture-root="true"`) {
		t.Error("rendered page lacks the capture root marker")
	}
	if page.prepared.Width != DefaultWidth {
		t.Errorf("prepare width = %d, want %d", page.prepared.Width, DefaultWidth)
	}
	if !page.cleaned || !page.closed {
		t.Errorf("page cleaned=%v closed=%v, want both", page.cleaned, page.closed)
	}
}

func TestExport_StepOrder(t *testing.T) {
	t.Parallel()

	page := newMockPage()
	exp, _ := newTestExporter(t, page)

	if _, err := exp.Export(context.Background(), testInput()); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	want := []string{"prepare", "images", "settle", "fit", "measure", "fonts", "rasterize", "cleanup"}
	if !slices.Equal(page.calls, want) {
		t.Errorf("calls = %v, want %v", page.calls, want)
	}
}

func TestExport_NoPhoneSkipsProductLinks(t *testing.T) {
	t.Parallel()

	page := newMockPage()
	exp, _ := newTestExporter(t, page)

	input := testInput()
	input.Info.WhatsApp = ""
	result, err := exp.Export(context.Background(), input)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if result.Links != 1 {
		t.Errorf("Links = %d, want only the social link", result.Links)
	}
}

func TestExport_Category(t *testing.T) {
	t.Parallel()

	page := newMockPage()
	page.cards = 1
	exp, _ := newTestExporter(t, page)

	input := testInput()
	input.Category = "  Zapatos "
	result, err := exp.Export(context.Background(), input)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if page.prepared.Category != "Zapatos" {
		t.Errorf("prepare category = %q, want Zapatos", page.prepared.Category)
	}
	if page.prepared.DefaultCategory != catalog.DefaultCategory {
		t.Errorf("prepare default category = %q", page.prepared.DefaultCategory)
	}
	if result.FileName != "mi-tienda-1-zapatos.pdf" {
		t.Errorf("FileName = %q, want mi-tienda-1-zapatos.pdf", result.FileName)
	}
}

func TestExport_EmptyCategory(t *testing.T) {
	t.Parallel()

	page := newMockPage()
	page.cards = 0
	exp, _ := newTestExporter(t, page)

	input := testInput()
	input.Category = "Relojes"
	_, err := exp.Export(context.Background(), input)
	if !errors.Is(err, ErrEmptyCategory) {
		t.Fatalf("Export() error = %v, want ErrEmptyCategory", err)
	}
	if !page.cleaned || !page.closed {
		t.Error("page not torn down after precondition failure")
	}
}

func TestExport_BaseNameOverride(t *testing.T) {
	t.Parallel()

	exp, _ := newTestExporter(t, newMockPage())

	input := testInput()
	input.BaseName = "Temporada Verano"
	result, err := exp.Export(context.Background(), input)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if result.FileName != "temporada-verano.pdf" {
		t.Errorf("FileName = %q", result.FileName)
	}
}

// ---------------------------------------------------------------------------
// TestExport_Failures - Errors and teardown
// ---------------------------------------------------------------------------

func TestExport_StepFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		step    string
		wantErr error
	}{
		{step: "prepare", wantErr: nil},
		{step: "images", wantErr: ErrCapture},
		{step: "settle", wantErr: ErrCapture},
		{step: "fit", wantErr: ErrCapture},
		{step: "measure", wantErr: nil},
		{step: "rasterize", wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.step, func(t *testing.T) {
			t.Parallel()

			page := newMockPage()
			page.failOn = tt.step
			var states []State
			exp, _ := newTestExporter(t, page, WithObserver(func(s State) { states = append(states, s) }))

			result, err := exp.Export(context.Background(), testInput())
			if err == nil {
				t.Fatal("Export() error = nil, want failure")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Export() error = %v, want %v", err, tt.wantErr)
			}
			if result != nil {
				t.Error("Export() returned a partial result")
			}
			if !page.cleaned || !page.closed {
				t.Errorf("page cleaned=%v closed=%v after %s failure", page.cleaned, page.closed, tt.step)
			}
			if n := len(states); n < 2 || states[n-2] != StateFailed || states[n-1] != StateIdle {
				t.Errorf("states = %v, want to end with failed, idle", states)
			}
		})
	}
}

func TestExport_FontsFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	page := newMockPage()
	page.failOn = "fonts"
	exp, _ := newTestExporter(t, page)

	if _, err := exp.Export(context.Background(), testInput()); err != nil {
		t.Fatalf("Export() error = %v, want success without font signal", err)
	}
}

func TestExport_BrowserFailure(t *testing.T) {
	t.Parallel()

	exp, browser := newTestExporter(t, newMockPage())
	browser.err = ErrBrowserConnect

	_, err := exp.Export(context.Background(), testInput())
	if !errors.Is(err, ErrBrowserConnect) {
		t.Fatalf("Export() error = %v, want ErrBrowserConnect", err)
	}
}

func TestExport_RecoversPanic(t *testing.T) {
	t.Parallel()

	page := newMockPage()
	page.panicOn = "measure"
	exp, _ := newTestExporter(t, page)

	_, err := exp.Export(context.Background(), testInput())
	if !errors.Is(err, ErrExportPanic) {
		t.Fatalf("Export() error = %v, want ErrExportPanic", err)
	}
	if !page.cleaned || !page.closed {
		t.Error("page not torn down after panic")
	}
}

func TestExport_InvalidPage(t *testing.T) {
	t.Parallel()

	page := newMockPage()
	exp, browser := newTestExporter(t, page)

	input := testInput()
	input.Page = &PageSettings{Size: "a3", Margin: 10}
	_, err := exp.Export(context.Background(), input)
	if !errors.Is(err, ErrInvalidPageSize) {
		t.Fatalf("Export() error = %v, want ErrInvalidPageSize", err)
	}
	if browser.pages != 0 {
		t.Error("a page was opened for invalid input")
	}
}

// ---------------------------------------------------------------------------
// TestExport_Images - Image resolution and release
// ---------------------------------------------------------------------------

func TestExport_ReleasesMintedImages(t *testing.T) {
	t.Parallel()

	blobs := newMemBlobs()
	blobs.blobs["img-1"] = blobstore.Blob{Data: []byte("\xff\xd8\xff"), ContentType: "image/jpeg"}
	blobs.blobs["img-2"] = blobstore.Blob{Data: []byte("\x89PNG"), ContentType: "image/png"}

	page := newMockPage()
	page.slots = []imageSlot{
		{Index: 0, ImageID: "img-1"},
		{Index: 1, ImageID: "img-2"},
		{Index: 2, Src: "data:image/png;base64,AA=="},
	}
	exp, _ := newTestExporter(t, page, WithBlobStore(blobs))

	var minted []string
	page.loads = func(src string) bool {
		if strings.HasPrefix(src, "file://") {
			if _, err := os.Stat(fileOf(t, src)); err != nil {
				t.Errorf("minted file missing while loading: %v", err)
			}
			minted = append(minted, src)
		}
		return true
	}

	result, err := exp.Export(context.Background(), testInput())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if result.BlankImages != 0 {
		t.Errorf("BlankImages = %d, want 0", result.BlankImages)
	}
	if len(page.assigned) != 2 {
		t.Fatalf("assigned %d sources, want the 2 blob images", len(page.assigned))
	}
	if len(minted) != 2 {
		t.Fatalf("loaded %d minted URLs, want 2", len(minted))
	}
	for _, u := range minted {
		if _, err := os.Stat(fileOf(t, u)); !os.IsNotExist(err) {
			t.Errorf("minted file %s still exists after export", u)
		}
	}
}

func TestExport_ReleasesMintedImagesOnFailure(t *testing.T) {
	t.Parallel()

	blobs := newMemBlobs()
	blobs.blobs["img-1"] = blobstore.Blob{Data: []byte("x"), ContentType: "image/jpeg"}

	page := newMockPage()
	page.slots = []imageSlot{{Index: 0, ImageID: "img-1"}}
	page.failOn = "rasterize"
	exp, _ := newTestExporter(t, page, WithBlobStore(blobs))

	if _, err := exp.Export(context.Background(), testInput()); err == nil {
		t.Fatal("Export() error = nil, want failure")
	}
	if len(page.assigned) != 1 {
		t.Fatalf("assigned = %v", page.assigned)
	}
	if _, err := os.Stat(fileOf(t, page.assigned[0].Src)); !os.IsNotExist(err) {
		t.Error("minted file survived a failed export")
	}
}

func TestExport_MissingBlobIsBlank(t *testing.T) {
	t.Parallel()

	page := newMockPage()
	page.slots = []imageSlot{{Index: 0, ImageID: "img-gone"}}
	exp, _ := newTestExporter(t, page, WithBlobStore(newMemBlobs()))

	result, err := exp.Export(context.Background(), testInput())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if result.BlankImages != 1 {
		t.Errorf("BlankImages = %d, want 1", result.BlankImages)
	}
	if len(page.assigned) != 0 {
		t.Errorf("assigned = %v, want nothing", page.assigned)
	}
}

func TestExport_RemoteFallback(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("\xff\xd8\xff\xe0"))
	}))
	t.Cleanup(srv.Close)

	page := newMockPage()
	page.slots = []imageSlot{
		{Index: 0, Src: srv.URL + "/blocked.jpg"},
		{Index: 1, Src: srv.URL + "/missing.jpg"},
		{Index: 2, Src: "data:image/png;base64,broken"},
	}
	// remote URLs never decode in the page; refetched copies do
	page.loads = func(src string) bool { return strings.HasPrefix(src, "file://") }
	exp, _ := newTestExporter(t, page, WithHTTPClient(srv.Client()))

	result, err := exp.Export(context.Background(), testInput())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	// the 404 and the broken inline payload stay blank
	if result.BlankImages != 2 {
		t.Errorf("BlankImages = %d, want 2", result.BlankImages)
	}
	if len(page.assigned) != 1 || page.assigned[0].Index != 0 {
		t.Fatalf("assigned = %v, want one refetched source for image 0", page.assigned)
	}
	settles := 0
	for _, c := range page.calls {
		if c == "settle" {
			settles++
		}
	}
	if settles != 2 {
		t.Errorf("settled %d times, want 2 (initial and after fallback)", settles)
	}
}

// ---------------------------------------------------------------------------
// TestPreview - Standalone preview
// ---------------------------------------------------------------------------

func TestPreview_MintsIntoDir(t *testing.T) {
	t.Parallel()

	blobs := newMemBlobs()
	blobs.blobs["img-1"] = blobstore.Blob{Data: []byte("\xff\xd8\xff"), ContentType: "image/jpeg"}
	exp, _ := newTestExporter(t, newMockPage(), WithBlobStore(blobs))

	dir := t.TempDir()
	products := []Product{{ID: "1", Name: "Zapato", Price: 1000, ImageID: "img-1"}}
	html, err := exp.Preview(context.Background(), StoreInfo{Name: "Tienda"}, products, dir)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if !strings.Contains(html, "file://") {
		t.Error("preview does not reference the minted image")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("preview dir has %d files, want 1", len(entries))
	}
}
