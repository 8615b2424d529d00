package catalog2pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-catalog2pdf/internal/fileutil"
	"github.com/alnah/go-catalog2pdf/internal/layout"
	"github.com/alnah/go-catalog2pdf/internal/process"
)

// Compile-time interface checks
var (
	_ captureBrowser = (*rodBrowser)(nil)
	_ capturePage    = (*rodPage)(nil)
)

// rodBrowser implements captureBrowser using go-rod.
// Rod automatically downloads Chromium on first run if not found.
type rodBrowser struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
	script   string
}

// newRodBrowser creates a rodBrowser that injects script into every page.
func newRodBrowser(timeout time.Duration, script string) *rodBrowser {
	return &rodBrowser{timeout: timeout, script: script}
}

// ensureBrowser lazily launches and connects to the browser.
func (b *rodBrowser) ensureBrowser() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser != nil {
		return nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}
	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	b.browser = browser
	b.launcher = l
	return nil
}

// NewPage writes html to a temporary file, loads it and injects the
// capture script. Minted file:// image URLs resolve from such a page.
func (b *rodBrowser) NewPage(ctx context.Context, html string) (capturePage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := b.ensureBrowser(); err != nil {
		return nil, err
	}

	path, cleanup, err := fileutil.WriteTempFile(html, "html")
	if err != nil {
		return nil, err
	}

	fileURL := (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
	page, err := b.browser.Page(proto.TargetCreateTarget{URL: fileURL})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	p := &rodPage{page: page, cleanup: cleanup}

	timeout := b.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			_ = p.Close()
			return nil, context.DeadlineExceeded
		}
	}
	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if _, err := page.Context(ctx).Eval(b.script); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("%w: injecting capture script: %v", ErrPageLoad, err)
	}
	return p, nil
}

// Close releases browser resources and kills leftover Chrome processes.
func (b *rodBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.browser = nil
	if b.launcher != nil {
		process.KillProcessGroup(b.launcher.PID())
		b.launcher.Kill()
		b.launcher = nil
	}
	return err
}

// rodPage implements capturePage over a loaded rod page.
type rodPage struct {
	page    *rod.Page
	cleanup func()
}

// call invokes a method of the injected capture object and decodes its
// result into out when out is not nil.
func (p *rodPage) call(ctx context.Context, js string, out any, args ...any) error {
	res, err := p.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return res.Value.Unmarshal(out)
}

func (p *rodPage) Prepare(ctx context.Context, opts prepareOptions) (int, error) {
	var cards int
	if err := p.call(ctx, `(o) => window.__catalogCapture.prepare(o)`, &cards, opts); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoCaptureRoot, err)
	}
	return cards, nil
}

func (p *rodPage) Images(ctx context.Context) ([]imageSlot, error) {
	var slots []imageSlot
	err := p.call(ctx, `() => window.__catalogCapture.images()`, &slots)
	return slots, err
}

func (p *rodPage) SetImageSources(ctx context.Context, sources []imageSource) error {
	return p.call(ctx, `(s) => window.__catalogCapture.assign(s)`, nil, sources)
}

func (p *rodPage) AwaitImages(ctx context.Context, timeout time.Duration) ([]imageStatus, error) {
	var statuses []imageStatus
	err := p.call(ctx, `(ms) => window.__catalogCapture.settle(ms)`, &statuses, timeout.Milliseconds())
	return statuses, err
}

func (p *rodPage) FitImages(ctx context.Context) error {
	return p.call(ctx, `() => window.__catalogCapture.fit()`, nil)
}

func (p *rodPage) Measure(ctx context.Context) (layout.Snapshot, error) {
	var snap layout.Snapshot
	if err := p.call(ctx, `() => window.__catalogCapture.measure()`, &snap); err != nil {
		return layout.Snapshot{}, fmt.Errorf("%w: measuring: %v", ErrCapture, err)
	}
	return snap, nil
}

func (p *rodPage) AwaitFonts(ctx context.Context) error {
	return p.call(ctx, `() => window.__catalogCapture.fonts()`, nil)
}

// Rasterize brings the clone on screen, sizes the viewport to it at the
// supersampling factor, and screenshots exactly its box.
func (p *rodPage) Rasterize(ctx context.Context, width int, scale float64) (image.Image, error) {
	var clip layout.Rect
	if err := p.call(ctx, `() => window.__catalogCapture.stage()`, &clip); err != nil {
		return nil, fmt.Errorf("%w: staging clone: %v", ErrRasterize, err)
	}
	if clip.Empty() {
		return nil, fmt.Errorf("%w: clone has no area", ErrRasterize)
	}

	page := p.page.Context(ctx)
	err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            int(math.Ceil(clip.H)),
		DeviceScaleFactor: scale,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: sizing viewport: %v", ErrRasterize, err)
	}

	shot, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X:      clip.X,
			Y:      clip.Y,
			Width:  clip.W,
			Height: clip.H,
			Scale:  1,
		},
		CaptureBeyondViewport: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterize, err)
	}
	img, err := png.Decode(bytes.NewReader(shot))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding screenshot: %v", ErrRasterize, err)
	}
	return img, nil
}

func (p *rodPage) Cleanup(ctx context.Context) error {
	return p.call(ctx, `() => window.__catalogCapture.cleanup()`, nil)
}

// Close closes the page and removes its temporary HTML file.
func (p *rodPage) Close() error {
	err := p.page.Close()
	if p.cleanup != nil {
		p.cleanup()
		p.cleanup = nil
	}
	return err
}
