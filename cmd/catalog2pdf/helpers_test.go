package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	catalog2pdf "github.com/alnah/go-catalog2pdf"
	"github.com/alnah/go-catalog2pdf/internal/config"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - fake exporter and pool
// ---------------------------------------------------------------------------

// fakeExporter records inputs and returns a small PDF.
type fakeExporter struct {
	mu     sync.Mutex
	inputs []catalog2pdf.Input
	err    error
	failOn string // category that fails
}

func (f *fakeExporter) Export(_ context.Context, input catalog2pdf.Input) (*catalog2pdf.ExportResult, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, input)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.failOn != "" && input.Category == f.failOn {
		return nil, errors.New("capture failed")
	}
	name := "tienda.pdf"
	if input.Category != "" {
		name = "tienda-" + strings.ToLower(input.Category) + ".pdf"
	}
	return &catalog2pdf.ExportResult{PDF: []byte("%PDF-1.3 fake"), FileName: name, Pages: 1}, nil
}

func (f *fakeExporter) categories() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, in := range f.inputs {
		out = append(out, in.Category)
	}
	return out
}

// fakePool hands out one shared fake exporter.
type fakePool struct {
	exp        *fakeExporter
	size       int
	acquireErr error
	opts       []catalog2pdf.Option
	closed     bool
}

func (p *fakePool) Acquire(context.Context) (catalog2pdf.ExportRunner, error) {
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	return p.exp, nil
}

func (p *fakePool) Release(catalog2pdf.ExportRunner) {}

func (p *fakePool) Size() int { return p.size }

func (p *fakePool) Close() error {
	p.closed = true
	return nil
}

// fakeOpener records opened URLs instead of launching a browser.
type fakeOpener struct{ urls []string }

func (o *fakeOpener) Open(url string) error {
	o.urls = append(o.urls, url)
	return nil
}

// fakeSharer records shared paths.
type fakeSharer struct{ paths []string }

func (s *fakeSharer) Available() bool { return true }

func (s *fakeSharer) Share(_ context.Context, path string) error {
	s.paths = append(s.paths, path)
	return nil
}

// testEnv is an Environment over temp storage and a fake pool.
type testEnv struct {
	*Environment
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	exp    *fakeExporter
	pool   *fakePool
	opener *fakeOpener
	dir    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.ApplyDefaults(dir)
	cfg.Export.OutputDir = filepath.Join(dir, "out")
	cfg.Export.BaseName = "tienda"

	nop := zerolog.Nop()
	te := &testEnv{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		exp:    &fakeExporter{},
		opener: &fakeOpener{},
		dir:    dir,
	}
	te.pool = &fakePool{exp: te.exp}
	te.Environment = &Environment{
		Now:    func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) },
		Stdout: te.stdout,
		Stderr: te.stderr,
		Config: cfg,
		Logger: &nop,
		NewPool: func(size int, opts ...catalog2pdf.Option) Pool {
			te.pool.size = size
			te.pool.opts = opts
			return te.pool
		},
		Opener:  te.opener,
		Getenv:  func(string) string { return "" },
		Environ: func() []string { return nil },
	}
	return te
}

// run dispatches a command line through runMain.
func (te *testEnv) run(args ...string) int {
	te.stdout.Reset()
	te.stderr.Reset()
	return runMain(append([]string{"catalog2pdf"}, args...), te.Environment)
}

// mustRun fails the test unless the command exits 0.
func (te *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	if code := te.run(args...); code != ExitSuccess {
		t.Fatalf("%v exit = %d, stderr = %s", args, code, te.stderr.String())
	}
	return te.stdout.String()
}
