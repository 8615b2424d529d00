package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	catalog2pdf "github.com/alnah/go-catalog2pdf"
	"github.com/alnah/go-catalog2pdf/internal/catalog"
	"github.com/alnah/go-catalog2pdf/internal/fileutil"
	"github.com/alnah/go-catalog2pdf/internal/hints"
)

// exportSession is an opened app plus everything an export needs.
type exportSession struct {
	app    *app
	input  catalog2pdf.Input
	opts   []catalog2pdf.Option
	outDir string
}

// openExportSession opens storage, loads the catalog and resolves the
// page, exporter options and output directory.
func openExportSession(ctx context.Context, env *Environment, f *exportFlags) (*exportSession, error) {
	if f.workers < 0 {
		return nil, fmt.Errorf("%w: %d (must be >= 0)", ErrInvalidWorkerCount, f.workers)
	}

	a, err := openApp(ctx, env, &f.common)
	if err != nil {
		return nil, err
	}
	s, err := newExportSession(ctx, env, a, f)
	if err != nil {
		a.Close()
		return nil, err
	}
	return s, nil
}

func newExportSession(ctx context.Context, env *Environment, a *app, f *exportFlags) (*exportSession, error) {
	cat, err := a.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: loading catalog: %w", ErrStorage, err)
	}
	page, err := buildPageSettings(f, a.cfg)
	if err != nil {
		return nil, err
	}
	opts, err := exporterOptions(env, a, f)
	if err != nil {
		return nil, err
	}

	base := f.name
	if base == "" {
		base = a.cfg.Export.BaseName
	}
	return &exportSession{
		app: a,
		input: catalog2pdf.Input{
			Info:     cat.Info,
			Products: cat.Products,
			BaseName: base,
			Page:     page,
		},
		opts:   opts,
		outDir: resolveOutputDir(f.output, a.cfg),
	}, nil
}

// controllerFor wires a Controller over one exporter.
func (s *exportSession) controllerFor(env *Environment, exp catalog2pdf.ExportRunner) *catalog2pdf.Controller {
	sharer := env.Sharer
	if sharer == nil {
		sharer = catalog2pdf.CommandSharer{Command: s.app.cfg.Share.Command, Args: s.app.cfg.Share.Args}
	}
	return catalog2pdf.NewController(exp, catalog2pdf.ControllerOptions{
		OutputDir: s.outDir,
		Sharer:    sharer,
		Opener:    env.Opener,
		Notice:    env.Stderr,
		Logger:    s.app.log,
	})
}

// runExport exports the catalog, one category, or every category.
func runExport(ctx context.Context, args []string, env *Environment) error {
	f, rest, err := parseExportFlags(cmdExport, args, env.Stderr)
	if err != nil {
		return usageError(err)
	}
	if len(rest) > 0 {
		return fmt.Errorf("%w: unexpected argument %q", ErrUsage, rest[0])
	}
	if f.eachCategory && f.category != "" {
		return fmt.Errorf("%w: --category and --each-category are exclusive", ErrUsage)
	}

	s, err := openExportSession(ctx, env, f)
	if err != nil {
		return err
	}
	defer s.app.Close()

	if f.eachCategory {
		workers := f.workers
		if workers == 0 {
			workers = s.app.cfg.Export.Workers
		}
		return exportEachCategory(ctx, env, s, workers, &f.common)
	}

	pool := env.NewPool(1, s.opts...)
	defer pool.Close()

	exp, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer pool.Release(exp)

	ctrl := s.controllerFor(env, exp)
	start := env.Now()
	var path string
	if f.category != "" {
		path, err = ctrl.DownloadCategory(ctx, s.input, f.category)
	} else {
		path, err = ctrl.DownloadAll(ctx, s.input)
	}
	if err != nil {
		return err
	}
	printCreated(env, &f.common, path, env.Now().Sub(start))
	return nil
}

// runShare exports the whole catalog and shares it.
func runShare(ctx context.Context, args []string, env *Environment) error {
	f, rest, err := parseExportFlags(cmdShare, args, env.Stderr)
	if err != nil {
		return usageError(err)
	}
	if len(rest) > 0 {
		return fmt.Errorf("%w: unexpected argument %q", ErrUsage, rest[0])
	}

	s, err := openExportSession(ctx, env, f)
	if err != nil {
		return err
	}
	defer s.app.Close()

	pool := env.NewPool(1, s.opts...)
	defer pool.Close()

	exp, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer pool.Release(exp)

	out, err := s.controllerFor(env, exp).Share(ctx, s.input)
	if err != nil {
		return err
	}
	if f.common.quiet {
		return nil
	}
	if out.Attached {
		fmt.Fprintf(env.Stdout, "Shared %s\n", out.Path)
		return nil
	}
	fmt.Fprintf(env.Stdout, "Created %s\n", out.Path)
	fmt.Fprintln(env.Stderr, strings.TrimLeft(hints.ForShareCommand(s.app.cfg.Share.Command), "\n "))
	return nil
}

// runPreview writes the live catalog page as a standalone HTML file.
func runPreview(ctx context.Context, args []string, env *Environment) error {
	f, rest, err := parseSimpleFlags(cmdPreview, args, env.Stderr)
	if err != nil {
		return usageError(err)
	}
	out := f.output
	if out == "" && len(rest) == 1 {
		out = rest[0]
	}
	if out == "" {
		return fmt.Errorf("%w: preview needs -o <file.html>", ErrUsage)
	}

	a, err := openApp(ctx, env, &f.common)
	if err != nil {
		return err
	}
	defer a.Close()

	cat, err := a.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: loading catalog: %w", ErrStorage, err)
	}

	opts := []catalog2pdf.Option{
		catalog2pdf.WithBlobStore(a.blobs),
		catalog2pdf.WithLogger(a.log),
		catalog2pdf.WithClock(env.Now),
	}
	if a.cfg.Assets.BasePath != "" {
		opts = append(opts, catalog2pdf.WithAssetPath(a.cfg.Assets.BasePath))
	}
	exp, err := catalog2pdf.NewExporter(opts...)
	if err != nil {
		return err
	}
	defer exp.Close()

	filesDir := strings.TrimSuffix(out, filepath.Ext(out)) + "_files"
	html, err := exp.Preview(ctx, cat.Info, cat.Products, filesDir)
	if err != nil {
		return err
	}
	path, err := fileutil.WriteFile(filepath.Dir(out), filepath.Base(out), []byte(html))
	if err != nil {
		return fmt.Errorf("%w: %v", catalog2pdf.ErrWriteOutput, err)
	}
	printCreated(env, &f.common, path, 0)
	return nil
}

// printCreated reports a written file unless --quiet.
func printCreated(env *Environment, common *commonFlags, path string, d time.Duration) {
	if common.quiet {
		return
	}
	if common.verbose && d > 0 {
		fmt.Fprintf(env.Stdout, "Created %s (%v)\n", path, d.Round(time.Millisecond))
		return
	}
	fmt.Fprintf(env.Stdout, "Created %s\n", path)
}

// categoryJobs lists the category buckets of the visible products. Labels
// differing only in case export the same cards, so the first one wins.
func categoryJobs(products []catalog.Product) []string {
	groups := catalog.GroupByCategory(catalog.Visible(products))
	labels := make([]string, 0, len(groups))
next:
	for _, g := range groups {
		for _, l := range labels {
			if catalog.SameCategory(l, g.Label) {
				continue next
			}
		}
		labels = append(labels, g.Label)
	}
	return labels
}

// exportEachCategory writes one PDF per category through a pool.
func exportEachCategory(ctx context.Context, env *Environment, s *exportSession, workers int, common *commonFlags) error {
	jobs := categoryJobs(s.input.Products)
	if len(jobs) == 0 {
		return fmt.Errorf("%w: no visible products to export", ErrUsage)
	}

	pool := env.NewPool(resolvePoolSize(workers, len(jobs)), s.opts...)
	defer pool.Close()

	results := exportBatch(ctx, pool, jobs, func(ctx context.Context, exp catalog2pdf.ExportRunner, category string) (string, error) {
		return s.controllerFor(env, exp).DownloadCategory(ctx, s.input, category)
	}, env.Now)

	failed, firstErr := printResults(results, common, env)
	if failed > 0 {
		return fmt.Errorf("%d of %d export(s) failed: %w", failed, len(results), firstErr)
	}
	return nil
}
