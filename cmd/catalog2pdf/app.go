package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	catalog2pdf "github.com/alnah/go-catalog2pdf"
	"github.com/alnah/go-catalog2pdf/internal/blobstore"
	"github.com/alnah/go-catalog2pdf/internal/config"
	"github.com/alnah/go-catalog2pdf/internal/hints"
	"github.com/alnah/go-catalog2pdf/internal/logger"
	"github.com/alnah/go-catalog2pdf/internal/store"
)

// hintedError carries a hint known only where the error was produced.
type hintedError struct {
	err  error
	hint string
}

func (e *hintedError) Error() string { return e.err.Error() }

func (e *hintedError) Unwrap() error { return e.err }

// app is the opened configuration, logger and storage of one command.
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	blobs blobstore.Store
	store *store.Store
	close func()
}

// Close releases the storage backends.
func (a *app) Close() {
	if a.close != nil {
		a.close()
	}
}

// loadConfig resolves the configuration: the injected one, or the file
// named by --config, CATALOG2PDF_CONFIG or the default name, then
// environment overrides and defaults.
func loadConfig(env *Environment, common *commonFlags) (*config.Config, error) {
	var cfg *config.Config
	if env.Config != nil {
		copied := *env.Config
		cfg = &copied
	} else {
		ec := loadEnvConfig(env.Getenv)
		name := common.config
		if name == "" {
			name = ec.ConfigPath
		}
		var err error
		if name != "" {
			cfg, err = config.LoadConfig(name)
			if err != nil {
				return nil, fmt.Errorf("loading config: %w", err)
			}
		} else {
			cfg, err = config.LoadConfig(config.DefaultName)
			if errors.Is(err, config.ErrConfigNotFound) {
				cfg = config.DefaultConfig()
			} else if err != nil {
				return nil, fmt.Errorf("loading config: %w", err)
			}
		}
		applyEnvConfig(ec, cfg)
		cfg.ApplyDefaults(config.DefaultDataDir())
	}

	if common.logLevel != "" {
		cfg.Log.Level = common.logLevel
	}
	if common.logFormat != "" {
		cfg.Log.Format = common.logFormat
	}
	cfg.Store.Driver = strings.ToLower(cfg.Store.Driver)
	cfg.Blobs.Driver = strings.ToLower(cfg.Blobs.Driver)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the command's logger. --verbose forces debug and
// --quiet forces error.
func newLogger(env *Environment, cfg *config.Config, common *commonFlags) zerolog.Logger {
	if env.Logger != nil {
		return *env.Logger
	}
	level := cfg.Log.Level
	switch {
	case common.verbose:
		level = "debug"
	case common.quiet:
		level = "error"
	}
	return logger.New(logger.Config{Level: level, Format: cfg.Log.Format, Out: env.Stderr})
}

// openApp loads the configuration and opens the blob and catalog stores.
func openApp(ctx context.Context, env *Environment, common *commonFlags) (*app, error) {
	cfg, err := loadConfig(env, common)
	if err != nil {
		return nil, err
	}
	log := newLogger(env, cfg, common)

	blobs, err := blobstore.Open(ctx, blobstore.Config{
		Driver: cfg.Blobs.Driver,
		Dir:    cfg.Blobs.Dir,
		Bucket: cfg.Blobs.Bucket,
		Region: cfg.Blobs.Region,
		Prefix: cfg.Blobs.Prefix,
	})
	if err != nil {
		wrapped := fmt.Errorf("%w: opening blob store: %w", ErrStorage, err)
		if cfg.Blobs.Driver == "s3" {
			return nil, &hintedError{err: wrapped, hint: hints.ForS3Credentials()}
		}
		return nil, wrapped
	}

	backend, err := store.Open(ctx, store.Config{
		Driver:      cfg.Store.Driver,
		Dir:         cfg.Store.Dir,
		DatabaseURL: cfg.Store.DatabaseURL,
		Table:       cfg.Store.Table,
		Quota:       cfg.Store.QuotaBytes,
	})
	if err != nil {
		wrapped := fmt.Errorf("%w: opening catalog store: %w", ErrStorage, err)
		if cfg.Store.Driver == "postgres" {
			return nil, &hintedError{err: wrapped, hint: hints.ForDatabase()}
		}
		return nil, wrapped
	}

	log.Debug().
		Str("store", cfg.Store.Driver).
		Str("blobs", fmt.Sprint(blobs)).
		Msg("storage opened")

	return &app{
		cfg:   cfg,
		log:   log,
		blobs: blobs,
		store: store.New(backend.KV, blobs, log),
		close: backend.Close,
	}, nil
}

// resolveOutputDir picks --output over export.outputDir, defaulting to
// the working directory.
func resolveOutputDir(flagOutput string, cfg *config.Config) string {
	if flagOutput != "" {
		return flagOutput
	}
	if cfg.Export.OutputDir != "" {
		return cfg.Export.OutputDir
	}
	return "."
}

// buildPageSettings merges page flags into the configured page.
func buildPageSettings(f *exportFlags, cfg *config.Config) (*catalog2pdf.PageSettings, error) {
	ps := &catalog2pdf.PageSettings{Size: cfg.Export.Page.Size, Margin: cfg.Export.Page.Margin}
	if f.page.size != "" {
		ps.Size = strings.ToLower(f.page.size)
	}
	if f.set["margin"] {
		ps.Margin = f.page.margin
	}
	if err := ps.Validate(); err != nil {
		return nil, err
	}
	return ps, nil
}

// exporterOptions builds the exporter configuration from flags and config.
func exporterOptions(env *Environment, a *app, f *exportFlags) ([]catalog2pdf.Option, error) {
	opts := []catalog2pdf.Option{
		catalog2pdf.WithLogger(a.log),
		catalog2pdf.WithBlobStore(a.blobs),
		catalog2pdf.WithClock(env.Now),
	}

	timeout, err := resolveTimeout(f.render.timeout, a.cfg.Export.Timeout)
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		opts = append(opts, catalog2pdf.WithTimeout(timeout))
	}

	width := a.cfg.Export.Width
	if f.set["width"] {
		width = f.render.width
	}
	if width < config.MinWidth || width > config.MaxWidth {
		return nil, fmt.Errorf("%w: width must be between %d and %d, got %d", ErrUsage, config.MinWidth, config.MaxWidth, width)
	}
	opts = append(opts, catalog2pdf.WithWidth(width))

	scale := a.cfg.Export.Scale
	if f.set["scale"] {
		scale = f.render.scale
	}
	if scale < 1 || scale > config.MaxScale {
		return nil, fmt.Errorf("%w: scale must be between 1 and %.0f, got %.2f", ErrUsage, config.MaxScale, scale)
	}
	opts = append(opts, catalog2pdf.WithScale(scale))

	assetPath := a.cfg.Assets.BasePath
	if f.render.assetPath != "" {
		assetPath = f.render.assetPath
	}
	if assetPath != "" {
		opts = append(opts, catalog2pdf.WithAssetPath(filepath.Clean(assetPath)))
	}
	return opts, nil
}
