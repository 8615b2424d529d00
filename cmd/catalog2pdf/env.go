package main

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	catalog2pdf "github.com/alnah/go-catalog2pdf"
	"github.com/alnah/go-catalog2pdf/internal/config"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now    func() time.Time
	Stdout io.Writer
	Stderr io.Writer
	// Config skips file and environment loading when set. Flags still apply.
	Config *config.Config
	// Logger replaces the logger built from log.level and log.format.
	Logger *zerolog.Logger
	// NewPool builds the exporter pool. Defaults to browser-backed exporters.
	NewPool func(size int, opts ...catalog2pdf.Option) Pool
	Sharer  catalog2pdf.Sharer
	Opener  catalog2pdf.Opener
	// Getenv reads CATALOG2PDF_* overrides. Defaults to os.Getenv.
	Getenv  func(string) string
	Environ func() []string
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:     time.Now,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		NewPool: newExporterPool,
		Getenv:  os.Getenv,
		Environ: os.Environ,
	}
}

// withDefaults fills the fields a test left empty.
func (e *Environment) withDefaults() *Environment {
	out := *e
	if out.Now == nil {
		out.Now = time.Now
	}
	if out.Stdout == nil {
		out.Stdout = io.Discard
	}
	if out.Stderr == nil {
		out.Stderr = io.Discard
	}
	if out.NewPool == nil {
		out.NewPool = newExporterPool
	}
	if out.Getenv == nil {
		out.Getenv = func(string) string { return "" }
	}
	if out.Environ == nil {
		out.Environ = func() []string { return nil }
	}
	return &out
}
