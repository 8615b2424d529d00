package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	catalog2pdf "github.com/alnah/go-catalog2pdf"
	"github.com/alnah/go-catalog2pdf/internal/blobstore"
	"github.com/alnah/go-catalog2pdf/internal/catalog"
	"github.com/alnah/go-catalog2pdf/internal/config"
	"github.com/alnah/go-catalog2pdf/internal/hints"
	"github.com/alnah/go-catalog2pdf/internal/imaging"
	"github.com/alnah/go-catalog2pdf/internal/store"
)

// Exit codes for the catalog2pdf CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Command completed
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or catalog input
	ExitIO      = 3 // File not found, permission denied, output not writable
	ExitBrowser = 4 // Browser/Chrome errors
	ExitStorage = 5 // Catalog store or blob store unavailable
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, catalog2pdf.ErrBrowserConnect) ||
		errors.Is(err, catalog2pdf.ErrPageCreate) ||
		errors.Is(err, catalog2pdf.ErrPageLoad) ||
		errors.Is(err, catalog2pdf.ErrNoCaptureRoot) ||
		errors.Is(err, catalog2pdf.ErrCapture) ||
		errors.Is(err, catalog2pdf.ErrRasterize) ||
		errors.Is(err, catalog2pdf.ErrPDFGeneration) {
		return ExitBrowser
	}

	// Storage errors (exit 5)
	if errors.Is(err, ErrStorage) ||
		errors.Is(err, store.ErrUnknownDriver) ||
		errors.Is(err, store.ErrQuotaExceeded) ||
		errors.Is(err, blobstore.ErrMissingConfig) ||
		errors.Is(err, blobstore.ErrUnknownDriver) {
		return ExitStorage
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, catalog2pdf.ErrWriteOutput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, catalog2pdf.ErrInvalidPageSize) ||
		errors.Is(err, catalog2pdf.ErrInvalidMargin) ||
		errors.Is(err, catalog2pdf.ErrEmptyCategory) ||
		errors.Is(err, catalog2pdf.ErrInvalidAssetPath) ||
		errors.Is(err, catalog.ErrInvalidImport) ||
		errors.Is(err, catalog.ErrUnknownProduct) ||
		errors.Is(err, catalog.ErrDuplicateID) ||
		errors.Is(err, catalog.ErrInvalidTemplate) ||
		errors.Is(err, imaging.ErrDecode) ||
		errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrUnknownCommand) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrUnsupportedShell) {
		return ExitUsage
	}

	return ExitGeneral
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error) string {
	var he *hintedError
	if errors.As(err, &he) {
		return he.hint
	}
	switch {
	case errors.Is(err, catalog2pdf.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound):
		var searched []string
		if dir, derr := os.UserConfigDir(); derr == nil {
			searched = append(searched, filepath.Join(dir, "go-catalog2pdf", config.DefaultName+".yaml"))
		}
		return hints.ForConfigNotFound(searched)
	case errors.Is(err, catalog2pdf.ErrWriteOutput):
		return hints.ForOutputDirectory()
	case errors.Is(err, catalog.ErrInvalidTemplate):
		return hints.ForTemplate(templateNames())
	}
	return ""
}

// templateNames lists the accepted template ids.
func templateNames() []string {
	names := make([]string, len(catalog.Templates))
	for i, t := range catalog.Templates {
		names[i] = string(t)
	}
	return names
}
