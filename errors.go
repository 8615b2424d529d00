package catalog2pdf

import "errors"

// Sentinel errors for library operations.
var (
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrNoCaptureRoot  = errors.New("capture root not found")
	ErrCapture        = errors.New("capturing catalog failed")
	ErrRasterize      = errors.New("rasterizing catalog failed")
	ErrPaginate       = errors.New("paginating catalog failed")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrExportPanic    = errors.New("export panicked")

	// Input validation errors.
	ErrInvalidPageSize = errors.New("invalid page size")
	ErrInvalidMargin   = errors.New("invalid margin")
	ErrEmptyCategory   = errors.New("category has no visible products")

	// Controller errors.
	ErrExportInProgress = errors.New("export already in progress")
	ErrShare            = errors.New("sharing PDF failed")
	ErrWriteOutput      = errors.New("writing PDF failed")

	// Asset loading errors.
	ErrInvalidAssetPath = errors.New("invalid asset path")
)
