package catalog2pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/rs/zerolog"

	"github.com/alnah/go-catalog2pdf/internal/catalog"
	"github.com/alnah/go-catalog2pdf/internal/fileutil"
)

// User-facing failure messages. They never carry the cause.
const (
	MsgGenerateFailed = "Error generando PDF."
	MsgDownloadFailed = "Error descargando PDF."
	MsgShareFailed    = "Error compartiendo PDF."
)

// Share fallback texts.
const (
	ShareText   = "Te comparto el catálogo en PDF"
	ShareNotice = "Tu dispositivo no permite compartir archivos directo. Se abrió WhatsApp con el mensaje; el PDF no se adjuntó."
)

// UserError is a failure safe to show to the user. Error returns only the
// generic message; Unwrap exposes the cause for diagnostics.
type UserError struct {
	Message string
	Cause   error
}

func (e *UserError) Error() string { return e.Message }

func (e *UserError) Unwrap() error { return e.Cause }

// ExportRunner produces documents. Implemented by *Exporter.
type ExportRunner interface {
	Export(ctx context.Context, input Input) (*ExportResult, error)
}

var _ ExportRunner = (*Exporter)(nil)

// Sharer hands a finished PDF to the platform's share capability.
type Sharer interface {
	// Available reports whether a PDF file can be shared.
	Available() bool
	Share(ctx context.Context, path string) error
}

// Opener opens a URL in the user's browser.
type Opener interface {
	Open(url string) error
}

// CommandSharer shares by running Command with Args and the PDF path.
type CommandSharer struct {
	Command string
	Args    []string
}

// Available reports whether Command is set and found on PATH.
func (s CommandSharer) Available() bool {
	if strings.TrimSpace(s.Command) == "" {
		return false
	}
	_, err := exec.LookPath(s.Command)
	return err == nil
}

// Share runs the command and waits for it.
func (s CommandSharer) Share(ctx context.Context, path string) error {
	args := append(append([]string{}, s.Args...), path)
	// #nosec G204 -- command comes from the user's own configuration
	out, err := exec.CommandContext(ctx, s.Command, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s: %v: %s", ErrShare, s.Command, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// BrowserOpener opens URLs with the system's default browser.
type BrowserOpener struct{}

// Open launches the default browser on url.
func (BrowserOpener) Open(url string) error {
	launcher.Open(url)
	return nil
}

// ControllerOptions wires a Controller.
type ControllerOptions struct {
	// OutputDir receives downloaded and shared PDFs. Defaults to ".".
	OutputDir string
	Sharer    Sharer
	Opener    Opener
	// Notice receives messages meant for the user.
	Notice io.Writer
	Logger zerolog.Logger
}

// Controller runs the user actions on top of an exporter: download all,
// download one category, and share. One action runs at a time.
type Controller struct {
	exporter  ExportRunner
	outputDir string
	sharer    Sharer
	opener    Opener
	notice    io.Writer
	log       zerolog.Logger
	loading   atomic.Bool
}

// NewController creates a Controller over exp.
func NewController(exp ExportRunner, opts ControllerOptions) *Controller {
	c := &Controller{
		exporter:  exp,
		outputDir: opts.OutputDir,
		sharer:    opts.Sharer,
		opener:    opts.Opener,
		notice:    opts.Notice,
		log:       opts.Logger,
	}
	if c.outputDir == "" {
		c.outputDir = "."
	}
	if c.opener == nil {
		c.opener = BrowserOpener{}
	}
	if c.notice == nil {
		c.notice = os.Stderr
	}
	return c
}

// Loading reports whether an action is running.
func (c *Controller) Loading() bool {
	return c.loading.Load()
}

// DownloadAll exports every visible product and writes the PDF into the
// output directory. It returns the written path.
func (c *Controller) DownloadAll(ctx context.Context, input Input) (string, error) {
	input.Category = ""
	return c.download(ctx, input, "download_all")
}

// DownloadCategory exports the products of one category. The file name
// carries the category slug.
func (c *Controller) DownloadCategory(ctx context.Context, input Input, category string) (string, error) {
	input.Category = catalog.NormalizeCategoryLabel(category)
	return c.download(ctx, input, "download_category")
}

func (c *Controller) download(ctx context.Context, input Input, action string) (string, error) {
	if !c.loading.CompareAndSwap(false, true) {
		return "", ErrExportInProgress
	}
	defer c.loading.Store(false)

	result, err := c.exporter.Export(ctx, input)
	if err != nil {
		return "", c.fail(action, MsgGenerateFailed, err)
	}
	path, err := fileutil.WriteFile(c.outputDir, result.FileName, result.PDF)
	if err != nil {
		return "", c.fail(action, MsgDownloadFailed, fmt.Errorf("%w: %v", ErrWriteOutput, err))
	}
	c.log.Info().Str("action", action).Str("path", path).Int("pages", result.Pages).Msg("PDF written")
	return path, nil
}

// ShareOutcome tells how a share completed.
type ShareOutcome struct {
	Path string
	// Attached is false when the fallback compose link was opened instead.
	Attached bool
}

// Share exports the whole catalog and hands the PDF to the sharer. When
// no sharer can take files, a chat compose link with a text message is
// opened and the user is told the file was not attached.
func (c *Controller) Share(ctx context.Context, input Input) (ShareOutcome, error) {
	if !c.loading.CompareAndSwap(false, true) {
		return ShareOutcome{}, ErrExportInProgress
	}
	defer c.loading.Store(false)

	input.Category = ""
	result, err := c.exporter.Export(ctx, input)
	if err != nil {
		return ShareOutcome{}, c.fail("share", MsgShareFailed, err)
	}
	path, err := fileutil.WriteFile(c.outputDir, result.FileName, result.PDF)
	if err != nil {
		return ShareOutcome{}, c.fail("share", MsgShareFailed, fmt.Errorf("%w: %v", ErrWriteOutput, err))
	}

	if c.sharer != nil && c.sharer.Available() {
		if err := c.sharer.Share(ctx, path); err != nil {
			return ShareOutcome{Path: path}, c.fail("share", MsgShareFailed, err)
		}
		return ShareOutcome{Path: path, Attached: true}, nil
	}

	if err := c.opener.Open(catalog.ShareComposeURL(ShareText)); err != nil {
		return ShareOutcome{Path: path}, c.fail("share", MsgShareFailed, err)
	}
	_, _ = fmt.Fprintln(c.notice, ShareNotice)
	return ShareOutcome{Path: path}, nil
}

// fail logs the cause and hides it behind msg.
func (c *Controller) fail(action, msg string, cause error) error {
	c.log.Error().Err(cause).Str("action", action).Msg("export action failed")
	var ue *UserError
	if errors.As(cause, &ue) {
		return ue
	}
	return &UserError{Message: msg, Cause: cause}
}
