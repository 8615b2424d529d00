// Package pdfdoc composes rasterized page slices and their link regions
// into a PDF document.
package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/alnah/go-catalog2pdf/internal/paginate"
)

var (
	ErrNoPages   = errors.New("document has no pages")
	ErrEncode    = errors.New("encoding page image failed")
	ErrCompose   = errors.New("composing PDF failed")
	ErrBadHeight = errors.New("page image height exceeds usable area")
)

// SliceQuality is the JPEG quality of page images.
const SliceQuality = 95

// Page is one page image with the clickable regions over it.
type Page struct {
	// JPEG holds the encoded slice.
	JPEG []byte
	// HeightMM is the placed height; the width is always the usable width.
	HeightMM float64
	Links    []paginate.Region
}

// Metadata is written into the document info dictionary.
type Metadata struct {
	Title     string
	Author    string
	Creator   string
	CreatedAt time.Time
}

// EncodeJPEG compresses a slice image for placement.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return buf.Bytes(), nil
}

// Compose lays each page image at the top-left margin of its own page,
// scaled to the usable width, and adds its link regions.
func Compose(pages []Page, g paginate.Geometry, meta Metadata) ([]byte, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: g.PageWidth, Ht: g.PageHeight},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(true)
	if meta.Title != "" {
		pdf.SetTitle(meta.Title, true)
	}
	if meta.Author != "" {
		pdf.SetAuthor(meta.Author, true)
	}
	if meta.Creator != "" {
		pdf.SetCreator(meta.Creator, true)
	}
	if !meta.CreatedAt.IsZero() {
		pdf.SetCreationDate(meta.CreatedAt)
	}

	// a little slack absorbs float rounding of the slice height
	maxHeight := g.UsableHeight() + 0.01
	opts := gofpdf.ImageOptions{ImageType: "JPG"}
	for i, p := range pages {
		if p.HeightMM > maxHeight {
			return nil, fmt.Errorf("%w: page %d is %.2fmm, usable %.2fmm", ErrBadHeight, i+1, p.HeightMM, g.UsableHeight())
		}

		name := fmt.Sprintf("page-%d", i+1)
		pdf.AddPage()
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(p.JPEG))
		pdf.ImageOptions(name, g.Margin, g.Margin, g.UsableWidth(), p.HeightMM, false, opts, 0, "")
		for _, l := range p.Links {
			pdf.LinkString(l.X, l.Y, l.W, l.H, l.URL)
		}
		if pdf.Err() {
			return nil, fmt.Errorf("%w: page %d: %v", ErrCompose, i+1, pdf.Error())
		}
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompose, err)
	}
	return out.Bytes(), nil
}
