// Package imaging shrinks product photos before they are stored.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder
	"io"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder
)

const (
	// MaxWidth is the widest stored product image, in pixels.
	MaxWidth = 800
	// Quality is the JPEG quality of stored product images.
	Quality = 70

	ContentType = "image/jpeg"
)

var ErrDecode = errors.New("unsupported or corrupt image")

// Compress decodes r, scales it down to MaxWidth keeping the aspect ratio,
// flattens transparency onto white, and re-encodes it as JPEG.
func Compress(r io.Reader) ([]byte, error) {
	return CompressTo(r, MaxWidth, Quality)
}

// CompressTo is Compress with an explicit width bound and quality.
func CompressTo(r io.Reader, maxWidth, quality int) ([]byte, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	b := src.Bounds()
	w, h := Fit(b.Dx(), b.Dy(), maxWidth)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Fit returns the size of a w×h image scaled down to at most maxWidth
// wide. Images already narrow enough keep their size.
func Fit(w, h, maxWidth int) (int, int) {
	if maxWidth <= 0 || w <= maxWidth {
		return w, h
	}
	nh := h * maxWidth / w
	if nh < 1 {
		nh = 1
	}
	return maxWidth, nh
}
