package pdfdoc

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/alnah/go-catalog2pdf/internal/paginate"
)

var a4 = paginate.Geometry{PageWidth: 210, PageHeight: 297, Margin: 10}

func solid(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	return img
}

func TestEncodeJPEG(t *testing.T) {
	data, err := EncodeJPEG(solid(8, 8), SliceQuality)
	if err != nil {
		t.Fatalf("EncodeJPEG() error = %v", err)
	}
	if !bytes.HasPrefix(data, []byte{0xFF, 0xD8}) {
		t.Error("output is not a JPEG stream")
	}
}

func TestCompose(t *testing.T) {
	img, err := EncodeJPEG(solid(19, 20), SliceQuality)
	if err != nil {
		t.Fatal(err)
	}
	pages := []Page{
		{JPEG: img, HeightMM: 200, Links: []paginate.Region{{URL: "https://instagram.com/tienda", X: 20, Y: 30, W: 10, H: 5}}},
		{JPEG: img, HeightMM: 277},
	}

	out, err := Compose(pages, a4, Metadata{Title: "Catálogo", Creator: "catalog2pdf", CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Error("output lacks PDF header")
	}
	if !bytes.Contains(out, []byte("/Count 2")) {
		t.Error("expected two pages")
	}
	if !bytes.Contains(out, []byte("https://instagram.com/tienda")) {
		t.Error("link annotation missing")
	}
}

func TestCompose_Errors(t *testing.T) {
	img, err := EncodeJPEG(solid(4, 4), SliceQuality)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		pages   []Page
		geom    paginate.Geometry
		wantErr error
	}{
		{"no pages", nil, a4, ErrNoPages},
		{"too tall", []Page{{JPEG: img, HeightMM: 300}}, a4, ErrBadHeight},
		{"bad geometry", []Page{{JPEG: img, HeightMM: 1}}, paginate.Geometry{PageWidth: 10, PageHeight: 10, Margin: 6}, paginate.ErrInvalidGeometry},
		{"not a jpeg", []Page{{JPEG: []byte("nope"), HeightMM: 10}}, a4, ErrCompose},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compose(tt.pages, tt.geom, Metadata{})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Compose() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
