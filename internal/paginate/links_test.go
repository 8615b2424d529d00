package paginate

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/alnah/go-catalog2pdf/internal/layout"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestProjectLinks_SinglePage(t *testing.T) {
	plan := Plan{
		Geometry:    a4,
		BitmapWidth: 1900, BitmapHeight: 2000,
		PxPerMM: 10,
		Slices:  []Slice{{0, 2000}},
	}
	links := []layout.Link{{URL: "https://instagram.com/t", Rect: layout.Rect{X: 50, Y: 100, W: 20, H: 10}}}

	pages := ProjectLinks(links, Scale{X: 2, Y: 2}, plan)
	if len(pages) != 1 || len(pages[0]) != 1 {
		t.Fatalf("pages = %+v", pages)
	}
	r := pages[0][0]
	// 50 css -> 100 bitmap -> 10mm, plus 10mm margin
	if !near(r.X, 20) || !near(r.Y, 30) || !near(r.W, 4) || !near(r.H, 2) {
		t.Errorf("region = %+v, want {20 30 4 2}", r)
	}
	if r.URL != "https://instagram.com/t" {
		t.Errorf("URL = %q", r.URL)
	}
}

func TestProjectLinks_SpanningBoundary(t *testing.T) {
	plan := Plan{
		Geometry:    a4,
		BitmapWidth: 1900, BitmapHeight: 4000,
		PxPerMM: 10,
		Slices:  []Slice{{0, 2500}, {2500, 4000}},
	}
	// rows 2400..2700 in bitmap space
	link := layout.Link{URL: "u", Rect: layout.Rect{X: 0, Y: 1200, W: 100, H: 150}}

	pages := ProjectLinks([]layout.Link{link}, Scale{X: 2, Y: 2}, plan)
	if len(pages[0]) != 1 || len(pages[1]) != 1 {
		t.Fatalf("want one region per page, got %+v", pages)
	}
	first, second := pages[0][0], pages[1][0]
	if !near(first.Y, 10+240) || !near(first.H, 10) {
		t.Errorf("first = %+v, want y=250 h=10", first)
	}
	if !near(second.Y, 10) || !near(second.H, 20) {
		t.Errorf("second = %+v, want y=10 h=20", second)
	}
	if !near(first.H+second.H, 300.0/plan.PxPerMM) {
		t.Errorf("combined height = %v, want %v", first.H+second.H, 30.0)
	}
	if !near(first.X, second.X) || !near(first.W, second.W) {
		t.Errorf("horizontal placement differs: %+v vs %+v", first, second)
	}
}

func TestProjectLinks_ClipsHorizontally(t *testing.T) {
	plan := Plan{Geometry: a4, BitmapWidth: 100, BitmapHeight: 100, PxPerMM: 1, Slices: []Slice{{0, 100}}}
	links := []layout.Link{
		{URL: "out", Rect: layout.Rect{X: 200, Y: 0, W: 10, H: 10}},
		{URL: "edge", Rect: layout.Rect{X: -5, Y: 0, W: 10, H: 10}},
	}
	pages := ProjectLinks(links, Scale{X: 1, Y: 1}, plan)
	if len(pages[0]) != 1 || pages[0][0].URL != "edge" {
		t.Fatalf("pages = %+v", pages)
	}
	if !near(pages[0][0].X, 10) || !near(pages[0][0].W, 5) {
		t.Errorf("edge region = %+v", pages[0][0])
	}
}

func TestCrop(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.NRGBA{R: uint8(y * 20), A: 255})
		}
	}
	src.Set(0, 6, color.NRGBA{}) // transparent pixel shows the white fill

	got := Crop(src, Slice{Top: 5, Bottom: 8})
	if got.Bounds().Dx() != 4 || got.Bounds().Dy() != 3 {
		t.Fatalf("bounds = %v, want 4x3", got.Bounds())
	}
	if r, _, _, _ := got.At(1, 0).RGBA(); r>>8 != 100 {
		t.Errorf("row 0 red = %d, want 100", r>>8)
	}
	if r, g, b, _ := got.At(0, 1).RGBA(); r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Errorf("transparent pixel not white: %d %d %d", r>>8, g>>8, b>>8)
	}
}
