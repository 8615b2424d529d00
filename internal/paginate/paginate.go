// Package paginate slices one tall catalog bitmap into printable pages
// without cutting through product cards, and projects link boxes onto the
// pages they land on.
package paginate

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/alnah/go-catalog2pdf/internal/layout"
)

var (
	ErrEmptyBitmap     = errors.New("bitmap has no area")
	ErrInvalidGeometry = errors.New("page geometry leaves no usable area")
	ErrEmptyLayout     = errors.New("layout has no area")
)

// Gutter is the safety margin, in bitmap pixels, kept above a card's
// bottom edge when it is used as a cut line.
const Gutter = 4

// Geometry is a physical page in millimeters.
type Geometry struct {
	PageWidth  float64
	PageHeight float64
	Margin     float64
}

// UsableWidth is the page width minus both side margins.
func (g Geometry) UsableWidth() float64 { return g.PageWidth - 2*g.Margin }

// UsableHeight is the page height minus top and bottom margins.
func (g Geometry) UsableHeight() float64 { return g.PageHeight - 2*g.Margin }

// Validate checks that the margins leave a printable area.
func (g Geometry) Validate() error {
	if g.Margin < 0 || g.UsableWidth() <= 0 || g.UsableHeight() <= 0 {
		return fmt.Errorf("%w: %.1fx%.1fmm with %.1fmm margin", ErrInvalidGeometry, g.PageWidth, g.PageHeight, g.Margin)
	}
	return nil
}

// Scale maps layout pixels onto bitmap pixels, per axis.
type Scale struct {
	X, Y float64
}

// ScaleFor derives the layout-to-bitmap factors from the actual sizes.
func ScaleFor(bitmapW, bitmapH int, layoutW, layoutH float64) (Scale, error) {
	if bitmapW <= 0 || bitmapH <= 0 {
		return Scale{}, ErrEmptyBitmap
	}
	if layoutW <= 0 || layoutH <= 0 {
		return Scale{}, ErrEmptyLayout
	}
	return Scale{X: float64(bitmapW) / layoutW, Y: float64(bitmapH) / layoutH}, nil
}

// Slice is a band of bitmap rows [Top, Bottom).
type Slice struct {
	Top, Bottom int
}

// Height returns the number of rows in the band.
func (s Slice) Height() int { return s.Bottom - s.Top }

// Plan is the page layout of one bitmap.
type Plan struct {
	Geometry     Geometry
	BitmapWidth  int
	BitmapHeight int
	// PxPerMM maps bitmap pixels onto the usable page width.
	PxPerMM float64
	// PageHeightPx is the ideal slice height in bitmap pixels.
	PageHeightPx int
	Slices       []Slice
}

// SliceHeightMM is the placed height of s, preserving its aspect ratio at
// the full usable width.
func (p Plan) SliceHeightMM(s Slice) float64 {
	return float64(s.Height()) / p.PxPerMM
}

// NewPlan cuts a bitmap of bitmapW x bitmapH pixels into pages of g. cards
// are the card boxes in layout pixels; scaleY maps them into bitmap rows.
func NewPlan(g Geometry, bitmapW, bitmapH int, scaleY float64, cards []layout.Rect) (Plan, error) {
	if err := g.Validate(); err != nil {
		return Plan{}, err
	}
	if bitmapW <= 0 || bitmapH <= 0 {
		return Plan{}, ErrEmptyBitmap
	}

	pxPerMM := float64(bitmapW) / g.UsableWidth()
	pageH := int(math.Floor(g.UsableHeight() * pxPerMM))
	if pageH < 1 {
		pageH = 1
	}

	cuts := CutLines(bitmapH, scaleY, cards, Gutter)
	plan := Plan{
		Geometry:     g,
		BitmapWidth:  bitmapW,
		BitmapHeight: bitmapH,
		PxPerMM:      pxPerMM,
		PageHeightPx: pageH,
	}
	for offset := 0; offset < bitmapH; {
		end := pickCut(cuts, offset, offset+pageH)
		if end < 0 {
			end = min(offset+pageH, bitmapH)
		}
		plan.Slices = append(plan.Slices, Slice{Top: offset, Bottom: end})
		offset = end
	}
	return plan, nil
}

// CutLines returns the sorted rows where a page may end: the top, the
// bottom, and each card's bottom edge minus gutter. A card edge that falls
// strictly inside another card is not offered.
func CutLines(bitmapH int, scaleY float64, cards []layout.Rect, gutter int) []int {
	type span struct{ top, bottom int }
	spans := make([]span, 0, len(cards))
	for _, c := range cards {
		spans = append(spans, span{
			top:    int(math.Floor(c.Y * scaleY)),
			bottom: int(math.Floor(c.Bottom() * scaleY)),
		})
	}

	inside := func(y int) bool {
		for _, s := range spans {
			if s.top+gutter < y && y < s.bottom-gutter {
				return true
			}
		}
		return false
	}

	set := map[int]bool{0: true, bitmapH: true}
	for _, s := range spans {
		y := clamp(s.bottom-gutter, 0, bitmapH)
		if !inside(y) {
			set[y] = true
		}
	}

	cuts := make([]int, 0, len(set))
	for y := range set {
		cuts = append(cuts, y)
	}
	sort.Ints(cuts)
	return cuts
}

// pickCut returns the largest cut in (offset, limit], or -1.
func pickCut(cuts []int, offset, limit int) int {
	best := -1
	for _, c := range cuts {
		if c > offset && c <= limit {
			best = c
		}
	}
	return best
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
