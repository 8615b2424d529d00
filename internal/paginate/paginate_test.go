package paginate

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/alnah/go-catalog2pdf/internal/layout"
)

var a4 = Geometry{PageWidth: 210, PageHeight: 297, Margin: 10}

func TestGeometry(t *testing.T) {
	if a4.UsableWidth() != 190 || a4.UsableHeight() != 277 {
		t.Errorf("usable = %vx%v, want 190x277", a4.UsableWidth(), a4.UsableHeight())
	}
	if err := a4.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	bad := Geometry{PageWidth: 210, PageHeight: 297, Margin: 110}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("Validate() = %v, want ErrInvalidGeometry", err)
	}
}

func TestScaleFor(t *testing.T) {
	s, err := ScaleFor(1588, 4000, 794, 2000)
	if err != nil {
		t.Fatalf("ScaleFor() error = %v", err)
	}
	if s.X != 2 || s.Y != 2 {
		t.Errorf("scale = %+v, want 2x2", s)
	}
	if _, err := ScaleFor(0, 10, 1, 1); !errors.Is(err, ErrEmptyBitmap) {
		t.Errorf("err = %v, want ErrEmptyBitmap", err)
	}
	if _, err := ScaleFor(10, 10, 0, 1); !errors.Is(err, ErrEmptyLayout) {
		t.Errorf("err = %v, want ErrEmptyLayout", err)
	}
}

func TestNewPlan_NoCards(t *testing.T) {
	plan, err := NewPlan(a4, 1900, 5000, 1, nil)
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}
	if plan.PxPerMM != 10 || plan.PageHeightPx != 2770 {
		t.Errorf("pxPerMM=%v pageHeight=%d, want 10 and 2770", plan.PxPerMM, plan.PageHeightPx)
	}
	want := []Slice{{0, 2770}, {2770, 5000}}
	if len(plan.Slices) != len(want) {
		t.Fatalf("slices = %+v, want %+v", plan.Slices, want)
	}
	for i := range want {
		if plan.Slices[i] != want[i] {
			t.Errorf("slice %d = %+v, want %+v", i, plan.Slices[i], want[i])
		}
	}
	if got := plan.SliceHeightMM(plan.Slices[0]); got != 277 {
		t.Errorf("SliceHeightMM = %v, want 277", got)
	}
}

func TestNewPlan_BreaksAtCardBottom(t *testing.T) {
	// bitmap 1900 wide -> 10 px/mm, 2770 rows per page, layout scale 1
	cards := []layout.Rect{
		{X: 0, Y: 100, W: 900, H: 1200},  // bottom 1300
		{X: 0, Y: 1400, W: 900, H: 1200}, // bottom 2600
		{X: 0, Y: 2700, W: 900, H: 1200}, // bottom 3900, crosses 2770
	}
	plan, err := NewPlan(a4, 1900, 4200, 1, cards)
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}
	if plan.Slices[0].Bottom != 2600-Gutter {
		t.Errorf("first break = %d, want %d", plan.Slices[0].Bottom, 2600-Gutter)
	}
	last := plan.Slices[len(plan.Slices)-1]
	if last.Bottom != 4200 {
		t.Errorf("last slice ends at %d, want 4200", last.Bottom)
	}
}

func TestNewPlan_TallCardFallsBackToIdealHeight(t *testing.T) {
	cards := []layout.Rect{{X: 0, Y: 0, W: 900, H: 6000}}
	plan, err := NewPlan(a4, 1900, 6000, 1, cards)
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}
	want := []Slice{{0, 2770}, {2770, 5540}, {5540, 6000}}
	if len(plan.Slices) != len(want) {
		t.Fatalf("slices = %+v, want %+v", plan.Slices, want)
	}
	for i := range want {
		if plan.Slices[i] != want[i] {
			t.Errorf("slice %d = %+v, want %+v", i, plan.Slices[i], want[i])
		}
	}
}

func TestCutLines_SkipsEdgesInsideNeighbour(t *testing.T) {
	cards := []layout.Rect{
		{X: 0, Y: 0, W: 400, H: 300},   // short left card, bottom 300
		{X: 400, Y: 0, W: 400, H: 900}, // tall right card, bottom 900
	}
	cuts := CutLines(1000, 1, cards, Gutter)
	want := []int{0, 900 - Gutter, 1000}
	if len(cuts) != len(want) {
		t.Fatalf("CutLines() = %v, want %v", cuts, want)
	}
	for i := range want {
		if cuts[i] != want[i] {
			t.Errorf("cut %d = %d, want %d", i, cuts[i], want[i])
		}
	}
}

func TestCutLines_ClampsToBitmap(t *testing.T) {
	cards := []layout.Rect{{Y: 0, H: 1}, {Y: 0, H: 5000}}
	cuts := CutLines(1000, 1, cards, Gutter)
	for _, c := range cuts {
		if c < 0 || c > 1000 {
			t.Errorf("cut %d outside [0, 1000]", c)
		}
	}
}

// Two-column grids of random card heights never get a page boundary
// through a card.
func TestNewPlan_NeverSplitsCards(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const scaleY = 2.0

	for trial := 0; trial < 50; trial++ {
		var cards []layout.Rect
		y := 200.0
		rows := 3 + rng.Intn(25)
		for r := 0; r < rows; r++ {
			left := 150 + rng.Float64()*450
			right := 150 + rng.Float64()*450
			cards = append(cards,
				layout.Rect{X: 40, Y: y, W: 357, H: left},
				layout.Rect{X: 397, Y: y, W: 357, H: right},
			)
			y += math.Max(left, right) + 48
		}
		layoutH := y + 160
		bitmapH := int(layoutH * scaleY)

		plan, err := NewPlan(a4, 1588, bitmapH, scaleY, cards)
		if err != nil {
			t.Fatalf("trial %d: NewPlan() error = %v", trial, err)
		}

		prev := 0
		for _, s := range plan.Slices {
			if s.Top != prev {
				t.Fatalf("trial %d: gap before %+v", trial, s)
			}
			if s.Height() <= 0 || s.Height() > plan.PageHeightPx {
				t.Fatalf("trial %d: slice %+v exceeds page of %d rows", trial, s, plan.PageHeightPx)
			}
			prev = s.Bottom
		}
		if prev != bitmapH {
			t.Fatalf("trial %d: slices end at %d, want %d", trial, prev, bitmapH)
		}

		for _, s := range plan.Slices[:len(plan.Slices)-1] {
			for _, c := range cards {
				top := int(math.Floor(c.Y * scaleY))
				bottom := int(math.Floor(c.Bottom() * scaleY))
				if top+Gutter < s.Bottom && s.Bottom < bottom-Gutter {
					t.Errorf("trial %d: boundary %d splits card rows %d-%d", trial, s.Bottom, top, bottom)
				}
			}
		}
	}
}

func TestNewPlan_Errors(t *testing.T) {
	if _, err := NewPlan(a4, 0, 100, 1, nil); !errors.Is(err, ErrEmptyBitmap) {
		t.Errorf("err = %v, want ErrEmptyBitmap", err)
	}
	if _, err := NewPlan(Geometry{PageWidth: 10, PageHeight: 10, Margin: 5}, 10, 10, 1, nil); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("err = %v, want ErrInvalidGeometry", err)
	}
}
