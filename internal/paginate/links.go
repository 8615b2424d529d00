package paginate

import (
	"math"

	"github.com/alnah/go-catalog2pdf/internal/layout"
)

// Region is a clickable area on one page, in millimeters from the page's
// top-left corner.
type Region struct {
	URL        string
	X, Y, W, H float64
}

// ProjectLinks places each link on every page whose slice its box
// touches. The result has one entry per slice of plan. A box crossing a
// slice boundary is clipped on each side, so its pieces never overlap.
func ProjectLinks(links []layout.Link, scale Scale, plan Plan) [][]Region {
	pages := make([][]Region, len(plan.Slices))
	margin := plan.Geometry.Margin
	width := float64(plan.BitmapWidth)

	for _, l := range links {
		r := l.Rect.Scale(scale.X, scale.Y)
		left := math.Max(r.X, 0)
		right := math.Min(r.Right(), width)
		if right <= left {
			continue
		}

		for i, s := range plan.Slices {
			top := math.Max(r.Y, float64(s.Top))
			bottom := math.Min(r.Bottom(), float64(s.Bottom))
			if bottom <= top {
				continue
			}
			pages[i] = append(pages[i], Region{
				URL: l.URL,
				X:   margin + left/plan.PxPerMM,
				Y:   margin + (top-float64(s.Top))/plan.PxPerMM,
				W:   (right - left) / plan.PxPerMM,
				H:   (bottom - top) / plan.PxPerMM,
			})
		}
	}
	return pages
}
