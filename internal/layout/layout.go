// Package layout is the intermediate layout tree measured from a prepared
// catalog page: the capture root size and the positioned card and link
// boxes, all in CSS pixels relative to the capture root.
package layout

import (
	"github.com/alnah/go-catalog2pdf/internal/catalog"
)

// Rect is an axis-aligned box. Y grows downwards.
type Rect struct {
	X, Y, W, H float64
}

// Bottom returns the lower edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Right returns the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Empty reports whether the box has no visible area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Expand grows the box by d on every side.
func (r Rect) Expand(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, W: r.W + 2*d, H: r.H + 2*d}
}

// Scale multiplies the box independently on each axis.
func (r Rect) Scale(sx, sy float64) Rect {
	return Rect{X: r.X * sx, Y: r.Y * sy, W: r.W * sx, H: r.H * sy}
}

// MarkerKind tells a card marker from a social link marker.
type MarkerKind string

const (
	MarkerProduct MarkerKind = "product"
	MarkerSocial  MarkerKind = "social"
)

// Marker is one element carrying a link marker, as read from the page.
type Marker struct {
	Kind     MarkerKind `json:"kind"`
	Href     string     `json:"href"`
	Name     string     `json:"name"`
	Price    string     `json:"price"`
	Category string     `json:"category"`
	Rect     Rect       `json:"rect"`
}

// Snapshot is everything measured from the prepared clone before
// rasterization.
type Snapshot struct {
	// Width and Height are the clone's rendered size in CSS pixels.
	Width   float64  `json:"width"`
	Height  float64  `json:"height"`
	Markers []Marker `json:"markers"`
}

// Cards returns the product card boxes in document order.
func (s Snapshot) Cards() []Rect {
	var cards []Rect
	for _, m := range s.Markers {
		if m.Kind == MarkerProduct {
			cards = append(cards, m.Rect)
		}
	}
	return cards
}

// Link is a clickable destination over a box.
type Link struct {
	URL  string
	Rect Rect
}

// ProductLinkPadding enlarges product card click areas on each side, in
// CSS pixels.
const ProductLinkPadding = 4

// Links turns markers into link boxes. Social markers keep their recorded
// destination. Product markers become chat links to phone and are dropped
// when phone has no digits. Markers without visible area are skipped.
func Links(markers []Marker, phone string) []Link {
	var links []Link
	for _, m := range markers {
		if m.Rect.Empty() {
			continue
		}
		switch m.Kind {
		case MarkerSocial:
			if m.Href == "" {
				continue
			}
			links = append(links, Link{URL: m.Href, Rect: m.Rect})
		case MarkerProduct:
			url := catalog.ProductChatURL(phone, m.Name, m.Price)
			if url == "" {
				continue
			}
			links = append(links, Link{URL: url, Rect: m.Rect.Expand(ProductLinkPadding)})
		}
	}
	return links
}
