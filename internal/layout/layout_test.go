package layout

import (
	"strings"
	"testing"
)

func TestRect(t *testing.T) {
	r := Rect{X: 10, Y: 20, W: 30, H: 40}
	if r.Bottom() != 60 || r.Right() != 40 {
		t.Errorf("edges = (%v, %v), want (40, 60)", r.Right(), r.Bottom())
	}
	if got := r.Expand(2); got != (Rect{X: 8, Y: 18, W: 34, H: 44}) {
		t.Errorf("Expand(2) = %+v", got)
	}
	if got := r.Scale(2, 0.5); got != (Rect{X: 20, Y: 10, W: 60, H: 20}) {
		t.Errorf("Scale(2, 0.5) = %+v", got)
	}
	if !(Rect{W: 0, H: 5}).Empty() || !(Rect{W: 5}).Empty() || r.Empty() {
		t.Error("Empty() misreports visibility")
	}
}

func TestSnapshotCards(t *testing.T) {
	s := Snapshot{Markers: []Marker{
		{Kind: MarkerSocial, Rect: Rect{Y: 1}},
		{Kind: MarkerProduct, Rect: Rect{Y: 2}},
		{Kind: MarkerProduct, Rect: Rect{Y: 3}},
	}}
	cards := s.Cards()
	if len(cards) != 2 || cards[0].Y != 2 || cards[1].Y != 3 {
		t.Errorf("Cards() = %+v", cards)
	}
}

func TestLinks(t *testing.T) {
	markers := []Marker{
		{Kind: MarkerSocial, Href: "https://instagram.com/tienda", Rect: Rect{X: 1, Y: 1, W: 10, H: 10}},
		{Kind: MarkerSocial, Href: "https://facebook.com/hidden", Rect: Rect{X: 1, Y: 1, W: 0, H: 10}},
		{Kind: MarkerSocial, Href: "", Rect: Rect{W: 10, H: 10}},
		{Kind: MarkerProduct, Name: "Bota", Price: "1000", Rect: Rect{X: 100, Y: 100, W: 50, H: 80}},
	}

	tests := []struct {
		name      string
		phone     string
		wantCount int
	}{
		{"with phone", "300 123", 2},
		{"without phone", "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links := Links(markers, tt.phone)
			if len(links) != tt.wantCount {
				t.Fatalf("len(links) = %d, want %d", len(links), tt.wantCount)
			}
			if links[0].URL != "https://instagram.com/tienda" || links[0].Rect != markers[0].Rect {
				t.Errorf("social link = %+v", links[0])
			}
			if tt.wantCount == 2 {
				p := links[1]
				if !strings.HasPrefix(p.URL, "https://wa.me/300123?text=") {
					t.Errorf("product url = %q", p.URL)
				}
				want := markers[3].Rect.Expand(ProductLinkPadding)
				if p.Rect != want {
					t.Errorf("product rect = %+v, want %+v", p.Rect, want)
				}
			}
		})
	}
}
