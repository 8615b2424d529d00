package catalog

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// rank is the sort key of a product: its explicit order, or its id parsed
// as a number. Ids that are not numeric rank after every numeric key.
func rank(p Product) float64 {
	if p.Order != nil {
		return float64(*p.Order)
	}
	return numericID(p)
}

func numericID(p Product) float64 {
	v, err := strconv.ParseFloat(p.ID, 64)
	if err != nil || math.IsNaN(v) {
		return math.Inf(1)
	}
	return v
}

// SortByOrder returns a copy of products sorted by rank ascending. Equal
// ranks fall back to ascending numeric id, then to the id string.
func SortByOrder(products []Product) []Product {
	out := make([]Product, len(products))
	copy(out, products)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := rank(out[i]), rank(out[j])
		if ri != rj {
			return ri < rj
		}
		ni, nj := numericID(out[i]), numericID(out[j])
		if ni != nj {
			return ni < nj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Visible drops hidden products and returns the rest in display order.
func Visible(products []Product) []Product {
	shown := make([]Product, 0, len(products))
	for _, p := range products {
		if !p.Hidden {
			shown = append(shown, p)
		}
	}
	return SortByOrder(shown)
}

// Reorder ranks the products named by ids first, in that sequence, then
// the remaining products in their current display order, assigning ranks
// 0..N-1 across the whole list. ids must be distinct and all present.
func Reorder(products []Product, ids []string) ([]Product, error) {
	pos := make(map[string]int, len(products))
	for i, p := range products {
		pos[p.ID] = i
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := pos[id]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProduct, id)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, id)
		}
		seen[id] = true
	}

	sequence := make([]string, 0, len(products))
	sequence = append(sequence, ids...)
	for _, p := range SortByOrder(products) {
		if !seen[p.ID] {
			sequence = append(sequence, p.ID)
		}
	}

	out := make([]Product, len(products))
	copy(out, products)
	for i, id := range sequence {
		out[pos[id]].Order = IntPtr(i)
	}
	return out, nil
}

// Move relocates product from to the position currently held by product to
// within the display order of all products, hidden ones included, and
// re-ranks the whole list.
func Move(products []Product, from, to string) ([]Product, error) {
	ordered := SortByOrder(products)
	ids := make([]string, len(ordered))
	oldIndex, newIndex := -1, -1
	for i, p := range ordered {
		ids[i] = p.ID
		if p.ID == from {
			oldIndex = i
		}
		if p.ID == to {
			newIndex = i
		}
	}
	if oldIndex == -1 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProduct, from)
	}
	if newIndex == -1 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProduct, to)
	}
	if oldIndex == newIndex {
		return products, nil
	}

	moved := ids[oldIndex]
	ids = append(ids[:oldIndex], ids[oldIndex+1:]...)
	ids = append(ids[:newIndex], append([]string{moved}, ids[newIndex:]...)...)
	return Reorder(products, ids)
}
