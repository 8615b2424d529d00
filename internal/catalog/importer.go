package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// importRecord is one product-like record of an import document. Every
// field is optional and loosely typed.
type importRecord struct {
	ID          looseString     `json:"id"`
	Name        looseString     `json:"name"`
	Price       json.RawMessage `json:"price"`
	Description looseString     `json:"description"`
	Image       looseString     `json:"image"`
	ImageID     looseString     `json:"imageId"`
	Category    looseString     `json:"category"`
	Quantity    json.RawMessage `json:"quantity"`
	Featured    bool            `json:"featured"`
	Hidden      bool            `json:"hidden"`
}

// looseString accepts JSON strings, numbers and booleans as text.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	if b[0] == '{' || b[0] == '[' {
		*s = ""
		return nil
	}
	*s = looseString(b)
	return nil
}

// ImportOptions tunes ParseImport.
type ImportOptions struct {
	// BaseOrder is the first rank given to imported records, usually the
	// number of products already in the catalog.
	BaseOrder int
	// NewID mints ids for records without one. Defaults to random UUIDs.
	NewID func() string
}

// ParseImport reads an import document: either a bare array of records or
// an object with a "products" array. Records are ranked by a Spanish,
// case and accent insensitive name sort, after opts.BaseOrder. Records
// without a name are skipped.
func ParseImport(data []byte, opts ImportOptions) ([]Product, error) {
	records, err := decodeRecords(data)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: expected an array or an object with a products array", ErrInvalidImport)
	}

	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	c := newCollator()
	sort.SliceStable(records, func(i, j int) bool {
		a := strings.TrimSpace(string(records[i].Name))
		b := strings.TrimSpace(string(records[j].Name))
		return c.CompareString(a, b) < 0
	})

	products := make([]Product, 0, len(records))
	for idx, r := range records {
		name := strings.TrimSpace(string(r.Name))
		if name == "" {
			continue
		}
		id := strings.TrimSpace(string(r.ID))
		if id == "" {
			id = newID()
		}
		products = append(products, Product{
			ID:          id,
			Name:        name,
			Price:       importPrice(r.Price),
			Quantity:    importQuantity(r.Quantity),
			Description: NormalizeDescription(string(r.Description)),
			Image:       strings.TrimSpace(string(r.Image)),
			ImageID:     strings.TrimSpace(string(r.ImageID)),
			Category:    strings.TrimSpace(string(r.Category)),
			Order:       IntPtr(opts.BaseOrder + idx),
			Featured:    r.Featured,
			Hidden:      r.Hidden,
		})
	}
	return products, nil
}

func decodeRecords(data []byte) ([]importRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidImport)
	}

	if trimmed[0] == '[' {
		var records []importRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
		}
		return records, nil
	}

	var doc struct {
		Products []importRecord `json:"products"`
	}
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	return doc.Products, nil
}

// importPrice accepts a JSON number or a string; anything unreadable is 0.
func importPrice(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	v, err := ParsePrice(s)
	if err != nil {
		return 0
	}
	return v
}

// importQuantity accepts only finite JSON numbers; anything else is 0.
func importQuantity(raw json.RawMessage) *int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '"' {
		return IntPtr(0)
	}
	n, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return IntPtr(0)
	}
	return IntPtr(int(n))
}
