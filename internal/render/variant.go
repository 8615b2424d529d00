package render

import "github.com/alnah/go-catalog2pdf/internal/catalog"

// Variant describes how one template presents the catalog. Every variant
// carries the same data and markers.
type Variant struct {
	ID    catalog.TemplateID
	Class string
	// FilledHeader paints the header in the brand color.
	FilledHeader bool
	// Centered centers card text and draws a divider under it.
	Centered bool
	Glow     bool
	Curve    bool
	Subtitle string
}

var variants = map[catalog.TemplateID]Variant{
	catalog.TemplateMinimalist: {
		ID:       catalog.TemplateMinimalist,
		Class:    "variant-minimalist",
		Subtitle: "Catálogo de Productos",
	},
	catalog.TemplateClassic: {
		ID:           catalog.TemplateClassic,
		Class:        "variant-classic",
		FilledHeader: true,
		Centered:     true,
		Curve:        true,
		Subtitle:     "Catálogo de Exclusividad",
	},
	catalog.TemplateModern: {
		ID:           catalog.TemplateModern,
		Class:        "variant-modern",
		FilledHeader: true,
		Glow:         true,
		Subtitle:     "Catálogo de Productos",
	},
}

// VariantFor returns the descriptor of the store's template.
func VariantFor(info catalog.StoreInfo) Variant {
	return variants[info.Variant()]
}
