// Package render turns a store profile and its products into the catalog
// HTML page: the live preview the export pipeline captures.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-catalog2pdf/internal/assets"
	"github.com/alnah/go-catalog2pdf/internal/catalog"
)

var (
	ErrTemplate = errors.New("invalid catalog template")
	ErrRender   = errors.New("rendering catalog failed")
)

// Display fallbacks.
const (
	DefaultName       = "Mi Catálogo"
	DefaultFooterName = "Empresa"
	EmptyMessage      = "Tu catálogo cobra vida aquí. Agrega productos para comenzar."
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// ImageSource returns the URL a card shows for p. An empty result with a
// blob key leaves the image for the exporter to resolve.
type ImageSource func(p catalog.Product) (string, error)

// Options adjusts one render.
type Options struct {
	// Now dates the footer. Defaults to time.Now.
	Now func() time.Time
	// ImageSrc resolves card images. Defaults to the inline image field.
	ImageSrc ImageSource
	// Toolbar adds the floating bar that export strips.
	Toolbar bool
}

// Social is one outbound profile link.
type Social struct {
	Title string
	Label string
	Href  string
	Icon  template.HTML
}

// Card is one visible product.
type Card struct {
	ID           string
	Name         string
	Category     string
	Price        string
	PriceValue   string
	Src          template.URL
	ImageID      string
	HasImage     bool
	Featured     bool
	ShowQuantity bool
	Quantity     int
	Description  template.HTML
}

// View is the data the catalog template renders.
type View struct {
	Lang         string
	Title        string
	Style        template.CSS
	BrandStyle   template.CSS
	Variant      Variant
	Name         string
	Logo         template.URL
	Social       []Social
	WhatsApp     string
	PhoneIcon    template.HTML
	Cards        []Card
	EmptyMessage string
	Year         int
	FooterName   string
	Toolbar      bool
}

// Renderer renders catalogs with one parsed template and stylesheet.
type Renderer struct {
	tmpl  *template.Template
	style string
}

// New loads the catalog template and style from loader.
func New(loader assets.AssetLoader) (*Renderer, error) {
	src, err := loader.LoadTemplate(assets.CatalogTemplate)
	if err != nil {
		return nil, err
	}
	style, err := loader.LoadStyle(assets.CatalogStyle)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(assets.CatalogTemplate).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplate, err)
	}
	return &Renderer{tmpl: tmpl, style: style}, nil
}

// Render writes the catalog page for info and products to w.
func (r *Renderer) Render(w io.Writer, info catalog.StoreInfo, products []catalog.Product, opts Options) error {
	view, err := r.View(info, products, opts)
	if err != nil {
		return err
	}
	if err := r.tmpl.Execute(w, view); err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	return nil
}

// RenderString is Render into a string.
func (r *Renderer) RenderString(info catalog.StoreInfo, products []catalog.Product, opts Options) (string, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, info, products, opts); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// View builds the template data. Hidden products are dropped and the rest
// sorted by display order.
func (r *Renderer) View(info catalog.StoreInfo, products []catalog.Product, opts Options) (View, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	name := strings.TrimSpace(info.Name)
	footer := name
	if name == "" {
		name = DefaultName
		footer = DefaultFooterName
	}

	view := View{
		Lang:         "es",
		Title:        name,
		Style:        template.CSS(r.style), // #nosec G203 -- stylesheet comes from trusted assets
		BrandStyle:   brandStyle(info.Color),
		Variant:      VariantFor(info),
		Name:         name,
		Logo:         imageURL(info.Logo),
		Social:       socialLinks(info),
		WhatsApp:     strings.TrimSpace(info.WhatsApp),
		PhoneIcon:    iconPhone,
		EmptyMessage: EmptyMessage,
		Year:         now().Year(),
		FooterName:   footer,
		Toolbar:      opts.Toolbar,
	}

	for _, p := range catalog.SortByOrder(catalog.Visible(products)) {
		card, err := newCard(p, info.ShowQuantityInPDF, opts.ImageSrc)
		if err != nil {
			return View{}, err
		}
		view.Cards = append(view.Cards, card)
	}
	return view, nil
}

func newCard(p catalog.Product, showQuantity bool, src ImageSource) (Card, error) {
	card := Card{
		ID:         p.ID,
		Name:       p.Name,
		Category:   catalog.NormalizeCategory(p),
		Price:      catalog.FormatCurrency(p.Price),
		PriceValue: strconv.FormatFloat(p.Price, 'f', -1, 64),
		ImageID:    strings.TrimSpace(p.ImageID),
		Featured:   p.Featured,
	}
	if showQuantity && p.Quantity != nil && *p.Quantity > 0 {
		card.ShowQuantity = true
		card.Quantity = *p.Quantity
	}
	if desc := catalog.NormalizeDescription(p.Description); desc != "" {
		card.Description = template.HTML(Sanitize(desc)) // #nosec G203 -- sanitized above
	}

	image := strings.TrimSpace(p.Image)
	if src != nil {
		resolved, err := src(p)
		if err != nil {
			return Card{}, fmt.Errorf("resolving image of %q: %w", p.ID, err)
		}
		image = resolved
	}
	card.Src = imageURL(image)
	card.HasImage = card.Src != "" || card.ImageID != ""
	return card, nil
}

func socialLinks(info catalog.StoreInfo) []Social {
	var links []Social
	if href := catalog.WhatsAppURL(info.WhatsApp); href != "" {
		links = append(links, Social{Title: "WhatsApp", Label: strings.TrimSpace(info.WhatsApp), Href: href, Icon: iconWhatsApp})
	}
	if href := catalog.FacebookURL(info.Facebook); href != "" {
		links = append(links, Social{Title: "Facebook", Label: catalog.FacebookLabel(info.Facebook), Href: href, Icon: iconFacebook})
	}
	if href := catalog.InstagramURL(info.Instagram); href != "" {
		links = append(links, Social{Title: "Instagram", Label: catalog.InstagramLabel(info.Instagram), Href: href, Icon: iconInstagram})
	}
	return links
}

func brandStyle(color string) template.CSS {
	color = strings.TrimSpace(color)
	if !hexColor.MatchString(color) {
		color = catalog.DefaultColor
	}
	return template.CSS("--brand-color: " + color) // #nosec G203 -- validated hex color
}

// imageURL admits the schemes a card image may use.
func imageURL(s string) template.URL {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, prefix := range []string{"data:image/", "https://", "http://", "file://", "blob:"} {
		if strings.HasPrefix(lower, prefix) {
			return template.URL(s) // #nosec G203 -- scheme allowlisted
		}
	}
	return ""
}
