package catalog

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultCategory is the bucket for products without a category.
const DefaultCategory = "Sin categoría"

// NormalizeCategoryLabel trims a raw label; blank labels collapse to
// DefaultCategory.
func NormalizeCategoryLabel(raw string) string {
	label := strings.TrimSpace(raw)
	if label == "" {
		return DefaultCategory
	}
	return label
}

// NormalizeCategory returns the display grouping label of p.
func NormalizeCategory(p Product) string {
	return NormalizeCategoryLabel(p.Category)
}

// SameCategory reports whether two raw labels name the same bucket once
// normalized, ignoring case.
func SameCategory(a, b string) bool {
	return strings.ToLower(NormalizeCategoryLabel(a)) == strings.ToLower(NormalizeCategoryLabel(b))
}

// FilterCategory keeps the products whose normalized category matches label.
func FilterCategory(products []Product, label string) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if SameCategory(p.Category, label) {
			out = append(out, p)
		}
	}
	return out
}

// CategoryGroup is one bucket of products sharing a normalized label.
type CategoryGroup struct {
	Label    string
	Products []Product
}

// newCollator returns a Spanish collator. Collators are not safe for
// concurrent use, so callers build one per operation.
func newCollator() *collate.Collator {
	return collate.New(language.Spanish, collate.IgnoreCase, collate.IgnoreDiacritics)
}

// GroupByCategory buckets products by normalized label. Buckets and the
// products inside each bucket are sorted by Spanish collation.
func GroupByCategory(products []Product) []CategoryGroup {
	index := make(map[string]int)
	var groups []CategoryGroup
	for _, p := range products {
		key := NormalizeCategory(p)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, CategoryGroup{Label: key})
		}
		groups[i].Products = append(groups[i].Products, p)
	}

	c := newCollator()
	for _, g := range groups {
		sort.SliceStable(g.Products, func(i, j int) bool {
			return c.CompareString(g.Products[i].Name, g.Products[j].Name) < 0
		})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return c.CompareString(groups[i].Label, groups[j].Label) < 0
	})
	return groups
}

// Categories lists the distinct non-blank category labels, deduplicated
// case-insensitively (first spelling wins) and sorted by Spanish collation.
func Categories(products []Product) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, p := range products {
		raw := strings.TrimSpace(p.Category)
		if raw == "" {
			continue
		}
		key := strings.ToLower(raw)
		if seen[key] {
			continue
		}
		seen[key] = true
		labels = append(labels, raw)
	}
	c := newCollator()
	sort.SliceStable(labels, func(i, j int) bool {
		return c.CompareString(labels[i], labels[j]) < 0
	})
	return labels
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a label into a URL-safe lowercase token without diacritics.
func Slug(text string) string {
	s := foldDiacritics(strings.ToLower(text))
	s = nonSlugChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// foldDiacritics decomposes s and drops combining marks.
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
