package catalog

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCategoryLabel(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", DefaultCategory},
		{"whitespace only", "  \t ", DefaultCategory},
		{"trimmed", "  Zapatos ", "Zapatos"},
		{"case kept", "BOLSOS", "BOLSOS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCategoryLabel(tt.raw))
		})
	}
}

func TestSameCategory(t *testing.T) {
	assert.True(t, SameCategory(" zapatos", "Zapatos "))
	assert.True(t, SameCategory("", "sin categoría"))
	assert.True(t, SameCategory("   ", DefaultCategory))
	assert.False(t, SameCategory("Zapatos", "Bolsos"))
}

func TestFilterCategory_OwnLabelIncludesOtherExcludes(t *testing.T) {
	products := []Product{
		{ID: "1", Name: "Tenis", Category: "Zapatos"},
		{ID: "2", Name: "Cartera", Category: " bolsos "},
		{ID: "3", Name: "Gorra"},
	}

	for _, p := range products {
		label := NormalizeCategory(p)
		got := FilterCategory(products, label)
		ids := make([]string, 0, len(got))
		for _, g := range got {
			ids = append(ids, g.ID)
		}
		assert.Contains(t, ids, p.ID, "label %q", label)
		assert.Len(t, ids, 1, "label %q", label)
	}
}

func TestCategories(t *testing.T) {
	products := []Product{
		{Category: "zapatos"},
		{Category: "Álbumes"},
		{Category: "Zapatos"},
		{Category: "  "},
		{Category: "bolsos"},
	}
	assert.Equal(t, []string{"Álbumes", "bolsos", "zapatos"}, Categories(products))
}

func TestGroupByCategory(t *testing.T) {
	products := []Product{
		{ID: "1", Name: "Zueco", Category: "Zapatos"},
		{ID: "2", Name: "Bota", Category: "Zapatos "},
		{ID: "3", Name: "Gorra"},
	}

	groups := GroupByCategory(products)
	require.Len(t, groups, 2)
	assert.Equal(t, DefaultCategory, groups[0].Label)
	assert.Equal(t, "Zapatos", groups[1].Label)
	require.Len(t, groups[1].Products, 2)
	assert.Equal(t, "Bota", groups[1].Products[0].Name)
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Zapatos", "zapatos"},
		{"Sin categoría", "sin-categoria"},
		{"  Café & Té! ", "cafe-te"},
		{"Niños/Niñas", "ninos-ninas"},
		{"---", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.in))
		})
	}
}

func ids(products []Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestSortByOrder(t *testing.T) {
	products := []Product{
		{ID: "30"},
		{ID: "b", Order: IntPtr(1)},
		{ID: "5"},
		{ID: "a", Order: IntPtr(0)},
		{ID: "x"},
	}
	assert.Equal(t, []string{"a", "b", "5", "30", "x"}, ids(SortByOrder(products)))
}

func TestSortByOrder_TieFallsBackToNumericID(t *testing.T) {
	products := []Product{
		{ID: "10", Order: IntPtr(2)},
		{ID: "9", Order: IntPtr(2)},
		{ID: "2"},
	}
	assert.Equal(t, []string{"2", "9", "10"}, ids(SortByOrder(products)))
}

func TestVisible_ExcludesHidden(t *testing.T) {
	products := []Product{
		{ID: "1", Order: IntPtr(1)},
		{ID: "2", Order: IntPtr(0), Hidden: true},
		{ID: "3", Order: IntPtr(2)},
	}
	assert.Equal(t, []string{"1", "3"}, ids(Visible(products)))
}

func TestReorder_ContiguousRanks(t *testing.T) {
	products := []Product{
		{ID: "1", Order: IntPtr(10)},
		{ID: "2", Order: IntPtr(40)},
		{ID: "3"},
		{ID: "4", Order: IntPtr(7)},
	}
	want := []string{"3", "1", "4", "2"}

	got, err := Reorder(products, want)
	require.NoError(t, err)
	assert.Equal(t, want, ids(SortByOrder(got)))
	for i, id := range want {
		for _, p := range got {
			if p.ID == id {
				require.NotNil(t, p.Order)
				assert.Equal(t, i, *p.Order)
			}
		}
	}
	// input untouched
	assert.Equal(t, 10, *products[0].Order)
}

func TestReorder_PartialList(t *testing.T) {
	products := make([]Product, 5)
	for i := range products {
		products[i] = Product{ID: strconv.Itoa(i + 1), Order: IntPtr(i)}
	}

	got, err := Reorder(products, []string{"5", "4"})
	require.NoError(t, err)

	sorted := SortByOrder(got)
	assert.Equal(t, []string{"5", "4", "1", "2", "3"}, ids(sorted))
	for i, p := range sorted {
		require.NotNil(t, p.Order)
		assert.Equal(t, i, *p.Order)
	}
}

func TestReorder_Errors(t *testing.T) {
	products := []Product{{ID: "1"}, {ID: "2"}}

	_, err := Reorder(products, []string{"1", "9"})
	assert.ErrorIs(t, err, ErrUnknownProduct)

	_, err = Reorder(products, []string{"1", "1"})
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestMove(t *testing.T) {
	products := []Product{
		{ID: "a", Order: IntPtr(0)},
		{ID: "b", Order: IntPtr(1)},
		{ID: "c", Order: IntPtr(2), Hidden: true},
		{ID: "d", Order: IntPtr(3)},
	}

	got, err := Move(products, "d", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "a", "b", "c"}, ids(SortByOrder(got)))

	got, err = Move(products, "a", "c")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a", "d"}, ids(SortByOrder(got)))

	_, err = Move(products, "a", "zz")
	assert.ErrorIs(t, err, ErrUnknownProduct)
}

func TestCleanHandle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"@@tienda", "tienda"},
		{"https://www.facebook.com/tienda/", "tienda"},
		{"http://instagram.com/tienda//", "tienda"},
		{"fb.com/tienda", "tienda"},
		{"  FACEBOOK.com/Tienda  ", "Tienda"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanHandle(tt.in))
		})
	}
}

func TestSocialURLs(t *testing.T) {
	assert.Equal(t, "https://facebook.com/tienda", FacebookURL("@tienda"))
	assert.Equal(t, "https://instagram.com/tienda", InstagramURL("instagram.com/tienda/"))
	assert.Equal(t, "facebook.com/tienda", FacebookLabel("tienda"))
	assert.Equal(t, "instagram.com/tienda", InstagramLabel("@tienda"))
	assert.Empty(t, FacebookURL("  "))
	assert.Equal(t, "https://wa.me/573001234567", WhatsAppURL("+57 300 123 4567"))
	assert.Empty(t, WhatsAppURL("n/a"))
}

func TestProductChatURL(t *testing.T) {
	got := ProductChatURL("+57 300", "Bota café", "25000")
	assert.True(t, strings.HasPrefix(got, "https://wa.me/57300?text="), got)
	assert.Contains(t, got, "Bota%20caf%C3%A9")
	assert.Contains(t, got, "25.000")
	assert.NotContains(t, got, "+")

	assert.Empty(t, ProductChatURL("", "Bota", "1"))
}

func TestShareComposeURL(t *testing.T) {
	assert.Equal(t,
		"https://wa.me/?text=Te%20comparto%20el%20cat%C3%A1logo%20en%20PDF",
		ShareComposeURL("Te comparto el catálogo en PDF"))
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$ 25.000", FormatCurrency(25000))
	assert.Equal(t, "$ 1.250.000", FormatCurrency(1249999.6))
	assert.Equal(t, "$ 0", FormatCurrency(0))
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"12000", 12000, false},
		{"$ 12000 COP", 12000, false},
		{"12.5", 12.5, false},
		{".5", 0.5, false},
		{"abc", 0, true},
		{"1.2.3", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePrice(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseTemplateID(t *testing.T) {
	got, err := ParseTemplateID(" Classic ")
	require.NoError(t, err)
	assert.Equal(t, TemplateClassic, got)

	got, err = ParseTemplateID("")
	require.NoError(t, err)
	assert.Equal(t, TemplateMinimalist, got)

	_, err = ParseTemplateID("brutalist")
	assert.ErrorIs(t, err, ErrInvalidTemplate)

	assert.Equal(t, TemplateMinimalist, StoreInfo{TemplateID: "nope"}.Variant())
}
