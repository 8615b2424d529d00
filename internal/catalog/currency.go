package catalog

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	currencyLocale = language.MustParse("es-CO")
	nonPriceChars  = regexp.MustCompile(`[^\d.]`)
	errEmptyPrice  = errors.New("empty price")
)

// FormatCurrency renders amount as Colombian pesos without decimals,
// e.g. "$ 25.000".
func FormatCurrency(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(0)
	p := message.NewPrinter(currencyLocale)
	if d.IsNegative() {
		return "-$ " + p.Sprintf("%d", d.Neg().IntPart())
	}
	return "$ " + p.Sprintf("%d", d.IntPart())
}

// ParsePrice reads a price typed by a person. Everything but digits and
// dots is dropped first, so "$ 12000 COP" is 12000.
func ParsePrice(s string) (float64, error) {
	cleaned := nonPriceChars.ReplaceAllString(strings.TrimSpace(s), "")
	if cleaned == "" {
		return 0, errEmptyPrice
	}
	if strings.HasPrefix(cleaned, ".") {
		cleaned = "0" + cleaned
	}
	if strings.HasSuffix(cleaned, ".") {
		cleaned += "0"
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}
