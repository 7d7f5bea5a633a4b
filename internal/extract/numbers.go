package extract

import (
	"regexp"

	"github.com/shopspring/decimal"
)

var nonNumericRe = regexp.MustCompile(`[^\d.\-]`)

// parseDecimal coerces a noisy numeric token to a decimal. Thousands
// separators and stray characters (currency marks, OCR artifacts) are
// stripped first. A token that still fails to parse resolves to nil,
// never to zero and never to an error.
func parseDecimal(value string) *decimal.Decimal {
	candidate := nonNumericRe.ReplaceAllString(value, "")
	if candidate == "" {
		return nil
	}
	d, err := decimal.NewFromString(candidate)
	if err != nil {
		return nil
	}
	return &d
}

// decimalFrom adopts a plain value, for defaults like quantity=1.
func decimalFrom(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}
