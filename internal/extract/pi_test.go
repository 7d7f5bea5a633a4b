package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePI = `M/S. ACME PHARMA EXPORTS PVT LTD ABC/E/25-26/1234
PROFORMA INVOICE
Invoice No & Date
ABC/E/25-26/1234 26-Feb-26
Exporter:
Acme Pharma Exports Pvt Ltd
Plot 12, Industrial Estate
Mumbai 400001 India
GSTIN: 27AAAAA0000A1Z5
Consignee:
OOO PharmImport
Leninsky Prospekt 1
Moscow, Russia
Buyer (if other than consignee)
Terms of Delivery
CPT BY AIR MOSCOW INCOTERMS 2020
Description of Goods
AMOXICILLIN CAPSULES 500 mg / capsule
ABC-123 100 25.00 2,500.00
Amount in words: TWO THOUSAND FIVE HUNDRED ONLY (In USD)
For ACME PHARMA EXPORTS`

func TestParsePI(t *testing.T) {
	data := ParsePI(samplePI)

	assert.Equal(t, "ABC/E/25-26/1234", data.InvoiceNo)
	assert.Equal(t, "26-Feb-26", data.InvoiceDate)
	assert.Equal(t, "OOO PharmImport", data.BuyerName)
	assert.Contains(t, data.BuyerAddress, "Leninsky Prospekt 1")
	assert.Contains(t, data.ExporterName, "M/S. ACME PHARMA EXPORTS")
	assert.Contains(t, data.ExporterAddress, "Plot 12")
	assert.Equal(t, "CPT BY AIR MOSCOW", data.TermsOfDelivery)
	assert.Equal(t, "USD", data.Currency)

	require.Len(t, data.Positions, 1)
	pos := data.Positions[0]
	assert.Equal(t, "ABC-123", pos.Code)
	assert.Equal(t, "AMOXICILLIN CAPSULES", pos.NameEN)
	assert.Equal(t, "500 mg / capsule", pos.PackingEN)
	require.NotNil(t, pos.Quantity)
	assert.Equal(t, "100", pos.Quantity.String())
	require.NotNil(t, pos.UnitPrice)
	assert.Equal(t, "25", pos.UnitPrice.String())
	require.NotNil(t, pos.TotalPrice)
	assert.Equal(t, "2500", pos.TotalPrice.String())
	assert.Equal(t, "USD", pos.Currency)
}

// ParsePI is total: arbitrary garbage resolves to empty fields and a
// single placeholder position, never an error or a panic.
func TestParsePITotality(t *testing.T) {
	for _, input := range []string{"", "\n\n\n", "!!! %% complete garbage 123", "Invoice"} {
		data := ParsePI(input)
		assert.Len(t, data.Positions, 1, "input %q", input)
		assert.Nil(t, data.Positions[0].Quantity)
		assert.Nil(t, data.Positions[0].UnitPrice)
	}
}

func TestParsePIFallbackPosition(t *testing.T) {
	// OCR destroyed the table row; the description block still holds
	// the numbers.
	text := `Invoice No: INV-42
Description of Goods
PARACETAMOL TABLETS 500 mg
200
12.50
2,500.00
Amount in words: whatever`

	data := ParsePI(text)
	require.Len(t, data.Positions, 1)
	pos := data.Positions[0]
	assert.Equal(t, "PARACETAMOL TABLETS", pos.NameEN)
	require.NotNil(t, pos.Quantity)
	assert.Equal(t, "200", pos.Quantity.String())
	require.NotNil(t, pos.UnitPrice)
	assert.Equal(t, "12.5", pos.UnitPrice.String())
	require.NotNil(t, pos.TotalPrice)
	assert.Equal(t, "2500", pos.TotalPrice.String())
}

func TestParseDecimal(t *testing.T) {
	d := parseDecimal("1,234.50")
	require.NotNil(t, d)
	assert.Equal(t, "1234.5", d.String())

	d = parseDecimal("₹2,500.00")
	require.NotNil(t, d)
	assert.Equal(t, "2500", d.String())

	assert.Nil(t, parseDecimal("abc"))
	assert.Nil(t, parseDecimal(""))
	assert.Nil(t, parseDecimal("..--"))
}

func TestExtractCurrency(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Total ₹ 2,500.00", "INR"},
		{"Amount (In INR)", "INR"},
		{"Total $ 2,500.00", "USD"},
		{"Total € 2,500.00", "EUR"},
		{"Amount (In GBP)", "GBP"},
		{"no currency here", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractCurrency(tt.text), "text %q", tt.text)
	}
}

func TestNormalizeIncoterm(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"CPT BY AIR MOSCOW INCOTERMS 2020", "CPT BY AIR MOSCOW"},
		{"delivery on FOB basis", "FOB"},
		{"CIF Moscow", "CIF MOSCOW"},
		{"DAP Saint Petersburg", "DAP SAINT PETERSBURG"},
		{"no terms on this line", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeIncoterm(tt.line), "line %q", tt.line)
	}
}

func TestStrictRowsSkipsLabelCells(t *testing.T) {
	// OCR grabs of tax/date label cells shape like rows but are noise.
	text := `TIN-12345 22 33.00 44.00
MFG-2026 1 2.00 2.00
ABC-999 10 5.00 50.00`

	positions := strictRows(text, "USD")
	require.Len(t, positions, 1)
	assert.Equal(t, "ABC-999", positions[0].Code)
}
