// Package docbuilder renders a reconciled record into output documents:
// one price list and one label document per storage-temperature group,
// either from the built-in layouts or by filling {{TOKEN}} placeholders
// in an operator-supplied .docx template.
package docbuilder

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pharmadocs/pi-extraction-service/internal/models"
)

// BuildContext produces the full token map for one record. Position
// tokens are 1-indexed: POSITION_1_NAME_EN, POSITION_2_UNIT_PRICE, ...
func BuildContext(data models.ExtractedData, profile models.CompanyProfile) map[string]string {
	data.EnsurePositions()

	exporterNameEN := orDefault(profile.ExporterNameEN, data.ExporterName)
	exporterNameRU := orDefault(profile.ExporterNameRU, data.ExporterNameRU)
	exporterAddrEN := orDefault(profile.ExporterAddressEN, data.ExporterAddress)
	storageRU := orDefault(profile.StorageTempRU, data.StorageTemperature)

	ctx := map[string]string{
		"INVOICE_NO":                  data.InvoiceNo,
		"INVOICE_DATE":                data.InvoiceDate,
		"BUYER_NAME":                  data.BuyerName,
		"BUYER_ADDRESS":               data.BuyerAddress,
		"TERMS_OF_DELIVERY":           data.TermsOfDelivery,
		"PERIOD_OF_VALIDITY":          data.PeriodOfValidity,
		"SPECIFICATION_DATE":          data.SpecificationDate,
		"STORAGE_TEMPERATURE":         data.StorageTemperature,
		"STORAGE_TEMPERATURE_EN":      data.StorageTemperature,
		"STORAGE_TEMPERATURE_RU":      storageRU,
		"EXPORTER_COMPANY_NAME":       exporterNameEN,
		"EXPORTER_COMPANY_NAME_EN":    exporterNameEN,
		"EXPORTER_COMPANY_NAME_RU":    exporterNameRU,
		"EXPORTER_COMPANY_ADDRESS_EN": exporterAddrEN,
		"COMPANY_INFO":                profile.CompanyInfo,
		"POSITIONS_TABLE":             positionsTable(data.Positions),
	}

	for idx, pos := range data.Positions {
		prefix := fmt.Sprintf("POSITION_%d_", idx+1)
		ctx[prefix+"NAME_EN"] = pos.NameEN
		ctx[prefix+"NAME_RU"] = pos.NameRU
		ctx[prefix+"QUANTITY"] = quantityString(pos.Quantity)
		ctx[prefix+"QUANTITY_EN"] = strings.TrimSpace(quantityString(pos.Quantity) + " " + pos.PackingEN)
		ctx[prefix+"QUANTITY_RU"] = strings.TrimSpace(quantityString(pos.Quantity) + " " + pos.PackingRU)
		ctx[prefix+"PACKING_EN"] = pos.PackingEN
		ctx[prefix+"PACKING_RU"] = pos.PackingRU
		ctx[prefix+"UNIT_PRICE"] = priceString(pos.UnitPrice)
		ctx[prefix+"TOTAL_PRICE"] = priceString(pos.TotalPrice)
		ctx[prefix+"CURRENCY"] = orDefault(pos.Currency, data.Currency)
	}
	return ctx
}

// positionsTable renders a plain-text row list for templates that want
// the whole table in one token.
func positionsTable(positions []models.Position) string {
	rows := make([]string, 0, len(positions))
	for idx, pos := range positions {
		rows = append(rows, strings.Join([]string{
			fmt.Sprintf("%d", idx+1),
			orDefault(pos.Code, "-"),
			orDefault(pos.NameEN, "-"),
			orDefault(quantityString(pos.Quantity), "-"),
			orDefault(pos.PackingEN, "-"),
			orDefault(priceString(pos.UnitPrice), "-"),
			orDefault(priceString(pos.TotalPrice), "-"),
			orDefault(pos.Currency, "-"),
		}, " | "))
	}
	return strings.Join(rows, "\n")
}

// priceString renders a nullable price as a comma-grouped two-decimal
// string, or "" when absent.
func priceString(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return groupThousands(d.StringFixed(2))
}

// quantityString renders a nullable quantity without trailing zeros.
func quantityString(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

// groupThousands inserts commas into the integer part of a fixed
// decimal string: "2500.00" -> "2,500.00".
func groupThousands(s string) string {
	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}
	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign, intPart = "-", intPart[1:]
	}

	n := len(intPart)
	if n <= 3 {
		return sign + intPart + fracPart
	}
	var b strings.Builder
	first := n % 3
	if first > 0 {
		b.WriteString(intPart[:first])
	}
	for i := first; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + fracPart
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
