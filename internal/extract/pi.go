package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pharmadocs/pi-extraction-service/internal/models"
)

var invoiceNoCascade = cascade{
	// Strict export invoice number shape, e.g. "ABC/E/25-26/1234".
	regexp.MustCompile(`\b([A-Z]{2,}[/-][A-Z][/-]\d{2}-\d{2}[/-]\d+)\b`),
	// Label with the value on the following line.
	regexp.MustCompile(`(?i)Invoice\s*No\.?\s*&?\s*Date\s*\n\s*([A-Za-z0-9\-/]+)`),
	// Generic label form.
	regexp.MustCompile(`(?i)Invoice\s*No\.?\s*[:\-]?\s*([A-Za-z0-9\-/]+)`),
}

var invoiceDateCascade = cascade{
	// 26-Feb-26, 26.Feb.2026, 26/February/26
	regexp.MustCompile(`\b(\d{1,2}[-/.][A-Za-z]{3,9}[-/.]\d{2,4})\b`),
	// 26.02.2026 / 26-02-2026 / 26/02/2026, same separator both times.
	regexp.MustCompile(`\b(\d{1,2}\.\d{1,2}\.\d{2,4})\b`),
	regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{2,4})\b`),
	regexp.MustCompile(`\b(\d{1,2}-\d{1,2}-\d{2,4})\b`),
}

var exporterNameCascade = cascade{
	// Exporter name directly preceding the invoice number cell.
	regexp.MustCompile(`\b(M/S\.[^\n]+?)\s+[A-Z]{2,}[/-][A-Z][/-]\d{2}-\d{2}[/-]\d+\b`),
	regexp.MustCompile(`(?i)Exporter:\s*([^\n]+)`),
}

var piSpecDateCascade = cascade{
	regexp.MustCompile(`(?i)Specification\s*No[^\n]*DT:\s*([0-9./-]+)`),
}

// ParsePI recovers an ExtractedData from the Proforma Invoice text
// alone. Cross-document fields (validity period, storage temperature)
// are left for the reconciler.
func ParsePI(piText string) models.ExtractedData {
	currency := extractCurrency(piText)

	exporterAddress := extractBlock(piText, "Exporter:",
		[]string{"Consignee", "Buyer", "GSTIN", "IEC NO"})

	buyerBlock := extractBlock(piText, "Consignee:",
		[]string{"Buyer", "Pre-Carriage", "Vessel/Flight", "Quantity", "Port of"})
	buyerName, buyerAddress := splitNameAddress(buyerBlock)

	descriptionLines := descriptionBlock(piText)

	data := models.ExtractedData{
		InvoiceNo:         invoiceNoCascade.find(piText),
		InvoiceDate:       invoiceDateCascade.find(piText),
		BuyerName:         buyerName,
		BuyerAddress:      buyerAddress,
		ExporterName:      exporterNameCascade.find(piText),
		ExporterAddress:   exporterAddress,
		TermsOfDelivery:   extractTerms(piText),
		SpecificationDate: piSpecDateCascade.find(piText),
		Currency:          currency,
	}
	data.Positions = extractPositions(piText, descriptionLines, currency)

	// Single anonymous position: try the line right under the goods
	// header as a name of last resort.
	if len(data.Positions) == 1 && data.Positions[0].NameEN == "" {
		re := regexp.MustCompile(`(?i)Description\s*of\s*Goods\s*\n([^\n]+)`)
		if m := re.FindStringSubmatch(piText); m != nil {
			data.Positions[0].NameEN = cleanSpace(m[1])
		}
	}
	return data
}

// splitNameAddress treats the first line of a buyer block as the name
// and the remainder as the address.
func splitNameAddress(block string) (name, address string) {
	if block == "" {
		return "", ""
	}
	lines := strings.SplitN(block, "\n", 2)
	name = lines[0]
	if len(lines) > 1 {
		address = strings.TrimSpace(lines[1])
	}
	return name, address
}

// descriptionBlock collects the delimited "description of goods"
// lines, dropping signature noise.
func descriptionBlock(piText string) []string {
	lines := splitLines(piText)

	startIdx := -1
	for idx, ln := range lines {
		if containsFold(ln, "description of goods") {
			startIdx = idx
			break
		}
	}
	if startIdx == -1 {
		return nil
	}

	var collected []string
	for _, ln := range lines[startIdx+1:] {
		if ln == "" {
			continue
		}
		low := strings.ToLower(ln)
		if strings.Contains(low, "amount in words") || strings.HasPrefix(low, "for ") {
			break
		}
		if strings.Contains(low, "authorised signatory") {
			continue
		}
		collected = append(collected, ln)
	}
	return collected
}

var (
	incotermLineRe = regexp.MustCompile(`(?i)incoterms`)
	termsLabelRe   = regexp.MustCompile(`(?i)terms`)
)

// extractTerms recovers delivery terms: an explicit Incoterms line
// first, then any line carrying an incoterm token, then the line after
// a "Terms of Delivery" label (OCR splits them).
func extractTerms(piText string) string {
	lines := nonEmptyLines(piText)

	for _, ln := range lines {
		if incotermLineRe.MatchString(ln) {
			if terms := normalizeIncoterm(ln); terms != "" {
				return terms
			}
			return cleanSpace(ln)
		}
	}
	for _, ln := range lines {
		if terms := normalizeIncoterm(ln); terms != "" {
			return terms
		}
	}
	for idx := 0; idx < len(lines)-1; idx++ {
		ln := lines[idx]
		if termsLabelRe.MatchString(ln) && containsFold(ln, "delivery") {
			next := lines[idx+1]
			if len(strings.Fields(next)) > 2 {
				if terms := normalizeIncoterm(next); terms != "" {
					return terms
				}
				return cleanSpace(next)
			}
		}
	}
	return ""
}

var (
	// Strict row: code, quantity, unit price, total price on one line.
	strictRowRe = regexp.MustCompile(`^(?P<code>[A-Za-z0-9\-/]{3,})\s+(?P<qty>\d+(?:[.,]\d+)?)\s+(?P<unit>[\d,]+(?:\.\d{2})?)\s+(?P<total>[\d,]+(?:\.\d{2})?)$`)
	// Looser variant for OCR output where digits drift apart.
	looseRowRe = regexp.MustCompile(`^(?P<code>[A-Za-z0-9\-/]{3,})\s+(?P<qty>\d+(?:[.,]\d+)?)\s+(?P<unit>[0-9,.\s]{4,20}?)\s+(?P<total>[0-9,.\s]{4,20})$`)

	numberTokenRe  = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	numericLineRe  = regexp.MustCompile(`^[\d\s.,/-]+$`)
	packingShapeRe = regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:mg|mcg|g|kg|ml|l|iu)\b(?:\s*/\s*[A-Za-z]+)?`)
	letterRe       = regexp.MustCompile(`[A-Za-zА-Яа-я]`)
)

// Tokens that match the row shape but are never product codes.
var nonCodeWords = map[string]bool{
	"date":  true,
	"total": true,
	"gstin": true,
	"page":  true,
	"tel":   true,
	"fax":   true,
	"pin":   true,
	"iec":   true,
}

var nonCodePrefixes = []string{"tin", "mfg", "exp"}

func isNonCode(code string) bool {
	low := strings.ToLower(code)
	if nonCodeWords[low] {
		return true
	}
	for _, p := range nonCodePrefixes {
		if strings.HasPrefix(low, p) {
			return true
		}
	}
	return false
}

// extractPositions runs the position cascade: strict row scan first,
// then a structured fallback over the description block, then a merge
// of the two when the strict rows are missing prices.
func extractPositions(piText string, descLines []string, currency string) []models.Position {
	strict := strictRows(piText, currency)
	fallback := fallbackPosition(descLines, currency)

	if len(strict) == 0 {
		if fallback != nil {
			return []models.Position{*fallback}
		}
		return []models.Position{{Currency: currency}}
	}

	names, packings := nameAndPackingCandidates(descLines)
	for idx := range strict {
		assignFrom(&strict[idx].NameEN, names, idx)
		assignFrom(&strict[idx].PackingEN, packings, idx)
	}

	// A strict parse that lost its prices borrows them from the
	// fallback, keeping whatever name/packing it already had.
	if fallback != nil && fallback.UnitPrice != nil && fallback.TotalPrice != nil {
		first := &strict[0]
		if first.UnitPrice == nil || first.TotalPrice == nil {
			first.UnitPrice = fallback.UnitPrice
			first.TotalPrice = fallback.TotalPrice
			if first.Quantity == nil {
				first.Quantity = fallback.Quantity
			}
		}
	}
	return strict
}

func assignFrom(field *string, candidates []string, idx int) {
	if *field != "" || len(candidates) == 0 {
		return
	}
	if idx < len(candidates) {
		*field = candidates[idx]
	} else {
		*field = candidates[0]
	}
}

// strictRows scans every physical line for the regular row shape.
func strictRows(piText string, currency string) []models.Position {
	var positions []models.Position
	for _, line := range nonEmptyLines(piText) {
		normalized := cleanSpace(line)
		m := matchRow(strictRowRe, normalized)
		if m == nil {
			m = matchRow(looseRowRe, normalized)
		}
		if m == nil || isNonCode(m["code"]) {
			continue
		}
		positions = append(positions, models.Position{
			Code:       m["code"],
			Quantity:   parseDecimal(m["qty"]),
			UnitPrice:  parseDecimal(m["unit"]),
			TotalPrice: parseDecimal(m["total"]),
			Currency:   currency,
		})
	}
	return positions
}

func matchRow(re *regexp.Regexp, line string) map[string]string {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	groups := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if name != "" {
			groups[name] = strings.TrimSpace(m[i])
		}
	}
	return groups
}

// fallbackPosition rebuilds a single position from the description
// block when no regular row survived OCR: the last three numeric
// tokens are taken as quantity / unit price / total price, with
// reduced-arity rules for one or two numbers.
func fallbackPosition(descLines []string, currency string) *models.Position {
	if len(descLines) == 0 {
		return nil
	}

	var numbers []*decimal.Decimal
	for _, ln := range descLines {
		for _, tok := range numberTokenRe.FindAllString(ln, -1) {
			if d := parseDecimal(tok); d != nil {
				numbers = append(numbers, d)
			}
		}
	}

	pos := &models.Position{Currency: currency}
	switch {
	case len(numbers) >= 3:
		pos.Quantity = numbers[len(numbers)-3]
		pos.UnitPrice = numbers[len(numbers)-2]
		pos.TotalPrice = numbers[len(numbers)-1]
	case len(numbers) == 2:
		pos.Quantity = decimalFrom(1)
		pos.UnitPrice = numbers[0]
		pos.TotalPrice = numbers[1]
	case len(numbers) == 1:
		pos.Quantity = numbers[0]
	}

	names, packings := nameAndPackingCandidates(descLines)
	if len(names) > 0 {
		pos.NameEN = names[0]
	}
	if len(packings) > 0 {
		pos.PackingEN = packings[0]
	}

	if pos.NameEN == "" && pos.Quantity == nil && pos.UnitPrice == nil {
		return nil
	}
	return pos
}

var descNoiseRe = regexp.MustCompile(`(?i)amount in words|authorised signatory|description of goods|quantity|unit price|total`)

// nameAndPackingCandidates filters the description block down to
// probable product names (most letter-dense first) and packing-shaped
// strings such as "500 mg / vial".
func nameAndPackingCandidates(descLines []string) (names, packings []string) {
	type scored struct {
		line    string
		letters int
	}
	var candidates []scored

	for _, ln := range descLines {
		ln = strings.Trim(ln, " -")
		if ln == "" || numericLineRe.MatchString(ln) || descNoiseRe.MatchString(ln) {
			continue
		}
		if loc := packingShapeRe.FindStringIndex(ln); loc != nil {
			packing := cleanSpace(ln[loc[0]:])
			packings = append(packings, packing)
			ln = strings.Trim(cleanSpace(ln[:loc[0]]), " -,")
			if ln == "" {
				continue
			}
		}
		letters := len(letterRe.FindAllString(ln, -1))
		if letters < 3 {
			continue
		}
		candidates = append(candidates, scored{line: cleanSpace(ln), letters: letters})
	}

	// Stable selection: order by letter density, ties keep document
	// order so multi-row invoices map names onto rows top-down.
	for len(candidates) > 0 {
		best := 0
		for i, c := range candidates {
			if c.letters > candidates[best].letters {
				best = i
			}
		}
		names = append(names, candidates[best].line)
		candidates = append(candidates[:best], candidates[best+1:]...)
	}
	return names, packings
}
