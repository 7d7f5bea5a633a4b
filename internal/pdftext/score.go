package pdftext

import (
	"regexp"
	"strings"
)

// Domain keywords that indicate a page of a commercial shipping
// document was read coherently. Each hit is worth more than raw
// character count so that short-but-structured OCR output can beat
// long native garbage.
var scoreKeywords = []string{
	"invoice",
	"consignee",
	"description of goods",
	"quantity",
	"terms of delivery",
	"specification",
	"storage",
	"temperature",
}

var (
	whitespaceRe    = regexp.MustCompile(`\s+`)
	invoiceShapeRe  = regexp.MustCompile(`\b[A-Z]{2,}/[A-Z]/\d{2}-\d{2}/\d+\b`)
	groupedNumberRe = regexp.MustCompile(`\d{1,3}(?:,\d{2,3})+(?:\.\d+)?`)
)

const (
	keywordBonus       = 80
	invoiceShapeBonus  = 120
	groupedNumberBonus = 40
)

// qualityScore rates how much usable document structure a text blob
// contains. Weights are tuned against sample PI scans; only the
// relative ordering matters.
func qualityScore(text string) int {
	if text == "" {
		return 0
	}
	cleaned := strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	score := len(cleaned)

	lowered := strings.ToLower(cleaned)
	for _, kw := range scoreKeywords {
		if strings.Contains(lowered, kw) {
			score += keywordBonus
		}
	}
	if invoiceShapeRe.MatchString(cleaned) {
		score += invoiceShapeBonus
	}
	if groupedNumberRe.MatchString(cleaned) {
		score += groupedNumberBonus
	}
	return score
}
