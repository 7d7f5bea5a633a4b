package pipeline

import (
	"strings"

	"github.com/pharmadocs/pi-extraction-service/internal/models"
)

// Code prefixes that show up when OCR grabs a label cell (tax number,
// manufacturing/expiry dates) instead of a product code.
var badCodePrefixes = []string{"tin", "mfg", "exp"}

// parseScore rates how plausible a PI parse is, so the orchestrator
// can choose between the native-text and forced-OCR candidates. Point
// values are tuned against sample documents; only the relative
// ordering is load-bearing.
func parseScore(data models.ExtractedData) int {
	score := 0
	if data.InvoiceNo != "" {
		score += 3
	}
	if data.InvoiceDate != "" {
		score += 2
	}
	if data.BuyerName != "" {
		score++
	}
	if data.TermsOfDelivery != "" {
		score += 2
	}
	if len(data.Positions) == 0 {
		return score
	}

	score += 2
	first := data.Positions[0]
	if first.Code != "" {
		score += 2
		if strings.Contains(first.Code, " ") {
			score--
		}
		low := strings.ToLower(first.Code)
		for _, prefix := range badCodePrefixes {
			if strings.HasPrefix(low, prefix) {
				score -= 3
				break
			}
		}
	}
	if first.UnitPrice != nil {
		score += 2
	}
	if first.TotalPrice != nil {
		score += 2
	}
	if len(first.NameEN) > 8 {
		score++
	}
	return score
}
