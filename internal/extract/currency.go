package extract

import (
	"regexp"
	"strings"
)

var (
	inrWordRe  = regexp.MustCompile(`(?i)\bINR\b`)
	usdWordRe  = regexp.MustCompile(`(?i)\bUSD\b`)
	eurWordRe  = regexp.MustCompile(`(?i)\bEUR\b`)
	parenCurRe = regexp.MustCompile(`\(In\s+([A-Z]{3})\)`)
)

// extractCurrency infers the document currency from symbols, ISO
// codes, or a parenthetical "(In XXX)" marker, in fixed priority
// order. Indian exporters dominate the sample set, hence INR first.
func extractCurrency(text string) string {
	switch {
	case strings.Contains(text, "₹") || inrWordRe.MatchString(text):
		return "INR"
	case strings.Contains(text, "$") || usdWordRe.MatchString(text):
		return "USD"
	case strings.Contains(text, "€") || eurWordRe.MatchString(text):
		return "EUR"
	}
	if m := parenCurRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}
