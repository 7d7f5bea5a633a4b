package extract

import (
	"regexp"
	"strings"
)

var (
	incotermRe = regexp.MustCompile(`(?i)\b(CPT|FOB|CIF|EXW|DAP|DDP|FCA)\b`)
	byAirRe    = regexp.MustCompile(`(?i)\bBY\s+AIR\b`)
	cityWordRe = regexp.MustCompile(`^[A-Za-z]+$`)
)

// Words that follow an incoterm in invoice prose but are not a
// destination city.
var incotermStopWords = map[string]bool{
	"by":        true,
	"air":       true,
	"sea":       true,
	"terms":     true,
	"basis":     true,
	"freight":   true,
	"prepaid":   true,
	"incoterms": true,
}

// normalizeIncoterm recovers a clean delivery-terms string from a line
// of prose: the incoterm token, an optional "BY AIR" qualifier, and an
// optional destination city. Returns "" when the line carries no
// recognized incoterm.
func normalizeIncoterm(line string) string {
	loc := incotermRe.FindStringIndex(line)
	if loc == nil {
		return ""
	}
	term := strings.ToUpper(line[loc[0]:loc[1]])

	parts := []string{term}
	if byAirRe.MatchString(line) {
		parts = append(parts, "BY AIR")
	}
	if city := destinationCity(line[loc[1]:]); city != "" {
		parts = append(parts, city)
	}
	return strings.Join(parts, " ")
}

// destinationCity picks up to two capitalized words following the
// incoterm token, skipping the qualifier words.
func destinationCity(tail string) string {
	var words []string
	for _, w := range strings.Fields(tail) {
		w = strings.Trim(w, ".,;:()")
		if w == "" {
			continue
		}
		if incotermStopWords[strings.ToLower(w)] {
			continue
		}
		if !cityWordRe.MatchString(w) || w[0] < 'A' || w[0] > 'Z' {
			break
		}
		words = append(words, strings.ToUpper(w))
		if len(words) == 2 {
			break
		}
	}
	return strings.Join(words, " ")
}
