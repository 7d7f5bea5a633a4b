// Package temperature canonicalizes free-text storage-temperature
// expressions and groups positions by their canonical range for
// multi-label output.
package temperature

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pharmadocs/pi-extraction-service/internal/models"
)

// DefaultAmbient is the range substituted for "room temperature" /
// "ambient" language and for records with no recovered temperature.
const DefaultAmbient = "+15C to +25C"

// maxSlugLen bounds label filename suffixes.
const maxSlugLen = 40

var (
	spaceRe = regexp.MustCompile(`\s+`)

	// Matches "2 to 8 C", "2-8°C", "-20 ~ -10 C", "+15C to +25C".
	// An optional unit mark after the first bound keeps the canonical
	// form itself matchable, which makes Normalize idempotent.
	rangeRe = regexp.MustCompile(`(?i)([+-]?\d+)\s*°?\s*[CF]?\s*(?:to|–|—|~|-)\s*([+-]?\d+)\s*°?\s*[CF]\b`)

	ambientRe = regexp.MustCompile(`(?i)\b(?:room\s+temperature|ambient)\b`)

	slugRunRe = regexp.MustCompile(`[a-z0-9]+`)
)

// Normalize canonicalizes a free-text temperature expression. Numeric
// ranges become the sign-explicit "+XC to +YC" form, ambient language
// becomes DefaultAmbient, anything else passes through cleaned.
func Normalize(value string) string {
	cleaned := cleanText(value)
	if cleaned == "" {
		return ""
	}
	if canonical, ok := CanonicalRange(cleaned); ok {
		return canonical
	}
	if ambientRe.MatchString(cleaned) {
		return DefaultAmbient
	}
	return cleaned
}

// CanonicalRange extracts a numeric temperature range from the text
// and reports whether one was found.
func CanonicalRange(text string) (string, bool) {
	m := rangeRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	low, err1 := strconv.Atoi(strings.TrimPrefix(m[1], "+"))
	high, err2 := strconv.Atoi(strings.TrimPrefix(m[2], "+"))
	if err1 != nil || err2 != nil {
		return "", false
	}
	return fmt.Sprintf("%+dC to %+dC", low, high), true
}

// MentionsAmbient reports whether the text contains room-temperature
// language anywhere.
func MentionsAmbient(text string) bool {
	return ambientRe.MatchString(text)
}

// cleanText collapses whitespace and drops the stray comma OCR tends
// to leave inside parenthetical ranges, e.g. "(2-8°C,)".
func cleanText(value string) string {
	cleaned := strings.TrimSpace(spaceRe.ReplaceAllString(value, " "))
	cleaned = strings.ReplaceAll(cleaned, ",)", ")")
	return cleaned
}

// Group is one temperature bucket of positions, keyed by the
// canonical range string.
type Group struct {
	Key       string
	Positions []models.Position
}

// GroupPositions partitions the record's positions by canonical
// storage temperature, preserving first-seen key order. A position
// without its own temperature falls back to the document default,
// then to DefaultAmbient.
func GroupPositions(data models.ExtractedData) []Group {
	docDefault := Normalize(data.StorageTemperature)
	if docDefault == "" {
		docDefault = DefaultAmbient
	}

	var groups []Group
	index := make(map[string]int)

	for _, pos := range data.Positions {
		key := Normalize(pos.StorageTemperature)
		if key == "" {
			key = docDefault
		}
		if i, ok := index[key]; ok {
			groups[i].Positions = append(groups[i].Positions, pos)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, Group{Key: key, Positions: []models.Position{pos}})
	}
	return groups
}

// Slug derives a filename-safe suffix from a canonical temperature
// string: lowercase alphanumeric runs joined by underscores, bounded
// length, "ambient" when nothing survives.
func Slug(canonical string) string {
	runs := slugRunRe.FindAllString(strings.ToLower(canonical), -1)
	slug := strings.Join(runs, "_")
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
		slug = strings.Trim(slug, "_")
	}
	if slug == "" {
		return "ambient"
	}
	return slug
}
