// Package extract recovers structured invoice fields and line-item
// positions from the noisy, bilingual free text produced by the page
// acquirer, and reconciles the three source documents into one record.
//
// Every extractor in this package is total: arbitrary input resolves
// to empty fields, never to an error.
package extract

import (
	"regexp"
	"strings"
)

// cascade is an ordered list of candidate patterns for one field.
// Patterns are tried in order and the first structural match wins;
// the ordering encodes domain priority (a strict invoice-number shape
// is tried before a generic "Invoice No:" label).
type cascade []*regexp.Regexp

// find returns the first capture group of the first matching pattern,
// whitespace-normalized, or "".
func (c cascade) find(text string) string {
	for _, re := range c {
		if m := re.FindStringSubmatch(text); m != nil {
			return cleanSpace(m[1])
		}
	}
	return ""
}

var spaceRe = regexp.MustCompile(`\s+`)

// cleanSpace collapses whitespace runs and trims.
func cleanSpace(value string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(value, " "))
}

// splitLines returns trimmed lines; empty lines are kept so block
// scanners can skip them explicitly.
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, len(raw))
	for i, ln := range raw {
		lines[i] = strings.TrimSpace(ln)
	}
	return lines
}

// nonEmptyLines returns trimmed, non-empty lines.
func nonEmptyLines(text string) []string {
	var lines []string
	for _, ln := range splitLines(text) {
		if ln != "" {
			lines = append(lines, ln)
		}
	}
	return lines
}

// extractBlock implements labeled block extraction: find the line
// containing startLabel, then collect subsequent non-empty lines until
// one contains any of the stop labels.
func extractBlock(text, startLabel string, stopLabels []string) string {
	lines := splitLines(text)

	startIdx := -1
	for idx, line := range lines {
		if containsFold(line, startLabel) {
			startIdx = idx
			break
		}
	}
	if startIdx == -1 {
		return ""
	}

	var collected []string
	for _, line := range lines[startIdx+1:] {
		if line == "" {
			continue
		}
		stopped := false
		for _, stop := range stopLabels {
			if containsFold(line, stop) {
				stopped = true
				break
			}
		}
		if stopped {
			break
		}
		collected = append(collected, line)
	}
	return strings.TrimSpace(strings.Join(collected, "\n"))
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
