package docbuilder

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/nguyenthenguyen/docx"
)

var tokenRe = regexp.MustCompile(`\{\{[A-Z0-9_]+\}\}`)

// FillTemplate substitutes {{TOKEN}} placeholders in a .docx template
// and strips any unresolved tokens of the same shape. The returned
// count is the number of distinct tokens actually substituted; zero
// means the template carried no known placeholders and the caller must
// fall back to the built-in layout.
func FillTemplate(templateBytes []byte, context map[string]string) ([]byte, int, error) {
	reader, err := docx.ReadDocxFromMemory(bytes.NewReader(templateBytes), int64(len(templateBytes)))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read docx template: %w", err)
	}
	defer reader.Close()

	doc := reader.Editable()

	substituted := 0
	for key, value := range context {
		token := "{{" + key + "}}"
		if !bytes.Contains([]byte(doc.GetContent()), []byte(token)) {
			continue
		}
		if err := doc.Replace(token, value, -1); err != nil {
			return nil, 0, fmt.Errorf("failed to substitute %s: %w", token, err)
		}
		substituted++
	}

	// Strip leftover tokens so a half-filled template never ships
	// placeholder braces to the printer.
	for _, leftover := range uniqueTokens(doc.GetContent()) {
		if err := doc.Replace(leftover, "", -1); err != nil {
			return nil, 0, fmt.Errorf("failed to strip %s: %w", leftover, err)
		}
	}

	var out bytes.Buffer
	if err := doc.Write(&out); err != nil {
		return nil, 0, fmt.Errorf("failed to write filled template: %w", err)
	}
	return out.Bytes(), substituted, nil
}

func uniqueTokens(content string) []string {
	seen := make(map[string]bool)
	var tokens []string
	for _, tok := range tokenRe.FindAllString(content, -1) {
		if !seen[tok] {
			seen[tok] = true
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
