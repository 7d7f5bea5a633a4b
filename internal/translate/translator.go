package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pharmadocs/pi-extraction-service/internal/models"
)

// Translator fills empty NameRU/PackingRU fields in place. Fields the
// operator (or a previous run) already set are never overwritten.
type Translator struct {
	provider Provider
}

// NewTranslator wraps a provider; a nil provider yields a disabled
// translator whose Translate is a no-op.
func NewTranslator(provider Provider) *Translator {
	return &Translator{provider: provider}
}

// Enabled reports whether a provider is configured.
func (t *Translator) Enabled() bool {
	return t != nil && t.provider != nil
}

type translationItem struct {
	Index  int    `json:"index"`
	NameEN string `json:"name_en"`
	PackEN string `json:"packing_en"`
	NameRU string `json:"name_ru"`
	PackRU string `json:"packing_ru"`
}

// Translate sends one batched request covering every position that is
// missing a Russian field and writes the answers back. Positions with
// no English source text are skipped.
func (t *Translator) Translate(ctx context.Context, data *models.ExtractedData) error {
	if !t.Enabled() {
		return nil
	}

	var pending []translationItem
	for i, pos := range data.Positions {
		needName := pos.NameRU == "" && pos.NameEN != ""
		needPack := pos.PackingRU == "" && pos.PackingEN != ""
		if !needName && !needPack {
			continue
		}
		pending = append(pending, translationItem{
			Index:  i,
			NameEN: pos.NameEN,
			PackEN: pos.PackingEN,
		})
	}
	if len(pending) == 0 {
		return nil
	}

	response, err := t.provider.Complete(ctx, buildPrompt(pending))
	if err != nil {
		return err
	}

	items, err := parseResponse(response)
	if err != nil {
		return fmt.Errorf("failed to parse %s translation response: %w", t.provider.Name(), err)
	}

	filled := 0
	for _, item := range items {
		if item.Index < 0 || item.Index >= len(data.Positions) {
			continue
		}
		pos := &data.Positions[item.Index]
		if pos.NameRU == "" && item.NameRU != "" {
			pos.NameRU = strings.TrimSpace(item.NameRU)
			filled++
		}
		if pos.PackingRU == "" && item.PackRU != "" {
			pos.PackingRU = strings.TrimSpace(item.PackRU)
			filled++
		}
	}
	fmt.Printf("[Translate] provider=%s positions=%d fields_filled=%d\n", t.provider.Name(), len(pending), filled)
	return nil
}

func buildPrompt(items []translationItem) string {
	var b strings.Builder
	b.WriteString("You translate pharmaceutical product names and packing descriptions from English to Russian for customs labels.\n")
	b.WriteString("Keep dosage strengths, units (mg, ml, IU) and trade names recognizable; translate dosage forms (tablets, capsules, vial, ampoule) into standard Russian pharmacopoeia terms.\n")
	b.WriteString("Return ONLY a JSON array, no markdown, with objects of the form ")
	b.WriteString(`{"index": N, "name_ru": "...", "packing_ru": "..."}.` + "\n")
	b.WriteString("Use an empty string when the source field is empty.\n\nItems:\n")
	for _, item := range items {
		b.WriteString(fmt.Sprintf("index=%d name_en=%q packing_en=%q\n", item.Index, item.NameEN, item.PackEN))
	}
	return b.String()
}

// parseResponse tolerates the markdown code fences most models wrap
// JSON in despite instructions.
func parseResponse(response string) ([]translationItem, error) {
	cleaned := strings.TrimSpace(response)
	backticks := "```"
	cleaned = strings.ReplaceAll(cleaned, backticks+"json", "")
	cleaned = strings.ReplaceAll(cleaned, backticks, "")
	cleaned = strings.TrimSpace(cleaned)

	var items []translationItem
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		return nil, fmt.Errorf("JSON parse error: %w", err)
	}
	return items, nil
}
