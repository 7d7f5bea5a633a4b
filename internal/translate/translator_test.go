package translate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmadocs/pi-extraction-service/internal/models"
)

type fakeProvider struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func (f *fakeProvider) Name() string { return "fake" }

func TestTranslateFillsEmptyFields(t *testing.T) {
	provider := &fakeProvider{
		response: `[{"index": 0, "name_ru": "АМОКСИЦИЛЛИН КАПСУЛЫ", "packing_ru": "500 мг / капсула"}]`,
	}
	data := &models.ExtractedData{
		Positions: []models.Position{
			{NameEN: "AMOXICILLIN CAPSULES", PackingEN: "500 mg / capsule"},
			{NameEN: "INSULIN", NameRU: "ИНСУЛИН"},
		},
	}

	err := NewTranslator(provider).Translate(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, "АМОКСИЦИЛЛИН КАПСУЛЫ", data.Positions[0].NameRU)
	assert.Equal(t, "500 мг / капсула", data.Positions[0].PackingRU)

	// One batched request covers all pending positions.
	require.Len(t, provider.prompts, 1)
	assert.Contains(t, provider.prompts[0], "AMOXICILLIN CAPSULES")
	assert.Contains(t, provider.prompts[0], "INSULIN")
}

func TestTranslateNeverOverwrites(t *testing.T) {
	provider := &fakeProvider{
		response: `[{"index": 0, "name_ru": "ДРУГОЕ ИМЯ", "packing_ru": "новая упаковка"}]`,
	}
	data := &models.ExtractedData{
		Positions: []models.Position{
			{NameEN: "AMOXICILLIN", NameRU: "АМОКСИЦИЛЛИН", PackingEN: "500 mg"},
		},
	}

	err := NewTranslator(provider).Translate(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, "АМОКСИЦИЛЛИН", data.Positions[0].NameRU)
	assert.Equal(t, "новая упаковка", data.Positions[0].PackingRU)
}

func TestTranslateNothingPending(t *testing.T) {
	provider := &fakeProvider{}
	data := &models.ExtractedData{
		Positions: []models.Position{
			{NameEN: "AMOXICILLIN", NameRU: "АМОКСИЦИЛЛИН"},
			{}, // no English source, skipped
		},
	}

	err := NewTranslator(provider).Translate(context.Background(), data)
	require.NoError(t, err)
	assert.Empty(t, provider.prompts)
}

func TestTranslateDisabled(t *testing.T) {
	translator := NewTranslator(nil)
	assert.False(t, translator.Enabled())

	data := &models.ExtractedData{
		Positions: []models.Position{{NameEN: "AMOXICILLIN"}},
	}
	require.NoError(t, translator.Translate(context.Background(), data))
	assert.Empty(t, data.Positions[0].NameRU)
}

func TestTranslateProviderError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("rate limited")}
	data := &models.ExtractedData{
		Positions: []models.Position{{NameEN: "AMOXICILLIN"}},
	}

	err := NewTranslator(provider).Translate(context.Background(), data)
	assert.ErrorContains(t, err, "rate limited")
}

func TestParseResponse(t *testing.T) {
	t.Run("plain JSON", func(t *testing.T) {
		items, err := parseResponse(`[{"index": 2, "name_ru": "ИМЯ"}]`)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 2, items[0].Index)
		assert.Equal(t, "ИМЯ", items[0].NameRU)
	})

	t.Run("fenced JSON", func(t *testing.T) {
		fenced := strings.Join([]string{"```json", `[{"index": 0, "packing_ru": "флакон"}]`, "```"}, "\n")
		items, err := parseResponse(fenced)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "флакон", items[0].PackRU)
	})

	t.Run("not JSON", func(t *testing.T) {
		_, err := parseResponse("Sorry, I cannot help with that.")
		assert.Error(t, err)
	})
}

func TestTranslateIgnoresOutOfRangeIndex(t *testing.T) {
	provider := &fakeProvider{
		response: `[{"index": 5, "name_ru": "ИМЯ"}, {"index": -1, "name_ru": "ИМЯ"}]`,
	}
	data := &models.ExtractedData{
		Positions: []models.Position{{NameEN: "AMOXICILLIN"}},
	}

	require.NoError(t, NewTranslator(provider).Translate(context.Background(), data))
	assert.Empty(t, data.Positions[0].NameRU)
}
