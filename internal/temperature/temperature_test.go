package temperature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmadocs/pi-extraction-service/internal/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"worded range", "2 to 8 C", "+2C to +8C"},
		{"dash range with degree sign", "2-8°C", "+2C to +8C"},
		{"negative range", "-20 ~ -10 C", "-20C to -10C"},
		{"already canonical", "+15C to +25C", "+15C to +25C"},
		{"room temperature", "Store at room temperature", DefaultAmbient},
		{"ambient", "ambient conditions", DefaultAmbient},
		{"free text passthrough", "Protect from light", "Protect from light"},
		{"ocr comma in parens", "store  at\t(2-8°C,)", "+2C to +8C"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"2 to 8 C", "Store between 15°C and -   no", "+2C to +8C", "room temperature"}
	for _, input := range inputs {
		once := Normalize(input)
		assert.Equal(t, once, Normalize(once), "Normalize must be idempotent for %q", input)
	}
}

func TestCanonicalRange(t *testing.T) {
	canonical, ok := CanonicalRange("keep at 2 - 8 °C during transport")
	require.True(t, ok)
	assert.Equal(t, "+2C to +8C", canonical)

	_, ok = CanonicalRange("keep cool and dry")
	assert.False(t, ok)
}

func TestGroupPositions(t *testing.T) {
	data := models.ExtractedData{
		StorageTemperature: "+15C to +25C",
		Positions: []models.Position{
			{Code: "A", StorageTemperature: "2-8°C"},
			{Code: "B"}, // falls back to the document default
			{Code: "C", StorageTemperature: "2 to 8 C"},
			{Code: "D", StorageTemperature: "+15C to +25C"},
		},
	}

	groups := GroupPositions(data)
	require.Len(t, groups, 2)

	// First-seen key order.
	assert.Equal(t, "+2C to +8C", groups[0].Key)
	assert.Equal(t, "+15C to +25C", groups[1].Key)

	codes := func(g Group) []string {
		var out []string
		for _, p := range g.Positions {
			out = append(out, p.Code)
		}
		return out
	}
	assert.Equal(t, []string{"A", "C"}, codes(groups[0]))
	assert.Equal(t, []string{"B", "D"}, codes(groups[1]))
}

func TestGroupPositionsNoTemperatures(t *testing.T) {
	data := models.ExtractedData{
		Positions: []models.Position{{Code: "A"}, {Code: "B"}},
	}

	groups := GroupPositions(data)
	require.Len(t, groups, 1)
	assert.Equal(t, DefaultAmbient, groups[0].Key)
	assert.Len(t, groups[0].Positions, 2)
}

func TestSlug(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"+2C to +8C", "2c_to_8c"},
		{"+15C to +25C", "15c_to_25c"},
		{"Protect from light!!", "protect_from_light"},
		{"", "ambient"},
		{"!!!", "ambient"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slug(tt.input), "Slug(%q)", tt.input)
	}

	long := Slug("a very long temperature description that keeps going and going and going")
	assert.LessOrEqual(t, len(long), maxSlugLen)
}
