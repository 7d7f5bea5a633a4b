package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmadocs/pi-extraction-service/internal/models"
	"github.com/pharmadocs/pi-extraction-service/internal/temperature"
)

func TestMergeOverlayPrecedence(t *testing.T) {
	piData := models.ExtractedData{
		TermsOfDelivery:   "FOB",
		SpecificationDate: "01.01.2026",
	}
	specData := models.Overlay{
		KeyTermsOfDelivery: "CIF MOSCOW",
	}

	merged := Merge(piData, specData, models.Overlay{})

	// Non-empty overlay wins, empty overlay never blanks.
	assert.Equal(t, "CIF MOSCOW", merged.TermsOfDelivery)
	assert.Equal(t, "01.01.2026", merged.SpecificationDate)
}

func TestMergeStorageDefault(t *testing.T) {
	merged := Merge(models.ExtractedData{}, models.Overlay{}, models.Overlay{})
	assert.Equal(t, temperature.DefaultAmbient, merged.StorageTemperature)

	merged = Merge(models.ExtractedData{}, models.Overlay{},
		models.Overlay{KeyStorageTemperature: "+2C to +8C"})
	assert.Equal(t, "+2C to +8C", merged.StorageTemperature)
}

func TestMergePositionBackfill(t *testing.T) {
	piData := models.ExtractedData{
		Currency: "USD",
		Positions: []models.Position{
			{Code: "A"},
			{Code: "B", Currency: "EUR", PackingEN: "10 ml / vial", StorageTemperature: "+2C to +8C"},
		},
	}
	specData := models.Overlay{KeyPacking: "50 vials per box"}
	msdsData := models.Overlay{KeyStorageTemperature: "+15C to +25C"}

	merged := Merge(piData, specData, msdsData)
	require.Len(t, merged.Positions, 2)

	// Empty position fields inherit the document defaults.
	assert.Equal(t, "USD", merged.Positions[0].Currency)
	assert.Equal(t, "+15C to +25C", merged.Positions[0].StorageTemperature)
	assert.Equal(t, "50 vials per box", merged.Positions[0].PackingEN)

	// Populated position fields are never overwritten.
	assert.Equal(t, "EUR", merged.Positions[1].Currency)
	assert.Equal(t, "+2C to +8C", merged.Positions[1].StorageTemperature)
	assert.Equal(t, "10 ml / vial", merged.Positions[1].PackingEN)
}

func TestMergeKeepsRawOverlays(t *testing.T) {
	specData := models.Overlay{KeyPeriodOfValidity: "180 days"}
	msdsData := models.Overlay{KeyStorageTemperature: "+2C to +8C"}

	merged := Merge(models.ExtractedData{}, specData, msdsData)

	require.Contains(t, merged.Raw, "specification")
	require.Contains(t, merged.Raw, "msds")
	assert.Equal(t, "180 days", merged.Raw["specification"][KeyPeriodOfValidity])
	assert.Equal(t, "+2C to +8C", merged.Raw["msds"][KeyStorageTemperature])
}
