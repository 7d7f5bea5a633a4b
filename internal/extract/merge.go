package extract

import (
	"github.com/pharmadocs/pi-extraction-service/internal/models"
	"github.com/pharmadocs/pi-extraction-service/internal/temperature"
)

// Merge reconciles the PI record with the Specification and MSDS
// overlays. Overlays are treated as authoritative corrections: a
// non-empty overlay value wins over the PI's, an empty one never
// blanks a recovered field. Positions are then back-filled one-way
// from the document-level defaults.
func Merge(piData models.ExtractedData, specData, msdsData models.Overlay) models.ExtractedData {
	merged := piData

	merged.TermsOfDelivery = orElse(specData[KeyTermsOfDelivery], merged.TermsOfDelivery)
	merged.PeriodOfValidity = orElse(specData[KeyPeriodOfValidity], merged.PeriodOfValidity)
	merged.SpecificationDate = orElse(specData[KeySpecificationDate], merged.SpecificationDate)
	merged.StorageTemperature = orElse(msdsData[KeyStorageTemperature], merged.StorageTemperature)

	if merged.StorageTemperature == "" {
		merged.StorageTemperature = temperature.DefaultAmbient
	}

	specPacking := specData[KeyPacking]
	for i := range merged.Positions {
		pos := &merged.Positions[i]
		if pos.Currency == "" {
			pos.Currency = merged.Currency
		}
		if pos.StorageTemperature == "" {
			pos.StorageTemperature = merged.StorageTemperature
		}
		if pos.PackingEN == "" && specPacking != "" {
			pos.PackingEN = specPacking
		}
	}

	merged.Raw = map[string]models.Overlay{
		"specification": specData,
		"msds":          msdsData,
	}
	return merged
}

func orElse(overlay, fallback string) string {
	if overlay != "" {
		return overlay
	}
	return fallback
}
