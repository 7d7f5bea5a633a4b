package extract

import (
	"regexp"

	"github.com/pharmadocs/pi-extraction-service/internal/models"
	"github.com/pharmadocs/pi-extraction-service/internal/temperature"
)

// Overlay keys produced by the supplementary extractors.
const (
	KeyTermsOfDelivery    = "terms_of_delivery"
	KeyPeriodOfValidity   = "period_of_validity"
	KeySpecificationDate  = "specification_date"
	KeyPacking            = "packing"
	KeyStorageTemperature = "storage_temperature"
)

var specTermsCascade = cascade{
	regexp.MustCompile(`(?i)Terms\s*of\s*Delivery\s*[:\-]?\s*([^\n]+)`),
	regexp.MustCompile(`(?i)Delivery\s*Terms\s*[:\-]?\s*([^\n]+)`),
}

var specValidityCascade = cascade{
	regexp.MustCompile(`(?i)Period\s*of\s*Validity\s*[:\-]?\s*([^\n]+)`),
	regexp.MustCompile(`(?i)Validity\s*Period\s*[:\-]?\s*([^\n]+)`),
	regexp.MustCompile(`(?i)Valid\s*for\s*[:\-]?\s*([^\n]+)`),
}

var specDateCascade = cascade{
	regexp.MustCompile(`(?i)Specification\s*Date\s*[:\-]?\s*([^\n]+)`),
	regexp.MustCompile(`(?i)Date\s*of\s*Specification\s*[:\-]?\s*([^\n]+)`),
	regexp.MustCompile(`(?i)Spec\.?\s*Date\s*[:\-]?\s*([^\n]+)`),
	// Last resort: any date-shaped substring anywhere in the document.
	regexp.MustCompile(`\b(\d{1,2}[./-]\d{1,2}[./-]\d{2,4})\b`),
	regexp.MustCompile(`\b(\d{1,2}[-/.][A-Za-z]{3,9}[-/.]\d{2,4})\b`),
}

var specPackingCascade = cascade{
	regexp.MustCompile(`(?i)Packing\s*[:\-]?\s*([^\n]+)`),
	regexp.MustCompile(`(?i)Package\s*(?:size)?\s*[:\-]?\s*([^\n]+)`),
}

// ParseSpecification recovers the Specification overlay: delivery
// terms, validity period, specification date and packing. Missing data
// yields absent keys, never an error.
func ParseSpecification(specText string) models.Overlay {
	overlay := models.Overlay{}

	if terms := specTermsCascade.find(specText); terms != "" {
		if normalized := normalizeIncoterm(terms); normalized != "" {
			terms = normalized
		}
		overlay[KeyTermsOfDelivery] = terms
	}
	if validity := specValidityCascade.find(specText); validity != "" {
		overlay[KeyPeriodOfValidity] = validity
	}
	if date := specDateCascade.find(specText); date != "" {
		overlay[KeySpecificationDate] = date
	}
	if packing := specPackingCascade.find(specText); packing != "" {
		overlay[KeyPacking] = packing
	}
	return overlay
}

var (
	storageKeywordRe = regexp.MustCompile(`(?i)\b(?:storage|store|shipping|keep|maintain)\b`)
	tempKeywordRe    = regexp.MustCompile(`(?i)°|\bdeg|\bc\b|\bf\b|\bbelow\b|\bbetween\b|\bambient\b|\broom\b`)
)

// ParseMSDS recovers the single storage-temperature field. The cascade
// order is deliberate precedence: explicit structured ranges outrank
// vague ambient language.
func ParseMSDS(msdsText string) models.Overlay {
	overlay := models.Overlay{}

	// (a) First line pairing a storage keyword with a temperature
	// indicator; a numeric range inside it becomes canonical.
	for _, ln := range nonEmptyLines(msdsText) {
		if !storageKeywordRe.MatchString(ln) || !tempKeywordRe.MatchString(ln) {
			continue
		}
		if canonical, ok := temperature.CanonicalRange(ln); ok {
			overlay[KeyStorageTemperature] = canonical
		} else {
			overlay[KeyStorageTemperature] = cleanSpace(ln)
		}
		return overlay
	}

	// (b) Bare numeric range anywhere in the document.
	if canonical, ok := temperature.CanonicalRange(msdsText); ok {
		overlay[KeyStorageTemperature] = canonical
		return overlay
	}

	// (c) Ambient language without an explicit range.
	if temperature.MentionsAmbient(msdsText) {
		overlay[KeyStorageTemperature] = temperature.DefaultAmbient
	}
	return overlay
}
