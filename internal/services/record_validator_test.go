package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmadocs/pi-extraction-service/internal/models"
)

func dec(s string) *decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func validData() *models.ExtractedData {
	return &models.ExtractedData{
		InvoiceNo:          "ABC/E/25-26/1234",
		InvoiceDate:        "26-Feb-26",
		BuyerName:          "OOO PharmImport",
		TermsOfDelivery:    "CPT BY AIR MOSCOW",
		StorageTemperature: "+15C to +25C",
		Positions: []models.Position{
			{
				NameEN:     "AMOXICILLIN CAPSULES",
				Quantity:   dec("100"),
				UnitPrice:  dec("25"),
				TotalPrice: dec("2500"),
			},
		},
	}
}

func warningCodes(result *ValidationResult) []string {
	codes := make([]string, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		codes = append(codes, w.Code)
	}
	return codes
}

func errorCodes(result *ValidationResult) []string {
	codes := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		codes = append(codes, e.Code)
	}
	return codes
}

func TestValidateCleanRecord(t *testing.T) {
	result := NewRecordValidator().Validate(validData())

	assert.True(t, result.Valid)
	assert.False(t, result.NeedsReview)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidateNoPositions(t *testing.T) {
	data := validData()
	data.Positions = nil

	result := NewRecordValidator().Validate(data)

	assert.False(t, result.Valid)
	assert.Contains(t, errorCodes(result), "no_positions")
}

func TestValidateNegativeValue(t *testing.T) {
	data := validData()
	data.Positions[0].UnitPrice = dec("-25")

	result := NewRecordValidator().Validate(data)

	require.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "negative_value", result.Errors[0].Code)
	assert.Equal(t, "positions[0].unit_price", result.Errors[0].Field)
}

func TestValidateTotalMismatch(t *testing.T) {
	data := validData()
	data.Positions[0].TotalPrice = dec("3000")

	result := NewRecordValidator().Validate(data)

	// Arithmetic drift flags for review but never blocks generation.
	assert.True(t, result.Valid)
	assert.True(t, result.NeedsReview)
	assert.Contains(t, warningCodes(result), "total_mismatch")
}

func TestValidateTotalWithinTolerance(t *testing.T) {
	data := validData()
	data.Positions[0].TotalPrice = dec("2510") // 0.4% off, inside 1%

	result := NewRecordValidator().Validate(data)
	assert.NotContains(t, warningCodes(result), "total_mismatch")
}

func TestValidateMissingHeaderFields(t *testing.T) {
	data := validData()
	data.InvoiceNo = ""
	data.BuyerName = ""

	result := NewRecordValidator().Validate(data)

	assert.True(t, result.Valid)
	assert.True(t, result.NeedsReview)
	codes := warningCodes(result)
	assert.Contains(t, codes, "missing_invoice_no")
	assert.Contains(t, codes, "missing_buyer")
}

func TestValidateStorageTemperature(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		data := validData()
		data.StorageTemperature = ""
		result := NewRecordValidator().Validate(data)
		assert.Contains(t, warningCodes(result), "missing_storage_temperature")
	})

	t.Run("non canonical", func(t *testing.T) {
		data := validData()
		data.StorageTemperature = "keep refrigerated"
		result := NewRecordValidator().Validate(data)
		assert.Contains(t, warningCodes(result), "non_canonical_temperature")
	})

	t.Run("canonical negative range", func(t *testing.T) {
		data := validData()
		data.StorageTemperature = "-20C to -10C"
		result := NewRecordValidator().Validate(data)
		assert.NotContains(t, warningCodes(result), "non_canonical_temperature")
	})
}

func TestValidatePartialNumericsSkipArithmetic(t *testing.T) {
	data := validData()
	data.Positions[0].UnitPrice = nil

	result := NewRecordValidator().Validate(data)
	assert.NotContains(t, warningCodes(result), "total_mismatch")
}
