// Package services holds cross-field checks that run between
// extraction and document generation.
package services

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/pharmadocs/pi-extraction-service/internal/models"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field    string `json:"field"`
	Code     string `json:"code"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Message  string `json:"message,omitempty"`
}

// ValidationWarning represents a non-critical issue
type ValidationWarning struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult is the response from validation
type ValidationResult struct {
	Valid       bool                `json:"valid"`
	NeedsReview bool                `json:"needs_review"`
	Errors      []ValidationError   `json:"errors"`
	Warnings    []ValidationWarning `json:"warnings"`
}

// RecordValidator checks a reconciled record before documents are
// generated. Errors block generation; warnings flag the record for
// operator review.
type RecordValidator struct {
	tolerance decimal.Decimal // relative tolerance for price arithmetic
}

// NewRecordValidator creates a validator with the default 1% tolerance.
func NewRecordValidator() *RecordValidator {
	return &RecordValidator{tolerance: decimal.NewFromFloat(0.01)}
}

var canonicalTempRe = regexp.MustCompile(`^[+-]\d+C to [+-]\d+C$`)

// Validate performs all cross-field checks on a record
func (v *RecordValidator) Validate(data *models.ExtractedData) *ValidationResult {
	result := &ValidationResult{
		Valid:       true,
		NeedsReview: false,
		Errors:      []ValidationError{},
		Warnings:    []ValidationWarning{},
	}

	v.validateHeader(data, result)
	v.validatePositions(data, result)
	v.validateStorage(data, result)

	result.Valid = len(result.Errors) == 0
	result.NeedsReview = len(result.Warnings) > 0

	return result
}

func (v *RecordValidator) validateHeader(data *models.ExtractedData, result *ValidationResult) {
	if data.InvoiceNo == "" {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "invoice_no",
			Code:    "missing_invoice_no",
			Message: "invoice number was not extracted",
		})
	}
	if data.InvoiceDate == "" {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "invoice_date",
			Code:    "missing_invoice_date",
			Message: "invoice date was not extracted",
		})
	}
	if data.BuyerName == "" {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "buyer_name",
			Code:    "missing_buyer",
			Message: "buyer name was not extracted",
		})
	}
	if data.TermsOfDelivery == "" {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "terms_of_delivery",
			Code:    "missing_terms",
			Message: "terms of delivery were not extracted",
		})
	}
}

func (v *RecordValidator) validatePositions(data *models.ExtractedData, result *ValidationResult) {
	if len(data.Positions) == 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "positions",
			Code:    "no_positions",
			Message: "record has no positions",
		})
		return
	}

	for i, pos := range data.Positions {
		prefix := fmt.Sprintf("positions[%d]", i)

		if pos.NameEN == "" {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Field:   prefix + ".name_en",
				Code:    "missing_name",
				Message: "position has no product name",
			})
		}

		v.checkNonNegative(prefix+".quantity", pos.Quantity, result)
		v.checkNonNegative(prefix+".unit_price", pos.UnitPrice, result)
		v.checkNonNegative(prefix+".total_price", pos.TotalPrice, result)

		v.checkArithmetic(prefix, pos, result)
	}
}

func (v *RecordValidator) checkNonNegative(field string, value *decimal.Decimal, result *ValidationResult) {
	if value != nil && value.IsNegative() {
		result.Errors = append(result.Errors, ValidationError{
			Field:   field,
			Code:    "negative_value",
			Actual:  value.String(),
			Message: "value must not be negative",
		})
	}
}

// checkArithmetic verifies total ≈ quantity × unit price within the
// tolerance. OCR rounding makes small drift normal, so a mismatch is a
// review flag rather than an error.
func (v *RecordValidator) checkArithmetic(prefix string, pos models.Position, result *ValidationResult) {
	if pos.Quantity == nil || pos.UnitPrice == nil || pos.TotalPrice == nil {
		return
	}
	if pos.TotalPrice.IsZero() {
		return
	}

	expected := pos.Quantity.Mul(*pos.UnitPrice)
	diff := pos.TotalPrice.Sub(expected).Abs()
	toleranceAmount := pos.TotalPrice.Abs().Mul(v.tolerance)

	if diff.GreaterThan(toleranceAmount) {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field: prefix + ".total_price",
			Code:  "total_mismatch",
			Message: fmt.Sprintf("total %s does not match quantity × unit price (%s)",
				pos.TotalPrice.StringFixed(2), expected.StringFixed(2)),
		})
	}
}

func (v *RecordValidator) validateStorage(data *models.ExtractedData, result *ValidationResult) {
	if data.StorageTemperature == "" {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "storage_temperature",
			Code:    "missing_storage_temperature",
			Message: "storage temperature was not extracted",
		})
		return
	}
	if !canonicalTempRe.MatchString(data.StorageTemperature) {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "storage_temperature",
			Code:    "non_canonical_temperature",
			Message: "storage temperature is not a canonical range: " + data.StorageTemperature,
		})
	}
}
