package models

import (
	"github.com/shopspring/decimal"
)

// Position represents one itemized product line of a shipment.
// Numeric fields are nil when the source document did not yield a
// parseable value; they are never zeroed on a parse miss.
type Position struct {
	Code               string           `json:"code"`
	NameEN             string           `json:"name_en"`
	NameRU             string           `json:"name_ru"`
	Quantity           *decimal.Decimal `json:"quantity"`
	PackingEN          string           `json:"packing_en"`
	PackingRU          string           `json:"packing_ru"`
	UnitPrice          *decimal.Decimal `json:"unit_price"`
	TotalPrice         *decimal.Decimal `json:"total_price"`
	Currency           string           `json:"currency"`
	StorageTemperature string           `json:"storage_temperature"`
}

// ExtractionMeta records per-document provenance of the chosen text.
type ExtractionMeta struct {
	OCRAvailable  bool     `json:"ocr_available"`
	PagesTotal    int      `json:"pages_total"`
	PagesOCRd     int      `json:"pages_ocrd"`
	PerPageSource []string `json:"per_page_source"` // "native" | "ocr"
}

// TextBundle is the output of the page text acquirer: the joined page
// text plus its provenance.
type TextBundle struct {
	Text string         `json:"text"`
	Meta ExtractionMeta `json:"meta"`
}

// ExtractedData is the reconciled record built from the PI and the
// supplementary documents. All fields are best-effort and remain
// editable through the review endpoints before document generation.
type ExtractedData struct {
	InvoiceNo          string            `json:"invoice_no"`
	InvoiceDate        string            `json:"invoice_date"`
	BuyerName          string            `json:"buyer_name"`
	BuyerAddress       string            `json:"buyer_address"`
	ExporterName       string            `json:"exporter_name"`
	ExporterNameRU     string            `json:"exporter_name_ru"`
	ExporterAddress    string            `json:"exporter_address"`
	TermsOfDelivery    string            `json:"terms_of_delivery"`
	PeriodOfValidity   string            `json:"period_of_validity"`
	SpecificationDate  string            `json:"specification_date"`
	StorageTemperature string            `json:"storage_temperature"`
	Positions          []Position        `json:"positions"`
	Currency           string            `json:"currency"`
	Raw                map[string]Overlay `json:"raw,omitempty"`
}

// Overlay is a partial key/value correction set recovered from a
// supplementary document (Specification or MSDS).
type Overlay map[string]string

// SourceLog is the diagnostic entry recorded per processed document.
// It is observational only and never used for control flow.
type SourceLog struct {
	SelectedSource string         `json:"selected_source,omitempty"`
	NativeScore    *int           `json:"native_score,omitempty"`
	OCRScore       *int           `json:"ocr_score,omitempty"`
	Meta           ExtractionMeta `json:"meta"`
	TextPreview    string         `json:"text_preview"`
}

// ExtractionLog maps a logical source name (pi, pi_ocr_candidate,
// specification, msds) to its diagnostic entry.
type ExtractionLog map[string]SourceLog

// CompanyProfile carries operator-supplied overrides applied at
// document generation time, not stored on the extraction record.
type CompanyProfile struct {
	ExporterNameEN    string `json:"exporter_name_en"`
	ExporterNameRU    string `json:"exporter_name_ru"`
	ExporterAddressEN string `json:"exporter_address_en"`
	StorageTempRU     string `json:"storage_temperature_ru"`
	CompanyInfo       string `json:"company_info"`
}

// EnsurePositions guarantees at least one (possibly empty) position so
// templates and the built-in layouts always have a row to fill.
func (d *ExtractedData) EnsurePositions() {
	if len(d.Positions) == 0 {
		d.Positions = []Position{{Currency: d.Currency}}
	}
}
