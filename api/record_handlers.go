package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/pharmadocs/pi-extraction-service/internal/db"
	"github.com/pharmadocs/pi-extraction-service/internal/docbuilder"
	"github.com/pharmadocs/pi-extraction-service/internal/models"
	"github.com/pharmadocs/pi-extraction-service/internal/storage"
)

// GetRecords returns the most recent extraction records
func (h *Handler) GetRecords(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	records, err := db.ListRecords(ctx, 100)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list records: %v", err))
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"records": records,
		"count":   len(records),
	})
}

// GetRecord returns a single record with the full data payload and
// presigned URLs for the stored source documents.
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	recordID := mux.Vars(r)["id"]
	record, err := db.GetRecordByID(ctx, recordID)
	if err != nil {
		h.sendError(w, http.StatusNotFound, fmt.Sprintf("record not found: %v", err))
		return
	}

	if storage.Client != nil {
		for _, url := range []*string{&record.PIURL, &record.SpecURL, &record.MSDSURL} {
			if *url == "" {
				continue
			}
			if presigned, err := storage.GetPresignedURL(ctx, *url); err == nil {
				*url = presigned
			}
		}
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"record":  record,
	})
}

// UpdateRecordRequest carries the reviewed data.
type UpdateRecordRequest struct {
	Data   models.ExtractedData `json:"data"`
	Status string               `json:"status,omitempty"`
}

// UpdateRecord replaces the record's data with the operator's reviewed
// version and re-runs validation.
func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	recordID := mux.Vars(r)["id"]

	var req UpdateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := req.Status
	if status == "" {
		status = db.StatusReviewed
	}

	if err := db.UpdateRecordData(ctx, recordID, req.Data, status); err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to update record")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":    true,
		"message":    "record updated",
		"validation": h.validator.Validate(&req.Data),
	})
}

// DeleteRecord removes a record and its stored objects
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	recordID := mux.Vars(r)["id"]

	if storage.Client != nil {
		if err := storage.DeleteRecordObjects(ctx, recordID); err != nil {
			fmt.Printf("Warning: failed to delete stored objects for %s: %v\n", recordID, err)
		}
	}

	if err := db.DeleteRecord(ctx, recordID); err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to delete record")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "record deleted",
	})
}

// GenerateDocuments renders the price list and per-temperature labels
// for a record and returns them as one zip archive. The request may
// carry operator templates ('price_list_template', 'label_template')
// and a 'profile' JSON with company overrides.
func (h *Handler) GenerateDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if db.Pool == nil {
		h.sendJSONError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	recordID := mux.Vars(r)["id"]
	record, err := db.GetRecordByID(ctx, recordID)
	if err != nil {
		h.sendJSONError(w, http.StatusNotFound, fmt.Sprintf("record not found: %v", err))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		h.sendJSONError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	var profile models.CompanyProfile
	if raw := r.FormValue("profile"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &profile); err != nil {
			h.sendJSONError(w, http.StatusBadRequest, "invalid profile JSON")
			return
		}
	}

	priceTemplate, _ := readFormFile(r, "price_list_template")
	labelTemplate, _ := readFormFile(r, "label_template")

	validation := h.validator.Validate(&record.Data)
	if !validation.Valid {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":      "record failed validation",
			"validation": validation,
		})
		return
	}

	priceList, err := docbuilder.BuildPriceList(record.Data, profile, priceTemplate)
	if err != nil {
		h.sendJSONError(w, http.StatusInternalServerError, fmt.Sprintf("price list generation failed: %v", err))
		return
	}

	labels, err := docbuilder.BuildLabels(record.Data, profile, labelTemplate)
	if err != nil {
		h.sendJSONError(w, http.StatusInternalServerError, fmt.Sprintf("label generation failed: %v", err))
		return
	}

	bundle, err := docbuilder.BundleZip(priceList, labels)
	if err != nil {
		h.sendJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to bundle documents: %v", err))
		return
	}

	// Keep copies in object storage for audit; failures only warn.
	if storage.Client != nil {
		docs := append([]docbuilder.LabelDoc{{Filename: "Price_List.docx", Content: priceList}}, labels...)
		for _, doc := range docs {
			_, err := storage.UploadGeneratedDocument(ctx, recordID, doc.Filename,
				bytes.NewReader(doc.Content), int64(len(doc.Content)),
				"application/vnd.openxmlformats-officedocument.wordprocessingml.document")
			if err != nil {
				fmt.Printf("Warning: failed to store %s: %v\n", doc.Filename, err)
			}
		}
	}

	if err := db.UpdateRecordFields(ctx, recordID, map[string]interface{}{"status": db.StatusGenerated}); err != nil {
		fmt.Printf("Warning: failed to update record status: %v\n", err)
	}

	filename := fmt.Sprintf("documents_%s.zip", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	w.Write(bundle)
}

// ExportRecord writes the record as an xlsx workbook: header fields on
// one sheet, positions on another.
func (h *Handler) ExportRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if db.Pool == nil {
		h.sendJSONError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	recordID := mux.Vars(r)["id"]
	record, err := db.GetRecordByID(ctx, recordID)
	if err != nil {
		h.sendJSONError(w, http.StatusNotFound, fmt.Sprintf("record not found: %v", err))
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const headerSheet = "Record"
	f.SetSheetName("Sheet1", headerSheet)

	headerRows := [][2]string{
		{"Invoice No", record.Data.InvoiceNo},
		{"Invoice Date", record.Data.InvoiceDate},
		{"Exporter", record.Data.ExporterName},
		{"Exporter Address", record.Data.ExporterAddress},
		{"Buyer", record.Data.BuyerName},
		{"Buyer Address", record.Data.BuyerAddress},
		{"Terms of Delivery", record.Data.TermsOfDelivery},
		{"Period of Validity", record.Data.PeriodOfValidity},
		{"Specification Date", record.Data.SpecificationDate},
		{"Storage Temperature", record.Data.StorageTemperature},
		{"Currency", record.Data.Currency},
		{"Status", record.Status},
	}
	for i, row := range headerRows {
		f.SetCellValue(headerSheet, fmt.Sprintf("A%d", i+1), row[0])
		f.SetCellValue(headerSheet, fmt.Sprintf("B%d", i+1), row[1])
	}

	const posSheet = "Positions"
	f.NewSheet(posSheet)
	posHeaders := []string{"#", "Code", "Name (EN)", "Name (RU)", "Quantity",
		"Packing (EN)", "Packing (RU)", "Unit Price", "Total Price", "Currency", "Storage Temperature"}
	for col, header := range posHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(posSheet, cell, header)
	}
	for i, pos := range record.Data.Positions {
		values := []interface{}{
			i + 1, pos.Code, pos.NameEN, pos.NameRU, decimalCell(pos.Quantity),
			pos.PackingEN, pos.PackingRU, decimalCell(pos.UnitPrice), decimalCell(pos.TotalPrice),
			pos.Currency, pos.StorageTemperature,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(posSheet, cell, value)
		}
	}

	filename := fmt.Sprintf("record_%s.xlsx", recordID)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	if err := f.Write(w); err != nil {
		fmt.Printf("Warning: xlsx export write failed: %v\n", err)
	}
}

// TranslateRecord fills empty Russian fields via the configured AI
// provider and saves the result.
func (h *Handler) TranslateRecord(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()

	if !h.translator.Enabled() {
		h.sendError(w, http.StatusServiceUnavailable, "no translate provider configured")
		return
	}
	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	recordID := mux.Vars(r)["id"]
	record, err := db.GetRecordByID(ctx, recordID)
	if err != nil {
		h.sendError(w, http.StatusNotFound, fmt.Sprintf("record not found: %v", err))
		return
	}

	if err := h.translator.Translate(ctx, &record.Data); err != nil {
		h.sendError(w, http.StatusBadGateway, fmt.Sprintf("translation failed: %v", err))
		return
	}

	if err := db.UpdateRecordData(ctx, recordID, record.Data, record.Status); err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to save translated record")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data":    record.Data,
	})
}

// sendJSONError mirrors sendError for handlers whose success path is
// not JSON.
func (h *Handler) sendJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// decimalCell renders a nullable decimal for the spreadsheet, blank
// when absent.
func decimalCell(d *decimal.Decimal) interface{} {
	if d == nil {
		return ""
	}
	value, _ := d.Float64()
	return value
}
