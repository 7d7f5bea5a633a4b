package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/pharmadocs/pi-extraction-service/internal/auth"
	"github.com/pharmadocs/pi-extraction-service/internal/db"
	"github.com/pharmadocs/pi-extraction-service/internal/models"
	"github.com/pharmadocs/pi-extraction-service/internal/pipeline"
	"github.com/pharmadocs/pi-extraction-service/internal/services"
	"github.com/pharmadocs/pi-extraction-service/internal/storage"
	"github.com/pharmadocs/pi-extraction-service/internal/translate"
)

const (
	MaxUploadSize = 50 * 1024 * 1024 // 50MB across the three PDFs
	Version       = "1.2.0"
)

// Handler handles HTTP requests for document extraction
type Handler struct {
	config       *models.Config
	orchestrator *pipeline.Orchestrator
	translator   *translate.Translator
	validator    *services.RecordValidator
}

// NewHandler creates a new API handler
func NewHandler(config *models.Config, orchestrator *pipeline.Orchestrator, translator *translate.Translator) *Handler {
	return &Handler{
		config:       config,
		orchestrator: orchestrator,
		translator:   translator,
		validator:    services.NewRecordValidator(),
	}
}

// SetupRoutes configures the HTTP routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	// Main endpoint
	router.HandleFunc("/api/extract", h.ProcessExtraction).Methods("POST")

	// Record CRUD
	router.HandleFunc("/api/records", h.GetRecords).Methods("GET")
	router.HandleFunc("/api/record/{id}", h.GetRecord).Methods("GET")
	router.HandleFunc("/api/record/{id}", h.UpdateRecord).Methods("PUT")
	router.HandleFunc("/api/record/{id}", h.DeleteRecord).Methods("DELETE")

	// Document generation and export
	router.HandleFunc("/api/record/{id}/documents", h.GenerateDocuments).Methods("POST")
	router.HandleFunc("/api/record/{id}/export", h.ExportRecord).Methods("GET")
	router.HandleFunc("/api/record/{id}/translate", h.TranslateRecord).Methods("POST")

	// Health check
	router.HandleFunc("/health", h.Health).Methods("GET")

	return router
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Memory    MemoryStats       `json:"memory"`
	Tesseract ServiceStatus     `json:"tesseract"`
	Pdftoppm  ServiceStatus     `json:"pdftoppm"`
	Database  ServiceStatus     `json:"database"`
	Storage   ServiceStatus     `json:"storage"`
	Translate map[string]string `json:"translate"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Allocated string `json:"allocated"`
	Total     string `json:"total"`
	System    string `json:"system"`
}

// ServiceStatus represents the status of a service dependency
type ServiceStatus struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

var startTime = time.Now()

// Health endpoint. OCR being down degrades the service but does not
// fail it: extraction still works for native-text PDFs.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	tesseractStatus := h.checkBinary(h.config.OCR.TesseractBinary, "tesseract")
	pdftoppmStatus := h.checkBinary(h.config.OCR.PdftoppmBinary, "pdftoppm")
	databaseStatus := h.checkDatabase()
	storageStatus := h.checkStorage()

	translateProvider := "disabled"
	if h.translator.Enabled() {
		translateProvider = h.config.Translate.Provider
	}

	response := HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(startTime).String(),
		Memory: MemoryStats{
			Allocated: fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
			Total:     fmt.Sprintf("%.2f MB", float64(m.TotalAlloc)/1024/1024),
			System:    fmt.Sprintf("%.2f MB", float64(m.Sys)/1024/1024),
		},
		Tesseract: tesseractStatus,
		Pdftoppm:  pdftoppmStatus,
		Database:  databaseStatus,
		Storage:   storageStatus,
		Translate: map[string]string{
			"provider": translateProvider,
		},
	}

	if !tesseractStatus.Available || !pdftoppmStatus.Available {
		response.Status = "degraded"
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// checkBinary verifies an external OCR tool is executable
func (h *Handler) checkBinary(binary, fallback string) ServiceStatus {
	if binary == "" {
		binary = fallback
	}
	cmd := exec.Command(binary, "--version")
	output, err := cmd.CombinedOutput()

	if err != nil {
		return ServiceStatus{
			Available: false,
			Error:     fallback + " not found or not executable",
		}
	}

	version := "unknown"
	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		version = strings.TrimSpace(lines[0])
	}

	return ServiceStatus{
		Available: true,
		Version:   version,
	}
}

// checkDatabase verifies PostgreSQL connection
func (h *Handler) checkDatabase() ServiceStatus {
	if db.Pool == nil {
		return ServiceStatus{
			Available: false,
			Error:     "database pool not initialized",
		}
	}

	return ServiceStatus{
		Available: true,
		Version:   "PostgreSQL",
	}
}

// checkStorage verifies MinIO connection
func (h *Handler) checkStorage() ServiceStatus {
	if storage.Client == nil {
		return ServiceStatus{
			Available: false,
			Error:     "storage client not initialized",
		}
	}

	return ServiceStatus{
		Available: true,
		Version:   "MinIO S3",
	}
}

// ProcessExtraction runs the full pipeline on an uploaded document set:
// required PI plus optional Specification and MSDS.
func (h *Handler) ProcessExtraction(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	requestStart := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		h.sendError(w, http.StatusBadRequest, "files too large or invalid form data")
		return
	}

	piBytes, err := readFormFile(r, "pi")
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "PI document is required (use 'pi' field)")
		return
	}
	specBytes, _ := readFormFile(r, "specification")
	msdsBytes, _ := readFormFile(r, "msds")

	defaultPI, defaultMSDS, defaultSpec := h.config.Extraction.ForceOCRDefaults()
	input := pipeline.Input{
		PI:                    piBytes,
		MSDS:                  msdsBytes,
		Specification:         specBytes,
		ForceOCRPI:            parseForceFlag(r.FormValue("force_ocr_pi"), defaultPI),
		ForceOCRMSDS:          parseForceFlag(r.FormValue("force_ocr_msds"), defaultMSDS),
		ForceOCRSpecification: parseForceFlag(r.FormValue("force_ocr_specification"), defaultSpec),
	}

	data, extractionLog, err := h.orchestrator.Run(ctx, input)
	if err != nil {
		h.sendError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	validation := h.validator.Validate(&data)

	responseData := map[string]interface{}{
		"success":        true,
		"data":           data,
		"validation":     validation,
		"extraction_log": extractionLog,
		"duration":       time.Since(requestStart).Seconds(),
	}

	// Persist when a database is configured; extract-only mode just
	// returns the data.
	if db.Pool != nil {
		rec := &db.Record{
			InvoiceNo:     data.InvoiceNo,
			InvoiceDate:   data.InvoiceDate,
			ExporterName:  data.ExporterName,
			BuyerName:     data.BuyerName,
			Status:        db.StatusExtracted,
			Data:          data,
			ExtractionLog: extractionLog,
		}
		if claims, err := auth.GetClaimsFromContext(ctx); err == nil {
			if id, err := uuid.Parse(claims.OperatorID); err == nil {
				rec.OperatorID = id
			}
		}

		if err := db.SaveRecord(ctx, rec); err != nil {
			fmt.Printf("Warning: failed to save record: %v\n", err)
			responseData["saved_to_db"] = false
		} else {
			responseData["saved_to_db"] = true
			responseData["record_id"] = rec.ID

			if storage.Client != nil {
				h.storeSourceFiles(ctx, rec, piBytes, specBytes, msdsBytes)
			}
		}
	} else {
		responseData["saved_to_db"] = false
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(responseData)
}

// storeSourceFiles uploads the source PDFs and writes their paths back
// to the record. Storage failures are logged, never fatal.
func (h *Handler) storeSourceFiles(ctx context.Context, rec *db.Record, piBytes, specBytes, msdsBytes []byte) {
	updates := map[string]interface{}{}

	if url, err := storage.UploadSourcePDF(ctx, rec.ID.String(), "pi", piBytes); err == nil {
		updates["pi_url"] = url
	} else {
		fmt.Printf("Warning: failed to store PI: %v\n", err)
	}
	if len(specBytes) > 0 {
		if url, err := storage.UploadSourcePDF(ctx, rec.ID.String(), "specification", specBytes); err == nil {
			updates["specification_url"] = url
		} else {
			fmt.Printf("Warning: failed to store specification: %v\n", err)
		}
	}
	if len(msdsBytes) > 0 {
		if url, err := storage.UploadSourcePDF(ctx, rec.ID.String(), "msds", msdsBytes); err == nil {
			updates["msds_url"] = url
		} else {
			fmt.Printf("Warning: failed to store MSDS: %v\n", err)
		}
	}

	if len(updates) > 0 {
		if err := db.UpdateRecordFields(ctx, rec.ID.String(), updates); err != nil {
			fmt.Printf("Warning: failed to record source URLs: %v\n", err)
		}
	}
}

// readFormFile reads one uploaded file in full.
func readFormFile(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// parseForceFlag resolves a tri-state form value against the config
// default: empty keeps the default, anything else is a boolean.
func parseForceFlag(value string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return def
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}

// sendError sends an error response
func (h *Handler) sendError(w http.ResponseWriter, statusCode int, message string) {
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
