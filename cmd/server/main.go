package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pharmadocs/pi-extraction-service/api"
	"github.com/pharmadocs/pi-extraction-service/internal/auth"
	"github.com/pharmadocs/pi-extraction-service/internal/db"
	"github.com/pharmadocs/pi-extraction-service/internal/models"
	"github.com/pharmadocs/pi-extraction-service/internal/ocr"
	"github.com/pharmadocs/pi-extraction-service/internal/pdftext"
	"github.com/pharmadocs/pi-extraction-service/internal/pipeline"
	"github.com/pharmadocs/pi-extraction-service/internal/storage"
	"github.com/pharmadocs/pi-extraction-service/internal/translate"
)

func main() {
	// Initialize JWT
	if err := auth.Init(); err != nil {
		log.Printf("Warning: %v - all endpoints are open", err)
	} else {
		log.Println("JWT authentication initialized")
	}

	// Initialize database connection pool
	if err := db.Init(); err != nil {
		log.Printf("Warning: Database not available: %v", err)
		log.Println("Running in extract-only mode (no persistence)")
	} else {
		defer db.Close()
		log.Println("Database connection pool initialized")
	}

	// Initialize MinIO storage
	if err := storage.Init(); err != nil {
		log.Printf("Warning: MinIO storage not available: %v", err)
		log.Println("Source and generated documents will not be stored")
	} else {
		log.Println("MinIO storage initialized")
	}

	// Load configuration
	config, err := loadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Wire the extraction pipeline
	engine := ocr.NewTesseractEngine(config.OCR.TesseractBinary)
	renderer := ocr.NewPdftoppmRenderer(config.OCR.PdftoppmBinary)
	acquirer := pdftext.NewAcquirer(engine, renderer, config.OCR)
	orchestrator := pipeline.New(acquirer)

	provider, err := translate.NewProvider(config.Translate)
	if err != nil {
		log.Fatalf("Failed to configure translate provider: %v", err)
	}
	translator := translate.NewTranslator(provider)

	// Create API handler
	handler := api.NewHandler(config, orchestrator, translator)
	router := handler.SetupRoutes()

	// Add login endpoint
	router.HandleFunc("/api/login", auth.LoginHandler).Methods("POST")

	// Wrap router with JWT middleware (skips /health and /api/login)
	protectedRouter := auth.JWTMiddleware(router)

	// Start server
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	log.Printf("Starting PI Extraction Service v%s on %s", api.Version, addr)
	log.Printf("OCR: tesseract=%v pdftoppm=%v languages=%s", engine.Available(), renderer.Available(), config.OCR.Languages)
	log.Printf("Translate provider: %s", orEmpty(config.Translate.Provider, "disabled"))
	log.Printf("Database: %v", db.Pool != nil)
	log.Printf("Storage: %v", storage.Client != nil)
	log.Printf("Endpoints:")
	log.Printf("  POST http://%s/api/login                    - Authenticate", addr)
	log.Printf("  POST http://%s/api/extract                  - Extract documents (requires JWT)", addr)
	log.Printf("  GET  http://%s/api/records                  - List records (requires JWT)", addr)
	log.Printf("  GET  http://%s/api/record/{id}              - Get single record (requires JWT)", addr)
	log.Printf("  PUT  http://%s/api/record/{id}              - Update reviewed record (requires JWT)", addr)
	log.Printf("  DELETE http://%s/api/record/{id}            - Delete record (requires JWT)", addr)
	log.Printf("  POST http://%s/api/record/{id}/documents    - Generate price list + labels (requires JWT)", addr)
	log.Printf("  GET  http://%s/api/record/{id}/export       - Export record as xlsx (requires JWT)", addr)
	log.Printf("  POST http://%s/api/record/{id}/translate    - Fill RU fields via AI (requires JWT)", addr)
	log.Printf("  GET  http://%s/health                       - Health check", addr)

	if err := http.ListenAndServe(addr, protectedRouter); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func loadConfig(path string) (*models.Config, error) {
	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var config models.Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables if present
	if port := os.Getenv("PORT"); port != "" {
		fmt.Sscanf(port, "%d", &config.Port)
	}
	if host := os.Getenv("HOST"); host != "" {
		config.Host = host
	}
	if languages := os.Getenv("OCR_LANGUAGES"); languages != "" {
		config.OCR.Languages = languages
	}
	if provider := os.Getenv("TRANSLATE_PROVIDER"); provider != "" {
		config.Translate.Provider = provider
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.Translate.OpenAI.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.Translate.OpenAI.BaseURL = baseURL
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		config.Translate.OpenAI.Model = model
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Translate.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		config.Translate.Gemini.Model = model
	}

	return &config, nil
}

func orEmpty(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
