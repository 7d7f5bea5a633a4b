package models

// Config represents the service configuration
type Config struct {
	// Server config
	Port int    `yaml:"port"`
	Host string `yaml:"host"`

	// OCR config
	OCR OCRConfig `yaml:"ocr"`

	// Extraction defaults
	Extraction ExtractionConfig `yaml:"extraction"`

	// Translation assist config
	Translate TranslateConfig `yaml:"translate"`
}

// OCRConfig represents OCR-specific configuration
type OCRConfig struct {
	TesseractBinary string `yaml:"tesseract_binary"` // default: "tesseract"
	PdftoppmBinary  string `yaml:"pdftoppm_binary"`  // default: "pdftoppm"
	Languages       string `yaml:"languages"`        // e.g. "eng+rus"
	FallbackLang    string `yaml:"fallback_language"`
	DPI             int    `yaml:"dpi"`              // render resolution, default 300
	MinNativeChars  int    `yaml:"min_native_chars"` // below this, a page is OCR'd
}

// ExtractionConfig holds per-document pipeline defaults.
type ExtractionConfig struct {
	ForceOCRPI            *bool `yaml:"force_ocr_pi"`
	ForceOCRMSDS          *bool `yaml:"force_ocr_msds"`
	ForceOCRSpecification *bool `yaml:"force_ocr_specification"`
}

// TranslateConfig configures the optional EN->RU assist provider.
type TranslateConfig struct {
	Provider string       `yaml:"provider"` // "openai", "gemini" or "" (disabled)
	OpenAI   OpenAIConfig `yaml:"openai"`
	Gemini   GeminiConfig `yaml:"gemini"`
}

// OpenAIConfig for OpenAI/Azure OpenAI
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"` // For custom endpoints
	Model   string `yaml:"model"`              // Default: "gpt-4o-mini"
}

// GeminiConfig for Google Gemini
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"` // Default: "gemini-1.5-flash"
}

// ForceOCRDefaults resolves the configured flags against the pipeline
// defaults (PI and MSDS forced, Specification not).
func (c ExtractionConfig) ForceOCRDefaults() (pi, msds, spec bool) {
	pi, msds, spec = true, true, false
	if c.ForceOCRPI != nil {
		pi = *c.ForceOCRPI
	}
	if c.ForceOCRMSDS != nil {
		msds = *c.ForceOCRMSDS
	}
	if c.ForceOCRSpecification != nil {
		spec = *c.ForceOCRSpecification
	}
	return pi, msds, spec
}
