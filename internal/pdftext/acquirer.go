package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/pharmadocs/pi-extraction-service/internal/models"
	"github.com/pharmadocs/pi-extraction-service/internal/ocr"
)

const (
	// SourceNative tags a page whose embedded text layer was kept.
	SourceNative = "native"
	// SourceOCR tags a page whose OCR rendering won.
	SourceOCR = "ocr"

	defaultMinNativeChars = 60
	defaultDPI            = 300
	defaultLanguages      = "eng+rus"
	defaultFallbackLang   = "eng"

	// preferredLeniency lets OCR win at 80% of the native score when
	// OCR was preferred (but not forced) for the document.
	preferredLeniency = 0.8
)

// Acquirer chooses, page by page, between a PDF's embedded text layer
// and an OCR rendering of the page. The OCR engine and renderer are
// injected so hosts without them degrade to native text.
type Acquirer struct {
	engine         ocr.Engine
	renderer       ocr.PageRenderer
	pre            *ocr.Preprocessor
	languages      string
	fallbackLang   string
	dpi            int
	minNativeChars int
}

// Options control the OCR decision for one document.
type Options struct {
	// ForceOCR runs OCR on every page and keeps its output.
	ForceOCR bool
	// PreferOCR runs OCR on every page and keeps its output unless it
	// scores clearly worse than the native text.
	PreferOCR bool
}

// NewAcquirer builds an acquirer from the OCR config.
func NewAcquirer(engine ocr.Engine, renderer ocr.PageRenderer, cfg models.OCRConfig) *Acquirer {
	a := &Acquirer{
		engine:         engine,
		renderer:       renderer,
		pre:            ocr.NewPreprocessor(),
		languages:      cfg.Languages,
		fallbackLang:   cfg.FallbackLang,
		dpi:            cfg.DPI,
		minNativeChars: cfg.MinNativeChars,
	}
	if a.languages == "" {
		a.languages = defaultLanguages
	}
	if a.fallbackLang == "" {
		a.fallbackLang = defaultFallbackLang
	}
	if a.dpi <= 0 {
		a.dpi = defaultDPI
	}
	if a.minNativeChars <= 0 {
		a.minNativeChars = defaultMinNativeChars
	}
	return a
}

// Extract produces the document text (pages joined by a blank line)
// plus per-page provenance. It only errors when the bytes are not a
// readable PDF at all; OCR problems degrade to native text.
func (a *Acquirer) Extract(ctx context.Context, pdfBytes []byte, opts Options) (models.TextBundle, error) {
	nativePages, nativeErr := extractNativePages(pdfBytes)

	pageCount := len(nativePages)
	if n, err := api.PageCount(bytes.NewReader(pdfBytes), nil); err == nil && n > pageCount {
		pageCount = n
	}
	if pageCount == 0 {
		if nativeErr != nil {
			return models.TextBundle{}, fmt.Errorf("unreadable PDF: %w", nativeErr)
		}
		return models.TextBundle{}, fmt.Errorf("PDF has no pages")
	}
	for len(nativePages) < pageCount {
		nativePages = append(nativePages, "")
	}

	ocrReady := a.engine.Available() && a.renderer.Available()
	meta := models.ExtractionMeta{
		OCRAvailable:  ocrReady,
		PagesTotal:    pageCount,
		PerPageSource: make([]string, 0, pageCount),
	}

	var tmpPath string
	if ocrReady {
		tmp, err := os.CreateTemp("", "pi-extract-*.pdf")
		if err == nil {
			tmpPath = tmp.Name()
			if _, err := tmp.Write(pdfBytes); err != nil {
				tmpPath = ""
			}
			tmp.Close()
			defer os.Remove(tmp.Name())
		}
		if tmpPath == "" {
			ocrReady = false
			meta.OCRAvailable = false
		}
	}

	languages := a.resolveLanguages(ctx)

	outputPages := make([]string, 0, pageCount)
	for idx, nativeText := range nativePages {
		shouldOCR := opts.ForceOCR || opts.PreferOCR || len(nativeText) < a.minNativeChars
		if !shouldOCR || !ocrReady {
			outputPages = append(outputPages, nativeText)
			meta.PerPageSource = append(meta.PerPageSource, SourceNative)
			continue
		}

		ocrText := normalizeOCRNoise(a.recognizePage(ctx, tmpPath, idx+1, languages))
		if ocrText == "" {
			// Render/recognition failure or a blank page: the native
			// layer is kept even under a force flag.
			outputPages = append(outputPages, nativeText)
			meta.PerPageSource = append(meta.PerPageSource, SourceNative)
			continue
		}

		nativeScore := qualityScore(nativeText)
		ocrScore := qualityScore(ocrText)

		// OCR wins when forced, when there is no native text to keep,
		// or when it looks structurally at least as good.
		selectOCR := opts.ForceOCR ||
			nativeText == "" ||
			(opts.PreferOCR && float64(ocrScore) >= preferredLeniency*float64(nativeScore)) ||
			ocrScore >= nativeScore

		if selectOCR {
			outputPages = append(outputPages, ocrText)
			meta.PerPageSource = append(meta.PerPageSource, SourceOCR)
			meta.PagesOCRd++
		} else {
			outputPages = append(outputPages, nativeText)
			meta.PerPageSource = append(meta.PerPageSource, SourceNative)
		}
	}

	text := strings.TrimSpace(strings.Join(outputPages, "\n\n"))
	return models.TextBundle{Text: text, Meta: meta}, nil
}

// recognizePage renders and OCRs one page. Failures retry once with
// the single fallback language, then resolve to empty text.
func (a *Acquirer) recognizePage(ctx context.Context, pdfPath string, pageNum int, languages string) string {
	img, err := a.renderer.RenderPage(ctx, pdfPath, pageNum, a.dpi)
	if err != nil {
		fmt.Printf("[Acquirer] render failed for page %d: %v\n", pageNum, err)
		return ""
	}
	prepared := a.pre.Prepare(img)

	text, err := a.engine.Recognize(ctx, prepared, languages)
	if err != nil && languages != a.fallbackLang {
		text, err = a.engine.Recognize(ctx, prepared, a.fallbackLang)
	}
	if err != nil {
		fmt.Printf("[Acquirer] OCR failed for page %d: %v\n", pageNum, err)
		return ""
	}
	return strings.TrimSpace(text)
}

// resolveLanguages filters the configured language set against the
// packs actually installed, falling back to the single default.
func (a *Acquirer) resolveLanguages(ctx context.Context) string {
	requested := strings.Split(a.languages, "+")
	installed := a.engine.InstalledLanguages(ctx)
	if len(installed) == 0 {
		return a.fallbackLang
	}

	available := make(map[string]bool, len(installed))
	for _, lang := range installed {
		available[lang] = true
	}

	var allowed []string
	for _, lang := range requested {
		lang = strings.TrimSpace(lang)
		if lang != "" && available[lang] {
			allowed = append(allowed, lang)
		}
	}
	if len(allowed) == 0 {
		return a.fallbackLang
	}
	return strings.Join(allowed, "+")
}

// extractNativePages reads each page's embedded text layer.
func extractNativePages(pdfBytes []byte) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(pdfBytes), int64(len(pdfBytes)))
	if err != nil {
		return nil, err
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, strings.TrimSpace(text))
	}
	return pages, nil
}

var (
	// The identity pair consumes an already-correct "(In INR)" so the
	// expansion below only fires on the truncated form.
	ocrNoiseReplacer = strings.NewReplacer(
		"â€™", "'",
		"(In INR)", "(In INR)",
		"INR)", "(In INR)",
	)
	spaceRunRe = regexp.MustCompile(`[ \t]{2,}`)
)

// normalizeOCRNoise fixes recurring OCR confusions around the rupee
// marker and smart quotes, and collapses space runs. Newlines are kept
// because the extractors parse line by line.
func normalizeOCRNoise(text string) string {
	text = ocrNoiseReplacer.Replace(text)
	return spaceRunRe.ReplaceAllString(text, " ")
}
