// Package pipeline orchestrates the per-document extraction passes and
// the reconciliation of PI, Specification and MSDS into one record.
package pipeline

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/pharmadocs/pi-extraction-service/internal/extract"
	"github.com/pharmadocs/pi-extraction-service/internal/models"
	"github.com/pharmadocs/pi-extraction-service/internal/pdftext"
)

// previewLen bounds the diagnostic text preview per source.
const previewLen = 3000

// Acquirer is the page-text acquisition dependency.
type Acquirer interface {
	Extract(ctx context.Context, pdfBytes []byte, opts pdftext.Options) (models.TextBundle, error)
}

// Input carries the uploaded documents and their OCR flags. PI bytes
// are required; the handler rejects requests without them before the
// pipeline runs.
type Input struct {
	PI            []byte
	MSDS          []byte
	Specification []byte

	ForceOCRPI            bool
	ForceOCRMSDS          bool
	ForceOCRSpecification bool
}

// Orchestrator runs the extraction pipeline. It is stateless; every
// call is pure given its inputs apart from the host OCR probe inside
// the acquirer.
type Orchestrator struct {
	acquirer Acquirer
}

// New creates an orchestrator on top of the given acquirer.
func New(acquirer Acquirer) *Orchestrator {
	return &Orchestrator{acquirer: acquirer}
}

// Run processes the documents strictly sequentially: a native-first PI
// pass, an optional forced-OCR PI pass with candidate scoring, one
// pass each for Specification and MSDS, then the merge. The returned
// log is observational only.
func (o *Orchestrator) Run(ctx context.Context, in Input) (models.ExtractedData, models.ExtractionLog, error) {
	logs := models.ExtractionLog{}

	nativeBundle, err := o.acquirer.Extract(ctx, in.PI, pdftext.Options{})
	if err != nil {
		return models.ExtractedData{}, nil, fmt.Errorf("PI extraction failed: %w", err)
	}
	nativeData := extract.ParsePI(nativeBundle.Text)
	nativeScore := parseScore(nativeData)

	piData := nativeData
	piBundle := nativeBundle
	selectedSource := pdftext.SourceNative
	var ocrScore *int

	if in.ForceOCRPI {
		ocrBundle, err := o.acquirer.Extract(ctx, in.PI, pdftext.Options{ForceOCR: true, PreferOCR: true})
		if err == nil {
			ocrData := extract.ParsePI(ocrBundle.Text)
			score := parseScore(ocrData)
			ocrScore = &score
			// Ties keep the native parse.
			if score > nativeScore {
				piData = ocrData
				piBundle = ocrBundle
				selectedSource = pdftext.SourceOCR
			}
			logs["pi_ocr_candidate"] = models.SourceLog{
				Meta:        ocrBundle.Meta,
				TextPreview: preview(ocrBundle.Text),
			}
		} else {
			fmt.Printf("[Pipeline] forced-OCR PI pass failed: %v\n", err)
		}
	}

	logs["pi"] = models.SourceLog{
		SelectedSource: selectedSource,
		NativeScore:    &nativeScore,
		OCRScore:       ocrScore,
		Meta:           piBundle.Meta,
		TextPreview:    preview(piBundle.Text),
	}

	specData := models.Overlay{}
	if len(in.Specification) > 0 {
		bundle, err := o.acquirer.Extract(ctx, in.Specification, pdftext.Options{
			ForceOCR:  in.ForceOCRSpecification,
			PreferOCR: true,
		})
		if err != nil {
			fmt.Printf("[Pipeline] specification extraction failed: %v\n", err)
		} else {
			logs["specification"] = models.SourceLog{Meta: bundle.Meta, TextPreview: preview(bundle.Text)}
			specData = extract.ParseSpecification(bundle.Text)
		}
	}

	msdsData := models.Overlay{}
	if len(in.MSDS) > 0 {
		bundle, err := o.acquirer.Extract(ctx, in.MSDS, pdftext.Options{ForceOCR: in.ForceOCRMSDS})
		if err != nil {
			fmt.Printf("[Pipeline] MSDS extraction failed: %v\n", err)
		} else {
			logs["msds"] = models.SourceLog{Meta: bundle.Meta, TextPreview: preview(bundle.Text)}
			msdsData = extract.ParseMSDS(bundle.Text)
		}
	}

	merged := extract.Merge(piData, specData, msdsData)
	return merged, logs, nil
}

// preview truncates on a rune boundary: OCR'd Cyrillic is multibyte
// and a byte-offset cut would leave invalid UTF-8 in the log.
func preview(text string) string {
	if len(text) <= previewLen {
		return text
	}
	cut := previewLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
