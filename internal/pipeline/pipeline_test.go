package pipeline

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmadocs/pi-extraction-service/internal/models"
	"github.com/pharmadocs/pi-extraction-service/internal/pdftext"
	"github.com/pharmadocs/pi-extraction-service/internal/temperature"
)

// fakeAcquirer scripts the text returned per document, keyed by the
// raw "PDF" bytes, with separate native and forced-OCR variants.
type fakeAcquirer struct {
	native map[string]string
	ocr    map[string]string
}

func (f *fakeAcquirer) Extract(ctx context.Context, pdfBytes []byte, opts pdftext.Options) (models.TextBundle, error) {
	key := string(pdfBytes)
	text := f.native[key]
	source := pdftext.SourceNative
	if opts.ForceOCR {
		text = f.ocr[key]
		source = pdftext.SourceOCR
	}
	return models.TextBundle{
		Text: text,
		Meta: models.ExtractionMeta{
			OCRAvailable:  true,
			PagesTotal:    1,
			PerPageSource: []string{source},
		},
	}, nil
}

const richPI = `Invoice No & Date
ABC/E/25-26/1234 26-Feb-26
Consignee:
OOO PharmImport
Moscow, Russia
Terms of Delivery
CPT BY AIR MOSCOW INCOTERMS 2020
Description of Goods
AMOXICILLIN CAPSULES 500 mg / capsule
ABC-123 100 25.00 2,500.00
Amount in words: (In USD)`

func TestRunSelectsBetterOCRCandidate(t *testing.T) {
	acq := &fakeAcquirer{
		native: map[string]string{"pi": "Invoice No: INV-1"},
		ocr:    map[string]string{"pi": richPI},
	}

	data, logs, err := New(acq).Run(context.Background(), Input{
		PI:         []byte("pi"),
		ForceOCRPI: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "ABC/E/25-26/1234", data.InvoiceNo)

	piLog, ok := logs["pi"]
	require.True(t, ok)
	assert.Equal(t, pdftext.SourceOCR, piLog.SelectedSource)
	require.NotNil(t, piLog.NativeScore)
	require.NotNil(t, piLog.OCRScore)
	assert.Greater(t, *piLog.OCRScore, *piLog.NativeScore)

	_, ok = logs["pi_ocr_candidate"]
	assert.True(t, ok)
}

// Identical parse quality keeps the native text.
func TestRunTiesKeepNative(t *testing.T) {
	acq := &fakeAcquirer{
		native: map[string]string{"pi": richPI},
		ocr:    map[string]string{"pi": richPI},
	}

	_, logs, err := New(acq).Run(context.Background(), Input{
		PI:         []byte("pi"),
		ForceOCRPI: true,
	})
	require.NoError(t, err)
	assert.Equal(t, pdftext.SourceNative, logs["pi"].SelectedSource)
}

func TestRunWithoutForcedOCR(t *testing.T) {
	acq := &fakeAcquirer{
		native: map[string]string{"pi": richPI},
	}

	data, logs, err := New(acq).Run(context.Background(), Input{PI: []byte("pi")})
	require.NoError(t, err)

	assert.Equal(t, "ABC/E/25-26/1234", data.InvoiceNo)
	assert.Equal(t, pdftext.SourceNative, logs["pi"].SelectedSource)
	assert.Nil(t, logs["pi"].OCRScore)
	assert.NotContains(t, logs, "pi_ocr_candidate")
	assert.NotContains(t, logs, "specification")
	assert.NotContains(t, logs, "msds")
}

func TestRunAppliesOverlays(t *testing.T) {
	acq := &fakeAcquirer{
		native: map[string]string{
			"pi":   richPI,
			"spec": "Terms of Delivery: CIF Moscow\nPeriod of Validity: 180 days",
			"msds": "Storage: keep at 2-8°C",
		},
	}

	data, logs, err := New(acq).Run(context.Background(), Input{
		PI:            []byte("pi"),
		Specification: []byte("spec"),
		MSDS:          []byte("msds"),
	})
	require.NoError(t, err)

	assert.Equal(t, "CIF MOSCOW", data.TermsOfDelivery)
	assert.Equal(t, "180 days", data.PeriodOfValidity)
	assert.Equal(t, "+2C to +8C", data.StorageTemperature)
	assert.Contains(t, logs, "specification")
	assert.Contains(t, logs, "msds")

	require.NotEmpty(t, data.Positions)
	assert.Equal(t, "+2C to +8C", data.Positions[0].StorageTemperature)
}

func TestPreviewCutsOnRuneBoundary(t *testing.T) {
	// One ASCII byte shifts every two-byte Cyrillic rune so the byte
	// offset previewLen lands mid-rune.
	long := "a" + strings.Repeat("Ш", previewLen)

	got := preview(long)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, previewLen-1, len(got))

	short := strings.Repeat("Ш", 10)
	assert.Equal(t, short, preview(short))
}

func TestRunDefaultsStorageToAmbient(t *testing.T) {
	acq := &fakeAcquirer{
		native: map[string]string{"pi": richPI},
	}

	data, _, err := New(acq).Run(context.Background(), Input{PI: []byte("pi")})
	require.NoError(t, err)
	assert.Equal(t, temperature.DefaultAmbient, data.StorageTemperature)
}
