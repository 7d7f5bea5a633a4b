package docbuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmadocs/pi-extraction-service/internal/models"
)

// tokenTemplate builds a small .docx carrying placeholder tokens, the
// same shape an operator-supplied template has.
func tokenTemplate(t *testing.T, lines ...string) []byte {
	t.Helper()
	w := &docWriter{}
	for _, line := range lines {
		w.paragraph(line, false, false)
	}
	content, err := w.bytes()
	require.NoError(t, err)
	return content
}

func TestFillTemplate(t *testing.T) {
	template := tokenTemplate(t,
		"Invoice: {{INVOICE_NO}}",
		"Buyer: {{BUYER_NAME}}",
	)

	filled, substituted, err := FillTemplate(template, map[string]string{
		"INVOICE_NO": "ABC/E/25-26/1234",
		"BUYER_NAME": "OOO PharmImport",
		"UNUSED":     "never appears",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, substituted)

	document := string(readZipEntry(t, filled, "word/document.xml"))
	assert.Contains(t, document, "ABC/E/25-26/1234")
	assert.Contains(t, document, "OOO PharmImport")
	assert.NotContains(t, document, "{{INVOICE_NO}}")
}

func TestFillTemplateStripsUnresolvedTokens(t *testing.T) {
	template := tokenTemplate(t,
		"Invoice: {{INVOICE_NO}}",
		"Validity: {{PERIOD_OF_VALIDITY}}",
	)

	filled, substituted, err := FillTemplate(template, map[string]string{
		"INVOICE_NO": "ABC/E/25-26/1234",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, substituted)

	document := string(readZipEntry(t, filled, "word/document.xml"))
	assert.NotContains(t, document, "{{PERIOD_OF_VALIDITY}}")
}

func TestFillTemplateNoKnownTokens(t *testing.T) {
	template := tokenTemplate(t, "A static letterhead with no placeholders")

	_, substituted, err := FillTemplate(template, map[string]string{
		"INVOICE_NO": "ABC/E/25-26/1234",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, substituted)
}

func TestFillTemplateRejectsGarbage(t *testing.T) {
	_, _, err := FillTemplate([]byte("not a zip archive"), map[string]string{})
	assert.Error(t, err)
}

func TestBuildPriceListPrefersTemplate(t *testing.T) {
	template := tokenTemplate(t, "PRICE LIST for {{BUYER_NAME}}: {{POSITION_1_NAME_EN}}")

	content, err := BuildPriceList(sampleData(), models.CompanyProfile{}, template)
	require.NoError(t, err)

	document := string(readZipEntry(t, content, "word/document.xml"))
	assert.Contains(t, document, "OOO PharmImport")
	assert.Contains(t, document, "AMOXICILLIN CAPSULES")
}
