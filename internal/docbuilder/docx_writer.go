package docbuilder

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// docWriter assembles a minimal WordprocessingML document. The built-in
// layouts only need paragraphs, grid tables and page breaks, which is
// far below the threshold where a full OOXML dependency would pay off.
type docWriter struct {
	body strings.Builder
}

const defaultFont = "Times New Roman"

func escapeXML(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// run renders one text run; multi-line strings become soft breaks.
func run(text string, bold bool) string {
	var props strings.Builder
	props.WriteString(`<w:rPr><w:rFonts w:ascii="` + defaultFont + `" w:hAnsi="` + defaultFont + `"/><w:sz w:val="24"/>`)
	if bold {
		props.WriteString("<w:b/>")
	}
	props.WriteString("</w:rPr>")

	var b strings.Builder
	b.WriteString("<w:r>")
	b.WriteString(props.String())
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			b.WriteString("<w:br/>")
		}
		b.WriteString(`<w:t xml:space="preserve">` + escapeXML(line) + `</w:t>`)
	}
	b.WriteString("</w:r>")
	return b.String()
}

func (w *docWriter) paragraph(text string, bold, center bool) {
	w.body.WriteString("<w:p>")
	if center {
		w.body.WriteString(`<w:pPr><w:jc w:val="center"/></w:pPr>`)
	}
	if text != "" {
		w.body.WriteString(run(text, bold))
	}
	w.body.WriteString("</w:p>")
}

// keyValue writes "Key: value" with the key bold, "-" for empties.
func (w *docWriter) keyValue(key, value string) {
	if value == "" {
		value = "-"
	}
	w.body.WriteString("<w:p>")
	w.body.WriteString(run(key+": ", true))
	w.body.WriteString(run(value, false))
	w.body.WriteString("</w:p>")
}

// table writes a bordered grid. An empty headers slice skips the
// header row.
func (w *docWriter) table(headers []string, rows [][]string) {
	w.body.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="0" w:type="auto"/><w:tblBorders>` +
		`<w:top w:val="single" w:sz="4" w:space="0" w:color="000000"/>` +
		`<w:left w:val="single" w:sz="4" w:space="0" w:color="000000"/>` +
		`<w:bottom w:val="single" w:sz="4" w:space="0" w:color="000000"/>` +
		`<w:right w:val="single" w:sz="4" w:space="0" w:color="000000"/>` +
		`<w:insideH w:val="single" w:sz="4" w:space="0" w:color="000000"/>` +
		`<w:insideV w:val="single" w:sz="4" w:space="0" w:color="000000"/>` +
		`</w:tblBorders></w:tblPr>`)

	if len(headers) > 0 {
		w.body.WriteString("<w:tr>")
		for _, h := range headers {
			w.cell(h, true, false)
		}
		w.body.WriteString("</w:tr>")
	}
	for _, row := range rows {
		w.body.WriteString("<w:tr>")
		for _, c := range row {
			w.cell(c, false, false)
		}
		w.body.WriteString("</w:tr>")
	}
	w.body.WriteString("</w:tbl>")
	// Word requires a paragraph after a table.
	w.paragraph("", false, false)
}

// centeredTable writes a grid of single-cell rows with centered text,
// used by the label layout.
func (w *docWriter) centeredTable(rows []string, boldFirst bool) {
	w.body.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="5000" w:type="pct"/><w:tblBorders>` +
		`<w:top w:val="single" w:sz="4" w:space="0" w:color="000000"/>` +
		`<w:left w:val="single" w:sz="4" w:space="0" w:color="000000"/>` +
		`<w:bottom w:val="single" w:sz="4" w:space="0" w:color="000000"/>` +
		`<w:right w:val="single" w:sz="4" w:space="0" w:color="000000"/>` +
		`<w:insideH w:val="single" w:sz="4" w:space="0" w:color="000000"/>` +
		`<w:insideV w:val="single" w:sz="4" w:space="0" w:color="000000"/>` +
		`</w:tblBorders></w:tblPr>`)
	for i, text := range rows {
		w.body.WriteString("<w:tr>")
		w.cell(text, boldFirst && i == 0, true)
		w.body.WriteString("</w:tr>")
	}
	w.body.WriteString("</w:tbl>")
	w.paragraph("", false, false)
}

func (w *docWriter) cell(text string, bold, center bool) {
	w.body.WriteString("<w:tc><w:tcPr><w:tcW w:w=\"0\" w:type=\"auto\"/></w:tcPr><w:p>")
	if center {
		w.body.WriteString(`<w:pPr><w:jc w:val="center"/></w:pPr>`)
	}
	if text != "" {
		w.body.WriteString(run(text, bold))
	}
	w.body.WriteString("</w:p></w:tc>")
}

func (w *docWriter) pageBreak() {
	w.body.WriteString(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
</Relationships>`

// bytes assembles the .docx container.
func (w *docWriter) bytes() ([]byte, error) {
	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		"<w:body>" + w.body.String() + "</w:body></w:document>"

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct{ name, content string }{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/_rels/document.xml.rels", documentRelsXML},
		{"word/document.xml", document},
	}
	for _, part := range parts {
		f, err := zw.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", part.name, err)
		}
		if _, err := f.Write([]byte(part.content)); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
