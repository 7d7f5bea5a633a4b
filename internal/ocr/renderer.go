package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os/exec"
	"strconv"
)

// PageRenderer rasterizes a single PDF page for OCR.
type PageRenderer interface {
	Available() bool
	RenderPage(ctx context.Context, pdfPath string, pageNum int, dpi int) (image.Image, error)
}

// PdftoppmRenderer renders pages with poppler's pdftoppm, the same
// external-tool approach as the OCR engine itself.
type PdftoppmRenderer struct {
	binary string
}

// NewPdftoppmRenderer creates a pdftoppm-backed renderer.
func NewPdftoppmRenderer(binary string) *PdftoppmRenderer {
	if binary == "" {
		binary = "pdftoppm"
	}
	return &PdftoppmRenderer{binary: binary}
}

// Available checks the binary on PATH.
func (r *PdftoppmRenderer) Available() bool {
	_, err := exec.LookPath(r.binary)
	return err == nil
}

// RenderPage rasterizes one page (1-indexed) to a PNG on stdout and
// decodes it.
func (r *PdftoppmRenderer) RenderPage(ctx context.Context, pdfPath string, pageNum int, dpi int) (image.Image, error) {
	if dpi <= 0 {
		dpi = 300
	}
	page := strconv.Itoa(pageNum)

	// "-" as the output root sends the single page to stdout.
	cmd := exec.CommandContext(ctx, r.binary,
		"-png",
		"-r", strconv.Itoa(dpi),
		"-f", page,
		"-l", page,
		pdfPath,
		"-",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed for page %d: %w (%s)", pageNum, err, stderr.String())
	}

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to decode rendered page %d: %w", pageNum, err)
	}
	return img, nil
}
