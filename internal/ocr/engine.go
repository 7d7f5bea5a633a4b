package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strings"
)

// Engine is the host OCR capability. It is injected into the text
// acquirer so tests can simulate both OCR-present and OCR-absent hosts.
type Engine interface {
	// Available reports whether the engine can run on this host.
	Available() bool
	// InstalledLanguages lists the language packs the engine can use.
	InstalledLanguages(ctx context.Context) []string
	// Recognize runs OCR over a rendered page image with a "+"-joined
	// language set, e.g. "eng+rus".
	Recognize(ctx context.Context, img image.Image, languages string) (string, error)
}

// TesseractEngine shells out to the tesseract binary, matching the
// deployment image where tesseract and its language packs are installed
// system-wide.
type TesseractEngine struct {
	binary string
}

// NewTesseractEngine creates a tesseract-backed engine.
func NewTesseractEngine(binary string) *TesseractEngine {
	if binary == "" {
		binary = "tesseract"
	}
	return &TesseractEngine{binary: binary}
}

// Available checks the binary on PATH. Queried per document, not
// cached, so a mid-run install/removal is picked up.
func (t *TesseractEngine) Available() bool {
	_, err := exec.LookPath(t.binary)
	return err == nil
}

// InstalledLanguages returns the language packs reported by
// "tesseract --list-langs". An empty slice means the query failed.
func (t *TesseractEngine) InstalledLanguages(ctx context.Context) []string {
	cmd := exec.CommandContext(ctx, t.binary, "--list-langs")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil
	}

	var langs []string
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		// First line is a header ("List of available languages ...").
		if line == "" || strings.Contains(line, " ") {
			continue
		}
		langs = append(langs, line)
	}
	return langs
}

// Recognize pipes a PNG through tesseract stdin/stdout.
// OEM 3 (default engine) + PSM 6 (uniform text block) matches how the
// sample invoices scan best.
func (t *TesseractEngine) Recognize(ctx context.Context, img image.Image, languages string) (string, error) {
	var input bytes.Buffer
	if err := png.Encode(&input, img); err != nil {
		return "", fmt.Errorf("failed to encode page image: %w", err)
	}

	cmd := exec.CommandContext(ctx, t.binary, "stdin", "stdout", "-l", languages, "--oem", "3", "--psm", "6")
	cmd.Stdin = &input

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed (%s): %w", strings.TrimSpace(stderr.String()), err)
	}
	return strings.TrimSpace(stdout.String()), nil
}
