//go:build !tesseract

package recognizer

import (
	"context"
	"image"
)

// Tesseract is unavailable in this build.
type Tesseract struct {
	cfg TesseractConfig
}

// NewTesseract reports ErrNoBackend unless built with -tags=tesseract.
func NewTesseract(cfg TesseractConfig) (*Tesseract, error) {
	return nil, ErrNoBackend
}

// Name returns the configured instance name.
func (t *Tesseract) Name() string { return t.cfg.Name }

// Recognize always fails with ErrNoBackend.
func (t *Tesseract) Recognize(_ context.Context, _ image.Image) ([]Candidate, error) {
	return nil, ErrNoBackend
}

// Close is a no-op.
func (t *Tesseract) Close() error { return nil }
