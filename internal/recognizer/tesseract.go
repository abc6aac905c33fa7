//go:build tesseract

package recognizer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract recognizes code strips with libtesseract.
type Tesseract struct {
	cfg    TesseractConfig
	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseract creates a client configured for container codes.
func NewTesseract(cfg TesseractConfig) (*Tesseract, error) {
	client := gosseract.NewClient()
	if cfg.TessdataPrefix != "" {
		client.TessdataPrefix = cfg.TessdataPrefix
	}
	if cfg.Language != "" {
		if err := client.SetLanguage(cfg.Language); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("set language: %w", err)
		}
	}
	if cfg.Whitelist != "" {
		if err := client.SetWhitelist(cfg.Whitelist); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("set whitelist: %w", err)
		}
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(cfg.PageSegMode)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("set page segmentation mode: %w", err)
	}
	slog.Debug("Tesseract recognizer ready", "name", cfg.Name, "version", client.Version(),
		"psm", cfg.PageSegMode, "language", cfg.Language)
	return &Tesseract{cfg: cfg, client: client}, nil
}

// Name returns the configured instance name.
func (t *Tesseract) Name() string { return t.cfg.Name }

// Recognize reads every text line of img and returns them as candidates,
// the joined multi-line reading first. Confidence is scaled to [0,1].
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode strip: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("tesseract set image: %w", err)
	}
	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("tesseract recognize: %w", err)
	}
	lines := make([]lineResult, 0, len(boxes))
	for _, b := range boxes {
		lines = append(lines, lineResult{text: b.Word, confidence: b.Confidence / 100, top: b.Box.Min.Y})
	}
	return joinLines(lines), nil
}

// Close releases the Tesseract handle.
func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client.Close()
}
