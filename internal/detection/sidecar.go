package detection

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"strings"
)

// SidecarSuffix is appended to an image path (minus extension) to find its detections.
const SidecarSuffix = ".detections.json"

// Sidecar is a serialized detector output for one image. Region boxes are in
// image coordinates, character boxes are relative to the selected code crop.
// A box may also be written as a raw detector row, see Box.UnmarshalJSON.
type Sidecar struct {
	Width   int   `json:"width,omitempty"   yaml:"width,omitempty"`
	Height  int   `json:"height,omitempty"  yaml:"height,omitempty"`
	Regions []Box `json:"regions"           yaml:"regions"`
	Chars   []Box `json:"chars,omitempty"   yaml:"chars,omitempty"`
}

// SidecarPath returns the detections file expected next to an image.
func SidecarPath(imagePath string) string {
	return SidecarPathWithSuffix(imagePath, SidecarSuffix)
}

// SidecarPathWithSuffix is SidecarPath with a custom suffix.
func SidecarPathWithSuffix(imagePath, suffix string) string {
	if i := strings.LastIndexByte(imagePath, '.'); i > strings.LastIndexAny(imagePath, `/\`) {
		return imagePath[:i] + suffix
	}
	return imagePath + suffix
}

// ParseSidecar decodes sidecar JSON and validates every box.
func ParseSidecar(data []byte) (Sidecar, error) {
	var sc Sidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		return Sidecar{}, fmt.Errorf("decode detections: %w", err)
	}
	for i, b := range sc.Regions {
		if !b.Class.IsRegion() {
			return Sidecar{}, fmt.Errorf("region %d has non-region class %s", i, b.Class)
		}
	}
	for i := range sc.Chars {
		sc.Chars[i].Class = ClassChar
	}
	if sc.Width > 0 && sc.Height > 0 {
		if err := ValidateBoxes(sc.Regions, sc.Width, sc.Height); err != nil {
			return Sidecar{}, err
		}
	}
	return sc, nil
}

// LoadSidecar reads and parses a detections file.
func LoadSidecar(path string) (Sidecar, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path derived from user-provided image path
	if err != nil {
		return Sidecar{}, fmt.Errorf("read detections: %w", err)
	}
	return ParseSidecar(data)
}

// MarshalSidecar encodes detections as indented JSON.
func MarshalSidecar(sc Sidecar) ([]byte, error) {
	return json.MarshalIndent(sc, "", "  ")
}

// SidecarDetector replays recorded detections. It satisfies both the region
// and the character detector roles for the image it was recorded on.
type SidecarDetector struct {
	sidecar Sidecar
}

// NewSidecarDetector wraps parsed detections.
func NewSidecarDetector(sc Sidecar) *SidecarDetector {
	return &SidecarDetector{sidecar: sc}
}

// DetectRegions returns the recorded region boxes after checking the image size matches.
func (d *SidecarDetector) DetectRegions(ctx context.Context, img image.Image) ([]Box, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.sidecar.Width > 0 && d.sidecar.Height > 0 {
		b := img.Bounds()
		if b.Dx() != d.sidecar.Width || b.Dy() != d.sidecar.Height {
			return nil, fmt.Errorf("detections recorded for %dx%d image, got %dx%d",
				d.sidecar.Width, d.sidecar.Height, b.Dx(), b.Dy())
		}
	}
	return append([]Box(nil), d.sidecar.Regions...), nil
}

// DetectChars returns the recorded character boxes.
func (d *SidecarDetector) DetectChars(ctx context.Context, _ image.Image) ([]Box, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]Box(nil), d.sidecar.Chars...), nil
}
