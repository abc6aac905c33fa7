// Package detection holds the boxes produced by the region and character
// detectors together with confidence filtering and ordering helpers.
package detection

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/MeKo-Tech/cnread/internal/utils"
)

// ErrDegenerateBox is returned for boxes with zero or negative extent.
var ErrDegenerateBox = errors.New("degenerate box")

// Box is a single detection in pixel coordinates of the image it was detected on.
type Box struct {
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
	Confidence float64 `json:"confidence"`
	Class      Class   `json:"class"`
}

// FromRow builds a Box from a detector output row [x1, y1, x2, y2, conf, class].
func FromRow(row []float64) (Box, error) {
	if len(row) != 6 {
		return Box{}, fmt.Errorf("detection row needs 6 values, got %d", len(row))
	}
	c := Class(int(row[5]))
	if !c.Valid() {
		return Box{}, fmt.Errorf("unknown class id %v", row[5])
	}
	return Box{X1: row[0], Y1: row[1], X2: row[2], Y2: row[3], Confidence: row[4], Class: c}, nil
}

// UnmarshalJSON accepts either the object form or a detector output row
// [x1, y1, x2, y2, conf, class].
func (b *Box) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var row []float64
		if err := json.Unmarshal(trimmed, &row); err != nil {
			return fmt.Errorf("decode detection row: %w", err)
		}
		box, err := FromRow(row)
		if err != nil {
			return err
		}
		*b = box
		return nil
	}

	type plain Box
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*b = Box(p)
	return nil
}

// Validate reports ErrDegenerateBox unless X2 > X1 and Y2 > Y1.
func (b Box) Validate() error {
	if b.X2 <= b.X1 || b.Y2 <= b.Y1 {
		return fmt.Errorf("%w: %s (%.1f,%.1f)-(%.1f,%.1f)", ErrDegenerateBox, b.Class, b.X1, b.Y1, b.X2, b.Y2)
	}
	return nil
}

// Rect returns the geometric extent of the box.
func (b Box) Rect() utils.Box {
	return utils.Box{MinX: b.X1, MinY: b.Y1, MaxX: b.X2, MaxY: b.Y2}
}

// Width returns the box width.
func (b Box) Width() float64 { return b.X2 - b.X1 }

// Height returns the box height.
func (b Box) Height() float64 { return b.Y2 - b.Y1 }

// FilterByConfidence returns the boxes whose confidence is at least minConf,
// logging each decision at debug level.
func FilterByConfidence(boxes []Box, minConf float64) []Box {
	kept := make([]Box, 0, len(boxes))
	for _, b := range boxes {
		if b.Confidence < minConf {
			slog.Debug("Ignoring box below confidence threshold",
				"class", b.Class.String(), "confidence", b.Confidence, "threshold", minConf)
			continue
		}
		slog.Debug("Keeping box", "class", b.Class.String(), "confidence", b.Confidence, "threshold", minConf)
		kept = append(kept, b)
	}
	return kept
}

// SortByConfidence returns a copy ordered by descending confidence.
// Equal confidences keep detection order.
func SortByConfidence(boxes []Box) []Box {
	out := append([]Box(nil), boxes...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

// CountByClass tallies boxes per class.
func CountByClass(boxes []Box) map[Class]int {
	counts := make(map[Class]int, len(Classes))
	for _, b := range boxes {
		counts[b.Class]++
	}
	return counts
}

// ValidateBoxes performs basic sanity checks against image dimensions.
func ValidateBoxes(boxes []Box, width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.New("invalid image dimensions for validation")
	}
	for i, b := range boxes {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("box %d: %w", i, err)
		}
		if !b.Rect().Fits(width, height) {
			return fmt.Errorf("box %d out of bounds for %dx%d image", i, width, height)
		}
	}
	return nil
}
