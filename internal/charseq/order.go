// Package charseq turns per-character detections inside a code crop into a
// single horizontal strip suitable for line recognition.
package charseq

import (
	"sort"

	"github.com/MeKo-Tech/cnread/internal/detection"
	"github.com/MeKo-Tech/cnread/internal/utils"
)

// SortReadingOrder orders boxes top-to-bottom for vertical text and
// left-to-right for horizontal text. Ties keep their detection order.
// The input slice is not modified.
func SortReadingOrder(boxes []detection.Box, o utils.Orientation) []detection.Box {
	out := append([]detection.Box(nil), boxes...)
	if o == utils.Vertical {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Y1 < out[j].Y1 })
	} else {
		sort.SliceStable(out, func(i, j int) bool { return out[i].X1 < out[j].X1 })
	}
	return out
}
