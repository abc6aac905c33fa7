package charseq

import (
	"image"
	"log/slog"

	"github.com/MeKo-Tech/cnread/internal/detection"
	"github.com/MeKo-Tech/cnread/internal/utils"
)

// Result is the output of the character stage for one code crop.
type Result struct {
	// Image is the reassembled strip, or the untouched crop when no
	// reassembly happened.
	Image image.Image
	// Orientation of the input crop.
	Orientation utils.Orientation
	Reassembled bool
	Decision    Decision
	// Kept is the number of boxes that passed the confidence filter.
	Kept int
}

// Stage runs the character trigger and reassembly.
type Stage struct {
	Policy      Policy
	Reassembler Reassembler
}

// NewStage builds a Stage with default thresholds and margins.
func NewStage() Stage {
	return Stage{Policy: DefaultPolicy(), Reassembler: DefaultReassembler()}
}

// Process filters the character boxes detected on crop, decides whether to
// reassemble and returns either the rebuilt strip or the original crop.
func (s Stage) Process(crop image.Image, chars []detection.Box) (Result, error) {
	o := utils.ImageOrientation(crop)
	kept := detection.FilterByConfidence(chars, s.Policy.MinConfidence)
	if removed := len(chars) - len(kept); removed > 0 {
		slog.Debug("Char boxes removed below confidence", "removed", removed, "threshold", s.Policy.MinConfidence)
	}

	res := Result{Image: crop, Orientation: o, Kept: len(kept)}
	res.Decision = s.Policy.Decide(o, len(kept))
	switch res.Decision {
	case Reassemble:
		ordered := SortReadingOrder(kept, o)
		strip, err := s.Reassembler.Reassemble(crop, o, ordered)
		if err != nil {
			return Result{}, err
		}
		res.Image = strip
		res.Reassembled = true
	case Ambiguous:
		slog.Debug("More char boxes than code characters on horizontal crop, keeping original",
			"boxes", len(kept))
	case TooFew:
		slog.Debug("Too few char boxes, keeping original crop", "boxes", len(kept),
			"orientation", o.String())
	}
	return res, nil
}
