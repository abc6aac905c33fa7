package pipeline

import (
	"context"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/cnread/internal/detection"
	"github.com/MeKo-Tech/cnread/internal/iso6346"
	"github.com/MeKo-Tech/cnread/internal/recognizer"
)

// RegionDetector finds CN, CN_ABC, CN_NUM and TS boxes on a photograph.
type RegionDetector interface {
	DetectRegions(ctx context.Context, img image.Image) ([]detection.Box, error)
}

// CharDetector finds per-character boxes on a selected code crop.
type CharDetector interface {
	DetectChars(ctx context.Context, img image.Image) ([]detection.Box, error)
}

// Recognizer reads a code strip into text candidates, best first.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) ([]recognizer.Candidate, error)
}

// Corrector merges the readings of two recognizers into one code. It
// returns iso6346.Sentinel when no confident code can be produced.
type Corrector interface {
	Correct(a, b string, lenA, lenB int) string
}

// ChecksumCorrector picks the first reading that normalises to an 11
// character code with a valid check digit.
type ChecksumCorrector struct {
	Clean recognizer.CleanOptions
}

// NewChecksumCorrector returns a corrector using the default text cleaning.
func NewChecksumCorrector() ChecksumCorrector {
	return ChecksumCorrector{Clean: recognizer.DefaultCleanOptions()}
}

// Correct returns a when it is a valid code, else b, else the sentinel.
// The lengths are those of the raw readings and are only logged.
func (c ChecksumCorrector) Correct(a, b string, lenA, lenB int) string {
	for _, raw := range []string{a, b} {
		code := recognizer.PostProcessText(raw, c.Clean)
		if len(code) != iso6346.CodeLength {
			continue
		}
		if err := iso6346.Validate(code); err == nil {
			return code
		}
	}
	slog.Debug("No reading passed the check digit", "a", a, "len_a", lenA, "b", b, "len_b", lenB)
	return iso6346.Sentinel
}
