// Package recognizer turns a code strip image into text candidates and
// cleans the recognized text.
package recognizer

import (
	"fmt"
	"log/slog"
	"sort"
)

// DefaultMinConfidence is the score a candidate must exceed to be kept.
const DefaultMinConfidence = 0.6

// Candidate is one line of recognized text.
type Candidate struct {
	Text       string  `json:"text"       yaml:"text"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s (%.3f)", c.Text, c.Confidence)
}

// FilterCandidates keeps candidates whose confidence is strictly above
// minConf, ordered by descending confidence.
func FilterCandidates(cands []Candidate, minConf float64, source string) []Candidate {
	kept := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Confidence > minConf {
			slog.Debug("Keeping recognized text", "recognizer", source, "text", c.Text,
				"chars", len(c.Text), "confidence", c.Confidence)
			kept = append(kept, c)
			continue
		}
		slog.Debug("Ignoring low-confidence text", "recognizer", source, "text", c.Text,
			"chars", len(c.Text), "confidence", c.Confidence)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Confidence > kept[j].Confidence })
	return kept
}

// Best returns the top candidate, or false when there is none.
func Best(cands []Candidate) (Candidate, bool) {
	if len(cands) == 0 {
		return Candidate{}, false
	}
	return cands[0], true
}
