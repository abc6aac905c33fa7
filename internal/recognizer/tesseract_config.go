package recognizer

import (
	"errors"
	"sort"
	"strings"
)

// ErrNoBackend is returned when the binary was built without Tesseract support.
var ErrNoBackend = errors.New("recognizer: no OCR backend linked; build with -tags=tesseract")

// CodeAlphabet is the set of characters that can appear in a container code.
const CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// TesseractConfig configures one Tesseract recognizer instance.
type TesseractConfig struct {
	// Name identifies the instance in logs, e.g. "primary".
	Name string
	// Language is the tessdata language, "eng" by default.
	Language string
	// PageSegMode is the Tesseract page segmentation mode (7 = single line).
	PageSegMode int
	// Whitelist restricts recognized characters.
	Whitelist string
	// TessdataPrefix overrides the tessdata directory when set.
	TessdataPrefix string
}

// DefaultTesseractConfig returns a single-line recognizer restricted to code characters.
func DefaultTesseractConfig(name string) TesseractConfig {
	return TesseractConfig{
		Name:        name,
		Language:    "eng",
		PageSegMode: 7,
		Whitelist:   CodeAlphabet,
	}
}

// joinLines merges per-line results top to bottom into one candidate
// followed by the individual lines. Stitched vertical regions are read as
// two lines, owner code above the number.
func joinLines(lines []lineResult) []Candidate {
	if len(lines) == 0 {
		return nil
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].top < lines[j].top })

	var sb strings.Builder
	minConf := 1.0
	out := make([]Candidate, 0, len(lines)+1)
	for _, l := range lines {
		text := strings.TrimSpace(l.text)
		if text == "" {
			continue
		}
		sb.WriteString(text)
		minConf = min(minConf, l.confidence)
		out = append(out, Candidate{Text: text, Confidence: l.confidence})
	}
	if len(out) > 1 {
		out = append([]Candidate{{Text: sb.String(), Confidence: minConf}}, out...)
	}
	return out
}

type lineResult struct {
	text       string
	confidence float64
	top        int
}
