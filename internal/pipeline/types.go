package pipeline

import (
	"image"

	"github.com/MeKo-Tech/cnread/internal/charseq"
	"github.com/MeKo-Tech/cnread/internal/detection"
	"github.com/MeKo-Tech/cnread/internal/recognizer"
	"github.com/MeKo-Tech/cnread/internal/region"
	"github.com/MeKo-Tech/cnread/internal/utils"
)

// Status is the outcome of one image.
type Status string

const (
	// StatusFound means a checksum-valid code was read.
	StatusFound Status = "found"
	// StatusNoRegion means no usable code region was detected.
	StatusNoRegion Status = "no_region"
	// StatusNoText means the recognizers returned nothing above threshold.
	StatusNoText Status = "no_text"
	// StatusSentinel means the corrector gave up, including after a retry.
	StatusSentinel Status = "sentinel"
	// StatusInvalidChecksum means the corrector returned a code that fails
	// check digit validation.
	StatusInvalidChecksum Status = "invalid_checksum"
)

// OK reports whether the status carries a code.
func (s Status) OK() bool { return s == StatusFound }

// CharacterInfo summarises the character stage.
type CharacterInfo struct {
	Detected    int              `json:"detected"     yaml:"detected"`
	Kept        int              `json:"kept"         yaml:"kept"`
	Decision    charseq.Decision `json:"decision"     yaml:"decision"`
	Reassembled bool             `json:"reassembled"  yaml:"reassembled"`
}

// Reading is the top candidate of each recognizer for one pass.
type Reading struct {
	Pass       int                    `json:"pass"       yaml:"pass"`
	Candidates []recognizer.Candidate `json:"candidates" yaml:"candidates"`
	Corrected  string                 `json:"corrected"  yaml:"corrected"`
}

// Timing records nanoseconds spent per stage.
type Timing struct {
	DetectNs    int64 `json:"detect_ns"    yaml:"detect_ns"`
	SelectNs    int64 `json:"select_ns"    yaml:"select_ns"`
	CharsNs     int64 `json:"chars_ns"     yaml:"chars_ns"`
	RecognizeNs int64 `json:"recognize_ns" yaml:"recognize_ns"`
	TotalNs     int64 `json:"total_ns"     yaml:"total_ns"`
}

// Result is the per-image outcome.
type Result struct {
	Width       int               `json:"width"                 yaml:"width"`
	Height      int               `json:"height"                yaml:"height"`
	Status      Status            `json:"status"                yaml:"status"`
	Code        string            `json:"code,omitempty"        yaml:"code,omitempty"`
	Selection   region.Kind       `json:"selection"             yaml:"selection"`
	Orientation utils.Orientation `json:"orientation"           yaml:"orientation"`
	Reason      string            `json:"reason,omitempty"      yaml:"reason,omitempty"`
	RegionBoxes int               `json:"region_boxes"          yaml:"region_boxes"`
	Boxes       []detection.Box   `json:"boxes,omitempty"       yaml:"boxes,omitempty"`
	TS          *detection.Box    `json:"ts,omitempty"          yaml:"ts,omitempty"`
	Characters  *CharacterInfo    `json:"characters,omitempty"  yaml:"characters,omitempty"`
	Readings    []Reading         `json:"readings,omitempty"    yaml:"readings,omitempty"`
	Retried     bool              `json:"retried"               yaml:"retried"`
	Timing      Timing            `json:"timing"                yaml:"timing"`

	// Crop and Strip are the selected region and the image handed to the
	// recognizers on the first pass. They are kept for debug output.
	Crop  image.Image `json:"-" yaml:"-"`
	Strip image.Image `json:"-" yaml:"-"`
}
