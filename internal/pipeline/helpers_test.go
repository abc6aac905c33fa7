package pipeline

import (
	"context"
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/MeKo-Tech/cnread/internal/detection"
	"github.com/MeKo-Tech/cnread/internal/recognizer"
	"github.com/stretchr/testify/require"
)

type fakeDetector struct {
	regions []detection.Box
	chars   []detection.Box
	err     error
	errFor  func(img image.Image) error
}

func (f *fakeDetector) DetectRegions(_ context.Context, img image.Image) ([]detection.Box, error) {
	if f.errFor != nil {
		if err := f.errFor(img); err != nil {
			return nil, err
		}
	}
	return f.regions, f.err
}

func (f *fakeDetector) DetectChars(_ context.Context, _ image.Image) ([]detection.Box, error) {
	return f.chars, nil
}

// fakeRecognizer replays canned candidates, one reply per call. The last
// reply repeats once the list is exhausted.
type fakeRecognizer struct {
	mu      sync.Mutex
	replies [][]recognizer.Candidate
	err     error
	sizes   []image.Point
	closed  bool
}

func reply(text string, conf float64) []recognizer.Candidate {
	return []recognizer.Candidate{{Text: text, Confidence: conf}}
}

func newFakeRecognizer(replies ...[]recognizer.Candidate) *fakeRecognizer {
	return &fakeRecognizer{replies: replies}
}

func (f *fakeRecognizer) Recognize(_ context.Context, img image.Image) ([]recognizer.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sizes = append(f.sizes, img.Bounds().Size())
	if f.err != nil {
		return nil, f.err
	}
	if len(f.replies) == 0 {
		return nil, nil
	}
	i := min(len(f.sizes)-1, len(f.replies)-1)
	return f.replies[i], nil
}

func (f *fakeRecognizer) Close() error {
	f.closed = true
	return nil
}

func (f *fakeRecognizer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sizes)
}

type fixedCorrector string

func (c fixedCorrector) Correct(string, string, int, int) string { return string(c) }

func scene(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.NRGBA{R: 90, G: 90, B: 90, A: 255})
		}
	}
	return img
}

func box(x1, y1, x2, y2, conf float64, c detection.Class) detection.Box {
	return detection.Box{X1: x1, Y1: y1, X2: x2, Y2: y2, Confidence: conf, Class: c}
}

// horizontalChars returns 11 character boxes laid out on a 230x50 crop.
func horizontalChars() []detection.Box {
	out := make([]detection.Box, 0, 11)
	for i := range 11 {
		x := float64(5 + 20*i)
		out = append(out, box(x, 10, x+15, 40, 0.9, detection.ClassChar))
	}
	return out
}

// verticalChars returns 11 character boxes stacked on a 50x190 crop.
func verticalChars() []detection.Box {
	out := make([]detection.Box, 0, 11)
	for i := range 11 {
		y := float64(5 + 16*i)
		out = append(out, box(10, y, 40, y+14, 0.9, detection.ClassChar))
	}
	return out
}

func buildPipeline(t *testing.T, det *fakeDetector, recs ...Recognizer) *Pipeline {
	t.Helper()
	p, err := NewBuilder().WithDetectors(det).WithRecognizers(recs...).WithMetrics(NewMetrics()).Build()
	require.NoError(t, err)
	return p
}
