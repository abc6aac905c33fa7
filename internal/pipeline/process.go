package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/cnread/internal/detection"
	"github.com/MeKo-Tech/cnread/internal/iso6346"
	"github.com/MeKo-Tech/cnread/internal/recognizer"
	"github.com/MeKo-Tech/cnread/internal/utils"
)

// ProcessImage reads the container code of a single image.
func (p *Pipeline) ProcessImage(img image.Image) (*Result, error) {
	return p.ProcessImageContext(context.Background(), img)
}

// ProcessImageContext is like ProcessImage but allows cancellation via context.
// Detector and recognizer failures and degenerate boxes are returned as
// errors. Every other failure to read a code is reported through
// Result.Status.
func (p *Pipeline) ProcessImageContext(ctx context.Context, img image.Image) (*Result, error) {
	if p == nil || p.Regions == nil || len(p.Recognizers) == 0 {
		return nil, errors.New("pipeline not initialized")
	}
	if img == nil {
		return nil, errors.New("input image is nil")
	}

	res, err := p.process(ctx, img)
	if err != nil {
		p.Metrics.observeError()
		return nil, err
	}
	p.Metrics.observe(res)
	slog.Debug("Image processed", "status", string(res.Status), "code", res.Code,
		"selection", res.Selection.String(), "retried", res.Retried,
		"total_ms", res.Timing.TotalNs/1_000_000)
	return res, nil
}

func (p *Pipeline) process(ctx context.Context, img image.Image) (*Result, error) {
	totalStart := time.Now()
	bounds := img.Bounds()
	res := &Result{Width: bounds.Dx(), Height: bounds.Dy()}
	defer func() { res.Timing.TotalNs = time.Since(totalStart).Nanoseconds() }()

	slog.Debug("Starting image processing", "width", res.Width, "height", res.Height)

	start := time.Now()
	boxes, err := p.Regions.DetectRegions(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("detect regions: %w", err)
	}
	regions := detection.FilterByConfidence(boxes, p.cfg.RegionMinConfidence)
	res.RegionBoxes = len(regions)
	res.Timing.DetectNs = time.Since(start).Nanoseconds()
	if len(regions) == 0 {
		slog.Debug("No CN/CN_ABC/CN_NUM/TS detected", "raw_boxes", len(boxes))
	} else {
		slog.Debug("Region boxes kept", "raw_boxes", len(boxes), "by_class", detection.CountByClass(regions))
	}

	start = time.Now()
	sel, err := p.cfg.Selector.Select(img, regions)
	res.Timing.SelectNs = time.Since(start).Nanoseconds()
	if err != nil {
		return nil, fmt.Errorf("select region: %w", err)
	}
	res.Selection = sel.Kind
	res.Boxes = sel.Boxes
	res.TS = sel.TS
	if !sel.Found() {
		res.Status = StatusNoRegion
		if sel.Reason != nil {
			res.Reason = sel.Reason.Error()
		}
		return res, nil
	}
	res.Orientation = sel.Orientation
	res.Crop = sel.Image

	start = time.Now()
	strip, cropOrientation, reassembled, err := p.characters(ctx, sel.Image, res)
	res.Timing.CharsNs = time.Since(start).Nanoseconds()
	if err != nil {
		return nil, err
	}
	res.Strip = strip

	start = time.Now()
	defer func() { res.Timing.RecognizeNs = time.Since(start).Nanoseconds() }()

	reading, ok, err := p.read(ctx, strip, 1)
	if err != nil {
		return nil, err
	}
	if !ok {
		res.Status = StatusNoText
		res.Reason = "no recognized text above confidence threshold"
		return res, nil
	}
	res.Readings = append(res.Readings, reading)
	code := reading.Corrected

	if iso6346.IsSentinel(code) && p.shouldRetry(reassembled, cropOrientation) {
		slog.Debug("Corrector returned the sentinel on a reassembled horizontal strip, reading the original crop")
		res.Retried = true
		retry, ok, err := p.read(ctx, sel.Image, 2)
		if err != nil {
			return nil, err
		}
		if ok {
			res.Readings = append(res.Readings, retry)
			code = retry.Corrected
		}
	}

	p.finish(res, code)
	return res, nil
}

// characters runs the character stage when a character detector is set.
func (p *Pipeline) characters(ctx context.Context, crop image.Image, res *Result) (image.Image, utils.Orientation, bool, error) {
	if p.Chars == nil {
		return crop, utils.ImageOrientation(crop), false, nil
	}
	chars, err := p.Chars.DetectChars(ctx, crop)
	if err != nil {
		return nil, 0, false, fmt.Errorf("detect characters: %w", err)
	}
	cr, err := p.cfg.Characters.Process(crop, chars)
	if err != nil {
		return nil, 0, false, fmt.Errorf("reassemble characters: %w", err)
	}
	res.Characters = &CharacterInfo{
		Detected:    len(chars),
		Kept:        cr.Kept,
		Decision:    cr.Decision,
		Reassembled: cr.Reassembled,
	}
	return cr.Image, cr.Orientation, cr.Reassembled, nil
}

func (p *Pipeline) shouldRetry(reassembled bool, o utils.Orientation) bool {
	return p.cfg.RetryOnSentinel && reassembled && o == utils.Horizontal
}

// read runs every recognizer on img and merges their best candidates. It
// reports false when the first recognizer returns nothing usable.
func (p *Pipeline) read(ctx context.Context, img image.Image, pass int) (Reading, bool, error) {
	tops := make([]recognizer.Candidate, 0, len(p.Recognizers))
	for i, r := range p.Recognizers {
		if err := ctx.Err(); err != nil {
			return Reading{}, false, err
		}
		cands, err := r.Recognize(ctx, img)
		if err != nil {
			return Reading{}, false, fmt.Errorf("recognizer %d: %w", i+1, err)
		}
		kept := recognizer.FilterCandidates(cands, p.cfg.RecognizerMinConfidence, fmt.Sprintf("rec%d", i+1))
		best, ok := recognizer.Best(kept)
		if !ok {
			if i == 0 {
				return Reading{}, false, nil
			}
			continue
		}
		slog.Debug("Recognized code candidate", "pass", pass, "recognizer", i+1, "candidate", best.String())
		tops = append(tops, best)
	}

	a := tops[0].Text
	var b string
	if len(tops) > 1 {
		b = tops[1].Text
	}
	return Reading{
		Pass:       pass,
		Candidates: tops,
		Corrected:  p.Corrector.Correct(a, b, len(a), len(b)),
	}, true, nil
}

func (p *Pipeline) finish(res *Result, code string) {
	switch {
	case iso6346.IsSentinel(code):
		res.Status = StatusSentinel
		res.Reason = "corrector could not produce a code"
		slog.Debug("Wrong CN recognition", "retried", res.Retried)
	case iso6346.Validate(code) != nil:
		res.Status = StatusInvalidChecksum
		res.Code = code
		res.Reason = iso6346.Validate(code).Error()
	default:
		res.Status = StatusFound
		res.Code = code
	}
}
