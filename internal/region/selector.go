// Package region picks the pixels that carry the container code out of the
// region detector's output: a single CN line, or the owner code and numeric
// field stitched together.
package region

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/cnread/internal/detection"
	"github.com/MeKo-Tech/cnread/internal/utils"
)

// DefaultMargin is the padding added around a selected region.
const DefaultMargin = 5

// Kind tells how the selection was formed.
type Kind int

const (
	// None means no usable code region was found.
	None Kind = iota
	// Single is one CN box.
	Single
	// Composite is a CN_ABC box stitched with a CN_NUM box.
	Composite
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Single:
		return "single"
	case Composite:
		return "composite"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// MarshalText renders the kind by name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Selection is the region chosen for recognition.
type Selection struct {
	Kind        Kind
	Image       image.Image
	Orientation utils.Orientation
	// Boxes are the detections the image was cut from, CN or CN_ABC then CN_NUM.
	Boxes []detection.Box
	// TS is the best size/type box when one was detected. It never affects selection.
	TS *detection.Box
	// Reason explains a None selection.
	Reason error
}

// Found reports whether a region was selected.
func (s Selection) Found() bool { return s.Kind != None }

// Selector chooses the code region from region-detector boxes.
type Selector struct {
	// Margin is added on every side of a selected box when it fits the image.
	Margin int
}

// NewSelector returns a Selector with the default margin.
func NewSelector() Selector { return Selector{Margin: DefaultMargin} }

// Select picks the highest-confidence CN box, or failing that the best
// CN_ABC and CN_NUM pair. Boxes are ordered by confidence here, callers need
// not sort them. img is only read.
func (s Selector) Select(img image.Image, boxes []detection.Box) (Selection, error) {
	var cn, abc, num, ts *detection.Box
	for _, b := range detection.SortByConfidence(boxes) {
		if err := b.Validate(); err != nil {
			return Selection{}, err
		}
		switch b.Class {
		case detection.ClassCN:
			if cn == nil {
				cn = &b
			}
		case detection.ClassCNABC:
			if abc == nil {
				abc = &b
			}
		case detection.ClassCNNUM:
			if num == nil {
				num = &b
			}
		case detection.ClassTS:
			if ts == nil {
				ts = &b
			}
		case detection.ClassChar:
			return Selection{}, fmt.Errorf("character box passed to region selection")
		default:
			return Selection{}, fmt.Errorf("unknown class %s", b.Class)
		}
	}

	sel := Selection{TS: ts}
	switch {
	case cn != nil:
		crop, _, err := s.crop(img, *cn)
		if err != nil {
			return Selection{}, err
		}
		sel.Kind = Single
		sel.Image = crop
		sel.Orientation = utils.ImageOrientation(crop)
		sel.Boxes = []detection.Box{*cn}
		slog.Debug("CN region selected", "confidence", cn.Confidence, "orientation", sel.Orientation.String())

	case abc != nil && num != nil:
		abcCrop, abcBox, err := s.crop(img, *abc)
		if err != nil {
			return Selection{}, err
		}
		numCrop, numBox, err := s.crop(img, *num)
		if err != nil {
			return Selection{}, err
		}
		stitched, o, err := Stitch(abcCrop, numCrop, abcBox, numBox)
		if err != nil {
			slog.Debug("CN_ABC and CN_NUM run in different directions", "error", err)
			sel.Reason = err
			return sel, nil
		}
		sel.Kind = Composite
		sel.Image = stitched
		sel.Orientation = o
		sel.Boxes = []detection.Box{*abc, *num}
		slog.Debug("CN_ABC and CN_NUM stitched", "orientation", o.String())

	default:
		sel.Reason = fmt.Errorf("no CN box and no CN_ABC/CN_NUM pair among %d boxes", len(boxes))
		slog.Debug("No code region selected", "boxes", len(boxes))
	}
	return sel, nil
}

// expand snaps the box to whole pixels and applies the margin only when the
// grown box stays inside the image on every side.
func (s Selector) expand(img image.Image, box utils.Box) utils.Box {
	b := img.Bounds()
	grown, _ := box.Floor().ExpandWithin(float64(s.Margin), b.Dx(), b.Dy())
	return grown
}

// crop cuts the expanded box out of img. A box narrower than a pixel at the
// image edge snaps to nothing and is reported as degenerate.
func (s Selector) crop(img image.Image, b detection.Box) (*image.NRGBA, utils.Box, error) {
	box := s.expand(img, b.Rect())
	out := utils.CropImageBox(img, box)
	if out.Bounds().Empty() {
		return nil, box, fmt.Errorf("%w: %s crop (%.1f,%.1f)-(%.1f,%.1f) is empty",
			detection.ErrDegenerateBox, b.Class, b.X1, b.Y1, b.X2, b.Y2)
	}
	return out, box, nil
}
