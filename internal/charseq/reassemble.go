package charseq

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/cnread/internal/detection"
	"github.com/MeKo-Tech/cnread/internal/utils"
)

// ErrNoBoxes is returned when reassembly is asked to work on nothing.
var ErrNoBoxes = errors.New("no character boxes to reassemble")

// Margin is the slack added around each character box before cropping.
type Margin struct {
	X int `json:"x" yaml:"x" mapstructure:"x"`
	Y int `json:"y" yaml:"y" mapstructure:"y"`
}

// Reassembler crops character boxes and joins them into one strip.
type Reassembler struct {
	Vertical   Margin
	Horizontal Margin
	// Border is the number of black rows added above and below the strip.
	Border int
}

// DefaultReassembler uses wide horizontal slack for vertical text and extra
// vertical slack for horizontal text.
func DefaultReassembler() Reassembler {
	return Reassembler{
		Vertical:   Margin{X: 10, Y: 2},
		Horizontal: Margin{X: 2, Y: 5},
		Border:     3,
	}
}

func (r Reassembler) margin(o utils.Orientation) Margin {
	if o == utils.Vertical {
		return r.Vertical
	}
	return r.Horizontal
}

// Reassemble crops each box from img (with the orientation's margin, clipped
// to the image), centres the crops vertically to the tallest one, joins them
// left to right in the given order and adds the top and bottom border.
// Boxes must already be in reading order. img is never modified.
func (r Reassembler) Reassemble(img image.Image, o utils.Orientation, boxes []detection.Box) (*image.NRGBA, error) {
	if len(boxes) == 0 {
		return nil, ErrNoBoxes
	}
	m := r.margin(o)
	b := img.Bounds()

	crops := make([]image.Image, 0, len(boxes))
	maxHeight := 0
	for i, box := range boxes {
		if err := box.Validate(); err != nil {
			return nil, fmt.Errorf("char box %d: %w", i, err)
		}
		rect := box.Rect().Expand(float64(m.X), float64(m.Y)).Clip(b.Dx(), b.Dy())
		crop := utils.CropImageBox(img, rect)
		if crop.Bounds().Empty() {
			return nil, &utils.ImageProcessingError{
				Operation: "reassemble",
				Err:       fmt.Errorf("char box %d lies outside the %dx%d crop", i, b.Dx(), b.Dy()),
			}
		}
		maxHeight = max(maxHeight, crop.Bounds().Dy())
		crops = append(crops, crop)
	}

	for i, crop := range crops {
		padded, err := utils.PadVerticalCentered(crop, maxHeight)
		if err != nil {
			return nil, err
		}
		crops[i] = padded
	}

	strip, err := utils.ConcatHorizontal(crops...)
	if err != nil {
		return nil, err
	}
	out, err := utils.AddBorder(strip, r.Border)
	if err != nil {
		return nil, err
	}
	slog.Debug("Reassembled character boxes", "boxes", len(boxes), "orientation", o.String(),
		"width", out.Bounds().Dx(), "height", out.Bounds().Dy())
	return out, nil
}
