package pipeline

import (
	"image"
	"image/color"

	"github.com/MeKo-Tech/cnread/internal/detection"
	"github.com/MeKo-Tech/cnread/internal/utils"
)

// Overlay colours and geometry.
var (
	RegionColor = color.NRGBA{G: 255, A: 255}
	TSColor     = color.NRGBA{R: 255, G: 165, A: 255}
	TextColor   = color.NRGBA{G: 255, A: 255}
)

const (
	overlayWidth  = 640
	overlayHeight = 480
	boxThickness  = 2
)

// RenderOverlay draws the selected code boxes and the TS box on a copy of
// img. When a code was found the copy is resized to 640x480 and the code is
// written in the top left corner. img itself is never modified.
func RenderOverlay(img image.Image, res *Result) *image.NRGBA {
	if img == nil {
		return nil
	}
	dst := utils.Clone(img)
	if res == nil {
		return dst
	}
	b := dst.Bounds()
	for _, box := range res.Boxes {
		utils.DrawRect(dst, box.Rect().ToRect(b.Dx(), b.Dy()), colorFor(box.Class), boxThickness)
	}
	if res.TS != nil {
		utils.DrawRect(dst, res.TS.Rect().ToRect(b.Dx(), b.Dy()), TSColor, boxThickness)
	}
	if !res.Status.OK() {
		return dst
	}
	out := utils.ResizeForDisplay(dst, overlayWidth, overlayHeight)
	utils.DrawText(out, image.Pt(10, 30), res.Code, TextColor)
	return out
}

func colorFor(c detection.Class) color.Color {
	switch c {
	case detection.ClassTS:
		return TSColor
	case detection.ClassCN, detection.ClassCNABC, detection.ClassCNNUM, detection.ClassChar:
		return RegionColor
	default:
		return RegionColor
	}
}
