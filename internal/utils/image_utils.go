package utils

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Orientation is the reading direction of a text region.
type Orientation int

const (
	// Horizontal text reads left to right.
	Horizontal Orientation = iota
	// Vertical text reads top to bottom.
	Vertical
)

func (o Orientation) String() string {
	switch o {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return "unknown"
	}
}

// MarshalText renders the orientation by name for JSON/YAML output.
func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// OrientationOf classifies a region by its pixel extent: taller than wide is vertical.
func OrientationOf(width, height int) Orientation {
	if height > width {
		return Vertical
	}
	return Horizontal
}

// ImageOrientation classifies an image by its bounds.
func ImageOrientation(img image.Image) Orientation {
	b := img.Bounds()
	return OrientationOf(b.Dx(), b.Dy())
}

// Box represents an axis-aligned bounding box in float coordinates
// relative to the image origin.
type Box struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// NewBox constructs a Box from min/max coordinates ensuring ordering.
func NewBox(x1, y1, x2, y2 float64) Box {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return Box{MinX: x1, MinY: y1, MaxX: x2, MaxY: y2}
}

// Width returns the box width.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height returns the box height.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Empty reports whether the box has zero or negative extent on either axis.
func (b Box) Empty() bool { return b.Width() <= 0 || b.Height() <= 0 }

// IsHorizontal reports whether the box is strictly wider than it is tall.
// Square boxes count as vertical.
func (b Box) IsHorizontal() bool {
	return math.Abs(b.Width()) > math.Abs(b.Height())
}

// Expand grows the box by dx on the left and right and dy on the top and bottom.
func (b Box) Expand(dx, dy float64) Box {
	return Box{MinX: b.MinX - dx, MinY: b.MinY - dy, MaxX: b.MaxX + dx, MaxY: b.MaxY + dy}
}

// Clip limits the box to [0,width] x [0,height].
func (b Box) Clip(width, height int) Box {
	return Box{
		MinX: math.Max(b.MinX, 0),
		MinY: math.Max(b.MinY, 0),
		MaxX: math.Min(b.MaxX, float64(width)),
		MaxY: math.Min(b.MaxY, float64(height)),
	}
}

// Floor snaps all coordinates down to whole pixels.
func (b Box) Floor() Box {
	return Box{
		MinX: math.Floor(b.MinX),
		MinY: math.Floor(b.MinY),
		MaxX: math.Floor(b.MaxX),
		MaxY: math.Floor(b.MaxY),
	}
}

// Fits reports whether the box lies within [0,width] x [0,height].
func (b Box) Fits(width, height int) bool {
	return b.MinX >= 0 && b.MinY >= 0 && b.MaxX <= float64(width) && b.MaxY <= float64(height)
}

// ExpandWithin grows the box by margin on every side when the grown box still
// fits the image. Otherwise the box is returned unchanged on all sides.
func (b Box) ExpandWithin(margin float64, width, height int) (Box, bool) {
	grown := b.Expand(margin, margin)
	if !grown.Fits(width, height) {
		return b, false
	}
	return grown, true
}

// ToRect converts a Box to an image.Rectangle in origin-relative pixel
// coordinates. Coordinates are truncated and clamped to the given size.
func (b Box) ToRect(width, height int) image.Rectangle {
	x1 := clampInt(int(math.Floor(b.MinX)), 0, width)
	y1 := clampInt(int(math.Floor(b.MinY)), 0, height)
	x2 := clampInt(int(math.Floor(b.MaxX)), 0, width)
	y2 := clampInt(int(math.Floor(b.MaxY)), 0, height)
	if x2 < x1 {
		x2 = x1
	}
	if y2 < y1 {
		y2 = y1
	}
	return image.Rect(x1, y1, x2, y2)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// CropImageRect crops an image to the given origin-relative rectangle.
// The result always starts at (0,0) and never aliases the source pixels.
func CropImageRect(img image.Image, rect image.Rectangle) *image.NRGBA {
	b := img.Bounds()
	abs := rect.Add(b.Min).Intersect(b)
	if abs.Empty() {
		return imaging.New(0, 0, color.Transparent)
	}
	return imaging.Crop(img, abs)
}

// CropImageBox crops an image using a float Box.
func CropImageBox(img image.Image, box Box) *image.NRGBA {
	b := img.Bounds()
	return CropImageRect(img, box.ToRect(b.Dx(), b.Dy()))
}

// Clone returns an independent NRGBA copy so overlays never touch the caller's buffer.
func Clone(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// DrawRect draws an axis-aligned rectangle outline into dst.
func DrawRect(dst *image.NRGBA, rect image.Rectangle, col color.Color, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	rect = rect.Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}
	// Top and bottom edges
	for t := range thickness {
		yTop := rect.Min.Y + t
		yBot := rect.Max.Y - 1 - t
		for x := rect.Min.X; x < rect.Max.X; x++ {
			dst.Set(x, yTop, col)
			dst.Set(x, yBot, col)
		}
	}
	// Left and right edges
	for t := range thickness {
		xLeft := rect.Min.X + t
		xRight := rect.Max.X - 1 - t
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			dst.Set(xLeft, y, col)
			dst.Set(xRight, y, col)
		}
	}
}

// DrawText writes a single line of text with its baseline at pt.
func DrawText(dst *image.NRGBA, pt image.Point, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(pt.X, pt.Y),
	}
	d.DrawString(text)
}
