package utils

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// ErrNoImages is returned when a concatenation receives nothing to join.
var ErrNoImages = errors.New("no images to concatenate")

// ImageProcessingError represents errors that can occur during image processing.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error { return e.Err }

// PadImage places img on a black canvas of the target size with its top-left
// corner at offset. Target dimensions smaller than the image are grown to fit.
func PadImage(img image.Image, targetWidth, targetHeight int, offset image.Point) (*image.NRGBA, error) {
	if img == nil {
		return nil, &ImageProcessingError{Operation: "pad", Err: errors.New("input image is nil")}
	}
	if offset.X < 0 || offset.Y < 0 {
		return nil, &ImageProcessingError{
			Operation: "pad",
			Err:       fmt.Errorf("negative offset %v", offset),
		}
	}

	b := img.Bounds()
	if w := b.Dx() + offset.X; w > targetWidth {
		targetWidth = w
	}
	if h := b.Dy() + offset.Y; h > targetHeight {
		targetHeight = h
	}

	background := imaging.New(targetWidth, targetHeight, color.Black)
	return imaging.Paste(background, img, offset), nil
}

// PadVerticalCentered pads img with black rows to targetHeight, splitting the
// padding as (targetHeight-h)/2 on top and the remainder at the bottom.
func PadVerticalCentered(img image.Image, targetHeight int) (*image.NRGBA, error) {
	h := img.Bounds().Dy()
	top := 0
	if targetHeight > h {
		top = (targetHeight - h) / 2
	}
	return PadImage(img, img.Bounds().Dx(), targetHeight, image.Pt(0, top))
}

// PadBottom pads img with black rows at the bottom to targetHeight.
func PadBottom(img image.Image, targetHeight int) (*image.NRGBA, error) {
	return PadImage(img, img.Bounds().Dx(), targetHeight, image.Point{})
}

// PadRight pads img with black columns on the right to targetWidth.
func PadRight(img image.Image, targetWidth int) (*image.NRGBA, error) {
	return PadImage(img, targetWidth, img.Bounds().Dy(), image.Point{})
}

// AddBorder adds black rows above and below img.
func AddBorder(img image.Image, rows int) (*image.NRGBA, error) {
	b := img.Bounds()
	return PadImage(img, b.Dx(), b.Dy()+2*rows, image.Pt(0, rows))
}

// ConcatHorizontal joins images left to right, top-aligned on a black canvas.
func ConcatHorizontal(imgs ...image.Image) (*image.NRGBA, error) {
	if len(imgs) == 0 {
		return nil, &ImageProcessingError{Operation: "hconcat", Err: ErrNoImages}
	}
	width, height := 0, 0
	for _, img := range imgs {
		b := img.Bounds()
		width += b.Dx()
		height = max(height, b.Dy())
	}
	dst := imaging.New(width, height, color.Black)
	x := 0
	for _, img := range imgs {
		dst = imaging.Paste(dst, img, image.Pt(x, 0))
		x += img.Bounds().Dx()
	}
	return dst, nil
}

// ConcatVertical joins images top to bottom, left-aligned on a black canvas.
func ConcatVertical(imgs ...image.Image) (*image.NRGBA, error) {
	if len(imgs) == 0 {
		return nil, &ImageProcessingError{Operation: "vconcat", Err: ErrNoImages}
	}
	width, height := 0, 0
	for _, img := range imgs {
		b := img.Bounds()
		height += b.Dy()
		width = max(width, b.Dx())
	}
	dst := imaging.New(width, height, color.Black)
	y := 0
	for _, img := range imgs {
		dst = imaging.Paste(dst, img, image.Pt(0, y))
		y += img.Bounds().Dy()
	}
	return dst, nil
}

// ResizeForDisplay scales img to exactly width x height with area-like smoothing.
func ResizeForDisplay(img image.Image, width, height int) *image.NRGBA {
	return imaging.Resize(img, width, height, imaging.Box)
}
