package utils

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestImage creates a solid colour RGBA image.
func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.Set(x, y, c)
		}
	}
	return img
}

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

func TestPadImage(t *testing.T) {
	img := createTestImage(4, 3, white)

	padded, err := PadImage(img, 10, 8, image.Pt(2, 1))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 10, 8), padded.Bounds())
	assert.Equal(t, uint8(255), padded.NRGBAAt(2, 1).R)
	assert.Equal(t, uint8(0), padded.NRGBAAt(0, 0).R, "padding is black")
	assert.Equal(t, uint8(255), padded.NRGBAAt(0, 0).A, "padding is opaque")
}

func TestPadImageGrowsTarget(t *testing.T) {
	img := createTestImage(6, 6, white)
	padded, err := PadImage(img, 4, 4, image.Pt(1, 1))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 7, 7), padded.Bounds())
}

func TestPadImageErrors(t *testing.T) {
	_, err := PadImage(nil, 10, 10, image.Point{})
	require.Error(t, err)

	_, err = PadImage(createTestImage(2, 2, white), 10, 10, image.Pt(-1, 0))
	var ipe *ImageProcessingError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "pad", ipe.Operation)
}

func TestPadVerticalCentered(t *testing.T) {
	img := createTestImage(5, 10, white)
	padded, err := PadVerticalCentered(img, 15)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 5, 15), padded.Bounds())

	// (15-10)/2 = 2 rows on top, 3 at the bottom.
	assert.Equal(t, uint8(0), padded.NRGBAAt(0, 1).R)
	assert.Equal(t, uint8(255), padded.NRGBAAt(0, 2).R)
	assert.Equal(t, uint8(255), padded.NRGBAAt(0, 11).R)
	assert.Equal(t, uint8(0), padded.NRGBAAt(0, 12).R)
}

func TestPadBottomAndRight(t *testing.T) {
	img := createTestImage(5, 10, white)

	bottom, err := PadBottom(img, 14)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 5, 14), bottom.Bounds())
	assert.Equal(t, uint8(255), bottom.NRGBAAt(0, 0).R)
	assert.Equal(t, uint8(0), bottom.NRGBAAt(0, 13).R)

	right, err := PadRight(img, 9)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 9, 10), right.Bounds())
	assert.Equal(t, uint8(0), right.NRGBAAt(8, 0).R)
}

func TestAddBorder(t *testing.T) {
	img := createTestImage(7, 4, white)
	out, err := AddBorder(img, 3)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 7, 10), out.Bounds())
	assert.Equal(t, uint8(0), out.NRGBAAt(3, 2).R)
	assert.Equal(t, uint8(255), out.NRGBAAt(3, 3).R)
	assert.Equal(t, uint8(255), out.NRGBAAt(3, 6).R)
	assert.Equal(t, uint8(0), out.NRGBAAt(3, 7).R)
}

func TestConcatHorizontal(t *testing.T) {
	red := createTestImage(3, 4, color.RGBA{R: 255, A: 255})
	blue := createTestImage(5, 2, color.RGBA{B: 255, A: 255})

	out, err := ConcatHorizontal(red, blue)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 4), out.Bounds())
	assert.Equal(t, uint8(255), out.NRGBAAt(2, 3).R)
	assert.Equal(t, uint8(255), out.NRGBAAt(3, 0).B)
	assert.Equal(t, uint8(0), out.NRGBAAt(3, 3).B, "shorter image is top-aligned")
}

func TestConcatVertical(t *testing.T) {
	red := createTestImage(3, 4, color.RGBA{R: 255, A: 255})
	blue := createTestImage(5, 2, color.RGBA{B: 255, A: 255})

	out, err := ConcatVertical(red, blue)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 5, 6), out.Bounds())
	assert.Equal(t, uint8(255), out.NRGBAAt(0, 4).B)
	assert.Equal(t, uint8(0), out.NRGBAAt(4, 0).R, "narrower image is left-aligned")
}

func TestConcatEmpty(t *testing.T) {
	_, err := ConcatHorizontal()
	require.ErrorIs(t, err, ErrNoImages)
	_, err = ConcatVertical()
	require.ErrorIs(t, err, ErrNoImages)
}

func TestResizeForDisplay(t *testing.T) {
	img := createTestImage(100, 30, white)
	out := ResizeForDisplay(img, 640, 480)
	assert.Equal(t, image.Rect(0, 0, 640, 480), out.Bounds())
}
