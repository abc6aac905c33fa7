package utils

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSupportedImage(t *testing.T) {
	cases := []struct {
		path string
		ok   bool
	}{
		{"a.jpg", true},
		{"b.jpeg", true},
		{"c.PNG", true},
		{"d.bmp", true},
		{"e.tiff", false},
		{"f.detections.json", false},
	}
	for _, c := range cases {
		if IsSupportedImage(c.path) != c.ok {
			t.Fatalf("IsSupportedImage(%s) expected %v", c.path, c.ok)
		}
	}
}

func writeTempPNG(t *testing.T, dir string, w, h int, col color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, col)
		}
	}
	path := filepath.Join(dir, "test.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, f.Close())
	}()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestLoadImageAndMetadata(t *testing.T) {
	dir := t.TempDir()
	p := writeTempPNG(t, dir, 10, 20, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	img, meta, err := LoadImage(p)
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, "png", meta.Format)
	assert.Equal(t, 10, meta.Width)
	assert.Equal(t, 20, meta.Height)
	assert.Positive(t, meta.SizeBytes)
}

func TestLoadImageErrors(t *testing.T) {
	_, _, err := LoadImage("")
	require.Error(t, err)

	_, _, err = LoadImage("scan.tiff")
	var ipe *ImageProcessingError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "load", ipe.Operation)
}

func TestSavePNGCreatesDirectories(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "strip.png")
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	require.NoError(t, SavePNG(out, img))

	loaded, _, err := LoadImage(out)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 3), loaded.Bounds())
}

func TestOrientationOf(t *testing.T) {
	assert.Equal(t, Vertical, OrientationOf(10, 11))
	assert.Equal(t, Horizontal, OrientationOf(11, 10))
	assert.Equal(t, Horizontal, OrientationOf(10, 10))
	assert.Equal(t, "vertical", Vertical.String())

	text, err := Horizontal.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "horizontal", string(text))
}

func TestBoxGeometry(t *testing.T) {
	b := NewBox(30, 20, 10, 5)
	assert.Equal(t, Box{MinX: 10, MinY: 5, MaxX: 30, MaxY: 20}, b)
	assert.InDelta(t, 20.0, b.Width(), 1e-9)
	assert.InDelta(t, 15.0, b.Height(), 1e-9)
	assert.True(t, b.IsHorizontal())
	assert.False(t, NewBox(0, 0, 10, 10).IsHorizontal(), "square boxes are not horizontal")
	assert.True(t, Box{MinX: 5, MinY: 5, MaxX: 5, MaxY: 9}.Empty())
}

func TestBoxExpandAndClip(t *testing.T) {
	b := NewBox(1, 4, 11, 24).Expand(2, 5)
	assert.Equal(t, Box{MinX: -1, MinY: -1, MaxX: 13, MaxY: 29}, b)

	clipped := b.Clip(12, 25)
	assert.Equal(t, Box{MinX: 0, MinY: 0, MaxX: 12, MaxY: 25}, clipped)
	assert.Equal(t, image.Rect(0, 0, 12, 25), clipped.ToRect(12, 25))
}

func TestBoxExpandWithin(t *testing.T) {
	inner := NewBox(10, 10, 40, 20)
	grown, ok := inner.ExpandWithin(5, 100, 100)
	assert.True(t, ok)
	assert.Equal(t, NewBox(5, 5, 45, 25), grown)

	// A single side overflowing disables the margin everywhere.
	edge := NewBox(2, 10, 40, 20)
	same, ok := edge.ExpandWithin(5, 100, 100)
	assert.False(t, ok)
	assert.Equal(t, edge, same)
}

func TestToRectTruncates(t *testing.T) {
	r := NewBox(1.7, 2.2, 9.9, 5.5).ToRect(100, 100)
	assert.Equal(t, image.Rect(1, 2, 9, 5), r)

	r = NewBox(-5, -5, 500, 500).ToRect(20, 10)
	assert.Equal(t, image.Rect(0, 0, 20, 10), r)
}

func TestCropImageRect(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for y := range 4 {
		for x := range 8 {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), A: 255})
		}
	}
	cropped := CropImageRect(img, image.Rect(2, 1, 6, 3))
	assert.Equal(t, image.Rect(0, 0, 4, 2), cropped.Bounds())
	assert.Equal(t, uint8(20), cropped.NRGBAAt(0, 0).R)

	// Cropping must not alias the source.
	cropped.Set(0, 0, color.White)
	assert.Equal(t, uint8(20), img.RGBAAt(2, 1).R)
}

func TestCropImageRectHonoursOffsetBounds(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 20, 20))
	base.Set(12, 12, color.RGBA{G: 255, A: 255})
	sub := base.SubImage(image.Rect(10, 10, 20, 20))

	cropped := CropImageRect(sub, image.Rect(2, 2, 4, 4))
	assert.Equal(t, uint8(255), cropped.NRGBAAt(0, 0).G)
}

func TestCropImageRectEmpty(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	cropped := CropImageRect(img, image.Rect(20, 20, 30, 30))
	assert.True(t, cropped.Bounds().Empty())
}

func TestDrawRectOnClone(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 20, 10))
	dst := Clone(src)
	DrawRect(dst, image.Rect(2, 2, 10, 8), color.RGBA{G: 255, A: 255}, 1)

	assert.Equal(t, uint8(255), dst.NRGBAAt(2, 2).G)
	assert.Equal(t, uint8(0), dst.NRGBAAt(5, 5).G, "interior stays untouched")
	assert.Equal(t, color.RGBA{}, src.RGBAAt(2, 2), "source buffer is not modified")
}

func TestDrawText(t *testing.T) {
	dst := image.NewNRGBA(image.Rect(0, 0, 120, 40))
	DrawText(dst, image.Pt(10, 30), "TTNU8655846", color.RGBA{G: 255, A: 255})

	painted := 0
	for y := range 40 {
		for x := range 120 {
			if dst.NRGBAAt(x, y).G > 0 {
				painted++
			}
		}
	}
	assert.Positive(t, painted)
}
