package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// SceneConfig describes a synthetic container photo: a flat background with
// one painted code plate.
type SceneConfig struct {
	Width, Height int
	Background    color.Color
	Plate         image.Rectangle
	PlateColor    color.Color
	Text          string
	TextColor     color.Color
	// Vertical stacks the characters top to bottom.
	Vertical bool
	// Rotation in degrees, applied to the whole scene.
	Rotation float64
}

// DefaultSceneConfig returns a 320x240 scene with a horizontal plate.
func DefaultSceneConfig() SceneConfig {
	return SceneConfig{
		Width:      320,
		Height:     240,
		Background: color.NRGBA{R: 40, G: 70, B: 120, A: 255},
		Plate:      image.Rect(40, 100, 260, 130),
		PlateColor: color.White,
		Text:       "TTNU8655846",
		TextColor:  color.Black,
	}
}

// GenerateScene renders cfg.
func GenerateScene(cfg SceneConfig) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{cfg.Background}, image.Point{}, draw.Src)
	draw.Draw(img, cfg.Plate, &image.Uniform{cfg.PlateColor}, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: &image.Uniform{cfg.TextColor}, Face: face}
	ascent := face.Metrics().Ascent.Ceil()

	if cfg.Vertical {
		step := face.Metrics().Height.Ceil()
		x := cfg.Plate.Min.X + (cfg.Plate.Dx()-face.Advance)/2
		for i, r := range cfg.Text {
			d.Dot = fixed.P(x, cfg.Plate.Min.Y+ascent+2+i*step)
			d.DrawString(string(r))
		}
	} else {
		w := font.MeasureString(face, cfg.Text).Ceil()
		x := cfg.Plate.Min.X + (cfg.Plate.Dx()-w)/2
		y := cfg.Plate.Min.Y + (cfg.Plate.Dy()+ascent)/2
		d.Dot = fixed.P(x, y)
		d.DrawString(cfg.Text)
	}

	if cfg.Rotation != 0 {
		return imaging.Rotate(img, cfg.Rotation, cfg.Background)
	}
	return img
}

// SolidImage returns a w x h image filled with c.
func SolidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

// SaveImage writes img as PNG, creating parent directories.
func SaveImage(t *testing.T, img image.Image, path string) {
	t.Helper()

	require.NoError(t, EnsureDir(filepath.Dir(path)))
	file, err := os.Create(path) //nolint:gosec // G304: test file with controlled path
	require.NoError(t, err, "Failed to create file %s", path)
	defer func() {
		require.NoError(t, file.Close())
	}()
	require.NoError(t, png.Encode(file, img), "Failed to encode PNG image")
}

// LoadImage decodes the image at path.
func LoadImage(t *testing.T, path string) image.Image {
	t.Helper()

	img, err := imaging.Open(path)
	require.NoError(t, err, "Failed to open image file %s", path)
	return img
}

// CompareImages reports whether two equally sized images differ by at most
// tolerance, as a fraction of the maximum per-pixel distance.
func CompareImages(img1, img2 image.Image, tolerance float64) bool {
	b := img1.Bounds()
	if b.Size() != img2.Bounds().Size() {
		return false
	}
	o := img2.Bounds().Min.Sub(b.Min)

	var total float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r1, g1, b1, a1 := img1.At(x, y).RGBA()
			r2, g2, b2, a2 := img2.At(x+o.X, y+o.Y).RGBA()
			dr := float64(r1) - float64(r2)
			dg := float64(g1) - float64(g2)
			db := float64(b1) - float64(b2)
			da := float64(a1) - float64(a2)
			total += math.Sqrt(dr*dr + dg*dg + db*db + da*da)
		}
	}
	n := float64(b.Dx() * b.Dy())
	if n == 0 {
		return true
	}
	return total/n/math.Sqrt(4*65535*65535) <= tolerance
}
