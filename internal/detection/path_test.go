package detection

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSidecarPathWithSuffix(t *testing.T) {
	assert.Equal(t, "dir/img.boxes.json", SidecarPathWithSuffix("dir/img.jpg", ".boxes.json"))
	assert.Equal(t, "noext.boxes.json", SidecarPathWithSuffix("noext", ".boxes.json"))
}

func TestImagePathContext(t *testing.T) {
	_, ok := ImagePathFrom(context.Background())
	assert.False(t, ok)

	ctx := WithImagePath(context.Background(), "a/b.png")
	p, ok := ImagePathFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, "a/b.png", p)

	_, ok = ImagePathFrom(WithImagePath(context.Background(), ""))
	assert.False(t, ok)
}

func TestPathDetector(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "box.png")
	require.NoError(t, os.WriteFile(SidecarPath(imgPath), []byte(sampleSidecar), 0o600))

	d := NewPathDetector("")
	assert.Equal(t, SidecarSuffix, d.Suffix)

	ctx := WithImagePath(context.Background(), imgPath)
	img := image.NewNRGBA(image.Rect(0, 0, 200, 100))

	regions, err := d.DetectRegions(ctx, img)
	require.NoError(t, err)
	assert.Len(t, regions, 2)

	chars, err := d.DetectChars(ctx, img)
	require.NoError(t, err)
	assert.Len(t, chars, 1)
}

func TestPathDetector_Errors(t *testing.T) {
	d := NewPathDetector(".custom.json")
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))

	_, err := d.DetectRegions(context.Background(), img)
	require.ErrorIs(t, err, ErrNoImagePath)

	ctx := WithImagePath(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	_, err = d.DetectChars(ctx, img)
	assert.ErrorContains(t, err, "read detections")
}
