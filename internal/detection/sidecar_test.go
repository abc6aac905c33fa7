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

const sampleSidecar = `{
  "width": 200,
  "height": 100,
  "regions": [
    {"x1": 10, "y1": 10, "x2": 150, "y2": 40, "confidence": 0.91, "class": "CN"},
    {"x1": 160, "y1": 10, "x2": 190, "y2": 40, "confidence": 0.71, "class": 3}
  ],
  "chars": [
    {"x1": 2, "y1": 3, "x2": 12, "y2": 25, "confidence": 0.8}
  ]
}`

func TestSidecarPath(t *testing.T) {
	assert.Equal(t, "dir/img.detections.json", SidecarPath("dir/img.jpg"))
	assert.Equal(t, "dir.v1/img.detections.json", SidecarPath("dir.v1/img"))
	assert.Equal(t, "photo.detections.json", SidecarPath("photo.png"))
}

func TestParseSidecar(t *testing.T) {
	sc, err := ParseSidecar([]byte(sampleSidecar))
	require.NoError(t, err)
	assert.Equal(t, 200, sc.Width)
	require.Len(t, sc.Regions, 2)
	assert.Equal(t, ClassTS, sc.Regions[1].Class)
	require.Len(t, sc.Chars, 1)
	assert.Equal(t, ClassChar, sc.Chars[0].Class)
}

func TestParseSidecarRows(t *testing.T) {
	sc, err := ParseSidecar([]byte(`{
  "width": 200, "height": 100,
  "regions": [[10, 10, 150, 40, 0.91, 0], {"x1": 160, "y1": 10, "x2": 190, "y2": 40, "class": "TS"}],
  "chars": [[2, 3, 12, 25, 0.8, 4]]
}`))
	require.NoError(t, err)
	require.Len(t, sc.Regions, 2)
	assert.Equal(t, Box{X1: 10, Y1: 10, X2: 150, Y2: 40, Confidence: 0.91, Class: ClassCN}, sc.Regions[0])
	assert.Equal(t, ClassTS, sc.Regions[1].Class)
	require.Len(t, sc.Chars, 1)
	assert.InDelta(t, 0.8, sc.Chars[0].Confidence, 1e-9)

	_, err = ParseSidecar([]byte(`{"regions": [[10, 10, 150, 40, 0.91]]}`))
	require.ErrorContains(t, err, "needs 6 values")

	_, err = ParseSidecar([]byte(`{"regions": [[10, 10, 150, 40, 0.91, 9]]}`))
	require.ErrorContains(t, err, "unknown class id")

	_, err = ParseSidecar([]byte(`{"regions": [[10, 10, 150, 40, 0.91, 4]]}`))
	require.Error(t, err, "CHAR is not a region class")
}

func TestParseSidecarRejects(t *testing.T) {
	_, err := ParseSidecar([]byte(`{"regions": [{"x1":1,"y1":1,"x2":2,"y2":2,"class":"CHAR"}]}`))
	require.Error(t, err)

	_, err = ParseSidecar([]byte(`{"width":10,"height":10,"regions":[{"x1":1,"y1":1,"x2":20,"y2":2,"class":"CN"}]}`))
	require.Error(t, err)

	_, err = ParseSidecar([]byte(`{`))
	require.Error(t, err)
}

func TestSidecarRoundTrip(t *testing.T) {
	sc, err := ParseSidecar([]byte(sampleSidecar))
	require.NoError(t, err)

	data, err := MarshalSidecar(sc)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "img"+SidecarSuffix)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := LoadSidecar(path)
	require.NoError(t, err)
	assert.Equal(t, sc, loaded)
}

func TestSidecarDetector(t *testing.T) {
	sc, err := ParseSidecar([]byte(sampleSidecar))
	require.NoError(t, err)
	d := NewSidecarDetector(sc)
	ctx := context.Background()

	regions, err := d.DetectRegions(ctx, image.NewRGBA(image.Rect(0, 0, 200, 100)))
	require.NoError(t, err)
	assert.Len(t, regions, 2)

	_, err = d.DetectRegions(ctx, image.NewRGBA(image.Rect(0, 0, 100, 100)))
	require.Error(t, err, "size mismatch")

	chars, err := d.DetectChars(ctx, image.NewRGBA(image.Rect(0, 0, 10, 10)))
	require.NoError(t, err)
	assert.Len(t, chars, 1)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = d.DetectChars(cancelled, nil)
	require.ErrorIs(t, err, context.Canceled)
}
