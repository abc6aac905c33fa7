package batch

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/MeKo-Tech/cnread/internal/detection"
	"github.com/MeKo-Tech/cnread/internal/pipeline"
	"github.com/MeKo-Tech/cnread/internal/recognizer"
	"github.com/MeKo-Tech/cnread/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticRecognizer always reads the same text.
type staticRecognizer struct {
	text string
}

func (s staticRecognizer) Recognize(context.Context, image.Image) ([]recognizer.Candidate, error) {
	if s.text == "" {
		return nil, nil
	}
	return []recognizer.Candidate{{Text: s.text, Confidence: 0.95}}, nil
}

func newTestPipeline(t *testing.T, text string) *pipeline.Pipeline {
	t.Helper()
	pl, err := pipeline.NewBuilder().
		WithDetectors(detection.NewPathDetector("")).
		WithRecognizers(staticRecognizer{text: text}).
		WithMetrics(pipeline.NewMetrics()).
		Build()
	require.NoError(t, err)
	return pl
}

// writeScenes creates n plate scenes in dir, each with its sidecar.
func writeScenes(t *testing.T, dir string, n int) []string {
	t.Helper()
	cfg := testutil.DefaultSceneConfig()
	paths := make([]string, 0, n)
	for i := range n {
		name := "scene_" + string(rune('a'+i))
		paths = append(paths, testutil.WriteScene(t, dir, name, cfg, []detection.Box{testutil.PlateBox(cfg, 0.9)}, nil))
	}
	return paths
}

type countingProgress struct {
	pipeline.NoOpProgressCallback
	mu       sync.Mutex
	total    int
	progress int
	errors   int
}

func (c *countingProgress) OnStart(total int) { c.total = total }

func (c *countingProgress) OnProgress(int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.progress++
}

func (c *countingProgress) OnError(int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors++
}

func TestProcessBatch_Directory(t *testing.T) {
	dir := t.TempDir()
	paths := writeScenes(t, dir, 3)
	overlays := filepath.Join(t.TempDir(), "overlays")
	crops := filepath.Join(t.TempDir(), "crops")
	metrics := filepath.Join(t.TempDir(), "cnread.prom")
	progress := &countingProgress{}

	cfg := DefaultConfig()
	cfg.Workers = 2
	cfg.OverlayDir = overlays
	cfg.CropDir = crops
	cfg.MetricsFile = metrics
	cfg.Progress = progress

	res, err := ProcessBatch(context.Background(), newTestPipeline(t, "TTNU8655846"), []string{dir}, cfg)
	require.NoError(t, err)
	require.Len(t, res.Items, 3)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 2, res.WorkerCount)

	for i, it := range res.Items {
		assert.Equal(t, paths[i], it.File)
		require.NoError(t, it.Err)
		require.NotNil(t, it.Result)
		assert.Equal(t, pipeline.StatusFound, it.Result.Status)
		assert.Equal(t, "TTNU8655846", it.Result.Code)

		base := filepath.Base(paths[i])
		stem := base[:len(base)-len(filepath.Ext(base))]
		assert.FileExists(t, filepath.Join(overlays, stem+"_overlay.png"))
		assert.FileExists(t, filepath.Join(crops, stem+"_crop.png"))
	}

	assert.Equal(t, 3, progress.total)
	assert.Equal(t, 3, progress.progress)
	assert.Zero(t, progress.errors)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), `cnread_images_total{status="found"} 3`)

	stats := res.Stats()
	assert.Equal(t, 3, stats.ByStatus[pipeline.StatusFound])
}

func TestProcessBatch_ContinueOnError(t *testing.T) {
	dir := t.TempDir()
	writeScenes(t, dir, 2)
	// An image without a sidecar fails in the detector.
	orphan := filepath.Join(dir, "scene_z.png")
	testutil.SaveImage(t, testutil.GenerateScene(testutil.DefaultSceneConfig()), orphan)

	progress := &countingProgress{}
	cfg := DefaultConfig()
	cfg.Workers = 1
	cfg.Progress = progress

	res, err := ProcessBatch(context.Background(), newTestPipeline(t, "TTNU8655846"), []string{dir}, cfg)
	require.NoError(t, err)
	require.Len(t, res.Items, 3)
	assert.Error(t, res.Items[2].Err)
	assert.Nil(t, res.Items[2].Result)
	assert.Equal(t, 1, progress.errors)
	assert.Equal(t, 1, res.Stats().FailedImages)

	cfg.ContinueOnError = false
	res, err = ProcessBatch(context.Background(), newTestPipeline(t, "TTNU8655846"), []string{orphan}, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scene_z.png")
	require.NotNil(t, res)
}

func TestProcessBatch_Statuses(t *testing.T) {
	dir := t.TempDir()
	writeScenes(t, dir, 1)

	res, err := ProcessBatch(context.Background(), newTestPipeline(t, "TTNU8655840"), []string{dir}, nil)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusSentinel, res.Items[0].Result.Status)

	res, err = ProcessBatch(context.Background(), newTestPipeline(t, ""), []string{dir}, nil)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusNoText, res.Items[0].Result.Status)
}

func TestProcessBatch_InvalidInput(t *testing.T) {
	pl := newTestPipeline(t, "TTNU8655846")

	_, err := ProcessBatch(context.Background(), pl, []string{}, nil)
	assert.ErrorContains(t, err, "no image files found")

	_, err = ProcessBatch(context.Background(), pl, []string{"/nonexistent/file.png"}, nil)
	assert.ErrorContains(t, err, "cannot access")

	_, err = ProcessBatch(context.Background(), nil, []string{"x"}, nil)
	assert.ErrorContains(t, err, "pipeline not initialized")
}

func TestProcessBatch_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeScenes(t, dir, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ProcessBatch(ctx, newTestPipeline(t, "TTNU8655846"), []string{dir}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
