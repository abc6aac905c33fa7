// Package batch runs the extraction pipeline over files and directories.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/cnread/internal/detection"
	"github.com/MeKo-Tech/cnread/internal/logging"
	"github.com/MeKo-Tech/cnread/internal/pipeline"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ProcessBatch discovers images under paths and runs each through pl. The
// pipeline's detectors receive the image path through the context, see
// detection.WithImagePath.
func ProcessBatch(ctx context.Context, pl *pipeline.Pipeline, paths []string, config *Config) (*Result, error) {
	if pl == nil {
		return nil, errors.New("pipeline not initialized")
	}
	if config == nil {
		config = DefaultConfig()
	}

	files, err := discoverImageFiles(paths, config.Recursive, config.IncludePatterns, config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover image files: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no image files found")
	}

	runID := uuid.NewString()
	logger := config.logger().With(logging.RunIDKey, runID)
	workers := max(1, min(config.Workers, len(files)))
	logger.Info("Batch started", "images", len(files), "workers", workers)

	progress := config.Progress
	if progress == nil {
		progress = pipeline.NoOpProgressCallback{}
	}
	progress.OnStart(len(files))
	defer progress.OnComplete()

	items := make([]Item, len(files))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	start := time.Now()

	for i, path := range files {
		g.Go(func() error {
			items[i].File = path
			if err := gctx.Err(); err != nil {
				items[i].Err = err
				return err
			}
			res, err := processSingleImage(gctx, pl, path, config)
			items[i].Result = res
			items[i].Err = err

			current := int(done.Add(1))
			if err != nil {
				logger.Warn("Image failed", "file", path, "error", err)
				progress.OnError(current, err)
				progress.OnProgress(current, len(files))
				if config.ContinueOnError {
					return nil
				}
				return fmt.Errorf("%s: %w", path, err)
			}
			logger.Debug("Image processed", "file", path, "status", res.Status, "code", res.Code)
			progress.OnProgress(current, len(files))
			return nil
		})
	}
	waitErr := g.Wait()
	duration := time.Since(start)

	result := &Result{
		RunID:       runID,
		Items:       items,
		Duration:    duration,
		WorkerCount: workers,
	}
	stats := result.Stats()
	logger.Info("Batch completed",
		"processed", stats.ProcessedImages,
		"failed", stats.FailedImages,
		"duration", duration.Round(time.Millisecond))

	if config.MetricsFile != "" {
		if err := pl.Metrics.WriteToTextfile(config.MetricsFile); err != nil {
			logger.Error("Writing metrics failed", "file", config.MetricsFile, "error", err)
		}
	}

	if waitErr != nil {
		return result, fmt.Errorf("batch processing failed: %w", waitErr)
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// withImagePath tags ctx so sidecar-backed detectors can find their file.
func withImagePath(ctx context.Context, path string) context.Context {
	return detection.WithImagePath(ctx, path)
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
