package cmd

import (
	"github.com/MeKo-Tech/cnread/internal/batch"
	"github.com/MeKo-Tech/cnread/internal/detection"
	"github.com/MeKo-Tech/cnread/internal/pipeline"
	"github.com/spf13/cobra"
)

func newBatchCommand(a *app) *cobra.Command {
	var (
		include   []string
		exclude   []string
		showStats bool
	)

	cmd := &cobra.Command{
		Use:   "batch [files or directories...]",
		Short: "Extract container numbers from many images in parallel",
		Long: `Process image files and directories with a pool of workers. Every image
needs a detections sidecar next to it. Failed images are reported and,
unless --continue-on-error=false, do not stop the run.

Examples:
  cnread batch photos/
  cnread batch photos/ --recursive --workers 8 --format csv --output codes.csv
  cnread batch gate/ --include 'cam1_*' --metrics-file /var/lib/node_exporter/cnread.prom`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBatch(cmd, args, include, exclude, showStats)
		},
	}

	f := cmd.Flags()
	f.IntP("workers", "w", 0, "number of parallel workers (default: number of CPUs)")
	f.BoolP("recursive", "r", false, "descend into sub-directories")
	f.Bool("continue-on-error", true, "keep going when an image fails")
	f.Bool("progress", false, "draw a progress bar on stderr")
	f.StringP("format", "f", outputFormatText, "output format (text, json, csv, yaml)")
	f.StringP("output", "o", "", "write results to this file instead of stdout")
	f.String("overlay-dir", "", "directory for overlay images")
	f.String("crop-dir", "", "directory for region crops and reassembled strips")
	f.String("metrics-file", "", "write Prometheus metrics to this file when done")
	f.StringSliceVar(&include, "include", nil, "only process files matching these glob patterns")
	f.StringSliceVar(&exclude, "exclude", nil, "skip files matching these glob patterns")
	f.BoolVar(&showStats, "stats", false, "print processing statistics to stderr")

	a.bindLocal(cmd, "batch.workers", "workers")
	a.bindLocal(cmd, "batch.recursive", "recursive")
	a.bindLocal(cmd, "batch.continue_on_error", "continue-on-error")
	a.bindLocal(cmd, "batch.progress", "progress")
	a.bindLocal(cmd, "output.format", "format")
	a.bindLocal(cmd, "output.file", "output")
	a.bindLocal(cmd, "output.overlay_dir", "overlay-dir")
	a.bindLocal(cmd, "output.crop_dir", "crop-dir")
	a.bindLocal(cmd, "metrics.file", "metrics-file")
	return cmd
}

func (a *app) runBatch(cmd *cobra.Command, paths, include, exclude []string, showStats bool) error {
	var progress pipeline.ProgressCallback
	if a.cfg.Batch.Progress {
		progress = pipeline.NewConsoleProgressCallback(cmd.ErrOrStderr(), "Processing: ")
	}

	pl, err := a.buildPipeline(detection.NewPathDetector(a.cfg.Detection.SidecarSuffix), progress)
	if err != nil {
		return err
	}
	defer func() {
		if err := pl.Close(); err != nil {
			a.logger.Error("Closing pipeline failed", "error", err)
		}
	}()

	bc := &batch.Config{
		Workers:         a.cfg.Batch.Workers,
		ContinueOnError: a.cfg.Batch.ContinueOnError,
		Recursive:       a.cfg.Batch.Recursive,
		IncludePatterns: include,
		ExcludePatterns: exclude,
		OverlayDir:      a.cfg.Output.OverlayDir,
		CropDir:         a.cfg.Output.CropDir,
		MetricsFile:     a.cfg.Metrics.File,
		Progress:        progress,
		Logger:          a.logger,
	}

	res, err := batch.ProcessBatch(cmd.Context(), pl, paths, bc)
	if res != nil {
		if saveErr := res.SaveResults(cmd.OutOrStdout(), a.cfg.Output.Format, a.cfg.Output.File); saveErr != nil {
			return saveErr
		}
		if showStats {
			res.PrintStats(cmd.ErrOrStderr())
		}
	}
	return err
}
