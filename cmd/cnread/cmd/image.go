package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/MeKo-Tech/cnread/internal/batch"
	"github.com/MeKo-Tech/cnread/internal/detection"
	"github.com/MeKo-Tech/cnread/internal/pipeline"
	"github.com/MeKo-Tech/cnread/internal/utils"
	"github.com/spf13/cobra"
)

const (
	outputFormatText = "text"
	outputFormatJSON = "json"
	outputFormatCSV  = "csv"
	outputFormatYAML = "yaml"
)

func newImageCommand(a *app) *cobra.Command {
	var detectionsFile string

	cmd := &cobra.Command{
		Use:   "image [files...]",
		Short: "Extract the container number from one or more images",
		Long: `Process image files one after another and print the container number
found in each. Detections are read from <image>.detections.json unless
--detections points at a specific file (single image only).

Supported formats: JPEG, PNG, BMP

Examples:
  cnread image photo.jpg
  cnread image photo.jpg --detections boxes.json --format json
  cnread image *.png --overlay-dir overlays/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if detectionsFile != "" && len(args) != 1 {
				return errors.New("--detections can only be used with a single image")
			}
			return a.runImage(cmd, args, detectionsFile)
		},
	}

	f := cmd.Flags()
	f.StringP("format", "f", outputFormatText, "output format (text, json, csv, yaml)")
	f.StringP("output", "o", "", "write results to this file instead of stdout")
	f.String("overlay-dir", "", "directory for overlay images")
	f.String("crop-dir", "", "directory for region crops and reassembled strips")
	f.Bool("retry", true, "re-read the original crop when a reassembled horizontal strip yields no valid code")
	f.StringVar(&detectionsFile, "detections", "", "detections JSON for a single image")

	a.bindLocal(cmd, "output.format", "format")
	a.bindLocal(cmd, "output.file", "output")
	a.bindLocal(cmd, "output.overlay_dir", "overlay-dir")
	a.bindLocal(cmd, "output.crop_dir", "crop-dir")
	a.bindLocal(cmd, "recognition.retry_on_sentinel", "retry")
	return cmd
}

func (a *app) runImage(cmd *cobra.Command, files []string, detectionsFile string) error {
	var det detectors = detection.NewPathDetector(a.cfg.Detection.SidecarSuffix)
	if detectionsFile != "" {
		sc, err := detection.LoadSidecar(detectionsFile)
		if err != nil {
			return err
		}
		det = detection.NewSidecarDetector(sc)
	}

	pl, err := a.buildPipeline(det, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := pl.Close(); err != nil {
			a.logger.Error("Closing pipeline failed", "error", err)
		}
	}()

	out := a.cfg.Output
	start := time.Now()
	items := make([]batch.Item, 0, len(files))
	for _, path := range files {
		img, _, err := utils.LoadImage(path)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		ctx := detection.WithImagePath(cmd.Context(), path)
		res, err := pl.ProcessImageContext(ctx, img)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := batch.SaveArtifacts(img, res, path, out.OverlayDir, out.CropDir); err != nil {
			return err
		}
		a.logger.Info("Image processed", "file", path, "status", res.Status, "code", res.Code)
		items = append(items, batch.Item{File: path, Result: res})
	}

	var text string
	if len(items) == 1 {
		text, err = formatSingle(items[0].Result, out.Format)
	} else {
		r := &batch.Result{Items: items, Duration: time.Since(start), WorkerCount: 1}
		text, err = r.FormatResults(out.Format)
	}
	if err != nil {
		return err
	}
	return writeOutput(cmd, text, out.File)
}

func formatSingle(res *pipeline.Result, format string) (string, error) {
	var (
		s   string
		err error
	)
	switch format {
	case outputFormatJSON:
		s, err = pipeline.ToJSON(res)
	case outputFormatYAML:
		return pipeline.ToYAML(res)
	case outputFormatCSV:
		return pipeline.ToCSV(res)
	case outputFormatText, "":
		s, err = pipeline.ToPlainText(res)
	default:
		return "", fmt.Errorf("invalid output format: %s", format)
	}
	if err != nil {
		return "", err
	}
	return s + "\n", nil
}

// writeOutput prints text or stores it in file.
func writeOutput(cmd *cobra.Command, text, file string) error {
	if file == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), text)
		return err
	}
	if err := os.WriteFile(file, []byte(text), 0o600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
