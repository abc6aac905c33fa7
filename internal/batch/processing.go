package batch

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/cnread/internal/pipeline"
	"github.com/MeKo-Tech/cnread/internal/utils"
)

// processSingleImage loads path, runs the pipeline and writes the optional
// overlay and crop artifacts.
func processSingleImage(ctx context.Context, pl *pipeline.Pipeline, path string, config *Config) (*pipeline.Result, error) {
	img, _, err := utils.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	res, err := pl.ProcessImageContext(withImagePath(ctx, path), img)
	if err != nil {
		return nil, err
	}

	if err := SaveArtifacts(img, res, path, config.OverlayDir, config.CropDir); err != nil {
		return res, err
	}
	return res, nil
}

// SaveArtifacts writes the overlay of res into overlayDir and the crops into
// cropDir, named after imagePath. Empty directories are skipped.
func SaveArtifacts(img image.Image, res *pipeline.Result, imagePath, overlayDir, cropDir string) error {
	if overlayDir != "" {
		if err := saveOverlay(img, res, imagePath, overlayDir); err != nil {
			return err
		}
	}
	if cropDir != "" {
		if err := saveCrops(res, imagePath, cropDir); err != nil {
			return err
		}
	}
	return nil
}

func artifactPath(dir, imagePath, suffix string) string {
	base := filepath.Base(imagePath)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+suffix+".png")
}

func saveOverlay(img image.Image, res *pipeline.Result, imagePath, dir string) error {
	ov := pipeline.RenderOverlay(img, res)
	if ov == nil {
		return nil
	}
	if err := utils.SavePNG(artifactPath(dir, imagePath, "_overlay"), ov); err != nil {
		return fmt.Errorf("save overlay: %w", err)
	}
	return nil
}

// saveCrops writes the selected region crop and, when reassembly ran, the
// character strip that was read instead.
func saveCrops(res *pipeline.Result, imagePath, dir string) error {
	if res.Crop != nil {
		if err := utils.SavePNG(artifactPath(dir, imagePath, "_crop"), res.Crop); err != nil {
			return fmt.Errorf("save crop: %w", err)
		}
	}
	if res.Strip != nil {
		if err := utils.SavePNG(artifactPath(dir, imagePath, "_strip"), res.Strip); err != nil {
			return fmt.Errorf("save strip: %w", err)
		}
	}
	return nil
}
