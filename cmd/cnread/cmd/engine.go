package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/MeKo-Tech/cnread/internal/config"
	"github.com/MeKo-Tech/cnread/internal/pipeline"
	"github.com/MeKo-Tech/cnread/internal/recognizer"
)

// recognizerFactory opens the recognizers described by the configuration.
type recognizerFactory func(cfg *config.Config) ([]pipeline.Recognizer, error)

func tesseractRecognizers(cfg *config.Config) ([]pipeline.Recognizer, error) {
	var out []pipeline.Recognizer
	for _, tc := range cfg.ToTesseractConfigs() {
		t, err := recognizer.NewTesseract(tc)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("recognizer %s: %w", tc.Name, err), closeAll(out))
		}
		out = append(out, t)
	}
	return out, nil
}

func closeAll(recs []pipeline.Recognizer) error {
	var errs []error
	for _, r := range recs {
		if c, ok := r.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

type detectors interface {
	pipeline.RegionDetector
	pipeline.CharDetector
}

// buildPipeline assembles the engine from the loaded configuration.
func (a *app) buildPipeline(det detectors, progress pipeline.ProgressCallback) (*pipeline.Pipeline, error) {
	recs, err := a.newRecognizers(a.cfg)
	if err != nil {
		return nil, err
	}

	b := pipeline.NewBuilder().
		WithConfig(a.cfg.ToPipelineConfig()).
		WithDetectors(det).
		WithRecognizers(recs...).
		WithMetrics(pipeline.NewMetrics())
	if progress != nil {
		b = b.WithProgressCallback(progress)
	}

	pl, err := b.Build()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to build pipeline: %w", err), closeAll(recs))
	}
	a.logger.Debug("Pipeline ready", "info", pl.Info())
	return pl, nil
}
