// Package pipeline chains region detection, region selection, the
// character stage, recognition and correction into one container code
// reading per image.
package pipeline

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/MeKo-Tech/cnread/internal/charseq"
	"github.com/MeKo-Tech/cnread/internal/recognizer"
	"github.com/MeKo-Tech/cnread/internal/region"
)

const (
	// DefaultRegionConfidence is the minimum confidence of a region box.
	DefaultRegionConfidence = 0.6
)

// Config holds the immutable engine settings of a pipeline.
type Config struct {
	// RegionMinConfidence drops region boxes below this score.
	RegionMinConfidence float64
	// RecognizerMinConfidence drops candidates at or below this score.
	RecognizerMinConfidence float64
	// Selector chooses the code region.
	Selector region.Selector
	// Characters decides and performs reassembly.
	Characters charseq.Stage
	// RetryOnSentinel re-reads the original crop once when a reassembled
	// horizontal strip produced no code.
	RetryOnSentinel bool
	// Parallel configures ProcessImagesParallel.
	Parallel ParallelConfig
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		RegionMinConfidence:     DefaultRegionConfidence,
		RecognizerMinConfidence: recognizer.DefaultMinConfidence,
		Selector:                region.NewSelector(),
		Characters:              charseq.NewStage(),
		RetryOnSentinel:         true,
		Parallel:                DefaultParallelConfig(),
	}
}

// Validate checks thresholds and margins.
func (c Config) Validate() error {
	if c.RegionMinConfidence < 0 || c.RegionMinConfidence > 1 {
		return fmt.Errorf("region confidence %.2f out of range [0,1]", c.RegionMinConfidence)
	}
	if c.RecognizerMinConfidence < 0 || c.RecognizerMinConfidence > 1 {
		return fmt.Errorf("recognizer confidence %.2f out of range [0,1]", c.RecognizerMinConfidence)
	}
	if c.Selector.Margin < 0 {
		return errors.New("region margin must be >= 0")
	}
	if err := c.Characters.Policy.Validate(); err != nil {
		return err
	}
	if c.Characters.Reassembler.Border < 0 {
		return errors.New("reassembly border must be >= 0")
	}
	return nil
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg         Config
	regions     RegionDetector
	chars       CharDetector
	recognizers []Recognizer
	corrector   Corrector
	metrics     *Metrics
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithConfig replaces the whole engine configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithRegionDetector sets the region detector.
func (b *Builder) WithRegionDetector(d RegionDetector) *Builder {
	b.regions = d
	return b
}

// WithCharDetector sets the character detector. Without one the selected
// crop goes to the recognizers as is.
func (b *Builder) WithCharDetector(d CharDetector) *Builder {
	b.chars = d
	return b
}

// WithDetectors sets one value as both region and character detector.
func (b *Builder) WithDetectors(d interface {
	RegionDetector
	CharDetector
},
) *Builder {
	b.regions = d
	b.chars = d
	return b
}

// WithRecognizers sets the recognizers whose readings are merged by the
// corrector. One or two are supported.
func (b *Builder) WithRecognizers(r ...Recognizer) *Builder {
	b.recognizers = r
	return b
}

// WithCorrector overrides the default ChecksumCorrector.
func (b *Builder) WithCorrector(c Corrector) *Builder {
	b.corrector = c
	return b
}

// WithMetrics records outcomes into m.
func (b *Builder) WithMetrics(m *Metrics) *Builder {
	b.metrics = m
	return b
}

// WithRegionMargin sets the margin around selected regions.
func (b *Builder) WithRegionMargin(px int) *Builder {
	b.cfg.Selector.Margin = px
	return b
}

// WithPolicy sets the reassembly trigger thresholds.
func (b *Builder) WithPolicy(p charseq.Policy) *Builder {
	b.cfg.Characters.Policy = p
	return b
}

// WithRetry toggles the second recognition pass.
func (b *Builder) WithRetry(enabled bool) *Builder {
	b.cfg.RetryOnSentinel = enabled
	return b
}

// WithParallelWorkers sets the number of parallel workers for batch processing.
func (b *Builder) WithParallelWorkers(workers int) *Builder {
	if workers > 0 {
		b.cfg.Parallel.MaxWorkers = workers
	}
	return b
}

// WithProgressCallback sets the progress callback for batch processing.
func (b *Builder) WithProgressCallback(callback ProgressCallback) *Builder {
	b.cfg.Parallel.ProgressCallback = callback
	return b
}

// Config returns a copy of the current config.
func (b *Builder) Config() Config { return b.cfg }

// Validate checks that collaborators are set and configuration looks sane.
func (b *Builder) Validate() error {
	if b.regions == nil {
		return errors.New("region detector is not set")
	}
	switch n := len(b.recognizers); {
	case n == 0:
		return errors.New("at least one recognizer is required")
	case n > 2:
		return fmt.Errorf("at most two recognizers are supported, got %d", n)
	}
	for i, r := range b.recognizers {
		if r == nil {
			return fmt.Errorf("recognizer %d is nil", i)
		}
	}
	return b.cfg.Validate()
}

// Build validates the configuration and returns the pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	corr := b.corrector
	if corr == nil {
		corr = NewChecksumCorrector()
	}
	cfg := b.cfg
	if cfg.Parallel.MaxWorkers <= 0 {
		cfg.Parallel.MaxWorkers = runtime.NumCPU()
	}
	return &Pipeline{
		cfg:         cfg,
		Regions:     b.regions,
		Chars:       b.chars,
		Recognizers: append([]Recognizer(nil), b.recognizers...),
		Corrector:   corr,
		Metrics:     b.metrics,
	}, nil
}

// Pipeline wires together detectors, recognizers and the corrector.
type Pipeline struct {
	cfg         Config
	Regions     RegionDetector
	Chars       CharDetector
	Recognizers []Recognizer
	Corrector   Corrector
	Metrics     *Metrics
}

// Close releases collaborators that hold resources.
func (p *Pipeline) Close() error {
	var errs []error
	for _, r := range p.Recognizers {
		if c, ok := r.(interface{ Close() error }); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Info returns a map with key pipeline properties.
func (p *Pipeline) Info() map[string]any {
	policy := p.cfg.Characters.Policy
	re := p.cfg.Characters.Reassembler
	return map[string]any{
		"region_min_confidence":     p.cfg.RegionMinConfidence,
		"recognizer_min_confidence": p.cfg.RecognizerMinConfidence,
		"region_margin":             p.cfg.Selector.Margin,
		"char_detector":             p.Chars != nil,
		"recognizers":               len(p.Recognizers),
		"retry_on_sentinel":         p.cfg.RetryOnSentinel,
		"policy": map[string]any{
			"min_vertical":     policy.MinVertical,
			"exact_horizontal": policy.ExactHorizontal,
			"min_confidence":   policy.MinConfidence,
		},
		"reassembly": map[string]any{
			"vertical_margin":   re.Vertical,
			"horizontal_margin": re.Horizontal,
			"border":            re.Border,
		},
		"parallel": map[string]any{
			"max_workers":           p.cfg.Parallel.MaxWorkers,
			"has_progress_callback": p.cfg.Parallel.ProgressCallback != nil,
		},
		"metrics": p.Metrics != nil,
	}
}
