package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/MeKo-Tech/cnread/internal/charseq"
	"github.com/MeKo-Tech/cnread/internal/detection"
	"github.com/MeKo-Tech/cnread/internal/pipeline"
	"github.com/MeKo-Tech/cnread/internal/recognizer"
	"github.com/MeKo-Tech/cnread/internal/region"
	"github.com/go-playground/validator/v10"
)

// DefaultConfig returns a configuration with the engine defaults.
func DefaultConfig() Config {
	policy := charseq.DefaultPolicy()
	re := charseq.DefaultReassembler()
	return Config{
		LogLevel:  "info",
		LogFormat: "json",
		LogFile: LogFileConfig{
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
		Detection: DetectionConfig{
			SidecarSuffix:       detection.SidecarSuffix,
			RegionMinConfidence: pipeline.DefaultRegionConfidence,
			CharMinConfidence:   policy.MinConfidence,
		},
		Region: RegionConfig{Margin: region.DefaultMargin},
		Reassembly: ReassemblyConfig{
			MinVertical:      policy.MinVertical,
			ExactHorizontal:  policy.ExactHorizontal,
			VerticalMargin:   re.Vertical,
			HorizontalMargin: re.Horizontal,
			Border:           re.Border,
		},
		Recognition: RecognitionConfig{
			MinConfidence:   recognizer.DefaultMinConfidence,
			RetryOnSentinel: true,
			Language:        "eng",
			Primary:         TesseractConfig{Enabled: true, PageSegMode: 7},
			Secondary:       TesseractConfig{Enabled: true, PageSegMode: 13},
		},
		Output: OutputConfig{Format: "text"},
		Batch: BatchConfig{
			Workers:         runtime.NumCPU(),
			ContinueOnError: true,
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the rules that span fields.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return err
	}
	if !c.Recognition.Primary.Enabled {
		return errors.New("recognition.primary must be enabled")
	}
	if err := validateMargin(c.Reassembly.VerticalMargin, "reassembly.vertical_margin"); err != nil {
		return err
	}
	if err := validateMargin(c.Reassembly.HorizontalMargin, "reassembly.horizontal_margin"); err != nil {
		return err
	}
	pc := c.ToPipelineConfig()
	return pc.Validate()
}

func validateMargin(m charseq.Margin, name string) error {
	if m.X < 0 || m.Y < 0 {
		return fmt.Errorf("invalid %s: (%d,%d) (must be >= 0)", name, m.X, m.Y)
	}
	return nil
}

// ToPipelineConfig converts the config to the immutable engine configuration.
func (c *Config) ToPipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.RegionMinConfidence = c.Detection.RegionMinConfidence
	cfg.RecognizerMinConfidence = c.Recognition.MinConfidence
	cfg.Selector = region.Selector{Margin: c.Region.Margin}
	cfg.Characters = charseq.Stage{
		Policy: charseq.Policy{
			MinVertical:     c.Reassembly.MinVertical,
			ExactHorizontal: c.Reassembly.ExactHorizontal,
			MinConfidence:   c.Detection.CharMinConfidence,
		},
		Reassembler: charseq.Reassembler{
			Vertical:   c.Reassembly.VerticalMargin,
			Horizontal: c.Reassembly.HorizontalMargin,
			Border:     c.Reassembly.Border,
		},
	}
	cfg.RetryOnSentinel = c.Recognition.RetryOnSentinel
	cfg.Parallel.MaxWorkers = c.Batch.Workers
	return cfg
}

// ToTesseractConfigs returns the enabled recognizer instances, primary first.
func (c *Config) ToTesseractConfigs() []recognizer.TesseractConfig {
	var out []recognizer.TesseractConfig
	for _, inst := range []struct {
		name string
		cfg  TesseractConfig
	}{
		{"primary", c.Recognition.Primary},
		{"secondary", c.Recognition.Secondary},
	} {
		if !inst.cfg.Enabled {
			continue
		}
		tc := recognizer.DefaultTesseractConfig(inst.name)
		tc.Language = c.Recognition.Language
		tc.PageSegMode = inst.cfg.PageSegMode
		tc.TessdataPrefix = c.Recognition.TessdataPrefix
		out = append(out, tc)
	}
	return out
}
