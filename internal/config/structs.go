//nolint:lll
package config

import "github.com/MeKo-Tech/cnread/internal/charseq"

// Config represents the complete configuration of the cnread application.
// It is loaded from configuration files, CNREAD_ environment variables and
// command-line flags.
type Config struct {
	// Global settings
	LogLevel  string        `mapstructure:"log_level" yaml:"log_level" json:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string        `mapstructure:"log_format" yaml:"log_format" json:"log_format" validate:"oneof=json text"`
	LogFile   LogFileConfig `mapstructure:"log_file" yaml:"log_file" json:"log_file"`
	Verbose   bool          `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Detection   DetectionConfig   `mapstructure:"detection" yaml:"detection" json:"detection"`
	Region      RegionConfig      `mapstructure:"region" yaml:"region" json:"region"`
	Reassembly  ReassemblyConfig  `mapstructure:"reassembly" yaml:"reassembly" json:"reassembly"`
	Recognition RecognitionConfig `mapstructure:"recognition" yaml:"recognition" json:"recognition"`
	Output      OutputConfig      `mapstructure:"output" yaml:"output" json:"output"`
	Batch       BatchConfig       `mapstructure:"batch" yaml:"batch" json:"batch"`
	Metrics     MetricsConfig     `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
}

// LogFileConfig configures the optional rotating log file.
type LogFileConfig struct {
	Path       string `mapstructure:"path" yaml:"path" json:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb" json:"max_size_mb" validate:"gte=1"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups" json:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days" json:"max_age_days" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress" yaml:"compress" json:"compress"`
}

// DetectionConfig contains detector collaborator settings.
type DetectionConfig struct {
	// SidecarSuffix is appended to an image path to find its detections file.
	SidecarSuffix       string  `mapstructure:"sidecar_suffix" yaml:"sidecar_suffix" json:"sidecar_suffix" validate:"required"`
	RegionMinConfidence float64 `mapstructure:"region_min_confidence" yaml:"region_min_confidence" json:"region_min_confidence" validate:"gte=0,lte=1"`
	CharMinConfidence   float64 `mapstructure:"char_min_confidence" yaml:"char_min_confidence" json:"char_min_confidence" validate:"gte=0,lte=1"`
}

// RegionConfig contains region selection settings.
type RegionConfig struct {
	Margin int `mapstructure:"margin" yaml:"margin" json:"margin" validate:"gte=0"`
}

// ReassemblyConfig contains the character reassembly trigger and geometry.
type ReassemblyConfig struct {
	MinVertical      int            `mapstructure:"min_vertical" yaml:"min_vertical" json:"min_vertical" validate:"gte=1"`
	ExactHorizontal  int            `mapstructure:"exact_horizontal" yaml:"exact_horizontal" json:"exact_horizontal" validate:"gte=1"`
	VerticalMargin   charseq.Margin `mapstructure:"vertical_margin" yaml:"vertical_margin" json:"vertical_margin"`
	HorizontalMargin charseq.Margin `mapstructure:"horizontal_margin" yaml:"horizontal_margin" json:"horizontal_margin"`
	Border           int            `mapstructure:"border" yaml:"border" json:"border" validate:"gte=0"`
}

// RecognitionConfig contains recognizer settings.
type RecognitionConfig struct {
	MinConfidence   float64         `mapstructure:"min_confidence" yaml:"min_confidence" json:"min_confidence" validate:"gte=0,lte=1"`
	RetryOnSentinel bool            `mapstructure:"retry_on_sentinel" yaml:"retry_on_sentinel" json:"retry_on_sentinel"`
	Language        string          `mapstructure:"language" yaml:"language" json:"language" validate:"required"`
	TessdataPrefix  string          `mapstructure:"tessdata_prefix" yaml:"tessdata_prefix" json:"tessdata_prefix"`
	Primary         TesseractConfig `mapstructure:"primary" yaml:"primary" json:"primary"`
	Secondary       TesseractConfig `mapstructure:"secondary" yaml:"secondary" json:"secondary"`
}

// TesseractConfig configures one recognizer instance.
type TesseractConfig struct {
	Enabled     bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	PageSegMode int  `mapstructure:"page_seg_mode" yaml:"page_seg_mode" json:"page_seg_mode" validate:"gte=0,lte=13"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format     string `mapstructure:"format" yaml:"format" json:"format" validate:"oneof=text json csv yaml"`
	File       string `mapstructure:"file" yaml:"file" json:"file"`
	OverlayDir string `mapstructure:"overlay_dir" yaml:"overlay_dir" json:"overlay_dir"`
	CropDir    string `mapstructure:"crop_dir" yaml:"crop_dir" json:"crop_dir"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Workers         int  `mapstructure:"workers" yaml:"workers" json:"workers" validate:"gte=1"`
	Recursive       bool `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	ContinueOnError bool `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
	Progress        bool `mapstructure:"progress" yaml:"progress" json:"progress"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	File string `mapstructure:"file" yaml:"file" json:"file"`
}
