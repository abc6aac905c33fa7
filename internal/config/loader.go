package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "cnread"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "CNREAD"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader on the global viper instance so that flag
// bindings made by the CLI are honoured.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// NewLoaderWithViper creates a loader on an isolated viper instance.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	if v == nil {
		v = viper.New()
	}
	return &Loader{v: v}
}

// Load reads the first config file found on the search paths, then applies
// environment variables and defaults, and validates the result.
func (l *Loader) Load() (*Config, error) {
	return l.load("", true)
}

// LoadWithoutValidation is Load without the final validation step.
func (l *Loader) LoadWithoutValidation() (*Config, error) {
	return l.load("", false)
}

// LoadWithFile loads configuration from a specific file path.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	return l.load(configFile, true)
}

// LoadWithFileWithoutValidation loads a specific file without validation.
func (l *Loader) LoadWithFileWithoutValidation(configFile string) (*Config, error) {
	return l.load(configFile, false)
}

func (l *Loader) load(configFile string, validate bool) (*Config, error) {
	if configFile != "" {
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", configFile)
		}
		l.v.SetConfigFile(configFile)
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		l.addConfigPaths()
	}

	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case configFile != "":
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		case !errors.As(err, &notFound):
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No file on the search paths: defaults and env vars only.
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if validate {
		if err := config.Validate(); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}
	return &config, nil
}

// Get returns a value from the configuration.
func (l *Loader) Get(key string) interface{} {
	return l.v.Get(key)
}

// GetString returns a string value from the configuration.
func (l *Loader) GetString(key string) string {
	return l.v.GetString(key)
}

// Set sets a value in the configuration.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance for advanced usage.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

func (l *Loader) addConfigPaths() {
	for _, p := range GetConfigSearchPaths() {
		l.v.AddConfigPath(p)
	}
}

func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	// CNREAD_BATCH_WORKERS maps to batch.workers.
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults registers every key so that AutomaticEnv can see it during
// Unmarshal.
func (l *Loader) setDefaults() {
	d := DefaultConfig()

	l.v.SetDefault("log_level", d.LogLevel)
	l.v.SetDefault("log_format", d.LogFormat)
	l.v.SetDefault("verbose", d.Verbose)
	l.v.SetDefault("log_file.path", d.LogFile.Path)
	l.v.SetDefault("log_file.max_size_mb", d.LogFile.MaxSizeMB)
	l.v.SetDefault("log_file.max_backups", d.LogFile.MaxBackups)
	l.v.SetDefault("log_file.max_age_days", d.LogFile.MaxAgeDays)
	l.v.SetDefault("log_file.compress", d.LogFile.Compress)

	l.v.SetDefault("detection.sidecar_suffix", d.Detection.SidecarSuffix)
	l.v.SetDefault("detection.region_min_confidence", d.Detection.RegionMinConfidence)
	l.v.SetDefault("detection.char_min_confidence", d.Detection.CharMinConfidence)

	l.v.SetDefault("region.margin", d.Region.Margin)

	l.v.SetDefault("reassembly.min_vertical", d.Reassembly.MinVertical)
	l.v.SetDefault("reassembly.exact_horizontal", d.Reassembly.ExactHorizontal)
	l.v.SetDefault("reassembly.vertical_margin.x", d.Reassembly.VerticalMargin.X)
	l.v.SetDefault("reassembly.vertical_margin.y", d.Reassembly.VerticalMargin.Y)
	l.v.SetDefault("reassembly.horizontal_margin.x", d.Reassembly.HorizontalMargin.X)
	l.v.SetDefault("reassembly.horizontal_margin.y", d.Reassembly.HorizontalMargin.Y)
	l.v.SetDefault("reassembly.border", d.Reassembly.Border)

	l.v.SetDefault("recognition.min_confidence", d.Recognition.MinConfidence)
	l.v.SetDefault("recognition.retry_on_sentinel", d.Recognition.RetryOnSentinel)
	l.v.SetDefault("recognition.language", d.Recognition.Language)
	l.v.SetDefault("recognition.tessdata_prefix", d.Recognition.TessdataPrefix)
	l.v.SetDefault("recognition.primary.enabled", d.Recognition.Primary.Enabled)
	l.v.SetDefault("recognition.primary.page_seg_mode", d.Recognition.Primary.PageSegMode)
	l.v.SetDefault("recognition.secondary.enabled", d.Recognition.Secondary.Enabled)
	l.v.SetDefault("recognition.secondary.page_seg_mode", d.Recognition.Secondary.PageSegMode)

	l.v.SetDefault("output.format", d.Output.Format)
	l.v.SetDefault("output.file", d.Output.File)
	l.v.SetDefault("output.overlay_dir", d.Output.OverlayDir)
	l.v.SetDefault("output.crop_dir", d.Output.CropDir)

	l.v.SetDefault("batch.workers", d.Batch.Workers)
	l.v.SetDefault("batch.recursive", d.Batch.Recursive)
	l.v.SetDefault("batch.continue_on_error", d.Batch.ContinueOnError)
	l.v.SetDefault("batch.progress", d.Batch.Progress)

	l.v.SetDefault("metrics.file", d.Metrics.File)
}

// GetResolvedConfig returns the current resolved configuration for debugging.
func (l *Loader) GetResolvedConfig() map[string]interface{} {
	return l.v.AllSettings()
}

// WriteConfigToFile writes the current configuration to a file.
func (l *Loader) WriteConfigToFile(filename string) error {
	return l.v.WriteConfigAs(filename)
}

// GenerateDefaultConfigFile writes the defaults to filename, or cnread.yaml.
func GenerateDefaultConfigFile(filename string) error {
	loader := NewLoaderWithViper(viper.New())
	loader.setDefaults()

	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}
	return loader.WriteConfigToFile(filename)
}

// GetConfigSearchPaths returns the paths where configuration files are searched.
func GetConfigSearchPaths() []string {
	paths := []string{"."}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
		if _, ok := os.LookupEnv("XDG_CONFIG_HOME"); !ok {
			paths = append(paths, filepath.Join(home, ".config", ConfigFileName))
		}
	}
	if configDir, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		paths = append(paths, filepath.Join(configDir, ConfigFileName))
	}

	return append(paths, filepath.Join("/etc", ConfigFileName))
}
