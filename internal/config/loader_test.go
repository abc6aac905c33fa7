package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewLoader(t *testing.T) {
	assert.NotNil(t, NewLoader().GetViper())
	assert.NotNil(t, NewLoaderWithViper(nil).GetViper())
}

func TestLoadWithNoConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := NewLoaderWithViper(viper.New()).Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Region, cfg.Region)
	assert.Equal(t, DefaultConfig().Reassembly, cfg.Reassembly)
}

func TestLoadWithFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "custom.yaml", `
log_level: debug
region:
  margin: 8
reassembly:
  min_vertical: 10
  vertical_margin:
    x: 12
    y: 1
recognition:
  retry_on_sentinel: false
  secondary:
    enabled: false
output:
  format: json
`)
	loader := NewLoaderWithViper(viper.New())
	cfg, err := loader.LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8, cfg.Region.Margin)
	assert.Equal(t, 10, cfg.Reassembly.MinVertical)
	assert.Equal(t, 12, cfg.Reassembly.VerticalMargin.X)
	assert.Equal(t, 1, cfg.Reassembly.VerticalMargin.Y)
	assert.Equal(t, 11, cfg.Reassembly.ExactHorizontal, "unset keys keep defaults")
	assert.False(t, cfg.Recognition.RetryOnSentinel)
	assert.False(t, cfg.Recognition.Secondary.Enabled)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, path, loader.GetConfigFileUsed())
}

func TestLoadFromSearchPath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, "cnread.yaml", "batch:\n  workers: 3\n")

	cfg, err := NewLoaderWithViper(viper.New()).Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Batch.Workers)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CNREAD_LOG_LEVEL", "warn")
	t.Setenv("CNREAD_REGION_MARGIN", "11")
	t.Setenv("CNREAD_BATCH_CONTINUE_ON_ERROR", "false")

	cfg, err := NewLoaderWithViper(viper.New()).Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 11, cfg.Region.Margin)
	assert.False(t, cfg.Batch.ContinueOnError)
}

func TestLoadValidationFailure(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "output:\n  format: xml\n")

	_, err := NewLoaderWithViper(viper.New()).LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")

	cfg, err := NewLoaderWithViper(viper.New()).LoadWithFileWithoutValidation(path)
	require.NoError(t, err)
	assert.Equal(t, "xml", cfg.Output.Format)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoaderWithViper(viper.New()).LoadWithFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "does not exist")
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.yaml", "region: [unterminated\n")
	_, err := NewLoaderWithViper(viper.New()).LoadWithFile(path)
	assert.ErrorContains(t, err, "error reading config file")
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generated.yaml")
	require.NoError(t, GenerateDefaultConfigFile(path))

	cfg, err := NewLoaderWithViper(viper.New()).LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Reassembly, cfg.Reassembly)
	assert.Equal(t, DefaultConfig().Recognition, cfg.Recognition)
}

func TestGetConfigSearchPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	paths := GetConfigSearchPaths()
	assert.Equal(t, ".", paths[0])
	assert.Contains(t, paths, filepath.Join("/tmp/xdg", "cnread"))
	assert.Equal(t, "/etc/cnread", paths[len(paths)-1])
}

func TestLoaderAccessors(t *testing.T) {
	l := NewLoaderWithViper(viper.New())
	l.Set("output.format", "csv")
	assert.Equal(t, "csv", l.GetString("output.format"))
	assert.Equal(t, "csv", l.Get("output.format"))
	l.setDefaults()
	assert.Contains(t, l.GetResolvedConfig(), "reassembly")
}
