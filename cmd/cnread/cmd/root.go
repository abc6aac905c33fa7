package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/cnread/internal/config"
	"github.com/MeKo-Tech/cnread/internal/logging"
	"github.com/MeKo-Tech/cnread/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// app is the state shared by one command tree.
type app struct {
	v       *viper.Viper
	cfgFile string

	cfg       *config.Config
	logger    *slog.Logger
	logCloser io.Closer

	newRecognizers recognizerFactory
	// flagKeys maps a command to the config keys its local flags override.
	flagKeys map[*cobra.Command]map[string]string
}

// Execute runs the CLI. It is called by main.main().
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCommand builds a fresh command tree with its own configuration state.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{v: viper.New(), newRecognizers: tesseractRecognizers})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "cnread",
		Short: "Container number extraction from photos",
		Long: `cnread reads ISO 6346 container numbers from photos of container doors
and walls. Region and character detections are supplied as JSON sidecar
files next to each image; recognition runs through Tesseract.

This tool provides:
- Region selection and character reassembly for vertical codes
- Check digit correction and validation
- Parallel batch processing with overlays and metrics
- Validation of CVAT ground-truth annotations

Examples:
  cnread image photo.jpg
  cnread batch photos/ --recursive --workers 8 --format csv
  cnread validate annotations.xml --format json
  cnread checkdigit CSQU305438`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.logCloser != nil {
				return a.logCloser.Close()
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/cnread, /etc/cnread)")
	pf.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "json", "log format (json, text)")
	pf.String("log-file", "", "also write logs to this rotating file")

	a.bind("verbose", pf.Lookup("verbose"))
	a.bind("log_level", pf.Lookup("log-level"))
	a.bind("log_format", pf.Lookup("log-format"))
	a.bind("log_file.path", pf.Lookup("log-file"))

	root.AddCommand(
		newImageCommand(a),
		newBatchCommand(a),
		newValidateCommand(a),
		newCheckDigitCommand(),
		newConfigCommand(a),
	)
	return root
}

// setup binds the running command's flags, loads the configuration and
// installs the logger.
func (a *app) setup(cmd *cobra.Command) error {
	for key, name := range a.flagKeys[cmd] {
		if err := a.v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}

	loader := config.NewLoaderWithViper(a.v)
	cfg, err := loader.LoadWithFile(a.cfgFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	a.cfg = cfg

	logger, closer, err := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		Verbose:    cfg.Verbose,
		Output:     cmd.ErrOrStderr(),
		File:       cfg.LogFile.Path,
		MaxSizeMB:  cfg.LogFile.MaxSizeMB,
		MaxBackups: cfg.LogFile.MaxBackups,
		MaxAgeDays: cfg.LogFile.MaxAgeDays,
		Compress:   cfg.LogFile.Compress,
	})
	if err != nil {
		return err
	}
	a.logger, a.logCloser = logger, closer
	slog.SetDefault(logger)

	if used := loader.GetConfigFileUsed(); used != "" {
		logger.Debug("Configuration loaded", "file", used)
	}
	return nil
}

// bind lets a persistent flag override key; config files and CNREAD_
// variables still apply when the flag is not set.
func (a *app) bind(key string, flag *pflag.Flag) {
	_ = a.v.BindPFlag(key, flag)
}

// bindLocal is bind for a subcommand flag. Several subcommands share keys
// such as output.format, so binding waits until the command runs.
func (a *app) bindLocal(cmd *cobra.Command, key, flagName string) {
	if a.flagKeys == nil {
		a.flagKeys = make(map[*cobra.Command]map[string]string)
	}
	if a.flagKeys[cmd] == nil {
		a.flagKeys[cmd] = make(map[string]string)
	}
	a.flagKeys[cmd][key] = flagName
}
