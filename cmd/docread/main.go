// Package main is the docread CLI entry point.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperjump/docread/internal/config"
	"github.com/hyperjump/docread/internal/extract"
	"github.com/hyperjump/docread/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/docread/config.yaml"

// errFailures makes the process exit 1 without printing anything more; the
// per-path failures have already been reported.
var errFailures = errors.New("one or more paths failed")

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// A missing default file is not an error: built-in defaults apply and the returned path is empty.
// Returns the config and the path that was actually loaded (for saving, etc.).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	debug      bool
}

// app holds what a subcommand needs after config and logger setup.
type app struct {
	cfg        *config.Config
	configPath string
	debug      bool
	logger     *zap.Logger
}

// setup loads config and builds the logger. quiet selects a warn-level logger
// for one-shot commands whose stdout is the product.
func setup(g *globalFlags, quiet bool) (*app, error) {
	cfg, resolved, err := loadConfig(g.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	debug := cfg.Debug || g.debug
	var logger *zap.Logger
	if quiet && !debug {
		logger, err = utils.NewQuietLogger()
	} else {
		logger, err = utils.NewLogger(debug)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debug))
	return &app{cfg: cfg, configPath: resolved, debug: debug, logger: logger}, nil
}

// newExtractor builds an extractor from config.
func newExtractor(cfg *config.Config, logger *zap.Logger) *extract.Extractor {
	var policy extract.ReadPolicy = extract.ScaledLimitPolicy{Factor: cfg.Text.ScaleFactor}
	if cfg.Text.StreamThresholdMB > 0 {
		policy = extract.FixedLimitPolicy{LimitBytes: int64(cfg.Text.StreamThresholdMB * 1024 * 1024)}
	}
	return extract.NewExtractor(
		extract.WithLogger(logger),
		extract.WithDetector(extract.NewDetector(cfg.Text.SampleBytes)),
		extract.WithTextReader(extract.NewTextReader(policy)),
		extract.WithConverter(extract.NewExecConverter(cfg.Converter.Path, cfg.Converter.Args, cfg.Converter.Timeout)),
	)
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "docread",
		Short: "Extract plain text from .txt, .docx and .doc files",
		Long: "docread turns text files in any detectable encoding, Word 2007+ documents and\n" +
			"legacy Word documents (via antiword) into UTF-8 text.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", defaultConfigPath, "config file path")
	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newExtractCmd(g),
		newClassifyCmd(),
		newServeCmd(g),
		newWatchCmd(g),
		newDirsCmd(),
		newVersionCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errFailures) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
