// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

// The pyrust command: parse, check and run programs written in a small
// subset of Rust.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/s48/pyrust/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	configPath string

	cfg    = config.DefaultConfig()
	logger = zap.NewNop()
)

var errInputMissing = errors.New("input file does not exist")

var rootCmd = &cobra.Command{
	Use:   "pyrust",
	Short: "Front end and interpreter for a small subset of Rust",
	Long: `pyrust reads programs written in a small subset of Rust.

It can print their tokens or syntax tree, check them for the usual
mistakes (undefined names, assignments to immutable bindings, return
type mismatches, constant cycles) and run them.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", configPath, err)
		}
		cfg = loaded
		logger, err = buildLogger(cfg.Logging, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func buildLogger(settings config.LoggingConfigT, verbose bool) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	zapConfig.Encoding = settings.Format
	level, err := zapcore.ParseLevel(settings.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	built, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return built, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Config file")

	rootCmd.AddCommand(astCmd)
	rootCmd.AddCommand(tokensCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sampleCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Reads a source file, giving the traditional message if it isn't
// there.

func readSource(path string) ([]byte, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, errInputMissing)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return source, nil
}

func isArchive(path string) bool {
	return strings.HasSuffix(path, ".txtar")
}
