// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

// Settings for the pyrust command, read from a YAML file.  Missing
// files give the defaults; PYRUST_* environment variables override
// whatever the file says.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = ".pyrust.yaml"

type ConfigT struct {
	Check   CheckConfigT   `yaml:"check"`
	Run     RunConfigT     `yaml:"run"`
	AST     ASTConfigT     `yaml:"ast"`
	Logging LoggingConfigT `yaml:"logging"`
}

type CheckConfigT struct {
	// Returning a value from a function with no result type is only
	// a warning.  Lets the sample program run.
	LenientReturns bool `yaml:"lenient_returns"`
}

type RunConfigT struct {
	Entry    string `yaml:"entry"`
	MaxSteps int    `yaml:"max_steps"` // zero for no limit
	Timeout  string `yaml:"timeout"`   // a time.Duration, "" for none
}

type ASTConfigT struct {
	Output string `yaml:"output"`
	Format string `yaml:"format"` // one of ASTFormats
	Indent int    `yaml:"indent"` // for the "pretty" format
}

type LoggingConfigT struct {
	Level  string `yaml:"level"`  // debug, info, warn or error
	Format string `yaml:"format"` // json or console
}

var (
	ASTFormats = []string{"sexp", "pretty", "tuple"}
	LogLevels  = []string{"debug", "info", "warn", "error"}
	LogFormats = []string{"json", "console"}
)

func DefaultConfig() *ConfigT {
	return &ConfigT{
		Check: CheckConfigT{LenientReturns: false},
		Run: RunConfigT{
			Entry:    "main",
			MaxSteps: 10_000_000,
			Timeout:  "30s",
		},
		AST: ASTConfigT{
			Output: "AST.txt",
			Format: "sexp",
			Indent: 2,
		},
		Logging: LoggingConfigT{
			Level:  "info",
			Format: "console",
		},
	}
}

func Load(path string) (*ConfigT, error) {
	config := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := config.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return config, nil
}

func (config *ConfigT) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (config *ConfigT) applyEnvOverrides() error {
	if value := os.Getenv("PYRUST_LENIENT_RETURNS"); value != "" {
		lenient, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("PYRUST_LENIENT_RETURNS: %w", err)
		}
		config.Check.LenientReturns = lenient
	}
	if value := os.Getenv("PYRUST_ENTRY"); value != "" {
		config.Run.Entry = value
	}
	if value := os.Getenv("PYRUST_MAX_STEPS"); value != "" {
		steps, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("PYRUST_MAX_STEPS: %w", err)
		}
		config.Run.MaxSteps = steps
	}
	if value := os.Getenv("PYRUST_TIMEOUT"); value != "" {
		config.Run.Timeout = value
	}
	if value := os.Getenv("PYRUST_AST_OUTPUT"); value != "" {
		config.AST.Output = value
	}
	if value := os.Getenv("PYRUST_LOG_LEVEL"); value != "" {
		config.Logging.Level = value
	}
	return nil
}

func (config *ConfigT) Validate() error {
	if config.Run.Entry == "" {
		return fmt.Errorf("run.entry must name a function")
	}
	if config.Run.MaxSteps < 0 {
		return fmt.Errorf("run.max_steps must not be negative, got %d", config.Run.MaxSteps)
	}
	if _, err := config.RunTimeout(); err != nil {
		return err
	}
	if !slices.Contains(ASTFormats, config.AST.Format) {
		return fmt.Errorf("invalid ast.format: %s (valid: %v)", config.AST.Format, ASTFormats)
	}
	if config.AST.Indent < 0 {
		return fmt.Errorf("ast.indent must not be negative, got %d", config.AST.Indent)
	}
	if !slices.Contains(LogLevels, config.Logging.Level) {
		return fmt.Errorf("invalid logging.level: %s (valid: %v)", config.Logging.Level, LogLevels)
	}
	if !slices.Contains(LogFormats, config.Logging.Format) {
		return fmt.Errorf("invalid logging.format: %s (valid: %v)", config.Logging.Format, LogFormats)
	}
	return nil
}

// Zero means no timeout.
func (config *ConfigT) RunTimeout() (time.Duration, error) {
	if config.Run.Timeout == "" {
		return 0, nil
	}
	timeout, err := time.ParseDuration(config.Run.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid run.timeout: %w", err)
	}
	if timeout < 0 {
		return 0, fmt.Errorf("run.timeout must not be negative, got %s", config.Run.Timeout)
	}
	return timeout, nil
}
