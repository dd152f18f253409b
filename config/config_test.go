// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingGivesDefaults(t *testing.T) {
	config, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
	assert.NoError(t, config.Validate())
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pyrust.yaml")
	config := DefaultConfig()
	config.Check.LenientReturns = true
	config.Run.MaxSteps = 500
	config.AST.Format = "pretty"
	require.NoError(t, config.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, config, loaded)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pyrust.yaml")
	require.NoError(t, os.WriteFile(path, []byte("run:\n  entry: start\n"), 0644))

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "start", config.Run.Entry)
	assert.Equal(t, "30s", config.Run.Timeout)
	assert.Equal(t, "AST.txt", config.AST.Output)
}

func TestBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pyrust.yaml")
	require.NoError(t, os.WriteFile(path, []byte("run: [unclosed\n"), 0644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestEnvOverrides(t *testing.T) {
	t.Run("values", func(t *testing.T) {
		t.Setenv("PYRUST_LENIENT_RETURNS", "true")
		t.Setenv("PYRUST_ENTRY", "other")
		t.Setenv("PYRUST_MAX_STEPS", "42")
		t.Setenv("PYRUST_TIMEOUT", "1m")
		t.Setenv("PYRUST_AST_OUTPUT", "out.txt")
		t.Setenv("PYRUST_LOG_LEVEL", "debug")

		config, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.True(t, config.Check.LenientReturns)
		assert.Equal(t, "other", config.Run.Entry)
		assert.Equal(t, 42, config.Run.MaxSteps)
		assert.Equal(t, "out.txt", config.AST.Output)
		assert.Equal(t, "debug", config.Logging.Level)
		timeout, err := config.RunTimeout()
		require.NoError(t, err)
		assert.Equal(t, time.Minute, timeout)
	})

	t.Run("bad number", func(t *testing.T) {
		t.Setenv("PYRUST_MAX_STEPS", "lots")
		config := DefaultConfig()
		assert.ErrorContains(t, config.applyEnvOverrides(), "PYRUST_MAX_STEPS")
	})

	t.Run("bad bool", func(t *testing.T) {
		t.Setenv("PYRUST_LENIENT_RETURNS", "sometimes")
		config := DefaultConfig()
		assert.ErrorContains(t, config.applyEnvOverrides(), "PYRUST_LENIENT_RETURNS")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ConfigT)
		want   string
	}{
		{"no entry", func(c *ConfigT) { c.Run.Entry = "" }, "run.entry"},
		{"negative steps", func(c *ConfigT) { c.Run.MaxSteps = -1 }, "run.max_steps"},
		{"bad timeout", func(c *ConfigT) { c.Run.Timeout = "soon" }, "run.timeout"},
		{"negative timeout", func(c *ConfigT) { c.Run.Timeout = "-1s" }, "run.timeout"},
		{"bad format", func(c *ConfigT) { c.AST.Format = "xml" }, "ast.format"},
		{"negative indent", func(c *ConfigT) { c.AST.Indent = -2 }, "ast.indent"},
		{"bad level", func(c *ConfigT) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad log format", func(c *ConfigT) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := DefaultConfig()
			test.modify(config)
			assert.ErrorContains(t, config.Validate(), test.want)
		})
	}
}

func TestNoTimeout(t *testing.T) {
	config := DefaultConfig()
	config.Run.Timeout = ""
	timeout, err := config.RunTimeout()
	require.NoError(t, err)
	assert.Zero(t, timeout)
}
