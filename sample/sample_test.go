// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

package sample

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	var out strings.Builder
	result, err := Run(DefaultParams(), &out)
	require.NoError(t, err)
	assert.Equal(t, ResultT{Outcome: False, Y: 5, Iterations: 2, Lines: 1}, result)
	assert.Equal(t, "y era mayor\n", out.String())
}

func TestOutcomes(t *testing.T) {
	tests := []struct {
		name   string
		params ParamsT
		want   ResultT
		output string
	}{
		{"x greater", ParamsT{X: 9, Y: 2, Z: 1, B: true}, ResultT{Outcome: True, Y: 2}, ""},
		{"x not above Z", ParamsT{X: 1, Y: 0, Z: 1, B: true}, ResultT{Outcome: None, Y: 0}, ""},
		{"b false", ParamsT{X: 9, Y: 2, Z: 1, B: false}, ResultT{Outcome: None, Y: 2}, ""},
		{"equal", ParamsT{X: 4, Y: 4, Z: 1, B: true}, ResultT{Outcome: None, Y: 4}, ""},
		{"y greater", ParamsT{X: -3, Y: 10, Z: 1, B: false},
			ResultT{Outcome: False, Y: -3, Iterations: 13, Lines: 1}, "y era mayor\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var out strings.Builder
			result, err := Run(test.params, &out)
			require.NoError(t, err)
			assert.Equal(t, test.want, result)
			assert.Equal(t, test.output, out.String())
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestWriteError(t *testing.T) {
	_, err := Run(DefaultParams(), failingWriter{})
	assert.ErrorContains(t, err, "closed")
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "true", True.String())
	assert.Equal(t, "false", False.String())
	assert.Equal(t, "()", None.String())
}
