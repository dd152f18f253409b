// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/s48/pyrust/config"
	"github.com/s48/pyrust/sample"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Puts the flag and config globals back to their defaults.

func reset(t *testing.T) {
	t.Helper()
	cfg = config.DefaultConfig()
	logger = zap.NewNop()
	astOut = "-"
	astFormat = ""
	astPretty = false
	astExpect = ""
	runSets = nil
	runNoCheck = false
	checkLenient = false
	sampleParams = sample.DefaultParams()
}

func testCommand() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	cmd := &cobra.Command{}
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	return cmd, &out, &errOut
}

func writeSource(t *testing.T, name string, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(source), 0644))
	return path
}

func TestMissingFile(t *testing.T) {
	reset(t)
	missing := filepath.Join(t.TempDir(), "missing.rs")
	for name, run := range map[string]func(*cobra.Command, []string) error{
		"ast":    runAST,
		"tokens": runTokens,
		"check":  runCheck,
		"run":    runRun,
	} {
		cmd, _, _ := testCommand()
		err := run(cmd, []string{missing})
		assert.True(t, errors.Is(err, errInputMissing), name)
	}
	cmd, _, _ := testCommand()
	err := runRun(cmd, []string{filepath.Join(t.TempDir(), "missing.txtar")})
	assert.ErrorIs(t, err, errInputMissing)
}

func TestAST(t *testing.T) {
	reset(t)
	path := writeSource(t, "a.rs", "const A: i32 = 1;")
	want := "(FILE (ITEM (CONST_ITEM A (TYPE i32) (LITERAL (NUM_LIT 1)))))\n"

	cmd, out, _ := testCommand()
	require.NoError(t, runAST(cmd, []string{path}))
	assert.Equal(t, want, out.String())

	astOut = filepath.Join(t.TempDir(), "AST.txt")
	cmd, out, _ = testCommand()
	require.NoError(t, runAST(cmd, []string{path}))
	assert.Empty(t, out.String())
	written, err := os.ReadFile(astOut)
	require.NoError(t, err)
	assert.Equal(t, want, string(written))

	astExpect = astOut
	cmd, _, _ = testCommand()
	assert.NoError(t, runAST(cmd, []string{path}))

	// Saved trees are compared as trees, not as text.
	astExpect = writeSource(t, "pretty.txt", "(FILE\n  (ITEM\n    (CONST_ITEM A (TYPE i32) (LITERAL (NUM_LIT 1)))))\n")
	cmd, _, _ = testCommand()
	assert.NoError(t, runAST(cmd, []string{path}))

	astExpect = writeSource(t, "short.txt", "(FILE (ITEM (CONST_ITEM A (TYPE i32) (LITERAL (NUM_LIT 1))))\n")
	cmd, _, _ = testCommand()
	err = runAST(cmd, []string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad expected AST")
	assert.Contains(t, err.Error(), "missing ')'")
}

func TestASTExpectDiff(t *testing.T) {
	reset(t)
	path := writeSource(t, "a.rs", "const A: i32 = 2;")
	astExpect = writeSource(t, "expected.txt", "(FILE (ITEM (CONST_ITEM A (TYPE i32) (LITERAL (NUM_LIT 1)))))\n")

	cmd, out, _ := testCommand()
	err := runAST(cmd, []string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AST differs from")
	assert.Contains(t, out.String(), "+++ parsed")
	assert.Contains(t, out.String(), "+(FILE (ITEM (CONST_ITEM A (TYPE i32) (LITERAL (NUM_LIT 2)))))")
}

func TestFormatAST(t *testing.T) {
	reset(t)
	path := writeSource(t, "a.rs", "fn f() {}")
	astPretty = true
	cmd, out, _ := testCommand()
	require.NoError(t, runAST(cmd, []string{path}))
	assert.Contains(t, out.String(), "FN_ITEM")

	_, err := formatAST(nil, "xml", 2)
	assert.EqualError(t, err, "unknown AST format 'xml'")
}

func TestTokens(t *testing.T) {
	reset(t)
	path := writeSource(t, "a.rs", "let x")
	cmd, out, _ := testCommand()
	require.NoError(t, runTokens(cmd, []string{path}))
	assert.Equal(t, "1:1\tLET let\n1:5\tID x\n", out.String())
}

func TestCheck(t *testing.T) {
	reset(t)
	path := writeSource(t, "a.rs", "fn main() { let x = 1; x = 2; }")
	cmd, out, _ := testCommand()
	err := runCheck(cmd, []string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 errors")
	assert.Contains(t, out.String(), "1:26: error: cannot assign twice to immutable variable 'x'")

	path = writeSource(t, "b.rs", "fn main() -> i32 { let mut x = 1; x = 2; x }")
	cmd, out, _ = testCommand()
	assert.NoError(t, runCheck(cmd, []string{path}))
	assert.Empty(t, out.String())
}

func TestRunFixtures(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"simple_main", "y era mayor\n=> false\n"},
		{"simple_main_x_greater", "=> true\n"},
		{"simple_main_b_false", ""},
		{"simple_main_equal", ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			reset(t)
			checkLenient = true
			cmd, out, errOut := testCommand()
			require.NoError(t, runRun(cmd, []string{"../../testdata/" + test.name + ".txtar"}))
			assert.Equal(t, test.want, out.String())
			assert.Contains(t, errOut.String(), "warning: mismatched types")
		})
	}
}

func TestRunChecksFirst(t *testing.T) {
	reset(t)
	cmd, out, errOut := testCommand()
	err := runRun(cmd, []string{"../../testdata/simple_main.txtar"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 errors")
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "error: mismatched types: function 'main' returns (), found bool")

	runNoCheck = true
	cmd, out, _ = testCommand()
	require.NoError(t, runRun(cmd, []string{"../../testdata/simple_main.txtar"}))
	assert.Equal(t, "y era mayor\n=> false\n", out.String())
}

func TestRunSet(t *testing.T) {
	reset(t)
	runNoCheck = true
	runSets = []string{"x=9", "y = 2"}
	cmd, out, _ := testCommand()
	err := runRun(cmd, []string{"../../testdata/simple_main.txtar"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output was \"\", expected \"y era mayor\\n\"")
	assert.Contains(t, err.Error(), "result was true, expected false")
	assert.Equal(t, "=> true\n", out.String())

	runSets = []string{"x"}
	cmd, _, _ = testCommand()
	assert.EqualError(t, runRun(cmd, []string{"../../testdata/simple_main.txtar"}),
		"bad --set 'x', expected name=value")
}

func TestRunSource(t *testing.T) {
	reset(t)
	path := writeSource(t, "a.rs", "fn main() -> i32 { println!(\"hi\"); 6 * 7 }")
	cmd, out, _ := testCommand()
	require.NoError(t, runRun(cmd, []string{path}))
	assert.Equal(t, "hi\n=> 42\n", out.String())

	// Output printed before a run is stopped still appears.
	cfg.Run.MaxSteps = 100
	path = writeSource(t, "b.rs", "fn main() { println!(\"started\"); loop { } }")
	cmd, out, _ = testCommand()
	err := runRun(cmd, []string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step limit of 100 exceeded")
	assert.Equal(t, "started\n", out.String())
}

func TestRunStreamsOutput(t *testing.T) {
	reset(t)
	path := writeSource(t, "a.rs", "fn main() { println!(\"one\"); println!(\"two\"); }")
	cmd, _, _ := testCommand()
	writes := &recordingWriter{}
	cmd.SetOut(writes)
	require.NoError(t, runRun(cmd, []string{path}))
	assert.Equal(t, []string{"one\n", "two\n"}, writes.writes)
}

// Keeps each write separately.

type recordingWriter struct {
	writes []string
}

func (writer *recordingWriter) Write(data []byte) (int, error) {
	writer.writes = append(writer.writes, string(data))
	return len(data), nil
}

func TestSample(t *testing.T) {
	reset(t)
	cmd, out, _ := testCommand()
	require.NoError(t, runSample(cmd, nil))
	assert.Equal(t, "y era mayor\n=> false\n", out.String())

	sampleParams.X = 9
	sampleParams.Y = 2
	cmd, out, _ = testCommand()
	require.NoError(t, runSample(cmd, nil))
	assert.Equal(t, "=> true\n", out.String())

	sampleParams.B = false
	cmd, out, _ = testCommand()
	require.NoError(t, runSample(cmd, nil))
	assert.Equal(t, "=> ()\n", out.String())
}

func TestBuildLogger(t *testing.T) {
	_, err := buildLogger(config.LoggingConfigT{Level: "loud", Format: "console"}, false)
	assert.Error(t, err)
	built, err := buildLogger(config.LoggingConfigT{Level: "warn", Format: "json"}, true)
	require.NoError(t, err)
	assert.True(t, built.Core().Enabled(zap.DebugLevel))
}
