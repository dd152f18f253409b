// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/s48/pyrust/eval"
	"github.com/s48/pyrust/fixture"
	"github.com/s48/pyrust/front"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runSets    []string
	runNoCheck bool
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Check a file and run its main function",
	Long: `Checks a file and then runs it.  The file is either Rust source or
a txtar archive holding the source along with overrides and expected
output; archives report whether the run matched the expectations.

--set replaces the initial value of a top-level constant or of a 'let'
in the entry function, as in '--set x=9 --set b=false'.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringArrayVar(&runSets, "set", nil, "Override an initial value (name=value)")
	runCmd.Flags().BoolVar(&runNoCheck, "no-check", false, "Skip the checker")
}

func runRun(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	path := args[0]
	var testCase *fixture.CaseT
	if isArchive(path) {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", path, errInputMissing)
		}
		loaded, err := fixture.Load(path)
		if err != nil {
			return err
		}
		testCase = loaded
	} else {
		source, err := readSource(path)
		if err != nil {
			return err
		}
		testCase = &fixture.CaseT{Name: path, SourceName: path, Source: source, Overrides: map[string]string{}}
	}
	for _, set := range runSets {
		name, value, found := strings.Cut(set, "=")
		if !found {
			return fmt.Errorf("bad --set '%s', expected name=value", set)
		}
		testCase.Overrides[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}

	file, err := front.Parse(testCase.SourceName, testCase.Source)
	if err != nil {
		return err
	}
	if !runNoCheck {
		if err := checkFile(cmd.ErrOrStderr(), file); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	timeout, err := cfg.RunTimeout()
	if err != nil {
		return err
	}
	if timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// Output is shown as it is printed and kept for comparing with a
	// fixture's expectations.
	var stdout strings.Builder
	result, err := eval.Run(ctx, file, eval.OptionsT{
		Entry:     cfg.Run.Entry,
		Stdout:    io.MultiWriter(cmd.OutOrStdout(), &stdout),
		Stderr:    cmd.ErrOrStderr(),
		MaxSteps:  cfg.Run.MaxSteps,
		Overrides: testCase.Overrides,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	logger.Info("run finished",
		zap.String("file", testCase.SourceName),
		zap.Stringer("value", result.Value),
		zap.Int("steps", result.Steps))
	if !result.Value.IsUnit() || result.Returned {
		fmt.Fprintf(cmd.OutOrStdout(), "=> %s\n", result.Value.Debug())
	}
	if isArchive(path) {
		return compareRun(testCase, stdout.String(), result)
	}
	return nil
}

func compareRun(testCase *fixture.CaseT, stdout string, result *eval.ResultT) error {
	var errs []error
	if expected, found := testCase.Expected("stdout"); found && expected != stdout {
		errs = append(errs, fmt.Errorf("%s: output was %q, expected %q", testCase.Name, stdout, expected))
	}
	if expected, found := testCase.Expected("result"); found {
		if want, got := strings.TrimSpace(expected), result.Value.Debug(); want != got {
			errs = append(errs, fmt.Errorf("%s: result was %s, expected %s", testCase.Name, got, want))
		}
	}
	return errors.Join(errs...)
}
