// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

package main

import (
	"fmt"
	"io"

	"github.com/s48/pyrust/check"
	"github.com/s48/pyrust/front"
	"github.com/spf13/cobra"
)

var checkLenient bool

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Report problems in a file",
	Long: `Parses and checks a file, printing any errors and warnings.
Exits with a non-zero status if there are errors.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkLenient, "lenient", false,
		"Values returned from functions with no result type are only warnings")
	runCmd.Flags().BoolVar(&checkLenient, "lenient", false,
		"Values returned from functions with no result type are only warnings")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	source, err := readSource(args[0])
	if err != nil {
		return err
	}
	file, err := front.Parse(args[0], source)
	if err != nil {
		return err
	}
	return checkFile(cmd.OutOrStdout(), file)
}

// Prints the diagnostics for 'file' and returns an error if any of
// them are errors.

func checkFile(out io.Writer, file *front.FileT) error {
	diags := check.Check(file, check.OptionsT{
		Entry:          cfg.Run.Entry,
		LenientReturns: checkLenient || cfg.Check.LenientReturns,
		Logger:         logger,
	})
	errorCount := 0
	for _, diag := range diags {
		fmt.Fprintln(out, diag)
		if diag.Severity == check.Error {
			errorCount += 1
		}
	}
	if errorCount != 0 {
		return fmt.Errorf("%s: %d errors", file.Name, errorCount)
	}
	return nil
}
