// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

package main

import (
	"fmt"

	"github.com/s48/pyrust/sample"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sampleParams = sample.DefaultParams()

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Run the built-in version of the sample program",
	Long: `Runs a Go version of testdata/simple_main.txtar:

  if x > y, and x > Z and b, the result is true;
  if x < y, y counts down to x, "y era mayor" is printed and the
  result is false;
  otherwise nothing happens.`,
	Args: cobra.NoArgs,
	RunE: runSample,
}

func init() {
	flags := sampleCmd.Flags()
	flags.IntVar(&sampleParams.X, "x", sampleParams.X, "Initial x")
	flags.IntVar(&sampleParams.Y, "y", sampleParams.Y, "Initial y")
	flags.Int8Var(&sampleParams.Z, "z", sampleParams.Z, "The constant Z")
	flags.BoolVar(&sampleParams.B, "b", sampleParams.B, "The flag b")
}

func runSample(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	out := cmd.OutOrStdout()
	result, err := sample.Run(sampleParams, out)
	if err != nil {
		return err
	}
	logger.Debug("sample finished",
		zap.Int("y", result.Y),
		zap.Int("iterations", result.Iterations))
	fmt.Fprintf(out, "=> %s\n", result.Outcome)
	return nil
}
