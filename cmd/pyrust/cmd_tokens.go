// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

package main

import (
	"fmt"

	"github.com/s48/pyrust/front"
	"github.com/spf13/cobra"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens <file>",
	Short: "Print the tokens in a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokens,
}

func runTokens(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	source, err := readSource(args[0])
	if err != nil {
		return err
	}
	tokens, err := front.Lex(args[0], source)
	out := cmd.OutOrStdout()
	for _, token := range tokens {
		if token.Kind != front.TokEOF {
			fmt.Fprintf(out, "%s\t%s\n", token.Pos, token)
		}
	}
	return err
}
