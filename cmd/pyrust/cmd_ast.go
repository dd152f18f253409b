// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/s48/pyrust/front"
	"github.com/s48/pyrust/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	astOut    string
	astFormat string
	astPretty bool
	astExpect string
)

var astCmd = &cobra.Command{
	Use:   "ast <file>",
	Short: "Parse a file and write its syntax tree",
	Long: `Parses a file and writes its syntax tree as an S-expression, by
default to AST.txt.  Use '--out -' to write to standard output.

With --expect the tree is compared against a saved copy instead and
any differences are shown as a unified diff.`,
	Args: cobra.ExactArgs(1),
	RunE: runAST,
}

func init() {
	astCmd.Flags().StringVarP(&astOut, "out", "o", "", "Output file (default from config, '-' for stdout)")
	astCmd.Flags().StringVar(&astFormat, "format", "", "Output format: sexp, pretty or tuple")
	astCmd.Flags().BoolVar(&astPretty, "pretty", false, "Same as --format pretty")
	astCmd.Flags().StringVar(&astExpect, "expect", "", "Compare against this file instead of writing")
}

func runAST(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	path := args[0]
	source, err := readSource(path)
	if err != nil {
		return err
	}
	file, err := front.Parse(path, source)
	if err != nil {
		return err
	}
	format := astFormat
	if astPretty {
		format = "pretty"
	}
	if format == "" {
		format = cfg.AST.Format
	}
	text, err := formatAST(front.ToSExp(file), format, cfg.AST.Indent)
	if err != nil {
		return err
	}
	logger.Debug("parsed", zap.String("file", path), zap.Int("items", len(file.Items)))

	if astExpect != "" {
		return compareAST(cmd.OutOrStdout(), front.ToSExp(file), text, format, astExpect)
	}
	out := astOut
	if out == "" {
		out = cfg.AST.Output
	}
	if out == "-" {
		_, err := io.WriteString(cmd.OutOrStdout(), text)
		return err
	}
	if err := os.WriteFile(out, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write AST: %w", err)
	}
	logger.Info("wrote AST", zap.String("file", out))
	return nil
}

func formatAST(sexp *util.SExpT, format string, indent int) (string, error) {
	switch format {
	case "sexp":
		return sexp.String() + "\n", nil
	case "tuple":
		return sexp.TupleString() + "\n", nil
	case "pretty":
		var text strings.Builder
		if err := sexp.Pretty(&text, indent); err != nil {
			return "", err
		}
		return text.String(), nil
	}
	return "", fmt.Errorf("unknown AST format '%s'", format)
}

// S-expressions are compared as trees, so a saved tree in either the
// flat or the pretty layout matches.

func compareAST(out io.Writer, sexp *util.SExpT, text string, format string, expectPath string) error {
	expected, err := os.ReadFile(expectPath)
	if err != nil {
		return fmt.Errorf("failed to read expected AST: %w", err)
	}
	if format == "tuple" {
		if string(expected) == text {
			return nil
		}
	} else {
		tree, err := util.ParseSExp(string(expected))
		if err != nil {
			return fmt.Errorf("bad expected AST %s: %w", expectPath, err)
		}
		if tree.String() == sexp.String() {
			return nil
		}
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(expected)),
		B:        difflib.SplitLines(text),
		FromFile: expectPath,
		ToFile:   "parsed",
		Context:  3,
	})
	if err != nil {
		return fmt.Errorf("failed to diff ASTs: %w", err)
	}
	fmt.Fprint(out, diff)
	return fmt.Errorf("AST differs from %s", expectPath)
}
