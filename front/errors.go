// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

package front

import (
	"fmt"
	"strings"
)

// Parsing stops after this many errors.
const MaxErrors = 20

type ErrorT struct {
	File    string
	Pos     PosT
	Message string
}

func (err *ErrorT) Error() string {
	if err.File == "" {
		return fmt.Sprintf("%s: %s", err.Pos, err.Message)
	}
	return fmt.Sprintf("%s:%s: %s", err.File, err.Pos, err.Message)
}

// All of the errors found in one file, in source order.

type ErrorListT []*ErrorT

func (list ErrorListT) Error() string {
	lines := make([]string, len(list))
	for i, err := range list {
		lines[i] = err.Error()
	}
	return strings.Join(lines, "\n")
}

// Returns nil if there are no errors, so that an empty list doesn't
// turn into a non-nil error interface.
func (list ErrorListT) Err() error {
	if len(list) == 0 {
		return nil
	}
	return list
}

// Used to unwind the parser when it runs into too many errors.
type bailoutT struct{}
