// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

package check

import (
	"fmt"

	"github.com/s48/pyrust/front"
	"github.com/s48/pyrust/util"
)

type SeverityT int

const (
	Error SeverityT = iota
	Warning
)

func (severity SeverityT) String() string {
	if severity == Error {
		return "error"
	}
	return "warning"
}

type DiagnosticT struct {
	File     string
	Pos      front.PosT
	Severity SeverityT
	Message  string
}

func (diag *DiagnosticT) String() string {
	if diag.File == "" {
		return fmt.Sprintf("%s: %s: %s", diag.Pos, diag.Severity, diag.Message)
	}
	return fmt.Sprintf("%s:%s: %s: %s", diag.File, diag.Pos, diag.Severity, diag.Message)
}

func HasErrors(diags []*DiagnosticT) bool {
	for _, diag := range diags {
		if diag.Severity == Error {
			return true
		}
	}
	return false
}

// Diagnostics are found in whatever order the checker gets to them
// and are handed back in source order.

func newDiagnosticQueue() *util.PriorityQueueT[*DiagnosticT] {
	return util.MakePriorityQueue(func(x, y *DiagnosticT) bool {
		if x.Pos.Line != y.Pos.Line {
			return x.Pos.Line < y.Pos.Line
		}
		return x.Pos.Column < y.Pos.Column
	})
}
