// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

// The toy program in testdata/simple_main.txtar written directly in
// Go.  Its 'main' returns booleans from a function with no result
// type; here the result is a three-way outcome instead.

package sample

import (
	"fmt"
	"io"
)

const Message = "y era mayor"

type OutcomeT int

const (
	None OutcomeT = iota // x == y, nothing happens
	True
	False
)

func (outcome OutcomeT) String() string {
	switch outcome {
	case True:
		return "true"
	case False:
		return "false"
	}
	return "()"
}

type ParamsT struct {
	X int
	Y int
	Z int8
	B bool
}

func DefaultParams() ParamsT {
	return ParamsT{X: 5, Y: 7, Z: 1, B: true}
}

type ResultT struct {
	Outcome    OutcomeT
	Y          int // the final value of y
	Iterations int
	Lines      int // lines written to 'out'
}

// The x > y branch only succeeds if x > Z and b also hold; otherwise
// it falls through with no outcome.

func Run(params ParamsT, out io.Writer) (ResultT, error) {
	x, y := params.X, params.Y
	result := ResultT{Y: y}
	switch {
	case y < x:
		if int(params.Z) < x && params.B {
			result.Outcome = True
		}
	case x < y:
		for x < y {
			y -= 1
			result.Iterations += 1
		}
		result.Y = y
		if _, err := fmt.Fprintln(out, Message); err != nil {
			return result, fmt.Errorf("failed to print message: %w", err)
		}
		result.Lines = 1
		result.Outcome = False
	}
	return result, nil
}
