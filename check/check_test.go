// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

package check

import (
	"testing"

	"github.com/s48/pyrust/fixture"
	"github.com/s48/pyrust/front"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diagStrings(diags []*DiagnosticT) []string {
	result := []string{}
	for _, diag := range diags {
		result = append(result, diag.String())
	}
	return result
}

func checkSource(t *testing.T, source string, options OptionsT) []string {
	t.Helper()
	file, err := front.Parse("", []byte(source))
	require.NoError(t, err)
	return diagStrings(Check(file, options))
}

func TestFixtures(t *testing.T) {
	cases, err := fixture.LoadDir("../testdata")
	require.NoError(t, err)
	for _, testCase := range cases {
		if _, found := testCase.Expected("diagnostics"); !found {
			continue
		}
		t.Run(testCase.Name, func(t *testing.T) {
			file, err := front.Parse(testCase.SourceName, testCase.Source)
			require.NoError(t, err)
			diags := diagStrings(Check(file, OptionsT{Entry: "main"}))
			assert.Equal(t, testCase.ExpectedLines("diagnostics"), diags)
		})
	}
}

func TestLenientReturns(t *testing.T) {
	testCase, err := fixture.Load("../testdata/simple_main.txtar")
	require.NoError(t, err)
	file, err := front.Parse(testCase.SourceName, testCase.Source)
	require.NoError(t, err)

	strict := Check(file, OptionsT{})
	assert.True(t, HasErrors(strict))

	lenient := Check(file, OptionsT{LenientReturns: true})
	assert.False(t, HasErrors(lenient))
	assert.Equal(t, []string{
		"simple_main.rs:13:17: warning: mismatched types: function 'main' returns (), found bool",
		"simple_main.rs:22:9: warning: mismatched types: function 'main' returns (), found bool",
	}, diagStrings(lenient))
}

func TestDiagnostics(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{"clean", "fn main() { let mut x = 1; x += 2; println!(\"{}\", x); }", []string{}},
		{"underscore", "fn main() { let _x = 1; }", []string{}},
		{"duplicate", "fn f() {} fn f() {}", []string{
			"1:11: error: the name 'f' is defined multiple times (previous definition at 1:1)"}},
		{"continue", "fn main() { continue; }", []string{"1:13: error: 'continue' outside of a loop"}},
		{"loop ok", "fn main() { loop { break; } while true { continue; } }", []string{}},
		{"static", "static S: i32 = 1; fn main() { S = 2; }", []string{
			"1:34: error: cannot assign to immutable static item 'S'"}},
		{"argument", "fn f(x: i32) { x = 2; } fn main() { f(1); }", []string{
			"1:18: error: cannot assign to immutable argument 'x'"}},
		{"arg type", "fn f(x: i32) {} fn main() { f(true); }", []string{
			"1:31: error: mismatched types: expected i32, found bool"}},
		{"arity", "fn f(x: i32) {} fn main() { f(1, 2); }", []string{
			"1:29: error: function 'f' takes 1 arguments but 2 were supplied"}},
		{"not a function", "const C: i32 = 1; fn main() { C(); }", []string{
			"1:31: error: 'C' is not a function"}},
		{"function value", "fn f() {} fn main() { let g = f; }", []string{
			"1:23: warning: unused variable 'g'",
			"1:31: error: expected value, found function 'f'"}},
		{"condition", "fn main() { if 1 { } while 'c' { } }", []string{
			"1:16: error: mismatched types: expected bool, found {integer}",
			"1:28: error: mismatched types: expected bool, found char"}},
		{"declared type", "fn main() { let x: u8 = true; }", []string{
			"1:13: warning: unused variable 'x'",
			"1:25: error: mismatched types: expected u8, found bool"}},
		{"negative range", "const A: u8 = -1; const B: i8 = -128; const C: i8 = -129;", []string{
			"1:15: error: literal out of range for u8",
			"1:53: error: literal out of range for i8"}},
		{"suffix range", "fn main() -> u8 { 256u8 }", []string{"1:19: error: literal out of range for u8"}},
		{"result", "fn f() -> i32 { true } fn g() -> i32 { let x = 1; }", []string{
			"1:17: error: mismatched types: function 'f' returns i32, found bool",
			"1:24: error: mismatched types: function 'g' returns i32, but its body has no final value",
			"1:40: warning: unused variable 'x'"}},
		{"nested fn", "fn main() { let a = 1; const K: i32 = 2; fn f() -> i32 { a + K } f(); }", []string{
			"1:13: warning: unused variable 'a'",
			"1:58: error: cannot find value 'a' in this scope"}},
		{"macro", "fn main() { foo!(1); println!(\"{} {}\", 1); print!(\"{missing}\"); }", []string{
			"1:13: error: cannot find macro 'foo!' in this scope",
			"1:22: error: 2 positional arguments in format string, but there are 1 arguments",
			"1:51: error: cannot find value 'missing' in this scope"}},
		{"cast", "fn main() { let c = 'a' as u8; let f = 1.5 as char; }", []string{
			"1:13: warning: unused variable 'c'",
			"1:32: warning: unused variable 'f'",
			"1:44: error: non-primitive cast: {float} as char"}},
		{"uninitialized", "fn main() { let mut x: i32; x += 1; }", []string{
			"1:29: error: used binding 'x' isn't initialized"}},
		{"self cycle", "const A: i32 = A + 1;", []string{
			"1:1: error: cycle detected when evaluating constant 'A' (A)"}},
		{"return outside", "const A: i32 = return 1;", []string{
			"1:16: error: return statement outside of function body"}},
		{"diverging bodies", "fn f(c: bool) -> i32 { if c { return 1; } else { return 2; } } " +
			"fn g() -> i32 { loop { while true { break; } } } fn h() -> i32 { return 4; }", []string{}},
		{"diverging statement", "fn f(c: bool) -> i32 { if c { return 1; } else { return 2; }; }", []string{}},
		{"loop with break", "fn f() -> i32 { loop { break; } }", []string{
			"1:17: error: mismatched types: function 'f' returns i32, found ()"}},
		{"negative suffix", "fn f() -> i8 { -128i8 } fn g() -> i8 { -129i8 }", []string{
			"1:41: error: literal out of range for i8"}},
		{"uninitialized read", "fn main() { let x: i32; let y = x; }", []string{
			"1:25: warning: unused variable 'y'",
			"1:33: error: used binding 'x' isn't initialized"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, checkSource(t, test.source, OptionsT{}))
		})
	}
}

func TestMissingEntry(t *testing.T) {
	assert.Equal(t, []string{"1:1: error: no 'main' function"},
		checkSource(t, "fn start() {}", OptionsT{Entry: "main"}))
}
