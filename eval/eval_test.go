// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

package eval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/s48/pyrust/fixture"
	"github.com/s48/pyrust/front"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func parse(t *testing.T, source string) *front.FileT {
	t.Helper()
	file, err := front.Parse("test.rs", []byte(source))
	require.NoError(t, err)
	return file
}

func loadFixture(t *testing.T, name string) (*fixture.CaseT, *front.FileT) {
	t.Helper()
	testCase, err := fixture.Load("../testdata/" + name + ".txtar")
	require.NoError(t, err)
	file, err := front.Parse(testCase.SourceName, testCase.Source)
	require.NoError(t, err)
	return testCase, file
}

// Every fixture with expected output is run and its output and
// result compared.

func TestFixtures(t *testing.T) {
	cases, err := fixture.LoadDir("../testdata")
	require.NoError(t, err)
	require.NotEmpty(t, cases)
	for _, testCase := range cases {
		stdout, hasStdout := testCase.Expected("stdout")
		result, hasResult := testCase.Expected("result")
		if !hasStdout && !hasResult {
			continue
		}
		t.Run(testCase.Name, func(t *testing.T) {
			file, err := front.Parse(testCase.SourceName, testCase.Source)
			require.NoError(t, err)
			var out strings.Builder
			got, err := Run(context.Background(), file, OptionsT{
				Stdout:    &out,
				Overrides: testCase.Overrides,
			})
			require.NoError(t, err)
			if hasStdout {
				assert.Equal(t, stdout, out.String())
			}
			if hasResult {
				assert.Equal(t, strings.TrimSpace(result), got.Value.Debug())
			}
		})
	}
}

func TestSimpleMain(t *testing.T) {
	_, file := loadFixture(t, "simple_main")
	tests := []struct {
		name      string
		overrides map[string]string
		value     ValueT
		returned  bool
		output    string
	}{
		{"defaults", nil, MakeBool(false), true, "y era mayor\n"},
		{"x greater", map[string]string{"x": "9", "y": "2"}, MakeBool(true), true, ""},
		{"x not above Z", map[string]string{"x": "1", "y": "0"}, Unit, false, ""},
		{"b false", map[string]string{"x": "9", "y": "2", "b": "false"}, Unit, false, ""},
		{"equal", map[string]string{"x": "7"}, Unit, false, ""},
		{"bigger Z", map[string]string{"x": "9", "y": "2", "Z": "100"}, Unit, false, ""},
		{"negative x", map[string]string{"x": "-3"}, MakeBool(false), true, "y era mayor\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var out strings.Builder
			result, err := Run(context.Background(), file, OptionsT{Stdout: &out, Overrides: test.overrides})
			require.NoError(t, err)
			assert.Equal(t, test.value.Type, result.Value.Type)
			assert.Equal(t, test.value.String(), result.Value.String())
			assert.Equal(t, test.returned, result.Returned)
			assert.Equal(t, test.output, out.String())
			assert.Equal(t, 1, result.Calls)
		})
	}
}

// The message is printed exactly once however far y has to count down.

func TestSimpleMainLoop(t *testing.T) {
	_, file := loadFixture(t, "simple_main")
	short, err := Run(context.Background(), file, OptionsT{})
	require.NoError(t, err)
	var out strings.Builder
	long, err := Run(context.Background(), file, OptionsT{Stdout: &out, Overrides: map[string]string{"y": "1000"}})
	require.NoError(t, err)
	assert.Equal(t, "y era mayor\n", out.String())
	assert.Less(t, short.Steps, long.Steps)
}

//----------------------------------------------------------------
// Functions run with arguments.

type programTestT struct {
	inputs []int64
	output string
}

var programTests = map[string][]programTestT{
	"add":           {{[]int64{4, 4}, "30"}, {[]int64{4, 5}, "25"}, {[]int64{5, 4}, "35"}},
	"comp":          {{[]int64{4, 4}, "122121"}, {[]int64{4, 5}, "211122"}, {[]int64{5, 4}, "212211"}},
	"fact":          {{[]int64{1}, "1"}, {[]int64{5}, "120"}},
	"fact_break":    {{[]int64{1}, "1"}, {[]int64{5}, "120"}},
	"fact_no_three": {{[]int64{1}, "1"}, {[]int64{5}, "40"}},
	"fact_rec":      {{[]int64{1}, "1"}, {[]int64{6}, "720"}},
	"and":           {{[]int64{1, 4}, "7"}, {[]int64{2, 10}, "20"}, {[]int64{4, 3}, "12"}, {[]int64{20, 10}, "200"}},
	"or":            {{[]int64{1, 4}, "7"}, {[]int64{2, 10}, "14"}, {[]int64{4, 3}, "9"}, {[]int64{20, 10}, "200"}},
	"not":           {{[]int64{1, 4}, "7"}, {[]int64{2, 10}, "14"}, {[]int64{4, 3}, "9"}, {[]int64{20, 10}, "200"}},
	"call":          {{[]int64{10}, "302"}},
}

func TestPrograms(t *testing.T) {
	_, file := loadFixture(t, "programs")
	for name, tests := range programTests {
		t.Run(name, func(t *testing.T) {
			fn, ok := file.Item(name).(*front.FnItemT)
			require.True(t, ok)
			for _, test := range tests {
				args := make([]ValueT, len(test.inputs))
				for i, n := range test.inputs {
					args[i] = MakeInt(n, front.UntypedInt)
				}
				result, err := Run(context.Background(), file, OptionsT{Entry: name, Args: args})
				require.NoError(t, err, "inputs %v", test.inputs)
				assert.Equal(t, test.output, result.Value.String(), "inputs %v", test.inputs)
				assert.Equal(t, fn.Result.Name, result.Value.Type)
			}
		})
	}
}

//----------------------------------------------------------------
// Small programs

func TestValues(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"shadowing", "fn main() -> i64 { let x = 1; { let x = 10; } let x = x + 1; x }", "2"},
		{"block value", "fn main() -> i32 { let y = { let a = 3; a * a }; y + 1 }", "10"},
		{"if value", "fn main() -> u8 { let b = false; if b { 1 } else if !b { 2 } else { 3 } }", "2"},
		{"while", "fn main() -> i32 { let mut i = 0; let mut s = 0; while i < 5 { i += 1; s += i; } s }", "15"},
		{"loop break", "fn main() -> i32 { let mut i = 0; loop { i += 3; if 10 < i { break; } } i }", "12"},
		{"early return", "fn main() -> i32 { let mut i = 0; while true { i += 1; if i == 4 { return i * 10; } } 0 }", "40"},
		{"lazy and", "fn main() -> bool { let z = 0; z != 0 && 10 / z == 1 }", "false"},
		{"lazy or", "fn main() -> bool { let z = 0; z == 0 || 10 / z == 1 }", "true"},
		{"casts", "fn main() -> i32 { (300 as u8) as i32 + (-1i8 as u8) as i32 + (2.9f64 as i32) }", "301"},
		{"saturating cast", "fn main() -> u8 { 1000.0 as u8 }", "255"},
		{"char cast", "fn main() -> char { 65u8 as char }", "A"},
		{"bits", "fn main() -> u8 { (12u8 & 10) | (1 ^ 3) }", "10"},
		{"not unsigned", "fn main() -> u8 { !0u8 }", "255"},
		{"float", "fn main() -> f64 { let x = 1.5; x * 4.0 - 0.5 }", "5.5"},
		{"f32", "fn main() -> f32 { 0.1f32 + 0.2f32 }", "0.3"},
		{"string", `fn main() -> bool { "abc" < "abd" }`, "true"},
		{"const in fn", "fn main() -> i32 { const K: i32 = 6; K * 7 }", "42"},
		{"nested fn", "fn main() -> i32 { const K: i32 = 3; let local = 4; fn inner(x: i32) -> i32 { x * K } inner(local) }", "12"},
		{"recursion", "fn fib(n: u32) -> u32 { if n < 2 { n } else { fib(n - 1) + fib(n - 2) } } fn main() -> u32 { fib(15) }", "610"},
		{"static", "static mut N: i32 = 1; fn bump() { N *= 2; } fn main() -> i32 { bump(); bump(); bump(); N }", "8"},
		{"late init", "fn main() -> i32 { let x; if true { x = 5; } else { x = 6; } x }", "5"},
		{"min literal", "fn main() -> i8 { -128i8 }", "-128"},
		{"min untyped", "fn main() -> i32 { let x: i32 = -2147483648; x }", "-2147483648"},
		{"wide untyped", "fn main() -> u64 { let x: u64 = 3000000000 * 2; x }", "6000000000"},
		{"const before use", "fn main() -> i32 { let y = K; const K: i32 = J + 1; const J: i32 = 2; y }", "3"},
		{"diverging if", "fn f(c: bool) -> i32 { if c { return 1; } else { return 2; } } fn main() -> i32 { f(false) }", "2"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result, err := Run(context.Background(), parse(t, test.source), OptionsT{})
			require.NoError(t, err)
			assert.Equal(t, test.want, result.Value.String())
		})
	}
}

func TestPrinting(t *testing.T) {
	file := parse(t, `
fn main() {
    let n = 3;
    let c = 'q';
    print!("{} {{braces}} ", n);
    println!("{c} {c:?} {:?}", "s\n");
    eprintln!("to stderr {}", n + 1);
    eprint!("!");
}`)
	var stdout, stderr strings.Builder
	_, err := Run(context.Background(), file, OptionsT{Stdout: &stdout, Stderr: &stderr})
	require.NoError(t, err)
	assert.Equal(t, "3 {braces} q 'q' \"s\\n\"\n", stdout.String())
	assert.Equal(t, "to stderr 4\n!", stderr.String())
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		options OptionsT
		want    string
	}{
		{"overflow", "fn main() { let x: u8 = 255; let y = x + 1; }", OptionsT{}, "attempt to add with overflow"},
		{"underflow", "fn main() { let mut x = 0u32; x -= 1; }", OptionsT{}, "attempt to subtract with overflow"},
		{"negate", "fn main() { let x = -128i8; let y = -x; }", OptionsT{}, "attempt to negate with overflow"},
		{"untyped overflow", "fn main() { let x = 2147483647; let y = x + 1; }", OptionsT{}, "attempt to add with overflow"},
		{"negative range", "fn main() { let x = -129i8; }", OptionsT{}, "literal out of range for i8"},
		{"divide", "fn main() { let z = 0; let y = 1 / z; }", OptionsT{}, "attempt to divide by zero"},
		{"remainder", "fn main() { let z = 0; let y = 1 % z; }", OptionsT{}, "remainder with a divisor of zero"},
		{"range", "fn main() { let x: i8 = 200; }", OptionsT{}, "literal out of range for i8"},
		{"types", "fn main() { let x: i8 = 1; let y: u8 = 2; let z = x + y; }", OptionsT{}, "cannot add"},
		{"condition", "fn main() { if 1 { } }", OptionsT{}, "expected bool, found {integer}"},
		{"immutable", "fn main() { let x = 1; x = 2; }", OptionsT{}, "cannot assign twice to immutable variable 'x'"},
		{"undefined", "fn main() { let x = y; }", OptionsT{}, "cannot find value 'y' in this scope"},
		{"nested fn locals", "fn main() { let a = 1; fn f() -> i32 { a } f(); }", OptionsT{}, "cannot find value 'a'"},
		{"arity", "fn f(x: i32) {} fn main() { f(); }", OptionsT{}, "takes 1 arguments but 0 were supplied"},
		{"const cycle", "const A: i32 = B; const B: i32 = A; fn main() {}", OptionsT{}, "cycle detected"},
		{"block const cycle", "fn main() { const A: i32 = B; const B: i32 = A; }", OptionsT{}, "cycle detected"},
		{"no main", "fn start() {}", OptionsT{}, "no 'main' function"},
		{"stack", "fn f(n: i32) -> i32 { f(n + 1) } fn main() { f(0); }", OptionsT{}, "stack overflow"},
		{"steps", "fn main() { loop { } }", OptionsT{MaxSteps: 1000}, "step limit of 1000 exceeded"},
		{"unknown override", "fn main() { let x = 1; }", OptionsT{Overrides: map[string]string{"q": "1"}},
			"cannot override 'q'"},
		{"bad override", "fn main() { let x = 1; }", OptionsT{Overrides: map[string]string{"x": "1 +"}},
			"bad value for 'x'"},
		{"override type", "const Z: i8 = 1; fn main() {}", OptionsT{Overrides: map[string]string{"Z": "true"}},
			"mismatched types: expected i8, found bool"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Run(context.Background(), parse(t, test.source), test.options)
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.want)
		})
	}
}

func TestRuntimeErrorPosition(t *testing.T) {
	file := parse(t, "fn main() {\n    let x: u8 = 250;\n    let y = x * 2;\n}\n")
	_, err := Run(context.Background(), file, OptionsT{})
	var runtimeErr *RuntimeErrorT
	require.True(t, errors.As(err, &runtimeErr))
	assert.Equal(t, front.PosT{Line: 3, Column: 15}, runtimeErr.Pos)
	assert.Equal(t, "test.rs:3:15: attempt to multiply with overflow", runtimeErr.Error())
}

func TestCancel(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, parse(t, "fn main() { loop { } }"), OptionsT{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Contains(t, err.Error(), "evaluation stopped")
}
