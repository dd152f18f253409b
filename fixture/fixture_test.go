// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

package fixture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const example = `Counts to three.

-- count.rs --
fn main() { println!("{}", 3); }
-- set --
x = 1
b=false
-- stdout --
3
-- result --
()
`

func TestParse(t *testing.T) {
	testCase, err := Parse("count", []byte(example))
	require.NoError(t, err)
	assert.Equal(t, "count", testCase.Name)
	assert.Equal(t, "Counts to three.", testCase.Comment)
	assert.Equal(t, "count.rs", testCase.SourceName)
	assert.Equal(t, "fn main() { println!(\"{}\", 3); }\n", string(testCase.Source))
	assert.Equal(t, map[string]string{"x": "1", "b": "false"}, testCase.Overrides)

	stdout, found := testCase.Expected("stdout")
	assert.True(t, found)
	assert.Equal(t, "3\n", stdout)
	_, found = testCase.Expected("ast")
	assert.False(t, found)
	assert.Equal(t, []string{"()"}, testCase.ExpectedLines("result"))
	assert.Equal(t, []string{}, testCase.ExpectedLines("errors"))
}

func TestFormat(t *testing.T) {
	testCase, err := Parse("count", []byte(example))
	require.NoError(t, err)
	text := Format(testCase)
	again, err := Parse("count", text)
	require.NoError(t, err)
	assert.Equal(t, testCase, again)
	assert.Contains(t, string(text), "-- set --\nb=false\nx=1\n")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"no source", "-- stdout --\n1\n", "fixture t: no .rs source file"},
		{"two sources", "-- a.rs --\n-- b.rs --\n", "fixture t: more than one source file"},
		{"bad set", "-- a.rs --\n-- set --\nx\n", "fixture t: bad override 'x'"},
		{"unknown section", "-- a.rs --\n-- output --\n", "fixture t: unknown section 'output'"},
	}
	for _, test := range tests {
		_, err := Parse("t", []byte(test.data))
		assert.EqualError(t, err, test.want, test.name)
	}
}

func TestLoadDir(t *testing.T) {
	cases, err := LoadDir("../testdata")
	require.NoError(t, err)
	names := []string{}
	for _, testCase := range cases {
		names = append(names, testCase.Name)
		assert.NotEmpty(t, testCase.Source, testCase.Name)
	}
	assert.Contains(t, names, "simple_main")
	assert.Contains(t, names, "programs")
	assert.IsIncreasing(t, names)

	simple, err := Load("../testdata/simple_main_x_greater.txtar")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"x": "9", "y": "2"}, simple.Overrides)

	_, err = Load("../testdata/missing.txtar")
	assert.Error(t, err)
}
