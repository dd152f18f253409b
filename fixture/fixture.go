// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

// Test programs packed as txtar archives.  An archive holds one Rust
// source file (any name ending in '.rs') plus optional expectations:
//
//   ast          expected syntax tree as an S-expression
//   errors       expected parse errors, one per line
//   diagnostics  expected checker output, one per line
//   stdout       expected printed output
//   result       expected value of the entry function
//   set          overrides, one 'name=value' per line
//
// The archive comment is a free-form description.

package fixture

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/tools/txtar"
)

type CaseT struct {
	Name       string
	Comment    string
	SourceName string
	Source     []byte
	Expect     map[string]string
	Overrides  map[string]string
}

func Load(path string) (*CaseT, error) {
	archive, err := txtar.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return fromArchive(strings.TrimSuffix(filepath.Base(path), ".txtar"), archive)
}

func Parse(name string, data []byte) (*CaseT, error) {
	return fromArchive(name, txtar.Parse(data))
}

func fromArchive(name string, archive *txtar.Archive) (*CaseT, error) {
	testCase := &CaseT{
		Name:      name,
		Comment:   strings.TrimSpace(string(archive.Comment)),
		Expect:    map[string]string{},
		Overrides: map[string]string{},
	}
	for _, file := range archive.Files {
		switch {
		case strings.HasSuffix(file.Name, ".rs"):
			if testCase.SourceName != "" {
				return nil, fmt.Errorf("fixture %s: more than one source file", name)
			}
			testCase.SourceName = file.Name
			testCase.Source = file.Data
		case file.Name == "set":
			for _, line := range nonBlankLines(string(file.Data)) {
				key, value, found := strings.Cut(line, "=")
				if !found {
					return nil, fmt.Errorf("fixture %s: bad override '%s'", name, line)
				}
				testCase.Overrides[strings.TrimSpace(key)] = strings.TrimSpace(value)
			}
		case slices.Contains(sections, file.Name):
			testCase.Expect[file.Name] = string(file.Data)
		default:
			return nil, fmt.Errorf("fixture %s: unknown section '%s'", name, file.Name)
		}
	}
	if testCase.SourceName == "" {
		return nil, fmt.Errorf("fixture %s: no .rs source file", name)
	}
	return testCase, nil
}

var sections = []string{"ast", "errors", "diagnostics", "stdout", "result"}

// Returns the expectation and whether there is one.
func (testCase *CaseT) Expected(section string) (string, bool) {
	value, found := testCase.Expect[section]
	return value, found
}

// The expectation split into trimmed, non-blank lines.
func (testCase *CaseT) ExpectedLines(section string) []string {
	return nonBlankLines(testCase.Expect[section])
}

// All of the fixtures in a directory, sorted by name.

func LoadDir(dir string) ([]*CaseT, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.txtar"))
	if err != nil {
		return nil, err
	}
	slices.Sort(paths)
	result := make([]*CaseT, 0, len(paths))
	for _, path := range paths {
		testCase, err := Load(path)
		if err != nil {
			return nil, err
		}
		result = append(result, testCase)
	}
	return result, nil
}

// Builds an archive, for writing out new fixtures.
func Format(testCase *CaseT) []byte {
	archive := &txtar.Archive{Comment: []byte(testCase.Comment + "\n")}
	archive.Files = append(archive.Files, txtar.File{Name: testCase.SourceName, Data: testCase.Source})
	if len(testCase.Overrides) != 0 {
		keys := make([]string, 0, len(testCase.Overrides))
		for key := range testCase.Overrides {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		var set strings.Builder
		for _, key := range keys {
			fmt.Fprintf(&set, "%s=%s\n", key, testCase.Overrides[key])
		}
		archive.Files = append(archive.Files, txtar.File{Name: "set", Data: []byte(set.String())})
	}
	for _, section := range sections {
		if value, found := testCase.Expect[section]; found {
			archive.Files = append(archive.Files, txtar.File{Name: section, Data: []byte(value)})
		}
	}
	return txtar.Format(archive)
}

func nonBlankLines(text string) []string {
	result := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}
	return result
}
