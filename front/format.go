// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

// Format strings for println! and friends.

package front

import (
	"fmt"
	"strings"
)

var PrintMacros = map[string]bool{
	"println": true, "print": true, "eprintln": true, "eprint": true,
}

// A piece of a format string is either literal text or a placeholder.
// Placeholders are '{}' (next argument), '{name}' (a variable) and
// either of those with ':?' for debug output.

type FormatPieceT struct {
	Text        string
	Placeholder bool
	Name        string
	Debug       bool
}

func ParseFormat(format string) ([]FormatPieceT, error) {
	pieces := []FormatPieceT{}
	var text strings.Builder
	flush := func() {
		if text.Len() != 0 {
			pieces = append(pieces, FormatPieceT{Text: text.String()})
			text.Reset()
		}
	}
	for i := 0; i < len(format); i++ {
		c := format[i]
		switch {
		case c == '{' && i+1 < len(format) && format[i+1] == '{':
			text.WriteByte('{')
			i += 1
		case c == '}' && i+1 < len(format) && format[i+1] == '}':
			text.WriteByte('}')
			i += 1
		case c == '{':
			end := strings.IndexByte(format[i:], '}')
			if end == -1 {
				return nil, fmt.Errorf("invalid format string: expected '}' but string was terminated")
			}
			spec := format[i+1 : i+end]
			name, debug := spec, false
			if before, after, found := strings.Cut(spec, ":"); found {
				if after != "?" {
					return nil, fmt.Errorf("unsupported format specifier ':%s'", after)
				}
				name, debug = before, true
			}
			if name != "" && !isIdentifier(name) {
				return nil, fmt.Errorf("invalid format string: '%s' is not an identifier", name)
			}
			flush()
			pieces = append(pieces, FormatPieceT{Placeholder: true, Name: name, Debug: debug})
			i += end
		case c == '}':
			return nil, fmt.Errorf("invalid format string: unmatched '}' found")
		default:
			text.WriteByte(c)
		}
	}
	flush()
	return pieces, nil
}

// The number of '{}' placeholders, which take positional arguments.
func PositionalCount(pieces []FormatPieceT) int {
	count := 0
	for _, piece := range pieces {
		if piece.Placeholder && piece.Name == "" {
			count += 1
		}
	}
	return count
}

func isIdentifier(name string) bool {
	if !isIdentStart(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isIdentChar(name[i]) {
			return false
		}
	}
	return !Keywords.Contains(name)
}
