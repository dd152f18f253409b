// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

// Very basic S-expressions.  The front end prints its syntax trees
// as S-expressions and the tests read expected trees back in.

package util

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

type SExpKindT int

const (
	SExpInt SExpKindT = iota
	SExpSymbol
	SExpString
	SExpList
)

type SExpT struct {
	Kind    SExpKindT
	Integer int
	Symbol  string // also holds the contents of SExpString
	List    []*SExpT
}

func Int(n int) *SExpT          { return &SExpT{Kind: SExpInt, Integer: n} }
func Sym(name string) *SExpT    { return &SExpT{Kind: SExpSymbol, Symbol: name} }
func Str(value string) *SExpT   { return &SExpT{Kind: SExpString, Symbol: value} }
func List(elts ...*SExpT) *SExpT { return &SExpT{Kind: SExpList, List: elts} }

// Returns the symbol at the head of a list, or "".
func (sexp *SExpT) Head() string {
	if sexp.Kind != SExpList || len(sexp.List) == 0 || sexp.List[0].Kind != SExpSymbol {
		return ""
	}
	return sexp.List[0].Symbol
}

func (sexp *SExpT) String() string {
	var builder strings.Builder
	sexp.write(&builder)
	return builder.String()
}

func (sexp *SExpT) write(builder *strings.Builder) {
	switch sexp.Kind {
	case SExpInt:
		builder.WriteString(strconv.Itoa(sexp.Integer))
	case SExpSymbol:
		builder.WriteString(sexp.Symbol)
	case SExpString:
		builder.WriteString(strconv.Quote(sexp.Symbol))
	case SExpList:
		builder.WriteByte('(')
		for i, elt := range sexp.List {
			if 0 < i {
				builder.WriteByte(' ')
			}
			elt.write(builder)
		}
		builder.WriteByte(')')
	default:
		panic("bad S-expression")
	}
}

// Python tuple syntax, the format the AST.txt files have always used:
//   ('STMT', ('DECL_STMT', ...))

func (sexp *SExpT) TupleString() string {
	switch sexp.Kind {
	case SExpInt:
		return strconv.Itoa(sexp.Integer)
	case SExpSymbol, SExpString:
		return "'" + strings.ReplaceAll(sexp.Symbol, "'", "\\'") + "'"
	case SExpList:
		parts := make([]string, len(sexp.List))
		for i, elt := range sexp.List {
			parts[i] = elt.TupleString()
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
	panic("bad S-expression")
}

// Writes the expression with one list per line, each indented by
// 'indent' spaces more than its parent.  Lists that contain no
// sublists stay on one line.

func (sexp *SExpT) Pretty(writer io.Writer, indent int) error {
	var builder strings.Builder
	sexp.pretty(&builder, 0, indent)
	builder.WriteByte('\n')
	_, err := io.WriteString(writer, builder.String())
	return err
}

func (sexp *SExpT) pretty(builder *strings.Builder, column int, indent int) {
	if sexp.Kind != SExpList || sexp.isFlat() {
		sexp.write(builder)
		return
	}
	builder.WriteByte('(')
	sexp.List[0].write(builder)
	for _, elt := range sexp.List[1:] {
		if elt.Kind == SExpList && !elt.isFlat() {
			builder.WriteByte('\n')
			builder.WriteString(strings.Repeat(" ", column+indent))
			elt.pretty(builder, column+indent, indent)
		} else {
			builder.WriteByte(' ')
			elt.write(builder)
		}
	}
	builder.WriteByte(')')
}

func (sexp *SExpT) isFlat() bool {
	for _, elt := range sexp.List {
		if elt.Kind == SExpList {
			return false
		}
	}
	return true
}

//----------------------------------------------------------------
// Reading

type SExpErrorT struct {
	Message string
}

func (err *SExpErrorT) Error() string { return "s-expression: " + err.Message }

func ParseSExp(data string) (result *SExpT, err error) {
	defer func() {
		if r := recover(); r != nil {
			sexpErr, ok := r.(*SExpErrorT)
			if !ok {
				panic(r)
			}
			result, err = nil, sexpErr
		}
	}()
	tokens := tokenizer(data)
	var recur func(list *SExpT) *SExpT
	recur = func(list *SExpT) *SExpT {
		for {
			next := tokens()
			switch {
			case next.text == "" && !next.quoted:
				if list != nil {
					panic(&SExpErrorT{"missing ')'"})
				}
				return nil
			case next.text == ")" && !next.quoted:
				if list == nil {
					panic(&SExpErrorT{"unexpected ')'"})
				}
				return nil
			}
			var nextSExp *SExpT
			if next.quoted {
				nextSExp = Str(next.text)
			} else if next.text == "(" {
				nextSExp = List()
				recur(nextSExp)
			} else if i, err := strconv.Atoi(next.text); err == nil {
				nextSExp = Int(i)
			} else {
				nextSExp = Sym(next.text)
			}
			if list == nil {
				return nextSExp
			}
			list.List = append(list.List, nextSExp)
		}
	}
	result = recur(nil)
	if result == nil {
		return nil, &SExpErrorT{"empty input"}
	}
	return result, nil
}

type sexpTokenT struct {
	text   string
	quoted bool
}

func tokenizer(data string) func() sexpTokenT {
	reader := bufio.NewReader(strings.NewReader(data))
	return func() sexpTokenT {
		return nextToken(reader)
	}
}

func nextToken(reader *bufio.Reader) sexpTokenT {
	var contents strings.Builder
	for {
		c, _, err := reader.ReadRune()
		if err == io.EOF {
			if contents.Len() != 0 {
				return sexpTokenT{text: contents.String()}
			}
			return sexpTokenT{}
		} else if err != nil {
			panic(&SExpErrorT{err.Error()})
		}
		if contents.Len() != 0 {
			if !isSymbolConstituent(c) {
				reader.UnreadRune()
				return sexpTokenT{text: contents.String()}
			}
			contents.WriteRune(c)
			continue
		}
		switch {
		case unicode.IsSpace(c):
			continue
		case c == '(' || c == ')':
			return sexpTokenT{text: string(c)}
		case c == '"':
			reader.UnreadRune()
			return sexpTokenT{text: readString(reader), quoted: true}
		case isSymbolConstituent(c):
			contents.WriteRune(c)
		default:
			panic(&SExpErrorT{"unrecognized character " + strconv.QuoteRune(c)})
		}
	}
}

// Reads a Go-quoted string.
func readString(reader *bufio.Reader) string {
	var raw strings.Builder
	escaped := false
	for i := 0; ; i++ {
		c, _, err := reader.ReadRune()
		if err != nil {
			panic(&SExpErrorT{"unterminated string"})
		}
		raw.WriteRune(c)
		if 0 < i && !escaped && c == '"' {
			break
		}
		escaped = !escaped && c == '\\'
	}
	value, err := strconv.Unquote(raw.String())
	if err != nil {
		panic(&SExpErrorT{fmt.Sprintf("bad string %s", raw.String())})
	}
	return value
}

func isSymbolConstituent(r rune) bool {
	return !unicode.IsSpace(r) && r != '(' && r != ')' && r != '"'
}
