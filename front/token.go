// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

// Tokens for the Rust subset.

package front

import (
	"fmt"

	"github.com/s48/pyrust/util"
)

type TokenKindT int

const (
	TokEOF TokenKindT = iota
	TokIdent
	TokKeyword
	TokType // primitive type names: i8, u32, f64, bool, char, ...
	TokInt
	TokFloat
	TokChar
	TokString
	TokPunct
)

var tokenKindNames = []string{"EOF", "ID", "KEYWORD", "TYPE", "INTEGER", "FLOAT", "CHAR", "STRING", "PUNCT"}

func (kind TokenKindT) String() string {
	return tokenKindNames[kind]
}

// Source position; lines and columns start at 1.

type PosT struct {
	Line   int
	Column int
}

func (pos PosT) String() string {
	return fmt.Sprintf("%d:%d", pos.Line, pos.Column)
}

type TokenT struct {
	Kind TokenKindT
	// The source text.  For chars and strings this is the decoded
	// value, without the quotes.
	Text string
	// Type suffix on a numeric literal, as in '1i8'.
	Suffix string
	Pos    PosT
}

func (token TokenT) String() string {
	switch token.Kind {
	case TokEOF:
		return "EOF"
	case TokChar:
		return fmt.Sprintf("%s %q", token.Name(), []rune(token.Text)[0])
	case TokString:
		return fmt.Sprintf("%s %q", token.Name(), token.Text)
	default:
		return fmt.Sprintf("%s %s%s", token.Name(), token.Text, token.Suffix)
	}
}

func (token TokenT) Is(kind TokenKindT, text string) bool {
	return token.Kind == kind && token.Text == text
}

// The upper-case token names the AST dumps have always used.
func (token TokenT) Name() string {
	switch token.Kind {
	case TokKeyword:
		if token.Text == "true" || token.Text == "false" {
			return "BOOL_LIT"
		}
		return keywordName(token.Text)
	case TokType:
		return typeClass(token.Text)
	case TokPunct:
		name, found := punctNames[token.Text]
		if !found {
			panic("no name for punctuation '" + token.Text + "'")
		}
		return name
	default:
		return token.Kind.String()
	}
}

func keywordName(word string) string {
	result := []byte(word)
	for i, c := range result {
		if 'a' <= c && c <= 'z' {
			result[i] = c - 'a' + 'A'
		}
	}
	return string(result)
}

var Keywords = util.NewSet(
	"as", "break", "const", "continue", "crate", "dyn", "else", "enum",
	"extern", "false", "fn", "for", "if", "impl", "in", "let", "loop",
	"match", "mod", "move", "mut", "pub", "ref", "return", "self",
	"static", "struct", "super", "trait", "true", "type", "unsafe", "use",
	"where", "while")

var (
	SignedIntTypes   = util.NewSet("i8", "i16", "i32", "i64", "i128", "isize")
	UnsignedIntTypes = util.NewSet("u8", "u16", "u32", "u64", "u128", "usize")
	FloatTypes       = util.NewSet("f32", "f64")
	PrimitiveTypes   = SignedIntTypes.Union(UnsignedIntTypes).Union(FloatTypes).Union(util.NewSet("bool", "char"))
)

func typeClass(name string) string {
	switch {
	case SignedIntTypes.Contains(name):
		return "SIGNINTTYPE"
	case UnsignedIntTypes.Contains(name):
		return "UNSIGNINTTYPE"
	case FloatTypes.Contains(name):
		return "FLOATTYPE"
	case name == "bool":
		return "BOOLTYPE"
	case name == "char":
		return "CHARTYPE"
	}
	panic("unknown primitive type " + name)
}

// Longest first, so that the lexer can take the first match.

var puncts = []string{
	"->", "==", "!=", "<=", ">=", "&&", "||",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=",
	"+", "-", "*", "/", "%", "=", "<", ">", "&", "|", "^", "!",
	"(", ")", "{", "}", ".", ",", ":", ";",
}

var punctNames = map[string]string{
	"+": "PLUS", "-": "MINUS", "*": "MULT", "/": "DIVIDE", "%": "REMAINDER",
	"=": "ASSIGN", "==": "EQUALS", "!=": "NE", "<": "LT", ">": "GT",
	"<=": "LE", ">=": "GE", "&": "AND", "|": "OR", "^": "XOR",
	"&&": "ANDAND", "||": "OROR", "!": "NOT", "->": "ARROW",
	"+=": "PLUSEQ", "-=": "MINUSEQ", "*=": "MULTEQ", "/=": "DIVIDEEQ",
	"%=": "REMAINDEREQ", "&=": "ANDEQ", "|=": "OREQ", "^=": "XOREQ",
	"(": "LPAREN", ")": "RPAREN", "{": "LBRACKET", "}": "RBRACKET",
	".": "DOT", ",": "COMMA", ":": "COLON", ";": "SEMICOLON",
}
