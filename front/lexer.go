// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

// Splitting source text into tokens.  Illegal characters are reported
// and skipped; everything else keeps going.

package front

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

type lexerT struct {
	file   string
	source string
	offset int
	line   int
	column int
	tokens []TokenT
	errors ErrorListT
}

func Lex(file string, source []byte) ([]TokenT, error) {
	lexer := &lexerT{file: file, source: string(source), line: 1, column: 1}
	lexer.run()
	return lexer.tokens, lexer.errors.Err()
}

func (lexer *lexerT) pos() PosT {
	return PosT{lexer.line, lexer.column}
}

func (lexer *lexerT) peek(ahead int) byte {
	if len(lexer.source) <= lexer.offset+ahead {
		return 0
	}
	return lexer.source[lexer.offset+ahead]
}

func (lexer *lexerT) advance(n int) {
	for range n {
		if lexer.source[lexer.offset] == '\n' {
			lexer.line += 1
			lexer.column = 1
		} else {
			lexer.column += 1
		}
		lexer.offset += 1
	}
}

func (lexer *lexerT) error(pos PosT, message string) {
	if len(lexer.errors) < MaxErrors {
		lexer.errors = append(lexer.errors, &ErrorT{File: lexer.file, Pos: pos, Message: message})
	}
}

func (lexer *lexerT) emit(kind TokenKindT, text string, pos PosT) {
	lexer.tokens = append(lexer.tokens, TokenT{Kind: kind, Text: text, Pos: pos})
}

func (lexer *lexerT) run() {
	for lexer.offset < len(lexer.source) {
		c := lexer.peek(0)
		pos := lexer.pos()
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			lexer.advance(1)
		case c == '/' && lexer.peek(1) == '/':
			for lexer.offset < len(lexer.source) && lexer.peek(0) != '\n' {
				lexer.advance(1)
			}
		case c == '/' && lexer.peek(1) == '*':
			lexer.blockComment(pos)
		case isIdentStart(c):
			lexer.word(pos)
		case isDigit(c) || (c == '.' && isDigit(lexer.peek(1))):
			lexer.number(pos)
		case c == '\'':
			lexer.char(pos)
		case c == '"':
			lexer.string(pos)
		default:
			if !lexer.punct(pos) {
				r, size := utf8.DecodeRuneInString(lexer.source[lexer.offset:])
				lexer.error(pos, "illegal character "+strconv.QuoteRune(r))
				lexer.advance(size)
			}
		}
	}
	lexer.emit(TokEOF, "", lexer.pos())
}

// Block comments nest in Rust.

func (lexer *lexerT) blockComment(pos PosT) {
	depth := 0
	for lexer.offset < len(lexer.source) {
		switch {
		case lexer.peek(0) == '/' && lexer.peek(1) == '*':
			depth += 1
			lexer.advance(2)
		case lexer.peek(0) == '*' && lexer.peek(1) == '/':
			depth -= 1
			lexer.advance(2)
			if depth == 0 {
				return
			}
		default:
			lexer.advance(1)
		}
	}
	lexer.error(pos, "unterminated block comment")
}

func (lexer *lexerT) word(pos PosT) {
	start := lexer.offset
	for isIdentChar(lexer.peek(0)) {
		lexer.advance(1)
	}
	text := lexer.source[start:lexer.offset]
	switch {
	case Keywords.Contains(text):
		lexer.emit(TokKeyword, text, pos)
	case PrimitiveTypes.Contains(text):
		lexer.emit(TokType, text, pos)
	default:
		lexer.emit(TokIdent, text, pos)
	}
}

// Integers: 123, 1_000, 7i8, 0xff, 0b101, 0o17
// Floats:   1.5, .5, 2E10, 1.5e-3, 2.0f32

func (lexer *lexerT) number(pos PosT) {
	start := lexer.offset
	kind := TokInt
	if lexer.peek(0) == '0' && strings.IndexByte("xob", lexer.peek(1)) != -1 {
		lexer.advance(2)
		for isHexDigit(lexer.peek(0)) || lexer.peek(0) == '_' {
			lexer.advance(1)
		}
	} else {
		lexer.digits()
		// '1.' followed by a letter or another '.' is a method call or range.
		if lexer.peek(0) == '.' && isDigit(lexer.peek(1)) {
			kind = TokFloat
			lexer.advance(1)
			lexer.digits()
		}
		if c := lexer.peek(0); c == 'e' || c == 'E' {
			next := 1
			if sign := lexer.peek(1); sign == '+' || sign == '-' {
				next = 2
			}
			if isDigit(lexer.peek(next)) {
				kind = TokFloat
				lexer.advance(next)
				lexer.digits()
			}
		}
	}
	text := lexer.source[start:lexer.offset]
	suffixStart := lexer.offset
	for isIdentChar(lexer.peek(0)) {
		lexer.advance(1)
	}
	suffix := lexer.source[suffixStart:lexer.offset]
	switch {
	case suffix == "":
	case FloatTypes.Contains(suffix):
		kind = TokFloat
	case kind == TokInt && (SignedIntTypes.Contains(suffix) || UnsignedIntTypes.Contains(suffix)):
	default:
		lexer.error(pos, "invalid suffix '"+suffix+"' for number literal")
	}
	lexer.tokens = append(lexer.tokens, TokenT{Kind: kind, Text: text, Suffix: suffix, Pos: pos})
}

func (lexer *lexerT) digits() {
	for isDigit(lexer.peek(0)) || lexer.peek(0) == '_' {
		lexer.advance(1)
	}
}

// A quote that isn't followed by a character and a closing quote
// would be a lifetime, which we don't support.

func (lexer *lexerT) char(pos PosT) {
	lexer.advance(1)
	value, ok := lexer.escapedRune('\'')
	if !ok || lexer.peek(0) != '\'' {
		lexer.error(pos, "malformed character literal")
		for lexer.offset < len(lexer.source) && lexer.peek(0) != '\'' && lexer.peek(0) != '\n' {
			lexer.advance(1)
		}
		if lexer.peek(0) == '\'' {
			lexer.advance(1)
		}
		return
	}
	lexer.advance(1)
	lexer.emit(TokChar, string(value), pos)
}

func (lexer *lexerT) string(pos PosT) {
	lexer.advance(1)
	var value strings.Builder
	for {
		if len(lexer.source) <= lexer.offset {
			lexer.error(pos, "unterminated string literal")
			return
		}
		if lexer.peek(0) == '"' {
			lexer.advance(1)
			break
		}
		r, ok := lexer.escapedRune('"')
		if !ok {
			lexer.error(lexer.pos(), "unknown character escape")
			lexer.advance(1)
			continue
		}
		value.WriteRune(r)
	}
	lexer.emit(TokString, value.String(), pos)
}

// Reads one possibly escaped character.  Returns false for a bad
// escape or for 'quote' itself.

func (lexer *lexerT) escapedRune(quote byte) (rune, bool) {
	if len(lexer.source) <= lexer.offset || lexer.peek(0) == quote {
		return 0, false
	}
	if lexer.peek(0) != '\\' {
		r, size := utf8.DecodeRuneInString(lexer.source[lexer.offset:])
		lexer.advance(size)
		return r, true
	}
	escapes := map[byte]rune{'n': '\n', 't': '\t', 'r': '\r', '0': 0, '\\': '\\', '\'': '\'', '"': '"'}
	r, found := escapes[lexer.peek(1)]
	if !found {
		return 0, false
	}
	lexer.advance(2)
	return r, true
}

func (lexer *lexerT) punct(pos PosT) bool {
	rest := lexer.source[lexer.offset:]
	for _, punct := range puncts {
		if strings.HasPrefix(rest, punct) {
			lexer.advance(len(punct))
			lexer.emit(TokPunct, punct, pos)
			return true
		}
	}
	return false
}

func isIdentStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
