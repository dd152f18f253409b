// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

// Recursive descent parser for the Rust subset.
//
// Syntax errors unwind with a panic to the nearest statement or item
// boundary, where they are recorded.  The parser then skips ahead to
// a ';' or '}' and carries on, so one run reports as many errors as
// it can (up to MaxErrors).

package front

import (
	"cmp"
	"fmt"
	"slices"
)

type parserT struct {
	file   string
	tokens []TokenT
	index  int
	errors ErrorListT
}

type syntaxErrorT struct {
	err *ErrorT
}

// Parses 'source'.  If there are errors the returned file holds
// whatever could be parsed and the error is an ErrorListT.

func Parse(file string, source []byte) (*FileT, error) {
	tokens, err := Lex(file, source)
	parser := &parserT{file: file, tokens: tokens}
	if err != nil {
		parser.errors = append(parser.errors, err.(ErrorListT)...)
	}
	result := &FileT{Name: file}
	func() {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(bailoutT); !ok {
					panic(r)
				}
			}
		}()
		for !parser.atEOF() {
			parser.guard(func() {
				result.Items = append(result.Items, parser.parseItem())
			}, parser.skipToItem)
		}
	}()
	slices.SortStableFunc(parser.errors, func(x, y *ErrorT) int {
		if c := cmp.Compare(x.Pos.Line, y.Pos.Line); c != 0 {
			return c
		}
		return cmp.Compare(x.Pos.Column, y.Pos.Column)
	})
	return result, parser.errors.Err()
}

// Parses a single expression, for command-line overrides and tests.

func ParseExpr(source string) (ExprT, error) {
	tokens, err := Lex("", []byte(source))
	if err != nil {
		return nil, err
	}
	parser := &parserT{tokens: tokens}
	var expr ExprT
	func() {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(bailoutT); !ok {
					panic(r)
				}
			}
		}()
		parser.guard(func() {
			expr = parser.parseExpr()
			if !parser.atEOF() {
				parser.fail("")
			}
		}, func() {})
	}()
	if len(parser.errors) != 0 {
		return nil, parser.errors
	}
	return expr, nil
}

// Runs 'parse', catching any syntax error.  On an error 'skip' is
// called to get to a place where parsing can resume.

func (parser *parserT) guard(parse func(), skip func()) {
	start := parser.index
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		syntaxErr, ok := r.(syntaxErrorT)
		if !ok {
			panic(r)
		}
		// An unclosed block fails once for each enclosing block.
		if last := len(parser.errors) - 1; last < 0 || parser.errors[last].Pos != syntaxErr.err.Pos {
			parser.errors = append(parser.errors, syntaxErr.err)
		}
		if MaxErrors <= len(parser.errors) {
			panic(bailoutT{})
		}
		skip()
		if parser.index == start && !parser.atEOF() {
			parser.index += 1
		}
	}()
	parse()
}

func (parser *parserT) skipToItem() {
	for !parser.atEOF() {
		token := parser.peek()
		if token.Kind == TokKeyword &&
			(token.Text == "fn" || token.Text == "const" || token.Text == "static") {
			return
		}
		parser.index += 1
	}
}

// Skips past the next ';', or up to (but not past) the next '}'.

func (parser *parserT) skipToStmt() {
	for !parser.atEOF() && !parser.atPunct("}") {
		if parser.next().Is(TokPunct, ";") {
			return
		}
	}
}

//----------------------------------------------------------------
// Token access

func (parser *parserT) peek() TokenT {
	return parser.tokens[parser.index]
}

func (parser *parserT) peekAhead(n int) TokenT {
	if len(parser.tokens) <= parser.index+n {
		return parser.tokens[len(parser.tokens)-1]
	}
	return parser.tokens[parser.index+n]
}

func (parser *parserT) next() TokenT {
	token := parser.tokens[parser.index]
	if token.Kind != TokEOF {
		parser.index += 1
	}
	return token
}

func (parser *parserT) atEOF() bool {
	return parser.peek().Kind == TokEOF
}

func (parser *parserT) atPunct(text string) bool {
	return parser.peek().Is(TokPunct, text)
}

func (parser *parserT) atKeyword(text string) bool {
	return parser.peek().Is(TokKeyword, text)
}

func (parser *parserT) acceptPunct(text string) bool {
	if parser.atPunct(text) {
		parser.next()
		return true
	}
	return false
}

func (parser *parserT) acceptKeyword(text string) bool {
	if parser.atKeyword(text) {
		parser.next()
		return true
	}
	return false
}

func (parser *parserT) expectPunct(text string) TokenT {
	if !parser.atPunct(text) {
		parser.fail(fmt.Sprintf("expected '%s'", text))
	}
	return parser.next()
}

func (parser *parserT) expectKeyword(text string) TokenT {
	if !parser.atKeyword(text) {
		parser.fail(fmt.Sprintf("expected '%s'", text))
	}
	return parser.next()
}

func (parser *parserT) expectIdent() TokenT {
	if parser.peek().Kind != TokIdent {
		parser.fail("expected identifier")
	}
	return parser.next()
}

// Reports a syntax error at the current token.

func (parser *parserT) fail(expected string) {
	token := parser.peek()
	message := "syntax error at EOF"
	if token.Kind != TokEOF {
		message = fmt.Sprintf("syntax error at '%s%s'", tokenSource(token), token.Suffix)
	}
	if expected != "" {
		message += ", " + expected
	}
	panic(syntaxErrorT{&ErrorT{File: parser.file, Pos: token.Pos, Message: message}})
}

func (parser *parserT) failAt(pos PosT, message string) {
	panic(syntaxErrorT{&ErrorT{File: parser.file, Pos: pos, Message: message}})
}

func tokenSource(token TokenT) string {
	switch token.Kind {
	case TokChar:
		return "'" + token.Text + "'"
	case TokString:
		return `"` + token.Text + `"`
	}
	return token.Text
}

//----------------------------------------------------------------
// Items

func (parser *parserT) parseItem() ItemT {
	switch {
	case parser.atKeyword("fn"):
		return parser.parseFn()
	case parser.atKeyword("const"), parser.atKeyword("static"):
		return parser.parseConst()
	}
	parser.fail("expected 'fn', 'const' or 'static'")
	return nil
}

func (parser *parserT) parseFn() *FnItemT {
	pos := parser.expectKeyword("fn").Pos
	fn := &FnItemT{Pos: pos, Name: parser.expectIdent().Text}
	parser.expectPunct("(")
	for !parser.atPunct(")") {
		namePos := parser.peek().Pos
		name := parser.expectIdent().Text
		parser.expectPunct(":")
		typ := parser.parseType()
		if typ == nil {
			parser.failAt(namePos, fmt.Sprintf("parameter '%s' cannot have unit type", name))
		}
		fn.Params = append(fn.Params, &ParamT{Pos: namePos, Name: name, Type: typ})
		if !parser.acceptPunct(",") {
			break
		}
	}
	parser.expectPunct(")")
	if parser.acceptPunct("->") {
		fn.Result = parser.parseType()
	}
	fn.Body = parser.parseBlock()
	return fn
}

// const NAME: type = value;
// static [mut] NAME: type = value;

func (parser *parserT) parseConst() *ConstItemT {
	token := parser.next()
	item := &ConstItemT{Pos: token.Pos, Static: token.Text == "static"}
	if item.Static {
		item.Mutable = parser.acceptKeyword("mut")
	}
	item.Name = parser.expectIdent().Text
	parser.expectPunct(":")
	item.Type = parser.parseType()
	if item.Type == nil {
		parser.failAt(token.Pos, fmt.Sprintf("%s '%s' cannot have unit type", token.Text, item.Name))
	}
	parser.expectPunct("=")
	item.Value = parser.parseExpr()
	parser.expectPunct(";")
	return item
}

// Returns nil for '()'.

func (parser *parserT) parseType() *TypeT {
	token := parser.peek()
	switch {
	case token.Kind == TokType:
		parser.next()
		return &TypeT{Pos: token.Pos, Name: token.Text}
	case token.Is(TokPunct, "(") && parser.peekAhead(1).Is(TokPunct, ")"):
		parser.next()
		parser.next()
		return nil
	case token.Kind == TokIdent:
		parser.failAt(token.Pos, fmt.Sprintf("unknown type '%s'", token.Text))
	}
	parser.fail("expected type")
	return nil
}

//----------------------------------------------------------------
// Blocks and statements

func (parser *parserT) parseBlock() *BlockExprT {
	block := &BlockExprT{Pos: parser.expectPunct("{").Pos}
	for !parser.atPunct("}") {
		if parser.atEOF() {
			parser.fail("expected '}'")
		}
		parser.guard(func() { parser.parseStmt(block) }, parser.skipToStmt)
	}
	parser.next()
	return block
}

// Adds the next statement to 'block', or sets its tail expression.

func (parser *parserT) parseStmt(block *BlockExprT) {
	token := parser.peek()
	switch {
	case token.Is(TokPunct, ";"):
		parser.next()
		block.Stmts = append(block.Stmts, &EmptyStmtT{Pos: token.Pos})
		return
	case token.Is(TokKeyword, "let"):
		block.Stmts = append(block.Stmts, parser.parseLet())
		return
	case token.Is(TokKeyword, "fn"), token.Is(TokKeyword, "const"), token.Is(TokKeyword, "static"):
		block.Stmts = append(block.Stmts, &ItemStmtT{Item: parser.parseItem()})
		return
	}
	var expr ExprT
	if parser.atBlockLike() {
		expr = parser.parsePrimary()
		if !parser.atPunct(";") && !parser.atPunct("}") {
			block.Stmts = append(block.Stmts, &ExprStmtT{Expr: expr})
			return
		}
	} else {
		expr = parser.parseExpr()
	}
	switch {
	case parser.acceptPunct(";"):
		block.Stmts = append(block.Stmts, &ExprStmtT{Expr: expr, Semicolon: true})
	case parser.atPunct("}"):
		block.Tail = expr
	default:
		parser.fail("expected ';'")
	}
}

func (parser *parserT) atBlockLike() bool {
	return parser.atPunct("{") || parser.atKeyword("if") ||
		parser.atKeyword("while") || parser.atKeyword("loop")
}

// let [mut] NAME [: type] [= value];

func (parser *parserT) parseLet() *LetStmtT {
	let := &LetStmtT{Pos: parser.expectKeyword("let").Pos}
	let.Mutable = parser.acceptKeyword("mut")
	let.Name = parser.expectIdent().Text
	if parser.acceptPunct(":") {
		let.Type = parser.parseType()
	}
	if parser.acceptPunct("=") {
		let.Init = parser.parseExpr()
	}
	parser.expectPunct(";")
	return let
}

//----------------------------------------------------------------
// Expressions, lowest precedence first.

var compoundAssignOps = map[string]string{
	"+=": "+", "-=": "-", "*=": "*", "/=": "/", "%=": "%",
	"&=": "&", "|=": "|", "^=": "^",
}

var comparisonOps = []string{"==", "!=", "<", ">", "<=", ">="}

func (parser *parserT) parseExpr() ExprT {
	target := parser.parseBinary(0)
	token := parser.peek()
	if token.Kind != TokPunct {
		return target
	}
	op, compound := compoundAssignOps[token.Text]
	if !compound && token.Text != "=" {
		return target
	}
	if !compound {
		op = "="
	}
	parser.next()
	// Assignment is right associative.
	return &AssignExprT{Pos: token.Pos, Op: op, Target: target, Value: parser.parseExpr()}
}

// Binary operator precedence levels, loosest first.  Comparisons
// don't associate.

var binaryLevels = [][]string{
	{"||"},
	{"&&"},
	comparisonOps,
	{"|"},
	{"^"},
	{"&"},
	{"+", "-"},
	{"*", "/", "%"},
}

const comparisonLevel = 2

func (parser *parserT) parseBinary(level int) ExprT {
	if level == len(binaryLevels) {
		return parser.parseCast()
	}
	left := parser.parseBinary(level + 1)
	for {
		token := parser.peek()
		if token.Kind != TokPunct || !slices.Contains(binaryLevels[level], token.Text) {
			return left
		}
		parser.next()
		right := parser.parseBinary(level + 1)
		left = &BinaryExprT{Pos: token.Pos, Op: token.Text, Left: left, Right: right}
		if level == comparisonLevel {
			next := parser.peek()
			if next.Kind == TokPunct && slices.Contains(comparisonOps, next.Text) {
				parser.failAt(next.Pos, "comparison operators cannot be chained")
			}
			return left
		}
	}
}

func (parser *parserT) parseCast() ExprT {
	expr := parser.parseUnary()
	for parser.atKeyword("as") {
		pos := parser.next().Pos
		typ := parser.parseType()
		if typ == nil {
			parser.failAt(pos, "cannot cast to unit type")
		}
		expr = &CastExprT{Pos: pos, Expr: expr, Type: typ}
	}
	return expr
}

func (parser *parserT) parseUnary() ExprT {
	token := parser.peek()
	if token.Is(TokPunct, "-") || token.Is(TokPunct, "!") {
		parser.next()
		return &UnaryExprT{Pos: token.Pos, Op: token.Text, Operand: parser.parseUnary()}
	}
	return parser.parsePrimary()
}

func (parser *parserT) parsePrimary() ExprT {
	token := parser.peek()
	switch token.Kind {
	case TokInt, TokFloat, TokChar, TokString:
		parser.next()
		kinds := map[TokenKindT]LiteralKindT{TokInt: IntLit, TokFloat: FloatLit, TokChar: CharLit, TokString: StringLit}
		return &LiteralExprT{Pos: token.Pos, Kind: kinds[token.Kind], Text: token.Text, Suffix: token.Suffix}
	case TokIdent:
		parser.next()
		if parser.atPunct("(") {
			return &CallExprT{Pos: token.Pos, Func: token.Text, Args: parser.parseArgs()}
		}
		if parser.atPunct("!") && parser.peekAhead(1).Is(TokPunct, "(") {
			parser.next()
			return &MacroCallExprT{Pos: token.Pos, Name: token.Text, Args: parser.parseArgs()}
		}
		return &IdentExprT{Pos: token.Pos, Name: token.Text}
	case TokPunct:
		switch token.Text {
		case "(":
			parser.next()
			expr := parser.parseExpr()
			parser.expectPunct(")")
			return &ParenExprT{Pos: token.Pos, Expr: expr}
		case "{":
			return parser.parseBlock()
		}
	case TokKeyword:
		switch token.Text {
		case "true", "false":
			parser.next()
			return &LiteralExprT{Pos: token.Pos, Kind: BoolLit, Text: token.Text}
		case "if":
			return parser.parseIf()
		case "while":
			parser.next()
			cond := parser.parseExpr()
			return &WhileExprT{Pos: token.Pos, Cond: cond, Body: parser.parseBlock()}
		case "loop":
			parser.next()
			return &LoopExprT{Pos: token.Pos, Body: parser.parseBlock()}
		case "break":
			parser.next()
			return &BreakExprT{Pos: token.Pos}
		case "continue":
			parser.next()
			return &ContinueExprT{Pos: token.Pos}
		case "return":
			parser.next()
			ret := &ReturnExprT{Pos: token.Pos}
			if !parser.atExprEnd() {
				ret.Value = parser.parseExpr()
			}
			return ret
		}
	}
	parser.fail("")
	return nil
}

func (parser *parserT) atExprEnd() bool {
	return parser.atEOF() || parser.atPunct(";") || parser.atPunct("}") ||
		parser.atPunct(")") || parser.atPunct(",")
}

func (parser *parserT) parseIf() *IfExprT {
	pos := parser.expectKeyword("if").Pos
	ifExpr := &IfExprT{Pos: pos, Cond: parser.parseExpr(), Then: parser.parseBlock()}
	if parser.acceptKeyword("else") {
		if parser.atKeyword("if") {
			ifExpr.Else = parser.parseIf()
		} else {
			ifExpr.Else = parser.parseBlock()
		}
	}
	return ifExpr
}

func (parser *parserT) parseArgs() []ExprT {
	parser.expectPunct("(")
	args := []ExprT{}
	for !parser.atPunct(")") {
		args = append(args, parser.parseExpr())
		if !parser.acceptPunct(",") {
			break
		}
	}
	parser.expectPunct(")")
	return args
}
