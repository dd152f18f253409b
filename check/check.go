// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

// Static checks on parsed files: name resolution, mutability, loop
// nesting, literal ranges, constant cycles and a rough type check.
// Types are only tracked as far as they are obvious; anything the
// checker can't figure out is left for the evaluator to complain about.

package check

import (
	"fmt"
	"go/constant"
	"go/token"
	"slices"
	"strings"

	"github.com/s48/pyrust/front"
	"github.com/s48/pyrust/util"
	"go.uber.org/zap"
)

type OptionsT struct {
	// Report an error if there is no function with this name.
	Entry string
	// Returning a value from a function with no result type is a
	// warning instead of an error.
	LenientReturns bool
	Logger         *zap.Logger
}

type bindingKindT int

const (
	letBinding bindingKindT = iota
	paramBinding
	constBinding
	staticBinding
	fnBinding
)

type bindingT struct {
	kind        bindingKindT
	name        string
	pos         front.PosT
	mutable     bool
	initialized bool
	used        bool
	typ         string // "" if unknown
	fn          *front.FnItemT
}

type scopeT map[string]*bindingT

type checkerT struct {
	file      string
	options   OptionsT
	logger    *zap.Logger
	diags     *util.PriorityQueueT[*DiagnosticT]
	scopes    util.StackT[scopeT]
	fn        *front.FnItemT // the function being checked
	loopDepth int
}

func Check(file *front.FileT, options OptionsT) []*DiagnosticT {
	checker := &checkerT{
		file:    file.Name,
		options: options,
		logger:  options.Logger,
		diags:   newDiagnosticQueue(),
	}
	if checker.logger == nil {
		checker.logger = zap.NewNop()
	}
	globals := scopeT{}
	checker.scopes.Push(globals)
	items := []front.ItemT{}
	for _, item := range file.Items {
		if checker.declareItem(globals, item) {
			items = append(items, item)
		}
	}
	checker.checkConstCycles(items)
	for _, item := range items {
		checker.checkItem(item)
	}
	if options.Entry != "" {
		binding := globals[options.Entry]
		if binding == nil || binding.kind != fnBinding {
			checker.error(front.PosT{Line: 1, Column: 1}, "no '%s' function", options.Entry)
		}
	}
	diags := checker.diags.Drain()
	checker.logger.Debug("checked file",
		zap.String("file", file.Name),
		zap.Int("items", len(file.Items)),
		zap.Int("diagnostics", len(diags)))
	return diags
}

func (checker *checkerT) report(pos front.PosT, severity SeverityT, format string, args ...any) {
	checker.diags.Enqueue(&DiagnosticT{
		File:     checker.file,
		Pos:      pos,
		Severity: severity,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (checker *checkerT) error(pos front.PosT, format string, args ...any) {
	checker.report(pos, Error, format, args...)
}

func (checker *checkerT) warning(pos front.PosT, format string, args ...any) {
	checker.report(pos, Warning, format, args...)
}

func (checker *checkerT) lookup(name string) *bindingT {
	binding, found := checker.scopes.Find(func(scope scopeT) bool { return scope[name] != nil })
	if !found {
		return nil
	}
	return binding[name]
}

//----------------------------------------------------------------
// Items

// Returns false if the name was already taken.

func (checker *checkerT) declareItem(scope scopeT, rawItem front.ItemT) bool {
	name := rawItem.ItemName()
	if previous := scope[name]; previous != nil && previous.kind != letBinding {
		checker.error(rawItem.Position(), "the name '%s' is defined multiple times (previous definition at %s)",
			name, previous.pos)
		return false
	}
	binding := &bindingT{name: name, pos: rawItem.Position(), initialized: true, used: true}
	switch item := rawItem.(type) {
	case *front.FnItemT:
		binding.kind = fnBinding
		binding.fn = item
	case *front.ConstItemT:
		binding.kind = constBinding
		if item.Static {
			binding.kind = staticBinding
			binding.mutable = item.Mutable
		}
		binding.typ = item.Type.Name
	}
	scope[name] = binding
	return true
}

func (checker *checkerT) checkItem(rawItem front.ItemT) {
	switch item := rawItem.(type) {
	case *front.FnItemT:
		checker.checkFn(item)
	case *front.ConstItemT:
		outerFn := checker.fn
		checker.fn = nil
		checker.checkInit(item.Value, item.Type)
		checker.fn = outerFn
	}
}

// Checks an initial value against a declared type.

func (checker *checkerT) checkInit(value front.ExprT, declared *front.TypeT) string {
	valueType := checker.checkExpr(value)
	if declared == nil {
		return valueType
	}
	if valueType != "" && !front.Assignable(valueType, declared.Name) {
		checker.error(value.Position(), "mismatched types: expected %s, found %s", declared.Name, valueType)
	}
	if front.IsIntType(declared.Name) {
		if n, ok := constIntValue(value); ok && !front.InIntRange(n, declared.Name) {
			checker.error(value.Position(), "literal out of range for %s", declared.Name)
		}
	}
	return declared.Name
}

// Nested functions can see items from enclosing blocks, but not
// their local variables.

func (checker *checkerT) checkFn(fn *front.FnItemT) {
	outerScopes := checker.scopes
	outerFn, outerLoops := checker.fn, checker.loopDepth
	checker.scopes = util.StackT[scopeT]{}
	items := scopeT{}
	for i := range outerScopes.Len() {
		for name, binding := range outerScopes.Ref(i) {
			if binding.kind != letBinding && binding.kind != paramBinding {
				items[name] = binding
			} else {
				delete(items, name)
			}
		}
	}
	checker.scopes.Push(items)
	checker.fn, checker.loopDepth = fn, 0

	params := scopeT{}
	for _, param := range fn.Params {
		if params[param.Name] != nil {
			checker.error(param.Pos, "identifier '%s' is bound more than once in this parameter list", param.Name)
		}
		params[param.Name] = &bindingT{kind: paramBinding, name: param.Name, pos: param.Pos,
			initialized: true, used: true, typ: param.Type.Name}
	}
	checker.scopes.Push(params)
	bodyType := checker.checkBlock(fn.Body)
	if fn.Body.Tail != nil && bodyType != "" {
		checker.checkReturnType(fn.Body.Tail.Position(), bodyType)
	} else if fn.Body.Tail == nil && fn.Result != nil && !blockDiverges(fn.Body) {
		checker.error(fn.Pos, "mismatched types: function '%s' returns %s, but its body has no final value",
			fn.Name, fn.Result.Name)
	}

	checker.scopes = outerScopes
	checker.fn, checker.loopDepth = outerFn, outerLoops
}

// Whether control never reaches the end of a block or expression.

func blockDiverges(block *front.BlockExprT) bool {
	if block.Tail != nil {
		return diverges(block.Tail)
	}
	if len(block.Stmts) == 0 {
		return false
	}
	stmt, ok := block.Stmts[len(block.Stmts)-1].(*front.ExprStmtT)
	return ok && diverges(stmt.Expr)
}

func diverges(rawExpr front.ExprT) bool {
	switch expr := rawExpr.(type) {
	case *front.ReturnExprT, *front.BreakExprT, *front.ContinueExprT:
		return true
	case *front.ParenExprT:
		return diverges(expr.Expr)
	case *front.BlockExprT:
		return blockDiverges(expr)
	case *front.IfExprT:
		return expr.Else != nil && blockDiverges(expr.Then) && diverges(expr.Else)
	case *front.LoopExprT:
		return !hasBreak(expr.Body)
	}
	return false
}

// Breaks in nested loops don't count.

func hasBreak(body *front.BlockExprT) bool {
	found := false
	front.WalkExpr(body, func(rawExpr front.ExprT) bool {
		switch rawExpr.(type) {
		case *front.BreakExprT:
			found = true
		case *front.LoopExprT, *front.WhileExprT:
			return false
		}
		return !found
	})
	return found
}

func (checker *checkerT) checkReturnType(pos front.PosT, valueType string) {
	fn := checker.fn
	expected := fn.Result.String()
	if front.Assignable(valueType, expected) {
		return
	}
	severity := Error
	if fn.Result == nil && checker.options.LenientReturns {
		severity = Warning
	}
	checker.report(pos, severity, "mismatched types: function '%s' returns %s, found %s",
		fn.Name, expected, valueType)
}

// Constants can refer to each other in any order, but not in a circle.

func (checker *checkerT) checkConstCycles(items []front.ItemT) {
	consts := map[string]*front.ConstItemT{}
	names := []string{}
	for _, rawItem := range items {
		if item, ok := rawItem.(*front.ConstItemT); ok {
			consts[item.Name] = item
			names = append(names, item.Name)
		}
	}
	edges := func(name string) []string {
		return ConstReferences(consts[name].Value)
	}
	order := map[string]int{}
	for i, name := range names {
		order[name] = i
	}
	for _, component := range util.StronglyConnectedComponents(names, edges) {
		if util.IsCycle(component, edges) {
			slices.SortFunc(component, func(x, y string) int { return order[x] - order[y] })
			first := consts[component[0]]
			checker.error(first.Pos, "cycle detected when evaluating constant '%s' (%s)",
				first.Name, strings.Join(component, ", "))
		}
	}
}

// The names a constant's value refers to.

func ConstReferences(value front.ExprT) []string {
	names := []string{}
	front.WalkExpr(value, func(expr front.ExprT) bool {
		if ident, ok := expr.(*front.IdentExprT); ok {
			names = append(names, ident.Name)
		}
		return true
	})
	return names
}

//----------------------------------------------------------------
// Blocks and statements

func (checker *checkerT) checkBlock(block *front.BlockExprT) string {
	scope := scopeT{}
	checker.scopes.Push(scope)
	for _, stmt := range block.Stmts {
		if itemStmt, ok := stmt.(*front.ItemStmtT); ok {
			checker.declareItem(scope, itemStmt.Item)
		}
	}
	locals := []*bindingT{}
	for _, rawStmt := range block.Stmts {
		switch stmt := rawStmt.(type) {
		case *front.LetStmtT:
			binding := &bindingT{kind: letBinding, name: stmt.Name, pos: stmt.Pos, mutable: stmt.Mutable}
			if stmt.Init != nil {
				binding.typ = checker.checkInit(stmt.Init, stmt.Type)
				binding.initialized = true
			} else if stmt.Type != nil {
				binding.typ = stmt.Type.Name
			}
			if binding.typ == front.UntypedInt || binding.typ == front.UntypedFloat {
				binding.typ = ""
			}
			// Shadowing an earlier binding in the same block is allowed.
			scope[stmt.Name] = binding
			locals = append(locals, binding)
		case *front.ItemStmtT:
			checker.checkItem(stmt.Item)
		case *front.ExprStmtT:
			checker.checkExpr(stmt.Expr)
		}
	}
	result := front.UnitType
	if block.Tail != nil {
		result = checker.checkExpr(block.Tail)
	} else if blockDiverges(block) {
		result = ""
	}
	checker.scopes.Pop()
	for _, binding := range locals {
		if !binding.used && !strings.HasPrefix(binding.name, "_") {
			checker.warning(binding.pos, "unused variable '%s'", binding.name)
		}
	}
	return result
}

//----------------------------------------------------------------
// Expressions.  Each returns the expression's type, or "" if it
// isn't known.

func (checker *checkerT) checkExpr(rawExpr front.ExprT) string {
	switch expr := rawExpr.(type) {
	case *front.LiteralExprT:
		return checker.checkLiteral(expr, false)
	case *front.IdentExprT:
		binding := checker.lookup(expr.Name)
		if binding == nil {
			checker.error(expr.Pos, "cannot find value '%s' in this scope", expr.Name)
			return ""
		}
		if binding.kind == fnBinding {
			checker.error(expr.Pos, "expected value, found function '%s'", expr.Name)
			return ""
		}
		if binding.kind == letBinding && !binding.initialized {
			checker.error(expr.Pos, "used binding '%s' isn't initialized", expr.Name)
		}
		binding.used = true
		return binding.typ
	case *front.ParenExprT:
		return checker.checkExpr(expr.Expr)
	case *front.BinaryExprT:
		return checker.checkBinary(expr)
	case *front.UnaryExprT:
		var typ string
		if lit, ok := expr.Operand.(*front.LiteralExprT); ok && expr.Op == "-" &&
			!front.UnsignedIntTypes.Contains(lit.Suffix) {
			typ = checker.checkLiteral(lit, true)
		} else {
			typ = checker.checkExpr(expr.Operand)
		}
		switch {
		case typ == "":
		case expr.Op == "!" && typ != "bool" && !front.IsIntType(typ):
			checker.error(expr.Pos, "cannot apply unary operator '!' to type %s", typ)
			return ""
		case expr.Op == "-" && !front.IsNumericType(typ):
			checker.error(expr.Pos, "cannot apply unary operator '-' to type %s", typ)
			return ""
		case expr.Op == "-" && front.UnsignedIntTypes.Contains(typ):
			checker.error(expr.Pos, "cannot apply unary operator '-' to unsigned type %s", typ)
			return ""
		}
		return typ
	case *front.CastExprT:
		from := checker.checkExpr(expr.Expr)
		to := expr.Type.Name
		if from != "" && !validCast(from, to) {
			checker.error(expr.Pos, "non-primitive cast: %s as %s", from, to)
		}
		return to
	case *front.AssignExprT:
		checker.checkAssign(expr)
		return front.UnitType
	case *front.BlockExprT:
		return checker.checkBlock(expr)
	case *front.IfExprT:
		checker.checkCondition(expr.Cond)
		thenType := checker.checkBlock(expr.Then)
		if expr.Else == nil {
			return front.UnitType
		}
		elseType := checker.checkExpr(expr.Else)
		if thenType == elseType {
			return thenType
		}
		return ""
	case *front.WhileExprT:
		checker.checkCondition(expr.Cond)
		checker.loopDepth += 1
		checker.checkBlock(expr.Body)
		checker.loopDepth -= 1
		return front.UnitType
	case *front.LoopExprT:
		checker.loopDepth += 1
		checker.checkBlock(expr.Body)
		checker.loopDepth -= 1
		if hasBreak(expr.Body) {
			return front.UnitType
		}
		return ""
	case *front.BreakExprT:
		if checker.loopDepth == 0 {
			checker.error(expr.Pos, "'break' outside of a loop")
		}
		return ""
	case *front.ContinueExprT:
		if checker.loopDepth == 0 {
			checker.error(expr.Pos, "'continue' outside of a loop")
		}
		return ""
	case *front.ReturnExprT:
		checker.checkReturn(expr)
		return ""
	case *front.CallExprT:
		return checker.checkCall(expr)
	case *front.MacroCallExprT:
		checker.checkMacro(expr)
		return front.UnitType
	}
	panic(fmt.Sprintf("unknown expression type %T", rawExpr))
}

// Negated literals are range checked after negation.

func (checker *checkerT) checkLiteral(lit *front.LiteralExprT, negated bool) string {
	typ := front.LiteralType(lit)
	if lit.Kind == front.IntLit {
		value, ok := front.IntLiteralValue(lit.Text)
		if !ok {
			checker.error(lit.Pos, "invalid integer literal '%s'", lit.Text)
			return ""
		}
		if negated {
			value = constant.UnaryOp(token.SUB, value, 0)
		}
		if lit.Suffix != "" && front.IsIntType(lit.Suffix) && !front.InIntRange(value, lit.Suffix) {
			checker.error(lit.Pos, "literal out of range for %s", lit.Suffix)
		}
	}
	return typ
}

func (checker *checkerT) checkCondition(cond front.ExprT) {
	typ := checker.checkExpr(cond)
	if typ != "" && typ != "bool" {
		checker.error(cond.Position(), "mismatched types: expected bool, found %s", typ)
	}
}

var comparisonOps = util.NewSet("==", "!=", "<", ">", "<=", ">=")

func (checker *checkerT) checkBinary(expr *front.BinaryExprT) string {
	left := checker.checkExpr(expr.Left)
	right := checker.checkExpr(expr.Right)
	if expr.Op == "&&" || expr.Op == "||" {
		for _, side := range []struct {
			typ  string
			expr front.ExprT
		}{{left, expr.Left}, {right, expr.Right}} {
			if side.typ != "" && side.typ != "bool" {
				checker.error(side.expr.Position(), "mismatched types: expected bool, found %s", side.typ)
			}
		}
		return "bool"
	}
	if left == "" || right == "" {
		if comparisonOps.Contains(expr.Op) {
			return "bool"
		}
		return ""
	}
	if !front.Assignable(left, right) && !front.Assignable(right, left) {
		checker.error(expr.Pos, "mismatched types: %s %s %s", left, expr.Op, right)
		return ""
	}
	if comparisonOps.Contains(expr.Op) {
		return "bool"
	}
	operand := left
	if left == front.UntypedInt || left == front.UntypedFloat {
		operand = right
	}
	switch {
	case front.IsNumericType(operand):
		if front.IsFloatType(operand) && strings.Contains("&|^", expr.Op) {
			checker.error(expr.Pos, "no implementation for %s %s %s", left, expr.Op, right)
			return ""
		}
	case operand == "bool" && strings.Contains("&|^", expr.Op):
	default:
		checker.error(expr.Pos, "cannot apply binary operator '%s' to type %s", expr.Op, operand)
		return ""
	}
	return operand
}

func validCast(from string, to string) bool {
	switch {
	case front.IsNumericType(from) && front.IsNumericType(to):
		return true
	case (from == "bool" || from == "char") && front.IsIntType(to):
		return true
	case from == "u8" && to == "char":
		return true
	case from == to:
		return true
	}
	return false
}

func (checker *checkerT) checkAssign(expr *front.AssignExprT) {
	valueType := checker.checkExpr(expr.Value)
	target, ok := expr.Target.(*front.IdentExprT)
	if !ok {
		checker.checkExpr(expr.Target)
		checker.error(expr.Pos, "invalid left-hand side of assignment")
		return
	}
	binding := checker.lookup(target.Name)
	if binding == nil {
		checker.error(target.Pos, "cannot find value '%s' in this scope", target.Name)
		return
	}
	switch binding.kind {
	case constBinding:
		checker.error(expr.Pos, "cannot assign to constant '%s'", target.Name)
		return
	case fnBinding:
		checker.error(expr.Pos, "invalid left-hand side of assignment")
		return
	case staticBinding:
		if !binding.mutable {
			checker.error(expr.Pos, "cannot assign to immutable static item '%s'", target.Name)
			return
		}
	case paramBinding:
		if !binding.mutable {
			checker.error(expr.Pos, "cannot assign to immutable argument '%s'", target.Name)
			return
		}
	case letBinding:
		if !binding.mutable && (binding.initialized || expr.Op != "=") {
			checker.error(expr.Pos, "cannot assign twice to immutable variable '%s'", target.Name)
			return
		}
	}
	if expr.Op != "=" {
		if !binding.initialized {
			checker.error(target.Pos, "used binding '%s' isn't initialized", target.Name)
		}
		binding.used = true
	}
	binding.initialized = true
	if binding.typ == "" && valueType != front.UntypedInt && valueType != front.UntypedFloat {
		binding.typ = valueType
	} else if binding.typ != "" && valueType != "" && !front.Assignable(valueType, binding.typ) {
		checker.error(expr.Value.Position(), "mismatched types: expected %s, found %s", binding.typ, valueType)
	}
}

func (checker *checkerT) checkReturn(expr *front.ReturnExprT) {
	if checker.fn == nil {
		if expr.Value != nil {
			checker.checkExpr(expr.Value)
		}
		checker.error(expr.Pos, "return statement outside of function body")
		return
	}
	valueType := front.UnitType
	if expr.Value != nil {
		valueType = checker.checkExpr(expr.Value)
	}
	if valueType != "" {
		checker.checkReturnType(expr.Pos, valueType)
	}
}

func (checker *checkerT) checkCall(expr *front.CallExprT) string {
	argTypes := make([]string, len(expr.Args))
	for i, arg := range expr.Args {
		argTypes[i] = checker.checkExpr(arg)
	}
	binding := checker.lookup(expr.Func)
	if binding == nil {
		checker.error(expr.Pos, "cannot find function '%s' in this scope", expr.Func)
		return ""
	}
	if binding.kind != fnBinding {
		checker.error(expr.Pos, "'%s' is not a function", expr.Func)
		return ""
	}
	fn := binding.fn
	if len(fn.Params) != len(expr.Args) {
		checker.error(expr.Pos, "function '%s' takes %d arguments but %d were supplied",
			fn.Name, len(fn.Params), len(expr.Args))
	} else {
		for i, param := range fn.Params {
			if argTypes[i] != "" && !front.Assignable(argTypes[i], param.Type.Name) {
				checker.error(expr.Args[i].Position(), "mismatched types: expected %s, found %s",
					param.Type.Name, argTypes[i])
			}
		}
	}
	return fn.Result.String()
}

func (checker *checkerT) checkMacro(expr *front.MacroCallExprT) {
	if !front.PrintMacros[expr.Name] {
		checker.error(expr.Pos, "cannot find macro '%s!' in this scope", expr.Name)
		return
	}
	for _, arg := range expr.Args {
		checker.checkExpr(arg)
	}
	if len(expr.Args) == 0 {
		if !strings.HasSuffix(expr.Name, "ln") {
			checker.error(expr.Pos, "requires at least a format string argument")
		}
		return
	}
	format, ok := expr.Args[0].(*front.LiteralExprT)
	if !ok || format.Kind != front.StringLit {
		checker.error(expr.Args[0].Position(), "format argument must be a string literal")
		return
	}
	pieces, err := front.ParseFormat(format.Text)
	if err != nil {
		checker.error(format.Pos, "%s", err.Error())
		return
	}
	for _, piece := range pieces {
		if piece.Placeholder && piece.Name != "" {
			binding := checker.lookup(piece.Name)
			if binding == nil || binding.kind == fnBinding {
				checker.error(format.Pos, "cannot find value '%s' in this scope", piece.Name)
			} else {
				binding.used = true
			}
		}
	}
	if want, have := front.PositionalCount(pieces), len(expr.Args)-1; want != have {
		checker.error(expr.Pos, "%d positional arguments in format string, but there are %d arguments", want, have)
	}
}

// The value of an integer literal, possibly negated.

func constIntValue(rawExpr front.ExprT) (constant.Value, bool) {
	switch expr := rawExpr.(type) {
	case *front.LiteralExprT:
		if expr.Kind == front.IntLit {
			return front.IntLiteralValue(expr.Text)
		}
	case *front.ParenExprT:
		return constIntValue(expr.Expr)
	case *front.UnaryExprT:
		if expr.Op == "-" {
			if n, ok := constIntValue(expr.Operand); ok {
				return constant.UnaryOp(token.SUB, n, 0), true
			}
		}
	}
	return nil, false
}
