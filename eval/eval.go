// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

// Run a parsed file by walking its syntax tree.
//
// Run-time errors unwind the evaluator with a panic carrying a
// *RuntimeErrorT, which Run recovers and returns.

package eval

import (
	"context"
	"errors"
	"fmt"
	"go/constant"
	"go/token"
	"io"
	"strings"

	"github.com/s48/pyrust/check"
	"github.com/s48/pyrust/front"
	"github.com/s48/pyrust/util"
	"go.uber.org/zap"
)

const (
	DefaultEntry = "main"
	maxCallDepth = 1000
	// How often, in steps, the context is checked.
	contextInterval = 256
)

type OptionsT struct {
	// The function to call; defaults to "main".
	Entry string
	// Arguments for the entry function.
	Args []ValueT
	// Where print! and println! go, and eprint! and eprintln!.
	// Nil discards the output.
	Stdout io.Writer
	Stderr io.Writer
	// Zero means no limit.
	MaxSteps int
	// Replacement initial values, keyed by the name of a top-level
	// const or static or a 'let' in the entry function.  The values
	// are source expressions such as "9" or "false".
	Overrides map[string]string
	Logger    *zap.Logger
}

type ResultT struct {
	// What the entry function returned, Unit if nothing.
	Value ValueT
	// True if the value came from a 'return' rather than falling off
	// the end of the function.
	Returned bool
	Steps    int
	Calls    int
}

type RuntimeErrorT struct {
	File    string
	Pos     front.PosT
	Message string
}

func (err *RuntimeErrorT) Error() string {
	if err.File == "" {
		return fmt.Sprintf("%s: %s", err.Pos, err.Message)
	}
	return fmt.Sprintf("%s:%s: %s", err.File, err.Pos, err.Message)
}

// Panic payload for context cancellation.
type stoppedT struct {
	err error
}

//----------------------------------------------------------------
// Variables and scopes

type variableT struct {
	name        string
	value       ValueT
	typ         string // declared type, or "" to take the type of the first typed value
	mutable     bool
	constant    bool
	initialized bool
	fn          *front.FnItemT // non-nil for functions
	// For nested functions, the frame and scope depth where the
	// function was declared.
	env      *frameT
	envDepth int
}

type scopeT map[string]*variableT

type frameT struct {
	fn     *front.FnItemT
	scopes util.StackT[scopeT]
}

type controlT int

const (
	normal controlT = iota
	breaking
	continuing
	returning
)

type interpT struct {
	ctx         context.Context
	file        *front.FileT
	options     OptionsT
	logger      *zap.Logger
	stdout      io.Writer
	stderr      io.Writer
	globals     scopeT
	frame       *frameT
	depth       int
	steps       int
	calls       int
	entry       *front.FnItemT
	overrides   map[string]ValueT
	returnValue ValueT
}

func Run(ctx context.Context, file *front.FileT, options OptionsT) (result *ResultT, err error) {
	interp := &interpT{
		ctx:       ctx,
		file:      file,
		options:   options,
		logger:    options.Logger,
		stdout:    options.Stdout,
		stderr:    options.Stderr,
		globals:   scopeT{},
		overrides: map[string]ValueT{},
	}
	if interp.logger == nil {
		interp.logger = zap.NewNop()
	}
	if interp.stdout == nil {
		interp.stdout = io.Discard
	}
	if interp.stderr == nil {
		interp.stderr = io.Discard
	}
	entryName := options.Entry
	if entryName == "" {
		entryName = DefaultEntry
	}

	defer func() {
		if r := recover(); r != nil {
			switch x := r.(type) {
			case *RuntimeErrorT:
				result, err = nil, x
			case stoppedT:
				result, err = nil, fmt.Errorf("evaluation stopped after %d steps: %w", interp.steps, x.err)
			default:
				panic(r)
			}
		}
	}()

	entry, ok := file.Item(entryName).(*front.FnItemT)
	if !ok {
		return nil, fmt.Errorf("%s: no '%s' function", file.Name, entryName)
	}
	interp.entry = entry
	if err := interp.parseOverrides(); err != nil {
		return nil, err
	}
	interp.defineGlobals()

	value, returned := interp.call(&variableT{name: entry.Name, fn: entry}, options.Args, entry.Pos)
	interp.logger.Debug("run finished",
		zap.String("entry", entryName),
		zap.Int("steps", interp.steps),
		zap.Int("calls", interp.calls),
		zap.Stringer("value", value))
	return &ResultT{Value: value, Returned: returned, Steps: interp.steps, Calls: interp.calls}, nil
}

func (interp *interpT) fail(pos front.PosT, format string, args ...any) {
	panic(&RuntimeErrorT{File: interp.file.Name, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

func (interp *interpT) step(pos front.PosT) {
	interp.steps += 1
	if 0 < interp.options.MaxSteps && interp.options.MaxSteps < interp.steps {
		interp.fail(pos, "step limit of %d exceeded", interp.options.MaxSteps)
	}
	if interp.steps%contextInterval == 0 {
		if err := interp.ctx.Err(); err != nil {
			panic(stoppedT{err})
		}
	}
}

//----------------------------------------------------------------
// Globals and overrides

// Overrides can name top-level constants and statics or 'let'
// bindings in the entry function.

func (interp *interpT) parseOverrides() error {
	if len(interp.options.Overrides) == 0 {
		return nil
	}
	names := util.NewSet[string]()
	for _, item := range interp.file.Items {
		if _, ok := item.(*front.ConstItemT); ok {
			names.Add(item.ItemName())
		}
	}
	front.WalkExpr(interp.entry.Body, func(expr front.ExprT) bool {
		if block, ok := expr.(*front.BlockExprT); ok {
			for _, stmt := range block.Stmts {
				if let, ok := stmt.(*front.LetStmtT); ok {
					names.Add(let.Name)
				}
			}
		}
		return true
	})
	for name, source := range interp.options.Overrides {
		if !names.Contains(name) {
			return fmt.Errorf("cannot override '%s': no constant or variable with that name (have %s)",
				name, util.SortedString(names))
		}
		expr, err := front.ParseExpr(source)
		if err != nil {
			return fmt.Errorf("bad value for '%s': %w", name, err)
		}
		value, err := interp.constantValue(expr)
		if err != nil {
			return fmt.Errorf("bad value for '%s': %w", name, err)
		}
		interp.overrides[name] = value
	}
	return nil
}

// Evaluates an expression outside of any function.

func (interp *interpT) constantValue(expr front.ExprT) (value ValueT, err error) {
	defer func() {
		if r := recover(); r != nil {
			runtimeErr, ok := r.(*RuntimeErrorT)
			if !ok {
				panic(r)
			}
			err = errors.New(runtimeErr.Message)
		}
	}()
	saved := interp.frame
	interp.frame = &frameT{}
	interp.frame.scopes.Push(scopeT{})
	defer func() { interp.frame = saved }()
	value, _ = interp.evalExpr(expr)
	return value, nil
}

// Functions first, so constants can call them, then the constants
// and statics, each after the ones it refers to.

func (interp *interpT) defineGlobals() {
	interp.frame = &frameT{}
	interp.frame.scopes.Push(scopeT{})
	defer func() { interp.frame = nil }()
	consts := []*front.ConstItemT{}
	for _, rawItem := range interp.file.Items {
		switch item := rawItem.(type) {
		case *front.FnItemT:
			interp.globals[item.Name] = &variableT{name: item.Name, fn: item, constant: true, initialized: true}
		case *front.ConstItemT:
			consts = append(consts, item)
		}
	}
	interp.defineConsts(consts, interp.globals, true)
}

// Defines 'items' in 'scope', each after the ones it refers to.
// Overrides only apply to top-level items.

func (interp *interpT) defineConsts(items []*front.ConstItemT, scope scopeT, topLevel bool) {
	consts := map[string]*front.ConstItemT{}
	names := make([]string, len(items))
	for i, item := range items {
		consts[item.Name] = item
		names[i] = item.Name
	}
	edges := func(name string) []string { return check.ConstReferences(consts[name].Value) }
	components := util.StronglyConnectedComponents(names, edges)
	for i := len(components) - 1; 0 <= i; i-- {
		component := components[i]
		if util.IsCycle(component, edges) {
			item := consts[component[0]]
			interp.fail(item.Pos, "cycle detected when evaluating constant '%s'", item.Name)
		}
		interp.defineConst(consts[component[0]], scope, topLevel)
	}
}

func (interp *interpT) defineConst(item *front.ConstItemT, scope scopeT, topLevel bool) {
	value, found := interp.overrides[item.Name]
	if !found || !topLevel {
		value, _ = interp.evalExpr(item.Value)
	}
	value = interp.convert(item.Value.Position(), value, item.Type.Name)
	scope[item.Name] = &variableT{
		name:        item.Name,
		value:       value,
		typ:         item.Type.Name,
		mutable:     item.Mutable,
		constant:    !item.Static,
		initialized: true,
	}
}

func (interp *interpT) convert(pos front.PosT, value ValueT, typ string) ValueT {
	result, err := convert(value, typ)
	if err != nil {
		interp.fail(pos, "%s", err.Error())
	}
	return result
}

func (interp *interpT) lookup(name string) *variableT {
	scope, found := interp.frame.scopes.Find(func(scope scopeT) bool { return scope[name] != nil })
	if found {
		return scope[name]
	}
	return interp.globals[name]
}

//----------------------------------------------------------------
// Calls

func (interp *interpT) call(callee *variableT, args []ValueT, pos front.PosT) (ValueT, bool) {
	fn := callee.fn
	if len(args) != len(fn.Params) {
		interp.fail(pos, "function '%s' takes %d arguments but %d were supplied", fn.Name, len(fn.Params), len(args))
	}
	if maxCallDepth <= interp.depth {
		interp.fail(pos, "stack overflow calling '%s'", fn.Name)
	}
	interp.calls += 1
	interp.logger.Debug("call", zap.String("fn", fn.Name), zap.Int("depth", interp.depth))

	params := scopeT{}
	for i, param := range fn.Params {
		params[param.Name] = &variableT{
			name:        param.Name,
			value:       interp.convert(pos, args[i], param.Type.Name),
			typ:         param.Type.Name,
			initialized: true,
		}
	}
	// Nested functions see the items of enclosing blocks but not
	// their variables.  Functions can't escape the block that declares
	// them, so the declaring scopes are still live.
	frame := &frameT{fn: fn}
	if callee.env != nil {
		items := scopeT{}
		for i := range callee.envDepth {
			for name, vart := range callee.env.scopes.Ref(i) {
				if vart.fn != nil || vart.constant {
					items[name] = vart
				}
			}
		}
		frame.scopes.Push(items)
	}
	frame.scopes.Push(params)

	saved := interp.frame
	interp.frame = frame
	interp.depth += 1
	defer func() {
		interp.frame = saved
		interp.depth -= 1
	}()

	value, control := interp.evalBlock(fn.Body)
	returned := control == returning
	if returned {
		value = interp.returnValue
		interp.returnValue = Unit
	}
	if fn.Result != nil {
		value = interp.convert(pos, value, fn.Result.Name)
	}
	return value, returned
}

//----------------------------------------------------------------
// Blocks and statements

func (interp *interpT) evalBlock(block *front.BlockExprT) (ValueT, controlT) {
	interp.step(block.Pos)
	scope := scopeT{}
	scopes := &interp.frame.scopes
	scopes.Push(scope)
	defer scopes.Pop()

	// Items are visible throughout the block.
	consts := []*front.ConstItemT{}
	for _, stmt := range block.Stmts {
		itemStmt, ok := stmt.(*front.ItemStmtT)
		if !ok {
			continue
		}
		switch item := itemStmt.Item.(type) {
		case *front.FnItemT:
			scope[item.Name] = &variableT{
				name:        item.Name,
				fn:          item,
				constant:    true,
				initialized: true,
				env:         interp.frame,
				envDepth:    scopes.Len(),
			}
		case *front.ConstItemT:
			consts = append(consts, item)
		}
	}
	if len(consts) != 0 {
		interp.defineConsts(consts, scope, false)
	}
	for _, rawStmt := range block.Stmts {
		switch stmt := rawStmt.(type) {
		case *front.LetStmtT:
			if control := interp.evalLet(stmt, scope); control != normal {
				return Unit, control
			}
		case *front.ExprStmtT:
			if _, control := interp.evalExpr(stmt.Expr); control != normal {
				return Unit, control
			}
		}
	}
	if block.Tail == nil {
		return Unit, normal
	}
	return interp.evalExpr(block.Tail)
}

func (interp *interpT) evalLet(let *front.LetStmtT, scope scopeT) controlT {
	interp.step(let.Pos)
	vart := &variableT{name: let.Name, mutable: let.Mutable}
	if let.Type != nil {
		vart.typ = let.Type.Name
	}
	override, overridden := interp.overrides[let.Name]
	if overridden && interp.frame.fn == interp.entry && let.Init != nil {
		vart.value = override
		vart.initialized = true
	} else if let.Init != nil {
		value, control := interp.evalExpr(let.Init)
		if control != normal {
			// 'let x = return;' and the like.
			return control
		}
		vart.value = value
		vart.initialized = true
	}
	if vart.initialized && vart.typ != "" {
		vart.value = interp.convert(let.Pos, vart.value, vart.typ)
	}
	scope[let.Name] = vart
	return normal
}

// Control transfers out of the middle of an expression are rare
// enough that they unwind with a panic to the enclosing statement.

type controlSignalT struct {
	control controlT
}

//----------------------------------------------------------------
// Expressions

func (interp *interpT) evalExpr(rawExpr front.ExprT) (result ValueT, control controlT) {
	interp.step(rawExpr.Position())
	switch expr := rawExpr.(type) {
	case *front.LiteralExprT:
		return interp.evalLiteral(expr), normal
	case *front.IdentExprT:
		vart := interp.lookup(expr.Name)
		switch {
		case vart == nil:
			interp.fail(expr.Pos, "cannot find value '%s' in this scope", expr.Name)
		case vart.fn != nil:
			interp.fail(expr.Pos, "expected value, found function '%s'", expr.Name)
		case !vart.initialized:
			interp.fail(expr.Pos, "use of possibly-uninitialized '%s'", expr.Name)
		}
		return vart.value, normal
	case *front.ParenExprT:
		return interp.evalExpr(expr.Expr)
	case *front.BinaryExprT:
		return interp.evalOperands(func() ValueT { return interp.evalBinary(expr) })
	case *front.UnaryExprT:
		// '-128i8' is in range even though '128i8' is not.
		if lit, ok := expr.Operand.(*front.LiteralExprT); ok && expr.Op == "-" &&
			lit.Kind == front.IntLit && !front.UnsignedIntTypes.Contains(lit.Suffix) {
			return interp.evalIntLiteral(lit, true), normal
		}
		return interp.evalOperands(func() ValueT {
			operand := interp.value(expr.Operand)
			result, err := applyUnary(expr.Op, operand)
			if err != nil {
				interp.fail(expr.Pos, "%s", err.Error())
			}
			return result
		})
	case *front.CastExprT:
		return interp.evalOperands(func() ValueT {
			result, err := cast(interp.value(expr.Expr), expr.Type.Name)
			if err != nil {
				interp.fail(expr.Pos, "%s", err.Error())
			}
			return result
		})
	case *front.AssignExprT:
		return interp.evalOperands(func() ValueT {
			interp.evalAssign(expr)
			return Unit
		})
	case *front.BlockExprT:
		return interp.evalBlock(expr)
	case *front.IfExprT:
		cond, control := interp.evalCondition(expr.Cond)
		if control != normal {
			return Unit, control
		}
		if cond {
			return interp.evalBlock(expr.Then)
		}
		if expr.Else != nil {
			return interp.evalExpr(expr.Else)
		}
		return Unit, normal
	case *front.WhileExprT:
		for {
			cond, control := interp.evalCondition(expr.Cond)
			if control != normal {
				return Unit, control
			}
			if !cond {
				return Unit, normal
			}
			_, control = interp.evalBlock(expr.Body)
			if control == breaking {
				return Unit, normal
			}
			if control == returning {
				return Unit, control
			}
		}
	case *front.LoopExprT:
		for {
			_, control := interp.evalBlock(expr.Body)
			if control == breaking {
				return Unit, normal
			}
			if control == returning {
				return Unit, control
			}
		}
	case *front.BreakExprT:
		return Unit, breaking
	case *front.ContinueExprT:
		return Unit, continuing
	case *front.ReturnExprT:
		if interp.frame.fn == nil {
			interp.fail(expr.Pos, "return statement outside of function body")
		}
		value := Unit
		if expr.Value != nil {
			var control controlT
			value, control = interp.evalExpr(expr.Value)
			if control != normal {
				return Unit, control
			}
		}
		interp.returnValue = value
		return Unit, returning
	case *front.CallExprT:
		return interp.evalOperands(func() ValueT { return interp.evalCall(expr) })
	case *front.MacroCallExprT:
		return interp.evalOperands(func() ValueT {
			interp.evalMacro(expr)
			return Unit
		})
	}
	panic(fmt.Sprintf("unknown expression type %T", rawExpr))
}

// Runs 'compute', which evaluates operands with interp.value, turning
// any break, continue or return inside an operand into a control
// result.

func (interp *interpT) evalOperands(compute func() ValueT) (result ValueT, control controlT) {
	defer func() {
		if r := recover(); r != nil {
			signal, ok := r.(controlSignalT)
			if !ok {
				panic(r)
			}
			result, control = Unit, signal.control
		}
	}()
	return compute(), normal
}

// The value of an operand.
func (interp *interpT) value(expr front.ExprT) ValueT {
	value, control := interp.evalExpr(expr)
	if control != normal {
		panic(controlSignalT{control})
	}
	return value
}

func (interp *interpT) evalCondition(expr front.ExprT) (bool, controlT) {
	value, control := interp.evalExpr(expr)
	if control != normal {
		return false, control
	}
	if value.Type != "bool" {
		interp.fail(expr.Position(), "mismatched types: expected bool, found %s", value.Type)
	}
	return value.Bool(), normal
}

func (interp *interpT) evalLiteral(lit *front.LiteralExprT) ValueT {
	typ := front.LiteralType(lit)
	switch lit.Kind {
	case front.IntLit:
		return interp.evalIntLiteral(lit, false)
	case front.FloatLit:
		f, ok := front.FloatLiteralValue(lit.Text)
		if !ok {
			interp.fail(lit.Pos, "invalid float literal '%s'", lit.Text)
		}
		return MakeFloat(f, typ)
	case front.BoolLit:
		return MakeBool(lit.Text == "true")
	case front.CharLit:
		return MakeChar([]rune(lit.Text)[0])
	}
	return MakeString(lit.Text)
}

func (interp *interpT) evalIntLiteral(lit *front.LiteralExprT, negated bool) ValueT {
	typ := front.LiteralType(lit)
	n, ok := front.IntLiteralValue(lit.Text)
	if !ok {
		interp.fail(lit.Pos, "invalid integer literal '%s'", lit.Text)
	}
	if negated {
		n = constant.UnaryOp(token.SUB, n, 0)
	}
	if front.IsFloatType(typ) {
		return MakeFloat(ValueT{Type: front.UntypedInt, Value: n}.Float(), typ)
	}
	if !front.InIntRange(n, typ) {
		interp.fail(lit.Pos, "literal out of range for %s", typ)
	}
	return ValueT{Type: typ, Value: n}
}

func (interp *interpT) evalBinary(expr *front.BinaryExprT) ValueT {
	if expr.Op == "&&" || expr.Op == "||" {
		left := interp.value(expr.Left)
		if left.Type != "bool" {
			interp.fail(expr.Left.Position(), "mismatched types: expected bool, found %s", left.Type)
		}
		if left.Bool() == (expr.Op == "||") {
			return left
		}
		right := interp.value(expr.Right)
		if right.Type != "bool" {
			interp.fail(expr.Right.Position(), "mismatched types: expected bool, found %s", right.Type)
		}
		return right
	}
	left := interp.value(expr.Left)
	right := interp.value(expr.Right)
	result, err := OperatorTable[expr.Op].Apply(left, right)
	if err != nil {
		interp.fail(expr.Pos, "%s", err.Error())
	}
	return result
}

func (interp *interpT) evalAssign(expr *front.AssignExprT) {
	target, ok := expr.Target.(*front.IdentExprT)
	if !ok {
		interp.fail(expr.Pos, "invalid left-hand side of assignment")
	}
	value := interp.value(expr.Value)
	vart := interp.lookup(target.Name)
	switch {
	case vart == nil:
		interp.fail(target.Pos, "cannot find value '%s' in this scope", target.Name)
	case vart.fn != nil:
		interp.fail(expr.Pos, "invalid left-hand side of assignment")
	case vart.constant:
		interp.fail(expr.Pos, "cannot assign to constant '%s'", target.Name)
	case !vart.mutable && vart.initialized:
		interp.fail(expr.Pos, "cannot assign twice to immutable variable '%s'", target.Name)
	}
	if expr.Op != "=" {
		if !vart.initialized {
			interp.fail(target.Pos, "use of possibly-uninitialized '%s'", target.Name)
		}
		result, err := OperatorTable[expr.Op].Apply(vart.value, value)
		if err != nil {
			interp.fail(expr.Pos, "%s", err.Error())
		}
		value = result
	}
	switch {
	case vart.typ != "":
		value = interp.convert(expr.Value.Position(), value, vart.typ)
	case vart.initialized && vart.value.Type != value.Type:
		// An untyped variable takes on the type of the first typed
		// value assigned to it.
		if _, _, err := unify(vart.value, value); err != nil {
			interp.fail(expr.Value.Position(), "mismatched types: expected %s, found %s", vart.value.Type, value.Type)
		}
		if value.Type == front.UntypedInt || value.Type == front.UntypedFloat {
			value = interp.convert(expr.Value.Position(), value, vart.value.Type)
		}
	}
	vart.value = value
	vart.initialized = true
}

func (interp *interpT) evalCall(expr *front.CallExprT) ValueT {
	vart := interp.lookup(expr.Func)
	if vart == nil || vart.fn == nil {
		interp.fail(expr.Pos, "cannot find function '%s' in this scope", expr.Func)
	}
	args := make([]ValueT, len(expr.Args))
	for i, arg := range expr.Args {
		args[i] = interp.value(arg)
	}
	value, _ := interp.call(vart, args, expr.Pos)
	return value
}

func (interp *interpT) evalMacro(expr *front.MacroCallExprT) {
	if !front.PrintMacros[expr.Name] {
		interp.fail(expr.Pos, "cannot find macro '%s!' in this scope", expr.Name)
	}
	var text strings.Builder
	if 0 < len(expr.Args) {
		format, ok := expr.Args[0].(*front.LiteralExprT)
		if !ok || format.Kind != front.StringLit {
			interp.fail(expr.Args[0].Position(), "format argument must be a string literal")
		}
		pieces, err := front.ParseFormat(format.Text)
		if err != nil {
			interp.fail(format.Pos, "%s", err.Error())
		}
		args := expr.Args[1:]
		if want := front.PositionalCount(pieces); want != len(args) {
			interp.fail(expr.Pos, "%d positional arguments in format string, but there are %d arguments",
				want, len(args))
		}
		next := 0
		for _, piece := range pieces {
			if !piece.Placeholder {
				text.WriteString(piece.Text)
				continue
			}
			var value ValueT
			if piece.Name == "" {
				value = interp.value(args[next])
				next += 1
			} else {
				value = interp.value(&front.IdentExprT{Pos: format.Pos, Name: piece.Name})
			}
			if piece.Debug {
				text.WriteString(value.Debug())
			} else {
				text.WriteString(value.String())
			}
		}
	}
	if strings.HasSuffix(expr.Name, "ln") {
		text.WriteByte('\n')
	}
	out := interp.stdout
	if strings.HasPrefix(expr.Name, "e") {
		out = interp.stderr
	}
	if _, err := io.WriteString(out, text.String()); err != nil {
		interp.fail(expr.Pos, "failed printing to output: %s", err)
	}
}
