// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

// The binary and unary operators.  Each binary operator is an object
// in a table indexed by its source name, which the evaluator looks up
// and applies.

package eval

import (
	"fmt"
	"go/constant"
	"go/token"
	"math"

	"github.com/s48/pyrust/front"
)

type OperatorT interface {
	Name() string
	Apply(left ValueT, right ValueT) (ValueT, error)
}

var OperatorTable = map[string]OperatorT{}

func addOperator(op OperatorT) {
	OperatorTable[op.Name()] = op
}

func init() {
	addOperator(&ArithOpT{"+", token.ADD, "add"})
	addOperator(&ArithOpT{"-", token.SUB, "subtract"})
	addOperator(&ArithOpT{"*", token.MUL, "multiply"})
	addOperator(&ArithOpT{"/", token.QUO_ASSIGN, "divide"}) // QUO_ASSIGN truncates
	addOperator(&ArithOpT{"%", token.REM, "calculate the remainder"})
	addOperator(&BitOpT{"&", token.AND})
	addOperator(&BitOpT{"|", token.OR})
	addOperator(&BitOpT{"^", token.XOR})
	addOperator(&CompOpT{"==", token.EQL})
	addOperator(&CompOpT{"!=", token.NEQ})
	addOperator(&CompOpT{"<", token.LSS})
	addOperator(&CompOpT{">", token.GTR})
	addOperator(&CompOpT{"<=", token.LEQ})
	addOperator(&CompOpT{">=", token.GEQ})
}

//----------------------------------------------------------------
// + - * / %

type ArithOpT struct {
	name string
	op   token.Token
	verb string // for overflow messages
}

func (op *ArithOpT) Name() string { return op.name }

func (op *ArithOpT) Apply(left ValueT, right ValueT) (ValueT, error) {
	left, right, err := unify(left, right)
	if err != nil {
		return Unit, fmt.Errorf("cannot %s %s to %s", op.verb, right.Type, left.Type)
	}
	typ := left.Type
	switch {
	case front.IsFloatType(typ):
		x, y := left.Float(), right.Float()
		var result float64
		switch op.name {
		case "+":
			result = x + y
		case "-":
			result = x - y
		case "*":
			result = x * y
		case "/":
			result = x / y
		case "%":
			result = math.Mod(x, y)
		}
		return MakeFloat(result, typ), nil
	case front.IsIntType(typ):
		if (op.name == "/" || op.name == "%") && constant.Sign(right.Value) == 0 {
			if op.name == "/" {
				return Unit, fmt.Errorf("attempt to divide by zero")
			}
			return Unit, fmt.Errorf("attempt to calculate the remainder with a divisor of zero")
		}
		result := constant.BinaryOp(left.Value, op.op, right.Value)
		if !front.InIntRange(result, typ) || untypedOverflow(left, right, result) {
			return Unit, fmt.Errorf("attempt to %s with overflow", op.verb)
		}
		return ValueT{Type: typ, Value: result}, nil
	}
	return Unit, fmt.Errorf("cannot apply binary operator '%s' to type %s", op.name, typ)
}

// Integers that nothing gives a type to are i32s.  Operands outside
// of the i32 range show that the context wants some larger type.

func untypedOverflow(left ValueT, right ValueT, result constant.Value) bool {
	return left.Type == front.UntypedInt &&
		front.InIntRange(left.Value, "i32") &&
		front.InIntRange(right.Value, "i32") &&
		!front.InIntRange(result, "i32")
}

//----------------------------------------------------------------
// & | ^ on integers and bools

type BitOpT struct {
	name string
	op   token.Token
}

func (op *BitOpT) Name() string { return op.name }

func (op *BitOpT) Apply(left ValueT, right ValueT) (ValueT, error) {
	left, right, err := unify(left, right)
	if err != nil {
		return Unit, err
	}
	switch {
	case left.Type == "bool":
		x, y := left.Bool(), right.Bool()
		switch op.name {
		case "&":
			return MakeBool(x && y), nil
		case "|":
			return MakeBool(x || y), nil
		}
		return MakeBool(x != y), nil
	case front.IsIntType(left.Type):
		// Exact two's complement arithmetic keeps the result in range.
		return ValueT{Type: left.Type, Value: constant.BinaryOp(left.Value, op.op, right.Value)}, nil
	}
	return Unit, fmt.Errorf("no implementation for %s %s %s", left.Type, op.name, right.Type)
}

//----------------------------------------------------------------
// Comparisons

type CompOpT struct {
	name string
	op   token.Token
}

func (op *CompOpT) Name() string { return op.name }

func (op *CompOpT) Apply(left ValueT, right ValueT) (ValueT, error) {
	left, right, err := unify(left, right)
	if err != nil {
		return Unit, err
	}
	switch {
	case left.IsUnit():
		return MakeBool(op.op == token.EQL || op.op == token.LEQ || op.op == token.GEQ), nil
	case front.IsFloatType(left.Type):
		x, y := left.Float(), right.Float()
		switch op.op {
		case token.EQL:
			return MakeBool(x == y), nil
		case token.NEQ:
			return MakeBool(x != y), nil
		case token.LSS:
			return MakeBool(x < y), nil
		case token.GTR:
			return MakeBool(x > y), nil
		case token.LEQ:
			return MakeBool(x <= y), nil
		}
		return MakeBool(x >= y), nil
	case left.Type == "bool":
		// false < true
		x, y := boolInt(left.Bool()), boolInt(right.Bool())
		return MakeBool(constant.Compare(x, op.op, y)), nil
	}
	return MakeBool(constant.Compare(left.Value, op.op, right.Value)), nil
}

func boolInt(b bool) constant.Value {
	if b {
		return constant.MakeInt64(1)
	}
	return constant.MakeInt64(0)
}

//----------------------------------------------------------------
// Unary - and !

func applyUnary(op string, value ValueT) (ValueT, error) {
	typ := value.Type
	switch {
	case op == "-" && front.IsFloatType(typ):
		return MakeFloat(-value.F, typ), nil
	case op == "-" && front.IsIntType(typ) && front.IsSigned(typ):
		result := constant.UnaryOp(token.SUB, value.Value, 0)
		if !front.InIntRange(result, typ) {
			return Unit, fmt.Errorf("attempt to negate with overflow")
		}
		return ValueT{Type: typ, Value: result}, nil
	case op == "!" && typ == "bool":
		return MakeBool(!value.Bool()), nil
	case op == "!" && front.IsIntType(typ):
		var prec uint
		if !front.IsSigned(typ) {
			prec = uint(front.IntBits(typ))
		}
		return ValueT{Type: typ, Value: constant.UnaryOp(token.XOR, value.Value, prec)}, nil
	}
	return Unit, fmt.Errorf("cannot apply unary operator '%s' to type %s", op, typ)
}
