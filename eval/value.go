// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

// Run-time values.  Integers, chars, bools and strings are kept as
// exact go/constant values; integers are range checked against their
// Rust type after every operation.  Floats are plain float64s, as
// go/constant has no infinities or NaNs.

package eval

import (
	"fmt"
	"go/constant"
	"go/token"
	"math"
	"math/big"
	"strconv"

	"github.com/s48/pyrust/front"
)

type ValueT struct {
	Type  string // a primitive type name, or one of the front.Untyped*/StrType/UnitType
	Value constant.Value
	F     float64
}

var Unit = ValueT{Type: front.UnitType}

func MakeBool(b bool) ValueT { return ValueT{Type: "bool", Value: constant.MakeBool(b)} }

func MakeInt(n int64, typ string) ValueT { return ValueT{Type: typ, Value: constant.MakeInt64(n)} }

func MakeFloat(f float64, typ string) ValueT {
	if typ == "f32" {
		f = float64(float32(f))
	}
	return ValueT{Type: typ, F: f}
}

func MakeChar(r rune) ValueT { return ValueT{Type: "char", Value: constant.MakeInt64(int64(r))} }

func MakeString(s string) ValueT { return ValueT{Type: front.StrType, Value: constant.MakeString(s)} }

func (value ValueT) IsUnit() bool { return value.Type == front.UnitType }

func (value ValueT) Bool() bool {
	if value.Type != "bool" {
		panic("value is not a bool: " + value.Type)
	}
	return constant.BoolVal(value.Value)
}

func (value ValueT) Int64() (int64, bool) {
	return constant.Int64Val(value.Value)
}

func (value ValueT) Float() float64 {
	if front.IsFloatType(value.Type) {
		return value.F
	}
	f, _ := constant.Float64Val(constant.ToFloat(value.Value))
	return f
}

// Display formatting, as used by '{}'.

func (value ValueT) String() string {
	switch {
	case value.IsUnit():
		return "()"
	case value.Type == "bool":
		return strconv.FormatBool(value.Bool())
	case value.Type == "char":
		n, _ := value.Int64()
		return string(rune(n))
	case value.Type == front.StrType:
		return constant.StringVal(value.Value)
	case front.IsFloatType(value.Type):
		return formatFloat(value.Float(), value.Type == "f32")
	}
	return value.Value.ExactString()
}

// Debug formatting, as used by '{:?}'.

func (value ValueT) Debug() string {
	switch value.Type {
	case "char":
		n, _ := value.Int64()
		return "'" + string(rune(n)) + "'"
	case front.StrType:
		return strconv.Quote(constant.StringVal(value.Value))
	}
	return value.String()
}

// Rust prints whole floats with a trailing '.0', and f32s with the
// fewest digits that identify the float32.

func formatFloat(f float64, single bool) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	bits := 64
	if single {
		bits = 32
	}
	text := strconv.FormatFloat(f, 'f', -1, bits)
	if f == math.Trunc(f) {
		text += ".0"
	}
	return text
}

//----------------------------------------------------------------
// Conversions

// Gives an untyped value the type 'typ', checking that it fits.
// Values that already have a type must match exactly.

func convert(value ValueT, typ string) (ValueT, error) {
	switch {
	case value.Type == typ:
		return value, nil
	case value.Type == front.UntypedInt && front.IsIntType(typ):
		if !front.InIntRange(value.Value, typ) {
			return value, fmt.Errorf("literal out of range for %s", typ)
		}
		return ValueT{Type: typ, Value: value.Value}, nil
	case value.Type == front.UntypedInt && front.IsFloatType(typ):
		return MakeFloat(value.Float(), typ), nil
	case value.Type == front.UntypedFloat && front.IsFloatType(typ):
		return MakeFloat(value.Float(), typ), nil
	case typ == front.UntypedInt && front.IsIntType(value.Type):
		return value, nil
	case typ == front.UntypedFloat && front.IsFloatType(value.Type):
		return value, nil
	}
	return value, fmt.Errorf("mismatched types: expected %s, found %s", typ, value.Type)
}

// The common type of two operands.

func unify(left ValueT, right ValueT) (ValueT, ValueT, error) {
	switch {
	case left.Type == right.Type:
		return left, right, nil
	case left.Type == front.UntypedInt || left.Type == front.UntypedFloat:
		converted, err := convert(left, right.Type)
		return converted, right, err
	case right.Type == front.UntypedInt || right.Type == front.UntypedFloat:
		converted, err := convert(right, left.Type)
		return left, converted, err
	}
	return left, right, fmt.Errorf("mismatched types: %s and %s", left.Type, right.Type)
}

// 'as' casts.  Integer to integer wraps, float to integer saturates
// (NaN becomes 0), as in Rust.

func cast(value ValueT, typ string) (ValueT, error) {
	from := value.Type
	switch {
	case front.IsIntType(typ) && (front.IsIntType(from) || from == "bool" || from == "char"):
		n := constant.ToInt(value.Value)
		if from == "bool" {
			n = constant.MakeInt64(0)
			if value.Bool() {
				n = constant.MakeInt64(1)
			}
		}
		return ValueT{Type: typ, Value: wrap(n, typ)}, nil
	case front.IsIntType(typ) && front.IsFloatType(from):
		f := math.Trunc(value.Float())
		if math.IsNaN(f) {
			return MakeInt(0, typ), nil
		}
		min, max := front.IntRange(typ)
		n, _ := new(big.Float).SetFloat64(clampInf(f)).Int(nil)
		result := constant.Make(n)
		if constant.Compare(result, token.LSS, min) {
			result = min
		} else if constant.Compare(result, token.GTR, max) {
			result = max
		}
		return ValueT{Type: typ, Value: result}, nil
	case front.IsFloatType(typ) && front.IsNumericType(from):
		return MakeFloat(value.Float(), typ), nil
	case typ == "char" && (from == "u8" || from == front.UntypedInt):
		n, _ := value.Int64()
		if n < 0 || 255 < n {
			return value, fmt.Errorf("only u8 can be cast as char")
		}
		return MakeChar(rune(n)), nil
	case typ == from:
		return value, nil
	}
	return value, fmt.Errorf("non-primitive cast: %s as %s", from, typ)
}

func clampInf(f float64) float64 {
	switch {
	case math.IsInf(f, 1):
		return math.MaxFloat64
	case math.IsInf(f, -1):
		return -math.MaxFloat64
	}
	return f
}

// Reduces 'n' modulo 2^bits into the range of 'typ'.

func wrap(n constant.Value, typ string) constant.Value {
	if front.InIntRange(n, typ) {
		return n
	}
	bits := uint(front.IntBits(typ))
	modulus := new(big.Int).Lsh(big.NewInt(1), bits)
	result := new(big.Int).Mod(toBig(n), modulus)
	if front.IsSigned(typ) && result.Cmp(new(big.Int).Rsh(modulus, 1)) >= 0 {
		result.Sub(result, modulus)
	}
	return constant.Make(result)
}

func toBig(n constant.Value) *big.Int {
	switch value := constant.Val(n).(type) {
	case int64:
		return big.NewInt(value)
	case *big.Int:
		return new(big.Int).Set(value)
	}
	panic("not an integer constant: " + n.String())
}
