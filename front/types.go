// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

// Facts about the primitive types, shared by the checker and the
// evaluator.

package front

import (
	"go/constant"
	"go/token"
	"math/big"
	"strconv"
)

// Types of literals that haven't been pinned down yet.
const (
	UntypedInt   = "{integer}"
	UntypedFloat = "{float}"
	StrType      = "&str"
	UnitType     = "()"
)

func IsIntType(name string) bool {
	return name == UntypedInt || SignedIntTypes.Contains(name) || UnsignedIntTypes.Contains(name)
}

func IsFloatType(name string) bool {
	return name == UntypedFloat || FloatTypes.Contains(name)
}

func IsNumericType(name string) bool {
	return IsIntType(name) || IsFloatType(name)
}

// Bit width of an integer type.  The pointer-sized types are 64 bits.
func IntBits(name string) int {
	switch name {
	case "isize", "usize":
		return 64
	case UntypedInt:
		return 128
	}
	bits, err := strconv.Atoi(name[1:])
	if err != nil {
		panic("not an integer type: " + name)
	}
	return bits
}

func IsSigned(name string) bool {
	return name == UntypedInt || SignedIntTypes.Contains(name)
}

// The smallest and largest values of an integer type.
func IntRange(name string) (constant.Value, constant.Value) {
	bits := uint(IntBits(name))
	one := big.NewInt(1)
	if IsSigned(name) {
		max := new(big.Int).Sub(new(big.Int).Lsh(one, bits-1), one)
		min := new(big.Int).Neg(new(big.Int).Lsh(one, bits-1))
		return constant.Make(min), constant.Make(max)
	}
	max := new(big.Int).Sub(new(big.Int).Lsh(one, bits), one)
	return constant.MakeInt64(0), constant.Make(max)
}

func InIntRange(value constant.Value, name string) bool {
	min, max := IntRange(name)
	return constant.Compare(min, token.LEQ, value) && constant.Compare(value, token.LEQ, max)
}

// The value of an integer literal.  Underscores are allowed between
// digits and the usual 0x, 0o and 0b prefixes are understood.

func IntLiteralValue(text string) (constant.Value, bool) {
	value := constant.MakeFromLiteral(stripUnderscores(text), token.INT, 0)
	return value, value.Kind() == constant.Int
}

func FloatLiteralValue(text string) (float64, bool) {
	value, err := strconv.ParseFloat(stripUnderscores(text), 64)
	return value, err == nil
}

func stripUnderscores(text string) string {
	result := make([]byte, 0, len(text))
	for i := range len(text) {
		if text[i] != '_' {
			result = append(result, text[i])
		}
	}
	return string(result)
}

// The type of a literal, before any context is applied.
func LiteralType(lit *LiteralExprT) string {
	if lit.Suffix != "" {
		return lit.Suffix
	}
	switch lit.Kind {
	case IntLit:
		return UntypedInt
	case FloatLit:
		return UntypedFloat
	case BoolLit:
		return "bool"
	case CharLit:
		return "char"
	}
	return StrType
}

// Whether a value of type 'from' can be used where 'to' is expected.
// Untyped literals fit any type of their class.

func Assignable(from string, to string) bool {
	switch {
	case from == to:
		return true
	case from == UntypedInt:
		return IsIntType(to)
	case from == UntypedFloat:
		return IsFloatType(to)
	case to == UntypedInt:
		return IsIntType(from)
	case to == UntypedFloat:
		return IsFloatType(from)
	}
	return false
}
