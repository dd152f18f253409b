// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

// Converting syntax trees to S-expressions for printing.  The node
// names are the ones the AST.txt dumps have always used.

package front

import (
	"fmt"

	. "github.com/s48/pyrust/util"
)

func ToSExp(file *FileT) *SExpT {
	result := List(Sym("FILE"))
	for _, item := range file.Items {
		result.List = append(result.List, itemSExp(item))
	}
	return result
}

func ExprSExp(expr ExprT) *SExpT {
	return exprSExp(expr)
}

func typeSExp(typ *TypeT) *SExpT {
	return List(Sym("TYPE"), Sym(typ.String()))
}

func itemSExp(rawItem ItemT) *SExpT {
	var inner *SExpT
	switch item := rawItem.(type) {
	case *FnItemT:
		params := List(Sym("PARAMS"))
		for _, param := range item.Params {
			params.List = append(params.List, List(Sym("PARAM"), Sym(param.Name), typeSExp(param.Type)))
		}
		inner = List(Sym("FN_ITEM"), Sym(item.Name), params)
		if item.Result != nil {
			inner.List = append(inner.List, List(Sym("RESULT"), typeSExp(item.Result)))
		}
		inner.List = append(inner.List, exprSExp(item.Body))
	case *ConstItemT:
		tag := "CONST_ITEM"
		if item.Static {
			tag = "STATIC_ITEM"
		}
		inner = List(Sym(tag))
		if item.Mutable {
			inner.List = append(inner.List, Sym("MUT"))
		}
		inner.List = append(inner.List, Sym(item.Name), typeSExp(item.Type), exprSExp(item.Value))
	default:
		panic(fmt.Sprintf("unknown item type %T", rawItem))
	}
	return List(Sym("ITEM"), inner)
}

func stmtSExp(rawStmt StmtT) *SExpT {
	switch stmt := rawStmt.(type) {
	case *ItemStmtT:
		return List(Sym("DECL_STMT"), itemSExp(stmt.Item))
	case *LetStmtT:
		let := List(Sym("LET_DECL"))
		if stmt.Mutable {
			let.List = append(let.List, Sym("MUT"))
		}
		let.List = append(let.List, Sym(stmt.Name))
		if stmt.Type != nil {
			let.List = append(let.List, typeSExp(stmt.Type))
		}
		if stmt.Init != nil {
			let.List = append(let.List, List(Sym("INIT"), exprSExp(stmt.Init)))
		}
		return List(Sym("DECL_STMT"), let)
	case *ExprStmtT:
		result := List(Sym("EXPR_STMT"), exprSExp(stmt.Expr))
		if stmt.Semicolon {
			result.List = append(result.List, Sym("SEMICOLON"))
		}
		return result
	case *EmptyStmtT:
		return List(Sym("STMT"), Sym("SEMICOLON"))
	}
	panic(fmt.Sprintf("unknown statement type %T", rawStmt))
}

var binopClasses = map[string]string{
	"+": "ARITH_OP", "-": "ARITH_OP", "*": "ARITH_OP", "/": "ARITH_OP", "%": "ARITH_OP",
	"&": "BITWISE_OP", "|": "BITWISE_OP", "^": "BITWISE_OP",
	"==": "COMP_OP", "!=": "COMP_OP", "<": "COMP_OP", ">": "COMP_OP", "<=": "COMP_OP", ">=": "COMP_OP",
	"&&": "LAZY_BOOL_OP", "||": "LAZY_BOOL_OP",
}

func opSExp(op string) *SExpT {
	return List(Sym(binopClasses[op]), Sym(op))
}

func exprSExp(rawExpr ExprT) *SExpT {
	switch expr := rawExpr.(type) {
	case *LiteralExprT:
		var lit *SExpT
		switch expr.Kind {
		case IntLit:
			lit = List(Sym("NUM_LIT"), Sym(expr.Text))
		case FloatLit:
			lit = List(Sym("FLOAT_LIT"), Sym(expr.Text))
		case BoolLit:
			lit = List(Sym("BOOL_LIT"), Sym(expr.Text))
		case CharLit:
			lit = List(Sym("CHAR_LIT"), Str(expr.Text))
		case StringLit:
			lit = List(Sym("STR_LIT"), Str(expr.Text))
		}
		if expr.Suffix != "" {
			lit.List = append(lit.List, List(Sym("LIT_SUFFIX"), Sym(expr.Suffix)))
		}
		return List(Sym("LITERAL"), lit)
	case *IdentExprT:
		return List(Sym("ID"), Sym(expr.Name))
	case *BinaryExprT:
		return List(Sym("BINOP_EXPR"), exprSExp(expr.Left), opSExp(expr.Op), exprSExp(expr.Right))
	case *UnaryExprT:
		return List(Sym("UNARY_EXPR"), Sym(expr.Op), exprSExp(expr.Operand))
	case *CastExprT:
		return List(Sym("TYPE_CAST_EXPR"), exprSExp(expr.Expr), Sym("AS"), typeSExp(expr.Type))
	case *AssignExprT:
		if expr.Op == "=" {
			return List(Sym("ASSIGNMENT_EXPR"), exprSExp(expr.Target), Sym("ASSIGN"), exprSExp(expr.Value))
		}
		return List(Sym("COMPOUND_ASSIGNMENT_EXPR"), exprSExp(expr.Target), opSExp(expr.Op),
			Sym("ASSIGN"), exprSExp(expr.Value))
	case *ParenExprT:
		return List(Sym("PAREN_EXPR"), exprSExp(expr.Expr))
	case *BlockExprT:
		block := List(Sym("BLOCK_EXPR"))
		for _, stmt := range expr.Stmts {
			block.List = append(block.List, stmtSExp(stmt))
		}
		if expr.Tail != nil {
			block.List = append(block.List, exprSExp(expr.Tail))
		}
		return block
	case *IfExprT:
		result := List(Sym("IF_EXPR"), exprSExp(expr.Cond), exprSExp(expr.Then))
		if expr.Else != nil {
			result.List = append(result.List, List(Sym("ELSE_TAIL"), exprSExp(expr.Else)))
		}
		return result
	case *WhileExprT:
		return List(Sym("WHILE_EXPR"), exprSExp(expr.Cond), exprSExp(expr.Body))
	case *LoopExprT:
		return List(Sym("LOOP"), exprSExp(expr.Body))
	case *BreakExprT:
		return List(Sym("BREAK"))
	case *ContinueExprT:
		return List(Sym("CONTINUE"))
	case *ReturnExprT:
		if expr.Value == nil {
			return List(Sym("RETURN"))
		}
		return List(Sym("RETURN"), exprSExp(expr.Value))
	case *CallExprT:
		return List(append([]*SExpT{Sym("CALL_EXPR"), Sym(expr.Func)}, argSExps(expr.Args)...)...)
	case *MacroCallExprT:
		return List(append([]*SExpT{Sym("MACRO_CALL"), Sym(expr.Name + "!")}, argSExps(expr.Args)...)...)
	}
	panic(fmt.Sprintf("unknown expression type %T", rawExpr))
}

func argSExps(args []ExprT) []*SExpT {
	result := make([]*SExpT, len(args))
	for i, arg := range args {
		result[i] = exprSExp(arg)
	}
	return result
}
