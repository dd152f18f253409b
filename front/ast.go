// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

// Syntax trees for the Rust subset.

package front

type NodeT interface {
	Position() PosT
}

type FileT struct {
	Name  string
	Items []ItemT
}

// Looks up a top-level item by name.
func (file *FileT) Item(name string) ItemT {
	for _, item := range file.Items {
		if item.ItemName() == name {
			return item
		}
	}
	return nil
}

// A type is just a primitive type name.  The unit type '()' is
// represented by a nil *TypeT.

type TypeT struct {
	Pos  PosT
	Name string
}

func (typ *TypeT) Position() PosT { return typ.Pos }

func (typ *TypeT) String() string {
	if typ == nil {
		return "()"
	}
	return typ.Name
}

//----------------------------------------------------------------
// Items

type ItemT interface {
	NodeT
	ItemName() string
}

type ParamT struct {
	Pos  PosT
	Name string
	Type *TypeT
}

type FnItemT struct {
	Pos    PosT
	Name   string
	Params []*ParamT
	Result *TypeT // nil for unit
	Body   *BlockExprT
}

// Covers both 'const' and 'static' items.

type ConstItemT struct {
	Pos     PosT
	Static  bool
	Mutable bool // 'static mut'
	Name    string
	Type    *TypeT
	Value   ExprT
}

func (item *FnItemT) Position() PosT    { return item.Pos }
func (item *ConstItemT) Position() PosT { return item.Pos }

func (item *FnItemT) ItemName() string    { return item.Name }
func (item *ConstItemT) ItemName() string { return item.Name }

//----------------------------------------------------------------
// Statements

type StmtT interface {
	NodeT
	stmtNode()
}

type ItemStmtT struct {
	Item ItemT
}

type LetStmtT struct {
	Pos     PosT
	Mutable bool
	Name    string
	Type    *TypeT // nil if not declared
	Init    ExprT  // nil if not initialized
}

type ExprStmtT struct {
	Expr      ExprT
	Semicolon bool
}

type EmptyStmtT struct {
	Pos PosT
}

func (stmt *ItemStmtT) Position() PosT  { return stmt.Item.Position() }
func (stmt *LetStmtT) Position() PosT   { return stmt.Pos }
func (stmt *ExprStmtT) Position() PosT  { return stmt.Expr.Position() }
func (stmt *EmptyStmtT) Position() PosT { return stmt.Pos }

func (stmt *ItemStmtT) stmtNode()  {}
func (stmt *LetStmtT) stmtNode()   {}
func (stmt *ExprStmtT) stmtNode()  {}
func (stmt *EmptyStmtT) stmtNode() {}

//----------------------------------------------------------------
// Expressions

type ExprT interface {
	NodeT
	exprNode()
}

type LiteralKindT int

const (
	IntLit LiteralKindT = iota
	FloatLit
	BoolLit
	CharLit
	StringLit
)

type LiteralExprT struct {
	Pos    PosT
	Kind   LiteralKindT
	Text   string
	Suffix string
}

type IdentExprT struct {
	Pos  PosT
	Name string
}

type BinaryExprT struct {
	Pos   PosT // of the operator
	Op    string
	Left  ExprT
	Right ExprT
}

type UnaryExprT struct {
	Pos     PosT
	Op      string // "-" or "!"
	Operand ExprT
}

type CastExprT struct {
	Pos  PosT
	Expr ExprT
	Type *TypeT
}

// Op is "=" for plain assignment and "+", "-", ... for compound ones.

type AssignExprT struct {
	Pos    PosT
	Op     string
	Target ExprT
	Value  ExprT
}

type ParenExprT struct {
	Pos  PosT
	Expr ExprT
}

// A block's value is its tail expression, if any.

type BlockExprT struct {
	Pos   PosT
	Stmts []StmtT
	Tail  ExprT
}

// Else is nil, an *IfExprT or a *BlockExprT.

type IfExprT struct {
	Pos  PosT
	Cond ExprT
	Then *BlockExprT
	Else ExprT
}

type WhileExprT struct {
	Pos  PosT
	Cond ExprT
	Body *BlockExprT
}

type LoopExprT struct {
	Pos  PosT
	Body *BlockExprT
}

type BreakExprT struct {
	Pos PosT
}

type ContinueExprT struct {
	Pos PosT
}

type ReturnExprT struct {
	Pos   PosT
	Value ExprT // nil for a bare 'return'
}

type CallExprT struct {
	Pos  PosT
	Func string
	Args []ExprT
}

// println!(...) and friends.

type MacroCallExprT struct {
	Pos  PosT
	Name string
	Args []ExprT
}

func (expr *LiteralExprT) Position() PosT   { return expr.Pos }
func (expr *IdentExprT) Position() PosT     { return expr.Pos }
func (expr *BinaryExprT) Position() PosT    { return expr.Pos }
func (expr *UnaryExprT) Position() PosT     { return expr.Pos }
func (expr *CastExprT) Position() PosT      { return expr.Pos }
func (expr *AssignExprT) Position() PosT    { return expr.Pos }
func (expr *ParenExprT) Position() PosT     { return expr.Pos }
func (expr *BlockExprT) Position() PosT     { return expr.Pos }
func (expr *IfExprT) Position() PosT        { return expr.Pos }
func (expr *WhileExprT) Position() PosT     { return expr.Pos }
func (expr *LoopExprT) Position() PosT      { return expr.Pos }
func (expr *BreakExprT) Position() PosT     { return expr.Pos }
func (expr *ContinueExprT) Position() PosT  { return expr.Pos }
func (expr *ReturnExprT) Position() PosT    { return expr.Pos }
func (expr *CallExprT) Position() PosT      { return expr.Pos }
func (expr *MacroCallExprT) Position() PosT { return expr.Pos }

func (expr *LiteralExprT) exprNode()   {}
func (expr *IdentExprT) exprNode()     {}
func (expr *BinaryExprT) exprNode()    {}
func (expr *UnaryExprT) exprNode()     {}
func (expr *CastExprT) exprNode()      {}
func (expr *AssignExprT) exprNode()    {}
func (expr *ParenExprT) exprNode()     {}
func (expr *BlockExprT) exprNode()     {}
func (expr *IfExprT) exprNode()        {}
func (expr *WhileExprT) exprNode()     {}
func (expr *LoopExprT) exprNode()      {}
func (expr *BreakExprT) exprNode()     {}
func (expr *ContinueExprT) exprNode()  {}
func (expr *ReturnExprT) exprNode()    {}
func (expr *CallExprT) exprNode()      {}
func (expr *MacroCallExprT) exprNode() {}

// Block-like expressions can be statements without a semicolon.

func IsBlockLike(expr ExprT) bool {
	switch expr.(type) {
	case *BlockExprT, *IfExprT, *WhileExprT, *LoopExprT:
		return true
	}
	return false
}

// Calls 'visit' on each expression in the tree, parents before
// children, until 'visit' returns false for a node, in which case
// that node's children are skipped.  Nested items are not entered.

func WalkExpr(expr ExprT, visit func(ExprT) bool) {
	if block, ok := expr.(*BlockExprT); expr == nil || (ok && block == nil) {
		return
	}
	if !visit(expr) {
		return
	}
	switch x := expr.(type) {
	case *BinaryExprT:
		WalkExpr(x.Left, visit)
		WalkExpr(x.Right, visit)
	case *UnaryExprT:
		WalkExpr(x.Operand, visit)
	case *CastExprT:
		WalkExpr(x.Expr, visit)
	case *AssignExprT:
		WalkExpr(x.Target, visit)
		WalkExpr(x.Value, visit)
	case *ParenExprT:
		WalkExpr(x.Expr, visit)
	case *BlockExprT:
		for _, stmt := range x.Stmts {
			switch stmt := stmt.(type) {
			case *LetStmtT:
				WalkExpr(stmt.Init, visit)
			case *ExprStmtT:
				WalkExpr(stmt.Expr, visit)
			}
		}
		WalkExpr(x.Tail, visit)
	case *IfExprT:
		WalkExpr(x.Cond, visit)
		WalkExpr(x.Then, visit)
		WalkExpr(x.Else, visit)
	case *WhileExprT:
		WalkExpr(x.Cond, visit)
		WalkExpr(x.Body, visit)
	case *LoopExprT:
		WalkExpr(x.Body, visit)
	case *ReturnExprT:
		WalkExpr(x.Value, visit)
	case *CallExprT:
		for _, arg := range x.Args {
			WalkExpr(arg, visit)
		}
	case *MacroCallExprT:
		for _, arg := range x.Args {
			WalkExpr(arg, visit)
		}
	}
}
