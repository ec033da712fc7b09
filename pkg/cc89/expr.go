package cc89

import "fmt"

// Expr is implemented by every node that produces a value. Each node exposes
// its own storage for the computed type and lvalue flag that S attaches
// in-place after resolution (spec.md section 3.3): "Each expression carries
// a computed type and an lvalue flag after S."
type Expr interface {
	exprNode()
	String() string
	Loc() Pos
	SetType(*Type)
	ResultType() *Type
	SetLValue(bool)
	IsLValue() bool
}

// exprBase is embedded by every expression node to give it a type slot and
// an lvalue flag without repeating the same three methods everywhere.
type exprBase struct {
	Type    *Type
	LValue  bool
	Pos     Pos
}

func (e *exprBase) exprNode()          {}
func (e *exprBase) Loc() Pos           { return e.Pos }
func (e *exprBase) SetType(t *Type)    { e.Type = t }
func (e *exprBase) ResultType() *Type  { return e.Type }
func (e *exprBase) SetLValue(v bool)   { e.LValue = v }
func (e *exprBase) IsLValue() bool     { return e.LValue }

// IntLit is an integer constant, carrying the suffix flags the lexer parsed.
type IntLit struct {
	exprBase
	Value  uint64
	Suffix IntSuffix
}

func (l *IntLit) String() string { return fmt.Sprintf("%d", l.Value) }

// FloatLit is a floating constant.
type FloatLit struct {
	exprBase
	Value uint64 // not set by any pass; Bits carries the constant's value
	Bits  float64
	Suf   FloatSuffix
}

func (l *FloatLit) String() string { return fmt.Sprintf("%g", l.Bits) }

// CharLit is a character constant: a one-byte integer value after escape
// resolution (spec.md section 3.1).
type CharLit struct {
	exprBase
	Value byte
}

func (l *CharLit) String() string { return fmt.Sprintf("'%c'", l.Value) }

// StringLit is an adjacent-concatenated byte payload with an implicit NUL
// terminator (spec.md section 3.1).
type StringLit struct {
	exprBase
	Value []byte
	Label string // not set by any pass; irgen names string globals through its own pool
}

func (l *StringLit) String() string { return fmt.Sprintf("%q", l.Value) }

// Ident is a reference to a name resolved in the ordinary-identifier
// namespace: a variable, function, or enumerator.
type Ident struct {
	exprBase
	Name string
	Sym  *Symbol // filled by sema
}

func (i *Ident) String() string { return i.Name }

// UnaryExpr is a prefix unary operator: &, *, +, -, ~, !, ++, --.
type UnaryExpr struct {
	exprBase
	Op      TokenKind
	Operand Expr
}

func (u *UnaryExpr) String() string { return fmt.Sprintf("(%s%s)", u.Op, u.Operand) }

// PostfixExpr is x++ or x--.
type PostfixExpr struct {
	exprBase
	Op      TokenKind
	Operand Expr
}

func (p *PostfixExpr) String() string { return fmt.Sprintf("(%s%s)", p.Operand, p.Op) }

// BinaryExpr is a non-assigning binary operator.
type BinaryExpr struct {
	exprBase
	Op          TokenKind
	Left, Right Expr
}

func (b *BinaryExpr) String() string { return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right) }

// AssignExpr covers "=" and the compound assignment operators
// +=, -=, *=, /=, %=, <<=, >>=, &=, |=, ^=.
type AssignExpr struct {
	exprBase
	Op          TokenKind
	Left, Right Expr
}

func (a *AssignExpr) String() string { return fmt.Sprintf("(%s %s %s)", a.Left, a.Op, a.Right) }

// CondExpr is the ternary conditional operator.
type CondExpr struct {
	exprBase
	Cond, Then, Else Expr
}

func (c *CondExpr) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", c.Cond, c.Then, c.Else)
}

// CallExpr is a function call. IsIndirect is filled by sema: true when
// Callee's type is pointer-to-function rather than a direct function
// designator (spec.md section 4.4, "Indirect calls").
type CallExpr struct {
	exprBase
	Callee     Expr
	Args       []Expr
	IsIndirect bool
	// PromotedArgTypes holds, for each variadic-position argument, the type
	// it was promoted to by default argument promotion (spec.md section
	// 4.3 "Variadic calls"). Empty entries mean "not a variadic position".
	PromotedArgTypes []*Type
}

func (c *CallExpr) String() string { return fmt.Sprintf("%s(%v)", c.Callee, c.Args) }

// IndexExpr is Base[Index], sugar for *(Base + Index).
type IndexExpr struct {
	exprBase
	Base, Index Expr
}

func (i *IndexExpr) String() string { return fmt.Sprintf("%s[%s]", i.Base, i.Index) }

// MemberExpr is Base.Field or Base->Field.
type MemberExpr struct {
	exprBase
	Base   Expr
	Field  string
	Arrow  bool
	Offset int // byte offset of Field, filled by sema
}

func (m *MemberExpr) String() string {
	if m.Arrow {
		return fmt.Sprintf("%s->%s", m.Base, m.Field)
	}
	return fmt.Sprintf("%s.%s", m.Base, m.Field)
}

// SizeofExpr is sizeof(expr) or sizeof(type-name). Exactly one of Operand /
// OperandType is set; the parser tries the parenthesized type-name form
// first (spec.md section 4.2).
type SizeofExpr struct {
	exprBase
	Operand     Expr
	OperandType *Type
}

func (s *SizeofExpr) String() string {
	if s.OperandType != nil {
		return fmt.Sprintf("sizeof(%s)", s.OperandType)
	}
	return fmt.Sprintf("sizeof(%s)", s.Operand)
}

// CastExpr is (Type)Operand.
type CastExpr struct {
	exprBase
	TargetType *Type
	Operand    Expr
}

func (c *CastExpr) String() string { return fmt.Sprintf("(%s)%s", c.TargetType, c.Operand) }

// CommaExpr is a comma-operator sequence a, b, c evaluated left to right;
// its value and type are those of the last operand.
type CommaExpr struct {
	exprBase
	Exprs []Expr
}

func (c *CommaExpr) String() string { return fmt.Sprintf("%v", c.Exprs) }

// InitList is a brace-enclosed initializer list, used for both scalar
// (single-element) and aggregate initialization. Parsed with
// assignment-expression semantics for each element -- never comma-expression
// semantics -- per spec.md section 4.2's documented parser fix.
type InitList struct {
	Pos      Pos
	Elements []Init
}

// Init is implemented by both a plain Expr and a nested *InitList, so
// aggregate initializers can recurse (spec.md section 4.2).
type Init interface {
	initNode()
	String() string
}

type exprInitWrapper struct{ Expr }

func (exprInitWrapper) initNode() {}

// WrapInit adapts an Expr to the Init interface used inside InitList.
func WrapInit(e Expr) Init { return exprInitWrapper{e} }

func (l *InitList) initNode()      {}
func (l *InitList) String() string { return fmt.Sprintf("{%v}", l.Elements) }
