package cc89

import (
	"fmt"
	"strings"
)

// StorageClass is one of the six storage classes named in spec.md section 3.3.
type StorageClass int

const (
	SCNone StorageClass = iota
	SCAuto
	SCRegister
	SCStatic
	SCExtern
	SCTypedef
)

func (s StorageClass) String() string {
	switch s {
	case SCAuto:
		return "auto"
	case SCRegister:
		return "register"
	case SCStatic:
		return "static"
	case SCExtern:
		return "extern"
	case SCTypedef:
		return "typedef"
	default:
		return ""
	}
}

// Decl is a declaration: a translation-unit top-level item (function
// definition, object declaration, or type declaration) or a block-scope
// local declaration (spec.md section 3.3). IsFuncDef and Body are set only
// for a function definition; Init is set only for an object declaration
// with an initializer.
type Decl struct {
	Name       string
	Type       *Type
	Storage    StorageClass
	Init       Init
	IsFuncDef  bool
	Body       *BlockStmt
	ParamNames []string
	Pos        Pos
	Sym        *Symbol

	// ParamSyms holds the Symbol sema declared for each named parameter of a
	// function definition, in parameter order (nil entry for an unnamed
	// parameter). irgen uses these to find each parameter's storage without
	// re-walking the (by-then-popped) parameter scope.
	ParamSyms []*Symbol
}

func (d *Decl) String() string {
	if d.IsFuncDef {
		return fmt.Sprintf("FuncDef(%s %s)", d.Type, d.Name)
	}
	return fmt.Sprintf("Decl(%s %s %s)", d.Storage, d.Type, d.Name)
}

// TranslationUnit is the root of the AST: an ordered list of top-level
// declarations (spec.md section 3.3).
type TranslationUnit struct {
	Decls []*Decl
}

func (t *TranslationUnit) String() string {
	var b strings.Builder
	for _, d := range t.Decls {
		b.WriteString(d.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Stmt is implemented by every node that does not produce a value.
type Stmt interface {
	stmtNode()
	String() string
	Loc() Pos
}

type stmtBase struct{ Pos Pos }

func (s *stmtBase) stmtNode() {}
func (s *stmtBase) Loc() Pos  { return s.Pos }

// DeclStmt wraps a block-scope declaration so it can appear in a
// BlockStmt's statement list alongside ordinary statements.
type DeclStmt struct {
	stmtBase
	D *Decl
}

func (d *DeclStmt) String() string { return d.D.String() }

// BlockStmt is a brace-enclosed compound statement.
type BlockStmt struct {
	stmtBase
	Stmts []Stmt
}

func (b *BlockStmt) String() string { return fmt.Sprintf("{ %d stmts }", len(b.Stmts)) }

// ExprStmt is an expression evaluated for its side effects, terminated by ';'.
type ExprStmt struct {
	stmtBase
	X Expr
}

func (e *ExprStmt) String() string { return fmt.Sprintf("%s;", e.X) }

// NullStmt is a bare ';'.
type NullStmt struct{ stmtBase }

func (n *NullStmt) String() string { return ";" }

// IfStmt binds to the nearest unmatched if per the dangling-else rule
// (spec.md section 4.2).
type IfStmt struct {
	stmtBase
	Cond Expr
	Then Stmt
	Else Stmt // nil if absent
}

func (s *IfStmt) String() string {
	if s.Else != nil {
		return fmt.Sprintf("if (%s) %s else %s", s.Cond, s.Then, s.Else)
	}
	return fmt.Sprintf("if (%s) %s", s.Cond, s.Then)
}

type WhileStmt struct {
	stmtBase
	Cond Expr
	Body Stmt
}

func (s *WhileStmt) String() string { return fmt.Sprintf("while (%s) %s", s.Cond, s.Body) }

type DoWhileStmt struct {
	stmtBase
	Body Stmt
	Cond Expr
}

func (s *DoWhileStmt) String() string { return fmt.Sprintf("do %s while (%s)", s.Body, s.Cond) }

// ForStmt: Init may be a *DeclStmt, *ExprStmt, or nil; Cond and Post may be nil.
type ForStmt struct {
	stmtBase
	Init Stmt
	Cond Expr
	Post Expr
	Body Stmt
}

func (s *ForStmt) String() string {
	return fmt.Sprintf("for (%v; %v; %v) %s", s.Init, s.Cond, s.Post, s.Body)
}

// SwitchStmt is switch (Tag) Body, where Body typically contains
// LabeledStmt case/default nodes reachable via ordinary statement nesting.
type SwitchStmt struct {
	stmtBase
	Tag  Expr
	Body Stmt
}

func (s *SwitchStmt) String() string { return fmt.Sprintf("switch (%s) %s", s.Tag, s.Body) }

// LabelKind distinguishes the three labeled-statement forms.
type LabelKind int

const (
	LabelCase LabelKind = iota
	LabelDefault
	LabelIdent
)

// LabeledStmt is case Value: Stmt, default: Stmt, or ident: Stmt.
type LabeledStmt struct {
	stmtBase
	Kind      LabelKind
	Ident     string
	CaseExpr  Expr  // set when Kind == LabelCase
	CaseValue int64 // folded by sema
	Stmt      Stmt
}

func (s *LabeledStmt) String() string {
	switch s.Kind {
	case LabelCase:
		return fmt.Sprintf("case %s: %s", s.CaseExpr, s.Stmt)
	case LabelDefault:
		return fmt.Sprintf("default: %s", s.Stmt)
	default:
		return fmt.Sprintf("%s: %s", s.Ident, s.Stmt)
	}
}

type GotoStmt struct {
	stmtBase
	Label string
}

func (s *GotoStmt) String() string { return fmt.Sprintf("goto %s;", s.Label) }

type ContinueStmt struct{ stmtBase }

func (s *ContinueStmt) String() string { return "continue;" }

type BreakStmt struct{ stmtBase }

func (s *BreakStmt) String() string { return "break;" }

// ReturnStmt: Value is nil for a bare "return;" or a void function.
type ReturnStmt struct {
	stmtBase
	Value Expr
}

func (s *ReturnStmt) String() string {
	if s.Value == nil {
		return "return;"
	}
	return fmt.Sprintf("return %s;", s.Value)
}
