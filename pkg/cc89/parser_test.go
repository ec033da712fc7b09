package cc89

import "testing"

func parseSrc(t *testing.T, src string) (*TranslationUnit, *DiagSink) {
	t.Helper()
	toks, err := Lex("t.c", src)
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	return Parse(toks)
}

func TestParseSimpleFunction(t *testing.T) {
	tu, diags := parseSrc(t, "int main(void) { return 0; }")
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	if len(tu.Decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(tu.Decls))
	}
	d := tu.Decls[0]
	if !d.IsFuncDef || d.Name != "main" {
		t.Fatalf("expected func def 'main', got %+v", d)
	}
	if d.Type.Kind != TFunction || d.Type.Return.Kind != TInteger {
		t.Fatalf("expected int() function type, got %s", d.Type)
	}
}

func TestParseGlobalVarList(t *testing.T) {
	tu, diags := parseSrc(t, "int a, b, c;")
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	if len(tu.Decls) != 3 {
		t.Fatalf("expected 3 decls, got %d", len(tu.Decls))
	}
	for i, name := range []string{"a", "b", "c"} {
		if tu.Decls[i].Name != name {
			t.Fatalf("decl[%d]: got name %q want %q", i, tu.Decls[i].Name, name)
		}
	}
}

func TestParsePointerDeclarator(t *testing.T) {
	tu, diags := parseSrc(t, "int *p;")
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	ty := tu.Decls[0].Type
	if ty.Kind != TPointer || ty.Elem.Kind != TInteger {
		t.Fatalf("expected pointer to int, got %s", ty)
	}
}

func TestParseArrayOfPointers(t *testing.T) {
	tu, diags := parseSrc(t, "int *p[10];")
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	ty := tu.Decls[0].Type
	if ty.Kind != TArray || !ty.HasLen || ty.ArrayLen != 10 {
		t.Fatalf("expected array of 10, got %s", ty)
	}
	if ty.Elem.Kind != TPointer || ty.Elem.Elem.Kind != TInteger {
		t.Fatalf("expected element type pointer-to-int, got %s", ty.Elem)
	}
}

func TestParsePointerToArray(t *testing.T) {
	tu, diags := parseSrc(t, "int (*p)[10];")
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	ty := tu.Decls[0].Type
	if ty.Kind != TPointer {
		t.Fatalf("expected pointer, got %s", ty)
	}
	if ty.Elem.Kind != TArray || ty.Elem.ArrayLen != 10 {
		t.Fatalf("expected pointer to array of 10, got %s", ty.Elem)
	}
}

func TestParseFunctionPointerDeclarator(t *testing.T) {
	tu, diags := parseSrc(t, "int (*fp)(int, int);")
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	ty := tu.Decls[0].Type
	if ty.Kind != TPointer || ty.Elem.Kind != TFunction {
		t.Fatalf("expected pointer to function, got %s", ty)
	}
	if len(ty.Elem.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(ty.Elem.Params))
	}
}

func TestParseTypedefDisambiguation(t *testing.T) {
	tu, diags := parseSrc(t, "typedef int MyInt; MyInt x;")
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	if len(tu.Decls) != 2 {
		t.Fatalf("expected 2 decls, got %d", len(tu.Decls))
	}
	xTy := tu.Decls[1].Type
	if xTy.Kind != TTypedef || xTy.TypedefName != "MyInt" {
		t.Fatalf("expected typedef MyInt, got %s (%v)", xTy, xTy.Kind)
	}
	if xTy.Resolved().Kind != TInteger {
		t.Fatalf("expected resolved int, got %s", xTy.Resolved())
	}
}

func TestParseStructWithSelfReferentialPointer(t *testing.T) {
	tu, diags := parseSrc(t, "struct Node { int val; struct Node *next; };")
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	if len(tu.Decls) != 0 {
		t.Fatalf("expected 0 decls for a tag-only declaration, got %d", len(tu.Decls))
	}
}

func TestParseEnumWithExplicitValues(t *testing.T) {
	tu, diags := parseSrc(t, "enum Color { RED, GREEN = 5, BLUE };")
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	_ = tu
}

func TestParseIfElseDanglingBindsInnermost(t *testing.T) {
	tu, diags := parseSrc(t, "int f(void) { if (1) if (2) return 1; else return 2; return 0; }")
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	body := tu.Decls[0].Body
	outer := body.Stmts[0].(*IfStmt)
	if outer.Else != nil {
		t.Fatalf("outer if should have no else")
	}
	inner := outer.Then.(*IfStmt)
	if inner.Else == nil {
		t.Fatalf("inner if should bind the else clause")
	}
}

func TestParseForLoopWithDeclInInit(t *testing.T) {
	tu, diags := parseSrc(t, "int f(void) { int s = 0; for (int i = 0; i < 10; i = i + 1) s = s + i; return s; }")
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	body := tu.Decls[0].Body
	forStmt := body.Stmts[1].(*ForStmt)
	if _, ok := forStmt.Init.(*DeclStmt); !ok {
		t.Fatalf("expected for-init to be a decl statement, got %T", forStmt.Init)
	}
}

func TestParseSwitchWithCaseAndDefault(t *testing.T) {
	src := `int f(int x) {
		switch (x) {
		case 1:
			return 10;
		case 2:
			return 20;
		default:
			return 0;
		}
	}`
	_, diags := parseSrc(t, src)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
}

func TestParseSizeofTypeName(t *testing.T) {
	tu, diags := parseSrc(t, "int f(void) { return sizeof(int *); }")
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	ret := tu.Decls[0].Body.Stmts[0].(*ReturnStmt)
	sz, ok := ret.Value.(*SizeofExpr)
	if !ok {
		t.Fatalf("expected SizeofExpr, got %T", ret.Value)
	}
	if sz.OperandType == nil || sz.OperandType.Kind != TPointer {
		t.Fatalf("expected sizeof(pointer type), got %v", sz.OperandType)
	}
}

func TestParseCastVsParenExpr(t *testing.T) {
	tu, diags := parseSrc(t, "int f(void) { return (int)(1 + 2); }")
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	ret := tu.Decls[0].Body.Stmts[0].(*ReturnStmt)
	c, ok := ret.Value.(*CastExpr)
	if !ok {
		t.Fatalf("expected CastExpr, got %T", ret.Value)
	}
	if c.TargetType.Kind != TInteger {
		t.Fatalf("expected cast to int, got %s", c.TargetType)
	}
}

func TestParseCommaOperatorInExpressionStatement(t *testing.T) {
	tu, diags := parseSrc(t, "int f(void) { int a; int b; a = 1, b = 2; return a; }")
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	es := tu.Decls[0].Body.Stmts[2].(*ExprStmt)
	if _, ok := es.X.(*CommaExpr); !ok {
		t.Fatalf("expected CommaExpr, got %T", es.X)
	}
}

func TestParseSyntaxErrorRecoversAndReportsUpToLimit(t *testing.T) {
	_, diags := parseSrc(t, "int a b; int c;")
	if !diags.HasErrors() {
		t.Fatalf("expected at least one diagnostic")
	}
	if diags.Count() > MaxParseDiagnostics {
		t.Fatalf("diagnostic count %d exceeds MaxParseDiagnostics", diags.Count())
	}
}
