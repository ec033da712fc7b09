package cc89

import "testing"

func foldExprSrc(t *testing.T, exprSrc string, arch Arch) (int64, error) {
	t.Helper()
	src := "int cc89_test_dummy_array[" + exprSrc + "];"
	toks, err := Lex("t.c", src)
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	tu, diags := Parse(toks)
	if diags.HasErrors() {
		t.Fatalf("parse error: %v", diags.Diagnostics())
	}
	lenExpr := tu.Decls[0].Type.LenExpr
	if lenExpr == nil {
		// The parser folds a bare integer-literal size eagerly, so it never
		// sets LenExpr; re-derive the value directly in that case.
		return int64(tu.Decls[0].Type.ArrayLen), nil
	}
	return FoldConstExpr(lenExpr, NewTarget(arch), nil)
}

func TestFoldConstExprArithmetic(t *testing.T) {
	cases := []struct {
		expr string
		want int64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"10 - 3 - 2", 5},
		{"2 << 3", 16},
		{"1 << 4 | 1", 17},
		{"7 & 3", 3},
		{"5 ^ 1", 4},
		{"1 ? 2 : 3", 2},
		{"0 ? 2 : 3", 3},
	}
	for _, c := range cases {
		got, err := foldExprSrc(t, c.expr, ArchX86_64)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.expr, err)
		}
		if got != c.want {
			t.Fatalf("%s: got %d want %d", c.expr, got, c.want)
		}
	}
}

func TestFoldConstExprUnsignedDivisionAndModulo(t *testing.T) {
	got, err := foldExprSrc(t, "10u / 3", ArchX86_64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 3 {
		t.Fatalf("got %d want 3", got)
	}
	got, err = foldExprSrc(t, "10u % 3", ArchX86_64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Fatalf("got %d want 1", got)
	}
}

func TestFoldConstExprDivisionByZeroIsDiagnosed(t *testing.T) {
	_, err := foldExprSrc(t, "1 / (2 - 2)", ArchX86_64)
	if err == nil {
		t.Fatalf("expected a division-by-zero error")
	}
}

func TestFoldConstExprCastTruncates(t *testing.T) {
	// 257 truncated to an (unsigned) char is 1.
	got, err := foldExprSrc(t, "(unsigned char)257", ArchX86_64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Fatalf("got %d want 1", got)
	}
}

func TestFoldConstExprCastSignExtends(t *testing.T) {
	// A cast to signed char of 0xFF (255) sign-extends to -1.
	got, err := foldExprSrc(t, "(signed char)255", ArchX86_64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != -1 {
		t.Fatalf("got %d want -1", got)
	}
}

func TestFoldConstExprBitwiseNotWidthDependsOnExplicitCast(t *testing.T) {
	// Uncast operands to '~' are treated as full 64-bit width (unmasked),
	// so this depends entirely on the explicit cast fixing an unsigned
	// long width (and its unsigned-ness) before the '%' is applied.
	// ~(unsigned long)1 truncates to 0xFFFFFFFE (4294967294) on a 4-byte
	// i386 unsigned long, which is 2 mod 7; on x86_64 the 8-byte unsigned
	// long leaves 0xFFFFFFFFFFFFFFFE, which is 0 mod 7.
	i386, err := foldExprSrc(t, "~(unsigned long)1 % 7", ArchI386)
	if err != nil {
		t.Fatalf("i386: unexpected error: %v", err)
	}
	if i386 != 2 {
		t.Fatalf("i386: got %d want 2", i386)
	}
	x64, err := foldExprSrc(t, "~(unsigned long)1 % 7", ArchX86_64)
	if err != nil {
		t.Fatalf("x86_64: unexpected error: %v", err)
	}
	if x64 != 0 {
		t.Fatalf("x86_64: got %d want 0", x64)
	}
}

func TestFoldConstExprSizeofType(t *testing.T) {
	got, err := foldExprSrc(t, "sizeof(int)", ArchX86_64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 4 {
		t.Fatalf("got %d want 4", got)
	}
	got, err = foldExprSrc(t, "sizeof(long)", ArchI386)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 4 {
		t.Fatalf("got %d want 4 on i386", got)
	}
	got, err = foldExprSrc(t, "sizeof(long)", ArchX86_64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 8 {
		t.Fatalf("got %d want 8 on x86_64", got)
	}
}

func TestFoldConstExprEnvLookupForIdent(t *testing.T) {
	toks, err := Lex("t.c", "int x;")
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	_, diags := Parse(toks)
	if diags.HasErrors() {
		t.Fatalf("parse error: %v", diags.Diagnostics())
	}
	e := &Ident{Name: "N"}
	got, err := FoldConstExpr(e, NewTarget(ArchX86_64), map[string]int64{"N": 42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Fatalf("got %d want 42", got)
	}
}

func TestFoldConstExprUnknownIdentIsNotConstant(t *testing.T) {
	e := &Ident{Name: "unknown"}
	_, err := FoldConstExpr(e, NewTarget(ArchX86_64), nil)
	if err == nil {
		t.Fatalf("expected a not-constant error")
	}
}
