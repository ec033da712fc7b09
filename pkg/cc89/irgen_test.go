package cc89

import (
	"strings"
	"testing"
)

func genIRSrc(t *testing.T, src string, arch Arch) (string, *DiagSink) {
	t.Helper()
	tu, pdiags := parseSrc(t, src)
	if pdiags.HasErrors() {
		t.Fatalf("unexpected parse diagnostics: %v", pdiags.Diagnostics())
	}
	syms, sdiags := Analyze(tu, NewTarget(arch))
	if sdiags.HasErrors() {
		t.Fatalf("unexpected semantic diagnostics: %v", sdiags.Diagnostics())
	}
	return GenerateIR(tu, syms, NewTarget(arch), false)
}

func TestGenerateIREmitsTargetHeader(t *testing.T) {
	ir, diags := genIRSrc(t, "int main(void) { return 0; }", ArchX86_64)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	if !strings.Contains(ir, `target triple = "x86_64-pc-linux-gnu"`) {
		t.Fatalf("expected x86_64 triple, got:\n%s", ir)
	}
	if !strings.Contains(ir, "i64:64-f80:128") {
		t.Fatalf("expected x86_64 datalayout, got:\n%s", ir)
	}
}

func TestGenerateIRI386Header(t *testing.T) {
	ir, diags := genIRSrc(t, "int main(void) { return 0; }", ArchI386)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	if !strings.Contains(ir, `target triple = "i386-redhat-kfs"`) {
		t.Fatalf("expected i386 triple, got:\n%s", ir)
	}
}

func TestGenerateIRSimpleReturn(t *testing.T) {
	ir, diags := genIRSrc(t, "int main(void) { return 42; }", ArchX86_64)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	if !strings.Contains(ir, "define i32 @main()") {
		t.Fatalf("expected a define for main, got:\n%s", ir)
	}
	if !strings.Contains(ir, "ret i32 42") {
		t.Fatalf("expected ret i32 42, got:\n%s", ir)
	}
}

func TestGenerateIRLocalVariableAllocaAndStore(t *testing.T) {
	ir, diags := genIRSrc(t, "int f(void) { int x; x = 5; return x; }", ArchX86_64)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	if !strings.Contains(ir, "alloca i32") {
		t.Fatalf("expected a local alloca, got:\n%s", ir)
	}
	if !strings.Contains(ir, "store i32 5") {
		t.Fatalf("expected store of the assigned constant, got:\n%s", ir)
	}
}

func TestGenerateIRArithmeticSelectsSignedDivision(t *testing.T) {
	ir, diags := genIRSrc(t, "int f(int a, int b) { return a / b; }", ArchX86_64)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	if !strings.Contains(ir, "sdiv i32") {
		t.Fatalf("expected sdiv for signed int division, got:\n%s", ir)
	}
}

func TestGenerateIRUnsignedDivisionUsesUdiv(t *testing.T) {
	ir, diags := genIRSrc(t, "unsigned f(unsigned a, unsigned b) { return a / b; }", ArchX86_64)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	if !strings.Contains(ir, "udiv i32") {
		t.Fatalf("expected udiv for unsigned int division, got:\n%s", ir)
	}
}

func TestGenerateIRIfElseBranches(t *testing.T) {
	ir, diags := genIRSrc(t, "int f(int a) { if (a) return 1; else return 2; }", ArchX86_64)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	if !strings.Contains(ir, "br i1") {
		t.Fatalf("expected a conditional branch, got:\n%s", ir)
	}
	if strings.Count(ir, "ret i32") != 2 {
		t.Fatalf("expected two return sites, got:\n%s", ir)
	}
}

func TestGenerateIRWhileLoopStructure(t *testing.T) {
	ir, diags := genIRSrc(t, "int f(int n) { int i; i = 0; while (i < n) { i = i + 1; } return i; }", ArchX86_64)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	if !strings.Contains(ir, "while.cond") || !strings.Contains(ir, "while.body") || !strings.Contains(ir, "while.end") {
		t.Fatalf("expected while.cond/body/end labels, got:\n%s", ir)
	}
	if !strings.Contains(ir, "icmp slt i32") {
		t.Fatalf("expected a signed less-than comparison, got:\n%s", ir)
	}
}

func TestGenerateIRBreakTargetsInnermostLoopInsideSwitch(t *testing.T) {
	src := `int f(int n) {
		switch (n) {
		case 1:
			while (n) {
				break;
			}
			return 0;
		default:
			return 1;
		}
	}`
	ir, diags := genIRSrc(t, src, ArchX86_64)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	// The break inside the while must branch to the while's end label, not
	// the switch's end label, even though the switch is the outer construct.
	idx := strings.Index(ir, "while.end")
	if idx < 0 {
		t.Fatalf("expected a while.end label, got:\n%s", ir)
	}
	brIdx := strings.LastIndex(ir[:strings.Index(ir, "unreachable")], "br label %while.end")
	if brIdx < 0 {
		t.Fatalf("expected the break to branch to while.end, got:\n%s", ir)
	}
}

func TestGenerateIRSwitchEmitsSwitchInstruction(t *testing.T) {
	src := `int f(int n) {
		switch (n) {
		case 0: return 10;
		case 1: return 11;
		default: return 12;
		}
	}`
	ir, diags := genIRSrc(t, src, ArchX86_64)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	if !strings.Contains(ir, "switch i32") {
		t.Fatalf("expected a switch instruction, got:\n%s", ir)
	}
}

func TestGenerateIRAggregateReturnUsesSret(t *testing.T) {
	src := `struct Point { int x; int y; };
	struct Point make(void) { struct Point p; p.x = 1; p.y = 2; return p; }`
	ir, diags := genIRSrc(t, src, ArchX86_64)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	if !strings.Contains(ir, "define void @make(ptr sret({ i32, i32 })") {
		t.Fatalf("expected an sret-lowered signature for make, got:\n%s", ir)
	}
	if !strings.Contains(ir, "ret void") {
		t.Fatalf("expected ret void from the sret-returning function, got:\n%s", ir)
	}
}

func TestGenerateIRStructParameterUsesByval(t *testing.T) {
	src := `struct Point { int x; int y; };
	int sum(struct Point p) { return p.x + p.y; }`
	ir, diags := genIRSrc(t, src, ArchX86_64)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	if !strings.Contains(ir, "byval({ i32, i32 })") {
		t.Fatalf("expected a byval struct parameter, got:\n%s", ir)
	}
}

func TestGenerateIRSmallStructStillUsesByvalAndSret(t *testing.T) {
	// original_source's needs_sret size-threshold heuristic is dead code
	// there; the convention that is actually exercised is unconditional,
	// kind-based sret/byval lowering regardless of aggregate size.
	src := `struct Small { char c; };
	struct Small identity(struct Small s) { return s; }`
	ir, diags := genIRSrc(t, src, ArchX86_64)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	if !strings.Contains(ir, "sret({ i8 })") {
		t.Fatalf("expected sret even for a one-byte struct, got:\n%s", ir)
	}
	if !strings.Contains(ir, "byval({ i8 })") {
		t.Fatalf("expected byval even for a one-byte struct, got:\n%s", ir)
	}
}

func TestGenerateIRStringLiteralEmitsGlobalConstant(t *testing.T) {
	src := `char *msg(void) { return "hi"; }`
	ir, diags := genIRSrc(t, src, ArchX86_64)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	if !strings.Contains(ir, `private unnamed_addr constant [3 x i8]`) {
		t.Fatalf("expected a 3-byte string constant (h, i, NUL), got:\n%s", ir)
	}
}

func TestGenerateIRDirectCallDeclaresPrototype(t *testing.T) {
	src := `int g(int); int f(int x) { return g(x); }`
	ir, diags := genIRSrc(t, src, ArchX86_64)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	if !strings.Contains(ir, "declare i32 @g(i32)") {
		t.Fatalf("expected a forward declaration for g, got:\n%s", ir)
	}
	if !strings.Contains(ir, "call i32 @g(") {
		t.Fatalf("expected a direct call to g, got:\n%s", ir)
	}
}

func TestGenerateIRVariadicCallPromotesArgument(t *testing.T) {
	src := `int printf(const char *, ...);
	int f(void) { return printf("%d", 'a'); }`
	ir, diags := genIRSrc(t, src, ArchX86_64)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	if !strings.Contains(ir, "declare i32 @printf(ptr, ...)") {
		t.Fatalf("expected a variadic declaration for printf, got:\n%s", ir)
	}
	if !strings.Contains(ir, "call i32 (ptr, ...) @printf") {
		t.Fatalf("expected a fully-typed variadic call to printf, got:\n%s", ir)
	}
}

func TestGenerateIRIndirectCallLoadsFunctionPointer(t *testing.T) {
	src := `int f(int (*fp)(int), int x) { return fp(x); }`
	ir, diags := genIRSrc(t, src, ArchX86_64)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	if !strings.Contains(ir, "call i32 (i32) %") {
		t.Fatalf("expected a fully-typed indirect call through a loaded register, got:\n%s", ir)
	}
}

func TestGenerateIREmptyLabelEliminationDropsDeadBlock(t *testing.T) {
	src := `int f(void) {
		return 1;
		return 2;
	}`
	ir, diags := genIRSrc(t, src, ArchX86_64)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	if strings.Contains(ir, "unreachable") {
		t.Fatalf("expected clean_empty_labels to drop the dead label/unreachable pair, got:\n%s", ir)
	}
}

func TestGenerateIRShortCircuitLogicalAnd(t *testing.T) {
	src := `int f(int a, int b) { return a && b; }`
	ir, diags := genIRSrc(t, src, ArchX86_64)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	if !strings.Contains(ir, "logic.rhs") || !strings.Contains(ir, "logic.short") {
		t.Fatalf("expected short-circuit control flow for &&, got:\n%s", ir)
	}
}

func TestGenerateIRGlobalScalarInitializer(t *testing.T) {
	src := `int counter = 7;`
	ir, diags := genIRSrc(t, src, ArchX86_64)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	if !strings.Contains(ir, "@counter = global i32 7") {
		t.Fatalf("expected a folded global initializer, got:\n%s", ir)
	}
}

func TestGenerateIRStaticGlobalGetsInternalLinkage(t *testing.T) {
	src := `static int hidden = 3;`
	ir, diags := genIRSrc(t, src, ArchX86_64)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	if !strings.Contains(ir, "@hidden = internal global i32 3") {
		t.Fatalf("expected internal linkage for a static global, got:\n%s", ir)
	}
}

func TestGenerateIRPointerArithmeticScalesByElementSize(t *testing.T) {
	src := `int *f(int *p) { return p + 1; }`
	ir, diags := genIRSrc(t, src, ArchX86_64)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	if !strings.Contains(ir, "mul i64 ") {
		t.Fatalf("expected the index to be scaled by sizeof(int), got:\n%s", ir)
	}
	if !strings.Contains(ir, "getelementptr inbounds i8, ptr") {
		t.Fatalf("expected a byte-addressed getelementptr, got:\n%s", ir)
	}
}

func TestGenerateIRArrayPlusIntDecaysBeforeArithmetic(t *testing.T) {
	src := `int *f(void) { int arr[5]; return arr + 2; }`
	ir, diags := genIRSrc(t, src, ArchX86_64)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	if !strings.Contains(ir, "getelementptr inbounds i8, ptr") {
		t.Fatalf("expected array-plus-int to lower through pointerArith's byte-addressed getelementptr, got:\n%s", ir)
	}
	if !strings.Contains(ir, "mul i64 ") {
		t.Fatalf("expected the index to be scaled by sizeof(int), got:\n%s", ir)
	}
	if strings.Contains(ir, "add ptr") {
		t.Fatalf("array-plus-int must not fall through to a scalar add on a ptr operand, got:\n%s", ir)
	}
}

func TestGenerateIRDebugBannerIsOptional(t *testing.T) {
	tu, pdiags := parseSrc(t, "int main(void) { return 0; }")
	if pdiags.HasErrors() {
		t.Fatalf("unexpected parse diagnostics: %v", pdiags.Diagnostics())
	}
	syms, sdiags := Analyze(tu, NewTarget(ArchX86_64))
	if sdiags.HasErrors() {
		t.Fatalf("unexpected semantic diagnostics: %v", sdiags.Diagnostics())
	}
	withDebug, _ := GenerateIR(tu, syms, NewTarget(ArchX86_64), true)
	if !strings.Contains(withDebug, "Debug Info Version") {
		t.Fatalf("expected the minimal debug banner when debug is requested, got:\n%s", withDebug)
	}
	withoutDebug, _ := GenerateIR(tu, syms, NewTarget(ArchX86_64), false)
	if strings.Contains(withoutDebug, "Debug Info Version") {
		t.Fatalf("expected no debug banner by default, got:\n%s", withoutDebug)
	}
}
