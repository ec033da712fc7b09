package cc89

import "testing"

func kinds(toks []Token) []TokenKind {
	out := make([]TokenKind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func sameKinds(t *testing.T, got []Token, want []TokenKind) {
	t.Helper()
	gk := kinds(got)
	if len(gk) != len(want) {
		t.Fatalf("token count mismatch: got %v want %v", gk, want)
	}
	for i := range want {
		if gk[i] != want[i] {
			t.Fatalf("token[%d]: got %s want %s", i, gk[i], want[i])
		}
	}
}

func TestLexBasicPunctuators(t *testing.T) {
	toks, err := Lex("t.c", "+ - * / & = == != < > ; , { } ( ) ... <<= >>=")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sameKinds(t, toks, []TokenKind{
		PLUS, MINUS, STAR, SLASH, AMP, ASSIGN, EQ, NE, LT, GT, SEMI, COMMA,
		LBRACE, RBRACE, LPAREN, RPAREN, ELLIPSIS, SHL_ASN, SHR_ASN, EOF,
	})
}

func TestLexKeywordsAndIdents(t *testing.T) {
	toks, err := Lex("t.c", "int if else while return variableName _under_score")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sameKinds(t, toks, []TokenKind{INT, IF, ELSE, WHILE, RETURN, IDENT, IDENT, EOF})
	if toks[5].Lexeme != "variableName" {
		t.Fatalf("got lexeme %q", toks[5].Lexeme)
	}
}

func TestLexIntegerConstants(t *testing.T) {
	cases := []struct {
		src  string
		want uint64
	}{
		{"0", 0},
		{"42", 42},
		{"010", 8},
		{"0x1F", 31},
		{"0X1f", 31},
		{"10u", 10},
		{"10UL", 10},
		{"10ull", 10},
	}
	for _, c := range cases {
		toks, err := Lex("t.c", c.src)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.src, err)
		}
		if toks[0].Kind != INT_CONST {
			t.Fatalf("%s: expected INT_CONST, got %s", c.src, toks[0].Kind)
		}
		if toks[0].IntValue != c.want {
			t.Fatalf("%s: got value %d want %d", c.src, toks[0].IntValue, c.want)
		}
	}
}

func TestLexInvalidOctalDigit(t *testing.T) {
	if _, err := Lex("t.c", "018"); err == nil {
		t.Fatalf("expected error for invalid octal digit")
	} else if d, ok := err.(*Diagnostic); !ok || d.Kind != InvalidNumber {
		t.Fatalf("expected InvalidNumber, got %v", err)
	}
}

func TestLexHexWithNoDigits(t *testing.T) {
	if _, err := Lex("t.c", "0x"); err == nil {
		t.Fatalf("expected error for '0x' with no digits")
	} else if d, ok := err.(*Diagnostic); !ok || d.Kind != InvalidNumber {
		t.Fatalf("expected InvalidNumber, got %v", err)
	}
}

func TestLexFloatConstants(t *testing.T) {
	toks, err := Lex("t.c", "3.14 .5 1. 1e10 1.5e-3f 2.0L")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sameKinds(t, toks, []TokenKind{FLT_CONST, FLT_CONST, FLT_CONST, FLT_CONST, FLT_CONST, FLT_CONST, EOF})
	if toks[4].FloatSuf != FloatSuffixF {
		t.Fatalf("expected float suffix on 1.5e-3f")
	}
	if toks[5].FloatSuf != FloatSuffixL {
		t.Fatalf("expected long-double suffix on 2.0L")
	}
}

func TestLexExponentWithNoDigits(t *testing.T) {
	if _, err := Lex("t.c", "1e"); err == nil {
		t.Fatalf("expected error for exponent with no digits")
	}
}

func TestLexNonC89Comment(t *testing.T) {
	if _, err := Lex("t.c", "// comment\n"); err == nil {
		t.Fatalf("expected NonC89Comment error")
	} else if d, ok := err.(*Diagnostic); !ok || d.Kind != NonC89Comment {
		t.Fatalf("expected NonC89Comment, got %v", err)
	}
}

func TestLexBlockCommentSkipped(t *testing.T) {
	toks, err := Lex("t.c", "/* skip me */ int x;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sameKinds(t, toks, []TokenKind{INT, IDENT, SEMI, EOF})
}

func TestLexWideLiteralRejected(t *testing.T) {
	if _, err := Lex("t.c", `L"hi"`); err == nil {
		t.Fatalf("expected WideLiteralNotSupported")
	} else if d, ok := err.(*Diagnostic); !ok || d.Kind != WideLiteralNotSupported {
		t.Fatalf("expected WideLiteralNotSupported, got %v", err)
	}
}

func TestLexAdjacentStringConcatenation(t *testing.T) {
	toks, err := Lex("t.c", `"foo" "bar"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sameKinds(t, toks, []TokenKind{STR_LIT, EOF})
	want := "foobar\x00"
	if string(toks[0].StrValue) != want {
		t.Fatalf("got %q want %q", toks[0].StrValue, want)
	}
}

func TestLexStringEscapes(t *testing.T) {
	toks, err := Lex("t.c", `"a\nb\x41\101"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "a\nbAA\x00"
	if string(toks[0].StrValue) != want {
		t.Fatalf("got %q want %q", toks[0].StrValue, want)
	}
}

func TestLexUnterminatedString(t *testing.T) {
	if _, err := Lex("t.c", `"abc`); err == nil {
		t.Fatalf("expected UnterminatedLiteral")
	} else if d, ok := err.(*Diagnostic); !ok || d.Kind != UnterminatedLiteral {
		t.Fatalf("expected UnterminatedLiteral, got %v", err)
	}
}

func TestLexHexEscapeRequiresDigit(t *testing.T) {
	if _, err := Lex("t.c", `'\x'`); err == nil {
		t.Fatalf("expected error for bare \\x escape")
	} else if d, ok := err.(*Diagnostic); !ok || d.Kind != InvalidEscape {
		t.Fatalf("expected InvalidEscape, got %v", err)
	}
}

func TestLexCharConstant(t *testing.T) {
	toks, err := Lex("t.c", `'A' '\n' '\0'`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{'A', '\n', 0}
	for i, w := range want {
		if toks[i].CharValue != w {
			t.Fatalf("char[%d]: got %d want %d", i, toks[i].CharValue, w)
		}
	}
}

func TestLexLineSplicingInsideStringOnly(t *testing.T) {
	toks, err := Lex("t.c", "\"a\\\nb\"")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(toks[0].StrValue) != "ab\x00" {
		t.Fatalf("got %q", toks[0].StrValue)
	}
}

func TestLexTokenPositions(t *testing.T) {
	toks, err := Lex("t.c", "int\nx;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[1].Pos.Line != 2 || toks[1].Pos.Col != 1 {
		t.Fatalf("got pos %v", toks[1].Pos)
	}
}
