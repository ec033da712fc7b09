package cc89

import "fmt"

// TokenKind identifies the category of a lexed token.
type TokenKind int

const (
	EOF TokenKind = iota // sentinel: end of input

	IDENT     // identifier or typedef-name
	INT_CONST // integer constant (decimal, octal, hex)
	FLT_CONST // floating constant
	CHR_CONST // character constant, value already escape-resolved
	STR_LIT   // string literal, adjacent literals already concatenated

	// Keywords -- the 32 reserved words of ISO/IEC 9899:1990.
	AUTO
	BREAK
	CASE
	CHAR
	CONST
	CONTINUE
	DEFAULT
	DO
	DOUBLE
	ELSE
	ENUM
	EXTERN
	FLOAT
	FOR
	GOTO
	IF
	INT
	LONG
	REGISTER
	RETURN
	SHORT
	SIGNED
	SIZEOF
	STATIC
	STRUCT
	SWITCH
	TYPEDEF
	UNION
	UNSIGNED
	VOID
	VOLATILE
	WHILE

	// Punctuators -- the full C89 set, plus the "..." ellipsis.
	LBRACKET // [
	RBRACKET // ]
	LPAREN   // (
	RPAREN   // )
	LBRACE   // {
	RBRACE   // }
	DOT      // .
	ARROW    // ->
	INCR     // ++
	DECR     // --
	AMP      // &
	STAR     // *
	PLUS     // +
	MINUS    // -
	TILDE    // ~
	BANG     // !
	SLASH    // /
	PERCENT  // %
	SHL      // <<
	SHR      // >>
	LT       // <
	GT       // >
	LE       // <=
	GE       // >=
	EQ       // ==
	NE       // !=
	CARET    // ^
	PIPE     // |
	ANDAND   // &&
	OROR     // ||
	QUESTION // ?
	COLON    // :
	SEMI     // ;
	ELLIPSIS // ...
	ASSIGN   // =
	MUL_ASN  // *=
	DIV_ASN  // /=
	MOD_ASN  // %=
	ADD_ASN  // +=
	SUB_ASN  // -=
	SHL_ASN  // <<=
	SHR_ASN  // >>=
	AND_ASN  // &=
	XOR_ASN  // ^=
	OR_ASN   // |=
	COMMA    // ,
)

var keywords = map[string]TokenKind{
	"auto": AUTO, "break": BREAK, "case": CASE, "char": CHAR,
	"const": CONST, "continue": CONTINUE, "default": DEFAULT, "do": DO,
	"double": DOUBLE, "else": ELSE, "enum": ENUM, "extern": EXTERN,
	"float": FLOAT, "for": FOR, "goto": GOTO, "if": IF,
	"int": INT, "long": LONG, "register": REGISTER, "return": RETURN,
	"short": SHORT, "signed": SIGNED, "sizeof": SIZEOF, "static": STATIC,
	"struct": STRUCT, "switch": SWITCH, "typedef": TYPEDEF, "union": UNION,
	"unsigned": UNSIGNED, "void": VOID, "volatile": VOLATILE, "while": WHILE,
}

var tokenNames = map[TokenKind]string{
	EOF: "EOF", IDENT: "IDENT", INT_CONST: "INT_CONST", FLT_CONST: "FLT_CONST",
	CHR_CONST: "CHR_CONST", STR_LIT: "STR_LIT",
	AUTO: "auto", BREAK: "break", CASE: "case", CHAR: "char", CONST: "const",
	CONTINUE: "continue", DEFAULT: "default", DO: "do", DOUBLE: "double",
	ELSE: "else", ENUM: "enum", EXTERN: "extern", FLOAT: "float", FOR: "for",
	GOTO: "goto", IF: "if", INT: "int", LONG: "long", REGISTER: "register",
	RETURN: "return", SHORT: "short", SIGNED: "signed", SIZEOF: "sizeof",
	STATIC: "static", STRUCT: "struct", SWITCH: "switch", TYPEDEF: "typedef",
	UNION: "union", UNSIGNED: "unsigned", VOID: "void", VOLATILE: "volatile",
	WHILE: "while",
	LBRACKET: "[", RBRACKET: "]", LPAREN: "(", RPAREN: ")", LBRACE: "{",
	RBRACE: "}", DOT: ".", ARROW: "->", INCR: "++", DECR: "--", AMP: "&",
	STAR: "*", PLUS: "+", MINUS: "-", TILDE: "~", BANG: "!", SLASH: "/",
	PERCENT: "%", SHL: "<<", SHR: ">>", LT: "<", GT: ">", LE: "<=", GE: ">=",
	EQ: "==", NE: "!=", CARET: "^", PIPE: "|", ANDAND: "&&", OROR: "||",
	QUESTION: "?", COLON: ":", SEMI: ";", ELLIPSIS: "...", ASSIGN: "=",
	MUL_ASN: "*=", DIV_ASN: "/=", MOD_ASN: "%=", ADD_ASN: "+=", SUB_ASN: "-=",
	SHL_ASN: "<<=", SHR_ASN: ">>=", AND_ASN: "&=", XOR_ASN: "^=", OR_ASN: "|=",
	COMMA: ",",
}

func (k TokenKind) String() string {
	if s, ok := tokenNames[k]; ok {
		return s
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// IntSuffix records the suffix letters seen on an integer constant.
type IntSuffix struct {
	Unsigned bool
	Long     bool
	LongLong bool
}

// FloatSuffix records the suffix letter seen on a floating constant.
type FloatSuffix int

const (
	FloatSuffixNone FloatSuffix = iota
	FloatSuffixF                // float
	FloatSuffixL                // long double
)

// Pos is a source location: file, 1-based line/column, and byte offset.
type Pos struct {
	File   string
	Line   int
	Col    int
	Offset int
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Kind   TokenKind
	Lexeme string // exact source text; for STR_LIT, the same resolved NUL-terminated payload as StrValue
	Pos    Pos

	IntValue   uint64
	IntSuffix  IntSuffix
	FloatValue float64
	FloatSuf   FloatSuffix
	CharValue  byte   // resolved value of a character constant
	StrValue   []byte // resolved, NUL-terminated payload of a string literal
}

func (t Token) String() string {
	return fmt.Sprintf("%-10s %-14q  %s", t.Kind, t.Lexeme, t.Pos)
}
