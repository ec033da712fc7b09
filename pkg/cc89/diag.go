package cc89

import "fmt"

// Severity classifies a diagnostic per spec.md section 6.4.
type Severity int

const (
	SevError Severity = iota
	SevWarning
	SevNote
)

func (s Severity) String() string {
	switch s {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	case SevNote:
		return "note"
	default:
		return "unknown"
	}
}

// DiagKind names one entry of the error taxonomy in spec.md section 7.
type DiagKind string

const (
	// Lex
	NonC89Comment          DiagKind = "NonC89Comment"
	WideLiteralNotSupported DiagKind = "WideLiteralNotSupported"
	InvalidEscape          DiagKind = "InvalidEscape"
	UnterminatedLiteral    DiagKind = "UnterminatedLiteral"
	InvalidNumber          DiagKind = "InvalidNumber"
	InvalidSuffix          DiagKind = "InvalidSuffix"
	StrayCharacter         DiagKind = "StrayCharacter"

	// Parse
	UnexpectedToken    DiagKind = "UnexpectedToken"
	MalformedDeclarator DiagKind = "MalformedDeclarator"
	InitializerMismatch DiagKind = "InitializerMismatch"
	RedundantSpecifier DiagKind = "RedundantSpecifier"

	// Semantic
	Undeclared    DiagKind = "Undeclared"
	Redefinition  DiagKind = "Redefinition"
	TypeMismatch  DiagKind = "TypeMismatch"
	NotAssignable DiagKind = "NotAssignable"
	NotConstant   DiagKind = "NotConstant"
	IncompleteType DiagKind = "IncompleteType"
	BadCast       DiagKind = "BadCast"
	WrongArity    DiagKind = "WrongArity"
	VaListMisuse  DiagKind = "VaListMisuse"

	// IR
	Unsupported DiagKind = "Unsupported"
	Internal    DiagKind = "Internal"
)

// Diagnostic is a single compiler message with a kind, source location and
// rendered text. It satisfies the error interface so callers that only want
// the first failure can keep treating passes as returning a plain error.
type Diagnostic struct {
	Kind     DiagKind
	Severity Severity
	Pos      Pos
	Message  string
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s: %s", d.Pos, d.Severity, d.Message)
}

// DiagSink accumulates diagnostics across a pass. Lex errors halt lexing
// after the first (spec.md section 7); parse and semantic errors accumulate,
// bounded by MaxParseDiagnostics for parse errors.
type DiagSink struct {
	diags []*Diagnostic
}

// MaxParseDiagnostics bounds the number of parse errors collected before the
// parser gives up resynchronizing, per spec.md section 7.
const MaxParseDiagnostics = 25

func (s *DiagSink) Add(kind DiagKind, sev Severity, pos Pos, format string, args ...any) *Diagnostic {
	d := &Diagnostic{Kind: kind, Severity: sev, Pos: pos, Message: fmt.Sprintf(format, args...)}
	s.diags = append(s.diags, d)
	return d
}

func (s *DiagSink) Errorf(kind DiagKind, pos Pos, format string, args ...any) *Diagnostic {
	return s.Add(kind, SevError, pos, format, args...)
}

func (s *DiagSink) HasErrors() bool {
	for _, d := range s.diags {
		if d.Severity == SevError {
			return true
		}
	}
	return false
}

func (s *DiagSink) Diagnostics() []*Diagnostic { return s.diags }

func (s *DiagSink) Count() int { return len(s.diags) }
