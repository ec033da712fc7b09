package cc89

import (
	"fmt"
	"strings"
)

// TypeKind discriminates the tagged sum described in spec.md section 3.2.
type TypeKind int

const (
	TVoid TypeKind = iota
	TInteger
	TFloat
	TPointer
	TArray
	TFunction
	TStruct
	TUnion
	TEnum
	TTypedef
)

// IntRank orders the integer ranks named in spec.md section 3.2.
type IntRank int

const (
	RankChar IntRank = iota
	RankShort
	RankInt
	RankLong
	RankLongLong
)

// FloatPrecision orders the floating precisions named in spec.md section 3.2.
type FloatPrecision int

const (
	PrecFloat FloatPrecision = iota
	PrecDouble
	PrecLongDouble
)

// Member is one field of a struct or union type.
type Member struct {
	Name       string
	Type       *Type
	ByteOffset int
}

// EnumConst is one enumerator of an enum type.
type EnumConst struct {
	Name  string
	Value int64
}

// Param is one parameter of a function type; Name is empty for an
// unnamed prototype parameter.
type Param struct {
	Name string
	Type *Type
}

// Type is the tagged sum over the C89 type system (spec.md section 3.2).
// The parser hands back the same *Type for every reference to a struct/union
// tag, so a self-referential member (spec.md section 9) points at its own
// outer Type and the graph is cyclic through pointer members. Size and
// layout never recurse through a pointer, so the cycle is never walked.
type Type struct {
	Kind IntKindOrOther

	// Integer
	Signed bool
	Rank   IntRank

	// Float
	Precision FloatPrecision

	// Pointer / Array
	Elem     *Type
	ArrayLen int  // 0 if incomplete (HasLen false)
	HasLen   bool
	// LenExpr holds the array-size expression when it was not a plain
	// integer literal at parse time (e.g. "a[N]" where N is an enumerator,
	// or a sizeof expression). Sema folds it with the active
	// Target and fills ArrayLen; nil once resolved or when the size was
	// already a literal.
	LenExpr Expr

	// Function
	Return   *Type
	Params   []Param
	Variadic bool

	// Struct / Union / Enum
	Tag      string
	Members  []Member
	Consts   []EnumConst
	// EnumExprs holds the unresolved initializer expression for each entry
	// of Consts (nil element means "previous value + 1"). Enum values are
	// folded by sema once the active Target is known, since the fold can be
	// target-width-dependent (spec.md section 8, scenario 2).
	EnumExprs []Expr
	Complete  bool

	// Typedef
	TypedefName string
	Underlying  *Type

	// Qualifiers, tracked but not affecting layout.
	IsConst    bool
	IsVolatile bool
}

// IntKindOrOther is TypeKind renamed for the Kind field to avoid a stutter
// with the package-level TypeKind constants used as tag values.
type IntKindOrOther = TypeKind

// Common scalar types are constructed fresh per Target since size/alignment
// depend on it; these constructors just fix the tag shape.

func VoidType() *Type { return &Type{Kind: TVoid} }

func IntType(signed bool, rank IntRank) *Type {
	return &Type{Kind: TInteger, Signed: signed, Rank: rank}
}

func FloatType(p FloatPrecision) *Type {
	return &Type{Kind: TFloat, Precision: p}
}

func PointerTo(elem *Type) *Type {
	return &Type{Kind: TPointer, Elem: elem}
}

func ArrayOf(elem *Type, length int) *Type {
	return &Type{Kind: TArray, Elem: elem, ArrayLen: length, HasLen: true}
}

func IncompleteArrayOf(elem *Type) *Type {
	return &Type{Kind: TArray, Elem: elem, HasLen: false}
}

func FunctionType(ret *Type, params []Param, variadic bool) *Type {
	return &Type{Kind: TFunction, Return: ret, Params: params, Variadic: variadic}
}

// IsScalar reports whether values of t participate in arithmetic/pointer
// promotion (spec.md section 4.3).
func (t *Type) IsScalar() bool {
	switch t.Kind {
	case TInteger, TFloat, TPointer, TEnum:
		return true
	default:
		return false
	}
}

func (t *Type) IsArithmetic() bool {
	return t.Kind == TInteger || t.Kind == TFloat || t.Kind == TEnum
}

func (t *Type) IsInteger() bool { return t.Kind == TInteger || t.Kind == TEnum }

func (t *Type) IsVoid() bool { return t.Kind == TVoid }

func (t *Type) IsAggregate() bool { return t.Kind == TStruct || t.Kind == TUnion }

// Resolved strips typedef wrappers, following spec.md's "Typedef(name→type)
// resolved during semantic analysis; retained in AST for diagnostics".
func (t *Type) Resolved() *Type {
	for t.Kind == TTypedef {
		t = t.Underlying
	}
	return t
}

// String renders a type for diagnostics, following C declarator order.
func (t *Type) String() string {
	var b strings.Builder
	writeType(&b, t)
	return b.String()
}

func writeType(b *strings.Builder, t *Type) {
	r := t.Resolved()
	switch r.Kind {
	case TVoid:
		b.WriteString("void")
	case TInteger:
		if !r.Signed {
			b.WriteString("unsigned ")
		}
		switch r.Rank {
		case RankChar:
			b.WriteString("char")
		case RankShort:
			b.WriteString("short")
		case RankInt:
			b.WriteString("int")
		case RankLong:
			b.WriteString("long")
		case RankLongLong:
			b.WriteString("long long")
		}
	case TFloat:
		switch r.Precision {
		case PrecFloat:
			b.WriteString("float")
		case PrecDouble:
			b.WriteString("double")
		case PrecLongDouble:
			b.WriteString("long double")
		}
	case TPointer:
		writeType(b, r.Elem)
		b.WriteString(" *")
	case TArray:
		writeType(b, r.Elem)
		if r.HasLen {
			fmt.Fprintf(b, " [%d]", r.ArrayLen)
		} else {
			b.WriteString(" []")
		}
	case TFunction:
		writeType(b, r.Return)
		b.WriteString(" (")
		for i, p := range r.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			writeType(b, p.Type)
		}
		if r.Variadic {
			if len(r.Params) > 0 {
				b.WriteString(", ")
			}
			b.WriteString("...")
		}
		b.WriteString(")")
	case TStruct:
		b.WriteString("struct " + r.Tag)
	case TUnion:
		b.WriteString("union " + r.Tag)
	case TEnum:
		b.WriteString("enum " + r.Tag)
	}
}

// SizeOf and AlignOf compute the size/alignment of a complete type per the
// active Target. Incomplete types report IncompleteType (spec.md 3.2).
func SizeOf(t *Type, tgt *Target) (int, error) {
	r := t.Resolved()
	switch r.Kind {
	case TVoid:
		return 0, fmt.Errorf("sizeof applied to void")
	case TInteger:
		return intSize(r, tgt), nil
	case TEnum:
		return tgt.IntSize, nil
	case TFloat:
		switch r.Precision {
		case PrecFloat:
			return tgt.FloatSize, nil
		case PrecDouble:
			return tgt.DoubleSize, nil
		default:
			return tgt.LongDoubleSize, nil
		}
	case TPointer:
		return tgt.PointerSize, nil
	case TArray:
		if !r.HasLen {
			return 0, fmt.Errorf("%w: incomplete array type", errIncompleteType)
		}
		elemSize, err := SizeOf(r.Elem, tgt)
		if err != nil {
			return 0, err
		}
		return elemSize * r.ArrayLen, nil
	case TFunction:
		return 0, fmt.Errorf("sizeof applied to function type")
	case TStruct, TUnion:
		if !r.Complete {
			return 0, fmt.Errorf("%w: incomplete %s %s", errIncompleteType, kindWord(r.Kind), r.Tag)
		}
		return aggregateSize(r, tgt)
	default:
		return 0, fmt.Errorf("sizeof applied to unsupported type")
	}
}

func AlignOf(t *Type, tgt *Target) (int, error) {
	r := t.Resolved()
	switch r.Kind {
	case TInteger:
		return intSize(r, tgt), nil
	case TEnum:
		return tgt.IntSize, nil
	case TFloat:
		switch r.Precision {
		case PrecFloat:
			return tgt.FloatSize, nil
		case PrecDouble:
			return tgt.DoubleSize, nil
		default:
			return tgt.LongDoubleAlign, nil
		}
	case TPointer:
		return tgt.PointerSize, nil
	case TArray:
		return AlignOf(r.Elem, tgt)
	case TFunction:
		return tgt.PointerSize, nil
	case TStruct, TUnion:
		if !r.Complete {
			return 0, fmt.Errorf("%w: incomplete %s %s", errIncompleteType, kindWord(r.Kind), r.Tag)
		}
		max := 1
		for _, m := range r.Members {
			a, err := AlignOf(m.Type, tgt)
			if err != nil {
				return 0, err
			}
			if a > max {
				max = a
			}
		}
		return max, nil
	default:
		return 1, nil
	}
}

var errIncompleteType = fmt.Errorf("IncompleteType")

func kindWord(k TypeKind) string {
	if k == TStruct {
		return "struct"
	}
	return "union"
}

func intSize(t *Type, tgt *Target) int {
	switch t.Rank {
	case RankChar:
		return 1
	case RankShort:
		return tgt.ShortSize
	case RankInt:
		return tgt.IntSize
	case RankLong:
		return tgt.LongSize
	case RankLongLong:
		return tgt.LLongSize
	default:
		return tgt.IntSize
	}
}

// aggregateSize implements the layout invariant of spec.md section 3.2:
// each member's offset is the smallest value >= running offset satisfying
// its alignment; the struct's own alignment is the max member alignment;
// its size is the running offset rounded up to that alignment. Union
// members all sit at offset 0 and the size is the max member size rounded
// to the max member alignment. Layout is also recorded into r.Members'
// ByteOffset fields by ComputeLayout (called from sema, not here) --
// SizeOf/AlignOf are pure queries over an already-laid-out type.
func aggregateSize(t *Type, tgt *Target) (int, error) {
	if t.Kind == TUnion {
		maxSize, maxAlign := 0, 1
		for _, m := range t.Members {
			sz, err := SizeOf(m.Type, tgt)
			if err != nil {
				return 0, err
			}
			al, err := AlignOf(m.Type, tgt)
			if err != nil {
				return 0, err
			}
			if sz > maxSize {
				maxSize = sz
			}
			if al > maxAlign {
				maxAlign = al
			}
		}
		return alignUp(maxSize, maxAlign), nil
	}

	offset, maxAlign := 0, 1
	for _, m := range t.Members {
		al, err := AlignOf(m.Type, tgt)
		if err != nil {
			return 0, err
		}
		sz, err := SizeOf(m.Type, tgt)
		if err != nil {
			return 0, err
		}
		if al > maxAlign {
			maxAlign = al
		}
		offset = alignUp(offset, al) + sz
	}
	return alignUp(offset, maxAlign), nil
}

// ComputeLayout assigns ByteOffset to every member of a struct/union type in
// place and marks it Complete. sema's resolveType calls it once the
// member types are resolved and the active Target is known (see sema.go).
func ComputeLayout(t *Type, tgt *Target) error {
	if t.Kind == TUnion {
		for i := range t.Members {
			t.Members[i].ByteOffset = 0
		}
		t.Complete = true
		return nil
	}
	offset := 0
	for i := range t.Members {
		al, err := AlignOf(t.Members[i].Type, tgt)
		if err != nil {
			return err
		}
		sz, err := SizeOf(t.Members[i].Type, tgt)
		if err != nil {
			return err
		}
		offset = alignUp(offset, al)
		t.Members[i].ByteOffset = offset
		offset += sz
	}
	t.Complete = true
	return nil
}

func alignUp(v, a int) int {
	if a <= 0 {
		return v
	}
	return (v + a - 1) / a * a
}

// Compatible implements a conservative version of C89 type compatibility
// used for assignment checks in sema.go: same kind, and matching payload.
func Compatible(a, b *Type) bool {
	ar, br := a.Resolved(), b.Resolved()
	if ar.Kind != br.Kind {
		return false
	}
	switch ar.Kind {
	case TVoid:
		return true
	case TInteger:
		return ar.Signed == br.Signed && ar.Rank == br.Rank
	case TFloat:
		return ar.Precision == br.Precision
	case TPointer:
		if ar.Elem.Resolved().Kind == TVoid || br.Elem.Resolved().Kind == TVoid {
			return true
		}
		return Compatible(ar.Elem, br.Elem)
	case TArray:
		return Compatible(ar.Elem, br.Elem)
	case TStruct, TUnion, TEnum:
		return ar.Tag == br.Tag
	case TFunction:
		if len(ar.Params) != len(br.Params) || ar.Variadic != br.Variadic {
			return false
		}
		if !Compatible(ar.Return, br.Return) {
			return false
		}
		for i := range ar.Params {
			if !Compatible(ar.Params[i].Type, br.Params[i].Type) {
				return false
			}
		}
		return true
	}
	return false
}
