package cc89

import "fmt"

// FoldConstExpr evaluates e as a C89 integer constant expression, following
// spec.md section 4.3's constant-folding requirements: division/modulo by
// zero and negative shift counts are diagnosed; overflow is not checked, and
// results wrap in int64 arithmetic; unsigned operands select unsigned division, modulo, shift and relational
// semantics; casts to a narrower integer type truncate (and sign-extend,
// for a signed destination) to that type's width under the active Target.
// This mirrors the evaluator the spec.md front end was distilled from
// (original_source/src/front/semantics/const_eval.rs's eval_ice_with_env),
// generalized to walk this package's own Expr node types.
//
// env supplies the value of any identifier the expression may reference --
// in practice, previously-folded enumerators of the same enum being
// defined (spec.md section 8, scenario 2).
func FoldConstExpr(e Expr, tgt *Target, env map[string]int64) (int64, error) {
	switch n := e.(type) {
	case *IntLit:
		return int64(n.Value), nil
	case *CharLit:
		return int64(n.Value), nil
	case *FloatLit:
		return 0, &Diagnostic{Kind: NotConstant, Severity: SevError, Pos: n.Loc(), Message: "floating constant is not an integer constant expression"}
	case *Ident:
		if v, ok := env[n.Name]; ok {
			return v, nil
		}
		return 0, &Diagnostic{Kind: NotConstant, Severity: SevError, Pos: n.Loc(), Message: fmt.Sprintf("'%s' is not a constant", n.Name)}
	case *UnaryExpr:
		v, err := FoldConstExpr(n.Operand, tgt, env)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case PLUS:
			return v, nil
		case MINUS:
			return -v, nil
		case BANG:
			if v == 0 {
				return 1, nil
			}
			return 0, nil
		case TILDE:
			bits, signed := inferBitwiseWidth(n.Operand, tgt)
			return maskTruncate(^v, bits, signed), nil
		default:
			return 0, &Diagnostic{Kind: NotConstant, Severity: SevError, Pos: n.Loc(), Message: "operator not valid in a constant expression"}
		}
	case *BinaryExpr:
		return foldBinary(n, tgt, env)
	case *CondExpr:
		c, err := FoldConstExpr(n.Cond, tgt, env)
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return FoldConstExpr(n.Then, tgt, env)
		}
		return FoldConstExpr(n.Else, tgt, env)
	case *CastExpr:
		return foldCast(n, tgt, env)
	case *SizeofExpr:
		return foldSizeof(n, tgt)
	default:
		return 0, &Diagnostic{Kind: NotConstant, Severity: SevError, Pos: e.Loc(), Message: "not a constant expression"}
	}
}

func foldBinary(n *BinaryExpr, tgt *Target, env map[string]int64) (int64, error) {
	a, err := FoldConstExpr(n.Left, tgt, env)
	if err != nil {
		return 0, err
	}
	b, err := FoldConstExpr(n.Right, tgt, env)
	if err != nil {
		return 0, err
	}
	unsigned := isUnsignedExpr(n.Left) || isUnsignedExpr(n.Right)

	switch n.Op {
	case PLUS:
		return a + b, nil
	case MINUS:
		return a - b, nil
	case STAR:
		return a * b, nil
	case SLASH:
		if b == 0 {
			return 0, &Diagnostic{Kind: NotConstant, Severity: SevError, Pos: n.Loc(), Message: "division by zero in constant expression"}
		}
		if unsigned {
			return int64(uint64(a) / uint64(b)), nil
		}
		return a / b, nil
	case PERCENT:
		if b == 0 {
			return 0, &Diagnostic{Kind: NotConstant, Severity: SevError, Pos: n.Loc(), Message: "modulo by zero in constant expression"}
		}
		if unsigned {
			return int64(uint64(a) % uint64(b)), nil
		}
		return a % b, nil
	case SHL:
		if b < 0 {
			return 0, &Diagnostic{Kind: NotConstant, Severity: SevError, Pos: n.Loc(), Message: "negative shift count in constant expression"}
		}
		return a << uint(b), nil
	case SHR:
		if b < 0 {
			return 0, &Diagnostic{Kind: NotConstant, Severity: SevError, Pos: n.Loc(), Message: "negative shift count in constant expression"}
		}
		if unsigned {
			return int64(uint64(a) >> uint(b)), nil
		}
		return a >> uint(b), nil
	case AMP:
		return a & b, nil
	case CARET:
		return a ^ b, nil
	case PIPE:
		return a | b, nil
	case LT:
		return boolInt(cmp(a, b, unsigned) < 0), nil
	case GT:
		return boolInt(cmp(a, b, unsigned) > 0), nil
	case LE:
		return boolInt(cmp(a, b, unsigned) <= 0), nil
	case GE:
		return boolInt(cmp(a, b, unsigned) >= 0), nil
	case EQ:
		return boolInt(a == b), nil
	case NE:
		return boolInt(a != b), nil
	case ANDAND:
		return boolInt(a != 0 && b != 0), nil
	case OROR:
		return boolInt(a != 0 || b != 0), nil
	default:
		return 0, &Diagnostic{Kind: NotConstant, Severity: SevError, Pos: n.Loc(), Message: "operator not valid in a constant expression"}
	}
}

func cmp(a, b int64, unsigned bool) int {
	if unsigned {
		ua, ub := uint64(a), uint64(b)
		switch {
		case ua < ub:
			return -1
		case ua > ub:
			return 1
		default:
			return 0
		}
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func foldCast(n *CastExpr, tgt *Target, env map[string]int64) (int64, error) {
	v, err := FoldConstExpr(n.Operand, tgt, env)
	if err != nil {
		return 0, err
	}
	ty := n.TargetType.Resolved()
	if !ty.IsInteger() {
		return 0, &Diagnostic{Kind: BadCast, Severity: SevError, Pos: n.Loc(), Message: "cast to non-integer type in a constant expression"}
	}
	sz, err := SizeOf(ty, tgt)
	if err != nil {
		return 0, err
	}
	return maskTruncate(v, sz*8, ty.Kind == TInteger && ty.Signed), nil
}

func foldSizeof(n *SizeofExpr, tgt *Target) (int64, error) {
	if n.OperandType != nil {
		sz, err := SizeOf(n.OperandType, tgt)
		if err != nil {
			return 0, err
		}
		return int64(sz), nil
	}
	sz, err := sizeofOperandExpr(n.Operand, tgt)
	if err != nil {
		return 0, err
	}
	return int64(sz), nil
}

// sizeofOperandExpr is a best-effort syntactic type inference for
// sizeof(expr), sufficient for the constant-expression contexts (array
// bounds, enum initializers) that can reach this fold before full
// expression typing has run. Anything it cannot classify is reported as
// not constant, matching the front end this behavior is grounded on
// (original_source's ice_type_of_expr_for_sizeof, similarly best-effort).
func sizeofOperandExpr(e Expr, tgt *Target) (int, error) {
	switch n := e.(type) {
	case *IntLit, *CharLit:
		return tgt.IntSize, nil
	case *FloatLit:
		return tgt.DoubleSize, nil
	case *StringLit:
		return len(n.Value), nil
	case *CastExpr:
		return SizeOf(n.TargetType, tgt)
	case *UnaryExpr:
		if n.Op == AMP {
			return tgt.PointerSize, nil
		}
		return sizeofOperandExpr(n.Operand, tgt)
	default:
		return 0, &Diagnostic{Kind: NotConstant, Severity: SevError, Pos: e.Loc(), Message: "sizeof of this expression form is not supported in a constant expression"}
	}
}

// inferBitwiseWidth mirrors const_eval.rs's infer_bitwise_width_from_expr:
// a directly cast operand fixes the width (and signedness) for '~';
// anything else is treated as full 64-bit width (i.e. left unmasked),
// which is what lets scenarios like "~(unsigned long)1 % 7" (spec.md
// section 8) depend on the explicit cast rather than on some ambient
// "int" width. The signedness matters just as much as the width: masking
// to the cast's width and then sign-extending as if the destination were
// signed would reconstruct the original unmasked bit pattern, defeating
// the whole point of the narrower cast.
func inferBitwiseWidth(e Expr, tgt *Target) (bits int, signed bool) {
	if c, ok := e.(*CastExpr); ok {
		sz, err := SizeOf(c.TargetType, tgt)
		if err == nil {
			return sz * 8, !isUnsignedExpr(c)
		}
	}
	return 64, true
}

// isUnsignedExpr syntactically determines whether e's type is unsigned,
// well enough to select unsigned division/modulo/shift/relational
// semantics during folding. It does not require a completed sema pass.
func isUnsignedExpr(e Expr) bool {
	switch n := e.(type) {
	case *IntLit:
		return n.Suffix.Unsigned
	case *CastExpr:
		r := n.TargetType.Resolved()
		return r.Kind == TInteger && !r.Signed
	case *UnaryExpr:
		return isUnsignedExpr(n.Operand)
	case *BinaryExpr:
		return isUnsignedExpr(n.Left) || isUnsignedExpr(n.Right)
	case *CondExpr:
		return isUnsignedExpr(n.Then) || isUnsignedExpr(n.Else)
	default:
		return false
	}
}

func maskTruncate(v int64, bits int, signed bool) int64 {
	if bits <= 0 || bits >= 64 {
		return v
	}
	mask := (uint64(1) << uint(bits)) - 1
	truncated := uint64(v) & mask
	if !signed {
		return int64(truncated)
	}
	signBit := uint64(1) << uint(bits-1)
	if truncated&signBit != 0 {
		return int64(truncated | ^mask)
	}
	return int64(truncated)
}
