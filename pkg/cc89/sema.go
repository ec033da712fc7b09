package cc89

// Sema is the semantic analyzer (spec.md section 3's "S"): it walks the
// untyped AST the parser produced, builds the authoritative SymbolTable,
// resolves every array/enum size that depends on a constant expression,
// computes struct/union layout, checks types, and annotates every Expr
// node in place with its resolved Type and lvalue-ness so that G (irgen.go)
// never has to re-derive either. It follows the teacher's CodeGen shape
// (pkg/compiler/codegen.go: a struct holding a *SymbolTable plus running
// state, walking the AST with one method per node kind) but performs type
// checking instead of code emission.
type Sema struct {
	tgt   *Target
	syms  *SymbolTable
	diags *DiagSink

	funcReturn *Type
	loopDepth  int
	switchTags []*Type

	resolvedTypes map[*Type]bool
	inProgress    map[*Type]bool
}

// Analyze runs the semantic pass over tu for the given target and returns
// the symbol table it built (irgen.go consults it for global layout) plus
// any diagnostics.
func Analyze(tu *TranslationUnit, tgt *Target) (*SymbolTable, *DiagSink) {
	s := &Sema{
		tgt:           tgt,
		syms:          NewSymbolTable(),
		diags:         &DiagSink{},
		resolvedTypes: make(map[*Type]bool),
		inProgress:    make(map[*Type]bool),
	}
	for _, d := range tu.Decls {
		s.analyzeTopDecl(d)
	}
	return s.syms, s.diags
}

func (s *Sema) errf(kind DiagKind, pos Pos, format string, args ...any) {
	s.diags.Errorf(kind, pos, format, args...)
}

// -- type resolution (array sizes, enum values, aggregate layout) -------

// resolveType folds any pending constant expressions embedded in t (array
// lengths, enum initializers) and computes struct/union layout, walking
// nested types (Elem, Return, Params, Members) exactly once each. It is
// idempotent and safe to call on a type that is already fully resolved.
func (s *Sema) resolveType(t *Type) {
	if t == nil || s.resolvedTypes[t] || s.inProgress[t] {
		return
	}
	s.inProgress[t] = true
	defer func() { delete(s.inProgress, t); s.resolvedTypes[t] = true }()

	switch t.Kind {
	case TPointer:
		s.resolveType(t.Elem)
	case TArray:
		s.resolveType(t.Elem)
		if t.LenExpr != nil {
			v, err := s.foldConst(t.LenExpr)
			if err != nil {
				s.diags.diags = append(s.diags.diags, asDiag(err, t.LenExpr.Loc()))
				v = 0
			}
			if v < 0 {
				s.errf(TypeMismatch, t.LenExpr.Loc(), "array size must not be negative")
				v = 0
			}
			t.ArrayLen = int(v)
			t.HasLen = true
			t.LenExpr = nil
		}
	case TFunction:
		s.resolveType(t.Return)
		for i := range t.Params {
			s.resolveType(t.Params[i].Type)
		}
	case TStruct, TUnion:
		for i := range t.Members {
			s.resolveType(t.Members[i].Type)
		}
		if err := ComputeLayout(t, s.tgt); err != nil {
			s.errf(IncompleteType, Pos{}, "%v", err)
		}
	case TEnum:
		s.resolveEnum(t)
	case TTypedef:
		s.resolveType(t.Underlying)
	}
}

func (s *Sema) resolveEnum(t *Type) {
	if t.Complete {
		return
	}
	next := int64(0)
	for i := range t.Consts {
		if i < len(t.EnumExprs) && t.EnumExprs[i] != nil {
			v, err := s.foldConst(t.EnumExprs[i])
			if err != nil {
				s.diags.diags = append(s.diags.diags, asDiag(err, Pos{}))
			} else {
				next = v
			}
		}
		t.Consts[i].Value = next
		s.syms.Declare(t.Consts[i].Name, t, SCNone, LinkNone)
		if sym, ok := s.syms.LookupOrdinaryInCurrentScope(t.Consts[i].Name); ok {
			sym.IsConst = true
			sym.ConstValue = next
		}
		next++
	}
	t.EnumExprs = nil
	t.Complete = true
}

func asDiag(err error, fallback Pos) *Diagnostic {
	if d, ok := err.(*Diagnostic); ok {
		return d
	}
	return &Diagnostic{Kind: NotConstant, Severity: SevError, Pos: fallback, Message: err.Error()}
}

// foldConst wraps FoldConstExpr with an environment built from any
// enumerator/const symbols the expression references by name, so a case
// label or array bound can name an already-declared enumerator.
func (s *Sema) foldConst(e Expr) (int64, error) {
	env := map[string]int64{}
	for _, name := range collectIdentNames(e) {
		if sym, ok := s.syms.LookupOrdinary(name); ok && sym.IsConst {
			env[name] = sym.ConstValue
		}
	}
	return FoldConstExpr(e, s.tgt, env)
}

func collectIdentNames(e Expr) []string {
	var out []string
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case *Ident:
			out = append(out, n.Name)
		case *UnaryExpr:
			walk(n.Operand)
		case *PostfixExpr:
			walk(n.Operand)
		case *BinaryExpr:
			walk(n.Left)
			walk(n.Right)
		case *CondExpr:
			walk(n.Cond)
			walk(n.Then)
			walk(n.Else)
		case *CastExpr:
			walk(n.Operand)
		case *SizeofExpr:
			if n.Operand != nil {
				walk(n.Operand)
			}
		}
	}
	walk(e)
	return out
}

// -- declarations ---------------------------------------------------------

func (s *Sema) analyzeTopDecl(d *Decl) {
	s.resolveType(d.Type)
	s.declareAndCheck(d, true)

	if d.IsFuncDef {
		s.analyzeFuncBody(d)
		return
	}
	if d.Init != nil {
		s.analyzeInit(d.Init, d.Type)
	}
}

// declareAndCheck installs d's symbol, diagnosing an incompatible
// redeclaration in the same scope (spec.md section 3.4 "Redefinition").
func (s *Sema) declareAndCheck(d *Decl, atFile bool) {
	link := LinkNone
	if atFile {
		if d.Storage == SCStatic {
			link = LinkInternal
		} else if d.Storage != SCTypedef {
			link = LinkExternal
		}
	} else if d.Storage == SCExtern {
		link = LinkExternal
	}

	if d.Name == "" {
		return
	}
	if existing, ok := s.syms.LookupOrdinaryInCurrentScope(d.Name); ok {
		if !Compatible(existing.Type, d.Type) || (d.IsFuncDef && existing.Defined) {
			s.errf(Redefinition, d.Pos, "redefinition of '%s'", d.Name)
		}
		d.Sym = existing
		if d.IsFuncDef {
			existing.Defined = true
		}
		return
	}
	sym := s.syms.Declare(d.Name, d.Type, d.Storage, link)
	if d.IsFuncDef {
		sym.Defined = true
	}
	d.Sym = sym
}

func (s *Sema) analyzeFuncBody(d *Decl) {
	prevReturn := s.funcReturn
	s.funcReturn = d.Type.Return
	s.syms.ResetLabels()
	s.syms.PushScope(ScopeFunctionParams)
	d.ParamSyms = make([]*Symbol, len(d.Type.Params))
	for i, p := range d.Type.Params {
		name := p.Name
		if i < len(d.ParamNames) && d.ParamNames[i] != "" {
			name = d.ParamNames[i]
		}
		if name == "" {
			continue
		}
		d.ParamSyms[i] = s.syms.Declare(name, p.Type, SCNone, LinkNone)
	}
	s.analyzeBlock(d.Body, false)
	s.syms.PopScope()
	s.funcReturn = prevReturn

	s.checkGotoTargets(d.Body)
}

// checkGotoTargets is a shallow post-pass verifying every goto in the
// function names a label that actually appears somewhere in the body
// (spec.md section 6, "Goto to undeclared label").
func (s *Sema) checkGotoTargets(body Stmt) {
	labels := map[string]bool{}
	var collectLabels func(Stmt)
	collectLabels = func(st Stmt) {
		switch n := st.(type) {
		case *BlockStmt:
			for _, c := range n.Stmts {
				collectLabels(c)
			}
		case *LabeledStmt:
			if n.Kind == LabelIdent {
				labels[n.Ident] = true
			}
			collectLabels(n.Stmt)
		case *IfStmt:
			collectLabels(n.Then)
			if n.Else != nil {
				collectLabels(n.Else)
			}
		case *WhileStmt:
			collectLabels(n.Body)
		case *DoWhileStmt:
			collectLabels(n.Body)
		case *ForStmt:
			collectLabels(n.Body)
		case *SwitchStmt:
			collectLabels(n.Body)
		}
	}
	collectLabels(body)

	var checkGotos func(Stmt)
	checkGotos = func(st Stmt) {
		switch n := st.(type) {
		case *BlockStmt:
			for _, c := range n.Stmts {
				checkGotos(c)
			}
		case *LabeledStmt:
			checkGotos(n.Stmt)
		case *IfStmt:
			checkGotos(n.Then)
			if n.Else != nil {
				checkGotos(n.Else)
			}
		case *WhileStmt:
			checkGotos(n.Body)
		case *DoWhileStmt:
			checkGotos(n.Body)
		case *ForStmt:
			checkGotos(n.Body)
		case *SwitchStmt:
			checkGotos(n.Body)
		case *GotoStmt:
			if !labels[n.Label] {
				s.errf(Undeclared, n.Loc(), "goto to undeclared label '%s'", n.Label)
			}
		}
	}
	checkGotos(body)
}

// -- statements -------------------------------------------------------------

func (s *Sema) analyzeBlock(b *BlockStmt, ownScope bool) {
	if ownScope {
		s.syms.PushScope(ScopeBlock)
		defer s.syms.PopScope()
	}
	for _, st := range b.Stmts {
		s.analyzeStmt(st)
	}
}

func (s *Sema) analyzeStmt(st Stmt) {
	switch n := st.(type) {
	case *BlockStmt:
		s.analyzeBlock(n, true)
	case *DeclStmt:
		s.resolveType(n.D.Type)
		s.declareAndCheck(n.D, false)
		if n.D.Init != nil {
			s.analyzeInit(n.D.Init, n.D.Type)
		}
	case *ExprStmt:
		s.analyzeExpr(n.X)
	case *NullStmt:
	case *IfStmt:
		s.analyzeExpr(n.Cond)
		s.analyzeStmt(n.Then)
		if n.Else != nil {
			s.analyzeStmt(n.Else)
		}
	case *WhileStmt:
		s.analyzeExpr(n.Cond)
		s.loopDepth++
		s.analyzeStmt(n.Body)
		s.loopDepth--
	case *DoWhileStmt:
		s.loopDepth++
		s.analyzeStmt(n.Body)
		s.loopDepth--
		s.analyzeExpr(n.Cond)
	case *ForStmt:
		s.syms.PushScope(ScopeBlock)
		if n.Init != nil {
			s.analyzeStmt(n.Init)
		}
		if n.Cond != nil {
			s.analyzeExpr(n.Cond)
		}
		if n.Post != nil {
			s.analyzeExpr(n.Post)
		}
		s.loopDepth++
		s.analyzeStmt(n.Body)
		s.loopDepth--
		s.syms.PopScope()
	case *SwitchStmt:
		ty := s.analyzeExpr(n.Tag)
		if ty == nil || !ty.Resolved().IsInteger() {
			s.errf(TypeMismatch, n.Tag.Loc(), "switch condition must have integer type")
		}
		s.switchTags = append(s.switchTags, ty)
		seen := map[int64]bool{}
		s.checkCaseLabels(n.Body, seen)
		s.analyzeStmt(n.Body)
		s.switchTags = s.switchTags[:len(s.switchTags)-1]
	case *LabeledStmt:
		s.analyzeStmt(n.Stmt)
	case *GotoStmt:
	case *ContinueStmt:
		if s.loopDepth == 0 {
			s.errf(UnexpectedToken, n.Loc(), "continue statement not within a loop")
		}
	case *BreakStmt:
	case *ReturnStmt:
		if n.Value != nil {
			ty := s.analyzeExpr(n.Value)
			if s.funcReturn != nil && !s.funcReturn.IsVoid() && ty != nil && !assignable(s.funcReturn, ty) {
				s.errf(TypeMismatch, n.Loc(), "return type %s does not match function return type %s", ty, s.funcReturn)
			}
		} else if s.funcReturn != nil && !s.funcReturn.IsVoid() {
			s.errf(TypeMismatch, n.Loc(), "non-void function must return a value")
		}
	}
}

// checkCaseLabels folds every case label reachable in body (without
// descending into a nested switch) and diagnoses duplicates.
func (s *Sema) checkCaseLabels(st Stmt, seen map[int64]bool) {
	switch n := st.(type) {
	case *BlockStmt:
		for _, c := range n.Stmts {
			s.checkCaseLabels(c, seen)
		}
	case *LabeledStmt:
		if n.Kind == LabelCase {
			v, err := s.foldConst(n.CaseExpr)
			if err != nil {
				s.diags.diags = append(s.diags.diags, asDiag(err, n.Loc()))
			} else {
				n.CaseValue = v
				if seen[v] {
					s.errf(TypeMismatch, n.Loc(), "duplicate case value %d", v)
				}
				seen[v] = true
			}
		}
		s.checkCaseLabels(n.Stmt, seen)
	case *IfStmt:
		s.checkCaseLabels(n.Then, seen)
		if n.Else != nil {
			s.checkCaseLabels(n.Else, seen)
		}
	case *WhileStmt:
		s.checkCaseLabels(n.Body, seen)
	case *DoWhileStmt:
		s.checkCaseLabels(n.Body, seen)
	case *ForStmt:
		s.checkCaseLabels(n.Body, seen)
	}
}

// -- initializers -----------------------------------------------------------

func (s *Sema) analyzeInit(init Init, target *Type) {
	switch n := init.(type) {
	case *InitList:
		rt := target.Resolved()
		switch rt.Kind {
		case TArray:
			if !rt.HasLen {
				rt.ArrayLen = len(n.Elements)
				rt.HasLen = true
			}
			for _, el := range n.Elements {
				s.analyzeInit(el, rt.Elem)
			}
		case TStruct:
			for i, el := range n.Elements {
				if i >= len(rt.Members) {
					s.errf(InitializerMismatch, n.Pos, "too many initializers")
					break
				}
				s.analyzeInit(el, rt.Members[i].Type)
			}
		default:
			for _, el := range n.Elements {
				s.analyzeInit(el, target)
			}
		}
	default:
		if w, ok := init.(Expr); ok {
			ty := s.analyzeExpr(w)
			if ty != nil && !assignable(target, ty) {
				s.errf(InitializerMismatch, w.Loc(), "cannot initialize %s from %s", target, ty)
			}
		}
	}
}

// -- expressions ------------------------------------------------------------

// analyzeExpr resolves e's type in place (spec.md section 3.3: "Each
// expression carries a computed type and an lvalue flag after S") and
// returns it for the caller's convenience.
func (s *Sema) analyzeExpr(e Expr) *Type {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *IntLit:
		ty := intLitType(n, s.tgt)
		n.SetType(ty)
		return ty
	case *FloatLit:
		ty := FloatType(PrecDouble)
		if n.Suf == FloatSuffixF {
			ty = FloatType(PrecFloat)
		} else if n.Suf == FloatSuffixL {
			ty = FloatType(PrecLongDouble)
		}
		n.SetType(ty)
		return ty
	case *CharLit:
		ty := IntType(true, RankChar)
		n.SetType(ty)
		return ty
	case *StringLit:
		ty := ArrayOf(IntType(true, RankChar), len(n.Value))
		n.SetType(ty)
		n.SetLValue(true)
		return ty
	case *Ident:
		sym, ok := s.syms.LookupOrdinary(n.Name)
		if !ok {
			s.errf(Undeclared, n.Loc(), "use of undeclared identifier '%s'", n.Name)
			ty := IntType(true, RankInt)
			n.SetType(ty)
			return ty
		}
		n.Sym = sym
		n.SetType(sym.Type)
		n.SetLValue(sym.Type.Resolved().Kind != TFunction && sym.Type.Resolved().Kind != TArray)
		return sym.Type
	case *UnaryExpr:
		return s.analyzeUnary(n)
	case *PostfixExpr:
		ty := s.analyzeExpr(n.Operand)
		n.SetType(ty)
		return ty
	case *BinaryExpr:
		return s.analyzeBinary(n)
	case *AssignExpr:
		return s.analyzeAssign(n)
	case *CondExpr:
		s.analyzeExpr(n.Cond)
		thenTy := s.analyzeExpr(n.Then)
		elseTy := s.analyzeExpr(n.Else)
		result := usualArithmeticConversion(thenTy, elseTy)
		if result == nil {
			result = thenTy
		}
		n.SetType(result)
		return result
	case *CallExpr:
		return s.analyzeCall(n)
	case *IndexExpr:
		bt := s.analyzeExpr(n.Base)
		s.analyzeExpr(n.Index)
		var elem *Type
		if bt != nil {
			r := bt.Resolved()
			if r.Kind == TArray || r.Kind == TPointer {
				elem = r.Elem
			}
		}
		if elem == nil {
			s.errf(TypeMismatch, n.Loc(), "subscripted value is not an array or pointer")
			elem = IntType(true, RankInt)
		}
		n.SetType(elem)
		n.SetLValue(true)
		return elem
	case *MemberExpr:
		return s.analyzeMember(n)
	case *SizeofExpr:
		ty := IntType(false, s.sizeTRank())
		n.SetType(ty)
		if n.Operand != nil {
			s.analyzeExpr(n.Operand)
		} else {
			s.resolveType(n.OperandType)
		}
		return ty
	case *CastExpr:
		s.resolveType(n.TargetType)
		s.analyzeExpr(n.Operand)
		n.SetType(n.TargetType)
		return n.TargetType
	case *CommaExpr:
		var last *Type
		for _, sub := range n.Exprs {
			last = s.analyzeExpr(sub)
		}
		n.SetType(last)
		return last
	default:
		return nil
	}
}

func (s *Sema) sizeTRank() IntRank {
	if s.tgt.SizeTWidth >= 64 {
		return RankLong
	}
	return RankInt
}

func intLitType(n *IntLit, tgt *Target) *Type {
	signed := !n.Suffix.Unsigned
	rank := RankInt
	if n.Suffix.LongLong {
		rank = RankLongLong
	} else if n.Suffix.Long {
		rank = RankLong
	}
	// A constant of any base without an l/ll suffix whose value does not fit
	// a signed int becomes long, keeping the signedness a u suffix gave it;
	// unsigned long and long long are never chosen this way.
	if rank == RankInt {
		limit := int64(1) << uint(tgt.IntSize*8-1)
		if n.Value >= uint64(limit) {
			rank = RankLong
		}
	}
	return IntType(signed, rank)
}

func (s *Sema) analyzeUnary(n *UnaryExpr) *Type {
	opTy := s.analyzeExpr(n.Operand)
	var result *Type
	switch n.Op {
	case AMP:
		result = PointerTo(opTy)
	case STAR:
		if opTy != nil {
			r := opTy.Resolved()
			if r.Kind == TPointer || r.Kind == TArray {
				result = r.Elem
			}
		}
		if result == nil {
			s.errf(TypeMismatch, n.Loc(), "indirection requires pointer operand")
			result = IntType(true, RankInt)
		}
		n.SetLValue(true)
	case PLUS, MINUS, TILDE:
		result = opTy
	case BANG:
		result = IntType(true, RankInt)
	case INCR, DECR:
		result = opTy
	default:
		result = opTy
	}
	n.SetType(result)
	return result
}

func (s *Sema) analyzeBinary(n *BinaryExpr) *Type {
	lt := s.analyzeExpr(n.Left)
	rt := s.analyzeExpr(n.Right)
	var result *Type
	switch n.Op {
	case ANDAND, OROR, EQ, NE, LT, GT, LE, GE:
		result = IntType(true, RankInt)
	case PLUS, MINUS:
		// Array operands decay to element-pointer type here too -- spec.md
		// section 4.3's decay invariant applies to every operand position,
		// not just the ones that already read as TPointer.
		if lt != nil && lt.Resolved().Kind == TArray {
			lt = PointerTo(lt.Resolved().Elem)
		}
		if rt != nil && rt.Resolved().Kind == TArray {
			rt = PointerTo(rt.Resolved().Elem)
		}
		if lt != nil && lt.Resolved().Kind == TPointer {
			result = lt
		} else if rt != nil && rt.Resolved().Kind == TPointer {
			result = rt
		} else {
			result = usualArithmeticConversion(lt, rt)
		}
	default:
		result = usualArithmeticConversion(lt, rt)
	}
	if result == nil {
		result = IntType(true, RankInt)
	}
	n.SetType(result)
	return result
}

func (s *Sema) analyzeAssign(n *AssignExpr) *Type {
	lt := s.analyzeExpr(n.Left)
	rt := s.analyzeExpr(n.Right)
	if !n.Left.IsLValue() {
		s.errf(NotAssignable, n.Loc(), "expression is not assignable")
	}
	if lt != nil && rt != nil && !assignable(lt, rt) {
		s.errf(TypeMismatch, n.Loc(), "cannot assign %s to %s", rt, lt)
	}
	n.SetType(lt)
	return lt
}

func (s *Sema) analyzeMember(n *MemberExpr) *Type {
	bt := s.analyzeExpr(n.Base)
	var agg *Type
	if bt != nil {
		r := bt.Resolved()
		if n.Arrow && r.Kind == TPointer {
			agg = r.Elem.Resolved()
		} else if !n.Arrow && r.IsAggregate() {
			agg = r
		}
	}
	if agg == nil {
		s.errf(TypeMismatch, n.Loc(), "member reference on non-aggregate type")
		ty := IntType(true, RankInt)
		n.SetType(ty)
		return ty
	}
	for _, m := range agg.Members {
		if m.Name == n.Field {
			n.Offset = m.ByteOffset
			n.SetType(m.Type)
			n.SetLValue(true)
			return m.Type
		}
	}
	s.errf(TypeMismatch, n.Loc(), "no member named '%s' in %s", n.Field, agg)
	ty := IntType(true, RankInt)
	n.SetType(ty)
	return ty
}

func (s *Sema) analyzeCall(n *CallExpr) *Type {
	calleeTy := s.analyzeExpr(n.Callee)
	var fnTy *Type
	if calleeTy != nil {
		r := calleeTy.Resolved()
		if r.Kind == TFunction {
			fnTy = r
			n.IsIndirect = false
		} else if r.Kind == TPointer && r.Elem.Resolved().Kind == TFunction {
			fnTy = r.Elem.Resolved()
			n.IsIndirect = true
		}
	}
	n.PromotedArgTypes = make([]*Type, len(n.Args))
	for i, a := range n.Args {
		at := s.analyzeExpr(a)
		if fnTy != nil && i >= len(fnTy.Params) && fnTy.Variadic {
			n.PromotedArgTypes[i] = defaultArgPromote(at)
		}
	}
	if fnTy == nil {
		s.errf(TypeMismatch, n.Loc(), "called object is not a function or function pointer")
		ty := IntType(true, RankInt)
		n.SetType(ty)
		return ty
	}
	if !fnTy.Variadic && len(n.Args) != len(fnTy.Params) {
		s.errf(WrongArity, n.Loc(), "expected %d arguments, got %d", len(fnTy.Params), len(n.Args))
	} else if fnTy.Variadic && len(n.Args) < len(fnTy.Params) {
		s.errf(WrongArity, n.Loc(), "expected at least %d arguments, got %d", len(fnTy.Params), len(n.Args))
	}
	n.SetType(fnTy.Return)
	return fnTy.Return
}

// defaultArgPromote implements the default argument promotions of spec.md
// section 4.3 applied to each variadic-position call argument: integer
// ranks below int promote to int, and float promotes to double.
func defaultArgPromote(t *Type) *Type {
	if t == nil {
		return nil
	}
	r := t.Resolved()
	switch {
	case r.Kind == TInteger && r.Rank < RankInt:
		return IntType(true, RankInt)
	case r.Kind == TFloat && r.Precision == PrecFloat:
		return FloatType(PrecDouble)
	default:
		return t
	}
}

// usualArithmeticConversion implements spec.md section 4.3's ordering: any
// floating operand wins over integer, ranked long double > double > float;
// otherwise, both operands undergo integer promotion and the wider rank
// wins, with same-rank ties resolved in favor of unsigned.
func usualArithmeticConversion(a, b *Type) *Type {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	ar, br := a.Resolved(), b.Resolved()
	if ar.Kind == TFloat || br.Kind == TFloat {
		prec := PrecFloat
		if ar.Kind == TFloat && ar.Precision > prec {
			prec = ar.Precision
		}
		if br.Kind == TFloat && br.Precision > prec {
			prec = br.Precision
		}
		return FloatType(prec)
	}
	if !ar.IsInteger() || !br.IsInteger() {
		return a
	}
	ap, bp := integerPromote(ar), integerPromote(br)
	if ap.Rank == bp.Rank {
		return IntType(ap.Signed && bp.Signed, ap.Rank)
	}
	if ap.Rank > bp.Rank {
		if !ap.Signed {
			return IntType(false, ap.Rank)
		}
		if bp.Signed {
			return IntType(true, ap.Rank)
		}
		return IntType(false, ap.Rank)
	}
	if !bp.Signed {
		return IntType(false, bp.Rank)
	}
	if ap.Signed {
		return IntType(true, bp.Rank)
	}
	return IntType(false, bp.Rank)
}

func integerPromote(t *Type) *Type {
	if t.Kind == TEnum {
		return IntType(true, RankInt)
	}
	if t.Rank < RankInt {
		return IntType(true, RankInt)
	}
	return t
}

// assignable is a permissive version of C89 assignment compatibility:
// any arithmetic type to any arithmetic type, compatible pointers (with a
// void* escape hatch on either side), any integer or array to a pointer,
// and otherwise Compatible types.
func assignable(dst, src *Type) bool {
	if dst == nil || src == nil {
		return true
	}
	dr, sr := dst.Resolved(), src.Resolved()
	if dr.IsArithmetic() && sr.IsArithmetic() {
		return true
	}
	if dr.Kind == TPointer && sr.Kind == TPointer {
		if dr.Elem.Resolved().Kind == TVoid || sr.Elem.Resolved().Kind == TVoid {
			return true
		}
		return Compatible(dr.Elem, sr.Elem)
	}
	if dr.Kind == TPointer && sr.Kind == TInteger {
		return true
	}
	if dr.Kind == TPointer && sr.Kind == TArray {
		return true
	}
	return Compatible(dr, sr)
}
