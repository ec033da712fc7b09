package cc89

import "fmt"

// Parser consumes the token stream produced by Lex and builds an untyped
// AST (spec.md section 4.2). It follows the teacher's Parser shape
// (pkg/compiler/parser.go: a flat token slice, a cursor, and a
// precedence-climbing expression ladder) generalized to the full C89
// declarator grammar, typedef-name disambiguation, and bounded error
// recovery.
//
// Grammar (informal, C89 subset actually implemented):
//
//	translation-unit   = external-decl*
//	external-decl      = decl-specifiers declarator ( "{" block-item* "}"
//	                                                 | ("=" initializer)? ("," init-declarator)* ";" )
//	                    | decl-specifiers ";"
//	statement          = block | if | while | do-while | for | switch
//	                    | labeled | goto | continue | break | return
//	                    | expr-stmt | null-stmt | decl-stmt
//	expression         = assignment ("," assignment)*
//	assignment         = conditional (assign-op assignment)?
//	conditional        = logical-or ("?" expression ":" conditional)?
//	... standard C89 precedence down to postfix/primary, with cast and
//	    sizeof interleaved at the unary level.
type Parser struct {
	toks  []Token
	pos   int
	diags *DiagSink

	// typedefScopes and tagScopes give the parser the scope-aware view of
	// "is this identifier currently a typedef name, and if so what Type
	// does it name" and "what Type does this tag currently name" that
	// spec.md section 4.2 describes as the parser's principal
	// context-sensitive mechanism, and section 9 relies on for
	// self-referential struct pointers (the same *Type is handed back on
	// every reference to a tag until it is completed).
	typedefScopes []map[string]*Type
	tagScopes     []map[string]*Type
}

func NewParser(toks []Token) *Parser {
	p := &Parser{toks: toks, diags: &DiagSink{}}
	p.pushScope()
	return p
}

func (p *Parser) pushScope() {
	p.typedefScopes = append(p.typedefScopes, make(map[string]*Type))
	p.tagScopes = append(p.tagScopes, make(map[string]*Type))
}

func (p *Parser) popScope() {
	p.typedefScopes = p.typedefScopes[:len(p.typedefScopes)-1]
	p.tagScopes = p.tagScopes[:len(p.tagScopes)-1]
}

func (p *Parser) declareTypedef(name string, t *Type) {
	p.typedefScopes[len(p.typedefScopes)-1][name] = t
}

func (p *Parser) isTypedefName(name string) bool {
	_, ok := p.lookupTypedef(name)
	return ok
}

func (p *Parser) lookupTypedef(name string) (*Type, bool) {
	for i := len(p.typedefScopes) - 1; i >= 0; i-- {
		if t, ok := p.typedefScopes[i][name]; ok {
			return t, true
		}
	}
	return nil, false
}

// lookupTag returns the Type for a previously-seen tag, walking outward.
func (p *Parser) lookupTag(name string) (*Type, bool) {
	for i := len(p.tagScopes) - 1; i >= 0; i-- {
		if t, ok := p.tagScopes[i][name]; ok {
			return t, true
		}
	}
	return nil, false
}

// declareTagHere installs t under name in the *current* scope only, which
// is what a fresh "struct Foo { ... }" or a forward reference introduces.
func (p *Parser) declareTagHere(name string, t *Type) {
	p.tagScopes[len(p.tagScopes)-1][name] = t
}

// -- token cursor -----------------------------------------------------------

func (p *Parser) peek() Token { return p.toks[p.pos] }

func (p *Parser) peekAt(n int) Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *Parser) advance() Token {
	t := p.toks[p.pos]
	if t.Kind != EOF {
		p.pos++
	}
	return t
}

func (p *Parser) check(k TokenKind) bool { return p.peek().Kind == k }

func (p *Parser) checkAt(n int, k TokenKind) bool { return p.peekAt(n).Kind == k }

func (p *Parser) accept(k TokenKind) (Token, bool) {
	if p.check(k) {
		return p.advance(), true
	}
	return Token{}, false
}

func (p *Parser) expect(k TokenKind) (Token, error) {
	if p.check(k) {
		return p.advance(), nil
	}
	tok := p.peek()
	return Token{}, &Diagnostic{
		Kind: UnexpectedToken, Severity: SevError, Pos: tok.Pos,
		Message: fmt.Sprintf("expected %s, got %s %q", k, tok.Kind, tok.Lexeme),
	}
}

// syncTo discards tokens up to and including the next top-level ';' or the
// '}' closing a brace group it entered, and stops before an unbalanced '}',
// so parsing can resume after a syntax error (spec.md section 4.2
// error recovery: "resynchronizes at the next ';' or block boundary").
func (p *Parser) syncTo() {
	depth := 0
	for {
		t := p.peek()
		if t.Kind == EOF {
			return
		}
		if t.Kind == LBRACE {
			depth++
			p.advance()
			continue
		}
		if t.Kind == RBRACE {
			if depth == 0 {
				return
			}
			depth--
			p.advance()
			if depth == 0 {
				return
			}
			continue
		}
		if t.Kind == SEMI && depth == 0 {
			p.advance()
			return
		}
		p.advance()
	}
}

func (p *Parser) recordAndSync(err error) {
	if d, ok := err.(*Diagnostic); ok {
		p.diags.diags = append(p.diags.diags, d)
	} else {
		p.diags.Errorf(Internal, p.peek().Pos, "%v", err)
	}
	p.syncTo()
}

// -- top level ----------------------------------------------------------

// Parse consumes toks and yields a translation-unit AST plus any
// diagnostics accumulated along the way (spec.md section 4.2).
func Parse(toks []Token) (*TranslationUnit, *DiagSink) {
	p := NewParser(toks)
	tu := &TranslationUnit{}
	for !p.check(EOF) {
		if p.diags.Count() >= MaxParseDiagnostics {
			break
		}
		decls, err := p.parseExternalDecl()
		if err != nil {
			p.recordAndSync(err)
			continue
		}
		tu.Decls = append(tu.Decls, decls...)
	}
	return tu, p.diags
}

// declSpecs is the parsed decl-specifiers: a base Type plus a storage class.
type declSpecs struct {
	base    *Type
	storage StorageClass
	pos     Pos
}

func (p *Parser) parseExternalDecl() ([]*Decl, error) {
	specs, err := p.parseDeclSpecs()
	if err != nil {
		return nil, err
	}
	if _, ok := p.accept(SEMI); ok {
		// Tag-only declaration, e.g. "struct Foo { int x; };" or "enum E { A };".
		return nil, nil
	}

	name, ty, paramNames, err := p.parseDeclarator(specs.base)
	if err != nil {
		return nil, err
	}
	if specs.storage == SCTypedef {
		p.declareTypedef(name, ty)
	}

	if ty.Kind == TFunction && p.check(LBRACE) {
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return []*Decl{{Name: name, Type: ty, Storage: specs.storage, IsFuncDef: true, Body: body, ParamNames: paramNames, Pos: specs.pos}}, nil
	}

	var decls []*Decl
	first, err := p.finishDeclarator(name, ty, specs)
	if err != nil {
		return nil, err
	}
	decls = append(decls, first)

	for {
		if _, ok := p.accept(COMMA); !ok {
			break
		}
		name, ty, _, err := p.parseDeclarator(specs.base)
		if err != nil {
			return nil, err
		}
		if specs.storage == SCTypedef {
			p.declareTypedef(name, ty)
		}
		d, err := p.finishDeclarator(name, ty, specs)
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	if _, err := p.expect(SEMI); err != nil {
		return nil, err
	}
	return decls, nil
}

func (p *Parser) finishDeclarator(name string, ty *Type, specs declSpecs) (*Decl, error) {
	d := &Decl{Name: name, Type: ty, Storage: specs.storage, Pos: specs.pos}
	if _, ok := p.accept(ASSIGN); ok {
		if specs.storage == SCTypedef {
			return nil, &Diagnostic{Kind: MalformedDeclarator, Severity: SevError, Pos: specs.pos, Message: "typedef cannot have an initializer"}
		}
		init, err := p.parseInitializer()
		if err != nil {
			return nil, err
		}
		d.Init = init
	}
	return d, nil
}

// -- declaration specifiers ----------------------------------------------

func isStorageClassTok(k TokenKind) bool {
	switch k {
	case AUTO, REGISTER, STATIC, EXTERN, TYPEDEF:
		return true
	}
	return false
}

func storageClassOf(k TokenKind) StorageClass {
	switch k {
	case AUTO:
		return SCAuto
	case REGISTER:
		return SCRegister
	case STATIC:
		return SCStatic
	case EXTERN:
		return SCExtern
	case TYPEDEF:
		return SCTypedef
	default:
		return SCNone
	}
}

// isTypeSpecifierStart reports whether the current token can begin a
// type-specifier (used both for decl-specifiers and for the cast/sizeof
// type-name lookahead).
func (p *Parser) isTypeSpecifierStart() bool {
	switch p.peek().Kind {
	case VOID, CHAR, SHORT, INT, LONG, FLOAT, DOUBLE, SIGNED, UNSIGNED, STRUCT, UNION, ENUM, CONST, VOLATILE:
		return true
	case IDENT:
		return p.isTypedefName(p.peek().Lexeme)
	}
	return false
}

// parseDeclSpecs parses an unordered mix of storage-class-specifiers,
// type-specifiers and type-qualifiers, in the style C89 permits, and folds
// them into a single base Type plus storage class.
func (p *Parser) parseDeclSpecs() (declSpecs, error) {
	pos := p.peek().Pos
	storage := SCNone
	sawStorage := false

	sawVoid, sawChar, sawFloat, sawDouble := false, false, false, false
	shortCount, longCount, intCount := 0, 0, 0
	signedCount, unsignedCount := 0, 0
	var aggType *Type
	sawAgg := false
	isConst, isVolatile := false, false

	for {
		tok := p.peek()
		switch {
		case isStorageClassTok(tok.Kind):
			if sawStorage {
				return declSpecs{}, &Diagnostic{Kind: RedundantSpecifier, Severity: SevError, Pos: tok.Pos, Message: "multiple storage-class specifiers"}
			}
			sawStorage = true
			storage = storageClassOf(tok.Kind)
			p.advance()
		case tok.Kind == CONST:
			isConst = true
			p.advance()
		case tok.Kind == VOLATILE:
			isVolatile = true
			p.advance()
		case tok.Kind == VOID:
			sawVoid = true
			p.advance()
		case tok.Kind == CHAR:
			sawChar = true
			p.advance()
		case tok.Kind == SHORT:
			shortCount++
			p.advance()
		case tok.Kind == INT:
			intCount++
			p.advance()
		case tok.Kind == LONG:
			longCount++
			p.advance()
		case tok.Kind == FLOAT:
			sawFloat = true
			p.advance()
		case tok.Kind == DOUBLE:
			sawDouble = true
			p.advance()
		case tok.Kind == SIGNED:
			signedCount++
			p.advance()
		case tok.Kind == UNSIGNED:
			unsignedCount++
			p.advance()
		case tok.Kind == STRUCT || tok.Kind == UNION:
			t, err := p.parseStructOrUnionSpecifier()
			if err != nil {
				return declSpecs{}, err
			}
			aggType, sawAgg = t, true
		case tok.Kind == ENUM:
			t, err := p.parseEnumSpecifier()
			if err != nil {
				return declSpecs{}, err
			}
			aggType, sawAgg = t, true
		case tok.Kind == IDENT && p.isTypedefName(tok.Lexeme) && !sawAgg && !sawVoid && !sawChar && !sawFloat && !sawDouble && shortCount == 0 && longCount == 0 && intCount == 0 && signedCount == 0 && unsignedCount == 0:
			underlying, _ := p.lookupTypedef(tok.Lexeme)
			aggType = &Type{Kind: TTypedef, TypedefName: tok.Lexeme, Underlying: underlying}
			sawAgg = true
			p.advance()
		default:
			goto done
		}
	}
done:
	base, err := combineTypeSpecifiers(pos, sawAgg, aggType, sawVoid, sawChar, sawFloat, sawDouble, shortCount, longCount, intCount, signedCount, unsignedCount)
	if err != nil {
		return declSpecs{}, err
	}
	base.IsConst = isConst
	base.IsVolatile = isVolatile
	return declSpecs{base: base, storage: storage, pos: pos}, nil
}

func combineTypeSpecifiers(pos Pos, sawAgg bool, aggType *Type, sawVoid, sawChar, sawFloat, sawDouble bool, shortCount, longCount, intCount, signedCount, unsignedCount int) (*Type, error) {
	n := 0
	if sawAgg {
		n++
	}
	if sawVoid {
		n++
	}
	if sawChar {
		n++
	}
	if sawFloat {
		n++
	}
	if sawDouble {
		n++
	}
	// "long double" and "signed/unsigned char" combine with the float/char
	// specifier instead of conflicting with it.
	if shortCount > 0 || intCount > 0 || (longCount > 0 && !sawDouble) || ((signedCount > 0 || unsignedCount > 0) && !sawChar) {
		n++
	}
	if n == 0 {
		// C89 permits an implicit int; keep it but this is worth a note in
		// diagnostics-heavy tooling. We accept it silently, matching the
		// permissive stance most C89 front ends take for legacy code.
		return IntType(true, RankInt), nil
	}
	if n > 1 {
		return nil, &Diagnostic{Kind: TypeMismatch, Severity: SevError, Pos: pos, Message: "conflicting type specifiers in declaration"}
	}
	if sawAgg {
		return aggType, nil
	}
	if sawVoid {
		return VoidType(), nil
	}
	if sawChar {
		signed := true
		if unsignedCount > 0 {
			signed = false
		}
		return IntType(signed, RankChar), nil
	}
	if sawFloat {
		return FloatType(PrecFloat), nil
	}
	if sawDouble {
		if longCount > 0 {
			return FloatType(PrecLongDouble), nil
		}
		return FloatType(PrecDouble), nil
	}
	signed := unsignedCount == 0
	rank := RankInt
	switch {
	case shortCount > 0:
		rank = RankShort
	case longCount >= 2:
		rank = RankLongLong
	case longCount == 1:
		rank = RankLong
	}
	return IntType(signed, rank), nil
}

// -- struct/union/enum specifiers -----------------------------------------

func (p *Parser) parseStructOrUnionSpecifier() (*Type, error) {
	kwTok := p.advance() // STRUCT or UNION
	kind := TStruct
	if kwTok.Kind == UNION {
		kind = TUnion
	}

	tag := ""
	if id, ok := p.accept(IDENT); ok {
		tag = id.Lexeme
	}

	if !p.check(LBRACE) {
		if tag == "" {
			return nil, &Diagnostic{Kind: MalformedDeclarator, Severity: SevError, Pos: kwTok.Pos, Message: "expected tag or '{' after struct/union"}
		}
		if t, ok := p.lookupTag(tag); ok {
			return t, nil
		}
		t := &Type{Kind: kind, Tag: tag}
		p.declareTagHere(tag, t)
		return t, nil
	}

	var t *Type
	if tag != "" {
		if existing, ok := p.lookupTag(tag); ok && existing.Kind == kind && !existing.Complete {
			t = existing
		}
	}
	if t == nil {
		t = &Type{Kind: kind, Tag: tag}
		if tag != "" {
			p.declareTagHere(tag, t)
		}
	}

	p.advance() // {
	var members []Member
	for !p.check(RBRACE) {
		fieldSpecs, err := p.parseSpecifierQualifierList()
		if err != nil {
			return nil, err
		}
		for {
			name, fty, _, err := p.parseDeclarator(fieldSpecs)
			if err != nil {
				return nil, err
			}
			if p.check(COLON) {
				return nil, &Diagnostic{Kind: MalformedDeclarator, Severity: SevError, Pos: p.peek().Pos, Message: "bit-field declarations are not supported"}
			}
			members = append(members, Member{Name: name, Type: fty})
			if _, ok := p.accept(COMMA); !ok {
				break
			}
		}
		if _, err := p.expect(SEMI); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(RBRACE); err != nil {
		return nil, err
	}
	t.Members = members
	// Layout (byte offsets, size, alignment) is computed by sema once the
	// active Target is known -- see sema.go's resolveType.
	return t, nil
}

// parseSpecifierQualifierList is parseDeclSpecs restricted to type
// specifiers/qualifiers, used for struct members and type-names, where a
// storage-class specifier is illegal.
func (p *Parser) parseSpecifierQualifierList() (*Type, error) {
	specs, err := p.parseDeclSpecs()
	if err != nil {
		return nil, err
	}
	if specs.storage != SCNone {
		return nil, &Diagnostic{Kind: RedundantSpecifier, Severity: SevError, Pos: specs.pos, Message: "storage-class specifier not allowed here"}
	}
	return specs.base, nil
}

func (p *Parser) parseEnumSpecifier() (*Type, error) {
	kwTok := p.advance() // ENUM
	tag := ""
	if id, ok := p.accept(IDENT); ok {
		tag = id.Lexeme
	}

	if !p.check(LBRACE) {
		if tag == "" {
			return nil, &Diagnostic{Kind: MalformedDeclarator, Severity: SevError, Pos: kwTok.Pos, Message: "expected tag or '{' after enum"}
		}
		if t, ok := p.lookupTag(tag); ok {
			return t, nil
		}
		t := &Type{Kind: TEnum, Tag: tag}
		p.declareTagHere(tag, t)
		return t, nil
	}

	t := &Type{Kind: TEnum, Tag: tag}
	if tag != "" {
		p.declareTagHere(tag, t)
	}
	p.advance() // {
	for !p.check(RBRACE) {
		nameTok, err := p.expect(IDENT)
		if err != nil {
			return nil, err
		}
		var valExpr Expr
		if _, ok := p.accept(ASSIGN); ok {
			valExpr, err = p.parseConditional()
			if err != nil {
				return nil, err
			}
		}
		t.Consts = append(t.Consts, EnumConst{Name: nameTok.Lexeme})
		t.EnumExprs = append(t.EnumExprs, valExpr)
		if _, ok := p.accept(COMMA); !ok {
			break
		}
	}
	if _, err := p.expect(RBRACE); err != nil {
		return nil, err
	}
	return t, nil
}

// -- declarators ----------------------------------------------------------

// parseDeclarator implements the pointer/direct-declarator/type-suffix
// algorithm described in spec.md section 4.2 ("The parser produces a
// 'declarator tree' and ... reconstructs the full type by walking
// inside-out"), using the classic placeholder trick: a parenthesized
// declarator's inner name is parsed against an empty placeholder Type,
// which is then overwritten in place once the outer suffix is known, so
// e.g. "int (*p)[10]" and "int *p[10]" build different types even though
// both mention one '*' and one '[10]'.
func (p *Parser) parseDeclarator(base *Type) (name string, ty *Type, paramNames []string, err error) {
	for {
		if _, ok := p.accept(STAR); !ok {
			break
		}
		for p.check(CONST) || p.check(VOLATILE) {
			p.advance()
		}
		base = PointerTo(base)
	}

	if _, ok := p.accept(LPAREN); ok {
		placeholder := &Type{}
		innerName, innerTy, innerParams, err := p.parseDeclarator(placeholder)
		if err != nil {
			return "", nil, nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return "", nil, nil, err
		}
		suffixed, params, err := p.parseTypeSuffix(base)
		if err != nil {
			return "", nil, nil, err
		}
		*placeholder = *suffixed
		if len(params) > 0 {
			paramNames = params
		} else {
			paramNames = innerParams
		}
		return innerName, innerTy, paramNames, nil
	}

	if id, ok := p.accept(IDENT); ok {
		name = id.Lexeme
	}
	suffixed, params, err := p.parseTypeSuffix(base)
	if err != nil {
		return "", nil, nil, err
	}
	return name, suffixed, params, nil
}

// parseTypeSuffix parses zero or more trailing "[n]" / "(params)" suffixes
// and wraps base accordingly, recursing first so that "int a[3][4]" builds
// array-of-3-array-of-4-int, not the reverse.
func (p *Parser) parseTypeSuffix(base *Type) (*Type, []string, error) {
	if _, ok := p.accept(LBRACKET); ok {
		var lenExpr Expr
		literalLen := -1
		if !p.check(RBRACKET) {
			e, err := p.parseConditional()
			if err != nil {
				return nil, nil, err
			}
			if lit, ok := e.(*IntLit); ok {
				literalLen = int(lit.Value)
			} else {
				lenExpr = e // resolved later by sema's constant folder
			}
		}
		if _, err := p.expect(RBRACKET); err != nil {
			return nil, nil, err
		}
		inner, _, err := p.parseTypeSuffix(base)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case literalLen >= 0:
			return ArrayOf(inner, literalLen), nil, nil
		case lenExpr != nil:
			return &Type{Kind: TArray, Elem: inner, HasLen: true, LenExpr: lenExpr}, nil, nil
		default:
			return IncompleteArrayOf(inner), nil, nil
		}
	}

	if _, ok := p.accept(LPAREN); ok {
		if v, ok := p.accept(VOID); ok {
			if !p.check(STAR) {
				if _, err := p.expect(RPAREN); err != nil {
					return nil, nil, err
				}
				return FunctionType(base, nil, false), nil, nil
			}
			p.pos-- // un-consume VOID; it starts a real parameter type
			_ = v
		}
		params, names, variadic, err := p.parseParamList()
		if err != nil {
			return nil, nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, nil, err
		}
		return FunctionType(base, params, variadic), names, nil
	}

	return base, nil, nil
}

func (p *Parser) parseParamList() ([]Param, []string, bool, error) {
	var params []Param
	var names []string
	if p.check(RPAREN) {
		return nil, nil, false, nil
	}
	for {
		if _, ok := p.accept(ELLIPSIS); ok {
			return params, names, true, nil
		}
		specs, err := p.parseDeclSpecs()
		if err != nil {
			return nil, nil, false, err
		}
		name, ty, _, err := p.parseDeclarator(specs.base)
		if err != nil {
			return nil, nil, false, err
		}
		// A function parameter of array or function type decays to a
		// pointer, per standard C89 parameter-adjustment rules.
		if ty.Kind == TArray {
			ty = PointerTo(ty.Elem)
		} else if ty.Kind == TFunction {
			ty = PointerTo(ty)
		}
		params = append(params, Param{Name: name, Type: ty})
		names = append(names, name)
		if _, ok := p.accept(COMMA); !ok {
			break
		}
	}
	return params, names, false, nil
}

// -- initializers -----------------------------------------------------------

// parseInitializer implements spec.md section 4.2's fix: elements inside a
// brace-list use assignment-expression semantics (so commas separate
// elements), never comma-expression semantics.
func (p *Parser) parseInitializer() (Init, error) {
	if p.check(LBRACE) {
		return p.parseInitList()
	}
	e, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	return WrapInit(e), nil
}

func (p *Parser) parseInitList() (*InitList, error) {
	start := p.peek().Pos
	if _, err := p.expect(LBRACE); err != nil {
		return nil, err
	}
	list := &InitList{Pos: start}
	for !p.check(RBRACE) {
		el, err := p.parseInitializer()
		if err != nil {
			return nil, err
		}
		list.Elements = append(list.Elements, el)
		if _, ok := p.accept(COMMA); !ok {
			break
		}
	}
	if _, err := p.expect(RBRACE); err != nil {
		return nil, err
	}
	return list, nil
}

// -- statements -------------------------------------------------------------

func (p *Parser) parseBlock() (*BlockStmt, error) {
	start := p.peek().Pos
	if _, err := p.expect(LBRACE); err != nil {
		return nil, err
	}
	p.pushScope()
	defer p.popScope()

	blk := &BlockStmt{stmtBase: stmtBase{Pos: start}}
	for !p.check(RBRACE) && !p.check(EOF) {
		if p.diags.Count() >= MaxParseDiagnostics {
			break
		}
		st, err := p.parseBlockItem()
		if err != nil {
			p.recordAndSync(err)
			continue
		}
		blk.Stmts = append(blk.Stmts, st)
	}
	if _, err := p.expect(RBRACE); err != nil {
		return nil, err
	}
	return blk, nil
}

func (p *Parser) parseBlockItem() (Stmt, error) {
	if p.isDeclStart() {
		pos := p.peek().Pos
		specs, err := p.parseDeclSpecs()
		if err != nil {
			return nil, err
		}
		if _, ok := p.accept(SEMI); ok {
			return &NullStmt{stmtBase{Pos: pos}}, nil
		}
		name, ty, _, err := p.parseDeclarator(specs.base)
		if err != nil {
			return nil, err
		}
		if specs.storage == SCTypedef {
			p.declareTypedef(name, ty)
		}
		d, err := p.finishDeclarator(name, ty, specs)
		if err != nil {
			return nil, err
		}
		decls := []*Decl{d}
		for {
			if _, ok := p.accept(COMMA); !ok {
				break
			}
			name, ty, _, err := p.parseDeclarator(specs.base)
			if err != nil {
				return nil, err
			}
			if specs.storage == SCTypedef {
				p.declareTypedef(name, ty)
			}
			d, err := p.finishDeclarator(name, ty, specs)
			if err != nil {
				return nil, err
			}
			decls = append(decls, d)
		}
		if _, err := p.expect(SEMI); err != nil {
			return nil, err
		}
		if len(decls) == 1 {
			return &DeclStmt{stmtBase{Pos: pos}, decls[0]}, nil
		}
		blk := &BlockStmt{stmtBase: stmtBase{Pos: pos}}
		for _, d := range decls {
			blk.Stmts = append(blk.Stmts, &DeclStmt{stmtBase{Pos: pos}, d})
		}
		return blk, nil
	}
	return p.parseStatement()
}

func (p *Parser) isDeclStart() bool {
	if isStorageClassTok(p.peek().Kind) {
		return true
	}
	return p.isTypeSpecifierStart()
}

func (p *Parser) parseStatement() (Stmt, error) {
	tok := p.peek()
	switch tok.Kind {
	case LBRACE:
		return p.parseBlock()
	case SEMI:
		p.advance()
		return &NullStmt{stmtBase{Pos: tok.Pos}}, nil
	case IF:
		return p.parseIf()
	case WHILE:
		return p.parseWhile()
	case DO:
		return p.parseDoWhile()
	case FOR:
		return p.parseFor()
	case SWITCH:
		return p.parseSwitch()
	case CASE:
		return p.parseCaseLabel()
	case DEFAULT:
		return p.parseDefaultLabel()
	case GOTO:
		return p.parseGoto()
	case CONTINUE:
		p.advance()
		if _, err := p.expect(SEMI); err != nil {
			return nil, err
		}
		return &ContinueStmt{stmtBase{Pos: tok.Pos}}, nil
	case BREAK:
		p.advance()
		if _, err := p.expect(SEMI); err != nil {
			return nil, err
		}
		return &BreakStmt{stmtBase{Pos: tok.Pos}}, nil
	case RETURN:
		return p.parseReturn()
	case IDENT:
		if p.peekAt(1).Kind == COLON {
			return p.parseIdentLabel()
		}
	}
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMI); err != nil {
		return nil, err
	}
	return &ExprStmt{stmtBase{Pos: tok.Pos}, e}, nil
}

func (p *Parser) parseIf() (Stmt, error) {
	tok := p.advance()
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	var elseStmt Stmt
	if _, ok := p.accept(ELSE); ok {
		elseStmt, err = p.parseStatement()
		if err != nil {
			return nil, err
		}
	}
	return &IfStmt{stmtBase{Pos: tok.Pos}, cond, then, elseStmt}, nil
}

func (p *Parser) parseWhile() (Stmt, error) {
	tok := p.advance()
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &WhileStmt{stmtBase{Pos: tok.Pos}, cond, body}, nil
}

func (p *Parser) parseDoWhile() (Stmt, error) {
	tok := p.advance()
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(WHILE); err != nil {
		return nil, err
	}
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMI); err != nil {
		return nil, err
	}
	return &DoWhileStmt{stmtBase{Pos: tok.Pos}, body, cond}, nil
}

func (p *Parser) parseFor() (Stmt, error) {
	tok := p.advance()
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	p.pushScope()
	defer p.popScope()

	var initStmt Stmt
	if !p.check(SEMI) {
		item, err := p.parseBlockItem()
		if err != nil {
			return nil, err
		}
		initStmt = item
	} else {
		p.advance()
	}
	// parseBlockItem already consumed the trailing ';' when it parsed a
	// declaration or expression statement; nothing further to expect here.

	var cond Expr
	if !p.check(SEMI) {
		var err error
		cond, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(SEMI); err != nil {
		return nil, err
	}

	var post Expr
	if !p.check(RPAREN) {
		var err error
		post, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ForStmt{stmtBase{Pos: tok.Pos}, initStmt, cond, post, body}, nil
}

func (p *Parser) parseSwitch() (Stmt, error) {
	tok := p.advance()
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	tag, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &SwitchStmt{stmtBase{Pos: tok.Pos}, tag, body}, nil
}

func (p *Parser) parseCaseLabel() (Stmt, error) {
	tok := p.advance()
	val, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COLON); err != nil {
		return nil, err
	}
	inner, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &LabeledStmt{stmtBase{Pos: tok.Pos}, LabelCase, "", val, 0, inner}, nil
}

func (p *Parser) parseDefaultLabel() (Stmt, error) {
	tok := p.advance()
	if _, err := p.expect(COLON); err != nil {
		return nil, err
	}
	inner, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &LabeledStmt{stmtBase{Pos: tok.Pos}, LabelDefault, "", nil, 0, inner}, nil
}

func (p *Parser) parseIdentLabel() (Stmt, error) {
	tok := p.advance()
	p.advance() // ':'
	inner, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &LabeledStmt{stmtBase{Pos: tok.Pos}, LabelIdent, tok.Lexeme, nil, 0, inner}, nil
}

func (p *Parser) parseGoto() (Stmt, error) {
	tok := p.advance()
	id, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMI); err != nil {
		return nil, err
	}
	return &GotoStmt{stmtBase{Pos: tok.Pos}, id.Lexeme}, nil
}

func (p *Parser) parseReturn() (Stmt, error) {
	tok := p.advance()
	if _, ok := p.accept(SEMI); ok {
		return &ReturnStmt{stmtBase{Pos: tok.Pos}, nil}, nil
	}
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMI); err != nil {
		return nil, err
	}
	return &ReturnStmt{stmtBase{Pos: tok.Pos}, e}, nil
}

// -- expressions ------------------------------------------------------------

func (p *Parser) parseExpression() (Expr, error) {
	first, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	if !p.check(COMMA) {
		return first, nil
	}
	exprs := []Expr{first}
	for {
		if _, ok := p.accept(COMMA); !ok {
			break
		}
		e, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return &CommaExpr{exprBase: exprBase{Pos: first.Loc()}, Exprs: exprs}, nil
}

func isAssignOp(k TokenKind) bool {
	switch k {
	case ASSIGN, MUL_ASN, DIV_ASN, MOD_ASN, ADD_ASN, SUB_ASN, SHL_ASN, SHR_ASN, AND_ASN, XOR_ASN, OR_ASN:
		return true
	}
	return false
}

func (p *Parser) parseAssignment() (Expr, error) {
	left, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	if isAssignOp(p.peek().Kind) {
		op := p.advance()
		right, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		return &AssignExpr{exprBase: exprBase{Pos: left.Loc()}, Op: op.Kind, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parseConditional() (Expr, error) {
	cond, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if _, ok := p.accept(QUESTION); ok {
		then, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(COLON); err != nil {
			return nil, err
		}
		els, err := p.parseConditional()
		if err != nil {
			return nil, err
		}
		return &CondExpr{exprBase: exprBase{Pos: cond.Loc()}, Cond: cond, Then: then, Else: els}, nil
	}
	return cond, nil
}

// binOpPrec implements the standard C89 precedence ladder as one table
// instead of one function per level, generalizing the teacher's
// parseLogicalOr/.../parseMultiplicative chain in pkg/compiler/parser.go.
var binOpPrec = map[TokenKind]int{
	OROR:    1,
	ANDAND:  2,
	PIPE:    3,
	CARET:   4,
	AMP:     5,
	EQ:      6,
	NE:      6,
	LT:      7,
	GT:      7,
	LE:      7,
	GE:      7,
	SHL:     8,
	SHR:     8,
	PLUS:    9,
	MINUS:   9,
	STAR:    10,
	SLASH:   10,
	PERCENT: 10,
}

func (p *Parser) parseBinary(minPrec int) (Expr, error) {
	left, err := p.parseCast()
	if err != nil {
		return nil, err
	}
	for {
		prec, ok := binOpPrec[p.peek().Kind]
		if !ok || prec < minPrec {
			return left, nil
		}
		op := p.advance()
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		if op.Kind == ANDAND || op.Kind == OROR {
			left = &BinaryExpr{exprBase: exprBase{Pos: left.Loc()}, Op: op.Kind, Left: left, Right: right}
		} else {
			left = &BinaryExpr{exprBase: exprBase{Pos: left.Loc()}, Op: op.Kind, Left: left, Right: right}
		}
	}
}

// parseCast implements "( type-name ) cast-expression | unary-expression",
// disambiguated by whether a parenthesis is immediately followed by
// something that can start a type-name (spec.md section 4.2).
func (p *Parser) parseCast() (Expr, error) {
	if p.check(LPAREN) && p.startsTypeNameAt(1) {
		tok := p.advance() // (
		ty, err := p.parseTypeName()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		operand, err := p.parseCast()
		if err != nil {
			return nil, err
		}
		return &CastExpr{exprBase: exprBase{Pos: tok.Pos}, TargetType: ty, Operand: operand}, nil
	}
	return p.parseUnary()
}

func (p *Parser) startsTypeNameAt(offset int) bool {
	tok := p.peekAt(offset)
	switch tok.Kind {
	case VOID, CHAR, SHORT, INT, LONG, FLOAT, DOUBLE, SIGNED, UNSIGNED, STRUCT, UNION, ENUM, CONST, VOLATILE:
		return true
	case IDENT:
		return p.isTypedefName(tok.Lexeme)
	}
	return false
}

// parseTypeName parses a type-name: specifier-qualifier-list abstract-declarator?.
func (p *Parser) parseTypeName() (*Type, error) {
	base, err := p.parseSpecifierQualifierList()
	if err != nil {
		return nil, err
	}
	return p.parseAbstractDeclarator(base)
}

// parseAbstractDeclarator handles the unnamed-declarator form used in
// type-names (casts, sizeof(type), parameter types without a name).
func (p *Parser) parseAbstractDeclarator(base *Type) (*Type, error) {
	for {
		if _, ok := p.accept(STAR); !ok {
			break
		}
		for p.check(CONST) || p.check(VOLATILE) {
			p.advance()
		}
		base = PointerTo(base)
	}
	if p.check(LPAREN) && !p.startsTypeNameAt(1) && !p.checkAt(1, RPAREN) {
		// A parenthesized abstract declarator, e.g. the "(*)[10]" of
		// "int (*)[10]", uses the same placeholder trick as
		// parseDeclarator: a bare "()" or "(<type-name>" here is instead a
		// function-suffix on the outer type, not a nested grouping.
		p.advance()
		placeholder := &Type{}
		inner, err := p.parseAbstractDeclarator(placeholder)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		suffixed, _, err := p.parseTypeSuffix(base)
		if err != nil {
			return nil, err
		}
		*placeholder = *suffixed
		return inner, nil
	}
	ty, _, err := p.parseTypeSuffix(base)
	return ty, err
}

func isUnaryPrefixOp(k TokenKind) bool {
	switch k {
	case AMP, STAR, PLUS, MINUS, TILDE, BANG, INCR, DECR:
		return true
	}
	return false
}

func (p *Parser) parseUnary() (Expr, error) {
	tok := p.peek()
	switch {
	case tok.Kind == SIZEOF:
		return p.parseSizeof()
	case isUnaryPrefixOp(tok.Kind):
		p.advance()
		operand, err := p.parseCast()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{exprBase: exprBase{Pos: tok.Pos}, Op: tok.Kind, Operand: operand}, nil
	default:
		return p.parsePostfix()
	}
}

// parseSizeof tries the parenthesized type-name form first, falling back to
// a unary-expression operand (spec.md section 4.2).
func (p *Parser) parseSizeof() (Expr, error) {
	tok := p.advance()
	if p.check(LPAREN) && p.startsTypeNameAt(1) {
		p.advance()
		ty, err := p.parseTypeName()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return &SizeofExpr{exprBase: exprBase{Pos: tok.Pos}, OperandType: ty}, nil
	}
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &SizeofExpr{exprBase: exprBase{Pos: tok.Pos}, Operand: operand}, nil
}

func (p *Parser) parsePostfix() (Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Kind {
		case LBRACKET:
			p.advance()
			idx, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RBRACKET); err != nil {
				return nil, err
			}
			e = &IndexExpr{exprBase: exprBase{Pos: e.Loc()}, Base: e, Index: idx}
		case DOT:
			p.advance()
			id, err := p.expect(IDENT)
			if err != nil {
				return nil, err
			}
			e = &MemberExpr{exprBase: exprBase{Pos: e.Loc()}, Base: e, Field: id.Lexeme, Arrow: false}
		case ARROW:
			p.advance()
			id, err := p.expect(IDENT)
			if err != nil {
				return nil, err
			}
			e = &MemberExpr{exprBase: exprBase{Pos: e.Loc()}, Base: e, Field: id.Lexeme, Arrow: true}
		case LPAREN:
			p.advance()
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RPAREN); err != nil {
				return nil, err
			}
			e = &CallExpr{exprBase: exprBase{Pos: e.Loc()}, Callee: e, Args: args}
		case INCR:
			tok := p.advance()
			e = &PostfixExpr{exprBase: exprBase{Pos: e.Loc()}, Op: tok.Kind, Operand: e}
		case DECR:
			tok := p.advance()
			e = &PostfixExpr{exprBase: exprBase{Pos: e.Loc()}, Op: tok.Kind, Operand: e}
		default:
			return e, nil
		}
	}
}

func (p *Parser) parseArgList() ([]Expr, error) {
	var args []Expr
	if p.check(RPAREN) {
		return nil, nil
	}
	for {
		a, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if _, ok := p.accept(COMMA); !ok {
			break
		}
	}
	return args, nil
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.peek()
	switch tok.Kind {
	case INT_CONST:
		p.advance()
		return &IntLit{exprBase: exprBase{Pos: tok.Pos}, Value: tok.IntValue, Suffix: tok.IntSuffix}, nil
	case FLT_CONST:
		p.advance()
		return &FloatLit{exprBase: exprBase{Pos: tok.Pos}, Bits: tok.FloatValue, Suf: tok.FloatSuf}, nil
	case CHR_CONST:
		p.advance()
		return &CharLit{exprBase: exprBase{Pos: tok.Pos}, Value: tok.CharValue}, nil
	case STR_LIT:
		p.advance()
		return &StringLit{exprBase: exprBase{Pos: tok.Pos}, Value: tok.StrValue}, nil
	case IDENT:
		p.advance()
		return &Ident{exprBase: exprBase{Pos: tok.Pos}, Name: tok.Lexeme}, nil
	case LPAREN:
		p.advance()
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, &Diagnostic{Kind: UnexpectedToken, Severity: SevError, Pos: tok.Pos, Message: fmt.Sprintf("expected expression, got %s %q", tok.Kind, tok.Lexeme)}
	}
}
