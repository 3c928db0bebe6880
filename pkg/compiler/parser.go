package compiler

import "io"

// Parser is a recursive-descent, single-pass compiler front end: each
// grammar production calls directly into Semantics and Emitter as it
// recognizes source text, per spec §2/§4.5 — there is no intermediate
// tree. Tokens are pulled from the Scanner one at a time, on demand.
//
// Error recovery follows Scheme 1 (spec §4.2): a single `recovering` flag.
// expect reports at most once per error region and resyncs by skipping
// to the expected symbol or EOF; synchronize resyncs to a caller-supplied
// follow set. Syntax diagnostics go through report, which checks the flag
// first; the END-name, exit-outside-loop and end-of-program checks and
// every Semantics diagnostic are reported whether or not the parser is
// recovering.
type Parser struct {
	sc   *Scanner
	syms *SymbolTable
	sem  *Semantics
	em   *Emitter
	sink *ErrorSink

	look Token
	prev Token

	recovering   bool
	currentLevel int

	dump      io.Writer
	userStart string
}

func NewParser(sc *Scanner, syms *SymbolTable, sem *Semantics, em *Emitter, sink *ErrorSink) *Parser {
	p := &Parser{sc: sc, syms: syms, sem: sem, em: em, sink: sink}
	p.look = p.sc.Next()
	return p
}

func (p *Parser) advance() Token {
	t := p.look
	p.prev = t
	p.look = p.sc.Next()
	return t
}

// report issues code at the current token, but only if the parser is not
// already in a recovery region — the zero-diagnostics-while-recovering
// invariant (spec §4.2, tested by spec §8).
func (p *Parser) report(code Code) {
	if !p.recovering {
		p.sink.ReportAt(p.look, code)
		p.recovering = true
	}
}

// expect consumes look if it matches tt. Otherwise it reports once (if
// not already recovering) and skips tokens until tt or EOF is reached; on
// reaching tt it consumes it and clears recovery, on reaching EOF it
// leaves recovery set and returns the EOF token without consuming it.
func (p *Parser) expect(tt TokenType, code Code) Token {
	if p.look.Type == tt {
		p.recovering = false
		return p.advance()
	}
	p.report(code)
	for p.look.Type != tt && p.look.Type != EOF {
		p.advance()
	}
	if p.look.Type == tt {
		p.recovering = false
		return p.advance()
	}
	return p.look
}

// synchronize skips tokens until one in follow is seen or EOF is reached,
// clearing recovery only in the former case.
func (p *Parser) synchronize(follow ...TokenType) {
	set := make(map[TokenType]bool, len(follow))
	for _, f := range follow {
		set[f] = true
	}
	for !set[p.look.Type] && p.look.Type != EOF {
		p.advance()
	}
	if set[p.look.Type] {
		p.recovering = false
	}
}

func isStmtStart(tt TokenType) bool {
	switch tt {
	case IDENTIFIER, NULLKW, IF, WHILE, FOR, LOOP, BEGIN, EXIT, WRITE, WRITELN, READ, RETURN:
		return true
	}
	return false
}

func isExprStart(tt TokenType) bool {
	switch tt {
	case IDENTIFIER, INTEGER, REAL, STRING, TRUE, FALSE, LPAREN, PLUS, MINUS, NOT, ODD:
		return true
	}
	return false
}

func isDeclStart(tt TokenType) bool {
	switch tt {
	case IDENTIFIER, CONSTANT, PROCEDURE, FUNCTION:
		return true
	}
	return false
}

// Parse recognizes the whole program (spec §4.5's top production) and
// drives Semantics/Emitter throughout. Dump output accumulates in dump,
// one scope-stack snapshot per closed scope (spec §4.3/§4.5).
func (p *Parser) Parse(dump io.Writer) {
	p.dump = dump
	p.userStart = p.em.EmitPrologue()
	p.program()
}

func (p *Parser) closeScope() {
	p.em.CloseScope()
	p.syms.CloseScopeAndDump(p.dump)
	p.currentLevel--
}

func (p *Parser) openScope() {
	p.currentLevel++
	p.syms.OpenScope()
	p.em.OpenScope()
}

// program := PROGRAM id IS decls BEGIN stmt_part END [id] ;
func (p *Parser) program() {
	p.expect(PROGRAM, CodeKeywordExpected)
	nameTok := p.expect(IDENTIFIER, CodeIdentifierExpected)
	p.sem.DeclareCallable(nameTok, KindProgram, TyUnknown)
	p.expect(IS, CodeKeywordExpected)

	p.openScope()
	p.decls()
	p.em.PlaceLabel(p.userStart)
	p.em.EmitReserve("program locals")
	p.expect(BEGIN, CodeKeywordExpected)
	p.stmts()
	p.expect(END, CodeKeywordExpected)
	p.checkEndName(nameTok)
	p.expect(SEMICOLON, CodeSemicolonExpected)
	p.em.Opr(OprProcReturn, "halt")
	p.closeScope()

	if p.look.Type != EOF {
		p.sink.ReportAt(p.look, CodeEndOfProgramExpected)
	}
}

// checkEndName consumes an optional closing identifier after END and
// reports a mismatch against open (spec §4.5's "END [id]" forms).
func (p *Parser) checkEndName(open Token) {
	if p.look.Type != IDENTIFIER {
		return
	}
	closeTok := p.advance()
	if closeTok.Lexeme != open.Lexeme {
		p.sink.ReportAt(closeTok, CodeEndIdentifierMismatch)
	}
}

// decls := { var_decl | const_decl | proc_decl | func_decl }
func (p *Parser) decls() {
	for isDeclStart(p.look.Type) {
		switch p.look.Type {
		case IDENTIFIER:
			p.varDecl()
		case CONSTANT:
			p.constDecl()
		case PROCEDURE:
			p.procDecl()
		case FUNCTION:
			p.funcDecl()
		}
	}
}

// var_decl := id {, id} : type [ := expr {, expr} ] ;
func (p *Parser) varDecl() {
	names := []Token{p.expect(IDENTIFIER, CodeIdentifierExpected)}
	for p.look.Type == COMMA {
		p.advance()
		names = append(names, p.expect(IDENTIFIER, CodeIdentifierExpected))
	}
	p.expect(COLON, CodeColonExpected)
	ty := p.parseType()

	recs := make([]*Record, len(names))
	for i, nm := range names {
		rec := p.sem.DeclareVar(nm, ty)
		recs[i] = rec
		if rec != nil {
			p.em.BindVariable(rec)
		}
	}

	if p.look.Type == BECOMES {
		p.advance()
		for i := range names {
			rightTy := p.expr()
			if recs[i] != nil {
				p.sem.CheckAssignment(names[i], ty, recs[i], rightTy)
				p.em.StoreVar(p.currentLevel, recs[i])
			}
			if i < len(names)-1 {
				p.expect(COMMA, CodeCommaExpected)
			}
		}
	}
	p.expect(SEMICOLON, CodeSemicolonExpected)
}

// const_decl := CONSTANT id {, id} [ : type ] (:= | IS) expr {, expr} ;
// Each name's type is its declared type if one is given, otherwise its
// own initializer's type — names in the same declaration need not share
// a type when the type is left implicit.
func (p *Parser) constDecl() {
	p.advance() // CONSTANT
	names := []Token{p.expect(IDENTIFIER, CodeIdentifierExpected)}
	for p.look.Type == COMMA {
		p.advance()
		names = append(names, p.expect(IDENTIFIER, CodeIdentifierExpected))
	}

	declaredTy := TyUnknown
	hasTy := false
	if p.look.Type == COLON {
		p.advance()
		declaredTy = p.parseType()
		hasTy = true
	}

	if p.look.Type == BECOMES || p.look.Type == IS {
		p.advance()
	} else {
		p.report(CodeBecomesExpected)
	}

	for i, nm := range names {
		rightTy := p.expr()
		ty := declaredTy
		if !hasTy {
			ty = rightTy
		}
		// Entered as a variable first so CheckAssignment compares the
		// initializer's type instead of rejecting the constant itself.
		rec := p.sem.DeclareVar(nm, ty)
		if rec != nil {
			if hasTy {
				p.sem.CheckAssignment(nm, ty, rec, rightTy)
			}
			rec.Kind = KindConstant
			p.em.BindVariable(rec)
			p.em.StoreVar(p.currentLevel, rec)
		}
		if i < len(names)-1 {
			p.expect(COMMA, CodeCommaExpected)
		}
	}
	p.expect(SEMICOLON, CodeSemicolonExpected)
}

func (p *Parser) parseType() Type {
	switch p.look.Type {
	case INTEGER_KW:
		p.advance()
		return TyInteger
	case REAL_KW:
		p.advance()
		return TyReal
	case STRING_KW:
		p.advance()
		return TyString
	case BOOLEAN:
		p.advance()
		return TyBoolean
	default:
		p.report(CodeTypeNameExpected)
		return TyUnknown
	}
}

// proc_decl := PROCEDURE id [( params )] IS decls BEGIN stmt_part END [id] ;
func (p *Parser) procDecl() {
	p.advance() // PROCEDURE
	nameTok := p.expect(IDENTIFIER, CodeIdentifierExpected)
	entry := p.em.NewLabel()
	rec := p.sem.DeclareCallable(nameTok, KindProcedure, TyUnknown)
	if rec != nil {
		rec.EntryLabel = entry
	}

	p.openScope()
	if p.look.Type == LPAREN {
		p.advance()
		p.paramList()
		p.expect(RPAREN, CodeRParenExpected)
	}
	p.expect(IS, CodeKeywordExpected)
	p.decls()
	p.em.PlaceLabel(entry)
	p.em.EmitReserve("locals")
	p.expect(BEGIN, CodeKeywordExpected)
	p.stmts()
	p.em.Opr(OprProcReturn, "return")
	p.expect(END, CodeKeywordExpected)
	p.checkEndName(nameTok)
	p.expect(SEMICOLON, CodeSemicolonExpected)
	p.closeScope()
}

// func_decl := FUNCTION id [( params )] RETURN type IS decls BEGIN stmt_part END [id] ;
func (p *Parser) funcDecl() {
	p.advance() // FUNCTION
	nameTok := p.expect(IDENTIFIER, CodeIdentifierExpected)
	entry := p.em.NewLabel()
	rec := p.sem.DeclareCallable(nameTok, KindFunction, TyUnknown)
	if rec != nil {
		rec.EntryLabel = entry
	}

	p.openScope()
	if p.look.Type == LPAREN {
		p.advance()
		p.paramList()
		p.expect(RPAREN, CodeRParenExpected)
	}
	p.expect(RETURN, CodeKeywordExpected)
	retTy := p.parseType()
	if rec != nil {
		rec.ReturnType = retTy
	}
	p.expect(IS, CodeKeywordExpected)
	p.decls()
	p.em.PlaceLabel(entry)
	p.em.EmitReserve("locals")
	p.expect(BEGIN, CodeKeywordExpected)
	p.stmts()
	p.em.Opr(OprFuncReturn, "return")
	p.expect(END, CodeKeywordExpected)
	p.checkEndName(nameTok)
	p.expect(SEMICOLON, CodeSemicolonExpected)
	p.closeScope()
}

// param_list := param {; param}
func (p *Parser) paramList() {
	p.param()
	for p.look.Type == SEMICOLON {
		p.advance()
		p.param()
	}
}

// param := id {, id} : (VALUE|REF) type
func (p *Parser) param() {
	names := []Token{p.expect(IDENTIFIER, CodeIdentifierExpected)}
	for p.look.Type == COMMA {
		p.advance()
		names = append(names, p.expect(IDENTIFIER, CodeIdentifierExpected))
	}
	p.expect(COLON, CodeColonExpected)
	if p.look.Type == VALUE || p.look.Type == REF {
		p.advance()
	} else {
		p.report(CodeParameterModeExpected)
	}
	ty := p.parseType()
	for _, nm := range names {
		rec := p.sem.DeclareVar(nm, ty)
		if rec != nil {
			p.em.BindVariable(rec)
		}
	}
}

// stmt_part / stmt_list := { stmt }  — each stmt production consumes its
// own trailing ';', so no separator is needed between them.
func (p *Parser) stmts() {
	for isStmtStart(p.look.Type) {
		p.stmt()
	}
}

func (p *Parser) stmt() {
	switch p.look.Type {
	case IDENTIFIER:
		p.assignOrCall()
	case NULLKW:
		p.advance()
		p.expect(SEMICOLON, CodeSemicolonExpected)
	case IF:
		p.ifStmt()
	case WHILE:
		p.whileStmt()
	case FOR:
		p.forStmt()
	case LOOP:
		p.loopStmt()
	case BEGIN:
		p.blockStmt()
	case EXIT:
		p.exitStmt()
	case WRITE:
		p.writeStmt()
	case WRITELN:
		p.writelnStmt()
	case READ:
		p.readStmt()
	case RETURN:
		p.returnStmt()
	default:
		p.report(CodeErrorInStatement)
		p.synchronize(SEMICOLON, END, EOF)
		if p.look.Type == SEMICOLON {
			p.advance()
			p.recovering = false
		}
	}
}

// assign_or_call := id := expr ;  |  id [( expr {, expr} )] ;
func (p *Parser) assignOrCall() {
	nameTok := p.advance()
	if p.look.Type == BECOMES {
		p.advance()
		rec, _ := p.sem.ResolveName(nameTok)
		leftType := TyUnknown
		if rec != nil {
			leftType = rec.Type
		}
		rightType := p.expr()
		p.sem.CheckAssignment(nameTok, leftType, rec, rightType)
		if rec != nil && rec.Kind == KindVariable {
			p.em.StoreVar(p.currentLevel, rec)
		}
	} else {
		p.parseCall(nameTok)
	}
	p.expect(SEMICOLON, CodeSemicolonExpected)
}

// parseCall emits MST / arguments / CAL for a use of name as a call,
// whether as a statement or inside an expression, and returns its result
// type. The four builtin conversions are resolved by name regardless of
// what the symbol table holds, exactly like LookupType (spec §4.4).
func (p *Parser) parseCall(nameTok Token) Type {
	builtinTy, isBuiltin := builtinReturnTypes[nameTok.Lexeme]
	var rec *Record
	if !isBuiltin {
		rec, _ = p.sem.ResolveName(nameTok)
	}

	p.em.Mst("call " + nameTok.Lexeme)
	if p.look.Type == LPAREN {
		p.advance()
		if p.look.Type != RPAREN {
			p.expr()
			for p.look.Type == COMMA {
				p.advance()
				p.expr()
			}
		}
		p.expect(RPAREN, CodeRParenExpected)
	}

	if isBuiltin {
		p.em.CallBuiltin(nameTok.Lexeme, "call "+nameTok.Lexeme)
		return builtinTy
	}
	if rec == nil {
		return TyUnknown
	}
	p.em.CallUser(p.currentLevel-rec.Level, rec.EntryLabel, "call "+nameTok.Lexeme)
	return rec.ReturnType
}

// if_stmt := IF expr THEN stmt_part {ELSIF expr THEN stmt_part} [ELSE stmt_part] END [IF] ;
func (p *Parser) ifStmt() {
	p.advance() // IF
	endL := p.em.NewLabel()
	nextL := p.em.NewLabel()

	condTok := p.look
	condTy := p.expr()
	p.sem.RequireBoolean(condTok, condTy)
	p.em.Jif(nextL, "if false")
	p.expect(THEN, CodeKeywordExpected)
	p.stmts()
	p.em.Jmp(endL, "skip rest")
	p.em.PlaceLabel(nextL)

	for p.look.Type == ELSIF {
		p.advance()
		branchEnd := p.em.NewLabel()
		condTok = p.look
		condTy = p.expr()
		p.sem.RequireBoolean(condTok, condTy)
		p.em.Jif(branchEnd, "elsif false")
		p.expect(THEN, CodeKeywordExpected)
		p.stmts()
		p.em.Jmp(endL, "skip rest")
		p.em.PlaceLabel(branchEnd)
	}

	if p.look.Type == ELSE {
		p.advance()
		p.stmts()
	}

	p.em.PlaceLabel(endL)
	p.expect(END, CodeKeywordExpected)
	if p.look.Type == IF {
		p.advance()
	}
	p.expect(SEMICOLON, CodeSemicolonExpected)
}

// while_stmt := WHILE expr LOOP stmt_part END [LOOP] ;
func (p *Parser) whileStmt() {
	p.advance() // WHILE
	startL := p.em.NewLabel()
	endL := p.em.NewLabel()

	p.em.PlaceLabel(startL)
	condTok := p.look
	condTy := p.expr()
	p.sem.RequireBoolean(condTok, condTy)
	p.em.Jif(endL, "while false")
	p.expect(LOOP, CodeKeywordExpected)

	p.em.PushLoopExit(endL)
	p.stmts()
	p.em.PopLoopExit()

	p.em.Jmp(startL, "repeat")
	p.em.PlaceLabel(endL)
	p.expect(END, CodeKeywordExpected)
	if p.look.Type == LOOP {
		p.advance()
	}
	p.expect(SEMICOLON, CodeSemicolonExpected)
}

// for_stmt := FOR id IN [REVERSE] simple_expr .. simple_expr LOOP stmt_part END [LOOP] ;
// The index opens its own scope/level (glossary); its bounds are
// evaluated once into the index variable and a hidden per-frame slot.
func (p *Parser) forStmt() {
	p.advance() // FOR
	idxTok := p.expect(IDENTIFIER, CodeIdentifierExpected)
	p.expect(IN, CodeKeywordExpected)
	reverse := false
	if p.look.Type == REVERSE {
		p.advance()
		reverse = true
	}

	p.openScope()
	rec := p.sem.DeclareForIndex(idxTok, TyInteger)
	if rec != nil {
		p.em.BindVariable(rec)
	}

	p.simpleExpr() // low bound, pushed
	p.expect(RANGE, CodeRangeExpected)
	p.simpleExpr() // high bound, pushed on top of low

	// REVERSE counts down from the high bound to the low bound, so the
	// index and the end-bound slot swap roles: original_source/code_gen.cpp's
	// gen_for_init swaps the top two stack values before storing them in
	// that case (OPR 0 22 "Swap"), rather than swapping which simple_expr
	// was parsed first.
	if reverse {
		p.em.Opr(OprSwap, "swap bounds for reverse")
	}

	endOff := p.em.AllocTempOffset()
	p.em.StoreOffset(endOff, "loop end bound")
	if rec != nil {
		p.em.StoreVar(p.currentLevel, rec)
	}

	startL := p.em.NewLabel()
	endL := p.em.NewLabel()
	p.em.PlaceLabel(startL)
	if rec != nil {
		p.em.LoadVar(p.currentLevel, rec)
		p.em.LoadOffset(endOff, "loop end bound")
		if reverse {
			p.em.Opr(OprGe, "i >= end")
		} else {
			p.em.Opr(OprLe, "i <= end")
		}
		p.em.Jif(endL, "loop done")
	}

	p.expect(LOOP, CodeKeywordExpected)
	p.em.PushLoopExit(endL)
	p.stmts()
	p.em.PopLoopExit()

	if rec != nil {
		p.em.LoadVar(p.currentLevel, rec)
		p.em.LoadInt(1, "step")
		if reverse {
			p.em.Opr(OprSub, "i--")
		} else {
			p.em.Opr(OprAdd, "i++")
		}
		p.em.StoreVar(p.currentLevel, rec)
	}
	p.em.Jmp(startL, "repeat")
	p.em.PlaceLabel(endL)

	p.expect(END, CodeKeywordExpected)
	if p.look.Type == LOOP {
		p.advance()
	}
	p.expect(SEMICOLON, CodeSemicolonExpected)
	p.closeScope()
}

// loop_stmt := LOOP stmt_part END [LOOP] ; — a bare unconditional loop,
// exited only through `exit`.
func (p *Parser) loopStmt() {
	p.advance() // LOOP
	startL := p.em.NewLabel()
	endL := p.em.NewLabel()
	p.em.PlaceLabel(startL)

	p.em.PushLoopExit(endL)
	p.stmts()
	p.em.PopLoopExit()

	p.em.Jmp(startL, "repeat")
	p.em.PlaceLabel(endL)
	p.expect(END, CodeKeywordExpected)
	if p.look.Type == LOOP {
		p.advance()
	}
	p.expect(SEMICOLON, CodeSemicolonExpected)
}

// block := BEGIN stmt_part END ; — a nested statement group that raises
// the lexical level without declaring anything of its own.
func (p *Parser) blockStmt() {
	p.advance() // BEGIN
	p.openScope()
	p.em.EmitReserve("block locals")
	p.stmts()
	p.expect(END, CodeKeywordExpected)
	p.expect(SEMICOLON, CodeSemicolonExpected)
	p.closeScope()
}

// exit_stmt := EXIT [ WHEN expr ] ;
func (p *Parser) exitStmt() {
	exitTok := p.advance() // EXIT
	target, inLoop := p.em.LoopExitTarget()
	if !inLoop {
		p.sink.ReportAt(exitTok, CodeExitOutsideLoop)
	}

	if p.look.Type == WHEN {
		p.advance()
		condTok := p.look
		condTy := p.expr()
		p.sem.RequireBoolean(condTok, condTy)
		if inLoop {
			// No jump-if-true opcode exists; negate and reuse JIF, the
			// trick original_source/code_gen.cpp's gen_jump_true uses.
			p.em.Opr(OprNot, "negate for exit when")
			p.em.Jif(target, "exit when")
		}
	} else if inLoop {
		p.em.Jmp(target, "exit")
	}
	p.expect(SEMICOLON, CodeSemicolonExpected)
}

// write_stmt := WRITE [(] expr {, expr} [)] ;
func (p *Parser) writeStmt() {
	p.advance() // WRITE
	paren := p.look.Type == LPAREN
	if paren {
		p.advance()
	}
	p.expr()
	p.em.Opr(OprWrite, "write")
	for p.look.Type == COMMA {
		p.advance()
		p.expr()
		p.em.Opr(OprWrite, "write")
	}
	if paren {
		p.expect(RPAREN, CodeRParenExpected)
	}
	p.expect(SEMICOLON, CodeSemicolonExpected)
}

// writeln_stmt := WRITELN [ [(] expr {, expr} [)] ] ;
func (p *Parser) writelnStmt() {
	p.advance() // WRITELN
	paren := p.look.Type == LPAREN
	if paren {
		p.advance()
	}
	if isExprStart(p.look.Type) {
		p.expr()
		p.em.Opr(OprWrite, "write")
		for p.look.Type == COMMA {
			p.advance()
			p.expr()
			p.em.Opr(OprWrite, "write")
		}
	}
	if paren {
		p.expect(RPAREN, CodeRParenExpected)
	}
	p.em.Opr(OprWriteln, "writeln")
	p.expect(SEMICOLON, CodeSemicolonExpected)
}

// read_stmt := READ [(] id {, id} [)] ;
func (p *Parser) readStmt() {
	p.advance() // READ
	paren := p.look.Type == LPAREN
	if paren {
		p.advance()
	}
	p.readOne()
	for p.look.Type == COMMA {
		p.advance()
		p.readOne()
	}
	if paren {
		p.expect(RPAREN, CodeRParenExpected)
	}
	p.expect(SEMICOLON, CodeSemicolonExpected)
}

func (p *Parser) readOne() {
	nameTok := p.expect(IDENTIFIER, CodeIdentifierExpected)
	rec, _ := p.sem.ResolveName(nameTok)
	if rec == nil {
		return
	}
	if rec.Type == TyReal {
		p.em.Rdr(p.currentLevel, rec)
	} else {
		p.em.Rdi(p.currentLevel, rec)
	}
}

// return_stmt := RETURN [ expr ] ;
func (p *Parser) returnStmt() {
	p.advance() // RETURN
	if isExprStart(p.look.Type) {
		p.expr()
		p.em.Opr(OprFuncReturn, "return")
	} else {
		p.em.Opr(OprProcReturn, "return")
	}
	p.expect(SEMICOLON, CodeSemicolonExpected)
}

// expr := simple_expr [ relop simple_expr ]
func (p *Parser) expr() Type {
	left := p.simpleExpr()
	if isRelOp(p.look.Type) {
		opTok := p.advance()
		right := p.simpleExpr()
		result := p.sem.CheckBinary(opTok, left, opTok.Type, right)
		p.em.Opr(oprForRel(opTok.Type), "cmp")
		return result
	}
	return left
}

func isRelOp(tt TokenType) bool {
	switch tt {
	case EQ, NEQ, LT, LE, GT, GE:
		return true
	}
	return false
}

func oprForRel(tt TokenType) int {
	switch tt {
	case EQ:
		return OprEq
	case NEQ:
		return OprNeq
	case LT:
		return OprLt
	case LE:
		return OprLe
	case GT:
		return OprGt
	case GE:
		return OprGe
	}
	return OprEq
}

// simple_expr := [+|-] term { (+|-|OR|&) term }
func (p *Parser) simpleExpr() Type {
	var signTok Token
	hasSign := false
	if p.look.Type == PLUS || p.look.Type == MINUS {
		signTok = p.advance()
		hasSign = true
	}

	t := p.term()
	if hasSign {
		t = p.sem.CheckUnary(signTok, signTok.Type, t)
		if signTok.Type == MINUS {
			p.em.Opr(OprNeg, "unary -")
		}
	}

	for p.look.Type == PLUS || p.look.Type == MINUS || p.look.Type == OR || p.look.Type == AMP {
		opTok := p.advance()
		right := p.term()
		t = p.sem.CheckBinary(opTok, t, opTok.Type, right)
		p.em.Opr(oprForAdd(opTok.Type), "binop")
	}
	return t
}

func oprForAdd(tt TokenType) int {
	switch tt {
	case PLUS:
		return OprAdd
	case MINUS:
		return OprSub
	case OR:
		return OprOr
	case AMP:
		return OprConcat
	}
	return OprAdd
}

// term := factor { (*|/|AND) factor }
func (p *Parser) term() Type {
	t := p.factor()
	for p.look.Type == STAR || p.look.Type == SLASH || p.look.Type == AND {
		opTok := p.advance()
		right := p.factor()
		t = p.sem.CheckBinary(opTok, t, opTok.Type, right)
		p.em.Opr(oprForMul(opTok.Type), "binop")
	}
	return t
}

func oprForMul(tt TokenType) int {
	switch tt {
	case STAR:
		return OprMul
	case SLASH:
		return OprDiv
	case AND:
		return OprAnd
	}
	return OprMul
}

// factor := [+|-|NOT|ODD] primary [ ** primary ]
func (p *Parser) factor() Type {
	switch p.look.Type {
	case PLUS, MINUS, NOT, ODD:
		opTok := p.advance()
		operand := p.primary()
		t := p.sem.CheckUnary(opTok, opTok.Type, operand)
		switch opTok.Type {
		case MINUS:
			p.em.Opr(OprNeg, "unary -")
		case NOT:
			p.em.Opr(OprNot, "not")
		case ODD:
			p.em.Opr(OprOdd, "odd")
		}
		if p.look.Type == POWER {
			powTok := p.advance()
			right := p.primary()
			t = p.sem.CheckBinary(powTok, t, POWER, right)
			p.em.Opr(OprPow, "**")
		}
		return t
	}

	left := p.primary()
	if p.look.Type == POWER {
		powTok := p.advance()
		right := p.primary()
		left = p.sem.CheckBinary(powTok, left, POWER, right)
		p.em.Opr(OprPow, "**")
	}
	return left
}

// primary := id [( expr {, expr} )] | int-literal | real-literal |
//            string-literal | TRUE | FALSE | ( expr )
func (p *Parser) primary() Type {
	switch p.look.Type {
	case IDENTIFIER:
		nameTok := p.advance()
		if p.look.Type == LPAREN {
			return p.parseCall(nameTok)
		}
		ty, rec := p.sem.LookupType(nameTok)
		if rec != nil {
			p.em.LoadVar(p.currentLevel, rec)
		} else {
			p.em.LoadInt(0, "error recovery")
		}
		return ty
	case INTEGER:
		tok := p.advance()
		p.em.LoadInt(tok.IntVal, tok.Lexeme)
		return TyInteger
	case REAL:
		tok := p.advance()
		p.em.LoadReal(tok.RealVal, tok.Lexeme)
		return TyReal
	case STRING:
		tok := p.advance()
		p.em.LoadString(tok.StrVal, "\""+tok.StrVal+"\"")
		return TyString
	case TRUE:
		p.advance()
		p.em.Opr(OprLoadTrue, "true")
		return TyBoolean
	case FALSE:
		p.advance()
		p.em.Opr(OprLoadFalse, "false")
		return TyBoolean
	case LPAREN:
		p.advance()
		t := p.expr()
		p.expect(RPAREN, CodeRParenExpected)
		return t
	default:
		p.report(CodeIdentifierExpected)
		return TyUnknown
	}
}
