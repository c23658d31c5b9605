package compiler

import (
	"paserati/pkg/bytecode"
	"paserati/pkg/lexer"
	"paserati/pkg/value"
)

// parseStmt compiles one statement. Bookkeeping at entry:
// snapshot temp_next and the label-stack length; at exit the temps are
// restored and the label stack must be back to its entry length.
func (p *Parser) parseStmt() {
	p.enterRecursion()
	defer p.exitRecursion()
	fs := p.fs
	fs.StmtNext++
	tempMark := fs.mark()
	labelLen := fs.Labels.len()

	var labels []string
	for (p.at(lexer.IDENT) || p.at(lexer.GET) || p.at(lexer.SET)) && p.peekIs(lexer.COLON) {
		name := p.cur.Literal
		if fs.Labels.nameTaken(name) {
			syntaxErrf(fs, "duplicate label %q", name)
		}
		for _, l := range labels {
			if l == name {
				syntaxErrf(fs, "duplicate label %q", name)
			}
		}
		labels = append(labels, name)
		p.advance()
		p.advance() // ':'
	}

	p.parseStmtTail(labels, labelLen)

	fs.release(tempMark)
	if fs.Labels.len() != labelLen {
		internalErrf(fs, "label stack imbalance at statement exit")
	}
}

func (p *Parser) parseStmtTail(labels []string, savedLen int) {
	fs := p.fs

	if len(labels) > 0 {
		fs.InDirectivePrologue = false
		switch p.cur.Type {
		case lexer.DO, lexer.WHILE, lexer.FOR, lexer.SWITCH:
			// The loop/switch handler shares the label site.
		default:
			rec := p.openLabelSite(labels, false)
			p.parseStmt()
			p.closeLabelSite(rec, savedLen, 0)
			return
		}
	}

	switch p.cur.Type {
	case lexer.LBRACE:
		fs.InDirectivePrologue = false
		p.parseBlock()
	case lexer.SEMICOLON:
		fs.InDirectivePrologue = false
		p.advance()
	case lexer.VAR:
		fs.InDirectivePrologue = false
		p.varStatement()
	case lexer.IF:
		fs.InDirectivePrologue = false
		p.ifStatement()
	case lexer.DO:
		fs.InDirectivePrologue = false
		p.doWhileStatement(labels, savedLen)
	case lexer.WHILE:
		fs.InDirectivePrologue = false
		p.whileStatement(labels, savedLen)
	case lexer.FOR:
		fs.InDirectivePrologue = false
		p.forStatement(labels, savedLen)
	case lexer.SWITCH:
		fs.InDirectivePrologue = false
		p.switchStatement(labels, savedLen)
	case lexer.TRY:
		fs.InDirectivePrologue = false
		p.tryStatement()
	case lexer.THROW:
		fs.InDirectivePrologue = false
		p.throwStatement()
	case lexer.WITH:
		fs.InDirectivePrologue = false
		p.withStatement()
	case lexer.RETURN:
		fs.InDirectivePrologue = false
		p.returnStatement()
	case lexer.BREAK:
		fs.InDirectivePrologue = false
		p.breakContinueStatement(true)
	case lexer.CONTINUE:
		fs.InDirectivePrologue = false
		p.breakContinueStatement(false)
	case lexer.FUNCTION:
		fs.InDirectivePrologue = false
		p.functionDeclaration()
	case lexer.DEBUGGER:
		fs.InDirectivePrologue = false
		p.advance()
		fs.emitABC(bytecode.OpDebugger, 0, regOp(0), regOp(0), p.line())
		p.semicolon()
	default:
		p.exprStatement()
	}
}

func (p *Parser) parseBlock() {
	p.expect(lexer.LBRACE)
	for !p.at(lexer.RBRACE) {
		if p.at(lexer.EOF) {
			syntaxErrf(p.fs, "unexpected end of input in block")
		}
		p.parseStmt()
	}
	p.expect(lexer.RBRACE)
}

// stmtTerminates reports whether the current token ends the statement
// being parsed: an explicit terminator, or a token that cannot continue
// an expression after a line terminator (the ASI condition).
func (p *Parser) stmtTerminates() bool {
	if p.at(lexer.SEMICOLON) || p.at(lexer.RBRACE) || p.at(lexer.EOF) {
		return true
	}
	return p.cur.LineTerm && p.lbpOf() == 0
}

func (p *Parser) exprStatement() {
	fs := p.fs
	if fs.InDirectivePrologue && p.at(lexer.STRING) {
		tok := p.cur
		p.advance()
		if p.stmtTerminates() {
			// A directive-prologue statement. Only the exact, escape-free
			// "use strict" spelling activates anything.
			if tok.NumEscapes == 0 && tok.Literal == "use strict" {
				fs.IsStrict = true
			}
			if fs.HasStmtValueReg {
				p.ivToForcedReg(plainIV(litSpec(value.String(tok.Literal))), fs.StmtValueReg)
			}
			p.semicolon()
			return
		}
		fs.InDirectivePrologue = false
		iv := p.parseExprRest(plainIV(litSpec(value.String(tok.Literal))), 0)
		p.finishExprStatement(iv)
		return
	}
	fs.InDirectivePrologue = false
	iv := p.parseExpr(0)
	p.finishExprStatement(iv)
}

func (p *Parser) finishExprStatement(iv ivalue) {
	fs := p.fs
	if fs.HasStmtValueReg {
		p.ivToForcedReg(iv, fs.StmtValueReg)
	} else if iv.kind != ivPlain {
		p.ivToRegConst(iv, allowConst)
	}
	p.semicolon()
}

// expectBindingIdent reads a variable/formal/catch binding name,
// enforcing the strict-mode naming rules.
func (p *Parser) expectBindingIdent() string {
	fs := p.fs
	var name string
	switch {
	case p.at(lexer.IDENT) || p.at(lexer.GET) || p.at(lexer.SET):
		name = p.cur.Literal
	case lexer.IsStrictReserved(p.cur.Type):
		if fs.IsStrict {
			syntaxErrf(fs, "%q is a reserved word in strict mode", p.cur.Type.String())
		}
		name, _ = lexer.KeywordSpelling(p.cur.Type)
	default:
		syntaxErrf(fs, "expected identifier, got %s", p.cur.Type.String())
	}
	if fs.IsStrict && (name == "eval" || name == "arguments") {
		syntaxErrf(fs, "cannot bind %q in strict mode", name)
	}
	p.advance()
	return name
}

func (p *Parser) varStatement() {
	p.advance() // 'var'
	for {
		p.parseVarDecl()
		if !p.accept(lexer.COMMA) {
			break
		}
	}
	p.semicolon()
}

// parseVarDecl parses one `name [= AssignmentExpression]` declarator.
// Pass 1 records the declaration for hoisting; both passes emit the
// initializer assignment in place.
func (p *Parser) parseVarDecl() string {
	fs := p.fs
	name := p.expectBindingIdent()
	if fs.InScanning {
		fs.Decls = append(fs.Decls, Decl{Name: name, Kind: DeclVar})
	}
	if p.accept(lexer.ASSIGN) {
		m := fs.mark()
		rhs := p.parseExpr(bpComma)
		if vb, ok := fs.lookup(name); ok {
			p.ivToForcedReg(rhs, vb.Reg)
		} else {
			p.noteSlowAccess(name)
			val := p.ivToTempReg(rhs)
			nameIdx := fs.addConstant(value.String(name))
			fs.emitA_BC(bytecode.OpPutVar, val, nameIdx, p.line())
		}
		fs.release(m)
	}
	return name
}

func (p *Parser) ifStatement() {
	fs := p.fs
	p.advance()
	p.expect(lexer.LPAREN)
	cond := p.parseExpr(0)
	p.expect(lexer.RPAREN)
	c := p.ivToRegConst(cond, allowConst)
	fs.emitABC(bytecode.OpIf, 1, specOperand(c), regOp(0), p.line())
	jmpElse := fs.emitJump(bytecode.OpJump, p.line())
	p.parseStmt()
	if p.accept(lexer.ELSE) {
		jmpEnd := fs.emitJump(bytecode.OpJump, p.line())
		fs.patchJump(jmpElse, fs.pc())
		p.parseStmt()
		fs.patchJump(jmpEnd, fs.pc())
	} else {
		fs.patchJump(jmpElse, fs.pc())
	}
}

func (p *Parser) whileStatement(labels []string, savedLen int) {
	fs := p.fs
	p.advance()
	rec := p.openLabelSite(labels, true)
	loopTop := fs.pc()
	p.expect(lexer.LPAREN)
	cond := p.parseExpr(0)
	p.expect(lexer.RPAREN)
	c := p.ivToRegConst(cond, allowConst)
	fs.emitABC(bytecode.OpIf, 1, specOperand(c), regOp(0), p.line())
	jmpExit := fs.emitJump(bytecode.OpJump, p.line())
	fs.patchJump(jmpExit, rec.BreakPatchPC)
	p.parseStmt()
	jmpBack := fs.emitJump(bytecode.OpJump, p.line())
	fs.patchJump(jmpBack, loopTop)
	p.closeLabelSite(rec, savedLen, loopTop)
}

func (p *Parser) doWhileStatement(labels []string, savedLen int) {
	fs := p.fs
	p.advance()
	rec := p.openLabelSite(labels, true)
	bodyTop := fs.pc()
	p.parseStmt()
	condTop := fs.pc()
	p.expect(lexer.WHILE)
	p.expect(lexer.LPAREN)
	cond := p.parseExpr(0)
	p.expect(lexer.RPAREN)
	c := p.ivToRegConst(cond, allowConst)
	fs.emitABC(bytecode.OpIf, 0, specOperand(c), regOp(0), p.line())
	jmpBack := fs.emitJump(bytecode.OpJump, p.line())
	fs.patchJump(jmpBack, bodyTop)
	// The trailing semicolon may be omitted even without a line
	// terminator (compatibility relaxation).
	p.accept(lexer.SEMICOLON)
	p.closeLabelSite(rec, savedLen, condTop)
}

func (p *Parser) forStatement(labels []string, savedLen int) {
	fs := p.fs
	p.advance()
	p.expect(lexer.LPAREN)

	switch {
	case p.accept(lexer.SEMICOLON):
		// no init
	case p.at(lexer.VAR):
		p.advance()
		saveIn := p.allowIn
		p.allowIn = false
		name := p.parseVarDeclHeadNoIn()
		p.allowIn = saveIn
		if p.at(lexer.IN) {
			p.advance()
			p.forInBody(labels, savedLen, varIV(name))
			return
		}
		for p.accept(lexer.COMMA) {
			p.parseVarDecl()
		}
		p.expect(lexer.SEMICOLON)
	default:
		saveIn := p.allowIn
		p.allowIn = false
		iv := p.parseExpr(0)
		p.allowIn = saveIn
		if p.at(lexer.IN) {
			if iv.kind != ivVar && iv.kind != ivProp {
				syntaxErrf(fs, "invalid left-hand side in for-in")
			}
			p.advance()
			p.forInBody(labels, savedLen, iv)
			return
		}
		if iv.kind != ivPlain {
			p.ivToRegConst(iv, allowConst)
		}
		p.expect(lexer.SEMICOLON)
	}

	rec := p.openLabelSite(labels, true)
	condTop := fs.pc()
	if !p.at(lexer.SEMICOLON) {
		cond := p.parseExpr(0)
		c := p.ivToRegConst(cond, allowConst)
		fs.emitABC(bytecode.OpIf, 1, specOperand(c), regOp(0), p.line())
		jmpExit := fs.emitJump(bytecode.OpJump, p.line())
		fs.patchJump(jmpExit, rec.BreakPatchPC)
	}
	p.expect(lexer.SEMICOLON)
	jmpBody := fs.emitJump(bytecode.OpJump, p.line())
	updateTop := fs.pc()
	if !p.at(lexer.RPAREN) {
		upd := p.parseExpr(0)
		if upd.kind != ivPlain {
			p.ivToRegConst(upd, allowConst)
		}
	}
	jmpCond := fs.emitJump(bytecode.OpJump, p.line())
	fs.patchJump(jmpCond, condTop)
	p.expect(lexer.RPAREN)
	fs.patchJump(jmpBody, fs.pc())
	p.parseStmt()
	jmpBack := fs.emitJump(bytecode.OpJump, p.line())
	fs.patchJump(jmpBack, updateTop)
	p.closeLabelSite(rec, savedLen, updateTop)
}

// parseVarDeclHeadNoIn parses the first declarator of a for-statement's
// `var` head, where an `in` after the declarator flips the statement
// into a for-in (an initializer is tolerated before `in` for
// compatibility with the ES5 grammar).
func (p *Parser) parseVarDeclHeadNoIn() string {
	return p.parseVarDecl()
}

func (p *Parser) forInBody(labels []string, savedLen int, lhs ivalue) {
	fs := p.fs

	// Iteration base: enumerator and per-iteration key live below any
	// temps the loop body borrows, so nothing clobbers them.
	enumReg := fs.allocTemp()
	keyReg := fs.allocTemp()

	obj := p.parseExpr(0)
	m := fs.mark()
	s := p.specToRegConst(p.ivToRegConst(obj, 0), 0)
	fs.emitABC(bytecode.OpInitEnum, enumReg, regOp(s.index), regOp(0), p.line())
	fs.release(m)
	p.expect(lexer.RPAREN)

	rec := p.openLabelSite(labels, true)
	contTarget := fs.pc()
	fs.emitABC(bytecode.OpNextEnum, keyReg, regOp(enumReg), regOp(0), p.line())
	jmpExit := fs.emitJump(bytecode.OpJump, p.line())
	fs.patchJump(jmpExit, rec.BreakPatchPC)

	switch lhs.kind {
	case ivVar:
		if vb, ok := fs.lookup(lhs.varName); ok {
			fs.emitA_BC(bytecode.OpLdReg, vb.Reg, keyReg, p.line())
		} else {
			p.noteSlowAccess(lhs.varName)
			nameIdx := fs.addConstant(value.String(lhs.varName))
			fs.emitA_BC(bytecode.OpPutVar, keyReg, nameIdx, p.line())
		}
	case ivProp:
		objSpec := p.specToRegConst(lhs.propObj, 0)
		fs.emitABCSrcA(bytecode.OpPutProp, objSpec.index,
			specOperand(p.specToRegConst(lhs.propKey, allowConst)), regOp(keyReg), p.line())
	default:
		syntaxErrf(fs, "invalid left-hand side in for-in")
	}

	p.parseStmt()
	jmpBack := fs.emitJump(bytecode.OpJump, p.line())
	fs.patchJump(jmpBack, contTarget)
	p.closeLabelSite(rec, savedLen, contTarget)
}

func (p *Parser) switchStatement(labels []string, savedLen int) {
	fs := p.fs
	p.advance()
	p.expect(lexer.LPAREN)
	subj := p.parseExpr(0)
	p.expect(lexer.RPAREN)
	subjReg := p.ivToTempReg(subj)

	rec := p.openLabelSite(labels, false)
	p.expect(lexer.LBRACE)

	prevMiss := -1 // pending jump to the next case selector
	prevFall := -1 // pending fall-through jump to the next statement list
	hasClause := false
	defaultSeen := false
	defaultPC := -1

	for !p.at(lexer.RBRACE) {
		switch {
		case p.at(lexer.CASE):
			p.advance()
			if hasClause {
				prevFall = fs.emitJump(bytecode.OpJump, p.line())
			}
			if prevMiss >= 0 {
				fs.patchJump(prevMiss, fs.pc())
				prevMiss = -1
			}
			m := fs.mark()
			sel := p.parseExpr(0)
			s := p.ivToRegConst(sel, allowConst)
			t := fs.allocTemp()
			fs.emitABC(bytecode.OpSeq, t, regOp(subjReg), specOperand(s), p.line())
			fs.emitABC(bytecode.OpIf, 1, regOp(t), regOp(0), p.line())
			prevMiss = fs.emitJump(bytecode.OpJump, p.line())
			fs.release(m)
			p.expect(lexer.COLON)
			if prevFall >= 0 {
				fs.patchJump(prevFall, fs.pc())
				prevFall = -1
			}
			hasClause = true
		case p.at(lexer.DEFAULT):
			if defaultSeen {
				syntaxErrf(fs, "multiple default clauses in switch")
			}
			p.advance()
			p.expect(lexer.COLON)
			defaultSeen = true
			defaultPC = fs.pc()
			hasClause = true
		default:
			if !hasClause {
				syntaxErrf(fs, "statement before first case in switch")
			}
			if p.at(lexer.EOF) {
				syntaxErrf(fs, "unexpected end of input in switch")
			}
			p.parseStmt()
		}
	}
	p.expect(lexer.RBRACE)

	if prevMiss >= 0 {
		if defaultSeen {
			fs.patchJump(prevMiss, defaultPC)
		} else {
			fs.patchJump(prevMiss, fs.pc())
		}
	}
	p.closeLabelSite(rec, savedLen, 0)
}

func (p *Parser) tryStatement() {
	fs := p.fs
	p.advance()
	fs.CatchDepth++

	regCatch := fs.allocTemp()
	if regCatch > amax {
		rangeErrf(fs, "catch register %d out of range", regCatch)
	}
	tcPC := fs.emitABC(bytecode.OpTryCatch, 0, regOp(regCatch), regOp(0), p.line())
	slotCatch := fs.emitJump(bytecode.OpJump, p.line())
	slotFin := fs.emitJump(bytecode.OpJump, p.line())

	p.parseBlock()
	fs.emitABC(bytecode.OpEndTry, 0, regOp(0), regOp(0), p.line())

	flags := 0
	nameIdx := 0
	fs.patchJump(slotCatch, fs.pc())
	if p.at(lexer.CATCH) {
		flags |= bytecode.TryCatchHaveCatch | bytecode.TryCatchCatchBinding
		p.advance()
		p.expect(lexer.LPAREN)
		name := p.expectBindingIdent()
		p.expect(lexer.RPAREN)
		nameIdx = fs.addConstant(value.String(name))
		if nameIdx > amax {
			rangeErrf(fs, "catch binding name constant %d out of range", nameIdx)
		}

		// The catch variable lives in a fresh declarative environment at
		// runtime: shadow any register binding with the slow-path
		// sentinel for the duration of the catch block.
		old, had := fs.VarMap[name]
		fs.bindReg(name, slowBinding)
		fs.emitA_BC(bytecode.OpPutVar, regCatch, nameIdx, p.line())
		p.parseBlock()
		fs.emitABC(bytecode.OpEndCatch, 0, regOp(0), regOp(0), p.line())
		if had {
			fs.VarMap[name] = old
		} else {
			delete(fs.VarMap, name)
		}
	}

	fs.patchJump(slotFin, fs.pc())
	if p.at(lexer.FINALLY) {
		flags |= bytecode.TryCatchHaveFinally
		p.advance()
		p.parseBlock()
		fs.emitABC(bytecode.OpEndFin, 0, regOp(0), regOp(0), p.line())
	}

	if flags&(bytecode.TryCatchHaveCatch|bytecode.TryCatchHaveFinally) == 0 {
		syntaxErrf(fs, "missing catch or finally after try")
	}
	fs.Code[tcPC] = bytecode.EncodeABC(bytecode.OpTryCatch, uint8(flags),
		bytecode.Reg(uint8(regCatch)), bytecode.Const(uint8(nameIdx)))
	fs.CatchDepth--
}

func (p *Parser) withStatement() {
	fs := p.fs
	if fs.IsStrict {
		syntaxErrf(fs, "with statement not allowed in strict mode")
	}
	p.advance()
	p.expect(lexer.LPAREN)
	obj := p.parseExpr(0)
	p.expect(lexer.RPAREN)
	objReg := p.ivToReg(obj)
	if objReg > amax {
		rangeErrf(fs, "with target register %d out of range", objReg)
	}

	fs.CatchDepth++
	fs.WithDepth++
	fs.emitABC(bytecode.OpTryCatch, bytecode.TryCatchWithBinding,
		regOp(objReg), regOp(0), p.line())
	slot1 := fs.emitJump(bytecode.OpJump, p.line())
	slot2 := fs.emitJump(bytecode.OpJump, p.line())
	p.parseStmt()
	fs.emitABC(bytecode.OpEndTry, 0, regOp(0), regOp(0), p.line())
	fs.patchJump(slot1, fs.pc())
	fs.patchJump(slot2, fs.pc())
	fs.WithDepth--
	fs.CatchDepth--
}

func (p *Parser) throwStatement() {
	fs := p.fs
	p.advance()
	if p.cur.LineTerm {
		syntaxErrf(fs, "no line break allowed after throw")
	}
	iv := p.parseExpr(0)
	s := p.ivToRegConst(iv, allowConst)
	fs.emitABC(bytecode.OpThrow, 0, specOperand(s), regOp(0), p.line())
	p.semicolon()
}

func (p *Parser) returnStatement() {
	fs := p.fs
	p.advance()
	if !fs.IsFunction {
		syntaxErrf(fs, "return outside a function")
	}
	flags := 0
	if fs.CatchDepth == 0 {
		flags |= bytecode.ReturnFast
	}
	if p.stmtTerminates() {
		fs.emitABC(bytecode.OpReturn, flags, regOp(0), regOp(0), p.line())
		p.semicolon()
		return
	}
	iv := p.parseExpr(0)
	s := p.ivToRegConst(iv, allowConst)
	// Tail position means the CALL was the last word emitted and the
	// return value is exactly its result register.
	tail := fs.LastWasCall && fs.LastCallPC == fs.pc()-1 &&
		!s.isConst && s.index == fs.LastCallBase
	if tail && fs.CatchDepth == 0 && !p.opts.NoTailCalls {
		// Convert `return f(...)` into a tail call: back-patch the CALL's
		// flag bits and suppress the RETURN.
		op, a, b, c := bytecode.DecodeABC(fs.Code[fs.LastCallPC])
		fs.Code[fs.LastCallPC] = bytecode.EncodeABC(op, a|bytecode.CallFlagTailCall, b, c)
		p.semicolon()
		return
	}
	fs.emitABC(bytecode.OpReturn, flags|bytecode.ReturnHaveRetVal,
		specOperand(s), regOp(0), p.line())
	p.semicolon()
}

func (p *Parser) functionDeclaration() {
	fs := p.fs
	p.advance()
	fnum, name := p.parseFunctionLike(true, false)
	if fs.InScanning {
		fs.Decls = append(fs.Decls, Decl{Name: name, Kind: DeclFunc, FuncIndex: fnum})
	}
}

func (p *Parser) breakContinueStatement(isBreak bool) {
	fs := p.fs
	p.advance()
	word := "break"
	if !isBreak {
		word = "continue"
	}
	var rec *LabelRecord
	if (p.at(lexer.IDENT) || p.at(lexer.GET) || p.at(lexer.SET)) && !p.cur.LineTerm {
		name := p.cur.Literal
		p.advance()
		rec = fs.Labels.findNamed(name)
		if rec == nil {
			syntaxErrf(fs, "%s label %q not found", word, name)
		}
		if !isBreak && !rec.AllowContinue {
			syntaxErrf(fs, "continue label %q does not name an iteration statement", name)
		}
	} else {
		rec = fs.Labels.findClosest(isBreak)
		if rec == nil {
			syntaxErrf(fs, "%s outside of a breakable statement", word)
		}
	}

	closest := fs.Labels.findClosest(isBreak)
	fast := closest != nil && closest.PCLabel == rec.PCLabel &&
		rec.CatchDepth == fs.CatchDepth
	if fast {
		jmp := fs.emitJump(bytecode.OpJump, p.line())
		if isBreak {
			fs.patchJump(jmp, rec.BreakPatchPC)
		} else {
			fs.patchJump(jmp, rec.ContinuePatchPC)
		}
	} else {
		op := bytecode.OpBreak
		if !isBreak {
			op = bytecode.OpContinue
		}
		fs.emitA_BC(op, 0, rec.ID, p.line())
	}
	p.semicolon()
}

// openLabelSite emits the three-word label site (LABEL id, break jump
// slot, continue jump slot) and pushes one anonymous record plus one
// record per explicit label, all sharing the site.
func (p *Parser) openLabelSite(labels []string, allowContinue bool) *LabelRecord {
	fs := p.fs
	line := p.line()
	rec := &LabelRecord{
		CatchDepth:    fs.CatchDepth,
		AllowBreak:    true,
		AllowContinue: allowContinue,
	}
	fs.Labels.push(rec)
	if rec.ID > bcMax {
		rangeErrf(fs, "too many labels in function")
	}
	rec.PCLabel = fs.emitA_BC(bytecode.OpLabel, 0, rec.ID, line)
	rec.BreakPatchPC = fs.emitJump(bytecode.OpJump, line)
	rec.ContinuePatchPC = fs.emitJump(bytecode.OpJump, line)
	for _, name := range labels {
		nr := &LabelRecord{
			Name:            name,
			PCLabel:         rec.PCLabel,
			BreakPatchPC:    rec.BreakPatchPC,
			ContinuePatchPC: rec.ContinuePatchPC,
			CatchDepth:      rec.CatchDepth,
			AllowBreak:      true,
			AllowContinue:   allowContinue,
		}
		fs.Labels.push(nr)
		nr.ID = rec.ID // all records of one site resolve to one label id
	}
	return rec
}

// closeLabelSite emits ENDLABEL, patches the break slot to the end and
// the continue slot to contTarget, and pops the site's records.
func (p *Parser) closeLabelSite(rec *LabelRecord, savedLen int, contTarget int) {
	fs := p.fs
	// Break lands on the ENDLABEL itself so the interpreter pops the
	// label site before falling out.
	endLabelPC := fs.pc()
	fs.emitA_BC(bytecode.OpEndLabel, 0, rec.ID, p.line())
	fs.patchJump(rec.BreakPatchPC, endLabelPC)
	if rec.AllowContinue {
		fs.patchJump(rec.ContinuePatchPC, contTarget)
	} else {
		fs.patchJump(rec.ContinuePatchPC, endLabelPC)
	}
	fs.Labels.truncate(savedLen)
}
