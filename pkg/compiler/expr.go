package compiler

import (
	"paserati/pkg/bytecode"
	"paserati/pkg/lexer"
	"paserati/pkg/regexpc"
	"paserati/pkg/value"
)

// maxCallArgs bounds slot C of CALL/NEW, which encodes the argument
// count directly and must not be shuffled.
const maxCallArgs = 255

// objBatchMax / arrBatchMax bound how many properties/elements a single
// MPUTOBJ/MPUTARR consumes, keeping the contiguous temp range short.
const (
	objBatchMax = 8
	arrBatchMax = 16
)

var binOpFor = map[lexer.TokenType]bytecode.OpCode{
	lexer.PLUS: bytecode.OpAdd, lexer.MINUS: bytecode.OpSub,
	lexer.STAR: bytecode.OpMul, lexer.SLASH: bytecode.OpDiv, lexer.PERCENT: bytecode.OpMod,
	lexer.SHL: bytecode.OpBAsl, lexer.SHR: bytecode.OpBAsr, lexer.USHR: bytecode.OpBLsr,
	lexer.AMP: bytecode.OpBAnd, lexer.PIPE: bytecode.OpBOr, lexer.CARET: bytecode.OpBXor,
	lexer.EQ: bytecode.OpEq, lexer.NEQ: bytecode.OpNeq,
	lexer.SEQ: bytecode.OpSeq, lexer.SNEQ: bytecode.OpSNeq,
	lexer.LT: bytecode.OpLt, lexer.GT: bytecode.OpGt,
	lexer.LE: bytecode.OpLe, lexer.GE: bytecode.OpGe,
	lexer.INSTANCEOF: bytecode.OpInstOf, lexer.IN: bytecode.OpIn,
}

var assignOpFor = map[lexer.TokenType]bytecode.OpCode{
	lexer.PLUS_ASSIGN: bytecode.OpAdd, lexer.MINUS_ASSIGN: bytecode.OpSub,
	lexer.STAR_ASSIGN: bytecode.OpMul, lexer.SLASH_ASSIGN: bytecode.OpDiv,
	lexer.PERCENT_ASSIGN: bytecode.OpMod,
	lexer.SHL_ASSIGN:     bytecode.OpBAsl, lexer.SHR_ASSIGN: bytecode.OpBAsr,
	lexer.USHR_ASSIGN: bytecode.OpBLsr,
	lexer.AMP_ASSIGN:  bytecode.OpBAnd, lexer.PIPE_ASSIGN: bytecode.OpBOr,
	lexer.CARET_ASSIGN: bytecode.OpBXor,
}

// lbpOf is the left-binding-power table, including the two context
// rules: `in` is invisible while a for-header is being parsed, and
// postfix ++/-- terminate the expression when a line terminator
// precedes them (the ASI-at-postfix rule).
func (p *Parser) lbpOf() int {
	tok := p.cur
	switch tok.Type {
	case lexer.COMMA:
		return bpComma
	case lexer.QUESTION:
		return bpConditional
	case lexer.LPAREN:
		return bpCall
	case lexer.DOT, lexer.LBRACKET:
		return bpMember
	case lexer.PLUSPLUS, lexer.MINUSMINUS:
		if tok.LineTerm {
			return 0
		}
		return bpPostfix
	case lexer.IN:
		if !p.allowIn {
			return 0
		}
		return bpRelational
	}
	if assignOps[tok.Type] {
		return bpAssignment
	}
	if bp, ok := binaryLBP[tok.Type]; ok {
		return bp
	}
	return 0
}

// parseExpr is the Pratt loop: nud for the leading token, then led
// while the next operator binds tighter than rbp.
func (p *Parser) parseExpr(rbp int) ivalue {
	p.enterRecursion()
	defer p.exitRecursion()
	left := p.nud()
	return p.parseExprRest(left, rbp)
}

func (p *Parser) parseExprRest(left ivalue, rbp int) ivalue {
	for rbp < p.lbpOf() {
		left = p.led(left)
	}
	return left
}

func (p *Parser) nud() ivalue {
	fs := p.fs
	fs.NudCount++
	line := p.line()
	tok := p.cur
	switch tok.Type {
	case lexer.IDENT, lexer.GET, lexer.SET:
		p.advance()
		return varIV(tok.Literal)
	case lexer.NUMBER:
		p.advance()
		return plainIV(litSpec(value.Number(tok.NumValue)))
	case lexer.STRING:
		p.advance()
		return plainIV(litSpec(value.String(tok.Literal)))
	case lexer.TRUE:
		p.advance()
		return plainIV(litSpec(value.Bool(true)))
	case lexer.FALSE:
		p.advance()
		return plainIV(litSpec(value.Bool(false)))
	case lexer.NULL:
		p.advance()
		return plainIV(litSpec(value.Null()))
	case lexer.THIS:
		p.advance()
		dest := fs.allocTemp()
		fs.emitA_BC(bytecode.OpLdThis, dest, 0, line)
		return plainIV(regSpec(dest))
	case lexer.REGEXP:
		return p.nudRegexp()
	case lexer.LBRACKET:
		return p.nudArrayLiteral()
	case lexer.LBRACE:
		return p.nudObjectLiteral()
	case lexer.LPAREN:
		p.advance()
		fs.ParenLevel++
		saveIn := p.allowIn
		p.allowIn = true
		iv := p.parseExpr(0)
		p.allowIn = saveIn
		p.expect(lexer.RPAREN)
		fs.ParenLevel--
		return iv
	case lexer.NEW:
		return p.nudNew()
	case lexer.FUNCTION:
		p.advance()
		fnum, _ := p.parseFunctionLike(false, false)
		dest := fs.allocTemp()
		fs.emitA_BC(bytecode.OpClosure, dest, fnum, p.line())
		return plainIV(regSpec(dest))
	case lexer.DELETE:
		return p.nudDelete()
	case lexer.VOID:
		p.advance()
		op := p.parseExpr(bpMultiplicative)
		p.ivToRegConst(op, allowConst)
		return plainIV(litSpec(value.Undefined()))
	case lexer.TYPEOF:
		return p.nudTypeof()
	case lexer.PLUS:
		p.advance()
		op := p.parseExpr(bpMultiplicative)
		if op.kind == ivPlain && op.plain.kind == ispecLiteral && op.plain.lit.IsNumber() {
			return op
		}
		return p.emitUnary(bytecode.OpUnp, op)
	case lexer.MINUS:
		p.advance()
		op := p.parseExpr(bpMultiplicative)
		if op.kind == ivPlain {
			if s, ok := foldUnaryMinus(op.plain); ok {
				return plainIV(s)
			}
		}
		return p.emitUnary(bytecode.OpUnm, op)
	case lexer.TILDE:
		p.advance()
		return p.emitUnary(bytecode.OpBNot, p.parseExpr(bpMultiplicative))
	case lexer.BANG:
		p.advance()
		return p.emitUnary(bytecode.OpLNot, p.parseExpr(bpMultiplicative))
	case lexer.PLUSPLUS, lexer.MINUSMINUS:
		p.advance()
		op := p.parseExpr(bpMultiplicative)
		return p.compileIncDec(tok.Type, op, true)
	}
	syntaxErrf(fs, "unexpected token %s in expression", tok.Type.String())
	return noneIV()
}

func (p *Parser) emitUnary(op bytecode.OpCode, operand ivalue) ivalue {
	fs := p.fs
	s := p.ivToRegConst(operand, allowConst)
	var dest int
	if !s.isConst && fs.isTemp(s.index) {
		dest = s.index
	} else {
		dest = fs.allocTemp()
	}
	fs.emitABC(op, dest, specOperand(s), regOp(0), p.line())
	return plainIV(regSpec(dest))
}

func (p *Parser) nudRegexp() ivalue {
	fs := p.fs
	tok := p.cur
	line := p.line()
	p.advance()
	re, err := regexpc.Compile(tok.RegexPattern, tok.RegexFlags)
	if err != nil {
		syntaxErrf(fs, "%s", err.Error())
	}
	escIdx := fs.addConstant(value.String(re.EscapedSource))
	flagsIdx := fs.addConstant(value.String(re.Flags))
	dest := fs.allocTemp()
	fs.emitABC(bytecode.OpRegexp, dest, constOp(escIdx), constOp(flagsIdx), line)
	return plainIV(regSpec(dest))
}

func (p *Parser) nudTypeof() ivalue {
	fs := p.fs
	p.advance()
	op := p.parseExpr(bpMultiplicative)
	line := p.line()
	if op.kind == ivVar {
		if vb, ok := fs.lookup(op.varName); ok {
			dest := fs.allocTemp()
			fs.emitABC(bytecode.OpTypeof, dest, regOp(vb.Reg), regOp(0), line)
			return plainIV(regSpec(dest))
		}
		// Possibly-unresolvable name: TYPEOFID must not throw on a miss.
		p.noteSlowAccess(op.varName)
		nameIdx := fs.addConstant(value.String(op.varName))
		dest := fs.allocTemp()
		fs.emitA_BC(bytecode.OpTypeofId, dest, nameIdx, line)
		return plainIV(regSpec(dest))
	}
	s := p.ivToRegConst(op, allowConst)
	dest := fs.allocTemp()
	fs.emitABC(bytecode.OpTypeof, dest, specOperand(s), regOp(0), line)
	return plainIV(regSpec(dest))
}

func (p *Parser) nudDelete() ivalue {
	fs := p.fs
	p.advance()
	op := p.parseExpr(bpMultiplicative)
	line := p.line()
	switch op.kind {
	case ivProp:
		obj := p.specToRegConst(op.propObj, 0)
		key := p.specToRegConst(op.propKey, allowConst)
		dest := fs.allocTemp()
		fs.emitABC(bytecode.OpDelProp, dest, specOperand(obj), specOperand(key), line)
		return plainIV(regSpec(dest))
	case ivVar:
		if fs.IsStrict {
			syntaxErrf(fs, "cannot delete identifier %q in strict mode", op.varName)
		}
		p.noteSlowAccess(op.varName)
		nameIdx := fs.addConstant(value.String(op.varName))
		dest := fs.allocTemp()
		fs.emitA_BC(bytecode.OpDelVar, dest, nameIdx, line)
		return plainIV(regSpec(dest))
	default:
		// delete of a non-Reference evaluates the operand and yields true.
		p.ivToRegConst(op, allowConst)
		return plainIV(litSpec(value.Bool(true)))
	}
}

func (p *Parser) nudNew() ivalue {
	fs := p.fs
	p.advance()
	target := p.parseExpr(bpCall)
	line := p.line()
	base := fs.allocTemp()
	p.ivToForcedReg(target, base)
	fs.release(base + 1)
	nargs := 0
	if p.accept(lexer.LPAREN) {
		fs.ParenLevel++
		nargs = p.parseArguments(func() int { return fs.allocTemp() })
		p.expect(lexer.RPAREN)
		fs.ParenLevel--
	}
	fs.emitRangeB(bytecode.OpNew, base, false, base, regOp(nargs), line)
	fs.release(base + 1)
	return plainIV(regSpec(base))
}

// parseArguments parses a parenthesized argument list (cur is the first
// token after '('), forcing each argument into the next consecutive
// temp, and returns nargs.
func (p *Parser) parseArguments(nextReg func() int) int {
	fs := p.fs
	nargs := 0
	if p.at(lexer.RPAREN) {
		return 0
	}
	for {
		argReg := nextReg()
		m := fs.mark()
		iv := p.parseExpr(bpComma)
		p.ivToForcedReg(iv, argReg)
		fs.release(m)
		nargs++
		if nargs > maxCallArgs {
			rangeErrf(fs, "too many call arguments")
		}
		if !p.accept(lexer.COMMA) {
			break
		}
	}
	return nargs
}

func (p *Parser) nudArrayLiteral() ivalue {
	fs := p.fs
	line := p.line()
	p.advance()
	dest := fs.allocTemp()
	fs.emitA_BC(bytecode.OpNewArr, dest, 0, line)
	idx := 0
	maxWritten := 0
	for !p.at(lexer.RBRACKET) {
		if p.accept(lexer.COMMA) {
			idx++ // elision
			continue
		}
		m := fs.mark()
		rangeStart := fs.allocTemp()
		fs.emitLoadInt(rangeStart, idx, p.line())
		count := 0
		for !p.at(lexer.RBRACKET) {
			vreg := fs.allocTemp()
			am := fs.mark()
			iv := p.parseExpr(bpComma)
			p.ivToForcedReg(iv, vreg)
			fs.release(am)
			count++
			idx++
			if !p.accept(lexer.COMMA) {
				break
			}
			if p.at(lexer.COMMA) || p.at(lexer.RBRACKET) {
				break // elision run or trailing comma, handled by the outer loop
			}
			if count == arrBatchMax {
				break
			}
		}
		fs.emitRangeB(bytecode.OpMPutArr, dest, true, rangeStart, regOp(count+1), p.line())
		fs.release(m)
		maxWritten = idx
	}
	p.expect(lexer.RBRACKET)
	if idx > maxWritten {
		// Trailing elisions extend length without writing elements.
		m := fs.mark()
		lenReg := fs.allocTemp()
		fs.emitLoadInt(lenReg, idx, p.line())
		fs.emitABCSrcA(bytecode.OpSetALen, dest, regOp(lenReg), regOp(0), p.line())
		fs.release(m)
	}
	return plainIV(regSpec(dest))
}

// objPropKind bits track what has been seen for a property name, for the
// ES5 11.1.5 duplicate rules (duplicate data keys are an error only in
// strict mode; mixing data and accessor, or repeating an accessor kind,
// is an error in any mode).
const (
	objPropData = 1 << iota
	objPropGet
	objPropSet
)

func (p *Parser) nudObjectLiteral() ivalue {
	fs := p.fs
	line := p.line()
	p.advance()
	dest := fs.allocTemp()
	fs.emitA_BC(bytecode.OpNewObj, dest, 0, line)

	seen := make(map[string]int)
	note := func(key string, kind int) {
		prev := seen[key]
		switch {
		case kind == objPropData && prev&objPropData != 0 && fs.IsStrict:
			syntaxErrf(fs, "duplicate data property %q in object literal", key)
		case kind == objPropData && prev&(objPropGet|objPropSet) != 0,
			kind != objPropData && prev&objPropData != 0:
			syntaxErrf(fs, "property %q mixes data and accessor definitions", key)
		case kind != objPropData && prev&kind != 0:
			syntaxErrf(fs, "duplicate accessor for property %q", key)
		}
		seen[key] = prev | kind
	}

	m := fs.mark()
	rangeStart := -1
	npairs := 0
	flush := func() {
		if npairs == 0 {
			return
		}
		fs.emitRangeB(bytecode.OpMPutObj, dest, true, rangeStart, regOp(2*npairs), p.line())
		fs.release(m)
		rangeStart = -1
		npairs = 0
	}

	for !p.at(lexer.RBRACE) {
		if (p.at(lexer.GET) || p.at(lexer.SET)) && !p.peekIs(lexer.COLON) {
			isGet := p.at(lexer.GET)
			p.advance()
			key := p.parsePropertyName()
			kind := objPropGet
			op := bytecode.OpInitGet
			if !isGet {
				kind = objPropSet
				op = bytecode.OpInitSet
			}
			note(key, kind)
			flush()
			am := fs.mark()
			keyReg := fs.allocTemp()
			fs.emitA_BC(bytecode.OpLdConst, keyReg, fs.addConstant(value.String(key)), p.line())
			closReg := fs.allocTemp()
			fnum, _ := p.parseFunctionLike(false, true)
			fs.emitA_BC(bytecode.OpClosure, closReg, fnum, p.line())
			fs.emitRangeB(op, dest, true, keyReg, regOp(2), p.line())
			fs.release(am)
		} else {
			key := p.parsePropertyName()
			note(key, objPropData)
			p.expect(lexer.COLON)
			if rangeStart < 0 {
				m = fs.mark()
				rangeStart = fs.TempNext
			}
			keyReg := fs.allocTemp()
			fs.emitA_BC(bytecode.OpLdConst, keyReg, fs.addConstant(value.String(key)), p.line())
			vreg := fs.allocTemp()
			am := fs.mark()
			iv := p.parseExpr(bpComma)
			p.ivToForcedReg(iv, vreg)
			fs.release(am)
			npairs++
			if npairs == objBatchMax {
				flush()
			}
		}
		if !p.accept(lexer.COMMA) {
			break
		}
	}
	flush()
	p.expect(lexer.RBRACE)
	return plainIV(regSpec(dest))
}

// parsePropertyName accepts an IdentifierName (keywords included), a
// string literal, or a numeric literal, returning the property key text.
func (p *Parser) parsePropertyName() string {
	switch p.cur.Type {
	case lexer.STRING:
		s := p.cur.Literal
		p.advance()
		return s
	case lexer.NUMBER:
		s := value.Number(p.cur.NumValue).String()
		p.advance()
		return s
	default:
		return p.identifierName()
	}
}

func (p *Parser) led(left ivalue) ivalue {
	fs := p.fs
	fs.LedCount++
	tok := p.cur
	switch tok.Type {
	case lexer.DOT:
		obj := p.ivToRegConst(left, allowConst)
		p.noReservedOnce = true
		p.advance()
		name := p.cur
		if name.Type != lexer.IDENT {
			syntaxErrf(fs, "expected property name after '.', got %s", name.Type.String())
		}
		// A '/' after the property name is always division.
		p.noRegexpOnce = true
		p.advance()
		return propIV(obj, litSpec(value.String(name.Literal)))
	case lexer.LBRACKET:
		obj := p.ivToRegConst(left, allowConst)
		p.advance()
		saveIn := p.allowIn
		p.allowIn = true
		keyIV := p.parseExpr(0)
		p.allowIn = saveIn
		p.expect(lexer.RBRACKET)
		key := p.ivToRegConst(keyIV, allowConst)
		return propIV(obj, key)
	case lexer.LPAREN:
		return p.ledCall(left)
	case lexer.PLUSPLUS, lexer.MINUSMINUS:
		p.advance()
		return p.compileIncDec(tok.Type, left, false)
	case lexer.QUESTION:
		return p.ledConditional(left)
	case lexer.ANDAND, lexer.OROR:
		return p.ledLogical(left, tok.Type)
	case lexer.COMMA:
		if left.kind != ivPlain {
			p.ivToRegConst(left, allowConst)
		}
		p.advance()
		return p.parseExpr(bpComma)
	}
	if assignOps[tok.Type] {
		return p.ledAssign(left, tok.Type)
	}
	if op, ok := binOpFor[tok.Type]; ok {
		// Literal operands stay literal so arithIV can fold them.
		var l, r ispec
		if left.kind == ivPlain && left.plain.kind == ispecLiteral {
			l = left.plain
		} else {
			l = p.ivToRegConst(left, allowConst)
		}
		p.advance()
		right := p.parseExpr(binaryLBP[tok.Type])
		if right.kind == ivPlain && right.plain.kind == ispecLiteral {
			r = right.plain
		} else {
			r = p.ivToRegConst(right, allowConst)
		}
		return arithIV(op, l, r)
	}
	syntaxErrf(fs, "unexpected operator %s", tok.Type.String())
	return noneIV()
}

func (p *Parser) ledLogical(left ivalue, tt lexer.TokenType) ivalue {
	fs := p.fs
	line := p.line()
	dest := p.ivToTempReg(left)
	truthFlag := 1 // &&: a truthy left falls into the RHS
	if tt == lexer.OROR {
		truthFlag = 0
	}
	fs.emitABC(bytecode.OpIf, truthFlag, regOp(dest), regOp(0), line)
	skip := fs.emitJump(bytecode.OpJump, line)
	p.advance()
	// Right-associative precedence step.
	rhs := p.parseExpr(binaryLBP[tt] - 1)
	p.ivToForcedReg(rhs, dest)
	fs.patchJump(skip, fs.pc())
	return plainIV(regSpec(dest))
}

func (p *Parser) ledConditional(left ivalue) ivalue {
	fs := p.fs
	line := p.line()
	c := p.ivToRegConst(left, allowConst)
	fs.emitABC(bytecode.OpIf, 1, specOperand(c), regOp(0), line)
	jmpElse := fs.emitJump(bytecode.OpJump, line)
	dest := fs.allocTemp()
	p.advance()
	thenIV := p.parseExpr(bpComma)
	p.ivToForcedReg(thenIV, dest)
	jmpEnd := fs.emitJump(bytecode.OpJump, p.line())
	p.expect(lexer.COLON)
	fs.patchJump(jmpElse, fs.pc())
	elseIV := p.parseExpr(bpConditional - 1)
	p.ivToForcedReg(elseIV, dest)
	fs.patchJump(jmpEnd, fs.pc())
	return plainIV(regSpec(dest))
}

func (p *Parser) ledCall(left ivalue) ivalue {
	fs := p.fs
	line := p.line()
	p.advance()
	fs.ParenLevel++

	flags := 0
	var base int
	switch left.kind {
	case ivVar:
		name := left.varName
		if name == "eval" {
			// Direct eval by syntactic name.
			flags |= bytecode.CallFlagEval
			fs.MayDirectEval = true
		}
		if vb, ok := fs.lookup(name); ok {
			base = fs.allocTemps(2)
			fs.emitRangeA(bytecode.OpCsReg, base, regOp(vb.Reg), regOp(0), line)
		} else {
			p.noteSlowAccess(name)
			nameIdx := fs.addConstant(value.String(name))
			base = fs.allocTemps(2)
			fs.emitRangeA(bytecode.OpCsVar, base, constOp(nameIdx), regOp(0), line)
		}
	case ivProp:
		obj := p.specToRegConst(left.propObj, allowConst)
		key := p.specToRegConst(left.propKey, allowConst)
		base = fs.allocTemps(2)
		fs.emitRangeA(bytecode.OpCsProp, base, specOperand(obj), specOperand(key), line)
	default:
		s := p.ivToRegConst(left, 0)
		base = fs.allocTemps(2)
		fs.emitRangeA(bytecode.OpCsReg, base, regOp(s.index), regOp(0), line)
	}

	nargs := p.parseArguments(func() int { return fs.allocTemp() })
	p.expect(lexer.RPAREN)
	fs.ParenLevel--
	pcCall := fs.emitRangeB(bytecode.OpCall, flags, true, base, regOp(nargs), p.line())
	fs.LastWasCall = true
	fs.LastCallPC = pcCall
	fs.LastCallBase = base
	fs.release(base + 1)
	return plainIV(regSpec(base))
}

func (p *Parser) ledAssign(left ivalue, tt lexer.TokenType) ivalue {
	fs := p.fs
	line := p.line()
	p.advance()

	if left.kind == ivVar && fs.IsStrict &&
		(left.varName == "eval" || left.varName == "arguments") {
		syntaxErrf(fs, "cannot assign to %q in strict mode", left.varName)
	}

	if tt == lexer.ASSIGN {
		switch left.kind {
		case ivVar:
			rhs := p.parseExpr(bpAssignment - 1)
			if vb, ok := fs.lookup(left.varName); ok {
				p.ivToForcedReg(rhs, vb.Reg)
				return plainIV(regSpec(vb.Reg))
			}
			p.noteSlowAccess(left.varName)
			val := p.ivToTempReg(rhs)
			nameIdx := fs.addConstant(value.String(left.varName))
			fs.emitA_BC(bytecode.OpPutVar, val, nameIdx, p.line())
			return plainIV(regSpec(val))
		case ivProp:
			obj := p.specToRegConst(left.propObj, 0)
			rhs := p.parseExpr(bpAssignment - 1)
			val := p.ivToRegConst(rhs, allowConst)
			fs.emitABCSrcA(bytecode.OpPutProp, obj.index,
				specOperand(p.specToRegConst(left.propKey, allowConst)),
				specOperand(val), p.line())
			return plainIV(val)
		default:
			// Invalid LHS: evaluate both sides, then raise at runtime.
			p.ivToRegConst(left, allowConst)
			rhs := p.parseExpr(bpAssignment - 1)
			p.ivToRegConst(rhs, allowConst)
			fs.emitABC(bytecode.OpInvLhs, 0, regOp(0), regOp(0), line)
			return plainIV(litSpec(value.Undefined()))
		}
	}

	op := assignOpFor[tt]
	switch left.kind {
	case ivVar:
		if vb, ok := fs.lookup(left.varName); ok {
			rhs := p.parseExpr(bpAssignment - 1)
			r := p.ivToRegConst(rhs, allowConst)
			fs.emitABC(op, vb.Reg, regOp(vb.Reg), specOperand(r), p.line())
			return plainIV(regSpec(vb.Reg))
		}
		p.noteSlowAccess(left.varName)
		nameIdx := fs.addConstant(value.String(left.varName))
		cur := fs.allocTemp()
		fs.emitA_BC(bytecode.OpGetVar, cur, nameIdx, line)
		rhs := p.parseExpr(bpAssignment - 1)
		r := p.ivToRegConst(rhs, allowConst)
		fs.emitABC(op, cur, regOp(cur), specOperand(r), p.line())
		fs.emitA_BC(bytecode.OpPutVar, cur, nameIdx, p.line())
		return plainIV(regSpec(cur))
	case ivProp:
		obj := p.specToRegConst(left.propObj, 0)
		key := p.specToRegConst(left.propKey, allowConst)
		cur := fs.allocTemp()
		fs.emitABC(bytecode.OpGetProp, cur, specOperand(obj), specOperand(key), line)
		rhs := p.parseExpr(bpAssignment - 1)
		r := p.ivToRegConst(rhs, allowConst)
		fs.emitABC(op, cur, regOp(cur), specOperand(r), p.line())
		fs.emitABCSrcA(bytecode.OpPutProp, obj.index, specOperand(key), regOp(cur), p.line())
		return plainIV(regSpec(cur))
	default:
		p.ivToRegConst(left, allowConst)
		rhs := p.parseExpr(bpAssignment - 1)
		p.ivToRegConst(rhs, allowConst)
		fs.emitABC(bytecode.OpInvLhs, 0, regOp(0), regOp(0), line)
		return plainIV(litSpec(value.Undefined()))
	}
}

// compileIncDec handles the four increment/decrement shapes:
// prefix returns the new value, postfix the coerced old value; the write
// target may be a register binding, a slow-path variable, or a property.
func (p *Parser) compileIncDec(tt lexer.TokenType, target ivalue, prefix bool) ivalue {
	fs := p.fs
	line := p.line()
	op := bytecode.OpInc
	if tt == lexer.MINUSMINUS {
		op = bytecode.OpDec
	}

	if target.kind == ivVar && fs.IsStrict &&
		(target.varName == "eval" || target.varName == "arguments") {
		syntaxErrf(fs, "cannot modify %q in strict mode", target.varName)
	}

	readInto := func(dst int) {
		switch target.kind {
		case ivVar:
			if vb, ok := fs.lookup(target.varName); ok {
				fs.emitABC(bytecode.OpToNum, dst, regOp(vb.Reg), regOp(0), line)
				return
			}
			p.noteSlowAccess(target.varName)
			nameIdx := fs.addConstant(value.String(target.varName))
			fs.emitA_BC(bytecode.OpGetVar, dst, nameIdx, line)
			fs.emitABC(bytecode.OpToNum, dst, regOp(dst), regOp(0), line)
		case ivProp:
			obj := p.specToRegConst(target.propObj, 0)
			key := p.specToRegConst(target.propKey, allowConst)
			fs.emitABC(bytecode.OpGetProp, dst, specOperand(obj), specOperand(key), line)
			fs.emitABC(bytecode.OpToNum, dst, regOp(dst), regOp(0), line)
			target.propObj = obj
			target.propKey = key
		}
	}
	writeBack := func(src int) {
		switch target.kind {
		case ivVar:
			if vb, ok := fs.lookup(target.varName); ok {
				fs.emitA_BC(bytecode.OpLdReg, vb.Reg, src, line)
				return
			}
			nameIdx := fs.addConstant(value.String(target.varName))
			fs.emitA_BC(bytecode.OpPutVar, src, nameIdx, line)
		case ivProp:
			fs.emitABCSrcA(bytecode.OpPutProp, target.propObj.index,
				specOperand(target.propKey), regOp(src), line)
		}
	}

	if target.kind != ivVar && target.kind != ivProp {
		p.ivToRegConst(target, allowConst)
		fs.emitABC(bytecode.OpInvLhs, 0, regOp(0), regOp(0), line)
		return plainIV(litSpec(value.Undefined()))
	}

	if prefix {
		tmp := fs.allocTemp()
		readInto(tmp)
		fs.emitABC(op, tmp, regOp(tmp), regOp(0), line)
		writeBack(tmp)
		return plainIV(regSpec(tmp))
	}
	old := fs.allocTemp()
	readInto(old)
	upd := fs.allocTemp()
	fs.emitABC(op, upd, regOp(old), regOp(0), line)
	writeBack(upd)
	fs.release(old + 1)
	return plainIV(regSpec(old))
}
