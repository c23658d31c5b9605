package compiler

import (
	"paserati/pkg/bytecode"
	"paserati/pkg/lexer"
	"paserati/pkg/value"
)

// parseFunctionLike compiles a function expression, declaration, or
// accessor body. cur must be at the optional name (or '(' for
// accessors). On the outer function's pass 1 the inner function is
// compiled completely (both of its own passes) and registered; on the
// outer's pass 2 its body is skipped by seeking the lexer to the
// recorded closing brace. Returns the stable fnum and the
// function's name ("" if absent).
func (p *Parser) parseFunctionLike(isDecl, isSetGet bool) (int, string) {
	outer := p.fs
	inner := newFuncState(outer, p.interner)
	inner.Filename = outer.Filename
	inner.HasFile = outer.HasFile
	inner.IsFunction = true
	inner.IsDecl = isDecl
	inner.IsSetGet = isSetGet
	inner.IsStrict = outer.IsStrict

	name := ""
	if !isSetGet {
		switch {
		case p.at(lexer.IDENT) || p.at(lexer.GET) || p.at(lexer.SET):
			name = p.cur.Literal
			p.advance()
		case lexer.IsStrictReserved(p.cur.Type):
			if outer.IsStrict {
				syntaxErrf(outer, "%q is a reserved word in strict mode", p.cur.Type.String())
			}
			name, _ = lexer.KeywordSpelling(p.cur.Type)
			p.advance()
		default:
			if isDecl {
				syntaxErrf(outer, "function declaration requires a name")
			}
		}
	}
	if name != "" {
		inner.Name = name
		inner.HasName = true
	}

	p.parseFormals(inner)
	p.expect(lexer.LBRACE)

	if outer.InScanning {
		p.fs = inner
		tpl := p.compileFunctionBody(inner, lexer.RBRACE)
		p.fs = outer
		if len(outer.Inner) >= bcMax {
			rangeErrf(outer, "too many inner functions")
		}
		if !p.at(lexer.RBRACE) {
			internalErrf(outer, "inner function did not stop at closing brace")
		}
		pt := lexer.Point{Offset: p.cur.StartPos, Line: p.cur.Line}
		outer.Inner = append(outer.Inner, InnerFunc{
			Template:     tpl,
			ClosingBrace: pt,
			ClosingLine:  p.cur.Line,
		})
		p.expect(lexer.RBRACE)
		return len(outer.Inner) - 1, name
	}

	in := outer.nextInner()
	if in == nil {
		internalErrf(outer, "inner function list exhausted on pass 2")
	}
	p.lx.SetPoint(in.ClosingBrace)
	p.advance()
	p.expect(lexer.RBRACE)
	return outer.fnum - 1, name
}

// parseFormals reads '(' name, ... ')' into fs.Formals. Name validity is
// checked by the prologue emitter, after the body's directive prologue
// has settled the function's final strictness.
func (p *Parser) parseFormals(fs *FuncState) {
	p.expect(lexer.LPAREN)
	if p.at(lexer.RPAREN) {
		p.advance()
		return
	}
	for {
		var name string
		switch {
		case p.at(lexer.IDENT) || p.at(lexer.GET) || p.at(lexer.SET):
			name = p.cur.Literal
		case lexer.IsStrictReserved(p.cur.Type):
			name, _ = lexer.KeywordSpelling(p.cur.Type)
		default:
			syntaxErrf(p.fs, "expected formal parameter name, got %s", p.cur.Type.String())
		}
		fs.Formals = append(fs.Formals, name)
		p.advance()
		if !p.accept(lexer.COMMA) {
			break
		}
	}
	p.expect(lexer.RPAREN)
}

// compileFunctionBody runs the two passes over one function body:
// pass 1 scans statements collecting declarations and
// compiling inner functions, the lexer rewinds, pass 2 emits the
// prologue and the body, then peephole and the trailing RETURN.
// cur must be at the first body token; on return cur is at endTok.
func (p *Parser) compileFunctionBody(fs *FuncState, endTok lexer.TokenType) *bytecode.FunctionTemplate {
	startPt := p.curPoint

	fs.InScanning = true
	fs.InDirectivePrologue = true
	p.parseStmtsUntil(endTok)
	needShuffle := fs.NeedsShuffle

	p.rewindTo(startPt)

	fs.resetForPass2()
	p.emitPrologue(fs, needShuffle)
	fs.freezePrologue()
	p.parseStmtsUntil(endTok)

	if fs.CatchDepth != 0 || fs.WithDepth != 0 || fs.ParenLevel != 0 || fs.RecursionDepth != 0 {
		internalErrf(fs, "unbalanced nesting state at function end")
	}

	debugPrintf(debugCompiler, "pass 2 done: %d words, %d constants, %d inner, tempMax=%d\n",
		len(fs.Code), len(fs.Constants), len(fs.Inner), fs.TempMax)
	fs.peephole()
	flags := bytecode.ReturnFast
	breg := 0
	if fs.HasStmtValueReg {
		flags |= bytecode.ReturnHaveRetVal
		breg = fs.StmtValueReg
	}
	fs.emitABC(bytecode.OpReturn, flags, regOp(breg), regOp(0), p.line())
	return finalizeTemplate(fs)
}

func (p *Parser) parseStmtsUntil(endTok lexer.TokenType) {
	for !p.at(endTok) {
		if p.at(lexer.EOF) && endTok != lexer.EOF {
			syntaxErrf(p.fs, "unexpected end of input")
		}
		p.parseStmt()
	}
}

// emitPrologue emits the pass-2 function prologue: bind formals,
// reserve the implicit-return and shuffle registers,
// instantiate function declarations, and declare hoisted vars.
func (p *Parser) emitPrologue(fs *FuncState, needShuffle bool) {
	line := p.line()

	if fs.HasName && fs.IsStrict {
		if fs.Name == "eval" || fs.Name == "arguments" || lexer.IsStrictReservedName(fs.Name) {
			syntaxErrf(fs, "invalid function name %q in strict mode", fs.Name)
		}
	}

	// 1. Formals. Duplicates are a strict-mode error; last-wins otherwise.
	seen := make(map[string]bool, len(fs.Formals))
	for _, name := range fs.Formals {
		if fs.IsStrict {
			if seen[name] {
				syntaxErrf(fs, "duplicate formal parameter %q in strict mode", name)
			}
			if name == "eval" || name == "arguments" {
				syntaxErrf(fs, "invalid formal parameter name %q in strict mode", name)
			}
			if lexer.IsStrictReservedName(name) {
				syntaxErrf(fs, "formal parameter %q is a reserved word in strict mode", name)
			}
		}
		seen[name] = true
	}
	base := fs.allocTemps(len(fs.Formals))
	for i, name := range fs.Formals {
		fs.bindReg(name, base+i)
	}

	// 2. Implicit statement-value register for program/eval code.
	if fs.IsGlobal || fs.IsEval {
		fs.StmtValueReg = fs.allocTemp()
		fs.HasStmtValueReg = true
		fs.emitA_BC(bytecode.OpLdUndef, fs.StmtValueReg, 0, line)
	}

	// 3. Shuffle registers, if pass 1 saw any oversized operand.
	if needShuffle {
		fs.ensureShuffleRegs()
	}

	// 4. The fixed (non-temp) region must fit the 8-bit register fields.
	if fs.TempNext > amax+1 {
		rangeErrf(fs, "too many fixed registers (%d)", fs.TempNext)
	}

	funcCode := !fs.IsEval && !fs.IsGlobal

	// 5. Function declarations, in source order.
	for _, d := range fs.Decls {
		if d.Kind != DeclFunc {
			continue
		}
		if funcCode {
			var reg int
			if vb, ok := fs.VarMap[d.Name]; ok && vb.Reg >= 0 {
				reg = vb.Reg
			} else {
				reg = fs.allocTemp()
				fs.bindReg(d.Name, reg)
			}
			fs.emitA_BC(bytecode.OpClosure, reg, d.FuncIndex, line)
		} else {
			m := fs.mark()
			tmp := fs.allocTemp()
			fs.emitA_BC(bytecode.OpClosure, tmp, d.FuncIndex, line)
			flags := bytecode.DeclVarWritable | bytecode.DeclVarEnumerable | bytecode.DeclVarFuncDecl
			if fs.IsEval {
				flags |= bytecode.DeclVarConfigurable
			}
			nameIdx := fs.addConstant(value.String(d.Name))
			fs.emitABCSrcA(bytecode.OpDeclVar, flags, constOp(nameIdx), regOp(tmp), line)
			fs.release(m)
		}
	}

	// 6. Arguments object (function code only; before vars, which do not
	// shadow it).
	if funcCode && fs.IDAccessArguments {
		if _, ok := fs.VarMap["arguments"]; ok {
			fs.ArgumentsShadowed = true
		} else {
			fs.NeedsArguments = true
		}
	}

	// 7. Hoisted vars.
	for _, d := range fs.Decls {
		if d.Kind != DeclVar {
			continue
		}
		if _, ok := fs.VarMap[d.Name]; ok {
			continue
		}
		if funcCode {
			fs.bindReg(d.Name, fs.allocTemp())
		} else {
			flags := bytecode.DeclVarWritable | bytecode.DeclVarEnumerable |
				bytecode.DeclVarConfigurable | bytecode.DeclVarUndefValue
			nameIdx := fs.addConstant(value.String(d.Name))
			fs.emitABCSrcA(bytecode.OpDeclVar, flags, constOp(nameIdx), regOp(0), line)
		}
	}

	if fs.TempNext > amax+1 {
		rangeErrf(fs, "too many declared registers (%d)", fs.TempNext)
	}
}

// finalizeTemplate packs the function state into an immutable
// template. The varmap is attached only when slow-path access is
// possible; slow-path sentinel entries are compacted out.
func finalizeTemplate(fs *FuncState) *bytecode.FunctionTemplate {
	code := append([]uint32(nil), fs.Code...)
	consts := append([]value.Value(nil), fs.Constants...)
	inner := make([]*bytecode.FunctionTemplate, len(fs.Inner))
	for i := range fs.Inner {
		inner[i] = fs.Inner[i].Template
	}

	nregs := fs.TempMax
	if nregs < len(fs.Formals) {
		nregs = len(fs.Formals)
	}

	var vm *value.Object
	if fs.MayDirectEval || fs.IDAccessSlow || fs.IsEval || fs.IsGlobal {
		vm = value.NewObject()
		for _, name := range fs.VarMapOrdr {
			vb, ok := fs.VarMap[name]
			if !ok || vb.Reg < 0 {
				continue
			}
			vm.Set(name, value.Number(float64(vb.Reg)), value.PropWritable|value.PropEnumerable)
		}
	}

	return &bytecode.FunctionTemplate{
		Code:           code,
		Constants:      consts,
		Functions:      inner,
		NumRegs:        nregs,
		NumArgs:        len(fs.Formals),
		Name:           fs.Name,
		HasName:        fs.HasName,
		Filename:       fs.Filename,
		HasFile:        fs.HasFile,
		VarMap:         vm,
		Formals:        append([]string(nil), fs.Formals...),
		NeedsArguments: fs.NeedsArguments,
		IsStrict:       fs.IsStrict,
		Lines:          append([]bytecode.LineEntry(nil), fs.Lines...),
	}
}
