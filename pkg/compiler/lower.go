package compiler

import (
	"math"

	"paserati/pkg/bytecode"
	"paserati/pkg/value"
)

// Materialization flags: allowConst may return a constant index,
// requireTemp must not alias a named binding register, requireShort
// must fit the 8-bit B/C index field.
type coerceFlags uint8

const (
	allowConst coerceFlags = 1 << iota
	requireTemp
	requireShort
)

// emitLoadInt loads a signed integer that fits 24 bits into reg via
// LDINT (single instruction for 18-bit values) or LDINT+LDINTX.
func (fs *FuncState) emitLoadInt(reg int, v int, line int) {
	if v >= bytecode.LdIntMin && v <= bytecode.LdIntMax {
		fs.emitA_BC(bytecode.OpLdInt, reg, v+bytecode.LdIntBias, line)
		return
	}
	hi := v >> 18
	lo := v & bcMax
	fs.emitA_BC(bytecode.OpLdInt, reg, hi+bytecode.LdIntBias, line)
	fs.emitA_BC(bytecode.OpLdIntX, reg, lo, line)
}

// fitsLdInt reports whether n is an integral number representable by the
// LDINT(+LDINTX) 24-bit signed load, preferred over a constant-pool slot
// when a constant is not permitted.
func fitsLdInt(n float64) (int, bool) {
	if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	if n == 0 && math.Signbit(n) {
		return 0, false // -0 is not an integer load
	}
	const lim = 1 << 23
	if n < -lim || n > lim-1 {
		return 0, false
	}
	return int(n), true
}

// specToRegConst lowers an ispec to a register/constant reference,
// honoring the coercion flags.
func (p *Parser) specToRegConst(s ispec, flags coerceFlags) ispec {
	fs := p.fs
	line := p.line()
	switch s.kind {
	case ispecLiteral:
		lit := s.lit
		switch lit.Type() {
		case value.TypeUndefined, value.TypeNull, value.TypeBool:
			reg := fs.allocTemp()
			op := bytecode.OpLdUndef
			switch {
			case lit.IsNull():
				op = bytecode.OpLdNull
			case lit.IsBool() && lit.AsBool():
				op = bytecode.OpLdTrue
			case lit.IsBool():
				op = bytecode.OpLdFalse
			}
			fs.emitA_BC(op, reg, 0, line)
			return regSpec(reg)
		case value.TypeNumber:
			if flags&allowConst == 0 {
				if iv, ok := fitsLdInt(lit.AsNumber()); ok {
					reg := fs.allocTemp()
					fs.emitLoadInt(reg, iv, line)
					return regSpec(reg)
				}
			}
			idx := fs.addConstant(lit)
			return p.constToRegConst(idx, flags)
		case value.TypeString:
			idx := fs.addConstant(lit)
			return p.constToRegConst(idx, flags)
		}
		internalErrf(fs, "unexpected literal kind in ispec")
	case ispecRegConst:
		if s.isConst {
			return p.constToRegConst(s.index, flags)
		}
		if flags&requireTemp != 0 && !fs.isTemp(s.index) {
			reg := fs.allocTemp()
			fs.emitA_BC(bytecode.OpLdReg, reg, s.index, line)
			return regSpec(reg)
		}
		if flags&requireShort != 0 && s.index > amax {
			rangeErrf(fs, "register %d out of range for short operand", s.index)
		}
		return s
	}
	internalErrf(fs, "unexpected ispec kind %d", s.kind)
	return ispec{}
}

// constToRegConst applies the ALLOW_CONST/REQUIRE_SHORT flags to an
// already-interned constant index.
func (p *Parser) constToRegConst(idx int, flags coerceFlags) ispec {
	fs := p.fs
	if flags&allowConst != 0 {
		if flags&requireShort == 0 || idx <= amax {
			return constSpec(idx)
		}
	}
	reg := fs.allocTemp()
	fs.emitA_BC(bytecode.OpLdConst, reg, idx, p.line())
	return regSpec(reg)
}

func specOperand(s ispec) operand {
	if s.isConst {
		return constOp(s.index)
	}
	return regOp(s.index)
}

// ivToRegConst lowers an ivalue to a register/constant ispec, emitting
// whatever the deferred form still owes.
func (p *Parser) ivToRegConst(iv ivalue, flags coerceFlags) ispec {
	fs := p.fs
	line := p.line()
	switch iv.kind {
	case ivPlain:
		return p.specToRegConst(iv.plain, flags)
	case ivArith:
		l := p.specToRegConst(iv.arithL, allowConst)
		r := p.specToRegConst(iv.arithR, allowConst)
		dest := p.arithDest(l, flags)
		fs.emitABC(iv.arithOp, dest, specOperand(l), specOperand(r), line)
		return p.specToRegConst(regSpec(dest), flags)
	case ivProp:
		obj := p.specToRegConst(iv.propObj, allowConst)
		key := p.specToRegConst(iv.propKey, allowConst)
		dest := fs.allocTemp()
		fs.emitABC(bytecode.OpGetProp, dest, specOperand(obj), specOperand(key), line)
		return regSpec(dest)
	case ivVar:
		if vb, ok := fs.lookup(iv.varName); ok {
			return p.specToRegConst(regSpec(vb.Reg), flags)
		}
		p.noteSlowAccess(iv.varName)
		nameIdx := fs.addConstant(value.String(iv.varName))
		dest := fs.allocTemp()
		fs.emitA_BC(bytecode.OpGetVar, dest, nameIdx, line)
		return regSpec(dest)
	}
	internalErrf(fs, "cannot coerce empty ivalue")
	return ispec{}
}

// arithDest picks a result register for a pending arithmetic op: reuse
// the left operand's register when it is a free temp (reading happens
// before writing in the interpreter), otherwise a fresh temp. A named
// binding register is never reused as a destination.
func (p *Parser) arithDest(l ispec, flags coerceFlags) int {
	fs := p.fs
	if !l.isConst && fs.isTemp(l.index) && flags&requireTemp == 0 {
		return l.index
	}
	return fs.allocTemp()
}

// ivToReg lowers an ivalue all the way to a register index.
func (p *Parser) ivToReg(iv ivalue) int {
	s := p.ivToRegConst(iv, 0)
	if s.isConst {
		internalErrf(p.fs, "expected register, got constant")
	}
	return s.index
}

// ivToTempReg lowers an ivalue to a register that is guaranteed not to
// alias a named binding.
func (p *Parser) ivToTempReg(iv ivalue) int {
	s := p.ivToRegConst(iv, requireTemp)
	if s.isConst {
		internalErrf(p.fs, "expected register, got constant")
	}
	return s.index
}

// ivToForcedReg materializes an ivalue directly into reg, emitting the
// pending operation with reg as its destination when possible.
func (p *Parser) ivToForcedReg(iv ivalue, reg int) {
	fs := p.fs
	line := p.line()
	switch iv.kind {
	case ivArith:
		l := p.specToRegConst(iv.arithL, allowConst)
		r := p.specToRegConst(iv.arithR, allowConst)
		fs.emitABC(iv.arithOp, reg, specOperand(l), specOperand(r), line)
		return
	case ivProp:
		obj := p.specToRegConst(iv.propObj, allowConst)
		key := p.specToRegConst(iv.propKey, allowConst)
		fs.emitABC(bytecode.OpGetProp, reg, specOperand(obj), specOperand(key), line)
		return
	case ivVar:
		if vb, ok := fs.lookup(iv.varName); ok {
			if vb.Reg != reg {
				fs.emitA_BC(bytecode.OpLdReg, reg, vb.Reg, line)
			}
			return
		}
		p.noteSlowAccess(iv.varName)
		nameIdx := fs.addConstant(value.String(iv.varName))
		fs.emitA_BC(bytecode.OpGetVar, reg, nameIdx, line)
		return
	case ivPlain:
		s := iv.plain
		if s.kind == ispecLiteral {
			lit := s.lit
			switch lit.Type() {
			case value.TypeUndefined:
				fs.emitA_BC(bytecode.OpLdUndef, reg, 0, line)
			case value.TypeNull:
				fs.emitA_BC(bytecode.OpLdNull, reg, 0, line)
			case value.TypeBool:
				op := bytecode.OpLdFalse
				if lit.AsBool() {
					op = bytecode.OpLdTrue
				}
				fs.emitA_BC(op, reg, 0, line)
			case value.TypeNumber:
				if n, ok := fitsLdInt(lit.AsNumber()); ok {
					fs.emitLoadInt(reg, n, line)
				} else {
					fs.emitA_BC(bytecode.OpLdConst, reg, fs.addConstant(lit), line)
				}
			case value.TypeString:
				fs.emitA_BC(bytecode.OpLdConst, reg, fs.addConstant(lit), line)
			}
			return
		}
		if s.isConst {
			fs.emitA_BC(bytecode.OpLdConst, reg, s.index, line)
			return
		}
		if s.index != reg {
			fs.emitA_BC(bytecode.OpLdReg, reg, s.index, line)
		}
		return
	}
	internalErrf(fs, "cannot force empty ivalue into register")
}

// noteSlowAccess records the escape-analysis consequences of a slow-path
// identifier access. The slow flag
// is only meaningful on pass 2, when bindings actually exist; pass 1
// lookups miss everything and would poison it.
func (p *Parser) noteSlowAccess(name string) {
	fs := p.fs
	if !fs.InScanning {
		fs.IDAccessSlow = true
	}
	if name == "arguments" {
		fs.IDAccessArguments = true
	}
}

// emitRangeB emits an opcode whose B slot names a register-range start
// (CALL/NEW/MPUTOBJ/MPUTARR/INITGET/INITSET): the operand is a range
// identity, so it cannot be value-shuffled; when it exceeds the 8-bit
// field the true index is loaded into a shuffle register with LDINT and
// the indirect opcode variant is used.
func (fs *FuncState) emitRangeB(op bytecode.OpCode, a int, aIsSource bool, rangeStart int, c operand, line int) int {
	emit := fs.emitABC
	if aIsSource {
		emit = fs.emitABCSrcA
	}
	if rangeStart <= amax {
		return emit(op, a, regOp(rangeStart), c, line)
	}
	ind, ok := op.IndirectOf()
	if !ok {
		rangeErrf(fs, "register range start %d out of range for %s", rangeStart, op.String())
	}
	if rangeStart > bcMax {
		rangeErrf(fs, "register range start %d exceeds maximum %d", rangeStart, bcMax)
	}
	fs.ensureShuffleRegs()
	fs.emitLoadInt(fs.Shuffle2, rangeStart, line)
	return emit(ind, a, regOp(fs.Shuffle2), c, line)
}

// emitRangeA emits a call-setup opcode (CSREG/CSVAR/CSPROP) whose A slot
// names the base of the [func, thisBinding] register pair; same
// indirect-variant protocol as emitRangeB but on slot A.
func (fs *FuncState) emitRangeA(op bytecode.OpCode, base int, b, c operand, line int) int {
	if base <= amax {
		return fs.emitABC(op, base, b, c, line)
	}
	ind, ok := op.IndirectOf()
	if !ok {
		rangeErrf(fs, "call setup target %d out of range for %s", base, op.String())
	}
	if base > bcMax {
		rangeErrf(fs, "call setup target %d exceeds maximum %d", base, bcMax)
	}
	fs.ensureShuffleRegs()
	fs.emitLoadInt(fs.Shuffle1, base, line)
	return fs.emitABC(ind, fs.Shuffle1, b, c, line)
}
