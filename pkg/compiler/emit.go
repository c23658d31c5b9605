package compiler

import "paserati/pkg/bytecode"

const (
	amax  = bytecode.AMax
	bcMax = bytecode.BCMax
)

// operand is a pre-shuffle, possibly-wide register or constant index;
// the emitter narrows it to the instruction's 8/9-bit field, spilling
// through a shuffle register when it doesn't fit.
type operand struct {
	idx     int
	isConst bool
}

func regOp(i int) operand   { return operand{idx: i} }
func constOp(i int) operand { return operand{idx: i, isConst: true} }

func (fs *FuncState) emitWord(w uint32, line int) int {
	pc := len(fs.Code)
	fs.Code = append(fs.Code, w)
	if line != fs.lastEmittedLine || len(fs.Lines) == 0 {
		fs.Lines = append(fs.Lines, bytecode.LineEntry{PC: pc, Line: line})
		fs.lastEmittedLine = line
	}
	fs.LastWasCall = false
	return pc
}

func (fs *FuncState) pc() int { return len(fs.Code) }

// ensureShuffleRegs reserves shuffle1/2/3 the first time shuffling is
// actually needed. Pass 1 records NeedsShuffle so pass 2's prologue can
// reserve them up front; if shuffling is discovered mid-emission on
// pass 1 itself we still reserve registers now so pass 1's own
// (throwaway) bytecode stays internally consistent.
func (fs *FuncState) ensureShuffleRegs() {
	if fs.NeedsShuffle {
		return
	}
	fs.NeedsShuffle = true
	base := fs.allocTemps(3)
	fs.Shuffle1, fs.Shuffle2, fs.Shuffle3 = base, base+1, base+2
	debugPrintf(debugEmit, "reserved shuffle registers %d..%d\n", base, base+2)
}

// narrowA returns a register index that fits the 8-bit A slot,
// shuffling through shuffle1 if idx doesn't. If idx is a load-side use
// (isSource true) a leading LDREG is emitted; otherwise the caller is
// responsible for emitting a trailing STREG to flush the real value
// back to idx after the main instruction.
func (fs *FuncState) narrowA(idx int, isSource bool, line int) (small int, needsFlush bool) {
	if idx <= amax {
		return idx, false
	}
	fs.ensureShuffleRegs()
	if isSource {
		fs.emitA_BCRaw(bytecode.OpLdReg, fs.Shuffle1, idx, line)
		return fs.Shuffle1, false
	}
	return fs.Shuffle1, true
}

// narrowBC narrows a B/C slot operand (register or constant) to the
// 9-bit field (8 bits of index + the constant-marker bit), preloading
// through shuffle2/shuffle3 via LDREG/LDCONST when the index overflows.
func (fs *FuncState) narrowBC(o operand, useShuffle3 bool, line int) bytecode.RegConst {
	if o.idx <= amax {
		if o.isConst {
			return bytecode.Const(uint8(o.idx))
		}
		return bytecode.Reg(uint8(o.idx))
	}
	fs.ensureShuffleRegs()
	shuffleReg := fs.Shuffle2
	if useShuffle3 {
		shuffleReg = fs.Shuffle3
	}
	if o.isConst {
		fs.emitA_BCRaw(bytecode.OpLdConst, shuffleReg, o.idx, line)
	} else {
		fs.emitA_BCRaw(bytecode.OpLdReg, shuffleReg, o.idx, line)
	}
	return bytecode.Reg(uint8(shuffleReg))
}

// emitA_BCRaw emits an A_BC-layout instruction without any shuffling of
// its own (used internally for LDREG/LDCONST preloads, whose own A slot
// is always a shuffle register and therefore already narrow).
func (fs *FuncState) emitA_BCRaw(op bytecode.OpCode, a int, bc int, line int) int {
	return fs.emitWord(bytecode.EncodeA_BC(op, uint8(a), uint32(bc)), line)
}

// emitABC emits an OP A B C instruction, shuffling any oversized
// operand through a reserved register.
func (fs *FuncState) emitABC(op bytecode.OpCode, a int, b, c operand, line int) int {
	bc := fs.narrowBC(b, false, line)
	cc := fs.narrowBC(c, true, line)
	aSmall, needsFlush := fs.narrowA(a, false, line)
	pc := fs.emitWord(bytecode.EncodeABC(op, uint8(aSmall), bc, cc), line)
	if needsFlush {
		fs.emitA_BCRaw(bytecode.OpStReg, fs.Shuffle1, a, line)
	}
	return pc
}

// emitABCSrcA is emitABC for opcodes whose A slot is read rather than
// written (PUTPROP's object, MPUTOBJ/MPUTARR's target object): an
// oversized A is preloaded into shuffle1 with LDREG instead of flushed
// back with STREG.
func (fs *FuncState) emitABCSrcA(op bytecode.OpCode, a int, b, c operand, line int) int {
	bc := fs.narrowBC(b, false, line)
	cc := fs.narrowBC(c, true, line)
	aSmall, _ := fs.narrowA(a, true, line)
	return fs.emitWord(bytecode.EncodeABC(op, uint8(aSmall), bc, cc), line)
}

// emitA_BC emits an OP A BC instruction (A a register, BC a wide
// unsigned index that never needs constant-flag handling). Only slot A
// can overflow its field; BC natively spans up to bcMax.
func (fs *FuncState) emitA_BC(op bytecode.OpCode, a int, bc int, line int) int {
	if bc > bcMax {
		rangeErrf(fs, "operand index %d exceeds maximum %d", bc, bcMax)
	}
	aSmall, needsFlush := fs.narrowA(a, false, line)
	pc := fs.emitWord(bytecode.EncodeA_BC(op, uint8(aSmall), uint32(bc)), line)
	if needsFlush {
		fs.emitA_BCRaw(bytecode.OpStReg, fs.Shuffle1, a, line)
	}
	return pc
}

// emitJump emits a placeholder jump (offset 0) and returns its pc for a
// later patchJump call.
func (fs *FuncState) emitJump(op bytecode.OpCode, line int) int {
	return fs.emitWord(bytecode.EncodeJump(op, 0), line)
}

// patchJump rewrites the jump at pc to target targetPC. The offset is
// relative to the instruction following the jump, matching the
// peephole optimizer's and interpreter's addressing convention.
func (fs *FuncState) patchJump(pc, targetPC int) {
	offset := targetPC - (pc + 1)
	if offset < bytecode.JumpMin || offset > bytecode.JumpMax {
		rangeErrf(fs, "jump offset %d out of range", offset)
	}
	op := bytecode.DecodeOp(fs.Code[pc])
	fs.Code[pc] = bytecode.EncodeJump(op, int32(offset))
}
