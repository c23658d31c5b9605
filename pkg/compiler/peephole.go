package compiler

import "paserati/pkg/bytecode"

// peepholePassLimit caps the jump-flattening iterations so pathological
// chains (including a jump targeting itself) terminate.
const peepholePassLimit = 6

// peephole rewrites every JUMP whose target is another JUMP to jump
// directly to the final destination, iterating to fixpoint or the pass
// cap. Running it again on already-optimized code is a no-op.
func (fs *FuncState) peephole() {
	for pass := 0; pass < peepholePassLimit; pass++ {
		changed := false
		for pc, w := range fs.Code {
			if bytecode.DecodeOp(w) != bytecode.OpJump {
				continue
			}
			_, off := bytecode.DecodeJump(w)
			target := pc + 1 + int(off)
			if target < 0 || target >= len(fs.Code) {
				continue
			}
			tw := fs.Code[target]
			if bytecode.DecodeOp(tw) != bytecode.OpJump {
				continue
			}
			_, off2 := bytecode.DecodeJump(tw)
			final := target + 1 + int(off2)
			if final == target {
				continue // target jumps to itself; nothing to gain
			}
			newOff := final - (pc + 1)
			if newOff == int(off) {
				continue
			}
			if newOff < bytecode.JumpMin || newOff > bytecode.JumpMax {
				continue
			}
			debugPrintf(debugPeephole, "peephole: pc %d retargeted %d -> %d\n", pc, target, final)
			fs.Code[pc] = bytecode.EncodeJump(bytecode.OpJump, int32(newOff))
			changed = true
		}
		if !changed {
			break
		}
	}
}
