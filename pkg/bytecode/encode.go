package bytecode

// Instruction word layout: a 32-bit word decomposed as either
//
//	OP(6) A(8) B(9) C(9)   -- RegConst encoding: ABC
//	OP(6) A(8) BC(18)      -- wide unsigned index: A_BC
//	OP(6) ABC(26)          -- signed, biased offset: Jump
//
// B and C each reserve their top bit as a "this operand is a constant
// pool index, not a register index" marker; the remaining 8 bits address
// registers or constants 0-255.
const (
	AMax   = 0xFF      // 8-bit slot A
	IdxMax = 0xFF      // 8-bit register/constant index inside B or C
	BCMax  = 1<<18 - 1 // 18-bit wide unsigned index (LDCONST, LDINTX, ...)

	jumpBits = 26
	jumpBias = 1 << (jumpBits - 1)
	// JumpMin/JumpMax bound the signed offset a JUMP's 26-bit biased field
	// can represent.
	JumpMin = -jumpBias
	JumpMax = jumpBias - 1

	constFlagBit = 1 << 8 // top bit of a 9-bit B/C field

	// LdIntBias is the bias applied to OpLdInt's BC field: the loaded
	// value is BC - LdIntBias, giving an 18-bit signed immediate. OpLdIntX
	// extends a prior OpLdInt by 18 more low bits (value = prev<<18 | BC),
	// covering the full 24-bit signed integer immediate range.
	LdIntBias = 1 << 17

	// LdIntMin/LdIntMax bound the single-instruction OpLdInt immediate.
	LdIntMin = -LdIntBias
	LdIntMax = LdIntBias - 1
)

// RegConst identifies an operand that may name either a register or a
// constant-pool slot, distinguished by the per-slot constant-marker bit.
type RegConst struct {
	Index   uint8
	IsConst bool
}

func Reg(idx uint8) RegConst   { return RegConst{Index: idx} }
func Const(idx uint8) RegConst { return RegConst{Index: idx, IsConst: true} }

func (rc RegConst) field() uint32 {
	f := uint32(rc.Index)
	if rc.IsConst {
		f |= constFlagBit
	}
	return f
}

func decodeField(f uint32) RegConst {
	return RegConst{Index: uint8(f & 0xFF), IsConst: f&constFlagBit != 0}
}

// EncodeABC packs the OP(6) A(8) B(9) C(9) layout.
func EncodeABC(op OpCode, a uint8, b, c RegConst) uint32 {
	return uint32(op)<<26 | uint32(a)<<18 | b.field()<<9 | c.field()
}

// DecodeABC unpacks a word encoded by EncodeABC.
func DecodeABC(word uint32) (op OpCode, a uint8, b, c RegConst) {
	op = OpCode(word >> 26)
	a = uint8((word >> 18) & 0xFF)
	b = decodeField((word >> 9) & 0x1FF)
	c = decodeField(word & 0x1FF)
	return
}

// EncodeA_BC packs the OP(6) A(8) BC(18) layout. bc must fit in 18 bits
// (0..BCMax); the emitter is responsible for shuffling indices that don't.
func EncodeA_BC(op OpCode, a uint8, bc uint32) uint32 {
	return uint32(op)<<26 | uint32(a)<<18 | (bc & BCMax)
}

// DecodeA_BC unpacks a word encoded by EncodeA_BC.
func DecodeA_BC(word uint32) (op OpCode, a uint8, bc uint32) {
	op = OpCode(word >> 26)
	a = uint8((word >> 18) & 0xFF)
	bc = word & BCMax
	return
}

// EncodeJump packs the OP(6) ABC(26) signed-biased layout used by JUMP.
// offset must lie within [JumpMin, JumpMax].
func EncodeJump(op OpCode, offset int32) uint32 {
	biased := uint32(offset+jumpBias) & (1<<jumpBits - 1)
	return uint32(op)<<26 | biased
}

// DecodeJump unpacks a word encoded by EncodeJump.
func DecodeJump(word uint32) (op OpCode, offset int32) {
	op = OpCode(word >> 26)
	biased := word & (1<<jumpBits - 1)
	offset = int32(biased) - jumpBias
	return
}

// DecodeOp reads just the opcode field, valid for any layout.
func DecodeOp(word uint32) OpCode {
	return OpCode(word >> 26)
}
