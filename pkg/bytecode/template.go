package bytecode

import (
	"fmt"
	"strings"

	"paserati/pkg/value"
)

// LineEntry records that instructions starting at PC belong to source
// line Line; a run of consecutive instructions on the same line shares
// one entry, keeping the table packed.
type LineEntry struct {
	PC   int
	Line int
}

// FunctionTemplate is the immutable artifact the compiler produces.
// Nothing outside the finalizer mutates a template once built.
type FunctionTemplate struct {
	Code      []uint32
	Constants []value.Value
	Functions []*FunctionTemplate // inner templates, in fnum order

	NumRegs int // temp_max: register frame size
	NumArgs int // nargs: formal count

	Name    string
	HasName bool

	Filename string
	HasFile  bool

	// VarMap is only non-nil when slow-path variable access is possible
	// for this function; the interpreter uses it to resolve names through
	// the environment chain.
	VarMap *value.Object

	Formals []string

	// NeedsArguments is set when the function body refers to `arguments`
	// and no formal, var, or function declaration shadows it, so the
	// interpreter must materialize an arguments object on entry.
	NeedsArguments bool

	// IsStrict records the function's final strictness (initial flag
	// possibly strengthened by a "use strict" directive).
	IsStrict bool

	Lines []LineEntry
}

// LineForPC looks up the source line an instruction belongs to.
func (ft *FunctionTemplate) LineForPC(pc int) int {
	line := 0
	for _, e := range ft.Lines {
		if e.PC > pc {
			break
		}
		line = e.Line
	}
	return line
}

// Disassemble renders a human-readable instruction listing, one line
// per instruction with the constant pool appended.
func (ft *FunctionTemplate) Disassemble(name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	for pc, word := range ft.Code {
		op := DecodeOp(word)
		fmt.Fprintf(&b, "%04d %-10s", pc, op.String())
		switch op {
		case OpJump:
			_, off := DecodeJump(word)
			fmt.Fprintf(&b, " offset=%d", off)
		case OpLdReg, OpStReg, OpLdConst, OpLdInt, OpLdIntX,
			OpGetVar, OpPutVar, OpDelVar, OpTypeofId, OpClosure,
			OpLabel, OpEndLabel, OpBreak, OpContinue:
			_, a, bc := DecodeA_BC(word)
			fmt.Fprintf(&b, " a=%d bc=%d", a, bc)
		default:
			_, a, bb, cc := DecodeABC(word)
			fmt.Fprintf(&b, " a=%d b=%s c=%s", a, regConstStr(bb), regConstStr(cc))
		}
		b.WriteByte('\n')
	}
	if len(ft.Constants) > 0 {
		b.WriteString("-- constants --\n")
		for i, c := range ft.Constants {
			fmt.Fprintf(&b, "%4d: %s\n", i, c.String())
		}
	}
	return b.String()
}

func regConstStr(rc RegConst) string {
	if rc.IsConst {
		return fmt.Sprintf("k%d", rc.Index)
	}
	return fmt.Sprintf("r%d", rc.Index)
}
