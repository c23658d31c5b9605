// Package compiler translates ECMAScript source text into register
// bytecode in a single fused scan: a recursive-descent statement parser
// and a Pratt expression parser emit instructions directly as they go,
// with no AST in between. Each function body is parsed twice — pass 1
// collects hoisted declarations and compiles nested functions, pass 2
// emits the prologue and the body — and produces an immutable function
// template.
package compiler

import (
	"paserati/pkg/bytecode"
	"paserati/pkg/intern"
	"paserati/pkg/lexer"
	"paserati/pkg/value"
)

// DeclKind distinguishes a hoisted var from a hoisted function
// declaration.
type DeclKind int

const (
	DeclVar DeclKind = iota
	DeclFunc
)

// Decl is one hoisted declaration collected during pass 1.
type Decl struct {
	Name      string
	Kind      DeclKind
	FuncIndex int // index into FuncState.Inner, only meaningful for DeclFunc
}

// VarBinding is a variable map entry: register-bound when Reg >= 0, or
// the slow-path sentinel when Reg == slowBinding.
type VarBinding struct {
	Reg int
}

// slowBinding marks a name that is declared but must be resolved through
// the runtime environment chain; finalization compacts these entries out
// of the varmap object.
const slowBinding = -1

// InnerFunc records one fully-compiled nested function template plus the
// lexer point of its closing brace, so pass 2 of the outer function can
// skip its body instead of reparsing it.
type InnerFunc struct {
	Template     *bytecode.FunctionTemplate
	ClosingBrace lexer.Point
	ClosingLine  int
}

// FuncState holds all per-function compilation state: one per function
// being compiled, pushed on a stack (via Parent) when descending into
// an inner function literal.
type FuncState struct {
	Parent *FuncState

	Interner *intern.Table
	Filename string
	HasFile  bool

	Name    string
	HasName bool

	IsFunction bool
	IsEval     bool
	IsGlobal   bool
	IsDecl     bool
	IsSetGet   bool
	IsStrict   bool

	Formals []string

	VarMap     map[string]VarBinding
	VarMapOrdr []string // insertion order, for the finalized varmap object

	Decls []Decl
	Inner []InnerFunc
	fnum  int // pass-2 read cursor into Inner, advances in declaration order

	Code            []uint32
	Lines           []bytecode.LineEntry
	lastEmittedLine int

	Constants []value.Value

	TempFirst int
	TempNext  int
	TempMax   int

	NeedsShuffle bool
	Shuffle1     int
	Shuffle2     int
	Shuffle3     int

	Labels *LabelTable

	CatchDepth int
	WithDepth  int
	ParenLevel int

	StmtNext int // statements compiled so far
	NudCount int // nud handler invocations
	LedCount int // led handler invocations

	RecursionDepth int

	InDirectivePrologue bool
	InScanning          bool // true during pass 1

	IDAccessArguments bool
	IDAccessSlow      bool
	MayDirectEval     bool
	ArgumentsShadowed bool
	NeedsArguments    bool

	StmtValueReg    int
	HasStmtValueReg bool

	LastWasCall  bool // true immediately after emitting CALL/CALLI, for tail-call detection
	LastCallPC   int
	LastCallBase int // register base of that call's [func, this] pair

	// CurLine/CurCol/CurPos track the parser's current token position so
	// error helpers (errors_helpers.go) can locate failures without
	// threading a position through every call site.
	CurLine int
	CurCol  int
	CurPos  int
}

func newFuncState(parent *FuncState, interner *intern.Table) *FuncState {
	return &FuncState{
		Parent:   parent,
		Interner: interner,
		VarMap:   make(map[string]VarBinding),
		Labels:   newLabelTable(),
		fnum:     0,
	}
}

// resetForPass2 clears the emission-owned buffers while preserving
// declarations, formals, and inner templates.
func (fs *FuncState) resetForPass2() {
	fs.Code = nil
	fs.Lines = nil
	fs.lastEmittedLine = 0
	fs.Constants = nil
	fs.TempFirst = 0
	fs.TempNext = 0
	fs.TempMax = 0
	fs.NeedsShuffle = false
	fs.Shuffle1, fs.Shuffle2, fs.Shuffle3 = 0, 0, 0
	fs.Labels = newLabelTable()
	fs.CatchDepth = 0
	fs.WithDepth = 0
	fs.ParenLevel = 0
	fs.StmtNext = 0
	fs.NudCount = 0
	fs.LedCount = 0
	fs.InDirectivePrologue = true
	fs.InScanning = false
	fs.fnum = 0
	fs.HasStmtValueReg = false
	fs.LastWasCall = false
	fs.VarMap = make(map[string]VarBinding)
	fs.VarMapOrdr = nil
}

// bindReg creates or overwrites a register-bound variable map entry,
// tracking insertion order for the finalized varmap object.
func (fs *FuncState) bindReg(name string, reg int) {
	if _, ok := fs.VarMap[name]; !ok {
		fs.VarMapOrdr = append(fs.VarMapOrdr, name)
	}
	fs.VarMap[name] = VarBinding{Reg: reg}
}

func (fs *FuncState) lookup(name string) (VarBinding, bool) {
	if fs.WithDepth > 0 {
		// Inside a with block every identifier must go through the
		// runtime environment chain.
		return VarBinding{}, false
	}
	vb, ok := fs.VarMap[name]
	if ok && vb.Reg == slowBinding {
		return VarBinding{}, false
	}
	return vb, ok
}

func (fs *FuncState) nextInner() *InnerFunc {
	if fs.fnum >= len(fs.Inner) {
		return nil
	}
	in := &fs.Inner[fs.fnum]
	fs.fnum++
	return in
}
