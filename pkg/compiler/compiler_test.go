package compiler

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"paserati/pkg/bytecode"
	cerrors "paserati/pkg/errors"
	"paserati/pkg/value"
)

func compileProg(t *testing.T, src string) *bytecode.FunctionTemplate {
	t.Helper()
	tpl, err := Compile([]byte(src), "test.js", CompileOptions{})
	if err != nil {
		t.Fatalf("compile failed: %v\nsource: %s", err, src)
	}
	return tpl
}

func compileFn(t *testing.T, src string) *bytecode.FunctionTemplate {
	t.Helper()
	tpl, err := Compile([]byte(src), "test.js", CompileOptions{FuncExpr: true})
	if err != nil {
		t.Fatalf("compile failed: %v\nsource: %s", err, src)
	}
	return tpl
}

func compileErr(t *testing.T, src string, opts CompileOptions) error {
	t.Helper()
	_, err := Compile([]byte(src), "test.js", opts)
	if err == nil {
		t.Fatalf("expected compile error, got none\nsource: %s", src)
	}
	return err
}

func opcodesOf(tpl *bytecode.FunctionTemplate) []bytecode.OpCode {
	ops := make([]bytecode.OpCode, len(tpl.Code))
	for i, w := range tpl.Code {
		ops[i] = bytecode.DecodeOp(w)
	}
	return ops
}

// expectOpOrder checks that want appears as a subsequence of the
// template's opcode stream.
func expectOpOrder(t *testing.T, tpl *bytecode.FunctionTemplate, want ...bytecode.OpCode) {
	t.Helper()
	ops := opcodesOf(tpl)
	i := 0
	for _, op := range ops {
		if i < len(want) && op == want[i] {
			i++
		}
	}
	if i != len(want) {
		t.Errorf("opcode subsequence not found: matched %d of %v\nstream: %v\n%s",
			i, want, ops, tpl.Disassemble("test"))
	}
}

func findOp(tpl *bytecode.FunctionTemplate, op bytecode.OpCode) (uint32, bool) {
	for _, w := range tpl.Code {
		if bytecode.DecodeOp(w) == op {
			return w, true
		}
	}
	return 0, false
}

func countOp(tpl *bytecode.FunctionTemplate, op bytecode.OpCode) int {
	n := 0
	for _, w := range tpl.Code {
		if bytecode.DecodeOp(w) == op {
			n++
		}
	}
	return n
}

func hasConstString(tpl *bytecode.FunctionTemplate, s string) bool {
	for _, c := range tpl.Constants {
		if c.IsString() && c.AsString() == s {
			return true
		}
	}
	return false
}

func TestStrictDirectiveAndGlobalVar(t *testing.T) {
	tpl := compileProg(t, `"use strict"; var x = 1;`)

	if !tpl.IsStrict {
		t.Errorf("expected strict template")
	}
	if !hasConstString(tpl, "use strict") {
		t.Errorf("constant pool missing \"use strict\": %v", tpl.Constants)
	}

	w, ok := findOp(tpl, bytecode.OpDeclVar)
	if !ok {
		t.Fatalf("no DECLVAR in prologue:\n%s", tpl.Disassemble("test"))
	}
	_, flags, nameIdx, _ := bytecode.DecodeABC(w)
	wantFlags := uint8(bytecode.DeclVarWritable | bytecode.DeclVarEnumerable | bytecode.DeclVarConfigurable)
	if flags&wantFlags != wantFlags {
		t.Errorf("DECLVAR flags = %#x, want at least %#x", flags, wantFlags)
	}
	if !nameIdx.IsConst || !tpl.Constants[nameIdx.Index].IsString() ||
		tpl.Constants[nameIdx.Index].AsString() != "x" {
		t.Errorf("DECLVAR does not name constant \"x\"")
	}

	// Last instruction is the implicit RETURN with the FAST flag.
	last := tpl.Code[len(tpl.Code)-1]
	op, a, _, _ := bytecode.DecodeABC(last)
	if op != bytecode.OpReturn || a&bytecode.ReturnFast == 0 {
		t.Errorf("final instruction = %s flags=%#x, want RETURN FAST", op, a)
	}
}

func TestFuncExprAddReturn(t *testing.T) {
	tpl := compileFn(t, `function f(a,b){ return a+b; }`)

	if tpl.NumArgs != 2 {
		t.Errorf("nargs = %d, want 2", tpl.NumArgs)
	}
	if tpl.NumRegs != 3 {
		t.Errorf("nregs = %d, want 3", tpl.NumRegs)
	}
	if !tpl.HasName || tpl.Name != "f" {
		t.Errorf("template name = %q (has=%v), want \"f\"", tpl.Name, tpl.HasName)
	}

	want := []uint32{
		bytecode.EncodeABC(bytecode.OpAdd, 2, bytecode.Reg(0), bytecode.Reg(1)),
		bytecode.EncodeABC(bytecode.OpReturn,
			bytecode.ReturnHaveRetVal|bytecode.ReturnFast, bytecode.Reg(2), bytecode.Reg(0)),
	}
	if len(tpl.Code) < 2 || !reflect.DeepEqual(tpl.Code[:2], want) {
		t.Errorf("bytecode prefix mismatch\ngot:\n%s", tpl.Disassemble("f"))
	}
}

func TestForLoopShape(t *testing.T) {
	tpl := compileProg(t, `for (var i = 0; i < 10; i++) { x[i]; }`)

	expectOpOrder(t, tpl,
		bytecode.OpDeclVar,
		bytecode.OpLabel,
		bytecode.OpLt,
		bytecode.OpIf,
		bytecode.OpJump,
		bytecode.OpInc,
		bytecode.OpGetProp,
		bytecode.OpJump,
		bytecode.OpEndLabel,
	)
}

func TestTryCatchFinally(t *testing.T) {
	tpl := compileProg(t, `try { f(); } catch (e) { throw e; } finally { g(); }`)

	w, ok := findOp(tpl, bytecode.OpTryCatch)
	if !ok {
		t.Fatalf("no TRYCATCH emitted:\n%s", tpl.Disassemble("test"))
	}
	_, flags, regCatch, nameC := bytecode.DecodeABC(w)
	wantFlags := uint8(bytecode.TryCatchHaveCatch | bytecode.TryCatchHaveFinally | bytecode.TryCatchCatchBinding)
	if flags != wantFlags {
		t.Errorf("TRYCATCH flags = %#x, want %#x", flags, wantFlags)
	}
	if regCatch.IsConst {
		t.Errorf("catch register operand marked constant")
	}
	if !nameC.IsConst || tpl.Constants[nameC.Index].AsString() != "e" {
		t.Errorf("TRYCATCH binding name constant is not \"e\"")
	}

	for _, op := range []bytecode.OpCode{
		bytecode.OpEndTry, bytecode.OpEndCatch, bytecode.OpEndFin,
		bytecode.OpPutVar, bytecode.OpThrow,
	} {
		if _, ok := findOp(tpl, op); !ok {
			t.Errorf("missing %s:\n%s", op, tpl.Disassemble("test"))
		}
	}

	// The catch binding is a slow-path variable: `e` must be read back
	// with GETVAR, not a register access.
	if _, ok := findOp(tpl, bytecode.OpGetVar); !ok {
		t.Errorf("catch body does not read the binding via GETVAR")
	}
}

func TestDirectEvalCallFlag(t *testing.T) {
	tpl := compileFn(t, `function (){ eval("1"); }`)

	w, ok := findOp(tpl, bytecode.OpCall)
	if !ok {
		t.Fatalf("no CALL emitted:\n%s", tpl.Disassemble("test"))
	}
	_, flags, _, _ := bytecode.DecodeABC(w)
	if flags&bytecode.CallFlagEval == 0 {
		t.Errorf("CALL flags = %#x, EVALCALL bit not set", flags)
	}
	if tpl.VarMap == nil {
		t.Errorf("may_direct_eval function must carry a varmap")
	}
}

func TestNoVarmapWithoutSlowAccess(t *testing.T) {
	tpl := compileFn(t, `function (a){ return a; }`)
	if tpl.VarMap != nil {
		t.Errorf("pure register function should not carry a varmap")
	}
}

func TestStrictDuplicateObjectKey(t *testing.T) {
	err := compileErr(t, `"use strict"; var o = ({ a: 1, a: 2 });`, CompileOptions{})
	if _, ok := err.(*cerrors.SyntaxError); !ok {
		t.Fatalf("expected SyntaxError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("error message should mention the duplicate key: %v", err)
	}

	// The same literal is fine without strict mode.
	compileProg(t, `var o = ({ a: 1, a: 2 });`)
}

func TestDoWhileSemicolonRelaxation(t *testing.T) {
	// No semicolon and no line terminator after the condition.
	tpl := compileProg(t, `do { x = 1; } while (x < 3) y = 2;`)
	expectOpOrder(t, tpl, bytecode.OpLabel, bytecode.OpLt, bytecode.OpIf,
		bytecode.OpJump, bytecode.OpEndLabel)
}

func TestCompileDeterminism(t *testing.T) {
	src := `var n = 0; for (var i = 0; i < 4; i++) { n += i; } f(n);`
	a := compileProg(t, src)
	b := compileProg(t, src)
	if !reflect.DeepEqual(a.Code, b.Code) {
		t.Errorf("bytecode differs between identical compilations")
	}
	if len(a.Constants) != len(b.Constants) {
		t.Fatalf("constant pools differ in size")
	}
	for i := range a.Constants {
		if !value.SameValue(a.Constants[i], b.Constants[i]) {
			t.Errorf("constant %d differs", i)
		}
	}
}

func TestConstantPoolSameValueDedup(t *testing.T) {
	fs := &FuncState{}

	pz := fs.addConstant(value.Number(0))
	nz := fs.addConstant(value.Number(math.Copysign(0, -1)))
	if pz == nz {
		t.Errorf("+0 and -0 must not share a constant slot")
	}

	n1 := fs.addConstant(value.Number(math.NaN()))
	n2 := fs.addConstant(value.Number(math.NaN()))
	if n1 != n2 {
		t.Errorf("NaN constants must dedupe to one slot")
	}

	s1 := fs.addConstant(value.String("k"))
	s2 := fs.addConstant(value.String("k"))
	if s1 != s2 {
		t.Errorf("equal strings must dedupe to one slot")
	}
}

func TestPeepholeFlattening(t *testing.T) {
	// A chain: jump 0 -> 1 -> 2 -> RETURN at 3.
	fs := &FuncState{Code: []uint32{
		bytecode.EncodeJump(bytecode.OpJump, 0), // pc 0 -> 1
		bytecode.EncodeJump(bytecode.OpJump, 0), // pc 1 -> 2
		bytecode.EncodeJump(bytecode.OpJump, 0), // pc 2 -> 3
		bytecode.EncodeABC(bytecode.OpReturn, bytecode.ReturnFast, bytecode.Reg(0), bytecode.Reg(0)),
	}}
	fs.peephole()

	for pc, w := range fs.Code {
		if bytecode.DecodeOp(w) != bytecode.OpJump {
			continue
		}
		_, off := bytecode.DecodeJump(w)
		target := pc + 1 + int(off)
		if target != 3 {
			t.Errorf("jump at %d targets %d, want 3", pc, target)
		}
	}

	// Second run is a no-op.
	before := append([]uint32(nil), fs.Code...)
	fs.peephole()
	if !reflect.DeepEqual(before, fs.Code) {
		t.Errorf("peephole is not idempotent")
	}
}

func TestPeepholeSelfJumpTerminates(t *testing.T) {
	fs := &FuncState{Code: []uint32{
		bytecode.EncodeJump(bytecode.OpJump, -1), // jumps to itself
	}}
	fs.peephole() // must not hang
}

func TestCompiledJumpsNeverChain(t *testing.T) {
	srcs := []string{
		`for (var i = 0; i < 10; i++) { if (i == 2) continue; if (i == 5) break; f(i); }`,
		`outer: for (var i = 0; i < 3; i++) { for (var j = 0; j < 3; j++) { if (j) continue outer; } }`,
		`switch (x) { case 1: f(); case 2: g(); break; default: h(); }`,
		`while (a) { b = a ? c && d : e || g; }`,
	}
	for _, src := range srcs {
		tpl := compileProg(t, src)
		for pc, w := range tpl.Code {
			if bytecode.DecodeOp(w) != bytecode.OpJump {
				continue
			}
			_, off := bytecode.DecodeJump(w)
			target := pc + 1 + int(off)
			if target < 0 || target >= len(tpl.Code) {
				t.Errorf("jump at %d escapes bytecode bounds (%d)\n%s", pc, target, tpl.Disassemble("test"))
				continue
			}
			if bytecode.DecodeOp(tpl.Code[target]) == bytecode.OpJump {
				t.Errorf("jump at %d still targets another jump after peephole\n%s", pc, tpl.Disassemble("test"))
			}
		}
	}
}

func TestTailCallBackPatch(t *testing.T) {
	tpl := compileFn(t, `function f(){ return g(); }`)
	w, ok := findOp(tpl, bytecode.OpCall)
	if !ok {
		t.Fatalf("no CALL emitted")
	}
	_, flags, _, _ := bytecode.DecodeABC(w)
	if flags&bytecode.CallFlagTailCall == 0 {
		t.Errorf("CALL not flagged TAILCALL for `return g()`")
	}
	// The RETURN is suppressed; only the implicit trailing RETURN remains.
	if n := countOp(tpl, bytecode.OpReturn); n != 1 {
		t.Errorf("found %d RETURNs, want only the implicit one", n)
	}
}

func TestTailCallDisabledByOption(t *testing.T) {
	tpl, err := Compile([]byte(`function f(){ return g(); }`), "test.js",
		CompileOptions{FuncExpr: true, NoTailCalls: true})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	w, _ := findOp(tpl, bytecode.OpCall)
	_, flags, _, _ := bytecode.DecodeABC(w)
	if flags&bytecode.CallFlagTailCall != 0 {
		t.Errorf("TAILCALL set despite NoTailCalls option")
	}
	if n := countOp(tpl, bytecode.OpReturn); n != 2 {
		t.Errorf("found %d RETURNs, want explicit + implicit", n)
	}
}

func TestNoTailCallInsideTry(t *testing.T) {
	tpl := compileFn(t, `function f(){ try { return g(); } finally { h(); } }`)
	w, _ := findOp(tpl, bytecode.OpCall)
	_, flags, _, _ := bytecode.DecodeABC(w)
	if flags&bytecode.CallFlagTailCall != 0 {
		t.Errorf("TAILCALL set inside try, but unwinding needs the frame")
	}
	// The explicit RETURN inside try must not be FAST.
	found := false
	for _, w := range tpl.Code {
		op, a, _, _ := bytecode.DecodeABC(w)
		if op == bytecode.OpReturn && a&bytecode.ReturnHaveRetVal != 0 {
			found = true
			if a&bytecode.ReturnFast != 0 {
				t.Errorf("RETURN inside try flagged FAST")
			}
		}
	}
	if !found {
		t.Errorf("explicit RETURN missing")
	}
}

func TestInnerFunctionTemplates(t *testing.T) {
	tpl := compileFn(t, `function outer(){
		function inner(a){ return a; }
		var g = function (x, y) { return inner(x) + y; };
		return g;
	}`)

	if len(tpl.Functions) != 2 {
		t.Fatalf("inner template count = %d, want 2", len(tpl.Functions))
	}
	inner := tpl.Functions[0]
	if !inner.HasName || inner.Name != "inner" || inner.NumArgs != 1 {
		t.Errorf("first inner template = %q nargs=%d, want inner/1", inner.Name, inner.NumArgs)
	}
	if tpl.Functions[1].NumArgs != 2 {
		t.Errorf("second inner template nargs = %d, want 2", tpl.Functions[1].NumArgs)
	}
	// Both closures are instantiated: one in the prologue, one inline.
	if n := countOp(tpl, bytecode.OpClosure); n != 2 {
		t.Errorf("found %d CLOSUREs, want 2", n)
	}
}

func TestForInShapes(t *testing.T) {
	tpl := compileProg(t, `for (var k in o) { f(k); }`)
	expectOpOrder(t, tpl, bytecode.OpInitEnum, bytecode.OpLabel,
		bytecode.OpNextEnum, bytecode.OpJump, bytecode.OpEndLabel)

	// Property-access LHS stores the key with PUTPROP each iteration.
	tpl = compileProg(t, `for (x.y in o) { }`)
	expectOpOrder(t, tpl, bytecode.OpInitEnum, bytecode.OpNextEnum, bytecode.OpPutProp)
}

func TestSwitchShape(t *testing.T) {
	tpl := compileProg(t, `switch (x) { case 1: a(); case 2: b(); break; default: c(); }`)
	if n := countOp(tpl, bytecode.OpSeq); n != 2 {
		t.Errorf("found %d SEQ selector tests, want 2", n)
	}
	expectOpOrder(t, tpl, bytecode.OpLabel, bytecode.OpSeq, bytecode.OpIf,
		bytecode.OpSeq, bytecode.OpIf, bytecode.OpEndLabel)
}

func TestLogicalAndConditional(t *testing.T) {
	tpl := compileProg(t, `r = a && b; s = c || d; t = e ? 1 : 2;`)
	if n := countOp(tpl, bytecode.OpIf); n != 3 {
		t.Errorf("found %d IF instructions, want 3", n)
	}
}

func TestConstantFolding(t *testing.T) {
	tpl := compileFn(t, `function f(){ return 2 * 3 + 1; }`)
	for _, op := range []bytecode.OpCode{bytecode.OpMul, bytecode.OpAdd} {
		if _, ok := findOp(tpl, op); ok {
			t.Errorf("%s survived constant folding:\n%s", op, tpl.Disassemble("f"))
		}
	}

	tpl = compileFn(t, `function f(){ return "a" + "b"; }`)
	if _, ok := findOp(tpl, bytecode.OpAdd); ok {
		t.Errorf("string concatenation not folded")
	}
	if !hasConstString(tpl, "ab") {
		t.Errorf("folded string \"ab\" missing from pool: %v", tpl.Constants)
	}
}

func TestStrictModeSyntaxErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		opts CompileOptions
	}{
		{"delete identifier", `"use strict"; delete x;`, CompileOptions{}},
		{"with statement", `"use strict"; with (o) { x; }`, CompileOptions{}},
		{"assign to eval", `"use strict"; eval = 1;`, CompileOptions{}},
		{"assign to arguments", `function f(){ "use strict"; arguments = 1; }`, CompileOptions{FuncExpr: true}},
		{"duplicate formals", `function f(a, a){ "use strict"; }`, CompileOptions{FuncExpr: true}},
		{"eval as formal", `function f(eval){ "use strict"; }`, CompileOptions{FuncExpr: true}},
		{"reserved var name", `"use strict"; var interface = 1;`, CompileOptions{Strict: true}},
	}
	for _, tc := range cases {
		err := compileErr(t, tc.src, tc.opts)
		if _, ok := err.(*cerrors.SyntaxError); !ok {
			t.Errorf("%s: expected SyntaxError, got %T: %v", tc.name, err, err)
		}
	}
}

func TestDirectiveWithEscapesIsInert(t *testing.T) {
	// "use\x20strict" contains an escape and must not activate strict mode.
	tpl := compileProg(t, `"use\x20strict"; var x = 1;`)
	if tpl.IsStrict {
		t.Errorf("escaped directive activated strict mode")
	}
}

func TestNonStrictAllowances(t *testing.T) {
	// All of these are errors only in strict mode.
	compileProg(t, `delete x;`)
	compileProg(t, `with (o) { f(x); }`)
	compileProg(t, `eval = 1;`)
	tpl := compileFn(t, `function f(a, a){ return a; }`)
	if tpl.NumArgs != 2 {
		t.Errorf("duplicate formals: nargs = %d, want 2", tpl.NumArgs)
	}
}

func TestLabelResolutionErrors(t *testing.T) {
	cases := []string{
		`continue;`,
		`break foo;`,
		`foo: { continue foo; }`,
		`foo: foo: x = 1;`,
		`return 1;`,
	}
	for _, src := range cases {
		err := compileErr(t, src, CompileOptions{})
		if _, ok := err.(*cerrors.SyntaxError); !ok {
			t.Errorf("%q: expected SyntaxError, got %T: %v", src, err, err)
		}
	}
}

func TestLabelledBreak(t *testing.T) {
	tpl := compileProg(t, `outer: for (var i = 0; i < 3; i++) {
		for (var j = 0; j < 3; j++) { if (j == 1) break outer; }
	}`)
	if n := countOp(tpl, bytecode.OpLabel); n != 2 {
		t.Errorf("found %d LABEL sites, want 2", n)
	}
	if n := countOp(tpl, bytecode.OpEndLabel); n != 2 {
		t.Errorf("found %d ENDLABELs, want 2", n)
	}
}

func TestBreakAcrossTryIsSlow(t *testing.T) {
	tpl := compileProg(t, `while (x) { try { break; } finally { f(); } }`)
	if _, ok := findOp(tpl, bytecode.OpBreak); !ok {
		t.Errorf("break across a finally must use the slow BREAK opcode:\n%s",
			tpl.Disassemble("test"))
	}
}

func TestRecursionDepthLimit(t *testing.T) {
	src := "x = " + strings.Repeat("(", 4000) + "1" + strings.Repeat(")", 4000) + ";"
	err := compileErr(t, src, CompileOptions{})
	if _, ok := err.(*cerrors.RangeError); !ok {
		t.Fatalf("expected RangeError, got %T: %v", err, err)
	}
}

func TestErrorCarriesLineNumber(t *testing.T) {
	err := compileErr(t, "var a = 1;\nvar b = ;\n", CompileOptions{})
	if !strings.Contains(err.Error(), "(line 2)") {
		t.Errorf("error not annotated with line 2: %v", err)
	}
}

func TestRegisterShuffleOnDeepExpression(t *testing.T) {
	// Deeply nested array literals keep hundreds of temps alive at once,
	// pushing operand indices past the 8-bit instruction fields.
	depth := 200
	src := "x = " + strings.Repeat("[1,", depth) + "0" + strings.Repeat("]", depth) + ";"
	tpl := compileProg(t, src)
	if tpl.NumRegs <= 256 {
		t.Fatalf("nregs = %d, expected the expression to exceed 256 registers", tpl.NumRegs)
	}
	// Oversized register-range starts force the indirect MPUTARR variant.
	if _, ok := findOp(tpl, bytecode.OpMPutArrI); !ok {
		t.Errorf("expected indirect MPUTARRI for oversized range starts")
	}
	if _, ok := findOp(tpl, bytecode.OpStReg); !ok {
		t.Errorf("expected STREG spills for oversized destination registers")
	}
}

func TestNoShuffleForSmallFunctions(t *testing.T) {
	tpl := compileFn(t, `function f(a){ return a * 2 + 1; }`)
	for _, op := range []bytecode.OpCode{bytecode.OpStReg, bytecode.OpMPutArrI, bytecode.OpCallI} {
		if _, ok := findOp(tpl, op); ok {
			t.Errorf("small function emitted shuffle opcode %s", op)
		}
	}
}

func TestObjectLiteralAccessors(t *testing.T) {
	tpl := compileProg(t, `o = { a: 1, get b() { return 1; }, set b(v) { } };`)
	if _, ok := findOp(tpl, bytecode.OpInitGet); !ok {
		t.Errorf("missing INITGET")
	}
	if _, ok := findOp(tpl, bytecode.OpInitSet); !ok {
		t.Errorf("missing INITSET")
	}
	if _, ok := findOp(tpl, bytecode.OpMPutObj); !ok {
		t.Errorf("missing MPUTOBJ for the data property")
	}
}

func TestAccessorDataMixErrors(t *testing.T) {
	for _, src := range []string{
		`o = { get a() {}, get a() {} };`,
		`o = { a: 1, get a() {} };`,
		`o = { set a(v) {}, a: 1 };`,
	} {
		err := compileErr(t, src, CompileOptions{})
		if _, ok := err.(*cerrors.SyntaxError); !ok {
			t.Errorf("%q: expected SyntaxError, got %T", src, err)
		}
	}
}

func TestArrayLiteralElisions(t *testing.T) {
	tpl := compileProg(t, `a = [1,,2,,];`)
	if _, ok := findOp(tpl, bytecode.OpNewArr); !ok {
		t.Errorf("missing NEWARR")
	}
	if _, ok := findOp(tpl, bytecode.OpSetALen); !ok {
		t.Errorf("trailing elision requires SETALEN")
	}
}

func TestRegexpLiteral(t *testing.T) {
	tpl := compileProg(t, `r = /a+b/i;`)
	if _, ok := findOp(tpl, bytecode.OpRegexp); !ok {
		t.Errorf("missing REGEXP instruction")
	}
	if !hasConstString(tpl, "i") {
		t.Errorf("regexp flags missing from pool: %v", tpl.Constants)
	}

	err := compileErr(t, `r = /a(/;`, CompileOptions{})
	if _, ok := err.(*cerrors.SyntaxError); !ok {
		t.Errorf("malformed regexp: expected SyntaxError, got %T", err)
	}
}

func TestRegexpDivisionAmbiguity(t *testing.T) {
	// After an identifier, '/' is division; after '=', a regexp.
	tpl := compileProg(t, `a = b / c; d = /x/;`)
	if _, ok := findOp(tpl, bytecode.OpDiv); !ok {
		t.Errorf("missing DIV for the division")
	}
	if _, ok := findOp(tpl, bytecode.OpRegexp); !ok {
		t.Errorf("missing REGEXP for the literal")
	}
}

func TestPostfixLineTerminatorRule(t *testing.T) {
	// ASI splits `a \n ++b` into `a; ++b;`.
	tpl := compileProg(t, "a\n++b;")
	if n := countOp(tpl, bytecode.OpInc); n != 1 {
		t.Fatalf("found %d INCs, want 1", n)
	}
	// `a` alone is a plain read, prefix ++ applies to b: both slow vars.
	if n := countOp(tpl, bytecode.OpGetVar); n < 2 {
		t.Errorf("found %d GETVARs, want reads of both a and b", n)
	}
}

func TestTypeofUnresolvable(t *testing.T) {
	tpl := compileProg(t, `t = typeof missing;`)
	if _, ok := findOp(tpl, bytecode.OpTypeofId); !ok {
		t.Errorf("typeof of unresolvable name must use TYPEOFID")
	}

	tpl = compileFn(t, `function f(a){ return typeof a; }`)
	if _, ok := findOp(tpl, bytecode.OpTypeof); !ok {
		t.Errorf("typeof of a bound name must use plain TYPEOF")
	}
	if _, ok := findOp(tpl, bytecode.OpTypeofId); ok {
		t.Errorf("bound name must not use TYPEOFID")
	}
}

func TestArgumentsDetection(t *testing.T) {
	tpl := compileFn(t, `function f(){ return arguments[0]; }`)
	if !tpl.NeedsArguments {
		t.Errorf("function reading arguments must be marked NeedsArguments")
	}

	tpl = compileFn(t, `function f(arguments){ return arguments; }`)
	if tpl.NeedsArguments {
		t.Errorf("formal named arguments shadows the arguments object")
	}
}

func TestVarMapContents(t *testing.T) {
	tpl := compileFn(t, `function f(a, b){ var c = 1; eval("x"); return c; }`)
	if tpl.VarMap == nil {
		t.Fatalf("direct eval requires a varmap")
	}
	wantKeys := []string{"a", "b", "c"}
	got := tpl.VarMap.Keys()
	if !reflect.DeepEqual(got, wantKeys) {
		t.Errorf("varmap keys = %v, want %v (insertion order)", got, wantKeys)
	}
	for i, k := range wantKeys {
		v, ok := tpl.VarMap.Get(k)
		if !ok || !v.IsNumber() || int(v.AsNumber()) != i {
			t.Errorf("varmap[%s] = %v, want register %d", k, v, i)
		}
	}
}

func TestFunctionDeclarationHoisting(t *testing.T) {
	// `g` is callable before its declaration: the prologue emits CLOSURE
	// before any body code runs.
	tpl := compileFn(t, `function f(){ var r = g(); function g(){ return 1; } return r; }`)
	ops := opcodesOf(tpl)
	closureAt, callAt := -1, -1
	for i, op := range ops {
		if op == bytecode.OpClosure && closureAt < 0 {
			closureAt = i
		}
		if op == bytecode.OpCall && callAt < 0 {
			callAt = i
		}
	}
	if closureAt < 0 || callAt < 0 || closureAt > callAt {
		t.Errorf("CLOSURE at %d must precede CALL at %d", closureAt, callAt)
	}
}

func TestEvalModeCompletionValue(t *testing.T) {
	tpl, err := Compile([]byte(`1 + 2;`), "", CompileOptions{Eval: true})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	last := tpl.Code[len(tpl.Code)-1]
	op, a, _, _ := bytecode.DecodeABC(last)
	if op != bytecode.OpReturn || a&bytecode.ReturnHaveRetVal == 0 {
		t.Errorf("eval code must return its completion value")
	}
}

func TestBOMIsStripped(t *testing.T) {
	src := append([]byte{0xEF, 0xBB, 0xBF}, []byte(`var x = 1;`)...)
	if _, err := Compile(src, "bom.js", CompileOptions{}); err != nil {
		t.Fatalf("BOM-prefixed source failed to compile: %v", err)
	}
}

func TestMalformedUTF8Rejected(t *testing.T) {
	src := []byte{'v', 'a', 'r', ' ', 0xFF, 0xFE, ';'}
	if _, err := Compile(src, "bad.js", CompileOptions{}); err == nil {
		t.Fatalf("malformed UTF-8 must be rejected")
	}
}

func TestLineTable(t *testing.T) {
	tpl := compileProg(t, "x = 1;\ny = 2;\nz = 3;\n")
	if len(tpl.Lines) == 0 {
		t.Fatalf("line table empty")
	}
	sawLine3 := false
	for pc := range tpl.Code {
		if tpl.LineForPC(pc) == 3 {
			sawLine3 = true
		}
	}
	if !sawLine3 {
		t.Errorf("no instruction attributed to line 3: %v", tpl.Lines)
	}
}
