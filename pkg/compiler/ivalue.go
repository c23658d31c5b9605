package compiler

import (
	"math"

	"paserati/pkg/bytecode"
	"paserati/pkg/value"
)

// ispec / ivalue: the deferred representation of an expression's
// result. An ispec is a literal value or a register/constant index; an
// ivalue additionally defers a pending arithmetic op, property access,
// or variable access, lowered to registers/constants only when needed.
// Both are flat tagged unions.

type ispecKind uint8

const (
	ispecLiteral ispecKind = iota
	ispecRegConst
)

type ispec struct {
	kind    ispecKind
	lit     value.Value
	index   int
	isConst bool
}

func litSpec(v value.Value) ispec { return ispec{kind: ispecLiteral, lit: v} }
func regSpec(r int) ispec         { return ispec{kind: ispecRegConst, index: r} }
func constSpec(i int) ispec       { return ispec{kind: ispecRegConst, index: i, isConst: true} }

type ivalueKind uint8

const (
	ivNone ivalueKind = iota
	ivPlain
	ivArith
	ivProp
	ivVar
)

// ivalue defers materialization of an expression's result.
type ivalue struct {
	kind ivalueKind

	plain ispec

	arithOp bytecode.OpCode
	arithL  ispec
	arithR  ispec

	propObj ispec
	propKey ispec

	varName string
}

func noneIV() ivalue           { return ivalue{kind: ivNone} }
func plainIV(s ispec) ivalue   { return ivalue{kind: ivPlain, plain: s} }
func varIV(name string) ivalue { return ivalue{kind: ivVar, varName: name} }
func propIV(obj, key ispec) ivalue {
	return ivalue{kind: ivProp, propObj: obj, propKey: key}
}
func arithIV(op bytecode.OpCode, l, r ispec) ivalue {
	iv := ivalue{kind: ivArith, arithOp: op, arithL: l, arithR: r}
	return tryFold(iv)
}

// tryFold folds arithmetic on two literals at compile time.
func tryFold(iv ivalue) ivalue {
	if iv.kind != ivArith {
		return iv
	}
	if iv.arithL.kind != ispecLiteral || iv.arithR.kind != ispecLiteral {
		return iv
	}
	l, r := iv.arithL.lit, iv.arithR.lit

	if l.IsNumber() && r.IsNumber() {
		a, b := l.AsNumber(), r.AsNumber()
		var out float64
		folded := true
		switch iv.arithOp {
		case bytecode.OpAdd:
			out = a + b
		case bytecode.OpSub:
			out = a - b
		case bytecode.OpMul:
			out = a * b
		case bytecode.OpDiv:
			out = a / b
		default:
			folded = false
		}
		if folded {
			if math.IsNaN(out) {
				out = math.NaN() // normalize any NaN payload
			}
			return plainIV(litSpec(value.Number(out)))
		}
	}
	if iv.arithOp == bytecode.OpAdd && l.IsString() && r.IsString() {
		return plainIV(litSpec(value.String(l.AsString() + r.AsString())))
	}
	return iv
}

// foldUnaryMinus negates a literal-number ispec in place.
func foldUnaryMinus(s ispec) (ispec, bool) {
	if s.kind == ispecLiteral && s.lit.IsNumber() {
		return litSpec(value.Number(-s.lit.AsNumber())), true
	}
	return ispec{}, false
}
