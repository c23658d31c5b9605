package compiler

import "paserati/pkg/value"

// constWindow bounds the linear-scan dedup cost: only the most recent
// entries are checked, so pathological pools stay cheap to build at the
// price of the occasional duplicate further back.
const constWindow = 256

// addConstant interns v into the function's constant pool, deduping by
// ES5 SameValue within the most recent constWindow entries, and returns
// its index.
func (fs *FuncState) addConstant(v value.Value) int {
	n := len(fs.Constants)
	start := 0
	if n > constWindow {
		start = n - constWindow
	}
	for i := start; i < n; i++ {
		if value.SameValue(fs.Constants[i], v) {
			return i
		}
	}
	if n > bcMax {
		rangeErrf(fs, "too many constants in function")
	}
	fs.Constants = append(fs.Constants, v)
	return n
}
