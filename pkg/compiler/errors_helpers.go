package compiler

import (
	"fmt"

	cerrors "paserati/pkg/errors"
)

// compileFailure is the panic payload the parser/emitter raise on any
// compile error. Errors surface deep inside the recursive-descent/Pratt
// call stack, so they unwind via panic; the driver's protected call
// recovers the payload, annotates it with a line number, and returns it
// as a normal Go error.
type compileFailure struct {
	err cerrors.CompileError
}

func throwErr(err cerrors.CompileError) {
	panic(compileFailure{err: err})
}

func pos(fs *FuncState) cerrors.Position {
	return cerrors.Position{Line: fs.CurLine, Column: fs.CurCol, StartPos: fs.CurPos}
}

func syntaxErrf(fs *FuncState, format string, args ...any) {
	throwErr(&cerrors.SyntaxError{Position: pos(fs), Msg: fmt.Sprintf(format, args...)})
}

func rangeErrf(fs *FuncState, format string, args ...any) {
	throwErr(&cerrors.RangeError{Position: pos(fs), Msg: fmt.Sprintf(format, args...)})
}

func internalErrf(fs *FuncState, format string, args ...any) {
	throwErr(&cerrors.InternalError{Position: pos(fs), Msg: fmt.Sprintf(format, args...)})
}

