package compiler

// Register allocation: a temp-register stack with a high-water mark.
// Registers below TempFirst hold formals and prologue bindings and are
// never reallocated; everything above is a temp that expressions borrow
// and release in stack order. TempMax becomes the function's register
// frame size.

const maxTemps = bcMax // registers are bounded by the 18-bit wide index field

// allocTemp returns one fresh temp register and advances temp_next.
func (fs *FuncState) allocTemp() int {
	return fs.allocTemps(1)
}

// allocTemps returns the first of n consecutive fresh temp registers.
func (fs *FuncState) allocTemps(n int) int {
	r := fs.TempNext
	fs.TempNext += n
	if fs.TempNext > maxTemps {
		rangeErrf(fs, "too many temp registers (%d)", fs.TempNext)
	}
	if fs.TempNext > fs.TempMax {
		fs.TempMax = fs.TempNext
	}
	return r
}

// mark snapshots temp_next so a caller can release everything allocated
// since.
func (fs *FuncState) mark() int {
	return fs.TempNext
}

// release restores temp_next to a previous mark without touching
// temp_max, freeing any temps borrowed since. The caller must have
// copied any live result out of the released range first.
func (fs *FuncState) release(mark int) {
	if mark < fs.TempNext {
		fs.TempNext = mark
	}
}

// isTemp reports whether reg is in the free temp region.
func (fs *FuncState) isTemp(reg int) bool {
	return reg >= fs.TempFirst
}

// freezePrologue marks the end of the non-temp (formals/prologue)
// region; called once after the function prologue is fully emitted.
func (fs *FuncState) freezePrologue() {
	fs.TempFirst = fs.TempNext
}
