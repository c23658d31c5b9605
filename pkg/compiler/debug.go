package compiler

import (
	"fmt"
	"os"
)

const (
	debugCompiler = false
	debugEmit     = false
	debugPeephole = false
)

func debugPrintf(enabled bool, format string, args ...interface{}) {
	if enabled {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
