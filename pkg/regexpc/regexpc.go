// Package regexpc validates regexp literals at compile time: given a
// literal's pattern and flags, it rejects malformed patterns up front
// (so a bad literal is a SyntaxError during compilation, not a runtime
// surprise) and produces the escaped-source string that goes into the
// constant pool alongside the flags. The matching engine itself belongs
// to the interpreter, not here.
package regexpc

import (
	"fmt"

	"github.com/dlclark/regexp2"
)

// Compiled is the compile-time artifact for a regexp literal.
type Compiled struct {
	Pattern       string
	Flags         string
	EscapedSource string
}

// Compile validates pattern/flags and produces the constant-pool payload.
// A malformed pattern is reported as an error the caller should wrap into
// a compiler SyntaxError with position information.
func Compile(pattern, flags string) (Compiled, error) {
	opts := regexp2.RegexOptions(0)
	for _, f := range flags {
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 'g':
			// Global matching is a runtime iteration concern, not a
			// regexp2 compile option; recognized here only so it
			// doesn't fall through to the "unknown flag" error.
		default:
			return Compiled{}, fmt.Errorf("invalid regular expression flag %q", f)
		}
	}

	if _, err := regexp2.Compile(pattern, opts); err != nil {
		return Compiled{}, fmt.Errorf("invalid regular expression: %w", err)
	}

	return Compiled{
		Pattern:       pattern,
		Flags:         flags,
		EscapedSource: escapeSource(pattern),
	}, nil
}

// escapeSource renders the pattern the way a regexp literal's source would
// round-trip through String(/pattern/flags), escaping unescaped slashes.
func escapeSource(pattern string) string {
	out := make([]byte, 0, len(pattern)+2)
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c == '/' && (i == 0 || pattern[i-1] != '\\') {
			out = append(out, '\\', '/')
			continue
		}
		out = append(out, c)
	}
	return string(out)
}
