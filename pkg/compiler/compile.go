package compiler

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"paserati/pkg/bytecode"
	cerrors "paserati/pkg/errors"
	"paserati/pkg/intern"
	"paserati/pkg/lexer"
)

// CompileOptions selects the compilation mode: program code by
// default, eval code, or a top-level function expression (the `Function`
// constructor form). Strict sets the initial strictness, which a "use
// strict" directive may strengthen but never weaken. NoTailCalls models
// the configuration knob that disables the TAILCALL back-patch.
type CompileOptions struct {
	Eval        bool
	Strict      bool
	FuncExpr    bool
	NoTailCalls bool
}

// Compile compiles source text into a function template. The whole
// compilation runs under a protected boundary: any compile failure is
// annotated with the current lexer line and returned as a typed error.
func Compile(src []byte, filename string, opts CompileOptions) (tpl *bytecode.FunctionTemplate, err error) {
	text, derr := decodeSource(src)
	if derr != nil {
		return nil, &cerrors.SyntaxError{
			Position: cerrors.Position{Line: 1, Column: 1},
			Msg:      "invalid source encoding: " + derr.Error(),
		}
	}

	interner := intern.NewTable()
	hasFile := filename != ""
	p := newParser(text, filename, hasFile, interner, opts)

	fs := newFuncState(nil, interner)
	fs.Filename = filename
	fs.HasFile = hasFile
	fs.IsStrict = opts.Strict
	switch {
	case opts.FuncExpr:
		fs.IsFunction = true
	case opts.Eval:
		fs.IsEval = true
	default:
		fs.IsGlobal = true
	}
	p.fs = fs

	defer func() {
		if r := recover(); r != nil {
			cf, ok := r.(compileFailure)
			if !ok {
				panic(r)
			}
			tpl = nil
			err = cerrors.WithLine(cf.err, fs.CurLine)
		}
	}()

	p.advance()
	if opts.FuncExpr {
		p.expect(lexer.FUNCTION)
		switch {
		case p.at(lexer.IDENT) || p.at(lexer.GET) || p.at(lexer.SET):
			fs.Name = p.cur.Literal
			fs.HasName = true
			p.advance()
		case lexer.IsStrictReserved(p.cur.Type) && !fs.IsStrict:
			fs.Name, _ = lexer.KeywordSpelling(p.cur.Type)
			fs.HasName = true
			p.advance()
		}
		p.parseFormals(fs)
		p.expect(lexer.LBRACE)
		tpl = p.compileFunctionBody(fs, lexer.RBRACE)
		p.expect(lexer.RBRACE)
		p.accept(lexer.SEMICOLON)
		if !p.at(lexer.EOF) {
			syntaxErrf(fs, "unexpected %s after function expression", p.cur.Type.String())
		}
		return tpl, nil
	}
	tpl = p.compileFunctionBody(fs, lexer.EOF)
	return tpl, nil
}

// decodeSource strips a leading BOM and rejects malformed UTF-8 up
// front, per the §6 input contract.
func decodeSource(src []byte) (string, error) {
	out, _, err := transform.String(unicode.BOMOverride(encoding.UTF8Validator), string(src))
	if err != nil {
		return "", err
	}
	return out, nil
}
