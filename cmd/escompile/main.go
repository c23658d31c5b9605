package main

import (
	"flag"
	"fmt"
	"os"

	"paserati/pkg/bytecode"
	"paserati/pkg/compiler"
)

func main() {
	evalMode := flag.Bool("eval", false, "compile as eval code")
	strict := flag.Bool("strict", false, "start in strict mode")
	funcExpr := flag.Bool("funcexpr", false, "compile as a top-level function expression")
	noTailCalls := flag.Bool("no-tailcalls", false, "disable tail-call optimization")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <file.js>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}
	filename := flag.Arg(0)

	src, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %q: %v\n", filename, err)
		os.Exit(1)
	}

	tpl, err := compiler.Compile(src, filename, compiler.CompileOptions{
		Eval:        *evalMode,
		Strict:      *strict,
		FuncExpr:    *funcExpr,
		NoTailCalls: *noTailCalls,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	dump(tpl, "main")
}

func dump(tpl *bytecode.FunctionTemplate, name string) {
	fmt.Print(tpl.Disassemble(name))
	fmt.Printf("nregs=%d nargs=%d strict=%v\n\n", tpl.NumRegs, tpl.NumArgs, tpl.IsStrict)
	for i, inner := range tpl.Functions {
		childName := fmt.Sprintf("%s.f%d", name, i)
		if inner.HasName {
			childName = inner.Name
		}
		dump(inner, childName)
	}
}
