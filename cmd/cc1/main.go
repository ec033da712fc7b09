// Command cc1 drives the front end end to end: lex, parse, analyze, and
// lower a single preprocessed C89 translation unit to textual LLVM IR.
package main

import (
	"flag"
	"fmt"
	"os"

	"cc89/pkg/cc89"
)

const usageLine = "usage: cc1 <infile> [-o outfile] [-m32|-m64] [-g] [--lex-only|--parse-tu|--sem]"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	fs := flag.NewFlagSet("cc1", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	outPath := fs.String("o", "", "output file path, or - for stdout (default: stdout)")
	m32 := fs.Bool("m32", false, "target i386 (default)")
	m64 := fs.Bool("m64", false, "target x86_64")
	debug := fs.Bool("g", false, "emit a minimal module identification banner")
	lexOnly := fs.Bool("lex-only", false, "stop after lexing")
	parseTU := fs.Bool("parse-tu", false, "stop after parsing")
	semOnly := fs.Bool("sem", false, "stop after semantic analysis")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, usageLine)
		fs.PrintDefaults()
	}

	// Flags may appear before or after the input file: parse again after
	// each positional argument the flag package stops at.
	var positional []string
	rest := argv
	for {
		if err := fs.Parse(rest); err != nil {
			return 2
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		rest = fs.Args()[1:]
	}
	if *m32 && *m64 {
		fmt.Fprintln(os.Stderr, "cc1: use either -m32 or -m64, not both")
		return 2
	}
	if len(positional) != 1 {
		fs.Usage()
		return 2
	}
	stops := 0
	for _, b := range []bool{*lexOnly, *parseTU, *semOnly} {
		if b {
			stops++
		}
	}
	if stops > 1 {
		fmt.Fprintln(os.Stderr, "cc1: use at most one of --lex-only, --parse-tu, --sem")
		return 2
	}

	inPath := positional[0]
	raw, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cc1: %v\n", err)
		return 3
	}
	src := cc89.Preprocess(string(raw))

	arch := cc89.ArchI386
	if *m64 {
		arch = cc89.ArchX86_64
	}
	tgt := cc89.NewTarget(arch)

	toks, err := cc89.Lex(inPath, src)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *lexOnly {
		return emitTokens(toks, *outPath)
	}

	tu, pdiags := cc89.Parse(toks)
	if printDiags(pdiags) {
		return 1
	}
	if *parseTU {
		return emitText(tu.String(), *outPath)
	}

	syms, sdiags := cc89.Analyze(tu, tgt)
	if printDiags(sdiags) {
		return 1
	}
	if *semOnly {
		return emitText("ok\n", *outPath)
	}

	ir, gdiags := cc89.GenerateIR(tu, syms, tgt, *debug)
	if printDiags(gdiags) {
		return 1
	}
	return emitText(ir, *outPath)
}

// printDiags renders every diagnostic in d to stderr in
// "<file>:<line>:<col>: <severity>: <message>" form and reports whether any
// of them was an error.
func printDiags(d *cc89.DiagSink) bool {
	for _, diag := range d.Diagnostics() {
		fmt.Fprintln(os.Stderr, diag.Error())
	}
	return d.HasErrors()
}

func emitTokens(toks []cc89.Token, outPath string) int {
	var buf []byte
	for _, t := range toks {
		buf = append(buf, []byte(t.String()+"\n")...)
	}
	return writeOutput(buf, outPath)
}

func emitText(s string, outPath string) int {
	return writeOutput([]byte(s), outPath)
}

func writeOutput(data []byte, outPath string) int {
	if outPath == "" || outPath == "-" {
		os.Stdout.Write(data)
		return 0
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "cc1: %v\n", err)
		return 3
	}
	return 0
}
