package compiler

import (
	"bytes"
	"fmt"
)

// Result is everything a caller needs after one compilation: the listing
// meant for -l, the symbol table trace produced on every scope close, the
// emitted instruction text, and the error count that decides whether the
// instruction text was produced at all (spec §7: "skip code generation
// when error_count != 0").
type Result struct {
	Listing      string
	SymbolDump   string
	Instructions string
	ErrorCount   int
}

// Compile runs the whole pipeline — Scanner → Parser (driving Semantics
// and Emitter inline) → Emitter.Finalize — over source and returns
// everything produced. A non-nil error means Finalize hit an unresolved
// label, which can only happen from a bug in the parser's own emission
// discipline, not from anything in the source text; it is returned
// rather than panicked because nothing about compiling one program
// should bring down a process compiling others.
func Compile(source string) (*Result, error) {
	sink := NewErrorSink(source)
	sc := NewScanner(source, sink)
	syms := NewSymbolTable()
	em := NewEmitter()
	sem := NewSemantics(syms, sink)

	var dump bytes.Buffer
	p := NewParser(sc, syms, sem, em, sink)
	p.Parse(&dump)

	res := &Result{
		Listing:    sink.Listing(),
		SymbolDump: dump.String(),
		ErrorCount: sink.Count(),
	}

	if res.ErrorCount != 0 {
		return res, nil
	}

	var instr bytes.Buffer
	if err := em.Finalize(&instr); err != nil {
		return res, fmt.Errorf("lille: %w", err)
	}
	res.Instructions = instr.String()
	return res, nil
}
