package compiler

import (
	"fmt"
	"io"
	"strconv"
)

// Opcode is the mnemonic of a target-machine instruction (spec §4.6).
type Opcode string

const (
	OpJMP Opcode = "JMP"
	OpJIF Opcode = "JIF" // jump if false
	OpLDV Opcode = "LDV" // load variable value
	OpLDA Opcode = "LDA" // load variable address
	OpSTO Opcode = "STO" // store
	OpSTI Opcode = "STI" // store indirect
	OpLCI Opcode = "LCI" // load integer constant
	OpLCR Opcode = "LCR" // load real constant
	OpLCS Opcode = "LCS" // load string constant
	OpOPR Opcode = "OPR" // arithmetic/comparison/logical/IO/conversion dispatch
	OpMST Opcode = "MST" // mark stack (reserve activation frame before a call)
	OpCAL Opcode = "CAL" // call
	OpINC Opcode = "INC" // reserve locals
	OpRDI Opcode = "RDI" // read integer
	OpRDR Opcode = "RDR" // read real
)

// OPR sub-opcodes select the operation dispatched by an OPR instruction,
// grounded on original_source/code_gen.cpp's fixed table.
const (
	OprProcReturn = 0
	OprFuncReturn = 1
	OprNeg        = 2
	OprAdd        = 3
	OprSub        = 4
	OprMul        = 5
	OprDiv        = 6
	OprPow        = 7
	OprConcat     = 8
	OprOdd        = 9
	OprEq         = 10
	OprNeq        = 11
	OprLt         = 12
	OprGe         = 13
	OprGt         = 14
	OprLe         = 15
	OprNot        = 16
	OprLoadTrue   = 17
	OprLoadFalse  = 18
	OprWrite       = 20
	OprWriteln     = 21
	OprSwap        = 22
	OprInt2Real    = 25
	OprReal2Int    = 26
	OprInt2String  = 27
	OprReal2String = 28
	OprAnd         = 29
	OprOr          = 30
)

type operandKind int

const (
	opNone operandKind = iota
	opInt
	opReal
	opStr
	opLabel
)

type operand2 struct {
	kind  operandKind
	i     int
	r     float64
	s     string
	label string
}

// Instruction is one emitted target-machine instruction. Operand2 may
// still be an unresolved symbolic label until Finalize runs.
type Instruction struct {
	Op       Opcode
	Operand1 int
	Operand2 operand2
	Comment  string
	Index    int // assigned once placed in the stream (1-based)
}

// Emitter accumulates instructions with symbolic labels and resolves them
// to instruction indices on Finalize (spec §4.6).
type Emitter struct {
	instrs []*Instruction
	labels map[string]int // name -> 1-based index of the instruction it precedes
	next   int

	loopExit []string // top is the target of the innermost enclosing loop's `exit`

	scopeOffsets []int // mirrors the symbol table's scope stack; next free offset per frame

	builtinAddr map[string]int // name -> fixed instruction index, set by EmitPrologue
}

func NewEmitter() *Emitter {
	return &Emitter{labels: make(map[string]int), builtinAddr: make(map[string]int)}
}

// NewLabel returns a fresh, as-yet-unplaced label name.
func (e *Emitter) NewLabel() string {
	l := fmt.Sprintf("L%d", e.next)
	e.next++
	return l
}

// PlaceLabel binds name to the index of the next instruction to be
// appended. Each name may be placed at most once; placing it twice is a
// structural bug in the caller and panics rather than silently
// overwriting, since a moved label would corrupt every branch already
// pointing at it.
func (e *Emitter) PlaceLabel(name string) {
	if _, ok := e.labels[name]; ok {
		panic("lille: label " + name + " placed twice")
	}
	e.labels[name] = len(e.instrs) + 1
}

func (e *Emitter) emit(ins *Instruction) int {
	e.instrs = append(e.instrs, ins)
	return len(e.instrs)
}

// OpenScope pushes a fresh local-offset counter, mirroring the symbol
// table's scope stack; Parser calls this alongside SymbolTable.OpenScope.
func (e *Emitter) OpenScope() {
	e.scopeOffsets = append(e.scopeOffsets, 0)
}

// CloseScope pops the current local-offset counter.
func (e *Emitter) CloseScope() {
	if len(e.scopeOffsets) > 0 {
		e.scopeOffsets = e.scopeOffsets[:len(e.scopeOffsets)-1]
	}
}

// BindVariable assigns rec the next free offset within the currently open
// scope. Level is assumed already set by SymbolTable.Enter.
func (e *Emitter) BindVariable(rec *Record) {
	top := len(e.scopeOffsets) - 1
	rec.Offset = e.scopeOffsets[top]
	e.scopeOffsets[top]++
}

// LocalCount returns the number of variables bound in the currently open
// scope so far — exactly the size EmitReserve needs once a scope's
// declarations are complete (spec §9's single-INC fix).
func (e *Emitter) LocalCount() int {
	if len(e.scopeOffsets) == 0 {
		return 0
	}
	return e.scopeOffsets[len(e.scopeOffsets)-1]
}

// EmitReserve emits exactly one INC sized to the current scope's local
// count. Call once, after a program/procedure/function/for-loop/block's
// declarations are fully processed and before its statement part.
func (e *Emitter) EmitReserve(comment string) {
	e.emit(&Instruction{Op: OpINC, Operand1: e.LocalCount(), Comment: comment})
}

// AllocTempOffset reserves one more slot in the currently open scope
// without a backing Record, for values a construct needs to keep around
// but that the grammar never names — a for-loop's evaluated end bound,
// kept in its own frame since diff is always 0 from inside that loop.
func (e *Emitter) AllocTempOffset() int {
	top := len(e.scopeOffsets) - 1
	off := e.scopeOffsets[top]
	e.scopeOffsets[top]++
	return off
}

func (e *Emitter) StoreOffset(offset int, comment string) {
	e.emit(&Instruction{Op: OpSTO, Operand2: operand2{kind: opInt, i: offset}, Comment: comment})
}

func (e *Emitter) LoadOffset(offset int, comment string) {
	e.emit(&Instruction{Op: OpLDV, Operand2: operand2{kind: opInt, i: offset}, Comment: comment})
}

// PushLoopExit / PopLoopExit / LoopExitTarget manage the loop-exit label
// stack consulted by `exit` statements (spec §3).
func (e *Emitter) PushLoopExit(label string) { e.loopExit = append(e.loopExit, label) }

func (e *Emitter) PopLoopExit() {
	if len(e.loopExit) > 0 {
		e.loopExit = e.loopExit[:len(e.loopExit)-1]
	}
}

func (e *Emitter) LoopExitTarget() (string, bool) {
	if len(e.loopExit) == 0 {
		return "", false
	}
	return e.loopExit[len(e.loopExit)-1], true
}

// InLoop reports whether exit is currently legal.
func (e *Emitter) InLoop() bool { return len(e.loopExit) > 0 }

//  Emission helpers, named after their original_source/code_gen.cpp analogs.

func (e *Emitter) Jmp(label, comment string) {
	e.emit(&Instruction{Op: OpJMP, Operand2: operand2{kind: opLabel, label: label}, Comment: comment})
}

func (e *Emitter) Jif(label, comment string) {
	e.emit(&Instruction{Op: OpJIF, Operand2: operand2{kind: opLabel, label: label}, Comment: comment})
}

func (e *Emitter) loadStoreLevelDiff(currentLevel int, rec *Record) int {
	return currentLevel - rec.Level
}

func (e *Emitter) LoadVar(currentLevel int, rec *Record) {
	diff := e.loadStoreLevelDiff(currentLevel, rec)
	e.emit(&Instruction{Op: OpLDV, Operand1: diff, Operand2: operand2{kind: opInt, i: rec.Offset}, Comment: rec.Name})
}

func (e *Emitter) LoadAddr(currentLevel int, rec *Record) {
	diff := e.loadStoreLevelDiff(currentLevel, rec)
	e.emit(&Instruction{Op: OpLDA, Operand1: diff, Operand2: operand2{kind: opInt, i: rec.Offset}, Comment: "&" + rec.Name})
}

func (e *Emitter) StoreVar(currentLevel int, rec *Record) {
	diff := e.loadStoreLevelDiff(currentLevel, rec)
	e.emit(&Instruction{Op: OpSTO, Operand1: diff, Operand2: operand2{kind: opInt, i: rec.Offset}, Comment: rec.Name})
}

func (e *Emitter) StoreIndirect(comment string) {
	e.emit(&Instruction{Op: OpSTI, Comment: comment})
}

func (e *Emitter) LoadInt(v int64, comment string) {
	e.emit(&Instruction{Op: OpLCI, Operand2: operand2{kind: opInt, i: int(v)}, Comment: comment})
}

func (e *Emitter) LoadReal(v float64, comment string) {
	e.emit(&Instruction{Op: OpLCR, Operand2: operand2{kind: opReal, r: v}, Comment: comment})
}

func (e *Emitter) LoadString(v, comment string) {
	e.emit(&Instruction{Op: OpLCS, Operand2: operand2{kind: opStr, s: v}, Comment: comment})
}

func (e *Emitter) Opr(sub int, comment string) {
	e.emit(&Instruction{Op: OpOPR, Operand1: sub, Comment: comment})
}

func (e *Emitter) Mst(comment string) {
	e.emit(&Instruction{Op: OpMST, Comment: comment})
}

// CallUser emits a call to a user-declared procedure/function whose
// entry label will be placed later.
func (e *Emitter) CallUser(levelDiff int, label, comment string) {
	e.emit(&Instruction{Op: OpCAL, Operand1: levelDiff, Operand2: operand2{kind: opLabel, label: label}, Comment: comment})
}

// CallBuiltin emits a call to one of the four fixed-address conversion
// builtins (spec §4.6).
func (e *Emitter) CallBuiltin(name, comment string) {
	addr := e.builtinAddr[name]
	e.emit(&Instruction{Op: OpCAL, Operand1: 0, Operand2: operand2{kind: opInt, i: addr}, Comment: comment})
}

func (e *Emitter) Rdi(currentLevel int, rec *Record) {
	diff := e.loadStoreLevelDiff(currentLevel, rec)
	e.emit(&Instruction{Op: OpRDI, Operand1: diff, Operand2: operand2{kind: opInt, i: rec.Offset}, Comment: rec.Name})
}

func (e *Emitter) Rdr(currentLevel int, rec *Record) {
	diff := e.loadStoreLevelDiff(currentLevel, rec)
	e.emit(&Instruction{Op: OpRDR, Operand1: diff, Operand2: operand2{kind: opInt, i: rec.Offset}, Comment: rec.Name})
}

// builtinOrder fixes the layout of the prologue block; each entry's
// instruction address is recorded in builtinAddr for CallBuiltin.
var builtinOrder = []struct {
	name string
	conv int
}{
	{"INT2REAL", OprInt2Real},
	{"REAL2INT", OprReal2Int},
	{"INT2STRING", OprInt2String},
	{"REAL2STRING", OprReal2String},
}

// EmitPrologue emits instruction 1 — a jump over the builtin-conversion
// block — followed by the four builtins themselves at fixed addresses
// (2, 5, 8, 11), each load-argument / conversion / return. userStart is
// placed once the caller reaches the first real user instruction.
func (e *Emitter) EmitPrologue() (userStart string) {
	userStart = e.NewLabel()
	e.Jmp(userStart, "jump over builtin conversions")
	for _, b := range builtinOrder {
		e.builtinAddr[b.name] = len(e.instrs) + 1
		e.emit(&Instruction{Op: OpLDV, Operand1: 0, Operand2: operand2{kind: opInt, i: 0}, Comment: "argument"})
		e.Opr(b.conv, "convert")
		e.Opr(OprFuncReturn, "return")
	}
	return userStart
}

// Finalize resolves every label operand to its placed instruction index
// and writes the fixed-width textual listing described in spec §6.
// Finalize must only be called when the error count is zero (the driver
// enforces that; spec §7).
func (e *Emitter) Finalize(w io.Writer) error {
	for _, ins := range e.instrs {
		if ins.Operand2.kind != opLabel {
			continue
		}
		idx, ok := e.labels[ins.Operand2.label]
		if !ok {
			return fmt.Errorf("lille: internal error: label %q never placed", ins.Operand2.label)
		}
		ins.Operand2 = operand2{kind: opInt, i: idx}
	}

	for i, ins := range e.instrs {
		ins.Index = i + 1
		fmt.Fprintf(w, "%-5s%6d%13s(%d) %s\n", ins.Op, ins.Operand1, renderOperand2(ins.Operand2), ins.Index, ins.Comment)
	}
	return nil
}

func renderOperand2(o operand2) string {
	switch o.kind {
	case opInt:
		return strconv.Itoa(o.i)
	case opReal:
		return strconv.FormatFloat(o.r, 'g', -1, 64)
	case opStr:
		return strconv.Quote(o.s)
	default:
		return ""
	}
}
