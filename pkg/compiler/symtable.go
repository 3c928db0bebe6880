package compiler

import (
	"fmt"
	"io"
)

// Record holds everything the symbol table, semantic analyzer, and
// emitter jointly know about one declared name: its original spelling,
// semantic type and kind (spec §3), the position of its declaration, and
// the (level, offset) binding the emitter assigns once it reserves storage
// for it (spec §4.6). ReturnType is meaningful only when Kind is
// KindFunction.
type Record struct {
	Name       string
	Type       Type
	Kind       Kind
	Line, Col  int
	Level      int
	Offset     int
	ReturnType Type

	// EntryLabel is the emitter label marking a procedure's or function's
	// first instruction (the INC that reserves its frame). Set once, when
	// the declaration is parsed; CAL instructions against later calls
	// reference it by name and it is resolved at Emitter.Finalize.
	EntryLabel string
}

// scope is one insertion-ordered frame: order preserves declaration order
// so Dump reproduces the program's declaration sequence, the way the
// original id_table's per-scope map iteration does.
type scope struct {
	level   int
	order   []string
	records map[string]*Record
}

func newScope(level int) *scope {
	return &scope{level: level, records: make(map[string]*Record)}
}

// SymbolTable is a stack of lexical scopes. Scope 0 (the global scope) is
// never popped; it is populated with the four builtin conversion
// functions before parsing begins (spec §4.4).
type SymbolTable struct {
	scopes []*scope
}

// NewSymbolTable creates a table with only the global scope open and the
// four builtin conversion functions installed.
func NewSymbolTable() *SymbolTable {
	st := &SymbolTable{}
	st.scopes = append(st.scopes, newScope(0))
	st.installBuiltins()
	return st
}

// builtinReturnTypes is consulted both here (to install the records) and
// by Semantics.LookupType (to short-circuit lookups for these names even
// if a later declaration were ever to shadow them) — see spec §4.4.
var builtinReturnTypes = map[string]Type{
	"INT2REAL":    TyReal,
	"REAL2INT":    TyInteger,
	"INT2STRING":  TyString,
	"REAL2STRING": TyString,
}

func (st *SymbolTable) installBuiltins() {
	for _, name := range []string{"INT2REAL", "REAL2INT", "INT2STRING", "REAL2STRING"} {
		rec := st.Enter(name)
		rec.Kind = KindFunction
		rec.Type = TyFunction
		rec.ReturnType = builtinReturnTypes[name]
	}
}

// OpenScope pushes an empty frame one level deeper than the current top.
func (st *SymbolTable) OpenScope() {
	st.scopes = append(st.scopes, newScope(st.Depth()))
}

// CloseScopeAndDump dumps the entire currently-open stack of scopes
// (outermost to innermost, per spec §4.3/§4.5) to w, then pops the top
// frame. The outermost frame (index 0) is never popped; closing it is a
// silent no-op beyond the dump, matching the teacher's defensive-pop
// idiom in ExitScope/ExitFunction.
func (st *SymbolTable) CloseScopeAndDump(w io.Writer) {
	st.dump(w)
	if len(st.scopes) > 1 {
		st.scopes = st.scopes[:len(st.scopes)-1]
	}
}

// Depth returns the number of open scopes, which is one more than the
// 0-based level of the currently active scope and so the level the next
// OpenScope assigns.
func (st *SymbolTable) Depth() int { return len(st.scopes) }

// Enter inserts a new record named name in the top frame and returns it.
// If name already exists in the top frame, the existing record is
// returned instead — the analyzer, not the table, decides whether that is
// an error (spec §4.3).
func (st *SymbolTable) Enter(name string) *Record {
	top := st.scopes[len(st.scopes)-1]
	if rec, ok := top.records[name]; ok {
		return rec
	}
	rec := &Record{Name: name, Level: top.level}
	top.records[name] = rec
	top.order = append(top.order, name)
	return rec
}

// LookupLocal searches only the top frame.
func (st *SymbolTable) LookupLocal(name string) (*Record, bool) {
	top := st.scopes[len(st.scopes)-1]
	rec, ok := top.records[name]
	return rec, ok
}

// Lookup searches from innermost to outermost, returning the first match.
func (st *SymbolTable) Lookup(name string) (*Record, bool) {
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if rec, ok := st.scopes[i].records[name]; ok {
			return rec, true
		}
	}
	return nil, false
}

func (st *SymbolTable) dump(w io.Writer) {
	for _, sc := range st.scopes {
		fmt.Fprintln(w, "~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~")
		fmt.Fprintf(w, "scope level %d\n", sc.level)
		fmt.Fprintln(w, "----------------------------------------")
		for _, name := range sc.order {
			rec := sc.records[name]
			fmt.Fprintf(w, "Token Name: %s  Line No: %d  Position: %d  Type: %s  Kind: %s  Level: %d  Offset: %d  Trace?: 0  #params: 0",
				rec.Name, rec.Line, rec.Col, rec.Type, rec.Kind, rec.Level, rec.Offset)
			if rec.Kind == KindFunction {
				fmt.Fprintf(w, "  Return ty: %s", rec.ReturnType)
			}
			fmt.Fprintln(w)
		}
	}
}
