package compiler

import (
	"bytes"
	"strings"
	"testing"
)

func TestSymbolTableBuiltinsArePreinstalled(t *testing.T) {
	st := NewSymbolTable()
	for _, name := range []string{"INT2REAL", "REAL2INT", "INT2STRING", "REAL2STRING"} {
		rec, ok := st.Lookup(name)
		if !ok {
			t.Fatalf("%s not found in a fresh symbol table", name)
		}
		if rec.Kind != KindFunction {
			t.Fatalf("%s: got kind %v, want KindFunction", name, rec.Kind)
		}
	}
}

func TestSymbolTableLookupFindsInnermostFirst(t *testing.T) {
	st := NewSymbolTable()
	outer := st.Enter("X")
	outer.Type = TyInteger

	st.OpenScope()
	inner := st.Enter("X")
	inner.Type = TyString

	rec, ok := st.Lookup("X")
	if !ok || rec.Type != TyString {
		t.Fatalf("want the inner shadowing X (string), got %v ok=%v", rec, ok)
	}

	var buf bytes.Buffer
	st.CloseScopeAndDump(&buf)

	rec, ok = st.Lookup("X")
	if !ok || rec.Type != TyInteger {
		t.Fatalf("after closing the inner scope want the outer X (integer), got %v ok=%v", rec, ok)
	}
}

func TestSymbolTableLookupLocalDoesNotSeeOuterScopes(t *testing.T) {
	st := NewSymbolTable()
	st.Enter("X")
	st.OpenScope()
	if _, ok := st.LookupLocal("X"); ok {
		t.Fatal("LookupLocal should not see a name declared in an outer scope")
	}
}

func TestSymbolTableGlobalScopeNeverPops(t *testing.T) {
	st := NewSymbolTable()
	before := st.Depth()
	var buf bytes.Buffer
	st.CloseScopeAndDump(&buf)
	if st.Depth() != before {
		t.Fatalf("closing the only (global) scope should be a no-op, depth went from %d to %d", before, st.Depth())
	}
}

func TestSymbolTableDumpFormat(t *testing.T) {
	st := NewSymbolTable()
	rec := st.Enter("COUNT")
	rec.Line, rec.Col = 3, 7
	rec.Type = TyInteger
	rec.Kind = KindVariable
	rec.Offset = 0

	var buf bytes.Buffer
	st.CloseScopeAndDump(&buf)
	out := buf.String()

	for _, want := range []string{
		"~~~~",
		"scope level 0",
		"----",
		"Token Name: COUNT",
		"Line No: 3",
		"Position: 7",
		"Type: integer",
		"Kind: variable",
		"Offset: 0",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("dump output missing %q:\n%s", want, out)
		}
	}
}

func TestSymbolTableDumpIncludesReturnTypeForFunctions(t *testing.T) {
	st := NewSymbolTable()
	var buf bytes.Buffer
	st.CloseScopeAndDump(&buf)
	out := buf.String()
	if !strings.Contains(out, "Return ty: real") {
		t.Fatalf("dump should print INT2REAL's return type, got:\n%s", out)
	}
}

func TestSymbolTableCloseScopeAndDumpPrintsWholeOpenStack(t *testing.T) {
	st := NewSymbolTable()
	st.Enter("A")
	st.OpenScope()
	st.Enter("B")

	var buf bytes.Buffer
	st.CloseScopeAndDump(&buf)
	out := buf.String()

	if !strings.Contains(out, "scope level 0") || !strings.Contains(out, "scope level 1") {
		t.Fatalf("expected both open scope levels in the dump, got:\n%s", out)
	}
	if !strings.Contains(out, "Token Name: A") || !strings.Contains(out, "Token Name: B") {
		t.Fatalf("expected both records in the dump, got:\n%s", out)
	}
}
