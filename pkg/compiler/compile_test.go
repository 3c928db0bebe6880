package compiler

import (
	"strings"
	"testing"
)

func TestCompileEmptyProgramHasZeroErrors(t *testing.T) {
	res, err := Compile("program P is begin end P;")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.ErrorCount != 0 {
		t.Fatalf("got %d errors, want 0:\n%s", res.ErrorCount, res.Listing)
	}
	if res.Instructions == "" {
		t.Fatal("a program with zero errors should produce instructions")
	}
}

func TestCompileErrorsSuppressCodeGeneration(t *testing.T) {
	res, err := Compile("program P is X : integer := TRUE; begin end P;")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.ErrorCount == 0 {
		t.Fatal("assigning a boolean to an integer variable should be a type mismatch")
	}
	if res.Instructions != "" {
		t.Fatal("instructions must be empty when error_count != 0 (spec §7)")
	}
}

func TestCompileDuplicateDeclaration(t *testing.T) {
	res, err := Compile(`program P is
X : integer;
X : real;
begin end P;`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.ErrorCount != 1 {
		t.Fatalf("got %d errors, want exactly 1:\n%s", res.ErrorCount, res.Listing)
	}
	if !strings.Contains(res.Listing, CodeDuplicateDeclaration.String()) {
		t.Fatalf("listing should mention duplicate declaration:\n%s", res.Listing)
	}
}

func TestCompileWideningAssignmentIsAccepted(t *testing.T) {
	res, err := Compile(`program P is
X : real;
Y : integer;
begin
X := Y;
end P;`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.ErrorCount != 0 {
		t.Fatalf("real := integer should widen silently, got %d errors:\n%s", res.ErrorCount, res.Listing)
	}
}

func TestCompileAssignToConstantIsRejected(t *testing.T) {
	res, err := Compile(`program P is
constant PI := 3;
begin
PI := 4;
end P;`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.ErrorCount == 0 {
		t.Fatal("assigning to a constant should be rejected")
	}
	if !strings.Contains(res.Listing, CodeNotAssignable.String()) {
		t.Fatalf("listing should mention not-assignable:\n%s", res.Listing)
	}
}

func TestCompileExitOutsideLoopIsRejected(t *testing.T) {
	res, err := Compile(`program P is
begin
exit;
end P;`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.ErrorCount == 0 {
		t.Fatal("exit outside a loop should be rejected")
	}
	if !strings.Contains(res.Listing, CodeExitOutsideLoop.String()) {
		t.Fatalf("listing should mention exit-outside-loop:\n%s", res.Listing)
	}
}

func TestCompileEndIdentifierMismatch(t *testing.T) {
	res, err := Compile("program P is begin end Q;")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.ErrorCount == 0 {
		t.Fatal("END Q after PROGRAM P should be rejected")
	}
	if !strings.Contains(res.Listing, CodeEndIdentifierMismatch.String()) {
		t.Fatalf("listing should mention the end-identifier mismatch:\n%s", res.Listing)
	}
}

func TestCompileRecoveryReportsExactlyOnePerErrorRegion(t *testing.T) {
	// The stray literals 2 and 3 after `X := 1` form one error region: the
	// missing ';' is reported once and recovery skips to the real ';'
	// without a diagnostic per skipped token.
	res, err := Compile(`program P is
X : integer;
begin
X := 1 2 3;
end P;`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.ErrorCount != 1 {
		t.Fatalf("malformed statement should report exactly one diagnostic, got %d:\n%s", res.ErrorCount, res.Listing)
	}
}

func TestCompileProcedureCallAndLoop(t *testing.T) {
	res, err := Compile(`program P is
procedure INC_TWICE(N : ref integer) is
begin
N := N + 1;
N := N + 1;
end INC_TWICE;
TOTAL : integer := 0;
begin
for I in 1..3 loop
TOTAL := TOTAL + I;
end loop;
INC_TWICE(TOTAL);
write(TOTAL);
end P;`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.ErrorCount != 0 {
		t.Fatalf("got %d errors, want 0:\n%s", res.ErrorCount, res.Listing)
	}
	if !strings.Contains(res.Instructions, "CAL") {
		t.Fatalf("expected a CAL instruction for INC_TWICE in output:\n%s", res.Instructions)
	}
	if !strings.Contains(res.Instructions, "OPR") {
		t.Fatalf("expected OPR instructions in output:\n%s", res.Instructions)
	}
}

func TestCompileSymbolDumpCoversEveryClosedScope(t *testing.T) {
	res, err := Compile(`program P is
procedure Q is
X : integer;
begin
end Q;
begin
end P;`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.ErrorCount != 0 {
		t.Fatalf("got %d errors, want 0:\n%s", res.ErrorCount, res.Listing)
	}
	if !strings.Contains(res.SymbolDump, "Token Name: X") {
		t.Fatalf("symbol dump should record Q's local X:\n%s", res.SymbolDump)
	}
	if !strings.Contains(res.SymbolDump, "Token Name: Q") {
		t.Fatalf("symbol dump should record Q itself in P's scope:\n%s", res.SymbolDump)
	}
}
