package compiler

import (
	"bytes"
	"strings"
	"testing"
)

func TestEmitterPrologueFixedBuiltinAddresses(t *testing.T) {
	e := NewEmitter()
	e.EmitPrologue()

	want := map[string]int{
		"INT2REAL":    2,
		"REAL2INT":    5,
		"INT2STRING":  8,
		"REAL2STRING": 11,
	}
	for name, addr := range want {
		if e.builtinAddr[name] != addr {
			t.Fatalf("%s: got address %d, want %d", name, e.builtinAddr[name], addr)
		}
	}
}

func TestEmitterLabelResolution(t *testing.T) {
	e := NewEmitter()
	l := e.NewLabel()
	e.Jmp(l, "forward jump")
	e.LoadInt(1, "one")
	e.PlaceLabel(l)
	e.LoadInt(2, "two")

	var buf bytes.Buffer
	if err := e.Finalize(&buf); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if !strings.Contains(lines[0], "JMP") || !strings.Contains(lines[0], "3") {
		t.Fatalf("forward jump should resolve to instruction 3, got %q", lines[0])
	}
}

func TestEmitterUnresolvedLabelIsAnError(t *testing.T) {
	e := NewEmitter()
	e.Jmp(e.NewLabel(), "never placed")
	var buf bytes.Buffer
	if err := e.Finalize(&buf); err == nil {
		t.Fatal("want an error for a label that was never placed")
	}
}

func TestEmitterPlaceLabelTwicePanics(t *testing.T) {
	e := NewEmitter()
	l := e.NewLabel()
	e.PlaceLabel(l)
	defer func() {
		if recover() == nil {
			t.Fatal("want a panic placing the same label twice")
		}
	}()
	e.PlaceLabel(l)
}

func TestEmitterSingleIncPerScope(t *testing.T) {
	e := NewEmitter()
	e.OpenScope()
	rec1 := &Record{Name: "A"}
	rec2 := &Record{Name: "B"}
	e.BindVariable(rec1)
	e.BindVariable(rec2)
	e.EmitReserve("locals")

	incCount := 0
	for _, ins := range e.instrs {
		if ins.Op == OpINC {
			incCount++
			if ins.Operand1 != 2 {
				t.Fatalf("INC operand: got %d, want 2", ins.Operand1)
			}
		}
	}
	if incCount != 1 {
		t.Fatalf("got %d INC instructions, want exactly 1", incCount)
	}
}

func TestEmitterFixedWidthOutputFormat(t *testing.T) {
	e := NewEmitter()
	e.LoadInt(7, "seven")
	var buf bytes.Buffer
	if err := e.Finalize(&buf); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	line := buf.String()
	if !strings.HasPrefix(line, "LCI") {
		t.Fatalf("got %q, want it to start with LCI", line)
	}
	if !strings.Contains(line, "(1) seven") {
		t.Fatalf("got %q, want it to carry index (1) and the comment", line)
	}
}

func TestEmitterLoopExitStack(t *testing.T) {
	e := NewEmitter()
	if e.InLoop() {
		t.Fatal("InLoop should be false before any PushLoopExit")
	}
	e.PushLoopExit("L1")
	e.PushLoopExit("L2")
	if target, ok := e.LoopExitTarget(); !ok || target != "L2" {
		t.Fatalf("got %q %v, want L2 true", target, ok)
	}
	e.PopLoopExit()
	if target, ok := e.LoopExitTarget(); !ok || target != "L1" {
		t.Fatalf("got %q %v, want L1 true", target, ok)
	}
	e.PopLoopExit()
	if e.InLoop() {
		t.Fatal("InLoop should be false once every loop has been popped")
	}
}
