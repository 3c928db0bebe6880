package compiler

import "fmt"

// Type is the semantic type of an expression or declared name.
type Type int

const (
	TyUnknown Type = iota
	TyInteger
	TyReal
	TyString
	TyBoolean
	TyFunction
	TyProgram
)

var typeNames = [...]string{
	TyUnknown:  "unknown",
	TyInteger:  "integer",
	TyReal:     "real",
	TyString:   "string",
	TyBoolean:  "boolean",
	TyFunction: "function",
	TyProgram:  "program",
}

func (t Type) String() string {
	if int(t) >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

func (t Type) isNumeric() bool { return t == TyInteger || t == TyReal }

// Kind is the role a declared name plays. Constants and for-loop indices
// share the property of not being assignable, enforced in Semantics by
// checking the kind rather than the name's type.
type Kind int

const (
	KindUnknown Kind = iota
	KindVariable
	KindConstant
	KindForIndex // spec §9: for-loop indices are a distinct non-assignable kind
	KindProcedure
	KindFunction
	KindProgram
)

var kindNames = [...]string{
	KindUnknown:   "unknown",
	KindVariable:  "variable",
	KindConstant:  "constant",
	KindForIndex:  "for_index",
	KindProcedure: "procedure",
	KindFunction:  "function",
	KindProgram:   "program",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

