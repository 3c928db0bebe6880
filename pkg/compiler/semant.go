package compiler

// Semantics implements the type-checking and declaration rules of
// spec §4.4, operating on the shared SymbolTable and reporting through the
// shared ErrorSink.
type Semantics struct {
	syms *SymbolTable
	sink *ErrorSink
}

func NewSemantics(syms *SymbolTable, sink *ErrorSink) *Semantics {
	return &Semantics{syms: syms, sink: sink}
}

// DeclareVar enters name as a variable of type ty. A name already present
// in the current scope is a duplicate-declaration diagnostic; the
// existing record is left untouched.
func (sm *Semantics) DeclareVar(name Token, ty Type) *Record {
	if _, ok := sm.syms.LookupLocal(name.Lexeme); ok {
		sm.sink.ReportAt(name, CodeDuplicateDeclaration)
		return nil
	}
	rec := sm.syms.Enter(name.Lexeme)
	rec.Line, rec.Col = name.Line, name.Col
	rec.Type = ty
	rec.Kind = KindVariable
	return rec
}

// DeclareConst is DeclareVar with Kind fixed to KindConstant, so
// CheckAssignment later rejects writes to it.
func (sm *Semantics) DeclareConst(name Token, ty Type) *Record {
	rec := sm.DeclareVar(name, ty)
	if rec != nil {
		rec.Kind = KindConstant
	}
	return rec
}

// DeclareForIndex enters the control variable of a for-loop with the
// spec §9-directed KindForIndex, distinct from KindVariable so that an
// assignment to it inside the loop body is rejected the same way a
// constant's would be.
func (sm *Semantics) DeclareForIndex(name Token, ty Type) *Record {
	rec := sm.DeclareVar(name, ty)
	if rec != nil {
		rec.Kind = KindForIndex
	}
	return rec
}

// DeclareCallable enters a procedure, function, or the program name
// itself. It makes the same duplicate-declaration check as DeclareVar but
// sets the callable's own kind, type and return type.
func (sm *Semantics) DeclareCallable(name Token, kind Kind, returnType Type) *Record {
	if _, ok := sm.syms.LookupLocal(name.Lexeme); ok {
		sm.sink.ReportAt(name, CodeDuplicateDeclaration)
		return nil
	}
	rec := sm.syms.Enter(name.Lexeme)
	rec.Line, rec.Col = name.Line, name.Col
	rec.Kind = kind
	if kind == KindProgram {
		rec.Type = TyProgram
	} else {
		rec.Type = TyFunction
	}
	rec.ReturnType = returnType
	return rec
}

// LookupType resolves the type of a used identifier, reporting
// not-declared on a miss. The four builtin conversion functions always
// report their fixed return type regardless of what the symbol table
// currently holds for that name (spec §4.4).
func (sm *Semantics) LookupType(name Token) (Type, *Record) {
	if ty, ok := builtinReturnTypes[name.Lexeme]; ok {
		return ty, nil
	}
	rec, ok := sm.syms.Lookup(name.Lexeme)
	if !ok {
		sm.sink.ReportAt(name, CodeNotDeclared)
		return TyUnknown, nil
	}
	if rec.Kind == KindFunction || rec.Kind == KindProcedure {
		return rec.ReturnType, rec
	}
	return rec.Type, rec
}

// ResolveName looks a used name up anywhere in the open scope stack,
// reporting not-declared on a miss. Unlike LookupType it never special
// cases the builtin conversion functions: assignment and read targets get
// the record that's actually in scope, and an assignment to a builtin
// name is judged by that record's own Kind. Calls do not reach this for
// the builtin names (parseCall resolves those by name first), and the
// Kind of a call target is not checked.
func (sm *Semantics) ResolveName(name Token) (*Record, bool) {
	rec, ok := sm.syms.Lookup(name.Lexeme)
	if !ok {
		sm.sink.ReportAt(name, CodeNotDeclared)
		return nil, false
	}
	return rec, true
}

// CheckAssignment validates `name := value` where leftType/rightType have
// already been resolved by the caller, following the exact rule order of
// spec §4.4. Only KindVariable is ever assignable: constants, for-loop
// indices, and callable/program names are all rejected the same way.
func (sm *Semantics) CheckAssignment(name Token, leftType Type, rec *Record, rightType Type) {
	if rec == nil {
		// LookupType (or an equivalent not-declared path) already reported.
		return
	}
	if rec.Kind != KindVariable {
		sm.sink.ReportAt(name, CodeNotAssignable)
		return
	}
	switch {
	case leftType == rightType:
		return
	case leftType == TyReal && rightType == TyInteger:
		return
	case leftType == TyUnknown || rightType == TyUnknown:
		return
	default:
		sm.sink.ReportAt(name, CodeTypeMismatch)
	}
}

// CheckBinary implements the operator-class table of spec §4.4 and
// returns the result type, reporting at tok on violation.
func (sm *Semantics) CheckBinary(tok Token, left Type, op TokenType, right Type) Type {
	if left == TyUnknown || right == TyUnknown {
		return sm.naturalBinaryResult(op, left, right)
	}

	switch op {
	case PLUS, MINUS, STAR, SLASH, POWER:
		if left.isNumeric() && right.isNumeric() {
			if left == TyReal || right == TyReal {
				return TyReal
			}
			return TyInteger
		}
		sm.sink.ReportAt(tok, CodeArithmeticRequired)
		return TyUnknown

	case AND, OR:
		if left == TyBoolean && right == TyBoolean {
			return TyBoolean
		}
		sm.sink.ReportAt(tok, CodeBooleanRequired)
		return TyUnknown

	case AMP:
		if left == TyString && right == TyString {
			return TyString
		}
		if (left == TyString && (right.isNumeric() || right == TyBoolean)) ||
			(right == TyString && (left.isNumeric() || left == TyBoolean)) {
			return TyString
		}
		if (left.isNumeric() || left == TyBoolean) && (right.isNumeric() || right == TyBoolean) {
			return TyString
		}
		sm.sink.ReportAt(tok, CodeBothStringsRequired)
		return TyUnknown

	case EQ, NEQ:
		if sameCategory(left, right) {
			return TyBoolean
		}
		sm.sink.ReportAt(tok, CodeTypeMismatch)
		return TyUnknown

	case LT, LE, GT, GE:
		if left.isNumeric() && right.isNumeric() {
			return TyBoolean
		}
		sm.sink.ReportAt(tok, CodeTypeMismatch)
		return TyUnknown
	}
	return TyUnknown
}

// naturalBinaryResult mirrors CheckBinary's result type for each operator
// class without re-checking operands, used when either side is already
// unknown so the diagnostic cascade stops but typing continues (spec
// §4.4: "silently accepts and returns the operator's natural result
// type").
func (sm *Semantics) naturalBinaryResult(op TokenType, left, right Type) Type {
	switch op {
	case PLUS, MINUS, STAR, SLASH, POWER:
		if left == TyReal || right == TyReal {
			return TyReal
		}
		return TyInteger
	case AND, OR, EQ, NEQ, LT, LE, GT, GE:
		return TyBoolean
	case AMP:
		return TyString
	}
	return TyUnknown
}

func sameCategory(a, b Type) bool {
	if a.isNumeric() && b.isNumeric() {
		return true
	}
	return a == b
}

// CheckUnary implements `not`, unary +/-, and `odd`.
func (sm *Semantics) CheckUnary(tok Token, op TokenType, operand Type) Type {
	if operand == TyUnknown {
		if op == NOT || op == ODD {
			return TyBoolean
		}
		return operand
	}
	switch op {
	case NOT:
		if operand == TyBoolean {
			return TyBoolean
		}
		sm.sink.ReportAt(tok, CodeBooleanRequired)
		return TyUnknown
	case PLUS, MINUS:
		if operand.isNumeric() {
			return operand
		}
		sm.sink.ReportAt(tok, CodeArithmeticRequired)
		return TyUnknown
	case ODD:
		if operand == TyInteger {
			return TyBoolean
		}
		sm.sink.ReportAt(tok, CodeArithmeticRequired)
		return TyUnknown
	}
	return TyUnknown
}

// RequireBoolean reports boolean-required unless ty is boolean or
// unknown (spec §4.4).
func (sm *Semantics) RequireBoolean(tok Token, ty Type) {
	if ty != TyBoolean && ty != TyUnknown {
		sm.sink.ReportAt(tok, CodeBooleanRequired)
	}
}
