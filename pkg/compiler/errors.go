package compiler

import (
	"fmt"
	"strings"
)

// Code identifies a diagnostic from the closed numeric table shared by the
// scanner, parser, and semantic analyzer.
type Code int

const (
	CodeIdentifierExpected Code = iota
	CodeStringExpected
	CodeRealExpected
	CodeIntegerExpected
	CodeEndOfProgramExpected
	CodeSemicolonExpected
	CodeColonExpected
	CodeCommaExpected
	CodeEqualsExpected
	CodeNotEqualsExpected
	CodeLessThanExpected
	CodeGreaterThanExpected
	CodeLessOrEqualExpected
	CodeGreaterOrEqualExpected
	CodePlusExpected
	CodeMinusExpected
	CodeSlashExpected
	CodeStarExpected
	CodePowerExpected
	CodeAmpExpected
	CodeLParenExpected
	CodeRParenExpected
	CodeRangeExpected
	CodeBecomesExpected
	CodeKeywordExpected // generic "X expected" for a specific reserved word

	CodeIllegalUnderscore
	CodeIllegalCharacter
	CodeUnterminatedString
	CodeNumericFormat

	CodeErrorInStatement
	CodeEndIdentifierMismatch
	CodeTypeNameExpected
	CodeParameterModeExpected

	CodeNotDeclared
	CodeDuplicateDeclaration
	CodeNotAssignable
	CodeTypeMismatch
	CodeArithmeticRequired
	CodeBooleanRequired
	CodeBothStringsRequired
	CodeExitOutsideLoop

	CodeInternal
)

var codeText = map[Code]string{
	CodeIdentifierExpected:     "identifier expected",
	CodeStringExpected:         "string literal expected",
	CodeRealExpected:           "real literal expected",
	CodeIntegerExpected:        "integer literal expected",
	CodeEndOfProgramExpected:   "end of program expected",
	CodeSemicolonExpected:      "';' expected",
	CodeColonExpected:          "':' expected",
	CodeCommaExpected:          "',' expected",
	CodeEqualsExpected:         "'=' expected",
	CodeNotEqualsExpected:      "'<>' expected",
	CodeLessThanExpected:       "'<' expected",
	CodeGreaterThanExpected:    "'>' expected",
	CodeLessOrEqualExpected:    "'<=' expected",
	CodeGreaterOrEqualExpected: "'>=' expected",
	CodePlusExpected:           "'+' expected",
	CodeMinusExpected:          "'-' expected",
	CodeSlashExpected:          "'/' expected",
	CodeStarExpected:           "'*' expected",
	CodePowerExpected:          "'**' expected",
	CodeAmpExpected:            "'&' expected",
	CodeLParenExpected:         "'(' expected",
	CodeRParenExpected:         "')' expected",
	CodeRangeExpected:          "'..' expected",
	CodeBecomesExpected:        "':=' expected",
	CodeKeywordExpected:        "reserved word expected",
	CodeIllegalUnderscore:      "illegal underscore in identifier",
	CodeIllegalCharacter:       "illegal character",
	CodeUnterminatedString:     "unterminated string literal",
	CodeNumericFormat:          "malformed numeric literal",
	CodeErrorInStatement:       "error in statement",
	CodeEndIdentifierMismatch:  "program/procedure/function name mismatch at END",
	CodeTypeNameExpected:       "type name expected",
	CodeParameterModeExpected:  "parameter mode (VALUE or REF) expected",
	CodeNotDeclared:            "not declared",
	CodeDuplicateDeclaration:   "duplicate declaration",
	CodeNotAssignable:          "not assignable",
	CodeTypeMismatch:           "type mismatch",
	CodeArithmeticRequired:     "arithmetic operand required",
	CodeBooleanRequired:        "boolean operand required",
	CodeBothStringsRequired:    "string operand required",
	CodeExitOutsideLoop:        "exit outside a loop",
	CodeInternal:               "internal compiler error",
}

func (c Code) String() string {
	if s, ok := codeText[c]; ok {
		return s
	}
	return fmt.Sprintf("error %d", int(c))
}

// Diagnostic is a single reported error, always tied to a source position.
type Diagnostic struct {
	Line int
	Col  int
	Code Code
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s", d.Line, d.Col, d.Code)
}

// ErrorSink accumulates diagnostics for the whole compilation. It is the
// single owner of the error count; the scanner, parser, and semantic
// analyzer each hold a non-owning reference to it.
//
// Dedup-under-recovery lives in the parser (the `recovering` flag decides
// whether to call Report at all); the sink itself never filters what it is
// given, matching the "accepts diagnostics ... counts total errors"
// contract of spec §4.2.
type ErrorSink struct {
	diags []Diagnostic
	lines []string
}

// NewErrorSink creates a sink that can echo source lines into a listing.
func NewErrorSink(source string) *ErrorSink {
	return &ErrorSink{lines: strings.Split(source, "\n")}
}

// Report records a diagnostic at (line, col).
func (e *ErrorSink) Report(line, col int, code Code) {
	e.diags = append(e.diags, Diagnostic{Line: line, Col: col, Code: code})
}

// ReportAt records a diagnostic at the position of tok.
func (e *ErrorSink) ReportAt(tok Token, code Code) {
	e.Report(tok.Line, tok.Col, code)
}

// Count returns the total number of diagnostics recorded.
func (e *ErrorSink) Count() int { return len(e.diags) }

// Diagnostics returns the accumulated diagnostics in report order.
func (e *ErrorSink) Diagnostics() []Diagnostic { return e.diags }

// sourceLine returns the text of the given 1-based line, or a
// placeholder if it is out of range.
func (e *ErrorSink) sourceLine(n int) string {
	idx := n - 1
	if idx < 0 || idx >= len(e.lines) {
		return "<source unavailable>"
	}
	return e.lines[idx]
}

// Listing renders every source line interleaved with the diagnostics
// reported against it, in the style of the teacher's single-error
// fmtError but accumulated across the whole file.
func (e *ErrorSink) Listing() string {
	byLine := make(map[int][]Diagnostic)
	for _, d := range e.diags {
		byLine[d.Line] = append(byLine[d.Line], d)
	}

	var sb strings.Builder
	for i, text := range e.lines {
		lineNo := i + 1
		fmt.Fprintf(&sb, "%5d  %s\n", lineNo, text)
		for _, d := range byLine[lineNo] {
			fmt.Fprintf(&sb, "       %*s^ %s\n", d.Col, "", d.Code)
		}
	}
	fmt.Fprintf(&sb, "\n%d error(s) found\n", e.Count())
	return sb.String()
}
