package compiler

import "testing"

func scanAll(t *testing.T, source string) ([]Token, *ErrorSink) {
	sink := NewErrorSink(source)
	sc := NewScanner(source, sink)
	var toks []Token
	for {
		tok := sc.Next()
		toks = append(toks, tok)
		if tok.Type == EOF {
			break
		}
	}
	return toks, sink
}

func TestScannerKeywordsAreCaseInsensitive(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want TokenType
	}{
		{"lower", "begin", BEGIN},
		{"upper", "BEGIN", BEGIN},
		{"mixed", "BeGiN", BEGIN},
		{"identifier", "myVar", IDENTIFIER},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, sink := scanAll(t, tt.src)
			if sink.Count() != 0 {
				t.Fatalf("unexpected diagnostics: %v", sink.Diagnostics())
			}
			if toks[0].Type != tt.want {
				t.Fatalf("got %v, want %v", toks[0].Type, tt.want)
			}
		})
	}
}

func TestScannerIdentifierIsUppercased(t *testing.T) {
	toks, _ := scanAll(t, "myVar")
	if toks[0].Lexeme != "MYVAR" {
		t.Fatalf("got lexeme %q, want MYVAR", toks[0].Lexeme)
	}
}

func TestScannerIntegerLiteral(t *testing.T) {
	toks, sink := scanAll(t, "42")
	if sink.Count() != 0 {
		t.Fatalf("unexpected diagnostics: %v", sink.Diagnostics())
	}
	if toks[0].Type != INTEGER || toks[0].IntVal != 42 {
		t.Fatalf("got %v %d, want INTEGER 42", toks[0].Type, toks[0].IntVal)
	}
}

func TestScannerRealLiteralWithExponent(t *testing.T) {
	toks, sink := scanAll(t, "1.5E+2")
	if sink.Count() != 0 {
		t.Fatalf("unexpected diagnostics: %v", sink.Diagnostics())
	}
	if toks[0].Type != REAL || toks[0].RealVal != 150.0 {
		t.Fatalf("got %v %v, want REAL 150.0", toks[0].Type, toks[0].RealVal)
	}
}

func TestScannerRangeIsTwoDotsNotRealLiteral(t *testing.T) {
	toks, sink := scanAll(t, "1..10")
	if sink.Count() != 0 {
		t.Fatalf("unexpected diagnostics: %v", sink.Diagnostics())
	}
	wantTypes := []TokenType{INTEGER, RANGE, INTEGER, EOF}
	if len(toks) != len(wantTypes) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(wantTypes), toks)
	}
	for i, want := range wantTypes {
		if toks[i].Type != want {
			t.Fatalf("token %d: got %v, want %v", i, toks[i].Type, want)
		}
	}
}

func TestScannerStringWithEmbeddedQuote(t *testing.T) {
	toks, sink := scanAll(t, `"a""b"`)
	if sink.Count() != 0 {
		t.Fatalf("unexpected diagnostics: %v", sink.Diagnostics())
	}
	if toks[0].Type != STRING || toks[0].StrVal != `a"b` {
		t.Fatalf("got %v %q, want STRING a\"b", toks[0].Type, toks[0].StrVal)
	}
}

func TestScannerUnterminatedString(t *testing.T) {
	_, sink := scanAll(t, "\"abc\n")
	if sink.Count() != 1 || sink.Diagnostics()[0].Code != CodeUnterminatedString {
		t.Fatalf("want one CodeUnterminatedString diagnostic, got %v", sink.Diagnostics())
	}
}

func TestScannerIllegalCharacterYieldsIllegalNotEOF(t *testing.T) {
	toks, sink := scanAll(t, "@")
	if toks[0].Type != ILLEGAL {
		t.Fatalf("got %v, want ILLEGAL (not EOF)", toks[0].Type)
	}
	if sink.Count() != 1 || sink.Diagnostics()[0].Code != CodeIllegalCharacter {
		t.Fatalf("want one CodeIllegalCharacter diagnostic, got %v", sink.Diagnostics())
	}
	if toks[1].Type != EOF {
		t.Fatalf("expected EOF to follow the illegal token, got %v", toks[1].Type)
	}
}

func TestScannerIllegalUnderscore(t *testing.T) {
	_, sink := scanAll(t, "foo__bar")
	if sink.Count() != 1 || sink.Diagnostics()[0].Code != CodeIllegalUnderscore {
		t.Fatalf("want one CodeIllegalUnderscore diagnostic, got %v", sink.Diagnostics())
	}
}

func TestScannerCommentIsSkipped(t *testing.T) {
	toks, sink := scanAll(t, "x -- a comment\n:= 1;")
	if sink.Count() != 0 {
		t.Fatalf("unexpected diagnostics: %v", sink.Diagnostics())
	}
	wantTypes := []TokenType{IDENTIFIER, BECOMES, INTEGER, SEMICOLON, EOF}
	for i, want := range wantTypes {
		if toks[i].Type != want {
			t.Fatalf("token %d: got %v, want %v", i, toks[i].Type, want)
		}
	}
}

func TestScannerPragmaIsFullySwallowed(t *testing.T) {
	toks, sink := scanAll(t, "pragma optimize(off); x")
	if sink.Count() != 0 {
		t.Fatalf("unexpected diagnostics: %v", sink.Diagnostics())
	}
	if toks[0].Type != IDENTIFIER || toks[0].Lexeme != "X" {
		t.Fatalf("want the pragma to be invisible and X to be the first token, got %v", toks)
	}
}
