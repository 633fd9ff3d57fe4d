package lexer

import (
	"testing"

	"github.com/mgdickerson/cRust-sub000/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestScanAll_SimpleAssignment(t *testing.T) {
	toks := New("t.pl0", "let a <- 1 + 2 * 3;").ScanAll()
	got := kinds(toks)
	want := []token.Kind{
		token.LET, token.IDENT, token.ASSIGN, token.NUMBER, token.PLUS,
		token.NUMBER, token.STAR, token.NUMBER, token.SEMI, token.EOF,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestScanAll_Keywords(t *testing.T) {
	toks := New("t.pl0", "main var i, s; while i <= 10 do od").ScanAll()
	got := kinds(toks)
	want := []token.Kind{
		token.MAIN, token.VAR, token.IDENT, token.COMMA, token.IDENT, token.SEMI,
		token.WHILE, token.IDENT, token.LE, token.NUMBER, token.DO, token.OD, token.EOF,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestScanAll_SkipsComments(t *testing.T) {
	toks := New("t.pl0", "// a comment\nlet a <- 1").ScanAll()
	got := kinds(toks)
	want := []token.Kind{token.LET, token.IDENT, token.ASSIGN, token.NUMBER, token.EOF}
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
}

func TestScanAll_LineColumnTracking(t *testing.T) {
	toks := New("t.pl0", "let a\n<- 1").ScanAll()
	// '<-' is on line 2, column 1
	for _, tok := range toks {
		if tok.Kind == token.ASSIGN {
			if tok.Pos.Line != 2 {
				t.Errorf("expected ASSIGN on line 2, got %d", tok.Pos.Line)
			}
			if tok.Pos.Column != 1 {
				t.Errorf("expected ASSIGN at column 1, got %d", tok.Pos.Column)
			}
		}
	}
}
