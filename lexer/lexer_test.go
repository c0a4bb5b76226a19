package lexer

import "testing"

func tokenize(t *testing.T, src string) []Token {
	t.Helper()
	toks, err := New("t.tide", src).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", src, err)
	}
	return toks
}

func TestTokenizeIdentifiersAndKeywords(t *testing.T) {
	toks := tokenize(t, "let x = count")
	want := []struct {
		kind Kind
		word string
	}{
		{Keyword, "let"}, {Ident, "x"}, {Operator, "="}, {Ident, "count"}, {EOF, ""},
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, w := range want {
		if toks[i].Kind != w.kind || toks[i].Word != w.word {
			t.Errorf("token %d = %s(%q), want %s(%q)", i, toks[i].Kind, toks[i].Word, w.kind, w.word)
		}
	}
}

func TestTokenizeForceKeyword(t *testing.T) {
	toks := tokenize(t, "rm force path")
	if toks[0].Kind != Keyword || toks[0].Word != "rm" {
		t.Fatalf("expected 'rm' to lex as a keyword, got %s(%q)", toks[0].Kind, toks[0].Word)
	}
	if toks[1].Kind != Keyword || toks[1].Word != "force" {
		t.Errorf("expected 'force' to lex as a keyword, got %s(%q)", toks[1].Kind, toks[1].Word)
	}
}

func TestTokenizeIntAndNumLiterals(t *testing.T) {
	toks := tokenize(t, "42 3.14 1_000")
	if toks[0].Kind != IntLit || toks[0].Int != 42 {
		t.Errorf("got %s Int=%d, want IntLit 42", toks[0].Kind, toks[0].Int)
	}
	if toks[1].Kind != NumLit || toks[1].Num != 3.14 {
		t.Errorf("got %s Num=%v, want NumLit 3.14", toks[1].Kind, toks[1].Num)
	}
	if toks[2].Kind != IntLit || toks[2].Int != 1000 {
		t.Errorf("expected underscore-separated digits to parse as 1000, got %d", toks[2].Int)
	}
}

func TestTokenizeMultiCharOperators(t *testing.T) {
	toks := tokenize(t, "a <= b and c == d")
	ops := []string{}
	for _, tok := range toks {
		if tok.Kind == Operator {
			ops = append(ops, tok.Word)
		}
	}
	want := []string{"<=", "=="}
	if len(ops) != len(want) {
		t.Fatalf("got operators %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("operator %d = %q, want %q", i, ops[i], want[i])
		}
	}
}

func TestTokenizeDocCommentVsPlainComment(t *testing.T) {
	toks := tokenize(t, "/// does a thing\n// plain\nfun f() {}")
	if toks[0].Kind != DocComment {
		t.Errorf("expected a /// comment to lex as DocComment, got %s", toks[0].Kind)
	}
	if toks[1].Kind != Comment {
		t.Errorf("expected a // comment to lex as Comment, got %s", toks[1].Kind)
	}
}

func TestTokenizeStringLiteralWithInterpolation(t *testing.T) {
	toks := tokenize(t, `"hello {name}!"`)
	if toks[0].Kind != StringLit {
		t.Fatalf("expected a StringLit, got %s", toks[0].Kind)
	}
	reg := toks[0].Region
	if reg == nil {
		t.Fatal("expected a populated Region")
	}
	if len(reg.Literals) != 2 || reg.Literals[0] != "hello " || reg.Literals[1] != "!" {
		t.Errorf("got Literals=%#v, want [\"hello \" \"!\"]", reg.Literals)
	}
	if len(reg.Exprs) != 1 {
		t.Fatalf("expected exactly one interpolated expression, got %d", len(reg.Exprs))
	}
	if reg.Exprs[0][0].Kind != Ident || reg.Exprs[0][0].Word != "name" {
		t.Errorf("expected the interpolated expr's first token to be identifier 'name', got %s(%q)", reg.Exprs[0][0].Kind, reg.Exprs[0][0].Word)
	}
}

func TestTokenizeStringEscapes(t *testing.T) {
	toks := tokenize(t, `"a\nb\tc"`)
	reg := toks[0].Region
	if len(reg.Literals) != 1 || reg.Literals[0] != "a\nb\tc" {
		t.Errorf("got %q, want %q", reg.Literals[0], "a\nb\tc")
	}
}

func TestTokenizeStringRecordsUnrecognizedEscapePosition(t *testing.T) {
	toks := tokenize(t, `"a\qb"`)
	reg := toks[0].Region
	if len(reg.InvalidEscapes) != 1 {
		t.Fatalf("expected exactly 1 recorded invalid escape, got %d", len(reg.InvalidEscapes))
	}
	if reg.Literals[0] != "a\\qb" {
		t.Errorf("expected the unrecognized escape preserved literally, got %q", reg.Literals[0])
	}
	if reg.InvalidEscapes[0].Col != 3 {
		t.Errorf("expected the invalid escape position at col 3 (the backslash), got col %d", reg.InvalidEscapes[0].Col)
	}
}

func TestTokenizeUnterminatedStringIsAnError(t *testing.T) {
	if _, err := New("t.tide", `"unterminated`).Tokenize(); err == nil {
		t.Error("expected an unterminated string literal to be a lexical error")
	}
}

func TestTokenizeCommandLiteral(t *testing.T) {
	toks := tokenize(t, "$echo {name}$")
	if toks[0].Kind != CommandLit {
		t.Fatalf("expected a CommandLit, got %s", toks[0].Kind)
	}
	if len(toks[0].Region.Exprs) != 1 {
		t.Fatalf("expected one interpolated expression in the command literal")
	}
}
