package diag

import (
	"strings"
	"testing"

	"github.com/tide-lang/tidec/lexer"
)

func TestDiagnosticFormatWithoutSource(t *testing.T) {
	d := &Diagnostic{Severity: Error, Path: "t.tide", Pos: lexer.Pos{Line: 3, Col: 5}, Message: "boom"}
	got := d.Format("")
	want := "t.tide:3:5: error: boom"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDiagnosticFormatWithCommentAndSource(t *testing.T) {
	d := &Diagnostic{Severity: Warning, Path: "t.tide", Pos: lexer.Pos{Line: 2, Col: 3}, Message: "unused", Comment: "never read"}
	src := "let a = 1\nlet b = 2\n"
	got := d.Format(src)
	if !strings.Contains(got, "warning: unused (never read)") {
		t.Errorf("expected severity/message/comment, got %q", got)
	}
	if !strings.Contains(got, "let b = 2") {
		t.Errorf("expected the offending source line to be quoted, got %q", got)
	}
	if !strings.Contains(got, "^") {
		t.Errorf("expected a caret marker, got %q", got)
	}
}

func TestDiagnosticFormatOutOfRangeLineOmitsSource(t *testing.T) {
	d := &Diagnostic{Severity: Error, Path: "t.tide", Pos: lexer.Pos{Line: 99, Col: 1}, Message: "boom"}
	got := d.Format("let a = 1\n")
	if strings.Contains(got, "\n") {
		t.Errorf("expected no source excerpt for an out-of-range line, got %q", got)
	}
}

func TestBagHasErrorsAndFiltering(t *testing.T) {
	b := &Bag{}
	b.Warnf("t.tide", lexer.Pos{Line: 1, Col: 1}, "careful: %d", 1)
	if b.HasErrors() {
		t.Error("expected HasErrors to be false with only a warning")
	}
	b.Add(&Diagnostic{Severity: Error, Path: "t.tide", Message: "broken"})
	if !b.HasErrors() {
		t.Error("expected HasErrors to be true after adding an Error")
	}
	if len(b.Warnings()) != 1 || len(b.Errors()) != 1 {
		t.Errorf("expected 1 warning and 1 error, got %d/%d", len(b.Warnings()), len(b.Errors()))
	}
}
