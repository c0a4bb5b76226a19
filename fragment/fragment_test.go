package fragment

import (
	"strings"
	"testing"
)

func TestBlockRenderWrapsBareSubprocessStatement(t *testing.T) {
	b := &Block{Stmts: []Fragment{
		&Subprocess{Inner: &Raw{Text: "some_cmd"}},
	}}
	out := b.Render(NewTranslateContext())
	if !strings.Contains(out, `echo $(some_cmd) > /dev/null 2>&1`) {
		t.Errorf("expected a bare subprocess statement to be wrapped with echo/redirect, got %q", out)
	}
}

func TestBlockRenderDoesNotWrapSubprocessUsedAsValue(t *testing.T) {
	b := &Block{Stmts: []Fragment{
		&VarStmt{Name: "x", GlobalID: 1, Op: "=", Value: &Subprocess{Inner: &Raw{Text: "some_cmd"}}},
	}}
	out := b.Render(NewTranslateContext())
	if strings.Contains(out, "echo $(some_cmd)") {
		t.Errorf("a subprocess used as an assignment value must not be echo-wrapped, got %q", out)
	}
	if !strings.Contains(out, "__1_x=$(some_cmd)") {
		t.Errorf("expected the assignment to render plainly, got %q", out)
	}
}

func TestVarStmtRenderLocalAndIndexed(t *testing.T) {
	vs := &VarStmt{Name: "x", GlobalID: 2, IsLocal: true, Op: "=", Value: &Raw{Text: "1"}}
	if got := vs.Render(NewTranslateContext()); got != "local __2_x=1" {
		t.Errorf("got %q", got)
	}

	indexed := &VarStmt{
		Name: "arr", GlobalID: 3, Op: "=",
		Index: &IndexSpec{Scalar: &Raw{Text: "0"}},
		Value: &Raw{Text: "v"},
	}
	if got := indexed.Render(NewTranslateContext()); got != "__3_arr[0]=v" {
		t.Errorf("got %q", got)
	}
}

func TestVarExprMangling(t *testing.T) {
	if got := mangled("count", 7); got != "__7_count" {
		t.Errorf("got %q", got)
	}
}

func TestSubprocessRenderEvalMode(t *testing.T) {
	ctx := NewTranslateContext()
	ctx.Eval = true
	s := &Subprocess{Inner: &Raw{Text: "cmd"}}
	if got := s.Render(ctx); got != `$(eval "cmd")` {
		t.Errorf("got %q", got)
	}
}
