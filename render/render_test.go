package render

import (
	"strings"
	"testing"

	"github.com/tide-lang/tidec/fragment"
)

func TestRenderShebangAndNoPrologueWhenNoCommands(t *testing.T) {
	p := &Program{Main: &fragment.Block{}}
	out := Render(fragment.NewTranslateContext(), p, Options{})
	if !strings.HasPrefix(out, "#!/usr/bin/env bash\n") {
		t.Fatalf("expected a bash shebang first line, got %q", out)
	}
	if strings.Contains(out, "__tidec_required_cmds") {
		t.Error("expected no RDC prologue when Program.Commands is empty")
	}
}

func TestRenderEmitsRDCPrologueWhenCommandsPresent(t *testing.T) {
	p := &Program{Main: &fragment.Block{}, Commands: []string{"curl", "jq"}}
	out := Render(fragment.NewTranslateContext(), p, Options{})
	if !strings.Contains(out, "__tidec_required_cmds=('curl' 'jq')") {
		t.Errorf("expected a sorted required-commands array, got %q", out)
	}
	if !strings.Contains(out, "command -v \"$__tidec_cmd\"") {
		t.Error("expected the command -v existence check loop")
	}
}

func TestRenderTestModeOnlyEmitsSelectedTest(t *testing.T) {
	p := &Program{
		Main: &fragment.Block{},
		Tests: []TestArtifact{
			{Name: "a", Body: &fragment.Block{Stmts: []fragment.Fragment{&fragment.Raw{Text: "echo a"}}}},
			{Name: "b", Body: &fragment.Block{Stmts: []fragment.Fragment{&fragment.Raw{Text: "echo b"}}}},
		},
	}
	out := Render(fragment.NewTranslateContext(), p, Options{TestMode: true, TestName: "b"})
	if strings.Contains(out, "echo a") {
		t.Error("expected the unselected test to be skipped")
	}
	if !strings.Contains(out, "echo b") {
		t.Error("expected the selected test's body to be rendered")
	}
}

func TestMainWithParamBindingsPrependsAssignments(t *testing.T) {
	p := &Program{
		Main:         &fragment.Block{Stmts: []fragment.Fragment{&fragment.Raw{Text: "echo done"}}},
		MainParams:   []string{"name", "count"},
		MainParamIDs: []int{1, 2},
	}
	out := mainWithParamBindings(p)
	if len(out.Stmts) != 3 {
		t.Fatalf("expected 2 param bindings + 1 original statement, got %d", len(out.Stmts))
	}
	first, ok := out.Stmts[0].(*fragment.VarStmt)
	if !ok || first.Name != "name" || first.GlobalID != 1 {
		t.Errorf("expected first binding for %q (id 1), got %#v", "name", out.Stmts[0])
	}
	ctx := fragment.NewTranslateContext()
	if got := first.Render(ctx); got != "__1_name=$1" {
		t.Errorf("rendered binding = %q, want %q", got, "__1_name=$1")
	}
	if out.Stmts[2] != p.Main.Stmts[0] {
		t.Error("expected the original main body statement to follow the bindings, unchanged")
	}
}

func TestMainWithParamBindingsNoopWithoutParams(t *testing.T) {
	p := &Program{Main: &fragment.Block{Stmts: []fragment.Fragment{&fragment.Raw{Text: "echo done"}}}}
	if out := mainWithParamBindings(p); out != p.Main {
		t.Error("expected the original main block to be returned unchanged when there are no params")
	}
}

func TestRenderFunctionArrayArgument(t *testing.T) {
	fn := FunctionArtifact{
		EmittedName:  "f__1_v0",
		ArgNames:     []string{"items"},
		ArgGlobalIDs: []int{2},
		ArgIsArray:   []bool{true},
		Body:         &fragment.Block{},
	}
	out := renderFunction(fragment.NewTranslateContext(), fn)
	if !strings.Contains(out, `local __2_items=("${!1}")`) {
		t.Errorf("expected an array-dereference local binding, got %q", out)
	}
	if !strings.HasPrefix(out, "function f__1_v0 {\n") {
		t.Errorf("expected the function header first, got %q", out)
	}
}

func TestRenderFunctionScalarArgument(t *testing.T) {
	fn := FunctionArtifact{
		EmittedName:  "g__3_v0",
		ArgNames:     []string{"n"},
		ArgGlobalIDs: []int{4},
		ArgIsArray:   []bool{false},
		Body:         &fragment.Block{},
	}
	out := renderFunction(fragment.NewTranslateContext(), fn)
	if !strings.Contains(out, `local __4_n="$1"`) {
		t.Errorf("expected a plain scalar local binding, got %q", out)
	}
}

func TestRdcPrologueSortsAndDeduplicatesNothing(t *testing.T) {
	out := rdcPrologue([]string{"zsh", "awk"})
	wantOrder := "__tidec_required_cmds=('awk' 'zsh')"
	if !strings.Contains(out, wantOrder) {
		t.Errorf("expected sorted command names, got %q", out)
	}
	if !strings.Contains(out, "exit 1") {
		t.Error("expected the missing-command branch to exit 1")
	}
}
