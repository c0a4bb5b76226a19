package optimize

import (
	"testing"

	"github.com/tide-lang/tidec/fragment"
)

func TestFoldEphemeralsChainsThroughSoleRef(t *testing.T) {
	// __1_eph1 = "value"; __2_eph2 = __1_eph1; __3_x = __2_eph2 (both ephemerals fold away)
	b := &fragment.Block{Stmts: []fragment.Fragment{
		&fragment.VarStmt{Name: "eph1", GlobalID: 1, Op: "=", Ephemeral: true, Value: &fragment.Raw{Text: `"value"`}},
		&fragment.VarStmt{Name: "eph2", GlobalID: 2, Op: "=", Ephemeral: true, Value: &fragment.VarExpr{Name: "eph1", GlobalID: 1}},
		&fragment.VarStmt{Name: "x", GlobalID: 3, Op: "=", Value: &fragment.VarExpr{Name: "eph2", GlobalID: 2}},
	}}

	out := FoldEphemerals(b)
	if len(out.Stmts) != 1 {
		t.Fatalf("expected both ephemerals folded away, got %d statements", len(out.Stmts))
	}
	vs, ok := out.Stmts[0].(*fragment.VarStmt)
	if !ok {
		t.Fatalf("expected remaining statement to be a VarStmt, got %T", out.Stmts[0])
	}
	raw, ok := vs.Value.(*fragment.Raw)
	if !ok || raw.Text != `"value"` {
		t.Errorf("expected folded value %q, got %#v", `"value"`, vs.Value)
	}
}

func TestFoldEphemeralsLeavesNonEphemeralAlone(t *testing.T) {
	b := &fragment.Block{Stmts: []fragment.Fragment{
		&fragment.VarStmt{Name: "x", GlobalID: 1, Op: "=", Value: &fragment.Raw{Text: "1"}},
		&fragment.VarStmt{Name: "y", GlobalID: 2, Op: "+=", Value: &fragment.Raw{Text: "2"}},
	}}
	out := FoldEphemerals(b)
	if len(out.Stmts) != 2 {
		t.Fatalf("expected both statements to survive, got %d", len(out.Stmts))
	}
}

func TestFoldEphemeralsEmptyBlockEmitsNoop(t *testing.T) {
	b := &fragment.Block{Stmts: []fragment.Fragment{
		&fragment.VarStmt{Name: "eph", GlobalID: 1, Op: "=", Ephemeral: true, Value: &fragment.Raw{Text: "1"}},
	}}
	out := FoldEphemerals(b)
	if len(out.Stmts) != 1 {
		t.Fatalf("expected a single no-op placeholder statement, got %d", len(out.Stmts))
	}
	raw, ok := out.Stmts[0].(*fragment.Raw)
	if !ok || raw.Text != ":" {
		t.Errorf("expected the no-op placeholder %q, got %#v", ":", out.Stmts[0])
	}
}

func TestFoldEphemeralsRecursesIntoNestedBlocks(t *testing.T) {
	inner := &fragment.Block{Stmts: []fragment.Fragment{
		&fragment.VarStmt{Name: "eph", GlobalID: 1, Op: "=", Ephemeral: true, Value: &fragment.Raw{Text: "1"}},
		&fragment.VarStmt{Name: "x", GlobalID: 2, Op: "=", Value: &fragment.VarExpr{Name: "eph", GlobalID: 1}},
	}}
	outer := &fragment.Block{Stmts: []fragment.Fragment{
		&fragment.WhileStmt{Cond: &fragment.Raw{Text: "true"}, Body: inner},
	}}

	FoldEphemerals(outer)
	ws := outer.Stmts[0].(*fragment.WhileStmt)
	if len(ws.Body.Stmts) != 1 {
		t.Fatalf("expected the nested block's ephemeral to fold away too, got %d statements", len(ws.Body.Stmts))
	}
}
