package optimize

import (
	"testing"

	"github.com/tide-lang/tidec/fragment"
)

func globalIDs(b *fragment.Block) []int {
	var ids []int
	for _, st := range b.Stmts {
		if vs, ok := st.(*fragment.VarStmt); ok {
			ids = append(ids, vs.GlobalID)
		}
	}
	return ids
}

func TestEliminateUnusedDropsOverwrittenDeadWrite(t *testing.T) {
	// x = 1 (never read); x = 2; use x
	b := &fragment.Block{Stmts: []fragment.Fragment{
		&fragment.VarStmt{Name: "x", GlobalID: 1, Op: "=", Value: &fragment.Raw{Text: "1"}},
		&fragment.VarStmt{Name: "x", GlobalID: 1, Op: "=", Value: &fragment.Raw{Text: "2"}},
		&fragment.List{Children: []fragment.Fragment{&fragment.Raw{Text: "echo "}, &fragment.VarExpr{Name: "x", GlobalID: 1}}},
	}}
	out := EliminateUnused(b)
	if len(out.Stmts) != 2 {
		t.Fatalf("expected the dead first write to be dropped, got %d statements", len(out.Stmts))
	}
}

func TestEliminateUnusedKeepsReadBeforeOverwrite(t *testing.T) {
	b := &fragment.Block{Stmts: []fragment.Fragment{
		&fragment.VarStmt{Name: "x", GlobalID: 1, Op: "=", Value: &fragment.Raw{Text: "1"}},
		&fragment.VarStmt{Name: "y", GlobalID: 2, Op: "=", Value: &fragment.VarExpr{Name: "x", GlobalID: 1}},
		&fragment.VarStmt{Name: "x", GlobalID: 1, Op: "=", Value: &fragment.Raw{Text: "2"}},
		&fragment.List{Children: []fragment.Fragment{&fragment.Raw{Text: "echo "}, &fragment.VarExpr{Name: "x", GlobalID: 1}, &fragment.VarExpr{Name: "y", GlobalID: 2}}},
	}}
	out := EliminateUnused(b)
	ids := globalIDs(out)
	if len(ids) != 3 {
		t.Fatalf("expected all three writes kept (first one was read), got %d", len(ids))
	}
}

func TestEliminateUnusedNeverDropsRefOrIndexedWrites(t *testing.T) {
	b := &fragment.Block{Stmts: []fragment.Fragment{
		&fragment.VarStmt{Name: "x", GlobalID: 1, IsRef: true, Op: "=", Value: &fragment.Raw{Text: "1"}},
		&fragment.VarStmt{Name: "x", GlobalID: 1, IsRef: true, Op: "=", Value: &fragment.Raw{Text: "2"}},
	}}
	out := EliminateUnused(b)
	if len(out.Stmts) != 2 {
		t.Fatalf("expected ref writes to always be kept, got %d statements", len(out.Stmts))
	}
}

func TestEliminateUnusedConditionalOverwriteDoesNotCount(t *testing.T) {
	// x = 1; if cond { x = 2 } -- the conditional write must not mark the
	// first write dead, since the conditional branch might not execute.
	inner := &fragment.Block{
		Stmts:         []fragment.Fragment{&fragment.VarStmt{Name: "x", GlobalID: 1, Op: "=", Value: &fragment.Raw{Text: "2"}}},
		IsConditional: true,
	}
	b := &fragment.Block{Stmts: []fragment.Fragment{
		&fragment.VarStmt{Name: "x", GlobalID: 1, Op: "=", Value: &fragment.Raw{Text: "1"}},
		&fragment.IfStmt{Conds: []fragment.Fragment{&fragment.Raw{Text: "true"}}, Blocks: []*fragment.Block{inner}},
	}}
	out := EliminateUnused(b)
	if len(out.Stmts) != 2 {
		t.Fatalf("expected the pre-conditional write to survive, got %d statements", len(out.Stmts))
	}
}
