// Package optimize implements the two fragment-tree passes of spec §4.6:
// ephemeral-variable folding and unused-variable elimination. Both are
// purely local to the fragment tree, idempotent, and preserve observable
// shell semantics.
package optimize

import "github.com/tide-lang/tidec/fragment"

// FoldEphemerals implements "ephemeral-variable folding": for any adjacent
// pair (eph = V; nonEph = eph), the second statement's value becomes V and
// the first statement is deleted; the substitution is transitive
// (eph1 = V; eph2 = eph1; x = eph2 → x = V). Recurses into nested blocks.
func FoldEphemerals(b *fragment.Block) *fragment.Block {
	out := &fragment.Block{IncreaseIndent: b.IncreaseIndent, IsConditional: b.IsConditional}
	values := make(map[int]fragment.Fragment) // global id -> its folded source value, once known ephemeral

	for _, st := range b.Stmts {
		recurseInto(st)

		vs, ok := st.(*fragment.VarStmt)
		if !ok || vs.Op != "=" || vs.Index != nil {
			out.Stmts = append(out.Stmts, st)
			continue
		}

		if ref, isRef := soleVarRef(vs.Value); isRef {
			if src, known := values[ref.GlobalID]; known {
				vs.Value = src
			}
		}

		if vs.Ephemeral {
			values[vs.GlobalID] = vs.Value
			continue // fold away: never itself emitted
		}
		out.Stmts = append(out.Stmts, vs)
	}
	if len(out.Stmts) == 0 {
		out.Stmts = append(out.Stmts, &fragment.Raw{Text: ":"})
	}
	return out
}

// soleVarRef reports whether v is exactly one bare VarExpr reference (no
// index, no length, unquoted wrapper aside), the shape eph-folding chains
// through.
func soleVarRef(v fragment.Fragment) (*fragment.VarExpr, bool) {
	ve, ok := v.(*fragment.VarExpr)
	if !ok || ve.Index != nil || ve.IsLength || ve.IsRef {
		return nil, false
	}
	return ve, true
}

// recurseInto applies FoldEphemerals to any nested *Block a fragment carries
// (if/while/for/loop bodies), in place.
func recurseInto(f fragment.Fragment) {
	switch n := f.(type) {
	case *fragment.IfStmt:
		for i, b := range n.Blocks {
			n.Blocks[i] = FoldEphemerals(b)
		}
		if n.Else != nil {
			n.Else = FoldEphemerals(n.Else)
		}
	case *fragment.WhileStmt:
		n.Body = FoldEphemerals(n.Body)
	case *fragment.ForEachStmt:
		n.Body = FoldEphemerals(n.Body)
	case *fragment.InfiniteLoopStmt:
		n.Body = FoldEphemerals(n.Body)
	case *fragment.Block:
		n.Stmts = FoldEphemerals(n).Stmts
	}
}
