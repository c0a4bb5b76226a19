package optimize

import "github.com/tide-lang/tidec/fragment"

// usageState accumulates the timeline-based usage analysis of spec §4.6.
// kept[id] is sticky once set true (a use always wins); pending tracks the
// most recent not-yet-resolved write to each id, along with whether that
// write happened inside a conditional block (spec §4.6: "overwrites inside
// conditional blocks do not count as overwrites").
type usageState struct {
	kept               map[int]bool
	pending            map[int]*fragment.VarStmt
	pendingConditional map[int]bool
}

func newUsageState() *usageState {
	return &usageState{
		kept:               make(map[int]bool),
		pending:            make(map[int]*fragment.VarStmt),
		pendingConditional: make(map[int]bool),
	}
}

func (s *usageState) markUsed(ids []int) {
	for _, id := range ids {
		s.kept[id] = true
	}
}

// EliminateUnused implements "unused-variable elimination" (spec §4.6).
// Liveness is tracked per variable id, not per write: a plain VarStmt (no
// ref/index/shorthand override) is dropped only when its id is never read
// anywhere in the block and no write to it is left pending inside a
// conditional block. Once an id is read, every write to it is kept; a write
// that is overwritten before any read is not dropped on its own.
func EliminateUnused(b *fragment.Block) *fragment.Block {
	st := newUsageState()
	walkUnused(b.Stmts, false, st)
	return pruneUnused(b, st)
}

func isForceKept(vs *fragment.VarStmt) bool {
	return vs.IsRef || vs.Index != nil || vs.Op != "=" || vs.NoOptimize
}

func walkUnused(stmts []fragment.Fragment, conditional bool, st *usageState) {
	for _, f := range stmts {
		switch n := f.(type) {
		case *fragment.VarStmt:
			reads := collectReads(n.Value)
			if n.Index != nil {
				reads = append(reads, collectReads(n.Index.Scalar)...)
				if n.Index.End != nil {
					reads = append(reads, collectReads(n.Index.End)...)
				}
			}
			st.markUsed(reads)

			if _, had := st.pending[n.GlobalID]; had && !conditional {
				// An unconditional, now-resolved overwrite: the prior
				// pending write's liveness is whatever markUsed already
				// decided (sticky); nothing more to do since kept[id] never
				// un-sets once true.
				delete(st.pending, n.GlobalID)
			}

			if isForceKept(n) {
				st.kept[n.GlobalID] = true
				delete(st.pending, n.GlobalID)
				continue
			}
			if _, decided := st.kept[n.GlobalID]; !decided {
				st.kept[n.GlobalID] = false
			}
			st.pending[n.GlobalID] = n
			st.pendingConditional[n.GlobalID] = conditional

		case *fragment.IfStmt:
			for i, cond := range n.Conds {
				st.markUsed(collectReads(cond))
				walkUnused(n.Blocks[i].Stmts, true, st)
			}
			if n.Else != nil {
				walkUnused(n.Else.Stmts, true, st)
			}
		case *fragment.WhileStmt:
			st.markUsed(collectReads(n.Cond))
			walkUnused(n.Body.Stmts, true, st)
		case *fragment.ForEachStmt:
			st.markUsed(collectReads(n.Collection))
			walkUnused(n.Body.Stmts, true, st)
		case *fragment.InfiniteLoopStmt:
			walkUnused(n.Body.Stmts, true, st)
		case *fragment.Block:
			walkUnused(n.Stmts, conditional, st)
		default:
			st.markUsed(collectReads(f))
		}
	}

	// Any write still pending when its enclosing block ends and that was
	// written inside a conditional block is conservatively kept (spec
	// §4.6: "Variables first referenced inside a conditional block are
	// conservatively kept" — extended here to writes whose fate a
	// conditional overwrite never definitively resolved).
	for id, wasConditional := range st.pendingConditional {
		if wasConditional {
			st.kept[id] = true
		}
	}
}

func pruneUnused(b *fragment.Block, st *usageState) *fragment.Block {
	out := &fragment.Block{IncreaseIndent: b.IncreaseIndent, IsConditional: b.IsConditional}
	for _, f := range b.Stmts {
		switch n := f.(type) {
		case *fragment.VarStmt:
			if isForceKept(n) || st.kept[n.GlobalID] {
				out.Stmts = append(out.Stmts, n)
			}
		case *fragment.IfStmt:
			for i, blk := range n.Blocks {
				n.Blocks[i] = pruneUnused(blk, st)
			}
			if n.Else != nil {
				n.Else = pruneUnused(n.Else, st)
			}
			out.Stmts = append(out.Stmts, n)
		case *fragment.WhileStmt:
			n.Body = pruneUnused(n.Body, st)
			out.Stmts = append(out.Stmts, n)
		case *fragment.ForEachStmt:
			n.Body = pruneUnused(n.Body, st)
			out.Stmts = append(out.Stmts, n)
		case *fragment.InfiniteLoopStmt:
			n.Body = pruneUnused(n.Body, st)
			out.Stmts = append(out.Stmts, n)
		case *fragment.Block:
			n.Stmts = pruneUnused(n, st).Stmts
			out.Stmts = append(out.Stmts, n)
		default:
			out.Stmts = append(out.Stmts, f)
		}
	}
	if len(out.Stmts) == 0 {
		out.Stmts = append(out.Stmts, &fragment.Raw{Text: ":"})
	}
	return out
}

// collectReads walks a fragment expression tree and returns every VarExpr
// global id it reads — the "read dependencies" spec §4.6 computes by
// walking a statement's RHS.
func collectReads(f fragment.Fragment) []int {
	switch n := f.(type) {
	case nil:
		return nil
	case *fragment.VarExpr:
		out := []int{n.GlobalID}
		if n.Index != nil {
			out = append(out, collectReads(n.Index.Scalar)...)
			if n.Index.End != nil {
				out = append(out, collectReads(n.Index.End)...)
			}
		}
		return out
	case *fragment.List:
		var out []int
		for _, c := range n.Children {
			out = append(out, collectReads(c)...)
		}
		return out
	case *fragment.Interpolable:
		var out []int
		for _, e := range n.Exprs {
			out = append(out, collectReads(e)...)
		}
		return out
	case *fragment.Subprocess:
		return collectReads(n.Inner)
	case *fragment.Arithmetic:
		return append(collectReads(n.Left), collectReads(n.Right)...)
	case *fragment.Template:
		var out []int
		for _, a := range n.Args {
			out = append(out, collectReads(a)...)
		}
		return out
	default:
		return nil
	}
}
