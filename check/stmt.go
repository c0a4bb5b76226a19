package check

import (
	"github.com/tide-lang/tidec/ast"
	"github.com/tide-lang/tidec/lexer"
	"github.com/tide-lang/tidec/scope"
	"github.com/tide-lang/tidec/types"
)

func (c *Checker) checkStmt(st ast.Statement) error {
	switch n := st.(type) {
	case *ast.VarInit:
		return c.checkVarInit(n)
	case *ast.VarSet:
		return c.checkVarSet(n)
	case *ast.ShorthandAssign:
		return c.checkShorthandAssign(n)
	case *ast.IfCond:
		return c.checkIfCond(n)
	case *ast.IfChain:
		return c.checkIfChain(n)
	case *ast.LoopInfinite:
		return c.checkLoopBody(n.Body)
	case *ast.LoopIter:
		return c.checkLoopIter(n)
	case *ast.LoopWhile:
		return c.checkLoopWhile(n)
	case *ast.Break:
		if !c.Ctx.Flags.IsLoopCtx {
			return c.errf(n.Span().Start, "'break' used outside of a loop")
		}
		return nil
	case *ast.Continue:
		if !c.Ctx.Flags.IsLoopCtx {
			return c.errf(n.Span().Start, "'continue' used outside of a loop")
		}
		return nil
	case *ast.FunctionDeclStmt:
		// Bodies are checked lazily per specialization by the monomorphizer
		// (spec §4.3); the declaration itself carries nothing to check here.
		return nil
	case *ast.Return:
		return c.checkReturn(n)
	case *ast.Fail:
		if n.Code != nil {
			if err := c.checkExpr(n.Code); err != nil {
				return err
			}
			if !n.Code.Type().IsNumeric() {
				return c.errf(n.Code.Span().Start, "'fail' code must be numeric, got %s", n.Code.Type())
			}
		}
		return nil
	case *ast.Import:
		return nil // resolved by the imports package once paths are known
	case *ast.MainBlock:
		n.ParamIDs = make([]int, len(n.Params))
		for i, name := range n.Params {
			id := c.Ctx.NextGlobalID()
			n.ParamIDs[i] = id
			c.declareVar(name, types.TText, false, id, false, n.Span().Start)
		}
		return c.checkBlockStmts(n.Body)
	case *ast.TestBlock:
		return c.checkBlockStmts(n.Body)
	case *ast.Echo:
		return c.checkExpr(n.Value)
	case *ast.Exit:
		if n.Code == nil {
			return nil
		}
		if err := c.checkExpr(n.Code); err != nil {
			return err
		}
		if !n.Code.Type().IsNumeric() {
			return c.errf(n.Code.Span().Start, "'exit' code must be numeric, got %s", n.Code.Type())
		}
		return nil
	case *ast.Cd:
		if err := c.checkExpr(n.Path); err != nil {
			return err
		}
		if n.Path.Type().Kind != types.Text {
			return c.errf(n.Path.Span().Start, "'cd' target must be Text, got %s", n.Path.Type())
		}
		return c.checkFailureHandler(n.Handler)
	case *ast.Mv:
		if err := c.checkExpr(n.From); err != nil {
			return err
		}
		if err := c.checkExpr(n.To); err != nil {
			return err
		}
		if n.From.Type().Kind != types.Text || n.To.Type().Kind != types.Text {
			return c.errf(n.Span().Start, "'mv' paths must be Text")
		}
		return c.checkFailureHandler(n.Handler)
	case *ast.Rm:
		if err := c.checkExpr(n.Target); err != nil {
			return err
		}
		if n.Target.Type().Kind != types.Text {
			return c.errf(n.Target.Span().Start, "'rm' target must be Text, got %s", n.Target.Type())
		}
		return c.checkFailureHandler(n.Handler)
	case *ast.Silent:
		return c.checkStmt(n.Inner)
	case *ast.CommandModifierStmt:
		if n.Modifiers.DeprecatedUnsafe {
			c.warnf(n.Modifiers.UnsafePos, "'unsafe' is deprecated, use 'trust' instead")
		}
		saved := c.Ctx.Flags.IsTrustCtx
		if n.Modifiers.Trust || n.Modifiers.Sudo {
			c.Ctx.Flags.IsTrustCtx = true
		}
		err := c.checkBlockStmts(n.Body)
		c.Ctx.Flags.IsTrustCtx = saved
		return err
	case *ast.CommentStmt, *ast.DocCommentStmt:
		return nil
	case *ast.ExprStmt:
		if err := c.checkExpr(n.Value); err != nil {
			return err
		}
		return c.checkFailureHandler(n.Handler)
	default:
		return c.errf(st.Span().Start, "Undefined syntax")
	}
}

// checkBlockStmts checks a nested *ast.Block in the current scope. Only
// function bodies open a new ScopeUnit (spec §3.3 invariant 4); that push
// happens in the monomorphizer around the whole body, not per inner block.
func (c *Checker) checkBlockStmts(b *ast.Block) error {
	if b == nil {
		return nil
	}
	return c.CheckBlock(b.Stmts)
}

func (c *Checker) checkLoopBody(b *ast.Block) error {
	saved := c.Ctx.Flags.IsLoopCtx
	c.Ctx.Flags.IsLoopCtx = true
	err := c.checkBlockStmts(b)
	c.Ctx.Flags.IsLoopCtx = saved
	return err
}

func (c *Checker) checkVarInit(n *ast.VarInit) error {
	if err := c.checkExpr(n.Value); err != nil {
		return err
	}
	valType := n.Value.Type()

	if len(n.Names) > 1 {
		// Destructuring: Value must be an Array, one GlobalID per name.
		if valType.Kind != types.Array {
			return c.errf(n.Span().Start, "destructuring 'let' requires an Array value, got %s", valType)
		}
		for _, name := range n.Names {
			id := c.Ctx.NextGlobalID()
			n.GlobalIDs = append(n.GlobalIDs, id)
			c.declareVar(name, valType.Elem, n.IsConst, id, n.IsRef, n.Span().Start)
		}
		return nil
	}

	declType := valType
	if n.DeclaredType != nil {
		if !types.Equal(n.DeclaredType, valType) && !types.IsSubtype(valType, n.DeclaredType) {
			return c.errf(n.Span().Start, "cannot assign %s to declared type %s", valType, n.DeclaredType)
		}
		declType = n.DeclaredType
	}
	id := c.Ctx.NextGlobalID()
	n.GlobalIDs = []int{id}
	c.declareVar(n.Names[0], declType, n.IsConst, id, n.IsRef, n.Span().Start)
	return nil
}

func (c *Checker) declareVar(name string, t *types.Type, isConst bool, id int, isRef bool, pos lexer.Pos) {
	kind := scope.KindLet
	if isConst {
		kind = scope.KindConst
	}
	c.Ctx.Current().Variables[name] = &scope.VariableDecl{
		Name: name, Type: t, Kind: kind, IsRef: isRef, IsConst: isConst, GlobalID: id, WarnPos: pos,
	}
}

func (c *Checker) checkVarSet(n *ast.VarSet) error {
	decl, ok := c.Ctx.LookupVariable(n.Name)
	if !ok {
		return c.errf(n.Span().Start, "undefined identifier %q", n.Name)
	}
	if decl.IsConst {
		return c.errf(n.Span().Start, "cannot assign to const %q", n.Name)
	}
	decl.IsModified = true
	n.GlobalID = decl.GlobalID

	if n.Index != nil {
		if decl.Type.Kind != types.Array {
			return c.errf(n.Span().Start, "cannot index non-Array %q", n.Name)
		}
		if err := c.checkExpr(n.Index); err != nil {
			return err
		}
		if !n.Index.Type().IsNumeric() {
			return c.errf(n.Index.Span().Start, "array index must be numeric, got %s", n.Index.Type())
		}
		if n.RangeEnd != nil {
			if err := c.checkExpr(n.RangeEnd); err != nil {
				return err
			}
		}
		if err := c.checkExpr(n.Value); err != nil {
			return err
		}
		elemOrArray := decl.Type.Elem
		if n.RangeEnd != nil {
			elemOrArray = decl.Type
		}
		if !types.Equal(n.Value.Type(), elemOrArray) {
			return c.errf(n.Value.Span().Start, "cannot assign %s into %s element", n.Value.Type(), decl.Type)
		}
		return nil
	}

	if err := c.checkExpr(n.Value); err != nil {
		return err
	}
	if !types.Equal(n.Value.Type(), decl.Type) && !types.IsSubtype(n.Value.Type(), decl.Type) {
		return c.errf(n.Span().Start, "cannot assign %s to %q of type %s", n.Value.Type(), n.Name, decl.Type)
	}
	return nil
}

func (c *Checker) checkShorthandAssign(n *ast.ShorthandAssign) error {
	decl, ok := c.Ctx.LookupVariable(n.Name)
	if !ok {
		return c.errf(n.Span().Start, "undefined identifier %q", n.Name)
	}
	if decl.IsConst {
		return c.errf(n.Span().Start, "cannot assign to const %q", n.Name)
	}
	decl.IsModified = true
	n.GlobalID = decl.GlobalID
	if err := c.checkExpr(n.Value); err != nil {
		return err
	}
	rhs := n.Value.Type()
	switch n.Op {
	case ast.AddAssign:
		if decl.Type.Kind == types.Text && rhs.Kind == types.Text {
			return nil
		}
		if decl.Type.IsNumeric() && rhs.IsNumeric() {
			return nil
		}
		return c.errf(n.Span().Start, "'+=' is not defined for %s and %s", decl.Type, rhs)
	default:
		if !decl.Type.IsNumeric() || !rhs.IsNumeric() {
			return c.errf(n.Span().Start, "arithmetic shorthand assignment requires numeric operands, got %s and %s", decl.Type, rhs)
		}
		return nil
	}
}

func (c *Checker) checkCondition(e ast.Expr) error {
	if err := c.checkExpr(e); err != nil {
		return err
	}
	if e.Type().Kind != types.Bool {
		return c.errf(e.Span().Start, "condition must be Bool, got %s", e.Type())
	}
	return nil
}

func (c *Checker) checkIfCond(n *ast.IfCond) error {
	if err := c.checkCondition(n.Cond); err != nil {
		return err
	}
	if err := c.checkBlockStmts(n.Then); err != nil {
		return err
	}
	return c.checkBlockStmts(n.Else)
}

func (c *Checker) checkIfChain(n *ast.IfChain) error {
	for _, cond := range n.Conds {
		if err := c.checkCondition(cond); err != nil {
			return err
		}
	}
	for _, b := range n.Blocks {
		if err := c.checkBlockStmts(b); err != nil {
			return err
		}
	}
	return c.checkBlockStmts(n.Default)
}

func (c *Checker) checkLoopIter(n *ast.LoopIter) error {
	if err := c.checkExpr(n.Collection); err != nil {
		return err
	}
	if n.Collection.Type().Kind != types.Array {
		return c.errf(n.Collection.Span().Start, "'loop …in' requires an Array, got %s", n.Collection.Type())
	}
	elem := n.Collection.Type().Elem
	if n.IndexName != "" {
		n.IndexID = c.Ctx.NextGlobalID()
		c.declareVar(n.IndexName, types.TInt, false, n.IndexID, false, n.Span().Start)
	}
	n.ValueID = c.Ctx.NextGlobalID()
	c.declareVar(n.ValueName, elem, false, n.ValueID, false, n.Span().Start)
	return c.checkLoopBody(n.Body)
}

func (c *Checker) checkLoopWhile(n *ast.LoopWhile) error {
	if err := c.checkCondition(n.Cond); err != nil {
		return err
	}
	return c.checkLoopBody(n.Body)
}

func (c *Checker) checkReturn(n *ast.Return) error {
	if !c.Ctx.Flags.IsFunCtx {
		return c.errf(n.Span().Start, "'ret' used outside of a function")
	}
	var retType *types.Type = types.TNull
	if n.Value != nil {
		if err := c.checkExpr(n.Value); err != nil {
			return err
		}
		retType = n.Value.Type()
	}

	declared := c.Ctx.CurrentReturnType
	if declared == nil || declared.Kind == types.Generic {
		if !c.sawReturn {
			c.inferredReturn = retType
		} else if !types.Equal(c.inferredReturn, retType) {
			return c.errf(n.Span().Start, "inconsistent return types: %s vs %s", c.inferredReturn, retType)
		}
		c.sawReturn = true
		if declared != nil && declared.Kind == types.Generic && !c.AllowGenericReturn {
			return c.errf(n.Span().Start, "function with a Generic parameter cannot return a Generic-typed value without an explicit return type")
		}
		return nil
	}
	if !types.Equal(retType, declared) && !types.IsSubtype(retType, declared) {
		return c.errf(n.Span().Start, "'ret' value has type %s, declared return type is %s", retType, declared)
	}
	c.sawReturn = true
	return nil
}

func (c *Checker) checkFailureHandler(h *ast.FailureHandler) error {
	if h == nil {
		return nil
	}
	if h.Redundant {
		c.warnf(h.Pos, "failure handler is redundant: this construct cannot fail")
	}
	switch h.Kind {
	case ast.HandlerFailed, ast.HandlerExited:
		if h.BindName != "" {
			h.BindID = c.Ctx.NextGlobalID()
			c.declareVar(h.BindName, types.TText, false, h.BindID, false, h.Pos)
		}
		c.checkEmptyHandlerBlock(h)
		return c.checkBlockStmts(h.Block)
	case ast.HandlerSucceeded:
		c.checkEmptyHandlerBlock(h)
		return c.checkBlockStmts(h.Block)
	default:
		return nil
	}
}

// checkEmptyHandlerBlock warns on a `failed`/`succeeded`/`exited` handler
// whose block has no statements, since it silently discards the failure it
// was written to address (spec §7).
func (c *Checker) checkEmptyHandlerBlock(h *ast.FailureHandler) {
	if h.Block != nil && len(h.Block.Stmts) == 0 {
		c.warnf(h.Pos, "empty failure handler block")
	}
}
