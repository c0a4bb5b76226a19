package check

import (
	"github.com/tide-lang/tidec/ast"
	"github.com/tide-lang/tidec/types"
)

// checkExpr fills e's type slot (if not already set by the parser for
// literals) and validates the rule table of spec §4.2.
func (c *Checker) checkExpr(e ast.Expr) error {
	switch n := e.(type) {
	case *ast.NullLit, *ast.BoolLit, *ast.IntLit, *ast.NumLit:
		return nil // typed at parse time
	case *ast.StringLit:
		for _, pos := range n.InvalidEscapes {
			c.warnf(pos, "unrecognized escape sequence")
		}
		for _, sub := range n.Exprs {
			if err := c.checkExpr(sub); err != nil {
				return err
			}
		}
		n.SetType(types.TText)
		return nil
	case *ast.CommandLit:
		if n.Modifiers.DeprecatedUnsafe {
			c.warnf(n.Modifiers.UnsafePos, "'unsafe' is deprecated, use 'trust' instead")
		}
		for _, pos := range n.InvalidEscapes {
			c.warnf(pos, "unrecognized escape sequence")
		}
		for _, sub := range n.Exprs {
			if err := c.checkExpr(sub); err != nil {
				return err
			}
		}
		n.SetType(types.TText)
		return nil
	case *ast.VarGet:
		decl, ok := c.Ctx.LookupVariable(n.Name)
		if !ok {
			return c.errf(n.Span().Start, "undefined identifier %q", n.Name)
		}
		decl.IsUsed = true
		n.GlobalID = decl.GlobalID
		n.SetType(decl.Type)
		return nil
	case *ast.Binary:
		return c.checkBinary(n)
	case *ast.Unary:
		return c.checkUnary(n)
	case *ast.TypeExpr:
		return c.checkTypeExpr(n)
	case *ast.Ternary:
		return c.checkTernary(n)
	case *ast.Paren:
		if err := c.checkExpr(n.Inner); err != nil {
			return err
		}
		n.SetType(n.Inner.Type())
		return nil
	case *ast.ArrayLit:
		return c.checkArrayLit(n)
	case *ast.Index:
		return c.checkIndex(n)
	case *ast.Invocation:
		return c.checkInvocation(n)
	case *ast.Status:
		return nil
	case *ast.NameOf:
		return nil
	default:
		return c.errf(e.Span().Start, "Undefined syntax")
	}
}

func (c *Checker) checkBinary(n *ast.Binary) error {
	if err := c.checkExpr(n.Left); err != nil {
		return err
	}
	if err := c.checkExpr(n.Right); err != nil {
		return err
	}
	l, r := n.Left.Type(), n.Right.Type()

	switch n.Op {
	case ast.Add:
		if l.IsNumeric() && r.IsNumeric() {
			t, _ := types.BinaryNumeric(l, r)
			n.SetType(t)
			return nil
		}
		if l.Kind == types.Text && r.Kind == types.Text {
			n.SetType(types.TText)
			return nil
		}
		if l.Kind == types.Array && r.Kind == types.Array && types.Equal(l.Elem, r.Elem) {
			n.SetType(l)
			return nil
		}
		return c.errf(n.Span().Start, "'+' is not defined for %s and %s", l, r)
	case ast.Sub, ast.Mul, ast.Div, ast.Mod:
		t, ok := types.BinaryNumeric(l, r)
		if !ok {
			return c.errf(n.Span().Start, "arithmetic operator requires numeric operands, got %s and %s", l, r)
		}
		n.SetType(t)
		return nil
	case ast.Eq, ast.Neq:
		if !types.Equal(l, r) {
			return c.errf(n.Span().Start, "cannot compare %s and %s for equality", l, r)
		}
		n.SetType(types.TBool)
		return nil
	case ast.Lt, ast.Le, ast.Gt, ast.Ge:
		if (l.IsNumeric() && r.IsNumeric()) || (l.Kind == types.Text && r.Kind == types.Text) ||
			(l.Kind == types.Array && r.Kind == types.Array && types.Equal(l.Elem, r.Elem)) {
			n.SetType(types.TBool)
			return nil
		}
		return c.errf(n.Span().Start, "relational operator not defined for %s and %s", l, r)
	case ast.And, ast.Or:
		if l.Kind != types.Bool || r.Kind != types.Bool {
			return c.errf(n.Span().Start, "'and'/'or' require Bool operands, got %s and %s", l, r)
		}
		n.SetType(types.TBool)
		return nil
	case ast.Range, ast.RangeInclusive:
		if !l.IsNumeric() || !r.IsNumeric() {
			return c.errf(n.Span().Start, "range endpoints must be numeric, got %s and %s", l, r)
		}
		n.SetType(types.NewArray(types.TNum))
		return nil
	default:
		return c.errf(n.Span().Start, "Undefined syntax")
	}
}

func (c *Checker) checkUnary(n *ast.Unary) error {
	if err := c.checkExpr(n.Operand); err != nil {
		return err
	}
	switch n.Op {
	case ast.Neg:
		if !n.Operand.Type().IsNumeric() {
			return c.errf(n.Span().Start, "unary '-' requires a numeric operand, got %s", n.Operand.Type())
		}
		n.SetType(n.Operand.Type())
	case ast.Not:
		if n.Operand.Type().Kind != types.Bool {
			return c.errf(n.Span().Start, "'not' requires a Bool operand, got %s", n.Operand.Type())
		}
		n.SetType(types.TBool)
	}
	return nil
}

func (c *Checker) checkTypeExpr(n *ast.TypeExpr) error {
	if err := c.checkExpr(n.Operand); err != nil {
		return err
	}
	if n.Op == ast.IsOp {
		n.SetType(types.TBool)
		return nil
	}
	// `as` cast: warn on "absurd" casts unless allowed (spec §4.2).
	src := n.Operand.Type()
	if isAbsurdCast(src, n.Target) && !c.AllowAbsurdCast {
		n.IsAbsurd = true
		c.warnf(n.Span().Start, "cast from %s to %s is likely unintentional", src, n.Target)
	}
	n.SetType(n.Target)
	return nil
}

func isAbsurdCast(src, dst *types.Type) bool {
	if src.Kind == types.Array && dst.Kind == types.Array && !types.Equal(src.Elem, dst.Elem) {
		return true
	}
	if (src.Kind == types.Array) != (dst.Kind == types.Array) {
		return true
	}
	if src.Kind == types.Null || dst.Kind == types.Null {
		return src.Kind != dst.Kind
	}
	if src.Kind == types.Text && (dst.Kind == types.Int || dst.Kind == types.Num) {
		return true
	}
	return false
}

func (c *Checker) checkTernary(n *ast.Ternary) error {
	if err := c.checkExpr(n.Cond); err != nil {
		return err
	}
	if n.Cond.Type().Kind != types.Bool {
		return c.errf(n.Cond.Span().Start, "ternary condition must be Bool, got %s", n.Cond.Type())
	}
	if err := c.checkExpr(n.Then); err != nil {
		return err
	}
	if err := c.checkExpr(n.Else); err != nil {
		return err
	}
	if !types.Equal(n.Then.Type(), n.Else.Type()) {
		return c.errf(n.Span().Start, "ternary arms must share a type, got %s and %s", n.Then.Type(), n.Else.Type())
	}
	n.SetType(n.Then.Type())
	return nil
}

func (c *Checker) checkArrayLit(n *ast.ArrayLit) error {
	if n.ElemType != nil {
		if n.ElemType.Kind == types.Array {
			return c.errf(n.Span().Start, "nested array literals are not supported")
		}
		n.SetType(types.NewArray(n.ElemType))
		return nil
	}
	if len(n.Elems) == 0 {
		// Empty array literal with no type hole (spec §9 open question b):
		// this implementation resolves it to Array(Generic), matching the
		// lattice's existing "matches anything during monomorphization"
		// semantics rather than propagating into sibling positions.
		n.SetType(types.NewArray(types.TGeneric))
		return nil
	}
	for _, el := range n.Elems {
		if err := c.checkExpr(el); err != nil {
			return err
		}
	}
	elemType := n.Elems[0].Type()
	if elemType.Kind == types.Array {
		return c.errf(n.Span().Start, "nested array literals are not supported")
	}
	for _, el := range n.Elems[1:] {
		if !types.Equal(el.Type(), elemType) {
			return c.errf(el.Span().Start, "array elements must share a type: %s vs %s", elemType, el.Type())
		}
	}
	n.SetType(types.NewArray(elemType))
	return nil
}

func (c *Checker) checkIndex(n *ast.Index) error {
	if err := c.checkExpr(n.Array); err != nil {
		return err
	}
	if n.Array.Type().Kind != types.Array {
		return c.errf(n.Span().Start, "indexing requires an Array, got %s", n.Array.Type())
	}
	if err := c.checkExpr(n.Start); err != nil {
		return err
	}
	if !n.Start.Type().IsNumeric() {
		return c.errf(n.Start.Span().Start, "array index must be numeric, got %s", n.Start.Type())
	}
	if n.End != nil {
		if err := c.checkExpr(n.End); err != nil {
			return err
		}
		if !n.End.Type().IsNumeric() {
			return c.errf(n.End.Span().Start, "array slice end must be numeric, got %s", n.End.Type())
		}
		n.SetType(n.Array.Type())
		return nil
	}
	n.SetType(n.Array.Type().Elem)
	return nil
}

func (c *Checker) checkInvocation(n *ast.Invocation) error {
	argTypes := make([]*types.Type, len(n.Args))
	for i, a := range n.Args {
		if err := c.checkExpr(a); err != nil {
			return err
		}
		argTypes[i] = a.Type()
	}
	decl, ok := c.Ctx.LookupFunction(n.Name)
	if !ok {
		return c.errf(n.Span().Start, "undefined function %q", n.Name)
	}
	if len(n.Args) < decl.RequiredArgs() || len(n.Args) > len(decl.ArgTypes) {
		return c.errf(n.Span().Start, "function %q expects between %d and %d arguments, got %d",
			n.Name, decl.RequiredArgs(), len(decl.ArgTypes), len(n.Args))
	}
	for i, at := range argTypes {
		declared := decl.ArgTypes[i]
		if declared != nil && declared.Kind != types.Generic && !types.Equal(declared, at) && !types.IsSubtype(at, declared) {
			return c.errf(n.Args[i].Span().Start, "argument %d of %q: expected %s, got %s", i+1, n.Name, declared, at)
		}
	}
	n.DeclID = decl.ID
	if c.Resolve == nil {
		n.SetType(decl.Returns)
		return nil
	}
	variantID, returns, err := c.Resolve(c.Ctx, n, argTypes)
	if err != nil {
		return err
	}
	n.VariantID = variantID
	n.SetType(returns)
	return nil
}
