package check

import (
	"testing"

	"github.com/tide-lang/tidec/ast"
	"github.com/tide-lang/tidec/diag"
	"github.com/tide-lang/tidec/lexer"
	"github.com/tide-lang/tidec/scope"
	"github.com/tide-lang/tidec/types"
)

func newChecker() (*Checker, *scope.Context) {
	var globalID, funcID int
	ctx := scope.NewContext("t.tide", nil, &globalID, &funcID)
	return New(ctx, &diag.Bag{}, nil), ctx
}

// The checker's literal case ("typed at parse time") assumes the parser
// already filled Typ, so these helpers do what the parser would.
func intLit(v int64) *ast.IntLit {
	n := &ast.IntLit{Value: v}
	n.SetType(types.TInt)
	return n
}

func numLit(v float64) *ast.NumLit {
	n := &ast.NumLit{Value: v}
	n.SetType(types.TNum)
	return n
}

func boolLit(v bool) *ast.BoolLit {
	n := &ast.BoolLit{Value: v}
	n.SetType(types.TBool)
	return n
}

func TestCheckBinaryNumericWidening(t *testing.T) {
	c, _ := newChecker()
	n := &ast.Binary{Op: ast.Add, Left: intLit(1), Right: numLit(2.5)}
	if err := c.checkExpr(n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Type().Kind != types.Num {
		t.Errorf("expected Int+Num to widen to Num, got %s", n.Type())
	}
}

func TestCheckBinaryAddRejectsMismatchedNonNumeric(t *testing.T) {
	c, _ := newChecker()
	n := &ast.Binary{Op: ast.Add, Left: boolLit(true), Right: intLit(1)}
	if err := c.checkExpr(n); err == nil {
		t.Error("expected '+' between Bool and Int to be rejected")
	}
}

func TestCheckBinaryAndRequiresBool(t *testing.T) {
	c, _ := newChecker()
	n := &ast.Binary{Op: ast.And, Left: intLit(1), Right: boolLit(true)}
	if err := c.checkExpr(n); err == nil {
		t.Error("expected 'and' with a non-Bool operand to be rejected")
	}
}

func TestCheckTernaryMismatchedArms(t *testing.T) {
	c, _ := newChecker()
	n := &ast.Ternary{Cond: boolLit(true), Then: intLit(1), Else: boolLit(false)}
	if err := c.checkExpr(n); err == nil {
		t.Error("expected mismatched ternary arm types to be rejected")
	}
}

func TestCheckArrayLitEmptyInfersGenericElem(t *testing.T) {
	c, _ := newChecker()
	n := &ast.ArrayLit{}
	if err := c.checkExpr(n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Type().Kind != types.Array || n.Type().Elem.Kind != types.Generic {
		t.Errorf("expected Array(Generic) for an empty literal, got %s", n.Type())
	}
}

func TestCheckArrayLitRejectsNestedArrays(t *testing.T) {
	c, _ := newChecker()
	inner := &ast.ArrayLit{Elems: []ast.Expr{intLit(1)}}
	if err := c.checkExpr(inner); err != nil {
		t.Fatalf("unexpected error preparing inner array: %v", err)
	}
	outer := &ast.ArrayLit{Elems: []ast.Expr{inner}}
	if err := c.checkExpr(outer); err == nil {
		t.Error("expected a nested array literal to be rejected")
	}
}

func TestCheckArrayLitRejectsMixedElementTypes(t *testing.T) {
	c, _ := newChecker()
	n := &ast.ArrayLit{Elems: []ast.Expr{intLit(1), boolLit(true)}}
	if err := c.checkExpr(n); err == nil {
		t.Error("expected mixed-typed array elements to be rejected")
	}
}

func TestCheckIndexRequiresArrayAndNumericIndex(t *testing.T) {
	c, _ := newChecker()
	arr := &ast.ArrayLit{Elems: []ast.Expr{intLit(1), intLit(2)}}
	idx := &ast.Index{Array: arr, Start: intLit(0)}
	if err := c.checkExpr(idx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Type().Kind != types.Int {
		t.Errorf("expected indexing Array(Int) to yield Int, got %s", idx.Type())
	}

	bad := &ast.Index{Array: intLit(1), Start: intLit(0)}
	if err := c.checkExpr(bad); err == nil {
		t.Error("expected indexing a non-array to be rejected")
	}
}

func TestCheckIndexSliceYieldsSameArrayType(t *testing.T) {
	c, _ := newChecker()
	arr := &ast.ArrayLit{Elems: []ast.Expr{intLit(1), intLit(2), intLit(3)}}
	idx := &ast.Index{Array: arr, Start: intLit(0), End: intLit(2)}
	if err := c.checkExpr(idx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Type().Kind != types.Array || idx.Type().Elem.Kind != types.Int {
		t.Errorf("expected a slice to stay Array(Int), got %s", idx.Type())
	}
}

func TestCheckVarGetUndefinedIdentifier(t *testing.T) {
	c, _ := newChecker()
	n := &ast.VarGet{Name: "missing"}
	if err := c.checkExpr(n); err == nil {
		t.Error("expected an undefined identifier to be rejected")
	}
}

func TestCheckVarGetMarksUsedAndResolvesID(t *testing.T) {
	c, ctx := newChecker()
	decl := &scope.VariableDecl{Name: "x", Type: types.TInt, GlobalID: 7}
	ctx.Global().Variables["x"] = decl
	n := &ast.VarGet{Name: "x"}
	if err := c.checkExpr(n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decl.IsUsed {
		t.Error("expected LookupVariable's result to be marked used")
	}
	if n.GlobalID != 7 || n.Type().Kind != types.Int {
		t.Errorf("got GlobalID=%d Type=%s, want 7 Int", n.GlobalID, n.Type())
	}
}

func TestCheckStringLitWarnsOnInvalidEscapes(t *testing.T) {
	c, _ := newChecker()
	n := &ast.StringLit{Literals: []string{"a\\qb"}, InvalidEscapes: []lexer.Pos{{Line: 1, Col: 3}}}
	if err := c.checkExpr(n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Bag.Warnings()) != 1 {
		t.Fatalf("expected exactly 1 warning, got %d", len(c.Bag.Warnings()))
	}
}

func TestCheckStringLitNoWarningWithoutInvalidEscapes(t *testing.T) {
	c, _ := newChecker()
	n := &ast.StringLit{Literals: []string{"hello"}}
	if err := c.checkExpr(n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Bag.Warnings()) != 0 {
		t.Errorf("expected no warnings, got %d", len(c.Bag.Warnings()))
	}
}

func TestCheckInvocationArityAndArgTypes(t *testing.T) {
	c, ctx := newChecker()
	ctx.Global().Functions["f"] = &scope.FunctionDecl{
		Name:     "f",
		ArgTypes: []*types.Type{types.TInt},
		ArgOptionals: []bool{false},
		Returns:  types.TText,
		ID:       1,
	}
	ok := &ast.Invocation{Name: "f", Args: []ast.Expr{intLit(1)}}
	if err := c.checkExpr(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok.Type().Kind != types.Text {
		t.Errorf("expected the declared return type Text, got %s", ok.Type())
	}

	tooFew := &ast.Invocation{Name: "f", Args: nil}
	if err := c.checkExpr(tooFew); err == nil {
		t.Error("expected a missing required argument to be rejected")
	}

	wrongType := &ast.Invocation{Name: "f", Args: []ast.Expr{boolLit(true)}}
	if err := c.checkExpr(wrongType); err == nil {
		t.Error("expected a mismatched argument type to be rejected")
	}
}
