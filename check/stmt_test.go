package check

import (
	"testing"

	"github.com/tide-lang/tidec/ast"
	"github.com/tide-lang/tidec/lexer"
	"github.com/tide-lang/tidec/types"
)

func TestCheckMainBlockBindsParamGlobalIDs(t *testing.T) {
	c, ctx := newChecker()
	main := &ast.MainBlock{
		Params: []string{"name", "count"},
		Body: &ast.Block{Stmts: []ast.Statement{
			&ast.Echo{Value: &ast.VarGet{Name: "name"}},
		}},
	}
	if err := c.checkStmt(main); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(main.ParamIDs) != 2 {
		t.Fatalf("expected 2 ParamIDs, got %d", len(main.ParamIDs))
	}
	if main.ParamIDs[0] == main.ParamIDs[1] {
		t.Error("expected distinct GlobalIDs for distinct params")
	}
	decl, ok := ctx.Global().Variables["name"]
	if !ok {
		t.Fatal("expected 'name' to be declared in the global scope")
	}
	if decl.GlobalID != main.ParamIDs[0] || decl.Type.Kind != types.Text {
		t.Errorf("expected 'name' bound to ParamIDs[0] as Text, got GlobalID=%d Type=%s", decl.GlobalID, decl.Type)
	}
}

func TestCheckBreakContinueRequireLoopContext(t *testing.T) {
	c, _ := newChecker()
	if err := c.checkStmt(&ast.Break{}); err == nil {
		t.Error("expected 'break' outside a loop to be rejected")
	}
	if err := c.checkStmt(&ast.Continue{}); err == nil {
		t.Error("expected 'continue' outside a loop to be rejected")
	}

	if err := c.checkLoopBody(&ast.Block{Stmts: []ast.Statement{&ast.Break{}, &ast.Continue{}}}); err != nil {
		t.Errorf("expected 'break'/'continue' to be accepted inside a loop, got %v", err)
	}
}

func TestCheckVarInitDestructuringRequiresArray(t *testing.T) {
	c, _ := newChecker()
	n := &ast.VarInit{Names: []string{"a", "b"}, Value: intLit(1)}
	if err := c.checkStmt(n); err == nil {
		t.Error("expected destructuring a non-Array value to be rejected")
	}
}

func TestCheckVarInitDestructuringAssignsOneIDPerName(t *testing.T) {
	c, ctx := newChecker()
	arr := &ast.ArrayLit{Elems: []ast.Expr{intLit(1), intLit(2)}}
	n := &ast.VarInit{Names: []string{"a", "b"}, Value: arr}
	if err := c.checkStmt(n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(n.GlobalIDs) != 2 {
		t.Fatalf("expected 2 GlobalIDs, got %d", len(n.GlobalIDs))
	}
	if _, ok := ctx.Global().Variables["a"]; !ok {
		t.Error("expected 'a' to be declared")
	}
	if _, ok := ctx.Global().Variables["b"]; !ok {
		t.Error("expected 'b' to be declared")
	}
}

func TestCheckVarInitRejectsDeclaredTypeMismatch(t *testing.T) {
	c, _ := newChecker()
	n := &ast.VarInit{Names: []string{"x"}, DeclaredType: types.TText, Value: intLit(1)}
	if err := c.checkStmt(n); err == nil {
		t.Error("expected a declared-type/value-type mismatch to be rejected")
	}
}

func TestCheckCommandModifierWarnsOnDeprecatedUnsafe(t *testing.T) {
	c, _ := newChecker()
	n := &ast.CommandModifierStmt{
		Modifiers: ast.CommandModifiers{Trust: true, DeprecatedUnsafe: true, UnsafePos: lexer.Pos{Line: 1, Col: 1}},
		Body:      &ast.Block{},
	}
	if err := c.checkStmt(n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Bag.Warnings()) != 1 {
		t.Fatalf("expected exactly 1 warning, got %d", len(c.Bag.Warnings()))
	}
}

func TestCheckCommandModifierNoWarningWithoutDeprecatedUnsafe(t *testing.T) {
	c, _ := newChecker()
	n := &ast.CommandModifierStmt{Modifiers: ast.CommandModifiers{Trust: true}, Body: &ast.Block{}}
	if err := c.checkStmt(n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Bag.Warnings()) != 0 {
		t.Errorf("expected no warnings for plain 'trust', got %d", len(c.Bag.Warnings()))
	}
}

func TestCheckFailureHandlerWarnsOnRedundantHandler(t *testing.T) {
	c, _ := newChecker()
	h := &ast.FailureHandler{Kind: ast.HandlerSucceeded, Redundant: true, Block: &ast.Block{Stmts: []ast.Statement{&ast.Echo{Value: intLit(1)}}}}
	if err := c.checkFailureHandler(h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Bag.Warnings()) != 1 {
		t.Fatalf("expected exactly 1 warning, got %d", len(c.Bag.Warnings()))
	}
}

func TestCheckFailureHandlerWarnsOnEmptyBlock(t *testing.T) {
	c, _ := newChecker()
	h := &ast.FailureHandler{Kind: ast.HandlerFailed, Block: &ast.Block{}}
	if err := c.checkFailureHandler(h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Bag.Warnings()) != 1 {
		t.Fatalf("expected exactly 1 warning for an empty handler block, got %d", len(c.Bag.Warnings()))
	}
}

func TestCheckFailureHandlerNoWarningsWhenRequiredAndNonEmpty(t *testing.T) {
	c, _ := newChecker()
	h := &ast.FailureHandler{Kind: ast.HandlerExited, Block: &ast.Block{Stmts: []ast.Statement{&ast.Echo{Value: intLit(1)}}}}
	if err := c.checkFailureHandler(h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Bag.Warnings()) != 0 {
		t.Errorf("expected no warnings, got %d", len(c.Bag.Warnings()))
	}
}

func TestCheckFailCodeMustBeNumeric(t *testing.T) {
	c, _ := newChecker()
	if err := c.checkStmt(&ast.Fail{Code: boolLit(true)}); err == nil {
		t.Error("expected a non-numeric 'fail' code to be rejected")
	}
	if err := c.checkStmt(&ast.Fail{Code: intLit(2)}); err != nil {
		t.Errorf("expected a numeric 'fail' code to be accepted, got %v", err)
	}
	if err := c.checkStmt(&ast.Fail{}); err != nil {
		t.Errorf("expected a codeless 'fail' to be accepted, got %v", err)
	}
}
