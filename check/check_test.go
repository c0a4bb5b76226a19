package check

import (
	"testing"

	"github.com/tide-lang/tidec/scope"
	"github.com/tide-lang/tidec/types"
)

func TestWarnUnusedVariablesFlagsNeverReadDecl(t *testing.T) {
	c, ctx := newChecker()
	ctx.Current().Variables["x"] = &scope.VariableDecl{Name: "x", Type: types.TInt, Kind: scope.KindLet, IsModified: true}
	c.WarnUnusedVariables()
	if len(c.Bag.Warnings()) != 1 {
		t.Fatalf("expected exactly 1 warning for an unused variable, got %d", len(c.Bag.Warnings()))
	}
}

func TestWarnUnusedVariablesFlagsNeverModifiedNonConst(t *testing.T) {
	c, ctx := newChecker()
	ctx.Current().Variables["x"] = &scope.VariableDecl{Name: "x", Type: types.TInt, Kind: scope.KindLet, IsUsed: true}
	c.WarnUnusedVariables()
	if len(c.Bag.Warnings()) != 1 {
		t.Fatalf("expected exactly 1 warning for a never-modified let, got %d", len(c.Bag.Warnings()))
	}
}

func TestWarnUnusedVariablesSkipsUsedConst(t *testing.T) {
	c, ctx := newChecker()
	ctx.Current().Variables["x"] = &scope.VariableDecl{Name: "x", Type: types.TInt, Kind: scope.KindConst, IsUsed: true}
	c.WarnUnusedVariables()
	if len(c.Bag.Warnings()) != 0 {
		t.Errorf("expected no warnings for a used const, got %d", len(c.Bag.Warnings()))
	}
}

func TestWarnUnusedVariablesSkipsUsedModifiedLet(t *testing.T) {
	c, ctx := newChecker()
	ctx.Current().Variables["x"] = &scope.VariableDecl{Name: "x", Type: types.TInt, Kind: scope.KindLet, IsUsed: true, IsModified: true}
	c.WarnUnusedVariables()
	if len(c.Bag.Warnings()) != 0 {
		t.Errorf("expected no warnings, got %d", len(c.Bag.Warnings()))
	}
}
