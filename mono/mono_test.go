package mono

import (
	"testing"

	"github.com/tide-lang/tidec/ast"
	"github.com/tide-lang/tidec/diag"
	"github.com/tide-lang/tidec/lexer"
	"github.com/tide-lang/tidec/parser"
	"github.com/tide-lang/tidec/scope"
	"github.com/tide-lang/tidec/types"
)

func parseDecl(t *testing.T, src string) (*ast.FunctionDeclStmt, *scope.Context) {
	t.Helper()
	tokens, err := lexer.New("test.tide", src).Tokenize()
	if err != nil {
		t.Fatalf("lexing: %v", err)
	}
	var nextGlobalID, nextFuncID int
	ctx := scope.NewContext("test.tide", tokens, &nextGlobalID, &nextFuncID)
	stmts, err := parser.New(ctx).ParseFile()
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}
	for _, st := range stmts {
		if fn, ok := st.(*ast.FunctionDeclStmt); ok {
			return fn, ctx
		}
	}
	t.Fatal("no function declaration found")
	return nil, nil
}

func TestResolveSpecializesAndCaches(t *testing.T) {
	decl, ctx := parseDecl(t, "fun f(n) {\n    ret n\n}\n")

	bag := &diag.Bag{}
	m := New(bag)
	m.Register(decl, ctx)

	call := &ast.Invocation{Name: "f", DeclID: decl.ID}
	v1, ret1, err := m.Resolve(ctx, call, []*types.Type{types.TInt})
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	if v1 != 0 {
		t.Errorf("expected first variant id 0, got %d", v1)
	}
	if !types.Equal(ret1, types.TInt) {
		t.Errorf("expected inferred return Int, got %s", ret1)
	}

	v2, _, err := m.Resolve(ctx, call, []*types.Type{types.TInt})
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if v2 != v1 {
		t.Errorf("expected the same argument-type tuple to reuse variant %d, got %d", v1, v2)
	}

	insts := m.Instances(decl.ID)
	if len(insts) != 1 {
		t.Fatalf("expected exactly one cached instance, got %d", len(insts))
	}
	if len(insts[0].ArgGlobalIDs) != 1 {
		t.Fatalf("expected one ArgGlobalID for the single parameter, got %d", len(insts[0].ArgGlobalIDs))
	}
	if insts[0].EmittedName == "" {
		t.Error("expected a non-empty emitted name")
	}
}

func TestResolveSpecializesSeparatelyPerArgType(t *testing.T) {
	decl, ctx := parseDecl(t, "fun f(n) {\n    ret n\n}\n")

	bag := &diag.Bag{}
	m := New(bag)
	m.Register(decl, ctx)

	call := &ast.Invocation{Name: "f", DeclID: decl.ID}
	vInt, _, err := m.Resolve(ctx, call, []*types.Type{types.TInt})
	if err != nil {
		t.Fatalf("Resolve(Int): %v", err)
	}
	vText, _, err := m.Resolve(ctx, call, []*types.Type{types.TText})
	if err != nil {
		t.Fatalf("Resolve(Text): %v", err)
	}
	if vInt == vText {
		t.Error("expected distinct argument types to produce distinct variants")
	}
	if len(m.Instances(decl.ID)) != 2 {
		t.Fatalf("expected two cached instances, got %d", len(m.Instances(decl.ID)))
	}
}

func TestResolveRecursiveCallReusesInFlightVariant(t *testing.T) {
	decl, ctx := parseDecl(t, "fun f(n: Int): Int {\n    ret f(n)\n}\n")

	bag := &diag.Bag{}
	m := New(bag)
	m.Register(decl, ctx)

	call := &ast.Invocation{Name: "f", DeclID: decl.ID}
	outerVariant, _, err := m.Resolve(ctx, call, []*types.Type{types.TInt})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	insts := m.Instances(decl.ID)
	if len(insts) != 1 {
		t.Fatalf("expected exactly one cached instance, got %d", len(insts))
	}
	ret, ok := insts[0].Body.Stmts[0].(*ast.Return)
	if !ok {
		t.Fatalf("expected the body's only statement to be a return, got %T", insts[0].Body.Stmts[0])
	}
	inner, ok := ret.Value.(*ast.Invocation)
	if !ok {
		t.Fatalf("expected the return value to be the recursive call, got %T", ret.Value)
	}
	if inner.VariantID != outerVariant {
		t.Errorf("expected the recursive call to resolve to the in-flight variant %d, got %d", outerVariant, inner.VariantID)
	}
}

func TestRegisterNativeBypassesSpecialization(t *testing.T) {
	bag := &diag.Bag{}
	m := New(bag)
	m.RegisterNative(1, func(argTypes []*types.Type) *types.Type {
		return argTypes[0]
	})

	call := &ast.Invocation{Name: "native", DeclID: 1}
	_, ret, err := m.Resolve(nil, call, []*types.Type{types.TBool})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !types.Equal(ret, types.TBool) {
		t.Errorf("expected the native resolver's return type to pass through, got %s", ret)
	}
}
