package driver

import (
	"github.com/tide-lang/tidec/mono"
	"github.com/tide-lang/tidec/scope"
	"github.com/tide-lang/tidec/types"
)

// globCap bounds the number of patterns glob() accepts: the checker (spec
// §4.2) has no variadic-argument support, so a true variadic builtin isn't
// expressible without changing check/expr.go's fixed-arity arity check — a
// deliberate simplification.
const globCap = 8

// builtinSet is every compiler-provided call form (SPEC_FULL.md §3), keyed
// by name, ready to merge into each compiled file's global scope.
type builtinSet map[string]*scope.FunctionDecl

// registerBuiltins allocates one declaration id per builtin (shared across
// the whole program via nextFuncID, the same monotonic counter every
// scope.Context threads through) and registers each with m as a Native
// monomorphizer entry (mono.go), whose NativeResolve computes the call's
// return type directly from argument types rather than specializing a
// parsed body.
func registerBuiltins(m *mono.Monomorphizer, nextFuncID *int) builtinSet {
	alloc := func() int {
		id := *nextFuncID
		*nextFuncID++
		return id
	}

	out := make(builtinSet)

	lenID := alloc()
	out["len"] = &scope.FunctionDecl{
		Name: "len", ID: lenID, IsArgsTyped: true,
		ArgNames: []string{"value"}, ArgTypes: []*types.Type{nil}, ArgRefs: []bool{false}, ArgOptionals: []bool{false},
		Returns: types.TInt,
	}
	m.RegisterNative(lenID, func([]*types.Type) *types.Type { return types.TInt })

	linesID := alloc()
	arrayText := types.NewArray(types.TText)
	out["lines"] = &scope.FunctionDecl{
		Name: "lines", ID: linesID, IsArgsTyped: true,
		ArgNames: []string{"path"}, ArgTypes: []*types.Type{types.TText}, ArgRefs: []bool{false}, ArgOptionals: []bool{false},
		Returns: arrayText,
	}
	m.RegisterNative(linesID, func([]*types.Type) *types.Type { return arrayText })

	globID := alloc()
	globArgTypes := make([]*types.Type, globCap)
	globArgRefs := make([]bool, globCap)
	globArgOptionals := make([]bool, globCap)
	globArgNames := make([]string, globCap)
	for i := range globArgTypes {
		globArgTypes[i] = types.TText
		globArgOptionals[i] = i > 0
		globArgNames[i] = "pattern"
	}
	out["glob"] = &scope.FunctionDecl{
		Name: "glob", ID: globID, IsArgsTyped: true,
		ArgNames: globArgNames, ArgTypes: globArgTypes, ArgRefs: globArgRefs, ArgOptionals: globArgOptionals,
		Returns: arrayText,
	}
	m.RegisterNative(globID, func([]*types.Type) *types.Type { return arrayText })

	parserID := alloc()
	out["parser"] = &scope.FunctionDecl{
		Name: "parser", ID: parserID, IsArgsTyped: true,
		ArgNames: []string{"name"}, ArgTypes: []*types.Type{types.TText}, ArgRefs: []bool{false}, ArgOptionals: []bool{false},
		Returns: types.TNull,
	}
	m.RegisterNative(parserID, func([]*types.Type) *types.Type { return types.TNull })

	paramID := alloc()
	out["param"] = &scope.FunctionDecl{
		Name: "param", ID: paramID, IsArgsTyped: true,
		ArgNames:     []string{"parser", "spec", "default", "help"},
		ArgTypes:     []*types.Type{types.TText, types.TText, nil, types.TText},
		ArgRefs:      []bool{false, false, false, false},
		ArgOptionals: []bool{false, false, false, true},
	}
	m.RegisterNative(paramID, func(argTypes []*types.Type) *types.Type {
		if len(argTypes) > 2 {
			return argTypes[2]
		}
		return types.TNull
	})

	getoptID := alloc()
	out["getopt"] = &scope.FunctionDecl{
		Name: "getopt", ID: getoptID, IsArgsTyped: true,
		ArgNames:     []string{"parser", "args"},
		ArgTypes:     []*types.Type{types.TText, arrayText},
		ArgRefs:      []bool{false, false},
		ArgOptionals: []bool{false, false},
		Returns:      types.TNull,
	}
	m.RegisterNative(getoptID, func([]*types.Type) *types.Type { return types.TNull })

	return out
}

// installInto merges b's declarations into ctx's global scope, the same
// injection point imports use for a file's visible public functions (spec
// §4.4) — builtins are simply "imported" into every file unconditionally.
func (b builtinSet) installInto(ctx *scope.Context) {
	for name, decl := range b {
		ctx.Global().Functions[name] = decl
	}
}
