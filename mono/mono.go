// Package mono implements the generic-function monomorphizer of spec §4.3:
// every call site is resolved to a concrete specialization, keyed by
// (declaration id, argument type tuple), with bodies parsed and checked
// lazily, once per distinct tuple, and cached for reuse.
package mono

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/tide-lang/tidec/ast"
	"github.com/tide-lang/tidec/check"
	"github.com/tide-lang/tidec/diag"
	"github.com/tide-lang/tidec/parser"
	"github.com/tide-lang/tidec/scope"
	"github.com/tide-lang/tidec/types"
)

// FunctionInstance is one concrete specialization of a generic (or
// already-concrete) function declaration.
type FunctionInstance struct {
	VariantID    int
	ArgTypes     []*types.Type
	ArgGlobalIDs []int // one id per decl.ArgNames, parallel, for the render stage's `local` bindings
	Returns      *types.Type
	Body         *ast.Block
	EmittedName  string // "{name}__{declID}_v{variantID}" (spec §4.3 step 4)
}

// FunctionCacheEntry holds every instance specialized from one declaration.
type FunctionCacheEntry struct {
	Decl      *ast.FunctionDeclStmt
	DefCtx    *scope.Context // the Context of the file this function was declared in
	Instances map[string]*FunctionInstance
	nextVariant int

	// Native marks a compiler-provided builtin (len, lines, glob, getopt,
	// param, parser — SPEC_FULL.md §3): it has no BodyTokens to parse, so
	// NativeResolve computes its return type directly from the call's
	// argument types instead of specializing a parsed body (the render
	// stage never emits a shell function for it; the fragment Lowerer
	// recognizes the name and emits inline shell directly).
	Native        bool
	NativeResolve func(argTypes []*types.Type) *types.Type
}

// Monomorphizer owns the whole-program function cache. One Monomorphizer is
// shared by every file's Checker via its Resolve method (spec §4.3: the
// checker and monomorphizer are mutually recursive, wired through the
// check.Resolver function-value injection point so neither package imports
// the other directly — check doesn't import mono at all, breaking the cycle).
type Monomorphizer struct {
	cache      map[int]*FunctionCacheEntry
	inProgress map[string]int // "declID:argKey" -> variant id currently being specialized
	Bag        *diag.Bag
}

func New(bag *diag.Bag) *Monomorphizer {
	return &Monomorphizer{
		cache:      make(map[int]*FunctionCacheEntry),
		inProgress: make(map[string]int),
		Bag:        bag,
	}
}

// Register records decl's signature and body-token window under its own
// declaration Context, making it resolvable from any call site (spec §4.1:
// declarations live in the global scope; spec §4.4 lets other files see
// public ones once the driver links imports into their scope).
func (m *Monomorphizer) Register(decl *ast.FunctionDeclStmt, defCtx *scope.Context) {
	m.cache[decl.ID] = &FunctionCacheEntry{
		Decl:      decl,
		DefCtx:    defCtx,
		Instances: make(map[string]*FunctionInstance),
	}
}

// RegisterNative records a builtin's declaration id and a return-type
// resolver, bypassing the parse-and-check specialization path entirely
// (spec §4.3 step 2-4 do not apply: there is no Tide-source body to parse).
// resolve receives the call site's argument types so builtins like param,
// whose return type mirrors its default argument's type, still resolve
// correctly per call site.
func (m *Monomorphizer) RegisterNative(declID int, resolve func(argTypes []*types.Type) *types.Type) {
	m.cache[declID] = &FunctionCacheEntry{Native: true, NativeResolve: resolve, Instances: make(map[string]*FunctionInstance)}
}

func argKey(argTypes []*types.Type) string {
	parts := make([]string, len(argTypes))
	for i, t := range argTypes {
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}

// Resolve implements check.Resolver: given a call site's concrete argument
// types, it returns the specialization's variant id and return type, parsing
// and type-checking the body for that tuple on first use (spec §4.3 steps
// 2-4) and reusing the cached instance thereafter (step 1).
func (m *Monomorphizer) Resolve(_ *scope.Context, call *ast.Invocation, argTypes []*types.Type) (int, *types.Type, error) {
	entry, ok := m.cache[call.DeclID]
	if !ok {
		return 0, nil, errors.Errorf("internal: no cache entry for declaration id %d (%s)", call.DeclID, call.Name)
	}
	if entry.Native {
		return 0, entry.NativeResolve(argTypes), nil
	}
	key := argKey(argTypes)

	if inst, ok := entry.Instances[key]; ok {
		return inst.VariantID, inst.Returns, nil
	}

	guardKey := fmt.Sprintf("%d:%s", call.DeclID, key)
	if variantID, ok := m.inProgress[guardKey]; ok {
		// Recursive specialization: only sound when the declared return type
		// is already concrete, since inference needs every `ret` observed
		// across a complete, non-reentrant check of the body (spec §4.3 step
		// 3 note, and §9 open question left to this implementation). The
		// recursive call site resolves to the variant currently being built,
		// not to whatever the next not-yet-allocated variant would be.
		if entry.Decl.ReturnType == nil {
			return 0, nil, errors.Errorf("function %q recurses before its return type is known; give it an explicit return type annotation", entry.Decl.Name)
		}
		return variantID, entry.Decl.ReturnType, nil
	}
	m.inProgress[guardKey] = entry.nextVariant
	defer delete(m.inProgress, guardKey)

	inst, err := m.specialize(entry, argTypes)
	if err != nil {
		return 0, nil, err
	}
	entry.Instances[key] = inst
	return inst.VariantID, inst.Returns, nil
}

// specialize parses entry.Decl.BodyTokens once for this argTypes tuple,
// binds parameters to their concrete types in a fresh pushed ScopeUnit, runs
// the checker over the body (with this Monomorphizer as its Resolver, so
// nested calls re-enter Resolve), and determines the instance's return type:
// the declared one if explicit, or the checker's inferred one otherwise.
func (m *Monomorphizer) specialize(entry *FunctionCacheEntry, argTypes []*types.Type) (*FunctionInstance, error) {
	decl := entry.Decl
	ctx := entry.DefCtx

	variantID := entry.nextVariant
	entry.nextVariant++

	savedTokens, savedIndex := ctx.Tokens, ctx.Index
	ctx.Tokens, ctx.Index = decl.BodyTokens, 0
	defer func() { ctx.Tokens, ctx.Index = savedTokens, savedIndex }()

	ctx.PushScope()
	defer ctx.PopScope()

	argGlobalIDs := make([]int, len(decl.ArgNames))
	for i, name := range decl.ArgNames {
		t := argTypes[i]
		if decl.ArgTypes[i] != nil {
			t = decl.ArgTypes[i] // concrete declared type wins over the call's
		}
		id := ctx.NextGlobalID()
		argGlobalIDs[i] = id
		ctx.Current().Variables[name] = &scope.VariableDecl{
			Name: name, Type: t, Kind: scope.KindParam, IsRef: decl.ArgRefs[i], GlobalID: id,
		}
	}

	savedFunCtx := ctx.Flags.IsFunCtx
	savedRet := ctx.CurrentReturnType
	ctx.Flags.IsFunCtx = true
	ctx.CurrentReturnType = decl.ReturnType
	defer func() {
		ctx.Flags.IsFunCtx = savedFunCtx
		ctx.CurrentReturnType = savedRet
	}()

	body, err := parser.New(ctx).ParseFunctionBody()
	if err != nil {
		return nil, err
	}

	bag := &diag.Bag{}
	checker := check.New(ctx, bag, m.Resolve)
	checker.AllowGenericReturn = decl.ReturnType == nil
	if err := checker.CheckBlock(body.Stmts); err != nil {
		return nil, err
	}
	checker.WarnUnusedVariables()
	for _, d := range bag.Messages {
		m.Bag.Add(d)
	}

	returns := decl.ReturnType
	if returns == nil {
		returns = checker.InferredReturn()
	}

	return &FunctionInstance{
		VariantID:    variantID,
		ArgTypes:     argTypes,
		ArgGlobalIDs: argGlobalIDs,
		Returns:      returns,
		Body:         body,
		EmittedName:  fmt.Sprintf("%s__%d_v%d", decl.Name, decl.ID, variantID),
	}, nil
}

// Instances returns every specialization produced for decl, in the order
// they were first requested, for the render stage to emit (spec §4.3 step
// 5: "every distinct variant becomes its own emitted shell function").
func (m *Monomorphizer) Instances(declID int) []*FunctionInstance {
	entry, ok := m.cache[declID]
	if !ok {
		return nil
	}
	out := make([]*FunctionInstance, len(entry.Instances))
	for _, inst := range entry.Instances {
		out[inst.VariantID] = inst
	}
	return out
}

// Entries exposes the whole cache, keyed by declaration id. The map has no
// order of its own; the driver walks it by ascending declaration id.
func (m *Monomorphizer) Entries() map[int]*FunctionCacheEntry {
	return m.cache
}
