// Package driver wires every compiler stage into the single pipeline spec
// §4 describes: lex, parse, link imports, check/monomorphize, lower,
// optimize, render — once per file, in the import graph's topological
// order, sharing one Monomorphizer and one monotonic id counter across the
// whole program (spec §5 "Shared resources").
package driver

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/tide-lang/tidec/ast"
	"github.com/tide-lang/tidec/cache"
	"github.com/tide-lang/tidec/check"
	"github.com/tide-lang/tidec/diag"
	"github.com/tide-lang/tidec/fragment"
	"github.com/tide-lang/tidec/imports"
	"github.com/tide-lang/tidec/lexer"
	"github.com/tide-lang/tidec/mono"
	"github.com/tide-lang/tidec/optimize"
	"github.com/tide-lang/tidec/parser"
	"github.com/tide-lang/tidec/render"
	"github.com/tide-lang/tidec/scope"
	"github.com/tide-lang/tidec/types"
)

// Options controls one compilation (spec §6 CLI flags).
type Options struct {
	NoCache  bool
	NoProc   string // glob of source files excluded from the on-disk cache
	Minify   bool
	TestMode bool
	TestName string
}

// fileUnit is everything the driver keeps about one parsed source file.
type fileUnit struct {
	path  string
	ctx   *scope.Context
	stmts []ast.Statement
	main  *ast.MainBlock
	tests []*ast.TestBlock
}

// Driver owns the program-wide counters a compilation threads through every
// file's scope.Context (spec §3.3 invariant 1, §3.4): one Driver compiles
// one program, never reused across unrelated programs.
type Driver struct {
	Cache *cache.Dir // nil when caching is disabled

	nextGlobalID int
	nextFuncID   int

	pendingWritesMu sync.Mutex
	pendingWrites   []cacheWrite
}

// cacheWrite is one file's freshly-tokenized form, queued for the
// concurrent flush at the end of Compile rather than written inline during
// parsing (spec §5 "independent per-file cache write-backs run concurrently
// after the sequential pipeline finishes").
type cacheWrite struct {
	path   string
	tokens []lexer.Token
}

func New(c *cache.Dir) *Driver {
	return &Driver{Cache: c}
}

// Result is the outcome of Compile: rendered shell text plus the
// diagnostics accumulated while producing it.
type Result struct {
	Shell string
	Bag   *diag.Bag
}

// Compile runs the full pipeline over entryPath and everything it
// (transitively) imports.
func (d *Driver) Compile(entryPath string, opts Options) (*Result, error) {
	bag := &diag.Bag{}
	m := mono.New(bag)
	builtins := registerBuiltins(m, &d.nextFuncID)

	graph := imports.New(entryPath)
	units := make(map[string]*fileUnit)

	var walk func(path string) error
	walk = func(path string) error {
		if _, done := units[path]; done {
			return nil
		}
		u, err := d.parseFile(path, m, builtins, opts)
		if err != nil {
			return err
		}
		units[path] = u

		for _, st := range u.stmts {
			imp, ok := st.(*ast.Import)
			if !ok {
				continue
			}
			target := resolveImportPath(path, imp.Path)
			if err := graph.AddEdge(path, target); err != nil {
				return err
			}
			if err := walk(target); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(entryPath); err != nil {
		return nil, err
	}
	_ = d.flushCache() // best-effort, same as the old inline Put this replaces

	order, err := graph.TopologicalSort()
	if err != nil {
		return nil, err
	}

	for _, path := range order {
		u, ok := units[path]
		if !ok {
			continue // a graph node reached only as an import target that failed to parse
		}
		linkImports(u, units)

		checker := check.New(u.ctx, bag, m.Resolve)
		if err := checker.CheckBlock(u.stmts); err != nil {
			return nil, err
		}
		var pubFuncs []string
		for name, fd := range u.ctx.Global().Functions {
			if fd.IsPublic {
				pubFuncs = append(pubFuncs, name)
			}
		}
		graph.StoreMetadata(path, u.stmts, pubFuncs)
	}

	if bag.HasErrors() {
		return nil, errors.Errorf("compilation failed with %d error(s)", len(bag.Errors()))
	}

	program, err := d.buildProgram(entryPath, m, units)
	if err != nil {
		return nil, err
	}

	ctx := fragment.NewTranslateContext()
	ctx.TestMode = opts.TestMode
	shell := render.Render(ctx, program, render.Options{
		Minify:   opts.Minify,
		TestMode: opts.TestMode,
		TestName: opts.TestName,
	})
	return &Result{Shell: shell, Bag: bag}, nil
}

// parseFile lexes (through the cache, when enabled) and parses one file,
// installing builtins into its scope and registering every function
// declaration it contains with the monomorphizer (spec §4.1, §4.3).
func (d *Driver) parseFile(path string, m *mono.Monomorphizer, builtins builtinSet, opts Options) (*fileUnit, error) {
	tokens, err := d.tokensFor(path, opts)
	if err != nil {
		return nil, err
	}

	ctx := scope.NewContext(path, tokens, &d.nextGlobalID, &d.nextFuncID)
	builtins.installInto(ctx)

	stmts, err := parser.New(ctx).ParseFile()
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}

	u := &fileUnit{path: path, ctx: ctx, stmts: stmts}
	for _, st := range stmts {
		switch n := st.(type) {
		case *ast.FunctionDeclStmt:
			// parseFunctionDecl already installed the FunctionDecl into
			// ctx.Global().Functions; the monomorphizer still needs its own
			// registration to resolve call sites against (spec §4.3).
			m.Register(n, ctx)
		case *ast.MainBlock:
			u.main = n
		case *ast.TestBlock:
			u.tests = append(u.tests, n)
		}
	}
	return u, nil
}

// tokensFor returns path's token stream, consulting the on-disk cache first
// when enabled and not excluded by --no-proc (spec §6).
func (d *Driver) tokensFor(path string, opts Options) ([]lexer.Token, error) {
	useCache := d.Cache != nil && !opts.NoCache && !noProcMatch(opts.NoProc, path)
	if useCache {
		if tokens, ok := d.Cache.Get(path); ok {
			return tokens, nil
		}
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	tokens, err := lexer.New(path, string(src)).Tokenize()
	if err != nil {
		return nil, errors.Wrapf(err, "lexing %s", path)
	}
	if useCache {
		d.pendingWritesMu.Lock()
		d.pendingWrites = append(d.pendingWrites, cacheWrite{path: path, tokens: tokens})
		d.pendingWritesMu.Unlock()
	}
	return tokens, nil
}

// flushCache writes every tokenization produced by a cache miss during this
// Compile back to disk, one goroutine per file bounded by errgroup: once the
// sequential parse/check pipeline (spec §5) has finished, the write-backs
// have no ordering dependency on each other or on anything else, so there is
// no reason to pay for them one at a time.
func (d *Driver) flushCache() error {
	if d.Cache == nil || len(d.pendingWrites) == 0 {
		return nil
	}
	g, _ := errgroup.WithContext(context.Background())
	for _, w := range d.pendingWrites {
		w := w
		g.Go(func() error {
			return d.Cache.Put(w.path, w.tokens)
		})
	}
	return g.Wait()
}

func noProcMatch(pattern, path string) bool {
	if pattern == "" {
		return false
	}
	ok, _ := filepath.Match(pattern, filepath.Base(path))
	return ok
}

// resolveImportPath maps an import string onto a file relative to the
// importing file's own directory: pop the importing file's own name off its
// path, then push the import string in its place (spec §4.4 leaves
// resolution implementation-defined; this mirrors how the source language's
// own import resolves a path, string-for-string, extension included).
func resolveImportPath(fromPath, importPath string) string {
	return filepath.Join(filepath.Dir(fromPath), importPath)
}

// linkImports injects every imported file's public functions into u's own
// scope (spec §4.4): "is_public" is not propagated transitively, so u
// receives a copy of each FunctionDecl with IsPublic cleared, visible only
// inside u.
func linkImports(u *fileUnit, units map[string]*fileUnit) {
	for _, st := range u.stmts {
		imp, ok := st.(*ast.Import)
		if !ok {
			continue
		}
		target := resolveImportPath(u.path, imp.Path)
		src, ok := units[target]
		if !ok {
			continue // reported earlier as a loud error from AddEdge/walk
		}
		wanted := make(map[string]bool, len(imp.Names))
		for _, n := range imp.Names {
			wanted[n] = true
		}
		for name, decl := range src.ctx.Global().Functions {
			if !decl.IsPublic {
				continue
			}
			if len(imp.Names) > 0 && !wanted[name] {
				continue
			}
			local := *decl
			local.IsPublic = false
			u.ctx.Global().Functions[name] = &local
		}
	}
}

// buildProgram lowers every monomorphized function instance plus the entry
// file's main/test blocks into a render.Program, running both optimize
// passes on each resulting block (spec §4.6, §4.7).
func (d *Driver) buildProgram(entryPath string, m *mono.Monomorphizer, units map[string]*fileUnit) (*render.Program, error) {
	entry, ok := units[entryPath]
	if !ok {
		return nil, errors.Errorf("internal: entry file %q was never parsed", entryPath)
	}

	lowerer := fragment.New(fragment.NewTranslateContext(), entry.ctx)
	p := &render.Program{}

	var declIDs []int
	for id, e := range m.Entries() {
		if e.Native {
			continue
		}
		declIDs = append(declIDs, id)
	}
	sort.Ints(declIDs)

	for _, id := range declIDs {
		e := m.Entries()[id]
		for _, inst := range m.Instances(id) {
			if inst == nil {
				continue
			}
			lowerer.Ctx.Func = &fragment.FuncMeta{Name: e.Decl.Name, DeclID: id, VariantID: inst.VariantID}
			body := optimize.EliminateUnused(optimize.FoldEphemerals(lowerer.LowerBlock(inst.Body.Stmts)))

			argIsArray := make([]bool, len(e.Decl.ArgNames))
			for i, t := range inst.ArgTypes {
				argIsArray[i] = t != nil && t.Kind == types.Array
			}
			p.Functions = append(p.Functions, render.FunctionArtifact{
				EmittedName:  inst.EmittedName,
				ArgNames:     e.Decl.ArgNames,
				ArgGlobalIDs: inst.ArgGlobalIDs,
				ArgIsArray:   argIsArray,
				Body:         body,
			})
		}
	}
	lowerer.Ctx.Func = nil

	if entry.main != nil {
		main := optimize.EliminateUnused(optimize.FoldEphemerals(lowerer.LowerBlock(entry.main.Body.Stmts)))
		p.Main = main
		p.MainParams = entry.main.Params
		p.MainParamIDs = entry.main.ParamIDs
	} else {
		p.Main = &fragment.Block{}
	}

	for _, t := range entry.tests {
		body := optimize.EliminateUnused(optimize.FoldEphemerals(lowerer.LowerBlock(t.Body.Stmts)))
		p.Tests = append(p.Tests, render.TestArtifact{Name: t.Name, Body: body})
	}

	for cmd := range lowerer.Commands {
		p.Commands = append(p.Commands, cmd)
	}
	sort.Strings(p.Commands)

	return p, nil
}

