// Package check implements the type-checker of spec §4.2: it resolves and
// checks types on every expression/statement, reporting loud errors or soft
// warnings into a diag.Bag.
package check

import (
	"fmt"

	"github.com/tide-lang/tidec/ast"
	"github.com/tide-lang/tidec/diag"
	"github.com/tide-lang/tidec/lexer"
	"github.com/tide-lang/tidec/scope"
	"github.com/tide-lang/tidec/types"
)

// Resolver is implemented by the monomorphizer (spec §4.3) and injected at
// construction time so this package never imports mono — the two stages are
// wired together by the driver instead, avoiding an import cycle while
// keeping the same call-and-check loop (monomorphization re-enters the
// checker for each specialized function body).
type Resolver func(ctx *scope.Context, call *ast.Invocation, argTypes []*types.Type) (variantID int, returns *types.Type, err error)

// Checker walks an AST, filling Expr.Type() slots and validating the rule
// table of spec §4.2.
type Checker struct {
	Ctx      *scope.Context
	Bag      *diag.Bag
	Resolve  Resolver
	AllowAbsurdCast   bool
	AllowGenericReturn bool

	// inferredReturn accumulates the type of every `ret` seen while checking
	// a function body whose declared return type is Generic (spec §4.3
	// step 3): the monomorphizer reads this back after CheckBlock returns.
	inferredReturn *types.Type
	sawReturn      bool
}

func New(ctx *scope.Context, bag *diag.Bag, resolve Resolver) *Checker {
	return &Checker{Ctx: ctx, Bag: bag, Resolve: resolve}
}

func (c *Checker) errf(pos lexer.Pos, format string, args ...interface{}) error {
	d := &diag.Diagnostic{Severity: diag.Error, Path: c.Ctx.FilePath, Pos: pos, Message: fmt.Sprintf(format, args...)}
	c.Bag.Add(d)
	return d
}

func (c *Checker) warnf(pos lexer.Pos, format string, args ...interface{}) {
	c.Bag.Warnf(c.Ctx.FilePath, pos, format, args...)
}

// WarnUnusedVariables scans the innermost open scope for declarations that
// were never read, and non-const declarations that were never reassigned,
// emitting a soft warning for each (spec §7). Called once a function body's
// scope is fully checked, before the monomorphizer pops it.
func (c *Checker) WarnUnusedVariables() {
	for _, decl := range c.Ctx.Current().Variables {
		if !decl.IsUsed {
			c.warnf(decl.WarnPos, "%q is declared but never used", decl.Name)
			continue
		}
		if decl.Kind != scope.KindConst && !decl.IsModified {
			c.warnf(decl.WarnPos, "%q is never modified, consider declaring it const", decl.Name)
		}
	}
}

// InferredReturn reports the type inferred from `ret` statements when the
// enclosing declaration's return type was Generic (omitted). Returns Null if
// no `ret` with a value was ever seen.
func (c *Checker) InferredReturn() *types.Type {
	if c.inferredReturn != nil {
		return c.inferredReturn
	}
	return types.TNull
}

// CheckBlock type-checks every statement of stmts in order.
func (c *Checker) CheckBlock(stmts []ast.Statement) error {
	for _, st := range stmts {
		if err := c.checkStmt(st); err != nil {
			return err
		}
	}
	return nil
}
