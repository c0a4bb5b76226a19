package fragment

import (
	"fmt"
	"strings"

	"github.com/tide-lang/tidec/ast"
	"github.com/tide-lang/tidec/scope"
	"github.com/tide-lang/tidec/types"
)

// Lowerer translates a checked, monomorphized AST into the fragment tree
// (spec §4.5). GlobalCtx supplies NextGlobalID for the handful of
// compiler-introduced ephemeral variables lowering itself needs (ternary
// results, captured `$?` snapshots) — it shares the same monotonic counter
// used during parsing, so ephemeral ids never collide with source ids
// (spec §3.3 invariant 1).
type Lowerer struct {
	Ctx       *TranslateContext
	GlobalCtx *scope.Context

	// cliParsers groups the param() declarations registered against each
	// parser() name, consumed by getopt() to emit the matching option-parsing
	// loop (SPEC_FULL.md §3 cli builtins).
	cliParsers map[string][]*cliParam

	// Commands collects the leading word of every command literal lowered
	// through this Lowerer (spec §6 "optional RDC prologue listing external
	// commands referenced by the program"), keyed for de-duplication.
	Commands map[string]bool
}

// cliParam is one param() declaration: the shell variable getopt() writes
// into (name/globalID, the same ones the enclosing `let` bound) plus the
// option spec text (e.g. "o|output") that chooses its case-pattern.
type cliParam struct {
	name     string
	globalID int
	spec     string
	isFlag   bool
}

func New(ctx *TranslateContext, globalCtx *scope.Context) *Lowerer {
	return &Lowerer{Ctx: ctx, GlobalCtx: globalCtx}
}

// LowerBlock translates every statement of stmts into fragments, returning
// them as a *Block wrapper so callers can set IncreaseIndent/IsConditional.
func (l *Lowerer) LowerBlock(stmts []ast.Statement) *Block {
	b := &Block{IncreaseIndent: true}
	for _, st := range stmts {
		lowered := l.LowerStmt(st)
		// Materialize any statement-queue hoisting (spec §9) the expressions
		// inside st triggered as real sibling Stmts entries right away, so
		// they sit next to the statement that needed them instead of only
		// surfacing later inside ctx's queue at render time — this is what
		// makes them visible to the optimize package's tree-shaped passes.
		b.Stmts = append(b.Stmts, l.Ctx.Drain()...)
		b.Stmts = append(b.Stmts, lowered)
	}
	if len(b.Stmts) == 0 {
		b.Stmts = append(b.Stmts, &Raw{Text: ":"}) // needs_noop (spec §3.2)
	}
	return b
}

func (l *Lowerer) LowerStmt(st ast.Statement) Fragment {
	switch n := st.(type) {
	case *ast.VarInit:
		return l.lowerVarInit(n)
	case *ast.VarSet:
		return l.lowerVarSet(n)
	case *ast.ShorthandAssign:
		return l.lowerShorthand(n)
	case *ast.IfCond:
		f := &IfStmt{Conds: []Fragment{l.boolTest(n.Cond)}, Blocks: []*Block{l.LowerBlock(n.Then.Stmts)}}
		if n.Else != nil {
			f.Else = l.LowerBlock(n.Else.Stmts)
		}
		return f
	case *ast.IfChain:
		f := &IfStmt{}
		for i, c := range n.Conds {
			f.Conds = append(f.Conds, l.boolTest(c))
			f.Blocks = append(f.Blocks, l.LowerBlock(n.Blocks[i].Stmts))
		}
		if n.Default != nil {
			f.Else = l.LowerBlock(n.Default.Stmts)
		}
		return f
	case *ast.LoopInfinite:
		return &InfiniteLoopStmt{Body: l.LowerBlock(n.Body.Stmts)}
	case *ast.LoopWhile:
		return &WhileStmt{Cond: l.boolTest(n.Cond), Body: l.LowerBlock(n.Body.Stmts)}
	case *ast.LoopIter:
		return &ForEachStmt{
			IndexVar: n.IndexName, IndexGlobal: n.IndexID,
			ValueVar: n.ValueName, ValueGlobal: n.ValueID,
			Collection: l.collectionText(n.Collection),
			Body:       l.LowerBlock(n.Body.Stmts),
		}
	case *ast.Break:
		return &Raw{Text: "break"}
	case *ast.Continue:
		return &Raw{Text: "continue"}
	case *ast.FunctionDeclStmt:
		return &Empty{} // emitted separately, once per specialization (render package)
	case *ast.Return:
		return l.lowerReturn(n)
	case *ast.Fail:
		return l.lowerFail(n)
	case *ast.Import:
		return &Empty{}
	case *ast.MainBlock:
		return l.LowerBlock(n.Body.Stmts)
	case *ast.TestBlock:
		return l.LowerBlock(n.Body.Stmts)
	case *ast.Echo:
		return &List{Children: []Fragment{&Raw{Text: "echo "}, l.LowerExpr(n.Value)}, Sep: SepEmpty}
	case *ast.Exit:
		code := Fragment(&Raw{Text: "0"})
		if n.Code != nil {
			code = l.LowerExpr(n.Code)
		}
		return &List{Children: []Fragment{&Raw{Text: "exit "}, code}, Sep: SepEmpty}
	case *ast.Cd:
		return l.lowerGuardedCommand(&List{Children: []Fragment{&Raw{Text: "cd "}, l.LowerExpr(n.Path)}, Sep: SepEmpty}, n.Handler)
	case *ast.Mv:
		return l.lowerGuardedCommand(&List{Children: []Fragment{&Raw{Text: "mv "}, l.LowerExpr(n.From), &Raw{Text: " "}, l.LowerExpr(n.To)}, Sep: SepEmpty}, n.Handler)
	case *ast.Rm:
		flags := "-f "
		if !n.Force {
			flags = ""
		}
		return l.lowerGuardedCommand(&List{Children: []Fragment{&Raw{Text: "rm " + flags}, l.LowerExpr(n.Target)}, Sep: SepEmpty}, n.Handler)
	case *ast.Silent:
		saved := l.Ctx.Silent
		l.Ctx.Silent = true
		f := l.LowerStmt(n.Inner)
		l.Ctx.Silent = saved
		return f
	case *ast.CommandModifierStmt:
		savedSilent, savedSudo := l.Ctx.Silent, l.Ctx.Sudo
		l.Ctx.Silent = l.Ctx.Silent || n.Modifiers.Silent
		l.Ctx.Sudo = l.Ctx.Sudo || n.Modifiers.Sudo
		f := l.LowerBlock(n.Body.Stmts)
		l.Ctx.Silent, l.Ctx.Sudo = savedSilent, savedSudo
		return f
	case *ast.CommentStmt:
		return &Comment{Text: n.Text}
	case *ast.DocCommentStmt:
		return &Comment{Text: n.Text}
	case *ast.ExprStmt:
		return l.lowerExprStmt(n)
	default:
		return &Empty{}
	}
}

// boolTest renders e's 0/1 value as the numeric test `if`/`while` consume
// (spec §4.5: "translate condition into a numeric `[ cond != 0 ]` test").
func (l *Lowerer) boolTest(e ast.Expr) Fragment {
	return l.LowerExpr(e)
}

// collectionText renders a collection expression for `for x in …` (spec
// §4.5 loop lowering): array variables expand unquoted as `${arr[@]}`, inline
// array literals and ranges render as their own word lists.
func (l *Lowerer) collectionText(e ast.Expr) Fragment {
	return l.LowerExpr(e)
}

func (l *Lowerer) lowerVarInit(n *ast.VarInit) Fragment {
	if len(n.Names) == 1 {
		if inv, ok := n.Value.(*ast.Invocation); ok && inv.Name == "param" {
			// `let x = param(...)`: x itself is the shell variable getopt()
			// later writes the parsed value into, so param() contributes no
			// fragment of its own beyond registering against its parser name
			// and letting this VarStmt initialize x to the default.
			l.registerParam(inv, n.GlobalIDs[0], n.Names[0])
			return &VarStmt{
				Name: n.Names[0], GlobalID: n.GlobalIDs[0], IsLocal: l.Ctx.Func != nil,
				Op: "=", Value: l.LowerExpr(inv.Args[2]),
			}
		}
	}
	if len(n.Names) > 1 {
		holderID := l.GlobalCtx.NextGlobalID()
		// Not marked Ephemeral: every read of it is indexed (a[i]), never a
		// bare reference, so FoldEphemerals' sole-var-ref substitution can
		// never fire for it — folding it away would drop its only assignment.
		holder := &VarStmt{Name: "destructure", GlobalID: holderID, Op: "=", Value: l.arrayValue(n.Value)}
		block := &Block{}
		block.Stmts = append(block.Stmts, holder)
		for i, name := range n.Names {
			block.Stmts = append(block.Stmts, &VarStmt{
				Name: name, GlobalID: n.GlobalIDs[i], Op: "=",
				Value: &VarExpr{Name: "destructure", GlobalID: holderID, Index: &IndexSpec{Scalar: &Raw{Text: fmt.Sprintf("%d", i)}}, RenderKind: BashValue},
			})
		}
		return block
	}
	value := l.LowerExpr(n.Value)
	if n.Value.Type().Kind == types.Array {
		value = l.arrayValue(n.Value)
	}
	return &VarStmt{Name: n.Names[0], GlobalID: n.GlobalIDs[0], IsLocal: l.Ctx.Func != nil, IsRef: n.IsRef, Op: "=", Value: value}
}

// arrayValue wraps an Array-typed expression's rendering in `( … )`, the
// Bash array-literal syntax (spec §4.5 "For arrays, value is wrapped").
func (l *Lowerer) arrayValue(e ast.Expr) Fragment {
	return &Template{Format: "(%s)", Args: []Fragment{l.LowerExpr(e)}}
}

func (l *Lowerer) lowerVarSet(n *ast.VarSet) Fragment {
	var idx *IndexSpec
	if n.Index != nil {
		idx = &IndexSpec{Scalar: l.LowerExpr(n.Index)}
		if n.RangeEnd != nil {
			idx.End = l.LowerExpr(n.RangeEnd)
		}
	}
	return &VarStmt{Name: n.Name, GlobalID: n.GlobalID, IsLocal: l.Ctx.Func != nil, Op: "=", Index: idx, Value: l.LowerExpr(n.Value)}
}

func (l *Lowerer) lowerShorthand(n *ast.ShorthandAssign) Fragment {
	op := map[ast.ShorthandOp]string{
		ast.AddAssign: "+=", ast.SubAssign: "-=", ast.MulAssign: "*=",
		ast.DivAssign: "/=", ast.ModAssign: "%=",
	}[n.Op]
	return &VarStmt{Name: n.Name, GlobalID: n.GlobalID, IsLocal: l.Ctx.Func != nil, Op: op, Value: l.LowerExpr(n.Value)}
}

func (l *Lowerer) lowerReturn(n *ast.Return) Fragment {
	if l.Ctx.Func == nil {
		return &Raw{Text: "return 0"}
	}
	if n.Value == nil {
		return &Raw{Text: "return 0"}
	}
	block := &Block{}
	block.Stmts = append(block.Stmts, &Template{Format: l.Ctx.Func.ReturnGlobal() + "=%s", Args: []Fragment{l.LowerExpr(n.Value)}})
	block.Stmts = append(block.Stmts, &Raw{Text: "return 0"})
	return block
}

func (l *Lowerer) lowerFail(n *ast.Fail) Fragment {
	if n.Code == nil {
		if l.Ctx.Func != nil {
			return &Raw{Text: "return 1"}
		}
		return &Raw{Text: "exit 1"}
	}
	kw := "exit"
	if l.Ctx.Func != nil {
		kw = "return"
	}
	return &Template{Format: kw + " %s", Args: []Fragment{l.LowerExpr(n.Code)}}
}

// lowerGuardedCommand renders a bare shell command followed by the failure
// handler's state-machine expansion (spec §4.1, §4.5): capture `$?` first
// (subsequent commands would clobber it), then dispatch on handler kind.
func (l *Lowerer) lowerGuardedCommand(cmd Fragment, h *ast.FailureHandler) Fragment {
	block := &Block{}
	block.Stmts = append(block.Stmts, cmd)
	if h == nil {
		return block
	}
	block.Stmts = append(block.Stmts, l.lowerFailureHandler(h)...)
	return block
}

func (l *Lowerer) lowerExprStmt(n *ast.ExprStmt) Fragment {
	return l.lowerGuardedCommand(l.commandStatementFragment(n.Value), n.Handler)
}

// commandStatementFragment renders a failable expression used as a bare
// statement: a command literal runs directly (not wrapped in `$(…)`, unlike
// when its value is consumed); a function call still renders as a call
// statement, arguments kept structured so the unused-variable pass (spec
// §4.6) can see which locals they read.
func (l *Lowerer) commandStatementFragment(e ast.Expr) Fragment {
	switch v := e.(type) {
	case *ast.CommandLit:
		return l.commandText(v)
	case *ast.Invocation:
		if isBuiltinCall(v.Name) {
			return l.lowerBuiltinCall(v)
		}
		return l.invocationCallFragment(v)
	default:
		return l.LowerExpr(e)
	}
}

func (l *Lowerer) lowerFailureHandler(h *ast.FailureHandler) []Fragment {
	statusID := l.GlobalCtx.NextGlobalID()
	statusName := mangled("status", statusID)
	var out []Fragment
	out = append(out, &Raw{Text: fmt.Sprintf("%s=$?", statusName)})

	switch h.Kind {
	case ast.HandlerPropagate:
		if l.Ctx.Func != nil {
			out = append(out, &Raw{Text: fmt.Sprintf("[ $%s != 0 ] && return $%s", statusName, statusName)})
		} else {
			out = append(out, &Raw{Text: fmt.Sprintf("[ $%s != 0 ] && exit $%s", statusName, statusName)})
		}
	case ast.HandlerFailed:
		body := l.handlerBindBlock(h, statusName)
		out = append(out, &IfStmt{Conds: []Fragment{&Raw{Text: "$" + statusName}}, Blocks: []*Block{body}})
	case ast.HandlerSucceeded:
		body := l.LowerBlock(h.Block.Stmts)
		out = append(out, &IfStmt{Conds: []Fragment{&Raw{Text: fmt.Sprintf("$(( $%s == 0 ))", statusName)}}, Blocks: []*Block{body}})
	case ast.HandlerExited:
		out = append(out, l.handlerBindBlock(h, statusName))
	case ast.HandlerSuppressed:
		// trust context: failure is silently allowed to continue.
	}
	return out
}

func (l *Lowerer) handlerBindBlock(h *ast.FailureHandler, statusName string) *Block {
	block := &Block{IncreaseIndent: true}
	if h.BindName != "" {
		block.Stmts = append(block.Stmts, &VarStmt{Name: h.BindName, GlobalID: h.BindID, IsLocal: l.Ctx.Func != nil, Op: "=", Value: &Raw{Text: "$" + statusName}})
	}
	block.Stmts = append(block.Stmts, l.LowerBlock(h.Block.Stmts).Stmts...)
	if len(block.Stmts) == 0 {
		block.Stmts = append(block.Stmts, &Raw{Text: ":"})
	}
	return block
}

// invocationCallFragment renders a bare call statement whose return value is
// never consumed (spec §4.5 "Function call" as a statement): no snapshot is
// needed since nothing reads __AF_* afterward. Arguments stay structured
// (not pre-rendered) so collectReads sees every local they pass along.
func (l *Lowerer) invocationCallFragment(call *ast.Invocation) Fragment {
	args := make([]Fragment, len(call.Args))
	for i, a := range call.Args {
		args[i] = l.LowerExpr(a)
	}
	emitted := fmt.Sprintf("%s__%d_v%d", call.Name, call.DeclID, call.VariantID)
	return &List{Children: append([]Fragment{&Raw{Text: emitted}}, args...), Sep: SepSpace}
}

// lowerInvocationValue lowers a call used for its return value: run the
// emitted function, then copy its well-known return global into a call-site
// snapshot (spec §6 snapshot naming) before any later call can clobber it.
// The snapshot write is Ephemeral: when the caller consumes it with a bare
// reference right away, FoldEphemerals (spec §4.6) substitutes __AF_* in
// directly and the snapshot never renders at all.
func (l *Lowerer) lowerInvocationValue(call *ast.Invocation) Fragment {
	retGlobal := fmt.Sprintf("__AF_%s%d_v%d", call.Name, call.DeclID, call.VariantID)

	l.Ctx.Push(l.invocationCallFragment(call))

	snapshotID := l.GlobalCtx.NextGlobalID()
	l.Ctx.Push(&VarStmt{Name: "callret", GlobalID: snapshotID, Op: "=", Value: &Raw{Text: "$" + retGlobal}, Ephemeral: true})
	return &VarExpr{Name: "callret", GlobalID: snapshotID, RenderKind: BashValue}
}

// recordCommand extracts the leading word of a command literal's first
// literal segment as the external command it invokes, best-effort: a command
// literal that starts with an interpolated expression has no statically
// knowable leading word and is skipped.
func (l *Lowerer) recordCommand(c *ast.CommandLit) {
	if len(c.Literals) == 0 {
		return
	}
	fields := strings.Fields(c.Literals[0])
	if len(fields) == 0 {
		return
	}
	if l.Commands == nil {
		l.Commands = make(map[string]bool)
	}
	l.Commands[fields[0]] = true
}

// commandText renders a command literal as a Fragment, not a pre-rendered
// string: keeping the embedded expressions structured (inside Interpolable)
// lets the optimize package's unused-variable pass (spec §4.6) see which
// variables a shell command actually reads.
func (l *Lowerer) commandText(c *ast.CommandLit) Fragment {
	l.recordCommand(c)
	body := Fragment(&Interpolable{Literals: c.Literals, Exprs: lowerAll(l, c.Exprs), Kind: GlobalContext})
	var children []Fragment
	if c.Modifiers.Sudo || l.Ctx.Sudo {
		children = append(children, &Raw{Text: "sudo "})
	}
	children = append(children, body)
	if c.Modifiers.Silent || l.Ctx.Silent {
		children = append(children, &Raw{Text: " >/dev/null 2>&1"})
	}
	if len(children) == 1 {
		return children[0]
	}
	return &List{Children: children, Sep: SepEmpty}
}

func lowerAll(l *Lowerer, exprs []ast.Expr) []Fragment {
	out := make([]Fragment, len(exprs))
	for i, e := range exprs {
		out[i] = l.LowerExpr(e)
	}
	return out
}

// LowerExpr translates e into the Fragment that computes its value (spec
// §4.5).
func (l *Lowerer) LowerExpr(e ast.Expr) Fragment {
	switch n := e.(type) {
	case *ast.NullLit:
		return &Raw{Text: ""}
	case *ast.BoolLit:
		if n.Value {
			return &Raw{Text: "0"}
		}
		return &Raw{Text: "1"}
	case *ast.IntLit:
		return &Raw{Text: fmt.Sprintf("%d", n.Value)}
	case *ast.NumLit:
		return &Raw{Text: fmt.Sprintf("%g", n.Value)}
	case *ast.StringLit:
		return &Interpolable{Literals: n.Literals, Exprs: lowerAll(l, n.Exprs), Kind: StringLiteral}
	case *ast.CommandLit:
		return &Subprocess{Inner: l.commandText(n)}
	case *ast.VarGet:
		return &VarExpr{Name: n.Name, GlobalID: n.GlobalID, IsArray: n.Type().Kind == types.Array, RenderKind: BashValue, IsQuoted: n.Type().Kind != types.Array}
	case *ast.Binary:
		return l.lowerBinary(n)
	case *ast.Unary:
		return l.lowerUnary(n)
	case *ast.TypeExpr:
		return l.lowerTypeExpr(n)
	case *ast.Ternary:
		return l.lowerTernary(n)
	case *ast.Paren:
		return l.LowerExpr(n.Inner)
	case *ast.ArrayLit:
		elems := make([]Fragment, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = l.LowerExpr(el)
		}
		return &List{Children: elems, Sep: SepSpace}
	case *ast.Index:
		return l.lowerIndex(n)
	case *ast.Invocation:
		if isBuiltinCall(n.Name) {
			return l.lowerBuiltinCall(n)
		}
		return l.lowerInvocationValue(n)
	case *ast.Status:
		return &Raw{Text: "$?"}
	case *ast.NameOf:
		return &Raw{Text: n.Target}
	default:
		return &Empty{}
	}
}

func (l *Lowerer) lowerBinary(n *ast.Binary) Fragment {
	left, right := n.Left, n.Right
	lt, rt := left.Type(), right.Type()

	switch n.Op {
	case ast.Add:
		if lt.IsNumeric() && rt.IsNumeric() {
			if lt.Kind == types.Int && rt.Kind == types.Int {
				return &Arithmetic{Left: l.LowerExpr(left), Op: "+", Right: l.LowerExpr(right)}
			}
			return &Subprocess{Inner: &Template{Format: "echo %s + %s | bc -l", Args: []Fragment{l.LowerExpr(left), l.LowerExpr(right)}}}
		}
		if lt.Kind == types.Text {
			return &List{Children: []Fragment{l.LowerExpr(left), l.LowerExpr(right)}}
		}
		// Array(T) + Array(T): value-concatenation, rendered by the
		// enclosing `let`'s arrayValue wrapper as "${a[@]}" "${b[@]}".
		return &List{Children: []Fragment{l.LowerExpr(left), l.LowerExpr(right)}, Sep: SepSpace}
	case ast.Sub, ast.Mul, ast.Div, ast.Mod:
		op := map[ast.BinOp]string{ast.Sub: "-", ast.Mul: "*", ast.Div: "/", ast.Mod: "%"}[n.Op]
		if lt.Kind == types.Num || rt.Kind == types.Num {
			return &Subprocess{Inner: &Template{Format: "echo %s " + op + " %s | bc -l", Args: []Fragment{l.LowerExpr(left), l.LowerExpr(right)}}}
		}
		return &Arithmetic{Left: l.LowerExpr(left), Op: op, Right: l.LowerExpr(right)}
	case ast.Eq, ast.Neq:
		if lt.Kind == types.Text {
			op := "="
			if n.Op == ast.Neq {
				op = "!="
			}
			return &Subprocess{Inner: &Template{Format: "[ %s " + op + " %s ]; echo $?", Args: []Fragment{l.LowerExpr(left), l.LowerExpr(right)}}}
		}
		bashOp := "-eq"
		if n.Op == ast.Neq {
			bashOp = "-ne"
		}
		return &Subprocess{Inner: &Template{Format: "[ %s " + bashOp + " %s ]; echo $?", Args: []Fragment{l.LowerExpr(left), l.LowerExpr(right)}}}
	case ast.Lt, ast.Le, ast.Gt, ast.Ge:
		return l.lowerRelational(n, left, right)
	case ast.And:
		return &Subprocess{Inner: &Template{Format: "[ %s -eq 0 ] && [ %s -eq 0 ]; echo $?", Args: []Fragment{l.LowerExpr(left), l.LowerExpr(right)}}}
	case ast.Or:
		return &Subprocess{Inner: &Template{Format: "[ %s -eq 0 ] || [ %s -eq 0 ]; echo $?", Args: []Fragment{l.LowerExpr(left), l.LowerExpr(right)}}}
	case ast.Range, ast.RangeInclusive:
		end := l.LowerExpr(right)
		if n.Op == ast.Range {
			end = &Arithmetic{Left: l.LowerExpr(right), Op: "-", Right: &Raw{Text: "1"}}
		}
		return &Template{Format: "$(seq %s %s)", Args: []Fragment{l.LowerExpr(left), end}}
	default:
		return &Empty{}
	}
}

func (l *Lowerer) lowerRelational(n *ast.Binary, left, right ast.Expr) Fragment {
	bashOp := map[ast.BinOp]string{ast.Lt: "-lt", ast.Le: "-le", ast.Gt: "-gt", ast.Ge: "-ge"}[n.Op]
	if left.Type().Kind == types.Text {
		textOp := map[ast.BinOp]string{ast.Lt: "<", ast.Le: "<=", ast.Gt: ">", ast.Ge: ">="}[n.Op]
		return &Subprocess{Inner: &Template{Format: "[[ %s " + textOp + " %s ]]; echo $?", Args: []Fragment{l.LowerExpr(left), l.LowerExpr(right)}}}
	}
	return &Subprocess{Inner: &Template{Format: "[ %s " + bashOp + " %s ]; echo $?", Args: []Fragment{l.LowerExpr(left), l.LowerExpr(right)}}}
}

func (l *Lowerer) lowerUnary(n *ast.Unary) Fragment {
	switch n.Op {
	case ast.Neg:
		return &Arithmetic{Op: "-", Right: l.LowerExpr(n.Operand)}
	case ast.Not:
		return &Subprocess{Inner: &Template{Format: "[ %s -ne 0 ]; echo $?", Args: []Fragment{l.LowerExpr(n.Operand)}}}
	default:
		return &Empty{}
	}
}

func (l *Lowerer) lowerTypeExpr(n *ast.TypeExpr) Fragment {
	if n.Op == ast.IsOp {
		if types.Equal(n.Operand.Type(), n.Target) {
			return &Raw{Text: "0"}
		}
		return &Raw{Text: "1"}
	}
	return l.LowerExpr(n.Operand) // `as` casts are no-ops over Bash's textual values
}

// lowerTernary hoists the `then`/`else` branches into a variable assigned by
// an if/else pushed onto the statement queue, since Bash has no
// expression-position conditional (spec §9 "statement-queue hoisting").
// Not marked Ephemeral: the write sits inside a nested if/else block while
// the read is a sibling of the if/else itself, so FoldEphemerals' per-block
// values map (scoped to where the write appears) can never see the read —
// marking it would just delete the only assignment.
func (l *Lowerer) lowerTernary(n *ast.Ternary) Fragment {
	id := l.GlobalCtx.NextGlobalID()
	thenBlock := &Block{Stmts: []Fragment{&VarStmt{Name: "tern", GlobalID: id, Op: "=", Value: l.LowerExpr(n.Then)}}}
	elseBlock := &Block{Stmts: []Fragment{&VarStmt{Name: "tern", GlobalID: id, Op: "=", Value: l.LowerExpr(n.Else)}}}
	l.Ctx.Push(&IfStmt{Conds: []Fragment{l.LowerExpr(n.Cond)}, Blocks: []*Block{thenBlock}, Else: elseBlock})
	return &VarExpr{Name: "tern", GlobalID: id, RenderKind: BashValue, IsQuoted: n.Type().Kind != types.Array}
}

func (l *Lowerer) lowerIndex(n *ast.Index) Fragment {
	idx := &IndexSpec{Scalar: l.LowerExpr(n.Start)}
	if n.End != nil {
		idx.End = l.LowerExpr(n.End)
	}
	if arr, ok := n.Array.(*ast.VarGet); ok {
		return &VarExpr{Name: arr.Name, GlobalID: arr.GlobalID, Index: idx, RenderKind: BashValue, IsQuoted: n.Type().Kind != types.Array}
	}
	// Indexing a non-variable array expression (e.g. a call result): hoist
	// it into a holder variable first, then index that.
	id := l.GlobalCtx.NextGlobalID()
	l.Ctx.Push(&VarStmt{Name: "idxholder", GlobalID: id, Op: "=", Value: l.arrayValue(n.Array)})
	return &VarExpr{Name: "idxholder", GlobalID: id, Index: idx, RenderKind: BashValue, IsQuoted: n.Type().Kind != types.Array}
}

// isBuiltinCall reports whether name is one of the compiler-provided call
// forms (SPEC_FULL.md §3) that parser/expr.go already routes through the
// ordinary *ast.Invocation shape rather than a dedicated AST node.
func isBuiltinCall(name string) bool {
	switch name {
	case "len", "lines", "glob", "getopt", "param", "parser":
		return true
	}
	return false
}

func (l *Lowerer) lowerBuiltinCall(call *ast.Invocation) Fragment {
	switch call.Name {
	case "len":
		return l.lowerLen(call)
	case "lines":
		return l.lowerLines(call)
	case "glob":
		return l.lowerGlob(call)
	case "parser":
		return l.lowerParserDecl(call)
	case "getopt":
		return l.lowerGetopt(call)
	default: // "param" reached outside a direct `let` binding (lowerVarInit handles the common case)
		return l.lowerParamValue(call)
	}
}

// literalText reports the compile-time text of a plain (non-interpolated)
// string literal, the form every cli builtin's name/spec/help argument must
// take since getopt() needs them available at lowering time, not at runtime.
func literalText(e ast.Expr) (string, bool) {
	s, ok := e.(*ast.StringLit)
	if !ok || len(s.Exprs) != 0 || len(s.Literals) != 1 {
		return "", false
	}
	return s.Literals[0], true
}

// lowerLen implements len(value) (SPEC_FULL.md §3, grounded on the original
// len builtin's "${#value}" / "${#value[@]}" forms): a bare variable reads
// its length directly; anything else is hoisted through a holder first, the
// same pattern lowerIndex uses for non-variable array expressions.
func (l *Lowerer) lowerLen(call *ast.Invocation) Fragment {
	arg := call.Args[0]
	isArr := arg.Type().Kind == types.Array
	if vg, ok := arg.(*ast.VarGet); ok {
		return &VarExpr{Name: vg.Name, GlobalID: vg.GlobalID, IsArray: isArr, IsLength: true, RenderKind: BashValue}
	}
	value := l.LowerExpr(arg)
	if isArr {
		value = l.arrayValue(arg)
	}
	id := l.GlobalCtx.NextGlobalID()
	l.Ctx.Push(&VarStmt{Name: "lenof", GlobalID: id, Op: "=", Value: value})
	return &VarExpr{Name: "lenof", GlobalID: id, IsArray: isArr, IsLength: true, RenderKind: BashValue}
}

// lowerLines implements lines(path) (SPEC_FULL.md §3, grounded on the
// original lines builtin): hoist a `while read` loop that appends each line
// onto a fresh array, then return that array.
func (l *Lowerer) lowerLines(call *ast.Invocation) Fragment {
	arrID := l.GlobalCtx.NextGlobalID()
	lineID := l.GlobalCtx.NextGlobalID()
	arrName := mangled("lines", arrID)
	lineName := mangled("line", lineID)
	path := l.LowerExpr(call.Args[0])

	l.Ctx.Push(&Raw{Text: arrName + "=()"})
	l.Ctx.Push(&Template{
		Format: "while IFS= read -r " + lineName + "; do " + arrName + "+=(\"$" + lineName + "\"); done < %s",
		Args:   []Fragment{path},
	})
	return &VarExpr{Name: "lines", GlobalID: arrID, IsArray: true, IsQuoted: true, RenderKind: BashValue}
}

// lowerGlob implements glob(pattern, ...) (SPEC_FULL.md §3, grounded on the
// original glob builtin's plain space-joined argument list, which Bash then
// expands unquoted wherever the result lands inside an array literal).
func (l *Lowerer) lowerGlob(call *ast.Invocation) Fragment {
	children := make([]Fragment, len(call.Args))
	for i, a := range call.Args {
		children[i] = l.LowerExpr(a)
	}
	return &List{Children: children, Sep: SepSpace}
}

// lowerParserDecl implements parser(name) (SPEC_FULL.md §3): registers name
// as a cli-parameter bucket, deliberately scoped down from the original's
// Rc<RefCell>-threaded parser-object identity to a compile-time string key,
// since no later call needs to mutate parser state through a bound variable.
func (l *Lowerer) lowerParserDecl(call *ast.Invocation) Fragment {
	name, _ := literalText(call.Args[0])
	if l.cliParsers == nil {
		l.cliParsers = make(map[string][]*cliParam)
	}
	if _, ok := l.cliParsers[name]; !ok {
		l.cliParsers[name] = nil
	}
	return &Raw{Text: ""}
}

func (l *Lowerer) registerParam(call *ast.Invocation, globalID int, name string) {
	pname, _ := literalText(call.Args[0])
	spec, _ := literalText(call.Args[1])
	if l.cliParsers == nil {
		l.cliParsers = make(map[string][]*cliParam)
	}
	l.cliParsers[pname] = append(l.cliParsers[pname], &cliParam{
		name: name, globalID: globalID, spec: spec,
		isFlag: call.Args[2].Type().Kind == types.Bool,
	})
}

// lowerParamValue handles param() used outside a direct `let` binding: a
// rarer shape (e.g. passed straight into another call), given its own holder
// since there is no enclosing variable for getopt() to target.
func (l *Lowerer) lowerParamValue(call *ast.Invocation) Fragment {
	id := l.GlobalCtx.NextGlobalID()
	l.registerParam(call, id, "param")
	l.Ctx.Push(&VarStmt{Name: "param", GlobalID: id, Op: "=", Value: l.LowerExpr(call.Args[2])})
	return &VarExpr{Name: "param", GlobalID: id, RenderKind: BashValue, IsQuoted: call.Args[2].Type().Kind != types.Array}
}

// optionTokens splits a param() spec like "o|output" into its individual
// `-o`/`--output` forms (single-character tokens get a short dash).
func optionTokens(spec string) []string {
	parts := strings.Split(spec, "|")
	out := make([]string, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) == 1 {
			out[i] = "-" + p
		} else {
			out[i] = "--" + p
		}
	}
	return out
}

func optionPattern(spec string) string { return strings.Join(optionTokens(spec), "|") }

func optionEqPattern(spec string) string {
	toks := optionTokens(spec)
	for i, t := range toks {
		toks[i] = t + "=*"
	}
	return strings.Join(toks, "|")
}

// lowerGetopt implements getopt(parser, args) (SPEC_FULL.md §3): a manual
// `for .. in args; do case "$arg" in ...; esac; done` loop, one case arm per
// param() registered against parser, writing directly into each param's
// shell variable. Scoped down from the original's regex-parsed short/long
// option grammar and positional-argument support to `--name=value` long
// options and `--flag` boolean switches — positional CLI arguments are
// already covered by a main block's own parameter bindings.
func (l *Lowerer) lowerGetopt(call *ast.Invocation) Fragment {
	pname, _ := literalText(call.Args[0])
	argsFrag := l.LowerExpr(call.Args[1])
	params := l.cliParsers[pname]

	loopVar := fmt.Sprintf("__getopt_%d", l.GlobalCtx.NextGlobalID())

	var arms strings.Builder
	for _, p := range params {
		varName := mangled(p.name, p.globalID)
		if p.isFlag {
			fmt.Fprintf(&arms, "        %s) %s=0 ;;\n", optionPattern(p.spec), varName)
		} else {
			fmt.Fprintf(&arms, "        %s) %s=\"${%s#*=}\" ;;\n", optionEqPattern(p.spec), varName, loopVar)
		}
	}

	format := "for " + loopVar + " in %s; do\n" +
		"    case \"$" + loopVar + "\" in\n" +
		arms.String() +
		"        *) ;;\n" +
		"    esac\n" +
		"done"
	return &Template{Format: format, Args: []Fragment{argsFrag}}
}
