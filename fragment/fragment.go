// Package fragment implements the shell-aware intermediate representation of
// spec §3.6: a small sum type of Fragment variants, each able to render
// itself to shell text given a mutable TranslateContext.
package fragment

import (
	"fmt"
	"strings"
)

// RenderKind selects how a VarExpr dereferences its variable (spec §3.6).
type RenderKind int

const (
	NameOnly RenderKind = iota
	BashRef
	BashValue
)

// Separator joins List children (spec §3.6).
type Separator int

const (
	SepEmpty Separator = iota
	SepSpace
)

// InterpolableKind distinguishes a quoted Text literal from a bare command
// context where Bash already field-splits and quoting rules differ.
type InterpolableKind int

const (
	StringLiteral InterpolableKind = iota
	GlobalContext
)

// Fragment is the sum type. Every variant renders itself against a
// TranslateContext (spec §3.6: "Each render consumes a mutable
// TranslateContext").
type Fragment interface {
	Render(ctx *TranslateContext) string
}

// Raw is literal shell text, emitted as-is.
type Raw struct{ Text string }

func (r *Raw) Render(*TranslateContext) string { return r.Text }

// IndexSpec describes a[i] (Scalar set) or a[i..j] (Scalar and End set).
type IndexSpec struct {
	Scalar Fragment
	End    Fragment // nil unless this is a slice
}

// VarExpr reads a variable (spec §3.6 table).
type VarExpr struct {
	Name       string
	GlobalID   int
	IsArray    bool
	IsRef      bool
	IsLength   bool
	IsQuoted   bool
	RenderKind RenderKind
	Index      *IndexSpec
}

func mangled(name string, id int) string { return fmt.Sprintf("__%d_%s", id, name) }

// MangleName exposes the variable-mangling scheme (spec §6 "variables emit
// as __{global_id}_{name}") to the render package, which needs it for
// function-argument local bindings that never pass through a VarStmt/VarExpr.
func MangleName(name string, id int) string { return mangled(name, id) }

func (v *VarExpr) Render(ctx *TranslateContext) string {
	name := mangled(v.Name, v.GlobalID)

	prefix := ""
	if v.IsLength {
		prefix = "#"
	}
	suffix := ""
	switch {
	case v.Index != nil && v.Index.End != nil:
		o := v.Index.Scalar.Render(ctx)
		l := v.Index.End.Render(ctx)
		suffix = fmt.Sprintf("[@]:%s:%s", o, l)
	case v.Index != nil:
		suffix = fmt.Sprintf("[%s]", v.Index.Scalar.Render(ctx))
	case v.IsArray:
		suffix = "[@]"
	}

	if v.IsRef {
		if prefix == "" && suffix == "" {
			return wrapQuote(ctx, v.IsQuoted, fmt.Sprintf("${!%s}", name))
		}
		id := ctx.NextValueID()
		local := fmt.Sprintf("__%s_deref_%d", v.Name, id)
		ctx.Push(&Raw{Text: fmt.Sprintf("eval \"local %s=${%s%s%s}\"", local, prefix, name, suffix)})
		return wrapQuote(ctx, v.IsQuoted, fmt.Sprintf("$%s", local))
	}

	switch v.RenderKind {
	case NameOnly:
		return name
	case BashRef:
		return fmt.Sprintf("${!%s}", name)
	default:
		return wrapQuote(ctx, v.IsQuoted, fmt.Sprintf("${%s%s%s}", prefix, name, suffix))
	}
}

func wrapQuote(ctx *TranslateContext, quoted bool, body string) string {
	if !quoted {
		return body
	}
	return ctx.GenQuote() + body + ctx.GenQuote()
}

// VarStmt writes a variable (spec §3.6 table). Ephemeral marks a
// compiler-introduced temporary eligible for optimizer folding (spec §4.6);
// it is not part of the rendered text. NoOptimize pins a write so the
// unused-variable pass (spec §4.6 "optimize_unused = false") always keeps
// it regardless of whether it is ever read again.
type VarStmt struct {
	Name       string
	GlobalID   int
	IsLocal    bool // function-local vars emit with "local" (spec §6)
	IsRef      bool
	Op         string // "=", "+=", "-=", "*=", "/=", "%="
	Index      *IndexSpec
	Value      Fragment
	Ephemeral  bool
	NoOptimize bool
}

func (s *VarStmt) Render(ctx *TranslateContext) string {
	name := mangled(s.Name, s.GlobalID)
	lhs := name
	if s.Index != nil && s.Index.End != nil {
		o := s.Index.Scalar.Render(ctx)
		l := s.Index.End.Render(ctx)
		lhs = fmt.Sprintf("%s[@]:%s:%s", name, o, l)
	} else if s.Index != nil {
		lhs = fmt.Sprintf("%s[%s]", name, s.Index.Scalar.Render(ctx))
	}
	val := ""
	if s.Value != nil {
		val = s.Value.Render(ctx)
	}
	decl := ""
	if s.IsLocal {
		decl = "local "
	}
	if s.IsRef {
		return fmt.Sprintf("eval \"%s%s%s%s\"", decl, lhs, s.Op, val)
	}
	return fmt.Sprintf("%s%s%s%s", decl, lhs, s.Op, val)
}

// Block renders an indented statement sequence (spec §3.6, §4.7).
type Block struct {
	Stmts          []Fragment
	IncreaseIndent bool
	IsConditional  bool
}

func (b *Block) Render(ctx *TranslateContext) string {
	if b.IncreaseIndent {
		ctx.Indent++
		defer func() { ctx.Indent-- }()
	}
	if b.IsConditional {
		ctx.BeginConditional()
		defer ctx.EndConditional()
	}
	indent := ctx.GenIndent()
	var lines []string
	for _, st := range b.Stmts {
		for _, queued := range ctx.Drain() {
			lines = append(lines, indent+queued.Render(ctx))
		}
		line := st.Render(ctx)
		if _, ok := st.(*Subprocess); ok && line != "" {
			// A bare `$(…)` is not a valid statement on its own (spec §4.7);
			// running it for side effects only, discarding its output.
			line = "echo " + line + " > /dev/null 2>&1"
		}
		if line != "" {
			lines = append(lines, indent+line)
		}
	}
	for _, queued := range ctx.Drain() {
		lines = append(lines, indent+queued.Render(ctx))
	}
	return strings.Join(lines, "\n")
}

// List concatenates children with a separator (spec §3.6).
type List struct {
	Children []Fragment
	Sep      Separator
}

func (l *List) Render(ctx *TranslateContext) string {
	parts := make([]string, len(l.Children))
	for i, c := range l.Children {
		parts[i] = c.Render(ctx)
	}
	sep := ""
	if l.Sep == SepSpace {
		sep = " "
	}
	return strings.Join(parts, sep)
}

// Interpolable alternates literal text with embedded fragments (spec §3.6;
// mirrors ast.StringLit/ast.CommandLit directly).
type Interpolable struct {
	Literals []string
	Exprs    []Fragment
	Kind     InterpolableKind
}

func (in *Interpolable) Render(ctx *TranslateContext) string {
	var sb strings.Builder
	quote := ctx.GenQuote()
	dollar := ctx.GenDollar()
	if in.Kind == StringLiteral {
		sb.WriteString(quote)
	}
	for i, lit := range in.Literals {
		sb.WriteString(escapeForContext(lit, in.Kind, dollar))
		if i < len(in.Exprs) {
			sb.WriteString(dollar)
			sb.WriteByte('(')
			sb.WriteString(in.Exprs[i].Render(ctx))
			sb.WriteByte(')')
		}
	}
	if in.Kind == StringLiteral {
		sb.WriteString(quote)
	}
	return sb.String()
}

func escapeForContext(s string, kind InterpolableKind, dollar string) string {
	if kind == StringLiteral {
		s = strings.ReplaceAll(s, `"`, `\"`)
	}
	s = strings.ReplaceAll(s, "$", dollar)
	return s
}

// Subprocess wraps an inner fragment in command substitution (spec §3.6).
type Subprocess struct{ Inner Fragment }

func (s *Subprocess) Render(ctx *TranslateContext) string {
	inner := s.Inner.Render(ctx)
	if ctx.Eval {
		return fmt.Sprintf(`$(eval "%s")`, inner)
	}
	return fmt.Sprintf("$(%s)", inner)
}

// Arithmetic renders `$(( … ))` (spec §3.6).
type Arithmetic struct {
	Left, Right Fragment
	Op          string
	Quoted      bool
}

func (a *Arithmetic) Render(ctx *TranslateContext) string {
	l := ""
	if a.Left != nil {
		l = a.Left.Render(ctx)
	}
	r := ""
	if a.Right != nil {
		r = a.Right.Render(ctx)
	}
	body := fmt.Sprintf("$(( %s %s %s ))", l, a.Op, r)
	if a.Quoted {
		return ctx.GenQuote() + body + ctx.GenQuote()
	}
	return body
}

// Template renders a printf-style layout where each "%s" is substituted by
// the Render of the corresponding Args entry (spec §3.6): used wherever a
// fixed shell snippet wraps one or more sub-expressions (comparison tests,
// arithmetic fallbacks piped through `bc`), so those sub-expressions stay
// structured Fragments instead of being pre-rendered into opaque text —
// the optimize package's unused-variable pass (spec §4.6) walks Args to
// see which variables a statement actually reads.
type Template struct {
	Format string
	Args   []Fragment
}

func (t *Template) Render(ctx *TranslateContext) string {
	rendered := make([]any, len(t.Args))
	for i, a := range t.Args {
		rendered[i] = a.Render(ctx)
	}
	return fmt.Sprintf(t.Format, rendered...)
}

// Comment renders a `# …` line (spec §3.6).
type Comment struct{ Text string }

func (c *Comment) Render(*TranslateContext) string { return "# " + c.Text }

// Empty renders nothing and is skipped by Block (spec §3.6).
type Empty struct{}

func (*Empty) Render(*TranslateContext) string { return "" }

// IfStmt renders an if/elif/.../else/fi chain (spec §4.5 "if/while:
// translate condition into a numeric `[ cond != 0 ]` test … if-chain emits
// if … elif … else … fi"). Conds and Blocks are parallel; Else may be nil.
type IfStmt struct {
	Conds  []Fragment
	Blocks []*Block
	Else   *Block
}

func (f *IfStmt) Render(ctx *TranslateContext) string {
	var sb strings.Builder
	indent := ctx.GenIndent()
	for i, cond := range f.Conds {
		kw := "if"
		if i > 0 {
			kw = "elif"
		}
		fmt.Fprintf(&sb, "%s%s [ %s != 0 ]; then\n", indent, kw, cond.Render(ctx))
		sb.WriteString(f.Blocks[i].Render(ctx))
		sb.WriteByte('\n')
	}
	if f.Else != nil {
		fmt.Fprintf(&sb, "%selse\n", indent)
		sb.WriteString(f.Else.Render(ctx))
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "%sfi", indent)
	return sb.String()
}

// WhileStmt renders `while [ cond != 0 ]; do … done` (spec §4.5).
type WhileStmt struct {
	Cond Fragment
	Body *Block
}

func (f *WhileStmt) Render(ctx *TranslateContext) string {
	indent := ctx.GenIndent()
	var sb strings.Builder
	fmt.Fprintf(&sb, "%swhile [ %s != 0 ]; do\n", indent, f.Cond.Render(ctx))
	sb.WriteString(f.Body.Render(ctx))
	sb.WriteByte('\n')
	fmt.Fprintf(&sb, "%sdone", indent)
	return sb.String()
}

// ForEachStmt renders `for …; do … done` over an array, binding an optional
// index variable (spec §4.5 "Loops track is_loop_ctx").
type ForEachStmt struct {
	IndexVar    string // "" when no index binding
	IndexGlobal int
	ValueVar    string
	ValueGlobal int
	Collection  Fragment
	Body        *Block
}

func (f *ForEachStmt) Render(ctx *TranslateContext) string {
	indent := ctx.GenIndent()
	valueName := mangled(f.ValueVar, f.ValueGlobal)
	var sb strings.Builder
	if f.IndexVar != "" {
		indexName := mangled(f.IndexVar, f.IndexGlobal)
		fmt.Fprintf(&sb, "%s%s=0\n", indent, indexName)
		fmt.Fprintf(&sb, "%sfor %s in %s; do\n", indent, valueName, f.Collection.Render(ctx))
		sb.WriteString(f.Body.Render(ctx))
		sb.WriteByte('\n')
		fmt.Fprintf(&sb, "%s    %s=$(( %s + 1 ))\n", indent, indexName, indexName)
		fmt.Fprintf(&sb, "%sdone", indent)
		return sb.String()
	}
	fmt.Fprintf(&sb, "%sfor %s in %s; do\n", indent, valueName, f.Collection.Render(ctx))
	sb.WriteString(f.Body.Render(ctx))
	sb.WriteByte('\n')
	fmt.Fprintf(&sb, "%sdone", indent)
	return sb.String()
}

// InfiniteLoopStmt renders `while :; do … done` (spec §3.2 LoopInfinite).
type InfiniteLoopStmt struct{ Body *Block }

func (f *InfiniteLoopStmt) Render(ctx *TranslateContext) string {
	indent := ctx.GenIndent()
	var sb strings.Builder
	fmt.Fprintf(&sb, "%swhile :; do\n", indent)
	sb.WriteString(f.Body.Render(ctx))
	sb.WriteByte('\n')
	fmt.Fprintf(&sb, "%sdone", indent)
	return sb.String()
}
