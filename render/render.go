// Package render implements the renderer of spec §4.7: a single recursive
// walk over an already-lowered-and-optimized fragment tree that assembles
// the final shell artifact (shebang, optional RDC prologue, function
// definitions, main block, test blocks).
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tide-lang/tidec/fragment"
)

// Options controls artifact assembly (spec §6 CLI flags).
type Options struct {
	Minify   bool
	TestMode bool
	TestName string // empty selects every test block
}

// FunctionArtifact is one monomorphized instance ready to emit as a shell
// function (spec §4.3 step 5, §6 "Function definitions").
type FunctionArtifact struct {
	EmittedName  string // "name__declID_vvariantID"
	ArgNames     []string
	ArgGlobalIDs []int
	ArgIsArray   []bool
	Body         *fragment.Block
}

// TestArtifact is one lowered `test "name" { … }` block.
type TestArtifact struct {
	Name string
	Body *fragment.Block
}

// Program is everything the renderer needs, already lowered to fragments and
// passed through the optimize package's two passes.
type Program struct {
	Functions  []FunctionArtifact
	Commands   []string // external commands referenced (spec §6 RDC prologue), deduplicated
	Main       *fragment.Block
	MainParams []string
	MainParamIDs []int
	Tests      []TestArtifact
}

// Render assembles the final artifact text. ctx is reset (Indent=-1) before
// each top-level block so every function/main/test body renders at the same
// starting depth regardless of render order.
func Render(ctx *fragment.TranslateContext, p *Program, opts Options) string {
	var sb strings.Builder
	sb.WriteString("#!/usr/bin/env bash\n")
	if len(p.Commands) > 0 {
		sb.WriteString(rdcPrologue(p.Commands))
	}

	for _, fn := range p.Functions {
		if !opts.Minify {
			sb.WriteString("\n")
		}
		sb.WriteString(renderFunction(ctx, fn))
	}

	if opts.TestMode {
		for _, t := range p.Tests {
			if opts.TestName != "" && t.Name != opts.TestName {
				continue
			}
			if !opts.Minify {
				sb.WriteString("\n")
			}
			ctx.Indent = -1
			sb.WriteString(t.Body.Render(ctx))
			sb.WriteString("\n")
		}
		return sb.String()
	}

	if !opts.Minify {
		sb.WriteString("\n")
	}
	main := mainWithParamBindings(p)
	ctx.Indent = -1
	sb.WriteString(main.Render(ctx))
	sb.WriteString("\n")
	return sb.String()
}

// mainWithParamBindings prepends `name=$1 name=$2 …` (spec §6 "Main block
// appears last … positional parameters are bound") to the main block's
// already-lowered body, reusing the ordinary VarStmt renderer rather than
// hand-formatting the assignment text.
func mainWithParamBindings(p *Program) *fragment.Block {
	if len(p.MainParams) == 0 {
		return p.Main
	}
	out := &fragment.Block{IncreaseIndent: p.Main.IncreaseIndent}
	for i, name := range p.MainParams {
		out.Stmts = append(out.Stmts, &fragment.VarStmt{
			Name: name, GlobalID: p.MainParamIDs[i], Op: "=",
			Value: &fragment.Raw{Text: fmt.Sprintf("$%d", i+1)},
		})
	}
	out.Stmts = append(out.Stmts, p.Main.Stmts...)
	return out
}

// renderFunction emits `function name__id_vX { … }` (spec §6): array
// arguments passed by value bind as `local arg=("${!N}")`; ref arguments
// hold the referenced name in a plain local.
func renderFunction(ctx *fragment.TranslateContext, fn FunctionArtifact) string {
	var sb strings.Builder
	sb.WriteString("function " + fn.EmittedName + " {\n")
	for i, name := range fn.ArgNames {
		local := fragment.MangleName(name, fn.ArgGlobalIDs[i])
		n := i + 1
		if fn.ArgIsArray[i] {
			// Array-by-value argument: the caller passed the array's own
			// name, dereferenced here into a fresh local array (spec §6).
			sb.WriteString(fmt.Sprintf("    local %s=(\"${!%d}\")\n", local, n))
		} else {
			// Scalar or ref argument: the local just holds the positional
			// string — a ref argument's string happens to be the referenced
			// variable's own name (spec §6 "the local holds the referenced
			// name").
			sb.WriteString(fmt.Sprintf("    local %s=\"$%d\"\n", local, n))
		}
	}
	ctx.Indent = 0
	sb.WriteString(fn.Body.Render(ctx))
	sb.WriteString("\n}\n")
	return sb.String()
}

// rdcPrologue emits the runtime-dependency-checker array and canned PATH
// check (spec §6 "Optional RDC prologue").
func rdcPrologue(commands []string) string {
	sorted := append([]string(nil), commands...)
	sort.Strings(sorted)

	var sb strings.Builder
	sb.WriteString("__tidec_required_cmds=(")
	for i, c := range sorted {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString("'" + c + "'")
	}
	sb.WriteString(")\nfor __tidec_cmd in \"${__tidec_required_cmds[@]}\"; do\n")
	sb.WriteString("    if ! command -v \"$__tidec_cmd\" >/dev/null 2>&1; then\n")
	sb.WriteString("        echo \"This program requires for these commands: ( ${__tidec_required_cmds[*]} ) to be present in \\$PATH.\"\n")
	sb.WriteString("        exit 1\n")
	sb.WriteString("    fi\n")
	sb.WriteString("done\n")
	return sb.String()
}
