package parser

import (
	"github.com/tide-lang/tidec/ast"
	"github.com/tide-lang/tidec/lexer"
)

// parseImport parses `import "path"` or `import name, name2 from "path"`.
// Import graph insertion (cycle detection) is performed by the imports
// package once the driver resolves "path" to a file; the parser only
// records the syntactic shape (spec §4.4).
func (p *Parser) parseImport() (ast.Statement, error) {
	start := p.ctx.Advance().Span.Start
	imp := &ast.Import{StmtBase: ast.StmtBase{Pos: lexer.Span{Start: start}}}

	if p.ctx.Peek().Kind == lexer.StringLit {
		pathTok := p.ctx.Advance()
		imp.Path = joinRegionLiterals(pathTok.Region)
		imp.Pos.End = pathTok.Span.End
		return imp, nil
	}

	for {
		name, err := p.expect(lexer.Ident, "")
		if err != nil {
			return nil, err
		}
		imp.Names = append(imp.Names, name.Word)
		if p.consumePunct(",") {
			continue
		}
		break
	}
	if _, err := p.expect(lexer.Keyword, "from"); err != nil {
		return nil, err
	}
	pathTok, err := p.expect(lexer.StringLit, "")
	if err != nil {
		return nil, err
	}
	imp.Path = joinRegionLiterals(pathTok.Region)
	imp.Pos.End = pathTok.Span.End
	return imp, nil
}

func joinRegionLiterals(r *lexer.Region) string {
	if r == nil {
		return ""
	}
	out := ""
	for _, s := range r.Literals {
		out += s
	}
	return out
}

// parseMainBlock parses the program's single `main [name1, name2] { … }`
// entry point, binding positional parameters (spec §6 "Main block").
func (p *Parser) parseMainBlock() (ast.Statement, error) {
	start := p.ctx.Advance().Span.Start
	m := &ast.MainBlock{StmtBase: ast.StmtBase{Pos: lexer.Span{Start: start}}}
	if !p.peekIsPunct("{") {
		for {
			name, err := p.expect(lexer.Ident, "")
			if err != nil {
				return nil, err
			}
			m.Params = append(m.Params, name.Word)
			if p.consumePunct(",") {
				continue
			}
			break
		}
	}
	saved := p.ctx.Flags.IsMainCtx
	p.ctx.Flags.IsMainCtx = true
	body, err := p.parseBlock()
	p.ctx.Flags.IsMainCtx = saved
	if err != nil {
		return nil, err
	}
	m.Body = body
	m.Pos.End = p.ctx.Tokens[max0(p.ctx.Index-1)].Span.End
	return m, nil
}

// parseTestBlock parses `test "name" { … }`.
func (p *Parser) parseTestBlock() (ast.Statement, error) {
	start := p.ctx.Advance().Span.Start
	nameTok, err := p.expect(lexer.StringLit, "")
	if err != nil {
		return nil, err
	}
	saved := p.ctx.Flags.IsTestCtx
	p.ctx.Flags.IsTestCtx = true
	body, err := p.parseBlock()
	p.ctx.Flags.IsTestCtx = saved
	if err != nil {
		return nil, err
	}
	return &ast.TestBlock{
		StmtBase: ast.StmtBase{Pos: lexer.Span{Start: start, End: p.ctx.Tokens[max0(p.ctx.Index-1)].Span.End}},
		Name:     joinRegionLiterals(nameTok.Region),
		Body:     body,
	}, nil
}
