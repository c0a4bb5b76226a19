package parser

import (
	"github.com/tide-lang/tidec/ast"
	"github.com/tide-lang/tidec/lexer"
)

// parseStringLit and parseCommandLit both consume an already-scanned
// lexer.Region off the current token and re-parse each interpolation's
// token window with this same Parser and Context (so
// variable ids and declarations made visible to the interpolation — there
// are none, since `{expr}` is expression-only — stay globally unique).
func (p *Parser) parseStringLit() (ast.Expr, error) {
	t := p.ctx.Advance()
	exprs, err := p.parseRegionExprs(t.Region)
	if err != nil {
		return nil, err
	}
	return &ast.StringLit{
		Base:           ast.Base{Pos: t.Span},
		Literals:       t.Region.Literals,
		Exprs:          exprs,
		InvalidEscapes: t.Region.InvalidEscapes,
	}, nil
}

func (p *Parser) parseCommandLit() (ast.Expr, error) {
	t := p.ctx.Advance()
	exprs, err := p.parseRegionExprs(t.Region)
	if err != nil {
		return nil, err
	}
	return &ast.CommandLit{
		Base:           ast.Base{Pos: t.Span},
		Literals:       t.Region.Literals,
		Exprs:          exprs,
		InvalidEscapes: t.Region.InvalidEscapes,
	}, nil
}

// parseRegionExprs parses every `{expr}` token window of a Region in order,
// using this Parser over the same Context (shared scopes, shared global-id
// counter) but a swapped-in token window — the same save/restore discipline
// the monomorphizer uses for whole function bodies (spec §4.3 step 2).
func (p *Parser) parseRegionExprs(reg *lexer.Region) ([]ast.Expr, error) {
	if reg == nil {
		return nil, nil
	}
	savedTokens, savedIndex := p.ctx.Tokens, p.ctx.Index
	defer func() { p.ctx.Tokens, p.ctx.Index = savedTokens, savedIndex }()

	exprs := make([]ast.Expr, 0, len(reg.Exprs))
	for _, window := range reg.Exprs {
		p.ctx.Tokens = window
		p.ctx.Index = 0
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if !p.ctx.AtEnd() {
			t := p.ctx.Peek()
			return nil, p.loud(t.Span.Start, "Undefined syntax")
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}
