package parser

import "github.com/tide-lang/tidec/ast"

// ParseFunctionBody parses a statement sequence up to the synthetic EOF
// token captureBraceBody appends (there is no closing '}' left to look for —
// the braces were already stripped at declaration time). Callers (the
// monomorphizer, spec §4.3 step 2) are responsible for swapping p's token
// window to the declaration's BodyTokens and setting scope.Flags.IsFunCtx
// before calling this, and restoring both afterward.
func (p *Parser) ParseFunctionBody() (*ast.Block, error) {
	b := &ast.Block{IndentOverride: -1}
	for !p.ctx.AtEnd() {
		st, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, st)
	}
	if len(b.Stmts) == 0 {
		b.NeedsNoop = true
	}
	return b, nil
}
