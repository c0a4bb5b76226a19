package parser

import (
	"github.com/tide-lang/tidec/ast"
	"github.com/tide-lang/tidec/lexer"
)

// parseFailureHandler implements the failure-handler state machine of spec
// §4.1. required indicates whether the preceding construct can actually
// fail at runtime (a command or a failable call); when it cannot, a present
// handler is still parsed (the checker reports it as a redundant-handler
// warning, spec §7) but its absence is never an error.
func (p *Parser) parseFailureHandler(required bool) (*ast.FailureHandler, error) {
	t := p.ctx.Peek()

	if p.consumePunct("?") {
		if !p.ctx.Flags.IsMainCtx && !p.ctx.Flags.IsFunCtx && !p.ctx.Flags.IsTrustCtx {
			return nil, p.loud(t.Span.Start, "'?' may only appear in main, a function body, or a trust block")
		}
		return &ast.FailureHandler{Kind: ast.HandlerPropagate}, nil
	}

	kind, ok := handlerKeywordKind(p.ctx.Peek())
	if ok {
		p.ctx.Advance()
		h := &ast.FailureHandler{Kind: kind, Pos: t.Span.Start, Redundant: !required}
		if p.consumePunct("(") {
			name, err := p.expect(lexer.Ident, "")
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.Punct, ")"); err != nil {
				return nil, err
			}
			h.BindName = name.Word
			h.BindID = p.ctx.NextGlobalID()
		}
		block, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		h.Block = block
		return h, nil
	}

	if !required {
		return nil, nil
	}
	if p.ctx.Flags.IsTrustCtx {
		return &ast.FailureHandler{Kind: ast.HandlerSuppressed}, nil
	}
	return nil, p.loud(t.Span.Start, "must handle failure")
}

func handlerKeywordKind(t lexer.Token) (ast.FailureHandlerKind, bool) {
	if t.Kind != lexer.Keyword {
		return 0, false
	}
	switch t.Word {
	case "failed":
		return ast.HandlerFailed, true
	case "succeeded":
		return ast.HandlerSucceeded, true
	case "exited":
		return ast.HandlerExited, true
	default:
		return 0, false
	}
}
