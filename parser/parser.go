// Package parser implements the recursive-descent, token-driven parser of
// spec §4.1: token sequence in, AST out, generic function calls left
// unresolved until the monomorphizer re-enters them.
package parser

import (
	"github.com/tide-lang/tidec/ast"
	"github.com/tide-lang/tidec/lexer"
	"github.com/tide-lang/tidec/scope"
)

// Parser wraps a scope.Context and exposes the grammar as methods. Multiple
// Parsers share one global-id counter (via scope.Context.nextGlobalID) when
// parsing happens across files or across monomorphized instances, so no two
// variables anywhere in the program ever collide (spec §3.3 invariant 1).
type Parser struct {
	ctx *scope.Context
}

// New creates a Parser over an already-tokenized file.
func New(ctx *scope.Context) *Parser { return &Parser{ctx: ctx} }

// Context exposes the underlying parse context (used by the monomorphizer
// to snapshot/restore state around a specialization call, spec §4.3).
func (p *Parser) Context() *scope.Context { return p.ctx }

// ParseFile parses a whole file's token stream at the top level, returning
// its statements in source order. Any unknown or stray token at the block's
// top level is a loud "Undefined syntax" error (spec §4.1 "Error policy").
func (p *Parser) ParseFile() ([]ast.Statement, error) {
	var stmts []ast.Statement
	for !p.ctx.AtEnd() {
		st, err := p.parseTopLevelStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, st)
	}
	return stmts, nil
}

// expect consumes the current token if it matches kind/word, else fails
// loudly: a missing expected token is always a hard parse error (spec §7.2).
func (p *Parser) expect(kind lexer.Kind, word string) (lexer.Token, error) {
	t := p.ctx.Peek()
	if t.Kind != kind || (word != "" && t.Word != word) {
		return lexer.Token{}, p.loud(t.Span.Start, "expected %q, found %q", word, t.Word)
	}
	return p.ctx.Advance(), nil
}

func (p *Parser) peekIsKeyword(word string) bool {
	t := p.ctx.Peek()
	return t.Kind == lexer.Keyword && t.Word == word
}

func (p *Parser) peekIsPunct(word string) bool {
	t := p.ctx.Peek()
	return t.Kind == lexer.Punct && t.Word == word
}

func (p *Parser) peekIsOperator(word string) bool {
	t := p.ctx.Peek()
	return t.Kind == lexer.Operator && t.Word == word
}

func (p *Parser) consumeKeyword(word string) bool {
	if p.peekIsKeyword(word) {
		p.ctx.Advance()
		return true
	}
	return false
}

func (p *Parser) consumePunct(word string) bool {
	if p.peekIsPunct(word) {
		p.ctx.Advance()
		return true
	}
	return false
}

func (p *Parser) consumeOperator(word string) bool {
	if p.peekIsOperator(word) {
		p.ctx.Advance()
		return true
	}
	return false
}

// parseTopLevelStatement dispatches on the leading token. Function
// declarations, import and main/test blocks are only valid here (spec §4.1
// "Function declaration: only in the global scope").
func (p *Parser) parseTopLevelStatement() (ast.Statement, error) {
	t := p.ctx.Peek()
	switch {
	case t.Kind == lexer.DocComment:
		return p.parseDocCommentedDecl()
	case p.peekIsKeyword("pub"), p.peekIsKeyword("fun"):
		return p.parseFunctionDecl("")
	case p.peekIsKeyword("import"):
		return p.parseImport()
	case p.peekIsKeyword("main"):
		return p.parseMainBlock()
	case p.peekIsKeyword("test"):
		return p.parseTestBlock()
	default:
		return p.parseStatement()
	}
}

// parseDocCommentedDecl attaches a leading doc-comment block to the
// following `fun` declaration (SPEC_FULL.md §3 supplemented feature). Any
// other following construct is itself an error: doc comments only document
// functions.
func (p *Parser) parseDocCommentedDecl() (ast.Statement, error) {
	var doc []string
	for p.ctx.Peek().Kind == lexer.DocComment {
		doc = append(doc, p.ctx.Advance().Word)
	}
	if !p.peekIsKeyword("pub") && !p.peekIsKeyword("fun") {
		t := p.ctx.Peek()
		return nil, p.loud(t.Span.Start, "doc comments may only precede a function declaration")
	}
	text := ""
	for i, d := range doc {
		if i > 0 {
			text += "\n"
		}
		text += d
	}
	return p.parseFunctionDecl(text)
}
