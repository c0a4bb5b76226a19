package parser

import (
	"github.com/tide-lang/tidec/ast"
	"github.com/tide-lang/tidec/lexer"
	"github.com/tide-lang/tidec/scope"
	"github.com/tide-lang/tidec/types"
)

// parseFunctionDecl parses a `[pub] fun name(args) [: Ret][?] { … }`
// declaration. Per spec §4.1, the body is captured as a raw token window by
// brace-counting rather than semantically parsed here; actual parsing of the
// body happens lazily, once per concrete argument-type tuple, in the
// monomorphizer (spec §4.3).
func (p *Parser) parseFunctionDecl(doc string) (ast.Statement, error) {
	start := p.ctx.Peek().Span.Start
	isPublic := p.consumeKeyword("pub")
	if _, err := p.expect(lexer.Keyword, "fun"); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(lexer.Ident, "")
	if err != nil {
		return nil, err
	}
	if len(nameTok.Word) >= 2 && nameTok.Word[:2] == "__" {
		return nil, p.loud(nameTok.Span.Start, "identifiers starting with '__' are reserved")
	}

	decl := &ast.FunctionDeclStmt{
		StmtBase:   ast.StmtBase{Pos: lexer.Span{Start: start}},
		Name:       nameTok.Word,
		ID:         p.ctx.NextFuncID(),
		IsPublic:   isPublic,
		DocComment: doc,
	}

	if _, err := p.expect(lexer.Punct, "("); err != nil {
		return nil, err
	}

	hasTyped, hasGeneric := false, false
	if !p.peekIsPunct(")") {
		for {
			isRef := p.consumeKeyword("ref")
			argName, err := p.expect(lexer.Ident, "")
			if err != nil {
				return nil, err
			}
			var argType *types.Type
			if p.consumePunct(":") {
				argType, err = p.parseTypeRef()
				if err != nil {
					return nil, err
				}
				hasTyped = true
			} else {
				hasGeneric = true
			}
			var def ast.Expr
			if p.consumeOperator("=") {
				def, err = p.parseExpr()
				if err != nil {
					return nil, err
				}
			}
			decl.ArgNames = append(decl.ArgNames, argName.Word)
			decl.ArgTypes = append(decl.ArgTypes, argType)
			decl.ArgRefs = append(decl.ArgRefs, isRef)
			decl.ArgDefaults = append(decl.ArgDefaults, def)
			if p.consumePunct(",") {
				continue
			}
			break
		}
	}
	if _, err := p.expect(lexer.Punct, ")"); err != nil {
		return nil, err
	}
	if hasTyped && hasGeneric {
		return nil, p.loud(nameTok.Span.Start, "function parameters must be all typed or all generic, not mixed")
	}

	if p.consumePunct(":") {
		ret, err := p.parseTypeRef()
		if err != nil {
			return nil, err
		}
		decl.ReturnType = ret
	}
	if p.consumePunct("?") {
		decl.IsFailable = true
	}

	bodyTokens, end, err := p.captureBraceBody()
	if err != nil {
		return nil, err
	}
	decl.BodyTokens = bodyTokens
	decl.Pos.End = end

	if _, dup := p.ctx.Global().Functions[decl.Name]; dup {
		return nil, p.loud(nameTok.Span.Start, "duplicate function name %q", decl.Name)
	}

	// Declarations live in the global scope only (spec §4.1).
	p.ctx.Global().Functions[decl.Name] = &scope.FunctionDecl{
		Name: decl.Name, ArgNames: decl.ArgNames, ArgTypes: decl.ArgTypes,
		ArgRefs: decl.ArgRefs, ArgOptionals: argOptionals(decl.ArgDefaults),
		Returns: decl.ReturnType, ID: decl.ID, IsArgsTyped: hasTyped,
		IsPublic: isPublic, IsFailable: decl.IsFailable, DocComment: doc,
	}
	if isPublic {
		p.ctx.PublicFunctions = append(p.ctx.PublicFunctions, decl.Name)
	}
	return decl, nil
}

func argOptionals(defaults []ast.Expr) []bool {
	out := make([]bool, len(defaults))
	for i, d := range defaults {
		out[i] = d != nil
	}
	return out
}

// captureBraceBody scans from the current '{' to its matching '}' at depth
// zero and returns the token window between them (exclusive of the braces
// themselves, terminated with a synthetic EOF) without attempting to parse
// it, plus the position just past the closing brace.
func (p *Parser) captureBraceBody() ([]lexer.Token, lexer.Pos, error) {
	openTok, err := p.expect(lexer.Punct, "{")
	if err != nil {
		return nil, lexer.Pos{}, err
	}
	depth := 1
	var toks []lexer.Token
	for {
		if p.ctx.AtEnd() {
			return nil, lexer.Pos{}, p.loud(openTok.Span.Start, "unterminated function body")
		}
		t := p.ctx.Peek()
		if t.Kind == lexer.Punct && t.Word == "{" {
			depth++
		}
		if t.Kind == lexer.Punct && t.Word == "}" {
			depth--
			if depth == 0 {
				end := t.Span.End
				p.ctx.Advance()
				toks = append(toks, lexer.Token{Kind: lexer.EOF, Span: lexer.Span{Start: end, End: end}})
				return toks, end, nil
			}
		}
		toks = append(toks, p.ctx.Advance())
	}
}
