package parser

import (
	"github.com/tide-lang/tidec/ast"
	"github.com/tide-lang/tidec/lexer"
	"github.com/tide-lang/tidec/types"
)

// parseExpr is the entry point for the precedence table in spec §4.1,
// lowest precedence first: ternary, range, or, and, equality, relation,
// additive, multiplicative, type-ops, unary, primary.
func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseTernary()
}

func (p *Parser) parseTernary() (ast.Expr, error) {
	start := p.ctx.Peek().Span.Start
	cond, err := p.parseRange()
	if err != nil {
		return nil, err
	}
	if !p.consumeKeyword("then") {
		return cond, nil
	}
	// right-associative: the else-arm may itself contain a ternary.
	thenArm, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Keyword, "else"); err != nil {
		return nil, err
	}
	elseArm, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	end := p.ctx.Tokens[max0(p.ctx.Index-1)].Span.End
	return &ast.Ternary{
		Base: ast.Base{Pos: lexer.Span{Start: start, End: end}},
		Cond: cond, Then: thenArm, Else: elseArm,
	}, nil
}

func max0(i int) int {
	if i < 0 {
		return 0
	}
	return i
}

func (p *Parser) parseRange() (ast.Expr, error) {
	start := p.ctx.Peek().Span.Start
	left, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	inclusive := false
	if p.peekIsOperator("..=") {
		inclusive = true
		p.ctx.Advance()
	} else if p.peekIsOperator("..") {
		p.ctx.Advance()
	} else {
		return left, nil
	}
	right, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	op := ast.Range
	if inclusive {
		op = ast.RangeInclusive
	}
	return p.binary(start, op, left, right), nil
}

func (p *Parser) binaryLevel(next func() (ast.Expr, error), ops map[string]ast.BinOp) (ast.Expr, error) {
	start := p.ctx.Peek().Span.Start
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		t := p.ctx.Peek()
		op, ok := ops[t.Word]
		if !ok || (t.Kind != lexer.Operator && t.Kind != lexer.Keyword) {
			return left, nil
		}
		p.ctx.Advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = p.binary(start, op, left, right)
	}
}

func (p *Parser) binary(start lexer.Pos, op ast.BinOp, l, r ast.Expr) ast.Expr {
	end := l.Span().End
	if r != nil {
		end = r.Span().End
	}
	return &ast.Binary{Base: ast.Base{Pos: lexer.Span{Start: start, End: end}}, Op: op, Left: l, Right: r}
}

func (p *Parser) parseOr() (ast.Expr, error) {
	return p.binaryLevel(p.parseAnd, map[string]ast.BinOp{"or": ast.Or})
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	return p.binaryLevel(p.parseEquality, map[string]ast.BinOp{"and": ast.And})
}

func (p *Parser) parseEquality() (ast.Expr, error) {
	return p.binaryLevel(p.parseRelational, map[string]ast.BinOp{"==": ast.Eq, "!=": ast.Neq})
}

func (p *Parser) parseRelational() (ast.Expr, error) {
	return p.binaryLevel(p.parseAdditive, map[string]ast.BinOp{
		"<": ast.Lt, "<=": ast.Le, ">": ast.Gt, ">=": ast.Ge,
	})
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	return p.binaryLevel(p.parseMultiplicative, map[string]ast.BinOp{"+": ast.Add, "-": ast.Sub})
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	return p.binaryLevel(p.parseTypeOps, map[string]ast.BinOp{"*": ast.Mul, "/": ast.Div, "%": ast.Mod})
}

func (p *Parser) parseTypeOps() (ast.Expr, error) {
	start := p.ctx.Peek().Span.Start
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.TypeOp
		switch {
		case p.peekIsKeyword("is"):
			op = ast.IsOp
		case p.peekIsKeyword("as"):
			op = ast.AsOp
		default:
			return left, nil
		}
		p.ctx.Advance()
		target, err := p.parseTypeRef()
		if err != nil {
			return nil, err
		}
		end := p.ctx.Tokens[max0(p.ctx.Index-1)].Span.End
		left = &ast.TypeExpr{
			Base: ast.Base{Pos: lexer.Span{Start: start, End: end}, Typ: resultTypeOp(op, target)},
			Op: op, Operand: left, Target: target,
		}
	}
}

func resultTypeOp(op ast.TypeOp, target *types.Type) *types.Type {
	if op == ast.IsOp {
		return types.TBool
	}
	return target
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	start := p.ctx.Peek().Span.Start
	switch {
	case p.peekIsOperator("-"):
		p.ctx.Advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Base: ast.Base{Pos: lexer.Span{Start: start, End: operand.Span().End}}, Op: ast.Neg, Operand: operand}, nil
	case p.peekIsKeyword("not"):
		p.ctx.Advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Base: ast.Base{Pos: lexer.Span{Start: start, End: operand.Span().End}, Typ: types.TBool}, Op: ast.Not, Operand: operand}, nil
	case p.peekIsKeyword("nameof"):
		p.ctx.Advance()
		if _, err := p.expect(lexer.Punct, "("); err != nil {
			return nil, err
		}
		idTok, err := p.expect(lexer.Ident, "")
		if err != nil {
			return nil, err
		}
		end, err := p.expect(lexer.Punct, ")")
		if err != nil {
			return nil, err
		}
		return &ast.NameOf{Base: ast.Base{Pos: lexer.Span{Start: start, End: end.Span.End}, Typ: types.TText}, Target: idTok.Word}, nil
	default:
		return p.parsePostfix()
	}
}

// parsePostfix parses a primary expression followed by any number of
// `[index]` suffixes.
func (p *Parser) parsePostfix() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peekIsPunct("[") {
		start := expr.Span().Start
		p.ctx.Advance()
		idxStart, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		var idxEnd ast.Expr
		if p.peekIsOperator("..") || p.peekIsOperator("..=") {
			p.ctx.Advance()
			idxEnd, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
		}
		end, err := p.expect(lexer.Punct, "]")
		if err != nil {
			return nil, err
		}
		expr = &ast.Index{
			Base:  ast.Base{Pos: lexer.Span{Start: start, End: end.Span.End}},
			Array: expr, Start: idxStart, End: idxEnd,
		}
	}
	return expr, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	t := p.ctx.Peek()
	switch {
	case t.Kind == lexer.IntLit:
		p.ctx.Advance()
		return &ast.IntLit{Base: ast.Base{Pos: t.Span, Typ: types.TInt}, Value: t.Int}, nil
	case t.Kind == lexer.NumLit:
		p.ctx.Advance()
		return &ast.NumLit{Base: ast.Base{Pos: t.Span, Typ: types.TNum}, Value: t.Num}, nil
	case t.Kind == lexer.StringLit:
		return p.parseStringLit()
	case t.Kind == lexer.CommandLit:
		return p.parseCommandLit()
	case p.peekIsKeyword("true"):
		p.ctx.Advance()
		return &ast.BoolLit{Base: ast.Base{Pos: t.Span, Typ: types.TBool}, Value: true}, nil
	case p.peekIsKeyword("false"):
		p.ctx.Advance()
		return &ast.BoolLit{Base: ast.Base{Pos: t.Span, Typ: types.TBool}, Value: false}, nil
	case p.peekIsKeyword("null"):
		p.ctx.Advance()
		return &ast.NullLit{Base: ast.Base{Pos: t.Span, Typ: types.TNull}}, nil
	case p.peekIsKeyword("status"):
		p.ctx.Advance()
		return &ast.Status{Base: ast.Base{Pos: t.Span, Typ: types.TInt}}, nil
	case p.peekIsPunct("("):
		return p.parseParenOrNothing()
	case p.peekIsPunct("["):
		return p.parseArrayLit()
	case t.Kind == lexer.Ident:
		return p.parseIdentOrCall()
	case t.Kind == lexer.Keyword && isBuiltinCallName(t.Word):
		return p.parseIdentOrCall()
	default:
		return nil, p.loud(t.Span.Start, "Undefined syntax")
	}
}

func isBuiltinCallName(w string) bool {
	switch w {
	case "len", "lines", "glob", "getopt", "param", "parser":
		return true
	}
	return false
}

func (p *Parser) parseParenOrNothing() (ast.Expr, error) {
	start := p.ctx.Advance().Span.Start // consume '('
	inner, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	end, err := p.expect(lexer.Punct, ")")
	if err != nil {
		return nil, err
	}
	return &ast.Paren{Base: ast.Base{Pos: lexer.Span{Start: start, End: end.Span.End}}, Inner: inner}, nil
}

func (p *Parser) parseArrayLit() (ast.Expr, error) {
	start := p.ctx.Advance().Span.Start // consume '['
	arr := &ast.ArrayLit{Base: ast.Base{Pos: lexer.Span{Start: start}}}
	if p.peekIsPunct("]") {
		end := p.ctx.Advance()
		arr.Pos.End = end.Span.End
		return arr, nil
	}
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		arr.Elems = append(arr.Elems, e)
		if p.consumePunct(",") {
			continue
		}
		break
	}
	end, err := p.expect(lexer.Punct, "]")
	if err != nil {
		return nil, err
	}
	arr.Pos.End = end.Span.End
	return arr, nil
}

func (p *Parser) parseIdentOrCall() (ast.Expr, error) {
	t := p.ctx.Advance()
	if !p.peekIsPunct("(") {
		return &ast.VarGet{Base: ast.Base{Pos: t.Span}, Name: t.Word}, nil
	}
	p.ctx.Advance() // consume '('
	call := &ast.Invocation{Base: ast.Base{Pos: lexer.Span{Start: t.Span.Start}}, Name: t.Word}
	if !p.peekIsPunct(")") {
		for {
			a, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, a)
			if p.consumePunct(",") {
				continue
			}
			break
		}
	}
	end, err := p.expect(lexer.Punct, ")")
	if err != nil {
		return nil, err
	}
	call.Pos.End = end.Span.End
	return call, nil
}

// parseTypeRef parses a type annotation: Null|Text|Bool|Num|Int, Array(T),
// a bare generic parameter name, or T? for a failable wrapper.
func (p *Parser) parseTypeRef() (*types.Type, error) {
	t := p.ctx.Peek()
	var base *types.Type
	switch {
	case t.Kind == lexer.Ident && t.Word == "Array":
		p.ctx.Advance()
		if _, err := p.expect(lexer.Punct, "("); err != nil {
			return nil, err
		}
		elem, err := p.parseTypeRef()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Punct, ")"); err != nil {
			return nil, err
		}
		if elem.Kind == types.Array {
			return nil, p.loud(t.Span.Start, "nested array types are not supported")
		}
		base = types.NewArray(elem)
	case t.Kind == lexer.Ident:
		p.ctx.Advance()
		base = builtinTypeNamed(t.Word)
	default:
		return nil, p.loud(t.Span.Start, "expected a type")
	}
	if p.consumePunct("?") {
		if base.Kind == types.Failable {
			return nil, p.loud(t.Span.Start, "failable types cannot nest")
		}
		return types.NewFailable(base), nil
	}
	return base, nil
}

func builtinTypeNamed(name string) *types.Type {
	switch name {
	case "Null":
		return types.TNull
	case "Text":
		return types.TText
	case "Bool":
		return types.TBool
	case "Num":
		return types.TNum
	case "Int":
		return types.TInt
	default:
		return types.TGeneric // a generic type parameter name; resolved by monomorphizer
	}
}
