package parser

import (
	"github.com/tide-lang/tidec/ast"
	"github.com/tide-lang/tidec/lexer"
)

// parseStatement dispatches non-top-level statements. Top-level-only
// constructs (fun/import/main/test) are handled by parseTopLevelStatement
// and are not reachable from here.
func (p *Parser) parseStatement() (ast.Statement, error) {
	t := p.ctx.Peek()
	switch {
	case t.Kind == lexer.Comment:
		p.ctx.Advance()
		return &ast.CommentStmt{StmtBase: ast.StmtBase{Pos: t.Span}, Text: t.Word}, nil
	case t.Kind == lexer.DocComment:
		p.ctx.Advance()
		return &ast.DocCommentStmt{StmtBase: ast.StmtBase{Pos: t.Span}, Text: t.Word}, nil
	case p.peekIsKeyword("let"), p.peekIsKeyword("const"):
		return p.parseVarInit()
	case p.peekIsKeyword("if"):
		return p.parseIf()
	case p.peekIsKeyword("loop"):
		return p.parseLoop()
	case p.peekIsKeyword("while"):
		return p.parseWhile()
	case p.peekIsKeyword("break"):
		if !p.ctx.Flags.IsLoopCtx {
			return nil, p.loud(t.Span.Start, "break used outside of a loop")
		}
		p.ctx.Advance()
		return &ast.Break{StmtBase: ast.StmtBase{Pos: t.Span}}, nil
	case p.peekIsKeyword("continue"):
		if !p.ctx.Flags.IsLoopCtx {
			return nil, p.loud(t.Span.Start, "continue used outside of a loop")
		}
		p.ctx.Advance()
		return &ast.Continue{StmtBase: ast.StmtBase{Pos: t.Span}}, nil
	case p.peekIsKeyword("ret"):
		return p.parseReturn()
	case p.peekIsKeyword("fail"):
		return p.parseFail()
	case p.peekIsKeyword("echo"):
		return p.parseEcho()
	case p.peekIsKeyword("exit"):
		return p.parseExit()
	case p.peekIsKeyword("cd"):
		return p.parseCd()
	case p.peekIsKeyword("mv"):
		return p.parseMv()
	case p.peekIsKeyword("rm"):
		return p.parseRm()
	case p.peekIsKeyword("silent"):
		return p.parseSilent()
	case p.peekIsKeyword("trust"), p.peekIsKeyword("sudo"), p.peekIsKeyword("unsafe"):
		return p.parseCommandModifier()
	case t.Kind == lexer.Ident:
		return p.parseAssignOrExprStatement()
	default:
		return p.parseExprStatementFallback()
	}
}

func (p *Parser) parseBlock() (*ast.Block, error) {
	if _, err := p.expect(lexer.Punct, "{"); err != nil {
		return nil, err
	}
	b := &ast.Block{IndentOverride: -1}
	for !p.peekIsPunct("}") {
		if p.ctx.AtEnd() {
			t := p.ctx.Peek()
			return nil, p.loud(t.Span.Start, "expected %q, found end of file", "}")
		}
		st, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, st)
	}
	p.ctx.Advance() // consume '}'
	if len(b.Stmts) == 0 {
		b.NeedsNoop = true
	}
	return b, nil
}

func (p *Parser) parseVarInit() (ast.Statement, error) {
	start := p.ctx.Advance().Span.Start // 'let' or 'const'
	isConst := p.ctx.Tokens[p.ctx.Index-1].Word == "const"

	v := &ast.VarInit{StmtBase: ast.StmtBase{Pos: lexer.Span{Start: start}}, IsConst: isConst}

	if p.consumePunct("[") {
		for {
			id, err := p.expect(lexer.Ident, "")
			if err != nil {
				return nil, err
			}
			v.Names = append(v.Names, id.Word)
			if p.consumePunct(",") {
				continue
			}
			break
		}
		if _, err := p.expect(lexer.Punct, "]"); err != nil {
			return nil, err
		}
	} else {
		id, err := p.expect(lexer.Ident, "")
		if err != nil {
			return nil, err
		}
		if len(id.Word) >= 2 && id.Word[:2] == "__" {
			return nil, p.loud(id.Span.Start, "identifiers starting with '__' are reserved")
		}
		v.Names = []string{id.Word}
	}

	if p.consumePunct(":") {
		ty, err := p.parseTypeRef()
		if err != nil {
			return nil, err
		}
		v.DeclaredType = ty
	}

	if _, err := p.expect(lexer.Operator, "="); err != nil {
		return nil, err
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	v.Value = val
	v.Pos.End = val.Span().End

	for range v.Names {
		v.GlobalIDs = append(v.GlobalIDs, p.ctx.NextGlobalID())
	}
	return v, nil
}

func (p *Parser) parseAssignOrExprStatement() (ast.Statement, error) {
	start := p.ctx.Peek().Span.Start
	nameTok := p.ctx.Advance()

	// x[i] = expr / x[i..j] = expr
	if p.peekIsPunct("[") {
		p.ctx.Advance()
		idx, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		var rangeEnd ast.Expr
		if p.peekIsOperator("..") || p.peekIsOperator("..=") {
			p.ctx.Advance()
			rangeEnd, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(lexer.Punct, "]"); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Operator, "="); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.VarSet{
			StmtBase: ast.StmtBase{Pos: lexer.Span{Start: start, End: val.Span().End}},
			Name: nameTok.Word, Index: idx, RangeEnd: rangeEnd, Value: val,
		}, nil
	}

	if p.peekIsOperator("=") {
		p.ctx.Advance()
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.VarSet{
			StmtBase: ast.StmtBase{Pos: lexer.Span{Start: start, End: val.Span().End}},
			Name: nameTok.Word, Value: val,
		}, nil
	}

	if op, ok := shorthandOp(p.ctx.Peek()); ok {
		p.ctx.Advance()
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.ShorthandAssign{
			StmtBase: ast.StmtBase{Pos: lexer.Span{Start: start, End: val.Span().End}},
			Name: nameTok.Word, Op: op, Value: val,
		}, nil
	}

	// Not an assignment: re-enter expression parsing from this identifier as
	// a call or bare variable reference, used as a statement.
	p.ctx.Index--
	return p.parseExprStatementFallback()
}

func shorthandOp(t lexer.Token) (ast.ShorthandOp, bool) {
	if t.Kind != lexer.Operator {
		return 0, false
	}
	switch t.Word {
	case "+=":
		return ast.AddAssign, true
	case "-=":
		return ast.SubAssign, true
	case "*=":
		return ast.MulAssign, true
	case "/=":
		return ast.DivAssign, true
	case "%=":
		return ast.ModAssign, true
	default:
		return 0, false
	}
}

func (p *Parser) parseExprStatementFallback() (ast.Statement, error) {
	start := p.ctx.Peek().Span.Start
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	required := isFailableCommandExpr(val)
	if inv, ok := val.(*ast.Invocation); ok {
		if decl, found := p.ctx.LookupFunction(inv.Name); found {
			required = decl.IsFailable
		}
	}
	handler, err := p.parseFailureHandler(required)
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{
		StmtBase: ast.StmtBase{Pos: lexer.Span{Start: start, End: val.Span().End}},
		Value:    val, Handler: handler,
	}, nil
}

// isFailableCommandExpr reports whether val is a construct that can fail at
// runtime and therefore must carry, or be exempted from, a failure handler
// (spec §4.1's state machine). Commands and calls are the only candidates;
// parseExprStatementFallback narrows a call whose callee is already declared
// to that declaration's IsFailable, and treats a call to a not-yet-declared
// name as failable. A handler on a non-failable construct is marked
// Redundant, which the checker reports as a "redundant failure handler"
// warning (spec §7 warnings).
func isFailableCommandExpr(e ast.Expr) bool {
	switch e.(type) {
	case *ast.CommandLit, *ast.Invocation:
		return true
	default:
		return false
	}
}

func (p *Parser) parseIf() (ast.Statement, error) {
	start := p.ctx.Advance().Span.Start
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	then.IsCondition = true

	if !p.peekIsKeyword("else") {
		return &ast.IfCond{StmtBase: ast.StmtBase{Pos: lexer.Span{Start: start}}, Cond: cond, Then: then}, nil
	}

	chain := &ast.IfChain{StmtBase: ast.StmtBase{Pos: lexer.Span{Start: start}}}
	chain.Conds = append(chain.Conds, cond)
	chain.Blocks = append(chain.Blocks, then)

	for p.consumeKeyword("else") {
		if p.consumeKeyword("if") {
			c, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			b, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			b.IsCondition = true
			chain.Conds = append(chain.Conds, c)
			chain.Blocks = append(chain.Blocks, b)
			continue
		}
		b, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		b.IsCondition = true
		chain.Default = b
		break
	}
	return chain, nil
}

func (p *Parser) parseLoop() (ast.Statement, error) {
	start := p.ctx.Advance().Span.Start

	if p.ctx.Peek().Kind == lexer.Ident {
		first := p.ctx.Advance()
		loopStmt := &ast.LoopIter{StmtBase: ast.StmtBase{Pos: lexer.Span{Start: start}}}
		if p.consumePunct(",") {
			second, err := p.expect(lexer.Ident, "")
			if err != nil {
				return nil, err
			}
			loopStmt.IndexName = first.Word
			loopStmt.ValueName = second.Word
		} else {
			loopStmt.ValueName = first.Word
		}
		if _, err := p.expect(lexer.Keyword, "in"); err != nil {
			return nil, err
		}
		coll, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		loopStmt.Collection = coll
		if loopStmt.IndexName != "" {
			loopStmt.IndexID = p.ctx.NextGlobalID()
		}
		loopStmt.ValueID = p.ctx.NextGlobalID()
		body, err := p.parseLoopBody()
		if err != nil {
			return nil, err
		}
		loopStmt.Body = body
		return loopStmt, nil
	}

	body, err := p.parseLoopBody()
	if err != nil {
		return nil, err
	}
	return &ast.LoopInfinite{StmtBase: ast.StmtBase{Pos: lexer.Span{Start: start}}, Body: body}, nil
}

func (p *Parser) parseLoopBody() (*ast.Block, error) {
	saved := p.ctx.Flags.IsLoopCtx
	p.ctx.Flags.IsLoopCtx = true
	defer func() { p.ctx.Flags.IsLoopCtx = saved }()
	return p.parseBlock()
}

func (p *Parser) parseWhile() (ast.Statement, error) {
	start := p.ctx.Advance().Span.Start
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseLoopBody()
	if err != nil {
		return nil, err
	}
	return &ast.LoopWhile{StmtBase: ast.StmtBase{Pos: lexer.Span{Start: start}}, Cond: cond, Body: body}, nil
}

func (p *Parser) parseReturn() (ast.Statement, error) {
	t := p.ctx.Peek()
	if !p.ctx.Flags.IsFunCtx {
		return nil, p.loud(t.Span.Start, "ret used outside of a function")
	}
	start := p.ctx.Advance().Span.Start
	if p.peekIsPunct("}") {
		return &ast.Return{StmtBase: ast.StmtBase{Pos: lexer.Span{Start: start}}}, nil
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Return{StmtBase: ast.StmtBase{Pos: lexer.Span{Start: start, End: val.Span().End}}, Value: val}, nil
}

func (p *Parser) parseFail() (ast.Statement, error) {
	t := p.ctx.Peek()
	if !p.ctx.Flags.IsFunCtx && !p.ctx.Flags.IsMainCtx {
		return nil, p.loud(t.Span.Start, "fail used outside of a function or main block")
	}
	start := p.ctx.Advance().Span.Start
	if p.peekIsPunct("}") {
		return &ast.Fail{StmtBase: ast.StmtBase{Pos: lexer.Span{Start: start}}}, nil
	}
	code, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Fail{StmtBase: ast.StmtBase{Pos: lexer.Span{Start: start, End: code.Span().End}}, Code: code}, nil
}

func (p *Parser) parseEcho() (ast.Statement, error) {
	start := p.ctx.Advance().Span.Start
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Echo{StmtBase: ast.StmtBase{Pos: lexer.Span{Start: start, End: val.Span().End}}, Value: val}, nil
}

func (p *Parser) parseExit() (ast.Statement, error) {
	start := p.ctx.Advance().Span.Start
	st := &ast.Exit{StmtBase: ast.StmtBase{Pos: lexer.Span{Start: start, End: start}}}
	if !p.peekIsPunct("}") {
		code, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		st.Code = code
		st.Pos.End = code.Span().End
	}
	return st, nil
}

func (p *Parser) parseCd() (ast.Statement, error) {
	t := p.ctx.Peek()
	start := p.ctx.Advance().Span.Start
	path, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	handler, err := p.parseFailureHandler(true)
	if err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, p.loud(t.Span.Start, "cd must handle failure")
	}
	return &ast.Cd{StmtBase: ast.StmtBase{Pos: lexer.Span{Start: start, End: path.Span().End}}, Path: path, Handler: handler}, nil
}

func (p *Parser) parseMv() (ast.Statement, error) {
	start := p.ctx.Advance().Span.Start
	from, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Punct, ","); err != nil {
		return nil, err
	}
	to, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	handler, err := p.parseFailureHandler(true)
	if err != nil {
		return nil, err
	}
	return &ast.Mv{StmtBase: ast.StmtBase{Pos: lexer.Span{Start: start, End: to.Span().End}}, From: from, To: to, Handler: handler}, nil
}

func (p *Parser) parseRm() (ast.Statement, error) {
	start := p.ctx.Advance().Span.Start
	force := p.consumeKeyword("force")
	target, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	handler, err := p.parseFailureHandler(true)
	if err != nil {
		return nil, err
	}
	return &ast.Rm{StmtBase: ast.StmtBase{Pos: lexer.Span{Start: start, End: target.Span().End}}, Target: target, Force: force, Handler: handler}, nil
}

func (p *Parser) parseSilent() (ast.Statement, error) {
	start := p.ctx.Advance().Span.Start
	inner, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.Silent{StmtBase: ast.StmtBase{Pos: lexer.Span{Start: start, End: inner.Span().End}}, Inner: inner}, nil
}

func (p *Parser) parseCommandModifier() (ast.Statement, error) {
	start := p.ctx.Peek().Span.Start
	var mods ast.CommandModifiers
	for {
		switch {
		case p.peekIsKeyword("trust"):
			p.ctx.Advance()
			mods.Trust = true
		case p.peekIsKeyword("unsafe"):
			tok := p.ctx.Advance()
			mods.Trust = true
			mods.DeprecatedUnsafe = true
			mods.UnsafePos = tok.Span.Start
		case p.peekIsKeyword("sudo"):
			p.ctx.Advance()
			mods.Sudo = true
		default:
			goto body
		}
	}
body:
	if p.peekIsPunct("{") {
		saved := p.ctx.Flags.IsTrustCtx
		if mods.Trust {
			p.ctx.Flags.IsTrustCtx = true
		}
		body, err := p.parseBlock()
		p.ctx.Flags.IsTrustCtx = saved
		if err != nil {
			return nil, err
		}
		end := p.ctx.Tokens[max0(p.ctx.Index-1)].Span.End
		return &ast.CommandModifierStmt{StmtBase: ast.StmtBase{Pos: lexer.Span{Start: start, End: end}}, Modifiers: mods, Body: body}, nil
	}
	saved := p.ctx.Flags.IsTrustCtx
	if mods.Trust {
		p.ctx.Flags.IsTrustCtx = true
	}
	inner, err := p.parseStatement()
	p.ctx.Flags.IsTrustCtx = saved
	if err != nil {
		return nil, err
	}
	if cmd, ok := inner.(*ast.ExprStmt); ok {
		if lit, ok := cmd.Value.(*ast.CommandLit); ok {
			lit.Modifiers = mods
		}
	}
	return inner, nil
}
