package parser

import (
	"github.com/mna/esquick/lang/ast"
	"github.com/mna/esquick/lang/token"
)

// parseStatement dispatches on the current token to the statement-level
// grammar (spec §4.1, the Stmt variants enumerated in lang/ast/stmts.go).
func (p *parser) parseStatement() ast.Stmt {
	switch p.tok {
	case token.LBRACE:
		return p.parseBlockStatement()
	case token.VAR, token.LET, token.CONST:
		if p.tok == token.LET && !p.letStartsDeclaration() {
			break
		}
		return p.parseVariableStatement()
	case token.FUNCTION:
		return p.parseFunctionDeclaration(false)
	case token.CLASS:
		return p.parseClassDeclaration()
	case token.IF:
		return p.parseIfStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.DO:
		return p.parseDoWhileStatement()
	case token.BREAK:
		return p.parseBreakStatement()
	case token.CONTINUE:
		return p.parseContinueStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.THROW:
		return p.parseThrowStatement()
	case token.TRY:
		return p.parseTryStatement()
	case token.SWITCH:
		return p.parseSwitchStatement()
	case token.SEMI:
		return p.parseEmptyStatement()
	case token.DEBUGGER:
		return p.parseDebuggerStatement()
	}

	if p.tok == token.IDENT {
		if p.val.Raw == "async" && p.asyncStartsFunctionDecl() {
			return p.parseAsyncFunctionDeclaration()
		}
		if stmt, ok := p.tryParseLabeledStatement(); ok {
			return stmt
		}
	}

	return p.parseExpressionStatement()
}

// letStartsDeclaration disambiguates `let` as a declaration keyword from
// `let` used as an ordinary identifier (non-strict sloppy-mode code may
// bind a variable named `let`): a declaration follows with an identifier,
// `[` or `{`.
func (p *parser) letStartsDeclaration() bool {
	snap := p.snapshot()
	p.advance()
	ok := p.tok == token.IDENT || p.tok == token.LBRACK || p.tok == token.LBRACE || isContextualIdentToken(p.tok)
	p.restore(snap)
	return ok
}

func (p *parser) asyncStartsFunctionDecl() bool {
	snap := p.snapshot()
	p.advance()
	ok := p.tok == token.FUNCTION && !p.hasNewlineBefore()
	p.restore(snap)
	return ok
}

func (p *parser) tryParseLabeledStatement() (ast.Stmt, bool) {
	snap := p.snapshot()
	start := p.pos()
	name := p.val.Raw
	p.advance()
	if p.tok != token.COLON {
		p.restore(snap)
		return nil, false
	}
	p.advance()
	label := p.finish(&ast.Identifier{Name: name}, start).(*ast.Identifier)
	body := p.parseStatement()
	stmt := &ast.LabeledStatement{Label: label, Body: body}
	stmt.Start, stmt.End = start, p.prevEndPos
	return stmt, true
}

func (p *parser) parseBlockStatement() *ast.BlockStatement {
	start := p.expect(token.LBRACE)
	var body []ast.Stmt
	for p.tok != token.RBRACE && p.tok != token.EOF {
		body = append(body, p.parseStatement())
	}
	p.expect(token.RBRACE)
	blk := &ast.BlockStatement{Body: body}
	blk.Start, blk.End = start, p.prevEndPos
	return blk
}

func (p *parser) parseVariableStatement() ast.Stmt {
	decl := p.parseVariableDeclaration()
	p.consumeSemicolon()
	return decl
}

func (p *parser) parseVariableDeclaration() *ast.VariableDeclaration {
	start := p.pos()
	kind := ast.VarVar
	switch p.tok {
	case token.LET:
		kind = ast.VarLet
	case token.CONST:
		kind = ast.VarConst
	}
	p.advance()

	var decls []*ast.VariableDeclarator
	decls = append(decls, p.parseVariableDeclarator())
	for p.tok == token.COMMA {
		p.advance()
		decls = append(decls, p.parseVariableDeclarator())
	}
	d := &ast.VariableDeclaration{Kind: kind, Declarations: decls}
	d.Start, d.End = start, p.prevEndPos
	return d
}

func (p *parser) parseVariableDeclarator() *ast.VariableDeclarator {
	start := p.pos()
	id := p.parseBindingTarget()
	var init ast.Expr
	if p.tok == token.ASSIGN {
		p.advance()
		init = p.parseAssign()
	}
	d := &ast.VariableDeclarator{ID: id, Init: init}
	d.Start, d.End = start, p.prevEndPos
	return d
}

// parseBindingTarget parses an identifier or a destructuring pattern
// (reusing the expression-level array/object literal parser as the cover
// grammar for patterns, spec §4.1 "Cover grammars").
func (p *parser) parseBindingTarget() ast.Expr {
	switch p.tok {
	case token.LBRACK:
		return p.parseArrayLiteral()
	case token.LBRACE:
		return p.parseObjectLiteral()
	default:
		start := p.pos()
		name := p.val.Raw
		p.advance()
		return p.finish(&ast.Identifier{Name: name}, start)
	}
}

func (p *parser) parseFunctionDeclaration(isAsync bool) ast.Stmt {
	start := p.pos()
	p.expect(token.FUNCTION)
	isGen := false
	if p.tok == token.STAR {
		isGen = true
		p.advance()
	}
	idStart := p.pos()
	name := p.val.Raw
	p.expect(token.IDENT)
	id := p.finish(&ast.Identifier{Name: name}, idStart).(*ast.Identifier)
	params, body := p.parseFunctionRestRaw(isAsync, isGen)
	d := &ast.FunctionDeclaration{ID: id, Params: params, Body: body, IsGenerator: isGen, IsAsync: isAsync}
	d.Start, d.End = start, p.prevEndPos
	return d
}

func (p *parser) parseAsyncFunctionDeclaration() ast.Stmt {
	start := p.pos()
	p.advance() // async
	decl := p.parseFunctionDeclaration(true).(*ast.FunctionDeclaration)
	decl.Start = start
	return decl
}

func (p *parser) parseIfStatement() ast.Stmt {
	start := p.pos()
	p.advance() // if
	p.expect(token.LPAREN)
	test := p.parseExpr()
	p.expect(token.RPAREN)
	cons := p.parseStatement()
	var alt ast.Stmt
	if p.tok == token.ELSE {
		p.advance()
		alt = p.parseStatement()
	}
	s := &ast.IfStatement{Test: test, Consequent: cons, Alternate: alt}
	s.Start, s.End = start, p.prevEndPos
	return s
}

// parseForStatement disambiguates the C-style, for-in and for-of forms by
// speculatively parsing the header's left part, then checking for `in`/`of`
// (spec §4.1 level 8 "in operator gated by inOperatorAllowed").
func (p *parser) parseForStatement() ast.Stmt {
	start := p.pos()
	p.advance() // for
	isAwait := false
	if p.tok == token.AWAIT {
		isAwait = true
		p.advance()
	}
	p.expect(token.LPAREN)

	var left ast.Node
	var isDecl bool
	if p.tok == token.VAR || p.tok == token.CONST || (p.tok == token.LET && p.letStartsDeclaration()) {
		savedIn := p.ctx.InOperatorAllowed
		p.ctx.InOperatorAllowed = false
		left = p.parseVariableDeclaration()
		p.ctx.InOperatorAllowed = savedIn
		isDecl = true
	} else if p.tok != token.SEMI {
		savedIn := p.ctx.InOperatorAllowed
		p.ctx.InOperatorAllowed = false
		left = p.parseExpr()
		p.ctx.InOperatorAllowed = savedIn
	}

	if p.tok == token.IN || p.tok == token.OF {
		kind := ast.ForIn
		if p.tok == token.OF {
			kind = ast.ForOf
		}
		p.advance()
		var right ast.Expr
		if kind == ast.ForOf {
			right = p.parseAssign()
		} else {
			right = p.parseExpr()
		}
		p.expect(token.RPAREN)
		body := p.parseStatement()
		s := &ast.ForInOfStatement{Kind: kind, Left: left, Right: right, Body: body, Await: isAwait}
		s.Start, s.End = start, p.prevEndPos
		return s
	}

	var init ast.Node
	if isDecl {
		init = left
	} else if left != nil {
		init = left.(ast.Expr)
	}
	p.expect(token.SEMI)
	var test ast.Expr
	if p.tok != token.SEMI {
		test = p.parseExpr()
	}
	p.expect(token.SEMI)
	var update ast.Expr
	if p.tok != token.RPAREN {
		update = p.parseExpr()
	}
	p.expect(token.RPAREN)
	body := p.parseStatement()
	s := &ast.ForStatement{Init: init, Test: test, Update: update, Body: body}
	s.Start, s.End = start, p.prevEndPos
	return s
}

func (p *parser) parseWhileStatement() ast.Stmt {
	start := p.pos()
	p.advance() // while
	p.expect(token.LPAREN)
	test := p.parseExpr()
	p.expect(token.RPAREN)
	body := p.parseStatement()
	s := &ast.WhileStatement{Test: test, Body: body}
	s.Start, s.End = start, p.prevEndPos
	return s
}

func (p *parser) parseDoWhileStatement() ast.Stmt {
	start := p.pos()
	p.advance() // do
	body := p.parseStatement()
	p.expect(token.WHILE)
	p.expect(token.LPAREN)
	test := p.parseExpr()
	p.expect(token.RPAREN)
	if p.tok == token.SEMI {
		p.advance()
	}
	s := &ast.DoWhileStatement{Body: body, Test: test}
	s.Start, s.End = start, p.prevEndPos
	return s
}

func (p *parser) parseBreakStatement() ast.Stmt {
	start := p.pos()
	p.advance() // break
	var label *ast.Identifier
	if p.tok == token.IDENT && !p.hasNewlineBefore() {
		lstart := p.pos()
		name := p.val.Raw
		p.advance()
		label = p.finish(&ast.Identifier{Name: name}, lstart).(*ast.Identifier)
	}
	p.consumeSemicolon()
	s := &ast.BreakStatement{Label: label}
	s.Start, s.End = start, p.prevEndPos
	return s
}

func (p *parser) parseContinueStatement() ast.Stmt {
	start := p.pos()
	p.advance() // continue
	var label *ast.Identifier
	if p.tok == token.IDENT && !p.hasNewlineBefore() {
		lstart := p.pos()
		name := p.val.Raw
		p.advance()
		label = p.finish(&ast.Identifier{Name: name}, lstart).(*ast.Identifier)
	}
	p.consumeSemicolon()
	s := &ast.ContinueStatement{Label: label}
	s.Start, s.End = start, p.prevEndPos
	return s
}

func (p *parser) parseReturnStatement() ast.Stmt {
	start := p.pos()
	p.advance() // return
	var arg ast.Expr
	if !p.hasNewlineBefore() && !isExprEnd(p.tok) {
		arg = p.parseExpr()
	}
	p.consumeSemicolon()
	s := &ast.ReturnStatement{Argument: arg}
	s.Start, s.End = start, p.prevEndPos
	return s
}

func (p *parser) parseThrowStatement() ast.Stmt {
	start := p.pos()
	p.advance() // throw
	if p.hasNewlineBefore() {
		p.errorf(start, "illegal newline after throw")
	}
	arg := p.parseExpr()
	p.consumeSemicolon()
	s := &ast.ThrowStatement{Argument: arg}
	s.Start, s.End = start, p.prevEndPos
	return s
}

func (p *parser) parseTryStatement() ast.Stmt {
	start := p.pos()
	p.advance() // try
	block := p.parseBlockStatement()
	var param ast.Expr
	var handler *ast.BlockStatement
	if p.tok == token.CATCH {
		p.advance()
		if p.tok == token.LPAREN {
			p.advance()
			param = p.parseBindingTarget()
			p.expect(token.RPAREN)
		}
		handler = p.parseBlockStatement()
	}
	var finalizer *ast.BlockStatement
	if p.tok == token.FINALLY {
		p.advance()
		finalizer = p.parseBlockStatement()
	}
	if handler == nil && finalizer == nil {
		p.errorf(start, "missing catch or finally after try")
	}
	s := &ast.TryStatement{Block: block, Param: param, Handler: handler, Finalizer: finalizer}
	s.Start, s.End = start, p.prevEndPos
	return s
}

func (p *parser) parseSwitchStatement() ast.Stmt {
	start := p.pos()
	p.advance() // switch
	p.expect(token.LPAREN)
	disc := p.parseExpr()
	p.expect(token.RPAREN)
	p.expect(token.LBRACE)

	var cases []*ast.SwitchCase
	seenDefault := false
	for p.tok != token.RBRACE && p.tok != token.EOF {
		cstart := p.pos()
		var test ast.Expr
		if p.tok == token.CASE {
			p.advance()
			test = p.parseExpr()
		} else {
			p.expect(token.DEFAULT)
			if seenDefault {
				p.errorf(cstart, "multiple default clauses in switch")
			}
			seenDefault = true
		}
		p.expect(token.COLON)
		var body []ast.Stmt
		for p.tok != token.CASE && p.tok != token.DEFAULT && p.tok != token.RBRACE && p.tok != token.EOF {
			body = append(body, p.parseStatement())
		}
		c := &ast.SwitchCase{Test: test, Consequent: body}
		c.Start, c.End = cstart, p.prevEndPos
		cases = append(cases, c)
	}
	p.expect(token.RBRACE)
	s := &ast.SwitchStatement{Discriminant: disc, Cases: cases}
	s.Start, s.End = start, p.prevEndPos
	return s
}

func (p *parser) parseEmptyStatement() ast.Stmt {
	start := p.pos()
	p.advance() // ;
	s := &ast.EmptyStatement{}
	s.Start, s.End = start, p.prevEndPos
	return s
}

func (p *parser) parseDebuggerStatement() ast.Stmt {
	start := p.pos()
	p.advance() // debugger
	p.consumeSemicolon()
	s := &ast.DebuggerStatement{}
	s.Start, s.End = start, p.prevEndPos
	return s
}

func (p *parser) parseExpressionStatement() ast.Stmt {
	start := p.pos()
	expr := p.parseExpr()
	p.consumeSemicolon()
	s := &ast.ExpressionStatement{Expression: expr}
	s.Start, s.End = start, p.prevEndPos
	return s
}
