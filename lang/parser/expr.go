package parser

import (
	"strings"

	"github.com/mna/esquick/lang/ast"
	"github.com/mna/esquick/lang/token"
)

// parseExpr parses the comma operator, level 1 of spec §4.1's precedence
// ladder ("only at expression statement boundary" — callers that must not
// accept a bare comma call parseAssign directly).
func (p *parser) parseExpr() ast.Expr {
	start := p.pos()
	first := p.parseAssign()
	if p.tok != token.COMMA {
		return first
	}
	exprs := []ast.Expr{first}
	for p.tok == token.COMMA {
		p.advance()
		exprs = append(exprs, p.parseAssign())
	}
	return p.finish(&ast.SequenceExpression{Expressions: exprs}, start)
}

func (p *parser) finish(e ast.Expr, start token.Position) ast.Expr {
	setSpan(e, start, p.prevEndPos)
	return e
}

// setSpan writes the (start, end) span into any of our concrete expression
// node types via a tiny type switch — cheaper than reflection and keeps
// exprBase's fields unexported to callers outside this package.
func setSpan(n ast.Node, start, end token.Position) {
	type spanSetter interface{ setSpan(start, end token.Position) }
	if s, ok := n.(spanSetter); ok {
		s.setSpan(start, end)
	}
}

// parseAssign is level 2: assignment expressions (spec §4.1 level 2),
// right-associative, including the arrow-function and yield/await cover
// points that bind at this level.
func (p *parser) parseAssign() ast.Expr {
	if p.tok == token.YIELD && p.ctx.InGeneratorBody {
		return p.parseYield()
	}
	if arrow, ok := p.tryParseArrow(); ok {
		return arrow
	}

	start := p.pos()
	left := p.parseConditional()
	if token.IsAssignOp(p.tok) {
		op := p.tok
		p.advance()
		right := p.parseAssign()
		return p.finish(&ast.AssignmentExpression{Op: op, Left: toAssignTarget(left), Right: right}, start)
	}
	return left
}

// toAssignTarget reinterprets an already-parsed expression as an
// assignment target, converting the ArrayExpression/ObjectExpression cover
// grammar into nothing further here (the machine's PUT_ARRAY_EL/PUT_FIELD
// handle the leaf mechanics; spec §4.1 level 2 lists the acceptable LHS
// shapes, enforcement of which is otherwise a resolver/VM concern for the
// CallExpression case).
func toAssignTarget(e ast.Expr) ast.Expr { return e }

func (p *parser) parseYield() ast.Expr {
	start := p.pos()
	p.advance() // yield
	delegate := false
	if p.tok == token.STAR {
		delegate = true
		p.advance()
	}
	var arg ast.Expr
	if !p.hasNewlineBefore() && !isExprEnd(p.tok) {
		arg = p.parseAssign()
	}
	return p.finish(&ast.YieldExpression{Argument: arg, Delegate: delegate}, start)
}

func isExprEnd(tok token.Token) bool {
	switch tok {
	case token.SEMI, token.RPAREN, token.RBRACK, token.RBRACE, token.COMMA, token.COLON, token.EOF:
		return true
	}
	return false
}

// parseConditional is level 3: `?:`.
func (p *parser) parseConditional() ast.Expr {
	start := p.pos()
	test := p.parseNullishOr()
	if p.tok != token.QUESTION {
		return test
	}
	p.advance()
	cons := p.parseAssign()
	p.expect(token.COLON)
	alt := p.parseAssign()
	return p.finish(&ast.ConditionalExpression{Test: test, Consequent: cons, Alternate: alt}, start)
}

// parseNullishOr is level 4: `??` / `||` (spec forbids mixing `??` with
// `&&`/`||` without parens; we don't enforce that ambiguity check here to
// keep the grammar simple, matching a pragmatic subset of the spec).
func (p *parser) parseNullishOr() ast.Expr {
	start := p.pos()
	left := p.parseLogicalAnd()
	for p.tok == token.PIPEPIPE || p.tok == token.QUESTIONQUESTION {
		op := p.tok
		p.advance()
		right := p.parseLogicalAnd()
		left = p.finish(&ast.LogicalExpression{Op: op, Left: left, Right: right}, start)
	}
	return left
}

// parseLogicalAnd is level 5: `&&`.
func (p *parser) parseLogicalAnd() ast.Expr {
	start := p.pos()
	left := p.parseBitwiseOr()
	for p.tok == token.AMPAMP {
		p.advance()
		right := p.parseBitwiseOr()
		left = p.finish(&ast.LogicalExpression{Op: token.AMPAMP, Left: left, Right: right}, start)
	}
	return left
}

// parseBitwiseOr/Xor/And is level 6.
func (p *parser) parseBitwiseOr() ast.Expr {
	start := p.pos()
	left := p.parseBitwiseXor()
	for p.tok == token.PIPE {
		p.advance()
		right := p.parseBitwiseXor()
		left = p.finish(&ast.BinaryExpression{Op: token.PIPE, Left: left, Right: right}, start)
	}
	return left
}

func (p *parser) parseBitwiseXor() ast.Expr {
	start := p.pos()
	left := p.parseBitwiseAnd()
	for p.tok == token.CARET {
		p.advance()
		right := p.parseBitwiseAnd()
		left = p.finish(&ast.BinaryExpression{Op: token.CARET, Left: left, Right: right}, start)
	}
	return left
}

func (p *parser) parseBitwiseAnd() ast.Expr {
	start := p.pos()
	left := p.parseEquality()
	for p.tok == token.AMP {
		p.advance()
		right := p.parseEquality()
		left = p.finish(&ast.BinaryExpression{Op: token.AMP, Left: left, Right: right}, start)
	}
	return left
}

// parseEquality is level 7: `== != === !==`.
func (p *parser) parseEquality() ast.Expr {
	start := p.pos()
	left := p.parseRelational()
	for p.tok == token.EQ || p.tok == token.NE || p.tok == token.EQEQEQ || p.tok == token.NEQEQ {
		op := p.tok
		p.advance()
		right := p.parseRelational()
		left = p.finish(&ast.BinaryExpression{Op: op, Left: left, Right: right}, start)
	}
	return left
}

// parseRelational is level 8: `< <= > >= instanceof in`, with `in` gated
// by InOperatorAllowed (spec §4.1 level 8, used to suppress `in` inside a
// for-header).
func (p *parser) parseRelational() ast.Expr {
	start := p.pos()
	left := p.parseShift()
	for {
		switch p.tok {
		case token.LT, token.LE, token.GT, token.GE, token.INSTANCEOF:
			op := p.tok
			p.advance()
			right := p.parseShift()
			left = p.finish(&ast.BinaryExpression{Op: op, Left: left, Right: right}, start)
		case token.IN:
			if !p.ctx.InOperatorAllowed {
				return left
			}
			p.advance()
			right := p.parseShift()
			left = p.finish(&ast.BinaryExpression{Op: token.IN, Left: left, Right: right}, start)
		default:
			return left
		}
	}
}

// parseShift is level 9: `<< >> >>>`.
func (p *parser) parseShift() ast.Expr {
	start := p.pos()
	left := p.parseAdditive()
	for p.tok == token.LTLT || p.tok == token.GTGT || p.tok == token.GTGTGT {
		op := p.tok
		p.advance()
		right := p.parseAdditive()
		left = p.finish(&ast.BinaryExpression{Op: op, Left: left, Right: right}, start)
	}
	return left
}

// parseAdditive/Multiplicative/Exponent is level 10.
func (p *parser) parseAdditive() ast.Expr {
	start := p.pos()
	left := p.parseMultiplicative()
	for p.tok == token.PLUS || p.tok == token.MINUS {
		op := p.tok
		p.advance()
		right := p.parseMultiplicative()
		left = p.finish(&ast.BinaryExpression{Op: op, Left: left, Right: right}, start)
	}
	return left
}

func (p *parser) parseMultiplicative() ast.Expr {
	start := p.pos()
	left := p.parseExponent()
	for p.tok == token.STAR || p.tok == token.SLASH || p.tok == token.PERCENT {
		op := p.tok
		p.advance()
		right := p.parseExponent()
		left = p.finish(&ast.BinaryExpression{Op: op, Left: left, Right: right}, start)
	}
	return left
}

// parseExponent is right-associative: `**` recurses into itself (spec
// §4.1 level 10).
func (p *parser) parseExponent() ast.Expr {
	start := p.pos()
	left := p.parseUnary()
	if p.tok == token.STARSTAR {
		p.advance()
		right := p.parseExponent()
		return p.finish(&ast.BinaryExpression{Op: token.STARSTAR, Left: left, Right: right}, start)
	}
	return left
}

// parseUnary is level 11: prefix operators and await (`await` gated on
// AsyncFunctionNesting or top-level-await in module mode). `yield` is not
// handled here: parseAssign takes it inside a generator body, and elsewhere
// it parses as a plain identifier.
func (p *parser) parseUnary() ast.Expr {
	start := p.pos()
	switch p.tok {
	case token.PLUS, token.MINUS, token.BANG, token.TILDE, token.TYPEOF, token.VOID, token.DELETE:
		op := p.tok
		p.advance()
		arg := p.parseUnary()
		return p.finish(&ast.UnaryExpression{Op: op, Argument: arg}, start)
	case token.PLUSPLUS, token.MINUSMINUS:
		op := p.tok
		p.advance()
		arg := p.parseUnary()
		return p.finish(&ast.UpdateExpression{Op: op, Argument: arg, Prefix: true}, start)
	case token.AWAIT:
		if p.ctx.AsyncFunctionNesting > 0 || (p.ctx.ModuleMode && p.ctx.FunctionNesting == 0) {
			p.advance()
			arg := p.parseUnary()
			return p.finish(&ast.AwaitExpression{Argument: arg}, start)
		}
	}
	return p.parsePostfix()
}

// parsePostfix is level 12: postfix `++`/`--`, forbidden across a line
// break (spec §4.1 level 12).
func (p *parser) parsePostfix() ast.Expr {
	start := p.pos()
	e := p.parseCallMemberChain(p.parsePrimary())
	if (p.tok == token.PLUSPLUS || p.tok == token.MINUSMINUS) && !p.hasNewlineBefore() {
		op := p.tok
		p.advance()
		return p.finish(&ast.UpdateExpression{Op: op, Argument: e, Prefix: false}, start)
	}
	return e
}

// parseCallMemberChain is level 13: member/call/tagged-template chains,
// and `new` (spec §4.1 level 13 — `new Expr(...)` binds member access to
// the callee before the argument list).
func (p *parser) parseCallMemberChain(base ast.Expr) ast.Expr {
	start, _ := base.Span()
	e := base
	for {
		switch p.tok {
		case token.DOT:
			p.advance()
			name := p.parseIdentNameForProperty()
			e = p.finish(&ast.MemberExpression{Object: e, Property: name, Computed: false}, start)
		case token.QUESTIONDOT:
			p.advance()
			if p.tok == token.LPAREN {
				e = p.finish(&ast.CallExpression{Callee: e, Arguments: p.parseArguments(), Optional: true}, start)
			} else if p.tok == token.LBRACK {
				p.advance()
				prop := p.parseExpr()
				p.expect(token.RBRACK)
				e = p.finish(&ast.MemberExpression{Object: e, Property: prop, Computed: true, Optional: true}, start)
			} else {
				name := p.parseIdentNameForProperty()
				e = p.finish(&ast.MemberExpression{Object: e, Property: name, Computed: false, Optional: true}, start)
			}
		case token.LBRACK:
			p.advance()
			prop := p.parseExpr()
			p.expect(token.RBRACK)
			e = p.finish(&ast.MemberExpression{Object: e, Property: prop, Computed: true}, start)
		case token.LPAREN:
			e = p.finish(&ast.CallExpression{Callee: e, Arguments: p.parseArguments()}, start)
		case token.TEMPLATE:
			quasi := p.parseTemplateLiteral()
			e = p.finish(&ast.TaggedTemplateExpression{Tag: e, Quasi: quasi}, start)
		default:
			return e
		}
	}
}

func (p *parser) parseIdentNameForProperty() ast.Expr {
	start := p.pos()
	if p.tok == token.PRIVATE {
		name := p.val.Raw
		p.advance()
		return p.finish(&ast.PrivateIdentifier{Name: name}, start)
	}
	name := p.val.Raw
	if p.tok != token.IDENT && !isKeywordToken(p.tok) {
		p.errorf(start, "expected property name, got %s", p.tok)
	}
	p.advance()
	return p.finish(&ast.Identifier{Name: name}, start)
}

func isKeywordToken(tok token.Token) bool {
	return tok >= token.AWAIT && tok < token.ASYNC
}

func (p *parser) parseArguments() []ast.Expr {
	p.expect(token.LPAREN)
	var args []ast.Expr
	for p.tok != token.RPAREN {
		if p.tok == token.DOTDOTDOT {
			start := p.pos()
			p.advance()
			args = append(args, p.finish(&ast.SpreadElement{Argument: p.parseAssign()}, start))
		} else {
			args = append(args, p.parseAssign())
		}
		if p.tok != token.COMMA {
			break
		}
		p.advance()
	}
	p.expect(token.RPAREN)
	return args
}

// parsePrimary is level 14 (spec §4.1 level 14).
func (p *parser) parsePrimary() ast.Expr {
	start := p.pos()
	switch p.tok {
	case token.NUMBER:
		raw, num, isBig := p.val.Raw, p.val.Number, p.val.IsBig
		p.advance()
		kind := ast.LitNumber
		if isBig {
			kind = ast.LitBigInt
		}
		return p.finish(&ast.Literal{Kind: kind, Raw: raw, Num: num}, start)
	case token.STRING:
		s := p.val.String
		p.advance()
		return p.finish(&ast.Literal{Kind: ast.LitString, Str: s}, start)
	case token.TEMPLATE:
		return p.parseTemplateLiteral()
	case token.REGEXP:
		parts := strings.SplitN(p.val.String, "\x00", 2)
		pat, flags := parts[0], ""
		if len(parts) == 2 {
			flags = parts[1]
		}
		p.advance()
		return p.finish(&ast.RegExpLiteral{Pattern: pat, Flags: flags}, start)
	case token.TRUE, token.FALSE:
		b := p.tok == token.TRUE
		p.advance()
		return p.finish(&ast.Literal{Kind: ast.LitBool, Bool: b}, start)
	case token.NULL:
		p.advance()
		return p.finish(&ast.Literal{Kind: ast.LitNull}, start)
	case token.THIS:
		p.advance()
		return p.finish(&ast.Identifier{Name: "this"}, start)
	case token.SUPER:
		if !p.ctx.SuperPropertyAllowed && p.tok != token.LPAREN {
			p.errorf(start, "'super' keyword is only valid inside a class")
		}
		p.advance()
		return p.finish(&ast.Identifier{Name: "super"}, start)
	case token.PRIVATE:
		name := p.val.Raw
		p.advance()
		return p.finish(&ast.PrivateIdentifier{Name: name}, start)
	case token.IDENT, token.ASYNC, token.FROM, token.GET, token.SET, token.AS, token.OF, token.STATIC, token.YIELD, token.AWAIT, token.LET:
		name := p.val.Raw
		p.advance()
		return p.finish(&ast.Identifier{Name: name}, start)
	case token.FUNCTION:
		return p.parseFunctionExpression()
	case token.CLASS:
		return p.parseClassExpression()
	case token.LPAREN:
		return p.parseParenOrArrowParams()
	case token.LBRACK:
		return p.parseArrayLiteral()
	case token.LBRACE:
		return p.parseObjectLiteral()
	case token.NEW:
		return p.parseNew()
	}
	p.errorf(start, "unexpected token %s", describeTok(p.tok, p.val))
	panic(errPanicMode)
}

func (p *parser) parseNew() ast.Expr {
	start := p.pos()
	p.advance() // new
	if p.tok == token.DOT {
		// new.target — represented as a plain identifier-shaped node.
		p.advance()
		p.expect(token.IDENT) // "target"
		return p.finish(&ast.Identifier{Name: "new.target"}, start)
	}
	callee := p.parsePrimary()
	callee = p.parseMemberOnly(callee)
	var args []ast.Expr
	if p.tok == token.LPAREN {
		args = p.parseArguments()
	}
	return p.finish(&ast.NewExpression{Callee: callee, Arguments: args}, start)
}

// parseMemberOnly consumes only `.x`/`[x]` accesses, not calls — `new`
// binds member access to the callee before the argument list (spec §4.1
// level 13).
func (p *parser) parseMemberOnly(base ast.Expr) ast.Expr {
	start, _ := base.Span()
	e := base
	for {
		switch p.tok {
		case token.DOT:
			p.advance()
			name := p.parseIdentNameForProperty()
			e = p.finish(&ast.MemberExpression{Object: e, Property: name, Computed: false}, start)
		case token.LBRACK:
			p.advance()
			prop := p.parseExpr()
			p.expect(token.RBRACK)
			e = p.finish(&ast.MemberExpression{Object: e, Property: prop, Computed: true}, start)
		default:
			return e
		}
	}
}

func (p *parser) parseArrayLiteral() ast.Expr {
	start := p.pos()
	p.advance() // [
	var elems []ast.Expr
	for p.tok != token.RBRACK {
		if p.tok == token.COMMA {
			elems = append(elems, nil) // elision
			p.advance()
			continue
		}
		if p.tok == token.DOTDOTDOT {
			es := p.pos()
			p.advance()
			elems = append(elems, p.finish(&ast.SpreadElement{Argument: p.parseAssign()}, es))
		} else {
			elems = append(elems, p.parseAssign())
		}
		if p.tok != token.RBRACK {
			if p.tok != token.COMMA {
				break
			}
			p.advance()
		}
	}
	p.expect(token.RBRACK)
	return p.finish(&ast.ArrayExpression{Elements: elems}, start)
}

func (p *parser) parseObjectLiteral() ast.Expr {
	start := p.pos()
	p.advance() // {
	var props []*ast.Property
	for p.tok != token.RBRACE {
		props = append(props, p.parseObjectProperty())
		if p.tok != token.RBRACE {
			if p.tok != token.COMMA {
				break
			}
			p.advance()
		}
	}
	p.expect(token.RBRACE)
	return p.finish(&ast.ObjectExpression{Properties: props}, start)
}

func (p *parser) parseObjectProperty() *ast.Property {
	start := p.pos()
	if p.tok == token.DOTDOTDOT {
		p.advance()
		arg := p.parseAssign()
		prop := &ast.Property{Value: arg, Kind: ast.PropSpread}
		prop.Start, prop.End = start, p.prevEndPos
		return prop
	}

	isAsync, isGen := false, false
	kind := ast.PropInit
	if p.atKeyword("async") && !p.peekIsPropTerminator() {
		isAsync = true
		p.advance()
	}
	if p.tok == token.STAR {
		isGen = true
		p.advance()
	}
	if (p.atKeyword("get") || p.atKeyword("set")) && !p.peekIsPropTerminator() {
		if p.atKeyword("get") {
			kind = ast.PropGet
		} else {
			kind = ast.PropSet
		}
		p.advance()
	}

	key, computed := p.parsePropertyKey()

	if p.tok == token.LPAREN || isAsync || isGen || kind == ast.PropGet || kind == ast.PropSet {
		fn := p.parseFunctionRest(isAsync, isGen)
		if kind == ast.PropInit {
			kind = ast.PropMethod
		}
		prop := &ast.Property{Key: key, Value: fn, Kind: kind, Computed: computed}
		prop.Start, prop.End = start, p.prevEndPos
		return prop
	}

	if p.tok == token.COLON {
		p.advance()
		val := p.parseAssign()
		prop := &ast.Property{Key: key, Value: val, Kind: ast.PropInit, Computed: computed}
		prop.Start, prop.End = start, p.prevEndPos
		return prop
	}

	// shorthand, possibly with a default (cover grammar for destructuring)
	var val ast.Expr = key
	if p.tok == token.ASSIGN {
		p.advance()
		def := p.parseAssign()
		kstart, _ := key.Span()
		val = p.finish(&ast.AssignmentPattern{Left: key, Right: def}, kstart)
	}
	prop := &ast.Property{Key: key, Value: val, Kind: ast.PropInit, Computed: computed, Shorthand: true}
	prop.Start, prop.End = start, p.prevEndPos
	return prop
}

// peekIsPropTerminator reports whether the *next* scan would end the
// property name position, used to decide whether `get`/`set`/`async` is
// the contextual modifier or the property name itself (spec §4.1 "Class
// parsing"): a following `(`, `=`, `;`, `,` or `}` (or `:` in an object
// literal) means the word is itself the property name.
func (p *parser) peekIsPropTerminator() bool {
	snap := p.snapshot()
	p.advance()
	is := p.tok == token.LPAREN || p.tok == token.COLON || p.tok == token.COMMA || p.tok == token.RBRACE || p.tok == token.ASSIGN || p.tok == token.SEMI
	p.restore(snap)
	return is
}

func (p *parser) parsePropertyKey() (ast.Expr, bool) {
	start := p.pos()
	switch p.tok {
	case token.LBRACK:
		p.advance()
		e := p.parseAssign()
		p.expect(token.RBRACK)
		return e, true
	case token.STRING:
		s := p.val.String
		p.advance()
		return p.finish(&ast.Literal{Kind: ast.LitString, Str: s}, start), false
	case token.NUMBER:
		n := p.val.Number
		p.advance()
		return p.finish(&ast.Literal{Kind: ast.LitNumber, Num: n}, start), false
	case token.PRIVATE:
		name := p.val.Raw
		p.advance()
		return p.finish(&ast.PrivateIdentifier{Name: name}, start), false
	default:
		name := p.val.Raw
		p.advance()
		return p.finish(&ast.Identifier{Name: name}, start), false
	}
}

// parseParenOrArrowParams implements the parenthesised-expression-vs-arrow
// cover grammar (spec §4.1 "Cover grammars"): parse the parenthesised form
// generically, then reinterpret as parameters if '=>' follows.
func (p *parser) parseParenOrArrowParams() ast.Expr {
	start := p.pos()
	p.advance() // (
	if p.tok == token.RPAREN {
		p.advance()
		if p.tok == token.ARROW {
			return p.finishArrow(start, nil, false)
		}
		// empty-paren sentinel reinterpreted nowhere else; () is only legal
		// immediately before =>.
		p.errorf(start, "unexpected token ')'")
	}

	first := p.parseAssignOrRest()
	exprs := []ast.Expr{first}
	for p.tok == token.COMMA {
		p.advance()
		if p.tok == token.RPAREN { // trailing comma
			break
		}
		exprs = append(exprs, p.parseAssignOrRest())
	}
	p.expect(token.RPAREN)

	if p.tok == token.ARROW {
		return p.finishArrow(start, exprs, false)
	}

	if len(exprs) == 1 {
		setSpan(exprs[0], start, p.prevEndPos)
		return exprs[0]
	}
	return p.finish(&ast.SequenceExpression{Expressions: exprs}, start)
}

func (p *parser) parseAssignOrRest() ast.Expr {
	if p.tok == token.DOTDOTDOT {
		start := p.pos()
		p.advance()
		return p.finish(&ast.RestElement{Argument: p.parseAssign()}, start)
	}
	return p.parseAssign()
}

// tryParseArrow speculatively attempts the `async`-prefixed and bare
// `IDENT =>` arrow shapes (spec §4.1 "Cover grammars": async arrow
// detection).
func (p *parser) tryParseArrow() (ast.Expr, bool) {
	if p.tok == token.IDENT || isContextualIdentToken(p.tok) {
		snap := p.snapshot()
		start := p.pos()
		name := p.val.Raw
		p.advance()
		if p.tok == token.ARROW && !p.hasNewlineBefore() {
			id := p.finish(&ast.Identifier{Name: name}, start)
			return p.finishArrow(start, []ast.Expr{id}, false), true
		}
		p.restore(snap)
	}

	if p.atKeyword("async") {
		snap := p.snapshot()
		start := p.pos()
		p.advance()
		if p.hasNewlineBefore() {
			p.restore(snap)
			return nil, false
		}
		switch {
		case p.tok == token.IDENT && !p.hasNewlineBefore():
			name := p.val.Raw
			idStart := p.pos()
			p.advance()
			if p.tok == token.ARROW && !p.hasNewlineBefore() {
				id := p.finish(&ast.Identifier{Name: name}, idStart)
				return p.finishArrow(start, []ast.Expr{id}, true), true
			}
		case p.tok == token.LPAREN:
			if p.peekPastParensIsArrow() {
				p.advance() // (
				var params []ast.Expr
				for p.tok != token.RPAREN {
					params = append(params, p.parseAssignOrRest())
					if p.tok != token.COMMA {
						break
					}
					p.advance()
				}
				p.expect(token.RPAREN)
				if p.tok == token.ARROW {
					return p.finishArrow(start, params, true), true
				}
			}
		case p.tok == token.FUNCTION:
			fn := p.parseFunctionExpressionAsync(true)
			return fn, true
		}
		p.restore(snap)
		return nil, false
	}
	return nil, false
}

func isContextualIdentToken(tok token.Token) bool {
	switch tok {
	case token.FROM, token.GET, token.SET, token.AS, token.OF, token.STATIC, token.LET, token.YIELD, token.AWAIT:
		return true
	}
	return false
}

// peekPastParensIsArrow walks a balanced paren group via a snapshot/restore
// speculative scan and reports whether '=>' follows the matching ')' (spec
// §4.1 "peekPastParensIsArrow").
func (p *parser) peekPastParensIsArrow() bool {
	snap := p.snapshot()
	defer p.restore(snap)

	depth := 0
	for {
		switch p.tok {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
			if depth == 0 {
				p.advance()
				return p.tok == token.ARROW
			}
		case token.EOF:
			return false
		}
		p.advance()
	}
}

func (p *parser) finishArrow(start token.Position, params []ast.Expr, isAsync bool) ast.Expr {
	p.expect(token.ARROW)

	savedAsync := p.ctx.AsyncFunctionNesting
	if isAsync {
		p.ctx.AsyncFunctionNesting++
	}
	p.ctx.FunctionNesting++
	savedGen := p.ctx.InGeneratorBody
	p.ctx.InGeneratorBody = false // arrows cannot be generators

	var body ast.Node
	if p.tok == token.LBRACE {
		body = p.parseBlockStatement()
	} else {
		body = p.parseAssign()
	}

	p.ctx.FunctionNesting--
	p.ctx.AsyncFunctionNesting = savedAsync
	p.ctx.InGeneratorBody = savedGen

	return p.finish(&ast.ArrowFunctionExpression{Params: params, Body: body, IsAsync: isAsync}, start)
}

func (p *parser) parseFunctionExpression() ast.Expr { return p.parseFunctionExpressionAsync(false) }

func (p *parser) parseFunctionExpressionAsync(isAsync bool) ast.Expr {
	start := p.pos()
	p.expect(token.FUNCTION)
	isGen := false
	if p.tok == token.STAR {
		isGen = true
		p.advance()
	}
	var id *ast.Identifier
	if p.tok == token.IDENT {
		idStart := p.pos()
		name := p.val.Raw
		p.advance()
		idNode := p.finish(&ast.Identifier{Name: name}, idStart).(*ast.Identifier)
		id = idNode
	}
	params, body := p.parseFunctionRestRaw(isAsync, isGen)
	return p.finish(&ast.FunctionExpression{ID: id, Params: params, Body: body, IsGenerator: isGen, IsAsync: isAsync}, start)
}

// parseFunctionRest parses `(params) { body }` and wraps it as a
// FunctionExpression — used for object-literal/class methods.
func (p *parser) parseFunctionRest(isAsync, isGen bool) *ast.FunctionExpression {
	start := p.pos()
	params, body := p.parseFunctionRestRaw(isAsync, isGen)
	fn := &ast.FunctionExpression{Params: params, Body: body, IsGenerator: isGen, IsAsync: isAsync}
	fn.Start, fn.End = start, p.prevEndPos
	return fn
}

func (p *parser) parseFunctionRestRaw(isAsync, isGen bool) ([]ast.Expr, *ast.BlockStatement) {
	savedInFnBody := p.ctx.InFunctionBody
	p.ctx.InFunctionBody = false // spec §4.1 "Function parameter rules"
	p.expect(token.LPAREN)
	var params []ast.Expr
	for p.tok != token.RPAREN {
		params = append(params, p.parseAssignOrRest())
		if p.tok != token.COMMA {
			break
		}
		p.advance()
	}
	p.expect(token.RPAREN)
	p.ctx.InFunctionBody = savedInFnBody

	savedAsync := p.ctx.AsyncFunctionNesting
	savedGen := p.ctx.InGeneratorBody
	if isAsync {
		p.ctx.AsyncFunctionNesting++
	}
	p.ctx.InGeneratorBody = isGen
	p.ctx.FunctionNesting++
	p.ctx.InFunctionBody = true

	body := p.parseBlockStatement()

	p.ctx.FunctionNesting--
	p.ctx.AsyncFunctionNesting = savedAsync
	p.ctx.InGeneratorBody = savedGen
	p.ctx.InFunctionBody = savedInFnBody
	return params, body
}

// parseTemplateLiteral implements spec §4.1 "Template literal processing":
// scans the raw payload captured by the lexer, splitting quasis from
// interpolated expressions and recursively re-parsing each expression with
// a fresh sub-parse sharing module/eval/nesting state.
func (p *parser) parseTemplateLiteral() *ast.TemplateLiteral {
	start := p.pos()
	raw := p.val.Raw // includes surrounding backticks
	p.advance()

	inner := raw[1 : len(raw)-1]
	var quasis []ast.TemplateElement
	var exprs []ast.Expr

	i := 0
	chunkStart := 0
	for i < len(inner) {
		if inner[i] == '\\' && i+1 < len(inner) {
			i += 2
			continue
		}
		if inner[i] == '$' && i+1 < len(inner) && inner[i+1] == '{' {
			rawChunk := inner[chunkStart:i]
			cooked, valid := cookTemplateChunk(rawChunk)
			quasis = append(quasis, ast.TemplateElement{Raw: normalizeCRLF(rawChunk), Cooked: cooked, CookedValid: valid})

			exprEnd := findTemplateExpressionEnd(inner, i+2)
			exprSrc := inner[i+2 : exprEnd]
			sub, err := ParseExpression([]byte(exprSrc), p.ctx)
			if err != nil {
				p.error(start, "invalid expression in template literal: "+err.Error())
			}
			exprs = append(exprs, sub)

			i = exprEnd + 1
			chunkStart = i
			continue
		}
		i++
	}
	rawChunk := inner[chunkStart:]
	cooked, valid := cookTemplateChunk(rawChunk)
	quasis = append(quasis, ast.TemplateElement{Raw: normalizeCRLF(rawChunk), Cooked: cooked, CookedValid: valid, Tail: true})

	tl := &ast.TemplateLiteral{Quasis: quasis, Expressions: exprs}
	tl.Start, tl.End = start, p.prevEndPos
	return tl
}

// findTemplateExpressionEnd advances through nested constructs — balanced
// braces, quoted strings, nested templates, line/block comments — until
// the matching '}' at nesting 0 (spec §4.1 "Template literal processing").
func findTemplateExpressionEnd(src string, start int) int {
	depth := 0
	i := start
	for i < len(src) {
		c := src[i]
		switch c {
		case '{':
			depth++
			i++
		case '}':
			if depth == 0 {
				return i
			}
			depth--
			i++
		case '\'', '"':
			i++
			for i < len(src) && src[i] != c {
				if src[i] == '\\' {
					i++
				}
				i++
			}
			i++
		case '`':
			i++
			tdepth := 0
			for i < len(src) {
				if src[i] == '\\' {
					i += 2
					continue
				}
				if src[i] == '`' && tdepth == 0 {
					i++
					break
				}
				if src[i] == '$' && i+1 < len(src) && src[i+1] == '{' {
					tdepth++
					i += 2
					continue
				}
				if src[i] == '}' && tdepth > 0 {
					tdepth--
				}
				i++
			}
		case '/':
			if i+1 < len(src) && src[i+1] == '/' {
				for i < len(src) && src[i] != '\n' {
					i++
				}
			} else if i+1 < len(src) && src[i+1] == '*' {
				i += 2
				for i+1 < len(src) && !(src[i] == '*' && src[i+1] == '/') {
					i++
				}
				i += 2
			} else {
				i++
			}
		default:
			i++
		}
	}
	return len(src)
}

// cookTemplateChunk processes escapes per spec §4.1 (\n \r \t \b \f \v \\ \'
// \" \` \$ \xHH \uHHHH \u{H...} \0). Returns valid=false on an illegal
// escape (cooked becomes null for tagged templates).
func cookTemplateChunk(s string) (string, bool) {
	var sb strings.Builder
	valid := true
	i := 0
	for i < len(s) {
		if s[i] != '\\' {
			sb.WriteByte(s[i])
			i++
			continue
		}
		i++
		if i >= len(s) {
			valid = false
			break
		}
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
			i++
		case 'r':
			sb.WriteByte('\r')
			i++
		case 't':
			sb.WriteByte('\t')
			i++
		case 'b':
			sb.WriteByte('\b')
			i++
		case 'f':
			sb.WriteByte('\f')
			i++
		case 'v':
			sb.WriteByte('\v')
			i++
		case '\\', '\'', '"', '`', '$':
			sb.WriteByte(s[i])
			i++
		case '0':
			if i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9' {
				valid = false
				i++
				break
			}
			sb.WriteByte(0)
			i++
		case 'x':
			if i+2 < len(s) {
				sb.WriteByte(hexByte(s[i+1], s[i+2]))
				i += 3
			} else {
				valid = false
				i++
			}
		case 'u':
			// simplified: accept \uHHHH and \u{H...}
			if i+1 < len(s) && s[i+1] == '{' {
				j := i + 2
				for j < len(s) && s[j] != '}' {
					j++
				}
				sb.WriteRune(rune(parseHex(s[i+2 : j])))
				i = j + 1
			} else if i+4 < len(s) {
				sb.WriteRune(rune(parseHex(s[i+1 : i+5])))
				i += 5
			} else {
				valid = false
				i++
			}
		default:
			sb.WriteByte(s[i])
			i++
		}
	}
	return sb.String(), valid
}

func hexByte(a, b byte) byte { return byte(hexDigit(a)<<4 | hexDigit(b)) }
func hexDigit(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10
	}
	return 0
}
func parseHex(s string) int {
	v := 0
	for i := 0; i < len(s); i++ {
		v = v*16 + hexDigit(s[i])
	}
	return v
}

func normalizeCRLF(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n")
}
