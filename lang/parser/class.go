package parser

import (
	"github.com/mna/esquick/lang/ast"
	"github.com/mna/esquick/lang/token"
)

// parseClassDeclaration and parseClassExpression implement spec §4.1
// "Class parsing": member dispatch (static/private/getter/setter/method/
// field/static-block), constructor vs. derived-constructor super gating.
func (p *parser) parseClassDeclaration() ast.Stmt {
	start := p.pos()
	id, super, body := p.parseClassCommon()
	d := &ast.ClassDeclaration{ID: id, SuperClass: super, Body: body}
	d.Start, d.End = start, p.prevEndPos
	return d
}

func (p *parser) parseClassExpression() ast.Expr {
	start := p.pos()
	id, super, body := p.parseClassCommon()
	e := &ast.ClassExpression{ID: id, SuperClass: super, Body: body}
	e.Start, e.End = start, p.prevEndPos
	return e
}

func (p *parser) parseClassCommon() (*ast.Identifier, ast.Expr, []ast.ClassElement) {
	p.expect(token.CLASS)
	var id *ast.Identifier
	if p.tok == token.IDENT {
		idStart := p.pos()
		name := p.val.Raw
		p.advance()
		id = p.finish(&ast.Identifier{Name: name}, idStart).(*ast.Identifier)
	}

	var super ast.Expr
	savedHasSuper := p.ctx.ParsingClassWithSuper
	if p.tok == token.EXTENDS {
		p.advance()
		super = p.parseCallMemberChain(p.parsePrimary())
		p.ctx.ParsingClassWithSuper = true
	} else {
		p.ctx.ParsingClassWithSuper = false
	}

	body := p.parseClassBody()
	p.ctx.ParsingClassWithSuper = savedHasSuper
	return id, super, body
}

func (p *parser) parseClassBody() []ast.ClassElement {
	p.expect(token.LBRACE)
	var elems []ast.ClassElement
	for p.tok != token.RBRACE && p.tok != token.EOF {
		if p.tok == token.SEMI {
			p.advance()
			continue
		}
		elems = append(elems, p.parseClassElement())
	}
	p.expect(token.RBRACE)
	return elems
}

func (p *parser) parseClassElement() ast.ClassElement {
	start := p.pos()

	isStatic := false
	if p.tok == token.STATIC && !p.peekIsPropTerminator() {
		snap := p.snapshot()
		p.advance()
		if p.tok == token.LBRACE {
			body := p.parseBlockStatement()
			sb := &ast.StaticBlock{Body: body.Body}
			sb.Start, sb.End = start, p.prevEndPos
			return sb
		}
		if p.tok == token.ASSIGN || p.tok == token.SEMI || p.tok == token.RBRACE {
			p.restore(snap) // `static` used as an ordinary field name
		} else {
			isStatic = true
		}
	}

	isAsync, isGen := false, false
	kind := ast.MethodNormal
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
			kind = ast.MethodGet
		} else {
			kind = ast.MethodSet
		}
		p.advance()
	}

	isPrivate := p.tok == token.PRIVATE
	key, computed := p.parsePropertyKey()

	if p.tok == token.LPAREN {
		if !isStatic && !computed && !isPrivate && kind == ast.MethodNormal && isIdentKey(key, "constructor") {
			kind = ast.MethodConstructor
			savedDerived := p.ctx.InDerivedConstructor
			p.ctx.InDerivedConstructor = p.ctx.ParsingClassWithSuper
			savedSuperProp := p.ctx.SuperPropertyAllowed
			p.ctx.SuperPropertyAllowed = true
			fn := p.parseFunctionRest(false, false)
			p.ctx.InDerivedConstructor = savedDerived
			p.ctx.SuperPropertyAllowed = savedSuperProp
			m := &ast.MethodDefinition{Key: key, Value: fn, Kind: kind, Static: isStatic, Computed: computed, IsPrivate: isPrivate}
			m.Start, m.End = start, p.prevEndPos
			return m
		}
		savedSuperProp := p.ctx.SuperPropertyAllowed
		p.ctx.SuperPropertyAllowed = true
		fn := p.parseFunctionRest(isAsync, isGen)
		p.ctx.SuperPropertyAllowed = savedSuperProp
		m := &ast.MethodDefinition{Key: key, Value: fn, Kind: kind, Static: isStatic, Computed: computed, IsPrivate: isPrivate}
		m.Start, m.End = start, p.prevEndPos
		return m
	}

	var val ast.Expr
	if p.tok == token.ASSIGN {
		p.advance()
		savedSuperProp := p.ctx.SuperPropertyAllowed
		p.ctx.SuperPropertyAllowed = true
		val = p.parseAssign()
		p.ctx.SuperPropertyAllowed = savedSuperProp
	}
	p.consumeSemicolon()
	f := &ast.PropertyDefinition{Key: key, Value: val, Static: isStatic, Computed: computed, IsPrivate: isPrivate}
	f.Start, f.End = start, p.prevEndPos
	return f
}

func isIdentKey(e ast.Expr, name string) bool {
	id, ok := e.(*ast.Identifier)
	return ok && id.Name == name
}
