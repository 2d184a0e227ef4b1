// Package parser implements Component A of the engine (spec §4.1): a
// recursive-descent parser that turns a token stream into an AST, with the
// cover-grammar resolution (arrow functions, parenthesised expressions),
// ASI, and contextual-keyword handling the spec calls for. Structurally
// grounded on the teacher's lang/parser package: a parser struct holding
// current/lookahead token plus mutable parse state, panic/recover-based
// error escape at statement boundaries, and an expect() helper.
package parser

import (
	"errors"
	"fmt"

	"github.com/mna/esquick/lang/ast"
	"github.com/mna/esquick/lang/scanner"
	"github.com/mna/esquick/lang/token"
)

// JSSyntaxError is the error kind raised for malformed input (spec §4.1
// "Fails with JSSyntaxError(message)"; spec §7 error taxonomy).
type JSSyntaxError struct {
	Msg string
	Pos token.Position
}

func (e *JSSyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Col, e.Msg)
}

// errPanicMode unwinds the Go call stack back to the nearest recover point
// on a syntax error, same escape mechanism as the teacher's parser.
var errPanicMode = errors.New("parser: panic mode")

// ParserContext is the mutable state shared by all parse routines (spec
// §3.1 "ParserContext").
type ParserContext struct {
	StrictMode            bool
	ModuleMode            bool
	IsEval                bool
	FunctionNesting       int
	AsyncFunctionNesting  int
	InFunctionBody        bool
	InOperatorAllowed     bool
	ParsingClassWithSuper bool
	InDerivedConstructor  bool
	SuperPropertyAllowed  bool
	InGeneratorBody       bool
}

// parser holds scanning + parse state for one source text. Re-entrant
// sub-parses (template literal interpolations) construct a fresh parser
// sharing the relevant ParserContext fields (spec §4.1 "Template literal
// processing").
type parser struct {
	ctx ParserContext

	sc  scanner.Scanner
	tok token.Token
	val scanner.Value

	prevEndPos token.Position // end position of the previously consumed token, for ASI

	firstErr error
}

// Parse tokenizes and parses src into a Program (spec §4.1 public
// contract).
func Parse(src []byte, moduleMode, isEval bool) (*ast.Program, error) {
	p := &parser{}
	p.ctx.ModuleMode = moduleMode
	p.ctx.IsEval = isEval
	p.ctx.StrictMode = moduleMode
	p.ctx.InOperatorAllowed = true
	p.init(src)
	return p.parseProgram()
}

func (p *parser) init(src []byte) {
	p.sc.Init("", src, p.scanError)
	p.advance()
}

func (p *parser) scanError(pos token.Position, msg string) {
	p.recordError(pos, msg)
}

func (p *parser) recordError(pos token.Position, msg string) {
	if p.firstErr == nil {
		p.firstErr = &JSSyntaxError{Msg: msg, Pos: pos}
	}
}

func (p *parser) error(pos token.Position, msg string) {
	p.recordError(pos, msg)
	panic(errPanicMode)
}

func (p *parser) errorf(pos token.Position, format string, args ...interface{}) {
	p.error(pos, fmt.Sprintf(format, args...))
}

// advance fetches the next token. regexAllowed is computed conservatively:
// true except immediately after a token that can end an expression (spec
// §4.1's regexAllowed contextual flag, reused here to disambiguate '/' at
// the scanner level).
func (p *parser) advance() {
	p.sc.SetRegexAllowed(regexAllowedAfter(p.tok))
	if p.val.End != (token.Position{}) {
		p.prevEndPos = p.val.End
	}
	p.tok = p.sc.Scan(&p.val)
}

func regexAllowedAfter(tok token.Token) bool {
	switch tok {
	case token.IDENT, token.NUMBER, token.STRING, token.TEMPLATE, token.REGEXP,
		token.RPAREN, token.RBRACK, token.RBRACE,
		token.THIS, token.SUPER, token.NULL, token.TRUE, token.FALSE,
		token.PLUSPLUS, token.MINUSMINUS:
		return false
	}
	return true
}

// hasNewlineBefore reports whether a line terminator preceded the current
// token — the sole input to the ASI algorithm (spec §4.1).
func (p *parser) hasNewlineBefore() bool { return p.val.NewlineBefore }

func (p *parser) pos() token.Position { return p.val.Pos }

// expect consumes the current token if it matches tok, else raises a
// syntax error.
func (p *parser) expect(tok token.Token) token.Position {
	pos := p.val.Pos
	if p.tok != tok {
		p.errorf(pos, "expected %s, got %s", tok, describeTok(p.tok, p.val))
	}
	p.advance()
	return pos
}

func describeTok(tok token.Token, val scanner.Value) string {
	if tok == token.IDENT || tok == token.STRING || tok == token.NUMBER {
		return fmt.Sprintf("%s %q", tok, val.Raw)
	}
	return tok.String()
}

// atKeyword reports whether the current token is the identifier kw. The
// scanner never emits distinct tokens for the contextual keywords (async,
// from, get, set, as — spec §4.1, token.Lookup's keywords map excludes
// them): it always scans them as plain IDENT, leaving reclassification by
// position to the parser.
func (p *parser) atKeyword(kw string) bool {
	return p.tok == token.IDENT && p.val.Raw == kw
}

func (p *parser) at(toks ...token.Token) bool {
	for _, t := range toks {
		if p.tok == t {
			return true
		}
	}
	return false
}

// consumeSemicolon implements ASI (spec §4.1 "Automatic semicolon
// insertion"): accept if current token is ';', or '}' / EOF, or a newline
// preceded the current token.
func (p *parser) consumeSemicolon() {
	if p.tok == token.SEMI {
		p.advance()
		return
	}
	if p.tok == token.RBRACE || p.tok == token.EOF {
		return
	}
	if p.hasNewlineBefore() {
		return
	}
	p.errorf(p.pos(), "expected ';'")
}

// snapshot/restore support the cover-grammar speculative parses (spec
// §4.1 "Cover grammars": async-arrow detection, paren-vs-arrow-params).
type snapshot struct {
	sc         scanner.Scanner
	tok        token.Token
	val        scanner.Value
	prevEndPos token.Position
}

func (p *parser) snapshot() snapshot {
	return snapshot{sc: p.sc, tok: p.tok, val: p.val, prevEndPos: p.prevEndPos}
}

func (p *parser) restore(s snapshot) {
	p.sc = s.sc
	p.tok = s.tok
	p.val = s.val
	p.prevEndPos = s.prevEndPos
}

func (p *parser) parseProgram() (prog *ast.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			if r != errPanicMode {
				panic(r)
			}
			err = p.firstErr
		}
	}()

	start := p.pos()
	var body []ast.Stmt
	for p.tok != token.EOF {
		body = append(body, p.parseStatement())
	}
	prog = &ast.Program{Body: body, StrictMode: p.ctx.StrictMode, ModuleMode: p.ctx.ModuleMode}
	prog.Start, prog.End = start, p.pos()
	if err = p.firstErr; err != nil {
		return nil, err
	}
	return prog, nil
}

// ParseExpression is the re-entry point used to parse a single expression,
// primarily for template-literal sub-expression parsing (spec §4.1 public
// contract).
func ParseExpression(src []byte, ctx ParserContext) (expr ast.Expr, err error) {
	p := &parser{ctx: ctx}
	p.init(src)
	defer func() {
		if r := recover(); r != nil {
			if r != errPanicMode {
				panic(r)
			}
			err = p.firstErr
		}
	}()
	expr = p.parseExpr()
	if p.tok != token.EOF {
		p.errorf(p.pos(), "unexpected token %s after expression", p.tok)
	}
	return expr, p.firstErr
}
