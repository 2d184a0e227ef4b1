// Package ast defines the abstract syntax tree produced by lang/parser
// (spec §3.1). The Node/Expr/Stmt interface shape is grounded on the
// teacher's lang/ast package (a Node interface with a Span() accessor, Expr
// and Stmt marker sub-interfaces); the concrete node set is specific to
// ECMAScript rather than the teacher's language.
package ast

import "github.com/mna/esquick/lang/token"

// Node is implemented by every AST node.
type Node interface {
	// Span reports the node's source extent.
	Span() (start, end token.Position)
}

// Expr is implemented by expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// base is embedded by every concrete node to provide Span() and to satisfy
// the private marker methods via per-kind embedding below.
type base struct {
	token.SourceLocation
}

func (b base) Span() (token.Position, token.Position) { return b.Start, b.End }

// setSpan lets the parser backfill a node's source extent after
// constructing it with zero-value embedded fields; promoted through
// exprBase/stmtBase to every concrete node.
func (b *base) setSpan(start, end token.Position) { b.Start, b.End = start, end }

// exprBase/stmtBase let concrete node types satisfy Expr/Stmt by embedding.
type exprBase struct{ base }

func (exprBase) exprNode() {}

type stmtBase struct{ base }

func (stmtBase) stmtNode() {}

// Program is the root node produced by Parse (spec §4.1 public contract).
type Program struct {
	base
	Body       []Stmt
	StrictMode bool
	ModuleMode bool
}

// PrivateIdentifier is a `#name` reference (spec §3.1).
type PrivateIdentifier struct {
	exprBase
	Name string
}

// Identifier is any binding/reference name, including `this`-adjacent
// contextual keywords used as identifiers.
type Identifier struct {
	exprBase
	Name string
}

// Literal covers number, string, boolean, null and bigint literals.
type Literal struct {
	exprBase
	Kind  LiteralKind
	Raw   string
	Str   string
	Num   float64
	Bool  bool
}

// LiteralKind discriminates the Literal payload.
type LiteralKind uint8

const (
	LitNumber LiteralKind = iota
	LitBigInt
	LitString
	LitBool
	LitNull
)

// RegExpLiteral is a /pattern/flags literal (spec §3.1, §4.2).
type RegExpLiteral struct {
	exprBase
	Pattern string
	Flags   string
}
