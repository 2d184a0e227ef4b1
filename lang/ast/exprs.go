package ast

import "github.com/mna/esquick/lang/token"

// BinaryExpression covers arithmetic, comparison, bitwise, and the `in` /
// `instanceof` relational operators (spec §4.1 precedence levels 6-10).
type BinaryExpression struct {
	exprBase
	Op          token.Token
	Left, Right Expr
}

// LogicalExpression covers `&&`, `||`, `??` — kept distinct from
// BinaryExpression because of their short-circuit, non-coercing semantics
// (spec §4.4.1 "LOGICAL_AND/OR short-circuit ... NULLISH_COALESCE").
type LogicalExpression struct {
	exprBase
	Op          token.Token
	Left, Right Expr
}

// UnaryExpression covers prefix `+ - ! ~ typeof void delete`.
type UnaryExpression struct {
	exprBase
	Op       token.Token
	Argument Expr
}

// UpdateExpression covers `++`/`--`, prefix or postfix (spec §4.1 level 11,
// 12; ASI forbids a line break before a postfix operator).
type UpdateExpression struct {
	exprBase
	Op       token.Token
	Argument Expr
	Prefix   bool
}

// AwaitExpression (spec §4.1 level 11; gated by asyncFunctionNesting).
type AwaitExpression struct {
	exprBase
	Argument Expr
}

// YieldExpression (spec §4.1 level 11; gated to generator bodies).
type YieldExpression struct {
	exprBase
	Argument Expr
	Delegate bool // yield*
}

// AssignmentExpression (spec §4.1 level 2). Left may be Identifier,
// MemberExpression, or one of the array/object destructuring target shapes.
type AssignmentExpression struct {
	exprBase
	Op          token.Token
	Left, Right Expr
}

// ConditionalExpression is the `?:` ternary (spec §4.1 level 3).
type ConditionalExpression struct {
	exprBase
	Test, Consequent, Alternate Expr
}

// SequenceExpression is the comma operator (spec §4.1 level 1).
type SequenceExpression struct {
	exprBase
	Expressions []Expr
}

// MemberExpression covers `.name`, `[expr]`, and optional-chaining
// variants (spec §4.1 level 13).
type MemberExpression struct {
	exprBase
	Object   Expr
	Property Expr // Identifier for dot access, arbitrary Expr for computed
	Computed bool
	Optional bool
}

// CallExpression (spec §4.1 level 13); Arguments may contain SpreadElement.
type CallExpression struct {
	exprBase
	Callee    Expr
	Arguments []Expr
	Optional  bool
}

// NewExpression — `new Callee(args)`; member access binds to Callee before
// the argument list is attached (spec §4.1 level 13).
type NewExpression struct {
	exprBase
	Callee    Expr
	Arguments []Expr
}

// ArrayExpression is both an array literal and (pre-disambiguation) the
// cover grammar shape for an array destructuring pattern or parenthesised
// arrow-parameter list sentinel (spec §4.1 "Cover grammars").
type ArrayExpression struct {
	exprBase
	Elements []Expr // nil element = elision; may contain SpreadElement
}

// ObjectExpression is both an object literal and a destructuring-pattern
// cover grammar shape.
type ObjectExpression struct {
	exprBase
	Properties []*Property
}

// PropertyKind discriminates an object/class Property's role.
type PropertyKind uint8

const (
	PropInit PropertyKind = iota
	PropGet
	PropSet
	PropMethod
	PropSpread
)

// Property is one `key: value`, method, getter/setter, or spread entry of
// an ObjectExpression.
type Property struct {
	base
	Key       Expr // Identifier, Literal, or computed Expr
	Value     Expr
	Kind      PropertyKind
	Computed  bool
	Shorthand bool
}

func (p *Property) Span() (token.Position, token.Position) { return p.base.Span() }

// SpreadElement is `...expr` used in array literals and call arguments
// (spec §3.1).
type SpreadElement struct {
	exprBase
	Argument Expr
}

// RestElement is `...name` used as the terminal formal parameter or as a
// destructuring rest target (spec §4.1 "Rest parameters must be
// terminal").
type RestElement struct {
	exprBase
	Argument Expr
}

// AssignmentPattern is `Identifier = default` inside a parameter list or
// destructuring pattern (spec §4.1 "Cover grammars").
type AssignmentPattern struct {
	exprBase
	Left, Right Expr
}

// TemplateLiteral (spec §4.1 "Template literal processing"). Quasis has
// len(Expressions)+1 entries.
type TemplateLiteral struct {
	exprBase
	Quasis      []TemplateElement
	Expressions []Expr
}

// TemplateElement is one quasi chunk, carrying both the raw and cooked
// forms (spec §4.1: cooked is null, via CookedValid=false, for illegal
// escapes in tagged templates).
type TemplateElement struct {
	Raw         string
	Cooked      string
	CookedValid bool
	Tail        bool
}

// TaggedTemplateExpression — `` tag`...` `` (spec §8 scenario 2).
type TaggedTemplateExpression struct {
	exprBase
	Tag   Expr
	Quasi *TemplateLiteral
}

// FunctionExpression covers named/anonymous function expressions,
// generators and async functions (IsGenerator/IsAsync flags).
type FunctionExpression struct {
	exprBase
	ID          *Identifier
	Params      []Expr
	Body        *BlockStatement
	IsGenerator bool
	IsAsync     bool
}

// ArrowFunctionExpression (spec §4.1 "Cover grammars"; §8 scenario 1).
// Body is either a *BlockStatement or a single Expr (concise body).
type ArrowFunctionExpression struct {
	exprBase
	Params  []Expr
	Body    Node
	IsAsync bool
}

// ClassExpression / ClassDeclaration share the same shape; see stmts.go for
// the declaration form wired into the statement grammar.
type ClassExpression struct {
	exprBase
	ID         *Identifier
	SuperClass Expr
	Body       []ClassElement
}

// ClassElement is implemented by MethodDefinition, PropertyDefinition, and
// StaticBlock (spec §3.1).
type ClassElement interface {
	Node
	classElement()
}

type classElementBase struct{ base }

func (classElementBase) classElement() {}

// MethodKind discriminates a MethodDefinition's role.
type MethodKind uint8

const (
	MethodNormal MethodKind = iota
	MethodConstructor
	MethodGet
	MethodSet
)

// MethodDefinition is a class method, getter, setter, or constructor
// (spec §4.1 "Class parsing").
type MethodDefinition struct {
	classElementBase
	Key         Expr
	Value       *FunctionExpression
	Kind        MethodKind
	Static      bool
	Computed    bool
	IsPrivate   bool
}

// PropertyDefinition is a public or private class field (spec §4.1 "Class
// parsing").
type PropertyDefinition struct {
	classElementBase
	Key       Expr
	Value     Expr // nil if uninitialized
	Static    bool
	Computed  bool
	IsPrivate bool
}

// StaticBlock is a `static { ... }` class element (spec §4.1).
type StaticBlock struct {
	classElementBase
	Body []Stmt
}
