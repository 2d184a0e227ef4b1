package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/esquick/lang/ast"
	"github.com/mna/esquick/lang/parser"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := parser.Parse([]byte(src), false, false)
	require.NoError(t, err)
	require.NotNil(t, prog)
	return prog
}

func TestParseVariableDeclaration(t *testing.T) {
	prog := mustParse(t, "let x = 1, y = 2;")
	require.Len(t, prog.Body, 1)
	decl, ok := prog.Body[0].(*ast.VariableDeclaration)
	require.True(t, ok)
	require.Equal(t, ast.VarLet, decl.Kind)
	require.Len(t, decl.Declarations, 2)
}

func TestParseArrowFunctionCoverGrammar(t *testing.T) {
	for _, src := range []string{
		"const f = x => x + 1;",
		"const f = (x) => x + 1;",
		"const f = (x, y) => x + y;",
		"const f = async x => x;",
		"const f = async (x) => x;",
		"const f = () => 1;",
	} {
		prog := mustParse(t, src)
		decl := prog.Body[0].(*ast.VariableDeclaration)
		_, ok := decl.Declarations[0].Init.(*ast.ArrowFunctionExpression)
		require.True(t, ok, "expected arrow function for %q", src)
	}
}

func TestParseParenthesizedExpressionNotArrow(t *testing.T) {
	prog := mustParse(t, "(1 + 2);")
	stmt := prog.Body[0].(*ast.ExpressionStatement)
	_, ok := stmt.Expression.(*ast.BinaryExpression)
	require.True(t, ok)
}

func TestParseIfElseChain(t *testing.T) {
	prog := mustParse(t, "if (a) { b(); } else if (c) { d(); } else { e(); }")
	ifStmt := prog.Body[0].(*ast.IfStatement)
	require.NotNil(t, ifStmt.Alternate)
	elseIf, ok := ifStmt.Alternate.(*ast.IfStatement)
	require.True(t, ok)
	require.NotNil(t, elseIf.Alternate)
}

func TestParseForOfAndForIn(t *testing.T) {
	prog := mustParse(t, "for (const x of xs) {} for (const k in obj) {}")
	require.Len(t, prog.Body, 2)
	forOf := prog.Body[0].(*ast.ForInOfStatement)
	require.Equal(t, ast.ForOf, forOf.Kind)
	forIn := prog.Body[1].(*ast.ForInOfStatement)
	require.Equal(t, ast.ForIn, forIn.Kind)
}

func TestParseClassWithConstructorAndPrivateField(t *testing.T) {
	prog := mustParse(t, `class A extends B {
		#secret = 1;
		constructor() { super(); }
		get x() { return this.#secret; }
		static make() { return new A(); }
	}`)
	decl := prog.Body[0].(*ast.ClassDeclaration)
	require.NotNil(t, decl.SuperClass)
	require.Len(t, decl.Body, 4)

	field := decl.Body[0].(*ast.PropertyDefinition)
	require.True(t, field.IsPrivate)

	ctor := decl.Body[1].(*ast.MethodDefinition)
	require.Equal(t, ast.MethodConstructor, ctor.Kind)

	getter := decl.Body[2].(*ast.MethodDefinition)
	require.Equal(t, ast.MethodGet, getter.Kind)

	method := decl.Body[3].(*ast.MethodDefinition)
	require.True(t, method.Static)
}

func TestParseTemplateLiteralWithExpression(t *testing.T) {
	prog := mustParse(t, "const s = `hi ${name + \"!\"}`;")
	decl := prog.Body[0].(*ast.VariableDeclaration)
	tpl := decl.Declarations[0].Init.(*ast.TemplateLiteral)
	require.Len(t, tpl.Quasis, 2)
	require.Len(t, tpl.Expressions, 1)
	_, ok := tpl.Expressions[0].(*ast.BinaryExpression)
	require.True(t, ok)
}

func TestParseTryCatchFinally(t *testing.T) {
	prog := mustParse(t, "try { risky(); } catch (e) { handle(e); } finally { cleanup(); }")
	tryStmt := prog.Body[0].(*ast.TryStatement)
	require.NotNil(t, tryStmt.Handler)
	require.NotNil(t, tryStmt.Finalizer)
	require.NotNil(t, tryStmt.Param)
}

func TestParseASINoSemicolon(t *testing.T) {
	prog := mustParse(t, "let a = 1\nlet b = 2\n")
	require.Len(t, prog.Body, 2)
}

func TestParseSyntaxError(t *testing.T) {
	_, err := parser.Parse([]byte("let = ;"), false, false)
	require.Error(t, err)
	var synErr *parser.JSSyntaxError
	require.ErrorAs(t, err, &synErr)
}
