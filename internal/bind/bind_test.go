package bind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asteria-lang/asteria/internal/ast"
	"github.com/asteria-lang/asteria/internal/scope"
)

func lit(l ast.Literal) ast.Atom { return ast.LiteralAtom{Value: l} }

func TestBindBlockRejectsUndeclaredIdentifier(t *testing.T) {
	block := ast.Block{Statements: []ast.Statement{
		ast.ExpressionStatement{Expr: ast.Expression{Atoms: []ast.Atom{
			ast.NamedReferenceAtom{Name: "ghost"},
		}}},
	}}
	err := BindBlock(block, scope.NewAnalyticContext(nil))
	assert.Error(t, err)
}

func TestBindBlockAcceptsDeclareThenUse(t *testing.T) {
	block := ast.Block{Statements: []ast.Statement{
		ast.VariableDefinition{Name: "x", Init: ast.Expression{Atoms: []ast.Atom{lit(ast.IntLiteral{Value: 1})}}},
		ast.ExpressionStatement{Expr: ast.Expression{Atoms: []ast.Atom{ast.NamedReferenceAtom{Name: "x"}}}},
	}}
	require.NoError(t, BindBlock(block, scope.NewAnalyticContext(nil)))
}

func TestBindVariableDefinitionInitializerCanReferenceOwnName(t *testing.T) {
	block := ast.Block{Statements: []ast.Statement{
		ast.VariableDefinition{Name: "x", Init: ast.Expression{Atoms: []ast.Atom{ast.NamedReferenceAtom{Name: "x"}}}},
	}}
	require.NoError(t, BindBlock(block, scope.NewAnalyticContext(nil)))
}

func TestBindSwitchRejectsDuplicateDefaultClauses(t *testing.T) {
	stmt := ast.SwitchStatement{
		Control: ast.Expression{Atoms: []ast.Atom{lit(ast.IntLiteral{Value: 1})}},
		Clauses: []ast.SwitchClause{
			{HasExpr: false, Body: ast.Block{}},
			{HasExpr: false, Body: ast.Block{}},
		},
	}
	err := bindStatement(stmt, scope.NewAnalyticContext(nil))
	assert.Error(t, err)
}

func TestBindFunctionDefinitionDeclaresParamsAndSelf(t *testing.T) {
	body := ast.Block{Statements: []ast.Statement{
		ast.ReturnStatement{Expr: ast.Expression{Atoms: []ast.Atom{
			ast.NamedReferenceAtom{Name: "n"},
			ast.NamedReferenceAtom{Name: "fact"},
			ast.FunctionCallAtom{Argc: 1},
		}}},
	}}
	def := ast.FunctionDefinition{
		Name:   "fact",
		Header: ast.FunctionHeader{FuncName: "fact"},
		Params: []ast.Parameter{{Name: "n"}},
		Body:   body,
	}
	block := ast.Block{Statements: []ast.Statement{def}}
	require.NoError(t, BindBlock(block, scope.NewAnalyticContext(nil)))
}

func TestBindForEachDeclaresKeyAndValueNames(t *testing.T) {
	stmt := ast.ForEachStatement{
		KeyName:    "k",
		MappedName: "v",
		Range:      ast.Expression{Atoms: []ast.Atom{lit(ast.IntLiteral{Value: 1})}},
		Body: ast.Block{Statements: []ast.Statement{
			ast.ExpressionStatement{Expr: ast.Expression{Atoms: []ast.Atom{ast.NamedReferenceAtom{Name: "k"}}}},
			ast.ExpressionStatement{Expr: ast.Expression{Atoms: []ast.Atom{ast.NamedReferenceAtom{Name: "v"}}}},
		}},
	}
	require.NoError(t, bindStatement(stmt, scope.NewAnalyticContext(nil)))
}

func TestBindTryCatchDeclaresExceptionNameAndBacktrace(t *testing.T) {
	stmt := ast.TryStatement{
		Try:        ast.Block{},
		ExceptName: "e",
		Catch: ast.Block{Statements: []ast.Statement{
			ast.ExpressionStatement{Expr: ast.Expression{Atoms: []ast.Atom{ast.NamedReferenceAtom{Name: "e"}}}},
			ast.ExpressionStatement{Expr: ast.Expression{Atoms: []ast.Atom{ast.NamedReferenceAtom{Name: "__backtrace"}}}},
		}},
	}
	require.NoError(t, bindStatement(stmt, scope.NewAnalyticContext(nil)))
}
