package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asteria-lang/asteria/internal/ast"
	"github.com/asteria-lang/asteria/internal/scope"
	"github.com/asteria-lang/asteria/internal/value"
)

func lit(l ast.Literal) ast.Atom { return ast.LiteralAtom{Value: l} }

func intExpr(n int64) ast.Expression {
	return ast.Expression{Atoms: []ast.Atom{lit(ast.IntLiteral{Value: n})}}
}

func nullExpr() ast.Expression {
	return ast.Expression{Atoms: []ast.Atom{lit(ast.NullLiteral{})}}
}

func lookupInt(t *testing.T, ctx *scope.ExecutiveContext, name string) int64 {
	t.Helper()
	ref, ok := ctx.Lookup(name)
	require.True(t, ok, "%s not found", name)
	v, err := ref.Read()
	require.NoError(t, err)
	i, ok := v.AsInt()
	require.True(t, ok, "expected integer for %s, got %s", name, v.Kind())
	return i
}

func TestExecuteBlockForEachSumsArray(t *testing.T) {
	ctx := scope.NewExecutiveContext(nil)
	sumVar := Allocate(value.FromInt(0), false)
	require.NoError(t, ctx.Declare("sum", value.NewVariableRef(sumVar)))

	arrVar := Allocate(value.NewArray(value.FromInt(1), value.FromInt(2), value.FromInt(3)), false)
	require.NoError(t, ctx.Declare("items", value.NewVariableRef(arrVar)))

	body := ast.Block{Statements: []ast.Statement{
		ast.ExpressionStatement{Expr: ast.Expression{Atoms: []ast.Atom{
			ast.NamedReferenceAtom{Name: "sum"},
			ast.NamedReferenceAtom{Name: "v"},
			ast.OperatorRPNAtom{Op: ast.OpAdd, Assign: true},
		}}},
	}}
	stmt := ast.ForEachStatement{MappedName: "v", Range: ast.Expression{Atoms: []ast.Atom{ast.NamedReferenceAtom{Name: "items"}}}, Body: body}

	status, err := execStatement(stmt, ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusNext, status.Kind)
	assert.Equal(t, int64(6), mustInt(t, sumVar.Value()))
}

func TestExecuteBlockForEachMappedNameAliasesArrayElement(t *testing.T) {
	ctx := scope.NewExecutiveContext(nil)
	arrVar := Allocate(value.NewArray(value.FromInt(1), value.FromInt(2), value.FromInt(3)), false)
	require.NoError(t, ctx.Declare("items", value.NewVariableRef(arrVar)))

	body := ast.Block{Statements: []ast.Statement{
		ast.ExpressionStatement{Expr: ast.Expression{Atoms: []ast.Atom{
			ast.NamedReferenceAtom{Name: "v"},
			lit(ast.IntLiteral{Value: 10}),
			ast.OperatorRPNAtom{Op: ast.OpAdd, Assign: true},
		}}},
	}}
	stmt := ast.ForEachStatement{MappedName: "v", Range: ast.Expression{Atoms: []ast.Atom{ast.NamedReferenceAtom{Name: "items"}}}, Body: body}

	status, err := execStatement(stmt, ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusNext, status.Kind)

	arr, ok := arrVar.Value().AsArray()
	require.True(t, ok)
	assert.Equal(t, int64(11), mustInt(t, arr.Get(0)), "mutating the loop variable must write back through the range")
	assert.Equal(t, int64(12), mustInt(t, arr.Get(1)))
	assert.Equal(t, int64(13), mustInt(t, arr.Get(2)))
}

func mustInt(t *testing.T, v value.Value) int64 {
	t.Helper()
	i, ok := v.AsInt()
	require.True(t, ok)
	return i
}

func TestImmutableVariableAssignmentFails(t *testing.T) {
	ctx := scope.NewExecutiveContext(nil)
	stmt := ast.VariableDefinition{Name: "x", Immutable: true, Init: intExpr(5)}
	status, err := execStatement(stmt, ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusNext, status.Kind)

	assignStmt := ast.ExpressionStatement{Expr: ast.Expression{Atoms: []ast.Atom{
		ast.NamedReferenceAtom{Name: "x"},
		lit(ast.IntLiteral{Value: 9}),
		ast.OperatorRPNAtom{Op: ast.OpAssign},
	}}}
	_, err = execStatement(assignStmt, ctx)
	assert.Error(t, err)
}

func TestVariableDefinitionInitializerSeesOwnNameAsNull(t *testing.T) {
	ctx := scope.NewExecutiveContext(nil)
	stmt := ast.VariableDefinition{Name: "x", Init: ast.Expression{Atoms: []ast.Atom{ast.NamedReferenceAtom{Name: "x"}}}}

	status, err := execStatement(stmt, ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusNext, status.Kind)

	ref, ok := ctx.Lookup("x")
	require.True(t, ok)
	v, err := ref.Read()
	require.NoError(t, err)
	assert.True(t, v.IsNull(), "var x = x; must read the fresh null binding, not fail or see an outer x")
}

func TestTryCatchBindsThrownValueAndBacktrace(t *testing.T) {
	ctx := scope.NewExecutiveContext(nil)
	// The catch bindings live in a fresh catch scope, so the catch body
	// copies them into variables declared in the enclosing scope.
	require.NoError(t, ctx.Declare("caught", value.NewVariableRef(Allocate(value.Null(), false))))
	require.NoError(t, ctx.Declare("bt", value.NewVariableRef(Allocate(value.Null(), false))))
	stmt := ast.TryStatement{
		Try: ast.Block{Statements: []ast.Statement{
			ast.ThrowStatement{Expr: ast.Expression{Atoms: []ast.Atom{lit(ast.StringLiteral{Value: "boom"})}}, Loc: ast.SourceLocation{File: "t.ast", Line: 3}},
		}},
		ExceptName: "e",
		Catch: ast.Block{Statements: []ast.Statement{
			ast.ExpressionStatement{Expr: ast.Expression{Atoms: []ast.Atom{
				ast.NamedReferenceAtom{Name: "caught"}, ast.NamedReferenceAtom{Name: "e"}, ast.OperatorRPNAtom{Op: ast.OpAssign},
			}}},
			ast.ExpressionStatement{Expr: ast.Expression{Atoms: []ast.Atom{
				ast.NamedReferenceAtom{Name: "bt"}, ast.NamedReferenceAtom{Name: scope.PredefinedBacktrace}, ast.OperatorRPNAtom{Op: ast.OpAssign},
			}}},
		}},
	}

	status, err := execStatement(stmt, ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusNext, status.Kind)

	ref, ok := ctx.Lookup("caught")
	require.True(t, ok)
	v, err := ref.Read()
	require.NoError(t, err)
	s, _ := v.AsString()
	assert.Equal(t, "boom", s)

	btRef, ok := ctx.Lookup("bt")
	require.True(t, ok)
	btVal, err := btRef.Read()
	require.NoError(t, err)
	_, ok = btVal.AsArray()
	assert.True(t, ok)
}

func TestSwitchFallThroughExecutesSubsequentClauses(t *testing.T) {
	ctx := scope.NewExecutiveContext(nil)
	accVar := Allocate(value.FromInt(0), false)
	require.NoError(t, ctx.Declare("acc", value.NewVariableRef(accVar)))

	addOne := ast.ExpressionStatement{Expr: ast.Expression{Atoms: []ast.Atom{
		ast.NamedReferenceAtom{Name: "acc"},
		lit(ast.IntLiteral{Value: 1}),
		ast.OperatorRPNAtom{Op: ast.OpAdd, Assign: true},
	}}}

	stmt := ast.SwitchStatement{
		Control: intExpr(1),
		Clauses: []ast.SwitchClause{
			{Expr: intExpr(1), HasExpr: true, Body: ast.Block{Statements: []ast.Statement{addOne}}},
			{Expr: intExpr(2), HasExpr: true, Body: ast.Block{Statements: []ast.Statement{addOne}}},
			{HasExpr: false, Body: ast.Block{Statements: []ast.Statement{addOne}}},
		},
	}

	status, err := execStatement(stmt, ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusNext, status.Kind)
	assert.Equal(t, int64(3), mustInt(t, accVar.Value()))
}

func TestBreakInsideWhileStopsLoop(t *testing.T) {
	ctx := scope.NewExecutiveContext(nil)
	countVar := Allocate(value.FromInt(0), false)
	require.NoError(t, ctx.Declare("i", value.NewVariableRef(countVar)))

	body := ast.Block{Statements: []ast.Statement{
		ast.IfStatement{
			Condition: ast.Expression{Atoms: []ast.Atom{
				ast.NamedReferenceAtom{Name: "i"},
				lit(ast.IntLiteral{Value: 3}),
				ast.OperatorRPNAtom{Op: ast.OpGe},
			}},
			Then: ast.Block{Statements: []ast.Statement{ast.BreakStatement{Target: ast.TargetUnspecified}}},
		},
		ast.ExpressionStatement{Expr: ast.Expression{Atoms: []ast.Atom{
			ast.NamedReferenceAtom{Name: "i"},
			lit(ast.IntLiteral{Value: 1}),
			ast.OperatorRPNAtom{Op: ast.OpAdd, Assign: true},
		}}},
	}}

	stmt := ast.WhileStatement{Condition: ast.Expression{Atoms: []ast.Atom{lit(ast.BoolLiteral{Value: true})}}, Body: body}
	status, err := execStatement(stmt, ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusNext, status.Kind)
	assert.Equal(t, int64(3), mustInt(t, countVar.Value()))
}

func TestReturnPropagatesThroughNestedBlocks(t *testing.T) {
	ctx := scope.NewExecutiveContext(nil)
	block := ast.Block{Statements: []ast.Statement{
		ast.IfStatement{
			Condition: ast.Expression{Atoms: []ast.Atom{lit(ast.BoolLiteral{Value: true})}},
			Then: ast.Block{Statements: []ast.Statement{
				ast.ReturnStatement{Expr: intExpr(42)},
			}},
		},
		ast.ExpressionStatement{Expr: nullExpr()},
	}}
	status, err := ExecuteBlock(block, ctx)
	require.NoError(t, err)
	require.Equal(t, StatusReturn, status.Kind)
	v, err := status.ReturnValue.Read()
	require.NoError(t, err)
	assert.Equal(t, int64(42), mustInt(t, v))
}
