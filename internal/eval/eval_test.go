package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asteria-lang/asteria/internal/ast"
	"github.com/asteria-lang/asteria/internal/scope"
	"github.com/asteria-lang/asteria/internal/value"
)

func lit(l ast.Literal) ast.Atom { return ast.LiteralAtom{Value: l} }

func evalInt(t *testing.T, ctx *scope.ExecutiveContext, atoms ...ast.Atom) int64 {
	t.Helper()
	ref, err := Eval(ast.Expression{Atoms: atoms}, ctx)
	require.NoError(t, err)
	v, err := ref.Read()
	require.NoError(t, err)
	i, ok := v.AsInt()
	require.True(t, ok, "expected integer, got %s", v.Kind())
	return i
}

func TestEvalLiteralAddition(t *testing.T) {
	ctx := scope.NewExecutiveContext(nil)
	got := evalInt(t, ctx,
		lit(ast.IntLiteral{Value: 2}),
		lit(ast.IntLiteral{Value: 3}),
		ast.OperatorRPNAtom{Op: ast.OpAdd},
	)
	assert.Equal(t, int64(5), got)
}

func TestEvalStringConcatenation(t *testing.T) {
	ctx := scope.NewExecutiveContext(nil)
	ref, err := Eval(ast.Expression{Atoms: []ast.Atom{
		lit(ast.StringLiteral{Value: "foo"}),
		lit(ast.StringLiteral{Value: "bar"}),
		ast.OperatorRPNAtom{Op: ast.OpAdd},
	}}, ctx)
	require.NoError(t, err)
	v, err := ref.Read()
	require.NoError(t, err)
	s, _ := v.AsString()
	assert.Equal(t, "foobar", s)
}

func TestEvalDivisionByZeroErrors(t *testing.T) {
	ctx := scope.NewExecutiveContext(nil)
	_, err := Eval(ast.Expression{Atoms: []ast.Atom{
		lit(ast.IntLiteral{Value: 1}),
		lit(ast.IntLiteral{Value: 0}),
		ast.OperatorRPNAtom{Op: ast.OpDiv},
	}}, ctx)
	assert.Error(t, err)
}

func TestEvalNamedReferenceAssignment(t *testing.T) {
	ctx := scope.NewExecutiveContext(nil)
	v := value.NewVariable(value.FromInt(1), false)
	require.NoError(t, ctx.Declare("x", value.NewVariableRef(v)))

	got := evalInt(t, ctx,
		ast.NamedReferenceAtom{Name: "x"},
		lit(ast.IntLiteral{Value: 41}),
		ast.OperatorRPNAtom{Op: ast.OpAssign},
	)
	assert.Equal(t, int64(41), got)
	assert.Equal(t, value.FromInt(41), v.Value())
}

func TestEvalPostIncrementReturnsOldValue(t *testing.T) {
	ctx := scope.NewExecutiveContext(nil)
	v := value.NewVariable(value.FromInt(10), false)
	require.NoError(t, ctx.Declare("x", value.NewVariableRef(v)))

	got := evalInt(t, ctx,
		ast.NamedReferenceAtom{Name: "x"},
		ast.OperatorRPNAtom{Op: ast.OpPostIncrement},
	)
	assert.Equal(t, int64(10), got)
	assert.Equal(t, value.FromInt(11), v.Value())
}

func TestEvalIndexIntoArray(t *testing.T) {
	ctx := scope.NewExecutiveContext(nil)
	v := value.NewVariable(value.NewArray(value.FromInt(7), value.FromInt(8)), false)
	require.NoError(t, ctx.Declare("arr", value.NewVariableRef(v)))

	got := evalInt(t, ctx,
		ast.NamedReferenceAtom{Name: "arr"},
		lit(ast.IntLiteral{Value: 1}),
		ast.OperatorRPNAtom{Op: ast.OpIndex},
	)
	assert.Equal(t, int64(8), got)
}

func TestEvalBranchShortCircuitsUnchosenSide(t *testing.T) {
	ctx := scope.NewExecutiveContext(nil)
	ref, err := Eval(ast.Expression{Atoms: []ast.Atom{
		lit(ast.BoolLiteral{Value: true}),
		ast.BranchAtom{
			Then: ast.Expression{Atoms: []ast.Atom{lit(ast.IntLiteral{Value: 1})}},
			Else: ast.Expression{Atoms: []ast.Atom{
				lit(ast.IntLiteral{Value: 1}),
				lit(ast.IntLiteral{Value: 0}),
				ast.OperatorRPNAtom{Op: ast.OpDiv},
			}},
		},
	}}, ctx)
	require.NoError(t, err)
	v, _ := ref.Read()
	i, _ := v.AsInt()
	assert.Equal(t, int64(1), i)
}

func TestShiftLogicalVsArithDiffer(t *testing.T) {
	v, err := applyBinary(ast.OpShiftRightLogical, value.FromInt(-8), value.FromInt(1))
	require.NoError(t, err)
	logical, _ := v.AsInt()

	v, err = applyBinary(ast.OpShiftRightArith, value.FromInt(-8), value.FromInt(1))
	require.NoError(t, err)
	arith, _ := v.AsInt()

	assert.Equal(t, int64(-4), arith, "arithmetic right shift sign-extends")
	assert.NotEqual(t, logical, arith, "logical right shift must not sign-extend")
}

func TestComparisonAcrossKindsErrors(t *testing.T) {
	_, err := applyBinary(ast.OpLt, value.FromString("a"), value.FromInt(1))
	assert.Error(t, err)
}
