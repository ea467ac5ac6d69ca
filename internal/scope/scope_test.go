package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asteria-lang/asteria/internal/value"
)

func TestIsReserved(t *testing.T) {
	assert.True(t, IsReserved("__file"))
	assert.True(t, IsReserved("__this"))
	assert.False(t, IsReserved("x"))
	assert.False(t, IsReserved("_single"))
}

func TestAnalyticContextDeclareRejectsReservedNames(t *testing.T) {
	root := NewAnalyticContext(nil)
	require.NoError(t, root.Declare("x"))
	assert.True(t, root.Lookup("x"))

	err := root.Declare("__sneaky")
	assert.Error(t, err)
	assert.False(t, root.Lookup("__sneaky"))

	root.DeclarePredefined("__func")
	assert.True(t, root.Lookup("__func"))
}

func TestAnalyticContextLookupWalksParentChain(t *testing.T) {
	root := NewAnalyticContext(nil)
	require.NoError(t, root.Declare("outer"))

	child := NewAnalyticContext(root)
	require.NoError(t, child.Declare("inner"))

	assert.True(t, child.Lookup("outer"))
	assert.True(t, child.Lookup("inner"))
	assert.False(t, root.Lookup("inner"))
}

func TestExecutiveContextDeclareAndShadow(t *testing.T) {
	root := NewExecutiveContext(nil)
	require.NoError(t, root.Declare("x", value.NewConstant(value.FromInt(1))))

	child := NewExecutiveContext(root)
	require.NoError(t, child.Declare("x", value.NewConstant(value.FromInt(2))))

	ref, ok := child.Lookup("x")
	require.True(t, ok)
	got, err := ref.Read()
	require.NoError(t, err)
	v, _ := got.AsInt()
	assert.Equal(t, int64(2), v)

	rootRef, ok := root.Lookup("x")
	require.True(t, ok)
	rootVal, err := rootRef.Read()
	require.NoError(t, err)
	rv, _ := rootVal.AsInt()
	assert.Equal(t, int64(1), rv)
}

func TestExecutiveContextDeclareRejectsReservedNames(t *testing.T) {
	ctx := NewExecutiveContext(nil)
	err := ctx.Declare("__this", value.NewConstant(value.Null()))
	assert.Error(t, err)

	ctx.DeclarePredefined("__this", value.NewConstant(value.FromString("obj")))
	ref, ok := ctx.Lookup("__this")
	require.True(t, ok)
	got, err := ref.Read()
	require.NoError(t, err)
	s, _ := got.AsString()
	assert.Equal(t, "obj", s)
}

func TestExecutiveContextLookupMissingName(t *testing.T) {
	ctx := NewExecutiveContext(nil)
	_, ok := ctx.Lookup("missing")
	assert.False(t, ok)
}
