package global

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asteria-lang/asteria/internal/value"
)

func TestDefineBindsImmutableRootName(t *testing.T) {
	g := New(0)
	g.Define("PI", value.FromReal(3.14))

	ref, ok := g.Root.Lookup("PI")
	require.True(t, ok)
	v, err := ref.Read()
	require.NoError(t, err)
	r, _ := v.AsReal()
	assert.Equal(t, 3.14, r)

	assert.Error(t, ref.WriteMut(value.FromReal(0)))
}

func TestNewScopeChildInheritsRootButIsolatesLocals(t *testing.T) {
	g := New(0)
	g.Define("shared", value.FromInt(1))

	a := g.NewScope()
	require.NoError(t, a.Declare("local", value.NewConstant(value.FromInt(9))))

	b := g.NewScope()
	_, ok := b.Lookup("local")
	assert.False(t, ok, "locals in one script scope must not leak into another")

	_, ok = b.Lookup("shared")
	assert.True(t, ok)
}
