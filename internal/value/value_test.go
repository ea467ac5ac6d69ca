package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruthy(t *testing.T) {
	assert.False(t, Null().Truthy())
	assert.False(t, FromBool(false).Truthy())
	assert.True(t, FromBool(true).Truthy())
	assert.False(t, FromInt(0).Truthy())
	assert.True(t, FromInt(1).Truthy())
	assert.False(t, FromReal(0).Truthy())
	assert.False(t, FromString("").Truthy())
	assert.True(t, FromString("x").Truthy())
	assert.False(t, NewArray().Truthy())
	assert.True(t, NewArray(Null()).Truthy())
	assert.False(t, NewObject().Truthy())
}

func TestEqualStructural(t *testing.T) {
	a := NewArray(FromInt(1), NewArray(FromInt(2), FromInt(3)))
	b := NewArray(FromInt(1), NewArray(FromInt(2), FromInt(3)))
	assert.True(t, Equal(a, b))

	c := NewArray(FromInt(1), NewArray(FromInt(2), FromInt(4)))
	assert.False(t, Equal(a, c))

	assert.True(t, Equal(FromInt(2), FromReal(2.0)))
}

func TestCompareOrdersWithinKind(t *testing.T) {
	less, eq, ok := Compare(FromInt(1), FromInt(2))
	assert.True(t, ok)
	assert.True(t, less)
	assert.False(t, eq)

	_, _, ok = Compare(FromString("a"), FromInt(1))
	assert.False(t, ok)
}

func TestCloneIsIndependentAtTopLevel(t *testing.T) {
	original := NewArray(FromInt(1))
	cloned := original.Clone()

	arr, _ := cloned.AsArray()
	arr.elems[0] = FromInt(99)

	origArr, _ := original.AsArray()
	assert.Equal(t, int64(1), mustInt(t, origArr.Get(0)))
}

func mustInt(t *testing.T, v Value) int64 {
	t.Helper()
	i, ok := v.AsInt()
	if !ok {
		t.Fatalf("expected integer, got %s", v.Kind())
	}
	return i
}
