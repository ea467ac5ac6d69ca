package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVariableLockPreventsFurtherAssignButNotDirectAssign(t *testing.T) {
	v := NewVariable(FromInt(1), false)
	assert.False(t, v.IsImmutable())
	v.Lock()
	assert.True(t, v.IsImmutable())

	ref := NewVariableRef(v)
	assert.Error(t, ref.WriteMut(FromInt(2)), "a locked variable rejects writes through a Reference")
	v.Assign(FromInt(3))
	assert.Equal(t, FromInt(3), v.Value(), "Assign bypasses the lock")
}

func TestEnumerateVariablesVisitsNestedContainers(t *testing.T) {
	inner := NewVariable(FromInt(5), false)
	capturingFn := &fakeCallable{captured: []*Variable{inner}}

	outer := NewVariable(NewArray(FromFunction(capturingFn)), false)

	var visited []*Variable
	seen := make(map[*Variable]bool)
	outer.EnumerateVariables(func(v *Variable) bool {
		if seen[v] {
			return false
		}
		seen[v] = true
		visited = append(visited, v)
		return true
	})

	assert.Contains(t, visited, outer)
	assert.Contains(t, visited, inner)
}

func TestEnumerateVariablesStopsOnCyclicClosureCapture(t *testing.T) {
	cyclic := NewVariable(Null(), false)
	cyclic.Assign(FromFunction(&fakeCallable{captured: []*Variable{cyclic}}))

	var visitCount int
	seen := make(map[*Variable]bool)
	cyclic.EnumerateVariables(func(v *Variable) bool {
		if seen[v] {
			return false
		}
		seen[v] = true
		visitCount++
		return true
	})

	assert.Equal(t, 1, visitCount, "a variable that closes over itself must only be visited once")
}

type fakeCallable struct {
	captured []*Variable
}

func (f *fakeCallable) Invoke(receiver *Reference, args []Reference) (Reference, error) {
	return NewTemporary(Null()), nil
}
func (f *fakeCallable) Describe() string { return "fake" }
func (f *fakeCallable) EnumerateVariables(visit func(*Variable) bool) {
	for _, v := range f.captured {
		v.EnumerateVariables(visit)
	}
}
