package value

// Variable is a shared, mutable heap cell. Multiple References may alias
// the same Variable; it is the unit of sharing in Asteria.
type Variable struct {
	val       Value
	immutable bool

	// gcID is assigned by the Global Context registry on creation and
	// used by the Collector to key its reachability/registry maps. Zero
	// means the variable was never registered (e.g. scratch variables
	// created by tests without a global context).
	gcID uint64
}

// NewVariable creates an unregistered variable. Production code goes
// through collector.Collector.Allocate (wired into exec.Allocate and
// function.Allocate by global.New) so the Collector can track it; this
// constructor exists for isolated unit tests of lower layers.
func NewVariable(v Value, immutable bool) *Variable {
	return &Variable{val: v, immutable: immutable}
}

func (v *Variable) Value() Value { return v.val }
func (v *Variable) IsImmutable() bool { return v.immutable }
func (v *Variable) Lock()            { v.immutable = true }

func (v *Variable) GCID() uint64     { return v.gcID }
func (v *Variable) SetGCID(id uint64) { v.gcID = id }

// Assign overwrites the variable's value unconditionally. Immutability is
// enforced by Reference.WriteMut, not here, so that a freshly declared
// `const` variable can still receive its initializer before being locked.
func (v *Variable) Assign(val Value) { v.val = val }

// EnumerateVariables visits the variables reachable from this variable's
// value: itself, then recursively through any captured function, array,
// or object contents. Arrays/objects can only reach further variables
// through function values they contain; they cannot cycle on their own,
// but a closure capturing a variable that (transitively) holds that same
// closure can, so visit's return value gates the recursion: once it
// reports a variable as already seen, EnumerateVariables stops walking
// that branch instead of looping forever.
func (v *Variable) EnumerateVariables(visit func(*Variable) bool) {
	if !visit(v) {
		return
	}
	enumerateValue(v.val, visit)
}

func enumerateValue(val Value, visit func(*Variable) bool) {
	switch val.Kind() {
	case ArrayKind:
		arr, _ := val.AsArray()
		for _, e := range arr.Elements() {
			enumerateValue(e, visit)
		}
	case ObjectKind:
		obj, _ := val.AsObject()
		for _, k := range obj.Keys() {
			e, _ := obj.Get(k)
			enumerateValue(e, visit)
		}
	case FunctionKind:
		fn, _ := val.AsFunction()
		if fn != nil {
			fn.EnumerateVariables(visit)
		}
	}
}
