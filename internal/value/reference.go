package value

import "fmt"

// RootKind tags a Reference's root variant.
type RootKind uint8

const (
	RootConstant RootKind = iota
	RootTemporary
	RootVariable
)

// Reference is the lvalue/rvalue abstraction: a root plus a chain of
// modifiers that drill into arrays/objects.
type Reference struct {
	rootKind RootKind
	constVal Value    // valid when rootKind == RootConstant
	tempVal  Value    // valid when rootKind == RootTemporary
	variable *Variable // valid when rootKind == RootVariable
	moved    bool      // true once a temporary root has been read-and-moved

	modifiers []Modifier
}

// Modifier is either an array index or an object key drilled through a
// reference chain.
type Modifier struct {
	isKey bool
	index int64
	key   string
}

func ArrayIndex(i int64) Modifier  { return Modifier{index: i} }
func ObjectKey(k string) Modifier  { return Modifier{isKey: true, key: k} }

// NewConstant wraps an unmodifiable snapshot (e.g. a literal atom).
func NewConstant(v Value) Reference { return Reference{rootKind: RootConstant, constVal: v} }

// NewTemporary wraps an unnamed movable value (e.g. an expression result
// not yet bound to a name).
func NewTemporary(v Value) Reference { return Reference{rootKind: RootTemporary, tempVal: v} }

// NewVariableRef aliases an existing Variable (an lvalue).
func NewVariableRef(v *Variable) Reference { return Reference{rootKind: RootVariable, variable: v} }

func (r Reference) RootKind() RootKind { return r.rootKind }

// PushModifier extends the reference chain with another modifier.
func (r Reference) PushModifier(m Modifier) Reference {
	mods := make([]Modifier, len(r.modifiers)+1)
	copy(mods, r.modifiers)
	mods[len(r.modifiers)] = m
	r.modifiers = mods
	return r
}

// PopModifier drops the last modifier, if any.
func (r Reference) PopModifier() Reference {
	if len(r.modifiers) == 0 {
		return r
	}
	r.modifiers = r.modifiers[:len(r.modifiers)-1]
	return r
}

// Clone copies a reference's modifier chain while sharing the root
// (constant/variable roots): a reference's root always outlives its
// modifiers. Cloning a temporary-rooted reference is an error: temporaries
// are non-copyable.
func (r Reference) Clone() (Reference, error) {
	if r.rootKind == RootTemporary {
		return Reference{}, fmt.Errorf("references holding a temporary value cannot be copied")
	}
	out := r
	out.modifiers = append([]Modifier(nil), r.modifiers...)
	return out, nil
}

func (r *Reference) readRoot() (Value, error) {
	switch r.rootKind {
	case RootConstant:
		return r.constVal, nil
	case RootTemporary:
		if r.moved {
			return Value{}, fmt.Errorf("temporary value has already been moved out")
		}
		return r.tempVal, nil
	case RootVariable:
		if r.variable == nil {
			return Null(), nil
		}
		return r.variable.Value(), nil
	default:
		return Value{}, fmt.Errorf("unknown reference root kind")
	}
}

// Read walks the modifier chain against the root value, returning null
// for out-of-range indices and missing keys.
func (r *Reference) Read() (Value, error) {
	v, err := r.readRoot()
	if err != nil {
		return Value{}, err
	}
	for _, m := range r.modifiers {
		if m.isKey {
			obj, ok := v.AsObject()
			if !ok {
				return Value{}, fmt.Errorf("only objects can be indexed by key, got %s", v.Kind())
			}
			val, found := obj.Get(m.key)
			if !found {
				return Null(), nil
			}
			v = val
			continue
		}
		arr, ok := v.AsArray()
		if !ok {
			return Value{}, fmt.Errorf("only arrays can be indexed by integer, got %s", v.Kind())
		}
		idx := NormalizeIndex(m.index, arr.Len())
		if idx < 0 || idx >= int64(arr.Len()) {
			return Null(), nil
		}
		v = arr.Get(int(idx))
	}
	return v, nil
}

// WriteMut auto-vivifies through the modifier chain and assigns val to
// the target slot.
func (r *Reference) WriteMut(val Value) error {
	if r.rootKind != RootVariable {
		return r.writeInvalidRoot()
	}
	if r.variable == nil {
		return fmt.Errorf("cannot write through a null reference")
	}
	if r.variable.IsImmutable() {
		return fmt.Errorf("cannot assign to immutable variable")
	}
	if len(r.modifiers) == 0 {
		r.variable.Assign(val)
		return nil
	}
	root := r.variable.Value().Clone()
	slot, err := drillInto(&root, r.modifiers)
	if err != nil {
		return err
	}
	*slot = val
	r.variable.Assign(root)
	return nil
}

func (r *Reference) writeInvalidRoot() error {
	switch r.rootKind {
	case RootConstant:
		return fmt.Errorf("cannot write through a constant reference")
	case RootTemporary:
		return fmt.Errorf("cannot write through a temporary reference")
	default:
		return fmt.Errorf("cannot write through this reference")
	}
}

// drillInto walks mods against root, auto-vivifying arrays/objects as
// needed, and returns a pointer to the final slot. Every container it
// descends into is cloned first (mirroring Value.Clone's documented
// per-level copy-on-write contract), so mutating the returned slot can
// never reach back into a container some other Variable still shares.
func drillInto(root *Value, mods []Modifier) (*Value, error) {
	cur := root
	for _, m := range mods {
		if m.isKey {
			obj, ok := cur.AsObject()
			if !ok {
				if cur.IsNull() {
					obj = &Object{}
				} else {
					return nil, fmt.Errorf("only objects can be indexed by key, got %s", cur.Kind())
				}
			} else {
				obj = obj.clone()
			}
			*cur = FromObject(obj)
			cur = obj.drillKey(m.key)
			continue
		}
		arr, ok := cur.AsArray()
		if !ok {
			if cur.IsNull() {
				arr = &Array{}
			} else {
				return nil, fmt.Errorf("only arrays can be indexed by integer, got %s", cur.Kind())
			}
		} else {
			arr = arr.clone()
		}
		*cur = FromArray(arr)
		idx := NormalizeIndex(m.index, arr.Len())
		slot, err := arr.drillIndex(idx)
		if err != nil {
			return nil, err
		}
		cur = slot
	}
	return cur, nil
}

// ConvertToTemporary dereferences the reference and replaces the root
// with a temporary snapshot, decoupling the result from any lvalue
// aliasing (used by `return` for by-value results).
func (r Reference) ConvertToTemporary() (Reference, error) {
	v, err := r.Read()
	if err != nil {
		return Reference{}, err
	}
	return NewTemporary(v.Clone()), nil
}

// VariableAllocator registers a freshly materialized Variable (e.g. with
// the Global Context's Collector registry) and returns it.
type VariableAllocator func(v Value, immutable bool) *Variable

// Materialize converts any reference into a freshly allocated
// variable-root reference, used for var/const bindings and closure
// capture.
func (r Reference) Materialize(immutable bool, alloc VariableAllocator) (Reference, error) {
	v, err := r.Read()
	if err != nil {
		return Reference{}, err
	}
	variable := alloc(v.Clone(), immutable)
	return NewVariableRef(variable), nil
}

// Variable returns the backing Variable when the root is a variable,
// e.g. so the executor can register it as a loop/catch binding.
func (r Reference) Variable() (*Variable, bool) {
	if r.rootKind != RootVariable {
		return nil, false
	}
	return r.variable, true
}

// String renders a reference chain for diagnostics and error messages.
func (r Reference) String() string {
	base := ""
	switch r.rootKind {
	case RootConstant:
		base = "constant " + r.constVal.String()
	case RootTemporary:
		base = "temporary value"
	case RootVariable:
		if r.variable != nil && r.variable.IsImmutable() {
			base = "local constant"
		} else {
			base = "local variable"
		}
	}
	for _, m := range r.modifiers {
		if m.isKey {
			base = fmt.Sprintf("the value having key %q in %s", m.key, base)
		} else {
			base = fmt.Sprintf("the element at index [%d] of %s", m.index, base)
		}
	}
	return base
}
