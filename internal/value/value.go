// Package value implements Asteria's data model: the tagged Value union,
// its copy-on-write array and object containers, the mutable Variable
// cell, and the Reference lvalue/rvalue abstraction built on top of them.
//
// These three concepts are kept in one package because they are never
// used independently: a Reference's root is either a Value snapshot or
// a Variable, and Variable is just a named Value cell. Splitting them
// would only produce an import cycle between the pieces.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind tags the eight primitive/composite shapes a Value can hold.
type Kind uint8

const (
	Null Kind = iota
	Boolean
	Integer
	Real
	String
	ArrayKind
	ObjectKind
	FunctionKind
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Boolean:
		return "boolean"
	case Integer:
		return "integer"
	case Real:
		return "real"
	case String:
		return "string"
	case ArrayKind:
		return "array"
	case ObjectKind:
		return "object"
	case FunctionKind:
		return "function"
	default:
		return "unknown"
	}
}

// Callable is the handle a function-kind Value shares. Both native and
// interpreted functions (package function) implement it.
type Callable interface {
	Invoke(receiver *Reference, args []Reference) (Reference, error)
	Describe() string
	// EnumerateVariables visits every Variable this callable keeps alive
	// through closure capture, for the Collector's reachability trace.
	// visit reports whether v was not already visited; when it returns
	// false the callable must not recurse further through v, since a
	// captured closure can cycle back to something already on the walk.
	EnumerateVariables(visit func(v *Variable) bool)
}

// Value is the tagged union every dynamically-typed script value reduces
// to at runtime. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	r    float64
	s    string
	arr  *Array
	obj  *Object
	fn   Callable
}

func Null() Value           { return Value{kind: Null} }
func FromBool(b bool) Value { return Value{kind: Boolean, b: b} }
func FromInt(i int64) Value { return Value{kind: Integer, i: i} }
func FromReal(r float64) Value { return Value{kind: Real, r: r} }
func FromString(s string) Value { return Value{kind: String, s: s} }
func FromArray(a *Array) Value  { return Value{kind: ArrayKind, arr: a} }
func FromObject(o *Object) Value { return Value{kind: ObjectKind, obj: o} }
func FromFunction(c Callable) Value { return Value{kind: FunctionKind, fn: c} }

func NewArray(elems ...Value) Value { return FromArray(&Array{elems: append([]Value(nil), elems...)}) }
func NewObject() Value              { return FromObject(&Object{}) }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == Null }

func (v Value) AsBool() (bool, bool)       { return v.b, v.kind == Boolean }
func (v Value) AsInt() (int64, bool)       { return v.i, v.kind == Integer }
func (v Value) AsReal() (float64, bool)    { return v.r, v.kind == Real }
func (v Value) AsString() (string, bool)   { return v.s, v.kind == String }
func (v Value) AsArray() (*Array, bool)    { return v.arr, v.kind == ArrayKind }
func (v Value) AsObject() (*Object, bool)  { return v.obj, v.kind == ObjectKind }
func (v Value) AsFunction() (Callable, bool) { return v.fn, v.kind == FunctionKind }

// Truthy implements truthiness coercion for conditionals and logical operators.
func (v Value) Truthy() bool {
	switch v.kind {
	case Null:
		return false
	case Boolean:
		return v.b
	case Integer:
		return v.i != 0
	case Real:
		return v.r != 0
	case String:
		return v.s != ""
	case ArrayKind:
		return v.arr.Len() > 0
	case ObjectKind:
		return v.obj.Len() > 0
	case FunctionKind:
		return true
	default:
		return false
	}
}

// Clone returns an independent top-level snapshot. Containers are cloned
// shallowly: a fresh backing slice/map is allocated, but elements that are
// themselves arrays/objects keep sharing their own backing storage until
// *they* are mutated through a Reference, at which point that inner level
// is cloned in turn: cheap top-level copies, with sharing broken lazily
// per nesting level.
func (v Value) Clone() Value {
	switch v.kind {
	case ArrayKind:
		return FromArray(v.arr.clone())
	case ObjectKind:
		return FromObject(v.obj.clone())
	default:
		return v
	}
}

// Equal implements structural equality. Ordering/equality is only defined
// within the same kind, except integer/real which compare numerically.
func Equal(a, b Value) bool {
	switch {
	case a.kind == Integer && b.kind == Real:
		return float64(a.i) == b.r
	case a.kind == Real && b.kind == Integer:
		return a.r == float64(b.i)
	case a.kind != b.kind:
		return false
	}
	switch a.kind {
	case Null:
		return true
	case Boolean:
		return a.b == b.b
	case Integer:
		return a.i == b.i
	case Real:
		return a.r == b.r
	case String:
		return a.s == b.s
	case ArrayKind:
		return a.arr.equal(b.arr)
	case ObjectKind:
		return a.obj.equal(b.obj)
	case FunctionKind:
		return a.fn == b.fn
	default:
		return false
	}
}

// Compare orders two values of the same kind (or int/real). ok is false
// when the kinds are not comparable.
func Compare(a, b Value) (less, equal bool, ok bool) {
	aIsNum := a.kind == Integer || a.kind == Real
	bIsNum := b.kind == Integer || b.kind == Real
	if aIsNum && bIsNum {
		af := a.r
		if a.kind == Integer {
			af = float64(a.i)
		}
		bf := b.r
		if b.kind == Integer {
			bf = float64(b.i)
		}
		if a.kind == Integer && b.kind == Integer {
			return a.i < b.i, a.i == b.i, true
		}
		return af < bf, af == bf, true
	}
	if a.kind != b.kind {
		return false, false, false
	}
	switch a.kind {
	case String:
		return a.s < b.s, a.s == b.s, true
	case Boolean:
		return !a.b && b.b, a.b == b.b, true
	default:
		return false, Equal(a, b), a.kind == Null
	}
}

// String renders a value for diagnostics (not script-level toString).
func (v Value) String() string {
	switch v.kind {
	case Null:
		return "null"
	case Boolean:
		return strconv.FormatBool(v.b)
	case Integer:
		return strconv.FormatInt(v.i, 10)
	case Real:
		return formatReal(v.r)
	case String:
		return strconv.Quote(v.s)
	case ArrayKind:
		parts := make([]string, v.arr.Len())
		for i, e := range v.arr.elems {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ObjectKind:
		parts := make([]string, 0, v.obj.Len())
		for _, k := range v.obj.keys {
			val, _ := v.obj.Get(k)
			parts = append(parts, strconv.Quote(k)+": "+val.String())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case FunctionKind:
		return fmt.Sprintf("function<%s>", v.fn.Describe())
	default:
		return "<unknown>"
	}
}

func formatReal(r float64) string {
	if math.IsNaN(r) {
		return "nan"
	}
	if math.IsInf(r, 1) {
		return "infinity"
	}
	if math.IsInf(r, -1) {
		return "-infinity"
	}
	return strconv.FormatFloat(r, 'g', -1, 64)
}

// Array is a copy-on-write ordered sequence of Values.
type Array struct {
	elems []Value
}

func (a *Array) Len() int {
	if a == nil {
		return 0
	}
	return len(a.elems)
}

// Get returns the element at i, or null if i is out of range: reading
// out of range yields null, never an error.
func (a *Array) Get(i int) Value {
	if a == nil || i < 0 || i >= len(a.elems) {
		return Null()
	}
	return a.elems[i]
}

func (a *Array) clone() *Array {
	if a == nil {
		return &Array{}
	}
	return &Array{elems: append([]Value(nil), a.elems...)}
}

func (a *Array) equal(b *Array) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := range a.elems {
		if !Equal(a.elems[i], b.elems[i]) {
			return false
		}
	}
	return true
}

// Elements exposes the backing slice for read-only iteration (for-each).
// Callers must not mutate the returned slice.
func (a *Array) Elements() []Value {
	if a == nil {
		return nil
	}
	return a.elems
}

// NormalizeIndex wraps a negative index once (so -1 means "last
// element"). The result may still be negative if it wraps past the front.
func NormalizeIndex(i int64, length int) int64 {
	if i >= 0 {
		return i
	}
	return i + int64(length)
}

// drillIndex auto-vivifies up to and including index idx (already
// normalized), prepending/appending nulls as needed, and returns a
// pointer to the now-valid slot.
func (a *Array) drillIndex(idx int64) (*Value, error) {
	if idx < 0 {
		prepend := -idx
		if prepend > int64(^uint(0)>>1) {
			return nil, fmt.Errorf("array growth overflow")
		}
		filler := make([]Value, prepend)
		a.elems = append(filler, a.elems...)
		idx = 0
	} else if idx >= int64(len(a.elems)) {
		grow := idx - int64(len(a.elems)) + 1
		a.elems = append(a.elems, make([]Value, grow)...)
	}
	return &a.elems[idx], nil
}

// Object is a copy-on-write insertion-ordered string->Value mapping.
type Object struct {
	keys []string
	idx  map[string]int
	vals []Value
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

func (o *Object) Get(key string) (Value, bool) {
	if o == nil || o.idx == nil {
		return Null(), false
	}
	i, ok := o.idx[key]
	if !ok {
		return Null(), false
	}
	return o.vals[i], true
}

func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return o.keys
}

func (o *Object) Set(key string, v Value) {
	if o.idx == nil {
		o.idx = make(map[string]int)
	}
	if i, ok := o.idx[key]; ok {
		o.vals[i] = v
		return
	}
	o.idx[key] = len(o.keys)
	o.keys = append(o.keys, key)
	o.vals = append(o.vals, v)
}

func (o *Object) clone() *Object {
	if o == nil {
		return &Object{}
	}
	n := &Object{
		keys: append([]string(nil), o.keys...),
		vals: append([]Value(nil), o.vals...),
		idx:  make(map[string]int, len(o.idx)),
	}
	for k, i := range o.idx {
		n.idx[k] = i
	}
	return n
}

func (o *Object) equal(b *Object) bool {
	if o.Len() != b.Len() {
		return false
	}
	for _, k := range o.keys {
		av, _ := o.Get(k)
		bv, ok := b.Get(k)
		if !ok || !Equal(av, bv) {
			return false
		}
	}
	return true
}

// drillKey auto-vivifies key if missing (inserting null) and returns a
// pointer to the slot.
func (o *Object) drillKey(key string) *Value {
	if o.idx == nil {
		o.idx = make(map[string]int)
	}
	if i, ok := o.idx[key]; ok {
		return &o.vals[i]
	}
	o.Set(key, Null())
	return &o.vals[o.idx[key]]
}
