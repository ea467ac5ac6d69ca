// Package scope implements Asteria's Context/Scope component: a
// name->Reference mapping chained to a parent, in two flavors that
// share the same lookup/declare contract — an analytic flavor used
// during binding (existence only) and an executive flavor used during
// execution (live References) — plus the predefined-name and
// reserved-name rules both share.
package scope

import (
	"fmt"
	"strings"

	"github.com/asteria-lang/asteria/internal/value"
)

// IsReserved reports whether name is reserved for the engine: names
// beginning with __ are reserved for engine-managed bindings.
func IsReserved(name string) bool {
	return strings.HasPrefix(name, "__")
}

// AnalyticContext is used during the bind phase. It only tracks whether
// a name exists in scope; it never holds a live Reference.
type AnalyticContext struct {
	parent *AnalyticContext
	names  map[string]struct{}
}

func NewAnalyticContext(parent *AnalyticContext) *AnalyticContext {
	return &AnalyticContext{parent: parent, names: make(map[string]struct{})}
}

func (c *AnalyticContext) Parent() *AnalyticContext { return c.parent }

// Declare registers name as existing in this scope. It returns an error
// if name is reserved; reserved predefined names are declared through
// DeclarePredefined instead, which bypasses this check.
func (c *AnalyticContext) Declare(name string) error {
	if IsReserved(name) {
		return fmt.Errorf("identifier %q is reserved and cannot be declared", name)
	}
	c.names[name] = struct{}{}
	return nil
}

// DeclarePredefined registers one of the engine's own __file/__line/...
// names, which are exempt from the reserved-name check.
func (c *AnalyticContext) DeclarePredefined(name string) {
	c.names[name] = struct{}{}
}

// VisibleNames collects every name declared anywhere in the parent
// chain, for diagnostics that suggest a correction to a misspelled
// identifier. Order is unspecified.
func (c *AnalyticContext) VisibleNames() []string {
	var names []string
	for ctx := c; ctx != nil; ctx = ctx.parent {
		for name := range ctx.names {
			if !IsReserved(name) {
				names = append(names, name)
			}
		}
	}
	return names
}

// Lookup walks the parent chain for name's existence.
func (c *AnalyticContext) Lookup(name string) bool {
	for ctx := c; ctx != nil; ctx = ctx.parent {
		if _, ok := ctx.names[name]; ok {
			return true
		}
	}
	return false
}

// ExecutiveContext is used during execute; it holds live References.
type ExecutiveContext struct {
	parent *ExecutiveContext
	refs   map[string]value.Reference
}

func NewExecutiveContext(parent *ExecutiveContext) *ExecutiveContext {
	return &ExecutiveContext{parent: parent, refs: make(map[string]value.Reference)}
}

func (c *ExecutiveContext) Parent() *ExecutiveContext { return c.parent }

// Declare binds name to ref in this scope, shadowing any parent binding.
// It rejects reserved names (the bind phase should have already caught
// these, so a runtime hit here indicates the bind phase was skipped).
func (c *ExecutiveContext) Declare(name string, ref value.Reference) error {
	if IsReserved(name) {
		return fmt.Errorf("identifier %q is reserved and cannot be declared", name)
	}
	c.refs[name] = ref
	return nil
}

// DeclarePredefined binds one of the engine's own __file/__line/...
// names for the current call frame.
func (c *ExecutiveContext) DeclarePredefined(name string, ref value.Reference) {
	c.refs[name] = ref
}

// Lookup walks the parent chain for name, returning its Reference.
func (c *ExecutiveContext) Lookup(name string) (value.Reference, bool) {
	for ctx := c; ctx != nil; ctx = ctx.parent {
		if ref, ok := ctx.refs[name]; ok {
			return ref, true
		}
	}
	return value.Reference{}, false
}

// EnumerateVariables visits every Variable directly bound in this scope
// level (not its parents; callers that need the whole chain, such as a
// closure capture walk, iterate Parent() themselves). Constant and
// temporary-rooted references contribute nothing. visit's bool result is
// threaded straight through to Variable.EnumerateVariables so a cyclic
// closure capture still terminates.
func (c *ExecutiveContext) EnumerateVariables(visit func(*value.Variable) bool) {
	for _, ref := range c.refs {
		if v, ok := ref.Variable(); ok {
			v.EnumerateVariables(visit)
		}
	}
}

// Predefined names bound inside every function call frame.
const (
	PredefinedFile = "__file"
	PredefinedLine = "__line"
	PredefinedFunc = "__func"
	PredefinedThis = "__this"
	PredefinedVarg = "__varg"
	// PredefinedBacktrace is populated in a fresh catch scope with the
	// thrown exception's accumulated frames.
	PredefinedBacktrace = "__backtrace"
)
