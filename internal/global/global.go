// Package global assembles the engine's top-level Global Context: the
// root executive scope every script runs against, backed by a
// collector.Collector for variable lifetime and pre-seeded with the
// natives packages register through Define. It is the single object
// that owns global state and the handles injected for host
// capabilities.
package global

import (
	"github.com/asteria-lang/asteria/internal/collector"
	"github.com/asteria-lang/asteria/internal/exec"
	"github.com/asteria-lang/asteria/internal/function"
	"github.com/asteria-lang/asteria/internal/scope"
	"github.com/asteria-lang/asteria/internal/value"
)

// Context is the root of every script's executive scope chain.
type Context struct {
	Collector *collector.Collector
	Root      *scope.ExecutiveContext
}

// New creates a Global Context whose Collector sweeps once the number of
// tracked variables reaches threshold (0 disables automatic sweeps).
func New(threshold int) *Context {
	c := collector.New(threshold)
	root := scope.NewExecutiveContext(nil)
	g := &Context{Collector: c, Root: root}
	c.AddRoot(rootAdapter{root})
	exec.Allocate = c.Allocate
	function.Allocate = c.Allocate
	return g
}

// rootAdapter lets collector.Root accept scope.ExecutiveContext without
// scope importing collector (scope has no business knowing the
// Collector exists; it only knows how to enumerate its own bindings).
type rootAdapter struct{ ctx *scope.ExecutiveContext }

func (r rootAdapter) EnumerateVariables(visit func(*value.Variable) bool) {
	for ctx := r.ctx; ctx != nil; ctx = ctx.Parent() {
		ctx.EnumerateVariables(visit)
	}
}

// Define binds a host value at the root scope, immutable by default:
// native bindings are not reassignable by script code. This is how
// natives/* packages register their callables and injected service
// handles (e.g. db_open, kv_open) onto the Global Context.
func (g *Context) Define(name string, v value.Value) {
	variable := g.Collector.Allocate(v, true)
	g.Root.DeclarePredefined(name, value.NewVariableRef(variable))
}

// NewScope creates a fresh child of the Global Context's root scope for
// one top-level script execution, so successive runs in the same
// embedding don't leak locals into each other while still sharing
// natives and the Collector.
func (g *Context) NewScope() *scope.ExecutiveContext {
	return scope.NewExecutiveContext(g.Root)
}
