// Package function implements Asteria's two Callable flavors:
// NativeFunction, a thin wrapper around a Go closure used to expose
// host capabilities, and InstantiatedFunction, a parsed function/lambda
// body bound to the analytic context it closed over.
//
// Executing an InstantiatedFunction's body requires the statement
// executor in package exec, but exec in turn needs to construct function
// values when it encounters a function/lambda definition. Rather than
// import each other, both sides depend on the BodyExecutor interface
// declared here; package exec assigns its concrete implementation to
// Executor from its init function, the same dependency-injection shape
// used elsewhere in this codebase for injected host handles.
package function

import (
	"fmt"

	"github.com/asteria-lang/asteria/internal/ast"
	"github.com/asteria-lang/asteria/internal/exception"
	"github.com/asteria-lang/asteria/internal/scope"
	"github.com/asteria-lang/asteria/internal/value"
)

// ExecResult is what running a function body produces: either it fell
// off the end (Returned == false, Value is an implicit null), or it hit
// a return statement carrying Value (by reference if ByRef).
type ExecResult struct {
	Returned bool
	ByRef    bool
	Value    value.Reference
}

// BodyExecutor runs a parsed block against a fresh executive scope.
// Implemented by package exec.
type BodyExecutor interface {
	ExecuteFunctionBody(body ast.Block, ctx *scope.ExecutiveContext) (ExecResult, error)
}

// Executor is assigned once by package exec's init function. It is
// a package-level var rather than a constructor parameter because every
// InstantiatedFunction in the program shares the same executor and
// threading it through every closure literal would be pure boilerplate.
var Executor BodyExecutor

// Allocate is how a call frame materializes by-value parameters into
// tracked Variables. Assigned once by package global's startup wiring so
// parameters are Collector-tracked like any other var binding; until
// then the default, value.NewVariable, allocates an unregistered
// Variable, sufficient for unit tests of this package in isolation.
var Allocate value.VariableAllocator = value.NewVariable

// NativeFunction exposes a host-implemented capability as a callable
// Asteria value.
type NativeFunction struct {
	Name string
	Fn   func(receiver *value.Reference, args []value.Reference) (value.Reference, error)
}

func NewNative(name string, fn func(receiver *value.Reference, args []value.Reference) (value.Reference, error)) *NativeFunction {
	return &NativeFunction{Name: name, Fn: fn}
}

func (n *NativeFunction) Invoke(receiver *value.Reference, args []value.Reference) (value.Reference, error) {
	return n.Fn(receiver, args)
}

func (n *NativeFunction) Describe() string { return n.Name }

// NativeFunction captures no Asteria variables by closure.
func (n *NativeFunction) EnumerateVariables(visit func(*value.Variable) bool) {}

// InstantiatedFunction is a closure: a function/lambda body plus the
// executive scope chain that was live at the point of its definition.
type InstantiatedFunction struct {
	Header  ast.FunctionHeader
	Params  []ast.Parameter
	Body    ast.Block
	Closure *scope.ExecutiveContext
}

func New(header ast.FunctionHeader, params []ast.Parameter, body ast.Block, closure *scope.ExecutiveContext) *InstantiatedFunction {
	return &InstantiatedFunction{Header: header, Params: params, Body: body, Closure: closure}
}

func (f *InstantiatedFunction) Describe() string {
	if f.Header.FuncName == "" {
		return "lambda"
	}
	return f.Header.FuncName
}

// Invoke binds the call frame's predefined names and parameters into a
// fresh scope chained to the closure, then runs the body:
//
//  1. a child of f.Closure is created so the call cannot leak locals
//     back into the defining scope;
//  2. __file/__line/__func are bound from the function's own header,
//     not the call site;
//  3. __this is bound to receiver (null if the call has none);
//  4. positional parameters consume args left to right; by-ref
//     parameters alias the caller's Reference directly, by-value
//     parameters materialize a fresh Variable; surplus args are
//     collected into __varg.
func (f *InstantiatedFunction) Invoke(receiver *value.Reference, args []value.Reference) (value.Reference, error) {
	if Executor == nil {
		return value.Reference{}, fmt.Errorf("function executor is not wired")
	}

	frame := scope.NewExecutiveContext(f.Closure)
	frame.DeclarePredefined(scope.PredefinedFile, value.NewConstant(value.FromString(f.Header.Loc.File)))
	frame.DeclarePredefined(scope.PredefinedLine, value.NewConstant(value.FromInt(int64(f.Header.Loc.Line))))
	frame.DeclarePredefined(scope.PredefinedFunc, value.NewConstant(value.FromString(f.Describe())))

	var thisVal value.Value
	if receiver != nil {
		v, err := receiver.Read()
		if err != nil {
			return value.Reference{}, err
		}
		thisVal = v
	} else {
		thisVal = value.Null()
	}
	frame.DeclarePredefined(scope.PredefinedThis, value.NewConstant(thisVal))

	for i, p := range f.Params {
		if p.Name == "" {
			continue
		}
		if i >= len(args) {
			frame.DeclarePredefined(p.Name, value.NewVariableRef(Allocate(value.Null(), false)))
			continue
		}
		if err := bindParam(frame, p, args[i]); err != nil {
			return value.Reference{}, err
		}
	}

	varg := make([]value.Value, 0)
	if len(args) > len(f.Params) {
		for _, extra := range args[len(f.Params):] {
			v, err := extra.Read()
			if err != nil {
				return value.Reference{}, err
			}
			varg = append(varg, v.Clone())
		}
	}
	frame.DeclarePredefined(scope.PredefinedVarg, value.NewConstant(value.NewArray(varg...)))

	result, err := Executor.ExecuteFunctionBody(f.Body, frame)
	if err != nil {
		if exc, ok := err.(*exception.Exception); ok {
			exc.AppendFrame(f.Header.Loc)
		}
		return value.Reference{}, err
	}
	if !result.Returned {
		return value.NewTemporary(value.Null()), nil
	}
	// exec already converted the result to a temporary when the return
	// statement was not by-reference, so there is nothing left to do here.
	return result.Value, nil
}

// bindParam binds one positional parameter into frame: by-ref parameters
// alias the caller's Reference directly, by-value parameters are
// materialized into a fresh tracked Variable so the body can reassign
// them (`func f(x){ x = x+1; return x; }`) without touching the caller's
// argument.
func bindParam(frame *scope.ExecutiveContext, p ast.Parameter, arg value.Reference) error {
	if p.ByRef {
		frame.DeclarePredefined(p.Name, arg)
		return nil
	}
	v, err := arg.Read()
	if err != nil {
		return err
	}
	frame.DeclarePredefined(p.Name, value.NewVariableRef(Allocate(v.Clone(), false)))
	return nil
}

// EnumerateVariables visits every Variable reachable through the
// closure's captured scope chain, for the Collector's reachability
// trace.
func (f *InstantiatedFunction) EnumerateVariables(visit func(*value.Variable) bool) {
	for ctx := f.Closure; ctx != nil; ctx = ctx.Parent() {
		ctx.EnumerateVariables(visit)
	}
}
