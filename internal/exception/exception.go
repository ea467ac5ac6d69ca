// Package exception implements the thrown-value carrier and backtrace
// accumulation. Control flow (break/continue/return) is modeled
// separately in package exec as status codes; Exception is reserved for
// values that actually unwind the Go call stack as an error.
package exception

import (
	"fmt"
	"strings"

	"github.com/asteria-lang/asteria/internal/ast"
	"github.com/asteria-lang/asteria/internal/value"
)

// Exception carries a thrown Value plus the accumulated call chain.
type Exception struct {
	Origin ast.SourceLocation
	Value  value.Value
	Frames []ast.SourceLocation
}

// New constructs an exception at the point of a `throw` statement.
func New(origin ast.SourceLocation, v value.Value) *Exception {
	return &Exception{Origin: origin, Value: v}
}

// NewNative wraps a host-side runtime error (type error, divide by
// zero, immutability violation, ...) as a string-valued exception whose
// origin is the synthetic "<native code>" location.
func NewNative(format string, args ...interface{}) *Exception {
	return &Exception{
		Origin: ast.SourceLocation{File: "<native code>", Line: 0},
		Value:  value.FromString(fmt.Sprintf(format, args...)),
	}
}

// AppendFrame records the location of the statement currently unwinding:
// every frame that catches an in-flight exception for propagation
// appends its own location before rethrowing.
func (e *Exception) AppendFrame(loc ast.SourceLocation) {
	e.Frames = append(e.Frames, loc)
}

// Error implements the Go error interface so Exception can propagate
// through ordinary Go return values.
func (e *Exception) Error() string {
	return fmt.Sprintf("uncaught exception: %s", e.Value.String())
}

// BacktraceValue renders the exception's frames as the array of
// {file, line} objects bound to __backtrace inside a catch block,
// thrown location first.
func (e *Exception) BacktraceValue() value.Value {
	elems := make([]value.Value, 0, len(e.Frames)+1)
	elems = append(elems, frameObject(e.Origin))
	for _, f := range e.Frames {
		elems = append(elems, frameObject(f))
	}
	return value.NewArray(elems...)
}

func frameObject(loc ast.SourceLocation) value.Value {
	obj, _ := value.NewObject().AsObject()
	obj.Set("file", value.FromString(loc.File))
	obj.Set("line", value.FromInt(int64(loc.Line)))
	return value.FromObject(obj)
}

// FormatBacktrace renders the full chain for the driver's uncaught-
// exception report.
func (e *Exception) FormatBacktrace() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n  thrown at %s\n", e.Value.String(), e.Origin)
	for _, f := range e.Frames {
		fmt.Fprintf(&b, "  from %s\n", f)
	}
	return b.String()
}

// BindError is a bind-phase error (reserved name declaration, duplicate
// default clause, illegal `continue switch`, ...). Unlike Exception it
// never enters the runtime: it aborts compilation.
type BindError struct {
	Loc     ast.SourceLocation
	Message string
}

func (e *BindError) Error() string {
	return fmt.Sprintf("%s: %s", e.Loc, e.Message)
}

func NewBindError(loc ast.SourceLocation, format string, args ...interface{}) *BindError {
	return &BindError{Loc: loc, Message: fmt.Sprintf(format, args...)}
}
