// Package driver is the engine's single entry point: bind a parsed
// script, then execute it as a function against a Global Context,
// producing either a result value or a formatted uncaught-exception
// report. cmd/asteria is a thin cobra wrapper around this package.
package driver

import (
	"errors"
	"fmt"

	"github.com/asteria-lang/asteria/internal/ast"
	"github.com/asteria-lang/asteria/internal/bind"
	"github.com/asteria-lang/asteria/internal/exception"
	"github.com/asteria-lang/asteria/internal/function"
	"github.com/asteria-lang/asteria/internal/global"
	"github.com/asteria-lang/asteria/internal/scope"
	"github.com/asteria-lang/asteria/internal/value"
)

// Result is what a top-level run produces on success.
type Result struct {
	Value value.Value
}

// Run binds and executes body as the top-level script function: body
// is wrapped in an implicit function taking varg, run against a fresh
// scope chained off g's root. The result is the value of the body's
// return statement, or null if the body ends without one. A *exception.BindError means the script never ran at all; a
// *exception.Exception means it ran and threw.
func Run(g *global.Context, header ast.FunctionHeader, body ast.Block, args []value.Value) (Result, error) {
	bindCtx := scope.NewAnalyticContext(nil)
	bindCtx.DeclarePredefined(scope.PredefinedFile)
	bindCtx.DeclarePredefined(scope.PredefinedLine)
	bindCtx.DeclarePredefined(scope.PredefinedFunc)
	bindCtx.DeclarePredefined(scope.PredefinedThis)
	bindCtx.DeclarePredefined(scope.PredefinedVarg)
	if err := bind.BindBlock(body, bindCtx); err != nil {
		return Result{}, err
	}

	entry := function.New(header, nil, body, g.Root)
	argRefs := make([]value.Reference, len(args))
	for i, a := range args {
		argRefs[i] = value.NewConstant(a)
	}

	ref, err := entry.Invoke(nil, argRefs)
	if err != nil {
		return Result{}, err
	}
	v, err := ref.Read()
	if err != nil {
		return Result{}, err
	}
	return Result{Value: v}, nil
}

// ExitCode maps a Run error to a process exit code: 0 on success, 1 on
// an uncaught script exception, 2 on a bind-time error (the script
// never started running).
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var bindErr *exception.BindError
	if errors.As(err, &bindErr) {
		return 2
	}
	return 1
}

// FormatError renders err for the CLI's stderr report: a bind error
// reports just its location and message (there is no backtrace, since
// binding never reaches a call frame), an uncaught exception reports
// its full backtrace.
func FormatError(err error) string {
	var bindErr *exception.BindError
	if errors.As(err, &bindErr) {
		return fmt.Sprintf("bind error: %s", bindErr.Error())
	}
	var exc *exception.Exception
	if errors.As(err, &exc) {
		return exc.FormatBacktrace()
	}
	return err.Error()
}
