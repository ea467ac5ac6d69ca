// Package bind implements the bind phase: a walk over a parsed Block
// that validates name usage against an AnalyticContext before anything
// runs, the same kind of pre-execution validation pass a type checker
// would run, generalized to scope checking since Asteria resolves
// names, not static types.
package bind

import (
	"fmt"

	"github.com/asteria-lang/asteria/internal/ast"
	"github.com/asteria-lang/asteria/internal/diagnostics"
	"github.com/asteria-lang/asteria/internal/exception"
	"github.com/asteria-lang/asteria/internal/scope"
)

// undeclaredError reports a name that was never declared in the visible
// scope chain, appending a "did you mean" hint when a nearby name exists.
func undeclaredError(loc ast.SourceLocation, name string, ctx *scope.AnalyticContext) error {
	msg := fmt.Sprintf("undeclared identifier %q", name)
	if hint := diagnostics.FormatSuggestions(diagnostics.SuggestName(name, ctx.VisibleNames())); hint != "" {
		msg = fmt.Sprintf("%s, %s", msg, hint)
	}
	return exception.NewBindError(loc, "%s", msg)
}

// BindBlock walks block against ctx, declaring names as it encounters
// them and rejecting reserved-name declarations, duplicate default
// switch clauses, and continue/break targets that cannot exist (a
// `continue switch` is forbidden since a switch has no loop body to
// resume). It returns the first violation found, wrapped as a
// *exception.BindError so the driver can format it without a runtime
// value attached.
func BindBlock(block ast.Block, ctx *scope.AnalyticContext) error {
	for _, stmt := range block.Statements {
		if err := bindStatement(stmt, ctx); err != nil {
			return err
		}
	}
	return nil
}

func bindStatement(stmt ast.Statement, ctx *scope.AnalyticContext) error {
	switch s := stmt.(type) {
	case ast.ExpressionStatement:
		return bindExpression(s.Expr, ctx)

	case ast.VariableDefinition:
		// Declare the name before binding its initializer: the new
		// variable starts out null and must be visible to its own
		// initializer (`var x = x;` reads the null it shadows, not an
		// undeclared-identifier error).
		if err := ctx.Declare(s.Name); err != nil {
			return err
		}
		return bindExpression(s.Init, ctx)

	case ast.FunctionDefinition:
		if err := ctx.Declare(s.Name); err != nil {
			return err
		}
		return bindFunctionBody(s.Header.Loc, s.Params, s.Body, ctx)

	case ast.IfStatement:
		if err := bindExpression(s.Condition, ctx); err != nil {
			return err
		}
		if err := BindBlock(s.Then, scope.NewAnalyticContext(ctx)); err != nil {
			return err
		}
		return BindBlock(s.Else, scope.NewAnalyticContext(ctx))

	case ast.SwitchStatement:
		return bindSwitch(s, ctx)

	case ast.DoWhileStatement:
		if err := BindBlock(s.Body, scope.NewAnalyticContext(ctx)); err != nil {
			return err
		}
		return bindExpression(s.Condition, ctx)

	case ast.WhileStatement:
		if err := bindExpression(s.Condition, ctx); err != nil {
			return err
		}
		return BindBlock(s.Body, scope.NewAnalyticContext(ctx))

	case ast.ForStatement:
		loopCtx := scope.NewAnalyticContext(ctx)
		if s.Init != nil {
			if err := bindStatement(s.Init, loopCtx); err != nil {
				return err
			}
		}
		if s.HasCond {
			if err := bindExpression(s.Cond, loopCtx); err != nil {
				return err
			}
		}
		if s.HasStep {
			if err := bindExpression(s.Step, loopCtx); err != nil {
				return err
			}
		}
		return BindBlock(s.Body, loopCtx)

	case ast.ForEachStatement:
		if err := bindExpression(s.Range, ctx); err != nil {
			return err
		}
		iterCtx := scope.NewAnalyticContext(ctx)
		if s.KeyName != "" {
			if err := iterCtx.Declare(s.KeyName); err != nil {
				return err
			}
		}
		if err := iterCtx.Declare(s.MappedName); err != nil {
			return err
		}
		return BindBlock(s.Body, iterCtx)

	case ast.TryStatement:
		if err := BindBlock(s.Try, scope.NewAnalyticContext(ctx)); err != nil {
			return err
		}
		catchCtx := scope.NewAnalyticContext(ctx)
		if s.ExceptName != "" {
			if err := catchCtx.Declare(s.ExceptName); err != nil {
				return err
			}
		}
		catchCtx.DeclarePredefined(scope.PredefinedBacktrace)
		return BindBlock(s.Catch, catchCtx)

	case ast.BreakStatement:
		return nil

	case ast.ContinueStatement:
		if s.Target == ast.TargetSwitch {
			return exception.NewBindError(s.Loc, "`continue` cannot target a switch statement")
		}
		return nil

	case ast.ThrowStatement:
		return bindExpression(s.Expr, ctx)

	case ast.ReturnStatement:
		return bindExpression(s.Expr, ctx)

	default:
		return nil
	}
}

// bindSwitch rejects more than one default clause and binds every
// clause body against one shared scope, matching exec's shared
// fall-through scope.
func bindSwitch(s ast.SwitchStatement, ctx *scope.AnalyticContext) error {
	if err := bindExpression(s.Control, ctx); err != nil {
		return err
	}
	shared := scope.NewAnalyticContext(ctx)
	sawDefault := false
	for _, cl := range s.Clauses {
		if !cl.HasExpr {
			if sawDefault {
				return exception.NewBindError(s.Loc, "switch statement has more than one default clause")
			}
			sawDefault = true
		} else if err := bindExpression(cl.Expr, shared); err != nil {
			return err
		}
		if err := BindBlock(cl.Body, shared); err != nil {
			return err
		}
	}
	return nil
}

func bindFunctionBody(loc ast.SourceLocation, params []ast.Parameter, body ast.Block, parent *scope.AnalyticContext) error {
	fnCtx := scope.NewAnalyticContext(parent)
	fnCtx.DeclarePredefined(scope.PredefinedFile)
	fnCtx.DeclarePredefined(scope.PredefinedLine)
	fnCtx.DeclarePredefined(scope.PredefinedFunc)
	fnCtx.DeclarePredefined(scope.PredefinedThis)
	fnCtx.DeclarePredefined(scope.PredefinedVarg)
	for _, p := range params {
		if p.Name == "" {
			continue
		}
		if err := fnCtx.Declare(p.Name); err != nil {
			return exception.NewBindError(loc, "%s", err.Error())
		}
	}
	return BindBlock(body, fnCtx)
}

func bindExpression(expr ast.Expression, ctx *scope.AnalyticContext) error {
	for _, atom := range expr.Atoms {
		if err := bindAtom(atom, ctx); err != nil {
			return err
		}
	}
	return nil
}

func bindAtom(atom ast.Atom, ctx *scope.AnalyticContext) error {
	switch a := atom.(type) {
	case ast.NamedReferenceAtom:
		if !ctx.Lookup(a.Name) {
			return undeclaredError(a.Loc, a.Name, ctx)
		}
		return nil
	case ast.BoundReferenceAtom:
		if !ctx.Lookup(a.Name) {
			return undeclaredError(a.Loc, a.Name, ctx)
		}
		return nil
	case ast.SubexpressionAtom:
		return bindExpression(a.Expr, ctx)
	case ast.LambdaDefinitionAtom:
		return bindFunctionBody(a.Header.Loc, a.Params, a.Body, ctx)
	case ast.BranchAtom:
		if err := bindExpression(a.Then, ctx); err != nil {
			return err
		}
		return bindExpression(a.Else, ctx)
	case ast.LiteralAtom, ast.FunctionCallAtom, ast.OperatorRPNAtom:
		return nil
	default:
		return nil
	}
}
