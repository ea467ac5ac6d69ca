// Package exec implements the statement/block executor: it walks an
// ast.Block's statements in order, producing a Status that tells the
// caller whether control fell through, broke, continued, or returned.
// Break/continue/return are an explicit Status value rather than errors,
// so a real *exception.Exception is the only thing left in the error
// channel.
package exec

import (
	"errors"
	"fmt"

	"github.com/asteria-lang/asteria/internal/ast"
	"github.com/asteria-lang/asteria/internal/eval"
	"github.com/asteria-lang/asteria/internal/exception"
	"github.com/asteria-lang/asteria/internal/function"
	"github.com/asteria-lang/asteria/internal/scope"
	"github.com/asteria-lang/asteria/internal/value"
)

type StatusKind int

const (
	StatusNext StatusKind = iota
	StatusBreak
	StatusContinue
	StatusReturn
)

// Status is what executing one statement or block produces.
type Status struct {
	Kind        StatusKind
	Target      ast.LoopTarget // meaningful for Break/Continue
	ReturnValue value.Reference
	ReturnByRef bool
}

var next = Status{Kind: StatusNext}

// Allocate is how exec materializes new Variables for var/const
// declarations and for-loop binders. Assigned once by package global's
// startup wiring so every allocation is tracked by the Collector; until
// then the default allocates an unregistered Variable, which is
// sufficient for unit tests of this package in isolation.
var Allocate value.VariableAllocator = func(v value.Value, immutable bool) *value.Variable {
	return value.NewVariable(v, immutable)
}

// Executor implements function.BodyExecutor so package function can run
// a closure's body without importing exec directly.
type Executor struct{}

func init() {
	function.Executor = Executor{}
}

func (Executor) ExecuteFunctionBody(body ast.Block, ctx *scope.ExecutiveContext) (function.ExecResult, error) {
	status, err := ExecuteBlock(body, ctx)
	if err != nil {
		return function.ExecResult{}, err
	}
	if status.Kind == StatusReturn {
		return function.ExecResult{Returned: true, ByRef: status.ReturnByRef, Value: status.ReturnValue}, nil
	}
	return function.ExecResult{Returned: false}, nil
}

// ExecuteBlock runs block in a fresh child scope of ctx: every block
// introduces its own lexical scope.
func ExecuteBlock(block ast.Block, ctx *scope.ExecutiveContext) (Status, error) {
	child := scope.NewExecutiveContext(ctx)
	return execStatements(block.Statements, child)
}

func execStatements(stmts []ast.Statement, ctx *scope.ExecutiveContext) (Status, error) {
	for _, stmt := range stmts {
		st, err := execStatement(stmt, ctx)
		if err != nil {
			return Status{}, err
		}
		if st.Kind != StatusNext {
			return st, nil
		}
	}
	return next, nil
}

func execStatement(stmt ast.Statement, ctx *scope.ExecutiveContext) (Status, error) {
	switch s := stmt.(type) {
	case ast.ExpressionStatement:
		if _, err := eval.Eval(s.Expr, ctx); err != nil {
			return Status{}, err
		}
		return next, nil

	case ast.VariableDefinition:
		// Declare a fresh variable initialized to null before evaluating
		// Init, so the name is visible to its own initializer (`var x =
		// x;` reads the null it shadows). Lock it afterward for `const`,
		// once its real initializer value has been assigned.
		variable := Allocate(value.Null(), false)
		if err := ctx.Declare(s.Name, value.NewVariableRef(variable)); err != nil {
			return Status{}, err
		}
		ref, err := eval.Eval(s.Init, ctx)
		if err != nil {
			return Status{}, err
		}
		v, err := ref.Read()
		if err != nil {
			return Status{}, err
		}
		variable.Assign(v.Clone())
		if s.Immutable {
			variable.Lock()
		}
		return next, nil

	case ast.FunctionDefinition:
		return execFunctionDefinition(s, ctx)

	case ast.IfStatement:
		return execIf(s, ctx)

	case ast.SwitchStatement:
		return execSwitch(s, ctx)

	case ast.DoWhileStatement:
		return execDoWhile(s, ctx)

	case ast.WhileStatement:
		return execWhile(s, ctx)

	case ast.ForStatement:
		return execFor(s, ctx)

	case ast.ForEachStatement:
		return execForEach(s, ctx)

	case ast.TryStatement:
		return execTry(s, ctx)

	case ast.BreakStatement:
		return Status{Kind: StatusBreak, Target: s.Target}, nil

	case ast.ContinueStatement:
		return Status{Kind: StatusContinue, Target: s.Target}, nil

	case ast.ThrowStatement:
		ref, err := eval.Eval(s.Expr, ctx)
		if err != nil {
			return Status{}, err
		}
		v, err := ref.Read()
		if err != nil {
			return Status{}, err
		}
		return Status{}, exception.New(s.Loc, v.Clone())

	case ast.ReturnStatement:
		ref, err := eval.Eval(s.Expr, ctx)
		if err != nil {
			return Status{}, err
		}
		if !s.ByRef {
			var err error
			ref, err = ref.ConvertToTemporary()
			if err != nil {
				return Status{}, err
			}
		}
		return Status{Kind: StatusReturn, ReturnValue: ref, ReturnByRef: s.ByRef}, nil

	default:
		return Status{}, fmt.Errorf("unsupported statement type %T", stmt)
	}
}

func execFunctionDefinition(s ast.FunctionDefinition, ctx *scope.ExecutiveContext) (Status, error) {
	fn := function.New(s.Header, s.Params, s.Body, ctx)
	variable := Allocate(value.FromFunction(fn), true)
	if err := ctx.Declare(s.Name, value.NewVariableRef(variable)); err != nil {
		return Status{}, err
	}
	return next, nil
}

func execIf(s ast.IfStatement, ctx *scope.ExecutiveContext) (Status, error) {
	ref, err := eval.Eval(s.Condition, ctx)
	if err != nil {
		return Status{}, err
	}
	v, err := ref.Read()
	if err != nil {
		return Status{}, err
	}
	if v.Truthy() {
		return ExecuteBlock(s.Then, ctx)
	}
	return ExecuteBlock(s.Else, ctx)
}

// execSwitch implements fall-through with a shared clause scope: unlike
// if/while, clause bodies are not separately scoped, so a variable
// declared in an earlier clause is still visible (and, if control jumps
// past it, still declared as null) in a later one. The pre-declare pass
// below is what lets control jump straight over a skipped declaration
// without leaving its name unbound.
func execSwitch(s ast.SwitchStatement, ctx *scope.ExecutiveContext) (Status, error) {
	ctrlRef, err := eval.Eval(s.Control, ctx)
	if err != nil {
		return Status{}, err
	}
	ctrlVal, err := ctrlRef.Read()
	if err != nil {
		return Status{}, err
	}

	shared := scope.NewExecutiveContext(ctx)
	for _, cl := range s.Clauses {
		preDeclareClause(cl, shared)
	}

	matchIdx, defaultIdx := -1, -1
	for i, cl := range s.Clauses {
		if !cl.HasExpr {
			defaultIdx = i
			continue
		}
		cref, err := eval.Eval(cl.Expr, shared)
		if err != nil {
			return Status{}, err
		}
		cv, err := cref.Read()
		if err != nil {
			return Status{}, err
		}
		if value.Equal(cv, ctrlVal) {
			matchIdx = i
			break
		}
	}
	if matchIdx == -1 {
		matchIdx = defaultIdx
	}
	if matchIdx == -1 {
		return next, nil
	}

	for i := matchIdx; i < len(s.Clauses); i++ {
		st, err := execStatements(s.Clauses[i].Body.Statements, shared)
		if err != nil {
			return Status{}, err
		}
		switch {
		case st.Kind == StatusNext:
			continue
		case st.Kind == StatusBreak && (st.Target == ast.TargetUnspecified || st.Target == ast.TargetSwitch):
			return next, nil
		default:
			return st, nil
		}
	}
	return next, nil
}

func preDeclareClause(cl ast.SwitchClause, ctx *scope.ExecutiveContext) {
	for _, stmt := range cl.Body.Statements {
		if def, ok := stmt.(ast.VariableDefinition); ok {
			variable := Allocate(value.Null(), false)
			ctx.Declare(def.Name, value.NewVariableRef(variable))
		}
	}
}

func execDoWhile(s ast.DoWhileStatement, ctx *scope.ExecutiveContext) (Status, error) {
	for {
		st, err := ExecuteBlock(s.Body, ctx)
		if err != nil {
			return Status{}, err
		}
		if brk, done := consumeLoopStatus(st, ast.TargetWhile); done {
			return brk, nil
		} else if brk.Kind == StatusReturn {
			return brk, nil
		}
		ref, err := eval.Eval(s.Condition, ctx)
		if err != nil {
			return Status{}, err
		}
		v, err := ref.Read()
		if err != nil {
			return Status{}, err
		}
		if !v.Truthy() {
			return next, nil
		}
	}
}

func execWhile(s ast.WhileStatement, ctx *scope.ExecutiveContext) (Status, error) {
	for {
		ref, err := eval.Eval(s.Condition, ctx)
		if err != nil {
			return Status{}, err
		}
		v, err := ref.Read()
		if err != nil {
			return Status{}, err
		}
		if !v.Truthy() {
			return next, nil
		}
		st, err := ExecuteBlock(s.Body, ctx)
		if err != nil {
			return Status{}, err
		}
		if brk, done := consumeLoopStatus(st, ast.TargetWhile); done {
			return brk, nil
		} else if brk.Kind == StatusReturn {
			return brk, nil
		}
	}
}

func execFor(s ast.ForStatement, ctx *scope.ExecutiveContext) (Status, error) {
	loopCtx := scope.NewExecutiveContext(ctx)
	if s.Init != nil {
		st, err := execStatement(s.Init, loopCtx)
		if err != nil {
			return Status{}, err
		}
		if st.Kind != StatusNext {
			return st, nil
		}
	}
	for {
		if s.HasCond {
			ref, err := eval.Eval(s.Cond, loopCtx)
			if err != nil {
				return Status{}, err
			}
			v, err := ref.Read()
			if err != nil {
				return Status{}, err
			}
			if !v.Truthy() {
				return next, nil
			}
		}
		st, err := ExecuteBlock(s.Body, loopCtx)
		if err != nil {
			return Status{}, err
		}
		if brk, done := consumeLoopStatus(st, ast.TargetFor); done {
			return brk, nil
		} else if brk.Kind == StatusReturn {
			return brk, nil
		}
		if s.HasStep {
			if _, err := eval.Eval(s.Step, loopCtx); err != nil {
				return Status{}, err
			}
		}
	}
}

func execForEach(s ast.ForEachStatement, ctx *scope.ExecutiveContext) (Status, error) {
	ref, err := eval.Eval(s.Range, ctx)
	if err != nil {
		return Status{}, err
	}
	rangeVal, err := ref.Read()
	if err != nil {
		return Status{}, err
	}

	// iterate binds MappedName to a reference into the container slot
	// itself (ref with one more modifier pushed), not a detached copy of
	// the element, so assigning through the loop variable mutates the
	// range in place. KeyName, by contrast, is always a scalar snapshot:
	// there is no slot to alias for an index/key.
	iterate := func(key value.Value, mod value.Modifier) (Status, bool, error) {
		iterCtx := scope.NewExecutiveContext(ctx)
		if s.KeyName != "" {
			kv := Allocate(key, true)
			iterCtx.Declare(s.KeyName, value.NewVariableRef(kv))
		}
		iterCtx.Declare(s.MappedName, ref.PushModifier(mod))
		st, err := ExecuteBlock(s.Body, iterCtx)
		if err != nil {
			return Status{}, false, err
		}
		if brk, done := consumeLoopStatus(st, ast.TargetFor); done {
			return brk, true, nil
		} else if brk.Kind == StatusReturn {
			return brk, true, nil
		}
		return next, false, nil
	}

	switch rangeVal.Kind() {
	case value.ArrayKind:
		arr, _ := rangeVal.AsArray()
		for i := range arr.Elements() {
			st, stop, err := iterate(value.FromInt(int64(i)), value.ArrayIndex(int64(i)))
			if err != nil || stop {
				return st, err
			}
		}
	case value.ObjectKind:
		obj, _ := rangeVal.AsObject()
		for _, k := range obj.Keys() {
			st, stop, err := iterate(value.FromString(k), value.ObjectKey(k))
			if err != nil || stop {
				return st, err
			}
		}
	default:
		return Status{}, exception.NewNative("for-each requires an array or object, got %s", rangeVal.Kind())
	}
	return next, nil
}

// consumeLoopStatus interprets a loop body's status against this loop's
// own target kind. A break/continue targeting TargetUnspecified or this
// loop's own kind is consumed here; anything else (including a break
// targeting TargetSwitch, or the other loop keyword) propagates to the
// caller untouched.
func consumeLoopStatus(st Status, loopKind ast.LoopTarget) (result Status, done bool) {
	switch st.Kind {
	case StatusNext:
		return next, false
	case StatusContinue:
		if st.Target == ast.TargetUnspecified || st.Target == loopKind {
			return next, false
		}
		return st, true
	case StatusBreak:
		if st.Target == ast.TargetUnspecified || st.Target == loopKind {
			return next, true
		}
		return st, true
	default: // StatusReturn
		return st, true
	}
}

func execTry(s ast.TryStatement, ctx *scope.ExecutiveContext) (Status, error) {
	st, err := ExecuteBlock(s.Try, ctx)
	if err == nil {
		return st, nil
	}
	var exc *exception.Exception
	if !errors.As(err, &exc) {
		return Status{}, err
	}

	catchCtx := scope.NewExecutiveContext(ctx)
	excVar := Allocate(exc.Value, false)
	if s.ExceptName != "" {
		catchCtx.Declare(s.ExceptName, value.NewVariableRef(excVar))
	}
	btVar := Allocate(exc.BacktraceValue(), true)
	catchCtx.DeclarePredefined(scope.PredefinedBacktrace, value.NewVariableRef(btVar))

	return execStatements(s.Catch.Statements, catchCtx)
}
