// Package eval implements the expression evaluator: a stack machine that
// walks an ast.Expression's flat, RPN-ordered atom list, rather than
// recursing over a tree of expression nodes. The per-operator dispatch
// below (arithAdd/arithNumeric/intBinary/shiftLogical/...) is broken out one function per
// operator family, just driven by a stack instead of recursion.
package eval

import (
	"fmt"
	"math"

	"github.com/asteria-lang/asteria/internal/ast"
	"github.com/asteria-lang/asteria/internal/exception"
	"github.com/asteria-lang/asteria/internal/function"
	"github.com/asteria-lang/asteria/internal/scope"
	"github.com/asteria-lang/asteria/internal/value"
)

// Eval runs expr's atom stack against ctx and returns the resulting
// reference (still an lvalue when the final atom was a name/index chain,
// so assignment expressions and `++`/`--` keep working on the result).
func Eval(expr ast.Expression, ctx *scope.ExecutiveContext) (value.Reference, error) {
	var stack []value.Reference
	for _, atom := range expr.Atoms {
		var err error
		stack, err = step(stack, atom, ctx)
		if err != nil {
			return value.Reference{}, err
		}
	}
	if len(stack) != 1 {
		return value.Reference{}, fmt.Errorf("malformed expression: stack has %d values after evaluation", len(stack))
	}
	return stack[0], nil
}

func step(stack []value.Reference, atom ast.Atom, ctx *scope.ExecutiveContext) ([]value.Reference, error) {
	switch a := atom.(type) {
	case ast.LiteralAtom:
		return append(stack, value.NewConstant(literalToValue(a.Value))), nil

	case ast.NamedReferenceAtom:
		ref, ok := ctx.Lookup(a.Name)
		if !ok {
			return nil, exception.NewNative("undeclared identifier %q", a.Name)
		}
		return append(stack, ref), nil

	case ast.BoundReferenceAtom:
		ref, ok := ctx.Lookup(a.Name)
		if !ok {
			return nil, exception.NewNative("undeclared identifier %q", a.Name)
		}
		return append(stack, ref), nil

	case ast.SubexpressionAtom:
		ref, err := Eval(a.Expr, ctx)
		if err != nil {
			return nil, err
		}
		return append(stack, ref), nil

	case ast.LambdaDefinitionAtom:
		fn := function.New(a.Header, a.Params, a.Body, ctx)
		return append(stack, value.NewTemporary(value.FromFunction(fn))), nil

	case ast.BranchAtom:
		if len(stack) < 1 {
			return nil, fmt.Errorf("malformed expression: branch with empty stack")
		}
		cond := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		condVal, err := cond.Read()
		if err != nil {
			return nil, err
		}
		chosen := a.Else
		if condVal.Truthy() {
			chosen = a.Then
		}
		ref, err := Eval(chosen, ctx)
		if err != nil {
			return nil, err
		}
		return append(stack, ref), nil

	case ast.FunctionCallAtom:
		return evalCall(stack, a)

	case ast.OperatorRPNAtom:
		return evalOperator(stack, a)

	default:
		return nil, fmt.Errorf("unsupported expression atom: %T", atom)
	}
}

func literalToValue(lit ast.Literal) value.Value {
	switch l := lit.(type) {
	case ast.NullLiteral:
		return value.Null()
	case ast.BoolLiteral:
		return value.FromBool(l.Value)
	case ast.IntLiteral:
		return value.FromInt(l.Value)
	case ast.RealLiteral:
		return value.FromReal(l.Value)
	case ast.StringLiteral:
		return value.FromString(l.Value)
	default:
		return value.Null()
	}
}

func evalCall(stack []value.Reference, a ast.FunctionCallAtom) ([]value.Reference, error) {
	if len(stack) < a.Argc+1 {
		return nil, fmt.Errorf("malformed expression: call expects %d args, stack has %d", a.Argc, len(stack)-1)
	}
	split := len(stack) - a.Argc
	callee := stack[split-1]
	args := append([]value.Reference(nil), stack[split:]...)
	stack = stack[:split-1]

	calleeVal, err := callee.Read()
	if err != nil {
		return nil, err
	}
	fn, ok := calleeVal.AsFunction()
	if !ok {
		return nil, exception.NewNative("attempt to call a %s value", calleeVal.Kind())
	}
	result, err := fn.Invoke(nil, args)
	if err != nil {
		return nil, err
	}
	return append(stack, result), nil
}

func popN(stack []value.Reference, n int) ([]value.Reference, []value.Reference, error) {
	if len(stack) < n {
		return nil, nil, fmt.Errorf("malformed expression: expected %d operands, stack has %d", n, len(stack))
	}
	split := len(stack) - n
	return stack[:split], stack[split:], nil
}

func evalOperator(stack []value.Reference, a ast.OperatorRPNAtom) ([]value.Reference, error) {
	switch a.Op {
	case ast.OpIndex:
		rest, ops, err := popN(stack, 2)
		if err != nil {
			return nil, err
		}
		base, idx := ops[0], ops[1]
		idxVal, err := idx.Read()
		if err != nil {
			return nil, err
		}
		var mod value.Modifier
		switch idxVal.Kind() {
		case value.Integer:
			i, _ := idxVal.AsInt()
			mod = value.ArrayIndex(i)
		case value.String:
			s, _ := idxVal.AsString()
			mod = value.ObjectKey(s)
		default:
			return nil, exception.NewNative("subscript must be an integer or string, got %s", idxVal.Kind())
		}
		return append(rest, base.PushModifier(mod)), nil

	case ast.OpAssign:
		rest, ops, err := popN(stack, 2)
		if err != nil {
			return nil, err
		}
		left, right := ops[0], ops[1]
		rv, err := right.Read()
		if err != nil {
			return nil, err
		}
		if err := left.WriteMut(rv.Clone()); err != nil {
			return nil, exception.NewNative("%s", err.Error())
		}
		return append(rest, left), nil

	case ast.OpPreIncrement, ast.OpPreDecrement, ast.OpPostIncrement, ast.OpPostDecrement:
		rest, ops, err := popN(stack, 1)
		if err != nil {
			return nil, err
		}
		operand := ops[0]
		cur, err := operand.Read()
		if err != nil {
			return nil, err
		}
		delta := int64(1)
		if a.Op == ast.OpPreDecrement || a.Op == ast.OpPostDecrement {
			delta = -1
		}
		next, err := arithAdd(cur, value.FromInt(delta))
		if err != nil {
			return nil, err
		}
		if err := operand.WriteMut(next); err != nil {
			return nil, exception.NewNative("%s", err.Error())
		}
		if a.Op == ast.OpPreIncrement || a.Op == ast.OpPreDecrement {
			return append(rest, operand), nil
		}
		return append(rest, value.NewTemporary(cur)), nil

	case ast.OpPosUnary, ast.OpNegUnary, ast.OpBitNotUnary, ast.OpLogicalNotUnary:
		rest, ops, err := popN(stack, 1)
		if err != nil {
			return nil, err
		}
		v, err := ops[0].Read()
		if err != nil {
			return nil, err
		}
		result, err := applyUnary(a.Op, v)
		if err != nil {
			return nil, err
		}
		return append(rest, value.NewTemporary(result)), nil

	default:
		rest, ops, err := popN(stack, 2)
		if err != nil {
			return nil, err
		}
		left, right := ops[0], ops[1]
		if a.Assign {
			lv, err := left.Read()
			if err != nil {
				return nil, err
			}
			rv, err := right.Read()
			if err != nil {
				return nil, err
			}
			result, err := applyBinary(a.Op, lv, rv)
			if err != nil {
				return nil, err
			}
			if err := left.WriteMut(result); err != nil {
				return nil, exception.NewNative("%s", err.Error())
			}
			return append(rest, left), nil
		}
		lv, err := left.Read()
		if err != nil {
			return nil, err
		}
		rv, err := right.Read()
		if err != nil {
			return nil, err
		}
		result, err := applyBinary(a.Op, lv, rv)
		if err != nil {
			return nil, err
		}
		return append(rest, value.NewTemporary(result)), nil
	}
}

func applyUnary(op ast.Operator, v value.Value) (value.Value, error) {
	switch op {
	case ast.OpPosUnary:
		if !isNumeric(v) {
			return value.Value{}, exception.NewNative("unary + requires a numeric operand, got %s", v.Kind())
		}
		return v, nil
	case ast.OpNegUnary:
		switch v.Kind() {
		case value.Integer:
			i, _ := v.AsInt()
			return value.FromInt(-i), nil
		case value.Real:
			r, _ := v.AsReal()
			return value.FromReal(-r), nil
		default:
			return value.Value{}, exception.NewNative("unary - requires a numeric operand, got %s", v.Kind())
		}
	case ast.OpBitNotUnary:
		i, ok := v.AsInt()
		if !ok {
			return value.Value{}, exception.NewNative("~ requires an integer operand, got %s", v.Kind())
		}
		return value.FromInt(^i), nil
	case ast.OpLogicalNotUnary:
		return value.FromBool(!v.Truthy()), nil
	default:
		return value.Value{}, fmt.Errorf("unsupported unary operator %v", op)
	}
}

func isNumeric(v value.Value) bool {
	return v.Kind() == value.Integer || v.Kind() == value.Real
}

func applyBinary(op ast.Operator, left, right value.Value) (value.Value, error) {
	switch op {
	case ast.OpAdd:
		return arithAdd(left, right)
	case ast.OpSub:
		return arithNumeric(left, right, func(a, b int64) (int64, error) { return a - b, nil }, func(a, b float64) float64 { return a - b })
	case ast.OpMul:
		return arithNumeric(left, right, func(a, b int64) (int64, error) { return a * b, nil }, func(a, b float64) float64 { return a * b })
	case ast.OpDiv:
		return arithNumeric(left, right, func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, exception.NewNative("integer division by zero")
			}
			return a / b, nil
		}, func(a, b float64) float64 { return a / b })
	case ast.OpMod:
		return arithNumeric(left, right, func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, exception.NewNative("integer modulo by zero")
			}
			return a % b, nil
		}, func(a, b float64) float64 { return math.Mod(a, b) })
	case ast.OpBitAnd:
		return intBinary(left, right, func(a, b int64) int64 { return a & b })
	case ast.OpBitOr:
		return intBinary(left, right, func(a, b int64) int64 { return a | b })
	case ast.OpBitXor:
		return intBinary(left, right, func(a, b int64) int64 { return a ^ b })
	case ast.OpShiftLeftLogical:
		return shiftLogical(left, right, true)
	case ast.OpShiftRightLogical:
		return shiftLogical(left, right, false)
	case ast.OpShiftLeftArith:
		return shiftArith(left, right, true)
	case ast.OpShiftRightArith:
		return shiftArith(left, right, false)
	case ast.OpEq:
		return value.FromBool(value.Equal(left, right)), nil
	case ast.OpNe:
		return value.FromBool(!value.Equal(left, right)), nil
	case ast.OpLt:
		less, _, ok := value.Compare(left, right)
		if !ok {
			return value.Value{}, exception.NewNative("cannot order %s and %s", left.Kind(), right.Kind())
		}
		return value.FromBool(less), nil
	case ast.OpLe:
		less, eq, ok := value.Compare(left, right)
		if !ok {
			return value.Value{}, exception.NewNative("cannot order %s and %s", left.Kind(), right.Kind())
		}
		return value.FromBool(less || eq), nil
	case ast.OpGt:
		less, eq, ok := value.Compare(left, right)
		if !ok {
			return value.Value{}, exception.NewNative("cannot order %s and %s", left.Kind(), right.Kind())
		}
		return value.FromBool(!less && !eq), nil
	case ast.OpGe:
		less, _, ok := value.Compare(left, right)
		if !ok {
			return value.Value{}, exception.NewNative("cannot order %s and %s", left.Kind(), right.Kind())
		}
		return value.FromBool(!less), nil
	case ast.OpLogicalAnd:
		return value.FromBool(left.Truthy() && right.Truthy()), nil
	case ast.OpLogicalOr:
		return value.FromBool(left.Truthy() || right.Truthy()), nil
	default:
		return value.Value{}, fmt.Errorf("unsupported binary operator %v", op)
	}
}

// arithAdd implements `+`, including string concatenation: the one
// operator that branches on operand kind before falling back to
// numeric coercion.
func arithAdd(left, right value.Value) (value.Value, error) {
	if left.Kind() == value.String || right.Kind() == value.String {
		ls, ok := left.AsString()
		if !ok {
			return value.Value{}, exception.NewNative("cannot add %s and string", left.Kind())
		}
		rs, ok := right.AsString()
		if !ok {
			return value.Value{}, exception.NewNative("cannot add string and %s", right.Kind())
		}
		return value.FromString(ls + rs), nil
	}
	return arithNumeric(left, right, func(a, b int64) (int64, error) { return a + b, nil }, func(a, b float64) float64 { return a + b })
}

func arithNumeric(left, right value.Value, intOp func(a, b int64) (int64, error), realOp func(a, b float64) float64) (value.Value, error) {
	if !isNumeric(left) || !isNumeric(right) {
		return value.Value{}, exception.NewNative("arithmetic requires numeric operands, got %s and %s", left.Kind(), right.Kind())
	}
	if left.Kind() == value.Integer && right.Kind() == value.Integer {
		li, _ := left.AsInt()
		ri, _ := right.AsInt()
		res, err := intOp(li, ri)
		if err != nil {
			return value.Value{}, err
		}
		return value.FromInt(res), nil
	}
	return value.FromReal(realOp(asFloat(left), asFloat(right))), nil
}

func asFloat(v value.Value) float64 {
	if i, ok := v.AsInt(); ok {
		return float64(i)
	}
	r, _ := v.AsReal()
	return r
}

func intBinary(left, right value.Value, op func(a, b int64) int64) (value.Value, error) {
	li, ok := left.AsInt()
	if !ok {
		return value.Value{}, exception.NewNative("bitwise operator requires integer operands, got %s", left.Kind())
	}
	ri, ok := right.AsInt()
	if !ok {
		return value.Value{}, exception.NewNative("bitwise operator requires integer operands, got %s", right.Kind())
	}
	return value.FromInt(op(li, ri)), nil
}

// shiftLogical implements `<<<`/`>>>`: the operand's bit pattern is
// reinterpreted as unsigned and the count is masked to 0-63, matching
// Go's own shift-of-unsigned semantics — these shifts reinterpret bits,
// they never inspect the operand's sign.
func shiftLogical(left, right value.Value, isLeft bool) (value.Value, error) {
	li, ok := left.AsInt()
	if !ok {
		return value.Value{}, exception.NewNative("shift requires integer operands, got %s", left.Kind())
	}
	ri, ok := right.AsInt()
	if !ok {
		return value.Value{}, exception.NewNative("shift requires integer operands, got %s", right.Kind())
	}
	amt := uint(ri) & 63
	u := uint64(li)
	if isLeft {
		return value.FromInt(int64(u << amt)), nil
	}
	return value.FromInt(int64(u >> amt)), nil
}

// shiftArith implements `<<`/`>>`: sign-preserving, and a left shift
// that saturates to Max/MinInt64 instead of wrapping when bits would be
// shifted out past the sign, so `<<` can never silently change sign
// (see DESIGN.md for the rationale).
func shiftArith(left, right value.Value, isLeft bool) (value.Value, error) {
	li, ok := left.AsInt()
	if !ok {
		return value.Value{}, exception.NewNative("shift requires integer operands, got %s", left.Kind())
	}
	ri, ok := right.AsInt()
	if !ok {
		return value.Value{}, exception.NewNative("shift requires integer operands, got %s", right.Kind())
	}
	if ri < 0 || ri >= 64 {
		if isLeft {
			if li > 0 {
				return value.FromInt(math.MaxInt64), nil
			}
			if li < 0 {
				return value.FromInt(math.MinInt64), nil
			}
			return value.FromInt(0), nil
		}
		if li < 0 {
			return value.FromInt(-1), nil
		}
		return value.FromInt(0), nil
	}
	amt := uint(ri)
	if !isLeft {
		return value.FromInt(li >> amt), nil
	}
	shifted := li << amt
	if shifted>>amt != li {
		if li > 0 {
			return value.FromInt(math.MaxInt64), nil
		}
		return value.FromInt(math.MinInt64), nil
	}
	return value.FromInt(shifted), nil
}
