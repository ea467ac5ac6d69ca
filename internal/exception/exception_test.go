package exception

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asteria-lang/asteria/internal/ast"
	"github.com/asteria-lang/asteria/internal/value"
)

func TestBacktraceValueOrdersOriginFirst(t *testing.T) {
	exc := New(ast.SourceLocation{File: "m.ast", Line: 5}, value.FromString("bad"))
	exc.AppendFrame(ast.SourceLocation{File: "m.ast", Line: 9})
	exc.AppendFrame(ast.SourceLocation{File: "m.ast", Line: 12})

	bt := exc.BacktraceValue()
	arr, ok := bt.AsArray()
	require.True(t, ok)
	require.Equal(t, 3, arr.Len())

	first := arr.Get(0)
	obj, ok := first.AsObject()
	require.True(t, ok)
	line, _ := obj.Get("line")
	i, _ := line.AsInt()
	assert.Equal(t, int64(5), i)
}

func TestFormatBacktraceIncludesEveryFrame(t *testing.T) {
	exc := New(ast.SourceLocation{File: "m.ast", Line: 1}, value.FromString("boom"))
	exc.AppendFrame(ast.SourceLocation{File: "m.ast", Line: 2})

	out := exc.FormatBacktrace()
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "m.ast:1")
	assert.Contains(t, out, "m.ast:2")
}

func TestExceptionImplementsError(t *testing.T) {
	var err error = New(ast.SourceLocation{}, value.FromString("x"))
	assert.Contains(t, err.Error(), "uncaught exception")
}

func TestNewNativeUsesSyntheticOrigin(t *testing.T) {
	exc := NewNative("division by %s", "zero")
	assert.Equal(t, "<native code>", exc.Origin.File)
	s, ok := exc.Value.AsString()
	require.True(t, ok)
	assert.Equal(t, "division by zero", s)
}

func TestBindErrorFormatsLocationAndMessage(t *testing.T) {
	err := NewBindError(ast.SourceLocation{File: "m.ast", Line: 3}, "undeclared identifier %q", "ghost")
	assert.Equal(t, `m.ast:3: undeclared identifier "ghost"`, err.Error())
}
