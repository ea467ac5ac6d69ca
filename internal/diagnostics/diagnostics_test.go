package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/asteria-lang/asteria/internal/ast"
	"github.com/asteria-lang/asteria/internal/exception"
	"github.com/asteria-lang/asteria/internal/value"
)

func TestSuggestNameRanksCloseMatchesFirst(t *testing.T) {
	results := SuggestName("coutner", []string{"counter", "count", "unrelated"})
	assert := assert.New(t)
	if assert.NotEmpty(results) {
		assert.Equal("counter", results[0].Name)
	}
}

func TestSuggestNameExcludesExactMatch(t *testing.T) {
	results := SuggestName("counter", []string{"counter"})
	assert.Empty(t, results)
}

func TestSuggestNameExcludesFarMatches(t *testing.T) {
	results := SuggestName("x", []string{"somethingTotallyDifferent"})
	assert.Empty(t, results)
}

func TestFormatSuggestionsEmptyWhenNoCandidates(t *testing.T) {
	assert.Equal(t, "", FormatSuggestions(nil))
}

func TestRenderBindError(t *testing.T) {
	err := exception.NewBindError(ast.SourceLocation{File: "m.ast", Line: 3}, "undeclared identifier %q", "ghost")
	out := Render(err, "a\nb\nc\n")
	assert.Contains(t, out, "bind error")
	assert.Contains(t, out, "m.ast")
	assert.Contains(t, out, "ghost")
	assert.Contains(t, out, "c")
}

func TestRenderException(t *testing.T) {
	exc := exception.New(ast.SourceLocation{File: "m.ast", Line: 1}, value.FromString("bad"))
	exc.AppendFrame(ast.SourceLocation{File: "m.ast", Line: 2})
	out := Render(exc, "")
	assert.Contains(t, out, "uncaught exception")
	assert.Contains(t, out, "bad")
	assert.Contains(t, out, "from")
}
