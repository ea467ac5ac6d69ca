// Package diagnostics renders bind errors and uncaught exceptions for
// the CLI's stderr report: a colorized header, a source snippet at the
// offending line, and a suggested-fix hint, rendered for
// *exception.BindError and *exception.Exception using
// github.com/fatih/color instead of hand-rolled ANSI escapes.
package diagnostics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/asteria-lang/asteria/internal/exception"
)

var (
	headerColor = color.New(color.Bold, color.FgRed)
	lineNoColor = color.New(color.FgHiBlack)
	caretColor  = color.New(color.FgRed)
	hintColor   = color.New(color.FgYellow)
)

// Render formats err against source (the script text that produced
// it) for a terminal. source may be empty when unavailable (e.g. a
// script loaded from an embedder-supplied io.Reader with no path).
func Render(err error, source string) string {
	var bindErr *exception.BindError
	if be, ok := err.(*exception.BindError); ok {
		bindErr = be
	}
	if bindErr != nil {
		return renderLocated(headerColor.Sprint("bind error"), bindErr.Loc.File, int(bindErr.Loc.Line), bindErr.Message, source)
	}
	if exc, ok := err.(*exception.Exception); ok {
		var b strings.Builder
		b.WriteString(renderLocated(headerColor.Sprint("uncaught exception"), exc.Origin.File, int(exc.Origin.Line), exc.Value.String(), source))
		for _, f := range exc.Frames {
			fmt.Fprintf(&b, "  from %s\n", f)
		}
		return b.String()
	}
	return err.Error()
}

func renderLocated(header, file string, line int, message, source string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s in %s at line %d\n", header, file, line)
	if snippet := sourceLine(source, line); snippet != "" {
		lineNoColor.Fprintf(&b, "  %4d | ", line)
		b.WriteString(snippet)
		b.WriteString("\n")
	}
	b.WriteString(message)
	b.WriteString("\n")
	return b.String()
}

func sourceLine(source string, line int) string {
	if source == "" || line <= 0 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// Suggestion is one candidate correction for an undeclared identifier.
type Suggestion struct {
	Name  string
	Score float64
}

// SuggestName proposes names a misspelled identifier might have meant,
// ranked by normalized edit-distance similarity, for use in
// "undeclared identifier %q, did you mean %q?" bind-error messages.
func SuggestName(target string, candidates []string) []Suggestion {
	const maxDistance = 3
	const minScore = 0.5

	var results []Suggestion
	for _, c := range candidates {
		if c == target {
			continue
		}
		d := levenshtein(target, c)
		if d > maxDistance {
			continue
		}
		maxLen := len(target)
		if len(c) > maxLen {
			maxLen = len(c)
		}
		if maxLen == 0 {
			continue
		}
		score := 1 - float64(d)/float64(maxLen)
		if score < minScore {
			continue
		}
		results = append(results, Suggestion{Name: c, Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Name < results[j].Name
	})
	if len(results) > 3 {
		results = results[:3]
	}
	return results
}

// FormatSuggestions renders SuggestName's output as a trailing hint,
// or "" when there is nothing worth suggesting.
func FormatSuggestions(results []Suggestion) string {
	if len(results) == 0 {
		return ""
	}
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Name
	}
	return hintColor.Sprintf("did you mean %s?", strings.Join(quoteAll(names), " or "))
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = fmt.Sprintf("%q", n)
	}
	return out
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		cur[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			cur[j] = m
		}
		prev, cur = cur, prev
	}
	return prev[lb]
}
