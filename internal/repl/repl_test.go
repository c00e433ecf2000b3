package repl

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testREPL() *REPL {
	r := New("test")
	r.out = io.Discard
	return r
}

func TestEvalDefinitionShowsItsType(t *testing.T) {
	r := testREPL()
	r.lines = append(r.lines, "let id = fn x -> x")
	output := stripANSI(r.Eval("let id = fn x -> x"))
	assert.Contains(t, output, "id")
	assert.Contains(t, output, "forall a. a -> a")
}

func TestEvalExpressionShowsProgramType(t *testing.T) {
	r := testREPL()
	r.lines = append(r.lines, "1 + 2")
	output := stripANSI(r.Eval("1 + 2"))
	assert.Contains(t, output, "Int")
}

func TestDefinitionsPersistAcrossInputs(t *testing.T) {
	r := testREPL()
	r.lines = append(r.lines, "let double = fn x -> x + x")
	r.Eval("let double = fn x -> x + x")

	r.lines = append(r.lines, "double 21")
	output := stripANSI(r.Eval("double 21"))
	assert.Contains(t, output, "Int")
}

func TestErrorsDoNotPoisonTheSession(t *testing.T) {
	r := testREPL()
	r.lines = append(r.lines, "missing")
	output := stripANSI(r.Eval("missing"))
	require.Contains(t, output, "error")
	assert.Empty(t, r.lines, "the failing line should be dropped")

	r.lines = append(r.lines, "let x = 3")
	output = stripANSI(r.Eval("let x = 3"))
	assert.NotContains(t, output, "error")
}

func TestDefinedName(t *testing.T) {
	tests := []struct {
		line string
		name string
		ok   bool
	}{
		{"let id = fn x -> x", "id", true},
		{"let mut x = 3", "x", true},
		{"id 3", "", false},
	}
	for _, tt := range tests {
		name, ok := definedName(tt.line)
		assert.Equal(t, tt.ok, ok)
		if ok {
			assert.Equal(t, tt.name, name)
		}
	}
}

// stripANSI removes color escape sequences so assertions see plain text.
func stripANSI(s string) string {
	var out strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			out.WriteRune(r)
		}
	}
	return out.String()
}
