package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohnathanFL/ante/internal/token"
)

func kinds(input string) []token.Kind {
	l := New(input, "test.an")
	var out []token.Kind
	for _, tok := range l.Tokens() {
		out = append(out, tok.Kind)
	}
	return out
}

func TestBasicTokens(t *testing.T) {
	tests := []struct {
		input string
		want  []token.Kind
	}{
		{"let x = 3", []token.Kind{token.Let, token.Ident, token.Equal, token.Int, token.EOF}},
		{"fn x -> x", []token.Kind{token.Fn, token.Ident, token.Arrow, token.Ident, token.EOF}},
		{"x := 4", []token.Kind{token.Ident, token.Assign, token.Int, token.EOF}},
		{"a.b a.!c", []token.Kind{token.Ident, token.Dot, token.Ident, token.Ident, token.DotBang, token.Ident, token.EOF}},
		{"a == b != c", []token.Kind{token.Ident, token.EqualEq, token.Ident, token.NotEq, token.Ident, token.EOF}},
		{"&x !y", []token.Kind{token.Ampersand, token.Ident, token.Bang, token.Ident, token.EOF}},
		{"1.5 2", []token.Kind{token.Float, token.Int, token.EOF}},
		{"{ x = 1 }", []token.Kind{token.LBrace, token.Ident, token.Equal, token.Int, token.RBrace, token.EOF}},
		{"a\nb", []token.Kind{token.Ident, token.Newline, token.Ident, token.EOF}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, kinds(tt.input))
		})
	}
}

func TestKeywords(t *testing.T) {
	got := kinds("let mut if then else match with trait impl effect handle extern can given")
	want := []token.Kind{
		token.Let, token.Mut, token.If, token.Then, token.Else, token.Match, token.With,
		token.Trait, token.Impl, token.Effect, token.Handle, token.Extern, token.Can,
		token.Given, token.EOF,
	}
	assert.Equal(t, want, got)
}

func TestCommentsAreSkipped(t *testing.T) {
	got := kinds("a // trailing comment\nb")
	assert.Equal(t, []token.Kind{token.Ident, token.Newline, token.Ident, token.EOF}, got)
}

func TestStringAndCharLiterals(t *testing.T) {
	l := New(`"hello\nworld" 'x'`, "test.an")
	tokens := l.Tokens()
	require.Len(t, tokens, 3)
	assert.Equal(t, token.String, tokens[0].Kind)
	assert.Equal(t, "hello\nworld", tokens[0].Literal)
	assert.Equal(t, token.Char, tokens[1].Kind)
	assert.Equal(t, "x", tokens[1].Literal)
	assert.Empty(t, l.Errors())
}

func TestUnterminatedStringReportsError(t *testing.T) {
	l := New(`"oops`, "test.an")
	l.Tokens()
	assert.NotEmpty(t, l.Errors())
}

func TestNormalizeStripsBOMAndAppliesNFC(t *testing.T) {
	bom := []byte{0xEF, 0xBB, 0xBF}
	src := append(append([]byte{}, bom...), []byte("let x = 1")...)
	assert.Equal(t, []byte("let x = 1"), Normalize(src))

	// NFD (e + combining accent) normalizes to the NFC form.
	nfd := "cafe\u0301"
	nfc := "caf\u00e9"
	assert.Equal(t, []byte(nfc), Normalize([]byte(nfd)))
}

func TestPositions(t *testing.T) {
	l := New("let\nx", "test.an")
	tokens := l.Tokens()
	require.Len(t, tokens, 4)
	assert.Equal(t, 1, tokens[0].Pos.Line)
	assert.Equal(t, 2, tokens[2].Pos.Line)
}
