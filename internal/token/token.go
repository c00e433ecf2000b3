// Package token defines source positions and the token set produced by the lexer.
package token

import "fmt"

// Pos is a position in a source file.
type Pos struct {
	File   string
	Line   int
	Column int
	Offset int
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Span is a half-open range in source code.
type Span struct {
	Start Pos
	End   Pos
}

func (s Span) String() string { return s.Start.String() }

// Kind identifies a token class.
type Kind int

const (
	EOF Kind = iota
	Newline

	Ident
	Int
	Float
	String
	Char

	// Keywords
	Let
	Mut
	Fn
	If
	Then
	Else
	Match
	With
	Trait
	Impl
	Effect
	Handle
	Extern
	Import
	Return
	Type
	Can
	Given
	True
	False

	// Punctuation and operators
	Arrow     // ->
	Assign    // :=
	Equal     // =
	EqualEq   // ==
	NotEq     // !=
	Less      // <
	Greater   // >
	LessEq    // <=
	GreaterEq // >=
	Plus      // +
	Minus     // -
	Star      // *
	Slash     // /
	Dot       // .
	DotBang   // .!
	Comma     // ,
	Semicolon // ;
	Colon     // :
	Pipe      // |
	Ampersand // &
	Bang      // !
	At        // @
	LParen    // (
	RParen    // )
	LBrace    // {
	RBrace    // }
)

var kindNames = map[Kind]string{
	EOF:       "end of input",
	Newline:   "newline",
	Ident:     "identifier",
	Int:       "integer literal",
	Float:     "float literal",
	String:    "string literal",
	Char:      "char literal",
	Let:       "let",
	Mut:       "mut",
	Fn:        "fn",
	If:        "if",
	Then:      "then",
	Else:      "else",
	Match:     "match",
	With:      "with",
	Trait:     "trait",
	Impl:      "impl",
	Effect:    "effect",
	Handle:    "handle",
	Extern:    "extern",
	Import:    "import",
	Return:    "return",
	Type:      "type",
	Can:       "can",
	Given:     "given",
	True:      "true",
	False:     "false",
	Arrow:     "->",
	Assign:    ":=",
	Equal:     "=",
	EqualEq:   "==",
	NotEq:     "!=",
	Less:      "<",
	Greater:   ">",
	LessEq:    "<=",
	GreaterEq: ">=",
	Plus:      "+",
	Minus:     "-",
	Star:      "*",
	Slash:     "/",
	Dot:       ".",
	DotBang:   ".!",
	Comma:     ",",
	Semicolon: ";",
	Colon:     ":",
	Pipe:      "|",
	Ampersand: "&",
	Bang:      "!",
	At:        "@",
	LParen:    "(",
	RParen:    ")",
	LBrace:    "{",
	RBrace:    "}",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(k))
}

// Keywords maps keyword spellings to their token kinds.
var Keywords = map[string]Kind{
	"let":    Let,
	"mut":    Mut,
	"fn":     Fn,
	"if":     If,
	"then":   Then,
	"else":   Else,
	"match":  Match,
	"with":   With,
	"trait":  Trait,
	"impl":   Impl,
	"effect": Effect,
	"handle": Handle,
	"extern": Extern,
	"import": Import,
	"return": Return,
	"type":   Type,
	"can":    Can,
	"given":  Given,
	"true":   True,
	"false":  False,
}

// Token is a lexeme with its position.
type Token struct {
	Kind    Kind
	Literal string
	Pos     Pos
	End     Pos
}

func (t Token) Span() Span { return Span{Start: t.Pos, End: t.End} }

func (t Token) String() string {
	switch t.Kind {
	case Ident, Int, Float, String, Char:
		return fmt.Sprintf("%s %q", t.Kind, t.Literal)
	default:
		return t.Kind.String()
	}
}
