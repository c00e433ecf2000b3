// Package parser builds the AST from tokens. The surface grammar is a
// compact ML-style syntax: newline-separated statements, `let` definitions
// with function sugar, `fn` lambdas, juxtaposition application, records,
// references, traits, effects and handlers.
package parser

import (
	"fmt"

	"github.com/JohnathanFL/ante/internal/ast"
	"github.com/JohnathanFL/ante/internal/lexer"
	"github.com/JohnathanFL/ante/internal/token"
)

// Error is a syntax error with its position.
type Error struct {
	Pos     token.Pos
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// Parser is a recursive-descent parser over a token slice.
type Parser struct {
	tokens []token.Token
	pos    int
	errors []Error
}

// New parses from a lexer.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{tokens: l.Tokens()}
	for _, lexError := range l.Errors() {
		p.errors = append(p.errors, Error{Pos: lexError.Pos, Message: lexError.Message})
	}
	return p
}

// ParseString is a convenience for parsing a whole source string.
func ParseString(input, filename string) (*ast.Sequence, []Error) {
	p := New(lexer.New(input, filename))
	program := p.ParseProgram()
	return program, p.Errors()
}

// Errors returns the syntax errors found so far.
func (p *Parser) Errors() []Error { return p.errors }

func (p *Parser) current() token.Token  { return p.tokens[p.pos] }
func (p *Parser) kind() token.Kind      { return p.tokens[p.pos].Kind }
func (p *Parser) position() token.Pos   { return p.tokens[p.pos].Pos }
func (p *Parser) peekKind(n int) token.Kind {
	if p.pos+n >= len(p.tokens) {
		return token.EOF
	}
	return p.tokens[p.pos+n].Kind
}

func (p *Parser) advance() token.Token {
	tok := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(kind token.Kind) token.Token {
	if p.kind() != kind {
		p.errorExpected(kind.String())
		return p.current()
	}
	return p.advance()
}

func (p *Parser) errorExpected(what string) {
	p.errors = append(p.errors, Error{
		Pos:     p.position(),
		Message: fmt.Sprintf("expected %s but found %s", what, p.current()),
	})
	// Skip the offending token so parsing can make progress.
	if p.kind() != token.EOF {
		p.advance()
	}
}

func (p *Parser) skipNewlines() {
	for p.kind() == token.Newline || p.kind() == token.Semicolon {
		p.advance()
	}
}

// ParseProgram parses newline-separated statements until EOF.
func (p *Parser) ParseProgram() *ast.Sequence {
	pos := p.position()
	statements := p.parseStatements(func() bool { return p.kind() == token.EOF })
	if len(statements) == 0 {
		statements = append(statements, ast.UnitLiteral(pos))
	}
	return &ast.Sequence{NodeBase: ast.NodeBase{Loc: pos}, Statements: statements}
}

func (p *Parser) parseStatements(done func() bool) []ast.Node {
	var statements []ast.Node
	p.skipNewlines()
	for !done() && p.kind() != token.EOF {
		before := p.pos
		statements = append(statements, p.parseStatement())
		if p.pos == before {
			p.advance()
		}
		p.skipNewlines()
	}
	return statements
}

func (p *Parser) parseStatement() ast.Node {
	switch p.kind() {
	case token.Let:
		return p.parseDefinition()
	case token.Trait:
		return p.parseTraitDefinition()
	case token.Impl:
		return p.parseTraitImpl()
	case token.Effect:
		return p.parseEffectDefinition()
	case token.Extern:
		return p.parseExtern()
	case token.Type:
		return p.parseTypeDefinition()
	case token.Import:
		return p.parseImport()
	case token.Return:
		pos := p.advance().Pos
		expression := p.parseExpr()
		return &ast.Return{NodeBase: ast.NodeBase{Loc: pos}, Expression: expression}
	default:
		return p.parseExpr()
	}
}

// parseDefinition parses `let [mut] pattern = expr` with function sugar:
// `let f x y = e` is `let f = fn x y -> e`.
func (p *Parser) parseDefinition() ast.Node {
	pos := p.expect(token.Let).Pos
	mutable := false
	if p.kind() == token.Mut {
		p.advance()
		mutable = true
	}

	pattern := p.parsePatternAtom()
	var params []ast.Node
	for p.kind() != token.Equal && p.kind() != token.Colon && p.kind() != token.EOF &&
		p.kind() != token.Newline {
		params = append(params, p.parsePatternAtom())
	}

	if p.kind() == token.Colon {
		p.advance()
		typeExpr := p.parseType()
		pattern = &ast.TypeAnnotation{NodeBase: ast.NodeBase{Loc: pattern.Locate()}, Lhs: pattern, TypeExpr: typeExpr}
	}

	p.expect(token.Equal)
	expr := p.parseExpr()

	if len(params) != 0 {
		expr = &ast.Lambda{NodeBase: ast.NodeBase{Loc: pos}, Args: params, Body: expr}
	}

	return &ast.Definition{
		NodeBase: ast.NodeBase{Loc: pos},
		Pattern:  pattern,
		Expr:     expr,
		Mutable:  mutable,
	}
}

func (p *Parser) parseImport() ast.Node {
	pos := p.expect(token.Import).Pos
	path := p.expect(token.Ident).Literal
	return &ast.Import{NodeBase: ast.NodeBase{Loc: pos}, Path: path}
}

// parseTypeDefinition parses `type Name a b = field: type, ...`.
func (p *Parser) parseTypeDefinition() ast.Node {
	pos := p.expect(token.Type).Pos
	name := p.expect(token.Ident).Literal

	var args []string
	for p.kind() == token.Ident {
		args = append(args, p.advance().Literal)
	}
	p.expect(token.Equal)

	node := &ast.TypeDefinition{NodeBase: ast.NodeBase{Loc: pos}, Name: name, Args: args}
	for {
		fieldName := p.expect(token.Ident).Literal
		p.expect(token.Colon)
		fieldType := p.parseType()
		node.Fields = append(node.Fields, ast.TypeDefField{Name: fieldName, Typ: fieldType})
		if p.kind() != token.Comma {
			break
		}
		p.advance()
		p.skipNewlines()
	}
	return node
}

// parseTraitDefinition parses
// `trait Name a b -> c with` followed by `name : type` lines.
func (p *Parser) parseTraitDefinition() ast.Node {
	pos := p.expect(token.Trait).Pos
	name := p.expect(token.Ident).Literal

	var args, fundeps []string
	for p.kind() == token.Ident {
		args = append(args, p.advance().Literal)
	}
	if p.kind() == token.Arrow {
		p.advance()
		for p.kind() == token.Ident {
			fundeps = append(fundeps, p.advance().Literal)
		}
	}
	p.expect(token.With)

	node := &ast.TraitDefinition{
		NodeBase:    ast.NodeBase{Loc: pos},
		Name:        name,
		ArgNames:    args,
		FunDepNames: fundeps,
	}
	node.Declarations = p.parseDeclarationBlock()
	return node
}

// parseDeclarationBlock parses `name : type` lines while they keep coming.
func (p *Parser) parseDeclarationBlock() []*ast.Declaration {
	var declarations []*ast.Declaration
	p.skipNewlines()
	for p.kind() == token.Ident && p.peekKind(1) == token.Colon {
		namePos := p.position()
		name := p.advance().Literal
		p.advance() // colon
		typeExpr := p.parseType()
		declarations = append(declarations, &ast.Declaration{
			Lhs:      &ast.Variable{NodeBase: ast.NodeBase{Loc: namePos}, Name: name},
			TypeExpr: typeExpr,
		})
		p.skipNewlines()
	}
	if len(declarations) == 0 {
		p.errorExpected("a declaration (name : type)")
	}
	return declarations
}

// parseTraitImpl parses `impl Name Type... [given ...] with` followed by
// definition lines.
func (p *Parser) parseTraitImpl() ast.Node {
	pos := p.expect(token.Impl).Pos
	name := p.expect(token.Ident).Literal

	var argTypes []ast.TypeExpr
	for p.kind() != token.With && p.kind() != token.Given && p.kind() != token.EOF &&
		p.kind() != token.Newline {
		argTypes = append(argTypes, p.parseTypeAtom())
	}

	var given []ast.GivenConstraint
	if p.kind() == token.Given {
		p.advance()
		for {
			givenName := p.expect(token.Ident)
			constraint := ast.GivenConstraint{Pos: givenName.Pos, Trait: givenName.Literal}
			for p.kind() != token.Comma && p.kind() != token.With && p.kind() != token.EOF {
				constraint.Args = append(constraint.Args, p.parseTypeAtom())
			}
			given = append(given, constraint)
			if p.kind() != token.Comma {
				break
			}
			p.advance()
		}
	}
	p.expect(token.With)

	node := &ast.TraitImpl{
		NodeBase:     ast.NodeBase{Loc: pos},
		TraitName:    name,
		ArgTypeExprs: argTypes,
		GivenExprs:   given,
	}
	p.skipNewlines()
	for p.lineIsDefinition() {
		definition := p.parseImplMember()
		node.Definitions = append(node.Definitions, definition)
		p.skipNewlines()
	}
	if len(node.Definitions) == 0 {
		p.errorExpected("an impl member definition")
	}
	return node
}

// lineIsDefinition reports whether the current line looks like
// `name pattern* = ...`.
func (p *Parser) lineIsDefinition() bool {
	if p.kind() != token.Ident {
		return false
	}
	for i := 0; ; i++ {
		switch p.peekKind(i) {
		case token.Equal:
			return true
		case token.Ident, token.LParen, token.RParen:
			continue
		default:
			return false
		}
	}
}

// parseImplMember parses `name pattern* = expr` (no `let` keyword).
func (p *Parser) parseImplMember() *ast.Definition {
	pos := p.position()
	pattern := p.parsePatternAtom()
	var params []ast.Node
	for p.kind() != token.Equal {
		params = append(params, p.parsePatternAtom())
	}
	p.expect(token.Equal)
	expr := p.parseExpr()
	if len(params) != 0 {
		expr = &ast.Lambda{NodeBase: ast.NodeBase{Loc: pos}, Args: params, Body: expr}
	}
	return &ast.Definition{NodeBase: ast.NodeBase{Loc: pos}, Pattern: pattern, Expr: expr}
}

// parseEffectDefinition parses `effect Name a with` + declarations.
func (p *Parser) parseEffectDefinition() ast.Node {
	pos := p.expect(token.Effect).Pos
	name := p.expect(token.Ident).Literal

	var args []string
	for p.kind() == token.Ident {
		args = append(args, p.advance().Literal)
	}
	p.expect(token.With)

	node := &ast.EffectDefinition{NodeBase: ast.NodeBase{Loc: pos}, Name: name, ArgNames: args}
	node.Declarations = p.parseDeclarationBlock()
	return node
}

// parseExtern parses `extern` + declarations.
func (p *Parser) parseExtern() ast.Node {
	pos := p.expect(token.Extern).Pos
	node := &ast.Extern{NodeBase: ast.NodeBase{Loc: pos}}
	node.Declarations = p.parseDeclarationBlock()
	return node
}
