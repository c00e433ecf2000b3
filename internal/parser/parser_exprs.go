package parser

import (
	"github.com/JohnathanFL/ante/internal/ast"
	"github.com/JohnathanFL/ante/internal/lexer"
	"github.com/JohnathanFL/ante/internal/token"
)

// parseExpr parses a full expression, including comma pairs:
// `a, b, c` is the right-nested pair (a, (b, c)).
func (p *Parser) parseExpr() ast.Node {
	expr := p.parseAssign()
	if p.kind() != token.Comma {
		return expr
	}
	var elements []ast.Node
	elements = append(elements, expr)
	for p.kind() == token.Comma {
		p.advance()
		elements = append(elements, p.parseAssign())
	}
	result := elements[len(elements)-1]
	for i := len(elements) - 2; i >= 0; i-- {
		result = pairOf(elements[i], result)
	}
	return result
}

func pairOf(first, second ast.Node) ast.Node {
	pos := first.Locate()
	return &ast.FunctionCall{
		NodeBase:   ast.NodeBase{Loc: pos},
		Function:   &ast.Variable{NodeBase: ast.NodeBase{Loc: pos}, Name: ","},
		Args:       []ast.Node{first, second},
		IsPairCtor: true,
	}
}

func (p *Parser) parseAssign() ast.Node {
	lhs := p.parseComparison()
	if p.kind() != token.Assign {
		return lhs
	}
	pos := p.advance().Pos
	rhs := p.parseComparison()
	return &ast.Assignment{NodeBase: ast.NodeBase{Loc: pos}, Lhs: lhs, Rhs: rhs}
}

var comparisonOps = map[token.Kind]string{
	token.EqualEq:   "==",
	token.NotEq:     "!=",
	token.Less:      "<",
	token.Greater:   ">",
	token.LessEq:    "<=",
	token.GreaterEq: ">=",
}

var additiveOps = map[token.Kind]string{
	token.Plus:  "+",
	token.Minus: "-",
}

var multiplicativeOps = map[token.Kind]string{
	token.Star:  "*",
	token.Slash: "/",
}

func (p *Parser) parseComparison() ast.Node {
	return p.parseBinary(comparisonOps, p.parseAdditive)
}

func (p *Parser) parseAdditive() ast.Node {
	return p.parseBinary(additiveOps, p.parseMultiplicative)
}

func (p *Parser) parseMultiplicative() ast.Node {
	return p.parseBinary(multiplicativeOps, p.parseUnary)
}

// parseBinary builds left-associated operator calls; operators resolve to
// builtin trait-constrained definitions.
func (p *Parser) parseBinary(ops map[token.Kind]string, next func() ast.Node) ast.Node {
	lhs := next()
	for {
		name, ok := ops[p.kind()]
		if !ok {
			return lhs
		}
		pos := p.advance().Pos
		rhs := next()
		lhs = &ast.FunctionCall{
			NodeBase: ast.NodeBase{Loc: pos},
			Function: &ast.Variable{NodeBase: ast.NodeBase{Loc: pos}, Name: name},
			Args:     []ast.Node{lhs, rhs},
		}
	}
}

func (p *Parser) parseUnary() ast.Node {
	switch p.kind() {
	case token.Ampersand:
		pos := p.advance().Pos
		operand := p.parseUnary()
		return &ast.Reference{NodeBase: ast.NodeBase{Loc: pos}, Mutability: ast.ImmutableRef, Expression: operand}
	case token.Bang:
		pos := p.advance().Pos
		operand := p.parseUnary()
		return &ast.Reference{NodeBase: ast.NodeBase{Loc: pos}, Mutability: ast.MutableRef, Expression: operand}
	default:
		return p.parseApplication()
	}
}

// startsArgument reports whether the current token can begin a call
// argument.
func (p *Parser) startsArgument() bool {
	switch p.kind() {
	case token.Int, token.Float, token.String, token.Char, token.True, token.False,
		token.Ident, token.LParen, token.LBrace:
		return true
	default:
		return false
	}
}

func (p *Parser) parseApplication() ast.Node {
	function := p.parsePostfix()
	if !p.startsArgument() {
		return function
	}
	var args []ast.Node
	for p.startsArgument() {
		args = append(args, p.parsePostfix())
	}
	return &ast.FunctionCall{NodeBase: ast.NodeBase{Loc: function.Locate()}, Function: function, Args: args}
}

func (p *Parser) parsePostfix() ast.Node {
	expr := p.parsePrimary()
	for {
		switch p.kind() {
		case token.Dot:
			pos := p.advance().Pos
			field := p.expect(token.Ident).Literal
			expr = &ast.MemberAccess{NodeBase: ast.NodeBase{Loc: pos}, Lhs: expr, Field: field}
		case token.DotBang:
			pos := p.advance().Pos
			field := p.expect(token.Ident).Literal
			expr = &ast.MemberAccess{
				NodeBase:      ast.NodeBase{Loc: pos},
				Lhs:           expr,
				Field:         field,
				IsOffset:      true,
				OffsetMutable: ast.MutableRef,
			}
		default:
			return expr
		}
	}
}

func (p *Parser) parsePrimary() ast.Node {
	pos := p.position()
	switch p.kind() {
	case token.Int:
		literal := p.advance().Literal
		return &ast.Literal{NodeBase: ast.NodeBase{Loc: pos}, Kind: ast.IntegerLit, Int: lexer.ParseInt(literal)}
	case token.Float:
		literal := p.advance().Literal
		return &ast.Literal{NodeBase: ast.NodeBase{Loc: pos}, Kind: ast.FloatLit, Float: lexer.ParseFloat(literal)}
	case token.String:
		literal := p.advance().Literal
		return &ast.Literal{NodeBase: ast.NodeBase{Loc: pos}, Kind: ast.StringLit, Str: literal}
	case token.Char:
		literal := p.advance().Literal
		ch := ' '
		for _, r := range literal {
			ch = r
			break
		}
		return &ast.Literal{NodeBase: ast.NodeBase{Loc: pos}, Kind: ast.CharLit, Char: ch}
	case token.True, token.False:
		value := p.advance().Kind == token.True
		return &ast.Literal{NodeBase: ast.NodeBase{Loc: pos}, Kind: ast.BoolLit, Bool: value}
	case token.Ident:
		name := p.advance().Literal
		if p.kind() == token.With {
			return p.parseNamedConstructor(name, pos)
		}
		return &ast.Variable{NodeBase: ast.NodeBase{Loc: pos}, Name: name}
	case token.LParen:
		return p.parseParenthesized()
	case token.LBrace:
		return p.parseRecord()
	case token.Fn:
		return p.parseLambda()
	case token.If:
		return p.parseIf()
	case token.Match:
		return p.parseMatch()
	case token.Handle:
		return p.parseHandle()
	default:
		p.errorExpected("an expression")
		return ast.UnitLiteral(pos)
	}
}

// parseParenthesized handles `()`, `(expr)`, `(expr : type)` and
// parenthesized multi-statement sequences.
func (p *Parser) parseParenthesized() ast.Node {
	pos := p.expect(token.LParen).Pos
	if p.kind() == token.RParen {
		p.advance()
		return ast.UnitLiteral(pos)
	}

	p.skipNewlines()
	first := p.parseStatement()

	if p.kind() == token.Colon {
		p.advance()
		typeExpr := p.parseType()
		p.expect(token.RParen)
		return &ast.TypeAnnotation{NodeBase: ast.NodeBase{Loc: pos}, Lhs: first, TypeExpr: typeExpr}
	}

	if p.kind() == token.Newline || p.kind() == token.Semicolon {
		statements := []ast.Node{first}
		statements = append(statements, p.parseStatements(func() bool { return p.kind() == token.RParen })...)
		p.expect(token.RParen)
		return &ast.Sequence{NodeBase: ast.NodeBase{Loc: pos}, Statements: statements}
	}

	p.expect(token.RParen)
	return first
}

func (p *Parser) parseRecord() ast.Node {
	pos := p.expect(token.LBrace).Pos
	record := &ast.Record{NodeBase: ast.NodeBase{Loc: pos}}
	for {
		p.skipNewlines()
		name := p.expect(token.Ident).Literal
		p.expect(token.Equal)
		value := p.parseAssign()
		record.Fields = append(record.Fields, ast.RecordField{Name: name, Value: value})
		p.skipNewlines()
		if p.kind() != token.Comma {
			break
		}
		p.advance()
	}
	p.expect(token.RBrace)
	return record
}

// parseNamedConstructor parses `Name with field = expr, ...`, desugaring to
// a call whose arguments the resolver reorders into declaration order.
func (p *Parser) parseNamedConstructor(name string, pos token.Pos) ast.Node {
	p.expect(token.With)
	constructor := &ast.Variable{NodeBase: ast.NodeBase{Loc: pos}, Name: name}

	var fields []ast.RecordField
	for {
		fieldName := p.expect(token.Ident).Literal
		p.expect(token.Equal)
		value := p.parseAssign()
		fields = append(fields, ast.RecordField{Name: fieldName, Value: value})
		if p.kind() != token.Comma {
			break
		}
		p.advance()
	}

	args := make([]ast.Node, len(fields))
	for i, field := range fields {
		args[i] = field.Value
	}
	call := &ast.FunctionCall{NodeBase: ast.NodeBase{Loc: pos}, Function: constructor, Args: args}
	return &ast.NamedConstructor{
		NodeBase:    ast.NodeBase{Loc: pos},
		Constructor: constructor,
		Call:        call,
		FieldNames:  fieldNames(fields),
	}
}

func fieldNames(fields []ast.RecordField) []string {
	names := make([]string, len(fields))
	for i, field := range fields {
		names[i] = field.Name
	}
	return names
}

func (p *Parser) parseLambda() ast.Node {
	pos := p.expect(token.Fn).Pos
	var params []ast.Node
	for p.kind() != token.Arrow && p.kind() != token.EOF {
		params = append(params, p.parsePatternAtom())
	}
	p.expect(token.Arrow)
	body := p.parseExpr()
	return &ast.Lambda{NodeBase: ast.NodeBase{Loc: pos}, Args: params, Body: body}
}

func (p *Parser) parseIf() ast.Node {
	pos := p.expect(token.If).Pos
	condition := p.parseExpr()
	p.expect(token.Then)
	p.skipNewlines()
	then := p.parseExpr()

	saved := p.pos
	p.skipNewlines()
	if p.kind() == token.Else {
		p.advance()
		p.skipNewlines()
		otherwise := p.parseExpr()
		return &ast.If{NodeBase: ast.NodeBase{Loc: pos}, Condition: condition, Then: then, Otherwise: otherwise}
	}
	p.pos = saved
	return &ast.If{
		NodeBase:  ast.NodeBase{Loc: pos},
		Condition: condition,
		Then:      then,
		Otherwise: ast.UnitLiteral(pos),
	}
}

func (p *Parser) parseMatch() ast.Node {
	pos := p.expect(token.Match).Pos
	scrutinee := p.parseExpr()
	node := &ast.Match{NodeBase: ast.NodeBase{Loc: pos}, Expression: scrutinee}

	for {
		saved := p.pos
		p.skipNewlines()
		if p.kind() != token.Pipe {
			p.pos = saved
			break
		}
		p.advance()
		pattern := p.parsePattern()
		p.expect(token.Arrow)
		body := p.parseExpr()
		node.Branches = append(node.Branches, ast.MatchBranch{Pattern: pattern, Body: body})
	}
	if len(node.Branches) == 0 {
		p.errorExpected("at least one match branch")
	}
	return node
}

// parseHandle parses `handle expr` followed by `| op args -> body` branches.
func (p *Parser) parseHandle() ast.Node {
	pos := p.expect(token.Handle).Pos
	expression := p.parseExpr()
	node := &ast.Handle{NodeBase: ast.NodeBase{Loc: pos}, Expression: expression}

	for {
		saved := p.pos
		p.skipNewlines()
		if p.kind() != token.Pipe {
			p.pos = saved
			break
		}
		p.advance()
		opTok := p.expect(token.Ident)
		op := &ast.Variable{NodeBase: ast.NodeBase{Loc: opTok.Pos}, Name: opTok.Literal}
		var args []ast.Node
		for p.kind() != token.Arrow && p.kind() != token.EOF {
			args = append(args, p.parsePatternAtom())
		}
		p.expect(token.Arrow)
		body := p.parseExpr()
		pattern := &ast.FunctionCall{NodeBase: ast.NodeBase{Loc: opTok.Pos}, Function: op, Args: args}
		node.Branches = append(node.Branches, ast.HandleBranch{Pattern: pattern, Body: body})
	}
	if len(node.Branches) == 0 {
		p.errorExpected("at least one handle branch")
	}
	return node
}

// parsePattern parses a match pattern, including comma pairs.
func (p *Parser) parsePattern() ast.Node {
	pattern := p.parsePatternAtom()
	if p.kind() != token.Comma {
		return pattern
	}
	var elements []ast.Node
	elements = append(elements, pattern)
	for p.kind() == token.Comma {
		p.advance()
		elements = append(elements, p.parsePatternAtom())
	}
	result := elements[len(elements)-1]
	for i := len(elements) - 2; i >= 0; i-- {
		result = pairOf(elements[i], result)
	}
	return result
}

// parsePatternAtom parses a single irrefutable-or-literal pattern term.
func (p *Parser) parsePatternAtom() ast.Node {
	pos := p.position()
	switch p.kind() {
	case token.Ident:
		name := p.advance().Literal
		return &ast.Variable{NodeBase: ast.NodeBase{Loc: pos}, Name: name}
	case token.Int:
		literal := p.advance().Literal
		return &ast.Literal{NodeBase: ast.NodeBase{Loc: pos}, Kind: ast.IntegerLit, Int: lexer.ParseInt(literal)}
	case token.True, token.False:
		value := p.advance().Kind == token.True
		return &ast.Literal{NodeBase: ast.NodeBase{Loc: pos}, Kind: ast.BoolLit, Bool: value}
	case token.String:
		literal := p.advance().Literal
		return &ast.Literal{NodeBase: ast.NodeBase{Loc: pos}, Kind: ast.StringLit, Str: literal}
	case token.Char:
		literal := p.advance().Literal
		ch := ' '
		for _, r := range literal {
			ch = r
			break
		}
		return &ast.Literal{NodeBase: ast.NodeBase{Loc: pos}, Kind: ast.CharLit, Char: ch}
	case token.LParen:
		p.advance()
		if p.kind() == token.RParen {
			p.advance()
			return ast.UnitLiteral(pos)
		}
		pattern := p.parsePattern()
		if p.kind() == token.Colon {
			p.advance()
			typeExpr := p.parseType()
			pattern = &ast.TypeAnnotation{NodeBase: ast.NodeBase{Loc: pos}, Lhs: pattern, TypeExpr: typeExpr}
		}
		p.expect(token.RParen)
		return pattern
	default:
		p.errorExpected("a pattern")
		return ast.UnitLiteral(pos)
	}
}

// parseType parses a type expression. Arrows flatten into one function
// type: `a -> b -> c can E` has parameters a and b. An unstated effect
// clause leaves the function's effects open.
func (p *Parser) parseType() ast.TypeExpr {
	pos := p.position()
	parts := []ast.TypeExpr{p.parseTypeApplication()}
	for p.kind() == token.Arrow {
		p.advance()
		parts = append(parts, p.parseTypeApplication())
	}

	var effects []ast.EffectExpr
	hasEffects := false
	if p.kind() == token.Can {
		p.advance()
		hasEffects = true
		for {
			nameTok := p.expect(token.Ident)
			effect := ast.EffectExpr{Name: nameTok.Pos, Id: nameTok.Literal}
			for p.startsTypeAtom() {
				effect.Args = append(effect.Args, p.parseTypeAtom())
			}
			effects = append(effects, effect)
			if p.kind() != token.Comma {
				break
			}
			p.advance()
		}
	}

	if len(parts) == 1 && !hasEffects {
		return parts[0]
	}
	if len(parts) == 1 {
		p.errorExpected("a function type before a `can` clause")
		return parts[0]
	}
	return &ast.FunctionTypeExpr{
		TypeExprBase: ast.TypeExprBase{Loc: pos},
		Parameters:   parts[:len(parts)-1],
		Return:       parts[len(parts)-1],
		Effects:      effects,
		Pure:         hasEffects && len(effects) == 0,
	}
}

func (p *Parser) startsTypeAtom() bool {
	switch p.kind() {
	case token.Ident, token.LParen, token.Ampersand, token.Bang:
		return true
	default:
		return false
	}
}

func (p *Parser) parseTypeApplication() ast.TypeExpr {
	pos := p.position()
	atoms := []ast.TypeExpr{p.parseTypeAtom()}
	for p.startsTypeAtom() {
		atoms = append(atoms, p.parseTypeAtom())
	}
	if len(atoms) == 1 {
		return atoms[0]
	}
	return &ast.TypeApplicationExpr{
		TypeExprBase: ast.TypeExprBase{Loc: pos},
		Constructor:  atoms[0],
		Args:         atoms[1:],
	}
}

func (p *Parser) parseTypeAtom() ast.TypeExpr {
	pos := p.position()
	switch p.kind() {
	case token.Ident:
		name := p.advance().Literal
		return &ast.NamedType{TypeExprBase: ast.TypeExprBase{Loc: pos}, Name: name}
	case token.Ampersand:
		p.advance()
		element := p.parseTypeAtom()
		return &ast.ReferenceTypeExpr{TypeExprBase: ast.TypeExprBase{Loc: pos}, Mutability: ast.ImmutableRef, Element: element}
	case token.Bang:
		p.advance()
		element := p.parseTypeAtom()
		return &ast.ReferenceTypeExpr{TypeExprBase: ast.TypeExprBase{Loc: pos}, Mutability: ast.MutableRef, Element: element}
	case token.LParen:
		p.advance()
		if p.kind() == token.RParen {
			p.advance()
			return &ast.UnitTypeExpr{TypeExprBase: ast.TypeExprBase{Loc: pos}}
		}
		inner := p.parseType()
		if p.kind() == token.Comma {
			p.advance()
			second := p.parseType()
			inner = &ast.PairTypeExpr{TypeExprBase: ast.TypeExprBase{Loc: pos}, First: inner, Second: second}
		}
		p.expect(token.RParen)
		return inner
	default:
		p.errorExpected("a type")
		return &ast.UnitTypeExpr{TypeExprBase: ast.TypeExprBase{Loc: pos}}
	}
}
