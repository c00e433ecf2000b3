package ast

import "github.com/JohnathanFL/ante/internal/token"

// TypeExpr is the syntax of a type annotation, resolved to a types.Type
// during name resolution (which is where named generics are minted so that
// every mention of a generic within one declaration shares an id).
type TypeExpr interface {
	typeExpr()
	TypeLocate() token.Pos
}

// TypeExprBase carries the position of a type expression.
type TypeExprBase struct {
	Loc token.Pos
}

func (t *TypeExprBase) TypeLocate() token.Pos { return t.Loc }

// NamedType references a type by name: a primitive, a nominal type, or
// (for lowercase names) a generic variable.
type NamedType struct {
	TypeExprBase
	Name string
}

func (*NamedType) typeExpr() {}

// FunctionTypeExpr is a function type with an optional effect clause.
type FunctionTypeExpr struct {
	TypeExprBase
	Parameters []TypeExpr
	Return     TypeExpr
	Effects    []EffectExpr
	// Pure distinguishes an explicitly pure arrow from one whose effects
	// were left unstated (and should be open).
	Pure bool
}

func (*FunctionTypeExpr) typeExpr() {}

// EffectExpr names one effect with its type arguments.
type EffectExpr struct {
	Name token.Pos
	Id   string
	Args []TypeExpr
}

// TypeApplicationExpr applies a named type constructor to arguments.
type TypeApplicationExpr struct {
	TypeExprBase
	Constructor TypeExpr
	Args        []TypeExpr
}

func (*TypeApplicationExpr) typeExpr() {}

// ReferenceTypeExpr is `&t` or `!t`.
type ReferenceTypeExpr struct {
	TypeExprBase
	Mutability Mutability
	Element    TypeExpr
}

func (*ReferenceTypeExpr) typeExpr() {}

// PairTypeExpr is `a, b`.
type PairTypeExpr struct {
	TypeExprBase
	First  TypeExpr
	Second TypeExpr
}

func (*PairTypeExpr) typeExpr() {}

// UnitTypeExpr is `unit` / `()`.
type UnitTypeExpr struct {
	TypeExprBase
}

func (*UnitTypeExpr) typeExpr() {}
