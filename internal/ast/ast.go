// Package ast defines the abstract syntax tree the inference pass operates
// on. Name resolution populates each node's cross-reference fields
// (definition ids, impl scopes, levels); inference fills the Typ fields.
package ast

import (
	"github.com/JohnathanFL/ante/internal/cache"
	"github.com/JohnathanFL/ante/internal/token"
	"github.com/JohnathanFL/ante/internal/types"
)

// Node is the interface of all AST nodes.
type Node interface {
	Locate() token.Pos
	GetType() types.Type
	SetType(types.Type)
}

// NodeBase carries the fields every node shares.
type NodeBase struct {
	Loc token.Pos
	Typ types.Type
}

func (n *NodeBase) Locate() token.Pos      { return n.Loc }
func (n *NodeBase) GetType() types.Type    { return n.Typ }
func (n *NodeBase) SetType(typ types.Type) { n.Typ = typ }

// Mutability is the syntactic mutability of a reference or reference-taking
// operation.
type Mutability int

const (
	ImmutableRef Mutability = iota
	MutableRef
	PolymorphicRef
)

// AsTag returns the type tag for a non-polymorphic mutability.
func (m Mutability) AsTag() *types.Tag {
	if m == MutableRef {
		return types.MutableTag
	}
	return types.ImmutableTag
}

// LiteralKind enumerates literal forms.
type LiteralKind int

const (
	IntegerLit LiteralKind = iota
	FloatLit
	StringLit
	CharLit
	BoolLit
	UnitLit
)

// Literal is a literal expression.
type Literal struct {
	NodeBase
	Kind    LiteralKind
	Int     int64
	Float   float64
	Str     string
	Char    rune
	Bool    bool
	IntKind *types.PrimitiveKind // explicit suffix, nil for polymorphic literals
}

// UnitLiteral builds a unit literal at the given position.
func UnitLiteral(pos token.Pos) *Literal {
	return &Literal{NodeBase: NodeBase{Loc: pos}, Kind: UnitLit}
}

// Variable is a use of a name. Definition, ImplScope and ID are populated by
// name resolution; InstantiationMapping is filled by inference for later
// trait dispatch.
type Variable struct {
	NodeBase
	Name                 string
	Definition           cache.DefinitionInfoId
	ImplScope            cache.ImplScopeId
	ID                   cache.VariableId
	InstantiationMapping map[types.TypeVariableId]types.Type
}

// Capture is one closed-over variable of a lambda: the definition captured
// from, and the fresh parameter-like definition uses inside the lambda were
// rewritten to.
type Capture struct {
	From     cache.DefinitionInfoId
	VarID    cache.VariableId
	To       cache.DefinitionInfoId
	Bindings map[types.TypeVariableId]types.Type
}

// Lambda is a function literal. Args are irrefutable patterns.
type Lambda struct {
	NodeBase
	Args        []Node
	Body        Node
	Environment []*Capture // sorted by From, empty for non-closures
}

// FunctionCall applies a function to arguments. IsPairCtor marks the builtin
// pair constructor `,`.
type FunctionCall struct {
	NodeBase
	Function   Node
	Args       []Node
	IsPairCtor bool
}

// Definition is a let binding. Level is set during name resolution and is
// the let-binding level its right-hand side is inferred at.
type Definition struct {
	NodeBase
	Pattern Node
	Expr    Node
	Mutable bool
	Level   types.LetBindingLevel
}

// If is a conditional. The parser supplies a unit else branch when the
// source omits one.
type If struct {
	NodeBase
	Condition Node
	Then      Node
	Otherwise Node
}

// MatchBranch is one pattern and its body.
type MatchBranch struct {
	Pattern Node
	Body    Node
}

// Match scrutinizes an expression against branches. DecisionTree is filled
// by the pattern compiler after inference (a *dtree.Tree; untyped here to
// avoid the import cycle).
type Match struct {
	NodeBase
	Expression   Node
	Branches     []MatchBranch
	DecisionTree any
}

// TypeDefField is one declared field of a nominal type.
type TypeDefField struct {
	Name string
	Typ  TypeExpr
}

// TypeDefinition declares a nominal type. Name resolution registers the
// body in the cache and fills TypeID.
type TypeDefinition struct {
	NodeBase
	Name   string
	Args   []string
	Fields []TypeDefField
	TypeID types.TypeInfoId
}

// TypeAnnotation ascribes a type to an expression. Annotation (the type,
// resolved from TypeExpr during name resolution) is distinct from the node's
// own inferred type.
type TypeAnnotation struct {
	NodeBase
	Lhs        Node
	TypeExpr   TypeExpr
	Annotation types.Type
}

// Import brings a module into scope. The checker does not follow imports:
// definitions are inferred on demand when used.
type Import struct {
	NodeBase
	Path string
}

// Declaration is a name : type declaration inside trait, effect and extern
// blocks.
type Declaration struct {
	Lhs      Node
	TypeExpr TypeExpr
	Typ      types.Type // resolved annotation
}

// TraitDefinition declares a trait and its method signatures. ArgNames and
// FunDepNames are the declared generic parameters and functional
// dependencies.
type TraitDefinition struct {
	NodeBase
	Name         string
	ArgNames     []string
	FunDepNames  []string
	Level        types.LetBindingLevel
	Declarations []*Declaration
	TraitInfo    cache.TraitInfoId
}

// GivenConstraint is one constraint in an impl's `given` clause.
type GivenConstraint struct {
	Pos   token.Pos
	Trait string
	Args  []TypeExpr
}

// TraitImpl implements a trait at concrete argument types. TraitArgTypes is
// resolved from ArgTypeExprs during name resolution.
type TraitImpl struct {
	NodeBase
	TraitName     string
	ArgTypeExprs  []TypeExpr
	GivenExprs    []GivenConstraint
	TraitInfo     cache.TraitInfoId
	ImplID        cache.ImplInfoId
	TraitArgTypes []types.Type
	Definitions   []*Definition
}

// Return exits the enclosing function early.
type Return struct {
	NodeBase
	Expression Node
}

// Sequence is a block of statements; its value is the last statement's.
type Sequence struct {
	NodeBase
	Statements []Node
}

// Extern declares definitions whose bodies live elsewhere.
type Extern struct {
	NodeBase
	Level        types.LetBindingLevel
	Declarations []*Declaration
}

// MemberAccess projects a field out of a record. An offset access (`a.!b`)
// produces a reference to the field rather than the field itself.
type MemberAccess struct {
	NodeBase
	Lhs           Node
	Field         string
	IsOffset      bool
	OffsetMutable Mutability
}

// Assignment stores Rhs through the reference Lhs.
type Assignment struct {
	NodeBase
	Lhs Node
	Rhs Node
}

// EffectDefinition declares an effect and its operations.
type EffectDefinition struct {
	NodeBase
	Name         string
	ArgNames     []string
	Level        types.LetBindingLevel
	Declarations []*Declaration
	EffectInfo   types.EffectInfoId
}

// HandleBranch is one handled effect pattern and its body.
type HandleBranch struct {
	Pattern Node
	Body    Node
}

// Handle runs an expression, intercepting a set of its effects. Resumes
// holds the per-branch `resume` definitions created during name resolution;
// EffectsHandled is filled by inference.
type Handle struct {
	NodeBase
	Expression     Node
	Branches       []HandleBranch
	Resumes        []cache.DefinitionInfoId
	EffectsHandled []types.Effect
}

// NamedConstructor is record-constructor sugar (`T with x = 1, y = 2`),
// desugared by the parser into the Call it wraps. Name resolution reorders
// the call's arguments from FieldNames into declaration order.
type NamedConstructor struct {
	NodeBase
	Constructor Node
	Call        Node
	FieldNames  []string
}

// Reference takes a reference to a value.
type Reference struct {
	NodeBase
	Mutability Mutability
	Expression Node
}

// RecordField is one `name = value` field of a record literal.
type RecordField struct {
	Name  string
	Value Node
}

// Record is an anonymous record literal; it infers to a structural record
// with a fresh row variable.
type Record struct {
	NodeBase
	Fields []RecordField
}
