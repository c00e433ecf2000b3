package cache

import (
	"github.com/JohnathanFL/ante/internal/token"
	"github.com/JohnathanFL/ante/internal/types"
)

// DefinitionInfoId indexes a definition in the cache.
type DefinitionInfoId int

// TraitInfoId indexes a trait declaration in the cache.
type TraitInfoId int

// ImplInfoId indexes a trait impl in the cache.
type ImplInfoId int

// ImplScopeId indexes a set of impls visible from some scope.
type ImplScopeId int

// VariableId identifies a single variable use site (a callsite for trait
// dispatch).
type VariableId int

// TraitConstraintId identifies one trait obligation for later dispatch.
type TraitConstraintId int

// DefinitionKind says what sort of declaration a definition arose from.
type DefinitionKind int

const (
	DefDefinition DefinitionKind = iota
	DefTraitDefinition
	DefEffectDefinition
	DefExtern
	DefParameter
	DefMatchPattern
	DefTypeConstructor
)

// TraitMembership records that a definition is a trait method: the trait it
// belongs to and the trait's argument types as they appear in the method's
// declared type.
type TraitMembership struct {
	TraitID TraitInfoId
	Args    []types.Type
}

// DefinitionInfo is everything the checker knows about one definition.
// Definition holds the defining AST node (an *ast.Definition,
// *ast.TraitDefinition, *ast.EffectDefinition or *ast.Extern) for
// demand-driven inference; it is untyped here to keep the cache free of an
// AST dependency.
type DefinitionInfo struct {
	Name    string
	Pos     token.Pos
	Kind    DefinitionKind
	Mutable bool

	// Global marks top-level definitions (and builtins), which are accessed
	// directly rather than captured into closure or handler environments.
	Global bool

	Typ            *types.GeneralizedType // nil until inferred
	RequiredTraits []RequiredTrait
	TraitInfo      *TraitMembership

	Definition any

	UndergoingTypeInference bool

	// MutualRecursionSet is the index into the cache's sets, or -1.
	MutualRecursionSet int
}

// ConstraintSignature is a trait applied to argument types, with an id for
// dispatch.
type ConstraintSignature struct {
	TraitID TraitInfoId
	Args    []types.Type
	ID      TraitConstraintId
}

// CallsiteKind distinguishes direct trait-method uses from constraints
// propagated off another definition.
type CallsiteKind int

const (
	CallsiteDirect CallsiteKind = iota
	CallsiteIndirect
)

// Callsite locates the variable use a constraint arose from.
type Callsite struct {
	Kind CallsiteKind
	Var  VariableId
}

// RequiredTrait is a trait obligation stored on a definition, re-emitted at
// each use site.
type RequiredTrait struct {
	Signature ConstraintSignature
	Callsite  Callsite
}

// AsConstraint re-issues the obligation at a new callsite in a new scope.
func (r RequiredTrait) AsConstraint(scope ImplScopeId, callsite VariableId, id TraitConstraintId) TraitConstraint {
	required := r
	required.Signature.ID = id
	required.Callsite = Callsite{Kind: CallsiteIndirect, Var: callsite}
	return TraitConstraint{Required: required, Scope: scope}
}

// TraitConstraint is an obligation together with the impl scope it must be
// resolved in.
type TraitConstraint struct {
	Required RequiredTrait
	Scope    ImplScopeId
}

// Args returns the constraint's argument types.
func (t *TraitConstraint) Args() []types.Type { return t.Required.Signature.Args }

// TraitInfo is a trait declaration.
type TraitInfo struct {
	Name        string
	TypeArgs    []types.TypeVariableId
	FunDeps     []types.TypeVariableId
	Definitions []DefinitionInfoId
	TraitNode   any // *ast.TraitDefinition
}

// EffectInfo is an effect declaration.
type EffectInfo struct {
	Name         string
	TypeArgs     []types.TypeVariableId
	Declarations []DefinitionInfoId
}

// TypeBodyKind distinguishes nominal type bodies.
type TypeBodyKind int

const (
	TypeBodyStruct TypeBodyKind = iota
	TypeBodyAlias
	TypeBodyUnion
	TypeBodyUnknown
)

// Field is one field of a nominal struct type.
type Field struct {
	Name string
	Typ  types.Type
}

// TypeInfoBody is the body of a nominal type declaration.
type TypeInfoBody struct {
	Kind   TypeBodyKind
	Fields []Field    // struct
	Alias  types.Type // alias
}

// TypeInfo is a nominal type declaration.
type TypeInfo struct {
	Name string
	Args []types.TypeVariableId
	Body TypeInfoBody
}

// ImplInfo is one trait impl: the trait, its argument types, the extra
// constraints the impl is given, and its method definitions.
type ImplInfo struct {
	TraitID     TraitInfoId
	Args        []types.Type
	Given       []ConstraintSignature
	Definitions []DefinitionInfoId
}

// MutualRecursionSet groups definitions found to be mutually recursive so
// they can be generalized together once the whole set is inferred.
type MutualRecursionSet struct {
	Members []DefinitionInfoId

	// Pending holds, per member definition AST node, the inferred monotype
	// and collected constraints awaiting group generalization.
	Pending []PendingGeneralization
}

// PendingGeneralization is one deferred generalization inside a
// mutual-recursion set.
type PendingGeneralization struct {
	Definition any // *ast.Definition
	Typ        types.Type
	Traits     []TraitConstraint
}

// Contains reports whether id is a member of the set.
func (s *MutualRecursionSet) Contains(id DefinitionInfoId) bool {
	for _, member := range s.Members {
		if member == id {
			return true
		}
	}
	return false
}

// Add inserts a member if not already present.
func (s *MutualRecursionSet) Add(id DefinitionInfoId) {
	if !s.Contains(id) {
		s.Members = append(s.Members, id)
	}
}
