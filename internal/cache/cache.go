// Package cache implements the module cache: the process-lifetime store for
// type-variable bindings, definition metadata, trait/effect/type
// declarations, impl scopes and diagnostics. Everything is arena-allocated
// and referenced by integer ids; types form a DAG through Bound variables
// rather than through pointers.
package cache

import (
	"github.com/JohnathanFL/ante/internal/token"
	"github.com/JohnathanFL/ante/internal/types"
)

// TypeBinding is the state of one inference variable: either bound to a
// type, or unbound with the level and kind it was minted with. Once bound a
// variable never reverts.
type TypeBinding struct {
	Typ   types.Type // nil while unbound
	Level types.LetBindingLevel
	Kind  types.Kind
}

// IsBound reports whether the variable has been bound.
func (b TypeBinding) IsBound() bool { return b.Typ != nil }

// ModuleCache is threaded mutably through the entire inference pass.
type ModuleCache struct {
	TypeBindings    []TypeBinding
	DefinitionInfos []*DefinitionInfo
	TraitInfos      []*TraitInfo
	EffectInfos     []*EffectInfo
	TypeInfos       []*TypeInfo
	ImplInfos       []*ImplInfo
	ImplScopes      [][]ImplInfoId

	Diagnostics []Diagnostic

	// CallStack tracks the definitions currently being inferred, outermost
	// first. Used to detect mutual recursion.
	CallStack []DefinitionInfoId

	MutualRecursionSets []*MutualRecursionSet

	nextTraitConstraintId TraitConstraintId

	stringType types.TypeInfoId
	pairType   types.TypeInfoId
}

// New returns a cache with the builtin nominal types registered and the
// global impl scope allocated.
func New() *ModuleCache {
	c := &ModuleCache{}
	c.ImplScopes = append(c.ImplScopes, nil) // scope 0: the global impl scope
	c.stringType = c.PushTypeInfo("String", nil, TypeInfoBody{Kind: TypeBodyStruct})
	pairArgs := []types.TypeVariableId{
		c.NextTypeVariableId(types.InitialLevel),
		c.NextTypeVariableId(types.InitialLevel),
	}
	first := pairArgs[0]
	second := pairArgs[1]
	c.TypeInfos[c.stringType].Body.Fields = []Field{
		{Name: "data", Typ: &types.TypeApplication{
			Constructor: &types.Ref{
				Mutability: types.ImmutableTag,
				Sharedness: types.SharedTag,
				Lifetime:   c.NextTypeVariable(types.InitialLevel),
			},
			Args: []types.Type{types.CharType},
		}},
		{Name: "length", Typ: &types.Primitive{Kind: types.Usz}},
	}
	c.pairType = c.PushTypeInfo("Pair", pairArgs, TypeInfoBody{
		Kind: TypeBodyStruct,
		Fields: []Field{
			{Name: "first", Typ: &types.TypeVariable{ID: first}},
			{Name: "second", Typ: &types.TypeVariable{ID: second}},
		},
	})
	return c
}

// StringTypeId returns the id of the builtin string type.
func (c *ModuleCache) StringTypeId() types.TypeInfoId { return c.stringType }

// PairTypeId returns the id of the builtin pair type.
func (c *ModuleCache) PairTypeId() types.TypeInfoId { return c.pairType }

// NextTypeVariableId mints a fresh unbound variable at the given level.
func (c *ModuleCache) NextTypeVariableId(level types.LetBindingLevel) types.TypeVariableId {
	return c.NextTypeVariableIdWithKind(level, types.KindStar)
}

// NextTypeVariableIdWithKind mints a fresh unbound variable with an explicit
// kind (integer/float literals, row variables).
func (c *ModuleCache) NextTypeVariableIdWithKind(level types.LetBindingLevel, kind types.Kind) types.TypeVariableId {
	id := types.TypeVariableId(len(c.TypeBindings))
	c.TypeBindings = append(c.TypeBindings, TypeBinding{Level: level, Kind: kind})
	return id
}

// NextTypeVariable mints a fresh variable and wraps it as a type.
func (c *ModuleCache) NextTypeVariable(level types.LetBindingLevel) types.Type {
	return &types.TypeVariable{ID: c.NextTypeVariableId(level)}
}

// Bind permanently binds an unbound variable to a type.
func (c *ModuleCache) Bind(id types.TypeVariableId, typ types.Type) {
	c.TypeBindings[id].Typ = typ
}

// DemoteLevel lowers an unbound variable's level to min(level, current).
// A variable that became bound in the meantime is left alone.
func (c *ModuleCache) DemoteLevel(id types.TypeVariableId, level types.LetBindingLevel) {
	binding := &c.TypeBindings[id]
	if binding.IsBound() {
		return
	}
	if level < binding.Level {
		binding.Level = level
	}
}

// NarrowKind refines a still-unbound star-kinded variable to a more
// specific kind. Bound variables and already-refined kinds are left alone.
func (c *ModuleCache) NarrowKind(id types.TypeVariableId, kind types.Kind) {
	binding := &c.TypeBindings[id]
	if !binding.IsBound() && binding.Kind == types.KindStar {
		binding.Kind = kind
	}
}

// LookupBinding implements types.BindingSource.
func (c *ModuleCache) LookupBinding(id types.TypeVariableId) (types.Type, bool) {
	binding := c.TypeBindings[id]
	if binding.IsBound() {
		return binding.Typ, true
	}
	return nil, false
}

// TypeInfoName implements types.BindingSource.
func (c *ModuleCache) TypeInfoName(id types.TypeInfoId) string {
	return c.TypeInfos[id].Name
}

// EffectInfoName implements types.BindingSource.
func (c *ModuleCache) EffectInfoName(id types.EffectInfoId) string {
	return c.EffectInfos[id].Name
}

// PushDefinitionInfo registers a definition and returns its id.
func (c *ModuleCache) PushDefinitionInfo(info *DefinitionInfo) DefinitionInfoId {
	info.MutualRecursionSet = -1
	id := DefinitionInfoId(len(c.DefinitionInfos))
	c.DefinitionInfos = append(c.DefinitionInfos, info)
	return id
}

// PushTraitInfo registers a trait declaration and returns its id.
func (c *ModuleCache) PushTraitInfo(info *TraitInfo) TraitInfoId {
	id := TraitInfoId(len(c.TraitInfos))
	c.TraitInfos = append(c.TraitInfos, info)
	return id
}

// PushEffectInfo registers an effect declaration and returns its id.
func (c *ModuleCache) PushEffectInfo(info *EffectInfo) types.EffectInfoId {
	id := types.EffectInfoId(len(c.EffectInfos))
	c.EffectInfos = append(c.EffectInfos, info)
	return id
}

// PushTypeInfo registers a nominal type and returns its id.
func (c *ModuleCache) PushTypeInfo(name string, args []types.TypeVariableId, body TypeInfoBody) types.TypeInfoId {
	id := types.TypeInfoId(len(c.TypeInfos))
	c.TypeInfos = append(c.TypeInfos, &TypeInfo{Name: name, Args: args, Body: body})
	return id
}

// PushImplInfo registers a trait impl into the given scope and returns its id.
func (c *ModuleCache) PushImplInfo(scope ImplScopeId, info *ImplInfo) ImplInfoId {
	id := ImplInfoId(len(c.ImplInfos))
	c.ImplInfos = append(c.ImplInfos, info)
	c.ImplScopes[scope] = append(c.ImplScopes[scope], id)
	return id
}

// NextTraitConstraintId issues a fresh id for a trait constraint usage.
func (c *ModuleCache) NextTraitConstraintId() TraitConstraintId {
	id := c.nextTraitConstraintId
	c.nextTraitConstraintId++
	return id
}

// PushDiagnostic appends a diagnostic built from a kind and its arguments.
func (c *ModuleCache) PushDiagnostic(pos token.Pos, kind DiagnosticKind, args ...any) {
	c.PushFullDiagnostic(Diagnostic{Pos: pos, Kind: kind, Args: args})
}

// PushFullDiagnostic appends an already-built diagnostic.
func (c *ModuleCache) PushFullDiagnostic(d Diagnostic) {
	c.Diagnostics = append(c.Diagnostics, d)
}

// ErrorCount returns the number of diagnostics reported so far.
func (c *ModuleCache) ErrorCount() int { return len(c.Diagnostics) }
