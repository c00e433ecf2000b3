package infer

import (
	"sort"

	"github.com/JohnathanFL/ante/internal/cache"
	"github.com/JohnathanFL/ante/internal/types"
)

// generalize quantifies every variable in typ whose level is at or above
// the current level, e.g. generalize(a -> b -> b) = forall a b. a -> b -> b.
func generalize(typ types.Type, c *cache.ModuleCache) *types.GeneralizedType {
	typevars := findAllTypevars(typ, true, c)
	if len(typevars) == 0 {
		return types.MonoType(typ)
	}
	sort.Slice(typevars, func(i, j int) bool { return typevars[i] < typevars[j] })
	deduped := typevars[:1]
	for _, v := range typevars[1:] {
		if v != deduped[len(deduped)-1] {
			deduped = append(deduped, v)
		}
	}
	return types.PolyType(deduped, typ)
}

func findAllTypevarsInTraits(traits []cache.TraitConstraint, c *cache.ModuleCache) []types.TypeVariableId {
	var typevars []types.TypeVariableId
	for i := range traits {
		for _, typ := range traits[i].Args() {
			typevars = append(typevars, findAllTypevars(typ, true, c)...)
		}
	}
	return typevars
}

// instantiate specializes a polytype by consistently replacing its bound
// variables with fresh monotype variables, carrying any trait constraints
// along. The returned bindings are kept on the variable node for later
// trait dispatch.
func instantiate(g *types.GeneralizedType, constraints []cache.TraitConstraint,
	c *cache.ModuleCache) (types.Type, []cache.TraitConstraint, TypeBindings) {

	if !g.IsPolyType() {
		return g.Typ, constraints, make(TypeBindings)
	}

	toReplace := make(map[types.TypeVariableId]types.TypeVariableId, len(g.TypeVars))
	for _, v := range g.TypeVars {
		toReplace[v] = c.NextTypeVariableIdWithKind(CurrentLevel(), c.TypeBindings[v].Kind)
	}
	typ := replaceTypevars(g.Typ, toReplace, c)

	for _, v := range findAllTypevarsInTraits(constraints, c) {
		if _, ok := toReplace[v]; !ok {
			toReplace[v] = c.NextTypeVariableIdWithKind(CurrentLevel(), c.TypeBindings[v].Kind)
		}
	}

	instantiated := make([]cache.TraitConstraint, len(constraints))
	for i, constraint := range constraints {
		args := make([]types.Type, len(constraint.Required.Signature.Args))
		for j, arg := range constraint.Required.Signature.Args {
			args[j] = replaceTypevars(arg, toReplace, c)
		}
		instantiated[i] = constraint
		instantiated[i].Required.Signature.Args = args
	}

	bindings := make(TypeBindings, len(toReplace))
	for from, to := range toReplace {
		bindings[from] = &types.TypeVariable{ID: to}
	}
	return typ, instantiated, bindings
}

// instantiateImplWithBindings instantiates a trait method's declared type
// using an explicitly shared binding map, so every definition in one impl is
// freshened against the same variables (this is what keeps row identity
// intact across an impl's methods). Unlike instantiate it also replaces the
// variables of monotypes.
func instantiateImplWithBindings(g *types.GeneralizedType, bindings TypeBindings,
	c *cache.ModuleCache) *types.GeneralizedType {

	return types.MonoType(replaceAllTypevarsWithBindings(g.RemoveForall(), bindings, c))
}
