package infer

import (
	"github.com/JohnathanFL/ante/internal/cache"
	"github.com/JohnathanFL/ante/internal/types"
)

// followBindingsInCache returns what a type variable is transitively bound
// to in the cache, stopping at the first unbound variable or non-variable.
func followBindingsInCache(typ types.Type, c *cache.ModuleCache) types.Type {
	for {
		tv, ok := typ.(*types.TypeVariable)
		if !ok {
			return typ
		}
		binding := c.TypeBindings[tv.ID]
		if !binding.IsBound() {
			return typ
		}
		typ = binding.Typ
	}
}

// followBindingsInCacheAndMap is followBindingsInCache, additionally
// consulting a staged binding map.
func followBindingsInCacheAndMap(typ types.Type, b *UnificationBindings, c *cache.ModuleCache) types.Type {
	for {
		tv, ok := typ.(*types.TypeVariable)
		if !ok {
			return typ
		}
		bound, ok := findBinding(tv.ID, b, c)
		if !ok {
			return typ
		}
		typ = bound
	}
}

// bindTypevars replaces only the variables present in the given mapping,
// passing all others through unchanged (modulo following cache bindings).
func bindTypevars(typ types.Type, bindings TypeBindings, c *cache.ModuleCache) types.Type {
	switch t := typ.(type) {
	case *types.Primitive, *types.Tag, *types.UserDefined:
		return t

	case *types.TypeVariable:
		return bindTypevar(t.ID, bindings, c)

	case *types.NamedGeneric:
		if binding, ok := bindings[t.ID]; ok {
			return binding
		}
		return t

	case *types.Function:
		parameters := make([]types.Type, len(t.Parameters))
		for i, parameter := range t.Parameters {
			parameters[i] = bindTypevars(parameter, bindings, c)
		}
		return &types.Function{
			Parameters:  parameters,
			Return:      bindTypevars(t.Return, bindings, c),
			Environment: bindTypevars(t.Environment, bindings, c),
			Effects:     bindTypevars(t.Effects, bindings, c),
			HasVarargs:  t.HasVarargs,
		}

	case *types.Ref:
		return &types.Ref{
			Mutability: bindTypevars(t.Mutability, bindings, c),
			Sharedness: bindTypevars(t.Sharedness, bindings, c),
			Lifetime:   bindTypevars(t.Lifetime, bindings, c),
		}

	case *types.TypeApplication:
		args := make([]types.Type, len(t.Args))
		for i, arg := range t.Args {
			args[i] = bindTypevars(arg, bindings, c)
		}
		return &types.TypeApplication{
			Constructor: bindTypevars(t.Constructor, bindings, c),
			Args:        args,
		}

	case *types.Struct:
		if binding, ok := bindings[t.Row]; ok {
			if rowVar, ok := binding.(*types.TypeVariable); ok {
				fields := make(map[string]types.Type, len(t.Fields))
				for name, field := range t.Fields {
					fields[name] = bindTypevars(field, bindings, c)
				}
				return &types.Struct{Fields: fields, Row: rowVar.ID}
			}
			return binding
		}
		if bound := c.TypeBindings[t.Row]; bound.IsBound() {
			return bindTypevars(bound.Typ, bindings, c)
		}
		fields := make(map[string]types.Type, len(t.Fields))
		for name, field := range t.Fields {
			fields[name] = bindTypevars(field, bindings, c)
		}
		return &types.Struct{Fields: fields, Row: t.Row}

	case *types.EffectSet:
		return effectsBindTypevars(t, bindings, c)

	default:
		return typ
	}
}

// bindTypevar binds a single variable id. The mapping is checked before the
// cache: forall-bound variables can end up bound in the cache, and checking
// the mapping first keeps instantiation from being defeated by those
// bindings.
func bindTypevar(id types.TypeVariableId, bindings TypeBindings, c *cache.ModuleCache) types.Type {
	if binding, ok := bindings[id]; ok {
		return binding
	}
	if bound := c.TypeBindings[id]; bound.IsBound() {
		return bindTypevars(bound.Typ, bindings, c)
	}
	return &types.TypeVariable{ID: id}
}

// replaceTypevars replaces variables according to an id-to-id mapping.
func replaceTypevars(typ types.Type, toReplace map[types.TypeVariableId]types.TypeVariableId, c *cache.ModuleCache) types.Type {
	bindings := make(TypeBindings, len(toReplace))
	for from, to := range toReplace {
		bindings[from] = &types.TypeVariable{ID: to}
	}
	return bindTypevars(typ, bindings, c)
}

// replaceAllTypevars replaces every inference variable in the given types
// with fresh ones, returning the bindings used. Unlike instantiation this
// also freshens variables from outer scopes.
func replaceAllTypevars(typesIn []types.Type, c *cache.ModuleCache) ([]types.Type, TypeBindings) {
	bindings := make(TypeBindings)
	out := make([]types.Type, len(typesIn))
	for i, typ := range typesIn {
		out[i] = replaceAllTypevarsWithBindings(typ, bindings, c)
	}
	return out, bindings
}

// replaceAllTypevarsWithBindings replaces every inference variable, minting
// a fresh variable into newBindings when none is supplied for an id.
func replaceAllTypevarsWithBindings(typ types.Type, newBindings TypeBindings, c *cache.ModuleCache) types.Type {
	switch t := typ.(type) {
	case *types.Primitive, *types.Tag, *types.UserDefined:
		return t

	case *types.TypeVariable:
		return replaceTypevarWithBinding(t.ID, newBindings, c)

	case *types.NamedGeneric:
		return replaceTypevarWithBinding(t.ID, newBindings, c)

	case *types.Function:
		parameters := make([]types.Type, len(t.Parameters))
		for i, parameter := range t.Parameters {
			parameters[i] = replaceAllTypevarsWithBindings(parameter, newBindings, c)
		}
		return &types.Function{
			Parameters:  parameters,
			Return:      replaceAllTypevarsWithBindings(t.Return, newBindings, c),
			Environment: replaceAllTypevarsWithBindings(t.Environment, newBindings, c),
			Effects:     replaceAllTypevarsWithBindings(t.Effects, newBindings, c),
			HasVarargs:  t.HasVarargs,
		}

	case *types.Ref:
		return &types.Ref{
			Mutability: replaceAllTypevarsWithBindings(t.Mutability, newBindings, c),
			Sharedness: replaceAllTypevarsWithBindings(t.Sharedness, newBindings, c),
			Lifetime:   replaceAllTypevarsWithBindings(t.Lifetime, newBindings, c),
		}

	case *types.TypeApplication:
		args := make([]types.Type, len(t.Args))
		for i, arg := range t.Args {
			args[i] = replaceAllTypevarsWithBindings(arg, newBindings, c)
		}
		return &types.TypeApplication{
			Constructor: replaceAllTypevarsWithBindings(t.Constructor, newBindings, c),
			Args:        args,
		}

	case *types.Struct:
		if bound := c.TypeBindings[t.Row]; bound.IsBound() {
			return replaceAllTypevarsWithBindings(bound.Typ, newBindings, c)
		}
		if binding, ok := newBindings[t.Row]; ok {
			return binding
		}
		fields := make(map[string]types.Type, len(t.Fields))
		for name, field := range t.Fields {
			fields[name] = replaceAllTypevarsWithBindings(field, newBindings, c)
		}
		return &types.Struct{Fields: fields, Row: t.Row}

	case *types.EffectSet:
		return effectsReplaceAllTypevars(t, newBindings, c)

	default:
		return typ
	}
}

// replaceTypevarWithBinding resolves a single id during replacement,
// minting a fresh variable of the same kind when the id is unbound and has
// no replacement yet.
func replaceTypevarWithBinding(id types.TypeVariableId, newBindings TypeBindings, c *cache.ModuleCache) types.Type {
	if bound := c.TypeBindings[id]; bound.IsBound() {
		return replaceAllTypevarsWithBindings(bound.Typ, newBindings, c)
	}
	if binding, ok := newBindings[id]; ok {
		return binding
	}
	fresh := c.NextTypeVariableIdWithKind(CurrentLevel(), c.TypeBindings[id].Kind)
	typ := &types.TypeVariable{ID: fresh}
	newBindings[id] = typ
	return typ
}

// containsAnyTypevarsFromList reports whether typ mentions any of the
// listed variables, following cache bindings.
func containsAnyTypevarsFromList(typ types.Type, list []types.TypeVariableId, c *cache.ModuleCache) bool {
	switch t := typ.(type) {
	case *types.Primitive, *types.Tag, *types.UserDefined:
		return false

	case *types.TypeVariable:
		return typeVariableContainsAny(t.ID, list, c)

	case *types.NamedGeneric:
		return typeVariableContainsAny(t.ID, list, c)

	case *types.Function:
		for _, parameter := range t.Parameters {
			if containsAnyTypevarsFromList(parameter, list, c) {
				return true
			}
		}
		return containsAnyTypevarsFromList(t.Return, list, c) ||
			containsAnyTypevarsFromList(t.Environment, list, c) ||
			containsAnyTypevarsFromList(t.Effects, list, c)

	case *types.Ref:
		return containsAnyTypevarsFromList(t.Mutability, list, c) ||
			containsAnyTypevarsFromList(t.Sharedness, list, c) ||
			containsAnyTypevarsFromList(t.Lifetime, list, c)

	case *types.TypeApplication:
		if containsAnyTypevarsFromList(t.Constructor, list, c) {
			return true
		}
		for _, arg := range t.Args {
			if containsAnyTypevarsFromList(arg, list, c) {
				return true
			}
		}
		return false

	case *types.Struct:
		if typeVariableContainsAny(t.Row, list, c) {
			return true
		}
		for _, field := range t.Fields {
			if containsAnyTypevarsFromList(field, list, c) {
				return true
			}
		}
		return false

	case *types.EffectSet:
		return effectsContainsAny(t, list, c)

	default:
		return false
	}
}

func typeVariableContainsAny(id types.TypeVariableId, list []types.TypeVariableId, c *cache.ModuleCache) bool {
	if bound := c.TypeBindings[id]; bound.IsBound() {
		return containsAnyTypevarsFromList(bound.Typ, list, c)
	}
	for _, candidate := range list {
		if candidate == id {
			return true
		}
	}
	return false
}

// findAllTypevars collects the variables contained in typ. With
// polymorphicOnly set, only variables generalizable at the current level are
// returned; that mode is only meaningful during the inference pass itself.
func findAllTypevars(typ types.Type, polymorphicOnly bool, c *cache.ModuleCache) []types.TypeVariableId {
	return findAllTypevarsHelper(typ, polymorphicOnly, c, recursionLimit)
}

func findAllTypevarsHelper(typ types.Type, polymorphicOnly bool, c *cache.ModuleCache, fuel int) []types.TypeVariableId {
	switch t := typ.(type) {
	case *types.Primitive, *types.Tag, *types.UserDefined:
		return nil

	case *types.TypeVariable:
		return findTypevarsInBinding(t.ID, polymorphicOnly, c, fuel)

	case *types.NamedGeneric:
		return findTypevarsInBinding(t.ID, polymorphicOnly, c, fuel)

	case *types.Function:
		var vars []types.TypeVariableId
		for _, parameter := range t.Parameters {
			vars = append(vars, findAllTypevarsHelper(parameter, polymorphicOnly, c, fuel)...)
		}
		vars = append(vars, findAllTypevarsHelper(t.Environment, polymorphicOnly, c, fuel)...)
		vars = append(vars, findAllTypevarsHelper(t.Return, polymorphicOnly, c, fuel)...)
		vars = append(vars, findAllTypevarsHelper(t.Effects, polymorphicOnly, c, fuel)...)
		return vars

	case *types.Ref:
		vars := findAllTypevarsHelper(t.Mutability, polymorphicOnly, c, fuel)
		vars = append(vars, findAllTypevarsHelper(t.Sharedness, polymorphicOnly, c, fuel)...)
		vars = append(vars, findAllTypevarsHelper(t.Lifetime, polymorphicOnly, c, fuel)...)
		return vars

	case *types.TypeApplication:
		vars := findAllTypevarsHelper(t.Constructor, polymorphicOnly, c, fuel)
		for _, arg := range t.Args {
			vars = append(vars, findAllTypevarsHelper(arg, polymorphicOnly, c, fuel)...)
		}
		return vars

	case *types.Struct:
		if bound := c.TypeBindings[t.Row]; bound.IsBound() {
			return findAllTypevarsHelper(bound.Typ, polymorphicOnly, c, fuel)
		}
		vars := findTypevarsInBinding(t.Row, polymorphicOnly, c, fuel)
		for _, name := range t.FieldNames() {
			vars = append(vars, findAllTypevarsHelper(t.Fields[name], polymorphicOnly, c, fuel)...)
		}
		return vars

	case *types.EffectSet:
		return effectsFindAllTypevars(t, polymorphicOnly, c, fuel)

	default:
		return nil
	}
}

func findTypevarsInBinding(id types.TypeVariableId, polymorphicOnly bool, c *cache.ModuleCache, fuel int) []types.TypeVariableId {
	if fuel == 0 {
		panic("recursion limit hit in findAllTypevars")
	}
	fuel--
	binding := c.TypeBindings[id]
	if binding.IsBound() {
		return findAllTypevarsHelper(binding.Typ, polymorphicOnly, c, fuel)
	}
	if !polymorphicOnly || levelIsPolymorphic(binding.Level) {
		return []types.TypeVariableId{id}
	}
	return nil
}

// typeApplicationBindings maps a user-defined type's declared argument
// variables to the concrete arguments of a type application.
func typeApplicationBindings(info *cache.TypeInfo, typeargs []types.Type, c *cache.ModuleCache) TypeBindings {
	bindings := make(TypeBindings)
	for i, declared := range info.Args {
		if i >= len(typeargs) {
			break
		}
		arg := followBindingsInCache(typeargs[i], c)
		if tv, ok := arg.(*types.TypeVariable); ok && tv.ID == declared {
			continue
		}
		bindings[declared] = arg
	}
	return bindings
}

// typesEqual is structural equality following cache bindings. It is only
// used where exact duplicates must be collapsed (effect rows); unification
// is the real equality test everywhere else.
func typesEqual(a, b types.Type, c *cache.ModuleCache) bool {
	a = followBindingsInCache(a, c)
	b = followBindingsInCache(b, c)
	switch at := a.(type) {
	case *types.Primitive:
		bt, ok := b.(*types.Primitive)
		return ok && at.Kind == bt.Kind
	case *types.Tag:
		bt, ok := b.(*types.Tag)
		return ok && at.Kind == bt.Kind
	case *types.UserDefined:
		bt, ok := b.(*types.UserDefined)
		return ok && at.ID == bt.ID
	case *types.TypeVariable:
		bt, ok := b.(*types.TypeVariable)
		return ok && at.ID == bt.ID
	case *types.NamedGeneric:
		bt, ok := b.(*types.NamedGeneric)
		return ok && at.ID == bt.ID
	case *types.Function:
		bt, ok := b.(*types.Function)
		if !ok || len(at.Parameters) != len(bt.Parameters) || at.HasVarargs != bt.HasVarargs {
			return false
		}
		for i := range at.Parameters {
			if !typesEqual(at.Parameters[i], bt.Parameters[i], c) {
				return false
			}
		}
		return typesEqual(at.Return, bt.Return, c) &&
			typesEqual(at.Environment, bt.Environment, c) &&
			typesEqual(at.Effects, bt.Effects, c)
	case *types.Ref:
		bt, ok := b.(*types.Ref)
		return ok && typesEqual(at.Mutability, bt.Mutability, c) &&
			typesEqual(at.Sharedness, bt.Sharedness, c) &&
			typesEqual(at.Lifetime, bt.Lifetime, c)
	case *types.TypeApplication:
		bt, ok := b.(*types.TypeApplication)
		if !ok || len(at.Args) != len(bt.Args) || !typesEqual(at.Constructor, bt.Constructor, c) {
			return false
		}
		for i := range at.Args {
			if !typesEqual(at.Args[i], bt.Args[i], c) {
				return false
			}
		}
		return true
	case *types.Struct:
		bt, ok := b.(*types.Struct)
		if !ok || at.Row != bt.Row || len(at.Fields) != len(bt.Fields) {
			return false
		}
		for name, fieldA := range at.Fields {
			fieldB, ok := bt.Fields[name]
			if !ok || !typesEqual(fieldA, fieldB, c) {
				return false
			}
		}
		return true
	case *types.EffectSet:
		bt, ok := b.(*types.EffectSet)
		if !ok || len(at.Effects) != len(bt.Effects) {
			return false
		}
		for i := range at.Effects {
			if at.Effects[i].ID != bt.Effects[i].ID || len(at.Effects[i].Args) != len(bt.Effects[i].Args) {
				return false
			}
			for j := range at.Effects[i].Args {
				if !typesEqual(at.Effects[i].Args[j], bt.Effects[i].Args[j], c) {
					return false
				}
			}
		}
		if (at.Extension == nil) != (bt.Extension == nil) {
			return false
		}
		return at.Extension == nil || *at.Extension == *bt.Extension
	default:
		return false
	}
}
