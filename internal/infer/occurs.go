package infer

import (
	"github.com/JohnathanFL/ante/internal/cache"
	"github.com/JohnathanFL/ante/internal/types"
)

// occursResult reports whether the needle variable occurs in a type, along
// with the level demotions discovered along the way. Demoting every unbound
// variable reachable from the type to the needle's level (when lower) is
// what lets generalization see which variables escaped into outer scopes.
type occursResult struct {
	occurs bool
	levels []levelBinding
}

func doesNotOccur() occursResult { return occursResult{} }

func (r occursResult) then(f func() occursResult) occursResult {
	if !r.occurs {
		other := f()
		r.occurs = other.occurs
		r.levels = append(r.levels, other.levels...)
	}
	return r
}

func (r occursResult) thenAll(typs []types.Type, f func(types.Type) occursResult) occursResult {
	if r.occurs {
		return r
	}
	for _, typ := range typs {
		other := f(typ)
		r.occurs = other.occurs
		r.levels = append(r.levels, other.levels...)
		if r.occurs {
			return r
		}
	}
	return r
}

// occurs reports whether TypeVariable(id) can be found inside typ. As a side
// effect it records level demotions for reachable unbound variables at
// deeper levels; these only take effect if the surrounding unification
// commits.
func occurs(id types.TypeVariableId, level types.LetBindingLevel, typ types.Type,
	b *UnificationBindings, fuel int, c *cache.ModuleCache) occursResult {

	if fuel == 0 {
		panic("recursion limit reached in occurs")
	}
	fuel--

	switch t := typ.(type) {
	case *types.Primitive, *types.UserDefined, *types.Tag:
		return doesNotOccur()

	case *types.TypeVariable:
		return typevarsMatch(id, level, t.ID, b, fuel, c)

	case *types.NamedGeneric:
		return typevarsMatch(id, level, t.ID, b, fuel, c)

	case *types.Function:
		return occursInFunction(id, level, t, b, fuel, c)

	case *types.TypeApplication:
		return occurs(id, level, t.Constructor, b, fuel, c).
			thenAll(t.Args, func(arg types.Type) occursResult {
				return occurs(id, level, arg, b, fuel, c)
			})

	case *types.Ref:
		return occurs(id, level, t.Mutability, b, fuel, c).
			then(func() occursResult { return occurs(id, level, t.Sharedness, b, fuel, c) }).
			then(func() occursResult { return occurs(id, level, t.Lifetime, b, fuel, c) })

	case *types.Struct:
		result := typevarsMatch(id, level, t.Row, b, fuel, c)
		for _, name := range t.FieldNames() {
			if result.occurs {
				return result
			}
			other := occurs(id, level, t.Fields[name], b, fuel, c)
			result.occurs = other.occurs
			result.levels = append(result.levels, other.levels...)
		}
		return result

	case *types.EffectSet:
		return effectsOccurs(t, id, level, b, fuel, c)

	default:
		return doesNotOccur()
	}
}

func occursInFunction(id types.TypeVariableId, level types.LetBindingLevel, f *types.Function,
	b *UnificationBindings, fuel int, c *cache.ModuleCache) occursResult {

	return occurs(id, level, f.Return, b, fuel, c).
		then(func() occursResult { return occurs(id, level, f.Environment, b, fuel, c) }).
		then(func() occursResult { return occurs(id, level, f.Effects, b, fuel, c) }).
		thenAll(f.Parameters, func(parameter types.Type) occursResult {
			return occurs(id, level, parameter, b, fuel, c)
		})
}

// typevarsMatch recurses into a candidate variable's binding, or compares
// ids when unbound, recording a demotion when the candidate lives at a
// deeper level than the needle.
func typevarsMatch(needle types.TypeVariableId, level types.LetBindingLevel, haystack types.TypeVariableId,
	b *UnificationBindings, fuel int, c *cache.ModuleCache) occursResult {

	if bound, ok := findBinding(haystack, b, c); ok {
		return occurs(needle, level, bound, b, fuel, c)
	}
	var levels []levelBinding
	if level < c.TypeBindings[haystack].Level {
		levels = []levelBinding{{id: haystack, level: level}}
	}
	return occursResult{occurs: needle == haystack, levels: levels}
}
