package infer

import (
	"github.com/JohnathanFL/ante/internal/cache"
	"github.com/JohnathanFL/ante/internal/types"
)

// anyEffects returns an empty effect set open through a fresh row variable
// at the current level. Every inference result starts with one so effects
// discovered later can still flow in.
func anyEffects(c *cache.ModuleCache) *types.EffectSet {
	return types.Open(nextRowVariableId(c))
}

// flattenEffects follows extension bindings (cache plus any staged map)
// until the extension is unbound or absent, accumulating effects along the
// way.
func flattenEffects(e *types.EffectSet, b *UnificationBindings, c *cache.ModuleCache) *types.EffectSet {
	effects := make([]types.Effect, len(e.Effects))
	copy(effects, e.Effects)
	extension := e.Extension

	for extension != nil {
		var bound types.Type
		var ok bool
		if b != nil {
			bound, ok = findBinding(*extension, b, c)
		} else if binding := c.TypeBindings[*extension]; binding.IsBound() {
			bound, ok = binding.Typ, true
		}
		if !ok {
			break
		}
		switch inner := bound.(type) {
		case *types.EffectSet:
			effects = append(effects, inner.Effects...)
			extension = inner.Extension
		case *types.TypeVariable:
			id := inner.ID
			extension = &id
		default:
			// An extension bound to anything else is an internal error.
			panic("effect row extension bound to a non-row type")
		}
	}

	flat := &types.EffectSet{Effects: dedupEffects(effects, c)}
	if extension != nil {
		ext := *extension
		flat.Extension = &ext
	}
	return flat
}

func dedupEffects(effects []types.Effect, c *cache.ModuleCache) []types.Effect {
	var out []types.Effect
	for _, candidate := range effects {
		duplicate := false
		for _, kept := range out {
			if kept.ID == candidate.ID && len(kept.Args) == len(candidate.Args) {
				same := true
				for i := range kept.Args {
					if !typesEqual(kept.Args[i], candidate.Args[i], c) {
						same = false
						break
					}
				}
				if same {
					duplicate = true
					break
				}
			}
		}
		if !duplicate {
			out = append(out, candidate)
		}
	}
	return out
}

// tryUnifyEffects unifies two effect rows. Both sides are flattened, then
// matched by effect id with argument vectors unified pointwise. Surplus
// effects on either side are pushed into the opposite extension; a closed
// side with surplus on the other fails.
func tryUnifyEffects(e1, e2 *types.EffectSet, b *UnificationBindings, c *cache.ModuleCache) error {
	f1 := flattenEffects(e1, b, c)
	f2 := flattenEffects(e2, b, c)

	used2 := make([]bool, len(f2.Effects))
	var surplus1 []types.Effect

	for _, eff1 := range f1.Effects {
		matched := false
		for j, eff2 := range f2.Effects {
			if used2[j] || eff2.ID != eff1.ID || len(eff2.Args) != len(eff1.Args) {
				continue
			}
			ok := true
			for i := range eff1.Args {
				if err := tryUnifyInner(eff1.Args[i], eff2.Args[i], b, c); err != nil {
					ok = false
					break
				}
			}
			if ok {
				used2[j] = true
				matched = true
				break
			}
		}
		if !matched {
			surplus1 = append(surplus1, eff1)
		}
	}

	var surplus2 []types.Effect
	for j, eff2 := range f2.Effects {
		if !used2[j] {
			surplus2 = append(surplus2, eff2)
		}
	}

	if len(surplus1) > 0 && f2.Extension == nil {
		return errUnify
	}
	if len(surplus2) > 0 && f1.Extension == nil {
		return errUnify
	}

	switch {
	case f1.Extension == nil && f2.Extension == nil:
		return nil

	case f1.Extension != nil && f2.Extension == nil:
		b.Bindings[*f1.Extension] = types.Only(surplus2)
		return nil

	case f1.Extension == nil && f2.Extension != nil:
		b.Bindings[*f2.Extension] = types.Only(surplus1)
		return nil

	default:
		if *f1.Extension == *f2.Extension {
			if len(surplus1) > 0 || len(surplus2) > 0 {
				return errUnify
			}
			return nil
		}
		fresh := newRowVariable(*f1.Extension, *f2.Extension, c)
		b.Bindings[*f1.Extension] = &types.EffectSet{Effects: surplus2, Extension: &fresh}
		b.Bindings[*f2.Extension] = &types.EffectSet{Effects: surplus1, Extension: &fresh}
		return nil
	}
}

// combineEffects unions two effect rows, unifying their extensions through
// the cache. The result carries a shared extension so later growth of
// either row is seen by both.
func combineEffects(a, b *types.EffectSet, c *cache.ModuleCache) *types.EffectSet {
	fa := flattenEffects(a, nil, c)
	fb := flattenEffects(b, nil, c)

	effects := dedupEffects(append(fa.Effects, fb.Effects...), c)

	switch {
	case fa.Extension == nil && fb.Extension == nil:
		return types.Only(effects)
	case fa.Extension != nil && fb.Extension == nil:
		return &types.EffectSet{Effects: effects, Extension: fa.Extension}
	case fa.Extension == nil && fb.Extension != nil:
		return &types.EffectSet{Effects: effects, Extension: fb.Extension}
	case *fa.Extension == *fb.Extension:
		return &types.EffectSet{Effects: effects, Extension: fa.Extension}
	default:
		fresh := newRowVariable(*fa.Extension, *fb.Extension, c)
		c.Bind(*fa.Extension, types.Open(fresh))
		c.Bind(*fb.Extension, types.Open(fresh))
		return &types.EffectSet{Effects: effects, Extension: &fresh}
	}
}

// handleEffectsFrom removes the effects of handled (a handle branch
// pattern's effect set) from set, appending each removed effect to
// handledEffects. The remainder, still carrying set's extension, propagates
// outward.
func handleEffectsFrom(set, handled *types.EffectSet, handledEffects *[]types.Effect,
	c *cache.ModuleCache) *types.EffectSet {

	flat := flattenEffects(set, nil, c)
	target := flattenEffects(handled, nil, c)

	remaining := flat.Effects
	for _, eff := range target.Effects {
		// Remove every occurrence the handled effect matches: the pattern's
		// own use of the operation and the handled expression's uses are
		// separate entries until their arguments unify.
		kept := remaining[:0:0]
		for _, candidate := range remaining {
			if candidate.ID == eff.ID && len(candidate.Args) == len(eff.Args) {
				if bindings, ok := tryUnifyAllHideError(candidate.Args, eff.Args, c); ok {
					bindings.Perform(c)
					*handledEffects = appendHandledEffect(*handledEffects, candidate, c)
					continue
				}
			}
			kept = append(kept, candidate)
		}
		remaining = kept
	}

	return &types.EffectSet{Effects: remaining, Extension: flat.Extension}
}

func appendHandledEffect(handled []types.Effect, eff types.Effect, c *cache.ModuleCache) []types.Effect {
	for _, existing := range handled {
		if existing.ID == eff.ID && len(existing.Args) == len(eff.Args) {
			same := true
			for i := range existing.Args {
				if !typesEqual(existing.Args[i], eff.Args[i], c) {
					same = false
					break
				}
			}
			if same {
				return handled
			}
		}
	}
	return append(handled, eff)
}

// effectsBindTypevars applies a sparse binding map to an effect row.
func effectsBindTypevars(e *types.EffectSet, bindings TypeBindings, c *cache.ModuleCache) types.Type {
	out := &types.EffectSet{}
	for _, eff := range e.Effects {
		args := make([]types.Type, len(eff.Args))
		for i, arg := range eff.Args {
			args[i] = bindTypevars(arg, bindings, c)
		}
		out.Effects = append(out.Effects, types.Effect{ID: eff.ID, Args: args})
	}
	if e.Extension != nil {
		mergeExtension(out, bindTypevar(*e.Extension, bindings, c), bindings, c)
	}
	return out
}

// effectsReplaceAllTypevars freshens every variable in an effect row,
// including the extension.
func effectsReplaceAllTypevars(e *types.EffectSet, newBindings TypeBindings, c *cache.ModuleCache) types.Type {
	out := &types.EffectSet{}
	for _, eff := range e.Effects {
		args := make([]types.Type, len(eff.Args))
		for i, arg := range eff.Args {
			args[i] = replaceAllTypevarsWithBindings(arg, newBindings, c)
		}
		out.Effects = append(out.Effects, types.Effect{ID: eff.ID, Args: args})
	}
	if e.Extension != nil {
		mergeExtension(out, replaceTypevarWithBinding(*e.Extension, newBindings, c), nil, c)
	}
	return out
}

// mergeExtension folds whatever an extension variable resolved to back into
// the row being built.
func mergeExtension(out *types.EffectSet, resolved types.Type, bindings TypeBindings, c *cache.ModuleCache) {
	switch ext := resolved.(type) {
	case *types.TypeVariable:
		id := ext.ID
		out.Extension = &id
	case *types.EffectSet:
		out.Effects = append(out.Effects, ext.Effects...)
		if ext.Extension != nil {
			mergeExtension(out, bindTypevar(*ext.Extension, bindings, c), bindings, c)
		}
	default:
		panic("effect row extension bound to a non-row type")
	}
}

func effectsOccurs(e *types.EffectSet, id types.TypeVariableId, level types.LetBindingLevel,
	b *UnificationBindings, fuel int, c *cache.ModuleCache) occursResult {

	result := doesNotOccur()
	for _, eff := range e.Effects {
		result = result.thenAll(eff.Args, func(arg types.Type) occursResult {
			return occurs(id, level, arg, b, fuel, c)
		})
		if result.occurs {
			return result
		}
	}
	if e.Extension != nil {
		result = result.then(func() occursResult {
			return typevarsMatch(id, level, *e.Extension, b, fuel, c)
		})
	}
	return result
}

func effectsFindAllTypevars(e *types.EffectSet, polymorphicOnly bool, c *cache.ModuleCache, fuel int) []types.TypeVariableId {
	var vars []types.TypeVariableId
	for _, eff := range e.Effects {
		for _, arg := range eff.Args {
			vars = append(vars, findAllTypevarsHelper(arg, polymorphicOnly, c, fuel)...)
		}
	}
	if e.Extension != nil {
		vars = append(vars, findTypevarsInBinding(*e.Extension, polymorphicOnly, c, fuel)...)
	}
	return vars
}

func effectsContainsAny(e *types.EffectSet, list []types.TypeVariableId, c *cache.ModuleCache) bool {
	for _, eff := range e.Effects {
		for _, arg := range eff.Args {
			if containsAnyTypevarsFromList(arg, list, c) {
				return true
			}
		}
	}
	return e.Extension != nil && typeVariableContainsAny(*e.Extension, list, c)
}
