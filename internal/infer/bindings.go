package infer

import (
	"github.com/JohnathanFL/ante/internal/cache"
	"github.com/JohnathanFL/ante/internal/types"
)

// TypeBindings is a sparse set of variable-to-type bindings.
type TypeBindings map[types.TypeVariableId]types.Type

// levelBinding demotes one variable to an outer scope's level.
type levelBinding struct {
	id    types.TypeVariableId
	level types.LetBindingLevel
}

// kindBinding narrows a star-kinded variable to a numeric literal kind when
// a polymorphic int/float variable is bound to it, so defaulting still sees
// the literal through the binding chain.
type kindBinding struct {
	id   types.TypeVariableId
	kind types.Kind
}

// UnificationBindings is the staged, uncommitted result of one unification
// call: bindings to install plus level demotions to apply. Nothing touches
// the cache until Perform, so chained unification attempts (assignment,
// member-access auto-deref) can discard a failed attempt wholesale.
type UnificationBindings struct {
	Bindings TypeBindings
	levels   []levelBinding
	kinds    []kindBinding
}

// EmptyBindings returns a fresh staging area.
func EmptyBindings() *UnificationBindings {
	return &UnificationBindings{Bindings: make(TypeBindings)}
}

// Perform commits the staged bindings and level demotions to the cache.
// A demotion whose variable was bound in the meantime is a no-op.
func (b *UnificationBindings) Perform(c *cache.ModuleCache) {
	for id, typ := range b.Bindings {
		c.Bind(id, typ)
	}
	for _, lb := range b.levels {
		c.DemoteLevel(lb.id, lb.level)
	}
	// Kind narrowings chase the binding chain: the variable they targeted
	// may itself have been bound by this same unification.
	for _, kb := range b.kinds {
		id := kb.id
		for {
			binding := c.TypeBindings[id]
			if !binding.IsBound() {
				c.NarrowKind(id, kb.kind)
				break
			}
			tv, ok := binding.Typ.(*types.TypeVariable)
			if !ok {
				break
			}
			id = tv.ID
		}
	}
}

// Extend merges another staging area into this one.
func (b *UnificationBindings) Extend(other *UnificationBindings) {
	for id, typ := range other.Bindings {
		b.Bindings[id] = typ
	}
	b.levels = append(b.levels, other.levels...)
	b.kinds = append(b.kinds, other.kinds...)
}

// hasBinding reports whether the variable is bound in the cache or staged.
func hasBinding(id types.TypeVariableId, b *UnificationBindings, c *cache.ModuleCache) bool {
	if c.TypeBindings[id].IsBound() {
		return true
	}
	_, ok := b.Bindings[id]
	return ok
}

// findBinding returns the type a variable is bound to in the cache or the
// staging area, if any.
func findBinding(id types.TypeVariableId, b *UnificationBindings, c *cache.ModuleCache) (types.Type, bool) {
	if binding := c.TypeBindings[id]; binding.IsBound() {
		return binding.Typ, true
	}
	if typ, ok := b.Bindings[id]; ok {
		return typ, true
	}
	return nil, false
}
