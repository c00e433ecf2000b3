package infer

import (
	"github.com/JohnathanFL/ante/internal/ast"
	"github.com/JohnathanFL/ante/internal/cache"
	"github.com/JohnathanFL/ante/internal/types"
)

// markIdInProgress pushes a definition onto the inference call stack and
// installs a placeholder variable as its type so recursive references unify
// against a single variable.
func markIdInProgress(id cache.DefinitionInfoId, c *cache.ModuleCache) {
	c.CallStack = append(c.CallStack, id)

	info := c.DefinitionInfos[id]
	info.UndergoingTypeInference = true

	if info.Typ == nil {
		info.Typ = types.MonoType(nextTypeVariable(c))
	}
}

// markIdFinished pops the call stack. A definition in a mutual-recursion
// set stays flagged as in progress until the whole set completes.
func markIdFinished(id cache.DefinitionInfoId, c *cache.ModuleCache) {
	c.CallStack = c.CallStack[:len(c.CallStack)-1]
	if !DefinitionIsMutuallyRecursive(id, c) {
		c.DefinitionInfos[id].UndergoingTypeInference = false
	}
}

// DefinitionIsMutuallyRecursive reports whether the definition belongs to a
// mutual-recursion set.
func DefinitionIsMutuallyRecursive(id cache.DefinitionInfoId, c *cache.ModuleCache) bool {
	return c.DefinitionInfos[id].MutualRecursionSet >= 0
}

// UpdateMutualRecursionSets is called for every variable use. If the
// referenced definition is still undergoing inference further down the call
// stack, every definition between it and the top of the stack forms a
// mutual-recursion cycle and is merged into one set.
func UpdateMutualRecursionSets(c *cache.ModuleCache, definition cache.DefinitionInfoId, _ cache.VariableId) {
	info := c.DefinitionInfos[definition]
	if !info.UndergoingTypeInference {
		return
	}

	position := -1
	for i, id := range c.CallStack {
		if id == definition {
			position = i
			break
		}
	}
	// Not on the stack (a finished trait member), or direct recursion.
	if position < 0 || position == len(c.CallStack)-1 {
		return
	}

	cycle := c.CallStack[position:]
	setIndex := -1
	for _, member := range cycle {
		if idx := c.DefinitionInfos[member].MutualRecursionSet; idx >= 0 {
			setIndex = idx
			break
		}
	}
	if setIndex < 0 {
		setIndex = len(c.MutualRecursionSets)
		c.MutualRecursionSets = append(c.MutualRecursionSets, &cache.MutualRecursionSet{})
	}
	set := c.MutualRecursionSets[setIndex]
	for _, member := range cycle {
		memberInfo := c.DefinitionInfos[member]
		if memberInfo.MutualRecursionSet >= 0 && memberInfo.MutualRecursionSet != setIndex {
			// Merge a previously discovered set into this one.
			other := c.MutualRecursionSets[memberInfo.MutualRecursionSet]
			for _, id := range other.Members {
				set.Add(id)
				c.DefinitionInfos[id].MutualRecursionSet = setIndex
			}
			set.Pending = append(set.Pending, other.Pending...)
			other.Members = nil
			other.Pending = nil
		}
		set.Add(member)
		memberInfo.MutualRecursionSet = setIndex
	}
}

// TryGeneralizeDefinition generalizes a definition after its right-hand
// side has been inferred, unless the definition belongs to a
// mutual-recursion set with members still being inferred, in which case
// generalization is deferred until the last member finishes. Returns the
// trait constraints to surface to the enclosing scope.
func TryGeneralizeDefinition(def *ast.Definition, typ types.Type,
	traits []cache.TraitConstraint, c *cache.ModuleCache) []cache.TraitConstraint {

	setIndex := -1
	foreachVariable(def.Pattern, c, func(v *ast.Variable, c *cache.ModuleCache) {
		if idx := c.DefinitionInfos[v.Definition].MutualRecursionSet; idx >= 0 {
			setIndex = idx
		}
	})

	if setIndex < 0 {
		return generalizeDefinition(def, typ, traits, c)
	}

	set := c.MutualRecursionSets[setIndex]
	if otherMembersOnStack(set, def, c) {
		// Not the outermost member: record the monotype and wait.
		bindIrrefutablePattern(def.Pattern, typ, nil, false, c)
		set.Pending = append(set.Pending, cache.PendingGeneralization{Definition: def, Typ: typ, Traits: traits})
		return nil
	}

	// The whole set is inferred; generalize every member at once.
	var exposed []cache.TraitConstraint
	for _, pending := range set.Pending {
		pendingDef := pending.Definition.(*ast.Definition)
		exposed = append(exposed, generalizeDefinition(pendingDef, pending.Typ, pending.Traits, c)...)
	}
	set.Pending = nil
	exposed = append(exposed, generalizeDefinition(def, typ, traits, c)...)

	for _, member := range set.Members {
		c.DefinitionInfos[member].UndergoingTypeInference = false
	}
	return exposed
}

// otherMembersOnStack reports whether any member of the set other than this
// definition's own pattern ids is still being inferred.
func otherMembersOnStack(set *cache.MutualRecursionSet, def *ast.Definition, c *cache.ModuleCache) bool {
	own := make(map[cache.DefinitionInfoId]bool)
	foreachVariable(def.Pattern, c, func(v *ast.Variable, _ *cache.ModuleCache) {
		own[v.Definition] = true
	})
	for _, id := range c.CallStack {
		if set.Contains(id) && !own[id] {
			return true
		}
	}
	return false
}

// generalizeDefinition resolves the definition's collected constraints,
// promotes those mentioning a generalized variable onto the definition, and
// binds the pattern with the generalized type. Only lambda and variable
// right-hand sides are generalized; any other expression stays monomorphic.
func generalizeDefinition(def *ast.Definition, typ types.Type,
	traits []cache.TraitConstraint, c *cache.ModuleCache) []cache.TraitConstraint {

	if !isGeneralizableExpr(def.Expr) {
		_, exposed := ResolveTraits(traits, nil, c)
		bindIrrefutablePattern(def.Pattern, typ, nil, false, c)
		return exposed
	}

	// Polymorphic numeric literals settle on their defaults here rather
	// than generalizing; the numeric trait constraint then resolves against
	// the defaulted primitive.
	defaultNumericVarsIn([]types.Type{typ}, c)

	typevars := findAllTypevars(typ, true, c)
	required, exposed := ResolveTraits(traits, typevars, c)
	bindIrrefutablePattern(def.Pattern, typ, required, true, c)
	return exposed
}

func isGeneralizableExpr(expr ast.Node) bool {
	switch e := expr.(type) {
	case *ast.Lambda, *ast.Variable:
		return true
	case *ast.TypeAnnotation:
		return isGeneralizableExpr(e.Lhs)
	default:
		return false
	}
}
