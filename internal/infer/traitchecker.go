package infer

import (
	"strings"

	"github.com/JohnathanFL/ante/internal/cache"
	"github.com/JohnathanFL/ante/internal/token"
	"github.com/JohnathanFL/ante/internal/types"
)

// toTraitConstraints re-issues a definition's required traits at a use
// site. A definition that is itself a trait method additionally carries its
// own trait as a direct constraint.
func toTraitConstraints(id cache.DefinitionInfoId, scope cache.ImplScopeId,
	callsite cache.VariableId, c *cache.ModuleCache) []cache.TraitConstraint {

	info := c.DefinitionInfos[id]
	var traits []cache.TraitConstraint
	for _, required := range info.RequiredTraits {
		traits = append(traits, required.AsConstraint(scope, callsite, c.NextTraitConstraintId()))
	}

	if info.TraitInfo != nil {
		traits = append(traits, cache.TraitConstraint{
			Required: cache.RequiredTrait{
				Signature: cache.ConstraintSignature{
					TraitID: info.TraitInfo.TraitID,
					Args:    info.TraitInfo.Args,
					ID:      c.NextTraitConstraintId(),
				},
				Callsite: cache.Callsite{Kind: cache.CallsiteDirect, Var: callsite},
			},
			Scope: scope,
		})
	}
	return traits
}

// ResolveTraits splits the constraints collected for a definition at its
// generalization point. Constraints mentioning a generalized variable are
// promoted into the definition's required-traits list; fully ground
// constraints are resolved against the impls in scope immediately; the rest
// are surfaced to the enclosing scope.
func ResolveTraits(constraints []cache.TraitConstraint, generalizedVars []types.TypeVariableId,
	c *cache.ModuleCache) (required []cache.RequiredTrait, exposed []cache.TraitConstraint) {

	for _, constraint := range constraints {
		mentionsGeneralized := false
		for _, arg := range constraint.Args() {
			if containsAnyTypevarsFromList(arg, generalizedVars, c) {
				mentionsGeneralized = true
				break
			}
		}
		if mentionsGeneralized {
			required = append(required, constraint.Required)
			continue
		}
		if constraintIsGround(&constraint, c) {
			if !resolveConstraint(&constraint, c) {
				pushUnresolvedTrait(&constraint, c)
			}
			continue
		}
		exposed = append(exposed, constraint)
	}
	return required, exposed
}

// ForceResolveTrait resolves a constraint now or reports it. Unbound numeric
// literal variables in its arguments are defaulted first, which is how
// leftover polymorphic int/float literals settle on I32 and F64.
func ForceResolveTrait(constraint cache.TraitConstraint, c *cache.ModuleCache) {
	defaultNumericVarsIn(constraint.Args(), c)
	if !resolveConstraint(&constraint, c) {
		pushUnresolvedTrait(&constraint, c)
	}
}

func pushUnresolvedTrait(constraint *cache.TraitConstraint, c *cache.ModuleCache) {
	printer := types.NewPrinter(c)
	parts := []string{c.TraitInfos[constraint.Required.Signature.TraitID].Name}
	for _, arg := range constraint.Args() {
		parts = append(parts, printer.Show(arg))
	}
	c.PushDiagnostic(token.Pos{}, cache.DiagUnresolvedTraitConstraint, strings.Join(parts, " "))
}

func constraintIsGround(constraint *cache.TraitConstraint, c *cache.ModuleCache) bool {
	for _, arg := range constraint.Args() {
		if len(findAllTypevars(arg, false, c)) != 0 {
			return false
		}
	}
	return true
}

// resolveConstraint searches the constraint's impl scope for a matching
// impl, committing the unification (which is also what propagates
// functional dependencies into the constraint's arguments).
func resolveConstraint(constraint *cache.TraitConstraint, c *cache.ModuleCache) bool {
	traitID := constraint.Required.Signature.TraitID
	for _, implID := range c.ImplScopes[constraint.Scope] {
		impl := c.ImplInfos[implID]
		if impl.TraitID != traitID {
			continue
		}
		implArgs, implBindings := replaceAllTypevars(impl.Args, c)
		bindings, ok := tryUnifyAllHideError(constraint.Args(), implArgs, c)
		if !ok {
			continue
		}
		bindings.Perform(c)

		// The impl's own given constraints must resolve in the same scope.
		resolvedGiven := true
		for _, given := range impl.Given {
			givenArgs := make([]types.Type, len(given.Args))
			for i, arg := range given.Args {
				givenArgs[i] = bindTypevars(arg, implBindings, c)
			}
			inner := cache.TraitConstraint{
				Required: cache.RequiredTrait{
					Signature: cache.ConstraintSignature{TraitID: given.TraitID, Args: givenArgs, ID: given.ID},
					Callsite:  constraint.Required.Callsite,
				},
				Scope: constraint.Scope,
			}
			defaultNumericVarsIn(inner.Args(), c)
			if !resolveConstraint(&inner, c) {
				resolvedGiven = false
			}
		}
		return resolvedGiven
	}
	return false
}

// defaultNumericVarsIn binds any unbound integer- or float-kinded variables
// reachable from the given types to their default primitive.
func defaultNumericVarsIn(args []types.Type, c *cache.ModuleCache) {
	for _, arg := range args {
		for _, id := range findAllTypevars(arg, false, c) {
			binding := c.TypeBindings[id]
			if binding.IsBound() {
				continue
			}
			switch binding.Kind {
			case types.KindInteger:
				c.Bind(id, types.IntType)
			case types.KindFloat:
				c.Bind(id, types.F64Type)
			}
		}
	}
}
