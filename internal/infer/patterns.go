package infer

import (
	"github.com/JohnathanFL/ante/internal/ast"
	"github.com/JohnathanFL/ante/internal/cache"
	"github.com/JohnathanFL/ante/internal/types"
)

// bindIrrefutablePattern binds a type to an irrefutable pattern, verifying
// irrefutability as it recurses. With shouldGeneralize set, every variable
// bound gets a generalized type. requiredTraits are appended to each bound
// definition's required-traits list.
func bindIrrefutablePattern(pattern ast.Node, typ types.Type, requiredTraits []cache.RequiredTrait,
	shouldGeneralize bool, c *cache.ModuleCache) {

	switch node := pattern.(type) {
	case *ast.Literal:
		if node.Kind == ast.UnitLit {
			node.SetType(types.UnitType)
			Unify(types.UnitType, typ, pattern.Locate(), c, cache.ExpectedUnitTypeFromPattern)
			return
		}
		c.PushDiagnostic(pattern.Locate(), cache.DiagPatternIsNotIrrefutable)

	case *ast.Variable:
		info := c.DefinitionInfos[node.Definition]

		// The type may already be set (e.g. from a trait impl this
		// definition belongs to); unify the existing and new types before
		// generalizing.
		if info.Typ != nil {
			if info.Typ.IsPolyType() {
				shouldGeneralize = true
			}
			existing := info.Typ.RemoveForall()
			Unify(existing, typ, node.Locate(), c, cache.VariableDoesNotMatchDeclaredType)
		}

		generalized := types.MonoType(typ)
		if shouldGeneralize {
			generalized = generalize(typ, c)
		}

		info.RequiredTraits = append(info.RequiredTraits, requiredTraits...)
		node.SetType(generalized.RemoveForall())
		info.Typ = generalized

	case *ast.TypeAnnotation:
		Unify(typ, node.Annotation, node.Locate(), c, cache.PatternTypeDoesNotMatchAnnotated)
		bindIrrefutablePattern(node.Lhs, typ, requiredTraits, shouldGeneralize, c)

	case *ast.FunctionCall:
		if !node.IsPairCtor {
			c.PushDiagnostic(pattern.Locate(), cache.DiagInvalidSyntaxInIrrefutablePattern)
			return
		}
		args := make([]types.Type, len(node.Args))
		for i := range node.Args {
			args[i] = nextTypeVariable(c)
		}
		pairType := &types.TypeApplication{
			Constructor: &types.UserDefined{ID: c.PairTypeId()},
			Args:        args,
		}
		Unify(pairType, typ, node.Locate(), c, cache.ExpectedPairTypeFromPattern)

		node.Function.SetType(&types.Function{
			Parameters:  args,
			Return:      pairType,
			Environment: types.UnitType,
			Effects:     nextTypeVariable(c),
		})
		node.SetType(pairType)

		for i, element := range node.Args {
			bindIrrefutablePattern(element, args[i], requiredTraits, shouldGeneralize, c)
		}

	default:
		c.PushDiagnostic(pattern.Locate(), cache.DiagInvalidSyntaxInIrrefutablePattern)
	}
}

// getPatternType reads the type a pattern would bind to without binding
// anything, used to pre-build recursive functions' skeleton types.
func getPatternType(pattern ast.Node, c *cache.ModuleCache) (types.Type, bool) {
	switch node := pattern.(type) {
	case *ast.Literal:
		if node.Kind == ast.UnitLit {
			return types.UnitType, true
		}
		return nil, false
	case *ast.Variable:
		info := c.DefinitionInfos[node.Definition]
		if info.Typ != nil {
			if info.Typ.IsPolyType() {
				panic("getPatternType: cannot use a polytype as a pattern type")
			}
			return info.Typ.Typ, true
		}
		return nextTypeVariable(c), true
	case *ast.TypeAnnotation:
		return node.Annotation, true
	case *ast.FunctionCall:
		if node.IsPairCtor && len(node.Args) == 2 {
			first, ok := getPatternType(node.Args[0], c)
			if !ok {
				return nil, false
			}
			second, ok := getPatternType(node.Args[1], c)
			if !ok {
				return nil, false
			}
			return types.Pair(c.PairTypeId(), first, second), true
		}
		return nil, false
	default:
		return nil, false
	}
}

// foreachVariable applies f to every variable in an irrefutable pattern.
func foreachVariable(pattern ast.Node, c *cache.ModuleCache, f func(*ast.Variable, *cache.ModuleCache)) {
	switch node := pattern.(type) {
	case *ast.Variable:
		f(node, c)
	case *ast.TypeAnnotation:
		foreachVariable(node.Lhs, c, f)
	case *ast.FunctionCall:
		for _, arg := range node.Args {
			foreachVariable(arg, c, f)
		}
	default:
		c.PushDiagnostic(pattern.Locate(), cache.DiagInvalidSyntaxInIrrefutablePattern)
	}
}

// initializeFunctionType pre-fills a definition's type with a function
// skeleton before its body is checked, which improves errors for recursive
// uses.
func initializeFunctionType(definition *ast.Definition, c *cache.ModuleCache) {
	lambda, ok := definition.Expr.(*ast.Lambda)
	if !ok {
		return
	}

	var definitionID cache.DefinitionInfoId = -1
	foreachVariable(definition.Pattern, c, func(v *ast.Variable, _ *cache.ModuleCache) {
		definitionID = v.Definition
	})
	if definitionID < 0 {
		return
	}

	info := c.DefinitionInfos[definitionID]
	if info.Typ != nil {
		return
	}

	parameters := make([]types.Type, 0, len(lambda.Args))
	for _, param := range lambda.Args {
		typ, ok := getPatternType(param, c)
		if !ok {
			return
		}
		parameters = append(parameters, typ)
	}

	returnType := lambda.Body.GetType()
	if returnType == nil {
		returnType = nextTypeVariable(c)
	}

	info.Typ = types.MonoType(&types.Function{
		Parameters:  parameters,
		Return:      returnType,
		Environment: nextTypeVariable(c),
		Effects:     nextTypeVariable(c),
	})
}

func markPatternIdsInProgress(pattern ast.Node, c *cache.ModuleCache) {
	foreachVariable(pattern, c, func(v *ast.Variable, c *cache.ModuleCache) {
		markIdInProgress(v.Definition, c)
	})
}

func finishPattern(pattern ast.Node, c *cache.ModuleCache) {
	foreachVariable(pattern, c, func(v *ast.Variable, c *cache.ModuleCache) {
		markIdFinished(v.Definition, c)
	})
}

// lookupDefinitionTypeInTrait finds the declared type of a trait method by
// name, inferring the trait's declarations first if needed.
func lookupDefinitionTypeInTrait(name string, traitID cache.TraitInfoId, c *cache.ModuleCache) *types.GeneralizedType {
	traitInfo := c.TraitInfos[traitID]
	for _, definitionID := range traitInfo.Definitions {
		definitionInfo := c.DefinitionInfos[definitionID]
		if definitionInfo.Name == name {
			if definitionInfo.Typ != nil {
				return definitionInfo.Typ
			}
			return inferTraitDefinition(name, traitID, c)
		}
	}
	panic("lookupDefinitionTypeInTrait: name resolution produced an impl member absent from its trait")
}

func lookupDefinitionTraitsInTrait(name string, traitID cache.TraitInfoId, c *cache.ModuleCache) []cache.RequiredTrait {
	traitInfo := c.TraitInfos[traitID]
	for _, definitionID := range traitInfo.Definitions {
		definitionInfo := c.DefinitionInfos[definitionID]
		if definitionInfo.Name == name {
			if definitionInfo.Typ != nil {
				return definitionInfo.RequiredTraits
			}
			inferTraitDefinition(name, traitID, c)
			return c.DefinitionInfos[definitionID].RequiredTraits
		}
	}
	panic("lookupDefinitionTraitsInTrait: name resolution produced an impl member absent from its trait")
}

func inferTraitDefinition(name string, traitID cache.TraitInfoId, c *cache.ModuleCache) *types.GeneralizedType {
	node := c.TraitInfos[traitID].TraitNode
	if node == nil {
		panic("trait declarations were never registered for inference")
	}
	Infer(node.(ast.Node), c)
	return lookupDefinitionTypeInTrait(name, traitID, c)
}

// bindIrrefutablePatternInImpl binds an impl definition's pattern against
// the declared type of the matching method in the parent trait. The shared
// binding map keeps every method in one impl freshened against the same
// variables. This must run before the definition's body is inferred, both
// so generalization has not happened yet and so type errors point into the
// body rather than at the whole definition.
func bindIrrefutablePatternInImpl(pattern ast.Node, traitID cache.TraitInfoId,
	bindings TypeBindings, c *cache.ModuleCache) {

	foreachVariable(pattern, c, func(v *ast.Variable, c *cache.ModuleCache) {
		traitType := lookupDefinitionTypeInTrait(v.Name, traitID, c)
		instantiated := instantiateImplWithBindings(traitType, bindings, c)
		c.DefinitionInfos[v.Definition].Typ = instantiated
	})
}

// checkImplPropagatedTraits verifies that every trait used by an impl
// definition is either declared on the trait method, given by the impl, or
// resolvable right now.
func checkImplPropagatedTraits(pattern ast.Node, traitID cache.TraitInfoId,
	given []cache.ConstraintSignature, c *cache.ModuleCache) {

	foreachVariable(pattern, c, func(v *ast.Variable, c *cache.ModuleCache) {
		useableTraits := lookupDefinitionTraitsInTrait(v.Name, traitID, c)

		definitionID := v.Definition
		used := c.DefinitionInfos[definitionID].RequiredTraits

		var kept []cache.RequiredTrait
		for _, requirement := range used {
			if id, ok := findMatchingTrait(&requirement, useableTraits, given, c); ok {
				requirement.Signature.ID = id
				kept = append(kept, requirement)
				continue
			}
			constraint := cache.TraitConstraint{Required: requirement, Scope: v.ImplScope}
			ForceResolveTrait(constraint, c)
		}
		c.DefinitionInfos[definitionID].RequiredTraits = kept
	})
}

func findMatchingTrait(used *cache.RequiredTrait, useableTraits []cache.RequiredTrait,
	given []cache.ConstraintSignature, c *cache.ModuleCache) (cache.TraitConstraintId, bool) {

	for _, useable := range useableTraits {
		if useable.Signature.TraitID != used.Signature.TraitID {
			continue
		}
		if bindings, ok := tryUnifyAllHideError(used.Signature.Args, useable.Signature.Args, c); ok {
			if len(bindings.Bindings) == 0 {
				return useable.Signature.ID, true
			}
		}
	}

	for _, useable := range given {
		if useable.TraitID != used.Signature.TraitID {
			continue
		}
		if bindings, ok := tryUnifyAllHideError(used.Signature.Args, useable.Args, c); ok {
			if len(bindings.Bindings) == 0 {
				return useable.ID, true
			}
		}
	}

	return 0, false
}
