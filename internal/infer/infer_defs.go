package infer

import (
	"github.com/JohnathanFL/ante/internal/ast"
	"github.com/JohnathanFL/ante/internal/cache"
	"github.com/JohnathanFL/ante/internal/types"
)

/* Let
 *   infer cache expr = t
 *   infer (pattern:(generalize t) :: cache) rest = t'
 *   -----------------
 *   infer cache (let pattern = expr in rest) = t'
 */
func inferDefinition(definition *ast.Definition, c *cache.ModuleCache) TypeResult {
	if definition.GetType() != nil {
		return resultOf(types.UnitType, c)
	}

	// Set the type before inferring the body so a recursive reference does
	// not re-enter this definition forever.
	definition.SetType(types.UnitType)
	initializeFunctionType(definition, c)
	markPatternIdsInProgress(definition.Pattern, c)

	// The right-hand side is inferred one level deeper than the pattern; the
	// level difference is what makes its fresh variables generalizable.
	level := definition.Level
	previousLevel := swapLevel(level)

	exprResult := Infer(definition.Expr, c)

	storeLevel(level - 1)

	bindIrrefutablePattern(definition.Pattern, exprResult.Typ, nil, false, c)
	if definition.Pattern.GetType() == nil {
		definition.Pattern.SetType(exprResult.Typ)
	}

	traits := TryGeneralizeDefinition(definition, exprResult.Typ, exprResult.Traits, c)

	storeLevel(previousLevel)
	finishPattern(definition.Pattern, c)

	result := newResult(types.UnitType, traits, c)
	result.Effects = exprResult.Effects
	return result
}

func inferTraitDefinitionNode(trait *ast.TraitDefinition, c *cache.ModuleCache) TypeResult {
	if trait.GetType() != nil {
		return resultOf(types.UnitType, c)
	}
	trait.SetType(types.UnitType)
	previousLevel := swapLevel(trait.Level)
	for _, declaration := range trait.Declarations {
		bindIrrefutablePattern(declaration.Lhs, declaration.Typ, nil, true, c)
	}
	storeLevel(previousLevel)
	return resultOf(types.UnitType, c)
}

func inferExtern(extern *ast.Extern, c *cache.ModuleCache) TypeResult {
	if extern.GetType() != nil {
		return resultOf(types.UnitType, c)
	}
	extern.SetType(types.UnitType)
	previousLevel := swapLevel(extern.Level)
	for _, declaration := range extern.Declarations {
		bindIrrefutablePattern(declaration.Lhs, declaration.Typ, nil, true, c)
	}
	storeLevel(previousLevel)
	return resultOf(types.UnitType, c)
}

func inferTraitImpl(impl *ast.TraitImpl, c *cache.ModuleCache) TypeResult {
	if impl.GetType() != nil {
		return resultOf(types.UnitType, c)
	}
	impl.SetType(types.UnitType)

	traitInfo := c.TraitInfos[impl.TraitInfo]

	typevarsToReplace := make([]types.TypeVariableId, 0, len(traitInfo.TypeArgs)+len(traitInfo.FunDeps))
	typevarsToReplace = append(typevarsToReplace, traitInfo.TypeArgs...)
	typevarsToReplace = append(typevarsToReplace, traitInfo.FunDeps...)

	// Instantiate the parent trait's variables once for the whole impl so
	// every method's declared type refers to the same instances.
	implBindings := make(TypeBindings, len(typevarsToReplace))
	for i, typevar := range typevarsToReplace {
		if i < len(impl.TraitArgTypes) {
			implBindings[typevar] = impl.TraitArgTypes[i]
		}
	}

	given := c.ImplInfos[impl.ImplID].Given

	for _, definition := range impl.Definitions {
		bindIrrefutablePatternInImpl(definition.Pattern, impl.TraitInfo, implBindings, c)

		definitionResult := Infer(definition, c)

		// Only traits given by the definition or the impl may be used;
		// anything else must resolve immediately.
		checkImplPropagatedTraits(definition.Pattern, impl.TraitInfo, given, c)

		// No constraints propagate out of an impl.
		for _, constraint := range definitionResult.Traits {
			ForceResolveTrait(constraint, c)
		}
	}

	return resultOf(types.UnitType, c)
}
