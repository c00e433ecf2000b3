package infer

import (
	"github.com/JohnathanFL/ante/internal/ast"
	"github.com/JohnathanFL/ante/internal/cache"
	"github.com/JohnathanFL/ante/internal/types"
)

// TypeResult carries one inference rule's outputs up the tree: the
// expression's type, the trait obligations collected so far, and the
// effects the expression may perform.
type TypeResult struct {
	Typ     types.Type
	Traits  []cache.TraitConstraint
	Effects *types.EffectSet
}

func newResult(typ types.Type, traits []cache.TraitConstraint, c *cache.ModuleCache) TypeResult {
	return TypeResult{Typ: typ, Traits: traits, Effects: anyEffects(c)}
}

func resultOf(typ types.Type, c *cache.ModuleCache) TypeResult {
	return newResult(typ, nil, c)
}

// WithType returns the result with its type replaced.
func (r TypeResult) WithType(typ types.Type) TypeResult {
	r.Typ = typ
	return r
}

// Combine folds a subexpression's result into this one: obligations union,
// effect sets combine.
func (r *TypeResult) Combine(other *TypeResult, c *cache.ModuleCache) {
	r.Traits = append(r.Traits, other.Traits...)
	r.Effects = combineEffects(r.Effects, other.Effects, c)
}

// Infer runs inference on one node and fills in its type field.
func Infer(node ast.Node, c *cache.ModuleCache) TypeResult {
	result := inferImpl(node, c)
	node.SetType(result.Typ)
	return result
}

// InferAst infers an entire program starting from its root expression.
// Definitions are inferred lazily as they are used; unused definitions are
// never inferred. After inference, remaining trait obligations are resolved
// and unhandled effects are reported.
func InferAst(root ast.Node, c *cache.ModuleCache) {
	storeLevel(types.InitialLevel)
	result := Infer(root, c)
	storeLevel(types.InitialLevel - 1)

	for _, constraint := range result.Traits {
		ForceResolveTrait(constraint, c)
	}
	defaultNumericVarsIn([]types.Type{result.Typ}, c)

	remaining := flattenEffects(result.Effects, nil, c)
	if len(remaining.Effects) != 0 {
		printed := types.ShowType(remaining, c)
		c.PushDiagnostic(root.Locate(), cache.DiagUnhandledEffectsInMain, printed)
	}
}

// inferImpl dispatches on the node's variant.
func inferImpl(node ast.Node, c *cache.ModuleCache) TypeResult {
	switch n := node.(type) {
	case *ast.Literal:
		return inferLiteral(n, c)
	case *ast.Variable:
		return inferVariable(n, c)
	case *ast.Lambda:
		return inferLambda(n, c)
	case *ast.FunctionCall:
		return inferCall(n, c)
	case *ast.Definition:
		return inferDefinition(n, c)
	case *ast.If:
		return inferIf(n, c)
	case *ast.Match:
		return inferMatch(n, c)
	case *ast.TypeDefinition:
		return resultOf(types.UnitType, c)
	case *ast.TypeAnnotation:
		return inferAnnotation(n, c)
	case *ast.Import:
		// The checker does not follow imports; definitions are inferred on
		// demand when a variable uses them.
		return resultOf(types.UnitType, c)
	case *ast.TraitDefinition:
		return inferTraitDefinitionNode(n, c)
	case *ast.TraitImpl:
		return inferTraitImpl(n, c)
	case *ast.Return:
		return inferReturn(n, c)
	case *ast.Sequence:
		return inferSequence(n, c)
	case *ast.Extern:
		return inferExtern(n, c)
	case *ast.MemberAccess:
		return inferMemberAccess(n, c)
	case *ast.Assignment:
		return inferAssignment(n, c)
	case *ast.EffectDefinition:
		return inferEffectDefinition(n, c)
	case *ast.Handle:
		return inferHandle(n, c)
	case *ast.NamedConstructor:
		return Infer(n.Call, c)
	case *ast.Reference:
		return inferReference(n, c)
	case *ast.Record:
		return inferRecord(n, c)
	default:
		panic("inferImpl: unhandled AST node variant")
	}
}

// inferNestedDefinition demand-infers a definition referenced before its
// type is known.
func inferNestedDefinition(definitionID cache.DefinitionInfoId, implScope cache.ImplScopeId,
	callsite cache.VariableId, c *cache.ModuleCache) (*types.GeneralizedType, []cache.TraitConstraint) {

	info := c.DefinitionInfos[definitionID]

	// Definition nodes mark their pattern ids themselves; everything else
	// is marked here so recursive references see the placeholder.
	needToMark := info.Kind != cache.DefDefinition
	if needToMark {
		markIdInProgress(definitionID, c)
	}

	var traits []cache.TraitConstraint
	if node, ok := info.Definition.(ast.Node); ok && node != nil {
		traits = Infer(node, c).Traits
	}

	if needToMark {
		markIdFinished(definitionID, c)
	}

	traits = append(traits, toTraitConstraints(definitionID, implScope, callsite, c)...)
	return c.DefinitionInfos[definitionID].Typ, traits
}

// bindClosureEnvironment types each captured variable before the lambda
// body is checked: the capture target is a monomorphic instance of the
// captured definition's type.
func bindClosureEnvironment(environment []*ast.Capture, c *cache.ModuleCache) {
	for _, capture := range environment {
		fromInfo := c.DefinitionInfos[capture.From]
		if fromInfo.Typ == nil {
			continue
		}
		instantiated, _, bindings := instantiate(fromInfo.Typ, nil, c)

		toInfo := c.DefinitionInfos[capture.To]
		toInfo.Typ = types.MonoType(instantiated)
		capture.Bindings = bindings
	}
}

// inferClosureEnvironment builds the environment component of a lambda's
// function type: unit for non-closures, the capture's type for a single
// capture, a nested-pair tuple otherwise.
func inferClosureEnvironment(environment []*ast.Capture, c *cache.ModuleCache) types.Type {
	captured := make([]types.Type, 0, len(environment))
	for _, capture := range environment {
		captured = append(captured, c.DefinitionInfos[capture.To].Typ.IntoMonotype())
	}

	switch len(captured) {
	case 0:
		return types.UnitType
	case 1:
		return captured[0]
	default:
		return makeTupleType(captured, c)
	}
}

// makeTupleType nests at least two types into pairs, right associated.
func makeTupleType(typs []types.Type, c *cache.ModuleCache) types.Type {
	if len(typs) < 2 {
		panic("makeTupleType requires at least two types")
	}
	result := typs[len(typs)-1]
	for i := len(typs) - 2; i >= 0; i-- {
		result = types.Pair(c.PairTypeId(), typs[i], result)
	}
	return result
}

// refOf wraps a type in a reference whose mutability follows the syntactic
// form; sharedness and lifetime are fresh.
func refOf(mutability ast.Mutability, typ types.Type, c *cache.ModuleCache) types.Type {
	var mutabilityType types.Type
	if mutability == ast.PolymorphicRef {
		mutabilityType = nextTypeVariable(c)
	} else {
		mutabilityType = mutability.AsTag()
	}
	constructor := &types.Ref{
		Mutability: mutabilityType,
		Sharedness: nextTypeVariable(c),
		Lifetime:   nextTypeVariable(c),
	}
	return &types.TypeApplication{Constructor: constructor, Args: []types.Type{typ}}
}
