package resolve

import (
	"github.com/JohnathanFL/ante/internal/cache"
	"github.com/JohnathanFL/ante/internal/types"
)

// declarePrelude registers the builtin traits, operators, the pair
// constructor, and the numeric/comparison impls for the primitive types.
func (r *Resolver) declarePrelude() {
	numID := r.declareBuiltinTrait("Num")
	eqID := r.declareBuiltinTrait("Eq")
	cmpID := r.declareBuiltinTrait("Cmp")

	// a -> a -> a given Num a
	for _, op := range []string{"+", "-", "*", "/"} {
		r.declareOperator(op, numID, func(a types.Type) ([]types.Type, types.Type) {
			return []types.Type{a, a}, a
		})
	}
	// a -> a -> Bool given Eq a
	for _, op := range []string{"==", "!="} {
		r.declareOperator(op, eqID, func(a types.Type) ([]types.Type, types.Type) {
			return []types.Type{a, a}, types.BoolType
		})
	}
	// a -> a -> Bool given Cmp a
	for _, op := range []string{"<", ">", "<=", ">="} {
		r.declareOperator(op, cmpID, func(a types.Type) ([]types.Type, types.Type) {
			return []types.Type{a, a}, types.BoolType
		})
	}

	r.declarePairConstructor()

	numeric := []types.PrimitiveKind{types.I8, types.I16, types.I32, types.I64, types.Isz,
		types.U8, types.U16, types.U32, types.U64, types.Usz, types.F32, types.F64}
	for _, kind := range numeric {
		r.declareBuiltinImpl(numID, &types.Primitive{Kind: kind})
		r.declareBuiltinImpl(cmpID, &types.Primitive{Kind: kind})
		r.declareBuiltinImpl(eqID, &types.Primitive{Kind: kind})
	}
	r.declareBuiltinImpl(eqID, types.BoolType)
	r.declareBuiltinImpl(eqID, types.CharType)
	r.declareBuiltinImpl(eqID, &types.UserDefined{ID: r.c.StringTypeId()})
	r.declareBuiltinImpl(cmpID, types.CharType)
}

func (r *Resolver) declareBuiltinTrait(name string) cache.TraitInfoId {
	arg := r.c.NextTypeVariableId(types.InitialLevel)
	id := r.c.PushTraitInfo(&cache.TraitInfo{
		Name:     name,
		TypeArgs: []types.TypeVariableId{arg},
	})
	r.traits[name] = id
	return id
}

// declareOperator declares a builtin operator as a method of the given
// trait: the operator's use sites emit the trait as a direct constraint.
func (r *Resolver) declareOperator(name string, traitID cache.TraitInfoId,
	shape func(a types.Type) ([]types.Type, types.Type)) {

	argVar := r.c.NextTypeVariableId(types.InitialLevel + 1)
	a := &types.TypeVariable{ID: argVar}
	parameters, returnType := shape(a)

	typ := &types.Function{
		Parameters:  parameters,
		Return:      returnType,
		Environment: types.UnitType,
		Effects:     types.Pure(),
	}

	id := r.declare(name, &cache.DefinitionInfo{
		Name: name,
		Kind: cache.DefTraitDefinition,
		Typ:  types.PolyType([]types.TypeVariableId{argVar}, typ),
		TraitInfo: &cache.TraitMembership{
			TraitID: traitID,
			Args:    []types.Type{a},
		},
	})
	r.c.TraitInfos[traitID].Definitions = append(r.c.TraitInfos[traitID].Definitions, id)
}

func (r *Resolver) declarePairConstructor() {
	pairInfo := r.c.TypeInfos[r.c.PairTypeId()]
	first := pairInfo.Args[0]
	second := pairInfo.Args[1]
	a := &types.TypeVariable{ID: first}
	b := &types.TypeVariable{ID: second}

	typ := &types.Function{
		Parameters:  []types.Type{a, b},
		Return:      types.Pair(r.c.PairTypeId(), a, b),
		Environment: types.UnitType,
		Effects:     types.Pure(),
	}
	id := r.declare(",", &cache.DefinitionInfo{
		Name: ",",
		Kind: cache.DefTypeConstructor,
		Typ:  types.PolyType([]types.TypeVariableId{first, second}, typ),
	})
	r.ctorTypes[id] = r.c.PairTypeId()
}

func (r *Resolver) declareBuiltinImpl(traitID cache.TraitInfoId, arg types.Type) {
	r.c.PushImplInfo(0, &cache.ImplInfo{
		TraitID: traitID,
		Args:    []types.Type{arg},
	})
}
