package infer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohnathanFL/ante/internal/cache"
	"github.com/JohnathanFL/ante/internal/types"
)

func TestGeneralizeQuantifiesDeepLevels(t *testing.T) {
	c := cache.New()
	storeLevel(1)

	deep := freshVar(c, 2)
	fn := pureFn([]types.Type{deep}, deep)

	generalized := generalize(fn, c)
	require.True(t, generalized.IsPolyType())
	assert.Equal(t, []types.TypeVariableId{deep.ID}, generalized.TypeVars)
}

func TestGeneralizeSkipsOuterLevels(t *testing.T) {
	c := cache.New()
	storeLevel(2)
	defer storeLevel(1)

	outer := freshVar(c, 1)
	fn := pureFn([]types.Type{outer}, outer)

	generalized := generalize(fn, c)
	assert.False(t, generalized.IsPolyType(),
		"a variable from an outer scope must not be quantified")
}

func TestDemotionPreventsOverGeneralization(t *testing.T) {
	c := cache.New()
	storeLevel(2)
	defer storeLevel(1)

	outer := freshVar(c, 1)
	inner := freshVar(c, 2)

	// Unifying the outer variable with a type containing the inner one
	// demotes the inner variable to the outer scope.
	Unify(outer, pureFn([]types.Type{inner}, types.UnitType), testPos(), c, cache.NeverShown)
	require.Zero(t, c.ErrorCount())

	generalized := generalize(&types.TypeVariable{ID: inner.ID}, c)
	assert.False(t, generalized.IsPolyType())
}

func TestInstantiateCarriesConstraints(t *testing.T) {
	c := cache.New()
	traitID := c.PushTraitInfo(&cache.TraitInfo{Name: "Num"})

	v := c.NextTypeVariableId(2)
	alpha := &types.TypeVariable{ID: v}
	scheme := types.PolyType([]types.TypeVariableId{v}, pureFn([]types.Type{alpha}, alpha))

	constraints := []cache.TraitConstraint{{
		Required: cache.RequiredTrait{
			Signature: cache.ConstraintSignature{TraitID: traitID, Args: []types.Type{alpha}},
		},
	}}

	typ, instantiated, mapping := instantiate(scheme, constraints, c)
	require.Len(t, instantiated, 1)

	fresh, ok := mapping[v].(*types.TypeVariable)
	require.True(t, ok)
	assert.NotEqual(t, v, fresh.ID)

	// The constraint's argument and the type's parameter stay linked.
	fn := typ.(*types.Function)
	assert.Equal(t, fn.Parameters[0], instantiated[0].Args()[0])

	// The original scheme is untouched.
	assert.Equal(t, alpha, constraints[0].Args()[0])
}

func TestInstantiatePreservesVariableKinds(t *testing.T) {
	c := cache.New()
	v := c.NextTypeVariableIdWithKind(2, types.KindInteger)
	scheme := types.PolyType([]types.TypeVariableId{v}, &types.TypeVariable{ID: v})

	typ, _, _ := instantiate(scheme, nil, c)
	fresh := typ.(*types.TypeVariable)
	assert.Equal(t, types.KindInteger, c.TypeBindings[fresh.ID].Kind)
}
