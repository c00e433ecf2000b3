package infer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohnathanFL/ante/internal/ast"
	"github.com/JohnathanFL/ante/internal/cache"
	"github.com/JohnathanFL/ante/internal/token"
	"github.com/JohnathanFL/ante/internal/types"
)

func testPos() token.Pos { return token.Pos{File: "test", Line: 1, Column: 1} }

func freshVar(c *cache.ModuleCache, level types.LetBindingLevel) *types.TypeVariable {
	return &types.TypeVariable{ID: c.NextTypeVariableId(level)}
}

func pureFn(params []types.Type, ret types.Type) *types.Function {
	return &types.Function{
		Parameters:  params,
		Return:      ret,
		Environment: types.UnitType,
		Effects:     types.Pure(),
	}
}

func TestUnifyIdenticalTypesYieldsNoBindings(t *testing.T) {
	c := cache.New()

	tests := []struct {
		name string
		typ  types.Type
	}{
		{"primitive", types.IntType},
		{"bool", types.BoolType},
		{"function", pureFn([]types.Type{types.IntType}, types.BoolType)},
		{"variable", freshVar(c, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bindings, diagnostic := TryUnify(tt.typ, tt.typ, testPos(), c, cache.NeverShown)
			require.Nil(t, diagnostic)
			assert.Empty(t, bindings.Bindings)
		})
	}
}

func TestUnifyMismatchedPrimitivesFails(t *testing.T) {
	c := cache.New()
	_, diagnostic := TryUnify(types.IntType, types.BoolType, testPos(), c, cache.IfBranchMismatch)
	require.NotNil(t, diagnostic)
	assert.Equal(t, cache.DiagTypeError, diagnostic.Kind)
	assert.Equal(t, cache.ErrIfBranchMismatch, diagnostic.Error.Code)
}

func TestOccursCheckRejectsRecursiveType(t *testing.T) {
	c := cache.New()
	alpha := freshVar(c, 1)
	fn := pureFn([]types.Type{alpha}, alpha)

	_, diagnostic := TryUnify(alpha, fn, testPos(), c, cache.NeverShown)
	assert.NotNil(t, diagnostic)
}

func TestUnifyVariablesBothDirectionsSucceeds(t *testing.T) {
	c := cache.New()
	alpha := freshVar(c, 1)
	beta := freshVar(c, 1)

	Unify(alpha, beta, testPos(), c, cache.NeverShown)
	require.Zero(t, c.ErrorCount())

	// The second direction is a no-op, not an occurs failure.
	bindings, diagnostic := TryUnify(beta, alpha, testPos(), c, cache.NeverShown)
	require.Nil(t, diagnostic)
	assert.Empty(t, bindings.Bindings)
}

func TestTagSubsumptionIsOneDirectional(t *testing.T) {
	c := cache.New()

	tests := []struct {
		name     string
		actual   *types.Tag
		expected *types.Tag
		ok       bool
	}{
		{"mutable to immutable", types.MutableTag, types.ImmutableTag, true},
		{"immutable to mutable", types.ImmutableTag, types.MutableTag, false},
		{"owned to shared", types.OwnedTag, types.SharedTag, true},
		{"shared to owned", types.SharedTag, types.OwnedTag, false},
		{"mutable to mutable", types.MutableTag, types.MutableTag, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diagnostic := TryUnify(tt.actual, tt.expected, testPos(), c, cache.NeverShown)
			assert.Equal(t, tt.ok, diagnostic == nil)
		})
	}
}

func TestFunctionReturnTypesUnifyReversed(t *testing.T) {
	c := cache.New()

	mutRef := func() types.Type {
		return refOf(ast.MutableRef, types.IntType, c)
	}
	immutRef := func() types.Type {
		return refOf(ast.ImmutableRef, types.IntType, c)
	}

	real := pureFn(nil, mutRef())
	synthetic := pureFn(nil, immutRef())

	// A synthetic expected function with an immutable-ref return accepts a
	// real function returning a mutable ref...
	_, diagnostic := TryUnify(synthetic, real, testPos(), c, cache.NeverShown)
	assert.Nil(t, diagnostic)

	// ...but not the other way around.
	real2 := pureFn(nil, mutRef())
	synthetic2 := pureFn(nil, immutRef())
	_, diagnostic = TryUnify(real2, synthetic2, testPos(), c, cache.NeverShown)
	assert.NotNil(t, diagnostic)
}

func TestVarargsRelaxesArity(t *testing.T) {
	c := cache.New()

	varargs := &types.Function{
		Parameters:  []types.Type{types.IntType},
		Return:      types.UnitType,
		Environment: types.UnitType,
		Effects:     types.Pure(),
		HasVarargs:  true,
	}
	longer := pureFn([]types.Type{types.IntType, types.BoolType, types.CharType}, types.UnitType)

	_, diagnostic := TryUnify(varargs, longer, testPos(), c, cache.NeverShown)
	assert.Nil(t, diagnostic)

	shorter := pureFn(nil, types.UnitType)
	_, diagnostic = TryUnify(varargs, shorter, testPos(), c, cache.NeverShown)
	assert.NotNil(t, diagnostic)
}

func TestRowExtensibility(t *testing.T) {
	c := cache.New()
	rho1 := c.NextTypeVariableIdWithKind(1, types.KindRow)
	rho2 := c.NextTypeVariableIdWithKind(1, types.KindRow)

	left := &types.Struct{Fields: map[string]types.Type{"x": types.IntType}, Row: rho1}
	right := &types.Struct{Fields: map[string]types.Type{"y": types.BoolType}, Row: rho2}

	Unify(left, right, testPos(), c, cache.NeverShown)
	require.Zero(t, c.ErrorCount())

	merged := followBindingsInCache(&types.TypeVariable{ID: rho2}, c)
	combined, ok := merged.(*types.Struct)
	require.True(t, ok, "row should resolve to the merged struct, got %s", merged)

	assert.Contains(t, combined.Fields, "x")
	assert.Contains(t, combined.Fields, "y")
	assert.NotEqual(t, rho1, combined.Row)
	assert.NotEqual(t, rho2, combined.Row)
}

func TestStructSubsetUnifiesWithNominal(t *testing.T) {
	c := cache.New()
	typeID := c.PushTypeInfo("Point", nil, cache.TypeInfoBody{
		Kind: cache.TypeBodyStruct,
		Fields: []cache.Field{
			{Name: "x", Typ: types.IntType},
			{Name: "y", Typ: types.IntType},
		},
	})
	nominal := &types.UserDefined{ID: typeID}

	rho := c.NextTypeVariableIdWithKind(1, types.KindRow)
	partial := &types.Struct{Fields: map[string]types.Type{"x": types.IntType}, Row: rho}

	Unify(partial, nominal, testPos(), c, cache.NeverShown)
	require.Zero(t, c.ErrorCount())
	assert.Equal(t, nominal, followBindingsInCache(&types.TypeVariable{ID: rho}, c))

	// A field absent from the nominal type fails.
	rho2 := c.NextTypeVariableIdWithKind(1, types.KindRow)
	wrong := &types.Struct{Fields: map[string]types.Type{"z": types.IntType}, Row: rho2}
	_, diagnostic := TryUnify(wrong, nominal, testPos(), c, cache.NeverShown)
	assert.NotNil(t, diagnostic)
}

func TestStagedBindingsAreDiscardable(t *testing.T) {
	c := cache.New()
	alpha := freshVar(c, 1)

	bindings, diagnostic := TryUnify(alpha, types.IntType, testPos(), c, cache.NeverShown)
	require.Nil(t, diagnostic)
	require.Len(t, bindings.Bindings, 1)

	// Nothing was committed: the variable can still unify with Bool.
	assert.False(t, c.TypeBindings[alpha.ID].IsBound())
	Unify(alpha, types.BoolType, testPos(), c, cache.NeverShown)
	assert.Zero(t, c.ErrorCount())
	assert.Equal(t, types.BoolType, followBindingsInCache(alpha, c))
}

func TestOccursCheckDemotesLevels(t *testing.T) {
	c := cache.New()
	outer := freshVar(c, 1)
	inner := freshVar(c, 3)

	Unify(outer, pureFn([]types.Type{inner}, types.UnitType), testPos(), c, cache.NeverShown)
	require.Zero(t, c.ErrorCount())
	assert.Equal(t, types.LetBindingLevel(1), c.TypeBindings[inner.ID].Level)
}

func TestNamedGenericsAreRigid(t *testing.T) {
	c := cache.New()
	g1 := &types.NamedGeneric{ID: c.NextTypeVariableId(1), Name: "a"}
	g2 := &types.NamedGeneric{ID: c.NextTypeVariableId(1), Name: "b"}

	_, diagnostic := TryUnify(g1, types.IntType, testPos(), c, cache.NeverShown)
	assert.NotNil(t, diagnostic, "a rigid generic must not unify with a concrete type")

	bindings, diagnostic := TryUnify(g1, g1, testPos(), c, cache.NeverShown)
	require.Nil(t, diagnostic)
	assert.Empty(t, bindings.Bindings)

	// Two distinct rigid generics of the same kind bind to each other.
	bindings, diagnostic = TryUnify(g1, g2, testPos(), c, cache.NeverShown)
	require.Nil(t, diagnostic)
	bound, ok := bindings.Bindings[g1.ID].(*types.NamedGeneric)
	require.True(t, ok)
	assert.Equal(t, g2.ID, bound.ID)
}

func TestInstantiationFreshness(t *testing.T) {
	c := cache.New()
	v := c.NextTypeVariableId(2)
	alpha := &types.TypeVariable{ID: v}
	scheme := types.PolyType([]types.TypeVariableId{v}, pureFn([]types.Type{alpha}, alpha))

	first, _, _ := instantiate(scheme, nil, c)
	second, _, _ := instantiate(scheme, nil, c)

	firstVars := findAllTypevars(first, false, c)
	secondVars := findAllTypevars(second, false, c)
	require.NotEmpty(t, firstVars)
	require.NotEmpty(t, secondVars)
	for _, a := range firstVars {
		for _, b := range secondVars {
			assert.NotEqual(t, a, b, "instantiations must not share variables")
		}
	}
}
