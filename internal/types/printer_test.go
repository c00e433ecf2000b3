package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JohnathanFL/ante/internal/cache"
	"github.com/JohnathanFL/ante/internal/types"
)

func TestShowPrimitivesAndFunctions(t *testing.T) {
	c := cache.New()

	fn := &types.Function{
		Parameters:  []types.Type{types.IntType, types.BoolType},
		Return:      types.UnitType,
		Environment: types.UnitType,
		Effects:     types.Pure(),
	}
	assert.Equal(t, "Int -> Bool -> Unit", types.ShowType(fn, c))
}

func TestShowFollowsBindings(t *testing.T) {
	c := cache.New()
	id := c.NextTypeVariableId(1)
	c.Bind(id, types.BoolType)
	assert.Equal(t, "Bool", types.ShowType(&types.TypeVariable{ID: id}, c))
}

func TestShowAssignsStableVariableNames(t *testing.T) {
	c := cache.New()
	printer := types.NewPrinter(c)

	a := c.NextTypeVariable(1)
	b := c.NextTypeVariable(1)

	assert.Equal(t, "a", printer.Show(a))
	assert.Equal(t, "b", printer.Show(b))
	assert.Equal(t, "a", printer.Show(a))
}

func TestShowGeneralized(t *testing.T) {
	c := cache.New()
	v := c.NextTypeVariableId(2)
	alpha := &types.TypeVariable{ID: v}
	fn := &types.Function{
		Parameters:  []types.Type{alpha},
		Return:      alpha,
		Environment: types.UnitType,
		Effects:     types.Pure(),
	}
	printer := types.NewPrinter(c)
	assert.Equal(t, "forall a. a -> a", printer.ShowGeneralized(types.PolyType([]types.TypeVariableId{v}, fn)))
}

func TestShowEffects(t *testing.T) {
	c := cache.New()
	effectID := c.PushEffectInfo(&cache.EffectInfo{Name: "State"})

	fn := &types.Function{
		Parameters:  []types.Type{types.UnitType},
		Return:      types.IntType,
		Environment: types.UnitType,
		Effects:     types.Only([]types.Effect{{ID: effectID, Args: []types.Type{types.IntType}}}),
	}
	assert.Equal(t, "Unit -> Int can State Int", types.ShowType(fn, c))
}

func TestShowReferencesAndStructs(t *testing.T) {
	c := cache.New()

	ref := &types.TypeApplication{
		Constructor: &types.Ref{
			Mutability: types.MutableTag,
			Sharedness: types.SharedTag,
			Lifetime:   c.NextTypeVariable(1),
		},
		Args: []types.Type{types.IntType},
	}
	assert.Equal(t, "!Int", types.ShowType(ref, c))

	row := c.NextTypeVariableIdWithKind(1, types.KindRow)
	record := &types.Struct{
		Fields: map[string]types.Type{"y": types.BoolType, "x": types.IntType},
		Row:    row,
	}
	assert.Equal(t, "{ x: Int, y: Bool, .. }", types.ShowType(record, c))
}

func TestShowPairs(t *testing.T) {
	c := cache.New()
	pair := types.Pair(c.PairTypeId(), types.IntType, types.BoolType)
	assert.Equal(t, "Int, Bool", types.ShowType(pair, c))
}
