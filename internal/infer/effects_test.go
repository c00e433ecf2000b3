package infer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohnathanFL/ante/internal/cache"
	"github.com/JohnathanFL/ante/internal/types"
)

func testEffect(c *cache.ModuleCache, name string, args ...types.Type) types.Effect {
	id := c.PushEffectInfo(&cache.EffectInfo{Name: name})
	return types.Effect{ID: id, Args: args}
}

func TestEffectSurplusFlowsIntoExtension(t *testing.T) {
	c := cache.New()
	state := testEffect(c, "State", freshVar(c, 1))

	closed := types.Only([]types.Effect{state})
	extension := c.NextTypeVariableIdWithKind(1, types.KindRow)
	open := types.Open(extension)

	Unify(closed, open, testPos(), c, cache.NeverShown)
	require.Zero(t, c.ErrorCount())

	bound, ok := c.LookupBinding(extension)
	require.True(t, ok, "the open row's extension should be bound")
	row, ok := bound.(*types.EffectSet)
	require.True(t, ok)
	require.Len(t, row.Effects, 1)
	assert.Equal(t, state.ID, row.Effects[0].ID)
	assert.Nil(t, row.Extension)
}

func TestClosedRowsRejectSurplus(t *testing.T) {
	c := cache.New()
	state := testEffect(c, "State")

	closed := types.Only([]types.Effect{state})
	empty := types.Pure()

	_, diagnostic := TryUnify(closed, empty, testPos(), c, cache.NeverShown)
	assert.NotNil(t, diagnostic)
}

func TestTwoOpenRowsShareAFreshExtension(t *testing.T) {
	c := cache.New()
	read := testEffect(c, "Read")
	write := testEffect(c, "Write")

	ext1 := c.NextTypeVariableIdWithKind(1, types.KindRow)
	ext2 := c.NextTypeVariableIdWithKind(1, types.KindRow)
	left := &types.EffectSet{Effects: []types.Effect{read}, Extension: &ext1}
	right := &types.EffectSet{Effects: []types.Effect{write}, Extension: &ext2}

	Unify(left, right, testPos(), c, cache.NeverShown)
	require.Zero(t, c.ErrorCount())

	flatLeft := flattenEffects(left, nil, c)
	flatRight := flattenEffects(right, nil, c)

	ids := func(set *types.EffectSet) []types.EffectInfoId {
		var out []types.EffectInfoId
		for _, e := range set.Effects {
			out = append(out, e.ID)
		}
		return out
	}
	assert.ElementsMatch(t, []types.EffectInfoId{read.ID, write.ID}, ids(flatLeft))
	assert.ElementsMatch(t, []types.EffectInfoId{read.ID, write.ID}, ids(flatRight))

	require.NotNil(t, flatLeft.Extension)
	require.NotNil(t, flatRight.Extension)
	assert.Equal(t, *flatLeft.Extension, *flatRight.Extension)
	assert.NotEqual(t, ext1, *flatLeft.Extension)
}

func TestCombineEffectsUnionsRows(t *testing.T) {
	c := cache.New()
	read := testEffect(c, "Read")
	write := testEffect(c, "Write")

	combined := combineEffects(types.Only([]types.Effect{read}), types.Only([]types.Effect{write}), c)
	require.Len(t, combined.Effects, 2)
	assert.Nil(t, combined.Extension)

	// Combining with itself does not duplicate effects.
	again := combineEffects(combined, combined, c)
	assert.Len(t, again.Effects, 2)
}

func TestHandleEffectsFromRemovesHandled(t *testing.T) {
	c := cache.New()
	state := testEffect(c, "State", types.IntType)
	log := testEffect(c, "Log")

	extension := c.NextTypeVariableIdWithKind(1, types.KindRow)
	set := &types.EffectSet{Effects: []types.Effect{state, log}, Extension: &extension}

	var handled []types.Effect
	remaining := handleEffectsFrom(set, types.Only([]types.Effect{state}), &handled, c)

	require.Len(t, handled, 1)
	assert.Equal(t, state.ID, handled[0].ID)
	require.Len(t, remaining.Effects, 1)
	assert.Equal(t, log.ID, remaining.Effects[0].ID)
	require.NotNil(t, remaining.Extension)
	assert.Equal(t, extension, *remaining.Extension)
}
