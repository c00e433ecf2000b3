package dtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohnathanFL/ante/internal/ast"
	"github.com/JohnathanFL/ante/internal/cache"
)

func intPattern(value int64) ast.Node {
	return &ast.Literal{Kind: ast.IntegerLit, Int: value}
}

func boolPattern(value bool) ast.Node {
	return &ast.Literal{Kind: ast.BoolLit, Bool: value}
}

func varPattern(name string) ast.Node {
	return &ast.Variable{Name: name}
}

func matchOf(patterns ...ast.Node) *ast.Match {
	match := &ast.Match{Expression: varPattern("scrutinee")}
	for _, pattern := range patterns {
		match.Branches = append(match.Branches, ast.MatchBranch{
			Pattern: pattern,
			Body:    &ast.Literal{Kind: ast.UnitLit},
		})
	}
	return match
}

func TestWildcardOnlyCompilesToLeaf(t *testing.T) {
	c := cache.New()
	tree := Compile(matchOf(varPattern("x")), c)
	leaf, ok := tree.Root.(*LeafNode)
	require.True(t, ok)
	assert.Equal(t, 0, leaf.ArmIndex)
	assert.Zero(t, c.ErrorCount())
}

func TestLiteralSwitchWithDefault(t *testing.T) {
	c := cache.New()
	tree := Compile(matchOf(intPattern(0), varPattern("n")), c)

	sw, ok := tree.Root.(*SwitchNode)
	require.True(t, ok)
	assert.Len(t, sw.Cases, 1)
	require.NotNil(t, sw.Default)

	fallback, ok := sw.Default.(*LeafNode)
	require.True(t, ok)
	assert.Equal(t, 1, fallback.ArmIndex)
	assert.Zero(t, c.ErrorCount())
}

func TestMissingCaseIsReported(t *testing.T) {
	c := cache.New()
	Compile(matchOf(intPattern(0), intPattern(1)), c)
	require.NotZero(t, c.ErrorCount())
	assert.Equal(t, cache.DiagMissingMatchCase, c.Diagnostics[0].Kind)
}

func TestBothBoolConstructorsAreExhaustive(t *testing.T) {
	c := cache.New()
	tree := Compile(matchOf(boolPattern(true), boolPattern(false)), c)

	sw, ok := tree.Root.(*SwitchNode)
	require.True(t, ok)
	assert.Len(t, sw.Cases, 2)
	assert.Nil(t, sw.Default)
	assert.Zero(t, c.ErrorCount())
}

func TestPairPatternIsExhaustive(t *testing.T) {
	c := cache.New()
	pair := &ast.FunctionCall{
		Function:   varPattern(","),
		Args:       []ast.Node{varPattern("a"), varPattern("b")},
		IsPairCtor: true,
	}
	tree := Compile(matchOf(pair), c)

	sw, ok := tree.Root.(*SwitchNode)
	require.True(t, ok)
	assert.Nil(t, sw.Default)
	assert.Zero(t, c.ErrorCount())
}
