package infer

import (
	"github.com/JohnathanFL/ante/internal/ast"
	"github.com/JohnathanFL/ante/internal/cache"
	"github.com/JohnathanFL/ante/internal/dtree"
	"github.com/JohnathanFL/ante/internal/token"
	"github.com/JohnathanFL/ante/internal/types"
)

func inferMatch(match *ast.Match, c *cache.ModuleCache) TypeResult {
	errorCount := c.ErrorCount()

	result := Infer(match.Expression, c)
	var returnType types.Type = nextTypeVariable(c)

	if len(match.Branches) != 0 {
		// Infer the first branch separately so every later branch can unify
		// against it.
		first := &match.Branches[0]
		pattern := Infer(first.Pattern, c)
		result.Combine(&pattern, c)

		Unify(pattern.Typ, result.Typ, first.Pattern.Locate(), c, cache.MatchPatternTypeDiffers)

		branch := Infer(first.Body, c)
		result.Combine(&branch, c)
		returnType = branch.Typ

		for i := 1; i < len(match.Branches); i++ {
			patternResult := Infer(match.Branches[i].Pattern, c)
			branchResult := Infer(match.Branches[i].Body, c)

			Unify(patternResult.Typ, result.Typ, match.Branches[i].Pattern.Locate(), c, cache.MatchPatternTypeDiffers)
			Unify(branchResult.Typ, returnType, match.Branches[i].Body.Locate(), c, cache.MatchReturnTypeDiffers)

			result.Combine(&patternResult, c)
			result.Combine(&branchResult, c)
		}
	}

	// The decision tree requires well-typed patterns; skip compilation when
	// this match already produced type errors.
	if c.ErrorCount() == errorCount {
		tree := dtree.Compile(match, c)
		tree.Infer(match.Expression.GetType(), match.Locate(), checkerAdapter{c: c}, c)
		match.DecisionTree = tree
	}

	return result.WithType(returnType)
}

// checkerAdapter lets the pattern compiler call back into the unifier
// without a package cycle.
type checkerAdapter struct {
	c *cache.ModuleCache
}

func (a checkerAdapter) Unify(actual, expected types.Type, pos token.Pos, errorKind cache.TypeErrorKind) {
	Unify(actual, expected, pos, a.c, errorKind)
}

func (a checkerAdapter) Fresh() types.Type {
	return nextTypeVariable(a.c)
}
