// Package infer implements the type inference pass: substitution and
// traversal over types, the unification kernel with staged bindings and
// level demotion, row and effect unification, generalization and
// instantiation, trait constraint collection and resolution, and the AST
// walk that applies the per-node inference rules.
//
// The pass is single threaded. The current let-binding level is process
// state, saved and restored around every definition right-hand side; if this
// engine is ever embedded in a concurrent host it must move into a
// per-session context.
package infer

import (
	"sync/atomic"

	"github.com/JohnathanFL/ante/internal/cache"
	"github.com/JohnathanFL/ante/internal/types"
)

// currentLevel is the let-binding level inference is currently running at.
// It increases by one on entering a definition's right-hand side and
// decreases on exit. See http://okmij.org/ftp/ML/generalization.html for the
// level-based account of generalization.
var currentLevel atomic.Int64

func init() {
	currentLevel.Store(int64(types.InitialLevel))
}

// CurrentLevel returns the level inference is currently running at.
func CurrentLevel() types.LetBindingLevel {
	return types.LetBindingLevel(currentLevel.Load())
}

func storeLevel(level types.LetBindingLevel) {
	currentLevel.Store(int64(level))
}

func swapLevel(level types.LetBindingLevel) types.LetBindingLevel {
	return types.LetBindingLevel(currentLevel.Swap(int64(level)))
}

// levelIsPolymorphic reports whether variables at the given level are
// eligible for generalization at the current level.
func levelIsPolymorphic(level types.LetBindingLevel) bool {
	return level >= CurrentLevel()
}

// recursionLimit caps recursive type traversals. Exhausting it means a cycle
// escaped the occurs check, which is a programmer error; it panics rather
// than overflowing the stack.
const recursionLimit = 100

// nextTypeVariableId mints a fresh variable at the current level.
func nextTypeVariableId(c *cache.ModuleCache) types.TypeVariableId {
	return c.NextTypeVariableId(CurrentLevel())
}

// nextTypeVariable mints a fresh variable at the current level as a type.
func nextTypeVariable(c *cache.ModuleCache) types.Type {
	return c.NextTypeVariable(CurrentLevel())
}

func nextRowVariableId(c *cache.ModuleCache) types.TypeVariableId {
	return c.NextTypeVariableIdWithKind(CurrentLevel(), types.KindRow)
}
