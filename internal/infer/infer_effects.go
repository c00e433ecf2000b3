package infer

import (
	"sort"

	"github.com/JohnathanFL/ante/internal/ast"
	"github.com/JohnathanFL/ante/internal/cache"
	"github.com/JohnathanFL/ante/internal/types"
)

func inferEffectDefinition(effect *ast.EffectDefinition, c *cache.ModuleCache) TypeResult {
	if effect.GetType() != nil {
		return resultOf(types.UnitType, c)
	}
	effect.SetType(types.UnitType)
	previousLevel := swapLevel(effect.Level)

	effectID := effect.EffectInfo
	effectArgs := make([]types.Type, len(c.EffectInfos[effectID].TypeArgs))
	for i, id := range c.EffectInfos[effectID].TypeArgs {
		effectArgs[i] = &types.TypeVariable{ID: id}
	}

	for _, declaration := range effect.Declarations {
		// Generalization waits until the effect is injected into each
		// operation's type.
		bindIrrefutablePattern(declaration.Lhs, declaration.Typ, nil, false, c)

		foreachVariable(declaration.Lhs, c, func(v *ast.Variable, c *cache.ModuleCache) {
			injectEffect(v.Definition, effectID, effectArgs, c)
		})
	}

	storeLevel(previousLevel)
	return resultOf(types.UnitType, c)
}

// injectEffect adds the declared effect to an effect operation's function
// type, then generalizes it. This runs before any unification against the
// operation's type, so exact comparison of the effect args suffices.
func injectEffect(id cache.DefinitionInfoId, effectID types.EffectInfoId,
	effectArgs []types.Type, c *cache.ModuleCache) {

	info := c.DefinitionInfos[id]
	typ := info.Typ.IntoMonotype()
	info.Typ = nil

	function, ok := typ.(*types.Function)
	if !ok {
		// Name resolution verifies every effect operation has function type.
		panic("injectEffect called on a non-function effect operation")
	}

	current := effectsOf(function.Effects, c)
	present := false
	for _, existing := range current.Effects {
		if existing.ID == effectID && len(existing.Args) == len(effectArgs) {
			same := true
			for i := range existing.Args {
				if !typesEqual(existing.Args[i], effectArgs[i], c) {
					same = false
					break
				}
			}
			if same {
				present = true
				break
			}
		}
	}

	effects := current.Copy()
	if !present {
		effects.Effects = append(effects.Effects, types.Effect{ID: effectID, Args: effectArgs})
	}

	injected := &types.Function{
		Parameters:  function.Parameters,
		Return:      function.Return,
		Environment: function.Environment,
		Effects:     types.Only(effects.Effects),
		HasVarargs:  function.HasVarargs,
	}
	info.Typ = generalize(injected, c)
}

// effectsOf views a function's effects field as an effect set.
func effectsOf(effects types.Type, c *cache.ModuleCache) *types.EffectSet {
	switch e := followBindingsInCache(effects, c).(type) {
	case *types.EffectSet:
		return e
	case *types.TypeVariable:
		id := e.ID
		return types.Open(id)
	default:
		panic("function effects field holds a non-row type")
	}
}

func inferHandle(handle *ast.Handle, c *cache.ModuleCache) TypeResult {
	result := Infer(handle.Expression, c)

	// Every branch's `resume` shares one environment type: the free
	// variables of the handle plus a continuation pointer. It cannot be
	// built until the branches are checked, so it starts as a variable.
	resumeEnvironmentVar := nextTypeVariable(c)
	resumeEffects := nextTypeVariable(c)

	type patternResult struct {
		traits  []cache.TraitConstraint
		effects *types.EffectSet
	}
	patternResults := make([]patternResult, 0, len(handle.Branches))
	branchResults := make([]TypeResult, 0, len(handle.Branches))

	for i := range handle.Branches {
		branch := &handle.Branches[i]
		patternType := Infer(branch.Pattern, c)
		patternResults = append(patternResults, patternResult{patternType.Traits, patternType.Effects})

		expectedResumeType := &types.Function{
			Parameters:  []types.Type{patternType.Typ},
			Return:      result.Typ,
			Environment: resumeEnvironmentVar,
			Effects:     resumeEffects,
		}

		resumeInfo := c.DefinitionInfos[handle.Resumes[i]]
		if resumeInfo.Typ != nil {
			panic("resume variable already typed before its handle branch")
		}
		resumeInfo.Typ = types.MonoType(expectedResumeType)

		branchType := Infer(branch.Body, c)
		Unify(branchType.Typ, result.Typ, branch.Body.Locate(), c, cache.HandleBranchMismatch)
		branchResults = append(branchResults, branchType)
	}

	// All branch bodies are checked, so the free variables now have types
	// and the real resume environment can be constructed.
	freeVariables := findFreeVariables(handle, c)
	actualEnvironmentType := resumeEnvironmentType(freeVariables, c)

	Unify(resumeEnvironmentVar, actualEnvironmentType, handle.Locate(), c, cache.ResumeEnvironmentMismatch)

	// Add each pattern's effects to the handled expression first: the
	// expression may not have been known to carry them (e.g. calling a
	// parameter with an inferred function type).
	for _, pattern := range patternResults {
		result.Effects = combineEffects(result.Effects, pattern.effects, c)
	}

	// Then remove every handled effect.
	var handledEffects []types.Effect
	for _, pattern := range patternResults {
		result.Traits = append(result.Traits, pattern.traits...)
		result.Effects = handleEffectsFrom(result.Effects, pattern.effects, &handledEffects, c)
	}
	handle.EffectsHandled = handledEffects

	Unify(resumeEffects, result.Effects, handle.Locate(), c, cache.ResumeEffectsMismatch)

	// Branch effects are combined after removal so handling one effect in a
	// branch body does not erase it from the branch's own effects.
	for i := range branchResults {
		result.Combine(&branchResults[i], c)
	}

	return result
}

// findFreeVariables collects the local variables used under a handle but
// defined outside it, in id order. Globals are excluded: lowering reaches
// them directly rather than through the resume environment.
func findFreeVariables(handle *ast.Handle, c *cache.ModuleCache) []cache.DefinitionInfoId {
	bound := make(map[cache.DefinitionInfoId]bool)
	for _, resume := range handle.Resumes {
		bound[resume] = true
	}

	collectBound := func(pattern ast.Node) {
		ast.Walk(pattern, func(n ast.Node) bool {
			if v, ok := n.(*ast.Variable); ok {
				bound[v.Definition] = true
			}
			return true
		})
	}

	var used []cache.DefinitionInfoId
	seen := make(map[cache.DefinitionInfoId]bool)

	ast.Walk(handle, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.Definition:
			collectBound(node.Pattern)
		case *ast.Lambda:
			for _, arg := range node.Args {
				collectBound(arg)
			}
		case *ast.Match:
			for _, branch := range node.Branches {
				collectBound(branch.Pattern)
			}
		case *ast.Handle:
			if node != handle {
				for _, resume := range node.Resumes {
					bound[resume] = true
				}
			}
			for _, branch := range node.Branches {
				collectBound(branch.Pattern)
			}
		case *ast.Variable:
			if !seen[node.Definition] {
				seen[node.Definition] = true
				used = append(used, node.Definition)
			}
		}
		return true
	})

	var free []cache.DefinitionInfoId
	for _, id := range used {
		if bound[id] {
			continue
		}
		info := c.DefinitionInfos[id]
		if info.Global || info.Typ == nil || info.Typ.IsPolyType() {
			continue
		}
		free = append(free, id)
	}
	sort.Slice(free, func(i, j int) bool { return free[i] < free[j] })
	return free
}

// resumeEnvironmentType builds the resume closure's environment: a
// continuation pointer, tupled with the captured free variables when there
// are any. The continuation is a ptr applied to unit; it lowers to an
// opaque pointer during monomorphization regardless.
func resumeEnvironmentType(freeVariables []cache.DefinitionInfoId, c *cache.ModuleCache) types.Type {
	continuation := &types.TypeApplication{
		Constructor: types.PtrType,
		Args:        []types.Type{types.UnitType},
	}

	if len(freeVariables) == 0 {
		return continuation
	}

	environment := []types.Type{continuation}
	for _, id := range freeVariables {
		environment = append(environment, c.DefinitionInfos[id].Typ.IntoMonotype())
	}
	return makeTupleType(environment, c)
}
