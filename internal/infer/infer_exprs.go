package infer

import (
	"github.com/JohnathanFL/ante/internal/ast"
	"github.com/JohnathanFL/ante/internal/cache"
	"github.com/JohnathanFL/ante/internal/token"
	"github.com/JohnathanFL/ante/internal/types"
)

func inferLiteral(literal *ast.Literal, c *cache.ModuleCache) TypeResult {
	switch literal.Kind {
	case ast.IntegerLit:
		if literal.IntKind != nil {
			return resultOf(&types.Primitive{Kind: *literal.IntKind}, c)
		}
		// An unsuffixed integer is polymorphic until a numeric trait or
		// defaulting settles it.
		id := c.NextTypeVariableIdWithKind(CurrentLevel(), types.KindInteger)
		return resultOf(&types.TypeVariable{ID: id}, c)
	case ast.FloatLit:
		id := c.NextTypeVariableIdWithKind(CurrentLevel(), types.KindFloat)
		return resultOf(&types.TypeVariable{ID: id}, c)
	case ast.StringLit:
		return resultOf(&types.UserDefined{ID: c.StringTypeId()}, c)
	case ast.CharLit:
		return resultOf(types.CharType, c)
	case ast.BoolLit:
		return resultOf(types.BoolType, c)
	default:
		return resultOf(types.UnitType, c)
	}
}

/*
 *  x : s in cache
 *  t = instantiate s
 *  --------------------- [Var]
 *  infer cache x = t
 */
func inferVariable(variable *ast.Variable, c *cache.ModuleCache) TypeResult {
	definitionID := variable.Definition
	info := c.DefinitionInfos[definitionID]

	var scheme *types.GeneralizedType
	var traits []cache.TraitConstraint

	if info.Typ != nil {
		scheme = info.Typ
		traits = toTraitConstraints(definitionID, variable.ImplScope, variable.ID, c)
	} else if info.Definition != nil {
		scheme, traits = inferNestedDefinition(definitionID, variable.ImplScope, variable.ID, c)
		if scheme == nil {
			scheme = types.MonoType(nextTypeVariable(c))
			c.DefinitionInfos[definitionID].Typ = scheme
		}
	} else {
		// No definition to infer from: fill in a variable.
		scheme = types.MonoType(nextTypeVariable(c))
		info.Typ = scheme
	}

	// A still-in-progress definition reached from here means mutual
	// recursion; its generalization must wait for the whole group.
	UpdateMutualRecursionSets(c, definitionID, variable.ID)

	typ, instantiatedTraits, mapping := instantiate(scheme, traits, c)
	variable.InstantiationMapping = mapping
	return newResult(typ, instantiatedTraits, c)
}

/*
 * Γ, x:t1 |- e:t2
 * -------------------------- [Lam]
 * Γ |- fn x -> e : t1 -> t2
 */
func inferLambda(lambda *ast.Lambda, c *cache.ModuleCache) TypeResult {
	parameterTypes := make([]types.Type, len(lambda.Args))
	for i := range lambda.Args {
		parameterTypes[i] = nextTypeVariable(c)
	}
	for i, parameter := range lambda.Args {
		bindIrrefutablePattern(parameter, parameterTypes[i], nil, false, c)
	}

	bindClosureEnvironment(lambda.Environment, c)

	body := Infer(lambda.Body, c)

	effects := flattenEffects(body.Effects, nil, c)
	// Pull the extension off so we can check whether it occurs in the rest
	// of the function type.
	extension := effects.Extension
	effects.Extension = nil

	typ := &types.Function{
		Parameters:  parameterTypes,
		Return:      body.Typ,
		Environment: inferClosureEnvironment(lambda.Environment, c),
		Effects:     effects,
	}

	// Close the effect row unless the extension variable is used elsewhere
	// in the function type, in which case it must stay open to preserve
	// effect polymorphism.
	if extension != nil {
		b := EmptyBindings()
		if occursInFunction(*extension, CurrentLevel(), typ, b, recursionLimit, c).occurs {
			open := effects.Copy()
			open.Extension = extension
			typ.Effects = open
		}
	}

	return newResult(typ, body.Traits, c)
}

/*
 * Γ |- f: t2 -> t    Γ |- x: t2
 * ------------------------------ [App]
 *         Γ |- f x : t
 */
func inferCall(call *ast.FunctionCall, c *cache.ModuleCache) TypeResult {
	f := Infer(call.Function, c)

	parameters := make([]types.Type, len(call.Args))
	for i, arg := range call.Args {
		argResult := Infer(arg, c)
		f.Combine(&argResult, c)
		parameters[i] = argResult.Typ
	}

	returnType := nextTypeVariable(c)
	effectsVar := nextTypeVariableId(c)

	newFunction := &types.Function{
		Parameters:  parameters,
		Return:      returnType,
		Environment: nextTypeVariable(c),
		Effects:     &types.TypeVariable{ID: effectsVar},
	}

	// Unifying the synthetic function against f as a whole; on failure the
	// pieces are re-unified individually for better diagnostics.
	bindings, diagnostic := TryUnify(newFunction, f.Typ, call.Locate(), c, cache.CalledValueIsNotAFunction)
	if diagnostic == nil {
		bindings.Perform(c)
	} else {
		issueArgumentTypesError(call, f.Typ, newFunction, *diagnostic, c)
	}

	// The effects of evaluating f's body flow into this call's effects.
	// f.Effects here are the effects of evaluating the callee expression
	// itself; the callee's latent effects live on its function type.
	Unify(&types.TypeVariable{ID: effectsVar}, f.Effects, call.Locate(), c, cache.NeverShown)

	return f.WithType(returnType)
}

// issueArgumentTypesError distinguishes arity mismatches, per-argument
// mismatches and whole-function mismatches when a call fails to unify.
func issueArgumentTypesError(call *ast.FunctionCall, f types.Type, newFunction *types.Function,
	originalError cache.Diagnostic, c *cache.ModuleCache) {

	expected, actual, ok := tryUnwrapFunctions(f, newFunction, c)
	if !ok {
		c.PushFullDiagnostic(originalError)
		return
	}

	errorCount := c.ErrorCount()

	if len(expected.Parameters) != len(actual.Parameters) && !expected.HasVarargs && !actual.HasVarargs {
		printed := types.ShowType(expected, c)
		c.PushDiagnostic(call.Locate(), cache.DiagFunctionParameterCountMismatch,
			printed, len(actual.Parameters), len(expected.Parameters))
		return
	}

	n := len(actual.Parameters)
	if len(expected.Parameters) < n {
		n = len(expected.Parameters)
	}
	for i := 0; i < n; i++ {
		pos := call.Locate()
		if i < len(call.Args) {
			pos = call.Args[i].Locate()
		}
		Unify(actual.Parameters[i], expected.Parameters[i], pos, c, cache.ArgumentTypeMismatch)
	}

	// If no per-argument error was issued the difference must be in the
	// effects or environment; fall back to the full function types.
	if c.ErrorCount() == errorCount {
		printer := types.NewPrinter(c)
		c.PushDiagnostic(call.Locate(), cache.DiagFunctionTypeMismatch,
			printer.Show(actual), printer.Show(expected))
	}
}

func tryUnwrapFunctions(f types.Type, newFunction *types.Function,
	c *cache.ModuleCache) (expected, actual *types.Function, ok bool) {

	followed := followBindingsInCache(f, c)
	if f1, isFunction := followed.(*types.Function); isFunction {
		return f1, newFunction, true
	}
	return nil, nil, false
}

func inferIf(node *ast.If, c *cache.ModuleCache) TypeResult {
	result := Infer(node.Condition, c)
	Unify(types.BoolType, result.Typ, node.Condition.Locate(), c, cache.NonBoolInCondition)

	then := Infer(node.Then, c)
	result.Combine(&then, c)

	otherwise := Infer(node.Otherwise, c)
	result.Combine(&otherwise, c)

	Unify(then.Typ, otherwise.Typ, node.Locate(), c, cache.IfBranchMismatch)
	return result.WithType(then.Typ)
}

func inferSequence(sequence *ast.Sequence, c *cache.ModuleCache) TypeResult {
	result := resultOf(types.UnitType, c)
	for _, statement := range sequence.Statements[:len(sequence.Statements)-1] {
		statementResult := Infer(statement, c)
		result.Combine(&statementResult, c)
	}
	last := Infer(sequence.Statements[len(sequence.Statements)-1], c)
	result.Combine(&last, c)
	return result.WithType(last.Typ)
}

func inferAnnotation(annotation *ast.TypeAnnotation, c *cache.ModuleCache) TypeResult {
	lhs := Infer(annotation.Lhs, c)
	Unify(annotation.Annotation, lhs.Typ, annotation.Locate(), c, cache.DoesNotMatchAnnotatedType)
	return lhs
}

func inferReturn(node *ast.Return, c *cache.ModuleCache) TypeResult {
	result := Infer(node.Expression, c)
	return result.WithType(nextTypeVariable(c))
}

func inferRecord(record *ast.Record, c *cache.ModuleCache) TypeResult {
	result := resultOf(types.UnitType, c)
	fields := make(map[string]types.Type, len(record.Fields))
	for _, field := range record.Fields {
		fieldResult := Infer(field.Value, c)
		result.Combine(&fieldResult, c)
		fields[field.Name] = fieldResult.Typ
	}
	row := nextRowVariableId(c)
	return result.WithType(&types.Struct{Fields: fields, Row: row})
}

func inferMemberAccess(access *ast.MemberAccess, c *cache.ModuleCache) TypeResult {
	result := Infer(access.Lhs, c)

	var fieldType types.Type = c.NextTypeVariable(CurrentLevel())
	fields := map[string]types.Type{access.Field: fieldType}
	rho := nextRowVariableId(c)
	structType := &types.Struct{Fields: fields, Row: rho}

	bindings, diagnostic := TryUnify(result.Typ, structType, access.Locate(), c,
		cache.NoFieldOfType(access.Field))

	if diagnostic == nil && access.IsOffset && access.OffsetMutable == ast.MutableRef {
		// A mutable field offset requires the left side to be a mutable
		// variable or another mutable field access.
		checkFieldAccessLhsIsMutable(access.Lhs, false, c)
	} else if diagnostic != nil {
		errorWithoutDeref := diagnostic

		// Retry once through a single implicit dereference.
		mutability := ast.ImmutableRef
		if access.IsOffset {
			mutability = access.OffsetMutable
		}
		structRef := refOf(mutability, structType, c)
		bindings, diagnostic = TryUnify(result.Typ, structRef, access.Lhs.Locate(), c, cache.ExpectedMutable)

		if diagnostic != nil {
			errorWithMutableDeref := diagnostic
			// Pick the more precise diagnostic: if an immutable deref would
			// have unified, mutability was the real problem.
			immutableRef := refOf(ast.ImmutableRef, structType, c)
			if _, immutableErr := TryUnify(result.Typ, immutableRef, access.Lhs.Locate(), c,
				cache.ExpectedMutable); immutableErr == nil {
				diagnostic = errorWithMutableDeref
			} else {
				diagnostic = errorWithoutDeref
			}
		}
	}

	performBindingsOrPushError(bindings, diagnostic, c)

	if access.IsOffset {
		fieldType = refOf(access.OffsetMutable, fieldType, c)
	}
	return result.WithType(fieldType)
}

// checkFieldAccessLhsIsMutable errors when an already-resolved expression is
// neither a mutable variable nor a field access (member accesses have
// already been checked recursively).
func checkFieldAccessLhsIsMutable(node ast.Node, allowMutRefToTemporary bool, c *cache.ModuleCache) {
	switch n := node.(type) {
	case *ast.Variable:
		info := c.DefinitionInfos[n.Definition]
		if !info.Mutable {
			c.PushDiagnostic(n.Locate(), cache.DiagMutRefToImmutableVariable, info.Name)
		}
	case *ast.MemberAccess:
	default:
		if !allowMutRefToTemporary {
			c.PushDiagnostic(node.Locate(), cache.DiagMutRefToTemporary)
		}
	}
}

func inferAssignment(assignment *ast.Assignment, c *cache.ModuleCache) TypeResult {
	result := Infer(assignment.Lhs, c)
	rhs := Infer(assignment.Rhs, c)
	result.Combine(&rhs, c)

	// First attempt: the left side is the value itself. If it unifies we
	// implicitly wrap the left side in a mutable reference.
	if bindings, diagnostic := TryUnify(result.Typ, rhs.Typ, assignment.Locate(), c, cache.NeverShown); diagnostic == nil {
		checkFieldAccessLhsIsMutable(assignment.Lhs, false, c)

		oldLhs := assignment.Lhs
		assignment.Lhs = &ast.Reference{
			NodeBase:   ast.NodeBase{Loc: oldLhs.Locate()},
			Mutability: ast.MutableRef,
			Expression: oldLhs,
		}
		assignment.Lhs.SetType(refOf(ast.MutableRef, oldLhs.GetType(), c))

		bindings.Perform(c)
		return result.WithType(types.UnitType)
	}

	// Second attempt: the left side is already a mutable reference to the
	// right side's type.
	mutRef := mutPolymorphicallySharedRef(c)
	mutRefToRhs := &types.TypeApplication{Constructor: mutRef, Args: []types.Type{rhs.Typ}}

	if bindings, diagnostic := TryUnify(result.Typ, mutRefToRhs, assignment.Locate(), c, cache.NeverShown); diagnostic == nil {
		bindings.Perform(c)
	} else {
		issueAssignmentError(result.Typ, assignment.Lhs.Locate(), rhs.Typ, assignment.Locate(), c)
	}

	return result.WithType(types.UnitType)
}

func mutPolymorphicallySharedRef(c *cache.ModuleCache) *types.Ref {
	return &types.Ref{
		Mutability: types.MutableTag,
		Sharedness: nextTypeVariable(c),
		Lifetime:   nextTypeVariable(c),
	}
}

// issueAssignmentError reports either "not a mutable reference" or "wrong
// element type", depending on which sub-unification succeeds.
func issueAssignmentError(lhs types.Type, lhsPos token.Pos, rhs types.Type, pos token.Pos, c *cache.ModuleCache) {
	element := nextTypeVariable(c)
	mutRef := &types.TypeApplication{
		Constructor: mutPolymorphicallySharedRef(c),
		Args:        []types.Type{element},
	}

	if _, diagnostic := TryUnify(lhs, mutRef, lhsPos, c, cache.AssignToNonMutRef); diagnostic != nil {
		c.PushFullDiagnostic(*diagnostic)
		return
	}

	followed := followBindingsInCache(lhs, c)
	application, ok := followed.(*types.TypeApplication)
	if !ok {
		panic("assignment lhs unified with a reference but is not a type application")
	}
	Unify(application.Args[0], rhs, pos, c, cache.AssignToWrongType)
}

func inferReference(reference *ast.Reference, c *cache.ModuleCache) TypeResult {
	result := Infer(reference.Expression, c)

	if reference.Mutability == ast.MutableRef {
		checkFieldAccessLhsIsMutable(reference.Expression, true, c)
	}

	refType := &types.Ref{
		Mutability: reference.Mutability.AsTag(),
		Sharedness: types.SharedTag,
		Lifetime:   nextTypeVariable(c),
	}
	result.Typ = &types.TypeApplication{Constructor: refType, Args: []types.Type{result.Typ}}
	return result
}
