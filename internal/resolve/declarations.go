package resolve

import (
	"github.com/JohnathanFL/ante/internal/ast"
	"github.com/JohnathanFL/ante/internal/cache"
	"github.com/JohnathanFL/ante/internal/types"
)

// registerTypeDefinition registers a nominal struct type and its
// constructor function.
func (r *Resolver) registerTypeDefinition(node *ast.TypeDefinition) {
	if _, exists := r.userTypes[node.Name]; exists {
		r.c.PushDiagnostic(node.Locate(), cache.DiagNameError, node.Name)
		return
	}

	args := make([]types.TypeVariableId, len(node.Args))
	argTypes := make([]types.Type, len(node.Args))
	r.pushRigids()
	for i, name := range node.Args {
		id := r.c.NextTypeVariableId(r.level + 1)
		args[i] = id
		generic := &types.NamedGeneric{ID: id, Name: name}
		r.rigids[len(r.rigids)-1][name] = generic
		argTypes[i] = generic
	}

	typeID := r.c.PushTypeInfo(node.Name, args, cache.TypeInfoBody{Kind: cache.TypeBodyStruct})
	r.userTypes[node.Name] = typeID
	node.TypeID = typeID

	fields := make([]cache.Field, len(node.Fields))
	fieldTypes := make([]types.Type, len(node.Fields))
	for i, field := range node.Fields {
		typ := r.resolveType(field.Typ)
		fields[i] = cache.Field{Name: field.Name, Typ: typ}
		fieldTypes[i] = typ
	}
	r.popRigids()
	r.c.TypeInfos[typeID].Body.Fields = fields

	// The type's name doubles as its constructor function.
	var result types.Type = &types.UserDefined{ID: typeID}
	if len(argTypes) != 0 {
		result = &types.TypeApplication{Constructor: result, Args: argTypes}
	}
	ctorType := &types.Function{
		Parameters:  fieldTypes,
		Return:      result,
		Environment: types.UnitType,
		Effects:     types.Pure(),
	}
	ctorID := r.declare(node.Name, &cache.DefinitionInfo{
		Name: node.Name,
		Pos:  node.Locate(),
		Kind: cache.DefTypeConstructor,
		Typ:  types.PolyType(args, ctorType),
	})
	r.ctorTypes[ctorID] = typeID
}

// registerTraitDefinition registers the trait and declares its methods.
func (r *Resolver) registerTraitDefinition(node *ast.TraitDefinition) {
	if _, exists := r.traits[node.Name]; exists {
		r.c.PushDiagnostic(node.Locate(), cache.DiagNameError, node.Name)
		return
	}

	node.Level = r.level + 1

	typeArgs := make([]types.TypeVariableId, len(node.ArgNames))
	membershipArgs := make([]types.Type, len(node.ArgNames))
	for i, name := range node.ArgNames {
		id := r.c.NextTypeVariableId(node.Level)
		typeArgs[i] = id
		membershipArgs[i] = &types.NamedGeneric{ID: id, Name: name}
	}
	funDeps := make([]types.TypeVariableId, len(node.FunDepNames))
	for i, name := range node.FunDepNames {
		id := r.c.NextTypeVariableId(node.Level)
		funDeps[i] = id
		membershipArgs = append(membershipArgs, &types.NamedGeneric{ID: id, Name: name})
	}

	traitID := r.c.PushTraitInfo(&cache.TraitInfo{
		Name:      node.Name,
		TypeArgs:  typeArgs,
		FunDeps:   funDeps,
		TraitNode: node,
	})
	r.traits[node.Name] = traitID
	node.TraitInfo = traitID

	for _, declaration := range node.Declarations {
		r.declarePatternVariables(declaration.Lhs, cache.DefTraitDefinition, false, node)
		if v, ok := declaration.Lhs.(*ast.Variable); ok {
			info := r.c.DefinitionInfos[v.Definition]
			info.TraitInfo = &cache.TraitMembership{TraitID: traitID, Args: membershipArgs}
			r.c.TraitInfos[traitID].Definitions = append(r.c.TraitInfos[traitID].Definitions, v.Definition)
		}
	}
}

// resolveTraitDefinition resolves the declared types of a trait's methods.
func (r *Resolver) resolveTraitDefinition(node *ast.TraitDefinition) {
	traitID, ok := r.traits[node.Name]
	if !ok || r.c.TraitInfos[traitID].TraitNode != ast.Node(node) {
		return
	}
	traitInfo := r.c.TraitInfos[traitID]

	previous := r.level
	r.level = node.Level

	// Trait arguments are visible throughout the block; every other
	// lowercase name is scoped to its own declaration.
	r.pushRigids()
	frame := r.rigids[len(r.rigids)-1]
	for i, name := range node.ArgNames {
		frame[name] = &types.NamedGeneric{ID: traitInfo.TypeArgs[i], Name: name}
	}
	for i, name := range node.FunDepNames {
		frame[name] = &types.NamedGeneric{ID: traitInfo.FunDeps[i], Name: name}
	}

	for _, declaration := range node.Declarations {
		r.pushRigids()
		declaration.Typ = r.resolveType(declaration.TypeExpr)
		r.popRigids()
	}

	r.popRigids()
	r.level = previous
}

// registerEffectDefinition registers the effect and declares its
// operations.
func (r *Resolver) registerEffectDefinition(node *ast.EffectDefinition) {
	if _, exists := r.effects[node.Name]; exists {
		r.c.PushDiagnostic(node.Locate(), cache.DiagNameError, node.Name)
		return
	}

	node.Level = r.level + 1

	typeArgs := make([]types.TypeVariableId, len(node.ArgNames))
	for i := range node.ArgNames {
		typeArgs[i] = r.c.NextTypeVariableId(node.Level)
	}

	effectID := r.c.PushEffectInfo(&cache.EffectInfo{Name: node.Name, TypeArgs: typeArgs})
	r.effects[node.Name] = effectID
	node.EffectInfo = effectID

	for _, declaration := range node.Declarations {
		r.declarePatternVariables(declaration.Lhs, cache.DefEffectDefinition, false, node)
		if v, ok := declaration.Lhs.(*ast.Variable); ok {
			r.c.EffectInfos[effectID].Declarations = append(r.c.EffectInfos[effectID].Declarations, v.Definition)
		}
	}
}

// resolveEffectDefinition resolves the declared types of an effect's
// operations.
func (r *Resolver) resolveEffectDefinition(node *ast.EffectDefinition) {
	effectID, ok := r.effects[node.Name]
	if !ok {
		return
	}
	effectInfo := r.c.EffectInfos[effectID]

	previous := r.level
	r.level = node.Level

	r.pushRigids()
	frame := r.rigids[len(r.rigids)-1]
	for i, name := range node.ArgNames {
		frame[name] = &types.NamedGeneric{ID: effectInfo.TypeArgs[i], Name: name}
	}

	for _, declaration := range node.Declarations {
		r.pushRigids()
		declaration.Typ = r.resolveType(declaration.TypeExpr)
		r.popRigids()
	}

	r.popRigids()
	r.level = previous
}

// resolveTraitImpl resolves an impl's argument types, registers the impl in
// the global scope, and resolves its member definitions.
func (r *Resolver) resolveTraitImpl(node *ast.TraitImpl) {
	traitID, ok := r.traits[node.TraitName]
	if !ok {
		r.c.PushDiagnostic(node.Locate(), cache.DiagNameError, node.TraitName)
		return
	}
	node.TraitInfo = traitID
	traitInfo := r.c.TraitInfos[traitID]

	r.pushRigids()
	node.TraitArgTypes = make([]types.Type, len(node.ArgTypeExprs))
	for i, expr := range node.ArgTypeExprs {
		node.TraitArgTypes[i] = r.resolveType(expr)
	}

	var given []cache.ConstraintSignature
	for _, constraint := range node.GivenExprs {
		givenTrait, ok := r.traits[constraint.Trait]
		if !ok {
			r.c.PushDiagnostic(constraint.Pos, cache.DiagNameError, constraint.Trait)
			continue
		}
		args := make([]types.Type, len(constraint.Args))
		for i, arg := range constraint.Args {
			args[i] = r.resolveType(arg)
		}
		given = append(given, cache.ConstraintSignature{
			TraitID: givenTrait,
			Args:    args,
			ID:      r.c.NextTraitConstraintId(),
		})
	}
	r.popRigids()

	methodNames := make(map[string]bool, len(traitInfo.Definitions))
	for _, definitionID := range traitInfo.Definitions {
		methodNames[r.c.DefinitionInfos[definitionID].Name] = true
	}

	// Impl members are visible to each other but not outside the impl.
	r.pushScope()
	var kept []*ast.Definition
	var memberIDs []cache.DefinitionInfoId
	for _, member := range node.Definitions {
		v, ok := member.Pattern.(*ast.Variable)
		if !ok || !methodNames[v.Name] {
			r.c.PushDiagnostic(member.Locate(), cache.DiagNameError, memberName(member))
			continue
		}
		r.declarePatternVariables(member.Pattern, cache.DefDefinition, false, member)
		kept = append(kept, member)
		memberIDs = append(memberIDs, v.Definition)
	}
	node.Definitions = kept

	node.ImplID = r.c.PushImplInfo(0, &cache.ImplInfo{
		TraitID:     traitID,
		Args:        node.TraitArgTypes,
		Given:       given,
		Definitions: memberIDs,
	})

	for _, member := range node.Definitions {
		r.resolveDefinition(member, false)
	}
	r.popScope()
}

func memberName(member *ast.Definition) string {
	if v, ok := member.Pattern.(*ast.Variable); ok {
		return v.Name
	}
	return "impl member"
}
