package resolve

import (
	"unicode"

	"github.com/JohnathanFL/ante/internal/ast"
	"github.com/JohnathanFL/ante/internal/cache"
	"github.com/JohnathanFL/ante/internal/types"
)

var primitiveTypeNames map[string]types.Type

func init() {
	named := map[string]types.PrimitiveKind{
		"I8": types.I8, "I16": types.I16, "I32": types.I32, "I64": types.I64, "Isz": types.Isz,
		"U8": types.U8, "U16": types.U16, "U32": types.U32, "U64": types.U64, "Usz": types.Usz,
		"F32": types.F32, "F64": types.F64,
		"Char": types.CharKind, "Bool": types.BoolKind, "Ptr": types.PtrKind,
	}
	primitiveTypeNames = make(map[string]types.Type, len(named)+4)
	for name, kind := range named {
		primitiveTypeNames[name] = &types.Primitive{Kind: kind}
	}
	primitiveTypeNames["Int"] = types.IntType
	primitiveTypeNames["Float"] = types.F64Type
	primitiveTypeNames["Unit"] = types.UnitType
	primitiveTypeNames["unit"] = types.UnitType
}

// resolveType converts type syntax into a type, minting rigid generics for
// lowercase names scoped to the innermost rigids frame.
func (r *Resolver) resolveType(expr ast.TypeExpr) types.Type {
	switch t := expr.(type) {
	case *ast.NamedType:
		return r.resolveTypeName(t)

	case *ast.UnitTypeExpr:
		return types.UnitType

	case *ast.FunctionTypeExpr:
		parameters := make([]types.Type, len(t.Parameters))
		for i, parameter := range t.Parameters {
			parameters[i] = r.resolveType(parameter)
		}
		return &types.Function{
			Parameters:  parameters,
			Return:      r.resolveType(t.Return),
			Environment: r.c.NextTypeVariable(r.level),
			Effects:     r.resolveEffectClause(t),
		}

	case *ast.TypeApplicationExpr:
		args := make([]types.Type, len(t.Args))
		for i, arg := range t.Args {
			args[i] = r.resolveType(arg)
		}
		return &types.TypeApplication{Constructor: r.resolveType(t.Constructor), Args: args}

	case *ast.ReferenceTypeExpr:
		ref := &types.Ref{
			Mutability: t.Mutability.AsTag(),
			Sharedness: types.SharedTag,
			Lifetime:   r.c.NextTypeVariable(r.level),
		}
		return &types.TypeApplication{Constructor: ref, Args: []types.Type{r.resolveType(t.Element)}}

	case *ast.PairTypeExpr:
		return types.Pair(r.c.PairTypeId(), r.resolveType(t.First), r.resolveType(t.Second))

	default:
		return types.UnitType
	}
}

// resolveEffectClause turns a function type's effect annotation into its
// effects field: a closed row when stated, an explicit pure row for a bare
// `can`, and an open fresh variable otherwise.
func (r *Resolver) resolveEffectClause(t *ast.FunctionTypeExpr) types.Type {
	if t.Pure {
		return types.Pure()
	}
	if len(t.Effects) == 0 {
		return r.c.NextTypeVariable(r.level)
	}
	var effects []types.Effect
	for _, effect := range t.Effects {
		effectID, ok := r.effects[effect.Id]
		if !ok {
			r.c.PushDiagnostic(effect.Name, cache.DiagNameError, effect.Id)
			continue
		}
		args := make([]types.Type, len(effect.Args))
		for i, arg := range effect.Args {
			args[i] = r.resolveType(arg)
		}
		effects = append(effects, types.Effect{ID: effectID, Args: args})
	}
	return types.Only(effects)
}

func (r *Resolver) resolveTypeName(t *ast.NamedType) types.Type {
	if rigid := r.lookupRigid(t.Name); rigid != nil {
		return rigid
	}
	if primitive, ok := primitiveTypeNames[t.Name]; ok {
		return primitive
	}
	if t.Name == "String" {
		return &types.UserDefined{ID: r.c.StringTypeId()}
	}
	if id, ok := r.userTypes[t.Name]; ok {
		return &types.UserDefined{ID: id}
	}

	first := rune(t.Name[0])
	if unicode.IsLower(first) || first == '_' {
		// A new rigid generic scoped to the innermost frame.
		generic := &types.NamedGeneric{
			ID:   r.c.NextTypeVariableId(r.level),
			Name: t.Name,
		}
		if len(r.rigids) != 0 {
			r.rigids[len(r.rigids)-1][t.Name] = generic
		}
		return generic
	}

	r.c.PushDiagnostic(t.TypeLocate(), cache.DiagNameError, t.Name)
	return r.c.NextTypeVariable(r.level)
}

func (r *Resolver) lookupRigid(name string) types.Type {
	for i := len(r.rigids) - 1; i >= 0; i-- {
		if generic, ok := r.rigids[i][name]; ok {
			return generic
		}
	}
	return nil
}
