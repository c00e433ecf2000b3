package infer

import (
	"sort"

	"github.com/JohnathanFL/ante/internal/cache"
	"github.com/JohnathanFL/ante/internal/types"
)

// bindStructFields unifies two partial records. Shared fields unify
// pointwise; when both sides contribute residual fields a fresh row variable
// is minted at the outer of the two rows' levels and both rows are bound to
// the merged record.
func bindStructFields(fields1, fields2 map[string]types.Type, rest1, rest2 types.TypeVariableId,
	b *UnificationBindings, c *cache.ModuleCache) error {

	merged := make(map[string]types.Type, len(fields1)+len(fields2))
	for name, typ := range fields1 {
		merged[name] = typ
	}

	names2 := make([]string, 0, len(fields2))
	for name := range fields2 {
		names2 = append(names2, name)
	}
	sort.Strings(names2)

	for _, name := range names2 {
		typ2 := fields2[name]
		if typ1, ok := merged[name]; ok {
			if err := tryUnifyInner(typ1, typ2, b, c); err != nil {
				return err
			}
		} else {
			merged[name] = typ2
		}
	}

	switch {
	case len(merged) != len(fields1) && len(merged) != len(fields2):
		// Both rows need residual fields: join the rows and bind them to
		// the merged struct through a fresh row variable.
		err := tryUnifyTypeVariable(rest1, &types.TypeVariable{ID: rest1},
			&types.TypeVariable{ID: rest2}, true, b, c)
		if err != nil {
			return err
		}
		newRest := newRowVariable(rest1, rest2, c)
		// rest1 was just bound to rest2, so binding rest2 covers both.
		b.Bindings[rest2] = &types.Struct{Fields: merged, Row: newRest}

	case len(merged) != len(fields1):
		// fields2 is a superset: bind side 1's row to side 2's record.
		struct2 := &types.Struct{Fields: merged, Row: rest2}
		return tryUnifyTypeVariable(rest1, &types.TypeVariable{ID: rest1}, struct2, true, b, c)

	case len(merged) != len(fields2):
		// fields1 is a superset: bind side 2's row to side 1's record.
		struct1 := &types.Struct{Fields: merged, Row: rest1}
		return tryUnifyTypeVariable(rest2, &types.TypeVariable{ID: rest2}, struct1, false, b, c)
	}

	return nil
}

// newRowVariable mints a fresh row variable at the outer (minimum) of the
// two given unbound rows' levels.
func newRowVariable(row1, row2 types.TypeVariableId, c *cache.ModuleCache) types.TypeVariableId {
	b1 := c.TypeBindings[row1]
	b2 := c.TypeBindings[row2]
	level := b1.Level
	if b2.Level < level {
		level = b2.Level
	}
	return c.NextTypeVariableIdWithKind(level, types.KindRow)
}

// bindStructToConcrete unifies a partial record against a concrete type
// (a nominal struct, an application of one, or a bound variable): the
// record's fields must be a strict subset of the concrete fields, and the
// record's row is bound to the concrete type itself.
//
// Note: subset matching would be unsound if struct literals of arbitrary
// shape could reach a nominal type; the frontend only produces record
// literals, which keeps that path closed. Preserved as in the original.
func bindStructToConcrete(s *types.Struct, other types.Type, b *UnificationBindings, c *cache.ModuleCache) error {
	fields, err := getFields(other, nil, b, c)
	if err != nil {
		return err
	}
	if err := bindStructFieldsSubset(s.Fields, fields, b, c); err != nil {
		return err
	}
	b.Bindings[s.Row] = other
	return nil
}

// bindStructFieldsSubset requires fields to be a subset of template,
// unifying each shared field.
func bindStructFieldsSubset(fields, template map[string]types.Type,
	b *UnificationBindings, c *cache.ModuleCache) error {

	if len(fields) > len(template) {
		return errUnify
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		templateField, ok := template[name]
		if !ok {
			return errUnify
		}
		if err := tryUnifyInner(templateField, fields[name], b, c); err != nil {
			return err
		}
	}
	return nil
}

// getFields extracts a concrete type's field map. Aliases are expanded with
// their argument bindings; unions and unbound variables have no usable
// fields.
func getFields(typ types.Type, args []types.Type, b *UnificationBindings,
	c *cache.ModuleCache) (map[string]types.Type, error) {

	switch t := typ.(type) {
	case *types.UserDefined:
		info := c.TypeInfos[t.ID]
		switch info.Body.Kind {
		case cache.TypeBodyAlias:
			return getFields(info.Body.Alias, args, b, c)
		case cache.TypeBodyUnion:
			return nil, errUnify
		case cache.TypeBodyUnknown:
			panic("getFields called on a type whose body was never filled in")
		default:
			var bindings TypeBindings
			if len(args) != 0 {
				bindings = typeApplicationBindings(info, args, c)
			}
			fields := make(map[string]types.Type, len(info.Body.Fields))
			for _, field := range info.Body.Fields {
				fieldType := field.Typ
				if len(bindings) != 0 {
					fieldType = bindTypevars(fieldType, bindings, c)
				}
				fields[field.Name] = fieldType
			}
			return fields, nil
		}

	case *types.TypeApplication:
		ctor := followBindingsInCacheAndMap(t.Constructor, b, c)
		return getFields(ctor, t.Args, b, c)

	case *types.Struct:
		if bound := c.TypeBindings[t.Row]; bound.IsBound() {
			return getFields(bound.Typ, args, b, c)
		}
		return t.Fields, nil

	case *types.TypeVariable:
		if bound := c.TypeBindings[t.ID]; bound.IsBound() {
			return getFields(bound.Typ, args, b, c)
		}
		return nil, errUnify

	default:
		return nil, errUnify
	}
}
