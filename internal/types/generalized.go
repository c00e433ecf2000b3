package types

import "fmt"

// GeneralizedType is a definition's type after (possible) generalization.
// An empty TypeVars slice is a monotype; otherwise the listed variables are
// the ones freshened on each instantiation.
type GeneralizedType struct {
	TypeVars []TypeVariableId
	Typ      Type
}

// MonoType wraps a type without quantified variables.
func MonoType(typ Type) *GeneralizedType {
	return &GeneralizedType{Typ: typ}
}

// PolyType quantifies the given variables over the type.
func PolyType(typeVars []TypeVariableId, typ Type) *GeneralizedType {
	return &GeneralizedType{TypeVars: typeVars, Typ: typ}
}

// IsPolyType reports whether any variables are quantified.
func (g *GeneralizedType) IsPolyType() bool { return len(g.TypeVars) > 0 }

// RemoveForall returns the underlying type, quantified or not.
func (g *GeneralizedType) RemoveForall() Type { return g.Typ }

// IntoMonotype returns the underlying type, panicking on a polytype.
// Encountering a polytype where a monotype is expected after generalization
// is an internal invariant violation, not a user error.
func (g *GeneralizedType) IntoMonotype() Type {
	if g.IsPolyType() {
		panic(fmt.Sprintf("IntoMonotype called on polytype %s", g.Typ))
	}
	return g.Typ
}
