// Package types defines the representation of types used by the inference
// engine: primitives, nominal types, inference variables, rigid generics,
// function types with effect rows, reference types and structural records.
//
// The package holds representation only. Substitution, unification and
// generalization live in internal/infer since they follow bindings stored in
// the module cache.
package types

import (
	"fmt"
	"sort"
	"strings"
)

// TypeVariableId indexes a type variable's binding in the module cache.
type TypeVariableId int

// TypeInfoId indexes a user-defined type declaration in the module cache.
type TypeInfoId int

// EffectInfoId indexes an effect declaration in the module cache.
type EffectInfoId int

// LetBindingLevel tags each inference variable with the let-binding scope it
// was minted in. Lower levels are more outer scopes. A variable is
// generalizable iff its level is at least the current level at the
// generalization site.
type LetBindingLevel int

// InitialLevel is the level of the top-level scope.
const InitialLevel LetBindingLevel = 1

// Type is the sum of all type forms.
type Type interface {
	typ()
	String() string
}

// PrimitiveKind enumerates the builtin primitive types.
type PrimitiveKind int

const (
	I8 PrimitiveKind = iota
	I16
	I32
	I64
	Isz
	U8
	U16
	U32
	U64
	Usz
	F32
	F64
	CharKind
	BoolKind
	UnitKind
	PtrKind
)

var primitiveNames = [...]string{
	I8: "I8", I16: "I16", I32: "I32", I64: "I64", Isz: "Isz",
	U8: "U8", U16: "U16", U32: "U32", U64: "U64", Usz: "Usz",
	F32: "F32", F64: "F64",
	CharKind: "Char", BoolKind: "Bool", UnitKind: "Unit", PtrKind: "Ptr",
}

// IsInteger reports whether the primitive is one of the integer kinds.
func (k PrimitiveKind) IsInteger() bool { return k <= Usz }

// IsFloat reports whether the primitive is one of the float kinds.
func (k PrimitiveKind) IsFloat() bool { return k == F32 || k == F64 }

// Primitive is a builtin primitive type.
type Primitive struct {
	Kind PrimitiveKind
}

func (*Primitive) typ()             {}
func (p *Primitive) String() string { return primitiveNames[p.Kind] }

// Common primitives. These are shared values; types are never mutated.
var (
	UnitType = &Primitive{Kind: UnitKind}
	BoolType = &Primitive{Kind: BoolKind}
	CharType = &Primitive{Kind: CharKind}
	PtrType  = &Primitive{Kind: PtrKind}
	IntType  = &Primitive{Kind: I32}
	F64Type  = &Primitive{Kind: F64}
)

// TagKind enumerates the tags carried inside reference types.
type TagKind int

const (
	Mutable TagKind = iota
	Immutable
	Shared
	Owned
)

func (k TagKind) String() string {
	switch k {
	case Mutable:
		return "mut"
	case Immutable:
		return "immut"
	case Shared:
		return "shared"
	default:
		return "owned"
	}
}

// Tag only ever appears as a sub-term of a Ref type, standing for its
// mutability or sharedness once resolved.
type Tag struct {
	Kind TagKind
}

func (*Tag) typ()             {}
func (t *Tag) String() string { return t.Kind.String() }

// Shared tag values, for convenience.
var (
	MutableTag   = &Tag{Kind: Mutable}
	ImmutableTag = &Tag{Kind: Immutable}
	SharedTag    = &Tag{Kind: Shared}
	OwnedTag     = &Tag{Kind: Owned}
)

// UserDefined references a nominal type declaration by id.
type UserDefined struct {
	ID TypeInfoId
}

func (*UserDefined) typ()             {}
func (t *UserDefined) String() string { return fmt.Sprintf("type#%d", t.ID) }

// TypeVariable is an inference variable keyed by id into the module cache.
type TypeVariable struct {
	ID TypeVariableId
}

func (*TypeVariable) typ()             {}
func (t *TypeVariable) String() string { return fmt.Sprintf("t%d", t.ID) }

// NamedGeneric is a rigid type variable introduced by a user annotation.
// It unifies with itself, or with another rigid generic of matching kind.
type NamedGeneric struct {
	ID   TypeVariableId
	Name string
}

func (*NamedGeneric) typ()             {}
func (t *NamedGeneric) String() string { return t.Name }

// Function is a function type. Environment is the type of the closure
// environment (unit for non-closures). Effects is either an *EffectSet or a
// TypeVariable standing for one.
type Function struct {
	Parameters  []Type
	Return      Type
	Environment Type
	Effects     Type
	HasVarargs  bool
}

func (*Function) typ() {}

func (f *Function) String() string {
	parts := make([]string, 0, len(f.Parameters)+1)
	for _, p := range f.Parameters {
		parts = append(parts, p.String())
	}
	if f.HasVarargs {
		parts = append(parts, "...")
	}
	return fmt.Sprintf("(%s -> %s)", strings.Join(parts, " -> "), f.Return.String())
}

// TypeApplication applies a type constructor to arguments.
type TypeApplication struct {
	Constructor Type
	Args        []Type
}

func (*TypeApplication) typ() {}

func (t *TypeApplication) String() string {
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("(%s %s)", t.Constructor.String(), strings.Join(args, " "))
}

// Ref is a reference type constructor. It always appears as the constructor
// of a TypeApplication whose single argument is the referent. Mutability and
// Sharedness are types that must resolve to Tags; Lifetime is an inference
// variable used by the later lifetime pass.
type Ref struct {
	Mutability Type
	Sharedness Type
	Lifetime   Type
}

func (*Ref) typ() {}

func (r *Ref) String() string {
	return fmt.Sprintf("ref[%s, %s]", r.Mutability.String(), r.Sharedness.String())
}

// Struct is a structural record: known fields plus a row variable standing
// for the rest of the record. The row variable may itself be bound in the
// cache to another Struct or to a concrete type.
type Struct struct {
	Fields map[string]Type
	Row    TypeVariableId
}

func (*Struct) typ() {}

func (s *Struct) String() string {
	fields := make([]string, 0, len(s.Fields))
	for _, name := range s.FieldNames() {
		fields = append(fields, fmt.Sprintf("%s: %s", name, s.Fields[name].String()))
	}
	return fmt.Sprintf("{ %s, .. }", strings.Join(fields, ", "))
}

// FieldNames returns the field names in canonical (sorted) order.
func (s *Struct) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CopyFields returns a shallow copy of the field map.
func (s *Struct) CopyFields() map[string]Type {
	fields := make(map[string]Type, len(s.Fields))
	for name, typ := range s.Fields {
		fields[name] = typ
	}
	return fields
}

// Pair builds an application of the builtin pair type.
func Pair(pairType TypeInfoId, first, second Type) Type {
	return &TypeApplication{
		Constructor: &UserDefined{ID: pairType},
		Args:        []Type{first, second},
	}
}
