package types

import (
	"fmt"
	"sort"
	"strings"
)

// BindingSource supplies the cache lookups printing needs: following bound
// type variables and naming nominal types and effects. The module cache
// implements it.
type BindingSource interface {
	LookupBinding(id TypeVariableId) (Type, bool)
	TypeInfoName(id TypeInfoId) string
	EffectInfoName(id EffectInfoId) string
	PairTypeId() TypeInfoId
}

// Printer renders types for diagnostics, following cache bindings and
// assigning stable single-letter names to unbound variables.
type Printer struct {
	src   BindingSource
	names map[TypeVariableId]string
	next  int
}

// NewPrinter returns a printer drawing bindings from src.
func NewPrinter(src BindingSource) *Printer {
	return &Printer{src: src, names: make(map[TypeVariableId]string)}
}

// Show renders a single type. Variable names are stable across calls on the
// same printer, so related types print with consistent letters.
func (p *Printer) Show(typ Type) string {
	return p.show(typ, false)
}

// ShowGeneralized renders a generalized type, prefixing quantified
// variables with forall.
func (p *Printer) ShowGeneralized(g *GeneralizedType) string {
	if !g.IsPolyType() {
		return p.Show(g.Typ)
	}
	vars := make([]string, len(g.TypeVars))
	for i, v := range g.TypeVars {
		vars[i] = p.varName(v)
	}
	return fmt.Sprintf("forall %s. %s", strings.Join(vars, " "), p.Show(g.Typ))
}

// ShowType is a convenience for one-off rendering.
func ShowType(typ Type, src BindingSource) string {
	return NewPrinter(src).Show(typ)
}

func (p *Printer) varName(id TypeVariableId) string {
	if name, ok := p.names[id]; ok {
		return name
	}
	name := ""
	n := p.next
	for {
		name = string(rune('a'+n%26)) + name
		n = n/26 - 1
		if n < 0 {
			break
		}
	}
	p.next++
	p.names[id] = name
	return name
}

func (p *Printer) follow(typ Type) Type {
	for {
		tv, ok := typ.(*TypeVariable)
		if !ok {
			return typ
		}
		bound, ok := p.src.LookupBinding(tv.ID)
		if !ok {
			return typ
		}
		typ = bound
	}
}

func (p *Printer) show(typ Type, parenthesize bool) string {
	typ = p.follow(typ)
	switch t := typ.(type) {
	case *Primitive:
		if t.Kind == I32 {
			return "Int" // the surface name of the default integer type
		}
		return t.String()
	case *Tag:
		return t.String()
	case *UserDefined:
		return p.src.TypeInfoName(t.ID)
	case *TypeVariable:
		return p.varName(t.ID)
	case *NamedGeneric:
		if bound, ok := p.src.LookupBinding(t.ID); ok {
			return p.show(bound, parenthesize)
		}
		return t.Name
	case *Function:
		return p.showFunction(t, parenthesize)
	case *TypeApplication:
		return p.showApplication(t, parenthesize)
	case *Ref:
		return fmt.Sprintf("ref[%s, %s]", p.show(t.Mutability, false), p.show(t.Sharedness, false))
	case *Struct:
		return p.showStruct(t)
	case *EffectSet:
		return p.showEffects(t)
	default:
		return typ.String()
	}
}

func (p *Printer) showFunction(f *Function, parenthesize bool) string {
	parts := make([]string, 0, len(f.Parameters)+1)
	for _, param := range f.Parameters {
		parts = append(parts, p.show(param, true))
	}
	if f.HasVarargs {
		parts = append(parts, "...")
	}
	s := fmt.Sprintf("%s -> %s", strings.Join(parts, " -> "), p.show(f.Return, true))
	if effects := p.effectsSuffix(f.Effects); effects != "" {
		s += " " + effects
	}
	if parenthesize {
		return "(" + s + ")"
	}
	return s
}

// effectsSuffix renders a function's effect row, or "" when the row is
// closed and empty.
func (p *Printer) effectsSuffix(effects Type) string {
	effects = p.follow(effects)
	switch e := effects.(type) {
	case *EffectSet:
		if len(e.Effects) == 0 && e.Extension == nil {
			return ""
		}
		if len(e.Effects) == 0 && e.Extension != nil {
			if _, bound := p.src.LookupBinding(*e.Extension); !bound {
				return "can " + p.varName(*e.Extension)
			}
		}
		return p.showEffects(e)
	case *TypeVariable:
		return "can " + p.varName(e.ID)
	default:
		return ""
	}
}

func (p *Printer) showEffects(e *EffectSet) string {
	parts := make([]string, 0, len(e.Effects)+1)
	for _, eff := range e.Effects {
		part := p.src.EffectInfoName(eff.ID)
		for _, arg := range eff.Args {
			part += " " + p.show(arg, true)
		}
		parts = append(parts, part)
	}
	if e.Extension != nil {
		if bound, ok := p.src.LookupBinding(*e.Extension); ok {
			if rest, ok := bound.(*EffectSet); ok {
				inner := p.showEffects(rest)
				parts = append(parts, strings.TrimPrefix(inner, "can "))
			}
		} else {
			parts = append(parts, ".."+p.varName(*e.Extension))
		}
	}
	if len(parts) == 0 {
		return "pure"
	}
	return "can " + strings.Join(parts, ", ")
}

func (p *Printer) showApplication(t *TypeApplication, parenthesize bool) string {
	ctor := p.follow(t.Constructor)
	if ref, ok := ctor.(*Ref); ok && len(t.Args) == 1 {
		prefix := "&"
		if tag, ok := p.follow(ref.Mutability).(*Tag); ok && tag.Kind == Mutable {
			prefix = "!"
		}
		return prefix + p.show(t.Args[0], true)
	}
	if ud, ok := ctor.(*UserDefined); ok && ud.ID == p.src.PairTypeId() && len(t.Args) == 2 {
		s := fmt.Sprintf("%s, %s", p.show(t.Args[0], true), p.show(t.Args[1], false))
		if parenthesize {
			return "(" + s + ")"
		}
		return s
	}
	args := make([]string, len(t.Args))
	for i, arg := range t.Args {
		args[i] = p.show(arg, true)
	}
	s := fmt.Sprintf("%s %s", p.show(ctor, true), strings.Join(args, " "))
	if parenthesize {
		return "(" + s + ")"
	}
	return s
}

func (p *Printer) showStruct(s *Struct) string {
	if bound, ok := p.src.LookupBinding(s.Row); ok {
		return p.show(bound, false)
	}
	fields := make([]string, 0, len(s.Fields))
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fields = append(fields, fmt.Sprintf("%s: %s", name, p.show(s.Fields[name], false)))
	}
	return fmt.Sprintf("{ %s, .. }", strings.Join(fields, ", "))
}
