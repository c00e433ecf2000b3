package infer

import (
	"errors"

	"github.com/JohnathanFL/ante/internal/cache"
	"github.com/JohnathanFL/ante/internal/token"
	"github.com/JohnathanFL/ante/internal/types"
)

// errUnify is the internal sentinel for a failed unification. Only the
// outermost wrapper turns it into a diagnostic, so callers can chain
// attempts and discard failures.
var errUnify = errors.New("unification failure")

// tryUnifyInner unifies actual against expected into the staging area.
// The match order mirrors the reference semantics; in particular type
// variables are handled before every structured case, and tag subsumption is
// one-directional (actual must be the stricter tag).
func tryUnifyInner(actual, expected types.Type, b *UnificationBindings, c *cache.ModuleCache) error {
	if p1, ok := actual.(*types.Primitive); ok {
		if p2, ok := expected.(*types.Primitive); ok && p1.Kind == p2.Kind {
			return nil
		}
	}

	if u1, ok := actual.(*types.UserDefined); ok {
		if u2, ok := expected.(*types.UserDefined); ok && u1.ID == u2.ID {
			return nil
		}
	}

	// A type variable on either side may be bound or unbound. If bound we
	// unify the binding with the other side, preserving which side the
	// variable came from so reference/tag subtyping keeps its direction. If
	// unbound, the occurs check also unifies let-binding levels, which is
	// the lifetime-inference half of generalization.
	if tv, ok := actual.(*types.TypeVariable); ok {
		return tryUnifyTypeVariable(tv.ID, actual, expected, true, b, c)
	}
	if tv, ok := expected.(*types.TypeVariable); ok {
		return tryUnifyTypeVariable(tv.ID, expected, actual, false, b, c)
	}

	if f1, ok := actual.(*types.Function); ok {
		if f2, ok := expected.(*types.Function); ok {
			return tryUnifyFunctions(f1, f2, b, c)
		}
	}

	if a1, ok := actual.(*types.TypeApplication); ok {
		if a2, ok := expected.(*types.TypeApplication); ok {
			// Constructors first: it gives better diagnostics than failing
			// on an argument-count mismatch.
			if err := tryUnifyInner(a1.Constructor, a2.Constructor, b, c); err != nil {
				return err
			}
			if len(a1.Args) != len(a2.Args) {
				return errUnify
			}
			for i := range a1.Args {
				if err := tryUnifyInner(a1.Args[i], a2.Args[i], b, c); err != nil {
					return err
				}
			}
			return nil
		}
	}

	if r1, ok := actual.(*types.Ref); ok {
		if r2, ok := expected.(*types.Ref); ok {
			if err := tryUnifyInner(r1.Sharedness, r2.Sharedness, b, c); err != nil {
				return err
			}
			if err := tryUnifyInner(r1.Mutability, r2.Mutability, b, c); err != nil {
				return err
			}
			return tryUnifyInner(r1.Lifetime, r2.Lifetime, b, c)
		}
	}

	// Follow bound struct rows so the cases below never see a bound row.
	if s, ok := actual.(*types.Struct); ok {
		if bound := c.TypeBindings[s.Row]; bound.IsBound() {
			return tryUnifyInner(bound.Typ, expected, b, c)
		}
	}
	if s, ok := expected.(*types.Struct); ok {
		if bound := c.TypeBindings[s.Row]; bound.IsBound() {
			return tryUnifyInner(actual, bound.Typ, b, c)
		}
	}

	if s1, ok := actual.(*types.Struct); ok {
		if s2, ok := expected.(*types.Struct); ok {
			return bindStructFields(s1.Fields, s2.Fields, s1.Row, s2.Row, b, c)
		}
	}

	// A struct against a concrete type: the struct is a partial record whose
	// fields must be a subset of the concrete type's, and its row is bound
	// to the concrete type itself.
	if s, ok := actual.(*types.Struct); ok {
		return bindStructToConcrete(s, expected, b, c)
	}
	if s, ok := expected.(*types.Struct); ok {
		return bindStructToConcrete(s, actual, b, c)
	}

	if g, ok := actual.(*types.NamedGeneric); ok {
		if bound, found := findBinding(g.ID, b, c); found {
			return tryUnifyInner(bound, expected, b, c)
		}
	}
	if g, ok := expected.(*types.NamedGeneric); ok {
		if bound, found := findBinding(g.ID, b, c); found {
			return tryUnifyInner(actual, bound, b, c)
		}
	}

	if g1, ok := actual.(*types.NamedGeneric); ok {
		if g2, ok := expected.(*types.NamedGeneric); ok {
			if g1.ID == g2.ID {
				return nil
			}
			// Two distinct rigid generics may bind to each other when their
			// kinds match. This is what lets mutual recursion type check
			// against annotated signatures; binding direction is id1 to id2
			// without recomputing levels (see DESIGN.md).
			if c.TypeBindings[g1.ID].Kind != c.TypeBindings[g2.ID].Kind {
				return errUnify
			}
			b.Bindings[g1.ID] = &types.NamedGeneric{ID: g2.ID, Name: g2.Name}
			return nil
		}
	}

	if e1, ok := actual.(*types.EffectSet); ok {
		if e2, ok := expected.(*types.EffectSet); ok {
			return tryUnifyEffects(e1, e2, b, c)
		}
	}

	if t1, ok := actual.(*types.Tag); ok {
		if t2, ok := expected.(*types.Tag); ok {
			if t1.Kind == t2.Kind {
				return nil
			}
			// mut <= immut
			if t1.Kind == types.Mutable && t2.Kind == types.Immutable {
				return nil
			}
			// owned <= shared
			if t1.Kind == types.Owned && t2.Kind == types.Shared {
				return nil
			}
		}
	}

	return errUnify
}

func tryUnifyFunctions(f1, f2 *types.Function, b *UnificationBindings, c *cache.ModuleCache) error {
	if len(f1.Parameters) != len(f2.Parameters) {
		// Varargs-ness itself is never unified; if one side is varargs the
		// other just needs at least as many parameters.
		ok := (f1.HasVarargs && len(f2.Parameters) >= len(f1.Parameters)) ||
			(f2.HasVarargs && len(f1.Parameters) >= len(f2.Parameters))
		if !ok {
			return errUnify
		}
	}

	n := len(f1.Parameters)
	if len(f2.Parameters) < n {
		n = len(f2.Parameters)
	}
	for i := 0; i < n; i++ {
		if err := tryUnifyInner(f1.Parameters[i], f2.Parameters[i], b, c); err != nil {
			return err
		}
	}

	// Return types unify in reversed order to preserve the subtyping
	// relation between mutable and immutable references.
	if err := tryUnifyInner(f2.Return, f1.Return, b, c); err != nil {
		return err
	}
	if err := tryUnifyInner(f1.Environment, f2.Environment, b, c); err != nil {
		return err
	}
	return tryUnifyInner(f1.Effects, f2.Effects, b, c)
}

// tryUnifyTypeVariable unifies the variable id (arising from side a) with b.
func tryUnifyTypeVariable(id types.TypeVariableId, a, b types.Type, typevarOnLhs bool,
	bindings *UnificationBindings, c *cache.ModuleCache) error {

	if bound, ok := findBinding(id, bindings, c); ok {
		if typevarOnLhs {
			return tryUnifyInner(bound, b, bindings, c)
		}
		return tryUnifyInner(b, bound, bindings, c)
	}

	level := c.TypeBindings[id].Level
	b = followBindingsInCacheAndMap(b, bindings, c)
	if tv, ok := b.(*types.TypeVariable); ok && tv.ID == id {
		return nil
	}
	result := occurs(id, level, b, bindings, recursionLimit, c)
	bindings.levels = append(bindings.levels, result.levels...)
	if result.occurs {
		return errUnify
	}
	if tv, ok := b.(*types.TypeVariable); ok {
		kind := c.TypeBindings[id].Kind
		if kind == types.KindInteger || kind == types.KindFloat {
			bindings.kinds = append(bindings.kinds, kindBinding{id: tv.ID, kind: kind})
		}
	}
	bindings.Bindings[id] = b
	return nil
}

// TryUnifyWithBindings unifies into an existing staging area, converting
// failure into a diagnostic carrying the caller's error kind and the printed
// types.
func TryUnifyWithBindings(actual, expected types.Type, b *UnificationBindings, pos token.Pos,
	c *cache.ModuleCache, errorKind cache.TypeErrorKind) *cache.Diagnostic {

	if err := tryUnifyInner(actual, expected, b, c); err != nil {
		printer := types.NewPrinter(c)
		t1 := printer.Show(actual)
		t2 := printer.Show(expected)
		d := cache.TypeError(pos, errorKind, t1, t2)
		return &d
	}
	return nil
}

// TryUnify unifies into a fresh staging area, returning the bindings on
// success or a diagnostic on failure.
func TryUnify(actual, expected types.Type, pos token.Pos, c *cache.ModuleCache,
	errorKind cache.TypeErrorKind) (*UnificationBindings, *cache.Diagnostic) {

	b := EmptyBindings()
	if d := TryUnifyWithBindings(actual, expected, b, pos, c, errorKind); d != nil {
		return nil, d
	}
	return b, nil
}

// TryUnifyAllWithBindings unifies two equal-length slices pointwise.
func TryUnifyAllWithBindings(actual, expected []types.Type, b *UnificationBindings, pos token.Pos,
	c *cache.ModuleCache, errorKind cache.TypeErrorKind) (*UnificationBindings, *cache.Diagnostic) {

	if len(actual) != len(expected) {
		printer := types.NewPrinter(c)
		shown1 := make([]string, len(actual))
		for i, typ := range actual {
			shown1[i] = printer.Show(typ)
		}
		shown2 := make([]string, len(expected))
		for i, typ := range expected {
			shown2[i] = printer.Show(typ)
		}
		d := cache.Diagnostic{Pos: pos, Kind: cache.DiagTypeLengthMismatch, Args: []any{shown1, shown2}}
		return nil, &d
	}
	for i := range actual {
		if d := TryUnifyWithBindings(actual[i], expected[i], b, pos, c, errorKind); d != nil {
			return nil, d
		}
	}
	return b, nil
}

// tryUnifyAllHideError unifies two slices with no diagnostic on failure.
func tryUnifyAllHideError(actual, expected []types.Type, c *cache.ModuleCache) (*UnificationBindings, bool) {
	if len(actual) != len(expected) {
		return nil, false
	}
	b := EmptyBindings()
	for i := range actual {
		if err := tryUnifyInner(actual[i], expected[i], b, c); err != nil {
			return nil, false
		}
	}
	return b, true
}

// Unify unifies two types, committing the bindings to the cache on success
// and pushing a diagnostic on failure.
func Unify(actual, expected types.Type, pos token.Pos, c *cache.ModuleCache, errorKind cache.TypeErrorKind) {
	bindings, diagnostic := TryUnify(actual, expected, pos, c, errorKind)
	performBindingsOrPushError(bindings, diagnostic, c)
}

func performBindingsOrPushError(bindings *UnificationBindings, diagnostic *cache.Diagnostic, c *cache.ModuleCache) {
	if diagnostic != nil {
		c.PushFullDiagnostic(*diagnostic)
		return
	}
	bindings.Perform(c)
}
