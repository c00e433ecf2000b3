package types

import (
	"fmt"
	"strings"
)

// Effect is a single effect invocation: the effect's declaration id plus its
// type arguments.
type Effect struct {
	ID   EffectInfoId
	Args []Type
}

// EffectSet is a row of effects with an optional extension variable. A nil
// Extension means the row is closed: no further effects may be added.
// EffectSet implements Type so effect rows can appear wherever types do
// (most importantly as the Effects field of a Function).
type EffectSet struct {
	Effects   []Effect
	Extension *TypeVariableId
}

func (*EffectSet) typ() {}

func (e *EffectSet) String() string {
	parts := make([]string, 0, len(e.Effects)+1)
	for _, eff := range e.Effects {
		args := make([]string, len(eff.Args))
		for i, arg := range eff.Args {
			args[i] = arg.String()
		}
		if len(args) == 0 {
			parts = append(parts, fmt.Sprintf("effect#%d", eff.ID))
		} else {
			parts = append(parts, fmt.Sprintf("effect#%d %s", eff.ID, strings.Join(args, " ")))
		}
	}
	if e.Extension != nil {
		parts = append(parts, fmt.Sprintf("..t%d", *e.Extension))
	}
	return fmt.Sprintf("can %s", strings.Join(parts, ", "))
}

// Pure returns a closed, empty effect set.
func Pure() *EffectSet {
	return &EffectSet{}
}

// Open returns an empty effect set extensible through the given variable.
func Open(extension TypeVariableId) *EffectSet {
	return &EffectSet{Extension: &extension}
}

// Only returns a closed effect set holding exactly the given effects.
func Only(effects []Effect) *EffectSet {
	return &EffectSet{Effects: effects}
}

// Copy returns a copy sharing no mutable state with the receiver at the top
// level. Effect args are shared; types are never mutated in place.
func (e *EffectSet) Copy() *EffectSet {
	effects := make([]Effect, len(e.Effects))
	copy(effects, e.Effects)
	var extension *TypeVariableId
	if e.Extension != nil {
		ext := *e.Extension
		extension = &ext
	}
	return &EffectSet{Effects: effects, Extension: extension}
}

// IsEmpty reports whether the set carries no effects, open or closed.
func (e *EffectSet) IsEmpty() bool { return len(e.Effects) == 0 }
