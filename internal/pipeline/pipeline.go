// Package pipeline wires the frontend and the inference pass together for
// the CLI and REPL: source text in, typed program and diagnostics out.
package pipeline

import (
	"fmt"
	"sort"

	"github.com/JohnathanFL/ante/internal/ast"
	"github.com/JohnathanFL/ante/internal/cache"
	"github.com/JohnathanFL/ante/internal/infer"
	"github.com/JohnathanFL/ante/internal/parser"
	"github.com/JohnathanFL/ante/internal/resolve"
	"github.com/JohnathanFL/ante/internal/types"
)

// Result is a checked program.
type Result struct {
	Program     *ast.Sequence
	Cache       *cache.ModuleCache
	ParseErrors []parser.Error
}

// HasErrors reports whether checking produced any error.
func (r *Result) HasErrors() bool {
	return len(r.ParseErrors) != 0 || r.Cache.ErrorCount() != 0
}

// Check parses, resolves and infers a program.
func Check(src, filename string) *Result {
	program, parseErrors := parser.ParseString(src, filename)
	c := cache.New()

	result := &Result{Program: program, Cache: c, ParseErrors: parseErrors}
	if len(parseErrors) != 0 {
		for _, parseError := range parseErrors {
			c.PushDiagnostic(parseError.Pos, cache.DiagParserExpected, parseError.Message)
		}
		return result
	}

	resolver := resolve.New(c)
	resolver.Resolve(program)
	infer.InferAst(program, c)
	return result
}

// DefinitionType is a top-level definition's name and printed type.
type DefinitionType struct {
	Name string
	Typ  string
}

// DefinitionTypes returns the printed generalized types of the program's
// top-level definitions, in declaration order.
func (r *Result) DefinitionTypes() []DefinitionType {
	printer := types.NewPrinter(r.Cache)

	type entry struct {
		id   cache.DefinitionInfoId
		name string
	}
	var entries []entry
	seen := make(map[cache.DefinitionInfoId]bool)

	for _, statement := range r.Program.Statements {
		definition, ok := statement.(*ast.Definition)
		if !ok {
			continue
		}
		ast.Walk(definition.Pattern, func(n ast.Node) bool {
			if v, ok := n.(*ast.Variable); ok && !seen[v.Definition] {
				seen[v.Definition] = true
				entries = append(entries, entry{id: v.Definition, name: v.Name})
			}
			return true
		})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].id < entries[j].id })

	var out []DefinitionType
	for _, e := range entries {
		info := r.Cache.DefinitionInfos[e.id]
		if info.Typ == nil {
			out = append(out, DefinitionType{Name: e.name, Typ: "(not inferred)"})
			continue
		}
		out = append(out, DefinitionType{Name: e.name, Typ: printer.ShowGeneralized(info.Typ)})
	}
	return out
}

// ProgramType returns the printed type of the program's final expression.
func (r *Result) ProgramType() string {
	if r.Program.GetType() == nil {
		return "(not inferred)"
	}
	return types.ShowType(r.Program.GetType(), r.Cache)
}

// Diagnostics renders every diagnostic in the order it was reported.
func (r *Result) Diagnostics() []string {
	var out []string
	for _, d := range r.Cache.Diagnostics {
		out = append(out, fmt.Sprintf("%s: %s", d.Pos, d.Message()))
	}
	return out
}
