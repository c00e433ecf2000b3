// Package resolve implements name resolution: it populates the
// cross-reference fields the inference pass consumes (definition ids, impl
// scopes, binding levels, closure environments, trait and effect metadata)
// and registers declarations in the module cache.
package resolve

import (
	"github.com/JohnathanFL/ante/internal/ast"
	"github.com/JohnathanFL/ante/internal/cache"
	"github.com/JohnathanFL/ante/internal/types"
)

// Resolver resolves one program into a module cache.
type Resolver struct {
	c *cache.ModuleCache

	scopes []map[string]cache.DefinitionInfoId
	rigids []map[string]*types.NamedGeneric

	userTypes map[string]types.TypeInfoId
	traits    map[string]cache.TraitInfoId
	effects   map[string]types.EffectInfoId
	ctorTypes map[cache.DefinitionInfoId]types.TypeInfoId

	// defDepth records the lambda-nesting depth each definition was declared
	// at; depth 0 definitions are globals.
	defDepth map[cache.DefinitionInfoId]int
	lambdas  []*lambdaFrame

	level     types.LetBindingLevel
	nextVarID cache.VariableId
}

type lambdaFrame struct {
	node     *ast.Lambda
	captures map[cache.DefinitionInfoId]*ast.Capture
}

// New returns a resolver with the builtin prelude registered.
func New(c *cache.ModuleCache) *Resolver {
	r := &Resolver{
		c:         c,
		scopes:    []map[string]cache.DefinitionInfoId{make(map[string]cache.DefinitionInfoId)},
		userTypes: make(map[string]types.TypeInfoId),
		traits:    make(map[string]cache.TraitInfoId),
		effects:   make(map[string]types.EffectInfoId),
		ctorTypes: make(map[cache.DefinitionInfoId]types.TypeInfoId),
		defDepth:  make(map[cache.DefinitionInfoId]int),
		level:     types.InitialLevel,
		nextVarID: 1, // 0 is reserved so unresolved variables are detectable
	}
	r.declarePrelude()
	return r
}

// Resolve resolves a whole program.
func (r *Resolver) Resolve(program *ast.Sequence) {
	r.resolveSequence(program)
}

func (r *Resolver) pushScope()  { r.scopes = append(r.scopes, make(map[string]cache.DefinitionInfoId)) }
func (r *Resolver) popScope()   { r.scopes = r.scopes[:len(r.scopes)-1] }
func (r *Resolver) pushRigids() { r.rigids = append(r.rigids, make(map[string]*types.NamedGeneric)) }
func (r *Resolver) popRigids()  { r.rigids = r.rigids[:len(r.rigids)-1] }

func (r *Resolver) funcDepth() int { return len(r.lambdas) }

func (r *Resolver) declare(name string, info *cache.DefinitionInfo) cache.DefinitionInfoId {
	info.Global = r.funcDepth() == 0
	id := r.c.PushDefinitionInfo(info)
	r.scopes[len(r.scopes)-1][name] = id
	r.defDepth[id] = r.funcDepth()
	return id
}

func (r *Resolver) lookup(name string) (cache.DefinitionInfoId, bool) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if id, ok := r.scopes[i][name]; ok {
			return id, true
		}
	}
	return 0, false
}

func (r *Resolver) freshVariableID() cache.VariableId {
	id := r.nextVarID
	r.nextVarID++
	return id
}

// resolveNode dispatches resolution over the AST.
func (r *Resolver) resolveNode(node ast.Node) {
	switch n := node.(type) {
	case *ast.Literal:
	case *ast.Variable:
		r.resolveVariable(n)
	case *ast.Lambda:
		r.resolveLambda(n)
	case *ast.FunctionCall:
		r.resolveNode(n.Function)
		for _, arg := range n.Args {
			r.resolveNode(arg)
		}
	case *ast.Definition:
		r.resolveDefinition(n, true)
	case *ast.If:
		r.resolveNode(n.Condition)
		r.resolveNode(n.Then)
		r.resolveNode(n.Otherwise)
	case *ast.Match:
		r.resolveMatch(n)
	case *ast.TypeDefinition:
		// Registered during hoisting; nothing left to resolve.
	case *ast.TypeAnnotation:
		r.resolveNode(n.Lhs)
		n.Annotation = r.resolveType(n.TypeExpr)
	case *ast.Import:
	case *ast.TraitDefinition:
		r.resolveTraitDefinition(n)
	case *ast.TraitImpl:
		r.resolveTraitImpl(n)
	case *ast.Return:
		r.resolveNode(n.Expression)
	case *ast.Sequence:
		r.resolveSequence(n)
	case *ast.Extern:
		r.resolveExtern(n)
	case *ast.MemberAccess:
		r.resolveNode(n.Lhs)
	case *ast.Assignment:
		r.resolveNode(n.Lhs)
		r.resolveNode(n.Rhs)
	case *ast.EffectDefinition:
		r.resolveEffectDefinition(n)
	case *ast.Handle:
		r.resolveHandle(n)
	case *ast.NamedConstructor:
		r.resolveNamedConstructor(n)
	case *ast.Reference:
		r.resolveNode(n.Expression)
	case *ast.Record:
		for _, field := range n.Fields {
			r.resolveNode(field.Value)
		}
	}
}

// resolveSequence hoists the names a sequence's definitions declare before
// resolving statements, so definitions may refer to each other regardless
// of order (inference visits them on demand anyway).
func (r *Resolver) resolveSequence(sequence *ast.Sequence) {
	for _, statement := range sequence.Statements {
		r.hoistStatement(statement)
	}
	for _, statement := range sequence.Statements {
		r.resolveNode(statement)
	}
}

func (r *Resolver) hoistStatement(statement ast.Node) {
	switch n := statement.(type) {
	case *ast.Definition:
		r.declarePatternVariables(n.Pattern, cache.DefDefinition, n.Mutable, n)
	case *ast.TypeDefinition:
		r.registerTypeDefinition(n)
	case *ast.TraitDefinition:
		r.registerTraitDefinition(n)
	case *ast.EffectDefinition:
		r.registerEffectDefinition(n)
	case *ast.Extern:
		r.registerExtern(n)
	}
}

// declarePatternVariables declares every variable of an irrefutable
// pattern, all sharing the given defining node.
func (r *Resolver) declarePatternVariables(pattern ast.Node, kind cache.DefinitionKind,
	mutable bool, definition any) {

	switch n := pattern.(type) {
	case *ast.Variable:
		if n.Definition == 0 && n.ID == 0 {
			id := r.declare(n.Name, &cache.DefinitionInfo{
				Name:       n.Name,
				Pos:        n.Locate(),
				Kind:       kind,
				Mutable:    mutable,
				Definition: definition,
			})
			n.Definition = id
			n.ID = r.freshVariableID()
		}
	case *ast.TypeAnnotation:
		r.declarePatternVariables(n.Lhs, kind, mutable, definition)
	case *ast.FunctionCall:
		for _, arg := range n.Args {
			r.declarePatternVariables(arg, kind, mutable, definition)
		}
		if v, ok := n.Function.(*ast.Variable); ok && n.IsPairCtor {
			r.resolveVariable(v)
		}
	case *ast.Literal:
	default:
	}
}

// resolveDefinition resolves one let definition. When hoist is true the
// pattern names were not declared by an enclosing sequence.
func (r *Resolver) resolveDefinition(definition *ast.Definition, hoist bool) {
	if hoist {
		r.declarePatternVariables(definition.Pattern, cache.DefDefinition, definition.Mutable, definition)
	}

	definition.Level = r.level + 1

	previous := r.level
	r.level = definition.Level
	r.pushRigids()

	r.resolvePattern(definition.Pattern)
	r.resolveNode(definition.Expr)

	r.popRigids()
	r.level = previous
}

// resolvePattern resolves the type annotations inside an already-declared
// pattern.
func (r *Resolver) resolvePattern(pattern ast.Node) {
	switch n := pattern.(type) {
	case *ast.Variable, *ast.Literal:
	case *ast.TypeAnnotation:
		n.Annotation = r.resolveType(n.TypeExpr)
		r.resolvePattern(n.Lhs)
	case *ast.FunctionCall:
		for _, arg := range n.Args {
			r.resolvePattern(arg)
		}
	}
}

func (r *Resolver) resolveVariable(variable *ast.Variable) {
	if variable.ID != 0 || variable.Definition != 0 {
		return // already resolved (a declared pattern variable)
	}
	id, ok := r.lookup(variable.Name)
	if !ok {
		r.c.PushDiagnostic(variable.Locate(), cache.DiagNameError, variable.Name)
		id = r.declare(variable.Name, &cache.DefinitionInfo{
			Name: variable.Name,
			Pos:  variable.Locate(),
			Kind: cache.DefDefinition,
		})
	}
	variable.Definition = r.captureIfNeeded(id)
	variable.ID = r.freshVariableID()
	variable.ImplScope = 0
}

// captureIfNeeded rewrites a reference to a local from an enclosing
// function into a chain of closure captures, one per intervening lambda.
func (r *Resolver) captureIfNeeded(id cache.DefinitionInfoId) cache.DefinitionInfoId {
	depth := r.defDepth[id]
	if depth == 0 || depth >= r.funcDepth() {
		return id
	}
	for i := depth; i < r.funcDepth(); i++ {
		frame := r.lambdas[i]
		capture, ok := frame.captures[id]
		if !ok {
			from := r.c.DefinitionInfos[id]
			to := r.c.PushDefinitionInfo(&cache.DefinitionInfo{
				Name:    from.Name,
				Pos:     from.Pos,
				Kind:    cache.DefParameter,
				Mutable: from.Mutable,
			})
			r.defDepth[to] = i + 1
			capture = &ast.Capture{From: id, VarID: r.freshVariableID(), To: to}
			frame.captures[id] = capture
		}
		id = capture.To
	}
	return id
}

func (r *Resolver) resolveLambda(lambda *ast.Lambda) {
	r.pushScope()
	r.lambdas = append(r.lambdas, &lambdaFrame{node: lambda, captures: make(map[cache.DefinitionInfoId]*ast.Capture)})

	for _, param := range lambda.Args {
		r.declarePatternVariables(param, cache.DefParameter, false, nil)
		r.resolvePattern(param)
	}
	r.resolveNode(lambda.Body)

	frame := r.lambdas[len(r.lambdas)-1]
	r.lambdas = r.lambdas[:len(r.lambdas)-1]
	r.popScope()

	lambda.Environment = sortedCaptures(frame.captures)
}

func sortedCaptures(captures map[cache.DefinitionInfoId]*ast.Capture) []*ast.Capture {
	var out []*ast.Capture
	for _, capture := range captures {
		out = append(out, capture)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].From > out[j].From; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func (r *Resolver) resolveMatch(match *ast.Match) {
	r.resolveNode(match.Expression)
	for i := range match.Branches {
		branch := &match.Branches[i]
		r.pushScope()
		r.declarePatternVariables(branch.Pattern, cache.DefMatchPattern, false, nil)
		r.resolvePattern(branch.Pattern)
		r.resolveNode(branch.Body)
		r.popScope()
	}
}

func (r *Resolver) resolveHandle(handle *ast.Handle) {
	r.resolveNode(handle.Expression)
	for i := range handle.Branches {
		branch := &handle.Branches[i]
		r.pushScope()

		// The branch pattern is a call of the effect operation.
		if call, ok := branch.Pattern.(*ast.FunctionCall); ok {
			if op, ok := call.Function.(*ast.Variable); ok {
				r.resolveVariable(op)
			}
			for _, arg := range call.Args {
				r.declarePatternVariables(arg, cache.DefMatchPattern, false, nil)
				r.resolvePattern(arg)
			}
		}

		resume := r.declare("resume", &cache.DefinitionInfo{
			Name: "resume",
			Pos:  branch.Pattern.Locate(),
			Kind: cache.DefParameter,
		})
		handle.Resumes = append(handle.Resumes, resume)

		r.resolveNode(branch.Body)
		r.popScope()
	}
}

func (r *Resolver) resolveNamedConstructor(ctor *ast.NamedConstructor) {
	constructor := ctor.Constructor.(*ast.Variable)
	r.resolveVariable(constructor)

	call := ctor.Call.(*ast.FunctionCall)

	// Reorder the field values into declaration order.
	if typeID, ok := r.ctorTypes[constructor.Definition]; ok {
		info := r.c.TypeInfos[typeID]
		byName := make(map[string]ast.Node, len(call.Args))
		for i, name := range ctor.FieldNames {
			byName[name] = call.Args[i]
		}
		if len(info.Body.Fields) == len(call.Args) {
			reordered := make([]ast.Node, 0, len(call.Args))
			complete := true
			for _, field := range info.Body.Fields {
				value, ok := byName[field.Name]
				if !ok {
					r.c.PushDiagnostic(ctor.Locate(), cache.DiagNameError, field.Name)
					complete = false
					break
				}
				reordered = append(reordered, value)
			}
			if complete {
				call.Args = reordered
			}
		}
	}

	for _, arg := range call.Args {
		r.resolveNode(arg)
	}
}

func (r *Resolver) resolveExtern(extern *ast.Extern) {
	extern.Level = r.level + 1
	previous := r.level
	r.level = extern.Level
	for _, declaration := range extern.Declarations {
		r.pushRigids()
		declaration.Typ = r.resolveType(declaration.TypeExpr)
		r.popRigids()
	}
	r.level = previous
}

func (r *Resolver) registerExtern(extern *ast.Extern) {
	for _, declaration := range extern.Declarations {
		r.declarePatternVariables(declaration.Lhs, cache.DefExtern, false, extern)
	}
}
