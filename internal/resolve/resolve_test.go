package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohnathanFL/ante/internal/ast"
	"github.com/JohnathanFL/ante/internal/cache"
	"github.com/JohnathanFL/ante/internal/parser"
	"github.com/JohnathanFL/ante/internal/types"
)

func resolveProgram(t *testing.T, input string) (*ast.Sequence, *cache.ModuleCache) {
	t.Helper()
	program, errors := parser.ParseString(input, "test.an")
	require.Empty(t, errors)
	c := cache.New()
	New(c).Resolve(program)
	return program, c
}

func TestVariablesResolveToDefinitions(t *testing.T) {
	program, c := resolveProgram(t, "let x = 3\nx")
	require.Zero(t, c.ErrorCount(), "diagnostics: %v", c.Diagnostics)

	use, ok := program.Statements[1].(*ast.Variable)
	require.True(t, ok)

	definition := program.Statements[0].(*ast.Definition)
	pattern := definition.Pattern.(*ast.Variable)
	assert.Equal(t, pattern.Definition, use.Definition)
	assert.NotEqual(t, pattern.ID, use.ID)
}

func TestUnknownNameReportsDiagnostic(t *testing.T) {
	_, c := resolveProgram(t, "missing")
	require.NotZero(t, c.ErrorCount())
	assert.Equal(t, cache.DiagNameError, c.Diagnostics[0].Kind)
}

func TestForwardReferencesResolveAtTopLevel(t *testing.T) {
	program, c := resolveProgram(t, "let f = fn n -> g n\nlet g = fn n -> n")
	require.Zero(t, c.ErrorCount(), "diagnostics: %v", c.Diagnostics)

	f := program.Statements[0].(*ast.Definition)
	body := f.Expr.(*ast.Lambda).Body.(*ast.FunctionCall)
	gUse := body.Function.(*ast.Variable)

	g := program.Statements[1].(*ast.Definition)
	gPattern := g.Pattern.(*ast.Variable)
	assert.Equal(t, gPattern.Definition, gUse.Definition)
}

func TestDefinitionLevels(t *testing.T) {
	program, _ := resolveProgram(t, "let f = fn x -> (let y = x\ny)")
	outer := program.Statements[0].(*ast.Definition)
	assert.Equal(t, types.LetBindingLevel(2), outer.Level)

	inner := outer.Expr.(*ast.Lambda).Body.(*ast.Sequence).Statements[0].(*ast.Definition)
	assert.Equal(t, types.LetBindingLevel(3), inner.Level)
}

func TestMutabilityFlag(t *testing.T) {
	program, c := resolveProgram(t, "let mut x = 3")
	pattern := program.Statements[0].(*ast.Definition).Pattern.(*ast.Variable)
	assert.True(t, c.DefinitionInfos[pattern.Definition].Mutable)
}

func TestClosureCapturesAreRewritten(t *testing.T) {
	program, c := resolveProgram(t, "let f = fn x -> fn y -> x")
	outer := program.Statements[0].(*ast.Definition).Expr.(*ast.Lambda)
	inner := outer.Body.(*ast.Lambda)

	require.Len(t, inner.Environment, 1)
	capture := inner.Environment[0]

	xPattern := outer.Args[0].(*ast.Variable)
	assert.Equal(t, xPattern.Definition, capture.From)

	// The inner use points at the capture target, not the original.
	use := inner.Body.(*ast.Variable)
	assert.Equal(t, capture.To, use.Definition)
	assert.NotEqual(t, capture.From, use.Definition)
	assert.Equal(t, cache.DefParameter, c.DefinitionInfos[capture.To].Kind)
}

func TestGlobalsAreNotCaptured(t *testing.T) {
	program, _ := resolveProgram(t, "let g = 3\nlet f = fn x -> g")
	lambda := program.Statements[1].(*ast.Definition).Expr.(*ast.Lambda)
	assert.Empty(t, lambda.Environment)
}

func TestTraitRegistration(t *testing.T) {
	program, c := resolveProgram(t, "trait Show a with\n  show : a -> String")
	trait := program.Statements[0].(*ast.TraitDefinition)

	info := c.TraitInfos[trait.TraitInfo]
	assert.Equal(t, "Show", info.Name)
	require.Len(t, info.TypeArgs, 1)
	require.Len(t, info.Definitions, 1)

	method := c.DefinitionInfos[info.Definitions[0]]
	assert.Equal(t, "show", method.Name)
	require.NotNil(t, method.TraitInfo)
	assert.Equal(t, trait.TraitInfo, method.TraitInfo.TraitID)

	// The declared type mentions the trait's rigid argument.
	declared := trait.Declarations[0].Typ
	fn, ok := declared.(*types.Function)
	require.True(t, ok)
	generic, ok := fn.Parameters[0].(*types.NamedGeneric)
	require.True(t, ok)
	assert.Equal(t, info.TypeArgs[0], generic.ID)
}

func TestEffectRegistration(t *testing.T) {
	program, c := resolveProgram(t, "effect State a with\n  get : unit -> a")
	effect := program.Statements[0].(*ast.EffectDefinition)

	info := c.EffectInfos[effect.EffectInfo]
	assert.Equal(t, "State", info.Name)
	require.Len(t, info.TypeArgs, 1)
	require.Len(t, info.Declarations, 1)
}

func TestHandleDeclaresResume(t *testing.T) {
	program, c := resolveProgram(t,
		"effect State a with\n  get : unit -> a\nlet f = fn x -> get x\nhandle f () | get y -> resume 0")
	handle := program.Statements[2].(*ast.Handle)
	require.Len(t, handle.Resumes, 1)
	assert.Equal(t, "resume", c.DefinitionInfos[handle.Resumes[0]].Name)
	require.Zero(t, c.ErrorCount(), "diagnostics: %v", c.Diagnostics)
}

func TestTypeDefinitionRegistersConstructor(t *testing.T) {
	program, c := resolveProgram(t, "type Point = x: Int, y: Int\nPoint 1 2")
	typeDef := program.Statements[0].(*ast.TypeDefinition)

	info := c.TypeInfos[typeDef.TypeID]
	assert.Equal(t, "Point", info.Name)
	require.Len(t, info.Body.Fields, 2)

	call := program.Statements[1].(*ast.FunctionCall)
	ctor := call.Function.(*ast.Variable)
	assert.Equal(t, cache.DefTypeConstructor, c.DefinitionInfos[ctor.Definition].Kind)
}

func TestImplMembersRegister(t *testing.T) {
	program, c := resolveProgram(t,
		"trait Show a with\n  show : a -> String\nimpl Show Bool with\n  show b = \"b\"")
	impl := program.Statements[1].(*ast.TraitImpl)

	require.Zero(t, c.ErrorCount(), "diagnostics: %v", c.Diagnostics)
	info := c.ImplInfos[impl.ImplID]
	require.Len(t, info.Args, 1)
	primitive, ok := info.Args[0].(*types.Primitive)
	require.True(t, ok)
	assert.Equal(t, types.BoolKind, primitive.Kind)
	require.Len(t, info.Definitions, 1)
}

func TestAnnotationRigidsShareScopeWithinDefinition(t *testing.T) {
	program, _ := resolveProgram(t, "let f = fn x -> ((x : a) : a)")
	definition := program.Statements[0].(*ast.Definition)
	outer := definition.Expr.(*ast.Lambda).Body.(*ast.TypeAnnotation)
	inner := outer.Lhs.(*ast.TypeAnnotation)

	outerGeneric := outer.Annotation.(*types.NamedGeneric)
	innerGeneric := inner.Annotation.(*types.NamedGeneric)
	assert.Equal(t, innerGeneric.ID, outerGeneric.ID)
}
