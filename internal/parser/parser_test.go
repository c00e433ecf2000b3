package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohnathanFL/ante/internal/ast"
)

func parse(t *testing.T, input string) *ast.Sequence {
	t.Helper()
	program, errors := ParseString(input, "test.an")
	require.Empty(t, errors, "parse errors: %v", errors)
	return program
}

func TestParseDefinition(t *testing.T) {
	program := parse(t, "let id = fn x -> x")
	require.Len(t, program.Statements, 1)

	definition, ok := program.Statements[0].(*ast.Definition)
	require.True(t, ok)
	assert.False(t, definition.Mutable)

	pattern, ok := definition.Pattern.(*ast.Variable)
	require.True(t, ok)
	assert.Equal(t, "id", pattern.Name)

	lambda, ok := definition.Expr.(*ast.Lambda)
	require.True(t, ok)
	assert.Len(t, lambda.Args, 1)
}

func TestFunctionSugar(t *testing.T) {
	program := parse(t, "let const a b = a")
	definition := program.Statements[0].(*ast.Definition)
	lambda, ok := definition.Expr.(*ast.Lambda)
	require.True(t, ok)
	assert.Len(t, lambda.Args, 2)
}

func TestMutableDefinition(t *testing.T) {
	program := parse(t, "let mut x = 3")
	definition := program.Statements[0].(*ast.Definition)
	assert.True(t, definition.Mutable)
}

func TestApplicationIsJuxtaposition(t *testing.T) {
	program := parse(t, "f 1 true")
	call, ok := program.Statements[0].(*ast.FunctionCall)
	require.True(t, ok)
	assert.Len(t, call.Args, 2)
}

func TestOperatorsDesugarToCalls(t *testing.T) {
	program := parse(t, "a + b * c")
	add, ok := program.Statements[0].(*ast.FunctionCall)
	require.True(t, ok)
	fn := add.Function.(*ast.Variable)
	assert.Equal(t, "+", fn.Name)

	mul, ok := add.Args[1].(*ast.FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "*", mul.Function.(*ast.Variable).Name)
}

func TestAssignment(t *testing.T) {
	program := parse(t, "x := 4")
	assignment, ok := program.Statements[0].(*ast.Assignment)
	require.True(t, ok)
	_, ok = assignment.Lhs.(*ast.Variable)
	assert.True(t, ok)
}

func TestMemberAccess(t *testing.T) {
	program := parse(t, "r.x\nr.!y")
	access := program.Statements[0].(*ast.MemberAccess)
	assert.Equal(t, "x", access.Field)
	assert.False(t, access.IsOffset)

	offset := program.Statements[1].(*ast.MemberAccess)
	assert.Equal(t, "y", offset.Field)
	assert.True(t, offset.IsOffset)
	assert.Equal(t, ast.MutableRef, offset.OffsetMutable)
}

func TestIfWithoutElseGetsUnit(t *testing.T) {
	program := parse(t, "if c then 1")
	conditional := program.Statements[0].(*ast.If)
	literal, ok := conditional.Otherwise.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, ast.UnitLit, literal.Kind)
}

func TestMatchBranches(t *testing.T) {
	program := parse(t, "match x | 0 -> true | n -> false")
	match := program.Statements[0].(*ast.Match)
	require.Len(t, match.Branches, 2)
}

func TestRecordLiteral(t *testing.T) {
	program := parse(t, "{ x = 1, y = true }")
	record := program.Statements[0].(*ast.Record)
	require.Len(t, record.Fields, 2)
	assert.Equal(t, "x", record.Fields[0].Name)
}

func TestPairExpression(t *testing.T) {
	program := parse(t, "1, 2, 3")
	pair, ok := program.Statements[0].(*ast.FunctionCall)
	require.True(t, ok)
	require.True(t, pair.IsPairCtor)

	nested, ok := pair.Args[1].(*ast.FunctionCall)
	require.True(t, ok)
	assert.True(t, nested.IsPairCtor)
}

func TestTraitDefinition(t *testing.T) {
	program := parse(t, "trait Show a with\n  show : a -> String")
	trait := program.Statements[0].(*ast.TraitDefinition)
	assert.Equal(t, "Show", trait.Name)
	assert.Equal(t, []string{"a"}, trait.ArgNames)
	require.Len(t, trait.Declarations, 1)
}

func TestTraitImpl(t *testing.T) {
	program := parse(t, "impl Show Bool with\n  show b = \"b\"")
	impl := program.Statements[0].(*ast.TraitImpl)
	assert.Equal(t, "Show", impl.TraitName)
	require.Len(t, impl.ArgTypeExprs, 1)
	require.Len(t, impl.Definitions, 1)
}

func TestEffectAndHandle(t *testing.T) {
	program := parse(t, "effect State a with\n  get : unit -> a\nhandle f () | get y -> resume 0")
	effect := program.Statements[0].(*ast.EffectDefinition)
	assert.Equal(t, "State", effect.Name)
	require.Len(t, effect.Declarations, 1)

	handle := program.Statements[1].(*ast.Handle)
	require.Len(t, handle.Branches, 1)
}

func TestAnnotation(t *testing.T) {
	program := parse(t, "(x : Int)")
	annotation, ok := program.Statements[0].(*ast.TypeAnnotation)
	require.True(t, ok)
	named, ok := annotation.TypeExpr.(*ast.NamedType)
	require.True(t, ok)
	assert.Equal(t, "Int", named.Name)
}

func TestFunctionTypeFlattensArrows(t *testing.T) {
	program := parse(t, "(f : Int -> Int -> Bool can State Int)")
	annotation := program.Statements[0].(*ast.TypeAnnotation)
	fn, ok := annotation.TypeExpr.(*ast.FunctionTypeExpr)
	require.True(t, ok)
	assert.Len(t, fn.Parameters, 2)
	require.Len(t, fn.Effects, 1)
	assert.Equal(t, "State", fn.Effects[0].Id)
}

func TestReferences(t *testing.T) {
	program := parse(t, "&x\n!y")
	immutable := program.Statements[0].(*ast.Reference)
	assert.Equal(t, ast.ImmutableRef, immutable.Mutability)
	mutable := program.Statements[1].(*ast.Reference)
	assert.Equal(t, ast.MutableRef, mutable.Mutability)
}

func TestTypeDefinition(t *testing.T) {
	program := parse(t, "type Point = x: Int, y: Int")
	typeDef := program.Statements[0].(*ast.TypeDefinition)
	assert.Equal(t, "Point", typeDef.Name)
	require.Len(t, typeDef.Fields, 2)
}

func TestParenthesizedSequence(t *testing.T) {
	program := parse(t, "let f = fn x -> (let y = x\ny)")
	definition := program.Statements[0].(*ast.Definition)
	lambda := definition.Expr.(*ast.Lambda)
	sequence, ok := lambda.Body.(*ast.Sequence)
	require.True(t, ok)
	assert.Len(t, sequence.Statements, 2)
}

func TestParseErrorsAreReported(t *testing.T) {
	_, errors := ParseString("let = 3", "test.an")
	assert.NotEmpty(t, errors)
}
