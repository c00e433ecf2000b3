package cache

import (
	"fmt"
	"strings"

	"github.com/JohnathanFL/ante/internal/token"
)

// DiagnosticKind classifies diagnostics pushed into the cache.
type DiagnosticKind int

const (
	DiagParserExpected DiagnosticKind = iota
	DiagLexerError
	DiagNameError
	DiagTypeError
	DiagPatternIsNotIrrefutable
	DiagInvalidSyntaxInIrrefutablePattern
	DiagMutRefToImmutableVariable
	DiagMutRefToTemporary
	DiagFunctionParameterCountMismatch
	DiagFunctionTypeMismatch
	DiagTypeLengthMismatch
	DiagUnhandledEffectsInMain
	DiagUnresolvedTraitConstraint
	DiagMissingMatchCase
)

// TypeErrorCode is the sub-kind of a type error, chosen by the caller of
// unify so one mechanism can emit contextual messages.
type TypeErrorCode int

const (
	ErrNeverShown TypeErrorCode = iota
	ErrNonBoolInCondition
	ErrIfBranchMismatch
	ErrMatchPatternTypeDiffers
	ErrMatchReturnTypeDiffers
	ErrCalledValueIsNotAFunction
	ErrArgumentTypeMismatch
	ErrFunctionBodyDoesNotMatchReturnType
	ErrDoesNotMatchAnnotatedType
	ErrNoFieldOfType
	ErrExpectedMutable
	ErrHandleBranchMismatch
	ErrResumeEnvironmentMismatch
	ErrResumeEffectsMismatch
	ErrAssignToNonMutRef
	ErrAssignToWrongType
	ErrExpectedUnitTypeFromPattern
	ErrExpectedPairTypeFromPattern
	ErrPatternTypeDoesNotMatchAnnotatedType
	ErrVariableDoesNotMatchDeclaredType
)

// TypeErrorKind is a type-error sub-kind plus any payload it carries
// (currently only the field name of a failed member access).
type TypeErrorKind struct {
	Code  TypeErrorCode
	Field string
}

// Common type-error kinds.
var (
	NeverShown                        = TypeErrorKind{Code: ErrNeverShown}
	NonBoolInCondition                = TypeErrorKind{Code: ErrNonBoolInCondition}
	IfBranchMismatch                  = TypeErrorKind{Code: ErrIfBranchMismatch}
	MatchPatternTypeDiffers           = TypeErrorKind{Code: ErrMatchPatternTypeDiffers}
	MatchReturnTypeDiffers            = TypeErrorKind{Code: ErrMatchReturnTypeDiffers}
	CalledValueIsNotAFunction         = TypeErrorKind{Code: ErrCalledValueIsNotAFunction}
	ArgumentTypeMismatch              = TypeErrorKind{Code: ErrArgumentTypeMismatch}
	FunctionBodyDoesNotMatchReturn    = TypeErrorKind{Code: ErrFunctionBodyDoesNotMatchReturnType}
	DoesNotMatchAnnotatedType         = TypeErrorKind{Code: ErrDoesNotMatchAnnotatedType}
	ExpectedMutable                   = TypeErrorKind{Code: ErrExpectedMutable}
	HandleBranchMismatch              = TypeErrorKind{Code: ErrHandleBranchMismatch}
	ResumeEnvironmentMismatch         = TypeErrorKind{Code: ErrResumeEnvironmentMismatch}
	ResumeEffectsMismatch             = TypeErrorKind{Code: ErrResumeEffectsMismatch}
	AssignToNonMutRef                 = TypeErrorKind{Code: ErrAssignToNonMutRef}
	AssignToWrongType                 = TypeErrorKind{Code: ErrAssignToWrongType}
	ExpectedUnitTypeFromPattern       = TypeErrorKind{Code: ErrExpectedUnitTypeFromPattern}
	ExpectedPairTypeFromPattern       = TypeErrorKind{Code: ErrExpectedPairTypeFromPattern}
	PatternTypeDoesNotMatchAnnotated  = TypeErrorKind{Code: ErrPatternTypeDoesNotMatchAnnotatedType}
	VariableDoesNotMatchDeclaredType  = TypeErrorKind{Code: ErrVariableDoesNotMatchDeclaredType}
)

// NoFieldOfType is the kind for a failed member access.
func NoFieldOfType(field string) TypeErrorKind {
	return TypeErrorKind{Code: ErrNoFieldOfType, Field: field}
}

var typeErrorMessages = map[TypeErrorCode]string{
	ErrNonBoolInCondition:                   "expected a Bool condition but found %s",
	ErrIfBranchMismatch:                     "if branches differ: then branch has type %s but else branch has type %s",
	ErrMatchPatternTypeDiffers:              "match pattern has type %s but the value matched on has type %s",
	ErrMatchReturnTypeDiffers:               "match branch has type %s but the previous branches have type %s",
	ErrCalledValueIsNotAFunction:            "expected a function of type %s but the called value has type %s",
	ErrArgumentTypeMismatch:                 "expected an argument of type %s but found %s",
	ErrFunctionBodyDoesNotMatchReturnType:   "function body has type %s but its return type is declared as %s",
	ErrDoesNotMatchAnnotatedType:            "expression of type %s does not match its annotated type %s",
	ErrExpectedMutable:                      "expected a mutable reference but found %s (expected %s)",
	ErrHandleBranchMismatch:                 "handle branch has type %s but the handled expression has type %s",
	ErrResumeEnvironmentMismatch:            "resume environment %s does not match %s",
	ErrResumeEffectsMismatch:                "resume effects %s do not match %s",
	ErrAssignToNonMutRef:                    "cannot assign: %s is not a mutable reference (expected %s)",
	ErrAssignToWrongType:                    "cannot assign a value of type %s where %s is expected",
	ErrExpectedUnitTypeFromPattern:          "pattern has type %s but Unit was expected (%s)",
	ErrExpectedPairTypeFromPattern:          "pattern has type %s but a pair type %s was expected",
	ErrPatternTypeDoesNotMatchAnnotatedType: "pattern of type %s does not match its annotated type %s",
	ErrVariableDoesNotMatchDeclaredType:     "variable of type %s does not match its previously declared type %s",
}

// Diagnostic is one reported problem. For Kind == DiagTypeError, Error holds
// the sub-kind and Args holds the printed actual and expected types. Other
// kinds document their Args in Message.
type Diagnostic struct {
	Pos   token.Pos
	Kind  DiagnosticKind
	Error TypeErrorKind
	Args  []any
}

// TypeError builds a type-error diagnostic from a sub-kind and the printed
// actual/expected types.
func TypeError(pos token.Pos, kind TypeErrorKind, actual, expected string) Diagnostic {
	return Diagnostic{Pos: pos, Kind: DiagTypeError, Error: kind, Args: []any{actual, expected}}
}

// Message renders the diagnostic's message without position information.
func (d Diagnostic) Message() string {
	switch d.Kind {
	case DiagParserExpected, DiagLexerError:
		return fmt.Sprintf("%v", d.Args[0])
	case DiagNameError:
		return fmt.Sprintf("%v is not defined", d.Args[0])
	case DiagTypeError:
		if d.Error.Code == ErrNoFieldOfType {
			return fmt.Sprintf("%v has no field %q of type %v", d.Args[0], d.Error.Field, d.Args[1])
		}
		format, ok := typeErrorMessages[d.Error.Code]
		if !ok {
			return fmt.Sprintf("type %v does not match type %v", d.Args[0], d.Args[1])
		}
		return fmt.Sprintf(format, d.Args...)
	case DiagPatternIsNotIrrefutable:
		return "this pattern is refutable and cannot be used in a definition"
	case DiagInvalidSyntaxInIrrefutablePattern:
		return "invalid syntax in irrefutable pattern"
	case DiagMutRefToImmutableVariable:
		return fmt.Sprintf("cannot mutate %v: it is not declared mutable", d.Args[0])
	case DiagMutRefToTemporary:
		return "cannot take a mutable reference to a temporary value"
	case DiagFunctionParameterCountMismatch:
		return fmt.Sprintf("function of type %v expects %v parameter(s) but %v argument(s) were given",
			d.Args[0], d.Args[2], d.Args[1])
	case DiagFunctionTypeMismatch:
		return fmt.Sprintf("function of type %v does not match the expected type %v", d.Args[0], d.Args[1])
	case DiagTypeLengthMismatch:
		return fmt.Sprintf("expected %v type(s) but found %v", join(d.Args[1]), join(d.Args[0]))
	case DiagUnhandledEffectsInMain:
		return fmt.Sprintf("unhandled effects at the top level: %v", d.Args[0])
	case DiagUnresolvedTraitConstraint:
		return fmt.Sprintf("no impl found for %v", d.Args[0])
	case DiagMissingMatchCase:
		return fmt.Sprintf("match is missing a case for %v", d.Args[0])
	default:
		return "unknown diagnostic"
	}
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Pos, d.Message())
}

func join(arg any) string {
	if parts, ok := arg.([]string); ok {
		return strings.Join(parts, ", ")
	}
	return fmt.Sprintf("%v", arg)
}
