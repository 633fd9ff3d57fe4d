package errors

import (
	"fmt"
	"strings"

	"github.com/mgdickerson/cRust-sub000/internal/ast"
)

// SemanticErrorBuilder provides a fluent interface for creating semantic errors with suggestions
type SemanticErrorBuilder struct {
	err CompilerError
}

// NewSemanticError creates a new semantic error builder
func NewSemanticError(code, message string, pos ast.Position) *SemanticErrorBuilder {
	return &SemanticErrorBuilder{
		err: CompilerError{
			Level:    Error,
			Code:     code,
			Message:  message,
			Position: pos,
			Length:   1,
		},
	}
}

// NewSemanticWarning creates a new semantic warning builder
func NewSemanticWarning(code, message string, pos ast.Position) *SemanticErrorBuilder {
	return &SemanticErrorBuilder{
		err: CompilerError{
			Level:    Warning,
			Code:     code,
			Message:  message,
			Position: pos,
			Length:   1,
		},
	}
}

// WithLength sets the length of the error span
func (b *SemanticErrorBuilder) WithLength(length int) *SemanticErrorBuilder {
	b.err.Length = length
	return b
}

// WithSuggestion adds a suggestion to the error
func (b *SemanticErrorBuilder) WithSuggestion(message string) *SemanticErrorBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{Message: message})
	return b
}

// WithNote adds a note to the error
func (b *SemanticErrorBuilder) WithNote(note string) *SemanticErrorBuilder {
	b.err.Notes = append(b.err.Notes, note)
	return b
}

// WithHelp adds help text to the error
func (b *SemanticErrorBuilder) WithHelp(help string) *SemanticErrorBuilder {
	b.err.HelpText = help
	return b
}

// Build returns the completed compiler error
func (b *SemanticErrorBuilder) Build() CompilerError {
	return b.err
}

// UndefinedVariable creates an error for a reference to an undeclared
// identifier, with a did-you-mean suggestion when a close name exists in
// the enclosing scope.
func UndefinedVariable(name string, pos ast.Position, similarNames []string) CompilerError {
	builder := NewSemanticError(ErrorUndefinedVariable, fmt.Sprintf("undefined variable '%s'", name), pos).
		WithLength(len(name))

	if len(similarNames) > 0 {
		if len(similarNames) == 1 {
			builder = builder.WithSuggestion(fmt.Sprintf("did you mean '%s'?", similarNames[0]))
		} else {
			suggestions := strings.Join(similarNames, "', '")
			builder = builder.WithSuggestion(fmt.Sprintf("did you mean one of: '%s'?", suggestions))
		}
	} else {
		builder = builder.WithSuggestion("declare it with 'var' or as a function parameter before using it")
	}

	return builder.Build()
}

// UndefinedFunction creates an error for a call to an undeclared function.
func UndefinedFunction(name string, pos ast.Position, similarNames []string) CompilerError {
	builder := NewSemanticError(ErrorUndefinedFunction, fmt.Sprintf("call to undefined function '%s'", name), pos).
		WithLength(len(name))

	if len(similarNames) > 0 {
		suggestions := strings.Join(similarNames, "', '")
		builder = builder.WithSuggestion(fmt.Sprintf("did you mean '%s'?", suggestions))
	}

	return builder.WithHelp("functions must be declared before first use; InputNum/OutputNum/OutputNewLine are always available").Build()
}

// DuplicateDeclaration creates an error for an identifier declared more
// than once in the same scope.
func DuplicateDeclaration(name string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorDuplicateDeclaration, fmt.Sprintf("'%s' is already declared in this scope", name), pos).
		WithSuggestion(fmt.Sprintf("rename one of the declarations of '%s'", name)).
		WithNote("identifiers must be unique within their enclosing scope").
		Build()
}

// ArityMismatch creates an error for a call with the wrong number of
// arguments.
func ArityMismatch(functionName string, expected, actual int, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorArityMismatch,
		fmt.Sprintf("function '%s' expects %d argument(s), got %d", functionName, expected, actual), pos).
		WithSuggestion(fmt.Sprintf("provide exactly %d argument(s)", expected)).
		Build()
}

// ArrayScalarMismatch creates an error when a scalar is used where an
// array was declared, or vice versa.
func ArrayScalarMismatch(name string, wantArray bool, pos ast.Position) CompilerError {
	if wantArray {
		return NewSemanticError(ErrorArrayScalarMismatch, fmt.Sprintf("'%s' is an array and must be indexed", name), pos).Build()
	}
	return NewSemanticError(ErrorArrayScalarMismatch, fmt.Sprintf("'%s' is a scalar and cannot be indexed", name), pos).Build()
}

// ArrayDimensionMismatch creates an error for an array access whose
// subscript count does not match the declaration.
func ArrayDimensionMismatch(name string, expected, actual int, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorArrayDimensionMismatch,
		fmt.Sprintf("'%s' has %d dimension(s), but %d subscript(s) were given", name, expected, actual), pos).
		Build()
}

// VoidInExpression creates an error for a call to a function with no
// return value used where a value is required.
func VoidInExpression(functionName string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorVoidInExpression,
		fmt.Sprintf("function '%s' does not return a value and cannot be used in an expression", functionName), pos).
		Build()
}

// UnusedVariable creates a warning for a declared-but-never-read
// variable. No pass in this repository emits it.
func UnusedVariable(name string, pos ast.Position) CompilerError {
	return NewSemanticWarning(WarningUnusedVariable, fmt.Sprintf("variable '%s' is never used", name), pos).
		WithLength(len(name)).
		Build()
}

// RegisterAllocationFailed creates an error for an interference graph
// the allocator could not color even after exhausting spill candidates
// (spec.md §4.4).
func RegisterAllocationFailed(functionName string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorRegisterAllocationFailed,
		fmt.Sprintf("could not allocate registers for function '%s'", functionName), pos).
		WithNote("every spill candidate was exhausted without producing a colorable graph").
		Build()
}

// FrameTooLarge creates an error for a globals region or function frame
// that exceeds the target's addressable memory.
func FrameTooLarge(what string, size, limit int, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorFrameTooLarge,
		fmt.Sprintf("%s is %d bytes, exceeding the %d byte limit", what, size, limit), pos).
		Build()
}

// InternalInvariant creates an internal-invariant error. Reaching this in
// a correct build indicates a compiler bug, not a user error.
func InternalInvariant(message string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorInternalInvariant, message, pos).Build()
}

// DivisionByZero creates a warning for a division whose divisor is the
// constant zero: left unfolded by the optimizer rather than treated as a
// build failure, since it only traps if that code path actually executes
// (spec.md §4.2).
func DivisionByZero(functionName string, pos ast.Position) CompilerError {
	return NewSemanticWarning(ErrorDivisionByZero,
		fmt.Sprintf("division by zero in '%s' is never folded and will trap at run time", functionName), pos).
		WithNote("the division survives into the lowered program unfolded").
		Build()
}

// InternalEncodingError creates an internal-invariant error for a DLX
// instruction word that fails its own pack(decode(word)) == word
// round-trip (spec.md §8). Reaching this indicates a bug in the encoder
// or decoder, never a user-facing condition.
func InternalEncodingError(wordIndex int) CompilerError {
	return NewSemanticError(ErrorInternalEncoding,
		fmt.Sprintf("instruction word %d failed its encode/decode round trip", wordIndex), ast.Position{}).
		Build()
}

// FindSimilarNames proposes did-you-mean candidates for an unresolved
// identifier, used by callers outside this package (e.g. the IR builder)
// that want the same suggestion heuristic for their own diagnostics.
func FindSimilarNames(target string, candidates []string) []string {
	return findSimilarNames(target, candidates)
}

func findSimilarNames(target string, candidates []string) []string {
	var similar []string

	for _, candidate := range candidates {
		if levenshteinDistance(target, candidate) <= 2 && len(candidate) > 1 {
			similar = append(similar, candidate)
		}
	}

	return similar
}

// levenshteinDistance computes the edit distance between a and b, used
// to propose did-you-mean suggestions for undefined identifiers.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
	}

	for i := 0; i <= len(a); i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}

			matrix[i][j] = min3(
				matrix[i-1][j]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j-1]+cost,
			)
		}
	}

	return matrix[len(a)][len(b)]
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
