package errors

import (
	"strings"
	"testing"

	"github.com/mgdickerson/cRust-sub000/internal/ast"
	"github.com/stretchr/testify/assert"
)

func TestErrorReporter(t *testing.T) {
	source := `main var x;
{
    let x <- unknownVar
}.`

	reporter := NewErrorReporter("test.dlx", source)

	err := UndefinedVariable("unknownVar", ast.Position{Line: 3, Column: 14}, []string{"knownVar", "anotherVar"})
	formatted := reporter.FormatError(err)

	assert.Contains(t, formatted, "error["+ErrorUndefinedVariable+"]")
	assert.Contains(t, formatted, "undefined variable")
	assert.Contains(t, formatted, "unknownVar")
	assert.Contains(t, formatted, "test.dlx:3:14")
	assert.Contains(t, formatted, "did you mean")
	assert.Contains(t, formatted, "knownVar")
}

func TestUndefinedVariableError(t *testing.T) {
	pos := ast.Position{Line: 1, Column: 5}

	err := UndefinedVariable("balace", pos, []string{"balance"})
	assert.Equal(t, ErrorUndefinedVariable, err.Code)
	assert.Contains(t, err.Message, "balace")
	assert.Len(t, err.Suggestions, 1)
	assert.Contains(t, err.Suggestions[0].Message, "did you mean 'balance'")

	err = UndefinedVariable("xyz", pos, []string{})
	assert.Len(t, err.Suggestions, 1)
	assert.Contains(t, err.Suggestions[0].Message, "declare it with 'var'")
}

func TestUndefinedFunctionError(t *testing.T) {
	pos := ast.Position{Line: 1, Column: 5}

	err := UndefinedFunction("fact0rial", pos, []string{"factorial"})
	assert.Equal(t, ErrorUndefinedFunction, err.Code)
	assert.Contains(t, err.Message, "fact0rial")
	assert.Len(t, err.Suggestions, 1)
	assert.Contains(t, err.Suggestions[0].Message, "did you mean 'factorial'")
}

func TestDuplicateDeclarationError(t *testing.T) {
	pos := ast.Position{Line: 2, Column: 9}

	err := DuplicateDeclaration("i", pos)
	assert.Equal(t, ErrorDuplicateDeclaration, err.Code)
	assert.Contains(t, err.Message, "'i' is already declared")
}

func TestArityMismatchError(t *testing.T) {
	pos := ast.Position{Line: 1, Column: 5}

	err := ArityMismatch("add", 2, 1, pos)
	assert.Equal(t, ErrorArityMismatch, err.Code)
	assert.Contains(t, err.Message, "expects 2 argument(s), got 1")
}

func TestArrayScalarMismatchError(t *testing.T) {
	pos := ast.Position{Line: 1, Column: 1}

	err := ArrayScalarMismatch("arr", true, pos)
	assert.Equal(t, ErrorArrayScalarMismatch, err.Code)
	assert.Contains(t, err.Message, "must be indexed")

	err = ArrayScalarMismatch("x", false, pos)
	assert.Contains(t, err.Message, "cannot be indexed")
}

func TestWarningFormatting(t *testing.T) {
	source := `var unused;`
	reporter := NewErrorReporter("test.dlx", source)

	err := UnusedVariable("unused", ast.Position{Line: 1, Column: 5})
	formatted := reporter.FormatError(err)

	assert.Contains(t, formatted, "warning[W0001]")
	assert.Contains(t, formatted, "never used")
}

func TestErrorMarkerCreation(t *testing.T) {
	source := `let variable <- value`
	reporter := NewErrorReporter("test.dlx", source)

	marker := reporter.createMarker(5, 8, Error) // "variable" is 8 chars at column 5

	spaces := strings.Count(marker, " ")
	assert.Equal(t, 4, spaces)
	carets := strings.Count(marker, "^")
	assert.Equal(t, 8, carets)
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, levenshteinDistance("hello", "hello"))
	assert.Equal(t, 1, levenshteinDistance("hello", "hallo"))
	assert.Equal(t, 1, levenshteinDistance("hello", "helo"))
	assert.Equal(t, 5, levenshteinDistance("hello", ""))
	assert.Equal(t, 3, levenshteinDistance("kitten", "sitting"))
}

func TestSimilarNameFinding(t *testing.T) {
	candidates := []string{"balance", "amount", "total", "balanceOf", "xyz"}

	similar := findSimilarNames("balace", candidates)
	assert.Contains(t, similar, "balance")
	assert.NotContains(t, similar, "xyz")

	similar = findSimilarNames("verydifferent", candidates)
	assert.Empty(t, similar)
}

func TestErrorLevels(t *testing.T) {
	source := `test`
	reporter := NewErrorReporter("test.dlx", source)
	pos := ast.Position{Line: 1, Column: 1}

	errorErr := CompilerError{Level: Error, Message: "test error", Position: pos}
	warningErr := CompilerError{Level: Warning, Message: "test warning", Position: pos}

	errorFormatted := reporter.FormatError(errorErr)
	warningFormatted := reporter.FormatError(warningErr)

	assert.Contains(t, errorFormatted, "error:")
	assert.Contains(t, warningFormatted, "warning:")
}
