package errors

// Error codes for the compiler.
//
// Error code ranges, following the specification's four-category
// taxonomy:
// E01xx: Structural errors (parser/grammar violations)
// E02xx: Semantic errors (name resolution, arity, redefinition)
// E03xx: Capacity errors (register pressure, frame/globals size limits)
// E09xx: Internal invariant violations (compiler bugs, never user-facing
//        in a correct build, but still rendered consistently)

const (
	// Structural (E01xx)

	// E0100: Unexpected token where a statement/expression was expected
	ErrorUnexpectedToken = "E0100"

	// E0101: Expected a specific token (e.g. missing `fi`, `od`, `)`)
	ErrorExpectedToken = "E0101"

	// E0102: Malformed relation (missing relational operator)
	ErrorMalformedRelation = "E0102"

	// E0103: Malformed declaration
	ErrorMalformedDeclaration = "E0103"

	// Semantic (E02xx)

	// E0200: Identifier used but never declared
	ErrorUndefinedVariable = "E0200"

	// E0201: Function called but never declared
	ErrorUndefinedFunction = "E0201"

	// E0202: Identifier declared more than once in the same scope
	ErrorDuplicateDeclaration = "E0202"

	// E0203: Call with the wrong number of arguments
	ErrorArityMismatch = "E0203"

	// E0204: Scalar used where an array was declared, or vice versa
	ErrorArrayScalarMismatch = "E0204"

	// E0205: Array access with the wrong number of subscripts
	ErrorArrayDimensionMismatch = "E0205"

	// E0206: Function that falls off the end without a return, used in a
	// value context
	ErrorVoidInExpression = "E0206"

	// Capacity (E03xx)

	// E0300: Interference graph has no colorable node and no spill
	// candidate remains (spec.md §4.4's "allocator failure" case)
	ErrorRegisterAllocationFailed = "E0300"

	// E0301: Globals region or a function frame exceeds the target's
	// addressable memory
	ErrorFrameTooLarge = "E0301"

	// Internal invariant (E09xx)

	// E0900: Dominance or SSA well-formedness invariant violated
	ErrorInternalInvariant = "E0900"

	// E0901: DLX encode/decode round-trip invariant violated
	ErrorInternalEncoding = "E0901"

	// Warnings
	WarningUnusedVariable = "W0001"

	// W0002: Division whose divisor the optimizer proved is the constant
	// zero, left unfolded rather than treated as a build failure
	ErrorDivisionByZero = "W0002"
)

// GetErrorDescription returns a human-readable description of the error code.
func GetErrorDescription(code string) string {
	switch code {
	case ErrorUnexpectedToken:
		return "Unexpected token"
	case ErrorExpectedToken:
		return "Expected token not found"
	case ErrorMalformedRelation:
		return "Relation is missing its comparison operator"
	case ErrorMalformedDeclaration:
		return "Declaration is malformed"
	case ErrorUndefinedVariable:
		return "Variable is used but not declared in the current scope"
	case ErrorUndefinedFunction:
		return "Function is called but never declared"
	case ErrorDuplicateDeclaration:
		return "Identifier is declared more than once"
	case ErrorArityMismatch:
		return "Call passes the wrong number of arguments"
	case ErrorArrayScalarMismatch:
		return "Array used as a scalar, or scalar used as an array"
	case ErrorArrayDimensionMismatch:
		return "Array access has the wrong number of subscripts"
	case ErrorVoidInExpression:
		return "Function without a return value used in an expression"
	case ErrorRegisterAllocationFailed:
		return "Register allocation could not find a colorable assignment"
	case ErrorFrameTooLarge:
		return "Globals region or function frame exceeds target memory"
	case ErrorInternalInvariant:
		return "Internal compiler invariant violated"
	case ErrorInternalEncoding:
		return "DLX instruction encoding round-trip failed"
	case WarningUnusedVariable:
		return "Variable is declared but never used"
	case ErrorDivisionByZero:
		return "Division by the constant zero survives unfolded"
	default:
		return "Unknown error code"
	}
}

// IsWarning returns true if the error code represents a warning rather
// than an error.
func IsWarning(code string) bool {
	return len(code) > 0 && code[0] == 'W'
}

// GetErrorCategory returns the taxonomy category of the error based on
// its code.
func GetErrorCategory(code string) string {
	switch {
	case code >= "E0100" && code < "E0200":
		return "Structural"
	case code >= "E0200" && code < "E0300":
		return "Semantic"
	case code >= "E0300" && code < "E0400":
		return "Capacity"
	case code >= "E0900" && code < "E1000":
		return "Internal"
	case len(code) > 0 && code[0] == 'W':
		return "Warning"
	default:
		return "Unknown"
	}
}
