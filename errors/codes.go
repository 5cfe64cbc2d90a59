package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Plan build errors
const (
	// ErrCodeInvalidMember indicates a member marked for injection violates a structural rule.
	ErrCodeInvalidMember ErrorCode = "INVALID_MEMBER"
	// ErrCodeUnresolvedDependency indicates the binding graph has no provider for a key.
	ErrCodeUnresolvedDependency ErrorCode = "UNRESOLVED_DEPENDENCY"
	// ErrCodeInvalidTarget indicates the requested target type cannot be injected.
	ErrCodeInvalidTarget ErrorCode = "INVALID_TARGET"
)

// Injection errors
const (
	// ErrCodeContractViolation indicates a plan was applied in a way it was not built for.
	ErrCodeContractViolation ErrorCode = "CONTRACT_VIOLATION"
)

// Graph errors
const (
	// ErrCodeConstructorFailed indicates a registered constructor returned an error.
	ErrCodeConstructorFailed ErrorCode = "CONSTRUCTOR_FAILED"
	// ErrCodeAlreadyRegistered indicates a key was registered twice.
	ErrCodeAlreadyRegistered ErrorCode = "ALREADY_REGISTERED"
)

// Configuration errors
const (
	// ErrCodeInvalidConfig indicates configuration failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeConstructorFailed: true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
// Plan build failures describe malformed types and are never retryable.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
