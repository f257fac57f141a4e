package errors

// ErrorCategory classifies errors by their nature and retry semantics.
type ErrorCategory string

// Error categories define how errors should be handled.
const (
	// CategoryConfig indicates startup-time misconfiguration.
	// Examples: missing key files, identical client and server public keys.
	// The process does not proceed past a config error.
	CategoryConfig ErrorCategory = "config"

	// CategoryTransient indicates temporary failures where retry may succeed.
	// Examples: store unreachable, unexpected HTTP status, poll timeout.
	CategoryTransient ErrorCategory = "transient"

	// CategoryPermanent indicates failures where retry will not help.
	// Examples: signature verification failure, a signed remote error.
	CategoryPermanent ErrorCategory = "permanent"

	// CategoryInternal indicates unexpected errors or bugs.
	CategoryInternal ErrorCategory = "internal"
)

// String returns the string representation of the category.
func (c ErrorCategory) String() string {
	return string(c)
}

// IsRetryable returns true if errors in this category may succeed on retry.
func (c ErrorCategory) IsRetryable() bool {
	return c == CategoryTransient
}

// ErrorCode identifies specific error types within categories.
type ErrorCode string

// Error codes for the protocol's failure taxonomy.
const (
	// ErrCodeConfiguration covers missing required settings and key material
	// that fails validation or the self-test. Fatal at startup.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION"

	// ErrCodeBadSignature marks a payload whose signature did not verify.
	// Server-side it becomes a signed error artifact; client-side it is
	// fatal to the call.
	ErrCodeBadSignature ErrorCode = "BAD_SIGNATURE"

	// ErrCodeCommandFailure marks an external command that exited non-zero
	// or produced no output file. Retried locally up to the budget, then
	// escalated into a signed error artifact.
	ErrCodeCommandFailure ErrorCode = "COMMAND_FAILURE"

	// ErrCodeTransport covers store I/O failures and bad status codes.
	// Logged at the loop boundary; never propagated past one iteration.
	ErrCodeTransport ErrorCode = "TRANSPORT"

	// ErrCodeTimeout is raised client-side once a submission exceeds the
	// task expiration window without a resolved result.
	ErrCodeTimeout ErrorCode = "TIMEOUT"

	// ErrCodeRemoteTask carries the signed error text of a task that ran
	// and failed remotely. The expected failure outcome.
	ErrCodeRemoteTask ErrorCode = "REMOTE_TASK"

	// ErrCodeCanceled marks an operation canceled via context.
	ErrCodeCanceled ErrorCode = "CANCELED"

	// ErrCodeInternal marks an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	return string(c)
}

// DefaultCategory returns the default category for an error code.
func (c ErrorCode) DefaultCategory() ErrorCategory {
	switch c {
	case ErrCodeConfiguration:
		return CategoryConfig
	case ErrCodeTransport, ErrCodeTimeout, ErrCodeCommandFailure:
		return CategoryTransient
	case ErrCodeBadSignature, ErrCodeRemoteTask, ErrCodeCanceled:
		return CategoryPermanent
	default:
		return CategoryInternal
	}
}

// DefaultRetryable returns whether this error code is typically retryable.
func (c ErrorCode) DefaultRetryable() bool {
	return c.DefaultCategory().IsRetryable()
}

// codeDescriptions provides human-readable descriptions for error codes.
var codeDescriptions = map[ErrorCode]string{
	ErrCodeConfiguration:  "invalid configuration",
	ErrCodeBadSignature:   "signature verification failed",
	ErrCodeCommandFailure: "command execution failed",
	ErrCodeTransport:      "store transport error",
	ErrCodeTimeout:        "task expired without a result",
	ErrCodeRemoteTask:     "task failed remotely",
	ErrCodeCanceled:       "operation canceled",
	ErrCodeInternal:       "internal error",
}

// Description returns a human-readable description for the error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}
