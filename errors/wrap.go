package errors

import (
	"context"
	"errors"
	"fmt"
)

// Wrap wraps an error with additional context while preserving the error chain.
// If err is nil, Wrap returns nil.
// If err is already a ProtocolError, its code and category are preserved.
// Otherwise a new Internal error wraps the original; context deadline and
// cancellation errors map to their protocol codes.
func Wrap(err error, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}

	var protoErr *Error
	if errors.As(err, &protoErr) {
		wrapped := &Error{
			code:      protoErr.code,
			category:  protoErr.category,
			message:   message,
			cause:     err,
			metadata:  protoErr.Metadata(),
			retryable: protoErr.retryable,
			taskID:    protoErr.taskID,
		}
		for _, opt := range opts {
			opt(wrapped)
		}
		return wrapped
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return New(ErrCodeTimeout, message, append(opts, WithCause(err))...)
	}
	if errors.Is(err, context.Canceled) {
		return New(ErrCodeCanceled, message, append(opts, WithCause(err))...)
	}

	return New(ErrCodeInternal, message, append(opts, WithCause(err))...)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WrapWithCode wraps an error with a specific error code.
func WrapWithCode(err error, code ErrorCode, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}
	opts = append(opts, WithCause(err))
	return New(code, message, opts...)
}

// AsProtocolError attempts to extract a ProtocolError from an error chain.
// Returns nil if none is found.
func AsProtocolError(err error) ProtocolError {
	var protoErr *Error
	if errors.As(err, &protoErr) {
		return protoErr
	}
	return nil
}

// Is checks if any error in the chain has the given error code.
func Is(err error, code ErrorCode) bool {
	var protoErr *Error
	if errors.As(err, &protoErr) {
		return protoErr.code == code
	}
	return false
}

// IsCategory checks if any error in the chain has the given category.
func IsCategory(err error, category ErrorCategory) bool {
	var protoErr *Error
	if errors.As(err, &protoErr) {
		return protoErr.category == category
	}
	return false
}

// IsRetryable checks if the error is retryable.
// Non-protocol errors default to not retryable.
func IsRetryable(err error) bool {
	var protoErr *Error
	if errors.As(err, &protoErr) {
		return protoErr.Retryable()
	}
	return false
}

// IsConfiguration checks for a startup configuration error.
func IsConfiguration(err error) bool {
	return Is(err, ErrCodeConfiguration)
}

// IsBadSignature checks for a signature verification failure.
func IsBadSignature(err error) bool {
	return Is(err, ErrCodeBadSignature)
}

// IsTransport checks for a store transport failure.
func IsTransport(err error) bool {
	return Is(err, ErrCodeTransport)
}

// IsTimeout checks for a client-side expiration.
func IsTimeout(err error) bool {
	return Is(err, ErrCodeTimeout)
}

// IsRemoteTask checks for a signed remote task failure.
func IsRemoteTask(err error) bool {
	return Is(err, ErrCodeRemoteTask)
}

// Code extracts the error code from an error, if available.
// Returns empty string if err is not a ProtocolError.
func Code(err error) ErrorCode {
	var protoErr *Error
	if errors.As(err, &protoErr) {
		return protoErr.code
	}
	return ""
}

// Category extracts the error category from an error, if available.
// Returns empty string if err is not a ProtocolError.
func Category(err error) ErrorCategory {
	var protoErr *Error
	if errors.As(err, &protoErr) {
		return protoErr.category
	}
	return ""
}

// RemoteText extracts the signed remote error text from a REMOTE_TASK error.
// Returns empty string for any other error.
func RemoteText(err error) string {
	var protoErr *Error
	if errors.As(err, &protoErr) && protoErr.code == ErrCodeRemoteTask {
		return protoErr.message
	}
	return ""
}

// Cause returns the root cause of the error chain.
func Cause(err error) error {
	for {
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return err
		}
		inner := unwrapper.Unwrap()
		if inner == nil {
			return err
		}
		err = inner
	}
}
