// Package errors provides the structured error taxonomy for the deaddrop
// mailbox protocol. It defines the failure codes both roles raise, log, or
// convert into signed error artifacts, together with categories that drive
// retry decisions at the loop boundaries.
//
// # Error Categories
//
// Errors are classified into four categories:
//
//   - Config: startup-time misconfiguration; the process must not proceed
//   - Transient: temporary failures where retry may succeed (store I/O, polling)
//   - Permanent: failures where retry will not help (bad signature, remote task error)
//   - Internal: unexpected errors indicating bugs
//
// # Error Codes
//
// Each error carries a code identifying the failure:
//
//   - CONFIGURATION: missing or invalid key material or settings
//   - BAD_SIGNATURE: payload failed signature verification
//   - COMMAND_FAILURE: external command failed or produced no output
//   - TRANSPORT: store unreachable or returned an unexpected status
//   - TIMEOUT: submission expired without a resolved result
//   - REMOTE_TASK: the task ran remotely and reported a signed error
//
// # Usage
//
// Create a new error:
//
//	err := errors.New(errors.ErrCodeTransport, "listing objects")
//
// Wrap an existing error with context:
//
//	wrapped := errors.Wrap(err, "poll cycle")
//
// Check a code anywhere in a chain:
//
//	if errors.Is(err, errors.ErrCodeTimeout) {
//	    // give up
//	}
//
// # JSON Serialization
//
// Errors marshal to JSON for structured logs:
//
//	data, err := json.Marshal(protoErr)
package errors
