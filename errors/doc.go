// Package errors provides the error classification used across semring.
//
// Errors fall into three classes:
//
//   - Transient: temporary conditions such as a metrics registration
//     conflict during a restart; the caller may try again.
//   - Invalid: bad input, for example a negative capacity or a config that
//     fails validation. Retrying with the same input cannot succeed.
//   - Fatal: resource exhaustion. The storage requested from an allocator
//     could not be obtained and the operation was abandoned.
//
// Wrapping follows one format everywhere:
//
//	component.method: action failed: underlying error
//
// Example:
//
//	if err := buf.Reserve(n); err != nil {
//		if errors.IsFatal(err) {
//			// allocation failed, buf still holds its previous contents
//		}
//		return errors.Wrap(err, "SendBuffer", "Grow", "reserve frames")
//	}
//
// The package shadows the standard library name on purpose; import the
// standard package under an alias (stderrors) where both are needed.
package errors
