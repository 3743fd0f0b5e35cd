// Package errs defines the typed errors shared by mesboard packages.
//
// An *Error carries a Kind, the operation that failed, a message and an
// optional cause. errors.Is matches by Kind against the exported sentinels,
// so callers write
//
//	if errors.Is(err, errs.ErrValidation) { ... }
//
// without caring which package produced the error. Unwrap exposes the cause.
//
// Kinds fall in two groups. InvalidStateTransition and Validation reject an
// operation synchronously. Parse and Connection are recorded as observable
// state by the stream client and never abort it.
package errs
