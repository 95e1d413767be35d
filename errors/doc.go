// Package errors provides structured error types for the device bridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The bridge distinguishes four recoverable kinds and one fatal kind:
//
//	KindConfiguration     a required native function is absent
//	KindArgument          input rejected before any native call was issued
//	KindNative            the host returned a member of its closed error set
//	KindProtocolViolation the host returned null where it must not
//	KindFatal             teardown failed or the supervisor caught a panic
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseRequest, errors.KindNative).
//		Op("http.get").
//		Code(-8, "NET_READ_TIMEOUT").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.MissingFunction(errors.PhaseRequest, "http.get")
//	err := errors.EmbeddedNul(errors.PhaseRequest, "http.get", "path", 3)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
