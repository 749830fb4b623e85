// Package errors provides structured error types for capspace.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). Failures reported by the kernel also carry Details, a closed sum
// type mirroring the kernel's error taxonomy; FailedLookup nests a second sum
// type, LookupFailure, describing where address resolution stopped.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseInvoke, errors.KindRangeError).
//		Op("untyped.retype").
//		Details(errors.RangeError{Min: 1, Max: 256}).
//		Build()
//
// Or build straight from decoded details:
//
//	err := errors.FromDetails(errors.PhaseInvoke, "cnode.copy", details)
//
// All errors implement the standard error interface and support errors.Is/As.
// DetailsOf extracts the kernel details from any wrapped chain.
package errors
