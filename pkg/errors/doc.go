// Package errors provides the structured error type used across bindkit.
//
// Each error has a code (e.g., "B001") that maps to a registered template
// carrying its kind, a short message and a longer explanation:
//
//	err := errors.New(errors.CodeUnregisteredHandler).
//		WithDetail(`binding handler "tooltip" has not been registered`).
//		WithSuggestion("Register the handler before calling ApplyBindings")
//
// Kinds classify errors for the exception channel and for metrics; use KindOf
// to classify an arbitrary error chain.
package errors
