// Package errors provides unified error handling for injectkit.
// It implements a structured error type with machine-readable codes,
// contextual details, and cause chaining compatible with the standard
// errors.Is / errors.As helpers.
package errors
