package domain

import "errors"

var (
	// ErrNotFound covers any record that does not resolve within the
	// caller's business scope.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientStock means the requested quantity exceeds the stock
	// stored at commit time. Distinct from a store failure so callers can
	// offer "reduce quantity" instead of a generic error.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidInput marks malformed or missing caller input. Never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized means no business scope could be resolved for the caller.
	ErrUnauthorized = errors.New("unauthorized")
)
