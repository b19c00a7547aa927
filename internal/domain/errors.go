package domain

import "errors"

// Sentinel errors shared by the service, repository and API layers.
// Callers classify with errors.Is; the HTTP layer maps ErrNotFound to 404,
// ErrDependency to 409 and ErrInvalidInput to 400.
var (
	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDependency indicates a delete was blocked by live dependents.
	ErrDependency = errors.New("entity has dependents")

	// ErrMultipleMatches indicates a single-row lookup matched more than one row.
	ErrMultipleMatches = errors.New("filter matched multiple entities")

	// ErrInvalidInput indicates the request failed validation.
	ErrInvalidInput = errors.New("invalid input")
)
