// Package common provides shared utilities and types used across the application.
package common

import "errors"

// Common application errors.
var (
	// Backend errors.
	ErrNotFound       = errors.New("not found")
	ErrMissingPayeeID = errors.New("payee_id is required for payee rules")

	// Model-response errors.
	ErrNoJSONArray  = errors.New("no JSON array found in response")
	ErrNotJSONArray = errors.New("response is not a JSON array")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)
