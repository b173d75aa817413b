// Package common provides shared utilities and types used across the application.
package common

import "errors"

// Common application errors.
var (
	// Storage errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Dispatch errors.
	ErrUnknownHandler = errors.New("no handler registered for suggestion type")

	// Configuration errors.
	ErrInvalidConfig = errors.New("invalid configuration")
)
