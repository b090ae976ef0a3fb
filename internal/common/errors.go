// Package common defines shared constants, sentinel errors and small byte
// helpers used across the journal core. Callers should use errors.Is to match
// the error values.
package common

import "errors"

var (
	// Store-level errors.
	ErrAlreadyExists   = errors.New("already exists")
	ErrMalformedImport = errors.New("malformed import document")

	// Environment errors (fatal at first use, never retried).
	ErrNoEntropy = errors.New("secure random source unavailable")

	// Backend errors.
	ErrUnknownBackend = errors.New("unknown storage backend")
	ErrClosed         = errors.New("storage closed")
)
