// Package common defines shared constants and sentinel errors used across
// the client layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrNotFound         = errors.New("not found")
	ErrUnknownPartition = errors.New("unknown partition")

	// Gateway-level errors.
	ErrNotInitialized = errors.New("github client not initialized")
	ErrUnauthorized   = errors.New("unauthorized")
)
