package repository

import "errors"

// Sentinel kinds for rating store errors.
var (
	ErrMissingSnapshot   = errors.New("snapshot missing")
	ErrMalformedSnapshot = errors.New("snapshot malformed")
	ErrEncodeSnapshot    = errors.New("snapshot encode failed")
)
