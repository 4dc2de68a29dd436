package persistence

import "errors"

// Sentinel kinds for persistence errors.
var (
	ErrGatewayClosed = errors.New("persistence gateway closed")
)
