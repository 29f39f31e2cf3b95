package docsession

import "errors"

// Errors
var (
	ErrInvalidTransition = errors.New("transition not allowed from current mode")
	ErrSessionClosed     = errors.New("session is closed")
	ErrRejected          = errors.New("remote rejected the write")
	ErrUnknownStatus     = errors.New("status not in the configured set")
	ErrNoGateway         = errors.New("gateway is not set")
	ErrNoBus             = errors.New("event bus is not set")
)
