package confirm

import "errors"

// Sentinel kinds for confirmation session errors.
var (
	ErrSessionClosed = errors.New("session closed")
)
