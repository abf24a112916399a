package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNoGroups     = errors.New("at least one group id is required")
	ErrNoCandidates = errors.New("no candidates to confirm")
	ErrNotStarted   = errors.New("service not started")
)
