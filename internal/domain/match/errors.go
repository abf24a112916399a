package match

import "errors"

// Sentinel kinds for match errors.
var (
	ErrEmptyGroup         = errors.New("group has no members")
	ErrUnsatisfiableGroup = errors.New("group minimum exceeds membership")
)
