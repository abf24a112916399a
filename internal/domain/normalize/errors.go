package normalize

import "errors"

// Sentinel kinds for normalization errors.
var (
	ErrInvalidSlot    = errors.New("invalid slot: end must be after start")
	ErrZoneResolution = errors.New("unknown timezone")
)
