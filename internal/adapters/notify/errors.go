package notify

import "errors"

// Sentinel kinds for broker errors.
var (
	ErrBrokerClosed = errors.New("broker closed")
	ErrBufferFull   = errors.New("notice buffer full")
)
