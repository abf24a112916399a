package repository

import "errors"

// Sentinel kinds for directory errors.
var (
	ErrGroupNotFound  = errors.New("group not found")
	ErrMemberNotFound = errors.New("member schedule not found")
)
