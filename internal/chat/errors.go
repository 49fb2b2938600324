package chat

import "errors"

// Failure taxonomy surfaced by the service. Handlers map these to HTTP
// statuses; Forbidden and NotFound collapse to the same generic denial at
// the boundary so non-members cannot probe membership.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrContentRejected = errors.New("content rejected")
	ErrConflict        = errors.New("conflict")
)
