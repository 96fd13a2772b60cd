package domain

import "errors"

// Error kinds shared by every bounded context. Context-specific sentinels
// wrap one of these so callers can match on the kind with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrMalformedRecord    = errors.New("malformed record")
)
