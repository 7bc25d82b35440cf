package domain

import "errors"

// Pipeline failure kinds. Each stage wraps one of these so callers can
// classify a failed run without parsing messages.
var (
	ErrConnection   = errors.New("connection failure")
	ErrQuery        = errors.New("query failure")
	ErrSubprocess   = errors.New("subprocess failure")
	ErrVerification = errors.New("verification failure")
	ErrUpload       = errors.New("upload failure")
	ErrCleanup      = errors.New("cleanup failure")
)
