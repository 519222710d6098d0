package services

import (
	"errors"
	"fmt"
)

// ErrInvalidToken is returned for every failed verification. A token that
// was never issued, a revoked token and a malformed value all yield this
// same error so the caller cannot tell the cases apart.
var ErrInvalidToken = errors.New("invalid token")

// ValidationError reports a malformed issuance input with field detail.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports a revocation of a token value that was never issued.
type NotFoundError struct {
	Token string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("token not found: %s", e.Token)
}

// StoreError wraps an underlying persistence failure. Controllers surface it
// as a generic server-side error without storage detail.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
