package errors

import "errors"

var (
	ErrInvalidInput       = errors.New("claim input is invalid")
	ErrClaimNotFound      = errors.New("claim not found")
	ErrPolicyNotCoverable = errors.New("policy does not cover new claims")
	ErrInvalidTransition  = errors.New("invalid claim status transition")
	ErrCoverageExceeded   = errors.New("claim amount exceeds remaining coverage")
	ErrReasonRequired     = errors.New("denial reason is required")
	ErrForbidden          = errors.New("not enough permissions")
	ErrVersionConflict    = errors.New("claim was modified concurrently")
)
