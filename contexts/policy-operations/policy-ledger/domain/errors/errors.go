package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput      = errors.New("policy input is invalid")
	ErrPolicyNotFound    = errors.New("policy not found")
	ErrPlanNotIssuable   = errors.New("plan cannot back new policies")
	ErrInvalidTransition = errors.New("invalid policy status transition")
	ErrForbidden         = errors.New("not enough permissions")
	ErrVersionConflict   = errors.New("policy was modified concurrently")
)

// ErrOpenClaims refuses cancellation while claims are still being
// adjudicated. It is an invalid-transition kind, so callers matching
// ErrInvalidTransition catch it too.
var ErrOpenClaims = fmt.Errorf("%w: policy has claims awaiting resolution", ErrInvalidTransition)
