package errors

import "errors"

var (
	ErrInvalidInput      = errors.New("plan input is invalid")
	ErrPlanNotFound      = errors.New("plan not found")
	ErrInvalidTransition = errors.New("invalid plan status transition")
	ErrPlanNotActive     = errors.New("plan is not active")
	ErrForbidden         = errors.New("not enough permissions")
	ErrVersionConflict   = errors.New("plan was modified concurrently")
)
