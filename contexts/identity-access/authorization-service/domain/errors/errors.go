package errors

import "errors"

var (
	ErrInvalidInput = errors.New("authorization input is invalid")
	ErrForbidden    = errors.New("forbidden")
)
