package errors

import "errors"

var (
	ErrInvalidInput       = errors.New("user input is invalid")
	ErrInvalidRole        = errors.New("role is not recognized")
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateIdentity  = errors.New("email or username already registered")
	ErrBadCredentials     = errors.New("incorrect username or password")
	ErrUserInactive       = errors.New("user is deactivated")
	ErrForbidden          = errors.New("not enough permissions")
	ErrRelationshipExists = errors.New("provider relationship already active")
	ErrRelationshipGone   = errors.New("provider relationship not found")
)
