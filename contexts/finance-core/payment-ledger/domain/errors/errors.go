package errors

import "errors"

var (
	ErrInvalidInput          = errors.New("payment input is invalid")
	ErrIdempotencyKeyMissing = errors.New("idempotency key is required")
	ErrIdempotencyConflict   = errors.New("idempotency key reused with a different payload")
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrPolicyNotPayable      = errors.New("policy does not accept premium payments")
	ErrClaimNotPayable       = errors.New("claim is not approved for payout")
	ErrOverpayment           = errors.New("payment exceeds the amount owed")
	ErrForbidden             = errors.New("not enough permissions")
)
