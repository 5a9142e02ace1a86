package entities

import (
	"strings"
	"time"
)

type PaymentKind string
type PaymentMethod string

const (
	KindPremium     PaymentKind = "premium"
	KindClaimPayout PaymentKind = "claim_payout"

	MethodCard     PaymentMethod = "card"
	MethodBank     PaymentMethod = "bank_transfer"
	MethodCheck    PaymentMethod = "check"
	MethodInternal PaymentMethod = "internal"
)

// Payment is an immutable ledger entry. Premiums reference only a policy;
// claim payouts reference the claim plus its covering policy.
type Payment struct {
	PaymentID   string
	Reference   string
	Kind        PaymentKind
	PolicyID    string
	ClaimID     string
	PayerID     string
	PayerRole   string
	Amount      float64
	Method      PaymentMethod
	Description string
	RecordedAt  time.Time
	CreatedAt   time.Time
}

func ParseMethod(raw string) (PaymentMethod, bool) {
	switch PaymentMethod(strings.ToLower(strings.TrimSpace(raw))) {
	case MethodCard:
		return MethodCard, true
	case MethodBank:
		return MethodBank, true
	case MethodCheck:
		return MethodCheck, true
	case MethodInternal:
		return MethodInternal, true
	default:
		return "", false
	}
}
