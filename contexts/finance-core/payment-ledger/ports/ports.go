package ports

import (
	"context"
	"time"

	contractsv1 "acphealth/contracts/gen/events/v1"
	"acphealth/contexts/finance-core/payment-ledger/domain/entities"
)

type Actor struct {
	UserID string
	Role   string
}

type RecordPaymentInput struct {
	PolicyID    string
	ClaimID     string
	Amount      float64
	Method      string
	Description string
}

type PaymentFilter struct {
	PolicyID string
	ClaimID  string
	PayerID  string
	Kind     entities.PaymentKind
	Limit    int
	Offset   int
}

// RevenueSummary nets collected premiums against claim payouts.
type RevenueSummary struct {
	PremiumsCollected float64
	ClaimsPaidOut     float64
	Net               float64
	PaymentCount      int
}

// PolicyView is the slice of a policy the ledger needs to accept a premium:
// who owns it, whether it still accepts payment, and how much is owed.
type PolicyView struct {
	PolicyID         string
	CustomerID       string
	AcceptsPremiums  bool
	PremiumDueToDate float64
}

// ClaimView is the slice of a claim the ledger needs to pay it out.
type ClaimView struct {
	ClaimID        string
	PolicyID       string
	CustomerID     string
	Approved       bool
	AlreadyPaid    bool
	AmountApproved float64
}

type Repository interface {
	CreatePayment(ctx context.Context, payment entities.Payment) error
	GetPayment(ctx context.Context, paymentID string) (entities.Payment, error)
	ListPayments(ctx context.Context, filter PaymentFilter) ([]entities.Payment, error)
	SumPremiumsByPolicy(ctx context.Context, policyID string) (float64, error)
	SumPayoutsByClaim(ctx context.Context, claimID string) (float64, error)
	BuildRevenueSummary(ctx context.Context) (RevenueSummary, error)
}

// PolicyLedger is the premium side of the house: resolve what is owed and
// activate a pending policy on its first premium.
type PolicyLedger interface {
	GetPolicyView(ctx context.Context, policyID string) (PolicyView, error)
	ActivateOnFirstPremium(ctx context.Context, policyID string) error
}

// ClaimsLedger is the payout side: resolve the approved amount and settle
// the claim once money moves.
type ClaimsLedger interface {
	GetClaimView(ctx context.Context, claimID string) (ClaimView, error)
	MarkPaid(ctx context.Context, claimID string) error
}

type IdempotencyRecord struct {
	Key             string
	RequestHash     string
	ResponsePayload []byte
	ExpiresAt       time.Time
}

type IdempotencyStore interface {
	GetRecord(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	PutRecord(ctx context.Context, record IdempotencyRecord) error
}

type Authorizer interface {
	Authorize(ctx context.Context, actor Actor, action string, resourceType string, resourceOwnerID string) (bool, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
	NewNumber(ctx context.Context, prefix string) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
