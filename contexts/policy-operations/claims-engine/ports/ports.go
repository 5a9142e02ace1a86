package ports

import (
	"context"
	"time"

	contractsv1 "acphealth/contracts/gen/events/v1"
	"acphealth/contexts/policy-operations/claims-engine/domain/entities"
)

type Actor struct {
	UserID string
	Role   string
}

type FileClaimInput struct {
	PolicyID      string
	ProviderName  string
	ServiceDate   time.Time
	DiagnosisCode string
	ProcedureCode string
	Description   string
	Amount        float64
}

type ClaimFilter struct {
	PolicyID   string
	CustomerID string
	Status     entities.ClaimStatus
	Limit      int
	Offset     int
}

// ClaimsSummary aggregates the book of claims for reporting.
type ClaimsSummary struct {
	TotalClaims    int
	ByStatus       map[entities.ClaimStatus]int
	TotalRequested float64
	TotalApproved  float64
}

// PolicyView is the slice of a policy the claims engine needs: who owns it,
// whether it covers new claims, and how much coverage it carries.
type PolicyView struct {
	PolicyID      string
	CustomerID    string
	Active        bool
	CoverageLimit float64
}

type Repository interface {
	CreateClaim(ctx context.Context, claim entities.Claim) error
	GetClaim(ctx context.Context, claimID string) (entities.Claim, error)
	ListClaims(ctx context.Context, filter ClaimFilter) ([]entities.Claim, error)
	// UpdateClaim persists the claim only when the stored version still
	// matches expectedVersion.
	UpdateClaim(ctx context.Context, claim entities.Claim, expectedVersion int64) error
	// SumApprovedByPolicy totals approved amounts for approved and paid
	// claims on a policy.
	SumApprovedByPolicy(ctx context.Context, policyID string) (float64, error)
	HasOpenClaims(ctx context.Context, policyID string) (bool, error)
	BuildClaimsSummary(ctx context.Context, customerID string) (ClaimsSummary, error)
}

// PolicyReader resolves the covering policy from the policy ledger.
type PolicyReader interface {
	GetPolicyView(ctx context.Context, policyID string) (PolicyView, error)
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
