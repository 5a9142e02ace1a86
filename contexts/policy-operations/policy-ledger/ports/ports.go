package ports

import (
	"context"
	"time"

	contractsv1 "acphealth/contracts/gen/events/v1"
	"acphealth/contexts/policy-operations/policy-ledger/domain/entities"
)

type Actor struct {
	UserID string
	Role   string
}

type IssuePolicyInput struct {
	PlanID           string
	CustomerID       string
	PaymentFrequency string
	EffectiveDate    time.Time
	Beneficiaries    []entities.Beneficiary
}

type PolicyFilter struct {
	CustomerID string
	Status     entities.PolicyStatus
	Limit      int
	Offset     int
}

// PlanTerms is the catalog's answer to a snapshot request. The ledger keeps
// its own copy of the terms so later plan edits cannot reach issued policies.
type PlanTerms struct {
	PlanID string
	Terms  entities.CoverageTerms
}

type Repository interface {
	CreatePolicy(ctx context.Context, policy entities.Policy) error
	GetPolicy(ctx context.Context, policyID string) (entities.Policy, error)
	ListPolicies(ctx context.Context, filter PolicyFilter) ([]entities.Policy, error)
	// UpdatePolicy persists the policy only when the stored version still
	// matches expectedVersion.
	UpdatePolicy(ctx context.Context, policy entities.Policy, expectedVersion int64) error
	CountPoliciesByStatus(ctx context.Context) (map[entities.PolicyStatus]int, error)
}

// PlanSource resolves coverage terms from the plan catalog at issuance.
type PlanSource interface {
	SnapshotTerms(ctx context.Context, planID string) (PlanTerms, error)
}

// ClaimsInspector reports whether a policy has claims still under
// adjudication, which blocks cancellation of an active policy.
type ClaimsInspector interface {
	HasOpenAdjudication(ctx context.Context, policyID string) (bool, error)
}

type Authorizer interface {
	Authorize(ctx context.Context, actor Actor, action string, resourceType string, resourceOwnerID string) (bool, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
	// NewNumber mints a human-facing document number with the given prefix.
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
