package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainerrors "acphealth/contexts/policy-operations/policy-ledger/domain/errors"
	"acphealth/contexts/policy-operations/policy-ledger/domain/entities"
	"acphealth/contexts/policy-operations/policy-ledger/ports"
)

const transitionAttempts = 3

type Service struct {
	Repo   ports.Repository
	Plans  ports.PlanSource
	Claims ports.ClaimsInspector
	Authz  ports.Authorizer
	Outbox ports.OutboxWriter
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// IssuePolicy creates a pending policy for a customer, freezing the plan's
// coverage terms at issuance time.
func (s Service) IssuePolicy(ctx context.Context, actor ports.Actor, input ports.IssuePolicyInput) (entities.Policy, error) {
	customerID := strings.TrimSpace(input.CustomerID)
	if err := s.require(ctx, actor, "create", customerID); err != nil {
		return entities.Policy{}, err
	}

	planID := strings.TrimSpace(input.PlanID)
	frequency, freqOK := entities.ParseFrequency(input.PaymentFrequency)
	if planID == "" || customerID == "" || !freqOK {
		return entities.Policy{}, domainerrors.ErrInvalidInput
	}
	for _, b := range input.Beneficiaries {
		if strings.TrimSpace(b.Name) == "" {
			return entities.Policy{}, domainerrors.ErrInvalidInput
		}
	}

	snapshot, err := s.Plans.SnapshotTerms(ctx, planID)
	if err != nil {
		return entities.Policy{}, err
	}

	policyID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Policy{}, err
	}
	policyNumber, err := s.IDGen.NewNumber(ctx, "POL")
	if err != nil {
		return entities.Policy{}, err
	}

	now := s.now()
	effective := input.EffectiveDate.UTC()
	if effective.IsZero() {
		effective = now
	}

	policy := entities.Policy{
		PolicyID:         strings.TrimSpace(policyID),
		PolicyNumber:     policyNumber,
		PlanID:           snapshot.PlanID,
		CustomerID:       customerID,
		Status:           entities.PolicyStatusPending,
		Terms:            snapshot.Terms,
		PaymentFrequency: frequency,
		PremiumAmount:    snapshot.Terms.PremiumFor(frequency),
		EffectiveDate:    effective,
		ExpiryDate:       entities.ExpiryFor(effective),
		Beneficiaries:    append([]entities.Beneficiary(nil), input.Beneficiaries...),
		CreatedAt:        now,
		UpdatedAt:        now,
		Version:          1,
	}
	if err := s.Repo.CreatePolicy(ctx, policy); err != nil {
		return entities.Policy{}, err
	}
	s.appendLifecycleOutbox(ctx, "policy.issued", policy)

	ResolveLogger(s.Logger).Info("policy issued",
		"event", "policy_issued",
		"module", "policy-operations/policy-ledger",
		"layer", "application",
		"policy_id", policy.PolicyID,
		"policy_number", policy.PolicyNumber,
		"plan_id", policy.PlanID,
		"customer_id", policy.CustomerID,
	)
	return policy, nil
}

// ActivatePolicy moves a pending policy into force. Agents and admins use
// this directly; customer-driven activation happens through premium payment.
func (s Service) ActivatePolicy(ctx context.Context, actor ports.Actor, policyID string) (entities.Policy, error) {
	policy, err := s.load(ctx, policyID)
	if err != nil {
		return entities.Policy{}, err
	}
	if err := s.require(ctx, actor, "transition", policy.CustomerID); err != nil {
		return entities.Policy{}, err
	}
	if actor.Role != "admin" && actor.Role != "agent" {
		return entities.Policy{}, domainerrors.ErrForbidden
	}
	return s.transition(ctx, policyID, entities.PolicyStatusActive, "policy.activated")
}

// ActivateOnFirstPremium is the payment ledger's activation path. Recording
// a premium against an already active policy is a no-op here.
func (s Service) ActivateOnFirstPremium(ctx context.Context, policyID string) (entities.Policy, error) {
	policy, err := s.load(ctx, policyID)
	if err != nil {
		return entities.Policy{}, err
	}
	if policy.Status == entities.PolicyStatusActive {
		return policy, nil
	}
	return s.transition(ctx, policyID, entities.PolicyStatusActive, "policy.activated")
}

// CancelPolicy terminates a policy. Pending policies cancel freely; an
// active policy cannot be cancelled while claims are still under review.
func (s Service) CancelPolicy(ctx context.Context, actor ports.Actor, policyID string) (entities.Policy, error) {
	policy, err := s.load(ctx, policyID)
	if err != nil {
		return entities.Policy{}, err
	}
	if err := s.require(ctx, actor, "transition", policy.CustomerID); err != nil {
		return entities.Policy{}, err
	}
	if policy.Status == entities.PolicyStatusActive && s.Claims != nil {
		open, err := s.Claims.HasOpenAdjudication(ctx, policy.PolicyID)
		if err != nil {
			return entities.Policy{}, err
		}
		if open {
			return entities.Policy{}, domainerrors.ErrOpenClaims
		}
	}
	return s.transition(ctx, policyID, entities.PolicyStatusCancelled, "policy.cancelled")
}

func (s Service) GetPolicy(ctx context.Context, actor ports.Actor, policyID string) (entities.Policy, error) {
	policy, err := s.load(ctx, policyID)
	if err != nil {
		return entities.Policy{}, err
	}
	if err := s.require(ctx, actor, "read", policy.CustomerID); err != nil {
		return entities.Policy{}, err
	}
	return policy, nil
}

// ListPolicies returns policies visible to the actor. Customers only ever
// see their own; providers must name the customer they act for.
func (s Service) ListPolicies(ctx context.Context, actor ports.Actor, filter ports.PolicyFilter) ([]entities.Policy, error) {
	switch actor.Role {
	case "admin", "agent":
	case "customer":
		filter.CustomerID = actor.UserID
	default:
		if strings.TrimSpace(filter.CustomerID) == "" {
			return nil, domainerrors.ErrForbidden
		}
	}
	if err := s.require(ctx, actor, "read", filter.CustomerID); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	policies, err := s.Repo.ListPolicies(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i, policy := range policies {
		folded, err := s.foldExpiry(ctx, policy)
		if err != nil {
			return nil, err
		}
		policies[i] = folded
	}
	return policies, nil
}

// Snapshot is the cross-module read used by the claims and payment ledgers.
// It applies expiry folding but no actor check; callers gate access.
func (s Service) Snapshot(ctx context.Context, policyID string) (entities.Policy, error) {
	return s.load(ctx, policyID)
}

// StatusCounts feeds the operations dashboard.
func (s Service) StatusCounts(ctx context.Context) (map[entities.PolicyStatus]int, error) {
	return s.Repo.CountPoliciesByStatus(ctx)
}

// load fetches a policy and folds a lapsed active policy to expired before
// anyone observes the stale status.
func (s Service) load(ctx context.Context, policyID string) (entities.Policy, error) {
	policy, err := s.Repo.GetPolicy(ctx, strings.TrimSpace(policyID))
	if err != nil {
		return entities.Policy{}, err
	}
	return s.foldExpiry(ctx, policy)
}

func (s Service) foldExpiry(ctx context.Context, policy entities.Policy) (entities.Policy, error) {
	if !policy.PastExpiry(s.now()) {
		return policy, nil
	}
	folded, err := s.transition(ctx, policy.PolicyID, entities.PolicyStatusExpired, "policy.expired")
	if err != nil {
		// A concurrent writer may have already folded or cancelled it.
		if errors.Is(err, domainerrors.ErrInvalidTransition) {
			return s.Repo.GetPolicy(ctx, policy.PolicyID)
		}
		return entities.Policy{}, err
	}
	return folded, nil
}

func (s Service) transition(ctx context.Context, policyID string, to entities.PolicyStatus, eventType string) (entities.Policy, error) {
	var lastErr error
	for attempt := 0; attempt < transitionAttempts; attempt++ {
		policy, err := s.Repo.GetPolicy(ctx, strings.TrimSpace(policyID))
		if err != nil {
			return entities.Policy{}, err
		}
		if !policy.CanTransition(to) {
			return entities.Policy{}, fmt.Errorf("%w: %s -> %s", domainerrors.ErrInvalidTransition, policy.Status, to)
		}

		expected := policy.Version
		policy.Status = to
		policy.UpdatedAt = s.now()
		policy.Version = expected + 1
		if err := s.Repo.UpdatePolicy(ctx, policy, expected); err != nil {
			if errors.Is(err, domainerrors.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return entities.Policy{}, err
		}
		s.appendLifecycleOutbox(ctx, eventType, policy)

		ResolveLogger(s.Logger).Info("policy status changed",
			"event", "policy_status_changed",
			"module", "policy-operations/policy-ledger",
			"layer", "application",
			"policy_id", policy.PolicyID,
			"status", string(to),
		)
		return policy, nil
	}
	return entities.Policy{}, lastErr
}

func (s Service) appendLifecycleOutbox(ctx context.Context, eventType string, policy entities.Policy) {
	if s.Outbox == nil {
		return
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		ResolveLogger(s.Logger).Error("outbox append skipped",
			"event", "policy_outbox_append_failed",
			"module", "policy-operations/policy-ledger",
			"layer", "application",
			"error", err.Error(),
		)
		return
	}
	data, err := json.Marshal(map[string]any{
		"policy_id":     policy.PolicyID,
		"policy_number": policy.PolicyNumber,
		"plan_id":       policy.PlanID,
		"customer_id":   policy.CustomerID,
		"status":        string(policy.Status),
		"expiry_date":   policy.ExpiryDate.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	if err := s.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          strings.TrimSpace(eventID),
		EventType:        eventType,
		OccurredAt:       s.now(),
		SourceService:    "policy-ledger",
		TraceID:          strings.TrimSpace(eventID),
		SchemaVersion:    1,
		PartitionKeyPath: "policy_id",
		PartitionKey:     policy.PolicyID,
		Data:             data,
	}); err != nil {
		ResolveLogger(s.Logger).Error("outbox append failed",
			"event", "policy_outbox_append_failed",
			"module", "policy-operations/policy-ledger",
			"layer", "application",
			"policy_id", policy.PolicyID,
			"error", err.Error(),
		)
	}
}

func (s Service) require(ctx context.Context, actor ports.Actor, action string, ownerID string) error {
	allowed, err := s.Authz.Authorize(ctx, actor, action, "policy", ownerID)
	if err != nil {
		return err
	}
	if !allowed {
		return domainerrors.ErrForbidden
	}
	return nil
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
