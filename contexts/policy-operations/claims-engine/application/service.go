package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainerrors "acphealth/contexts/policy-operations/claims-engine/domain/errors"
	"acphealth/contexts/policy-operations/claims-engine/domain/entities"
	"acphealth/contexts/policy-operations/claims-engine/ports"
)

const transitionAttempts = 3

type Service struct {
	Repo     ports.Repository
	Policies ports.PolicyReader
	Authz    ports.Authorizer
	Outbox   ports.OutboxWriter
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

// FileClaim submits a claim against an active policy. The requested amount
// must fit inside the policy's remaining coverage.
func (s Service) FileClaim(ctx context.Context, actor ports.Actor, input ports.FileClaimInput) (entities.Claim, error) {
	policyID := strings.TrimSpace(input.PolicyID)
	if policyID == "" {
		return entities.Claim{}, domainerrors.ErrInvalidInput
	}
	policy, err := s.Policies.GetPolicyView(ctx, policyID)
	if err != nil {
		return entities.Claim{}, err
	}
	if err := s.require(ctx, actor, "create", policy.CustomerID); err != nil {
		return entities.Claim{}, err
	}

	now := s.now()
	if strings.TrimSpace(input.ProviderName) == "" ||
		input.Amount <= 0 ||
		input.ServiceDate.IsZero() ||
		input.ServiceDate.After(now) {
		return entities.Claim{}, domainerrors.ErrInvalidInput
	}
	if !policy.Active {
		return entities.Claim{}, domainerrors.ErrPolicyNotCoverable
	}

	remaining, err := s.remainingCoverage(ctx, policy)
	if err != nil {
		return entities.Claim{}, err
	}
	if input.Amount > remaining {
		return entities.Claim{}, fmt.Errorf("%w: %.2f remaining", domainerrors.ErrCoverageExceeded, remaining)
	}

	claimID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Claim{}, err
	}
	claimNumber, err := s.IDGen.NewNumber(ctx, "CLM")
	if err != nil {
		return entities.Claim{}, err
	}

	claim := entities.Claim{
		ClaimID:         strings.TrimSpace(claimID),
		ClaimNumber:     claimNumber,
		PolicyID:        policy.PolicyID,
		CustomerID:      policy.CustomerID,
		ProviderName:    strings.TrimSpace(input.ProviderName),
		ServiceDate:     input.ServiceDate.UTC(),
		DiagnosisCode:   strings.TrimSpace(input.DiagnosisCode),
		ProcedureCode:   strings.TrimSpace(input.ProcedureCode),
		Description:     strings.TrimSpace(input.Description),
		AmountRequested: input.Amount,
		Status:          entities.ClaimStatusSubmitted,
		CreatedAt:       now,
		UpdatedAt:       now,
		Version:         1,
	}
	if actor.Role == "provider" {
		claim.ProviderID = actor.UserID
	}
	if err := s.Repo.CreateClaim(ctx, claim); err != nil {
		return entities.Claim{}, err
	}
	s.appendLifecycleOutbox(ctx, "claim.filed", claim)

	ResolveLogger(s.Logger).Info("claim filed",
		"event", "claim_filed",
		"module", "policy-operations/claims-engine",
		"layer", "application",
		"claim_id", claim.ClaimID,
		"claim_number", claim.ClaimNumber,
		"policy_id", claim.PolicyID,
		"amount_requested", claim.AmountRequested,
	)
	return claim, nil
}

// ReviewClaim takes a submitted claim into adjudication and records the
// reviewer. The backing policy must still be active.
func (s Service) ReviewClaim(ctx context.Context, actor ports.Actor, claimID string) (entities.Claim, error) {
	if err := s.requireAdjudicator(ctx, actor, claimID); err != nil {
		return entities.Claim{}, err
	}
	claim, err := s.Repo.GetClaim(ctx, strings.TrimSpace(claimID))
	if err != nil {
		return entities.Claim{}, err
	}
	policy, err := s.Policies.GetPolicyView(ctx, claim.PolicyID)
	if err != nil {
		return entities.Claim{}, err
	}
	if !policy.Active {
		return entities.Claim{}, domainerrors.ErrPolicyNotCoverable
	}
	return s.transition(ctx, claimID, entities.ClaimStatusUnderReview, "claim.review_started", func(claim *entities.Claim, now time.Time) {
		claim.ReviewerID = actor.UserID
		claim.ReviewedAt = &now
	})
}

// ApproveClaim settles an adjudicated claim. The approved amount defaults to
// the requested amount, may not exceed it, and must still fit the policy's
// remaining coverage at approval time.
func (s Service) ApproveClaim(ctx context.Context, actor ports.Actor, claimID string, amount float64) (entities.Claim, error) {
	if err := s.requireAdjudicator(ctx, actor, claimID); err != nil {
		return entities.Claim{}, err
	}

	claim, err := s.Repo.GetClaim(ctx, strings.TrimSpace(claimID))
	if err != nil {
		return entities.Claim{}, err
	}
	approved := amount
	if approved == 0 {
		approved = claim.AmountRequested
	}
	if approved <= 0 || approved > claim.AmountRequested {
		return entities.Claim{}, domainerrors.ErrInvalidInput
	}

	policy, err := s.Policies.GetPolicyView(ctx, claim.PolicyID)
	if err != nil {
		return entities.Claim{}, err
	}
	remaining, err := s.remainingCoverage(ctx, policy)
	if err != nil {
		return entities.Claim{}, err
	}
	if approved > remaining {
		return entities.Claim{}, fmt.Errorf("%w: %.2f remaining", domainerrors.ErrCoverageExceeded, remaining)
	}

	return s.transition(ctx, claimID, entities.ClaimStatusApproved, "claim.approved", func(claim *entities.Claim, now time.Time) {
		claim.AmountApproved = approved
		claim.ReviewerID = actor.UserID
		claim.ReviewedAt = &now
	})
}

// DenyClaim rejects a claim with a mandatory reason.
func (s Service) DenyClaim(ctx context.Context, actor ports.Actor, claimID string, reason string) (entities.Claim, error) {
	if err := s.requireAdjudicator(ctx, actor, claimID); err != nil {
		return entities.Claim{}, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return entities.Claim{}, domainerrors.ErrReasonRequired
	}
	return s.transition(ctx, claimID, entities.ClaimStatusDenied, "claim.denied", func(claim *entities.Claim, now time.Time) {
		claim.DenialReason = reason
		claim.ReviewerID = actor.UserID
		claim.ReviewedAt = &now
	})
}

// MarkPaid is the payment ledger's settlement path for an approved claim.
func (s Service) MarkPaid(ctx context.Context, claimID string) (entities.Claim, error) {
	return s.transition(ctx, claimID, entities.ClaimStatusPaid, "claim.paid", nil)
}

func (s Service) GetClaim(ctx context.Context, actor ports.Actor, claimID string) (entities.Claim, error) {
	claim, err := s.Repo.GetClaim(ctx, strings.TrimSpace(claimID))
	if err != nil {
		return entities.Claim{}, err
	}
	if err := s.require(ctx, actor, "read", claim.CustomerID); err != nil {
		return entities.Claim{}, err
	}
	return claim, nil
}

// ListClaims returns claims visible to the actor. Customers only ever see
// their own; providers must name the customer they act for.
func (s Service) ListClaims(ctx context.Context, actor ports.Actor, filter ports.ClaimFilter) ([]entities.Claim, error) {
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
	return s.Repo.ListClaims(ctx, filter)
}

// Summary aggregates claim volumes and amounts. Admins and agents see the
// whole book; customers see only their own claims.
func (s Service) Summary(ctx context.Context, actor ports.Actor) (ports.ClaimsSummary, error) {
	scope := ""
	if actor.Role != "admin" && actor.Role != "agent" {
		scope = actor.UserID
	}
	if err := s.require(ctx, actor, "read", scope); err != nil {
		return ports.ClaimsSummary{}, err
	}
	return s.Repo.BuildClaimsSummary(ctx, scope)
}

// HasOpenAdjudication is the policy ledger's cancellation guard.
func (s Service) HasOpenAdjudication(ctx context.Context, policyID string) (bool, error) {
	return s.Repo.HasOpenClaims(ctx, strings.TrimSpace(policyID))
}

// RemainingCoverage reports how much of a policy's coverage limit is left
// after approved and paid claims.
func (s Service) RemainingCoverage(ctx context.Context, policyID string) (float64, error) {
	policy, err := s.Policies.GetPolicyView(ctx, strings.TrimSpace(policyID))
	if err != nil {
		return 0, err
	}
	return s.remainingCoverage(ctx, policy)
}

func (s Service) remainingCoverage(ctx context.Context, policy ports.PolicyView) (float64, error) {
	consumed, err := s.Repo.SumApprovedByPolicy(ctx, policy.PolicyID)
	if err != nil {
		return 0, err
	}
	remaining := policy.CoverageLimit - consumed
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// requireAdjudicator gates the review verbs: the gate must allow the
// transition and only back-office roles adjudicate.
func (s Service) requireAdjudicator(ctx context.Context, actor ports.Actor, claimID string) error {
	claim, err := s.Repo.GetClaim(ctx, strings.TrimSpace(claimID))
	if err != nil {
		return err
	}
	if err := s.require(ctx, actor, "transition", claim.CustomerID); err != nil {
		return err
	}
	if actor.Role != "admin" && actor.Role != "agent" {
		return domainerrors.ErrForbidden
	}
	return nil
}

func (s Service) transition(ctx context.Context, claimID string, to entities.ClaimStatus, eventType string, mutate func(*entities.Claim, time.Time)) (entities.Claim, error) {
	var lastErr error
	for attempt := 0; attempt < transitionAttempts; attempt++ {
		claim, err := s.Repo.GetClaim(ctx, strings.TrimSpace(claimID))
		if err != nil {
			return entities.Claim{}, err
		}
		if !claim.CanTransition(to) {
			return entities.Claim{}, fmt.Errorf("%w: %s -> %s", domainerrors.ErrInvalidTransition, claim.Status, to)
		}

		expected := claim.Version
		now := s.now()
		claim.Status = to
		claim.UpdatedAt = now
		claim.Version = expected + 1
		if mutate != nil {
			mutate(&claim, now)
		}
		if err := s.Repo.UpdateClaim(ctx, claim, expected); err != nil {
			if errors.Is(err, domainerrors.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return entities.Claim{}, err
		}
		s.appendLifecycleOutbox(ctx, eventType, claim)

		ResolveLogger(s.Logger).Info("claim status changed",
			"event", "claim_status_changed",
			"module", "policy-operations/claims-engine",
			"layer", "application",
			"claim_id", claim.ClaimID,
			"status", string(to),
		)
		return claim, nil
	}
	return entities.Claim{}, lastErr
}

func (s Service) appendLifecycleOutbox(ctx context.Context, eventType string, claim entities.Claim) {
	if s.Outbox == nil {
		return
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		ResolveLogger(s.Logger).Error("outbox append skipped",
			"event", "claim_outbox_append_failed",
			"module", "policy-operations/claims-engine",
			"layer", "application",
			"error", err.Error(),
		)
		return
	}
	data, err := json.Marshal(map[string]any{
		"claim_id":         claim.ClaimID,
		"claim_number":     claim.ClaimNumber,
		"policy_id":        claim.PolicyID,
		"customer_id":      claim.CustomerID,
		"status":           string(claim.Status),
		"amount_requested": claim.AmountRequested,
		"amount_approved":  claim.AmountApproved,
	})
	if err != nil {
		return
	}
	if err := s.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          strings.TrimSpace(eventID),
		EventType:        eventType,
		OccurredAt:       s.now(),
		SourceService:    "claims-engine",
		TraceID:          strings.TrimSpace(eventID),
		SchemaVersion:    1,
		PartitionKeyPath: "policy_id",
		PartitionKey:     claim.PolicyID,
		Data:             data,
	}); err != nil {
		ResolveLogger(s.Logger).Error("outbox append failed",
			"event", "claim_outbox_append_failed",
			"module", "policy-operations/claims-engine",
			"layer", "application",
			"claim_id", claim.ClaimID,
			"error", err.Error(),
		)
	}
}

func (s Service) require(ctx context.Context, actor ports.Actor, action string, ownerID string) error {
	allowed, err := s.Authz.Authorize(ctx, actor, action, "claim", ownerID)
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
