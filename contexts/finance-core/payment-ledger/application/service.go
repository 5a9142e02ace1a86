package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"math"
	"strings"
	"time"

	domainerrors "acphealth/contexts/finance-core/payment-ledger/domain/errors"
	"acphealth/contexts/finance-core/payment-ledger/domain/entities"
	"acphealth/contexts/finance-core/payment-ledger/ports"
)

type Service struct {
	Repo           ports.Repository
	Idempotency    ports.IdempotencyStore
	Policies       ports.PolicyLedger
	Claims         ports.ClaimsLedger
	Authz          ports.Authorizer
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// RecordPayment appends a ledger entry for a premium or a claim payout and
// drives the downstream transition: first premium activates a pending
// policy, a payout settles its claim once the running total reaches the
// approved amount. Replays under the same idempotency key return the
// original entry.
func (s Service) RecordPayment(
	ctx context.Context,
	actor ports.Actor,
	idempotencyKey string,
	input ports.RecordPaymentInput,
) (entities.Payment, bool, error) {
	if strings.TrimSpace(idempotencyKey) == "" {
		return entities.Payment{}, false, domainerrors.ErrIdempotencyKeyMissing
	}
	policyID := strings.TrimSpace(input.PolicyID)
	claimID := strings.TrimSpace(input.ClaimID)
	method, methodOK := entities.ParseMethod(input.Method)
	if input.Amount <= 0 || !methodOK || (policyID == "") == (claimID == "") {
		return entities.Payment{}, false, domainerrors.ErrInvalidInput
	}

	now := s.now()
	requestHash := hashPayload(map[string]any{
		"policy_id": policyID,
		"claim_id":  claimID,
		"amount":    round2(input.Amount),
		"method":    string(method),
		"payer_id":  actor.UserID,
	})

	record, found, err := s.Idempotency.GetRecord(ctx, strings.TrimSpace(idempotencyKey), now)
	if err != nil {
		return entities.Payment{}, false, err
	}
	if found {
		if record.RequestHash != requestHash {
			return entities.Payment{}, false, domainerrors.ErrIdempotencyConflict
		}
		var replayed entities.Payment
		if err := json.Unmarshal(record.ResponsePayload, &replayed); err != nil {
			return entities.Payment{}, false, err
		}
		return replayed, true, nil
	}

	var payment entities.Payment
	if policyID != "" {
		payment, err = s.buildPremiumPayment(ctx, actor, policyID, input.Amount)
	} else {
		payment, err = s.buildPayoutPayment(ctx, actor, claimID, input.Amount)
	}
	if err != nil {
		return entities.Payment{}, false, err
	}

	paymentID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Payment{}, false, err
	}
	reference, err := s.IDGen.NewNumber(ctx, "PAY")
	if err != nil {
		return entities.Payment{}, false, err
	}
	payment.PaymentID = strings.TrimSpace(paymentID)
	payment.Reference = reference
	payment.Method = method
	payment.Description = strings.TrimSpace(input.Description)
	payment.RecordedAt = now
	payment.CreatedAt = now

	if err := s.Repo.CreatePayment(ctx, payment); err != nil {
		return entities.Payment{}, false, err
	}
	if err := s.settleDownstream(ctx, payment); err != nil {
		return entities.Payment{}, false, err
	}
	s.appendRecordedOutbox(ctx, payment)

	payload, err := json.Marshal(payment)
	if err != nil {
		return entities.Payment{}, false, err
	}
	if err := s.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             strings.TrimSpace(idempotencyKey),
		RequestHash:     requestHash,
		ResponsePayload: payload,
		ExpiresAt:       now.Add(s.idempotencyTTL()),
	}); err != nil {
		return entities.Payment{}, false, err
	}

	ResolveLogger(s.Logger).Info("payment recorded",
		"event", "payment_recorded",
		"module", "finance-core/payment-ledger",
		"layer", "application",
		"payment_id", payment.PaymentID,
		"reference", payment.Reference,
		"kind", string(payment.Kind),
		"amount", payment.Amount,
	)
	return payment, false, nil
}

func (s Service) buildPremiumPayment(ctx context.Context, actor ports.Actor, policyID string, amount float64) (entities.Payment, error) {
	policy, err := s.Policies.GetPolicyView(ctx, policyID)
	if err != nil {
		return entities.Payment{}, err
	}
	if err := s.require(ctx, actor, policy.CustomerID); err != nil {
		return entities.Payment{}, err
	}
	if !policy.AcceptsPremiums {
		return entities.Payment{}, domainerrors.ErrPolicyNotPayable
	}

	paid, err := s.Repo.SumPremiumsByPolicy(ctx, policy.PolicyID)
	if err != nil {
		return entities.Payment{}, err
	}
	if round2(paid+amount) > round2(policy.PremiumDueToDate) {
		return entities.Payment{}, domainerrors.ErrOverpayment
	}

	return entities.Payment{
		Kind:      entities.KindPremium,
		PolicyID:  policy.PolicyID,
		PayerID:   actor.UserID,
		PayerRole: actor.Role,
		Amount:    round2(amount),
	}, nil
}

func (s Service) buildPayoutPayment(ctx context.Context, actor ports.Actor, claimID string, amount float64) (entities.Payment, error) {
	claim, err := s.Claims.GetClaimView(ctx, claimID)
	if err != nil {
		return entities.Payment{}, err
	}
	if err := s.require(ctx, actor, claim.CustomerID); err != nil {
		return entities.Payment{}, err
	}
	if claim.AlreadyPaid {
		return entities.Payment{}, domainerrors.ErrOverpayment
	}
	if !claim.Approved {
		return entities.Payment{}, domainerrors.ErrClaimNotPayable
	}

	paid, err := s.Repo.SumPayoutsByClaim(ctx, claim.ClaimID)
	if err != nil {
		return entities.Payment{}, err
	}
	if round2(paid+amount) > round2(claim.AmountApproved) {
		return entities.Payment{}, domainerrors.ErrOverpayment
	}

	return entities.Payment{
		Kind:      entities.KindClaimPayout,
		ClaimID:   claim.ClaimID,
		PolicyID:  claim.PolicyID,
		PayerID:   actor.UserID,
		PayerRole: actor.Role,
		Amount:    round2(amount),
	}, nil
}

func (s Service) settleDownstream(ctx context.Context, payment entities.Payment) error {
	switch payment.Kind {
	case entities.KindPremium:
		return s.Policies.ActivateOnFirstPremium(ctx, payment.PolicyID)
	case entities.KindClaimPayout:
		claim, err := s.Claims.GetClaimView(ctx, payment.ClaimID)
		if err != nil {
			return err
		}
		paid, err := s.Repo.SumPayoutsByClaim(ctx, payment.ClaimID)
		if err != nil {
			return err
		}
		// The claim settles only once payouts cover the approved amount.
		if round2(paid) < round2(claim.AmountApproved) {
			return nil
		}
		return s.Claims.MarkPaid(ctx, payment.ClaimID)
	default:
		return domainerrors.ErrInvalidInput
	}
}

func (s Service) GetPayment(ctx context.Context, actor ports.Actor, paymentID string) (entities.Payment, error) {
	payment, err := s.Repo.GetPayment(ctx, strings.TrimSpace(paymentID))
	if err != nil {
		return entities.Payment{}, err
	}
	if err := s.requireRead(ctx, actor, payment.PayerID); err != nil {
		return entities.Payment{}, err
	}
	return payment, nil
}

// ListPayments returns ledger entries visible to the actor. Customers only
// ever see payments they made.
func (s Service) ListPayments(ctx context.Context, actor ports.Actor, filter ports.PaymentFilter) ([]entities.Payment, error) {
	switch actor.Role {
	case "admin", "agent":
	case "customer":
		filter.PayerID = actor.UserID
	default:
		if strings.TrimSpace(filter.PayerID) == "" {
			return nil, domainerrors.ErrForbidden
		}
	}
	if err := s.requireRead(ctx, actor, filter.PayerID); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.Repo.ListPayments(ctx, filter)
}

// RevenueSummary nets collected premiums against payouts. Back office only.
func (s Service) RevenueSummary(ctx context.Context, actor ports.Actor) (ports.RevenueSummary, error) {
	if actor.Role != "admin" && actor.Role != "agent" {
		return ports.RevenueSummary{}, domainerrors.ErrForbidden
	}
	if err := s.requireRead(ctx, actor, ""); err != nil {
		return ports.RevenueSummary{}, err
	}
	return s.Repo.BuildRevenueSummary(ctx)
}

func (s Service) appendRecordedOutbox(ctx context.Context, payment entities.Payment) {
	if s.Outbox == nil {
		return
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		ResolveLogger(s.Logger).Error("outbox append skipped",
			"event", "payment_outbox_append_failed",
			"module", "finance-core/payment-ledger",
			"layer", "application",
			"error", err.Error(),
		)
		return
	}
	data, err := json.Marshal(map[string]any{
		"payment_id": payment.PaymentID,
		"reference":  payment.Reference,
		"kind":       string(payment.Kind),
		"policy_id":  payment.PolicyID,
		"claim_id":   payment.ClaimID,
		"payer_id":   payment.PayerID,
		"amount":     payment.Amount,
		"method":     string(payment.Method),
	})
	if err != nil {
		return
	}
	partitionKey := payment.PolicyID
	if partitionKey == "" {
		partitionKey = payment.ClaimID
	}
	if err := s.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          strings.TrimSpace(eventID),
		EventType:        "payment.recorded",
		OccurredAt:       payment.RecordedAt.UTC(),
		SourceService:    "payment-ledger",
		TraceID:          strings.TrimSpace(eventID),
		SchemaVersion:    1,
		PartitionKeyPath: "policy_id",
		PartitionKey:     partitionKey,
		Data:             data,
	}); err != nil {
		ResolveLogger(s.Logger).Error("outbox append failed",
			"event", "payment_outbox_append_failed",
			"module", "finance-core/payment-ledger",
			"layer", "application",
			"payment_id", payment.PaymentID,
			"error", err.Error(),
		)
	}
}

func (s Service) require(ctx context.Context, actor ports.Actor, ownerID string) error {
	allowed, err := s.Authz.Authorize(ctx, actor, "record", "payment", ownerID)
	if err != nil {
		return err
	}
	if !allowed {
		return domainerrors.ErrForbidden
	}
	return nil
}

func (s Service) requireRead(ctx context.Context, actor ports.Actor, ownerID string) error {
	allowed, err := s.Authz.Authorize(ctx, actor, "read", "payment", ownerID)
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

func (s Service) idempotencyTTL() time.Duration {
	if s.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.IdempotencyTTL
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func hashPayload(payload map[string]any) string {
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
