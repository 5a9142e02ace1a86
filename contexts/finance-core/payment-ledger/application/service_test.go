package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"acphealth/contexts/finance-core/payment-ledger/adapters/memory"
	domainerrors "acphealth/contexts/finance-core/payment-ledger/domain/errors"
	"acphealth/contexts/finance-core/payment-ledger/domain/entities"
	"acphealth/contexts/finance-core/payment-ledger/ports"
)

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time {
	return f.now
}

type policyLedgerStub struct {
	views     map[string]ports.PolicyView
	activated []string
}

func (p *policyLedgerStub) GetPolicyView(_ context.Context, policyID string) (ports.PolicyView, error) {
	view, ok := p.views[policyID]
	if !ok {
		return ports.PolicyView{}, fmt.Errorf("%w: policy not found", domainerrors.ErrPolicyNotPayable)
	}
	return view, nil
}

func (p *policyLedgerStub) ActivateOnFirstPremium(_ context.Context, policyID string) error {
	p.activated = append(p.activated, policyID)
	return nil
}

type claimsLedgerStub struct {
	views map[string]ports.ClaimView
	paid  []string
}

func (c *claimsLedgerStub) GetClaimView(_ context.Context, claimID string) (ports.ClaimView, error) {
	view, ok := c.views[claimID]
	if !ok {
		return ports.ClaimView{}, fmt.Errorf("%w: claim not found", domainerrors.ErrClaimNotPayable)
	}
	return view, nil
}

func (c *claimsLedgerStub) MarkPaid(_ context.Context, claimID string) error {
	c.paid = append(c.paid, claimID)
	return nil
}

// gateStub mirrors the payment slice of the access rules: staff act on any
// payment, customers only on their own money.
type gateStub struct{}

func (gateStub) Authorize(_ context.Context, actor ports.Actor, _ string, _ string, ownerID string) (bool, error) {
	switch actor.Role {
	case "admin", "agent":
		return true, nil
	case "customer":
		return ownerID == actor.UserID, nil
	default:
		return false, nil
	}
}

var (
	payerActor    = ports.Actor{UserID: "cust-1", Role: "customer"}
	financeNow    = time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)
	agentFinActor = ports.Actor{UserID: "agt-1", Role: "agent"}
)

func newFinanceLedger() (Service, *memory.Store, *policyLedgerStub, *claimsLedgerStub) {
	store := memory.NewStore()
	policies := &policyLedgerStub{views: map[string]ports.PolicyView{
		"pol-1": {PolicyID: "pol-1", CustomerID: "cust-1", AcceptsPremiums: true, PremiumDueToDate: 100},
		"pol-2": {PolicyID: "pol-2", CustomerID: "cust-1", AcceptsPremiums: false, PremiumDueToDate: 100},
	}}
	claims := &claimsLedgerStub{views: map[string]ports.ClaimView{
		"clm-ok":       {ClaimID: "clm-ok", PolicyID: "pol-1", CustomerID: "cust-1", Approved: true, AmountApproved: 750},
		"clm-open":     {ClaimID: "clm-open", PolicyID: "pol-1", CustomerID: "cust-1", Approved: false},
		"clm-settled":  {ClaimID: "clm-settled", PolicyID: "pol-1", CustomerID: "cust-1", Approved: false, AlreadyPaid: true, AmountApproved: 300},
	}}
	svc := Service{
		Repo:        store,
		Idempotency: store,
		Policies:    policies,
		Claims:      claims,
		Authz:       gateStub{},
		Outbox:      store,
		Clock:       fixedClock{now: financeNow},
		IDGen:       store,
	}
	return svc, store, policies, claims
}

func TestRecordPremiumActivatesPolicy(t *testing.T) {
	svc, store, policies, _ := newFinanceLedger()

	payment, replayed, err := svc.RecordPayment(context.Background(), payerActor, "key-1", ports.RecordPaymentInput{
		PolicyID: "pol-1", Amount: 100, Method: "card",
	})
	if err != nil {
		t.Fatalf("record premium: %v", err)
	}
	if replayed {
		t.Fatalf("first record must not be a replay")
	}
	if payment.Kind != entities.KindPremium || payment.Amount != 100 {
		t.Fatalf("unexpected payment: %+v", payment)
	}
	if payment.Reference == "" || payment.PaymentID == "" {
		t.Fatalf("expected reference and id, got %+v", payment)
	}
	if len(policies.activated) != 1 || policies.activated[0] != "pol-1" {
		t.Fatalf("expected activation call for pol-1, got %v", policies.activated)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	if len(pending) != 1 || pending[0].EventType != "payment.recorded" {
		t.Fatalf("expected payment.recorded in outbox, got %+v", pending)
	}
}

func TestRecordPaymentRequiresIdempotencyKey(t *testing.T) {
	svc, _, _, _ := newFinanceLedger()
	_, _, err := svc.RecordPayment(context.Background(), payerActor, "  ", ports.RecordPaymentInput{
		PolicyID: "pol-1", Amount: 100, Method: "card",
	})
	if !errors.Is(err, domainerrors.ErrIdempotencyKeyMissing) {
		t.Fatalf("expected ErrIdempotencyKeyMissing, got %v", err)
	}
}

func TestRecordPaymentRequiresExactlyOneTarget(t *testing.T) {
	svc, _, _, _ := newFinanceLedger()

	_, _, err := svc.RecordPayment(context.Background(), payerActor, "key-1", ports.RecordPaymentInput{
		Amount: 100, Method: "card",
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("no target: expected ErrInvalidInput, got %v", err)
	}

	_, _, err = svc.RecordPayment(context.Background(), payerActor, "key-2", ports.RecordPaymentInput{
		PolicyID: "pol-1", ClaimID: "clm-ok", Amount: 100, Method: "card",
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("both targets: expected ErrInvalidInput, got %v", err)
	}
}

func TestRecordPaymentReplaySameKeyReturnsOriginal(t *testing.T) {
	svc, store, policies, _ := newFinanceLedger()
	input := ports.RecordPaymentInput{PolicyID: "pol-1", Amount: 50, Method: "card"}

	first, _, err := svc.RecordPayment(context.Background(), payerActor, "key-1", input)
	if err != nil {
		t.Fatalf("first record: %v", err)
	}
	second, replayed, err := svc.RecordPayment(context.Background(), payerActor, "key-1", input)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !replayed {
		t.Fatalf("expected replay flag")
	}
	if second.PaymentID != first.PaymentID || second.Amount != first.Amount {
		t.Fatalf("replay returned a different payment: %+v vs %+v", second, first)
	}

	// The replay must not touch the ledger or downstream modules again.
	entries, err := store.ListPayments(context.Background(), ports.PaymentFilter{Limit: 10})
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected a single ledger entry, got %d", len(entries))
	}
	if len(policies.activated) != 1 {
		t.Fatalf("expected a single activation call, got %v", policies.activated)
	}
}

func TestRecordPaymentSameKeyDifferentPayloadConflicts(t *testing.T) {
	svc, _, _, _ := newFinanceLedger()

	if _, _, err := svc.RecordPayment(context.Background(), payerActor, "key-1", ports.RecordPaymentInput{
		PolicyID: "pol-1", Amount: 50, Method: "card",
	}); err != nil {
		t.Fatalf("first record: %v", err)
	}

	_, _, err := svc.RecordPayment(context.Background(), payerActor, "key-1", ports.RecordPaymentInput{
		PolicyID: "pol-1", Amount: 49, Method: "card",
	})
	if !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected ErrIdempotencyConflict, got %v", err)
	}
}

func TestRecordPremiumRejectsOverpayment(t *testing.T) {
	svc, _, _, _ := newFinanceLedger()

	if _, _, err := svc.RecordPayment(context.Background(), payerActor, "key-1", ports.RecordPaymentInput{
		PolicyID: "pol-1", Amount: 60, Method: "card",
	}); err != nil {
		t.Fatalf("first premium: %v", err)
	}

	// Only 100 is due to date; a second 60 would overshoot.
	_, _, err := svc.RecordPayment(context.Background(), payerActor, "key-2", ports.RecordPaymentInput{
		PolicyID: "pol-1", Amount: 60, Method: "card",
	})
	if !errors.Is(err, domainerrors.ErrOverpayment) {
		t.Fatalf("expected ErrOverpayment, got %v", err)
	}

	// The remainder still goes through.
	if _, _, err := svc.RecordPayment(context.Background(), payerActor, "key-3", ports.RecordPaymentInput{
		PolicyID: "pol-1", Amount: 40, Method: "card",
	}); err != nil {
		t.Fatalf("remainder premium: %v", err)
	}
}

func TestRecordPremiumRejectsClosedPolicy(t *testing.T) {
	svc, _, _, _ := newFinanceLedger()
	_, _, err := svc.RecordPayment(context.Background(), payerActor, "key-1", ports.RecordPaymentInput{
		PolicyID: "pol-2", Amount: 50, Method: "card",
	})
	if !errors.Is(err, domainerrors.ErrPolicyNotPayable) {
		t.Fatalf("expected ErrPolicyNotPayable, got %v", err)
	}
}

func TestRecordPayoutSettlesApprovedClaim(t *testing.T) {
	svc, _, _, claims := newFinanceLedger()

	payment, _, err := svc.RecordPayment(context.Background(), agentFinActor, "key-1", ports.RecordPaymentInput{
		ClaimID: "clm-ok", Amount: 750, Method: "internal",
	})
	if err != nil {
		t.Fatalf("record payout: %v", err)
	}
	if payment.Kind != entities.KindClaimPayout || payment.PolicyID != "pol-1" {
		t.Fatalf("unexpected payout: %+v", payment)
	}
	if len(claims.paid) != 1 || claims.paid[0] != "clm-ok" {
		t.Fatalf("expected claim settled, got %v", claims.paid)
	}
}

func TestRecordPayoutGuards(t *testing.T) {
	svc, _, _, _ := newFinanceLedger()

	_, _, err := svc.RecordPayment(context.Background(), agentFinActor, "key-1", ports.RecordPaymentInput{
		ClaimID: "clm-open", Amount: 100, Method: "internal",
	})
	if !errors.Is(err, domainerrors.ErrClaimNotPayable) {
		t.Fatalf("unapproved claim: expected ErrClaimNotPayable, got %v", err)
	}

	_, _, err = svc.RecordPayment(context.Background(), agentFinActor, "key-2", ports.RecordPaymentInput{
		ClaimID: "clm-settled", Amount: 300, Method: "internal",
	})
	if !errors.Is(err, domainerrors.ErrOverpayment) {
		t.Fatalf("settled claim: expected ErrOverpayment, got %v", err)
	}

	_, _, err = svc.RecordPayment(context.Background(), agentFinActor, "key-3", ports.RecordPaymentInput{
		ClaimID: "clm-ok", Amount: 800, Method: "internal",
	})
	if !errors.Is(err, domainerrors.ErrOverpayment) {
		t.Fatalf("amount beyond approved: expected ErrOverpayment, got %v", err)
	}
}

func TestPartialPayoutsAccumulateToSettlement(t *testing.T) {
	svc, store, _, claims := newFinanceLedger()

	if _, _, err := svc.RecordPayment(context.Background(), agentFinActor, "key-1", ports.RecordPaymentInput{
		ClaimID: "clm-ok", Amount: 400, Method: "internal",
	}); err != nil {
		t.Fatalf("first payout: %v", err)
	}
	if len(claims.paid) != 0 {
		t.Fatalf("partial payout must not settle the claim, got %v", claims.paid)
	}

	// 400 is already on the ledger; another 400 would overshoot 750.
	_, _, err := svc.RecordPayment(context.Background(), agentFinActor, "key-2", ports.RecordPaymentInput{
		ClaimID: "clm-ok", Amount: 400, Method: "internal",
	})
	if !errors.Is(err, domainerrors.ErrOverpayment) {
		t.Fatalf("expected ErrOverpayment, got %v", err)
	}

	if _, _, err := svc.RecordPayment(context.Background(), agentFinActor, "key-3", ports.RecordPaymentInput{
		ClaimID: "clm-ok", Amount: 350, Method: "internal",
	}); err != nil {
		t.Fatalf("remainder payout: %v", err)
	}
	if len(claims.paid) != 1 || claims.paid[0] != "clm-ok" {
		t.Fatalf("expected settlement once payouts reached the approved amount, got %v", claims.paid)
	}

	entries, err := store.ListPayments(context.Background(), ports.PaymentFilter{ClaimID: "clm-ok", Limit: 10})
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected two ledger entries, got %d", len(entries))
	}
}

func TestRecordPremiumCustomerCannotPayForOthers(t *testing.T) {
	svc, _, policies, _ := newFinanceLedger()
	policies.views["pol-9"] = ports.PolicyView{PolicyID: "pol-9", CustomerID: "cust-9", AcceptsPremiums: true, PremiumDueToDate: 100}

	_, _, err := svc.RecordPayment(context.Background(), payerActor, "key-1", ports.RecordPaymentInput{
		PolicyID: "pol-9", Amount: 50, Method: "card",
	})
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRevenueSummaryNetsPremiumsAgainstPayouts(t *testing.T) {
	svc, _, _, _ := newFinanceLedger()

	if _, _, err := svc.RecordPayment(context.Background(), payerActor, "key-1", ports.RecordPaymentInput{
		PolicyID: "pol-1", Amount: 100, Method: "card",
	}); err != nil {
		t.Fatalf("premium: %v", err)
	}
	if _, _, err := svc.RecordPayment(context.Background(), agentFinActor, "key-2", ports.RecordPaymentInput{
		ClaimID: "clm-ok", Amount: 750, Method: "internal",
	}); err != nil {
		t.Fatalf("payout: %v", err)
	}

	summary, err := svc.RevenueSummary(context.Background(), agentFinActor)
	if err != nil {
		t.Fatalf("revenue summary: %v", err)
	}
	if summary.PremiumsCollected != 100 || summary.ClaimsPaidOut != 750 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Net != -650 || summary.PaymentCount != 2 {
		t.Fatalf("unexpected net: %+v", summary)
	}

	if _, err := svc.RevenueSummary(context.Background(), payerActor); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for customer, got %v", err)
	}
}

func TestListPaymentsScopesCustomersToTheirOwn(t *testing.T) {
	svc, _, _, _ := newFinanceLedger()

	if _, _, err := svc.RecordPayment(context.Background(), payerActor, "key-1", ports.RecordPaymentInput{
		PolicyID: "pol-1", Amount: 100, Method: "card",
	}); err != nil {
		t.Fatalf("premium: %v", err)
	}
	if _, _, err := svc.RecordPayment(context.Background(), agentFinActor, "key-2", ports.RecordPaymentInput{
		ClaimID: "clm-ok", Amount: 750, Method: "internal",
	}); err != nil {
		t.Fatalf("payout: %v", err)
	}

	mine, err := svc.ListPayments(context.Background(), payerActor, ports.PaymentFilter{})
	if err != nil {
		t.Fatalf("list as customer: %v", err)
	}
	if len(mine) != 1 || mine[0].PayerID != payerActor.UserID {
		t.Fatalf("customer must only see own payments, got %+v", mine)
	}

	all, err := svc.ListPayments(context.Background(), agentFinActor, ports.PaymentFilter{})
	if err != nil {
		t.Fatalf("list as agent: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("agent should see the whole ledger, got %d", len(all))
	}
}
