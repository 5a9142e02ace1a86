package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"acphealth/contexts/policy-operations/policy-ledger/adapters/memory"
	domainerrors "acphealth/contexts/policy-operations/policy-ledger/domain/errors"
	"acphealth/contexts/policy-operations/policy-ledger/domain/entities"
	"acphealth/contexts/policy-operations/policy-ledger/ports"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

type planStub struct {
	terms entities.CoverageTerms
	err   error
}

func (p planStub) SnapshotTerms(_ context.Context, planID string) (ports.PlanTerms, error) {
	if p.err != nil {
		return ports.PlanTerms{}, p.err
	}
	return ports.PlanTerms{PlanID: planID, Terms: p.terms}, nil
}

type claimsStub struct {
	open bool
}

func (c *claimsStub) HasOpenAdjudication(context.Context, string) (bool, error) {
	return c.open, nil
}

// gateStub mirrors the policy slice of the access rules: staff act on any
// policy, customers only on their own.
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

func standardTerms() entities.CoverageTerms {
	return entities.CoverageTerms{
		CoverageLimit:  50000,
		Deductible:     500,
		MonthlyPremium: 100,
		AnnualPremium:  1100,
		CopayPercent:   20,
		MaxOutOfPocket: 6000,
	}
}

func newLedger(claims *claimsStub) (Service, *memory.Store, *testClock) {
	store := memory.NewStore()
	clock := &testClock{now: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
	svc := Service{
		Repo:   store,
		Plans:  planStub{terms: standardTerms()},
		Claims: claims,
		Authz:  gateStub{},
		Outbox: store,
		Clock:  clock,
		IDGen:  store,
	}
	return svc, store, clock
}

var agentActor = ports.Actor{UserID: "agt-1", Role: "agent"}

func issuePolicy(t *testing.T, svc Service, customerID string, frequency string) entities.Policy {
	t.Helper()
	policy, err := svc.IssuePolicy(context.Background(), agentActor, ports.IssuePolicyInput{
		PlanID:           "plan-1",
		CustomerID:       customerID,
		PaymentFrequency: frequency,
		Beneficiaries:    []entities.Beneficiary{{Name: "Ana", Relation: "spouse"}},
	})
	if err != nil {
		t.Fatalf("issue policy: %v", err)
	}
	return policy
}

func outboxEventTypes(t *testing.T, store *memory.Store) []string {
	t.Helper()
	pending, err := store.ListPendingOutbox(context.Background(), 100)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	types := make([]string, 0, len(pending))
	for _, msg := range pending {
		types = append(types, msg.EventType)
	}
	return types
}

func TestIssuePolicyFreezesTermsAndStartsPending(t *testing.T) {
	svc, store, clock := newLedger(&claimsStub{})
	policy := issuePolicy(t, svc, "cust-1", "monthly")

	if policy.Status != entities.PolicyStatusPending {
		t.Fatalf("expected pending, got %s", policy.Status)
	}
	if policy.Terms != standardTerms() {
		t.Fatalf("terms not frozen: %+v", policy.Terms)
	}
	if policy.PremiumAmount != 100 {
		t.Fatalf("expected monthly installment 100, got %v", policy.PremiumAmount)
	}
	wantExpiry := clock.now.Add(365 * 24 * time.Hour)
	if !policy.ExpiryDate.Equal(wantExpiry) {
		t.Fatalf("expected expiry %v, got %v", wantExpiry, policy.ExpiryDate)
	}
	if policy.PolicyNumber == "" {
		t.Fatalf("expected a policy number")
	}

	types := outboxEventTypes(t, store)
	if len(types) != 1 || types[0] != "policy.issued" {
		t.Fatalf("expected policy.issued in outbox, got %v", types)
	}
}

func TestIssuePolicyAnnualFrequencyUsesAnnualPremium(t *testing.T) {
	svc, _, _ := newLedger(&claimsStub{})
	policy := issuePolicy(t, svc, "cust-1", "annual")
	if policy.PremiumAmount != 1100 {
		t.Fatalf("expected annual installment 1100, got %v", policy.PremiumAmount)
	}
	if policy.TermInstallments() != 1 {
		t.Fatalf("annual policy owes a single installment")
	}
}

func TestIssuePolicyValidation(t *testing.T) {
	svc, _, _ := newLedger(&claimsStub{})

	_, err := svc.IssuePolicy(context.Background(), agentActor, ports.IssuePolicyInput{
		PlanID: "plan-1", CustomerID: "cust-1", PaymentFrequency: "weekly",
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("bad frequency: expected ErrInvalidInput, got %v", err)
	}

	_, err = svc.IssuePolicy(context.Background(), agentActor, ports.IssuePolicyInput{
		PlanID: "plan-1", CustomerID: "cust-1", PaymentFrequency: "monthly",
		Beneficiaries: []entities.Beneficiary{{Name: "  "}},
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("blank beneficiary: expected ErrInvalidInput, got %v", err)
	}
}

func TestIssuePolicyPropagatesPlanNotIssuable(t *testing.T) {
	svc, _, _ := newLedger(&claimsStub{})
	svc.Plans = planStub{err: domainerrors.ErrPlanNotIssuable}

	_, err := svc.IssuePolicy(context.Background(), agentActor, ports.IssuePolicyInput{
		PlanID: "plan-1", CustomerID: "cust-1", PaymentFrequency: "monthly",
	})
	if !errors.Is(err, domainerrors.ErrPlanNotIssuable) {
		t.Fatalf("expected ErrPlanNotIssuable, got %v", err)
	}
}

func TestIssuePolicyCustomerCannotIssueForOthers(t *testing.T) {
	svc, _, _ := newLedger(&claimsStub{})
	_, err := svc.IssuePolicy(context.Background(), ports.Actor{UserID: "cust-1", Role: "customer"}, ports.IssuePolicyInput{
		PlanID: "plan-1", CustomerID: "cust-2", PaymentFrequency: "monthly",
	})
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestActivatePolicyStaffOnly(t *testing.T) {
	svc, store, clock := newLedger(&claimsStub{})
	policy := issuePolicy(t, svc, "cust-1", "monthly")
	clock.now = clock.now.Add(time.Minute)

	_, err := svc.ActivatePolicy(context.Background(), ports.Actor{UserID: "cust-1", Role: "customer"}, policy.PolicyID)
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("customer direct activation: expected ErrForbidden, got %v", err)
	}

	activated, err := svc.ActivatePolicy(context.Background(), agentActor, policy.PolicyID)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if activated.Status != entities.PolicyStatusActive || activated.Version != 2 {
		t.Fatalf("unexpected state after activate: %+v", activated)
	}

	types := outboxEventTypes(t, store)
	if len(types) != 2 || types[1] != "policy.activated" {
		t.Fatalf("expected policy.activated appended, got %v", types)
	}
}

func TestActivateOnFirstPremiumIsIdempotent(t *testing.T) {
	svc, _, _ := newLedger(&claimsStub{})
	policy := issuePolicy(t, svc, "cust-1", "monthly")

	first, err := svc.ActivateOnFirstPremium(context.Background(), policy.PolicyID)
	if err != nil {
		t.Fatalf("first premium activation: %v", err)
	}
	if first.Status != entities.PolicyStatusActive {
		t.Fatalf("expected active, got %s", first.Status)
	}

	again, err := svc.ActivateOnFirstPremium(context.Background(), policy.PolicyID)
	if err != nil {
		t.Fatalf("repeat premium: %v", err)
	}
	if again.Version != first.Version {
		t.Fatalf("repeat premium must not bump version: %d vs %d", again.Version, first.Version)
	}
}

func TestCancelPendingPolicy(t *testing.T) {
	svc, _, _ := newLedger(&claimsStub{open: true})
	policy := issuePolicy(t, svc, "cust-1", "monthly")

	// Open adjudication only blocks cancellation of an active policy.
	cancelled, err := svc.CancelPolicy(context.Background(), ports.Actor{UserID: "cust-1", Role: "customer"}, policy.PolicyID)
	if err != nil {
		t.Fatalf("cancel pending: %v", err)
	}
	if cancelled.Status != entities.PolicyStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
}

func TestCancelActivePolicyBlockedByOpenClaims(t *testing.T) {
	claims := &claimsStub{open: true}
	svc, _, _ := newLedger(claims)
	policy := issuePolicy(t, svc, "cust-1", "monthly")
	if _, err := svc.ActivatePolicy(context.Background(), agentActor, policy.PolicyID); err != nil {
		t.Fatalf("activate: %v", err)
	}

	_, err := svc.CancelPolicy(context.Background(), agentActor, policy.PolicyID)
	if !errors.Is(err, domainerrors.ErrOpenClaims) {
		t.Fatalf("expected ErrOpenClaims, got %v", err)
	}
	if !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("open-claims refusal must read as an invalid transition, got %v", err)
	}

	claims.open = false
	cancelled, err := svc.CancelPolicy(context.Background(), agentActor, policy.PolicyID)
	if err != nil {
		t.Fatalf("cancel after adjudication: %v", err)
	}
	if cancelled.Status != entities.PolicyStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
}

func TestLapsedActivePolicyFoldsToExpiredOnRead(t *testing.T) {
	svc, store, clock := newLedger(&claimsStub{})
	policy := issuePolicy(t, svc, "cust-1", "monthly")
	clock.now = clock.now.Add(time.Minute)
	if _, err := svc.ActivatePolicy(context.Background(), agentActor, policy.PolicyID); err != nil {
		t.Fatalf("activate: %v", err)
	}

	clock.now = clock.now.Add(366 * 24 * time.Hour)
	got, err := svc.GetPolicy(context.Background(), agentActor, policy.PolicyID)
	if err != nil {
		t.Fatalf("get after lapse: %v", err)
	}
	if got.Status != entities.PolicyStatusExpired {
		t.Fatalf("expected expired, got %s", got.Status)
	}

	types := outboxEventTypes(t, store)
	if len(types) != 3 || types[2] != "policy.expired" {
		t.Fatalf("expected policy.expired appended, got %v", types)
	}

	// Terminal: no further transitions.
	if _, err := svc.CancelPolicy(context.Background(), agentActor, policy.PolicyID); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestListPoliciesScopesCustomersToTheirOwn(t *testing.T) {
	svc, _, _ := newLedger(&claimsStub{})
	issuePolicy(t, svc, "cust-1", "monthly")
	issuePolicy(t, svc, "cust-2", "monthly")

	mine, err := svc.ListPolicies(context.Background(), ports.Actor{UserID: "cust-1", Role: "customer"}, ports.PolicyFilter{})
	if err != nil {
		t.Fatalf("list as customer: %v", err)
	}
	if len(mine) != 1 || mine[0].CustomerID != "cust-1" {
		t.Fatalf("customer must only see own policies, got %+v", mine)
	}

	all, err := svc.ListPolicies(context.Background(), agentActor, ports.PolicyFilter{})
	if err != nil {
		t.Fatalf("list as agent: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("agent should see both policies, got %d", len(all))
	}
}

func TestStatusCounts(t *testing.T) {
	svc, _, _ := newLedger(&claimsStub{})
	issuePolicy(t, svc, "cust-1", "monthly")
	active := issuePolicy(t, svc, "cust-2", "monthly")
	if _, err := svc.ActivatePolicy(context.Background(), agentActor, active.PolicyID); err != nil {
		t.Fatalf("activate: %v", err)
	}

	counts, err := svc.StatusCounts(context.Background())
	if err != nil {
		t.Fatalf("status counts: %v", err)
	}
	if counts[entities.PolicyStatusPending] != 1 || counts[entities.PolicyStatusActive] != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}

func TestPremiumDueGrowsWithElapsedMonths(t *testing.T) {
	svc, _, clock := newLedger(&claimsStub{})
	policy := issuePolicy(t, svc, "cust-1", "monthly")
	if _, err := svc.ActivatePolicy(context.Background(), agentActor, policy.PolicyID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	policy, err := svc.Snapshot(context.Background(), policy.PolicyID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	if due := policy.PremiumDueAsOf(clock.now); due != 100 {
		t.Fatalf("at issuance one installment is due, got %v", due)
	}
	threeMonths := clock.now.AddDate(0, 3, 0)
	if due := policy.PremiumDueAsOf(threeMonths); due != 400 {
		t.Fatalf("after three months four installments are due, got %v", due)
	}
	twoYears := clock.now.AddDate(2, 0, 0)
	if due := policy.PremiumDueAsOf(twoYears); due != 1200 {
		t.Fatalf("due premium caps at the term total, got %v", due)
	}
}
