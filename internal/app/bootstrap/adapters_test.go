package bootstrap

import (
	"context"
	"testing"
	"time"

	policymemory "acphealth/contexts/policy-operations/policy-ledger/adapters/memory"
	policyapp "acphealth/contexts/policy-operations/policy-ledger/application"
	policyentities "acphealth/contexts/policy-operations/policy-ledger/domain/entities"
	policyports "acphealth/contexts/policy-operations/policy-ledger/ports"
)

type fixedPolicyClock struct {
	now time.Time
}

func (c *fixedPolicyClock) Now() time.Time {
	return c.now
}

type stubPlanSource struct{}

func (stubPlanSource) SnapshotTerms(_ context.Context, planID string) (policyports.PlanTerms, error) {
	return policyports.PlanTerms{
		PlanID: planID,
		Terms: policyentities.CoverageTerms{
			CoverageLimit:  50000,
			Deductible:     500,
			MonthlyPremium: 100,
			AnnualPremium:  1100,
			CopayPercent:   20,
			MaxOutOfPocket: 6000,
		},
	}, nil
}

type openPolicyGate struct{}

func (openPolicyGate) Authorize(context.Context, policyports.Actor, string, string, string) (bool, error) {
	return true, nil
}

func TestPremiumLedgerAdapterUsesPolicyClock(t *testing.T) {
	store := policymemory.NewStore()
	clock := &fixedPolicyClock{now: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)}
	svc := policyapp.Service{
		Repo:   store,
		Plans:  stubPlanSource{},
		Authz:  openPolicyGate{},
		Outbox: store,
		Clock:  clock,
		IDGen:  store,
	}

	agent := policyports.Actor{UserID: "agt-1", Role: "agent"}
	policy, err := svc.IssuePolicy(context.Background(), agent, policyports.IssuePolicyInput{
		PlanID: "plan-1", CustomerID: "cust-1", PaymentFrequency: "monthly",
	})
	if err != nil {
		t.Fatalf("issue policy: %v", err)
	}
	if _, err := svc.ActivatePolicy(context.Background(), agent, policy.PolicyID); err != nil {
		t.Fatalf("activate: %v", err)
	}

	// Three months into the term four monthly installments are due. The
	// wall clock is years past this fixture, so a drift back to time.Now
	// would report the capped full-term amount instead.
	clock.now = clock.now.AddDate(0, 3, 0)
	adapter := policyPremiumLedger{policies: svc, clock: clock}
	view, err := adapter.GetPolicyView(context.Background(), policy.PolicyID)
	if err != nil {
		t.Fatalf("policy view: %v", err)
	}
	if view.PremiumDueToDate != 400 {
		t.Fatalf("expected 400 due by the module clock, got %v", view.PremiumDueToDate)
	}
}
