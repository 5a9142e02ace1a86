package application

import (
	"context"
	"errors"
	"testing"

	"acphealth/contexts/coverage-catalog/plan-catalog/adapters/memory"
	domainerrors "acphealth/contexts/coverage-catalog/plan-catalog/domain/errors"
	"acphealth/contexts/coverage-catalog/plan-catalog/domain/entities"
	"acphealth/contexts/coverage-catalog/plan-catalog/ports"
)

// gateStub mirrors the catalog slice of the access rules: staff can do
// everything, everyone else is read-only.
type gateStub struct{}

func (gateStub) Authorize(_ context.Context, actor ports.Actor, action string, _ string, _ string) (bool, error) {
	if actor.Role == "admin" || actor.Role == "agent" {
		return true, nil
	}
	return action == "read", nil
}

func newCatalog() Service {
	store := memory.NewStore()
	return Service{
		Repo:  store,
		Authz: gateStub{},
		Clock: store,
		IDGen: store,
	}
}

func validTerms() entities.CoverageTerms {
	return entities.CoverageTerms{
		CoverageLimit:  50000,
		Deductible:     500,
		MonthlyPremium: 120,
		AnnualPremium:  1300,
		CopayPercent:   20,
		MaxOutOfPocket: 6000,
	}
}

func createPlan(t *testing.T, svc Service, actor ports.Actor) entities.Plan {
	t.Helper()
	plan, err := svc.CreatePlan(context.Background(), actor, ports.CreatePlanInput{
		Name:     "Standard Care",
		PlanType: "standard",
		Terms:    validTerms(),
		Benefits: []string{"primary care", "emergency"},
	})
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	return plan
}

var adminActor = ports.Actor{UserID: "adm-1", Role: "admin"}

func TestCreatePlanStartsAsDraft(t *testing.T) {
	svc := newCatalog()
	plan := createPlan(t, svc, adminActor)
	if plan.Status != entities.PlanStatusDraft {
		t.Fatalf("expected draft, got %s", plan.Status)
	}
	if plan.Version != 1 {
		t.Fatalf("expected version 1, got %d", plan.Version)
	}
	if plan.OwnerID != adminActor.UserID {
		t.Fatalf("expected owner %s, got %s", adminActor.UserID, plan.OwnerID)
	}
}

func TestCreatePlanValidatesTypeAndTerms(t *testing.T) {
	svc := newCatalog()

	_, err := svc.CreatePlan(context.Background(), adminActor, ports.CreatePlanInput{
		Name: "Mystery", PlanType: "platinum", Terms: validTerms(),
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("unknown type: expected ErrInvalidInput, got %v", err)
	}

	badTerms := validTerms()
	badTerms.MonthlyPremium = 0
	_, err = svc.CreatePlan(context.Background(), adminActor, ports.CreatePlanInput{
		Name: "Free Lunch", PlanType: "basic", Terms: badTerms,
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("zero premium: expected ErrInvalidInput, got %v", err)
	}
}

func TestCreatePlanDeniedForCustomers(t *testing.T) {
	svc := newCatalog()
	_, err := svc.CreatePlan(context.Background(), ports.Actor{UserID: "cust-1", Role: "customer"}, ports.CreatePlanInput{
		Name: "Standard Care", PlanType: "standard", Terms: validTerms(),
	})
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestPlanLifecycleDraftActiveRetired(t *testing.T) {
	svc := newCatalog()
	plan := createPlan(t, svc, adminActor)

	activated, err := svc.ActivatePlan(context.Background(), adminActor, plan.PlanID)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if activated.Status != entities.PlanStatusActive || activated.Version != 2 {
		t.Fatalf("unexpected state after activate: %+v", activated)
	}

	retired, err := svc.RetirePlan(context.Background(), adminActor, plan.PlanID)
	if err != nil {
		t.Fatalf("retire: %v", err)
	}
	if retired.Status != entities.PlanStatusRetired {
		t.Fatalf("expected retired, got %s", retired.Status)
	}

	// Retirement is terminal.
	if _, err := svc.ActivatePlan(context.Background(), adminActor, plan.PlanID); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestRetirePlanIsAdminOnly(t *testing.T) {
	svc := newCatalog()
	plan := createPlan(t, svc, adminActor)
	if _, err := svc.ActivatePlan(context.Background(), adminActor, plan.PlanID); err != nil {
		t.Fatalf("activate: %v", err)
	}

	_, err := svc.RetirePlan(context.Background(), ports.Actor{UserID: "agt-1", Role: "agent"}, plan.PlanID)
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for agent, got %v", err)
	}
}

func TestSnapshotTermsOnlyForActivePlans(t *testing.T) {
	svc := newCatalog()
	plan := createPlan(t, svc, adminActor)

	if _, err := svc.SnapshotTerms(context.Background(), plan.PlanID); !errors.Is(err, domainerrors.ErrPlanNotActive) {
		t.Fatalf("draft: expected ErrPlanNotActive, got %v", err)
	}

	if _, err := svc.ActivatePlan(context.Background(), adminActor, plan.PlanID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	terms, err := svc.SnapshotTerms(context.Background(), plan.PlanID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if terms != validTerms() {
		t.Fatalf("terms drifted: %+v", terms)
	}

	if _, err := svc.RetirePlan(context.Background(), adminActor, plan.PlanID); err != nil {
		t.Fatalf("retire: %v", err)
	}
	if _, err := svc.SnapshotTerms(context.Background(), plan.PlanID); !errors.Is(err, domainerrors.ErrPlanNotActive) {
		t.Fatalf("retired: expected ErrPlanNotActive, got %v", err)
	}
}

func TestSnapshotTermsUnknownPlan(t *testing.T) {
	svc := newCatalog()
	if _, err := svc.SnapshotTerms(context.Background(), "missing"); !errors.Is(err, domainerrors.ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}
}

func TestListPlansHidesNonActiveFromCustomers(t *testing.T) {
	svc := newCatalog()
	draft := createPlan(t, svc, adminActor)
	active := createPlan(t, svc, adminActor)
	if _, err := svc.ActivatePlan(context.Background(), adminActor, active.PlanID); err != nil {
		t.Fatalf("activate: %v", err)
	}

	customer := ports.Actor{UserID: "cust-1", Role: "customer"}
	visible, err := svc.ListPlans(context.Background(), customer, ports.PlanFilter{})
	if err != nil {
		t.Fatalf("list as customer: %v", err)
	}
	if len(visible) != 1 || visible[0].PlanID != active.PlanID {
		t.Fatalf("customer should see only the active plan, got %+v", visible)
	}

	all, err := svc.ListPlans(context.Background(), adminActor, ports.PlanFilter{})
	if err != nil {
		t.Fatalf("list as admin: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("admin should see both plans (draft %s), got %d", draft.PlanID, len(all))
	}
}
