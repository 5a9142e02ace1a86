package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"acphealth/contexts/internal-ops/admin-dashboard-service/adapters/memory"
	domainerrors "acphealth/contexts/internal-ops/admin-dashboard-service/domain/errors"
	"acphealth/contexts/internal-ops/admin-dashboard-service/ports"
)

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time {
	return f.now
}

type statsStub struct {
	policyScopes []string
	claimScopes  []string
}

func (s *statsStub) UserStats(context.Context) (ports.UserStats, error) {
	return ports.UserStats{TotalUsers: 10, ActiveUsers: 8, ByRole: map[string]int{"customer": 7}}, nil
}

func (s *statsStub) PolicyStatusCounts(_ context.Context, customerID string) (map[string]int, error) {
	s.policyScopes = append(s.policyScopes, customerID)
	if customerID == "" {
		return map[string]int{"active": 5, "pending": 2}, nil
	}
	return map[string]int{"active": 1}, nil
}

func (s *statsStub) ClaimsSummary(_ context.Context, customerID string) (ports.ClaimsStats, error) {
	s.claimScopes = append(s.claimScopes, customerID)
	if customerID == "" {
		return ports.ClaimsStats{TotalClaims: 12, TotalRequested: 34000}, nil
	}
	return ports.ClaimsStats{TotalClaims: 2, TotalRequested: 900}, nil
}

func (s *statsStub) RevenueSummary(context.Context) (ports.RevenueStats, error) {
	return ports.RevenueStats{PremiumsCollected: 5000, ClaimsPaidOut: 1200, Net: 3800, PaymentCount: 40}, nil
}

var dashNow = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

func newDashboard() (Service, *statsStub, *memory.Store) {
	store := memory.NewStore()
	stats := &statsStub{}
	svc := Service{
		Repo:        store,
		Idempotency: store,
		Users:       stats,
		Policies:    stats,
		Claims:      stats,
		Revenue:     stats,
		Clock:       fixedClock{now: dashNow},
	}
	return svc, stats, store
}

var dashAdmin = ports.Actor{UserID: "adm-1", Role: "admin"}

func TestOverviewBackOfficeSeesWholeBook(t *testing.T) {
	svc, stats, _ := newDashboard()

	overview, err := svc.Overview(context.Background(), dashAdmin)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.Users == nil || overview.Users.TotalUsers != 10 {
		t.Fatalf("expected user stats for admin, got %+v", overview.Users)
	}
	if overview.Revenue == nil || overview.Revenue.Net != 3800 {
		t.Fatalf("expected revenue stats for admin, got %+v", overview.Revenue)
	}
	if overview.PolicyCounts["active"] != 5 {
		t.Fatalf("expected global policy counts, got %+v", overview.PolicyCounts)
	}
	if len(stats.policyScopes) != 1 || stats.policyScopes[0] != "" {
		t.Fatalf("expected unscoped policy query, got %v", stats.policyScopes)
	}
	if !overview.GeneratedAt.Equal(dashNow) {
		t.Fatalf("expected clock timestamp, got %v", overview.GeneratedAt)
	}
}

func TestOverviewCustomerSeesOwnSliceOnly(t *testing.T) {
	svc, stats, _ := newDashboard()

	overview, err := svc.Overview(context.Background(), ports.Actor{UserID: "cust-1", Role: "customer"})
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.Users != nil || overview.Revenue != nil {
		t.Fatalf("customer must not see user or revenue figures: %+v", overview)
	}
	if overview.Claims.TotalClaims != 2 {
		t.Fatalf("expected scoped claim stats, got %+v", overview.Claims)
	}
	if len(stats.claimScopes) != 1 || stats.claimScopes[0] != "cust-1" {
		t.Fatalf("expected claim query scoped to cust-1, got %v", stats.claimScopes)
	}
}

func TestOverviewRejectsProviders(t *testing.T) {
	svc, _, _ := newDashboard()
	_, err := svc.Overview(context.Background(), ports.Actor{UserID: "prov-1", Role: "provider"})
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRecordAdminActionAppendsAuditRow(t *testing.T) {
	svc, _, store := newDashboard()

	row, err := svc.RecordAdminAction(context.Background(), dashAdmin, "key-1", RecordActionInput{
		Action:        "user.deactivate",
		TargetID:      "usr-9",
		Justification: "fraud investigation",
		SourceIP:      "10.0.0.8",
	})
	if err != nil {
		t.Fatalf("record action: %v", err)
	}
	if row.AuditID == "" || row.ActorID != dashAdmin.UserID {
		t.Fatalf("unexpected audit row: %+v", row)
	}

	recent, err := store.ListRecentAuditLogs(context.Background(), 10)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 1 || recent[0].AuditID != row.AuditID {
		t.Fatalf("audit row not persisted: %+v", recent)
	}
}

func TestRecordAdminActionIsAdminOnly(t *testing.T) {
	svc, _, _ := newDashboard()
	_, err := svc.RecordAdminAction(context.Background(), ports.Actor{UserID: "agt-1", Role: "agent"}, "key-1", RecordActionInput{
		Action: "user.deactivate", Justification: "because",
	})
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRecordAdminActionRequiresKeyAndJustification(t *testing.T) {
	svc, _, _ := newDashboard()

	_, err := svc.RecordAdminAction(context.Background(), dashAdmin, "", RecordActionInput{
		Action: "user.deactivate", Justification: "fraud",
	})
	if !errors.Is(err, domainerrors.ErrIdempotencyRequired) {
		t.Fatalf("expected ErrIdempotencyRequired, got %v", err)
	}

	_, err = svc.RecordAdminAction(context.Background(), dashAdmin, "key-1", RecordActionInput{
		Action: "user.deactivate",
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRecordAdminActionReplayReturnsOriginalRow(t *testing.T) {
	svc, _, store := newDashboard()
	input := RecordActionInput{Action: "plan.retire", TargetID: "plan-1", Justification: "obsolete"}

	first, err := svc.RecordAdminAction(context.Background(), dashAdmin, "key-1", input)
	if err != nil {
		t.Fatalf("first record: %v", err)
	}
	second, err := svc.RecordAdminAction(context.Background(), dashAdmin, "key-1", input)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if second.AuditID != first.AuditID {
		t.Fatalf("replay minted a new audit row: %s vs %s", second.AuditID, first.AuditID)
	}

	recent, err := store.ListRecentAuditLogs(context.Background(), 10)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected a single audit row, got %d", len(recent))
	}
}

func TestRecordAdminActionSameKeyDifferentPayloadConflicts(t *testing.T) {
	svc, _, _ := newDashboard()

	if _, err := svc.RecordAdminAction(context.Background(), dashAdmin, "key-1", RecordActionInput{
		Action: "plan.retire", TargetID: "plan-1", Justification: "obsolete",
	}); err != nil {
		t.Fatalf("first record: %v", err)
	}

	_, err := svc.RecordAdminAction(context.Background(), dashAdmin, "key-1", RecordActionInput{
		Action: "plan.retire", TargetID: "plan-2", Justification: "obsolete",
	})
	if !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected ErrIdempotencyConflict, got %v", err)
	}
}

func TestListRecentActionsClampsLimitAndGates(t *testing.T) {
	svc, _, _ := newDashboard()

	if _, err := svc.ListRecentActions(context.Background(), ports.Actor{UserID: "agt-1", Role: "agent"}, 10); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for agent, got %v", err)
	}

	if _, err := svc.RecordAdminAction(context.Background(), dashAdmin, "key-1", RecordActionInput{
		Action: "plan.retire", TargetID: "plan-1", Justification: "obsolete",
	}); err != nil {
		t.Fatalf("record: %v", err)
	}

	rows, err := svc.ListRecentActions(context.Background(), dashAdmin, -5)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one row with defaulted limit, got %d", len(rows))
	}
}
