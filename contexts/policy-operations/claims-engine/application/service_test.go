package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"acphealth/contexts/policy-operations/claims-engine/adapters/memory"
	domainerrors "acphealth/contexts/policy-operations/claims-engine/domain/errors"
	"acphealth/contexts/policy-operations/claims-engine/domain/entities"
	"acphealth/contexts/policy-operations/claims-engine/ports"
)

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time {
	return f.now
}

type policyReaderStub struct {
	views map[string]ports.PolicyView
}

func (p policyReaderStub) GetPolicyView(_ context.Context, policyID string) (ports.PolicyView, error) {
	view, ok := p.views[policyID]
	if !ok {
		return ports.PolicyView{}, fmt.Errorf("%w: policy not found", domainerrors.ErrPolicyNotCoverable)
	}
	return view, nil
}

// gateStub mirrors the claim slice of the access rules: staff act anywhere,
// customers only on their own claims.
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
	adjudicator = ports.Actor{UserID: "agt-1", Role: "agent"}
	claimant    = ports.Actor{UserID: "cust-1", Role: "customer"}
	claimsNow   = time.Date(2026, 4, 10, 10, 0, 0, 0, time.UTC)
)

func newEngine() (Service, *memory.Store) {
	store := memory.NewStore()
	svc := Service{
		Repo: store,
		Policies: policyReaderStub{views: map[string]ports.PolicyView{
			"pol-1": {PolicyID: "pol-1", CustomerID: "cust-1", Active: true, CoverageLimit: 10000},
			"pol-2": {PolicyID: "pol-2", CustomerID: "cust-2", Active: false, CoverageLimit: 10000},
		}},
		Authz:  gateStub{},
		Outbox: store,
		Clock:  fixedClock{now: claimsNow},
		IDGen:  store,
	}
	return svc, store
}

func fileClaim(t *testing.T, svc Service, actor ports.Actor, amount float64) entities.Claim {
	t.Helper()
	claim, err := svc.FileClaim(context.Background(), actor, ports.FileClaimInput{
		PolicyID:     "pol-1",
		ProviderName: "City Clinic",
		ServiceDate:  claimsNow.AddDate(0, 0, -3),
		Amount:       amount,
	})
	if err != nil {
		t.Fatalf("file claim: %v", err)
	}
	return claim
}

func TestFileClaimStartsSubmitted(t *testing.T) {
	svc, _ := newEngine()
	claim := fileClaim(t, svc, claimant, 1200)
	if claim.Status != entities.ClaimStatusSubmitted {
		t.Fatalf("expected submitted, got %s", claim.Status)
	}
	if claim.CustomerID != "cust-1" {
		t.Fatalf("claim must inherit the policy's customer, got %s", claim.CustomerID)
	}
	if claim.ClaimNumber == "" {
		t.Fatalf("expected a claim number")
	}
}

func TestFileClaimValidation(t *testing.T) {
	svc, _ := newEngine()

	_, err := svc.FileClaim(context.Background(), claimant, ports.FileClaimInput{
		PolicyID: "pol-1", ProviderName: "City Clinic", ServiceDate: claimsNow.AddDate(0, 0, -1), Amount: 0,
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("zero amount: expected ErrInvalidInput, got %v", err)
	}

	_, err = svc.FileClaim(context.Background(), claimant, ports.FileClaimInput{
		PolicyID: "pol-1", ProviderName: "City Clinic", ServiceDate: claimsNow.AddDate(0, 0, 2), Amount: 100,
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("future service date: expected ErrInvalidInput, got %v", err)
	}
}

func TestFileClaimRejectsInactivePolicy(t *testing.T) {
	svc, _ := newEngine()
	_, err := svc.FileClaim(context.Background(), ports.Actor{UserID: "cust-2", Role: "customer"}, ports.FileClaimInput{
		PolicyID: "pol-2", ProviderName: "City Clinic", ServiceDate: claimsNow.AddDate(0, 0, -1), Amount: 100,
	})
	if !errors.Is(err, domainerrors.ErrPolicyNotCoverable) {
		t.Fatalf("expected ErrPolicyNotCoverable, got %v", err)
	}
}

func TestFileClaimRejectsAmountBeyondCoverage(t *testing.T) {
	svc, _ := newEngine()
	_, err := svc.FileClaim(context.Background(), claimant, ports.FileClaimInput{
		PolicyID: "pol-1", ProviderName: "City Clinic", ServiceDate: claimsNow.AddDate(0, 0, -1), Amount: 10001,
	})
	if !errors.Is(err, domainerrors.ErrCoverageExceeded) {
		t.Fatalf("expected ErrCoverageExceeded, got %v", err)
	}
}

func TestFileClaimCustomerCannotFileOnOthersPolicy(t *testing.T) {
	svc, _ := newEngine()
	_, err := svc.FileClaim(context.Background(), ports.Actor{UserID: "cust-9", Role: "customer"}, ports.FileClaimInput{
		PolicyID: "pol-1", ProviderName: "City Clinic", ServiceDate: claimsNow.AddDate(0, 0, -1), Amount: 100,
	})
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestFileClaimRecordsFilingProvider(t *testing.T) {
	svc, _ := newEngine()
	svc.Authz = allowAll{}
	claim, err := svc.FileClaim(context.Background(), ports.Actor{UserID: "prov-1", Role: "provider"}, ports.FileClaimInput{
		PolicyID:     "pol-1",
		ProviderName: "City Clinic",
		ServiceDate:  claimsNow.AddDate(0, 0, -3),
		Amount:       500,
	})
	if err != nil {
		t.Fatalf("file claim: %v", err)
	}
	if claim.ProviderID != "prov-1" {
		t.Fatalf("expected filing provider recorded, got %q", claim.ProviderID)
	}
}

type allowAll struct{}

func (allowAll) Authorize(context.Context, ports.Actor, string, string, string) (bool, error) {
	return true, nil
}

func TestAdjudicationHappyPath(t *testing.T) {
	svc, store := newEngine()
	claim := fileClaim(t, svc, claimant, 2000)

	// Distinct timestamps keep the outbox in adjudication order.
	svc.Clock = fixedClock{now: claimsNow.Add(time.Minute)}
	reviewed, err := svc.ReviewClaim(context.Background(), adjudicator, claim.ClaimID)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != entities.ClaimStatusUnderReview || reviewed.ReviewerID != adjudicator.UserID {
		t.Fatalf("unexpected state after review: %+v", reviewed)
	}

	svc.Clock = fixedClock{now: claimsNow.Add(2 * time.Minute)}
	approved, err := svc.ApproveClaim(context.Background(), adjudicator, claim.ClaimID, 1500)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != entities.ClaimStatusApproved || approved.AmountApproved != 1500 {
		t.Fatalf("unexpected state after approve: %+v", approved)
	}

	svc.Clock = fixedClock{now: claimsNow.Add(3 * time.Minute)}
	paid, err := svc.MarkPaid(context.Background(), claim.ClaimID)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.Status != entities.ClaimStatusPaid {
		t.Fatalf("expected paid, got %s", paid.Status)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 100)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	want := []string{"claim.filed", "claim.review_started", "claim.approved", "claim.paid"}
	if len(pending) != len(want) {
		t.Fatalf("expected %d outbox events, got %d", len(want), len(pending))
	}
	for i, msg := range pending {
		if msg.EventType != want[i] {
			t.Fatalf("outbox event %d: got %s, want %s", i, msg.EventType, want[i])
		}
	}
}

func TestApproveDefaultsToRequestedAmount(t *testing.T) {
	svc, _ := newEngine()
	claim := fileClaim(t, svc, claimant, 2000)
	if _, err := svc.ReviewClaim(context.Background(), adjudicator, claim.ClaimID); err != nil {
		t.Fatalf("review: %v", err)
	}

	approved, err := svc.ApproveClaim(context.Background(), adjudicator, claim.ClaimID, 0)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.AmountApproved != 2000 {
		t.Fatalf("expected approved amount 2000, got %v", approved.AmountApproved)
	}
}

func TestApproveCannotExceedRequestedAmount(t *testing.T) {
	svc, _ := newEngine()
	claim := fileClaim(t, svc, claimant, 2000)
	if _, err := svc.ReviewClaim(context.Background(), adjudicator, claim.ClaimID); err != nil {
		t.Fatalf("review: %v", err)
	}

	_, err := svc.ApproveClaim(context.Background(), adjudicator, claim.ClaimID, 2500)
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestApprovedClaimsConsumeCoverage(t *testing.T) {
	svc, _ := newEngine()

	first := fileClaim(t, svc, claimant, 8000)
	if _, err := svc.ReviewClaim(context.Background(), adjudicator, first.ClaimID); err != nil {
		t.Fatalf("review: %v", err)
	}
	if _, err := svc.ApproveClaim(context.Background(), adjudicator, first.ClaimID, 8000); err != nil {
		t.Fatalf("approve: %v", err)
	}

	remaining, err := svc.RemainingCoverage(context.Background(), "pol-1")
	if err != nil {
		t.Fatalf("remaining coverage: %v", err)
	}
	if remaining != 2000 {
		t.Fatalf("expected 2000 remaining, got %v", remaining)
	}

	// Filing beyond the remaining coverage fails even though the limit
	// itself would allow it.
	_, err = svc.FileClaim(context.Background(), claimant, ports.FileClaimInput{
		PolicyID: "pol-1", ProviderName: "City Clinic", ServiceDate: claimsNow.AddDate(0, 0, -1), Amount: 2500,
	})
	if !errors.Is(err, domainerrors.ErrCoverageExceeded) {
		t.Fatalf("expected ErrCoverageExceeded on file, got %v", err)
	}

	// A claim filed earlier can still be blocked at approval time.
	second := fileClaim(t, svc, claimant, 2000)
	if _, err := svc.ReviewClaim(context.Background(), adjudicator, second.ClaimID); err != nil {
		t.Fatalf("review: %v", err)
	}
	third := fileClaim(t, svc, claimant, 1500)
	if _, err := svc.ReviewClaim(context.Background(), adjudicator, third.ClaimID); err != nil {
		t.Fatalf("review: %v", err)
	}
	if _, err := svc.ApproveClaim(context.Background(), adjudicator, second.ClaimID, 2000); err != nil {
		t.Fatalf("approve second: %v", err)
	}
	if _, err := svc.ApproveClaim(context.Background(), adjudicator, third.ClaimID, 1500); !errors.Is(err, domainerrors.ErrCoverageExceeded) {
		t.Fatalf("expected ErrCoverageExceeded at approval, got %v", err)
	}
}

func TestDenyRequiresReason(t *testing.T) {
	svc, _ := newEngine()
	claim := fileClaim(t, svc, claimant, 2000)
	if _, err := svc.ReviewClaim(context.Background(), adjudicator, claim.ClaimID); err != nil {
		t.Fatalf("review: %v", err)
	}

	if _, err := svc.DenyClaim(context.Background(), adjudicator, claim.ClaimID, "  "); !errors.Is(err, domainerrors.ErrReasonRequired) {
		t.Fatalf("expected ErrReasonRequired, got %v", err)
	}

	denied, err := svc.DenyClaim(context.Background(), adjudicator, claim.ClaimID, "service not covered")
	if err != nil {
		t.Fatalf("deny: %v", err)
	}
	if denied.Status != entities.ClaimStatusDenied || denied.DenialReason != "service not covered" {
		t.Fatalf("unexpected state after deny: %+v", denied)
	}

	// Denied is terminal.
	if _, err := svc.ReviewClaim(context.Background(), adjudicator, claim.ClaimID); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCustomersCannotAdjudicate(t *testing.T) {
	svc, _ := newEngine()
	claim := fileClaim(t, svc, claimant, 2000)

	if _, err := svc.ReviewClaim(context.Background(), claimant, claim.ClaimID); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("review: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.ApproveClaim(context.Background(), claimant, claim.ClaimID, 0); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("approve: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.DenyClaim(context.Background(), claimant, claim.ClaimID, "nope"); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("deny: expected ErrForbidden, got %v", err)
	}
}

func TestMarkPaidRequiresApprovedClaim(t *testing.T) {
	svc, _ := newEngine()
	claim := fileClaim(t, svc, claimant, 2000)

	if _, err := svc.MarkPaid(context.Background(), claim.ClaimID); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestHasOpenAdjudicationTracksLifecycle(t *testing.T) {
	svc, _ := newEngine()
	claim := fileClaim(t, svc, claimant, 4000)

	open, err := svc.HasOpenAdjudication(context.Background(), "pol-1")
	if err != nil || open {
		t.Fatalf("submitted claim must not block, got open=%v err=%v", open, err)
	}

	if _, err := svc.ReviewClaim(context.Background(), adjudicator, claim.ClaimID); err != nil {
		t.Fatalf("review: %v", err)
	}
	open, err = svc.HasOpenAdjudication(context.Background(), "pol-1")
	if err != nil || !open {
		t.Fatalf("claim under review must block, got open=%v err=%v", open, err)
	}

	if _, err := svc.ApproveClaim(context.Background(), adjudicator, claim.ClaimID, 4000); err != nil {
		t.Fatalf("approve: %v", err)
	}
	open, err = svc.HasOpenAdjudication(context.Background(), "pol-1")
	if err != nil || !open {
		t.Fatalf("approved unpaid claim must block, got open=%v err=%v", open, err)
	}

	if _, err := svc.MarkPaid(context.Background(), claim.ClaimID); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	open, err = svc.HasOpenAdjudication(context.Background(), "pol-1")
	if err != nil || open {
		t.Fatalf("paid claim must not block, got open=%v err=%v", open, err)
	}
}

func TestDenyRequiresPriorReview(t *testing.T) {
	svc, _ := newEngine()
	claim := fileClaim(t, svc, claimant, 600)

	if _, err := svc.DenyClaim(context.Background(), adjudicator, claim.ClaimID, "service not covered"); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for submitted claim, got %v", err)
	}
}

func TestReviewRequiresActivePolicy(t *testing.T) {
	svc, _ := newEngine()
	views := map[string]ports.PolicyView{
		"pol-1": {PolicyID: "pol-1", CustomerID: "cust-1", Active: true, CoverageLimit: 10000},
	}
	svc.Policies = policyReaderStub{views: views}
	claim := fileClaim(t, svc, claimant, 800)

	// The policy lapses between filing and review.
	view := views["pol-1"]
	view.Active = false
	views["pol-1"] = view

	if _, err := svc.ReviewClaim(context.Background(), adjudicator, claim.ClaimID); !errors.Is(err, domainerrors.ErrPolicyNotCoverable) {
		t.Fatalf("expected ErrPolicyNotCoverable, got %v", err)
	}
}

func TestSummaryScopesCustomersToTheirOwn(t *testing.T) {
	svc, _ := newEngine()
	fileClaim(t, svc, claimant, 2000)
	fileClaim(t, svc, claimant, 500)

	summary, err := svc.Summary(context.Background(), claimant)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TotalClaims != 2 || summary.TotalRequested != 2500 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.ByStatus[entities.ClaimStatusSubmitted] != 2 {
		t.Fatalf("unexpected status counts: %+v", summary.ByStatus)
	}

	other, err := svc.Summary(context.Background(), ports.Actor{UserID: "cust-9", Role: "customer"})
	if err != nil {
		t.Fatalf("summary for stranger: %v", err)
	}
	if other.TotalClaims != 0 {
		t.Fatalf("stranger should see an empty book, got %+v", other)
	}
}
