package entities

import (
	"math/rand"
	"testing"
)

// The lifecycle edges the engine is allowed to take. Anything outside this
// table must be refused no matter how the claim got to its current status.
var claimEdges = map[ClaimStatus][]ClaimStatus{
	ClaimStatusSubmitted:   {ClaimStatusUnderReview},
	ClaimStatusUnderReview: {ClaimStatusApproved, ClaimStatusDenied},
	ClaimStatusApproved:    {ClaimStatusPaid},
}

func TestClaimTransitionsStayOnDefinedEdges(t *testing.T) {
	statuses := []ClaimStatus{
		ClaimStatusSubmitted,
		ClaimStatusUnderReview,
		ClaimStatusApproved,
		ClaimStatusDenied,
		ClaimStatusPaid,
	}
	rng := rand.New(rand.NewSource(7))

	for run := 0; run < 500; run++ {
		claim := Claim{Status: ClaimStatusSubmitted}
		for step := 0; step < 12; step++ {
			to := statuses[rng.Intn(len(statuses))]
			allowed := false
			for _, edge := range claimEdges[claim.Status] {
				if edge == to {
					allowed = true
					break
				}
			}
			if got := claim.CanTransition(to); got != allowed {
				t.Fatalf("run %d step %d: %s -> %s reported %v, want %v", run, step, claim.Status, to, got, allowed)
			}
			if allowed {
				claim.Status = to
			}
		}
	}
}

func TestDeniedAndPaidAreTerminal(t *testing.T) {
	statuses := []ClaimStatus{
		ClaimStatusSubmitted,
		ClaimStatusUnderReview,
		ClaimStatusApproved,
		ClaimStatusDenied,
		ClaimStatusPaid,
	}
	for _, terminal := range []ClaimStatus{ClaimStatusDenied, ClaimStatusPaid} {
		claim := Claim{Status: terminal}
		for _, to := range statuses {
			if claim.CanTransition(to) {
				t.Fatalf("%s must be terminal, but %s -> %s was allowed", terminal, terminal, to)
			}
		}
	}
}
