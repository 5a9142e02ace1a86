package entities

import (
	"math/rand"
	"testing"
)

// The lifecycle edges the ledger is allowed to take. Expired and cancelled
// have no outgoing edges.
var policyEdges = map[PolicyStatus][]PolicyStatus{
	PolicyStatusPending: {PolicyStatusActive, PolicyStatusCancelled},
	PolicyStatusActive:  {PolicyStatusExpired, PolicyStatusCancelled},
}

func TestPolicyTransitionsStayOnDefinedEdges(t *testing.T) {
	statuses := []PolicyStatus{
		PolicyStatusPending,
		PolicyStatusActive,
		PolicyStatusExpired,
		PolicyStatusCancelled,
	}
	rng := rand.New(rand.NewSource(11))

	for run := 0; run < 500; run++ {
		policy := Policy{Status: PolicyStatusPending}
		for step := 0; step < 10; step++ {
			to := statuses[rng.Intn(len(statuses))]
			allowed := false
			for _, edge := range policyEdges[policy.Status] {
				if edge == to {
					allowed = true
					break
				}
			}
			if got := policy.CanTransition(to); got != allowed {
				t.Fatalf("run %d step %d: %s -> %s reported %v, want %v", run, step, policy.Status, to, got, allowed)
			}
			if allowed {
				policy.Status = to
			}
		}
	}
}

func TestExpiredAndCancelledAreTerminal(t *testing.T) {
	statuses := []PolicyStatus{
		PolicyStatusPending,
		PolicyStatusActive,
		PolicyStatusExpired,
		PolicyStatusCancelled,
	}
	for _, terminal := range []PolicyStatus{PolicyStatusExpired, PolicyStatusCancelled} {
		policy := Policy{Status: terminal}
		for _, to := range statuses {
			if policy.CanTransition(to) {
				t.Fatalf("%s must be terminal, but %s -> %s was allowed", terminal, terminal, to)
			}
		}
	}
}
