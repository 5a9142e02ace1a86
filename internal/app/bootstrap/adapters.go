package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	plansapp "acphealth/contexts/coverage-catalog/plan-catalog/application"
	planserrors "acphealth/contexts/coverage-catalog/plan-catalog/domain/errors"
	plansports "acphealth/contexts/coverage-catalog/plan-catalog/ports"
	paymenterrors "acphealth/contexts/finance-core/payment-ledger/domain/errors"
	paymentports "acphealth/contexts/finance-core/payment-ledger/ports"
	authzapp "acphealth/contexts/identity-access/authorization-service/application"
	authzports "acphealth/contexts/identity-access/authorization-service/ports"
	usersapp "acphealth/contexts/identity-access/user-registry/application"
	dashports "acphealth/contexts/internal-ops/admin-dashboard-service/ports"
	claimsapp "acphealth/contexts/policy-operations/claims-engine/application"
	claimserrors "acphealth/contexts/policy-operations/claims-engine/domain/errors"
	claimsentities "acphealth/contexts/policy-operations/claims-engine/domain/entities"
	claimsports "acphealth/contexts/policy-operations/claims-engine/ports"
	policyapp "acphealth/contexts/policy-operations/policy-ledger/application"
	policyerrors "acphealth/contexts/policy-operations/policy-ledger/domain/errors"
	policyentities "acphealth/contexts/policy-operations/policy-ledger/domain/entities"
	policyports "acphealth/contexts/policy-operations/policy-ledger/ports"
	contractsv1 "acphealth/contracts/gen/events/v1"
	"acphealth/internal/platform/messaging"
	"acphealth/internal/platform/metrics"
)

// Cross-context glue lives here. Bounded contexts never import each other;
// each side sees only its own port and this file translates between them.

type planAuthorizer struct{ authz authzapp.Service }

func (g planAuthorizer) Authorize(ctx context.Context, actor plansports.Actor, action string, resourceType string, resourceOwnerID string) (bool, error) {
	result, err := g.authz.Check(ctx, authzports.CheckInput{
		ActorID:         actor.UserID,
		ActorRole:       actor.Role,
		Action:          action,
		ResourceType:    resourceType,
		ResourceOwnerID: resourceOwnerID,
	})
	if err != nil {
		return false, err
	}
	return result.Allowed, nil
}

type policyAuthorizer struct{ authz authzapp.Service }

func (g policyAuthorizer) Authorize(ctx context.Context, actor policyports.Actor, action string, resourceType string, resourceOwnerID string) (bool, error) {
	result, err := g.authz.Check(ctx, authzports.CheckInput{
		ActorID:         actor.UserID,
		ActorRole:       actor.Role,
		Action:          action,
		ResourceType:    resourceType,
		ResourceOwnerID: resourceOwnerID,
	})
	if err != nil {
		return false, err
	}
	return result.Allowed, nil
}

type claimAuthorizer struct{ authz authzapp.Service }

func (g claimAuthorizer) Authorize(ctx context.Context, actor claimsports.Actor, action string, resourceType string, resourceOwnerID string) (bool, error) {
	result, err := g.authz.Check(ctx, authzports.CheckInput{
		ActorID:         actor.UserID,
		ActorRole:       actor.Role,
		Action:          action,
		ResourceType:    resourceType,
		ResourceOwnerID: resourceOwnerID,
	})
	if err != nil {
		return false, err
	}
	return result.Allowed, nil
}

type paymentAuthorizer struct{ authz authzapp.Service }

func (g paymentAuthorizer) Authorize(ctx context.Context, actor paymentports.Actor, action string, resourceType string, resourceOwnerID string) (bool, error) {
	result, err := g.authz.Check(ctx, authzports.CheckInput{
		ActorID:         actor.UserID,
		ActorRole:       actor.Role,
		Action:          action,
		ResourceType:    resourceType,
		ResourceOwnerID: resourceOwnerID,
	})
	if err != nil {
		return false, err
	}
	return result.Allowed, nil
}

// planSource feeds the policy ledger coverage terms frozen at issuance.
type planSource struct{ plans plansapp.Service }

func (a planSource) SnapshotTerms(ctx context.Context, planID string) (policyports.PlanTerms, error) {
	terms, err := a.plans.SnapshotTerms(ctx, planID)
	if err != nil {
		if errors.Is(err, planserrors.ErrPlanNotFound) || errors.Is(err, planserrors.ErrPlanNotActive) {
			return policyports.PlanTerms{}, fmt.Errorf("%w: %s", policyerrors.ErrPlanNotIssuable, err)
		}
		return policyports.PlanTerms{}, err
	}
	return policyports.PlanTerms{
		PlanID: planID,
		Terms: policyentities.CoverageTerms{
			CoverageLimit:  terms.CoverageLimit,
			Deductible:     terms.Deductible,
			MonthlyPremium: terms.MonthlyPremium,
			AnnualPremium:  terms.AnnualPremium,
			CopayPercent:   terms.CopayPercent,
			MaxOutOfPocket: terms.MaxOutOfPocket,
		},
	}, nil
}

// claimsInspector is late-bound: the policy module is built before the
// claims module, so the service reference lands after construction.
type claimsInspector struct{ claims *claimsapp.Service }

func (a *claimsInspector) HasOpenAdjudication(ctx context.Context, policyID string) (bool, error) {
	if a.claims == nil {
		return false, nil
	}
	return a.claims.HasOpenAdjudication(ctx, policyID)
}

type policyReader struct{ policies policyapp.Service }

func (a policyReader) GetPolicyView(ctx context.Context, policyID string) (claimsports.PolicyView, error) {
	policy, err := a.policies.Snapshot(ctx, policyID)
	if err != nil {
		if errors.Is(err, policyerrors.ErrPolicyNotFound) {
			return claimsports.PolicyView{}, fmt.Errorf("%w: policy not found", claimserrors.ErrPolicyNotCoverable)
		}
		return claimsports.PolicyView{}, err
	}
	return claimsports.PolicyView{
		PolicyID:      policy.PolicyID,
		CustomerID:    policy.CustomerID,
		Active:        policy.Status == policyentities.PolicyStatusActive,
		CoverageLimit: policy.Terms.CoverageLimit,
	}, nil
}

// policyPremiumLedger is the payment ledger's window onto policies: what a
// premium is worth and the activation hook for the first payment. It shares
// the policy module's clock so the due amount matches what the ledger sees.
type policyPremiumLedger struct {
	policies policyapp.Service
	clock    policyports.Clock
}

func (a policyPremiumLedger) GetPolicyView(ctx context.Context, policyID string) (paymentports.PolicyView, error) {
	policy, err := a.policies.Snapshot(ctx, policyID)
	if err != nil {
		if errors.Is(err, policyerrors.ErrPolicyNotFound) {
			return paymentports.PolicyView{}, fmt.Errorf("%w: policy not found", paymenterrors.ErrPolicyNotPayable)
		}
		return paymentports.PolicyView{}, err
	}
	accepts := policy.Status == policyentities.PolicyStatusPending ||
		policy.Status == policyentities.PolicyStatusActive
	return paymentports.PolicyView{
		PolicyID:         policy.PolicyID,
		CustomerID:       policy.CustomerID,
		AcceptsPremiums:  accepts,
		PremiumDueToDate: policy.PremiumDueAsOf(a.now()),
	}, nil
}

func (a policyPremiumLedger) now() time.Time {
	if a.clock == nil {
		return time.Now().UTC()
	}
	return a.clock.Now().UTC()
}

func (a policyPremiumLedger) ActivateOnFirstPremium(ctx context.Context, policyID string) error {
	_, err := a.policies.ActivateOnFirstPremium(ctx, policyID)
	return err
}

type claimPayoutLedger struct {
	claims claimsapp.Service
	repo   claimsports.Repository
}

func (a claimPayoutLedger) GetClaimView(ctx context.Context, claimID string) (paymentports.ClaimView, error) {
	claim, err := a.repo.GetClaim(ctx, claimID)
	if err != nil {
		if errors.Is(err, claimserrors.ErrClaimNotFound) {
			return paymentports.ClaimView{}, fmt.Errorf("%w: claim not found", paymenterrors.ErrClaimNotPayable)
		}
		return paymentports.ClaimView{}, err
	}
	return paymentports.ClaimView{
		ClaimID:        claim.ClaimID,
		PolicyID:       claim.PolicyID,
		CustomerID:     claim.CustomerID,
		Approved:       claim.Status == claimsentities.ClaimStatusApproved,
		AlreadyPaid:    claim.Status == claimsentities.ClaimStatusPaid,
		AmountApproved: claim.AmountApproved,
	}, nil
}

func (a claimPayoutLedger) MarkPaid(ctx context.Context, claimID string) error {
	_, err := a.claims.MarkPaid(ctx, claimID)
	return err
}

type userStatsProvider struct{ users usersapp.Service }

func (a userStatsProvider) UserStats(ctx context.Context) (dashports.UserStats, error) {
	stats, err := a.users.UserStats(ctx)
	if err != nil {
		return dashports.UserStats{}, err
	}
	return dashports.UserStats{
		TotalUsers:  stats.TotalUsers,
		ActiveUsers: stats.ActiveUsers,
		ByRole:      stats.ByRole,
	}, nil
}

type policyStatsProvider struct {
	policies policyapp.Service
	repo     policyports.Repository
}

func (a policyStatsProvider) PolicyStatusCounts(ctx context.Context, customerID string) (map[string]int, error) {
	if customerID == "" {
		counts, err := a.policies.StatusCounts(ctx)
		if err != nil {
			return nil, err
		}
		out := make(map[string]int, len(counts))
		for status, n := range counts {
			out[string(status)] = n
		}
		return out, nil
	}

	policies, err := a.repo.ListPolicies(ctx, policyports.PolicyFilter{CustomerID: customerID, Limit: 500})
	if err != nil {
		return nil, err
	}
	out := make(map[string]int)
	for _, policy := range policies {
		out[string(policy.Status)]++
	}
	return out, nil
}

type claimStatsProvider struct{ repo claimsports.Repository }

func (a claimStatsProvider) ClaimsSummary(ctx context.Context, customerID string) (dashports.ClaimsStats, error) {
	summary, err := a.repo.BuildClaimsSummary(ctx, customerID)
	if err != nil {
		return dashports.ClaimsStats{}, err
	}
	byStatus := make(map[string]int, len(summary.ByStatus))
	for status, n := range summary.ByStatus {
		byStatus[string(status)] = n
	}
	return dashports.ClaimsStats{
		TotalClaims:    summary.TotalClaims,
		ByStatus:       byStatus,
		TotalRequested: summary.TotalRequested,
		TotalApproved:  summary.TotalApproved,
	}, nil
}

type revenueStatsProvider struct{ repo paymentports.Repository }

func (a revenueStatsProvider) RevenueSummary(ctx context.Context) (dashports.RevenueStats, error) {
	summary, err := a.repo.BuildRevenueSummary(ctx)
	if err != nil {
		return dashports.RevenueStats{}, err
	}
	return dashports.RevenueStats{
		PremiumsCollected: summary.PremiumsCollected,
		ClaimsPaidOut:     summary.ClaimsPaidOut,
		Net:               summary.Net,
		PaymentCount:      summary.PaymentCount,
	}, nil
}

// instrumentedPublisher counts relay publishes per module. All module
// envelope types alias the shared contracts envelope, so one wrapper
// satisfies every relay's publisher port.
type instrumentedPublisher struct {
	inner  *messaging.Kafka
	module string
}

func (p instrumentedPublisher) Publish(ctx context.Context, topic string, event contractsv1.Envelope) error {
	if err := p.inner.Publish(ctx, topic, event); err != nil {
		metrics.ObserveOutboxPublish(p.module, "error")
		return err
	}
	metrics.ObserveOutboxPublish(p.module, "published")
	return nil
}
