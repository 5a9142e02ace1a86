package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"acphealth/contexts/policy-operations/policy-ledger/application"
	domainerrors "acphealth/contexts/policy-operations/policy-ledger/domain/errors"
	"acphealth/contexts/policy-operations/policy-ledger/domain/entities"
	"acphealth/contexts/policy-operations/policy-ledger/ports"
	httptransport "acphealth/contexts/policy-operations/policy-ledger/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) IssuePolicyHandler(ctx context.Context, actor ports.Actor, req httptransport.IssuePolicyRequest) (httptransport.PolicyResponse, error) {
	var effective time.Time
	if req.EffectiveDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.EffectiveDate)
		if err != nil {
			parsed, err = time.Parse("2006-01-02", req.EffectiveDate)
			if err != nil {
				return httptransport.PolicyResponse{}, domainerrors.ErrInvalidInput
			}
		}
		effective = parsed
	}

	beneficiaries := make([]entities.Beneficiary, 0, len(req.Beneficiaries))
	for _, b := range req.Beneficiaries {
		beneficiaries = append(beneficiaries, entities.Beneficiary{
			Name:     b.Name,
			Relation: b.Relation,
		})
	}

	policy, err := h.Service.IssuePolicy(ctx, actor, ports.IssuePolicyInput{
		PlanID:           req.PlanID,
		CustomerID:       req.CustomerID,
		PaymentFrequency: req.PaymentFrequency,
		EffectiveDate:    effective,
		Beneficiaries:    beneficiaries,
	})
	if err != nil {
		return httptransport.PolicyResponse{}, err
	}
	return httptransport.PolicyResponse{Status: "success", Data: toDTO(policy)}, nil
}

func (h Handler) ActivatePolicyHandler(ctx context.Context, actor ports.Actor, policyID string) (httptransport.PolicyResponse, error) {
	policy, err := h.Service.ActivatePolicy(ctx, actor, policyID)
	if err != nil {
		return httptransport.PolicyResponse{}, err
	}
	return httptransport.PolicyResponse{Status: "success", Data: toDTO(policy)}, nil
}

func (h Handler) CancelPolicyHandler(ctx context.Context, actor ports.Actor, policyID string) (httptransport.PolicyResponse, error) {
	policy, err := h.Service.CancelPolicy(ctx, actor, policyID)
	if err != nil {
		return httptransport.PolicyResponse{}, err
	}
	return httptransport.PolicyResponse{Status: "success", Data: toDTO(policy)}, nil
}

func (h Handler) GetPolicyHandler(ctx context.Context, actor ports.Actor, policyID string) (httptransport.PolicyResponse, error) {
	policy, err := h.Service.GetPolicy(ctx, actor, policyID)
	if err != nil {
		return httptransport.PolicyResponse{}, err
	}
	return httptransport.PolicyResponse{Status: "success", Data: toDTO(policy)}, nil
}

func (h Handler) ListPoliciesHandler(ctx context.Context, actor ports.Actor, customerID string, status string, limit int, offset int) (httptransport.PolicyListResponse, error) {
	policies, err := h.Service.ListPolicies(ctx, actor, ports.PolicyFilter{
		CustomerID: customerID,
		Status:     entities.PolicyStatus(status),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return httptransport.PolicyListResponse{}, err
	}
	resp := httptransport.PolicyListResponse{
		Status: "success",
		Data:   make([]httptransport.PolicyDTO, 0, len(policies)),
	}
	for _, policy := range policies {
		resp.Data = append(resp.Data, toDTO(policy))
	}
	return resp, nil
}

func toDTO(policy entities.Policy) httptransport.PolicyDTO {
	beneficiaries := make([]httptransport.BeneficiaryDTO, 0, len(policy.Beneficiaries))
	for _, b := range policy.Beneficiaries {
		beneficiaries = append(beneficiaries, httptransport.BeneficiaryDTO{
			Name:     b.Name,
			Relation: b.Relation,
		})
	}
	return httptransport.PolicyDTO{
		PolicyID:         policy.PolicyID,
		PolicyNumber:     policy.PolicyNumber,
		PlanID:           policy.PlanID,
		CustomerID:       policy.CustomerID,
		Status:           string(policy.Status),
		Terms: httptransport.CoverageTermsDTO{
			CoverageLimit:  policy.Terms.CoverageLimit,
			Deductible:     policy.Terms.Deductible,
			MonthlyPremium: policy.Terms.MonthlyPremium,
			AnnualPremium:  policy.Terms.AnnualPremium,
			CopayPercent:   policy.Terms.CopayPercent,
			MaxOutOfPocket: policy.Terms.MaxOutOfPocket,
		},
		PaymentFrequency: string(policy.PaymentFrequency),
		PremiumAmount:    policy.PremiumAmount,
		EffectiveDate:    policy.EffectiveDate.UTC().Format(time.RFC3339),
		ExpiryDate:       policy.ExpiryDate.UTC().Format(time.RFC3339),
		Beneficiaries:    beneficiaries,
		CreatedAt:        policy.CreatedAt.UTC().Format(time.RFC3339),
	}
}
