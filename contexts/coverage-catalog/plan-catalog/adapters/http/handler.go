package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"acphealth/contexts/coverage-catalog/plan-catalog/application"
	"acphealth/contexts/coverage-catalog/plan-catalog/domain/entities"
	"acphealth/contexts/coverage-catalog/plan-catalog/ports"
	httptransport "acphealth/contexts/coverage-catalog/plan-catalog/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) CreatePlanHandler(ctx context.Context, actor ports.Actor, req httptransport.CreatePlanRequest) (httptransport.PlanResponse, error) {
	plan, err := h.Service.CreatePlan(ctx, actor, ports.CreatePlanInput{
		Name:        req.Name,
		PlanType:    req.PlanType,
		Description: req.Description,
		Terms: entities.CoverageTerms{
			CoverageLimit:  req.Terms.CoverageLimit,
			Deductible:     req.Terms.Deductible,
			MonthlyPremium: req.Terms.MonthlyPremium,
			AnnualPremium:  req.Terms.AnnualPremium,
			CopayPercent:   req.Terms.CopayPercent,
			MaxOutOfPocket: req.Terms.MaxOutOfPocket,
		},
		Benefits:   req.Benefits,
		Exclusions: req.Exclusions,
	})
	if err != nil {
		return httptransport.PlanResponse{}, err
	}
	return httptransport.PlanResponse{Status: "success", Data: toDTO(plan)}, nil
}

func (h Handler) ActivatePlanHandler(ctx context.Context, actor ports.Actor, planID string) (httptransport.PlanResponse, error) {
	plan, err := h.Service.ActivatePlan(ctx, actor, planID)
	if err != nil {
		return httptransport.PlanResponse{}, err
	}
	return httptransport.PlanResponse{Status: "success", Data: toDTO(plan)}, nil
}

func (h Handler) RetirePlanHandler(ctx context.Context, actor ports.Actor, planID string) (httptransport.PlanResponse, error) {
	plan, err := h.Service.RetirePlan(ctx, actor, planID)
	if err != nil {
		return httptransport.PlanResponse{}, err
	}
	return httptransport.PlanResponse{Status: "success", Data: toDTO(plan)}, nil
}

func (h Handler) GetPlanHandler(ctx context.Context, actor ports.Actor, planID string) (httptransport.PlanResponse, error) {
	plan, err := h.Service.GetPlan(ctx, actor, planID)
	if err != nil {
		return httptransport.PlanResponse{}, err
	}
	return httptransport.PlanResponse{Status: "success", Data: toDTO(plan)}, nil
}

func (h Handler) ListPlansHandler(ctx context.Context, actor ports.Actor, status string, limit int, offset int) (httptransport.PlanListResponse, error) {
	plans, err := h.Service.ListPlans(ctx, actor, ports.PlanFilter{
		Status: entities.PlanStatus(status),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return httptransport.PlanListResponse{}, err
	}
	resp := httptransport.PlanListResponse{
		Status: "success",
		Data:   make([]httptransport.PlanDTO, 0, len(plans)),
	}
	for _, plan := range plans {
		resp.Data = append(resp.Data, toDTO(plan))
	}
	return resp, nil
}

func toDTO(plan entities.Plan) httptransport.PlanDTO {
	return httptransport.PlanDTO{
		PlanID:      plan.PlanID,
		Name:        plan.Name,
		PlanType:    string(plan.PlanType),
		Description: plan.Description,
		Status:      string(plan.Status),
		Terms: httptransport.CoverageTermsDTO{
			CoverageLimit:  plan.Terms.CoverageLimit,
			Deductible:     plan.Terms.Deductible,
			MonthlyPremium: plan.Terms.MonthlyPremium,
			AnnualPremium:  plan.Terms.AnnualPremium,
			CopayPercent:   plan.Terms.CopayPercent,
			MaxOutOfPocket: plan.Terms.MaxOutOfPocket,
		},
		Benefits:   plan.Benefits,
		Exclusions: plan.Exclusions,
		OwnerID:    plan.OwnerID,
		CreatedAt:  plan.CreatedAt.UTC().Format(time.RFC3339),
	}
}
