package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"acphealth/contexts/policy-operations/claims-engine/application"
	domainerrors "acphealth/contexts/policy-operations/claims-engine/domain/errors"
	"acphealth/contexts/policy-operations/claims-engine/domain/entities"
	"acphealth/contexts/policy-operations/claims-engine/ports"
	httptransport "acphealth/contexts/policy-operations/claims-engine/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) FileClaimHandler(ctx context.Context, actor ports.Actor, req httptransport.FileClaimRequest) (httptransport.ClaimResponse, error) {
	serviceDate, err := time.Parse(time.RFC3339, req.ServiceDate)
	if err != nil {
		serviceDate, err = time.Parse("2006-01-02", req.ServiceDate)
		if err != nil {
			return httptransport.ClaimResponse{}, domainerrors.ErrInvalidInput
		}
	}

	claim, err := h.Service.FileClaim(ctx, actor, ports.FileClaimInput{
		PolicyID:      req.PolicyID,
		ProviderName:  req.ProviderName,
		ServiceDate:   serviceDate,
		DiagnosisCode: req.DiagnosisCode,
		ProcedureCode: req.ProcedureCode,
		Description:   req.Description,
		Amount:        req.Amount,
	})
	if err != nil {
		return httptransport.ClaimResponse{}, err
	}
	return httptransport.ClaimResponse{Status: "success", Data: toDTO(claim)}, nil
}

func (h Handler) ReviewClaimHandler(ctx context.Context, actor ports.Actor, claimID string) (httptransport.ClaimResponse, error) {
	claim, err := h.Service.ReviewClaim(ctx, actor, claimID)
	if err != nil {
		return httptransport.ClaimResponse{}, err
	}
	return httptransport.ClaimResponse{Status: "success", Data: toDTO(claim)}, nil
}

func (h Handler) ApproveClaimHandler(ctx context.Context, actor ports.Actor, claimID string, req httptransport.ApproveClaimRequest) (httptransport.ClaimResponse, error) {
	claim, err := h.Service.ApproveClaim(ctx, actor, claimID, req.Amount)
	if err != nil {
		return httptransport.ClaimResponse{}, err
	}
	return httptransport.ClaimResponse{Status: "success", Data: toDTO(claim)}, nil
}

func (h Handler) DenyClaimHandler(ctx context.Context, actor ports.Actor, claimID string, req httptransport.DenyClaimRequest) (httptransport.ClaimResponse, error) {
	claim, err := h.Service.DenyClaim(ctx, actor, claimID, req.Reason)
	if err != nil {
		return httptransport.ClaimResponse{}, err
	}
	return httptransport.ClaimResponse{Status: "success", Data: toDTO(claim)}, nil
}

func (h Handler) GetClaimHandler(ctx context.Context, actor ports.Actor, claimID string) (httptransport.ClaimResponse, error) {
	claim, err := h.Service.GetClaim(ctx, actor, claimID)
	if err != nil {
		return httptransport.ClaimResponse{}, err
	}
	return httptransport.ClaimResponse{Status: "success", Data: toDTO(claim)}, nil
}

func (h Handler) ListClaimsHandler(ctx context.Context, actor ports.Actor, policyID string, customerID string, status string, limit int, offset int) (httptransport.ClaimListResponse, error) {
	claims, err := h.Service.ListClaims(ctx, actor, ports.ClaimFilter{
		PolicyID:   policyID,
		CustomerID: customerID,
		Status:     entities.ClaimStatus(status),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return httptransport.ClaimListResponse{}, err
	}
	resp := httptransport.ClaimListResponse{
		Status: "success",
		Data:   make([]httptransport.ClaimDTO, 0, len(claims)),
	}
	for _, claim := range claims {
		resp.Data = append(resp.Data, toDTO(claim))
	}
	return resp, nil
}

func (h Handler) ClaimsSummaryHandler(ctx context.Context, actor ports.Actor) (httptransport.ClaimsSummaryResponse, error) {
	summary, err := h.Service.Summary(ctx, actor)
	if err != nil {
		return httptransport.ClaimsSummaryResponse{}, err
	}
	byStatus := make(map[string]int, len(summary.ByStatus))
	for status, count := range summary.ByStatus {
		byStatus[string(status)] = count
	}
	return httptransport.ClaimsSummaryResponse{
		Status: "success",
		Data: httptransport.ClaimsSummaryDTO{
			TotalClaims:    summary.TotalClaims,
			ByStatus:       byStatus,
			TotalRequested: summary.TotalRequested,
			TotalApproved:  summary.TotalApproved,
		},
	}, nil
}

func toDTO(claim entities.Claim) httptransport.ClaimDTO {
	dto := httptransport.ClaimDTO{
		ClaimID:         claim.ClaimID,
		ClaimNumber:     claim.ClaimNumber,
		PolicyID:        claim.PolicyID,
		CustomerID:      claim.CustomerID,
		ProviderID:      claim.ProviderID,
		ProviderName:    claim.ProviderName,
		ServiceDate:     claim.ServiceDate.UTC().Format(time.RFC3339),
		DiagnosisCode:   claim.DiagnosisCode,
		ProcedureCode:   claim.ProcedureCode,
		Description:     claim.Description,
		AmountRequested: claim.AmountRequested,
		AmountApproved:  claim.AmountApproved,
		DenialReason:    claim.DenialReason,
		ReviewerID:      claim.ReviewerID,
		Status:          string(claim.Status),
		CreatedAt:       claim.CreatedAt.UTC().Format(time.RFC3339),
	}
	if claim.ReviewedAt != nil {
		dto.ReviewedAt = claim.ReviewedAt.UTC().Format(time.RFC3339)
	}
	return dto
}
