package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"acphealth/contexts/internal-ops/admin-dashboard-service/application"
	"acphealth/contexts/internal-ops/admin-dashboard-service/ports"
	httptransport "acphealth/contexts/internal-ops/admin-dashboard-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) OverviewHandler(ctx context.Context, actor ports.Actor) (httptransport.OverviewResponse, error) {
	overview, err := h.Service.Overview(ctx, actor)
	if err != nil {
		return httptransport.OverviewResponse{}, err
	}

	dto := httptransport.OverviewDTO{
		PolicyCounts: overview.PolicyCounts,
		Claims: httptransport.ClaimsStatsDTO{
			TotalClaims:    overview.Claims.TotalClaims,
			ByStatus:       overview.Claims.ByStatus,
			TotalRequested: overview.Claims.TotalRequested,
			TotalApproved:  overview.Claims.TotalApproved,
		},
		GeneratedAt: overview.GeneratedAt.UTC().Format(time.RFC3339),
	}
	if overview.Users != nil {
		dto.Users = &httptransport.UserStatsDTO{
			TotalUsers:  overview.Users.TotalUsers,
			ActiveUsers: overview.Users.ActiveUsers,
			ByRole:      overview.Users.ByRole,
		}
	}
	if overview.Revenue != nil {
		dto.Revenue = &httptransport.RevenueStatsDTO{
			PremiumsCollected: overview.Revenue.PremiumsCollected,
			ClaimsPaidOut:     overview.Revenue.ClaimsPaidOut,
			Net:               overview.Revenue.Net,
			PaymentCount:      overview.Revenue.PaymentCount,
		}
	}
	return httptransport.OverviewResponse{Status: "success", Data: dto}, nil
}

func (h Handler) RecordAdminActionHandler(ctx context.Context, actor ports.Actor, idempotencyKey string, req httptransport.RecordAdminActionRequest) (httptransport.AuditLogResponse, error) {
	row, err := h.Service.RecordAdminAction(ctx, actor, idempotencyKey, application.RecordActionInput{
		Action:        req.Action,
		TargetID:      req.TargetID,
		Justification: req.Justification,
		SourceIP:      req.SourceIP,
		CorrelationID: req.CorrelationID,
	})
	if err != nil {
		return httptransport.AuditLogResponse{}, err
	}
	return httptransport.AuditLogResponse{Status: "success", Data: toDTO(row)}, nil
}

func (h Handler) ListRecentActionsHandler(ctx context.Context, actor ports.Actor, limit int) (httptransport.AuditLogListResponse, error) {
	rows, err := h.Service.ListRecentActions(ctx, actor, limit)
	if err != nil {
		return httptransport.AuditLogListResponse{}, err
	}
	resp := httptransport.AuditLogListResponse{
		Status: "success",
		Data:   make([]httptransport.AuditLogDTO, 0, len(rows)),
	}
	for _, row := range rows {
		resp.Data = append(resp.Data, toDTO(row))
	}
	return resp, nil
}

func toDTO(row ports.AuditLog) httptransport.AuditLogDTO {
	return httptransport.AuditLogDTO{
		AuditID:       row.AuditID,
		ActorID:       row.ActorID,
		Action:        row.Action,
		TargetID:      row.TargetID,
		Justification: row.Justification,
		OccurredAt:    row.OccurredAt.UTC().Format(time.RFC3339),
	}
}
