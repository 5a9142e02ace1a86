package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"acphealth/contexts/finance-core/payment-ledger/application"
	"acphealth/contexts/finance-core/payment-ledger/domain/entities"
	"acphealth/contexts/finance-core/payment-ledger/ports"
	httptransport "acphealth/contexts/finance-core/payment-ledger/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) RecordPaymentHandler(ctx context.Context, actor ports.Actor, idempotencyKey string, req httptransport.RecordPaymentRequest) (httptransport.PaymentResponse, error) {
	payment, replayed, err := h.Service.RecordPayment(ctx, actor, idempotencyKey, ports.RecordPaymentInput{
		PolicyID:    req.PolicyID,
		ClaimID:     req.ClaimID,
		Amount:      req.Amount,
		Method:      req.Method,
		Description: req.Description,
	})
	if err != nil {
		return httptransport.PaymentResponse{}, err
	}
	return httptransport.PaymentResponse{Status: "success", Data: toDTO(payment), Replayed: replayed}, nil
}

func (h Handler) GetPaymentHandler(ctx context.Context, actor ports.Actor, paymentID string) (httptransport.PaymentResponse, error) {
	payment, err := h.Service.GetPayment(ctx, actor, paymentID)
	if err != nil {
		return httptransport.PaymentResponse{}, err
	}
	return httptransport.PaymentResponse{Status: "success", Data: toDTO(payment)}, nil
}

func (h Handler) ListPaymentsHandler(ctx context.Context, actor ports.Actor, policyID string, claimID string, kind string, limit int, offset int) (httptransport.PaymentListResponse, error) {
	payments, err := h.Service.ListPayments(ctx, actor, ports.PaymentFilter{
		PolicyID: policyID,
		ClaimID:  claimID,
		Kind:     entities.PaymentKind(kind),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return httptransport.PaymentListResponse{}, err
	}
	resp := httptransport.PaymentListResponse{
		Status: "success",
		Data:   make([]httptransport.PaymentDTO, 0, len(payments)),
	}
	for _, payment := range payments {
		resp.Data = append(resp.Data, toDTO(payment))
	}
	return resp, nil
}

func (h Handler) RevenueSummaryHandler(ctx context.Context, actor ports.Actor) (httptransport.RevenueSummaryResponse, error) {
	summary, err := h.Service.RevenueSummary(ctx, actor)
	if err != nil {
		return httptransport.RevenueSummaryResponse{}, err
	}
	return httptransport.RevenueSummaryResponse{
		Status: "success",
		Data: httptransport.RevenueSummaryDTO{
			PremiumsCollected: summary.PremiumsCollected,
			ClaimsPaidOut:     summary.ClaimsPaidOut,
			Net:               summary.Net,
			PaymentCount:      summary.PaymentCount,
		},
	}, nil
}

func toDTO(payment entities.Payment) httptransport.PaymentDTO {
	return httptransport.PaymentDTO{
		PaymentID:   payment.PaymentID,
		Reference:   payment.Reference,
		Kind:        string(payment.Kind),
		PolicyID:    payment.PolicyID,
		ClaimID:     payment.ClaimID,
		PayerID:     payment.PayerID,
		Amount:      payment.Amount,
		Method:      string(payment.Method),
		Description: payment.Description,
		RecordedAt:  payment.RecordedAt.UTC().Format(time.RFC3339),
	}
}
