package httpserver

import (
	"errors"
	"net/http"
	"strings"

	paymenterrors "acphealth/contexts/finance-core/payment-ledger/domain/errors"
	paymentports "acphealth/contexts/finance-core/payment-ledger/ports"
	paymenthttp "acphealth/contexts/finance-core/payment-ledger/transport/http"
)

func writePaymentError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, paymenthttp.ErrorResponse{Code: code, Message: message})
}

func writePaymentDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, paymenterrors.ErrPaymentNotFound):
		writePaymentError(w, http.StatusNotFound, "payment_not_found", err.Error())
	case errors.Is(err, paymenterrors.ErrInvalidInput):
		writePaymentError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, paymenterrors.ErrIdempotencyKeyMissing):
		writePaymentError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, paymenterrors.ErrIdempotencyConflict):
		writePaymentError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, paymenterrors.ErrPolicyNotPayable),
		errors.Is(err, paymenterrors.ErrClaimNotPayable),
		errors.Is(err, paymenterrors.ErrOverpayment):
		writePaymentError(w, http.StatusUnprocessableEntity, "not_payable", err.Error())
	case errors.Is(err, paymenterrors.ErrForbidden):
		writePaymentError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		writePaymentError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func paymentActor(user authUser) paymentports.Actor {
	return paymentports.Actor{UserID: user.ID, Role: user.Role}
}

func (s *Server) handlePaymentRecord(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idempotencyKey == "" {
		writePaymentError(w, http.StatusBadRequest, "idempotency_key_required", "Idempotency-Key header is required")
		return
	}

	var req paymenthttp.RecordPaymentRequest
	if !s.decodeJSON(w, r, &req, writePaymentError) {
		return
	}
	resp, err := s.payments.Handler.RecordPaymentHandler(r.Context(), paymentActor(actor), idempotencyKey, req)
	if err != nil {
		writePaymentDomainError(w, err)
		return
	}
	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handlePaymentGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.payments.Handler.GetPaymentHandler(r.Context(), paymentActor(actor), r.PathValue("payment_id"))
	if err != nil {
		writePaymentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePaymentList(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	limit, offset := parseListWindow(r)
	resp, err := s.payments.Handler.ListPaymentsHandler(
		r.Context(),
		paymentActor(actor),
		query.Get("policy_id"),
		query.Get("claim_id"),
		query.Get("kind"),
		limit,
		offset,
	)
	if err != nil {
		writePaymentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRevenueSummary(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.payments.Handler.RevenueSummaryHandler(r.Context(), paymentActor(actor))
	if err != nil {
		writePaymentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
