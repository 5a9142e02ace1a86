package httpserver

import (
	"errors"
	"net/http"

	policyerrors "acphealth/contexts/policy-operations/policy-ledger/domain/errors"
	policyports "acphealth/contexts/policy-operations/policy-ledger/ports"
	policyhttp "acphealth/contexts/policy-operations/policy-ledger/transport/http"
)

func writePolicyError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, policyhttp.ErrorResponse{Code: code, Message: message})
}

func writePolicyDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, policyerrors.ErrPolicyNotFound):
		writePolicyError(w, http.StatusNotFound, "policy_not_found", err.Error())
	case errors.Is(err, policyerrors.ErrInvalidInput):
		writePolicyError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, policyerrors.ErrPlanNotIssuable):
		writePolicyError(w, http.StatusUnprocessableEntity, "plan_not_issuable", err.Error())
	case errors.Is(err, policyerrors.ErrInvalidTransition),
		errors.Is(err, policyerrors.ErrOpenClaims),
		errors.Is(err, policyerrors.ErrVersionConflict):
		writePolicyError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, policyerrors.ErrForbidden):
		writePolicyError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		writePolicyError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func policyActor(user authUser) policyports.Actor {
	return policyports.Actor{UserID: user.ID, Role: user.Role}
}

func (s *Server) handlePolicyIssue(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req policyhttp.IssuePolicyRequest
	if !s.decodeJSON(w, r, &req, writePolicyError) {
		return
	}
	resp, err := s.policies.Handler.IssuePolicyHandler(r.Context(), policyActor(actor), req)
	if err != nil {
		writePolicyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handlePolicyActivate(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.policies.Handler.ActivatePolicyHandler(r.Context(), policyActor(actor), r.PathValue("policy_id"))
	if err != nil {
		writePolicyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePolicyCancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.policies.Handler.CancelPolicyHandler(r.Context(), policyActor(actor), r.PathValue("policy_id"))
	if err != nil {
		writePolicyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePolicyGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.policies.Handler.GetPolicyHandler(r.Context(), policyActor(actor), r.PathValue("policy_id"))
	if err != nil {
		writePolicyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePolicyList(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	limit, offset := parseListWindow(r)
	resp, err := s.policies.Handler.ListPoliciesHandler(
		r.Context(),
		policyActor(actor),
		query.Get("customer_id"),
		query.Get("status"),
		limit,
		offset,
	)
	if err != nil {
		writePolicyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
