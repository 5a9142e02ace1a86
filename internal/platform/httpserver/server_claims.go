package httpserver

import (
	"errors"
	"net/http"

	claimserrors "acphealth/contexts/policy-operations/claims-engine/domain/errors"
	claimsports "acphealth/contexts/policy-operations/claims-engine/ports"
	claimshttp "acphealth/contexts/policy-operations/claims-engine/transport/http"
)

func writeClaimError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, claimshttp.ErrorResponse{Code: code, Message: message})
}

func writeClaimDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, claimserrors.ErrClaimNotFound):
		writeClaimError(w, http.StatusNotFound, "claim_not_found", err.Error())
	case errors.Is(err, claimserrors.ErrInvalidInput),
		errors.Is(err, claimserrors.ErrReasonRequired):
		writeClaimError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, claimserrors.ErrPolicyNotCoverable),
		errors.Is(err, claimserrors.ErrCoverageExceeded):
		writeClaimError(w, http.StatusUnprocessableEntity, "not_coverable", err.Error())
	case errors.Is(err, claimserrors.ErrInvalidTransition),
		errors.Is(err, claimserrors.ErrVersionConflict):
		writeClaimError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, claimserrors.ErrForbidden):
		writeClaimError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		writeClaimError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func claimActor(user authUser) claimsports.Actor {
	return claimsports.Actor{UserID: user.ID, Role: user.Role}
}

func (s *Server) handleClaimFile(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req claimshttp.FileClaimRequest
	if !s.decodeJSON(w, r, &req, writeClaimError) {
		return
	}
	resp, err := s.claims.Handler.FileClaimHandler(r.Context(), claimActor(actor), req)
	if err != nil {
		writeClaimDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleClaimReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.claims.Handler.ReviewClaimHandler(r.Context(), claimActor(actor), r.PathValue("claim_id"))
	if err != nil {
		writeClaimDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClaimApprove(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req claimshttp.ApproveClaimRequest
	if !s.decodeJSON(w, r, &req, writeClaimError) {
		return
	}
	resp, err := s.claims.Handler.ApproveClaimHandler(r.Context(), claimActor(actor), r.PathValue("claim_id"), req)
	if err != nil {
		writeClaimDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClaimDeny(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req claimshttp.DenyClaimRequest
	if !s.decodeJSON(w, r, &req, writeClaimError) {
		return
	}
	resp, err := s.claims.Handler.DenyClaimHandler(r.Context(), claimActor(actor), r.PathValue("claim_id"), req)
	if err != nil {
		writeClaimDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClaimGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.claims.Handler.GetClaimHandler(r.Context(), claimActor(actor), r.PathValue("claim_id"))
	if err != nil {
		writeClaimDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClaimList(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	limit, offset := parseListWindow(r)
	resp, err := s.claims.Handler.ListClaimsHandler(
		r.Context(),
		claimActor(actor),
		query.Get("policy_id"),
		query.Get("customer_id"),
		query.Get("status"),
		limit,
		offset,
	)
	if err != nil {
		writeClaimDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClaimsSummary(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.claims.Handler.ClaimsSummaryHandler(r.Context(), claimActor(actor))
	if err != nil {
		writeClaimDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
