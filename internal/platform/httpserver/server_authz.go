package httpserver

import (
	"errors"
	"net/http"

	authzerrors "acphealth/contexts/identity-access/authorization-service/domain/errors"
	authzhttp "acphealth/contexts/identity-access/authorization-service/transport/http"
)

func writeAuthzError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, authzhttp.ErrorResponse{Code: code, Message: message})
}

func writeAuthzDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authzerrors.ErrInvalidInput):
		writeAuthzError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, authzerrors.ErrForbidden):
		writeAuthzError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		writeAuthzError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// Non-admin callers can only ask about themselves. Admins may probe any
// actor, which the support tooling relies on.
func scopeAuthzCheck(actor authUser, req authzhttp.CheckRequest) authzhttp.CheckRequest {
	if actor.Role != "admin" {
		req.ActorID = actor.ID
		req.ActorRole = actor.Role
	}
	return req
}

func (s *Server) handleAuthzCheck(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req authzhttp.CheckRequest
	if !s.decodeJSON(w, r, &req, writeAuthzError) {
		return
	}
	resp, err := s.authz.Handler.CheckHandler(r.Context(), scopeAuthzCheck(actor, req))
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAuthzCheckBatch(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req authzhttp.CheckBatchRequest
	if !s.decodeJSON(w, r, &req, writeAuthzError) {
		return
	}
	for i := range req.Checks {
		req.Checks[i] = scopeAuthzCheck(actor, req.Checks[i])
	}
	resp, err := s.authz.Handler.CheckBatchHandler(r.Context(), req)
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
