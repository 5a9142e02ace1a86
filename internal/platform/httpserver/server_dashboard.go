package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	dasherrors "acphealth/contexts/internal-ops/admin-dashboard-service/domain/errors"
	dashports "acphealth/contexts/internal-ops/admin-dashboard-service/ports"
	dashhttp "acphealth/contexts/internal-ops/admin-dashboard-service/transport/http"
)

func writeDashboardError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, dashhttp.ErrorResponse{Code: code, Message: message})
}

func writeDashboardDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dasherrors.ErrInvalidInput):
		writeDashboardError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, dasherrors.ErrIdempotencyRequired):
		writeDashboardError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, dasherrors.ErrIdempotencyConflict):
		writeDashboardError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, dasherrors.ErrForbidden):
		writeDashboardError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		writeDashboardError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func dashboardActor(user authUser) dashports.Actor {
	return dashports.Actor{UserID: user.ID, Role: user.Role}
}

func (s *Server) handleAdminOverview(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.dashboard.Handler.OverviewHandler(r.Context(), dashboardActor(actor))
	if err != nil {
		writeDashboardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAdminRecordAction(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req dashhttp.RecordAdminActionRequest
	if !s.decodeJSON(w, r, &req, writeDashboardError) {
		return
	}
	if strings.TrimSpace(req.SourceIP) == "" {
		req.SourceIP = resolveClientIP(r)
	}
	resp, err := s.dashboard.Handler.RecordAdminActionHandler(
		r.Context(),
		dashboardActor(actor),
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeDashboardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleAdminListActions(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	resp, err := s.dashboard.Handler.ListRecentActionsHandler(r.Context(), dashboardActor(actor), limit)
	if err != nil {
		writeDashboardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
