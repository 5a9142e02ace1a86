package httpserver

import (
	"errors"
	"net/http"

	planserrors "acphealth/contexts/coverage-catalog/plan-catalog/domain/errors"
	plansports "acphealth/contexts/coverage-catalog/plan-catalog/ports"
	planshttp "acphealth/contexts/coverage-catalog/plan-catalog/transport/http"
)

func writePlanError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, planshttp.ErrorResponse{Code: code, Message: message})
}

func writePlanDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, planserrors.ErrPlanNotFound):
		writePlanError(w, http.StatusNotFound, "plan_not_found", err.Error())
	case errors.Is(err, planserrors.ErrInvalidInput):
		writePlanError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, planserrors.ErrInvalidTransition),
		errors.Is(err, planserrors.ErrPlanNotActive),
		errors.Is(err, planserrors.ErrVersionConflict):
		writePlanError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, planserrors.ErrForbidden):
		writePlanError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		writePlanError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func planActor(user authUser) plansports.Actor {
	return plansports.Actor{UserID: user.ID, Role: user.Role}
}

func (s *Server) handlePlanCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req planshttp.CreatePlanRequest
	if !s.decodeJSON(w, r, &req, writePlanError) {
		return
	}
	resp, err := s.plans.Handler.CreatePlanHandler(r.Context(), planActor(actor), req)
	if err != nil {
		writePlanDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handlePlanActivate(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.plans.Handler.ActivatePlanHandler(r.Context(), planActor(actor), r.PathValue("plan_id"))
	if err != nil {
		writePlanDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePlanRetire(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.plans.Handler.RetirePlanHandler(r.Context(), planActor(actor), r.PathValue("plan_id"))
	if err != nil {
		writePlanDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePlanGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.plans.Handler.GetPlanHandler(r.Context(), planActor(actor), r.PathValue("plan_id"))
	if err != nil {
		writePlanDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePlanList(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	limit, offset := parseListWindow(r)
	resp, err := s.plans.Handler.ListPlansHandler(r.Context(), planActor(actor), r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		writePlanDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
