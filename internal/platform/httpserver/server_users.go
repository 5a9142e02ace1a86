package httpserver

import (
	"errors"
	"net/http"

	usersentities "acphealth/contexts/identity-access/user-registry/domain/entities"
	userserrors "acphealth/contexts/identity-access/user-registry/domain/errors"
	usersports "acphealth/contexts/identity-access/user-registry/ports"
	usershttp "acphealth/contexts/identity-access/user-registry/transport/http"
)

func writeUserError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, usershttp.ErrorResponse{Code: code, Message: message})
}

func writeUserDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, userserrors.ErrUserNotFound),
		errors.Is(err, userserrors.ErrRelationshipGone):
		writeUserError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, userserrors.ErrInvalidInput),
		errors.Is(err, userserrors.ErrInvalidRole):
		writeUserError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, userserrors.ErrDuplicateIdentity),
		errors.Is(err, userserrors.ErrRelationshipExists):
		writeUserError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, userserrors.ErrBadCredentials):
		writeUserError(w, http.StatusUnauthorized, "bad_credentials", err.Error())
	case errors.Is(err, userserrors.ErrUserInactive):
		writeUserError(w, http.StatusForbidden, "user_inactive", err.Error())
	case errors.Is(err, userserrors.ErrForbidden):
		writeUserError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		writeUserError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func userActor(user authUser) usersports.Actor {
	return usersports.Actor{UserID: user.ID, Role: usersentities.Role(user.Role)}
}

func (s *Server) handleUserRegister(w http.ResponseWriter, r *http.Request) {
	var req usershttp.RegisterRequest
	if !s.decodeJSON(w, r, &req, writeUserError) {
		return
	}
	resp, err := s.users.Handler.RegisterHandler(r.Context(), req)
	if err != nil {
		writeUserDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleAuthToken(w http.ResponseWriter, r *http.Request) {
	var req usershttp.TokenRequest
	if !s.decodeJSON(w, r, &req, writeUserError) {
		return
	}
	resp, err := s.users.Handler.TokenHandler(r.Context(), req)
	if err != nil {
		writeUserDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUserGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.users.Handler.GetUserHandler(r.Context(), userActor(actor), r.PathValue("user_id"))
	if err != nil {
		writeUserDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUserList(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	limit, offset := parseListWindow(r)
	resp, err := s.users.Handler.ListUsersHandler(r.Context(), userActor(actor), limit, offset)
	if err != nil {
		writeUserDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUserAssignRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req usershttp.AssignRoleRequest
	if !s.decodeJSON(w, r, &req, writeUserError) {
		return
	}
	resp, err := s.users.Handler.AssignRoleHandler(r.Context(), userActor(actor), r.PathValue("user_id"), req)
	if err != nil {
		writeUserDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUserDeactivate(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.users.Handler.DeactivateHandler(r.Context(), userActor(actor), r.PathValue("user_id"))
	if err != nil {
		writeUserDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProviderLink(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req usershttp.LinkProviderRequest
	if !s.decodeJSON(w, r, &req, writeUserError) {
		return
	}
	resp, err := s.users.Handler.LinkProviderHandler(r.Context(), userActor(actor), req)
	if err != nil {
		writeUserDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleProviderUnlink(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req usershttp.UnlinkProviderRequest
	if !s.decodeJSON(w, r, &req, writeUserError) {
		return
	}
	resp, err := s.users.Handler.UnlinkProviderHandler(r.Context(), userActor(actor), req)
	if err != nil {
		writeUserDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
