package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"acphealth/contexts/identity-access/user-registry/application"
	"acphealth/contexts/identity-access/user-registry/domain/entities"
	"acphealth/contexts/identity-access/user-registry/ports"
	httptransport "acphealth/contexts/identity-access/user-registry/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) RegisterHandler(ctx context.Context, req httptransport.RegisterRequest) (httptransport.RegisterResponse, error) {
	user, err := h.Service.Register(ctx, ports.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
		Address:  req.Address,
		Role:     req.Role,
	})
	if err != nil {
		return httptransport.RegisterResponse{}, err
	}
	return httptransport.RegisterResponse{Status: "success", Data: toDTO(user)}, nil
}

func (h Handler) TokenHandler(ctx context.Context, req httptransport.TokenRequest) (httptransport.TokenResponse, error) {
	result, err := h.Service.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return httptransport.TokenResponse{}, err
	}
	return httptransport.TokenResponse{
		Status:      "success",
		AccessToken: result.Token,
		TokenType:   "bearer",
		ExpiresAt:   result.ExpiresAt.UTC().Format(time.RFC3339),
		User:        toDTO(result.User),
	}, nil
}

func (h Handler) GetUserHandler(ctx context.Context, actor ports.Actor, userID string) (httptransport.UserResponse, error) {
	user, err := h.Service.GetUser(ctx, actor, userID)
	if err != nil {
		return httptransport.UserResponse{}, err
	}
	return httptransport.UserResponse{Status: "success", Data: toDTO(user)}, nil
}

func (h Handler) ListUsersHandler(ctx context.Context, actor ports.Actor, limit int, offset int) (httptransport.UserListResponse, error) {
	users, err := h.Service.ListUsers(ctx, actor, ports.UserFilter{Limit: limit, Offset: offset})
	if err != nil {
		return httptransport.UserListResponse{}, err
	}
	resp := httptransport.UserListResponse{
		Status: "success",
		Data:   make([]httptransport.UserDTO, 0, len(users)),
	}
	for _, user := range users {
		resp.Data = append(resp.Data, toDTO(user))
	}
	return resp, nil
}

func (h Handler) AssignRoleHandler(ctx context.Context, actor ports.Actor, userID string, req httptransport.AssignRoleRequest) (httptransport.UserResponse, error) {
	user, err := h.Service.AssignRole(ctx, actor, userID, req.Role)
	if err != nil {
		return httptransport.UserResponse{}, err
	}
	return httptransport.UserResponse{Status: "success", Data: toDTO(user)}, nil
}

func (h Handler) DeactivateHandler(ctx context.Context, actor ports.Actor, userID string) (httptransport.UserResponse, error) {
	user, err := h.Service.Deactivate(ctx, actor, userID)
	if err != nil {
		return httptransport.UserResponse{}, err
	}
	return httptransport.UserResponse{Status: "success", Data: toDTO(user)}, nil
}

func (h Handler) LinkProviderHandler(ctx context.Context, actor ports.Actor, req httptransport.LinkProviderRequest) (httptransport.RelationshipResponse, error) {
	rel, err := h.Service.LinkProvider(ctx, actor, req.ProviderID, req.CustomerID)
	if err != nil {
		return httptransport.RelationshipResponse{}, err
	}
	resp := httptransport.RelationshipResponse{Status: "success"}
	resp.Data.RelationshipID = rel.RelationshipID
	resp.Data.ProviderID = rel.ProviderID
	resp.Data.CustomerID = rel.CustomerID
	resp.Data.Active = rel.Active
	return resp, nil
}

func (h Handler) UnlinkProviderHandler(ctx context.Context, actor ports.Actor, req httptransport.UnlinkProviderRequest) (httptransport.RelationshipEndedResponse, error) {
	if err := h.Service.EndProviderRelationship(ctx, actor, req.ProviderID, req.CustomerID); err != nil {
		return httptransport.RelationshipEndedResponse{}, err
	}
	return httptransport.RelationshipEndedResponse{Status: "success"}, nil
}

func toDTO(user entities.User) httptransport.UserDTO {
	return httptransport.UserDTO{
		UserID:    user.UserID,
		Username:  user.Username,
		Email:     user.Email,
		FullName:  user.FullName,
		Phone:     user.Phone,
		Address:   user.Address,
		Role:      string(user.Role),
		Active:    user.Active,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
}
