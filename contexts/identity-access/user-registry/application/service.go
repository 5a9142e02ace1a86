package application

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	domainerrors "acphealth/contexts/identity-access/user-registry/domain/errors"
	"acphealth/contexts/identity-access/user-registry/domain/entities"
	"acphealth/contexts/identity-access/user-registry/ports"
)

const minPasswordLength = 8

type Service struct {
	Repo   ports.Repository
	Hasher ports.PasswordHasher
	Tokens ports.TokenIssuer
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// Register creates a new user. Unknown roles are rejected rather than
// defaulted so a typo cannot grant an unintended role.
func (s Service) Register(ctx context.Context, input ports.RegisterInput) (entities.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if username == "" || email == "" {
		return entities.User{}, domainerrors.ErrInvalidInput
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return entities.User{}, domainerrors.ErrInvalidInput
	}
	if len(input.Password) < minPasswordLength {
		return entities.User{}, domainerrors.ErrInvalidInput
	}

	role := entities.RoleCustomer
	if strings.TrimSpace(input.Role) != "" {
		parsed, ok := entities.ParseRole(input.Role)
		if !ok {
			return entities.User{}, domainerrors.ErrInvalidRole
		}
		role = parsed
	}

	hash, err := s.Hasher.Hash(input.Password)
	if err != nil {
		return entities.User{}, err
	}
	userID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.User{}, err
	}

	now := s.now()
	user := entities.User{
		UserID:       strings.TrimSpace(userID),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(input.FullName),
		Phone:        strings.TrimSpace(input.Phone),
		Address:      strings.TrimSpace(input.Address),
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return entities.User{}, err
	}

	resolveLogger(s.Logger).Info("user registered",
		"event", "user_registered",
		"module", "identity-access/user-registry",
		"layer", "application",
		"user_id", user.UserID,
		"role", string(user.Role),
	)
	return user, nil
}

// Authenticate verifies credentials and issues a signed token.
// Lookup and compare failures collapse into one error so callers cannot
// probe which usernames exist.
func (s Service) Authenticate(ctx context.Context, username string, password string) (ports.AuthResult, error) {
	user, err := s.Repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return ports.AuthResult{}, domainerrors.ErrBadCredentials
	}
	if err := s.Hasher.Compare(user.PasswordHash, password); err != nil {
		return ports.AuthResult{}, domainerrors.ErrBadCredentials
	}
	if !user.CanAuthenticate() {
		return ports.AuthResult{}, domainerrors.ErrUserInactive
	}

	token, expiresAt, err := s.Tokens.Issue(user, s.now())
	if err != nil {
		return ports.AuthResult{}, err
	}
	return ports.AuthResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// ResolveToken maps a bearer token back to the live user record.
// Deactivated users fail resolution even when the token is still valid.
func (s Service) ResolveToken(ctx context.Context, token string) (entities.User, error) {
	userID, err := s.Tokens.Verify(token)
	if err != nil {
		return entities.User{}, domainerrors.ErrBadCredentials
	}
	user, err := s.Repo.GetUser(ctx, userID)
	if err != nil {
		return entities.User{}, domainerrors.ErrBadCredentials
	}
	if !user.Active {
		return entities.User{}, domainerrors.ErrUserInactive
	}
	return user, nil
}

func (s Service) GetUser(ctx context.Context, actor ports.Actor, userID string) (entities.User, error) {
	if actor.Role != entities.RoleAdmin && actor.UserID != strings.TrimSpace(userID) {
		return entities.User{}, domainerrors.ErrForbidden
	}
	return s.Repo.GetUser(ctx, strings.TrimSpace(userID))
}

func (s Service) ListUsers(ctx context.Context, actor ports.Actor, filter ports.UserFilter) ([]entities.User, error) {
	if actor.Role != entities.RoleAdmin {
		return nil, domainerrors.ErrForbidden
	}
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.Repo.ListUsers(ctx, filter)
}

// AssignRole changes a user's role. Admin only.
func (s Service) AssignRole(ctx context.Context, actor ports.Actor, userID string, rawRole string) (entities.User, error) {
	if actor.Role != entities.RoleAdmin {
		return entities.User{}, domainerrors.ErrForbidden
	}
	role, ok := entities.ParseRole(rawRole)
	if !ok {
		return entities.User{}, domainerrors.ErrInvalidRole
	}

	user, err := s.Repo.GetUser(ctx, strings.TrimSpace(userID))
	if err != nil {
		return entities.User{}, err
	}
	user.Role = role
	user.UpdatedAt = s.now()
	if err := s.Repo.UpdateUser(ctx, user); err != nil {
		return entities.User{}, err
	}

	resolveLogger(s.Logger).Info("user role assigned",
		"event", "user_role_assigned",
		"module", "identity-access/user-registry",
		"layer", "application",
		"user_id", user.UserID,
		"role", string(role),
		"assigned_by", actor.UserID,
	)
	return user, nil
}

// Deactivate soft-deletes a user. The record stays for referential history.
func (s Service) Deactivate(ctx context.Context, actor ports.Actor, userID string) (entities.User, error) {
	if actor.Role != entities.RoleAdmin {
		return entities.User{}, domainerrors.ErrForbidden
	}
	user, err := s.Repo.GetUser(ctx, strings.TrimSpace(userID))
	if err != nil {
		return entities.User{}, err
	}
	user.Active = false
	user.UpdatedAt = s.now()
	if err := s.Repo.UpdateUser(ctx, user); err != nil {
		return entities.User{}, err
	}

	resolveLogger(s.Logger).Info("user deactivated",
		"event", "user_deactivated",
		"module", "identity-access/user-registry",
		"layer", "application",
		"user_id", user.UserID,
		"deactivated_by", actor.UserID,
	)
	return user, nil
}

// LinkProvider records an active provider relationship for a customer.
func (s Service) LinkProvider(ctx context.Context, actor ports.Actor, providerID string, customerID string) (entities.ProviderRelationship, error) {
	if actor.Role != entities.RoleAdmin && actor.Role != entities.RoleAgent {
		return entities.ProviderRelationship{}, domainerrors.ErrForbidden
	}
	providerID = strings.TrimSpace(providerID)
	customerID = strings.TrimSpace(customerID)
	if providerID == "" || customerID == "" || providerID == customerID {
		return entities.ProviderRelationship{}, domainerrors.ErrInvalidInput
	}

	provider, err := s.Repo.GetUser(ctx, providerID)
	if err != nil {
		return entities.ProviderRelationship{}, err
	}
	customer, err := s.Repo.GetUser(ctx, customerID)
	if err != nil {
		return entities.ProviderRelationship{}, err
	}
	if provider.Role != entities.RoleProvider || customer.Role != entities.RoleCustomer {
		return entities.ProviderRelationship{}, domainerrors.ErrInvalidInput
	}
	if _, err := s.Repo.GetActiveRelationship(ctx, providerID, customerID); err == nil {
		return entities.ProviderRelationship{}, domainerrors.ErrRelationshipExists
	}

	relID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.ProviderRelationship{}, err
	}
	rel := entities.ProviderRelationship{
		RelationshipID: strings.TrimSpace(relID),
		ProviderID:     providerID,
		CustomerID:     customerID,
		Active:         true,
		CreatedAt:      s.now(),
	}
	if err := s.Repo.CreateRelationship(ctx, rel); err != nil {
		return entities.ProviderRelationship{}, err
	}
	return rel, nil
}

// EndProviderRelationship deactivates a link; the row is kept for audit.
func (s Service) EndProviderRelationship(ctx context.Context, actor ports.Actor, providerID string, customerID string) error {
	if actor.Role != entities.RoleAdmin && actor.Role != entities.RoleAgent {
		return domainerrors.ErrForbidden
	}
	rel, err := s.Repo.GetActiveRelationship(ctx, strings.TrimSpace(providerID), strings.TrimSpace(customerID))
	if err != nil {
		return err
	}
	now := s.now()
	rel.Active = false
	rel.EndedAt = &now
	return s.Repo.UpdateRelationship(ctx, rel)
}

// HasActiveProviderRelationship backs the authorization gate's provider rule.
func (s Service) HasActiveProviderRelationship(ctx context.Context, providerID string, customerID string) (bool, error) {
	_, err := s.Repo.GetActiveRelationship(ctx, strings.TrimSpace(providerID), strings.TrimSpace(customerID))
	if err != nil {
		if errors.Is(err, domainerrors.ErrRelationshipGone) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// UserStats is internal aggregation for the operations dashboard and does
// not take an actor; callers gate access before asking.
func (s Service) UserStats(ctx context.Context) (ports.UserStats, error) {
	return s.Repo.BuildUserStats(ctx)
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
