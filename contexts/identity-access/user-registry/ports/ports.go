package ports

import (
	"context"
	"time"

	"acphealth/contexts/identity-access/user-registry/domain/entities"
)

// Actor is the authenticated caller of an operation, resolved by the
// transport layer before any registry method runs.
type Actor struct {
	UserID string
	Role   entities.Role
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
	Phone    string
	Address  string
	Role     string
}

type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      entities.User
}

type UserFilter struct {
	Limit  int
	Offset int
}

// UserStats is the registry head count broken down by role.
type UserStats struct {
	TotalUsers  int
	ActiveUsers int
	ByRole      map[string]int
}

type Repository interface {
	CreateUser(ctx context.Context, user entities.User) error
	GetUser(ctx context.Context, userID string) (entities.User, error)
	GetUserByUsername(ctx context.Context, username string) (entities.User, error)
	UpdateUser(ctx context.Context, user entities.User) error
	ListUsers(ctx context.Context, filter UserFilter) ([]entities.User, error)
	BuildUserStats(ctx context.Context) (UserStats, error)
	CreateRelationship(ctx context.Context, rel entities.ProviderRelationship) error
	GetActiveRelationship(ctx context.Context, providerID string, customerID string) (entities.ProviderRelationship, error)
	UpdateRelationship(ctx context.Context, rel entities.ProviderRelationship) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error
}

type TokenIssuer interface {
	Issue(user entities.User, now time.Time) (token string, expiresAt time.Time, err error)
	Verify(token string) (userID string, err error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
