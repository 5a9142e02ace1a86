package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"acphealth/contexts/identity-access/user-registry/adapters/memory"
	"acphealth/contexts/identity-access/user-registry/adapters/security"
	domainerrors "acphealth/contexts/identity-access/user-registry/domain/errors"
	"acphealth/contexts/identity-access/user-registry/domain/entities"
	"acphealth/contexts/identity-access/user-registry/ports"
)

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time {
	return f.now
}

func newTestService() Service {
	store := memory.NewStore()
	return Service{
		Repo:   store,
		Hasher: security.BcryptHasher{Cost: 4},
		Tokens: security.JWTIssuer{Secret: "unit-test-secret"},
		Clock:  nil,
		IDGen:  store,
	}
}

func registerUser(t *testing.T, svc Service, username string, role string) entities.User {
	t.Helper()
	user, err := svc.Register(context.Background(), ports.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "correct horse battery",
		FullName: "Test " + username,
		Role:     role,
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return user
}

func TestRegisterDefaultsToCustomerRole(t *testing.T) {
	svc := newTestService()
	user := registerUser(t, svc, "maria", "")
	if user.Role != entities.RoleCustomer {
		t.Fatalf("expected customer role, got %s", user.Role)
	}
	if !user.Active {
		t.Fatalf("expected new user to be active")
	}
	if user.UserID == "" {
		t.Fatalf("expected generated user id")
	}
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc := newTestService()
	_, err := svc.Register(context.Background(), ports.RegisterInput{
		Username: "maria",
		Email:    "maria@example.com",
		Password: "correct horse battery",
		Role:     "superuser",
	})
	if !errors.Is(err, domainerrors.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestRegisterRejectsShortPasswordAndBadEmail(t *testing.T) {
	svc := newTestService()
	_, err := svc.Register(context.Background(), ports.RegisterInput{
		Username: "maria", Email: "maria@example.com", Password: "short",
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for short password, got %v", err)
	}
	_, err = svc.Register(context.Background(), ports.RegisterInput{
		Username: "maria", Email: "not-an-email", Password: "correct horse battery",
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad email, got %v", err)
	}
}

func TestRegisterRejectsDuplicateIdentity(t *testing.T) {
	svc := newTestService()
	registerUser(t, svc, "maria", "")
	_, err := svc.Register(context.Background(), ports.RegisterInput{
		Username: "maria",
		Email:    "other@example.com",
		Password: "correct horse battery",
	})
	if !errors.Is(err, domainerrors.ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}
}

func TestAuthenticateAndResolveTokenRoundTrip(t *testing.T) {
	svc := newTestService()
	user := registerUser(t, svc, "maria", "agent")

	auth, err := svc.Authenticate(context.Background(), "maria", "correct horse battery")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if auth.Token == "" {
		t.Fatalf("expected a signed token")
	}
	if auth.User.UserID != user.UserID {
		t.Fatalf("auth user mismatch: %s vs %s", auth.User.UserID, user.UserID)
	}

	resolved, err := svc.ResolveToken(context.Background(), auth.Token)
	if err != nil {
		t.Fatalf("resolve token: %v", err)
	}
	if resolved.UserID != user.UserID || resolved.Role != entities.RoleAgent {
		t.Fatalf("resolved wrong user: %+v", resolved)
	}
}

func TestAuthenticateCollapsesLookupAndPasswordFailures(t *testing.T) {
	svc := newTestService()
	registerUser(t, svc, "maria", "")

	if _, err := svc.Authenticate(context.Background(), "nobody", "correct horse battery"); !errors.Is(err, domainerrors.ErrBadCredentials) {
		t.Fatalf("unknown user: expected ErrBadCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "maria", "wrong password!"); !errors.Is(err, domainerrors.ErrBadCredentials) {
		t.Fatalf("wrong password: expected ErrBadCredentials, got %v", err)
	}
}

func TestDeactivateBlocksAuthenticationAndTokenResolution(t *testing.T) {
	svc := newTestService()
	admin := registerUser(t, svc, "root", "admin")
	user := registerUser(t, svc, "maria", "")

	auth, err := svc.Authenticate(context.Background(), "maria", "correct horse battery")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	if _, err := svc.Deactivate(context.Background(), ports.Actor{UserID: admin.UserID, Role: admin.Role}, user.UserID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), "maria", "correct horse battery"); !errors.Is(err, domainerrors.ErrUserInactive) {
		t.Fatalf("expected ErrUserInactive on login, got %v", err)
	}
	if _, err := svc.ResolveToken(context.Background(), auth.Token); !errors.Is(err, domainerrors.ErrUserInactive) {
		t.Fatalf("expected ErrUserInactive on resolve, got %v", err)
	}
}

func TestDeactivateRequiresAdmin(t *testing.T) {
	svc := newTestService()
	agent := registerUser(t, svc, "agent1", "agent")
	user := registerUser(t, svc, "maria", "")

	_, err := svc.Deactivate(context.Background(), ports.Actor{UserID: agent.UserID, Role: agent.Role}, user.UserID)
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAssignRoleRequiresAdminAndValidRole(t *testing.T) {
	svc := newTestService()
	admin := registerUser(t, svc, "root", "admin")
	user := registerUser(t, svc, "maria", "")

	if _, err := svc.AssignRole(context.Background(), ports.Actor{UserID: user.UserID, Role: user.Role}, user.UserID, "agent"); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.AssignRole(context.Background(), ports.Actor{UserID: admin.UserID, Role: admin.Role}, user.UserID, "czar"); !errors.Is(err, domainerrors.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	updated, err := svc.AssignRole(context.Background(), ports.Actor{UserID: admin.UserID, Role: admin.Role}, user.UserID, "provider")
	if err != nil {
		t.Fatalf("assign role: %v", err)
	}
	if updated.Role != entities.RoleProvider {
		t.Fatalf("expected provider role, got %s", updated.Role)
	}
}

func TestProviderRelationshipLifecycle(t *testing.T) {
	svc := newTestService()
	admin := registerUser(t, svc, "root", "admin")
	provider := registerUser(t, svc, "clinic", "provider")
	customer := registerUser(t, svc, "maria", "customer")
	actor := ports.Actor{UserID: admin.UserID, Role: admin.Role}

	rel, err := svc.LinkProvider(context.Background(), actor, provider.UserID, customer.UserID)
	if err != nil {
		t.Fatalf("link provider: %v", err)
	}
	if !rel.Active {
		t.Fatalf("expected active relationship")
	}

	linked, err := svc.HasActiveProviderRelationship(context.Background(), provider.UserID, customer.UserID)
	if err != nil || !linked {
		t.Fatalf("expected active link, got linked=%v err=%v", linked, err)
	}

	if _, err := svc.LinkProvider(context.Background(), actor, provider.UserID, customer.UserID); !errors.Is(err, domainerrors.ErrRelationshipExists) {
		t.Fatalf("expected ErrRelationshipExists, got %v", err)
	}

	if err := svc.EndProviderRelationship(context.Background(), actor, provider.UserID, customer.UserID); err != nil {
		t.Fatalf("end relationship: %v", err)
	}
	linked, err = svc.HasActiveProviderRelationship(context.Background(), provider.UserID, customer.UserID)
	if err != nil || linked {
		t.Fatalf("expected ended link, got linked=%v err=%v", linked, err)
	}
}

func TestLinkProviderValidatesRolePairing(t *testing.T) {
	svc := newTestService()
	admin := registerUser(t, svc, "root", "admin")
	customerA := registerUser(t, svc, "maria", "customer")
	customerB := registerUser(t, svc, "jonas", "customer")

	_, err := svc.LinkProvider(context.Background(), ports.Actor{UserID: admin.UserID, Role: admin.Role}, customerA.UserID, customerB.UserID)
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUserStatsCountsRolesAndActive(t *testing.T) {
	svc := newTestService()
	admin := registerUser(t, svc, "root", "admin")
	registerUser(t, svc, "clinic", "provider")
	user := registerUser(t, svc, "maria", "customer")

	if _, err := svc.Deactivate(context.Background(), ports.Actor{UserID: admin.UserID, Role: admin.Role}, user.UserID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	stats, err := svc.UserStats(context.Background())
	if err != nil {
		t.Fatalf("user stats: %v", err)
	}
	if stats.TotalUsers != 3 || stats.ActiveUsers != 2 {
		t.Fatalf("unexpected totals: %+v", stats)
	}
	if stats.ByRole["customer"] != 1 || stats.ByRole["provider"] != 1 || stats.ByRole["admin"] != 1 {
		t.Fatalf("unexpected role counts: %+v", stats.ByRole)
	}
}

func TestRegisterStampsClockTime(t *testing.T) {
	store := memory.NewStore()
	clock := fixedClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := Service{
		Repo:   store,
		Hasher: security.BcryptHasher{Cost: 4},
		Tokens: security.JWTIssuer{Secret: "unit-test-secret"},
		Clock:  clock,
		IDGen:  store,
	}
	user := registerUser(t, svc, "maria", "")
	if !user.CreatedAt.Equal(clock.now) || !user.UpdatedAt.Equal(clock.now) {
		t.Fatalf("expected clock timestamps, got created=%v updated=%v", user.CreatedAt, user.UpdatedAt)
	}
}
