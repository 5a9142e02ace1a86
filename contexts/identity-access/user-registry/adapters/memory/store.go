package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainerrors "acphealth/contexts/identity-access/user-registry/domain/errors"
	"acphealth/contexts/identity-access/user-registry/domain/entities"
	"acphealth/contexts/identity-access/user-registry/ports"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.RWMutex

	users         map[string]entities.User
	byUsername    map[string]string
	byEmail       map[string]string
	relationships map[string]entities.ProviderRelationship
}

func NewStore() *Store {
	return &Store{
		users:         make(map[string]entities.User),
		byUsername:    make(map[string]string),
		byEmail:       make(map[string]string),
		relationships: make(map[string]entities.ProviderRelationship),
	}
}

func (s *Store) CreateUser(_ context.Context, user entities.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(user.UserID)
	if id == "" {
		return domainerrors.ErrInvalidInput
	}
	username := strings.ToLower(user.Username)
	email := strings.ToLower(user.Email)
	if _, taken := s.byUsername[username]; taken {
		return domainerrors.ErrDuplicateIdentity
	}
	if _, taken := s.byEmail[email]; taken {
		return domainerrors.ErrDuplicateIdentity
	}

	s.users[id] = user
	s.byUsername[username] = id
	s.byEmail[email] = id
	return nil
}

func (s *Store) GetUser(_ context.Context, userID string) (entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[strings.TrimSpace(userID)]
	if !ok {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	return s.users[id], nil
}

func (s *Store) UpdateUser(_ context.Context, user entities.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(user.UserID)
	if _, ok := s.users[id]; !ok {
		return domainerrors.ErrUserNotFound
	}
	s.users[id] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context, filter ports.UserFilter) ([]entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.User, 0, len(s.users))
	for _, user := range s.users {
		items = append(items, user)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if filter.Offset >= len(items) {
		return []entities.User{}, nil
	}
	end := filter.Offset + filter.Limit
	if filter.Limit <= 0 || end > len(items) {
		end = len(items)
	}
	return append([]entities.User(nil), items[filter.Offset:end]...), nil
}

func (s *Store) BuildUserStats(_ context.Context) (ports.UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := ports.UserStats{ByRole: make(map[string]int)}
	for _, user := range s.users {
		stats.TotalUsers++
		stats.ByRole[string(user.Role)]++
		if user.Active {
			stats.ActiveUsers++
		}
	}
	return stats, nil
}

func (s *Store) CreateRelationship(_ context.Context, rel entities.ProviderRelationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(rel.RelationshipID)
	if id == "" {
		return domainerrors.ErrInvalidInput
	}
	s.relationships[id] = rel
	return nil
}

func (s *Store) GetActiveRelationship(_ context.Context, providerID string, customerID string) (entities.ProviderRelationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rel := range s.relationships {
		if rel.Active && rel.ProviderID == strings.TrimSpace(providerID) && rel.CustomerID == strings.TrimSpace(customerID) {
			return rel, nil
		}
	}
	return entities.ProviderRelationship{}, domainerrors.ErrRelationshipGone
}

func (s *Store) UpdateRelationship(_ context.Context, rel entities.ProviderRelationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(rel.RelationshipID)
	if _, ok := s.relationships[id]; !ok {
		return domainerrors.ErrRelationshipGone
	}
	s.relationships[id] = rel
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
