package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainerrors "acphealth/contexts/coverage-catalog/plan-catalog/domain/errors"
	"acphealth/contexts/coverage-catalog/plan-catalog/domain/entities"
	"acphealth/contexts/coverage-catalog/plan-catalog/ports"

	"github.com/google/uuid"
)

type Store struct {
	mu    sync.RWMutex
	plans map[string]entities.Plan
}

func NewStore() *Store {
	return &Store{plans: make(map[string]entities.Plan)}
}

func (s *Store) CreatePlan(_ context.Context, plan entities.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(plan.PlanID)
	if id == "" {
		return domainerrors.ErrInvalidInput
	}
	if _, exists := s.plans[id]; exists {
		return domainerrors.ErrInvalidInput
	}
	s.plans[id] = plan
	return nil
}

func (s *Store) GetPlan(_ context.Context, planID string) (entities.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plan, ok := s.plans[strings.TrimSpace(planID)]
	if !ok {
		return entities.Plan{}, domainerrors.ErrPlanNotFound
	}
	return plan, nil
}

func (s *Store) UpdatePlan(_ context.Context, plan entities.Plan, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(plan.PlanID)
	current, ok := s.plans[id]
	if !ok {
		return domainerrors.ErrPlanNotFound
	}
	if current.Version != expectedVersion {
		return domainerrors.ErrVersionConflict
	}
	s.plans[id] = plan
	return nil
}

func (s *Store) ListPlans(_ context.Context, filter ports.PlanFilter) ([]entities.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Plan, 0)
	for _, plan := range s.plans {
		if filter.Status != "" && plan.Status != filter.Status {
			continue
		}
		items = append(items, plan)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if filter.Offset >= len(items) {
		return []entities.Plan{}, nil
	}
	end := filter.Offset + filter.Limit
	if filter.Limit <= 0 || end > len(items) {
		end = len(items)
	}
	return append([]entities.Plan(nil), items[filter.Offset:end]...), nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
