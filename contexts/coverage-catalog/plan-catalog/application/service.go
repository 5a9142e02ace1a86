package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainerrors "acphealth/contexts/coverage-catalog/plan-catalog/domain/errors"
	"acphealth/contexts/coverage-catalog/plan-catalog/domain/entities"
	"acphealth/contexts/coverage-catalog/plan-catalog/ports"
)

const transitionAttempts = 3

type Service struct {
	Repo   ports.Repository
	Authz  ports.Authorizer
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// CreatePlan registers a new plan in draft status, owned by its author.
func (s Service) CreatePlan(ctx context.Context, actor ports.Actor, input ports.CreatePlanInput) (entities.Plan, error) {
	if err := s.require(ctx, actor, "create", ""); err != nil {
		return entities.Plan{}, err
	}

	name := strings.TrimSpace(input.Name)
	planType, typeOK := entities.IsSupportedPlanType(input.PlanType)
	if name == "" || !typeOK || !input.Terms.Valid() {
		return entities.Plan{}, domainerrors.ErrInvalidInput
	}

	planID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Plan{}, err
	}
	now := s.now()
	plan := entities.Plan{
		PlanID:      strings.TrimSpace(planID),
		Name:        name,
		PlanType:    planType,
		Description: strings.TrimSpace(input.Description),
		Status:      entities.PlanStatusDraft,
		Terms:       input.Terms,
		Benefits:    append([]string(nil), input.Benefits...),
		Exclusions:  append([]string(nil), input.Exclusions...),
		OwnerID:     actor.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}
	if err := s.Repo.CreatePlan(ctx, plan); err != nil {
		return entities.Plan{}, err
	}

	resolveLogger(s.Logger).Info("plan created",
		"event", "plan_created",
		"module", "coverage-catalog/plan-catalog",
		"layer", "application",
		"plan_id", plan.PlanID,
		"plan_type", string(plan.PlanType),
		"owner_id", plan.OwnerID,
	)
	return plan, nil
}

// ActivatePlan moves a draft plan into the sellable state.
func (s Service) ActivatePlan(ctx context.Context, actor ports.Actor, planID string) (entities.Plan, error) {
	if err := s.require(ctx, actor, "transition", ""); err != nil {
		return entities.Plan{}, err
	}
	return s.transition(ctx, planID, entities.PlanStatusActive)
}

// RetirePlan permanently withdraws a plan from sale. Existing policies keep
// their frozen terms; only new issuance is blocked. Admin only.
func (s Service) RetirePlan(ctx context.Context, actor ports.Actor, planID string) (entities.Plan, error) {
	if err := s.require(ctx, actor, "transition", ""); err != nil {
		return entities.Plan{}, err
	}
	if actor.Role != "admin" {
		return entities.Plan{}, domainerrors.ErrForbidden
	}
	return s.transition(ctx, planID, entities.PlanStatusRetired)
}

func (s Service) GetPlan(ctx context.Context, actor ports.Actor, planID string) (entities.Plan, error) {
	if err := s.require(ctx, actor, "read", ""); err != nil {
		return entities.Plan{}, err
	}
	return s.Repo.GetPlan(ctx, strings.TrimSpace(planID))
}

// ListPlans returns the catalog. Customers and providers see only active
// plans; admins and agents see everything.
func (s Service) ListPlans(ctx context.Context, actor ports.Actor, filter ports.PlanFilter) ([]entities.Plan, error) {
	if err := s.require(ctx, actor, "read", ""); err != nil {
		return nil, err
	}
	if actor.Role != "admin" && actor.Role != "agent" {
		filter.Status = entities.PlanStatusActive
	}
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.Repo.ListPlans(ctx, filter)
}

// SnapshotTerms hands the policy ledger a frozen copy of an active plan's
// coverage terms. Draft and retired plans cannot back new policies.
func (s Service) SnapshotTerms(ctx context.Context, planID string) (entities.CoverageTerms, error) {
	plan, err := s.Repo.GetPlan(ctx, strings.TrimSpace(planID))
	if err != nil {
		return entities.CoverageTerms{}, err
	}
	if plan.Status != entities.PlanStatusActive {
		return entities.CoverageTerms{}, domainerrors.ErrPlanNotActive
	}
	return plan.Terms, nil
}

func (s Service) transition(ctx context.Context, planID string, to entities.PlanStatus) (entities.Plan, error) {
	var lastErr error
	for attempt := 0; attempt < transitionAttempts; attempt++ {
		plan, err := s.Repo.GetPlan(ctx, strings.TrimSpace(planID))
		if err != nil {
			return entities.Plan{}, err
		}
		if !plan.CanTransition(to) {
			return entities.Plan{}, fmt.Errorf("%w: %s -> %s", domainerrors.ErrInvalidTransition, plan.Status, to)
		}

		expected := plan.Version
		plan.Status = to
		plan.UpdatedAt = s.now()
		plan.Version = expected + 1
		if err := s.Repo.UpdatePlan(ctx, plan, expected); err != nil {
			if errors.Is(err, domainerrors.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return entities.Plan{}, err
		}

		resolveLogger(s.Logger).Info("plan status changed",
			"event", "plan_status_changed",
			"module", "coverage-catalog/plan-catalog",
			"layer", "application",
			"plan_id", plan.PlanID,
			"status", string(to),
		)
		return plan, nil
	}
	return entities.Plan{}, lastErr
}

func (s Service) require(ctx context.Context, actor ports.Actor, action string, ownerID string) error {
	allowed, err := s.Authz.Authorize(ctx, actor, action, "plan", ownerID)
	if err != nil {
		return err
	}
	if !allowed {
		return domainerrors.ErrForbidden
	}
	return nil
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
