package ports

import (
	"context"
	"time"

	"acphealth/contexts/coverage-catalog/plan-catalog/domain/entities"
)

type Actor struct {
	UserID string
	Role   string
}

type CreatePlanInput struct {
	Name        string
	PlanType    string
	Description string
	Terms       entities.CoverageTerms
	Benefits    []string
	Exclusions  []string
}

type PlanFilter struct {
	Status entities.PlanStatus
	Limit  int
	Offset int
}

type Repository interface {
	CreatePlan(ctx context.Context, plan entities.Plan) error
	GetPlan(ctx context.Context, planID string) (entities.Plan, error)
	// UpdatePlan commits only when the stored version matches
	// expectedVersion; otherwise it reports ErrVersionConflict.
	UpdatePlan(ctx context.Context, plan entities.Plan, expectedVersion int64) error
	ListPlans(ctx context.Context, filter PlanFilter) ([]entities.Plan, error)
}

// Authorizer is the access gate seam; wired to the authorization service by
// the composition root.
type Authorizer interface {
	Authorize(ctx context.Context, actor Actor, action string, resourceType string, resourceOwnerID string) (bool, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
