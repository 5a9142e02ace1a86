package application

import (
	"context"
	"log/slog"
	"strings"

	domainerrors "acphealth/contexts/identity-access/authorization-service/domain/errors"
	"acphealth/contexts/identity-access/authorization-service/domain/entities"
	"acphealth/contexts/identity-access/authorization-service/domain/services"
	"acphealth/contexts/identity-access/authorization-service/ports"
)

type Service struct {
	Relationships ports.Relationships
	Logger        *slog.Logger
}

// Check answers one authorization question. Malformed roles, actions, or
// resource types deny rather than error out, so the gate stays fail-closed
// even against garbage input; only infrastructure failures return an error.
func (s Service) Check(ctx context.Context, input ports.CheckInput) (ports.CheckResult, error) {
	actorID := strings.TrimSpace(input.ActorID)
	if actorID == "" {
		return ports.CheckResult{Allowed: false, Rule: "default_deny"}, nil
	}

	role, roleOK := entities.ParseRole(input.ActorRole)
	action, actionOK := entities.ParseAction(input.Action)
	resource, resourceOK := entities.ParseResource(input.ResourceType)
	if !roleOK || !actionOK || !resourceOK {
		return ports.CheckResult{Allowed: false, Rule: "default_deny"}, nil
	}

	ownerID := strings.TrimSpace(input.ResourceOwnerID)
	ownership := entities.Ownership{
		OwnsResource: ownerID != "" && ownerID == actorID,
	}
	if role == entities.RoleProvider && ownerID != "" && ownerID != actorID {
		linked, err := s.Relationships.HasActiveProviderRelationship(ctx, actorID, ownerID)
		if err != nil {
			return ports.CheckResult{}, err
		}
		ownership.ActsForOwner = linked
	}

	decision := services.Decide(role, action, resource, ownership)
	resolveLogger(s.Logger).Debug("authorization decision",
		"event", "authorization_decided",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"actor_id", actorID,
		"role", string(role),
		"action", string(action),
		"resource", string(resource),
		"allowed", decision.Allowed,
		"rule", decision.Rule,
	)
	return ports.CheckResult{Allowed: decision.Allowed, Rule: decision.Rule}, nil
}

// CheckBatch evaluates several questions in one call, for audit tooling.
func (s Service) CheckBatch(ctx context.Context, inputs []ports.CheckInput) ([]ports.CheckResult, error) {
	if len(inputs) == 0 {
		return nil, domainerrors.ErrInvalidInput
	}
	results := make([]ports.CheckResult, 0, len(inputs))
	for _, input := range inputs {
		result, err := s.Check(ctx, input)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// Require is the convenience form used by the other modules' authorizer
// ports: it turns a deny into ErrForbidden.
func (s Service) Require(ctx context.Context, input ports.CheckInput) error {
	result, err := s.Check(ctx, input)
	if err != nil {
		return err
	}
	if !result.Allowed {
		return domainerrors.ErrForbidden
	}
	return nil
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
