package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainerrors "acphealth/contexts/internal-ops/admin-dashboard-service/domain/errors"
	"acphealth/contexts/internal-ops/admin-dashboard-service/ports"
)

type Service struct {
	Repo           ports.Repository
	Idempotency    ports.IdempotencyStore
	Users          ports.UserStatsProvider
	Policies       ports.PolicyStatsProvider
	Claims         ports.ClaimStatsProvider
	Revenue        ports.RevenueStatsProvider
	Clock          ports.Clock
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// Overview assembles the dashboard. Admins and agents see the whole book
// including user and revenue figures; customers see only their own slice.
func (s Service) Overview(ctx context.Context, actor ports.Actor) (ports.Overview, error) {
	scope := ""
	backOffice := actor.Role == "admin" || actor.Role == "agent"
	switch {
	case backOffice:
	case actor.Role == "customer":
		scope = actor.UserID
	default:
		return ports.Overview{}, domainerrors.ErrForbidden
	}

	overview := ports.Overview{GeneratedAt: s.now()}

	if s.Policies != nil {
		counts, err := s.Policies.PolicyStatusCounts(ctx, scope)
		if err != nil {
			return ports.Overview{}, err
		}
		overview.PolicyCounts = counts
	}
	if s.Claims != nil {
		claims, err := s.Claims.ClaimsSummary(ctx, scope)
		if err != nil {
			return ports.Overview{}, err
		}
		overview.Claims = claims
	}
	if backOffice {
		if s.Users != nil {
			users, err := s.Users.UserStats(ctx)
			if err != nil {
				return ports.Overview{}, err
			}
			overview.Users = &users
		}
		if s.Revenue != nil {
			revenue, err := s.Revenue.RevenueSummary(ctx)
			if err != nil {
				return ports.Overview{}, err
			}
			overview.Revenue = &revenue
		}
	}

	ResolveLogger(s.Logger).Debug("dashboard overview assembled",
		"event", "dashboard_overview_assembled",
		"module", "internal-ops/admin-dashboard-service",
		"layer", "application",
		"actor_role", actor.Role,
		"scoped", scope != "",
	)
	return overview, nil
}

type RecordActionInput struct {
	Action        string
	TargetID      string
	Justification string
	SourceIP      string
	CorrelationID string
}

// RecordAdminAction appends an audit row for a privileged operation.
// Replays under the same idempotency key return the original row.
func (s Service) RecordAdminAction(ctx context.Context, actor ports.Actor, idempotencyKey string, input RecordActionInput) (ports.AuditLog, error) {
	if actor.Role != "admin" {
		return ports.AuditLog{}, domainerrors.ErrForbidden
	}
	if strings.TrimSpace(input.Action) == "" || strings.TrimSpace(input.Justification) == "" {
		return ports.AuditLog{}, domainerrors.ErrInvalidInput
	}
	if strings.TrimSpace(idempotencyKey) == "" {
		return ports.AuditLog{}, domainerrors.ErrIdempotencyRequired
	}

	now := s.now()
	ttl := s.IdempotencyTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	requestHash := hashPayload(map[string]any{
		"actor_id":      actor.UserID,
		"action":        strings.TrimSpace(input.Action),
		"target_id":     strings.TrimSpace(input.TargetID),
		"justification": strings.TrimSpace(input.Justification),
	})

	existing, err := s.Idempotency.Get(ctx, idempotencyKey, now)
	if err != nil {
		return ports.AuditLog{}, err
	}
	if existing != nil {
		if existing.RequestHash != requestHash {
			return ports.AuditLog{}, domainerrors.ErrIdempotencyConflict
		}
		var cached ports.AuditLog
		if err := json.Unmarshal(existing.ResponseBody, &cached); err != nil {
			return ports.AuditLog{}, err
		}
		return cached, nil
	}
	if err := s.Idempotency.Reserve(ctx, idempotencyKey, requestHash, now.Add(ttl)); err != nil {
		return ports.AuditLog{}, err
	}

	row := ports.AuditLog{
		AuditID:       fmt.Sprintf("audit_%d", now.UnixNano()),
		ActorID:       actor.UserID,
		Action:        strings.TrimSpace(input.Action),
		TargetID:      strings.TrimSpace(input.TargetID),
		Justification: strings.TrimSpace(input.Justification),
		OccurredAt:    now,
		SourceIP:      strings.TrimSpace(input.SourceIP),
		CorrelationID: strings.TrimSpace(input.CorrelationID),
	}
	if err := s.Repo.AppendAuditLog(ctx, row); err != nil {
		return ports.AuditLog{}, err
	}
	body, err := json.Marshal(row)
	if err != nil {
		return ports.AuditLog{}, err
	}
	if err := s.Idempotency.Complete(ctx, idempotencyKey, body, now); err != nil {
		return ports.AuditLog{}, err
	}

	ResolveLogger(s.Logger).Info("admin action recorded",
		"event", "admin_action_recorded",
		"module", "internal-ops/admin-dashboard-service",
		"layer", "application",
		"audit_id", row.AuditID,
		"action", row.Action,
	)
	return row, nil
}

func (s Service) ListRecentActions(ctx context.Context, actor ports.Actor, limit int) ([]ports.AuditLog, error) {
	if actor.Role != "admin" {
		return nil, domainerrors.ErrForbidden
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	return s.Repo.ListRecentAuditLogs(ctx, limit)
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func hashPayload(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
