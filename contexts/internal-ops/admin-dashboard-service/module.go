package admindashboardservice

import (
	"log/slog"
	"time"

	httpadapter "acphealth/contexts/internal-ops/admin-dashboard-service/adapters/http"
	"acphealth/contexts/internal-ops/admin-dashboard-service/adapters/memory"
	"acphealth/contexts/internal-ops/admin-dashboard-service/application"
	"acphealth/contexts/internal-ops/admin-dashboard-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repository     ports.Repository
	Idempotency    ports.IdempotencyStore
	Users          ports.UserStatsProvider
	Policies       ports.PolicyStatsProvider
	Claims         ports.ClaimStatsProvider
	Revenue        ports.RevenueStatsProvider
	Clock          ports.Clock
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:           deps.Repository,
		Idempotency:    deps.Idempotency,
		Users:          deps.Users,
		Policies:       deps.Policies,
		Claims:         deps.Claims,
		Revenue:        deps.Revenue,
		Clock:          deps.Clock,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
		Service: service,
	}
}

func NewInMemoryModule(users ports.UserStatsProvider, policies ports.PolicyStatsProvider, claims ports.ClaimStatsProvider, revenue ports.RevenueStatsProvider, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository:     store,
		Idempotency:    store,
		Users:          users,
		Policies:       policies,
		Claims:         claims,
		Revenue:        revenue,
		Clock:          store,
		IdempotencyTTL: 7 * 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
