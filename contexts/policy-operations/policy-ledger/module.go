package policyledger

import (
	"log/slog"

	httpadapter "acphealth/contexts/policy-operations/policy-ledger/adapters/http"
	"acphealth/contexts/policy-operations/policy-ledger/adapters/memory"
	"acphealth/contexts/policy-operations/policy-ledger/application"
	"acphealth/contexts/policy-operations/policy-ledger/application/workers"
	"acphealth/contexts/policy-operations/policy-ledger/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repository ports.Repository
	Plans      ports.PlanSource
	Claims     ports.ClaimsInspector
	Authorizer ports.Authorizer
	Outbox     ports.OutboxWriter
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:   deps.Repository,
		Plans:  deps.Plans,
		Claims: deps.Claims,
		Authz:  deps.Authorizer,
		Outbox: deps.Outbox,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
		Service: service,
	}
}

func NewInMemoryModule(plans ports.PlanSource, claims ports.ClaimsInspector, authorizer ports.Authorizer, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository: store,
		Plans:      plans,
		Claims:     claims,
		Authorizer: authorizer,
		Outbox:     store,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}

// NewOutboxRelay builds the worker that drains this module's outbox.
func NewOutboxRelay(outbox ports.OutboxRepository, publisher ports.EventPublisher, clock ports.Clock, logger *slog.Logger) workers.OutboxRelay {
	return workers.OutboxRelay{
		Outbox:    outbox,
		Publisher: publisher,
		Clock:     clock,
		BatchSize: 100,
		Logger:    logger,
	}
}
