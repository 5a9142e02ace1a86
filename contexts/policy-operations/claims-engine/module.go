package claimsengine

import (
	"log/slog"

	httpadapter "acphealth/contexts/policy-operations/claims-engine/adapters/http"
	"acphealth/contexts/policy-operations/claims-engine/adapters/memory"
	"acphealth/contexts/policy-operations/claims-engine/application"
	"acphealth/contexts/policy-operations/claims-engine/application/workers"
	"acphealth/contexts/policy-operations/claims-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repository ports.Repository
	Policies   ports.PolicyReader
	Authorizer ports.Authorizer
	Outbox     ports.OutboxWriter
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:     deps.Repository,
		Policies: deps.Policies,
		Authz:    deps.Authorizer,
		Outbox:   deps.Outbox,
		Clock:    deps.Clock,
		IDGen:    deps.IDGen,
		Logger:   deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
		Service: service,
	}
}

func NewInMemoryModule(policies ports.PolicyReader, authorizer ports.Authorizer, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository: store,
		Policies:   policies,
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
