package paymentledger

import (
	"log/slog"

	httpadapter "acphealth/contexts/finance-core/payment-ledger/adapters/http"
	"acphealth/contexts/finance-core/payment-ledger/adapters/memory"
	"acphealth/contexts/finance-core/payment-ledger/application"
	"acphealth/contexts/finance-core/payment-ledger/application/workers"
	"acphealth/contexts/finance-core/payment-ledger/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repository  ports.Repository
	Idempotency ports.IdempotencyStore
	Policies    ports.PolicyLedger
	Claims      ports.ClaimsLedger
	Authorizer  ports.Authorizer
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:        deps.Repository,
		Idempotency: deps.Idempotency,
		Policies:    deps.Policies,
		Claims:      deps.Claims,
		Authz:       deps.Authorizer,
		Outbox:      deps.Outbox,
		Clock:       deps.Clock,
		IDGen:       deps.IDGen,
		Logger:      deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
		Service: service,
	}
}

func NewInMemoryModule(policies ports.PolicyLedger, claims ports.ClaimsLedger, authorizer ports.Authorizer, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository:  store,
		Idempotency: store,
		Policies:    policies,
		Claims:      claims,
		Authorizer:  authorizer,
		Outbox:      store,
		Clock:       store,
		IDGen:       store,
		Logger:      logger,
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
