package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	plancatalog "acphealth/contexts/coverage-catalog/plan-catalog"
	plansmemory "acphealth/contexts/coverage-catalog/plan-catalog/adapters/memory"
	planspg "acphealth/contexts/coverage-catalog/plan-catalog/adapters/postgres"
	plansports "acphealth/contexts/coverage-catalog/plan-catalog/ports"
	paymentledger "acphealth/contexts/finance-core/payment-ledger"
	paymentmemory "acphealth/contexts/finance-core/payment-ledger/adapters/memory"
	paymentpg "acphealth/contexts/finance-core/payment-ledger/adapters/postgres"
	paymentworkers "acphealth/contexts/finance-core/payment-ledger/application/workers"
	paymentports "acphealth/contexts/finance-core/payment-ledger/ports"
	authorization "acphealth/contexts/identity-access/authorization-service"
	userregistry "acphealth/contexts/identity-access/user-registry"
	usersmemory "acphealth/contexts/identity-access/user-registry/adapters/memory"
	userspg "acphealth/contexts/identity-access/user-registry/adapters/postgres"
	userssecurity "acphealth/contexts/identity-access/user-registry/adapters/security"
	usersports "acphealth/contexts/identity-access/user-registry/ports"
	admindashboardservice "acphealth/contexts/internal-ops/admin-dashboard-service"
	dashmemory "acphealth/contexts/internal-ops/admin-dashboard-service/adapters/memory"
	dashpg "acphealth/contexts/internal-ops/admin-dashboard-service/adapters/postgres"
	dashports "acphealth/contexts/internal-ops/admin-dashboard-service/ports"
	claimsengine "acphealth/contexts/policy-operations/claims-engine"
	claimsmemory "acphealth/contexts/policy-operations/claims-engine/adapters/memory"
	claimspg "acphealth/contexts/policy-operations/claims-engine/adapters/postgres"
	claimsworkers "acphealth/contexts/policy-operations/claims-engine/application/workers"
	claimsports "acphealth/contexts/policy-operations/claims-engine/ports"
	policyledger "acphealth/contexts/policy-operations/policy-ledger"
	policymemory "acphealth/contexts/policy-operations/policy-ledger/adapters/memory"
	policypg "acphealth/contexts/policy-operations/policy-ledger/adapters/postgres"
	policyworkers "acphealth/contexts/policy-operations/policy-ledger/application/workers"
	policyports "acphealth/contexts/policy-operations/policy-ledger/ports"
	"acphealth/internal/platform/config"
	"acphealth/internal/platform/db"
	"acphealth/internal/platform/httpserver"
	"acphealth/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	policyRelay  *policyworkers.OutboxRelay
	claimRelay   *claimsworkers.OutboxRelay
	paymentRelay *paymentworkers.OutboxRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	var pg *db.Postgres
	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		pg, err = db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
	} else {
		logger.Warn("no POSTGRES_DSN set, using in-memory stores",
			"event", "bootstrap_memory_mode",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}

	mods := buildModules(cfg, pg, logger)
	server := httpserver.New(httpserver.Dependencies{
		Users:           mods.users,
		Authorization:   mods.authz,
		Plans:           mods.plans,
		Policies:        mods.policies,
		Claims:          mods.claims,
		Payments:        mods.payments,
		Dashboard:       mods.dashboard,
		Logger:          logger,
		Addr:            normalizeAddr(cfg.HTTPPort),
		EnableSwaggerUI: cfg.EnableSwaggerUI,
	})
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	app := &WorkerApp{
		postgres:     pg,
		pollInterval: 2 * time.Second,
		logger:       logger,
	}
	if cfg.EnablePolicyEventRelay {
		relay := policyledger.NewOutboxRelay(
			policypg.NewRepository(pg.DB, logger),
			instrumentedPublisher{inner: kafka, module: "policy-ledger"},
			nil,
			logger,
		)
		app.policyRelay = &relay
	}
	if cfg.EnableClaimEventRelay {
		relay := claimsengine.NewOutboxRelay(
			claimspg.NewRepository(pg.DB, logger),
			instrumentedPublisher{inner: kafka, module: "claims-engine"},
			nil,
			logger,
		)
		app.claimRelay = &relay
	}
	if cfg.EnablePaymentEventRelay {
		relay := paymentledger.NewOutboxRelay(
			paymentpg.NewRepository(pg.DB, logger),
			instrumentedPublisher{inner: kafka, module: "payment-ledger"},
			nil,
			logger,
		)
		app.paymentRelay = &relay
	}
	return app, nil
}

type modules struct {
	users     userregistry.Module
	authz     authorization.Module
	plans     plancatalog.Module
	policies  policyledger.Module
	claims    claimsengine.Module
	payments  paymentledger.Module
	dashboard admindashboardservice.Module
}

// buildModules wires every bounded context against either postgres or the
// in-memory adapters. Construction order follows the dependency chain:
// identity, catalog, policies, claims, payments, dashboard. The one cycle
// (policies ask claims about open adjudication, claims resolve policies)
// is broken with a late-bound inspector.
func buildModules(cfg config.Config, pg *db.Postgres, logger *slog.Logger) modules {
	var (
		usersRepo  usersports.Repository
		usersClock usersports.Clock
		usersIDGen usersports.IDGenerator
	)
	if pg != nil {
		repo := userspg.NewRepository(pg.DB, logger)
		usersRepo, usersClock, usersIDGen = repo, repo, repo
	} else {
		store := usersmemory.NewStore()
		usersRepo, usersClock, usersIDGen = store, store, store
	}
	users := userregistry.NewModule(userregistry.Dependencies{
		Repository: usersRepo,
		Hasher:     userssecurity.BcryptHasher{},
		Tokens: userssecurity.JWTIssuer{
			Secret:   cfg.JWTSecret,
			TokenTTL: cfg.TokenTTL,
		},
		Clock:  usersClock,
		IDGen:  usersIDGen,
		Logger: logger,
	})

	authz := authorization.NewModule(authorization.Dependencies{
		Relationships: users.Service,
		Logger:        logger,
	})

	var (
		plansRepo  plansports.Repository
		plansClock plansports.Clock
		plansIDGen plansports.IDGenerator
	)
	if pg != nil {
		repo := planspg.NewRepository(pg.DB, logger)
		plansRepo, plansClock, plansIDGen = repo, repo, repo
	} else {
		store := plansmemory.NewStore()
		plansRepo, plansClock, plansIDGen = store, store, store
	}
	plans := plancatalog.NewModule(plancatalog.Dependencies{
		Repository: plansRepo,
		Authorizer: planAuthorizer{authz: authz.Service},
		Clock:      plansClock,
		IDGen:      plansIDGen,
		Logger:     logger,
	})

	var (
		policyRepo   policyports.Repository
		policyOutbox policyports.OutboxWriter
		policyClock  policyports.Clock
		policyIDGen  policyports.IDGenerator
	)
	if pg != nil {
		repo := policypg.NewRepository(pg.DB, logger)
		policyRepo, policyOutbox, policyClock, policyIDGen = repo, repo, repo, repo
	} else {
		store := policymemory.NewStore()
		policyRepo, policyOutbox, policyClock, policyIDGen = store, store, store, store
	}
	inspector := &claimsInspector{}
	policies := policyledger.NewModule(policyledger.Dependencies{
		Repository: policyRepo,
		Plans:      planSource{plans: plans.Service},
		Claims:     inspector,
		Authorizer: policyAuthorizer{authz: authz.Service},
		Outbox:     policyOutbox,
		Clock:      policyClock,
		IDGen:      policyIDGen,
		Logger:     logger,
	})

	var (
		claimsRepo   claimsports.Repository
		claimsOutbox claimsports.OutboxWriter
		claimsClock  claimsports.Clock
		claimsIDGen  claimsports.IDGenerator
	)
	if pg != nil {
		repo := claimspg.NewRepository(pg.DB, logger)
		claimsRepo, claimsOutbox, claimsClock, claimsIDGen = repo, repo, repo, repo
	} else {
		store := claimsmemory.NewStore()
		claimsRepo, claimsOutbox, claimsClock, claimsIDGen = store, store, store, store
	}
	claims := claimsengine.NewModule(claimsengine.Dependencies{
		Repository: claimsRepo,
		Policies:   policyReader{policies: policies.Service},
		Authorizer: claimAuthorizer{authz: authz.Service},
		Outbox:     claimsOutbox,
		Clock:      claimsClock,
		IDGen:      claimsIDGen,
		Logger:     logger,
	})
	inspector.claims = &claims.Service

	var (
		paymentRepo   paymentports.Repository
		paymentIdem   paymentports.IdempotencyStore
		paymentOutbox paymentports.OutboxWriter
		paymentClock  paymentports.Clock
		paymentIDGen  paymentports.IDGenerator
	)
	if pg != nil {
		repo := paymentpg.NewRepository(pg.DB, logger)
		paymentRepo, paymentIdem, paymentOutbox, paymentClock, paymentIDGen = repo, repo, repo, repo, repo
	} else {
		store := paymentmemory.NewStore()
		paymentRepo, paymentIdem, paymentOutbox, paymentClock, paymentIDGen = store, store, store, store, store
	}
	payments := paymentledger.NewModule(paymentledger.Dependencies{
		Repository:  paymentRepo,
		Idempotency: paymentIdem,
		Policies:    policyPremiumLedger{policies: policies.Service, clock: policyClock},
		Claims:      claimPayoutLedger{claims: claims.Service, repo: claimsRepo},
		Authorizer:  paymentAuthorizer{authz: authz.Service},
		Outbox:      paymentOutbox,
		Clock:       paymentClock,
		IDGen:       paymentIDGen,
		Logger:      logger,
	})

	var (
		dashRepo  dashports.Repository
		dashIdem  dashports.IdempotencyStore
		dashClock dashports.Clock
	)
	if pg != nil {
		repo := dashpg.NewRepository(pg.DB, logger)
		dashRepo, dashIdem, dashClock = repo, repo, repo
	} else {
		store := dashmemory.NewStore()
		dashRepo, dashIdem, dashClock = store, store, store
	}
	dashboard := admindashboardservice.NewModule(admindashboardservice.Dependencies{
		Repository:     dashRepo,
		Idempotency:    dashIdem,
		Users:          userStatsProvider{users: users.Service},
		Policies:       policyStatsProvider{policies: policies.Service, repo: policyRepo},
		Claims:         claimStatsProvider{repo: claimsRepo},
		Revenue:        revenueStatsProvider{repo: paymentRepo},
		Clock:          dashClock,
		IdempotencyTTL: 7 * 24 * time.Hour,
		Logger:         logger,
	})

	return modules{
		users:     users,
		authz:     authz,
		plans:     plans,
		policies:  policies,
		claims:    claims,
		payments:  payments,
		dashboard: dashboard,
	}
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if w.policyRelay != nil {
			if err := w.policyRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		if w.claimRelay != nil {
			if err := w.claimRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		if w.paymentRelay != nil {
			if err := w.paymentRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
