package userregistry

import (
	"log/slog"
	"time"

	httpadapter "acphealth/contexts/identity-access/user-registry/adapters/http"
	"acphealth/contexts/identity-access/user-registry/adapters/memory"
	"acphealth/contexts/identity-access/user-registry/adapters/security"
	"acphealth/contexts/identity-access/user-registry/application"
	"acphealth/contexts/identity-access/user-registry/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repository ports.Repository
	Hasher     ports.PasswordHasher
	Tokens     ports.TokenIssuer
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:   deps.Repository,
		Hasher: deps.Hasher,
		Tokens: deps.Tokens,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
		Service: service,
	}
}

func NewInMemoryModule(jwtSecret string, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository: store,
		Hasher:     security.BcryptHasher{},
		Tokens: security.JWTIssuer{
			Secret:   jwtSecret,
			TokenTTL: 30 * time.Minute,
		},
		Clock:  store,
		IDGen:  store,
		Logger: logger,
	})
	module.Store = store
	return module
}
