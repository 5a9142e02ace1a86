package authorization

import (
	"log/slog"

	httpadapter "acphealth/contexts/identity-access/authorization-service/adapters/http"
	"acphealth/contexts/identity-access/authorization-service/application"
	"acphealth/contexts/identity-access/authorization-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
}

type Dependencies struct {
	Relationships ports.Relationships
	Logger        *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Relationships: deps.Relationships,
		Logger:        deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
		Service: service,
	}
}
