// Package leads provides the shared lead pool bounded context module.
// Leads arrive through the sync engine; this module exposes read access
// and admin cleanup.
package leads

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "leadpilot_backend/internal/http"
	"leadpilot_backend/internal/leads/handler"
	"leadpilot_backend/internal/leads/repository"
	"leadpilot_backend/internal/leads/service"
	"leadpilot_backend/platform/logger"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the leads module.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for use by the sync engine.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/leads", m.handler.List)
	ctx.Protected.GET("/leads/:id", m.handler.Get)
	ctx.Admin.DELETE("/leads/:id", m.handler.Delete)
}
