// Package preferences provides the user preferences bounded context module.
// It owns the matching configuration that drives lead scoring and the
// per-user synchronization statistics.
package preferences

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "leadpilot_backend/internal/http"
	"leadpilot_backend/internal/preferences/handler"
	"leadpilot_backend/internal/preferences/repository"
	"leadpilot_backend/internal/preferences/service"
	"leadpilot_backend/platform/logger"
	"leadpilot_backend/platform/validator"
)

// Module is the preferences bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the preferences module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "preferences"
}

// Service returns the service layer for use by the sync engine.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts preference routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.PUT("/preferences", m.handler.Save)
	ctx.Protected.GET("/preferences", m.handler.Get)
	ctx.Protected.DELETE("/preferences", m.handler.Delete)
	ctx.Protected.GET("/preferences/stats", m.handler.Stats)
}
