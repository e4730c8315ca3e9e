// Package settings provides the sync schedule bounded context module. It
// owns the per-user provider schedules the cron runner installs.
package settings

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "leadpilot_backend/internal/http"
	"leadpilot_backend/internal/scheduler"
	"leadpilot_backend/internal/settings/handler"
	"leadpilot_backend/internal/settings/repository"
	"leadpilot_backend/internal/settings/service"
	"leadpilot_backend/platform/logger"
	"leadpilot_backend/platform/validator"
)

// Module is the settings bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the settings module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger, providers []string, enqueuer scheduler.SyncEnqueuer) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log, providers)
	h := handler.New(svc, val, enqueuer)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "settings"
}

// Service returns the service layer for use by the scheduler runner.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts schedule routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.PUT("/settings/schedules", m.handler.Save)
	ctx.Protected.GET("/settings/schedules", m.handler.List)
	ctx.Protected.DELETE("/settings/schedules/:id", m.handler.Delete)
	ctx.Admin.GET("/schedules", m.handler.ListAll)
	ctx.Admin.POST("/schedules/reload", m.handler.Reschedule)
}
