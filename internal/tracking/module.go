// Package tracking provides the lead tracking bounded context module. It
// owns the per-user match ledger: lifecycle status, activity log, pipeline
// statistics and the cross-user trending report.
package tracking

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "leadpilot_backend/internal/http"
	"leadpilot_backend/internal/tracking/handler"
	"leadpilot_backend/internal/tracking/repository"
	"leadpilot_backend/internal/tracking/service"
	"leadpilot_backend/platform/logger"
	"leadpilot_backend/platform/validator"
)

// Config carries the tracking module options.
type Config interface {
	GetStrictTransitions() bool
}

// Module is the tracking bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the tracking module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger, cfg Config) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log, cfg.GetStrictTransitions())
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "tracking"
}

// Service returns the service layer for use by the sync engine and
// notification emitter.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts tracking routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/trackings", m.handler.Create)
	ctx.Protected.GET("/trackings", m.handler.List)
	ctx.Protected.GET("/trackings/stats", m.handler.Stats)
	ctx.Protected.GET("/trackings/trending", m.handler.Trending)
	ctx.Protected.GET("/trackings/:id", m.handler.Get)
	ctx.Protected.PATCH("/trackings/:id/status", m.handler.UpdateStatus)
	ctx.Protected.POST("/trackings/:id/actions", m.handler.AddAction)
	ctx.Protected.GET("/trackings/:id/actions", m.handler.ListActions)
	ctx.Protected.DELETE("/trackings/:id", m.handler.Delete)
}
