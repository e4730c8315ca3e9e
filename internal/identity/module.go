// Package identity provides the identity bounded context module: user
// accounts, credential verification, and access token issuance.
package identity

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "leadpilot_backend/internal/http"
	"leadpilot_backend/internal/identity/handler"
	"leadpilot_backend/internal/identity/repository"
	"leadpilot_backend/internal/identity/service"
	"leadpilot_backend/platform/config"
	"leadpilot_backend/platform/logger"
	"leadpilot_backend/platform/validator"
)

// Module is the identity bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the identity module.
func NewModule(pool *pgxpool.Pool, cfg config.AuthServiceConfig, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "identity"
}

// Service returns the service layer for use by the sweep and the
// notification emitter.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts identity routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	authGroup := ctx.V1.Group("/auth")
	authGroup.Use(ctx.AuthRateLimiter.RateLimit())
	authGroup.POST("/register", m.handler.Register)
	authGroup.POST("/login", m.handler.Login)

	ctx.Protected.GET("/users/me", m.handler.Me)

	ctx.Admin.GET("/users", m.handler.List)
	ctx.Admin.PUT("/users/:id/roles", m.handler.SetRoles)
	ctx.Admin.PUT("/users/:id/active", m.handler.SetActive)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
