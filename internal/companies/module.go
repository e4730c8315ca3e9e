package companies

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "leadpilot_backend/internal/http"
	"leadpilot_backend/platform/validator"
)

// Module is the companies bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates and initializes the companies module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := NewRepository(pool)
	return &Module{handler: NewHandler(repo, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "companies"
}

// RegisterRoutes mounts company routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/companies", m.handler.Create)
	ctx.Protected.GET("/companies", m.handler.List)
	ctx.Protected.GET("/companies/:id", m.handler.Get)
	ctx.Protected.PUT("/companies/:id", m.handler.Update)
	ctx.Protected.DELETE("/companies/:id", m.handler.Delete)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
