// Package notification provides the notification bounded context module:
// in-app notifications, the SSE stream, and email delivery for lead
// matches.
package notification

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadpilot_backend/internal/email"
	apphttp "leadpilot_backend/internal/http"
	"leadpilot_backend/internal/notification/handler"
	"leadpilot_backend/internal/notification/repository"
	"leadpilot_backend/internal/notification/service"
	"leadpilot_backend/internal/notification/sse"
	"leadpilot_backend/platform/events"
	"leadpilot_backend/platform/httpkit"
	"leadpilot_backend/platform/logger"
)

// Module is the notification bounded context module implementing
// http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	stream  *sse.Service
}

// NewModule creates the notification module and subscribes it to the event
// bus.
func NewModule(
	pool *pgxpool.Pool,
	bus events.Bus,
	sender email.Sender,
	prefs service.PreferenceReader,
	recipients service.Recipient,
	deliveries service.DeliveryLog,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	stream := sse.New()
	svc := service.New(repo, stream, sender, prefs, recipients, deliveries, log)
	svc.Subscribe(bus)

	return &Module{
		handler: handler.New(svc),
		service: svc,
		stream:  stream,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// Service returns the service layer.
func (m *Module) Service() *service.Service {
	return m.service
}

// Close shuts down the SSE stream.
func (m *Module) Close() {
	m.stream.Close()
}

// RegisterRoutes mounts notification routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/notifications", m.handler.List)
	ctx.Protected.POST("/notifications/:id/read", m.handler.MarkRead)
	ctx.Protected.POST("/notifications/read-all", m.handler.MarkAllRead)
	ctx.Protected.GET("/notifications/stream", m.stream.Handler(func(c *gin.Context) (uuid.UUID, bool) {
		identity := httpkit.GetIdentity(c)
		if !identity.IsAuthenticated() {
			return uuid.Nil, false
		}
		return identity.UserID(), true
	}))
}
