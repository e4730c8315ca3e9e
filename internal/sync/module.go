package sync

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apphttp "leadpilot_backend/internal/http"
	"leadpilot_backend/internal/scheduler/tasks"
	"leadpilot_backend/platform/httpkit"
	"leadpilot_backend/platform/logger"
)

// ProviderLister exposes the registered provider names.
type ProviderLister interface {
	Names() []string
}

// Module exposes the sync engine over HTTP. Manual syncs are queued for
// the scheduler binary; the rematch pass runs inline because it makes no
// provider calls.
type Module struct {
	engine    *Engine
	enqueuer  tasks.SyncEnqueuer
	providers ProviderLister
	log       *logger.Logger
}

// NewModule creates the sync module. enqueuer may be nil; manual syncs
// then run inline instead of being queued.
func NewModule(engine *Engine, enqueuer tasks.SyncEnqueuer, providers ProviderLister, log *logger.Logger) *Module {
	return &Module{engine: engine, enqueuer: enqueuer, providers: providers, log: log}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "sync"
}

// Engine returns the sync engine for use by the scheduler binary.
func (m *Module) Engine() *Engine {
	return m.engine
}

// RegisterRoutes mounts sync routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/sync", m.trigger)
	ctx.Protected.POST("/sync/run", m.runInline)
	ctx.Protected.POST("/sync/rematch", m.rematch)
	ctx.Protected.GET("/sync/providers", m.listProviders)
}

// trigger queues a full sync for the caller.
// POST /api/v1/sync
func (m *Module) trigger(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if m.enqueuer == nil {
		m.runInline(c)
		return
	}

	err := m.enqueuer.EnqueueSyncUser(c.Request.Context(), tasks.SyncUserPayload{
		UserID: identity.UserID().String(),
		Reason: "manual",
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusAccepted, gin.H{"queued": true})
}

// runInline runs a full sync plus the match pass in the request and
// returns the report.
// POST /api/v1/sync/run
func (m *Module) runInline(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	report, err := m.engine.SyncLeadsForUser(c.Request.Context(), identity.UserID())
	if err != nil && report == nil {
		httpkit.HandleError(c, err)
		return
	}

	matched, err := m.engine.MatchStoredLeads(c.Request.Context(), identity.UserID(), time.Time{})
	if err != nil {
		m.log.Warn("match pass failed after inline sync", "user_id", identity.UserID().String(), "error", err.Error())
	}

	// a report with provider failures still comes back to the caller
	httpkit.OK(c, gin.H{"report": report, "matched": matched})
}

type rematchRequest struct {
	SinceHours int `json:"sinceHours" form:"sinceHours"`
}

// rematch rescores stored leads against the caller's current preferences.
// POST /api/v1/sync/rematch
func (m *Module) rematch(c *gin.Context) {
	var req rematchRequest
	_ = c.ShouldBindJSON(&req)
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var since time.Time
	if req.SinceHours > 0 {
		since = time.Now().Add(-time.Duration(req.SinceHours) * time.Hour)
	}

	matched, err := m.engine.MatchStoredLeads(c.Request.Context(), identity.UserID(), since)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"matched": matched})
}

// listProviders returns the supported provider names.
// GET /api/v1/sync/providers
func (m *Module) listProviders(c *gin.Context) {
	if httpkit.MustGetIdentity(c) == nil {
		return
	}
	httpkit.OK(c, gin.H{"providers": m.providers.Names()})
}
