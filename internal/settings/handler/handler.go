package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadpilot_backend/internal/scheduler"
	"leadpilot_backend/internal/settings/repository"
	"leadpilot_backend/internal/settings/service"
	"leadpilot_backend/platform/httpkit"
	"leadpilot_backend/platform/validator"
)

// Handler handles HTTP requests for sync schedules.
type Handler struct {
	svc      *service.Service
	val      *validator.Validator
	enqueuer scheduler.SyncEnqueuer
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid config ID"
)

// New creates a new settings handler. enqueuer may be nil when no queue is
// wired; reschedules then take effect on the scheduler's next reload.
func New(svc *service.Service, val *validator.Validator, enqueuer scheduler.SyncEnqueuer) *Handler {
	return &Handler{svc: svc, val: val, enqueuer: enqueuer}
}

type saveConfigRequest struct {
	Provider      string `json:"provider" validate:"required,min=1,max=50"`
	Schedule      string `json:"schedule" validate:"required"`
	Enabled       bool   `json:"enabled"`
	RetryAttempts int    `json:"retryAttempts" validate:"min=0,max=10"`
	RetryDelaySec int    `json:"retryDelaySec" validate:"min=0,max=3600"`
}

// Save creates or replaces the caller's schedule for a provider.
// PUT /api/v1/settings/schedules
func (h *Handler) Save(c *gin.Context) {
	var req saveConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	saved, err := h.svc.Save(c.Request.Context(), &repository.APIConfig{
		UserID:        identity.UserID(),
		Provider:      req.Provider,
		Schedule:      req.Schedule,
		Enabled:       req.Enabled,
		RetryAttempts: req.RetryAttempts,
		RetryDelaySec: req.RetryDelaySec,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	h.requestReload(c)
	httpkit.OK(c, saved)
}

// List returns the caller's schedules.
// GET /api/v1/settings/schedules
func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	configs, err := h.svc.ListByUser(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": configs})
}

// Delete removes one schedule.
// DELETE /api/v1/settings/schedules/:id
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), identity.UserID(), id)) {
		return
	}

	h.requestReload(c)
	httpkit.OK(c, gin.H{"deleted": true})
}

// ListAll returns every enabled schedule (admin only).
// GET /api/v1/admin/schedules
func (h *Handler) ListAll(c *gin.Context) {
	configs, err := h.svc.ListEnabled(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": configs})
}

// Reschedule forces the scheduler to reinstall its cron jobs (admin only).
// POST /api/v1/admin/schedules/reload
func (h *Handler) Reschedule(c *gin.Context) {
	if h.enqueuer == nil {
		httpkit.JSON(c, http.StatusAccepted, gin.H{"queued": false})
		return
	}
	if httpkit.HandleError(c, h.enqueuer.EnqueueReloadSchedules(c.Request.Context())) {
		return
	}
	httpkit.JSON(c, http.StatusAccepted, gin.H{"queued": true})
}

func (h *Handler) requestReload(c *gin.Context) {
	if h.enqueuer == nil {
		return
	}
	// best effort: the scheduler also reloads on its own cadence
	_ = h.enqueuer.EnqueueReloadSchedules(c.Request.Context())
}
